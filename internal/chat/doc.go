// Package chat implements the conversation subsystem: conversation identity,
// message ordering, per-message source attribution, retry of failed turns,
// and the binding between a conversation and the (profile, system prompt)
// pair that produced it.
//
// Key pieces:
//
//   - [Manager] owns conversation lifecycle: profile resolution,
//     conversation listing and [Manager.ResumeOrStart].
//   - [Executor] runs exactly one user→assistant exchange per call
//     ([Executor.Send]) and re-runs failed ones ([Executor.Retry]).
//   - [Controller] wires launch parameters → profile → system prompts →
//     conversation resume, in that fixed order, and produces a [Session].
//   - [Session] is the live, single-writer view of one open conversation.
//
// # Concurrency
//
// A Session has exactly one logical writer. Sends are serialized by an
// in-flight flag checked at entry: a second send while one is pending is
// rejected with [ErrTurnInFlight], it never queues. The internal mutex only
// guarantees memory safety for readers; it is not the concurrency model.
//
// # Persistence
//
// All durable state lives behind the [ConversationStore], [ProfileStore],
// [PromptStore] and [DocumentStore] ports. The in-memory message projection
// on Session is optimistic: a persistence failure is surfaced on the affected
// message but never discards the user's typed query.
package chat
