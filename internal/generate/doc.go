// Package generate provides implementations of the chat.Generator port.
//
// Actual language-model inference is outside this repository's scope; these
// implementations cover the three cases the conversation subsystem needs:
//
//   - [Simulated] stands in for a RAG backend with canned, query-derived
//     answers and synthetic citations. Delay and randomness are injectable
//     so tests never depend on wall-clock time.
//   - [Retrying] wraps any generator with exponential backoff and proactive
//     rate limiting for transient failures.
//   - [OpenAI] adapts an OpenAI-compatible chat-completion endpoint.
package generate
