package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/source"
)

// Store implements chat.ProfileStore, chat.DocumentStore, chat.PromptStore
// and chat.ConversationStore on PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store. logger may be nil.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Profile implements chat.ProfileStore.
func (s *Store) Profile(ctx context.Context, id string) (*chat.Profile, error) {
	var p chat.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, chat.ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", id, err)
	}
	return &p, nil
}

// CountByProfile implements chat.DocumentStore.
func (s *Store) CountByProfile(ctx context.Context, profileID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE profile_id = $1`,
		profileID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents for profile %s: %w", profileID, err)
	}
	return count, nil
}

// ActivePrompts implements chat.PromptStore.
func (s *Store) ActivePrompts(ctx context.Context) ([]*chat.SystemPrompt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, prompt_text, is_active, created_at, updated_at
		 FROM system_prompts
		 WHERE is_active
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query active prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*chat.SystemPrompt
	for rows.Next() {
		var p chat.SystemPrompt
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PromptText, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}
	return prompts, nil
}

// ConversationsByProfile implements chat.ConversationStore.
func (s *Store) ConversationsByProfile(ctx context.Context, profileID string) ([]*chat.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, title, system_prompt_id, created_at
		 FROM conversations
		 WHERE profile_id = $1
		 ORDER BY created_at DESC, id DESC`,
		profileID)
	if err != nil {
		return nil, fmt.Errorf("query conversations for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var convs []*chat.Conversation
	for rows.Next() {
		var c chat.Conversation
		if err := rows.Scan(&c.ID, &c.ProfileID, &c.Title, &c.SystemPromptID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return convs, nil
}

// MessagesByConversation implements chat.ConversationStore. Messages come
// back in strict sequence order with their sources attached.
func (s *Store) MessagesByConversation(ctx context.Context, conversationID string) ([]*chat.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, system_prompt_id, sequence_number, created_at
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY sequence_number`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var messages []*chat.Message
	byID := make(map[string]*chat.Message)
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.SystemPromptID, &m.SequenceNumber, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Status = chat.StatusCompleted // only completed turns are persisted
		messages = append(messages, &m)
		byID[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	if err := s.attachSources(ctx, conversationID, byID); err != nil {
		return nil, err
	}
	return messages, nil
}

// attachSources loads all cited sources for a conversation in one query and
// distributes them to their messages in citation order.
func (s *Store) attachSources(ctx context.Context, conversationID string, byID map[string]*chat.Message) error {
	rows, err := s.pool.Query(ctx,
		`SELECT ms.message_id, ms.source_id, ms.title, ms.excerpt, ms.page, ms.confidence, ms.retrieved_at
		 FROM message_sources ms
		 JOIN messages m ON m.id = ms.message_id
		 WHERE m.conversation_id = $1
		 ORDER BY m.sequence_number, ms.position`,
		conversationID)
	if err != nil {
		return fmt.Errorf("query sources for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var src source.Source
		if err := rows.Scan(&messageID, &src.ID, &src.Title, &src.Excerpt, &src.Page, &src.Confidence, &src.RetrievedAt); err != nil {
			return fmt.Errorf("scan source: %w", err)
		}
		if msg, ok := byID[messageID]; ok {
			msg.Sources = append(msg.Sources, src)
		}
	}
	return rows.Err()
}

// CreateConversation implements chat.ConversationStore.
func (s *Store) CreateConversation(ctx context.Context, profileID, title, systemPromptID string) (*chat.Conversation, error) {
	var c chat.Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (profile_id, title, system_prompt_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, profile_id, title, system_prompt_id, created_at`,
		profileID, title, systemPromptID,
	).Scan(&c.ID, &c.ProfileID, &c.Title, &c.SystemPromptID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create conversation for profile %s: %w", profileID, err)
	}

	s.logger.Debug("created conversation", "id", c.ID, "profile", profileID)
	return &c, nil
}

// CreateMessage implements chat.ConversationStore. The conversation row is
// locked for the duration of the transaction so sequence numbers are
// assigned without races; the message and its sources commit atomically.
func (s *Store) CreateMessage(ctx context.Context, conversationID string, params chat.CreateMessageParams) (*chat.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`,
		conversationID,
	).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, chat.ErrConversationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock conversation %s: %w", conversationID, err)
	}

	var seq int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM messages WHERE conversation_id = $1`,
		conversationID,
	).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("next sequence number: %w", err)
	}

	var m chat.Message
	err = tx.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, role, content, system_prompt_id, sequence_number)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, conversation_id, role, content, system_prompt_id, sequence_number, created_at`,
		conversationID, params.Role, params.Content, params.SystemPromptID, seq,
	).Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.SystemPromptID, &m.SequenceNumber, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	m.Status = chat.StatusCompleted

	for i, src := range params.Sources {
		_, err = tx.Exec(ctx,
			`INSERT INTO message_sources (message_id, position, source_id, title, excerpt, page, confidence, retrieved_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			m.ID, i, src.ID, src.Title, src.Excerpt, src.Page, src.Confidence, src.RetrievedAt)
		if err != nil {
			return nil, fmt.Errorf("insert source %d for message %s: %w", i, m.ID, err)
		}
	}
	m.Sources = params.Sources

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}

	s.logger.Debug("appended message", "conversation", conversationID, "sequence", seq, "role", params.Role)
	return &m, nil
}
