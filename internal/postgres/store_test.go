package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/postgres"
	"github.com/docuchat/docuchat/internal/source"
	"github.com/docuchat/docuchat/internal/testutil"
)

// seedRow inserts a row and returns its generated id.
func seedRow(t *testing.T, db *testutil.TestDBContainer, query string, args ...any) string {
	t.Helper()

	var id string
	if err := db.Pool.QueryRow(context.Background(), query, args...).Scan(&id); err != nil {
		t.Fatalf("seed query failed: %v", err)
	}
	return id
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.New(db.Pool, testutil.DiscardLogger())

	profileID := seedRow(t, db,
		`INSERT INTO profiles (name, description) VALUES ('Research', 'papers') RETURNING id`)
	promptID := seedRow(t, db,
		`INSERT INTO system_prompts (name, prompt_text, is_active) VALUES ('General', 'Be helpful.', true) RETURNING id`)
	inactiveID := seedRow(t, db,
		`INSERT INTO system_prompts (name, prompt_text, is_active) VALUES ('Draft', 'Unused.', false) RETURNING id`)
	for i := 0; i < 2; i++ {
		seedRow(t, db,
			`INSERT INTO documents (profile_id, title) VALUES ($1, 'doc') RETURNING id`, profileID)
	}

	t.Run("Profile", func(t *testing.T) {
		p, err := store.Profile(ctx, profileID)
		if err != nil {
			t.Fatalf("Profile failed: %v", err)
		}
		if p.Name != "Research" {
			t.Errorf("name = %q, want Research", p.Name)
		}
	})

	t.Run("ProfileNotFound", func(t *testing.T) {
		_, err := store.Profile(ctx, uuid.NewString())
		if !errors.Is(err, chat.ErrProfileNotFound) {
			t.Errorf("err = %v, want ErrProfileNotFound", err)
		}
	})

	t.Run("CountByProfile", func(t *testing.T) {
		count, err := store.CountByProfile(ctx, profileID)
		if err != nil {
			t.Fatalf("CountByProfile failed: %v", err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})

	t.Run("ActivePrompts", func(t *testing.T) {
		prompts, err := store.ActivePrompts(ctx)
		if err != nil {
			t.Fatalf("ActivePrompts failed: %v", err)
		}
		if len(prompts) != 1 {
			t.Fatalf("got %d prompts, want 1", len(prompts))
		}
		if prompts[0].ID == inactiveID {
			t.Error("inactive prompt returned as active")
		}
	})

	t.Run("ConversationLifecycle", func(t *testing.T) {
		conv, err := store.CreateConversation(ctx, profileID, "What is attention?", promptID)
		if err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}

		userMsg, err := store.CreateMessage(ctx, conv.ID, chat.CreateMessageParams{
			Role:           chat.RoleUser,
			Content:        "What is attention?",
			SystemPromptID: promptID,
		})
		if err != nil {
			t.Fatalf("CreateMessage(user) failed: %v", err)
		}
		if userMsg.SequenceNumber != 1 {
			t.Errorf("user sequence = %d, want 1", userMsg.SequenceNumber)
		}

		assistantMsg, err := store.CreateMessage(ctx, conv.ID, chat.CreateMessageParams{
			Role:           chat.RoleAssistant,
			Content:        "Attention weighs token relevance.",
			SystemPromptID: promptID,
			Sources: []source.Source{
				{ID: "src-attention", Title: "Attention Is All You Need", Page: 3, Confidence: 0.95},
				{ID: "src-survey", Title: "Transformer Survey", Page: 12, Confidence: 0.81},
			},
		})
		if err != nil {
			t.Fatalf("CreateMessage(assistant) failed: %v", err)
		}
		if assistantMsg.SequenceNumber != 2 {
			t.Errorf("assistant sequence = %d, want 2", assistantMsg.SequenceNumber)
		}

		messages, err := store.MessagesByConversation(ctx, conv.ID)
		if err != nil {
			t.Fatalf("MessagesByConversation failed: %v", err)
		}
		if len(messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(messages))
		}
		if messages[0].Role != chat.RoleUser || messages[1].Role != chat.RoleAssistant {
			t.Errorf("roles out of order: %s, %s", messages[0].Role, messages[1].Role)
		}
		if messages[0].Status != chat.StatusCompleted {
			t.Errorf("status = %s, want completed", messages[0].Status)
		}
		if len(messages[1].Sources) != 2 {
			t.Fatalf("assistant sources = %d, want 2", len(messages[1].Sources))
		}
		if messages[1].Sources[0].ID != "src-attention" {
			t.Errorf("source order not preserved: %s first", messages[1].Sources[0].ID)
		}

		convs, err := store.ConversationsByProfile(ctx, profileID)
		if err != nil {
			t.Fatalf("ConversationsByProfile failed: %v", err)
		}
		if len(convs) == 0 || convs[0].ID != conv.ID {
			t.Error("newest conversation must come first")
		}
	})

	t.Run("CreateMessageUnknownConversation", func(t *testing.T) {
		_, err := store.CreateMessage(ctx, uuid.NewString(), chat.CreateMessageParams{
			Role:           chat.RoleUser,
			Content:        "orphan",
			SystemPromptID: promptID,
		})
		if !errors.Is(err, chat.ErrConversationNotFound) {
			t.Errorf("err = %v, want ErrConversationNotFound", err)
		}
	})
}
