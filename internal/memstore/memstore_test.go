package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/docuchat/docuchat/internal/chat"
)

func TestSeed(t *testing.T) {
	t.Parallel()

	s := New()
	Seed(s)
	ctx := context.Background()

	for _, id := range []string{ProfileResearch, ProfileTechDocs, ProfileLegal} {
		if _, err := s.Profile(ctx, id); err != nil {
			t.Errorf("seeded profile %s missing: %v", id, err)
		}
	}

	prompts, err := s.ActivePrompts(ctx)
	if err != nil {
		t.Fatalf("ActivePrompts failed: %v", err)
	}
	if len(prompts) != 3 {
		t.Errorf("active prompts = %d, want 3 (technical is inactive)", len(prompts))
	}

	convs, err := s.ConversationsByProfile(ctx, ProfileResearch)
	if err != nil {
		t.Fatalf("ConversationsByProfile failed: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("research conversations = %d, want 1", len(convs))
	}

	messages, err := s.MessagesByConversation(ctx, convs[0].ID)
	if err != nil {
		t.Fatalf("MessagesByConversation failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("seeded messages = %d, want 2", len(messages))
	}
	if len(messages[1].Sources) != 2 {
		t.Errorf("seeded assistant sources = %d, want 2", len(messages[1].Sources))
	}
}

func TestCreateMessageAssignsSequence(t *testing.T) {
	t.Parallel()

	s := New()
	Seed(s)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, ProfileLegal, "contract review", PromptLegal)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		msg, err := s.CreateMessage(ctx, conv.ID, chat.CreateMessageParams{
			Role:    chat.RoleUser,
			Content: "question",
		})
		if err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
		if msg.SequenceNumber != i {
			t.Errorf("sequence = %d, want %d", msg.SequenceNumber, i)
		}
	}
}

func TestCreateConversationUnknownProfile(t *testing.T) {
	t.Parallel()

	s := New()

	_, err := s.CreateConversation(context.Background(), "profile-ghost", "t", "p")
	if !errors.Is(err, chat.ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestMessagesByConversationUnknown(t *testing.T) {
	t.Parallel()

	s := New()

	_, err := s.MessagesByConversation(context.Background(), "conv-ghost")
	if !errors.Is(err, chat.ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestFailWrites(t *testing.T) {
	t.Parallel()

	s := New()
	Seed(s)
	ctx := context.Background()

	injected := errors.New("injected")
	s.FailWrites(injected, injected)

	if _, err := s.CreateConversation(ctx, ProfileLegal, "t", PromptLegal); !errors.Is(err, injected) {
		t.Errorf("CreateConversation err = %v, want injected", err)
	}

	s.FailWrites(nil, nil)
	if _, err := s.CreateConversation(ctx, ProfileLegal, "t", PromptLegal); err != nil {
		t.Errorf("CreateConversation after reset failed: %v", err)
	}
}

func TestReturnedMessagesAreCopies(t *testing.T) {
	t.Parallel()

	s := New()
	Seed(s)
	ctx := context.Background()

	convs, err := s.ConversationsByProfile(ctx, ProfileResearch)
	if err != nil {
		t.Fatalf("ConversationsByProfile failed: %v", err)
	}

	first, err := s.MessagesByConversation(ctx, convs[0].ID)
	if err != nil {
		t.Fatalf("MessagesByConversation failed: %v", err)
	}
	first[0].Content = "mutated"

	second, err := s.MessagesByConversation(ctx, convs[0].ID)
	if err != nil {
		t.Fatalf("MessagesByConversation failed: %v", err)
	}
	if second[0].Content == "mutated" {
		t.Error("store handed out a shared message pointer")
	}
}
