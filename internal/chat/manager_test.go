package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/memstore"
	"github.com/docuchat/docuchat/internal/testutil"
)

func newManager(store *memstore.Store) *chat.Manager {
	return chat.NewManager(store, store, store, testutil.DiscardLogger())
}

func TestResolveProfile(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	manager := newManager(store)

	profile, err := manager.ResolveProfile(context.Background(), memstore.ProfileLegal)
	if err != nil {
		t.Fatalf("ResolveProfile failed: %v", err)
	}
	if profile.DocumentCount != 23 {
		t.Errorf("document count = %d, want 23", profile.DocumentCount)
	}
}

func TestResolveProfileEmpty(t *testing.T) {
	t.Parallel()

	store := newSeededStore()

	_, err := newManager(store).ResolveProfile(context.Background(), "")
	if !errors.Is(err, chat.ErrNoProfileSpecified) {
		t.Errorf("err = %v, want ErrNoProfileSpecified", err)
	}
}

func TestResolveProfileUnknown(t *testing.T) {
	t.Parallel()

	store := newSeededStore()

	_, err := newManager(store).ResolveProfile(context.Background(), "profile-ghost")
	if !errors.Is(err, chat.ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	manager := newManager(store)
	ctx := context.Background()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := store.CreateConversation(ctx, memstore.ProfileLegal, title, memstore.PromptLegal); err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	convs, err := manager.ListConversations(ctx, memstore.ProfileLegal)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(convs) != 3 {
		t.Fatalf("got %d conversations, want 3", len(convs))
	}
	want := []string{"third", "second", "first"}
	for i, title := range want {
		if convs[i].Title != title {
			t.Errorf("convs[%d].Title = %q, want %q", i, convs[i].Title, title)
		}
	}
}

func TestResumeOrStartNoHistory(t *testing.T) {
	t.Parallel()

	store := newSeededStore()

	conv, messages, err := newManager(store).ResumeOrStart(context.Background(), memstore.ProfileLegal)
	if err != nil {
		t.Fatalf("ResumeOrStart failed: %v", err)
	}
	if conv != nil {
		t.Errorf("conv = %+v, want nil when the profile has no history", conv)
	}
	if messages == nil || len(messages) != 0 {
		t.Errorf("messages = %v, want empty non-nil slice", messages)
	}
}

func TestResumeOrStartResumesMostRecent(t *testing.T) {
	t.Parallel()

	store := newSeededStore()

	conv, messages, err := newManager(store).ResumeOrStart(context.Background(), memstore.ProfileResearch)
	if err != nil {
		t.Fatalf("ResumeOrStart failed: %v", err)
	}
	if conv == nil {
		t.Fatal("expected the seeded conversation to resume")
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Role != chat.RoleUser || messages[1].Role != chat.RoleAssistant {
		t.Errorf("roles = %s, %s; want user, assistant", messages[0].Role, messages[1].Role)
	}
	if len(messages[1].Sources) != 2 {
		t.Errorf("assistant sources = %d, want 2", len(messages[1].Sources))
	}
}

func TestResumeOrStartIdempotent(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	manager := newManager(store)
	ctx := context.Background()

	conv1, msgs1, err := manager.ResumeOrStart(ctx, memstore.ProfileResearch)
	if err != nil {
		t.Fatalf("first ResumeOrStart failed: %v", err)
	}
	conv2, msgs2, err := manager.ResumeOrStart(ctx, memstore.ProfileResearch)
	if err != nil {
		t.Fatalf("second ResumeOrStart failed: %v", err)
	}

	if conv1.ID != conv2.ID {
		t.Errorf("resume is not stable: %s vs %s", conv1.ID, conv2.ID)
	}
	if len(msgs1) != len(msgs2) {
		t.Errorf("resume changed message count: %d vs %d", len(msgs1), len(msgs2))
	}
}
