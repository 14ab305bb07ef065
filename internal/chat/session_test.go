package chat_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/memstore"
	"github.com/docuchat/docuchat/internal/source"
)

func TestSelectPrompt(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	sess := openSession(t, store, memstore.ProfileResearch)

	if err := sess.SelectPrompt(memstore.PromptLegal); err != nil {
		t.Fatalf("SelectPrompt failed: %v", err)
	}
	if sess.Prompt().ID != memstore.PromptLegal {
		t.Errorf("selected prompt = %s, want %s", sess.Prompt().ID, memstore.PromptLegal)
	}
}

func TestSelectPromptUnknown(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	sess := openSession(t, store, memstore.ProfileResearch)

	before := sess.Prompt()
	if err := sess.SelectPrompt("prompt-ghost"); !errors.Is(err, chat.ErrPromptNotSelectable) {
		t.Fatalf("err = %v, want ErrPromptNotSelectable", err)
	}
	if sess.Prompt().ID != before.ID {
		t.Error("rejected selection must not change the current prompt")
	}
}

func TestSelectPromptInactive(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	sess := openSession(t, store, memstore.ProfileResearch)

	// The inactive prompt is not in the session's list, so selecting it is
	// rejected the same way as an unknown id.
	if err := sess.SelectPrompt(memstore.PromptTechnical); !errors.Is(err, chat.ErrPromptNotSelectable) {
		t.Errorf("err = %v, want ErrPromptNotSelectable", err)
	}
}

func TestSelectPromptClosedSession(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	sess := openSession(t, store, memstore.ProfileResearch)
	sess.Close()

	if err := sess.SelectPrompt(memstore.PromptLegal); !errors.Is(err, chat.ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
	if sess.CanSend() {
		t.Error("closed session must not allow sending")
	}
}

func TestSourceRegistryFromResumedConversation(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	sess := openSession(t, store, memstore.ProfileResearch)

	reg := sess.SourceRegistry()
	if reg.Len() != 2 {
		t.Fatalf("registry has %d sources, want 2", reg.Len())
	}

	stats := reg.Stats()
	if stats.HighConfidence != 2 {
		t.Errorf("high-confidence count = %d, want 2", stats.HighConfidence)
	}
	if math.Abs(stats.MeanConfidence-0.90) > 1e-9 {
		t.Errorf("mean confidence = %v, want 0.90", stats.MeanConfidence)
	}
	if stats.MaxPage != 15 {
		t.Errorf("max page = %d, want 15", stats.MaxPage)
	}
}

func TestSourceRegistryRebuildIsStable(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	sess := openSession(t, store, memstore.ProfileResearch)

	first := sess.SourceRegistry()
	second := sess.SourceRegistry()
	if first.Len() != second.Len() {
		t.Errorf("rebuild changed size: %d vs %d", first.Len(), second.Len())
	}
	if first.Stats() != second.Stats() {
		t.Errorf("rebuild changed stats: %+v vs %+v", first.Stats(), second.Stats())
	}
}

func TestSourceRegistryEmptySession(t *testing.T) {
	t.Parallel()

	store := newSeededStore()
	sess := openSession(t, store, memstore.ProfileTechDocs)

	reg := sess.SourceRegistry()
	if reg.Len() != 0 {
		t.Fatalf("registry has %d sources, want 0", reg.Len())
	}
	if mean := reg.Stats().MeanConfidence; mean != source.MeanConfidenceUndefined {
		t.Errorf("mean confidence = %v, want the undefined sentinel", mean)
	}
}

func TestTruncateTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"short stays whole", "short question", "short question"},
		{"exactly fifty", str50(), str50()},
		{"over fifty is cut", str50() + "overflow", str50() + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := chat.TruncateTitle(tt.query); got != tt.want {
				t.Errorf("TruncateTitle(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func str50() string {
	s := ""
	for len(s) < 50 {
		s += "x"
	}
	return s
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []error{
		chat.ErrProfileNotFound,
		chat.ErrUnauthenticated,
		chat.ErrNoProfileSpecified,
		chat.ErrConversationNotFound,
	}
	for _, err := range terminal {
		if !chat.IsTerminal(err) {
			t.Errorf("IsTerminal(%v) = false, want true", err)
		}
	}

	recoverable := []error{
		chat.ErrEmptyQuery,
		chat.ErrTurnInFlight,
		chat.ErrNoActivePrompt,
		context.Canceled,
	}
	for _, err := range recoverable {
		if chat.IsTerminal(err) {
			t.Errorf("IsTerminal(%v) = true, want false", err)
		}
	}
}
