package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docuchat/docuchat/internal/chat"
)

func TestSimulatedGenerate(t *testing.T) {
	t.Parallel()

	g := NewSimulated(WithSeed(1))

	req := &chat.GenerateRequest{
		Query:   "What is backpropagation?",
		Profile: &chat.Profile{Name: "Research Assistant"},
		Prompt:  &chat.SystemPrompt{Name: "General Assistant"},
	}
	result, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.Contains(result.Content, req.Query) {
		t.Error("content does not reference the query")
	}
	if !strings.Contains(result.Content, req.Profile.Name) {
		t.Error("content does not reference the profile")
	}

	if len(result.Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(result.Sources))
	}
	src := result.Sources[0]
	if src.Page < 1 || src.Page > 100 {
		t.Errorf("page = %d, want 1..100", src.Page)
	}
	if src.Confidence < 0.85 || src.Confidence > 1.0 {
		t.Errorf("confidence = %v, want 0.85..1.0", src.Confidence)
	}
}

func TestSimulatedSeedReproducible(t *testing.T) {
	t.Parallel()

	req := &chat.GenerateRequest{
		Query:   "q",
		Profile: &chat.Profile{Name: "p"},
		Prompt:  &chat.SystemPrompt{Name: "s"},
	}

	a, err := NewSimulated(WithSeed(42)).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := NewSimulated(WithSeed(42)).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if a.Sources[0].ID != b.Sources[0].ID ||
		a.Sources[0].Page != b.Sources[0].Page ||
		a.Sources[0].Confidence != b.Sources[0].Confidence {
		t.Errorf("same seed produced different sources: %+v vs %+v", a.Sources[0], b.Sources[0])
	}
}

func TestSimulatedHonorsContextDuringDelay(t *testing.T) {
	t.Parallel()

	g := NewSimulated(WithDelay(time.Hour), WithSeed(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, &chat.GenerateRequest{
		Query:   "q",
		Profile: &chat.Profile{Name: "p"},
		Prompt:  &chat.SystemPrompt{Name: "s"},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}
