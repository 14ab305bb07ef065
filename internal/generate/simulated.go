package generate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/source"
)

// Simulated is a stand-in answer generator. It produces a query-derived
// answer with one synthetic citation, mimicking what a retrieval-augmented
// backend would return for the bound profile and prompt.
//
// The zero value is not useful; use NewSimulated. Delay defaults to zero so
// tests stay deterministic and fast.
type Simulated struct {
	delay time.Duration
	rng   *rand.Rand
}

// SimulatedOption configures the simulated generator.
type SimulatedOption func(*Simulated)

// WithDelay makes each generation take d, approximating a real backend.
func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		s.delay = d
	}
}

// WithSeed fixes the random source for reproducible page/confidence values.
func WithSeed(seed int64) SimulatedOption {
	return func(s *Simulated) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- synthetic demo data, not security-relevant
	}
}

// NewSimulated creates a simulated generator.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- synthetic demo data
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate implements chat.Generator. It honors ctx cancellation during the
// configured delay.
func (s *Simulated) Generate(ctx context.Context, req *chat.GenerateRequest) (*chat.GenerateResult, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	content := fmt.Sprintf(
		"Based on your query about %q, here's a response drawn from the %q profile.\n\n"+
			"The documents in this profile were searched for relevant passages and the "+
			"answer below is grounded in the excerpts cited underneath. Response style "+
			"follows the %q system prompt.",
		req.Query, req.Profile.Name, req.Prompt.Name,
	)

	src := source.Source{
		ID:          fmt.Sprintf("sim-%d", s.rng.Int63()),
		Title:       "Document Analysis Results",
		Excerpt:     fmt.Sprintf("Relevant excerpt from the profile's documents related to: %s", req.Query),
		Page:        s.rng.Intn(100) + 1,
		Confidence:  0.85 + s.rng.Float64()*0.15,
		RetrievedAt: time.Now(),
	}

	return &chat.GenerateResult{
		Content: content,
		Sources: []source.Source{src},
	}, nil
}
