package generate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/testutil"
)

// countingGenerator fails with err for the first failures calls, then
// succeeds.
type countingGenerator struct {
	calls    atomic.Int64
	failures int64
	err      error
}

func (g *countingGenerator) Generate(_ context.Context, _ *chat.GenerateRequest) (*chat.GenerateResult, error) {
	n := g.calls.Add(1)
	if n <= g.failures {
		return nil, g.err
	}
	return &chat.GenerateResult{Content: "recovered"}, nil
}

func testRequest() *chat.GenerateRequest {
	return &chat.GenerateRequest{
		Query:   "q",
		Profile: &chat.Profile{Name: "p"},
		Prompt:  &chat.SystemPrompt{Name: "s"},
	}
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("429 Too Many Requests"), true},
		{"quota", errors.New("Quota Exceeded for project"), true},
		{"server error", errors.New("upstream returned 503"), true},
		{"unavailable", errors.New("service UNAVAILABLE"), true},
		{"network", errors.New("read tcp: connection reset by peer"), true},
		{"timeout", errors.New("i/o timeout"), true},
		{"bad request", errors.New("400 invalid request"), false},
		{"auth", errors.New("401 unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryingRecovers(t *testing.T) {
	t.Parallel()

	inner := &countingGenerator{failures: 2, err: errors.New("503 unavailable")}
	r := NewRetrying(inner, fastRetryConfig(), nil, testutil.DiscardLogger())

	result, err := r.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Content != "recovered" {
		t.Errorf("content = %q, want recovered", result.Content)
	}
	if got := inner.calls.Load(); got != 3 {
		t.Errorf("inner called %d times, want 3", got)
	}
}

func TestRetryingGivesUp(t *testing.T) {
	t.Parallel()

	inner := &countingGenerator{failures: 100, err: errors.New("timeout")}
	r := NewRetrying(inner, fastRetryConfig(), nil, testutil.DiscardLogger())

	_, err := r.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if got := inner.calls.Load(); got != 4 {
		t.Errorf("inner called %d times, want 4 (1 + 3 retries)", got)
	}
}

func TestRetryingNonRetryableFailsFast(t *testing.T) {
	t.Parallel()

	inner := &countingGenerator{failures: 100, err: errors.New("400 bad request")}
	r := NewRetrying(inner, fastRetryConfig(), nil, testutil.DiscardLogger())

	_, err := r.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected immediate failure")
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("inner called %d times, want 1", got)
	}
}

func TestRetryingHonorsContext(t *testing.T) {
	t.Parallel()

	inner := &countingGenerator{failures: 100, err: errors.New("503 unavailable")}
	cfg := RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Hour,
		MaxInterval:     time.Hour,
	}
	r := NewRetrying(inner, cfg, nil, testutil.DiscardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Generate(ctx, testRequest())
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, should not wait out the backoff", elapsed)
	}
}

func TestRetryingWithLimiter(t *testing.T) {
	t.Parallel()

	inner := &countingGenerator{failures: 0}
	limiter := rate.NewLimiter(rate.Inf, 1)
	r := NewRetrying(inner, fastRetryConfig(), limiter, testutil.DiscardLogger())

	if _, err := r.Generate(context.Background(), testRequest()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestRetryingZeroConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	r := NewRetrying(&countingGenerator{}, RetryConfig{}, nil, nil)
	if r.cfg != DefaultRetryConfig() {
		t.Errorf("cfg = %+v, want defaults", r.cfg)
	}
}
