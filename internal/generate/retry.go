package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/docuchat/docuchat/internal/chat"
)

// RetryConfig configures the retry behavior for generation calls.
type RetryConfig struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by category, matched
// case-insensitively against err.Error().
//
// NOTE: String matching is used because provider SDKs do not expose typed
// errors for transient failures. Re-evaluate if that changes.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, sub := range group {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

// Retrying wraps a generator with exponential backoff and optional proactive
// rate limiting. Each attempt is rate-limited individually, including the
// first.
type Retrying struct {
	inner   chat.Generator
	cfg     RetryConfig
	limiter *rate.Limiter // nil = no limiting
	logger  *slog.Logger
}

// NewRetrying creates the wrapper. A zero-value cfg uses defaults; limiter
// and logger may be nil.
func NewRetrying(inner chat.Generator, cfg RetryConfig, limiter *rate.Limiter, logger *slog.Logger) *Retrying {
	if cfg == (RetryConfig{}) {
		cfg = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{inner: inner, cfg: cfg, limiter: limiter, logger: logger}
}

// Generate implements chat.Generator.
func (r *Retrying) Generate(ctx context.Context, req *chat.GenerateRequest) (*chat.GenerateResult, error) {
	var lastErr error
	delay := r.cfg.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		result, err := r.inner.Generate(ctx, req)
		if err == nil {
			r.logger.Debug("generation succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start))
			return result, nil
		}

		lastErr = err

		// Non-retryable error - fail immediately.
		if !retryableError(err) {
			return nil, fmt.Errorf("generate: %w", err)
		}

		// Last attempt - don't sleep.
		if attempt == r.cfg.MaxRetries {
			break
		}

		r.logger.Debug("retrying after error",
			"attempt", attempt+1,
			"delay", delay,
			"elapsed", time.Since(start),
			"error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, r.cfg.MaxInterval)
		}
	}

	return nil, fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		r.cfg.MaxRetries, time.Since(start), lastErr)
}
