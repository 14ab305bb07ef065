package testutil

import (
	"context"
	"sync"

	"github.com/docuchat/docuchat/internal/chat"
)

// ScriptedGenerator is a chat.Generator that replays a fixed script of
// outcomes, one per Generate call. When the script is exhausted the last
// step repeats. Safe for concurrent use.
type ScriptedGenerator struct {
	mu       sync.Mutex
	script   []ScriptStep
	calls    int
	requests []*chat.GenerateRequest
}

// ScriptStep is one scripted Generate outcome.
type ScriptStep struct {
	Result *chat.GenerateResult
	Err    error
}

// NewScriptedGenerator creates a generator that replays the given steps.
func NewScriptedGenerator(steps ...ScriptStep) *ScriptedGenerator {
	return &ScriptedGenerator{script: steps}
}

// Generate implements chat.Generator.
func (g *ScriptedGenerator) Generate(_ context.Context, req *chat.GenerateRequest) (*chat.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	idx := g.calls
	if idx >= len(g.script) {
		idx = len(g.script) - 1
	}
	g.calls++

	step := g.script[idx]
	return step.Result, step.Err
}

// Calls returns how many times Generate has been invoked.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Requests returns the requests seen so far, in order.
func (g *ScriptedGenerator) Requests() []*chat.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*chat.GenerateRequest(nil), g.requests...)
}
