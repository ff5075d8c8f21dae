// Package usage records the token cost of generated declarations.
package usage

import (
	"slices"
	"sync"
	"time"
)

// TokenCount holds input and output token counts for a single call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Entry is the cost of generating one declaration.
type Entry struct {
	Func     string
	Model    string
	Tokens   TokenCount
	Duration time.Duration
}

// Tracker accumulates entries across a run. It is safe for concurrent use;
// the zero value is ready.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
}

// Add records an entry.
func (t *Tracker) Add(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, e)
}

// Entries returns a copy of the recorded entries in insertion order.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Clone(t.entries)
}

// Total returns the aggregate token count.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total TokenCount
	for _, e := range t.entries {
		total.InputTokens += e.Tokens.InputTokens
		total.OutputTokens += e.Tokens.OutputTokens
	}

	return total
}

// ByModel returns the aggregate token count per model.
func (t *Tracker) ByModel() map[string]TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]TokenCount)
	for _, e := range t.entries {
		tc := out[e.Model]
		tc.InputTokens += e.Tokens.InputTokens
		tc.OutputTokens += e.Tokens.OutputTokens
		out[e.Model] = tc
	}

	return out
}

// Count returns the number of recorded entries.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}
