// Package result collects the outcomes of property checks.
package result

import (
	"sort"
	"sync"
	"time"
)

// Outcome is the result of checking one property over its whole input space.
type Outcome struct {
	Property string        `json:"property"`
	Cases    int64         `json:"cases"`
	Failures int64         `json:"failures"`
	Example  string        `json:"example,omitempty"` // first failing input
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Passed reports whether every case held.
func (o Outcome) Passed() bool { return o.Failures == 0 }

// Table stores outcomes. It is safe for concurrent use by workers.
type Table struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts an outcome into the table.
func (t *Table) Add(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = append(t.outcomes, o)
}

// Outcomes returns a copy of all outcomes, failures first, then by name.
func (t *Table) Outcomes() []Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Outcome, len(t.outcomes))
	copy(result, t.outcomes)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Failures != result[j].Failures {
			return result[i].Failures > result[j].Failures
		}
		return result[i].Property < result[j].Property
	})
	return result
}

// Len returns the number of outcomes.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.outcomes)
}

// Failed returns the number of properties with at least one failure.
func (t *Table) Failed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, o := range t.outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}
