package domain

import (
	"sync"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// Ledger accumulates the results of one invocation in the order they were
// produced. It is owned by a single controller.
type Ledger struct {
	mu      sync.Mutex
	results []m.Result
	sealed  bool
}

// NewLedger creates an empty, open ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records a result. It fails with ErrLedgerSealed once the ledger is
// sealed.
func (l *Ledger) Append(result m.Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sealed {
		return ErrLedgerSealed
	}

	l.results = append(l.results, result)

	return nil
}

// Results returns a copy of the recorded results in insertion order. Before
// the ledger is sealed the sequence may still grow.
func (l *Ledger) Results() []m.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]m.Result(nil), l.results...)
}

// Changed returns the recorded results that changed their unit.
func (l *Ledger) Changed() []m.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	var changed []m.Result

	for _, r := range l.results {
		if r.Changed() {
			changed = append(changed, r)
		}
	}

	return changed
}

// Len returns the number of recorded results.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.results)
}

// Seal closes the ledger for appends.
func (l *Ledger) Seal() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sealed = true
}

// Sealed reports whether the ledger is sealed.
func (l *Ledger) Sealed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sealed
}
