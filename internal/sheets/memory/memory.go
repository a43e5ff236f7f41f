// Package memory is an in-process ledger for tests and local wiring of the
// ledger worker.
package memory

import (
	"context"
	"fmt"
	"sync"

	"myfiance/internal/amqp"
	"myfiance/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows [][]string
}

var _ sheets.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AppendEvent(_ context.Context, ev *amqp.TransactionEvent) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, sheets.LedgerRow(ev))
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// Rows returns a copy of the appended rows.
func (l *Ledger) Rows() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]string, len(l.rows))
	for i, r := range l.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
