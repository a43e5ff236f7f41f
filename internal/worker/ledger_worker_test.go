package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfiance/internal/amqp"
	"myfiance/internal/core"
	"myfiance/internal/sheets/memory"
)

type failingLedger struct{ err error }

func (f failingLedger) AppendEvent(context.Context, *amqp.TransactionEvent) (string, error) {
	return "", f.err
}

// sliceConsumer hands every event to the handler, then waits for ctx.
type sliceConsumer struct {
	events []*amqp.TransactionEvent
	errs   []error
}

func (s *sliceConsumer) ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error {
	for _, ev := range s.events {
		s.errs = append(s.errs, handler(ctx, ev))
	}
	<-ctx.Done()
	return ctx.Err()
}

func created(id int64) *amqp.TransactionEvent {
	return amqp.NewTransactionEvent(amqp.EventTransactionCreated, core.Transaction{
		ID:       id,
		Date:     core.NewDate(2025, 1, 1),
		Amount:   core.NewAmount(100),
		Type:     core.Income,
		Category: core.Category{ID: 1, Name: "Salary"},
	})
}

func TestLedgerWorker_AppendsAndDeduplicates(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(ledger, 100, time.Hour, nil)
	ctx := context.Background()

	ev := created(1)
	require.NoError(t, w.HandleEvent(ctx, ev))
	require.NoError(t, w.HandleEvent(ctx, ev))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewDeletedEvent(1)))

	rows := ledger.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "transaction.created", rows[0][1])
	assert.Equal(t, "Salary", rows[0][7])
	assert.Equal(t, "transaction.deleted", rows[1][1])
	assert.Equal(t, Stats{Appended: 2, Duplicates: 1}, w.Stats())
}

func TestLedgerWorker_FailureIsReturnedForRequeue(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewLedgerWorker(failingLedger{err: boom}, 10, time.Hour, nil)

	err := w.HandleEvent(context.Background(), created(5))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), w.Stats().Failed)

	// a failed event is not remembered, so the redelivery is attempted again
	err = w.HandleEvent(context.Background(), created(5))
	assert.ErrorIs(t, err, boom)
}

func TestLedgerWorker_RunStopsOnCancel(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(ledger, 10, time.Hour, nil)
	consumer := &sliceConsumer{events: []*amqp.TransactionEvent{created(1), created(2)}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()

	require.Eventually(t, func() bool { return len(ledger.Rows()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
