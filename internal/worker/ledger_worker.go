// Package worker turns transaction events from the queue into ledger rows.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"myfiance/internal/amqp"
	"myfiance/internal/cache"
	"myfiance/internal/log"
	"myfiance/internal/sheets"
)

// Consumer delivers events to a handler until its context ends.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error
}

// Stats counts processed events.
type Stats struct {
	Appended   int64
	Duplicates int64
	Failed     int64
}

// LedgerWorker appends one ledger row per event. Redelivered events seen
// within dedupTTL are acknowledged without writing a second row.
type LedgerWorker struct {
	ledger sheets.LedgerWriter
	seen   *cache.LRUCache[string]
	logger *log.Logger

	appended   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

func NewLedgerWorker(ledger sheets.LedgerWriter, dedupSize int, dedupTTL time.Duration, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerWorker{
		ledger: ledger,
		seen:   cache.NewLRUCache[string](dedupSize, dedupTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// SeenCache exposes the dedup cache for registration with a cache.Manager.
func (w *LedgerWorker) SeenCache() *cache.LRUCache[string] { return w.seen }

func eventKey(ev *amqp.TransactionEvent) string {
	return string(ev.Event) + ":" + strconv.FormatInt(ev.TransactionID, 10) + ":" +
		strconv.FormatInt(ev.OccurredAt.UnixNano(), 10)
}

// HandleEvent writes ev to the ledger. A returned error makes the consumer
// requeue the message.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	key := eventKey(ev)
	if _, dup := w.seen.Get(key); dup {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Duplicate event skipped",
			log.FieldEvent, ev.Event, log.FieldTransactionID, ev.TransactionID)
		return nil
	}

	ref, err := w.ledger.AppendEvent(ctx, ev)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("append %s for transaction %d: %w", ev.Event, ev.TransactionID, err)
	}
	w.seen.Set(key, ref)
	w.appended.Add(1)

	w.logger.InfoContext(ctx, "Ledger updated",
		log.FieldOperation, log.OpAppend,
		log.FieldEvent, ev.Event,
		log.FieldTransactionID, ev.TransactionID,
		"row", ref)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *LedgerWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Ledger worker started")
	err := consumer.ConsumeTransactionEvents(ctx, w.HandleEvent)
	s := w.Stats()
	w.logger.InfoContext(ctx, "Ledger worker stopped",
		"appended", s.Appended, "duplicates", s.Duplicates, "failed", s.Failed)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *LedgerWorker) Stats() Stats {
	return Stats{
		Appended:   w.appended.Load(),
		Duplicates: w.duplicates.Load(),
		Failed:     w.failed.Load(),
	}
}
