// Package worker mirrors committed ledger events into the activity sheet.
package worker

import (
	"context"
	"fmt"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/sheets"
)

const (
	seenCacheSize = 4096
	seenCacheTTL  = time.Hour
)

// ActivityWorker turns ledger events into activity rows. Redelivered events
// are recognised by event, transaction and timestamp and written once.
type ActivityWorker struct {
	sink   sheets.ActivityWriter
	seen   *cache.LRUCache[string]
	logger *log.Logger
}

func NewActivityWorker(sink sheets.ActivityWriter, logger *log.Logger) *ActivityWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &ActivityWorker{
		sink:   sink,
		seen:   cache.NewLRUCache[string](seenCacheSize, seenCacheTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Cache exposes the redelivery cache so a cache.Manager can sweep it.
func (w *ActivityWorker) Cache() cache.Cleaner {
	return w.seen
}

// HandleLedgerEvent appends one activity row for ev. A returned error makes
// the consumer requeue the message.
func (w *ActivityWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	key := eventKey(ev)
	if ref, ok := w.seen.Get(key); ok {
		w.logger.DebugContext(ctx, "Skipping redelivered ledger event",
			log.FieldEvent, ev.Event,
			log.FieldTransaction, ev.TransactionID,
			"sheets_ref", ref)
		return nil
	}

	ref, err := w.sink.AppendActivity(ctx, RowFromEvent(ev))
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to append activity row",
			log.FieldEvent, ev.Event,
			log.FieldTransaction, ev.TransactionID,
			log.FieldError, err)
		return fmt.Errorf("append activity: %w", err)
	}
	w.seen.Set(key, ref)

	w.logger.InfoContext(ctx, "Ledger event mirrored",
		log.FieldEvent, ev.Event,
		log.FieldTransaction, ev.TransactionID,
		log.FieldOwner, ev.Owner,
		"sheets_ref", ref)
	return nil
}

// RowFromEvent maps a ledger event onto the activity sheet layout.
func RowFromEvent(ev *amqp.LedgerEvent) sheets.ActivityRow {
	return sheets.ActivityRow{
		Timestamp:     ev.Timestamp,
		Event:         string(ev.Event),
		Owner:         ev.Owner,
		TransactionID: ev.TransactionID,
		Type:          ev.Type,
		Date:          ev.TransactionDate,
		Description:   ev.Description,
		Amount:        ev.Amount(),
		CategoryID:    ev.CategoryID,
		FromAccountID: ev.PaymentMethodID,
		ToAccountID:   ev.ToPaymentMethodID,
	}
}

func eventKey(ev *amqp.LedgerEvent) string {
	return string(ev.Event) + "|" + ev.TransactionID + "|" + core.FormatInstant(ev.Timestamp)
}
