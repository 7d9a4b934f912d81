package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/sheets"
	"saldo/internal/sheets/memory"
)

func sampleEvent(event amqp.EventType) *amqp.LedgerEvent {
	return amqp.NewLedgerEvent(event, core.Transaction{
		ID:            "tx-1",
		Owner:         "owner-1",
		Type:          core.TypeTransfer,
		Amount:        core.Money{Cents: 2000},
		Date:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		FromAccountID: "a",
		ToAccountID:   "b",
	})
}

type failingSink struct{}

func (failingSink) AppendActivity(context.Context, sheets.ActivityRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleLedgerEventAppendsRow(t *testing.T) {
	sink := memory.New()
	w := NewActivityWorker(sink, nil)

	ev := sampleEvent(amqp.EventTransactionCreated)
	if err := w.HandleLedgerEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	rows := sink.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	r := rows[0]
	if r.Event != "transaction.created" || r.Amount.Cents != 2000 || r.FromAccountID != "a" || r.ToAccountID != "b" {
		t.Errorf("row = %+v", r)
	}
}

func TestHandleLedgerEventSkipsRedelivery(t *testing.T) {
	sink := memory.New()
	w := NewActivityWorker(sink, nil)
	ev := sampleEvent(amqp.EventTransactionDeleted)

	for i := 0; i < 3; i++ {
		if err := w.HandleLedgerEvent(context.Background(), ev); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	later := *ev
	later.Timestamp = ev.Timestamp.Add(time.Second)
	if err := w.HandleLedgerEvent(context.Background(), &later); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if n := len(sink.Rows()); n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
}

func TestHandleLedgerEventReturnsSinkError(t *testing.T) {
	w := NewActivityWorker(failingSink{}, nil)
	if err := w.HandleLedgerEvent(context.Background(), sampleEvent(amqp.EventTransactionCreated)); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

// fakeSource replays events then blocks until cancelled.
type fakeSource struct {
	events []*amqp.LedgerEvent
	err    error

	mu      sync.Mutex
	handled int
}

func (s *fakeSource) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, ev := range s.events {
		if err := handler(ctx, ev); err != nil {
			return err
		}
		s.mu.Lock()
		s.handled++
		s.mu.Unlock()
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestProcessorLifecycle(t *testing.T) {
	sink := memory.New()
	source := &fakeSource{events: []*amqp.LedgerEvent{
		sampleEvent(amqp.EventTransactionCreated),
		sampleEvent(amqp.EventTransactionUpdated),
	}}
	p := NewProcessor(source, NewActivityWorker(sink, nil), nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second start should fail")
	}

	deadline := time.After(2 * time.Second)
	for len(sink.Rows()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("rows = %d after timeout", len(sink.Rows()))
		case <-time.After(5 * time.Millisecond):
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() || p.Err() != nil {
		t.Errorf("running=%v err=%v after stop", p.IsRunning(), p.Err())
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Errorf("second stop: %v", err)
	}
}

func TestProcessorReportsSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("connection closed")}
	p := NewProcessor(source, NewActivityWorker(memory.New(), nil), nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not exit")
	}
	if p.Err() == nil || p.IsRunning() {
		t.Errorf("err=%v running=%v", p.Err(), p.IsRunning())
	}
}
