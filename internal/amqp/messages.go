package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"saldo/internal/core"
)

// EventType names a committed ledger change.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// LedgerEvent is published after a ledger unit of work commits. It carries a
// snapshot of the transaction so consumers never read the ledger store.
type LedgerEvent struct {
	Event             EventType `json:"event"`
	TransactionID     string    `json:"transaction_id"`
	Owner             string    `json:"owner"`
	Type              string    `json:"type"`
	AmountCents       int64     `json:"amount_cents"`
	Description       string    `json:"description,omitempty"`
	TransactionDate   time.Time `json:"transaction_date"`
	CategoryID        string    `json:"category_id,omitempty"`
	PaymentMethodID   string    `json:"payment_method_id"`
	ToPaymentMethodID string    `json:"to_payment_method_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

func NewLedgerEvent(event EventType, t core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Event:             event,
		TransactionID:     t.ID,
		Owner:             t.Owner,
		Type:              string(t.Type),
		AmountCents:       t.Amount.Cents,
		Description:       t.Description,
		TransactionDate:   t.Date,
		CategoryID:        t.CategoryID,
		PaymentMethodID:   t.FromAccountID,
		ToPaymentMethodID: t.ToAccountID,
		Timestamp:         time.Now().UTC(),
	}
}

// Amount returns the event amount as money.
func (m *LedgerEvent) Amount() core.Money {
	return core.Money{Cents: m.AmountCents}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted:
	default:
		return nil, errors.New("unknown ledger event " + string(msg.Event))
	}
	if msg.TransactionID == "" {
		return nil, errors.New("ledger event without transaction id")
	}
	return &msg, nil
}
