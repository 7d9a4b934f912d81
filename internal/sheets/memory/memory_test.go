package memory

import (
	"context"
	"testing"

	"saldo/internal/core"
	"saldo/internal/sheets"
)

func TestStoreAppendActivity(t *testing.T) {
	s := New()
	ref, err := s.AppendActivity(context.Background(), sheets.ActivityRow{
		Event:         "transaction.created",
		TransactionID: "tx-1",
		Amount:        core.Money{Cents: 123},
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	if _, err := s.AppendActivity(context.Background(), sheets.ActivityRow{Event: "transaction.created"}); err == nil {
		t.Fatal("expected error for row without transaction id")
	}

	rows := s.Rows()
	if len(rows) != 1 || rows[0].Amount.Cents != 123 {
		t.Fatalf("rows = %+v", rows)
	}
	rows[0].TransactionID = "changed"
	if s.Rows()[0].TransactionID != "tx-1" {
		t.Error("Rows must return a copy")
	}
}
