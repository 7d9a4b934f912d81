package sheets

import (
	"testing"
	"time"

	"saldo/internal/core"
)

func TestActivityRowValues(t *testing.T) {
	row := ActivityRow{
		Timestamp:     time.Date(2024, 3, 1, 10, 30, 0, 0, time.FixedZone("CET", 3600)),
		Event:         "transaction.updated",
		Owner:         "owner-1",
		TransactionID: "tx-1",
		Type:          "transfer",
		Date:          time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC),
		Amount:        core.Money{Cents: 123450},
		FromAccountID: "a",
		ToAccountID:   "b",
	}
	got := row.Values()
	if len(got) != len(Header) {
		t.Fatalf("got %d values for %d columns", len(got), len(Header))
	}
	want := map[int]string{0: "2024-03-01T09:30:00Z", 5: "2024-02-29", 7: "1234.50", 10: "b"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("column %s = %v, want %s", Header[i], got[i], w)
		}
	}
}
