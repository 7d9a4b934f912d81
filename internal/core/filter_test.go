package core

import (
	"testing"
	"time"
)

func TestFilterNormalize(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	f := TransactionFilter{Limit: 1000, Offset: -4, DateTo: &day}.Normalize(100)
	if f.Limit != 100 {
		t.Errorf("Limit = %d, want 100", f.Limit)
	}
	if f.Offset != 0 {
		t.Errorf("Offset = %d, want 0", f.Offset)
	}
	want := time.Date(2024, 1, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !f.DateTo.Equal(want) {
		t.Errorf("DateTo = %v, want %v", f.DateTo, want)
	}
	if !day.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Normalize mutated the caller's date")
	}

	if got := (TransactionFilter{}).Normalize(0).Limit; got != DefaultPageSize {
		t.Errorf("default Limit = %d, want %d", got, DefaultPageSize)
	}
}

func TestFilterEndOfDayInclusive(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	f := TransactionFilter{DateTo: &day}.Normalize(100)

	late := Transaction{Owner: "u1", Status: StatusActive, Date: time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC)}
	next := Transaction{Owner: "u1", Status: StatusActive, Date: time.Date(2024, 1, 11, 0, 0, 1, 0, time.UTC)}
	if !f.Matches("u1", late) {
		t.Errorf("same-day transaction should match")
	}
	if f.Matches("u1", next) {
		t.Errorf("next-day transaction should not match")
	}
}

func TestFilterMatches(t *testing.T) {
	tx := Transaction{Owner: "u1", Status: StatusActive, Type: TypeExpense, CategoryID: "c1", Date: time.Now()}
	tests := []struct {
		name   string
		owner  string
		filter TransactionFilter
		tx     func(Transaction) Transaction
		want   bool
	}{
		{"owner match", "u1", TransactionFilter{}, nil, true},
		{"other owner", "u2", TransactionFilter{}, nil, false},
		{"deleted", "u1", TransactionFilter{}, func(t Transaction) Transaction { t.Status = StatusDeleted; return t }, false},
		{"type mismatch", "u1", TransactionFilter{Type: TypeIncome}, nil, false},
		{"category match", "u1", TransactionFilter{CategoryID: "c1"}, nil, true},
		{"category mismatch", "u1", TransactionFilter{CategoryID: "c2"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tx
			if tt.tx != nil {
				in = tt.tx(in)
			}
			if got := tt.filter.Matches(tt.owner, in); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLessOrdersByDateThenInsertion(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := Transaction{Date: d, Seq: 1}
	newer := Transaction{Date: d.Add(time.Hour), Seq: 2}
	sameDayLater := Transaction{Date: d, Seq: 3}
	if !Less(newer, older) {
		t.Errorf("newer date should sort first")
	}
	if !Less(older, sameDayLater) {
		t.Errorf("ties should keep insertion order")
	}
}

func TestPagePages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
	}
	for _, c := range cases {
		if got := (Page{Total: c.total, Limit: c.limit}).Pages(); got != c.want {
			t.Errorf("Pages(total=%d, limit=%d) = %d, want %d", c.total, c.limit, got, c.want)
		}
	}
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2024-01-10")
	if err != nil || !got.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("bare date: %v %v", got, err)
	}
	got, err = ParseInstant("2024-01-10T23:30:00+02:00")
	if err != nil || !got.Equal(time.Date(2024, 1, 10, 21, 30, 0, 0, time.UTC)) || got.Location() != time.UTC {
		t.Fatalf("offset date: %v %v", got, err)
	}
	if _, err := ParseInstant("10/01/2024"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
