package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in  string
		key string
		ok  bool
	}{
		{"2024-05-01", "2024-05-01", true},
		{" 2024-05-31 ", "2024-05-31", true},
		{"2024-05-31T23:59:59", "2024-05-31", true},
		{"2024-05-31T23:59:59+07:00", "2024-05-31", true},
		{"2024-05-31 08:00:00", "2024-05-31", true},
		{"", "", false},
		{"31/05/2024", "", false},
		{"2024-02-30", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.Key() != tc.key {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.key, d.Key(), err)
			}
		} else if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":"a","date":"2024-05-01","type":"income","amount":1000}`), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.Date.Key() != "2024-05-01" {
		t.Fatalf("unexpected date %s", tx.Date.Key())
	}
	b, err := json.Marshal(tx.Date)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-05-01"` {
		t.Fatalf("day-only dates must stay day-only, got %s", b)
	}

	withClock := Date{Time: time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)}
	b, _ = json.Marshal(withClock)
	if string(b) != `"2024-05-31T23:59:59Z"` {
		t.Fatalf("expected timestamp to be kept, got %s", b)
	}

	if err := json.Unmarshal([]byte(`"not a date"`), &tx.Date); err != nil {
		t.Fatalf("malformed dates must load, got %v", err)
	}
	if !tx.Date.IsZero() || tx.Date.Raw() != "not a date" {
		t.Fatalf("expected zero date keeping its text, got %+v", tx.Date)
	}
	b, _ = json.Marshal(tx.Date)
	if string(b) != `"not a date"` {
		t.Fatalf("malformed date must be written back unchanged, got %s", b)
	}
	if err := json.Unmarshal([]byte(`5`), &tx.Date); err == nil {
		t.Fatalf("expected error for a non-string date")
	}
}

func TestTransactionJSONTolerance(t *testing.T) {
	cases := []struct {
		in         string
		id         string
		amount     float64
		unreadable bool
	}{
		{`{"id":"a","date":"2024-05-01","type":"expense","amount":"15000"}`, "a", 15000, false},
		{`{"id":"b","date":"2024-05-01","type":"expense","amount":" 12.5 "}`, "b", 12.5, false},
		{`{"id":"c","date":"2024-05-01","type":"expense","amount":null}`, "c", 0, false},
		{`{"id":"d","date":"2024-05-01","type":"expense","amount":"abc"}`, "d", 0, true},
		{`{"id":"e","date":7,"type":"expense","amount":1}`, "e", 0, true},
		{`"just text"`, "", 0, true},
	}
	for _, tc := range cases {
		var tx Transaction
		if err := json.Unmarshal([]byte(tc.in), &tx); err != nil {
			t.Fatalf("%s: unmarshal must not fail, got %v", tc.in, err)
		}
		if tx.ID != tc.id || tx.Amount != tc.amount || tx.Unreadable() != tc.unreadable {
			t.Fatalf("%s: got id=%q amount=%v unreadable=%v", tc.in, tx.ID, tx.Amount, tx.Unreadable())
		}
		if !tc.unreadable {
			continue
		}
		out, err := json.Marshal(tx)
		if err != nil || string(out) != tc.in {
			t.Fatalf("%s: unreadable record must be written back verbatim, got %s (err=%v)", tc.in, out, err)
		}
	}
}

func TestParseDateAcceptsSlashes(t *testing.T) {
	d, err := ParseDate("2024/05/02")
	if err != nil || d.Key() != "2024-05-02" {
		t.Fatalf("expected 2024-05-02, got %s (err=%v)", d.Key(), err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Date: NewDate(2024, 5, 1), Type: Expense, Amount: 0}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		tx  Transaction
		err error
	}{
		{Transaction{Date: NewDate(2024, 5, 1), Type: "transfer", Amount: 1}, ErrInvalidType},
		{Transaction{Type: Income, Amount: 1}, ErrInvalidDate},
		{Transaction{Date: NewDate(2024, 5, 1), Type: Income, Amount: -1}, ErrNegativeAmount},
		{Transaction{Date: NewDate(2024, 5, 1), Type: Income, Amount: math.NaN()}, ErrInvalidAmount},
	}
	for i, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestCategoryOrDefault(t *testing.T) {
	if got := (Transaction{Category: "  "}).CategoryOrDefault(); got != DefaultCategory {
		t.Fatalf("expected %q, got %q", DefaultCategory, got)
	}
	if got := (Transaction{Category: "Makan"}).CategoryOrDefault(); got != "Makan" {
		t.Fatalf("expected Makan, got %q", got)
	}
}

func TestParseYearMonth(t *testing.T) {
	cases := []struct {
		in   string
		want YearMonth
		days int
		ok   bool
	}{
		{"2024-05", YearMonth{2024, time.May}, 31, true},
		{"2024-02", YearMonth{2024, time.February}, 29, true},
		{"2023-02", YearMonth{2023, time.February}, 28, true},
		{"2024-13", YearMonth{}, 0, false},
		{"2024-5", YearMonth{}, 0, false},
		{"may", YearMonth{}, 0, false},
		{"", YearMonth{}, 0, false},
	}
	for _, tc := range cases {
		got, err := ParseYearMonth(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidMonth) {
				t.Fatalf("%q expected ErrInvalidMonth, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
		if got.DaysInMonth() != tc.days {
			t.Fatalf("%q expected %d days, got %d", tc.in, tc.days, got.DaysInMonth())
		}
		if got.String() != tc.in {
			t.Fatalf("round trip: expected %q, got %q", tc.in, got.String())
		}
	}
}

func TestYearMonthPrevNext(t *testing.T) {
	jan := YearMonth{2024, time.January}
	if jan.Prev().String() != "2023-12" {
		t.Fatalf("expected 2023-12, got %s", jan.Prev())
	}
	dec := YearMonth{2024, time.December}
	if dec.Next().String() != "2025-01" {
		t.Fatalf("expected 2025-01, got %s", dec.Next())
	}
	if first, last := dec.Day(1).Key(), dec.Day(dec.DaysInMonth()).Key(); first != "2024-12-01" || last != "2024-12-31" {
		t.Fatalf("unexpected bounds %s..%s", first, last)
	}
}
