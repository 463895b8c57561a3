package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DefaultCategory is used when a transaction carries no category.
const DefaultCategory = "Umum"

const dateLayout = "2006-01-02"

type (
	TxType string

	// Date is the calendar day a transaction is attributed to. A time of day
	// is kept when the stored value carried one. A stored string that is not
	// a date decodes to the zero time and is written back unchanged.
	Date struct {
		time.Time
		raw string
	}

	// Transaction is one ledger entry. Records that cannot be interpreted
	// are still loaded, with their stored JSON kept in raw, so saving the
	// collection never drops them.
	Transaction struct {
		ID       string  `json:"id"`
		Date     Date    `json:"date"`
		Type     TxType  `json:"type"`
		Category string  `json:"category"`
		Note     string  `json:"note"`
		Amount   float64 `json:"amount"`

		raw string
	}
)

var (
	ErrInvalidMonth   = errors.New("invalid month designator")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrNotFound       = errors.New("transaction not found")
)

var dateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ParseDate accepts a plain YYYY-MM-DD day or a timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, ErrInvalidDate
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Key returns the YYYY-MM-DD bucket key of the date.
func (d Date) Key() string {
	return d.Format(dateLayout)
}

func (d Date) hasClock() bool {
	h, m, s := d.Clock()
	return h != 0 || m != 0 || s != 0 || d.Nanosecond() != 0
}

// Raw returns the stored text of a date that could not be parsed.
func (d Date) Raw() string {
	return d.raw
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal(d.raw)
	}
	if d.hasClock() {
		return json.Marshal(d.Format(time.RFC3339Nano))
	}
	return json.Marshal(d.Key())
}

// UnmarshalJSON never fails on a string. Unparseable text becomes a zero
// Date that remembers it.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{raw: s}
		return nil
	}
	*d = parsed
	return nil
}

type storedTransaction struct {
	ID       string          `json:"id"`
	Date     Date            `json:"date"`
	Type     TxType          `json:"type"`
	Category string          `json:"category"`
	Note     string          `json:"note"`
	Amount   json.RawMessage `json:"amount"`
}

// UnmarshalJSON accepts amounts stored as numbers or numeric strings. A
// record it cannot read is kept verbatim and reported by Unreadable.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var st storedTransaction
	if err := json.Unmarshal(b, &st); err != nil || bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = unreadable(b)
		return nil
	}
	amount, err := decodeAmount(st.Amount)
	if err != nil {
		*t = unreadable(b)
		return nil
	}
	*t = Transaction{
		ID:       st.ID,
		Date:     st.Date,
		Type:     st.Type,
		Category: st.Category,
		Note:     st.Note,
		Amount:   amount,
	}
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	if t.raw != "" {
		return []byte(t.raw), nil
	}
	type plain Transaction
	return json.Marshal(plain(t))
}

// Unreadable reports whether the record was loaded as stored JSON only.
func (t Transaction) Unreadable() bool {
	return t.raw != ""
}

// unreadable keeps b and, when possible, the record id so it can still be
// deleted.
func unreadable(b []byte) Transaction {
	var ref struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(b, &ref)
	return Transaction{ID: ref.ID, raw: string(bytes.TrimSpace(b))}
}

func decodeAmount(b json.RawMessage) (float64, error) {
	text := strings.TrimSpace(string(b))
	if text == "" || text == "null" {
		return 0, nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		if text = strings.TrimSpace(s); text == "" {
			return 0, nil
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

func (t TxType) IsValid() bool {
	return t == Income || t == Expense
}

// CategoryOrDefault returns the category, falling back to DefaultCategory.
func (t Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return DefaultCategory
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if t.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}
