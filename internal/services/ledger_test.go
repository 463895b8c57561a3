package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"keuangan/internal/amqp"
	"keuangan/internal/core"
	"keuangan/internal/log"
	"keuangan/internal/store/memory"
)

type published struct {
	kind  amqp.ChangeKind
	month string
	txID  string
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) PublishLedgerChanged(_ context.Context, kind amqp.ChangeKind, month, txID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{kind, month, txID})
	return f.err
}

type failingStore struct {
	*memory.Store
	err error
}

func (f failingStore) SaveTransactions(context.Context, []core.Transaction) error { return f.err }
func (f failingStore) SaveSettings(context.Context, core.Settings) error        { return f.err }

func quietLogger() *log.Logger {
	return log.NewText(io.Discard, slog.LevelError, log.ComponentLedger)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx%d", n)
	}
}

func newTestLedger(opts ...Option) (*Ledger, *memory.Store) {
	st := memory.New()
	opts = append([]Option{WithLogger(quietLogger()), WithIDGenerator(sequentialIDs())}, opts...)
	return NewLedger(st, opts...), st
}

func TestLedgerCreate(t *testing.T) {
	pub := &fakePublisher{}
	l, st := newTestLedger(WithPublisher(pub))
	ctx := context.Background()

	tx, err := l.Create(ctx, TransactionInput{Date: "2024-05-01", Type: "income", Amount: "1000"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tx.ID != "tx1" || tx.Category != core.DefaultCategory || tx.Note != "" || tx.Amount != 1000 {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	stored, _ := st.LoadTransactions(ctx)
	if len(stored) != 1 || stored[0].ID != "tx1" {
		t.Fatalf("transaction not stored: %+v", stored)
	}
	if len(pub.msgs) != 1 || pub.msgs[0] != (published{amqp.TransactionCreated, "2024-05", "tx1"}) {
		t.Fatalf("unexpected publications %+v", pub.msgs)
	}
}

func TestLedgerCreateDefaultsEmptyAmountToZero(t *testing.T) {
	l, _ := newTestLedger()
	tx, err := l.Create(context.Background(), TransactionInput{Date: "2024-05-01", Type: "expense", Category: " Makan ", Note: " siang "})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Amount != 0 || tx.Category != "Makan" || tx.Note != "siang" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestLedgerCreateValidation(t *testing.T) {
	l, st := newTestLedger()
	_, err := l.Create(context.Background(), TransactionInput{Date: "kemarin", Type: "transfer", Amount: "-5"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("expected three field problems, got %v", err)
	}
	stored, _ := st.LoadTransactions(context.Background())
	if len(stored) != 0 {
		t.Fatalf("invalid input must not be stored")
	}
}

func TestLedgerUpdate(t *testing.T) {
	pub := &fakePublisher{}
	l, _ := newTestLedger(WithPublisher(pub))
	ctx := context.Background()

	created, _ := l.Create(ctx, TransactionInput{Date: "2024-05-31", Type: "expense", Amount: "100"})
	updated, err := l.Update(ctx, created.ID, TransactionInput{Date: "2024-06-01", Type: "expense", Category: "Sewa", Amount: "150"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != created.ID || updated.Amount != 150 || updated.Date.Key() != "2024-06-01" {
		t.Fatalf("unexpected update %+v", updated)
	}

	got, err := l.Get(ctx, created.ID)
	if err != nil || got.Category != "Sewa" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}

	// created, updated for the new month, updated for the month it left
	if len(pub.msgs) != 3 || pub.msgs[1].month != "2024-06" || pub.msgs[2].month != "2024-05" {
		t.Fatalf("unexpected publications %+v", pub.msgs)
	}
}

func TestLedgerUpdateAndGetMissing(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	if _, err := l.Update(ctx, "nope", TransactionInput{Date: "2024-05-01", Type: "income", Amount: "1"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerDelete(t *testing.T) {
	l, st := newTestLedger()
	ctx := context.Background()
	a, _ := l.Create(ctx, TransactionInput{Date: "2024-05-01", Type: "income", Amount: "1"})
	b, _ := l.Create(ctx, TransactionInput{Date: "2024-05-02", Type: "income", Amount: "2"})

	removed, err := l.Delete(ctx, a.ID)
	if err != nil || !removed {
		t.Fatalf("Delete() = %v, %v", removed, err)
	}
	removed, err = l.Delete(ctx, a.ID)
	if err != nil || removed {
		t.Fatalf("second Delete() = %v, %v", removed, err)
	}

	stored, _ := st.LoadTransactions(ctx)
	if len(stored) != 1 || stored[0].ID != b.ID {
		t.Fatalf("unexpected remaining %+v", stored)
	}
}

func TestLedgerConcurrentCreates(t *testing.T) {
	st := memory.New()
	l := NewLedger(st, WithLogger(quietLogger()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Create(ctx, TransactionInput{Date: "2024-05-01", Type: "expense", Amount: "1"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	stored, _ := st.LoadTransactions(ctx)
	if len(stored) != 20 {
		t.Fatalf("expected 20 transactions, got %d", len(stored))
	}
	seen := map[string]bool{}
	for _, tx := range stored {
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestLedgerPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	l, _ := newTestLedger(WithPublisher(pub))
	if _, err := l.Create(context.Background(), TransactionInput{Date: "2024-05-01", Type: "income", Amount: "1"}); err != nil {
		t.Fatalf("publish errors must not surface: %v", err)
	}
}

func TestLedgerStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	l := NewLedger(failingStore{Store: memory.New(), err: boom}, WithLogger(quietLogger()))
	ctx := context.Background()

	if _, err := l.Create(ctx, TransactionInput{Date: "2024-05-01", Type: "income", Amount: "1"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if _, err := l.UpdateSettings(ctx, core.SettingsUpdate{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestLedgerUpdateSettings(t *testing.T) {
	pub := &fakePublisher{}
	l, st := newTestLedger(WithPublisher(pub))
	ctx := context.Background()
	v := "5000"

	got, err := l.UpdateSettings(ctx, core.SettingsUpdate{MonthlyExpenseTarget: &v})
	if err != nil {
		t.Fatal(err)
	}
	want := core.DefaultSettings()
	want.MonthlyExpenseTarget = 5000
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	stored, _ := st.LoadSettings(ctx)
	if stored != want {
		t.Fatalf("settings not stored: %+v", stored)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].kind != amqp.SettingsUpdated {
		t.Fatalf("unexpected publications %+v", pub.msgs)
	}
}

func TestLedgerDashboardAndReport(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	for _, in := range []TransactionInput{
		{Date: "2024-05-01", Type: "income", Amount: "1000"},
		{Date: "2024-05-01", Type: "expense", Amount: "400"},
		{Date: "2024-05-31", Type: "expense", Amount: "100"},
		{Date: "2024-04-30", Type: "expense", Amount: "999"},
	} {
		if _, err := l.Create(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	d, err := l.Dashboard(ctx, time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if d.Summary != (core.Summary{Income: 1000, Expense: 500, Balance: 500}) || len(d.Recent) != 3 {
		t.Fatalf("unexpected dashboard %+v", d)
	}

	ym, _ := core.ParseYearMonth("2024-05")
	r, err := l.Report(ctx, ym)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Days) != 31 || r.Days[30].Expense != 100 || r.Settings != core.DefaultSettings() {
		t.Fatalf("unexpected report %+v", r)
	}
}
