package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"keuangan/internal/amqp"
	"keuangan/internal/core"
	"keuangan/internal/sheets/memory"
)

type fakeReports struct {
	err error
}

func (f fakeReports) Report(_ context.Context, ym core.YearMonth) (core.Report, error) {
	if f.err != nil {
		return core.Report{}, f.err
	}
	return core.Report{Month: ym}, nil
}

type scriptedConsumer struct {
	msgs []*amqp.LedgerChangedMessage
	errs []error
}

func (s *scriptedConsumer) ConsumeLedgerChanges(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error {
	for _, m := range s.msgs {
		s.errs = append(s.errs, handler(ctx, m))
	}
	<-ctx.Done()
	return ctx.Err()
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
}

func TestHandleMessage(t *testing.T) {
	w := memory.New(nil)
	ew := NewExportWorker(fakeReports{}, w, time.Hour)
	ew.now = fixedNow
	ctx := context.Background()

	if err := ew.HandleMessage(ctx, amqp.NewLedgerChangedMessage(amqp.TransactionCreated, "2024-03", "a")); err != nil {
		t.Fatal(err)
	}
	if err := ew.HandleMessage(ctx, amqp.NewLedgerChangedMessage(amqp.SettingsUpdated, "", "")); err != nil {
		t.Fatal(err)
	}
	if err := ew.HandleMessage(ctx, amqp.NewLedgerChangedMessage(amqp.TransactionDeleted, "2024-13", "b")); err != nil {
		t.Fatalf("invalid months must be dropped, got %v", err)
	}

	got := w.History()
	if len(got) != 2 || got[0] != "2024-03" || got[1] != "2024-05" {
		t.Fatalf("unexpected exports %v", got)
	}
}

func TestHandleMessageErrorsRequeue(t *testing.T) {
	boom := errors.New("quota exceeded")
	failing := memory.New(nil)
	failing.FailWith(boom)
	ew := NewExportWorker(fakeReports{}, failing, time.Hour)
	err := ew.HandleMessage(context.Background(), amqp.NewLedgerChangedMessage(amqp.TransactionCreated, "2024-05", "a"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}

	ew = NewExportWorker(fakeReports{err: boom}, memory.New(nil), time.Hour)
	if err := ew.ExportMonth(context.Background(), core.YearMonth{Year: 2024, Month: time.May}); !errors.Is(err, boom) {
		t.Fatalf("expected report error, got %v", err)
	}
}

func TestRunConsumesAndTicks(t *testing.T) {
	w := memory.New(nil)
	ew := NewExportWorker(fakeReports{}, w, 10*time.Millisecond)
	ew.now = fixedNow

	consumer := &scriptedConsumer{msgs: []*amqp.LedgerChangedMessage{
		amqp.NewLedgerChangedMessage(amqp.TransactionUpdated, "2024-04", "a"),
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := ew.Run(ctx, consumer); err != nil {
		t.Fatalf("Run() should stop cleanly, got %v", err)
	}

	got := w.History()
	if len(got) < 3 {
		t.Fatalf("expected initial, consumed and ticked exports, got %v", got)
	}
	if got[0] != "2024-05" {
		t.Fatalf("first export should be the current month, got %v", got)
	}
	var sawApril bool
	for _, m := range got {
		if m == "2024-04" {
			sawApril = true
		}
	}
	if !sawApril {
		t.Fatalf("consumed message not exported: %v", got)
	}
	if len(consumer.errs) != 1 || consumer.errs[0] != nil {
		t.Fatalf("handler results %v", consumer.errs)
	}
}
