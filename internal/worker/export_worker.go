package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"keuangan/internal/amqp"
	"keuangan/internal/core"
	"keuangan/internal/sheets"
)

// ReportSource computes a month report from the current ledger.
type ReportSource interface {
	Report(ctx context.Context, ym core.YearMonth) (core.Report, error)
}

// ChangeConsumer delivers ledger change messages until ctx ends.
type ChangeConsumer interface {
	ConsumeLedgerChanges(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// ExportWorker keeps the report sheets in line with the ledger. Each change
// message re-exports the month it names; a ticker re-exports the current
// month so missed messages heal on their own.
type ExportWorker struct {
	reports  ReportSource
	writer   sheets.ReportWriter
	interval time.Duration
	now      func() time.Time
}

func NewExportWorker(reports ReportSource, writer sheets.ReportWriter, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		reports:  reports,
		writer:   writer,
		interval: interval,
		now:      time.Now,
	}
}

// ExportMonth recomputes and writes one month.
func (w *ExportWorker) ExportMonth(ctx context.Context, ym core.YearMonth) error {
	r, err := w.reports.Report(ctx, ym)
	if err != nil {
		return fmt.Errorf("build report %s: %w", ym, err)
	}
	if err := w.writer.WriteReport(ctx, r); err != nil {
		return fmt.Errorf("write report %s: %w", ym, err)
	}
	return nil
}

// HandleMessage exports the month a change message names. Settings changes
// carry no month and refresh the current one.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	ym := core.MonthOf(w.now())
	if msg.Month != "" {
		parsed, err := core.ParseYearMonth(msg.Month)
		if err != nil {
			// Requeueing would loop forever on a bad month.
			slog.WarnContext(ctx, "Dropping change message with invalid month", "month", msg.Month, "kind", msg.Kind)
			return nil
		}
		ym = parsed
	}

	slog.InfoContext(ctx, "Processing ledger change", "kind", msg.Kind, "month", ym.String())
	return w.ExportMonth(ctx, ym)
}

// Run exports the current month once, then consumes changes and ticks until
// ctx ends. A nil consumer runs the ticker alone.
func (w *ExportWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	if err := w.ExportMonth(ctx, core.MonthOf(w.now())); err != nil {
		slog.ErrorContext(ctx, "Initial export failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeLedgerChanges(gctx, w.HandleMessage)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := w.ExportMonth(gctx, core.MonthOf(w.now())); err != nil {
					slog.ErrorContext(gctx, "Periodic export failed", "error", err)
				}
			}
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
