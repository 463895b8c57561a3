// Package memory keeps exported reports in process. The worker uses it as a
// dry-run target when no spreadsheet is configured.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"keuangan/internal/core"
	"keuangan/internal/sheets"
)

type Writer struct {
	mu      sync.Mutex
	reports map[string]core.Report
	history []string
	err     error
	logger  *slog.Logger
}

var _ sheets.ReportWriter = (*Writer)(nil)

// New returns an empty writer. A nil logger stays silent.
func New(logger *slog.Logger) *Writer {
	return &Writer{reports: map[string]core.Report{}, logger: logger}
}

// FailWith makes every later write return err. Nil restores success.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

// WriteReport records r as the latest export of its month.
func (w *Writer) WriteReport(ctx context.Context, r core.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	month := r.Month.String()
	w.history = append(w.history, month)
	if w.err != nil {
		return w.err
	}
	w.reports[month] = r

	if w.logger != nil {
		w.logger.InfoContext(ctx, "Report exported to memory",
			"month", month,
			"income", r.Summary.Income,
			"expense", r.Summary.Expense,
			"balance", r.Summary.Balance,
			"categories", len(r.Categories))
	}
	return nil
}

// Report returns the latest export of ym.
func (w *Writer) Report(ym core.YearMonth) (core.Report, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.reports[ym.String()]
	return r, ok
}

// History lists the months of every write attempt in call order.
func (w *Writer) History() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.history...)
}
