package sheets

import (
	"context"

	"keuangan/internal/core"
)

// ReportWriter publishes a computed month report to an external sheet.
type ReportWriter interface {
	WriteReport(ctx context.Context, r core.Report) error
}
