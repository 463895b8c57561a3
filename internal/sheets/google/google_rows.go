package google

import (
	"keuangan/internal/core"
)

// SheetTitle names the tab holding ym's report.
func SheetTitle(ym core.YearMonth) string {
	return "Report " + ym.String()
}

// ReportRows lays a report out as three blocks separated by a blank row:
// summary, category totals, and the day-by-day calendar.
func ReportRows(r core.Report) [][]interface{} {
	rows := [][]interface{}{
		{"Bulan", r.Month.String()},
		{"Mata uang", r.Settings.Currency},
		{"Pemasukan", r.Summary.Income},
		{"Pengeluaran", r.Summary.Expense},
		{"Saldo", r.Summary.Balance},
		{},
		{"Jenis", "Kategori", "Total"},
	}
	for _, c := range r.Categories {
		rows = append(rows, []interface{}{string(c.Type), c.Category, c.Total})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Tanggal", "Pemasukan", "Pengeluaran"})
	for _, d := range r.Days {
		rows = append(rows, []interface{}{d.Date, d.Income, d.Expense})
	}
	return rows
}
