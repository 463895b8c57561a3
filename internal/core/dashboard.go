package core

import "time"

// RecentLimit caps the dashboard list of latest transactions.
const RecentLimit = 12

type (
	// Dashboard is the current-month view with forward-looking suggestions.
	Dashboard struct {
		Month               YearMonth
		Today               string
		Settings            Settings
		Summary             Summary
		ExpenseLeft         float64
		SuggestDailyExpense float64
		IncomeToDate        float64
		DailyTargetDelta    float64
		Recent              []Transaction
	}

	// Report is the full breakdown of one month.
	Report struct {
		Month        YearMonth
		Settings     Settings
		Summary      Summary
		Categories   []CategoryRow
		Days         []CalendarDay
		Transactions []Transaction
	}
)

// BuildDashboard computes the dashboard for the month now falls in.
func BuildDashboard(txs []Transaction, s Settings, now time.Time) Dashboard {
	ym := MonthOf(now)
	month := FilterByMonth(SortByDate(txs, true), ym)
	sum := Summarize(month)
	incomeToDate := IncomeUpTo(DailyBuckets(month), now)

	recent := month
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return Dashboard{
		Month:               ym,
		Today:               now.Format(dateLayout),
		Settings:            s,
		Summary:             sum,
		ExpenseLeft:         ExpenseLeft(s, sum),
		SuggestDailyExpense: SuggestDailyExpense(s, sum, ym.DaysInMonth(), now.Day()),
		IncomeToDate:        incomeToDate,
		DailyTargetDelta:    DailyTargetDelta(s, incomeToDate, now.Day()),
		Recent:              recent,
	}
}

// BuildReport computes the category breakdown and calendar of ym.
func BuildReport(txs []Transaction, s Settings, ym YearMonth) Report {
	month := FilterByMonth(SortByDate(txs, false), ym)
	return Report{
		Month:        ym,
		Settings:     s,
		Summary:      Summarize(month),
		Categories:   CategoryBreakdown(month),
		Days:         BuildMonthCalendar(ym, DailyBuckets(month)),
		Transactions: month,
	}
}
