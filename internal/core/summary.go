package core

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Summary holds month totals. Balance is always Income - Expense.
	Summary struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}

	// Bucket accumulates one calendar day.
	Bucket struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	CategoryRow struct {
		Type     TxType  `json:"type"`
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	CalendarDay struct {
		Date    string  `json:"date"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}
)

// tally sums amounts exactly and converts once at the end.
type tally struct {
	income, expense decimal.Decimal
}

func (t *tally) add(tx Transaction) bool {
	amount := decimal.NewFromFloat(tx.Amount)
	switch tx.Type {
	case Income:
		t.income = t.income.Add(amount)
	case Expense:
		t.expense = t.expense.Add(amount)
	default:
		return false
	}
	return true
}

// FilterByMonth returns the month slice of txs in input order.
func FilterByMonth(txs []Transaction, ym YearMonth) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if ym.Contains(tx.Date.Time) {
			out = append(out, tx)
		}
	}
	return out
}

func Summarize(txs []Transaction) Summary {
	var t tally
	for _, tx := range txs {
		t.add(tx)
	}
	income := t.income.InexactFloat64()
	expense := t.expense.InexactFloat64()
	return Summary{Income: income, Expense: expense, Balance: income - expense}
}

// DailyBuckets groups txs by YYYY-MM-DD. Days without transactions are absent.
func DailyBuckets(txs []Transaction) map[string]Bucket {
	acc := make(map[string]*tally)
	for _, tx := range txs {
		if !tx.Type.IsValid() {
			continue
		}
		key := tx.Date.Key()
		t, ok := acc[key]
		if !ok {
			t = &tally{}
			acc[key] = t
		}
		t.add(tx)
	}
	out := make(map[string]Bucket, len(acc))
	for key, t := range acc {
		out[key] = Bucket{Income: t.income.InexactFloat64(), Expense: t.expense.InexactFloat64()}
	}
	return out
}

// CategoryBreakdown sums amounts per (type, category), rows in first-seen order.
func CategoryBreakdown(txs []Transaction) []CategoryRow {
	type key struct {
		typ      TxType
		category string
	}
	index := make(map[key]int)
	var totals []decimal.Decimal
	rows := []CategoryRow{}
	for _, tx := range txs {
		if !tx.Type.IsValid() {
			continue
		}
		k := key{typ: tx.Type, category: tx.CategoryOrDefault()}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, CategoryRow{Type: k.typ, Category: k.category})
			totals = append(totals, decimal.Zero)
		}
		totals[i] = totals[i].Add(decimal.NewFromFloat(tx.Amount))
	}
	for i := range rows {
		rows[i].Total = totals[i].InexactFloat64()
	}
	return rows
}

// ExpenseLeft is what remains of the monthly expense target, never below zero.
func ExpenseLeft(s Settings, month Summary) float64 {
	return math.Max(s.MonthlyExpenseTarget-month.Expense, 0)
}

// SuggestDailyExpense spreads the remaining expense budget over the days left
// in the month, today included.
func SuggestDailyExpense(s Settings, month Summary, daysInMonth, dayOfMonth int) float64 {
	remainingDays := daysInMonth - dayOfMonth + 1
	if remainingDays < 1 {
		remainingDays = 1
	}
	return math.Floor(ExpenseLeft(s, month) / float64(remainingDays))
}

// DailyTargetDelta is positive when cumulative income is ahead of the daily target.
func DailyTargetDelta(s Settings, cumulativeIncome float64, dayOfMonth int) float64 {
	return cumulativeIncome - s.DailyIncomeTarget*float64(dayOfMonth)
}

// BuildMonthCalendar returns every day of ym in ascending order, zero-filled.
func BuildMonthCalendar(ym YearMonth, buckets map[string]Bucket) []CalendarDay {
	n := ym.DaysInMonth()
	days := make([]CalendarDay, 0, n)
	for d := 1; d <= n; d++ {
		key := ym.Day(d).Key()
		b := buckets[key]
		days = append(days, CalendarDay{Date: key, Income: b.Income, Expense: b.Expense})
	}
	return days
}

// IncomeUpTo sums the income of buckets dated on or before day.
func IncomeUpTo(buckets map[string]Bucket, day time.Time) float64 {
	limit := day.Format(dateLayout)
	total := decimal.Zero
	for key, b := range buckets {
		if key <= limit {
			total = total.Add(decimal.NewFromFloat(b.Income))
		}
	}
	return total.InexactFloat64()
}

// SortByDate returns a date-ordered copy of txs. Ties keep input order.
func SortByDate(txs []Transaction, newestFirst bool) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}
