package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Settings is the singleton preference record the dashboard targets are read from.
type Settings struct {
	Currency             string  `json:"currency"`
	MonthlyExpenseTarget float64 `json:"monthlyExpenseTarget"`
	DailyIncomeTarget    float64 `json:"dailyIncomeTarget"`
	// StartWeekOn is stored for the views but no computation reads it yet.
	StartWeekOn int `json:"startWeekOn"`
}

// SettingsUpdate carries raw field values as they arrive from a form. A nil
// field was not submitted.
type SettingsUpdate struct {
	Currency             *string
	MonthlyExpenseTarget *string
	DailyIncomeTarget    *string
	StartWeekOn          *string
}

func DefaultSettings() Settings {
	return Settings{
		Currency:             "IDR",
		MonthlyExpenseTarget: 3000000,
		DailyIncomeTarget:    200000,
		StartWeekOn:          1,
	}
}

// MergeSettings overrides each field of existing that the update carries a
// usable value for. Values that do not parse as numbers keep the previous value.
func MergeSettings(existing Settings, u SettingsUpdate) Settings {
	next := existing
	if u.Currency != nil {
		if c := strings.ToUpper(strings.TrimSpace(*u.Currency)); c != "" {
			next.Currency = c
		}
	}
	if v, ok := parseTarget(u.MonthlyExpenseTarget); ok {
		next.MonthlyExpenseTarget = v
	}
	if v, ok := parseTarget(u.DailyIncomeTarget); ok {
		next.DailyIncomeTarget = v
	}
	if u.StartWeekOn != nil {
		if d, err := decimal.NewFromString(strings.TrimSpace(*u.StartWeekOn)); err == nil && d.IsInteger() {
			if w := d.IntPart(); w >= 0 && w <= 6 {
				next.StartWeekOn = int(w)
			}
		}
	}
	return next
}

func parseTarget(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return d.InexactFloat64(), true
}
