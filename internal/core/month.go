package core

import (
	"fmt"
	"strings"
	"time"
)

// YearMonth designates a calendar month, formatted as YYYY-MM.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses a YYYY-MM designator. Anything that does not map to a
// real calendar month yields ErrInvalidMonth.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month t falls in, read from t's own clock.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) DaysInMonth() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns midnight of the given day of the month.
func (ym YearMonth) Day(day int) Date {
	return NewDate(ym.Year, ym.Month, day)
}

// Contains reports whether t lies between the first day 00:00 and the last day
// 23:59:59.999999999 of the month, both ends included.
func (ym YearMonth) Contains(t time.Time) bool {
	y, m, _ := t.Date()
	return y == ym.Year && m == ym.Month
}

func (ym YearMonth) Prev() YearMonth {
	return MonthOf(time.Date(ym.Year, ym.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

func (ym YearMonth) Next() YearMonth {
	return MonthOf(time.Date(ym.Year, ym.Month+1, 1, 0, 0, 0, 0, time.UTC))
}
