package http

import (
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"keuangan/internal/core"
)

// displayLocale matches the number style the pages have always used.
var displayLocale = language.Indonesian

// formatCurrency renders amount as e.g. "Rp 3.000.000,00". Unknown codes are
// printed as given.
func formatCurrency(amount float64, code string) string {
	p := message.NewPrinter(displayLocale)

	symbol := strings.ToUpper(strings.TrimSpace(code))
	if unit, err := currency.ParseISO(symbol); err == nil {
		symbol = p.Sprint(currency.Symbol(unit))
	}

	sign := ""
	if amount < 0 {
		sign = "-"
	}
	digits := p.Sprint(number.Decimal(math.Abs(amount), number.Scale(2)))
	return sign + symbol + " " + digits
}

// formatSigned is formatCurrency with an explicit plus sign for gains.
func formatSigned(amount float64, code string) string {
	if amount > 0 {
		return "+" + formatCurrency(amount, code)
	}
	return formatCurrency(amount, code)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"currency": formatCurrency,
		"signed":   formatSigned,
		"num":      func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
		"isIncome": func(t core.TxType) bool { return t == core.Income },
		"label": func(t core.TxType) string {
			if t == core.Income {
				return "Pemasukan"
			}
			return "Pengeluaran"
		},
	}
}

// sanitizeInput trims s and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// sameOriginPath returns the path and query of ref when it points at host,
// and fallback otherwise.
func sameOriginPath(ref, host, fallback string) string {
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != host) {
		return fallback
	}
	if u.Path == "" || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	return u.RequestURI()
}
