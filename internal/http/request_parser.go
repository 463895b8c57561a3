package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"keuangan/internal/core"
	"keuangan/internal/services"
)

// maxBodyBytes bounds form submissions.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a form-encoded or JSON object body once and
// exposes its fields by name.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. Bodies starting with '{' are read as JSON.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	if p.err != nil {
		p.err = fmt.Errorf("decode form body: %w", p.err)
	}
	return p.err
}

// Has reports whether the field was submitted at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns the sanitized value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Optional returns a pointer to the value of key, or nil when it is absent
// or blank.
func (p *RequestBodyParser) Optional(key string) *string {
	if !p.Has(key) {
		return nil
	}
	v := p.Get(key)
	if v == "" {
		return nil
	}
	return &v
}

func (p *RequestBodyParser) TransactionInput() services.TransactionInput {
	return services.TransactionInput{
		Date:     p.Get("date"),
		Type:     p.Get("type"),
		Category: p.Get("category"),
		Note:     p.Get("note"),
		Amount:   p.Get("amount"),
	}
}

func (p *RequestBodyParser) SettingsUpdate() core.SettingsUpdate {
	return core.SettingsUpdate{
		Currency:             p.Optional("currency"),
		MonthlyExpenseTarget: p.Optional("monthlyExpenseTarget"),
		DailyIncomeTarget:    p.Optional("dailyIncomeTarget"),
		StartWeekOn:          p.Optional("startWeekOn"),
	}
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// monthParam resolves the {yyyymm} path value, defaulting to the month of now.
func monthParam(r *http.Request, now core.YearMonth) (core.YearMonth, error) {
	raw := strings.TrimSpace(r.PathValue("yyyymm"))
	if raw == "" {
		return now, nil
	}
	return core.ParseYearMonth(raw)
}
