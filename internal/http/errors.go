package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"runtime/debug"

	"keuangan/internal/core"
	"keuangan/internal/log"
)

// statusFor maps domain errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidMonth):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes the matching plain response. Internal errors
// only show detail outside production.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())

	fields := log.NewFields().WithOperation(op).WithError(err)
	switch status {
	case http.StatusBadRequest:
		logger.Event(r.Context(), s.logLevelFor(status), "Invalid request", fields.WithErrorType(log.ErrorTypeValidation))
		http.Error(w, "Bulan tidak valid, gunakan format YYYY-MM", status)
	case http.StatusNotFound:
		logger.Event(r.Context(), s.logLevelFor(status), "Not found", fields.WithErrorType(log.ErrorTypeNotFound))
		http.Error(w, "Not found", status)
	default:
		logger.Event(r.Context(), s.logLevelFor(status), "Request failed", fields.WithErrorType(log.ErrorTypeInternal))
		s.internalError(w, err.Error())
	}
}

func (s *Server) internalError(w http.ResponseWriter, detail string) {
	if s.opts.Production {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w, `<pre style="white-space:pre-wrap">%s</pre>`, template.HTMLEscapeString(detail))
}

// recoverer turns a handler panic into a 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := debug.Stack()
			s.logger.ErrorContext(r.Context(), "Handler panic",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(stack))
			s.internalError(w, fmt.Sprintf("%v\n\n%s", rec, stack))
		}()
		next.ServeHTTP(w, r)
	})
}
