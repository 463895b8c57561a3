// Package http serves the dashboard, monthly reports, settings and
// transaction forms as server-rendered pages.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"keuangan/internal/core"
	"keuangan/internal/log"
	"keuangan/internal/middleware/ratelimit"
	"keuangan/internal/middleware/security"
	"keuangan/internal/middleware/trace"
	"keuangan/internal/services"
	appweb "keuangan/web"
)

// LedgerService is the part of *services.Ledger the pages need.
type LedgerService interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
	Create(ctx context.Context, in services.TransactionInput) (core.Transaction, error)
	Update(ctx context.Context, id string, in services.TransactionInput) (core.Transaction, error)
	Delete(ctx context.Context, id string) (bool, error)
	Settings(ctx context.Context) (core.Settings, error)
	UpdateSettings(ctx context.Context, u core.SettingsUpdate) (core.Settings, error)
	Dashboard(ctx context.Context, now time.Time) (core.Dashboard, error)
	Report(ctx context.Context, ym core.YearMonth) (core.Report, error)
}

// Options carries deployment facts the server reports or depends on.
type Options struct {
	Production         bool
	OnVercel           bool
	Backend            string
	BlobPrefix         string
	HasBlobCredentials bool

	SessionSecret      string
	FlashTTL           time.Duration
	RateLimitPerMinute int

	Logger *log.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server

	ledger    LedgerService
	opts      Options
	logger    *log.Logger
	now       func() time.Time
	templates map[string]*template.Template
	flashes   *FlashStore
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware

	shutdownOnce sync.Once
}

var pages = []string{"dashboard", "report", "settings", "tx_form"}

func NewServer(addr string, ledger LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Wrap(nil, log.ComponentHTTP)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FlashTTL <= 0 {
		opts.FlashTTL = 5 * time.Minute
	}

	s := &Server{
		ledger:   ledger,
		opts:     opts,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		now:      opts.Now,
		flashes:  NewFlashStore(opts.SessionSecret, opts.FlashTTL, opts.Production),
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Methods:           []string{http.MethodPost},
		}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger.Logger)

	t, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /report/{yyyymm}", s.handleReport)
	mux.HandleFunc("GET /settings", s.handleSettings)
	mux.HandleFunc("POST /settings", s.handleSaveSettings)
	mux.HandleFunc("GET /tx/new", s.handleNewTransaction)
	mux.HandleFunc("POST /tx/new", s.handleCreateTransaction)
	mux.HandleFunc("GET /tx/{id}/edit", s.handleEditTransaction)
	mux.HandleFunc("POST /tx/{id}/edit", s.handleUpdateTransaction)
	mux.HandleFunc("POST /tx/{id}/delete", s.handleDeleteTransaction)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// chain wraps h, outermost first: recover, trace, security, rate limit,
// request logger.
func (s *Server) chain(h http.Handler) http.Handler {
	h = log.Middleware(s.logger, trace.GetRequestID)(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(h)
	h = s.detector.Middleware(s.logger.Logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	return s.recoverer(h)
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(templateFuncs()).ParseFS(fsys, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Terlalu banyak permintaan. Coba lagi sebentar.", http.StatusTooManyRequests)
}

// Shutdown stops background work and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type healthResponse struct {
	OK                 bool    `json:"ok"`
	Env                string  `json:"env"`
	Backend            string  `json:"backend"`
	HasBlobCredentials bool    `json:"hasBlobCredentials"`
	Prefix             *string `json:"prefix"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		OK:                 true,
		Env:                "local",
		Backend:            s.opts.Backend,
		HasBlobCredentials: s.opts.HasBlobCredentials,
	}
	if s.opts.OnVercel {
		resp.Env = "vercel"
	}
	if s.opts.Backend == "blob" && s.opts.BlobPrefix != "" {
		prefix := s.opts.BlobPrefix
		resp.Prefix = &prefix
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to encode health response", "error", err)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) logLevelFor(status int) slog.Level {
	if status >= 500 {
		return slog.LevelError
	}
	return slog.LevelWarn
}
