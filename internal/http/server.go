package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"worklog/internal/cache"
	"worklog/internal/core"
	applog "worklog/internal/log"
	"worklog/internal/middleware/ratelimit"
	"worklog/internal/middleware/security"
	"worklog/internal/middleware/trace"
	"worklog/internal/services"
	appweb "worklog/web"
)

type Server struct {
	http.Server
	templates  *template.Template
	service    *services.WorkLogService
	structured *applog.StructuredLogger

	rateLimiter *ratelimit.Limiter
	traceMW     *trace.Middleware
	headersMW   *security.HeadersMiddleware

	// Rendered fragments are cached briefly; any mutation purges both
	// caches so totals never lag behind the log.
	summaryCache *cache.LRUCache[core.Summary]
	worklogCache *cache.LRUCache[core.ViewResult]
	cacheManager *cache.Manager

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.WorkLogService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:      svc,
		structured:   applog.NewStructuredLogger(applog.New(applog.Config{Component: applog.ComponentHTTP})),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		traceMW:      trace.NewMiddleware(extractClientIP),
		headersMW:    security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		summaryCache: cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		worklogCache: cache.NewLRUCache[core.ViewResult](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
		started:      time.Now(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.worklogCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/entries", s.handleSaveEntry)
	mux.HandleFunc("/entries/delete", s.handleDeleteEntry)
	mux.HandleFunc("/holiday-hours", s.handleHolidayHours)
	mux.HandleFunc("/week-override", s.handleWeekOverride)
	// UI partials
	mux.HandleFunc("/ui/summary", s.handleSummary)
	mux.HandleFunc("/ui/worklog", s.handleWorkLog)

	handler := s.headersMW.Middleware(
		s.traceMW.Middleware(
			s.withPostRateLimit(mux)))

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}

	return s
}

// withPostRateLimit limits mutating requests only; reads stay unthrottled
// so HTMX polling never trips the limiter.
func (s *Server) withPostRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// purgeCaches drops every cached fragment. Called on any mutation.
func (s *Server) purgeCaches() {
	s.summaryCache.Purge()
	s.worklogCache.Purge()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()

		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
