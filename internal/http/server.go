package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"expensify/internal/auth"
	"expensify/internal/insights"
	applog "expensify/internal/log"
	"expensify/internal/middleware/ratelimit"
	"expensify/internal/middleware/security"
	"expensify/internal/middleware/trace"
	"expensify/internal/services"
	"expensify/internal/telemetry"
)

// Options wires the server's dependencies.
type Options struct {
	Addr     string
	Auth     *services.AuthService
	Expenses *services.ExpenseService
	Insights *insights.Service
	Tokens   *auth.TokenIssuer
	Ready    Pinger
	Logger   *applog.Logger

	CORSOrigin   string
	CookieSecure bool

	// AuthRateLimit caps login and register attempts per client IP per minute.
	AuthRateLimit int
}

type Server struct {
	http.Server
	auth     *services.AuthService
	expenses *services.ExpenseService
	insights *insights.Service
	ready    Pinger

	cookieSecure bool

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	limit := opts.AuthRateLimit
	if limit <= 0 {
		limit = ratelimit.DefaultConfig().RequestsPerWindow
	}

	s := &Server{
		auth:         opts.Auth,
		expenses:     opts.Expenses,
		insights:     opts.Insights,
		ready:        opts.Ready,
		cookieSecure: opts.CookieSecure,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: limit, Window: time.Minute}),
		detector:     security.NewDetector(),
		tracer:       trace.NewMiddleware(),
	}

	r := chi.NewRouter()
	r.Use(
		s.tracer.Middleware,
		applog.Middleware(logger, trace.FromRequest),
		telemetry.Recoverer,
		security.Headers(security.DefaultHeadersConfig()),
		security.CORS(security.DefaultCORSConfig(opts.CORSOrigin)),
		s.detector.Middleware,
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", handleRoot)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
				writeMessage(w, http.StatusTooManyRequests, "Too many attempts, please try again later")
			}))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(opts.Tokens))
			r.Get("/user", s.handleCurrentUser)

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", s.handleCreateExpense)
				r.Get("/", s.handleListExpenses)
				r.Get("/insights", s.handleInsights)
				r.Put("/{id}", s.handleUpdateExpense)
				r.Delete("/{id}", s.handleDeleteExpense)
			})
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// RunBackground prunes rate limiter state until ctx is done.
func (s *Server) RunBackground(ctx context.Context) {
	s.limiter.Run(ctx, 5*time.Minute)
}

// Shutdown gracefully stops the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Stats is a snapshot of the middleware counters.
type Stats struct {
	Requests   trace.Metrics
	RateLimit  ratelimit.Metrics
	Suspicious security.DetectionMetrics
}

func (s *Server) Stats() Stats {
	return Stats{
		Requests:   s.tracer.GetMetrics(),
		RateLimit:  s.limiter.GetMetrics(),
		Suspicious: s.detector.GetMetrics(),
	}
}
