package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/l1fee/auth"
	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/health"
	"github.com/jonwraymond/l1fee/observe"
)

// Scopes required on the fee routes when authentication is enabled.
const (
	ScopeRead  = "fee:read"
	ScopeWatch = "fee:watch"
	ScopeAdmin = "fee:admin"
)

// Server serves a fee.Estimator.
type Server struct {
	est      *fee.Estimator
	logger   observe.Logger
	authn    auth.Authenticator
	health   *health.Aggregator
	metrics  http.Handler
	origins  []string
	watch    WatchConfig
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAuthenticator requires authentication on the fee routes.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(s *Server) { s.authn = a }
}

// WithHealth mounts the health probes of agg.
func WithHealth(agg *health.Aggregator) Option {
	return func(s *Server) { s.health = agg }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCORSOrigins allows cross-origin requests and websocket upgrades from
// origins. "*" allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
				s.origins = append(s.origins, o)
			}
		}
	}
}

// WithWatchConfig overrides the websocket timings.
func WithWatchConfig(cfg WatchConfig) Option {
	return func(s *Server) { s.watch = cfg }
}

// New creates a Server for est.
func New(est *fee.Estimator, opts ...Option) (*Server, error) {
	if est == nil {
		return nil, ErrNilEstimator
	}
	s := &Server{est: est, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.watch = s.watch.withDefaults()
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// Mount registers the fee routes on root below pathPrefix.
func (s *Server) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	if s.authn != nil {
		sub.Use(auth.RequireAuth(s.authn, s.logger))
	}

	sub.Path("/l1-security-fee").Methods(http.MethodPost).
		Handler(s.scoped(ScopeRead, WrapHandlerFunc(s.handleEstimate)))
	sub.Path("/l1-security-fee").Methods(http.MethodDelete).
		Handler(s.scoped(ScopeAdmin, WrapHandlerFunc(s.handleEvict)))
	sub.Path("/l1-security-fee/watch").Methods(http.MethodGet).
		Handler(s.scoped(ScopeWatch, WrapHandlerFunc(s.handleWatch)))
}

func (s *Server) scoped(scope string, h http.Handler) http.Handler {
	if s.authn == nil {
		return h
	}
	return auth.RequireScope(scope)(h)
}

// Handler returns the complete HTTP handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.Mount(router, "/v1")
	if s.health != nil {
		health.RegisterHandlers(router, s.health)
	}
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	handler := handlers.CompressHandler(router)
	if len(s.origins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(s.origins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
			handlers.AllowedHeaders([]string{"authorization", "content-type"}),
		)(handler)
	}
	handler = handlers.CustomLoggingHandler(io.Discard, handler, s.logRequest)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(handler)
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Debug(p.Request.Context(), "http request",
		observe.F("method", p.Request.Method),
		observe.F("path", p.URL.Path),
		observe.F("status", p.StatusCode),
		observe.F("size", p.Size),
		observe.F("duration_ms", time.Since(p.TimeStamp).Milliseconds()),
	)
}

type recoveryLogger struct{ l observe.Logger }

func (r recoveryLogger) Println(v ...any) {
	r.l.Error(context.Background(), "http handler panicked", observe.F("panic", v))
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := strings.ToLower(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin) {
		return true
	}
	// Same-origin requests are always allowed.
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	return strings.EqualFold(host, r.Host)
}

// HTTPConfig configures ListenAndServe.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// Request contexts derive from ctx, so open watch streams end with it.
func (s *Server) ListenAndServe(ctx context.Context, cfg HTTPConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info(ctx, "http server listening", observe.F("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
