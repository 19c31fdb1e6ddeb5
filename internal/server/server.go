package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playperu/treasurehunt/internal/handler/health"
	"github.com/playperu/treasurehunt/internal/lock"
	"github.com/playperu/treasurehunt/internal/metrics"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Store     Store
	Locker    lock.Locker
	Checks    map[string]health.Checker
	TokenKey  []byte
	TokenTTL  time.Duration
	PublicURL string
	SPADir    string
	// PathLockTTL bounds how long one path generation may hold its lock.
	PathLockTTL time.Duration

	// Now and NewRand default to the wall clock and a randomly seeded
	// generator.
	Now     func() time.Time
	NewRand func() *rand.Rand
}

func (d *Deps) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewRand == nil {
		d.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	if d.PathLockTTL <= 0 {
		d.PathLockTTL = 30 * time.Second
	}
	if d.TokenTTL <= 0 {
		d.TokenTTL = 12 * time.Hour
	}
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, logger *slog.Logger, deps Deps) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newRouter(logger, deps),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func newRouter(logger *slog.Logger, deps Deps) http.Handler {
	deps.defaults()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, logger, deps)

	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// newStructuredLogger logs every request and records it in the request
// metrics, labelled by chi route pattern to keep label cardinality low.
func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				elapsed := time.Since(start)
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				metrics.RequestCounter.WithLabelValues(strconv.Itoa(ww.Status()), r.Method, route).Inc()
				metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"route", route,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", elapsed.Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
