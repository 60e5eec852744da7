package dax

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server wraps an HTTP server with a chi router, middleware wiring and
// graceful lifecycle management.
type Server struct {
	server *http.Server
	router *chi.Mux
	logger Logger
	errCh  chan error
}

// NewServer builds a Server listening on addr. Middlewares apply to every
// route registered afterwards through Router.
func NewServer(addr string, logger Logger, middlewares ...func(http.Handler) http.Handler) *Server {
	if logger == nil {
		logger = NewNoopLogger()
	}
	router := chi.NewRouter()
	for _, mw := range middlewares {
		if mw != nil {
			router.Use(mw)
		}
	}
	return &Server{
		server: &http.Server{Addr: NormalizePort(addr, ":8080"), Handler: router},
		router: router,
		logger: logger,
		errCh:  make(chan error, 1),
	}
}

// Router exposes the underlying mux for route registration.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start begins serving in the background. Listen failures surface through Run.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Infof("starting http server on %s", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
		close(s.errCh)
	}()
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails, then performs a graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	select {
	case err := <-s.errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.logger.Info("shutting down http server")
	return s.Stop(context.Background())
}

// NormalizePort ensures addresses always include a colon-separated port and
// fall back to a default when unset.
func NormalizePort(port, fallback string) string {
	p := port
	if p == "" {
		p = fallback
	}
	if p == "" {
		return ":8080"
	}
	for i := 0; i < len(p); i++ {
		if p[i] == ':' {
			return p
		}
	}
	return ":" + p
}
