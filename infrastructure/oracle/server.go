package oracle

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/duelist/infrastructure/logging"
)

// Routes served by the relay. The prefixed route keeps older clients
// working behind the shared gateway.
const (
	RouteAct         = "/duelista/act"
	RouteActPrefixed = "/zero-api/duelista/act"
	RouteHealth      = "/healthz"
)

// ServerConfig configures the relay server.
type ServerConfig struct {
	// Address is the HTTP listen address (default ":8787").
	Address string

	// EnableCORS allows browser clients on other origins.
	EnableCORS bool

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration
}

// Server is the relay HTTP server.
type Server struct {
	config     ServerConfig
	handler    *Handler
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates a relay server around the act handler.
func NewServer(cfg ServerConfig, handler *Handler) *Server {
	if cfg.Address == "" {
		cfg.Address = ":8787"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	s := &Server{
		config:  cfg,
		handler: handler,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.Handle(RouteAct, s.handler)
	s.mux.Handle(RouteActPrefixed, s.handler)
	s.mux.HandleFunc(RouteHealth, s.handleHealth)
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.mux)
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(l)
	}()

	logging.Info().
		Add(logging.Component("relay")).
		Add(logging.Str("address", l.Addr().String())).
		Msg("relay listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// ListenAndServe listens on the configured address and serves until ctx
// is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// withMiddleware wraps the handler with common middleware.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.EnableCORS {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		handler.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
