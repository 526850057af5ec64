// Package server serves the composer page, the per-page websocket session
// channel and a small JSON API for one-shot submissions.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/textvault/textvault/internal/composer"
	"github.com/textvault/textvault/internal/config"
	verrors "github.com/textvault/textvault/internal/errors"
	"github.com/textvault/textvault/internal/logging"
	"github.com/textvault/textvault/internal/session"
)

// Server is the composer HTTP server.
type Server struct {
	config     *config.Config
	sessions   *session.Manager
	sink       composer.Sink
	logger     logging.Logger
	errHandler *verrors.ErrorHandler
	apiLimiter *ipRateLimiter

	httpServer  *http.Server
	listener    net.Listener
	serverMutex sync.RWMutex // Protects httpServer and listener

	// ctx bounds websocket connections; cancelled on Shutdown.
	ctx          context.Context
	cancel       context.CancelFunc
	connMu       sync.Mutex // Orders conns.Add against shutdown
	conns        sync.WaitGroup
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// New creates a server. sessions and sink are owned by the caller.
func New(cfg *config.Config, sessions *session.Manager, sink composer.Sink, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("server")

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		config:     cfg,
		sessions:   sessions,
		sink:       sink,
		logger:     logger,
		errHandler: verrors.NewErrorHandler(logger),
		apiLimiter: newIPRateLimiter(cfg.Submit.Rate, cfg.Submit.Burst),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("POST /api/pastes", s.apiLimiter.middleware(s.handleCreatePaste))
	mux.Handle("GET /static/", staticHandler())

	return s.addMiddleware(mux)
}

// Start listens on the configured address and serves until Shutdown is
// called or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return verrors.NewConfigError(verrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot listen on %s: %v", s.config.Server.Addr(), err))
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until Shutdown is called or ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.serverMutex.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	})
	defer stop()

	s.logger.Info(ctx, "Composer server listening", "addr", ln.Addr().String())

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Addr returns the bound address once serving, or "".
func (s *Server) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting work, closes every session and waits for open
// websocket connections to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")
		s.connMu.Lock()
		s.isShutdown.Store(true)
		s.connMu.Unlock()

		s.cancel()
		s.sessions.Shutdown()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}

		done := make(chan struct{})
		go func() {
			s.conns.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			if shutdownErr == nil {
				shutdownErr = ctx.Err()
			}
		}
	})

	return shutdownErr
}

func (s *Server) addMiddleware(handler http.Handler) http.Handler {
	secured := SecurityMiddleware(SecurityConfigFromAppConfig(s.config, s.logger))(handler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		secured.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
