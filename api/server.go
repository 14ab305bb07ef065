// Package api exposes the conversation subsystem over HTTP REST.
//
// Endpoints:
//
//	GET    /health                  liveness probe
//	GET    /ready                   readiness probe (DB ping)
//	GET    /api/session             bootstrap a session for ?profile=
//	DELETE /api/session             tear the session down
//	POST   /api/session/prompt      select a system prompt
//	GET    /api/conversations       list a profile's conversations
//	GET    /api/sources             deduplicated sources + aggregates
//	POST   /api/chat                send one turn
//	POST   /api/chat/retry          retry a failed turn
//
// File structure:
//   - server.go: HTTP server setup and lifecycle, session hub
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints
//   - session.go: session bootstrap and prompt selection
//   - chat.go: turn execution, retry, source aggregation
//   - response.go: JSON response helpers and error translation
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Deps aggregates the collaborators the server needs.
type Deps struct {
	Controller *chat.Controller
	Manager    *chat.Manager
	Executor   *chat.Executor

	// Pool is used only by the readiness probe. Nil in demo mode, in
	// which case readiness degrades to liveness.
	Pool *pgxpool.Pool

	Logger log.Logger
}

// Server is the HTTP server for the conversation REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health  *HealthHandler
	session *SessionHandler
	chat    *ChatHandler
}

// NewServer creates a server with all routes registered.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}

	hub := newSessionHub(deps.Controller)
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  deps.Logger,
		health:  NewHealthHandler(deps.Pool, deps.Logger),
		session: NewSessionHandler(hub, deps.Manager, deps.Logger),
		chat:    NewChatHandler(hub, deps.Executor, deps.Logger),
	}

	s.health.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// sessionHub caches one live session per profile so the in-flight guard and
// the optimistic message projection survive across requests. Sessions are
// opened lazily through the controller.
type sessionHub struct {
	mu         sync.Mutex
	controller *chat.Controller
	sessions   map[string]*chat.Session
}

func newSessionHub(controller *chat.Controller) *sessionHub {
	return &sessionHub{
		controller: controller,
		sessions:   make(map[string]*chat.Session),
	}
}

// open returns the cached session for the profile, bootstrapping it when
// absent or previously closed.
func (h *sessionHub) open(ctx context.Context, profileID string) (*chat.Session, error) {
	h.mu.Lock()
	if sess, ok := h.sessions[profileID]; ok && !sess.Closed() {
		h.mu.Unlock()
		return sess, nil
	}
	h.mu.Unlock()

	// Bootstrap outside the lock; the controller can block on stores.
	view, err := h.controller.Open(ctx, profileID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if sess, ok := h.sessions[profileID]; ok && !sess.Closed() {
		// Lost the race to a concurrent bootstrap; keep the winner.
		view.Session.Close()
		return sess, nil
	}
	h.sessions[profileID] = view.Session
	return view.Session, nil
}

// close tears down and forgets the profile's session.
func (h *sessionHub) close(profileID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sess, ok := h.sessions[profileID]; ok {
		sess.Close()
		delete(h.sessions, profileID)
	}
}
