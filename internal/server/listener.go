package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/hearthmail/pop3d/internal/config"
)

// ConnectionHandler processes one accepted connection. The context
// carries the server's logger and is cancelled on shutdown.
type ConnectionHandler func(ctx context.Context, conn net.Conn)

// Config configures a Server.
type Config struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Handler ConnectionHandler
	Limiter *ConnectionLimiter
}

// Server binds every address in Cfg.Listeners and dispatches each
// accepted connection to Handler on its own goroutine (§4.10).
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler ConnectionHandler
	limiter *ConnectionLimiter

	mu        sync.Mutex
	listeners []net.Listener
	started   bool
}

// New builds a Server. Handler must be non-nil.
func New(sc Config) (*Server, error) {
	if sc.Handler == nil {
		return nil, errors.New("server: handler is required")
	}
	limiter := sc.Limiter
	if limiter == nil {
		limiter = NewConnectionLimiter(sc.Cfg.Limits.MaxConnections)
	}
	return &Server{
		cfg:     sc.Cfg,
		logger:  sc.Logger,
		handler: sc.Handler,
		limiter: limiter,
	}, nil
}

// Run binds every configured listener and blocks until ctx is
// cancelled or every listener's accept loop has returned. A failure
// binding any one address tears down the listeners already bound and
// returns immediately; once all listeners are up, a single listener
// failing later does not stop the others (§4.10 accept error
// isolation) — it is reported in the returned error once Run unwinds.
func (s *Server) Run(ctx context.Context) error {
	if len(s.cfg.Listeners) == 0 {
		return ErrNoListeners
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true

	for _, addr := range s.cfg.Listeners {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			s.closeListenersLocked()
			s.mu.Unlock()
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		s.listeners = append(s.listeners, ln)
	}
	listeners := append([]net.Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Info("starting server",
		slog.String("hostname", s.cfg.Hostname),
		slog.Int("listener_count", len(listeners)),
	)

	var wg sync.WaitGroup
	errCh := make(chan error, len(listeners))
	for _, ln := range listeners {
		wg.Add(1)
		go func(ln net.Listener) {
			defer wg.Done()
			if err := s.acceptLoop(ctx, ln); err != nil && !errors.Is(err, net.ErrClosed) {
				errCh <- fmt.Errorf("listener %s: %w", ln.Addr(), err)
			}
		}(ln)
	}

	stopWatcher := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.Shutdown()
		case <-stopWatcher:
		}
	}()

	wg.Wait()
	close(stopWatcher)
	close(errCh)

	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
		s.logger.Error("listener error", slog.String("error", err.Error()))
	}

	s.logger.Info("server stopped")

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// acceptLoop runs a single listener's accept loop until it returns an
// error, which happens when the listener is closed by Shutdown. Each
// accepted connection is dispatched to Handler on its own goroutine,
// gated by the connection limiter.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}

		if !s.limiter.TryAcquire() {
			s.logger.Warn("connection limit reached, rejecting", slog.String("remote", conn.RemoteAddr().String()))
			_ = conn.Close()
			continue
		}

		go func() {
			defer s.limiter.Release()
			defer conn.Close()
			s.handler(ctx, conn)
		}()
	}
}

// Shutdown closes every listener, which unblocks their accept loops.
// In-flight connection handlers are not interrupted; Run returns once
// every accept loop has exited.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeListenersLocked()
}

func (s *Server) closeListenersLocked() {
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// Config returns the server's configuration.
func (s *Server) Config() *config.Config { return s.cfg }
