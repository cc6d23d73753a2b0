package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/duskmoss/sortify/internal/shared"
)

// Loopback is the temporary localhost server that receives the authorization
// redirect during login.
type Loopback struct {
	server   *http.Server
	handler  *CallbackHandler
	logger   *log.Logger
	listener net.Listener
	serveErr chan error
}

// NewLoopback builds a [Loopback] listening on the configured host and port.
// The address must match the redirect URI registered with the provider.
func NewLoopback(cfg *shared.ServerConfig, logger *log.Logger) *Loopback {
	handler := NewCallbackHandler()

	router := NewRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	return &Loopback{
		server: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: router,
		},
		handler:  handler,
		logger:   logger,
		serveErr: make(chan error, 1),
	}
}

// Start binds the listener and begins serving in the background. The port is
// bound before Start returns, so the browser can be opened immediately after.
func (l *Loopback) Start() error {
	listener, err := net.Listen("tcp", l.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind callback server on %s: %w", l.server.Addr, err)
	}
	l.listener = listener

	l.logger.Debug("callback server listening", "addr", listener.Addr())

	go func() {
		if err := l.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.serveErr <- err
		}
	}()

	return nil
}

// Addr reports the bound listener address. Only valid after [Loopback.Start].
func (l *Loopback) Addr() string {
	if l.listener == nil {
		return l.server.Addr
	}
	return l.listener.Addr().String()
}

// Wait blocks until the redirect arrives, the context ends, or the timeout
// elapses, then shuts the server down.
func (l *Loopback) Wait(ctx context.Context, timeout time.Duration) (*CallbackResult, error) {
	defer l.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-l.handler.Result():
		return &result, nil
	case err := <-l.serveErr:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("no authorization redirect within %s: %w", timeout, shared.ErrTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("login canceled: %w", ctx.Err())
	}
}

func (l *Loopback) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := l.server.Shutdown(ctx); err != nil {
		l.logger.Warn("callback server shutdown failed", "error", err)
	}
}
