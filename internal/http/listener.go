package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// listener runs one *http.Server from Start until Shutdown. The API and metrics servers
// both embed it.
type listener struct {
	name   string
	server *http.Server
	logger *slog.Logger

	bindOnce sync.Once
	bound    chan struct{}
	addr     net.Addr
}

func newListener(name, host string, port int, logger *slog.Logger) *listener {
	return &listener{
		name:   name,
		logger: logger,
		bound:  make(chan struct{}),
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// GetHandler returns the handler served by Start.
func (l *listener) GetHandler() http.Handler {
	return l.server.Handler
}

// Start binds the configured address and serves until Shutdown. It returns nil after a
// graceful shutdown.
func (l *listener) Start(ctx context.Context) error {
	if l.server.Handler == nil {
		return fmt.Errorf("%s server has no handler", l.name)
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", l.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to start %s server: %w", l.name, err)
	}
	l.bindOnce.Do(func() {
		l.addr = ln.Addr()
		close(l.bound)
	})

	l.logger.Info("starting "+l.name+" server", slog.String("addr", ln.Addr().String()))

	if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", l.name, err)
	}
	return nil
}

// Addr returns the bound address once Start has opened its socket. With port 0 this is
// the only way to learn the chosen port.
func (l *listener) Addr(ctx context.Context) (string, error) {
	select {
	case <-l.bound:
		return l.addr.String(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (l *listener) Shutdown(ctx context.Context) error {
	l.logger.Info("shutting down " + l.name + " server")
	return l.server.Shutdown(ctx)
}
