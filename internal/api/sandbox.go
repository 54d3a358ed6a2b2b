package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/phrazzld/users-qa/internal/platform/logger"
)

// Sandbox is a running sandbox API bound to a loopback port.
type Sandbox struct {
	server *http.Server
	url    string
	done   chan struct{}
}

// StartSandbox serves handler on 127.0.0.1 with an ephemeral port.
func StartSandbox(handler http.Handler, l *slog.Logger) (*Sandbox, error) {
	log := logger.Component(l, "sandbox")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen for sandbox: %w", err)
	}

	s := &Sandbox{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		url:  "http://" + listener.Addr().String(),
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("sandbox server failed", "error", err)
		}
	}()

	log.Info("sandbox listening", "url", s.url)
	return s, nil
}

// URL returns the base URL of the sandbox.
func (s *Sandbox) URL() string {
	return s.url
}

// Close shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Sandbox) Close(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("sandbox shutdown failed: %w", err)
	}
	<-s.done
	return nil
}
