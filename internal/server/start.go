package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// Start boots the modules and serves on the configured address until an
// interrupt or terminate signal arrives.
func (s *Server) Start() error {
	ctx, stop := signalContext()
	defer stop()

	ln, err := net.Listen("tcp", s.Cfg.GetAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Cfg.GetAddr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve boots the modules, serves on ln until ctx is done, then shuts down
// modules and the HTTP server within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.InitModules(ctx); err != nil {
		ln.Close()
		return err
	}

	s.E.Listener = ln
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Relay listening", "addr", ln.Addr().String())
		if err := s.E.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down relay", "timeout", s.Cfg.GetShutdownTimeout())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Cfg.GetShutdownTimeout())
	defer cancel()

	// Hijacked WebSocket connections are not tracked by http.Server, so the
	// modules close them first.
	modErr := s.shutdownModules(shutdownCtx)
	if err := s.E.Shutdown(shutdownCtx); err != nil {
		return errors.Join(modErr, fmt.Errorf("http shutdown: %w", err))
	}
	return modErr
}
