package server

import (
	"context"
	"fmt"
	"log/slog"
)

// InitModules registers every module's services, then boots each one on the
// root route group. Registration finishes for all modules before any boots.
func (s *Server) InitModules(ctx context.Context) error {
	for _, m := range s.modules {
		if err := m.Register(s.Registry); err != nil {
			return fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
	}

	root := s.E.Group("")
	for _, m := range s.modules {
		slog.Info("Booting module", "module", m.Name())
		if err := m.Boot(ctx, root, s.Registry); err != nil {
			return fmt.Errorf("failed to boot module %s: %w", m.Name(), err)
		}
	}
	return nil
}
