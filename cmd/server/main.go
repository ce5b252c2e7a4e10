package main

import (
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/nfrund/relay/internal/app"
	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/logging"
	"github.com/nfrund/relay/internal/server"
)

func main() {
	cfg := config.New()
	logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())

	injector := app.NewContainer(cfg)
	s := do.MustInvoke[*server.Server](injector)

	err := s.Start()
	injector.Shutdown()
	if err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
