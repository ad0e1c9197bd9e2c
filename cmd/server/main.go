package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/app"
	"github.com/pulverlogic/newsboard/internal/auth"
	"github.com/pulverlogic/newsboard/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := service.StartBackground(ctx); err != nil {
		logger.Error.Fatalf("Failed to start background jobs: %v", err)
	}

	cfg := service.Config
	sessions, err := auth.NewSessions(cfg.Server.SessionSecret, int(cfg.SessionLifetime().Seconds()), cfg.Server.SecureCookies)
	if err != nil {
		logger.Error.Fatalf("Failed to set up sessions: %v", err)
	}
	handler, err := handlers.NewHandler(service, sessions)
	if err != nil {
		logger.Error.Fatalf("Failed to load templates: %v", err)
	}

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Server.Port, Handler: mux}
	go func() {
		<-ctx.Done()
		logger.Info.Println("Shutting down server...")
		server.Shutdown(context.Background())
	}()

	logger.Info.Printf("Starting PulverLogic newsboard on %s", cfg.Server.Port)
	logger.Debug.Printf("Storage: %s, git sync enabled: %v", app.DatabaseTypeFor(cfg.Data.DSN), service.Syncer.Enabled())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error.Fatalf("Newsboard server failed: %v", err)
	}
}
