package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/app"
	"github.com/pulverlogic/newsboard/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if len(service.Config.Export) == 0 {
		logger.Error.Fatalf("No [[export]] sections in %s", *configPath)
	}

	exporter, err := export.NewGSheetExporter(service.Config, service)
	if err != nil {
		logger.Error.Fatalf("Failed to initialize Google Sheets exporter: %v", err)
	}
	exporter.Start()
	defer exporter.Stop()

	logger.Info.Printf("Exporting the leaderboard to %d sheet(s)", len(service.Config.Export))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Exporter stopped")
}
