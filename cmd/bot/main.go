package main

import (
	"flag"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/app"
	"github.com/pulverlogic/newsboard/internal/bot"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	cfg, err := bot.ReadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load bot config: %v", err)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	b, err := bot.New(cfg, service)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info.Println("Bot initialized successfully")
	if err := b.Start(); err != nil {
		logger.Error.Fatalf("Bot error: %v", err)
	}
}
