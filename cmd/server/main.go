package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/avolkov/filevault/internal/logging"
	"github.com/avolkov/filevault/internal/server"
	"github.com/avolkov/filevault/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app := server.NewApp(cfg, logger)
	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
