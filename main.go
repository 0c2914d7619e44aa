// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/AI-Template-SDK/senso-query-engine/internal/api"
	"github.com/AI-Template-SDK/senso-query-engine/internal/app"
	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/workflows"
	"github.com/inngest/inngestgo"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("dev.env"); err != nil {
			log.Printf("Note: No .env or dev.env file loaded: %v", err)
		} else {
			log.Printf("Loaded dev.env file for local development")
		}
	} else {
		log.Printf("Loaded .env file")
	}

	cfg := config.Load()
	appLog := logger.NewStructured(cfg.LogLevel, cfg.LogFormat)
	appLog.Info("starting query engine", logger.Fields{
		"environment":   cfg.Environment,
		"port":          cfg.Port,
		"database_host": cfg.Database.Host,
		"database_name": cfg.Database.Name,
		"rate_limiter":  cfg.RateLimitBackend,
	})

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, appLog, app.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer a.Close()

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		appLog.Info("Running in development mode - signing key verification disabled", nil)
	}

	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "senso-query-engine",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		log.Fatalf("Failed to create Inngest client: %v", err)
	}

	batchProcessor := workflows.NewBatchProcessor(a.Engine, a.Processor, appLog)
	batchProcessor.SetClient(client)
	batchProcessor.SetAlerter(workflows.NewSlackAlerter(cfg.SlackWebhookURL))
	batchProcessor.ProcessBatch()

	server, err := api.NewServer(a.Engine, a.Processor, api.Options{Index: a.Index, Events: client}, appLog)
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/inngest", client.Serve())
	server.Register(mux)

	appLog.Info("listening", logger.Fields{"port": cfg.Port})
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		log.Fatal(err)
	}
}
