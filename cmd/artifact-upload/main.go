package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/hyacinth-monitor/internal/api/http"
	"github.com/i474232898/hyacinth-monitor/internal/api/upload"
	"github.com/i474232898/hyacinth-monitor/internal/artifacts"
	"github.com/i474232898/hyacinth-monitor/internal/config"
)

func main() {
	cfg, err := config.LoadUpload()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var store artifacts.Store
	if cfg.S3Endpoint != "" {
		store, err = artifacts.NewMinioStore(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Secure)
		if err != nil {
			log.Fatalf("failed to init artifact store: %v", err)
		}
	} else {
		store = artifacts.NewDiskStore(cfg.TargetDir)
	}

	app := fiber.New(fiber.Config{
		AppName:               "artifact-upload",
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxBytes,
		ErrorHandler:          httpapi.ErrorHandler,
	})
	app.Use(logger.New())
	app.Use(recover.New())

	upload.RegisterRoutes(app, store)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: artifact-upload listening on :%s", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
