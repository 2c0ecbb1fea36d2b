package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/hyacinth-monitor/internal/analysis"
	httpapi "github.com/i474232898/hyacinth-monitor/internal/api/http"
	"github.com/i474232898/hyacinth-monitor/internal/artifacts"
	"github.com/i474232898/hyacinth-monitor/internal/auth"
	"github.com/i474232898/hyacinth-monitor/internal/config"
	"github.com/i474232898/hyacinth-monitor/internal/control"
	"github.com/i474232898/hyacinth-monitor/internal/heatmap"
	"github.com/i474232898/hyacinth-monitor/internal/scheduler"
	"github.com/i474232898/hyacinth-monitor/internal/store"
	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
	"github.com/i474232898/hyacinth-monitor/internal/telemetry/sources"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("hyacinth-monitor: %v", err)
	}
}

// run wires the service and serves until SIGINT or SIGTERM.
func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Artifact storage for analysed images.
	artifactStore, err := newArtifactStore(cfg.StorageConfig)
	if err != nil {
		return fmt.Errorf("failed to init artifact store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound collaborator calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Readings source.
	var source telemetry.Source
	switch cfg.DataSource {
	case config.SourcePostgres:
		pool, err := sources.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()
		source = sources.NewPostgresSource(pool, cfg.ReadingsTable)
	default:
		source = sources.NewPostgRESTSource(httpClient, cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.ReadingsTable)
	}

	// In-memory snapshot with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	service := telemetry.NewService(memStore, source, cfg.StoreMaxAge)

	// Polling scheduler.
	sched := scheduler.New(cfg.PollInterval, cfg.PollTimeout, service)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// Heatmap overlay.
	var seed rand.Source
	if cfg.HeatmapSeed != 0 {
		seed = rand.NewSource(cfg.HeatmapSeed)
	}
	sampler := heatmap.NewSampler(seed, heatmap.DamBounds)

	// Image analysis.
	var analyzer *analysis.Service
	if cfg.GeminiAPIKey != "" {
		var model analysis.CoverageModel
		if cfg.ModelURL != "" {
			model = analysis.NewModelClient(httpClient, cfg.ModelURL, cfg.ModelName)
		}
		vision := analysis.NewGeminiClient(httpClient, cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
		analyzer = analysis.NewService(vision, model, artifactStore)
	} else {
		log.Println("INFO: GEMINI_API_KEY not set; image analysis disabled")
	}

	sessions := auth.NewSessionStore(auth.Credentials{
		Username:     cfg.OperatorUsername,
		PasswordHash: cfg.OperatorPasswordHash,
	}, cfg.SessionTTL)

	app := fiber.New(fiber.Config{
		AppName:               "hyacinth-monitor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		BodyLimit:             analysis.MaxImageBytes + 1<<20,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(compress.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "hyacinth-monitor",
			"source":  source.Name(),
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Telemetry: service,
		Heatmap:   sampler,
		Analysis:  analyzer,
		Sessions:  sessions,
		Drones:    control.NewRegistry(control.DefaultFleet()...),
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: hyacinth-monitor listening on :%s (source=%s, poll=%s)", cfg.Port, source.Name(), cfg.PollInterval)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

func newArtifactStore(cfg config.StorageConfig) (artifacts.Store, error) {
	if cfg.S3Endpoint != "" {
		return artifacts.NewMinioStore(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Secure)
	}
	return artifacts.NewDiskStore(cfg.Dir), nil
}
