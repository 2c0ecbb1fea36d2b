package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Data source kinds.
const (
	SourcePostgREST = "postgrest"
	SourcePostgres  = "postgres"
)

type AppConfig struct {
	Port        string        `envconfig:"PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	// PollInterval controls how often the readings table is polled.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	PollTimeout  time.Duration `envconfig:"POLL_TIMEOUT" default:"10s"`

	// Readings source.
	DataSource      string `envconfig:"DATA_SOURCE" default:"postgrest"`
	SupabaseURL     string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY"`
	ReadingsTable   string `envconfig:"READINGS_TABLE" default:"gps_data"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`

	// In-memory store retention.
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"5000"` // 0 = unlimited
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"168h"`     // 0 = unlimited

	// Vision API and model runtime.
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	ModelURL      string `envconfig:"MODEL_SERVING_URL"`
	ModelName     string `envconfig:"MODEL_NAME" default:"water_hyacinth_model"`

	StorageConfig

	// Control panel login.
	OperatorUsername     string        `envconfig:"OPERATOR_USERNAME" default:"operator"`
	OperatorPasswordHash string        `envconfig:"OPERATOR_PASSWORD_HASH"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	// HeatmapSeed fixes the overlay's random source; 0 seeds from the clock.
	HeatmapSeed int64 `envconfig:"HEATMAP_SEED" default:"0"`
}

// StorageConfig selects where artifacts land. When S3Endpoint is empty
// files are written below Dir.
type StorageConfig struct {
	Dir         string `envconfig:"ARTIFACT_DIR" default:"data/artifacts"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"water-hyacinth-images"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3Secure    bool   `envconfig:"S3_SECURE" default:"false"`
}

// UploadConfig configures the artifact upload server.
type UploadConfig struct {
	Port      string `envconfig:"UPLOAD_PORT" default:"3001"`
	TargetDir string `envconfig:"UPLOAD_DIR" default:"public/model"`
	MaxBytes  int    `envconfig:"UPLOAD_MAX_BYTES" default:"209715200"`

	StorageConfig
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	loadDotenv()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid POLL_INTERVAL: must be positive")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("invalid POLL_TIMEOUT: must be positive")
	}

	switch c.DataSource {
	case SourcePostgREST:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for DATA_SOURCE=%s", SourcePostgREST)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DATA_SOURCE=%s", SourcePostgres)
		}
	default:
		return fmt.Errorf("invalid DATA_SOURCE %q: use %s or %s", c.DataSource, SourcePostgREST, SourcePostgres)
	}

	return c.StorageConfig.validate()
}

func (s StorageConfig) validate() error {
	if s.S3Endpoint != "" && (s.S3AccessKey == "" || s.S3SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}
	return nil
}

// LoadUpload reads the upload server configuration.
func LoadUpload() (*UploadConfig, error) {
	loadDotenv()

	cfg := &UploadConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.TargetDir == "" {
		return nil, fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if err := cfg.StorageConfig.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
