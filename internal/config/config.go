package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the sync service reads from the environment.
type Config struct {
	Server   ServerConfig
	Airtable AirtableConfig
	Database DatabaseConfig
	Sync     SyncConfig
	Cache    CacheConfig
}

// ServerConfig holds settings for the operational HTTP API.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

// AirtableConfig holds credentials and limits for the source base.
type AirtableConfig struct {
	APIKey  string
	BaseID  string
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds the two mirror DSNs. The read-only DSN must point at a
// privilege-restricted role; ad-hoc query collaborators never get the writer pool.
type DatabaseConfig struct {
	DSN         string
	ReadOnlyDSN string
}

// SyncConfig holds the orchestrator tunables. Batch sizes trade payload size
// against round trips; they are not correctness knobs.
type SyncConfig struct {
	Interval         time.Duration
	BatchSize        int
	AdminBatchSize   int
	StatementTimeout time.Duration
}

// CacheConfig holds per-key-class TTLs for the read-through cache.
type CacheConfig struct {
	OrganizerEmailsTTL time.Duration
	EventTTL           time.Duration
	AdminTTL           time.Duration
	AllEventsTTL       time.Duration
}

// Load reads configuration from environment, with an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Airtable: AirtableConfig{
			APIKey:  os.Getenv("AIRTABLE_API_KEY"),
			BaseID:  os.Getenv("AIRTABLE_BASE_ID"),
			BaseURL: getEnv("AIRTABLE_URL", "https://api.airtable.com/v0"),
			Timeout: secondsEnv("AIRTABLE_TIMEOUT_SEC", 30),
		},
		Database: DatabaseConfig{
			DSN:         os.Getenv("POSTGRES_DSN"),
			ReadOnlyDSN: os.Getenv("POSTGRES_RO_DSN"),
		},
		Sync: SyncConfig{
			Interval:         durationEnv("SYNC_INTERVAL", 5*time.Minute),
			BatchSize:        intEnv("SYNC_BATCH_SIZE", 50),
			AdminBatchSize:   intEnv("SYNC_ADMIN_BATCH_SIZE", 20),
			StatementTimeout: secondsEnv("SYNC_STATEMENT_TIMEOUT_SEC", 15),
		},
		Cache: CacheConfig{
			OrganizerEmailsTTL: durationEnv("CACHE_TTL_ORGANIZER_EMAILS", 15*time.Minute),
			EventTTL:           durationEnv("CACHE_TTL_EVENT", 2*time.Minute),
			AdminTTL:           durationEnv("CACHE_TTL_ADMIN", 10*time.Minute),
			AllEventsTTL:       durationEnv("CACHE_TTL_ALL_EVENTS", 2*time.Minute),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func secondsEnv(key string, fallback int) time.Duration {
	return time.Duration(intEnv(key, fallback)) * time.Second
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
