package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"docsearch-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Env                  string
	Port                 string
	DatabaseURL          string
	AutoMigrate          bool
	CORSAllowOrigin      []string
	MaxUploadBytes       int64
	IngestWorkers        int
	IngestWaitTimeout    time.Duration
	DocumentCacheSize    int
	ObjectStoreType      string
	LocalStoreDir        string
	AWSRegion            string
	S3Bucket             string
	S3Prefix             string
	SSEKMSKeyID          string
	EventsQueueURL       string
	UploadRateLimitRPS   float64
	UploadRateLimitBurst int
}

const (
	StoreNone  = "none"
	StoreLocal = "local"
	StoreS3    = "s3"
)

// Load reads configuration from the environment. Values from .env files and the
// optional CONFIG_FILE yaml only fill keys the environment leaves unset.
func Load() (Config, error) {
	loadEnvFiles(".env", "cmd/.env")

	file, err := readFileValues(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	return fromLookup(overlay(file)), nil
}

// lookup resolves a key to its raw value.
type lookup func(key string) string

func overlay(file map[string]string) lookup {
	return func(key string) string {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
		return strings.TrimSpace(file[key])
	}
}

func fromLookup(get lookup) Config {
	env := normalizeEnv(get("ENV"))
	dbURL := get("DATABASE_URL")
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	return Config{
		Env:                  env,
		Port:                 withDefault(get("PORT"), "8080"),
		DatabaseURL:          dbURL,
		AutoMigrate:          readBool(get, "AUTO_MIGRATE", true),
		CORSAllowOrigin:      splitAndTrim(withDefault(get("CORS_ALLOW_ORIGINS"), "http://localhost:5173")),
		MaxUploadBytes:       int64(readInt(get, "MAX_UPLOAD_BYTES", 10<<20)),
		IngestWorkers:        readInt(get, "INGEST_WORKERS", 4),
		IngestWaitTimeout:    readDuration(get, "INGEST_WAIT_TIMEOUT", 0),
		DocumentCacheSize:    readInt(get, "DOCUMENT_CACHE_SIZE", 256),
		ObjectStoreType:      normalizeStoreType(get("OBJECT_STORE")),
		LocalStoreDir:        withDefault(get("LOCAL_STORE_DIR"), "./data"),
		AWSRegion:            get("AWS_REGION"),
		S3Bucket:             get("S3_BUCKET"),
		S3Prefix:             get("S3_PREFIX"),
		SSEKMSKeyID:          get("SSE_KMS_KEY_ID"),
		EventsQueueURL:       get("EVENTS_SQS_QUEUE_URL"),
		UploadRateLimitRPS:   readFloat(get, "RATE_LIMIT_UPLOAD_RPS", 2),
		UploadRateLimitBurst: readInt(get, "RATE_LIMIT_UPLOAD_BURST", 5),
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.ObjectStoreType == StoreS3 && strings.TrimSpace(c.S3Bucket) == "" {
		return fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
	}
	if c.IngestWorkers <= 0 {
		return fmt.Errorf("INGEST_WORKERS must be positive, got %d", c.IngestWorkers)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

func withDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func readInt(get lookup, key string, def int) int {
	raw := get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		warnInvalid(key, raw)
		return def
	}
	return v
}

func readFloat(get lookup, key string, def float64) float64 {
	raw := get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		warnInvalid(key, raw)
		return def
	}
	return v
}

func readBool(get lookup, key string, def bool) bool {
	raw := get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		warnInvalid(key, raw)
		return def
	}
	return v
}

func readDuration(get lookup, key string, def time.Duration) time.Duration {
	raw := get(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		warnInvalid(key, raw)
		return def
	}
	return v
}

func warnInvalid(key, raw string) {
	telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw})
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StoreS3:
		return StoreS3
	case StoreLocal:
		return StoreLocal
	default:
		return StoreNone
	}
}
