package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "PORT", "DATABASE_URL", "AUTO_MIGRATE", "CORS_ALLOW_ORIGINS", "MAX_UPLOAD_BYTES",
		"INGEST_WORKERS", "INGEST_WAIT_TIMEOUT", "DOCUMENT_CACHE_SIZE", "OBJECT_STORE", "LOCAL_STORE_DIR",
		"AWS_REGION", "S3_BUCKET", "S3_PREFIX", "SSE_KMS_KEY_ID", "EVENTS_SQS_QUEUE_URL",
		"RATE_LIMIT_UPLOAD_RPS", "RATE_LIMIT_UPLOAD_BURST", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "dev" || cfg.Port != "8080" {
		t.Fatalf("unexpected env/port: %q %q", cfg.Env, cfg.Port)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate by default")
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.IngestWorkers != 4 || cfg.DocumentCacheSize != 256 {
		t.Fatalf("unexpected pool/cache sizes: %d %d", cfg.IngestWorkers, cfg.DocumentCacheSize)
	}
	if cfg.ObjectStoreType != StoreNone {
		t.Fatalf("expected no object store, got %q", cfg.ObjectStoreType)
	}
	if cfg.IngestWaitTimeout != 0 {
		t.Fatalf("expected no wait timeout, got %s", cfg.IngestWaitTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileUnderEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "docsearch.yaml")
	content := []byte(`
env: prod
port: 9090
ingest_workers: 8
ingest_wait_timeout: 30s
auto_migrate: false
cors_allow_origins:
  - https://a.example
  - https://b.example
object_store: s3
s3_bucket: archive
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should override file, got port %q", cfg.Port)
	}
	if cfg.IngestWorkers != 8 || cfg.IngestWaitTimeout != 30*time.Second || cfg.AutoMigrate {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.ObjectStoreType != StoreS3 || cfg.S3Bucket != "archive" {
		t.Fatalf("unexpected store settings: %q %q", cfg.ObjectStoreType, cfg.S3Bucket)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("INGEST_WORKERS=3\nPORT=1111\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "2222")
	// godotenv skips keys that exist at all, even when empty.
	os.Unsetenv("INGEST_WORKERS")
	t.Cleanup(func() { os.Unsetenv("INGEST_WORKERS") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "2222" {
		t.Fatalf("expected env port, got %q", cfg.Port)
	}
	if cfg.IngestWorkers != 3 {
		t.Fatalf("expected .env workers, got %d", cfg.IngestWorkers)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("INGEST_WORKERS", "many")
	t.Setenv("INGEST_WAIT_TIMEOUT", "soon")
	t.Setenv("AUTO_MIGRATE", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IngestWorkers != 4 || cfg.IngestWaitTimeout != 0 || !cfg.AutoMigrate {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := Config{IngestWorkers: 1, MaxUploadBytes: 1, ObjectStoreType: StoreNone}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s3 := base
	s3.ObjectStoreType = StoreS3
	if err := s3.Validate(); err == nil {
		t.Fatalf("expected s3 without bucket to fail")
	}

	workers := base
	workers.IngestWorkers = 0
	if err := workers.Validate(); err == nil {
		t.Fatalf("expected zero workers to fail")
	}
}
