package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"docsearch-backend/internal/documents"
	"docsearch-backend/internal/extract"
	"docsearch-backend/internal/queue"
	"docsearch-backend/internal/services/health"
	"docsearch-backend/internal/shared/config"
	"docsearch-backend/internal/shared/server"
	"docsearch-backend/internal/shared/storage/db"
	"docsearch-backend/internal/shared/storage/object"
	localstore "docsearch-backend/internal/shared/storage/object/local"
	s3store "docsearch-backend/internal/shared/storage/object/s3"
	"docsearch-backend/internal/shared/telemetry"
	"docsearch-backend/internal/workerpool"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Dialect  db.Dialect
	Repo     documents.Repo
	Archive  object.ObjectStore
	Events   queue.Client
	Pool     *workerpool.Pool
	Pipeline *documents.Pipeline
	Service  *documents.Service
	Handler  *documents.Handler
	Health   *health.Service
}

// Build wires the application from cfg. dbOpts tunes the connection pool when
// DATABASE_URL is set.
func Build(ctx context.Context, cfg config.Config, dbOpts db.Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	sqlDB, dialect, err := buildDB(ctx, cfg, dbOpts)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	app.Dialect = dialect

	repo, err := buildRepo(sqlDB, dialect, cfg.DocumentCacheSize)
	if err != nil {
		app.closeDB()
		return nil, err
	}
	app.Repo = repo

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		app.closeDB()
		return nil, err
	}
	app.Archive = archive

	events, err := buildEvents(ctx, cfg)
	if err != nil {
		app.closeDB()
		return nil, err
	}
	app.Events = events

	app.Pool = workerpool.New(cfg.IngestWorkers)
	app.Pipeline = &documents.Pipeline{
		Extractor: extract.NewRegistry(),
		Repo:      repo,
		Pool:      app.Pool,
	}
	if archive != nil {
		app.Pipeline.Archive = archive
	}
	if events != nil {
		app.Pipeline.Events = events
	}

	app.Service = documents.NewService(repo)
	app.Handler = documents.NewHandler(app.Pipeline, app.Service, cfg.MaxUploadBytes, cfg.IngestWaitTimeout)
	if sqlDB != nil {
		app.Health = health.NewService(sqlDB, string(dialect), app.Pool.Size())
	} else {
		app.Health = health.NewService(nil, "", app.Pool.Size())
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: app.Handler,
		Health:          app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"database":     storeName(sqlDB, dialect),
		"object_store": cfg.ObjectStoreType,
		"events":       events != nil,
		"workers":      app.Pool.Size(),
	})
	return app, nil
}

// Close drains in-flight ingestions and releases the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Pool != nil {
		if err := a.Pool.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain ingest pool: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) closeDB() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config, opts db.Options) (*sql.DB, db.Dialect, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, dialect, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(opts))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, "", nil
		}
		return nil, "", err
	}

	if cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
			_ = sqlDB.Close()
			return nil, "", err
		}
	}
	return sqlDB, dialect, nil
}

func buildRepo(sqlDB *sql.DB, dialect db.Dialect, cacheSize int) (documents.Repo, error) {
	var repo documents.Repo
	if sqlDB != nil {
		repo = documents.NewSQLRepo(sqlDB, dialect)
	} else {
		repo = documents.NewMemoryRepo()
	}
	if cacheSize <= 0 {
		return repo, nil
	}
	return documents.NewCachedRepo(repo, cacheSize)
}

func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case config.StoreS3:
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case config.StoreLocal:
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func buildEvents(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.EventsQueueURL, cfg.AWSRegion)
}

func storeName(sqlDB *sql.DB, dialect db.Dialect) string {
	if sqlDB == nil {
		return "memory"
	}
	return string(dialect)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
