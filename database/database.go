package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"lexicon/config"
	"lexicon/models"
)

// Init opens the record store described by cfg.Database.
// For the sqlite driver, DSN "memory" (or empty) selects a shared in-memory
// database and any other value is treated as a file path. SQLite is limited
// to a single open connection so writers queue instead of failing with
// "database is locked".
func Init(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "database")

	// GORM logger writes through slog so SQL warnings share the app log stream.
	gormLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             cfg.Database.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	dsn := cfg.Database.DSN
	switch cfg.Database.Driver {
	case "postgres":
		log.Info("[Database] Initializing Postgres database.")
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	case "sqlite", "":
		if dsn == "memory" || dsn == "" {
			log.Info("[Database] Initializing in-memory SQLite database (DSN: 'memory' or empty).")
			dsn = "file::memory:?cache=shared"
		} else {
			log.Info("[Database] Initializing file-based SQLite database.", "path", dsn)
			if err := ensureDir(dsn, log); err != nil {
				return nil, err
			}
			dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", dsn)
		}
		db, err = gorm.Open(sqlite.Open(dsn), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		log.Error("[Database] Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Database.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	if cfg.Tracing.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("failed to enable database tracing: %w", err)
		}
	}

	log.Info("[Database] Database connection established successfully.", "dialect", db.Dialector.Name())
	return db, nil
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.MigrateModels...); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureDir creates the parent directory of a SQLite file if needed.
func ensureDir(path string, log *slog.Logger) error {
	dbDir := filepath.Dir(path)
	if dbDir == "." || dbDir == "/" {
		return nil
	}
	if _, statErr := os.Stat(dbDir); os.IsNotExist(statErr) {
		log.Info("[Database] Database directory does not exist, attempting to create.", "dir", dbDir)
		if mkdirErr := os.MkdirAll(dbDir, 0o755); mkdirErr != nil {
			return fmt.Errorf("failed to create database directory '%s': %w", dbDir, mkdirErr)
		}
	}
	return nil
}
