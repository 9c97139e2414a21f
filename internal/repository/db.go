package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timmy/blisspaper/internal/config"
	"github.com/timmy/blisspaper/internal/domain"
	applog "github.com/timmy/blisspaper/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the history database and migrates its schema.
// Parameters:
//   - cfg: database configuration; an empty sqlite path uses defaultPath.
//   - defaultPath: sqlite file used when cfg.Path is empty.
//
// Returns:
//   - *gorm.DB: initialized database handle.
//   - error: non-nil if connection or migration fails.
func InitDB(cfg *config.DatabaseConfig, defaultPath string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "postgres":
		applog.Info("Opening history database with driver postgres")
		db, err = initPostgres(cfg, gormConfig)
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = defaultPath
		}
		applog.Info("Opening history database with driver sqlite at %s", path)
		db, err = initSQLite(path, gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&domain.RotationEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func initPostgres(cfg *config.DatabaseConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required for postgres")
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

func initSQLite(path string, gormConfig *gorm.Config) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// one writer (the rotation loop); WAL lets the status API read alongside it
	db.Exec("PRAGMA journal_mode=WAL")
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
