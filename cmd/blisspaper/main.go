package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/timmy/blisspaper/internal/api"
	"github.com/timmy/blisspaper/internal/api/handler"
	"github.com/timmy/blisspaper/internal/config"
	"github.com/timmy/blisspaper/internal/logger"
	"github.com/timmy/blisspaper/internal/presenter"
	"github.com/timmy/blisspaper/internal/repository"
	"github.com/timmy/blisspaper/internal/service"
	"github.com/timmy/blisspaper/internal/source"
	"github.com/timmy/blisspaper/internal/source/unsplash"
	"github.com/timmy/blisspaper/internal/storage"
	"github.com/timmy/blisspaper/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	credentialsPath := flag.String("credentials", config.DefaultCredentialsFile, "path to api_keys.yml")
	flag.Parse()

	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	if err := run(*configPath, *credentialsPath, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("blisspaper exited with error")
		logger.Sync()
		os.Exit(1)
	}
	log.Info("blisspaper exited")
}

func run(configPath, credentialsPath string, log *logger.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials(credentialsPath)
	if err != nil {
		return err
	}

	root := cfg.Store.Path
	if root == "" {
		if root, err = store.DefaultRoot(); err != nil {
			return err
		}
	}
	cache := store.New(root)
	created, err := cache.EnsureDirectory()
	if err != nil {
		return err
	}
	if created {
		log.WithField(logger.FieldPath, root).Info("Created wallpaper directory")
	} else {
		log.WithField(logger.FieldPath, root).Info("Found wallpaper directory")
	}
	if removed, err := cache.Sweep(); err != nil {
		log.WithError(err).Warn("Failed to sweep temp files")
	} else if removed > 0 {
		log.WithField(logger.FieldCount, removed).Info("Removed leftover temp files")
	}

	p, err := presenter.New(cfg.Presenter.Kind, presenter.ExecRunner)
	if err != nil {
		return err
	}

	client := unsplash.NewClient(&unsplash.Config{
		BaseURL:         cfg.Unsplash.BaseURL,
		ClientID:        creds.UnsplashClientID,
		Timeout:         cfg.Unsplash.Timeout,
		RequestsPerHour: cfg.Unsplash.RequestsPerHour,
	})
	cursor := source.NewCursor(client, cfg.Unsplash.Collections, cfg.Unsplash.PhotoSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		history       service.HistoryRecorder
		historyReader handler.HistoryReader
	)
	if cfg.Database.Enabled {
		repo, closeDB := openHistory(&cfg.Database, filepath.Join(filepath.Dir(root), "history.db"), log)
		defer closeDB()
		if repo != nil {
			history, historyReader = repo, repo
		}
	}

	var mirror service.Mirror
	if cfg.Mirror.Enabled {
		objectStorage, err := storage.NewStorage(&storage.S3Config{
			Endpoint:  cfg.Mirror.Endpoint,
			AccessKey: cfg.Mirror.AccessKey,
			SecretKey: cfg.Mirror.SecretKey,
			UseSSL:    cfg.Mirror.UseSSL,
			Bucket:    cfg.Mirror.Bucket,
			Region:    cfg.Mirror.Region,
		})
		if err != nil {
			return err
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			return err
		}
		mirror = storage.NewMirror(objectStorage, cfg.Mirror.Prefix)
		log.WithField("bucket", cfg.Mirror.Bucket).Info("Mirroring new wallpapers")
	}

	engine := service.NewRotationEngine(
		cursor,
		client,
		cache,
		p,
		history,
		mirror,
		log,
		&service.RotationConfig{
			Capacity: cfg.Rotation.Capacity,
			Interval: cfg.Rotation.Interval,
		},
	)

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: api.SetupRouter(&api.RouterConfig{
				Engine:         engine,
				Cache:          cache,
				History:        historyReader,
				Mode:           cfg.Server.Mode,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         log,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", srv.Addr).Info("Starting status API")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Status API stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("Status API forced to shut down")
			}
		}()
	}

	return engine.Run(ctx)
}

// openHistory opens the history database. History is optional, so a failure
// is logged and the rotation runs without it.
func openHistory(cfg *config.DatabaseConfig, defaultPath string, log *logger.Logger) (*repository.HistoryRepository, func()) {
	db, err := repository.InitDB(cfg, defaultPath)
	if err != nil {
		log.WithError(err).Warn("History database unavailable, continuing without history")
		return nil, func() {}
	}
	return repository.NewHistoryRepository(db), func() {
		if err := repository.Close(db); err != nil {
			log.WithError(err).Warn("Failed to close history database")
		}
	}
}
