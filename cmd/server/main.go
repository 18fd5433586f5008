package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/fairyland/internal/api"
	"github.com/kdimtricp/fairyland/internal/auth"
	"github.com/kdimtricp/fairyland/internal/catalog"
	"github.com/kdimtricp/fairyland/internal/config"
	"github.com/kdimtricp/fairyland/internal/database"
	"github.com/kdimtricp/fairyland/internal/logging"
	"github.com/kdimtricp/fairyland/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	localStorage, err := storage.NewLocalStorage(cfg.MediaDir, cfg.StagingDir)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	coord := catalog.NewCoordinator(store, localStorage, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := coord.Resync(ctx); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	authenticator := auth.NewStaticAuthenticator()
	authenticator.AddAccount(cfg.AdminUsername, cfg.AdminPassword, auth.RoleAdmin)
	if cfg.AdminPasswordGenerated {
		logger.Warn().
			Str("username", cfg.AdminUsername).
			Str("password", cfg.AdminPassword).
			Msg("ADMIN_PASSWORD not set; generated a one-off admin password")
	}

	app := &api.App{
		Catalog:       coord,
		Storage:       localStorage,
		Auth:          authenticator,
		Tokens:        auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		MaxUploadSize: cfg.MaxUploadSize,
		PublicDir:     cfg.PublicDir,
		Logger:        logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("media_dir", cfg.MediaDir).
			Str("db_type", cfg.DBType).
			Int64("max_upload_size", cfg.MaxUploadSize).
			Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// openStore picks the catalog backend. The SQL backends get their schema
// migrated before use.
func openStore(cfg *config.Config, logger zerolog.Logger) (catalog.Store, func(), error) {
	if cfg.DBType == config.DBMemory {
		return catalog.NewMemoryStore(), func() {}, nil
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.DBPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(nil); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.DBType == config.DBPostgres {
		logger.Info().Msgf("database connection: %s@%s:%d/%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
	} else {
		logger.Info().Str("path", cfg.DBPath).Msg("database ready")
	}

	return database.NewVideoStore(db), func() { db.Close() }, nil
}
