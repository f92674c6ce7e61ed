// Package main is the entry point for the social network API server.
//
// The main package stays minimal. Its job is to:
// 1. Read configuration (environment + dotenv files)
// 2. Create process-wide dependencies (logger, database, session store)
// 3. Start the server
//
// All actual logic lives in internal/ packages. Only startup failures end
// the process; everything after that is reported per request.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/social-network/internal/config"
	"github.com/sakif/social-network/internal/repository"
	redisRepo "github.com/sakif/social-network/internal/repository/redis"
	sqliteRepo "github.com/sakif/social-network/internal/repository/sqlite"
	"github.com/sakif/social-network/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// === 3. OPEN THE DATABASE ===
	// The data directory is created on first run (like `mkdir -p`).
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("path", cfg.DBPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. SESSION STORE ===
	// Sessions live in SQLite unless SESSION_STORE=redis.
	var sessions repository.SessionRepository
	if cfg.SessionStore == config.StoreRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := redisRepo.New(ctx, redisRepo.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()),
			)
			db.Close()
			os.Exit(1)
		}
		sessions = store
	}

	// === 5. CREATE AND START THE SERVER ===
	// From here on the server owns db and the session store and closes
	// them on shutdown.
	srv, err := server.New(cfg, db, sessions, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
