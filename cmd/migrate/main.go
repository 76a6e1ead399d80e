package main

import (
	"context"
	"log/slog"
	"os"

	"countdown/backend/internal/config"
	"countdown/backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	database, err := db.OpenSQLite(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		slog.Error("Open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(context.Background(), database, cfg.MigrationsDir)
	if err != nil {
		slog.Error("Run migrations", "dir", cfg.MigrationsDir, "error", err)
		os.Exit(1)
	}

	slog.Info("Migrations applied successfully", "count", len(applied), "files", applied)
}
