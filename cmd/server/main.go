// Command server runs the snippet-sharing API.
//
// Configuration comes from environment variables, with a .env file loaded
// first if present:
//
//	PORT           listen port (default 8080)
//	DB_PATH        SQLite database file (default data/snippetbin.db)
//	JWT_SECRET     HMAC secret for access tokens (required; >= 16 chars)
//	AUTH_ENABLED   enforce owner-based permissions (default true)
//	ADMIN_USERNAME / ADMIN_EMAIL / ADMIN_PASSWORD
//	               optional bootstrap account created at startup
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/arefin/snippetbin/internal/server"
)

func main() {
	// Missing .env is fine; real env vars always win.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	dbPath := "data/snippetbin.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set; generate one with: openssl rand -hex 32")
		os.Exit(1)
	}

	authEnabled := true
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Error("invalid AUTH_ENABLED value", slog.String("value", v))
			os.Exit(1)
		}
		authEnabled = b
	}

	cfg := server.Config{
		Port:          port,
		DBPath:        dbPath,
		JWTSecret:     jwtSecret,
		AuthEnabled:   authEnabled,
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
