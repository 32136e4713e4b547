package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sendrec/galleryplayer/internal/auth"
	"github.com/sendrec/galleryplayer/internal/database"
	"github.com/sendrec/galleryplayer/internal/geoip"
	"github.com/sendrec/galleryplayer/internal/server"
	"github.com/sendrec/galleryplayer/internal/storage"
	"github.com/sendrec/galleryplayer/internal/videoinfo"
	"github.com/sendrec/galleryplayer/internal/webhook"
)

func main() {
	slog.SetDefault(newLogger(os.Stderr, getEnv("LOG_FORMAT", "text"), getEnv("LOG_LEVEL", "info")))

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Stdout, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("galleryplayer exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := getEnv("PORT", "8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	slog.Info("database migrations applied")

	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	publicEndpoint := os.Getenv("S3_PUBLIC_ENDPOINT")

	store, err := storage.New(ctx, storage.Config{
		Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
		PublicEndpoint: publicEndpoint,
		Bucket:         getEnv("S3_BUCKET", "galleryplayer"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Region:         getEnv("S3_REGION", "eu-central-1"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 500*1024*1024),
	})
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("storage bucket check failed: %w", err)
	}
	if err := store.SetCORS(ctx, []string{baseURL}); err != nil {
		slog.Warn("storage CORS configuration failed", "error", err)
	}
	slog.Info("storage bucket ready")

	countries := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	defer countries.Close()

	cfg := server.Config{
		DB:               db.Pool,
		Pinger:           db,
		Storage:          store,
		Countries:        countries,
		Events:           webhook.New(db.Pool),
		JWTSecret:        jwtSecret,
		BaseURL:          baseURL,
		S3PublicEndpoint: publicEndpoint,
		FrameAncestors:   os.Getenv("ALLOWED_FRAME_ANCESTORS"),
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	videos, err := videoinfo.New(appCtx, videoinfo.Config{APIKey: os.Getenv("YOUTUBE_API_KEY")})
	if err != nil {
		return fmt.Errorf("youtube data api: %w", err)
	}
	if videos != nil {
		cfg.Videos = videos
		slog.Info("youtube video details enabled")
	}

	srv := server.New(appCtx, cfg)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("galleryplayer listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-shutdownCh:
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// runToken mints an owner access token: galleryplayer token <ownerID> [ttl].
func runToken(out io.Writer, args []string) error {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("usage: galleryplayer token <ownerID> [ttl]")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ttl := auth.AccessTokenDuration
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid ttl %q", args[1])
		}
		ttl = d
	}

	token, err := auth.GenerateAccessToken(secret, args[0], ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
