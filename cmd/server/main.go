package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman-churiwal/media-quota/internal/config"
	"github.com/aman-churiwal/media-quota/internal/logger"
	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/aman-churiwal/media-quota/internal/server"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		logrus.Fatalf("Failed to build logger: %v", err)
	}

	db, err := storage.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Info("Connected to database successfully")

	var redis *storage.RedisClient
	if cfg.Redis.Enabled || cfg.RateLimit.Backend == "redis" {
		redis, err = storage.NewRedis(cfg.Redis.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()
		log.Info("Connected to redis successfully")
	}

	srv := server.New(cfg, db, redis, log, metrics.New())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := srv.SeedPlans(ctx); err != nil {
		log.Fatalf("Failed to seed plans: %v", err)
	}
	if err := srv.StartBackground(ctx); err != nil {
		log.Fatalf("Failed to start background workers: %v", err)
	}

	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

// CONFIG_PATH wins; otherwise config.json is used when present
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}
	return ""
}
