package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/viper"

	"github.com/arcade-universe/server/internal/gateway"
	"github.com/arcade-universe/server/internal/matchmaking"
	"github.com/arcade-universe/server/internal/pkg/redis"
	"github.com/arcade-universe/server/internal/scores"
	"github.com/arcade-universe/server/internal/session"
)

func main() {
	// --- Configuration Loading ---
	viper.SetConfigName("arcade-server")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AutomaticEnv()

	viper.SetDefault("http_server.port", "3006")
	viper.SetDefault("session.grace_delay_seconds", 5)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("scores.key_prefix", "arcade:scores")

	if err := viper.ReadInConfig(); err != nil {
		slog.Warn("No configuration file found, using defaults", "error", err)
	}

	// --- Best-Score Storage ---
	// The arcade must run without infrastructure: when Redis is not
	// reachable, best scores are kept in process memory instead.
	var store scores.Store
	rdb, err := redis.NewClient(redis.Config{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})
	if err != nil {
		slog.Warn("Redis unavailable, keeping best scores in memory", "error", err)
		store = scores.NewMemoryStore()
	} else {
		slog.Info("Redis connection successful.")
		store = scores.NewRedisStore(rdb, viper.GetString("scores.key_prefix"))
	}

	// --- Dependency Injection ---
	queue := matchmaking.NewQueue()
	registry := session.NewRegistry(time.Duration(viper.GetInt("session.grace_delay_seconds")) * time.Second)
	cm := gateway.NewConnectionManager()
	wsHandler := gateway.NewHandler(queue, registry, store, cm)
	statsHandler := gateway.NewStatsHandler(cm, registry, queue, store)

	// --- HTTP Router and Middleware Setup ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The websocket endpoint must not go through the timeout middleware:
	// connections are expected to live for the whole page lifetime.
	r.Get("/ws", wsHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", statsHandler.HandleStats)
		r.Get("/scores/{gameType}", statsHandler.HandleBestScore)
	})

	slog.Info("All routes initialized.")

	// --- HTTP Server Initialization and Graceful Shutdown ---
	httpPort := viper.GetString("http_server.port")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", httpPort),
		Handler: r,
	}

	go func() {
		slog.Info("Arcade server starting...", "port", httpPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Could not start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down arcade server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown:", "error", err)
	}

	slog.Info("Arcade server stopped.")
}
