package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/realtime-chat/broker/api/handlers"
	"github.com/realtime-chat/broker/internal/broker"
	"github.com/realtime-chat/broker/internal/buffer"
	"github.com/realtime-chat/broker/internal/config"
	"github.com/realtime-chat/broker/internal/registry"
	"github.com/realtime-chat/broker/internal/ws"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// A .env file is optional; the environment wins either way
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Core wiring: registry + history ring behind the broadcast engine,
	// terminated by the WebSocket gateway
	engine := broker.New(log, registry.New(), buffer.NewMessageRing(cfg.HistoryLimit), cfg.TypingIdle)
	wsHandler := ws.NewHandler(log, engine, cfg.MaxMessageSize, cfg.SendBuffer)

	wsRoutes := handlers.NewWebSocketHandler(wsHandler, log)
	statsRoutes := handlers.NewStatsHandler(engine)

	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		wsRoutes.RegisterRoutes(api)
		statsRoutes.RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("starting chat broker", "port", cfg.Port, "historyLimit", cfg.HistoryLimit)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown did not complete cleanly", "error", err)
	}
}

// corsMiddleware returns a permissive CORS middleware, matching the broker's
// origin-agnostic posture.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
