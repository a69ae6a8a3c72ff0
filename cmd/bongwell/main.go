package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SonyCookies/bongwell/internal/auth"
	"github.com/SonyCookies/bongwell/internal/config"
	"github.com/SonyCookies/bongwell/internal/database"
	"github.com/SonyCookies/bongwell/internal/logging"
	"github.com/SonyCookies/bongwell/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		generated, err := auth.GenerateSecret()
		if err != nil {
			log.Fatalf("failed to generate signing secret: %v", err)
		}
		secret = generated
		logger.Warn("BONGWELL_JWT_SECRET not set, using ephemeral secret",
			"hint", "sessions will not survive a restart",
			"secret", hex.EncodeToString(secret)[:8]+"...")
	}

	srv := server.New(db, cfg, secret, logger)

	// Periodic cleanup of expired sessions and stale rate limit windows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info("cleaned up expired sessions", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("BongWell running at %s\n", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
