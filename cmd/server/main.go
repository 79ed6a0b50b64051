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

	"github.com/operas/contact-relay/internal/config"
	"github.com/operas/contact-relay/internal/email"
	"github.com/operas/contact-relay/internal/handler"
	"github.com/operas/contact-relay/internal/logger"
	"github.com/operas/contact-relay/internal/middleware"
	"github.com/operas/contact-relay/internal/router"
	"github.com/operas/contact-relay/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().
		Str("provider", cfg.Mail.Provider).
		Str("relay", cfg.SMTP.Addr()).
		Msg("starting contact relay")

	// Missing credentials are reported per request, not here
	if cfg.CredentialsMissing() {
		log.Warn().Msg("relay credentials not configured, /contact will answer 500")
	}

	sender, err := email.NewSender(context.Background(), *cfg)
	if err != nil {
		if !errors.Is(err, email.ErrCredentialsMissing) {
			log.Fatal().Err(err).Msg("failed to initialize email sender")
		}
		sender = nil
	}

	contactSvc := service.NewContactService(*cfg, sender, log)

	// Initialize handlers
	h := handler.New(log, contactSvc)

	// Initialize middleware
	mw := middleware.New(log)

	// Set up router
	r := router.New(h, mw, cfg.CORS)

	// Create HTTP server. Relay sessions run inside the request, so the
	// write timeout leaves room for a slow relay.
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
