// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/config"
	"github.com/coldreach/email-generator/internal/handler"
	"github.com/coldreach/email-generator/internal/middleware"
	natsclient "github.com/coldreach/email-generator/internal/nats"
	"github.com/coldreach/email-generator/internal/service"
	"github.com/coldreach/email-generator/pkg/logger"
	"github.com/coldreach/email-generator/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server",
		zap.String("generator", cfg.Generator),
		zap.String("store", cfg.TemplateStore),
		zap.String("search", cfg.SearchBackend),
	)

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "email-generator", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	checks := map[string]handler.Check{}

	// Template store
	st, closeStore, err := buildStore(ctx, cfg, log, checks)
	if err != nil {
		log.Fatal("failed to initialize template store", zap.Error(err))
	}
	defer closeStore()

	// Template search
	searcher, indexer, closeSearch, err := buildSearch(ctx, cfg, st, log, checks)
	if err != nil {
		log.Fatal("failed to initialize template search", zap.Error(err))
	}
	defer closeSearch()

	// Generator
	gen, err := buildGenerator(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize generator", zap.Error(err))
	}

	// NATS is optional; without it events are neither published nor listed
	var (
		events  service.EventPublisher
		history service.EventReader
	)
	if cfg.NATSURL != "" {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		// Ensure JetStream stream exists
		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		events, history = streamManager, streamManager
		checks["nats"] = natsClient.Health
	}

	// Initialize services
	templateSvc := service.NewTemplateService(st, searcher, cfg.SearchBackend, indexer, events, log.Named("templates"))
	emailSvc := service.NewEmailService(gen, st, defaultSettings(cfg), events, history, log.Named("emails"))

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(gen.Name(), checks)
	templateHandler := handler.NewTemplateHandler(templateSvc, log)
	emailHandler := handler.NewEmailHandler(emailSvc, log)
	streamHandler := handler.NewStreamHandler(emailSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(nil))

	// Health endpoints (no auth required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Get("/health", healthHandler.Health)
		r.Get("/ready", healthHandler.Ready)
	})

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.TrackUser)
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Templates
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", templateHandler.List)
			r.With(middleware.RequireScope(middleware.ScopeTemplatesWrite)).Post("/", templateHandler.Create)
			r.Post("/search", templateHandler.Search)
			r.Get("/{templateID}", templateHandler.Get)
		})

		// Emails
		r.Route("/emails", func(r chi.Router) {
			r.With(middleware.RequireScope(middleware.ScopeEmailsGenerate)).Post("/generate", emailHandler.Generate)
			r.Get("/events", emailHandler.Events)
			r.Get("/events/stream", streamHandler.Stream)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
