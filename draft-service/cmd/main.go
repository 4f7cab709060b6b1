package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"draftmail/draft-service/internal/config"
	"draftmail/draft-service/internal/generator"
	"draftmail/draft-service/internal/handler"
	"draftmail/draft-service/internal/httpserver"
	"draftmail/draft-service/internal/service/draft"
	"draftmail/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger depends on config; fall back to a default one
		logger.NewLogger("", logger.DefaultConfig()).Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.NewLogger(cfg.Env, cfg.Log)
	defer log.Sync()

	log.Info("Starting draft-service...",
		zap.String("env", cfg.Env),
		zap.String("model", cfg.Generation.Model),
		zap.String("backend", cfg.Generation.BaseURL),
		zap.String("mode", cfg.Generation.Mode),
		zap.Int64("max_concurrent", cfg.Generation.MaxConcurrent),
		zap.Bool("auth", cfg.JWT.Secret != ""),
	)

	tmpl, err := generator.ParseTemplate(cfg.Generation.Template)
	if err != nil {
		log.Fatal("Invalid prompt template", zap.Error(err))
	}

	gen := generator.NewOpenAIGenerator(generator.OpenAIConfig{
		BaseURL: cfg.Generation.BaseURL,
		APIKey:  cfg.Generation.APIKey,
		Model:   cfg.Generation.Model,
	}, log)

	// Services
	draftService := draft.NewService(gen, tmpl, cfg.Generation.Decoding(), cfg.Generation.MaxConcurrent, log)

	// HTTP
	draftHandler := handler.NewDraftHandler(draftService, log)
	router := httpserver.NewRouter(draftHandler, draftService, cfg.JWT.Secret, log)
	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("draft-service is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down draft-service gracefully...")

	// in-flight generations can be slow; give them time to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("draft-service shutdown complete")
}
