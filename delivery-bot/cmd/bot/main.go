package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"draftmail/delivery-bot/internal/command"
	"draftmail/delivery-bot/internal/config"
	"draftmail/delivery-bot/internal/discord"
	"draftmail/delivery-bot/internal/draftclient"
	"draftmail/delivery-bot/internal/httpserver"
	"draftmail/delivery-bot/internal/service/mailer"
	"draftmail/delivery-bot/internal/store"
	"draftmail/pkg/dedupe"
	"draftmail/pkg/logger"
	"draftmail/pkg/mail"
	"draftmail/pkg/mq"
	"draftmail/pkg/redis"
	"draftmail/pkg/secret"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("", logger.DefaultConfig()).Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.NewLogger(cfg.Env, cfg.Log)
	defer log.Sync()

	log.Info("Starting delivery-bot...",
		zap.String("env", cfg.Env),
		zap.String("draft_url", cfg.Draft.URL),
		zap.String("draft_mode", cfg.Draft.Mode),
		zap.String("mail_provider", cfg.Mail.Provider),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("secret_backend", cfg.Secrets.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Guild store
	guildStore, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("Failed to open guild store", zap.Error(err))
	}
	defer guildStore.Close()

	secrets, err := secret.NewBackend(cfg.Secrets)
	if err != nil {
		log.Fatal("Failed to init secret backend", zap.Error(err))
	}

	transport, err := mail.NewTransport(ctx, cfg.Mail)
	if err != nil {
		log.Fatal("Failed to init mail transport", zap.Error(err))
	}

	// MQ Publisher
	var publisher mq.EventPublisher = mq.NopPublisher{}
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(ctx, cfg.MQ.URL, log)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		publisher = p
		log.Info("Publishing delivery events", zap.String("exchange", mq.ExchangeName))
	}
	defer publisher.Close()

	// Services
	mailService := mailer.NewMailer(guildStore, secrets, transport, publisher, cfg.DefaultSender(), log)
	draftClient := draftclient.NewClient(draftclient.Config{
		URL:       cfg.Draft.URL,
		Timeout:   cfg.Draft.Timeout,
		JWTSecret: cfg.JWT.Secret,
	}, log)
	dispatcher := command.NewDispatcher(cfg.Commands(), mailService, draftClient, log)

	// Discord
	bot, err := discord.New(cfg.Discord, dispatcher, log)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}
	if cfg.Dedupe.Enabled {
		rdb, err := redis.NewRedisClient(ctx, cfg.Dedupe.Redis)
		if err != nil {
			log.Fatal("Failed to init dedupe redis", zap.Error(err))
		}
		deduper := dedupe.NewDeduper(rdb, cfg.Dedupe.TTL, log)
		defer deduper.Close()
		bot.WithDeduper(deduper)
		log.Info("Interaction de-duplication enabled", zap.String("redis", cfg.Dedupe.Redis.Addr))
	}
	if err := bot.Open(ctx); err != nil {
		log.Fatal("Failed to connect bot", zap.Error(err))
	}

	// HTTP Server (health checks, metrics)
	router := httpserver.NewRouter(map[string]httpserver.ReadinessCheck{
		"gateway": bot.Ping,
		"store": func(ctx context.Context) error {
			_, err := guildStore.Get(ctx, "readyz")
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		},
	})
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

	log.Info("delivery-bot is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down delivery-bot gracefully...")

	if err := bot.Close(); err != nil {
		log.Error("Bot close error", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("delivery-bot shutdown complete")
}
