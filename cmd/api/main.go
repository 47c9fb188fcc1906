package main

import (
	"context"
	"log"
	"time"

	"giftcard-fulfillment/internal/core/claims"
	"giftcard-fulfillment/internal/core/config"
	"giftcard-fulfillment/internal/core/logger"
	"giftcard-fulfillment/internal/core/server"
	"giftcard-fulfillment/internal/features/fulfillment/adapters"
	"giftcard-fulfillment/internal/features/fulfillment/handler"
	"giftcard-fulfillment/internal/features/fulfillment/ports"
	"giftcard-fulfillment/internal/features/fulfillment/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("sandbox_mode", cfg.Payments.SandboxMode),
	)

	// Initialize Commerce Adapter and run Health Check
	shopify := adapters.NewShopifyAdapter(cfg.Shopify)
	healthCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shopify.HealthCheck(healthCtx); err != nil {
		l.Fatal("Shopify Health Check Failed", zap.Error(err))
	}
	l.Info("Shopify connection verified")

	// Select the issuer implementation. Config validation has already
	// guaranteed that sandbox mode never coexists with live credentials.
	var issuer ports.GiftCardIssuer
	if cfg.Payments.SandboxMode {
		issuer = adapters.NewSandboxIssuer()
		l.Warn("Sandbox issuer active, no live gift cards will be issued")
	} else {
		issuer = adapters.NewGiftCardAPIAdapter(cfg.Payments)
	}

	notifier, err := adapters.NewSMTPNotifier(cfg.Mail)
	if err != nil {
		l.Fatal("Failed to initialize notifier", zap.Error(err))
	}

	// Optional per-order claim store guarding concurrent duplicate deliveries.
	var claimer ports.OrderClaimer
	if cfg.Claims.RedisURL != "" {
		store, err := claims.NewRedisClaims(cfg.Claims.RedisURL, time.Duration(cfg.Claims.TTLSeconds)*time.Second)
		if err != nil {
			l.Fatal("Failed to initialize claim store", zap.Error(err))
		}
		defer store.Close()

		if err := store.Ping(healthCtx); err != nil {
			l.Warn("Claim store unreachable at startup", zap.Error(err))
		}
		claimer = store
		l.Info("Order claim store enabled")
	} else {
		l.Info("Order claim store disabled, relying on platform sent flag only")
	}

	// Initialize Pipeline & Handler
	pipeline := service.NewPipeline(shopify, issuer, notifier, claimer, cfg.Payments.CurrencyToken)
	webhookHandler := handler.NewWebhookHandler(pipeline, cfg.Webhook.SharedSecret)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Post("/webhooks/orders_paid", webhookHandler.OrdersPaid)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
