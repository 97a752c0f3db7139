package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/fieldline/callpilot/internal/api/router"
	"github.com/fieldline/callpilot/internal/booking"
	"github.com/fieldline/callpilot/internal/cal"
	appconfig "github.com/fieldline/callpilot/internal/config"
	"github.com/fieldline/callpilot/internal/dashboard"
	"github.com/fieldline/callpilot/internal/emergency"
	"github.com/fieldline/callpilot/internal/notify"
	"github.com/fieldline/callpilot/internal/observability/metrics"
	"github.com/fieldline/callpilot/internal/records"
	"github.com/fieldline/callpilot/internal/webhook"
	"github.com/fieldline/callpilot/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting callpilot API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"business", cfg.BusinessName,
	)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		location = time.UTC
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	rdb := newRedisClient(cfg, logger)
	store := records.NewStore(rdb, cfg.RecordTTL, cfg.RecentCallLimit, logger)

	sms := notify.NewService(
		notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, logger),
		cfg.TwilioFromNumber,
		logger,
	)
	email := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)

	provider := cal.NewFallback(
		cal.NewClientV2(cfg.CalBaseURLV2, cfg.CalAPIKeyV2, cfg.CalAPIVersion, cfg.CalEventTypeID), "v2",
		cal.NewClientV1(cfg.CalBaseURLV1, cfg.CalAPIKeyV1, cfg.CalEventTypeID), "v1",
		logger,
	)

	resolver := booking.NewResolver(provider, cfg.OwnerName, location, logger)
	executor := booking.NewExecutor(booking.ExecutorConfig{
		Provider:     provider,
		Notifier:     sms,
		Store:        store,
		BusinessName: cfg.BusinessName,
		OwnerName:    cfg.OwnerName,
		OwnerPhone:   cfg.OwnerPhone,
		TimeZone:     cfg.Timezone,
		Location:     location,
		Logger:       logger,
	})
	alerter := emergency.NewHandler(emergency.HandlerConfig{
		Notifier:   sms,
		Email:      email,
		Store:      store,
		OwnerName:  cfg.OwnerName,
		OwnerPhone: cfg.OwnerPhone,
		OwnerEmail: cfg.OwnerEmail,
		Logger:     logger,
	})

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		Availability: resolver,
		Booker:       executor,
		Alerter:      alerter,
		Store:        store,
		Secret:       cfg.VapiWebhookSecret,
		Metrics:      webhookMetrics,
		Logger:       logger,
	})
	dashboardHandler := dashboard.NewHandler(store, registry, 50, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		WebhookHandler:     webhookHandler,
		DashboardHandler:   dashboardHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("server stopped")
}

// newRedisClient connects to Redis when configured. A missing or unreachable
// Redis disables call-record persistence rather than blocking startup.
func newRedisClient(cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Warn("redis not configured, call records will not be persisted")
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, call records will not be persisted", "error", err)
		return nil
	}
	return client
}
