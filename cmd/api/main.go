package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitacare/telecare-backend/api/routes"
	"github.com/vitacare/telecare-backend/internal/appointments"
	"github.com/vitacare/telecare-backend/internal/notifications"
	"github.com/vitacare/telecare-backend/internal/payments"
	"github.com/vitacare/telecare-backend/internal/users"
	gatewaywebhook "github.com/vitacare/telecare-backend/internal/webhooks/gateway"
	"github.com/vitacare/telecare-backend/pkg/config"
	"github.com/vitacare/telecare-backend/pkg/db"
	"github.com/vitacare/telecare-backend/pkg/email"
	"github.com/vitacare/telecare-backend/pkg/gateway"
	"github.com/vitacare/telecare-backend/pkg/logger"
	"github.com/vitacare/telecare-backend/pkg/meetings"
	"github.com/vitacare/telecare-backend/pkg/metrics"
	"github.com/vitacare/telecare-backend/pkg/migrate"
	"github.com/vitacare/telecare-backend/pkg/outbox"
	"github.com/vitacare/telecare-backend/pkg/pubsub"
	"github.com/vitacare/telecare-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gatewayClient, err := gateway.NewClient(context.Background(), cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment gateway", err)
		os.Exit(1)
	}

	meetingClient, err := meetings.NewClient(context.Background(), cfg.Calendar, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap calendar client", err)
		os.Exit(1)
	}

	emailClient, err := email.NewClient(context.Background(), cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap email client", err)
		os.Exit(1)
	}

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	reconcileMetrics := metrics.NewReconcileMetrics(promRegistry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	userRepo := users.NewRepository(dbClient.DB())

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), emailClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	appointmentService, err := appointments.NewService(
		appointments.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		notificationService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create appointments service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(
		payments.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		gatewayClient,
		meetingClient,
		notificationService,
		userRepo,
		reconcileMetrics,
		logg,
		payments.Config{
			MeetingDuration:     cfg.Booking.MeetingDuration,
			OperatorFanoutLimit: cfg.Booking.OperatorFanoutLimit,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookService, err := gatewaywebhook.NewService(paymentService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := gatewaywebhook.NewCallbackGuard(redisClient, cfg.Eventing.CallbackIdempotencyTTL, gatewaywebhook.Provider)
	if err != nil {
		logg.Error(context.Background(), "failed to create callback guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pubsubClient,
			promRegistry,
			appointmentService,
			paymentService,
			notificationService,
			gatewayClient,
			webhookService,
			webhookGuard,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
