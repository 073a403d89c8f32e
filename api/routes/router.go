package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitacare/telecare-backend/api/controllers"
	webhookcontrollers "github.com/vitacare/telecare-backend/api/controllers/webhooks"
	"github.com/vitacare/telecare-backend/api/middleware"
	"github.com/vitacare/telecare-backend/internal/appointments"
	"github.com/vitacare/telecare-backend/internal/notifications"
	"github.com/vitacare/telecare-backend/internal/payments"
	gatewaywebhook "github.com/vitacare/telecare-backend/internal/webhooks/gateway"
	"github.com/vitacare/telecare-backend/pkg/config"
	"github.com/vitacare/telecare-backend/pkg/enums"
	"github.com/vitacare/telecare-backend/pkg/gateway"
	"github.com/vitacare/telecare-backend/pkg/logger"
	"github.com/vitacare/telecare-backend/pkg/redis"
)

const (
	webhookRateLimit  = 120
	webhookRateWindow = time.Minute
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	pubsubClient controllers.Pinger,
	promRegistry *prometheus.Registry,
	appointmentService appointments.Service,
	paymentService payments.Service,
	notificationService notifications.Service,
	gatewayClient *gateway.Client,
	webhookService *gatewaywebhook.Service,
	webhookGuard *gatewaywebhook.CallbackGuard,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":     dbP,
			"redis":  redisClient,
			"pubsub": pubsubClient,
		}))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.RateLimit("gateway_webhook", webhookRateLimit, webhookRateWindow, redisClient, logg))
		r.Post("/gateway", webhookcontrollers.GatewayWebhook(webhookService, gatewayClient, webhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", controllers.CreateAppointment(appointmentService, logg))
			r.Get("/", controllers.ListAppointments(appointmentService, logg))
			r.Get("/{appointmentId}", controllers.GetAppointment(appointmentService, logg))
			r.Post("/{appointmentId}/cancel", controllers.CancelAppointment(appointmentService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleOperator), logg))
				r.Post("/{appointmentId}/price", controllers.SetAppointmentPrice(appointmentService, logg))
				r.Post("/{appointmentId}/complete", controllers.CompleteAppointment(appointmentService, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", controllers.InitiatePayment(paymentService, logg))
			r.Get("/{paymentId}", controllers.GetPayment(paymentService, logg))
			r.Post("/{paymentId}/confirm", controllers.ConfirmPayment(paymentService, logg))
			r.Post("/{paymentId}/cancel", controllers.CancelPayment(paymentService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})
	})

	return r
}
