package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kevenm/barber-booking/internal/booking"
	"github.com/kevenm/barber-booking/internal/dashboard"
	"github.com/kevenm/barber-booking/internal/session"
	"github.com/kevenm/barber-booking/pkg/logging"
)

type RouterConfig struct {
	Service   *booking.Service
	Sessions  *session.Manager
	Refresher *dashboard.Refresher
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Logger    *logging.Logger
	Env       string
	Version   string

	// Now is the clock used for dashboard bucketing; nil means time.Now.
	Now func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(SessionMiddleware(cfg.Sessions))

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	// Public booking surface
	r.Post("/auth/login", loginHandler(cfg.Sessions))
	r.Post("/auth/logout", logoutHandler(cfg.Sessions))
	r.Post("/bookings", createBookingHandler(cfg.Service))
	r.Get("/bookings/slots", takenSlotsHandler(cfg.Service))

	// Signed-in client surface
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(session.KindClient))
		r.Get("/me", myProfileHandler(cfg.Service))
		r.Get("/me/appointments", myAppointmentsHandler(cfg.Service))
	})

	// Professional dashboard
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(session.KindProfessional))
		r.Get("/dashboard/appointments", dashboardAppointmentsHandler(cfg.Service, cfg.Refresher, now))
		r.Post("/dashboard/refresh", dashboardRefreshHandler(cfg.Service, cfg.Refresher))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/confirm", confirmAppointmentHandler(cfg.Service, cfg.Refresher))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service, cfg.Refresher))
		r.Put("/appointments/{id}", editAppointmentHandler(cfg.Service, cfg.Refresher))
	})

	return r
}
