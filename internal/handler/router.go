package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig — всё, из чего собирается таблица маршрутов.
type RouterConfig struct {
	Contacts       *ContactHandler
	Auth           *AuthHandler
	Health         *HealthHandler
	Sessions       ports.SessionProvider
	Metrics        *metrics.Metrics // nil — без /metrics
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter собирает единую таблицу маршрутов API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	// /contacts/search/ и /contacts/search ведут в один обработчик
	r.Use(middleware.StripSlashes)

	r.Get("/", cfg.Health.Root)
	r.Get("/healthcheck", cfg.Health.Healthcheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	sessions := SessionMiddleware(cfg.Sessions, cfg.Logger)
	r.Route("/contacts", func(r chi.Router) {
		r.Use(sessions)
		cfg.Contacts.Routes(r)
	})
	r.Route("/auth", func(r chi.Router) {
		r.Use(sessions)
		cfg.Auth.Routes(r)
	})

	return r
}
