// Package httpapi is the HTTP surface: the inbound SMS webhook that feeds
// the dispatch queue, and a small JWT-guarded admin API for inspecting and
// resetting booking sessions.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/boostxlresults/intellisend/pkg/logging"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger          *logging.Logger
	Webhook         *WebhookHandler
	Admin           *AdminHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// NewRouter creates a Chi router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webhook != nil {
		r.Post("/webhooks/sms", cfg.Webhook.HandleInboundSMS)
	}

	if cfg.Admin != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(AdminJWT(cfg.AdminAuthSecret))
			admin.Route("/sessions/{conversationID}", func(s chi.Router) {
				s.Get("/", cfg.Admin.GetSession)
				s.Post("/reset", cfg.Admin.ResetSession)
			})
		})
	}

	return r
}
