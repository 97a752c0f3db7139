package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldline/callpilot/internal/dashboard"
	httpmiddleware "github.com/fieldline/callpilot/internal/http/middleware"
	"github.com/fieldline/callpilot/internal/webhook"
	"github.com/fieldline/callpilot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	WebhookHandler     *webhook.Handler
	DashboardHandler   *dashboard.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// WebhookRatePerSec caps webhook traffic per IP. Zero disables limiting.
	WebhookRatePerSec float64
	WebhookBurst      int
}

// New creates the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: webhook, health, metrics.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.WebhookHandler != nil {
			wh := public.With()
			if cfg.WebhookRatePerSec > 0 {
				wh = public.With(httpmiddleware.RateLimit(cfg.WebhookRatePerSec, cfg.WebhookBurst))
			}
			wh.Post("/webhooks/vapi", cfg.WebhookHandler.HandleWebhook)
			wh.Options("/webhooks/vapi", cfg.WebhookHandler.HandleWebhook)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Owner dashboard, behind admin JWT.
	if cfg.DashboardHandler != nil {
		r.Route("/api/dashboard", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/calls", cfg.DashboardHandler.GetCalls)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
