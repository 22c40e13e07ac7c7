package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options carries the router's cross-cutting configuration.
type Options struct {
	Logger          zerolog.Logger
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	PanicAlert      middleware.PanicAlert
}

// NewRouter assembles the HTTP surface. Webhook routes sit outside the rate
// limiter because gateway retries must never be throttled into data loss.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Recover(opts.Logger, opts.PanicAlert),
		middleware.SecureHeaders,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/health", app.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/{provider}", app.Webhook)
	})

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", app.AuthRegister)
			r.Post("/login", app.AuthLogin)
			r.With(middleware.AuthJWT(opts.JWTSecret)).Get("/me", app.Me)
		})

		r.Route("/api/campaigns", func(r chi.Router) {
			r.Get("/", app.CampaignsList)
			r.Get("/{id}", app.CampaignsGet)
			r.Get("/{id}/donations", app.CampaignDonations)
			r.With(middleware.AuthJWT(opts.JWTSecret), middleware.RequireAdmin).
				Post("/", app.CampaignsCreate)
		})

		r.Route("/api/donations", func(r chi.Router) {
			r.Post("/", app.DonationsCreate)
			r.Get("/{id}", app.DonationsGet)
			r.With(middleware.AuthJWT(opts.JWTSecret), middleware.RequireAdmin).
				Post("/{id}/refund", app.DonationsRefund)
		})

		r.Route("/api/settings", func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret), middleware.RequireAdmin)
			r.Get("/", app.SettingsList)
			r.Put("/", app.SettingsUpsert)
		})
	})

	return r
}
