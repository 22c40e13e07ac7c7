package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/currency"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/notify"
	"server/internal/providers/payment"
	"server/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	ledger := repo.NewLedgerRepository(runner)
	campaigns := repo.NewCampaignRepository(runner)
	users := repo.NewUserRepository(runner)
	settings := repo.NewSettingRepository(runner)
	outbox := repo.NewOutboxRepository(runner)

	geoResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}

	registry := payment.NewRegistry(
		payment.NewStripeClient(payment.StripeOptions{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			BaseURL:       cfg.Stripe.BaseURL,
			Policy:        payment.Policy{SupportedCurrencies: cfg.Stripe.SupportedCurrencies, MinimumAmounts: cfg.Stripe.MinimumAmounts},
			Retries:       cfg.Stripe.Retries,
			Timeout:       cfg.Stripe.Timeout,
			Logger:        logger,
		}),
		payment.NewChapaClient(payment.ChapaOptions{
			SecretKey:     cfg.Chapa.SecretKey,
			WebhookSecret: cfg.Chapa.WebhookSecret,
			BaseURL:       cfg.Chapa.BaseURL,
			CallbackBase:  cfg.FrontendURL,
			Policy:        payment.Policy{SupportedCurrencies: cfg.Chapa.SupportedCurrencies, MinimumAmounts: cfg.Chapa.MinimumAmounts},
			Retries:       cfg.Chapa.Retries,
			Timeout:       cfg.Chapa.Timeout,
			Logger:        logger,
		}),
		payment.NewTelebirrClient(payment.TelebirrOptions{
			AppID:         cfg.Telebirr.AppID,
			AppKey:        cfg.Telebirr.AppKey,
			ShortCode:     cfg.Telebirr.ShortCode,
			WebhookSecret: cfg.Telebirr.WebhookSecret,
			BaseURL:       cfg.Telebirr.BaseURL,
			Policy:        payment.Policy{SupportedCurrencies: cfg.Telebirr.SupportedCurrencies, MinimumAmounts: cfg.Telebirr.MinimumAmounts},
			Retries:       cfg.Telebirr.Retries,
			Timeout:       cfg.Telebirr.Timeout,
			Logger:        logger,
		}),
	)

	composer := notify.NewComposer(cfg.AdminEmails, cfg.DeveloperEmail, cfg.FrontendURL)
	orchestrator := reconcile.NewOrchestrator(
		ledger, campaigns, outbox, registry,
		currency.NewNormalizer(cfg.CanonicalCurrency, cfg.ExchangeRates),
		composer, geoResolver, cfg.MaxDonationAmount, logger,
	)

	app := &handlers.App{
		Logger:     logger,
		JWTSecret:  cfg.JWTSecret,
		Env:        cfg.AppEnv,
		StartedAt:  time.Now(),
		Reconciler: orchestrator,
		Ledger:     ledger,
		Campaigns:  campaigns,
		Users:      users,
		Settings:   settings,
	}

	var lookup middleware.CountryLookup
	if geoResolver != nil {
		lookup = geoResolver.CountryCode
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   lookup,
		PanicAlert: func(r *http.Request, recovered any) {
			msg := composer.DevAlert("panic on "+r.Method+" "+r.URL.Path, fmt.Errorf("%v", recovered))
			if msg == nil {
				return
			}
			alertCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := outbox.Enqueue(alertCtx, msg); err != nil {
				logger.Error().Err(err).Msg("failed to enqueue panic alert")
			}
		},
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != os.ErrClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
