package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "review_hero/internal/adapters/http_server"
	"review_hero/internal/adapters/observability"
	"review_hero/internal/adapters/places"
	redisad "review_hero/internal/adapters/redis"
	"review_hero/internal/adapters/s3store"
	"review_hero/internal/adapters/session"
	"review_hero/internal/adapters/whop"
	"review_hero/internal/app"
	"review_hero/internal/bootstrap"
	"review_hero/internal/domain"
	"review_hero/internal/ratelimit"
	"review_hero/internal/shared"
	"review_hero/internal/templates"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, observability.MetricsHandler(reg))

	deps, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer deps.Close()

	// rate limiting
	var rateStore ratelimit.Store
	if cfg.RateLimitStore == "redis" && deps.Redis != nil {
		rateStore = redisad.NewRateStore(deps.Redis)
	} else {
		mem := ratelimit.NewMemoryStore(time.Minute)
		defer mem.Stop()
		rateStore = mem
	}
	limiter := ratelimit.New(rateStore, nil)

	// integrations, each optional
	var placesClient domain.PlacesClient
	if cfg.GooglePlacesKey != "" {
		pc, err := places.New(places.DefaultBase, cfg.GooglePlacesKey, cfg.OutboundRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("places client")
		}
		placesClient = pc
	}
	var whopClient domain.WhopClient
	if cfg.WhopClientID != "" {
		wc, err := whop.New(whop.Config{
			ClientID: cfg.WhopClientID, ClientSecret: cfg.WhopClientSecret,
			RedirectURI: cfg.WhopRedirectURI, APIBase: cfg.WhopAPIBase, RPS: cfg.OutboundRPS,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("whop client")
		}
		whopClient = wc
	}
	var logos domain.LogoStore
	if cfg.S3Bucket != "" {
		ls, err := s3store.New(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			log.Fatal().Err(err).Msg("s3 logo store")
		}
		logos = ls
	}
	var sessions *session.Manager
	if cfg.SessionSecret != "" {
		sessions, err = session.New(cfg.SessionSecret, session.DefaultTTL, cfg.Production())
		if err != nil {
			log.Fatal().Err(err).Msg("session manager")
		}
	}

	// services
	catalog := templates.MustLoad()
	store, cache := deps.Store, deps.Cache
	requests := app.NewRequestService(store, deps.Mailer, cache, cfg.AppURL, nil)
	tpls := app.NewTemplateService(store, catalog)
	nudges := app.NewNudgeService(store, deps.Mailer, cache, cfg.AppURL, cfg.NudgeWorkers, cfg.NudgeBatch, nil)
	nudges.OnSweep(func(r app.NudgeReport) {
		observability.ObserveNudges(r.Expired, r.Sent, r.Failed, r.Skipped)
	})

	h := &server.Handlers{
		Onboarding:    app.NewOnboardingService(store, cache, requests, nil),
		Places:        app.NewPlacesService(placesClient, cache, cfg.CacheTTL),
		Requests:      requests,
		Reviews:       app.NewReviewService(store, cache, catalog.Default, nil),
		Referrals:     app.NewReferralService(store, cache, nil),
		Dashboard:     app.NewDashboardService(store, cache, cfg.CacheTTL, nil),
		Accounts:      app.NewAccountService(store, cache, logos, nil),
		Templates:     tpls,
		Auth:          app.NewAuthService(store, whopClient),
		Billing:       app.NewBillingService(store, cache, cfg.WhopPlans, nil),
		Seed:          app.NewSeedService(store, tpls, cfg.AppURL, nil),
		Sessions:      sessions,
		Limiter:       limiter,
		AuthRequired:  cfg.AuthRequired,
		Production:    cfg.Production(),
		WebhookSecret: cfg.WhopWebhookSecret,
	}

	if cfg.NudgeInterval > 0 {
		go nudges.Run(ctx, cfg.NudgeInterval)
	}

	// http
	srv := server.New(server.Options{RequestTimeout: cfg.HTTPRequestTimeout})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := srv.HTTPServer(cfg.HTTPAddr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
