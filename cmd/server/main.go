package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ledgerly/ledgerly-server-go/internal/auth"
	"github.com/ledgerly/ledgerly-server-go/internal/config"
	"github.com/ledgerly/ledgerly-server-go/internal/database"
	"github.com/ledgerly/ledgerly-server-go/internal/handler"
	"github.com/ledgerly/ledgerly-server-go/internal/jobs"
	"github.com/ledgerly/ledgerly-server-go/internal/middleware"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/redis"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connected")

	if cfg.RunMigrations {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	healthChecks := []handler.HealthCheck{{Name: "database", Check: db.Ping}}

	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		limiter = service.NewRateLimiter(redisClient.Client)
		healthChecks = append(healthChecks, handler.HealthCheck{Name: "redis", Check: redisClient.Healthy})
	} else {
		log.Warn().Msg("REDIS_URL not set: using in-process rate limiter")
		limiter = middleware.NewMemoryLimiter()
	}

	accountRepo := repository.NewAccountRepository(db.DB)
	stateRepo := repository.NewOAuthStateRepository(db.DB)
	contactRepo := repository.NewContactRepository(db.DB)

	var provider service.IdentityProvider
	google, err := service.NewGoogleProvider(service.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleCallbackURL(),
		HTTPClient:   &http.Client{Timeout: config.OAuthProviderTimeout},
	})
	switch {
	case err == nil:
		provider = google
	case errors.Is(err, service.ErrProviderNotConfigured):
		log.Warn().Msg("Google OAuth credentials not set: Google sign-in disabled")
	default:
		log.Fatal().Err(err).Msg("failed to configure Google provider")
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	admins := service.NewAdminEmails(cfg.AdminEmails)
	resolver := service.NewAccountResolver(accountRepo, admins)

	oauthService := service.NewOAuthService(provider, stateRepo, resolver, issuer, config.OAuthStateTTL)
	passwordService := service.NewPasswordAuthService(accountRepo, issuer, admins)
	accountService := service.NewAccountService(accountRepo, issuer)
	adminService := service.NewAdminService(accountRepo, contactRepo)
	contactService := service.NewContactService(contactRepo)

	authMiddleware := middleware.NewAuthMiddleware(accountService)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxBodyBytes)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.IsProduction())
	oauthLimit := middleware.NewIPRateLimitMiddleware(limiter, config.AuthRateLimitPerMin, config.RateLimitWindow, "oauth")
	authLimit := middleware.NewIPRateLimitMiddleware(limiter, config.AuthRateLimitPerMin, config.RateLimitWindow, "auth")
	contactLimit := middleware.NewIPRateLimitMiddleware(limiter, config.ContactRateLimitPerMin, config.RateLimitWindow, "contact")

	oauthHandler := handler.NewOAuthHandler(oauthService, cfg.ClientBaseURL)
	authHandler := handler.NewAuthHandler(passwordService, authMiddleware.Handler, authLimit.Handler)
	subscriptionHandler := handler.NewSubscriptionHandler(accountService)
	contactHandler := handler.NewContactHandler(contactService)
	adminHandler := handler.NewAdminHandler(adminService)
	healthHandler := handler.NewHealthHandler(config.HealthCheckTimeout, healthChecks...)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         600,
		IsProduction:   cfg.IsProduction(),
	}))

	r.Method(http.MethodGet, "/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(middleware.NoStore)
		r.Use(oauthLimit.Handler)
		r.Mount("/", oauthHandler.Routes())
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(middleware.NoStore)
		r.Mount("/", authHandler.Routes())
	})

	r.Route("/api/subscription", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Mount("/", subscriptionHandler.Routes())
	})

	r.Route("/api/contact", func(r chi.Router) {
		r.Use(contactLimit.Handler)
		r.Mount("/", contactHandler.Routes())
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(middleware.NoStore)
		r.Use(authMiddleware.Handler)
		r.Use(middleware.RequireRole(model.RoleAdmin))
		r.Mount("/", adminHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(config.CleanupJobInterval).
		Register("oauth_states", stateRepo)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("environment", cfg.Environment).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
