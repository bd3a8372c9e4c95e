package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/elevare/elevare-backend-go/internal/config"
	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/handler"
	"github.com/elevare/elevare-backend-go/internal/infra/cache"
	"github.com/elevare/elevare-backend-go/internal/infra/client"
	"github.com/elevare/elevare-backend-go/internal/infra/observability"
	"github.com/elevare/elevare-backend-go/internal/infra/ratelimit"
	"github.com/elevare/elevare-backend-go/internal/infra/realtime"
	"github.com/elevare/elevare-backend-go/internal/infra/resilience"
	"github.com/elevare/elevare-backend-go/internal/port"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store", cfg.StoreBackend),
		zap.Duration("jwt_expire", cfg.JWTExpire),
		zap.Duration("rate_limit_window", cfg.RateLimitWindow),
		zap.Int("rate_limit_max", cfg.RateLimitMax),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("sendgrid", cfg.SendGridAPIKey != ""),
	)
	if cfg.IsProduction() && cfg.JWTSecret == "dev_secret_change_in_production" {
		return errors.New("JWT_SECRET must be set in production")
	}

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "elevare-api")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Persistence ---
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close(context.Background())

	// --- Rate limiting ---
	limiter, closeLimiter, err := newLimiter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	mailBulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Mail ---
	var mailer port.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = client.NewSendGridMailer(client.MailConfig{
			APIKey:   cfg.SendGridAPIKey,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
			Sandbox:  cfg.SendGridSandbox,
		}, resilience.NewCircuitBreaker("sendgrid", logger), resilienceCfg).WithMetrics(metrics)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, outbound mail is logged only")
		mailer = client.NewLogMailer(logger)
	}

	// --- Real-time ---
	hub := realtime.NewHub(logger, cfg.AllowedOrigins)

	// --- Services ---
	tokens := service.NewTokens(cfg.JWTSecret, cfg.JWTExpire)
	principals := cache.New[domain.Principal](cfg.PrincipalCacheTTL)
	defer principals.Close()

	notifications := service.NewNotificationService(st.notifications, hub, metrics, logger)
	svc := handler.Services{
		Auth: service.NewAuthService(st.users, tokens, mailer, mailBulkhead, service.AuthOptions{
			ExposeResetToken: cfg.ExposeResetToken,
			AppURL:           cfg.PublicAppURL,
		}, logger),
		Users:         service.NewUserService(st.users, principals, logger),
		Leads:         service.NewLeadService(st.leads, logger),
		Calls:         service.NewCallService(st.calls, nil, notifications, logger),
		Tasks:         service.NewTaskService(st.tasks, notifications, logger),
		Moods:         service.NewMoodService(st.moods, nil, nil, logger),
		Properties:    service.NewPropertyService(st.properties, logger),
		Payments:      service.NewPaymentService(st.payments, notifications, logger),
		Documents:     service.NewDocumentService(st.documents, logger),
		Expander:      service.NewExpander(st.users, st.leads, st.properties, logger),
		Notifications: notifications,
	}

	// --- Router ---
	router := handler.NewRouter(svc, handler.Deps{
		Auth:      handler.NewAuthenticator(tokens, st.users, principals, metrics, logger),
		Limiter:   limiter,
		Readiness: st.ready,
		Hub:       hub,
		Metrics:   metrics,
		Logger:    logger,
	}, handler.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		TrustProxy:     cfg.TrustProxy,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if st.ensureIndexes != nil {
		g.Go(func() error {
			// Index failures never stop the server.
			_ = ensureIndexesWhenReady(gctx, st.ready, readyPollInterval, st.ensureIndexes, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newLimiter returns the Redis limiter backed by the in-process one when
// REDIS_URL is set, otherwise the in-process limiter alone.
func newLimiter(cfg *config.Config, logger *zap.Logger) (port.Limiter, func(), error) {
	local := ratelimit.NewInMemory(cfg.RateLimitWindow, cfg.RateLimitMax)
	if cfg.RedisURL == "" {
		return local, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	logger.Info("rate limiting backed by redis", zap.String("addr", opt.Addr))

	shared := ratelimit.NewRedis(rdb, cfg.RateLimitWindow, cfg.RateLimitMax)
	return ratelimit.NewFallback(shared, local, logger), func() { _ = rdb.Close() }, nil
}
