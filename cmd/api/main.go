package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/ligue-reviews/internal/config"
	"github.com/xavierca1/ligue-reviews/internal/infra/auth"
	"github.com/xavierca1/ligue-reviews/internal/infra/cache"
	"github.com/xavierca1/ligue-reviews/internal/infra/database"
	"github.com/xavierca1/ligue-reviews/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-reviews/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-reviews/internal/infra/integration/postmark"
	"github.com/xavierca1/ligue-reviews/internal/infra/integration/square"
	"github.com/xavierca1/ligue-reviews/internal/infra/mail"
	"github.com/xavierca1/ligue-reviews/internal/infra/queue"
	"github.com/xavierca1/ligue-reviews/internal/infra/worker"
	"github.com/xavierca1/ligue-reviews/internal/usecase"
)

var version = "dev"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(cfg.Database.Driver, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		logger.Error("connect database", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	// 1. Repositories
	businessRepo := database.NewBusinessRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	reviewRepo := database.NewReviewRequestRepository(db)
	connectionRepo := database.NewSquareConnectionRepository(db)
	jobRepo := database.NewBackfillJobRepository(db)
	subRepo := database.NewSubscriptionRepository(db)

	// 2. Optional infrastructure
	var entitlements usecase.EntitlementChecker = subRepo
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, entitlement cache disabled", slog.Any("err", err))
		} else {
			defer redisClient.Close()
			entitlements = cache.NewEntitlementCache(redisClient, subRepo, cfg.Redis.EntitlementTTL, logger)
		}
	}

	var producer usecase.QueueProducerInterface
	var rabbitConn *amqp.Connection
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, backfill events disabled", slog.Any("err", err))
		} else {
			defer rabbitMQ.Close()
			producer = queue.NewProducer(rabbitMQ.Ch)
			rabbitConn = rabbitMQ.Conn
		}
	}

	// 3. Gateways and adapters
	var transport mail.Sender
	switch cfg.Mail.Transport {
	case config.TransportSMTP:
		transport = mail.NewSMTPSender(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUser, cfg.Mail.SMTPPass, emailDomain(cfg.Mail.From))
	default:
		transport = postmark.NewClient(cfg.Mail.PostmarkToken, cfg.Mail.PostmarkURL, cfg.Mail.MessageStream)
	}
	mailer := mail.NewThrottledSender(transport, cfg.Mail.RatePerSecond, 1)

	templates, err := mail.NewTemplateRenderer()
	if err != nil {
		logger.Error("parse email templates", slog.Any("err", err))
		os.Exit(1)
	}

	sources := square.NewSourceFactory(cfg.Square.APIVersion, cfg.Square.Timeout)
	verifier := auth.NewFirebaseVerifier(cfg.Firebase.ProjectID, cfg.Firebase.CertsURL)

	// 4. Use cases
	runBackfillUC := usecase.NewRunBackfillUseCase(
		businessRepo,
		customerRepo,
		reviewRepo,
		connectionRepo,
		jobRepo,
		entitlements,
		sources,
		mailer,
		templates,
		producer,
		middleware.NewBackfillMetrics(),
		logger,
		cfg.Mail.From,
	)
	latestBackfillUC := usecase.NewGetLatestBackfillUseCase(businessRepo, jobRepo)

	// 5. Handlers
	backfillHandler := handlers.NewBackfillHandler(runBackfillUC, latestBackfillUC, logger)
	healthHandler := handlers.NewHealthHandler(db, rabbitConn, redisClient, version)

	// 6. Workers
	if cfg.Backfill.ReapInterval > 0 {
		reaper := worker.NewStaleJobReaper(jobRepo, cfg.Backfill.StaleAfter, cfg.Backfill.ReapInterval, logger)
		go reaper.Start(ctx)
	}

	// 7. Router
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(cfg, backfillHandler, healthHandler, verifier, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Server.Addr), slog.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", slog.Any("err", err))
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func emailDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 {
		return strings.TrimRight(from[i+1:], "> ")
	}
	return "localhost"
}
