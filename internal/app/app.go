package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trinhly333/worksheet/internal/config"
	"github.com/trinhly333/worksheet/internal/email"
	"github.com/trinhly333/worksheet/internal/event"
	handler "github.com/trinhly333/worksheet/internal/handler/http"
	"github.com/trinhly333/worksheet/internal/repository/postgres"
	redisrepo "github.com/trinhly333/worksheet/internal/repository/redis"
	"github.com/trinhly333/worksheet/internal/service"
	"github.com/trinhly333/worksheet/internal/vietqr"
	"github.com/trinhly333/worksheet/migrations"
	"github.com/trinhly333/worksheet/pkg/database"
	"github.com/trinhly333/worksheet/pkg/health"
	pkgkafka "github.com/trinhly333/worksheet/pkg/kafka"
	"github.com/trinhly333/worksheet/pkg/tracing"
)

// processedEventTTL bounds how long consumed event ids are remembered.
const processedEventTTL = 24 * time.Hour

// App wires together all dependencies and runs the worksheet server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPoolWithLogger(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)
	database.RegisterPoolMetrics(pool, config.ServiceName)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	// Initialize Redis.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Initialize Kafka producer and dead-letter producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Repositories.
	campaignRepo := postgres.NewCampaignRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTL())

	// Collaborators.
	events := event.NewProducer(producer, logger)
	qr := vietqr.NewGenerator(vietqr.Payee{
		BankCode:      cfg.BankCode,
		AccountNumber: cfg.BankAccount,
		AccountName:   cfg.BankHolder,
	})

	renderer, err := email.NewRenderer(cfg.EmailFrom)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	sender := newEmailSender(cfg, logger)
	notifier := email.NewNotifier(renderer, sender, email.Support{
		Email: cfg.SupportEmail,
		Zalo:  cfg.SupportZalo,
	}, logger)
	logger.Info("email delivery configured", slog.String("sender", sender.Name()))

	// Services.
	svcs := handler.Services{
		Campaigns: service.NewCampaignService(campaignRepo, events, logger),
		Carts:     service.NewCartService(cartRepo, campaignRepo, logger),
		Checkout:  service.NewCheckoutService(cartRepo, campaignRepo, orderRepo, customerRepo, events, qr, logger),
		Orders:    service.NewOrderService(orderRepo, ledgerRepo, notifier, events, logger),
		Customers: service.NewCustomerService(customerRepo, logger),
	}

	// Customer stats projection from order.completed events.
	projector := event.NewCustomerStatsProjector(customerRepo, logger)
	store := redisrepo.NewIdempotencyStore(redisClient, processedEventTTL)
	consumer := event.NewCustomerStatsConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, projector, store, dlq, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if rs, ok := sender.(*email.ResendSender); ok {
		healthHandler.RegisterNonCritical("email", rs.Healthy)
	}

	if cfg.AdminAPIToken == "" {
		logger.Warn("ADMIN_API_TOKEN is empty, admin endpoints will reject every request")
	}

	// HTTP router.
	router := handler.NewRouter(svcs, healthHandler, handler.RouterConfig{
		ServiceName:   config.ServiceName,
		AdminAPIToken: cfg.AdminAPIToken,
		CORSOrigins:   cfg.CORSOrigins,
		PprofCIDRs:    cfg.PprofCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		dlq:            dlq,
		consumer:       consumer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

func newEmailSender(cfg *config.Config, logger *slog.Logger) email.Sender {
	if cfg.EmailMode == config.EmailModeResend {
		return email.NewResendSender(cfg.ResendAPIKey, cfg.ResendURL, logger)
	}
	return email.NewLogSender(logger)
}

// Run starts the HTTP server and the event consumer and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.consumer.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("customer stats consumer stopped", slog.String("error", err.Error()))
		}
	}()

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopConsumer()
	wg.Wait()

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown drains HTTP, flushes spans, then closes Kafka, Redis and Postgres.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.consumer.Close(); err != nil {
		a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.dlq.Close(); err != nil {
		a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
