package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/davidbarber/barbershop-platform/cmd/mainconfig"
	"github.com/davidbarber/barbershop-platform/internal/api/router"
	"github.com/davidbarber/barbershop-platform/internal/appointments"
	"github.com/davidbarber/barbershop-platform/internal/booking"
	"github.com/davidbarber/barbershop-platform/internal/catalog"
	appconfig "github.com/davidbarber/barbershop-platform/internal/config"
	"github.com/davidbarber/barbershop-platform/internal/customers"
	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/internal/http/handlers"
	"github.com/davidbarber/barbershop-platform/internal/notify"
	"github.com/davidbarber/barbershop-platform/internal/observability/metrics"
	"github.com/davidbarber/barbershop-platform/internal/realtime"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting barbershop API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// Redis
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, catalog cache and session persistence disabled", "error", err)
			redisClient = nil
		}
	}

	// Catalog
	var catalogRepo catalog.Repository
	if pool != nil {
		catalogRepo = catalog.NewPostgresRepository(pool)
	} else {
		catalogRepo = catalog.NewInMemoryRepository()
	}
	var catalogCache catalog.Cache
	if redisClient != nil {
		catalogCache = catalog.NewRedisCache(redisClient, cfg.CatalogCacheTTL)
	}
	catalogSvc := catalog.NewService(catalogRepo, catalogCache, logger)

	// Appointments and availability
	var apptRepo appointments.Repository
	if pool != nil {
		apptRepo = appointments.NewPostgresRepository(pool)
	} else {
		apptRepo = appointments.NewInMemoryRepository()
	}
	availability := appointments.NewAvailabilityService(
		apptRepo, catalogRepo, appointments.DefaultBusinessHours(),
		cfg.SlotIntervalMins, cfg.BookingWindowDays, logger,
	)
	if loc, err := time.LoadLocation(cfg.ShopTimezone); err != nil {
		logger.Warn("invalid SHOP_TIMEZONE, using UTC", "error", err, "timezone", cfg.ShopTimezone)
	} else {
		availability.WithTimezone(loc)
	}

	// Booking wizard
	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	var sessionStore booking.SessionStore
	if redisClient != nil {
		sessionStore = booking.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		sessionStore = booking.NewMemoryStore()
	}

	var submitter booking.Submitter
	if pool != nil {
		submitter = booking.NewPgSubmitter(pool, logger)
	} else {
		submitter = booking.NewMemorySubmitter(customers.NewInMemoryRepository(), apptRepo, logger)
	}

	bus := booking.NewBus(0)
	manager := booking.NewManager(sessionStore, catalogSvc, bus, submitter, bookingMetrics, logger).
		WithAvailability(availability)
	go manager.Run(ctx)

	// Realtime dashboard feed
	hub := realtime.NewHub(logger)

	// Notification pipeline: outbox entries fan out to the dashboard feed and
	// the notify queue. With USE_MEMORY_QUEUE the worker runs in-process.
	var outbox *events.OutboxStore
	if pool != nil {
		deliveryHandlers := []events.DeliveryHandler{hub}

		if cfg.UseMemoryQueue {
			queue := notify.NewMemoryQueue(0)
			deliveryHandlers = append(deliveryHandlers, notify.NewQueuePublisher(queue, logger))

			notifier := notify.NewService(buildEmailSender(ctx, cfg, logger),
				notify.ShopConfig{Name: cfg.ShopName, Email: cfg.ShopEmail}, logger)
			worker := notify.NewWorker(notifier, queue, logger, notify.WithWorkerCount(cfg.WorkerCount))
			worker.Start(ctx)
		} else if cfg.NotifyQueueURL != "" {
			awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
			if err != nil {
				logger.Error("failed to load AWS config", "error", err)
				os.Exit(1)
			}
			queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
			deliveryHandlers = append(deliveryHandlers, notify.NewQueuePublisher(queue, logger))
		} else {
			logger.Warn("NOTIFY_QUEUE_URL not set, booking notifications disabled")
		}

		outbox = events.NewOutboxStore(pool)
		deliverer := events.NewDeliverer(outbox, events.MultiHandler(deliveryHandlers...), logger)
		go deliverer.Start(ctx)
	}

	apptHandler := appointments.NewHandler(availability, apptRepo, logger)
	if outbox != nil {
		apptHandler = apptHandler.WithOutbox(outbox)
	}

	// Admin handlers use database/sql on top of the pgx pool.
	var (
		adminDashboard    *handlers.AdminDashboardHandler
		adminAppointments *handlers.AdminAppointmentsHandler
		adminCustomers    *handlers.AdminCustomersHandler
	)
	if pool != nil {
		sqlDB := stdlib.OpenDBFromPool(pool)
		defer sqlDB.Close()
		adminDashboard = handlers.NewAdminDashboardHandler(sqlDB, logger)
		adminAppointments = handlers.NewAdminAppointmentsHandler(sqlDB, logger)
		adminCustomers = handlers.NewAdminCustomersHandler(sqlDB, logger)
	}

	r := router.New(&router.Config{
		Logger:              logger,
		CatalogHandler:      catalog.NewHandler(catalogSvc, catalogRepo, logger),
		AppointmentsHandler: apptHandler,
		BookingHandler:      booking.NewHandler(manager, bus, logger),
		RealtimeHub:         hub,
		AdminDashboard:      adminDashboard,
		AdminAppointments:   adminAppointments,
		AdminCustomers:      adminCustomers,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		SubmitRateLimit:     1,
		SubmitBurst:         5,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("sendgrid not configured, falling back to stub email sender")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config for SES, falling back to stub email sender", "error", err)
			break
		}
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
