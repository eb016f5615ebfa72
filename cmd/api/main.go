package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"turnero/internal/api"
	"turnero/internal/calendar"
	"turnero/internal/config"
	"turnero/internal/database"
	"turnero/internal/events"
	"turnero/internal/logging"
	"turnero/internal/metrics"
	"turnero/internal/repository"
	"turnero/internal/service"
	"turnero/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, sessionRepo := initSessionRepository(ctx, cfg, &logger)

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	agendaWorker := worker.NewAgendaWorker(db, redisClient, retryPolicy, cfg.Exports.Path, &logger)
	go agendaWorker.Start(ctx)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	eventBus := events.NewEventBus()
	subscribeAppointmentEvents(eventBus, &logger)

	rules := calendar.NewRules(db, cfg.Booking.ExtraHolidays)
	slotService := service.NewSlotService(rules, db, &logger)
	bookingService := service.NewBookingService(
		sessionRepo, db, slotService, eventBus,
		cfg.Booking.MaxBookingDays, cfg.Booking.DefaultCost, &logger,
	)
	appointmentService := service.NewAppointmentService(db, eventBus, &logger)
	scheduleService := service.NewScheduleService(db, cfg.Clinic, &logger)
	patientService := service.NewPatientService(db, db, &logger)

	apiServer := api.NewHTTPServer(
		&cfg.API, slotService, bookingService, appointmentService,
		scheduleService, patientService, agendaWorker, &logger,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Error().Err(err).Msg("create database directory")
			return err
		}
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("create exports directory")
		return err
	}
	return nil
}

// initSessionRepository wires redis as the primary session store with an
// in-process fallback, so bookings survive a redis outage.
func initSessionRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverSessionRepository) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable, sessions fall back to memory")
		}
	}

	ttl := time.Duration(cfg.Booking.SessionTTLSeconds) * time.Second
	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	fallback := repository.NewMemorySessionRepository(ttl)
	return redisClient, repository.NewFailoverSessionRepository(primary, fallback, logger)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", port)
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func subscribeAppointmentEvents(bus *events.EventBus, logger *zerolog.Logger) {
	audit := func(ev *events.Event) error {
		logger.Info().
			Str("event", ev.Type).
			RawJSON("payload", ev.Payload).
			Msg("appointment event")
		return nil
	}

	for _, eventType := range []string{
		events.EventAppointmentCreated,
		events.EventAppointmentConfirmed,
		events.EventAppointmentCancelled,
		events.EventAppointmentCompleted,
		events.EventAppointmentDeleted,
		events.EventPaymentRegistered,
	} {
		bus.Subscribe(eventType, audit)
	}
}
