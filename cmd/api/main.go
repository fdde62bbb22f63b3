package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotdesk/internal/api"
	"slotdesk/internal/config"
	"slotdesk/internal/database"
	"slotdesk/internal/domain"
	"slotdesk/internal/events"
	"slotdesk/internal/logging"
	"slotdesk/internal/metrics"
	"slotdesk/internal/repository"
	"slotdesk/internal/service"
	"slotdesk/internal/worker"

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
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	boards := initBoardRepository(cfg, redisClient, logger)

	bus := events.NewEventBus()
	events.SubscribeLogger(bus, logging.Component(logger, "events"))

	scheduleService := service.NewScheduleService(db, bus, cfg.Schedule.SlotSettings(), logging.Component(logger, "schedule"))
	boardService := service.NewBoardService(scheduleService, db, boards, bus, cfg.Schedule.Location(), logging.Component(logger, "boards"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	warmer := worker.NewWarmupWorker(
		boardService,
		cfg.Schedule.WarmupProviders,
		cfg.Schedule.WarmupDays,
		cfg.Schedule.WarmupInterval,
		worker.RetryPolicy{MaxRetries: 3, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
		logging.Component(logger, "warmup"),
	)
	go warmer.Start(ctx)

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	go backup.Run(ctx)

	startMetrics(ctx, cfg, logger)

	if !cfg.API.HTTP.Enabled {
		logger.Warn().Msg("HTTP API is disabled in config, running background services only")
		<-ctx.Done()
		return nil
	}

	httpServer := api.NewHTTPServer(cfg.API, scheduleService, boardService, logging.Component(logger, "http"))
	return serve(ctx, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, boards will be cached in memory until it recovers")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return redisClient
}

func initBoardRepository(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.BoardRepository {
	memory := repository.NewMemoryBoardRepository(cfg.Schedule.BoardTTL)
	if redisClient == nil {
		logger.Info().Msg("redis is not configured, caching boards in memory")
		return memory
	}

	primary := repository.NewRedisBoardRepository(redisClient, cfg.Schedule.BoardTTL)
	return repository.NewFailoverBoardRepository(primary, memory, logging.Component(logger, "board-cache"))
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
