package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-mealbox/internal/common"
	"github.com/noah-isme/backend-mealbox/internal/config"
	"github.com/noah-isme/backend-mealbox/internal/events"
	"github.com/noah-isme/backend-mealbox/internal/notify"
	"github.com/noah-isme/backend-mealbox/internal/obs"
	"github.com/noah-isme/backend-mealbox/internal/store"
	"github.com/noah-isme/backend-mealbox/internal/tasks"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(
		envOrDefault("OBS_LOG_FORMAT", "json"),
		envOrDefault("OBS_LOG_LEVEL", "info"),
	).With().Str("component", "worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "mealbox-worker"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := store.New(pool)
	bus := &events.Bus{
		Store: queries,
		Notifiers: []events.Notifier{notify.EmailNotifier{
			Mail:         common.NopEmailSender{},
			Enabled:      cfg.NotifyEmailOn,
			From:         cfg.NotifyEmailFrom,
			TopicToggles: notify.DefaultToggles(),
		}},
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeDeliveryReminder, &tasks.ReminderHandler{
		Q:        queries,
		Events:   bus,
		LeadDays: cfg.ReminderLeadDays,
		Log:      logger,
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	reminderTask := asynq.NewTask(tasks.TypeDeliveryReminder, nil)
	if _, err := scheduler.Register(cfg.ReminderCron, reminderTask); err != nil {
		logger.Fatal().Err(err).Msg("register reminder schedule")
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Fatal().Err(err).Msg("run worker")
		}
	}()
	logger.Info().Str("cron", cfg.ReminderCron).Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker stopped")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
