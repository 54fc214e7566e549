package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/mastery-api/internal/config"
	"github.com/phrazzld/mastery-api/internal/domain/adaptive"
	"github.com/phrazzld/mastery-api/internal/events"
	"github.com/phrazzld/mastery-api/internal/platform/amqp"
	"github.com/phrazzld/mastery-api/internal/platform/gemini"
	"github.com/phrazzld/mastery-api/internal/platform/metrics"
	"github.com/phrazzld/mastery-api/internal/platform/postgres"
	"github.com/phrazzld/mastery-api/internal/platform/redislock"
	"github.com/phrazzld/mastery-api/internal/service"
	"github.com/phrazzld/mastery-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// application holds the wired dependencies of the server.
type application struct {
	config          *config.Config
	logger          *slog.Logger
	db              *sql.DB
	metrics         *metrics.Recorder
	learningService service.LearningService

	emitter     *events.InMemoryEventEmitter
	taskRunner  *task.TaskRunner
	publisher   *amqp.Publisher
	redisClient *redis.Client
}

// newApplication wires stores, the adaptive engine and the optional
// integrations (Redis lock, AMQP publishing, Gemini question generation).
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	performanceStore := postgres.NewPostgresPerformanceStore(db, logger)
	attemptStore := postgres.NewPostgresAttemptStore(db, logger)
	reviewStore := postgres.NewPostgresReviewStore(db, logger)

	engine, err := adaptive.NewEngineWithParams(adaptive.NewParams(cfg.Engine.ToParamsConfig()))
	if err != nil {
		return nil, fmt.Errorf("failed to create adaptive engine: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewRecorder(registry)

	locker, redisClient, err := newKeyLocker(ctx, cfg.Lock, logger)
	if err != nil {
		return nil, err
	}
	app.redisClient = redisClient

	app.emitter = events.NewInMemoryEventEmitter(logger)
	if cfg.Events.AMQPURL != "" {
		publisher, err := amqp.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to connect to event broker: %w", err)
		}
		app.publisher = publisher
		app.emitter.RegisterHandler(publisher)
	}

	if cfg.LLM.Enabled() {
		if err := app.startQuestionGeneration(ctx); err != nil {
			app.cleanup()
			return nil, err
		}
	} else {
		logger.Info("question generation disabled: no Gemini API key configured")
	}

	learningService, err := service.NewLearningService(service.Dependencies{
		DB:              db,
		Performance:     performanceStore,
		Attempts:        attemptStore,
		Reviews:         reviewStore,
		Engine:          engine,
		Locker:          locker,
		Emitter:         app.emitter,
		Metrics:         app.metrics,
		Logger:          logger,
		AnalyticsWindow: time.Duration(cfg.Engine.AnalyticsWindowDays) * 24 * time.Hour,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create learning service: %w", err)
	}
	app.learningService = learningService

	return app, nil
}

// newKeyLocker returns a Redis-backed lock when an address is configured and
// the in-process lock otherwise. The returned client is nil for the latter.
func newKeyLocker(
	ctx context.Context,
	cfg config.LockConfig,
	logger *slog.Logger,
) (service.KeyLocker, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-process topic lock")
		return service.NewLocalLocker(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("using redis topic lock", slog.String("addr", cfg.RedisAddr))
	return redislock.NewLocker(client, cfg.TTL, cfg.RetryInterval, logger), client, nil
}

// startQuestionGeneration starts the task runner and subscribes it to
// question generation events.
func (app *application) startQuestionGeneration(ctx context.Context) error {
	generator, err := gemini.NewGeminiGenerator(ctx, app.logger, app.config.LLM)
	if err != nil {
		return fmt.Errorf("failed to create question generator: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(app.db, app.logger)
	questionStore := postgres.NewPostgresQuestionStore(app.db, app.logger)

	runner := task.NewTaskRunner(taskStore, task.TaskRunnerConfig{
		WorkerCount:            app.config.Task.WorkerCount,
		QueueSize:              app.config.Task.QueueSize,
		StuckTaskAge:           app.config.Task.StuckTaskAge,
		StuckTaskCheckInterval: app.config.Task.StuckTaskCheckInterval,
	}, app.logger)

	factory := task.NewQuestionGenerationTaskFactory(generator, questionStore, app.logger)
	runner.RegisterRehydrator(task.TaskTypeQuestionGeneration, factory)
	runner.SetCompletionHandler(func(task.Task) {
		app.metrics.ObserveQuestionTask(nil)
	})
	runner.SetErrorHandler(func(t task.Task, err error) {
		app.logger.Error("question generation task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("error", err.Error()))
		app.metrics.ObserveQuestionTask(err)
	})

	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	app.taskRunner = runner

	app.emitter.RegisterHandler(
		task.NewTaskFactoryEventHandler(factory, runner, app.config.LLM.QuestionsPerRequest, app.logger),
	)
	app.logger.Info("question generation enabled",
		slog.String("model", app.config.LLM.ModelName),
		slog.Int("workers", app.config.Task.WorkerCount))
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases resources in reverse order of acquisition.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("failed to close event publisher", slog.String("error", err.Error()))
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("failed to close redis client", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
