package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/ai"
	"github.com/BuzzLyutic/shared-todo/internal/config"
	"github.com/BuzzLyutic/shared-todo/internal/handler"
	"github.com/BuzzLyutic/shared-todo/internal/metrics"
	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/realtime"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/internal/worker"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal("Unknown timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Подключаем БД
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to Database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping the Database", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database!")

	todoRepo := repo.NewTodoRepo(pool)
	userRepo := repo.NewUserRepo(pool)
	activityRepo := repo.NewActivityRepo(pool)

	todoService := service.NewTodoService(todoRepo, userRepo, activityRepo, logger)
	activityService := service.NewActivityService(activityRepo)

	hub := realtime.NewHub(logger, 256)
	defer hub.Close()
	go realtime.NewPGListener(pool, hub, todoRepo, logger).Run(ctx)

	var parser ai.Parser
	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, AI endpoints disabled")
	} else {
		client, err := ai.NewOpenAIClient(ai.Options{
			APIKey:          cfg.OpenAIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			Model:           cfg.OpenAIModel,
			TranscribeModel: cfg.TranscribeModel,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to init AI client", zap.Error(err))
		}
		parser = client
	}

	// Фоновые задачи
	scheduler := worker.NewScheduler(loc, logger)
	if _, err := scheduler.ScheduleDaily(cfg.HousekeepingAt, worker.Task{
		Name:    "purge_activity",
		Timeout: time.Minute,
		Run: func(ctx context.Context) error {
			n, err := activityService.Purge(ctx, cfg.ActivityRetentionDays)
			if err != nil {
				return err
			}
			logger.Info("Activity purged", zap.Int64("rows", n), zap.Int("retention_days", cfg.ActivityRetentionDays))
			return nil
		},
	}); err != nil {
		logger.Fatal("Failed to schedule housekeeping", zap.Error(err))
	}
	if _, err := scheduler.ScheduleInterval(time.Minute, worker.Task{
		Name:    "refresh_task_gauges",
		Timeout: 10 * time.Second,
		Run: func(ctx context.Context) error {
			return refreshTaskGauges(ctx, todoService)
		},
	}); err != nil {
		logger.Fatal("Failed to schedule metrics refresh", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := handler.NewRouter(handler.Deps{
		Todos:        handler.NewTodoHandler(todoService, logger),
		Users:        handler.NewUserHandler(service.NewUserService(userRepo), logger),
		Templates:    handler.NewTemplateHandler(service.NewTemplateService(repo.NewTemplateRepo(pool), activityRepo, logger), logger),
		Activity:     handler.NewActivityHandler(activityService, logger),
		Goals:        handler.NewGoalHandler(service.NewGoalService(repo.NewGoalRepo(pool)), logger),
		AI:           handler.NewAIHandler(parser, logger),
		Hub:          hub,
		AIRatePerMin: cfg.AIRatePerMinute,
		Logger:       logger,
	})

	// WebSocket-соединения живут долго, поэтому WriteTimeout не задаем
	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped successfully!")
}

func refreshTaskGauges(ctx context.Context, todos *service.TodoService) error {
	stats, err := todos.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("task stats: %w", err)
	}
	for _, s := range []model.Status{model.StatusTodo, model.StatusInProgress, model.StatusDone} {
		metrics.TasksByStatus.WithLabelValues(string(s)).Set(float64(stats.ByStatus[string(s)]))
	}
	metrics.TasksOverdue.Set(float64(stats.Overdue))
	return nil
}
