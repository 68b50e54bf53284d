package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdesk-scheduler/internal/api"
	"helpdesk-scheduler/internal/clock"
	"helpdesk-scheduler/internal/config"
	"helpdesk-scheduler/internal/handler"
	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/repository"
	"helpdesk-scheduler/internal/service"
	"helpdesk-scheduler/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		logrus.WithError(err).Warn("Unknown log level, keeping info")
	}
	logrus.Info("Config initialized...")

	// Инициализируем SQLite базу данных
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
	})
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	// Включаем поддержку внешних ключей (требуется для SQLite)
	if _, err = sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logrus.Infof("Warning: Failed to enable foreign keys: %v", err)
	}

	workerRepo, err := repository.NewGormWorkerRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create worker repository")
	}

	ticketRepo, err := repository.NewGormTicketRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create ticket repository")
	}

	slotRepo, err := repository.NewGormAvailabilitySlotRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create availability slot repository")
	}

	assignmentRepo, err := repository.NewGormScheduleAssignmentRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create schedule assignment repository")
	}

	clk := clock.Real()

	// Блокировка сотрудника: Redis для нескольких экземпляров, иначе в памяти
	var locker service.WorkerLocker = service.NewLocalWorkerLocker()
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisLockDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to redis")
		}

		locker = service.NewRedisWorkerLocker(redisClient, 30*time.Second, 10*time.Second)
		logrus.Infof("Using redis worker locks at %s", cfg.RedisAddr)
	}

	// Telegram необязателен: без токена работает только HTTP API
	var client *telegram.Client
	var notifier service.Notifier
	if cfg.TelegramToken != "" {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
		if err != nil {
			logrus.Fatal("Failed to create Telegram client:", err)
		}
		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)
		notifier = handler.NewTelegramNotifier(client.Bot)
	}

	availabilityService := service.NewAvailabilityService(slotRepo, clk, cfg.Location)

	schedulingService := service.NewSchedulingService(service.SchedulingDeps{
		Assignments:  assignmentRepo,
		Availability: availabilityService,
		Tickets:      ticketRepo,
		Access:       workerRepo,
		Backlog:      ticketRepo,
		Workers:      workerRepo,
		Priorities:   service.NewPriorityPolicy(cfg.PriorityThresholds, models.TicketPriorityMedium),
		Aggregator:   service.NewEfficiencyAggregator(cfg.EfficiencyAggregation),
		Locker:       locker,
		Notifier:     notifier,
		Clock:        clk,
		Location:     cfg.Location,
		BacklogLimit: cfg.BacklogLimit,
	})

	if client != nil {
		botHandler := handler.NewHandler(client.Bot, workerRepo, availabilityService, schedulingService, clk, cfg.Location)
		go botHandler.HandleUpdates(client.Updates())
		logrus.Info("Bot started")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(availabilityService, schedulingService, clk, cfg.Location))
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logrus.Infof("HTTP API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Обработка сигналов для graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logrus.Info("Shutting down...")

	if client != nil {
		client.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("HTTP server forced to shutdown")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logrus.Infof("Error closing redis: %v", err)
		}
	}

	// Закрываем соединение с БД
	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Scheduler stopped gracefully")
}
