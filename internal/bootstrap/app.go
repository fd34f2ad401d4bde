package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"plabroom/internal/config"
	"plabroom/internal/model"
	mysqlClient "plabroom/internal/platform/mysql"
	rabbitmqClient "plabroom/internal/platform/rabbitmq"
	redisClient "plabroom/internal/platform/redis"
	"plabroom/internal/realtime"
	"plabroom/internal/repository"
	"plabroom/internal/timer"
	"plabroom/internal/worker"
)

type App struct {
	Config         *config.Config
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	FeedbackWorker *worker.FeedbackPersistWorker
	Hub            *realtime.Hub
	Timers         *timer.Engine

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Case{},
		&model.Session{},
		&model.SessionParticipant{},
		&model.Feedback{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	feedbackRepo := repository.NewFeedbackRepository(mysqlDB)
	feedbackWorker := worker.NewFeedbackPersistWorker(mqConn, feedbackRepo, cfg.RabbitMQ.FeedbackPersistQueue)
	if err := feedbackWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start feedback worker failed: %w", err)
	}

	return &App{
		Config:         cfg,
		MySQL:          mysqlDB,
		Redis:          redisCli,
		MQConn:         mqConn,
		FeedbackWorker: feedbackWorker,
		Hub:            realtime.NewHub(),
		Timers:         timer.NewEngine(),
		StartedAt:      time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Timers != nil {
		a.Timers.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.FeedbackWorker != nil {
		a.FeedbackWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
