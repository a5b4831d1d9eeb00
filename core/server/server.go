package server

import (
	"fmt"

	"fieldsync/core/cache"
	"fieldsync/core/config"
	"fieldsync/core/database"
	"fieldsync/core/logger"
	appMiddleware "fieldsync/core/middleware"
	"fieldsync/core/tasks"
	"fieldsync/modules/availability"
	"fieldsync/modules/sync"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Run wires everything together and blocks on the HTTP listener.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
	})
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	cacheClient, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	taskClient := tasks.NewClient(redisOpt)
	defer taskClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	mw := appMiddleware.NewMiddleware()
	mux := asynq.NewServeMux()

	availability.Init(e, &db, cacheClient, mw)
	sync.Init(e, &db, cacheClient, mw, taskClient, mux)

	worker := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 5})
	go func() {
		if err := worker.Run(mux); err != nil {
			logger.Error("server: asynq worker stopped", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server: listening", "addr", addr)
	return e.Start(addr)
}
