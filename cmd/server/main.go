package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/todo-api/internal/apierr"
	"github.com/iliyamo/todo-api/internal/config"
	"github.com/iliyamo/todo-api/internal/database"
	"github.com/iliyamo/todo-api/internal/handler"
	"github.com/iliyamo/todo-api/internal/middleware"
	"github.com/iliyamo/todo-api/internal/oauth"
	"github.com/iliyamo/todo-api/internal/queue"
	"github.com/iliyamo/todo-api/internal/repository"
	"github.com/iliyamo/todo-api/internal/router"
)

func main() {
	cfg := config.Load()

	zl, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	logger := zl.Sugar()
	defer func() { _ = zl.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalw("database connect failed", "error", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatalw("schema bootstrap failed", "error", err)
	}

	// Redis is optional: a nil client disables the token cache and every
	// lookup goes to the database.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Infow("redis unavailable, token cache disabled")
	}
	cache := repository.NewTokenCache(rdb, 5*time.Minute)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db, cache)
	todos := repository.NewTodoRepo(db)

	publisher := queue.NewAMQPPublisher(cfg.AMQPURL, logger)
	go queue.StartEventConsumer(cfg.AMQPURL, logger)

	google := oauth.NewGoogleClient(cfg.GoogleUserinfoURL)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apierr.NewHTTPErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CaptureBody)
	e.Use(middleware.TokenAuth(tokens, logger))

	router.Register(e,
		handler.NewAccountHandler(cfg, users, tokens, google, logger),
		handler.NewTodoHandler(todos, publisher, logger),
	)

	addr := ":" + cfg.Port
	logger.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
