package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/appetiteclub/tableside/pkg/mongodb"
	"github.com/appetiteclub/tableside/services/guest/internal/guest"
	"github.com/appetiteclub/tableside/services/guest/internal/mongo"
)

const (
	appNamespace = "GUEST"
	appName      = "guest"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("Cannot setup %s(%s): %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	conn := mongodb.NewConn(config, logger, "tableside_guest")
	if err := conn.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot connect to database: %v", appName, appVersion, err)
	}

	db := conn.Database()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	userRepo := mongo.NewUserRepo(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Info("cannot ensure user indexes", "error", err)
	}

	userHandler := guest.NewUserHandler(userRepo, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})
	stack = append(stack, middleware.InternalOnly())

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", userHandler),
		apt.WithLifecycle(apt.LifecycleHooks{OnStop: conn.Stop}),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
