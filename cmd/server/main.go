package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/jw164/MP3/api/handler"
	"github.com/jw164/MP3/internal/config"
	"github.com/jw164/MP3/internal/infrastructure/journal"
	mongoInfra "github.com/jw164/MP3/internal/infrastructure/mongodb"
	"github.com/jw164/MP3/internal/infrastructure/monitor"
	"github.com/jw164/MP3/internal/middleware"
	"github.com/jw164/MP3/internal/router"
	"github.com/jw164/MP3/internal/services"
	"github.com/jw164/MP3/internal/services/lifecycle"
	"github.com/jw164/MP3/pkg/httpcontext"
	"github.com/jw164/MP3/pkg/logger"
	mongoRepo "github.com/jw164/MP3/repository/mongodb"
	refsync "github.com/jw164/MP3/usecase/sync"
	taskUC "github.com/jw164/MP3/usecase/task"
	userUC "github.com/jw164/MP3/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	client, err := mongoInfra.Connect(appCtx, cfg.Mongo, zapLogger)
	if err != nil {
		zapLogger.Fatal("mongodb connection failed", zap.Error(err))
	}
	manager.Register("mongodb", func(ctx context.Context) error {
		return client.Disconnect(ctx)
	})

	db := client.Database(cfg.Mongo.Database)
	if err := mongoInfra.EnsureIndexes(appCtx, db, zapLogger); err != nil {
		zapLogger.Fatal("index creation failed", zap.Error(err))
	}

	journalStore, err := journal.Open(cfg.Journal.Path, "journal")
	if err != nil {
		zapLogger.Fatal("failed to open repair journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(client, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := mongoRepo.NewUserRepository(db)
	taskRepo := mongoRepo.NewTaskRepository(db)

	reconciler := services.NewReconciler(
		journalStore,
		mon,
		userRepo,
		taskRepo,
		zapLogger,
		services.ReconcilerConfig{
			Interval:   cfg.Journal.DrainInterval,
			BatchSize:  cfg.Journal.BatchSize,
			MaxRetries: cfg.Journal.MaxRetry,
		},
	)
	reconciler.Start()
	manager.Register("reconciler", func(ctx context.Context) error {
		reconciler.Stop(ctx)
		return nil
	})

	synchronizer := refsync.New(userRepo, taskRepo, reconciler, zapLogger)

	userUseCase := userUC.New(userRepo, synchronizer, zapLogger)
	taskUseCase := taskUC.New(taskRepo, synchronizer, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers)
	accessLog := middleware.AccessLog(zapLogger)

	server := &fasthttp.Server{
		Handler:      accessLog(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
