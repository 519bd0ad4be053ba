package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/internal/config"
	"github.com/fastygo/todo/internal/infrastructure/boltdb"
	"github.com/fastygo/todo/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/todo/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/todo/internal/infrastructure/redis"
	"github.com/fastygo/todo/internal/middleware"
	"github.com/fastygo/todo/internal/router"
	"github.com/fastygo/todo/internal/services/lifecycle"
	"github.com/fastygo/todo/internal/services/scheduler"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/pkg/token"
	"github.com/fastygo/todo/repository"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	"github.com/fastygo/todo/repository/postgres"
	redisRepo "github.com/fastygo/todo/repository/redis"
	accountUC "github.com/fastygo/todo/usecase/account"
	authUC "github.com/fastygo/todo/usecase/auth"
	taskUC "github.com/fastygo/todo/usecase/task"
)

// serveCmd implements 'todo serve'.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// stores groups the repositories of the configured storage driver.
type stores struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	sessions repository.SessionRepository
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(parent)
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	mon := monitor.New(cfg.Monitor.ProbeTimeout, zapLogger)
	sched := scheduler.New(zapLogger)

	st, err := openStores(appCtx, cfg, manager, mon, sched, zapLogger)
	if err != nil {
		manager.Shutdown(context.Background())
		return err
	}

	if err := sched.Every("monitor_refresh", cfg.Monitor.Interval, func(ctx context.Context) error {
		mon.Refresh(ctx)
		return nil
	}); err != nil {
		manager.Shutdown(context.Background())
		return err
	}
	mon.Refresh(appCtx)
	sched.Start()
	manager.Register("scheduler", sched.Stop)

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL)
	authUseCase := authUC.New(st.users, st.sessions, tokens, cfg.JWT.RefreshTTL, zapLogger)
	accountUseCase := accountUC.New(st.users, argon2id.DefaultParams, zapLogger)
	taskUseCase := taskUC.New(st.tasks, taskUC.Config{
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
	}, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Account: apiHandler.NewAccountHandler(accountUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware, zapLogger)

	server := &fasthttp.Server{
		Handler:      router.Chain(r.Handler, middleware.RequestLogger(zapLogger)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	manager.Go(appCtx, cancel, "http_server", func(ctx context.Context) error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("version", version))
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	shutdownErr := manager.Shutdown(context.Background())
	if shutdownErr != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(shutdownErr))
	}
	if err := manager.Wait(); err != nil {
		return err
	}
	return shutdownErr
}

// openStores connects the configured storage driver and registers its
// probes, housekeeping jobs and shutdown hooks.
func openStores(
	ctx context.Context,
	cfg *config.Config,
	manager *lifecycle.Manager,
	mon *monitor.Monitor,
	sched *scheduler.Scheduler,
	zapLogger *zap.Logger,
) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverBolt:
		store, err := boltdb.Open(cfg.Bolt.Path, cfg.Bolt.OpenTimeout)
		if err != nil {
			return nil, fmt.Errorf("bolt: %w", err)
		}
		manager.Register("bolt", func(context.Context) error {
			return store.Close()
		})
		mon.Register("bolt", store.Ping)

		sessions := boltRepo.NewSessionRepository(store, cfg.JWT.RefreshTTL)
		if err := sched.Every("session_purge", cfg.Monitor.SessionPurge, func(ctx context.Context) error {
			n, err := sessions.PurgeExpired(ctx, time.Now())
			if n > 0 {
				zapLogger.Info("expired sessions purged", zap.Int("count", n))
			}
			return err
		}); err != nil {
			return nil, err
		}

		zapLogger.Info("bolt store opened", zap.String("path", cfg.Bolt.Path))
		return &stores{
			tasks:    boltRepo.NewTaskRepository(store),
			users:    boltRepo.NewUserRepository(store),
			sessions: sessions,
		}, nil

	default:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}

		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		mon.Register("postgresql", pgInfra.Probe(pool))

		redisClient, err := redisInfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		manager.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
		mon.Register("redis", redisInfra.Probe(redisClient))

		return &stores{
			tasks:    postgres.NewTaskRepository(pool),
			users:    postgres.NewUserRepository(pool),
			sessions: redisRepo.NewSessionRepository(redisClient, cfg.JWT.RefreshTTL),
		}, nil
	}
}
