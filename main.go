package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/stylecoach/internal/auth"
	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/catalog"
	"github.com/example/stylecoach/internal/config"
	"github.com/example/stylecoach/internal/grpcclient"
	"github.com/example/stylecoach/internal/handlers"
	"github.com/example/stylecoach/internal/logging"
	"github.com/example/stylecoach/internal/repository"
	"github.com/example/stylecoach/internal/season"
	"github.com/example/stylecoach/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := initDatabase(ctx, cfg.Database, logger)
	repo := repository.NewCatalogRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}
	if cfg.Database.SeedCatalog {
		if err := repo.Seed(ctx, catalog.Defaults()); err != nil {
			logger.Fatal("catalog seed failed", zap.Error(err))
		}
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	redisClient := initRedis(redisCtx, cfg.Redis, logger)

	estimator, conn, err := grpcclient.DialLandmarkEstimator(ctx, cfg.Estimator.Addr, cfg.Estimator.Timeout, logger)
	if err != nil {
		logger.Fatal("failed to connect to landmark estimator", zap.Error(err))
	}
	defer conn.Close()

	ucConfig, err := buildUseCaseConfig(cfg)
	if err != nil {
		logger.Fatal("invalid classifier configuration", zap.Error(err))
	}
	uc, err := usecase.NewAnalysisUseCase(repo, usecase.NewRedisCache(redisClient), estimator, ucConfig, logger)
	if err != nil {
		logger.Fatal("failed to build analysis use case", zap.Error(err))
	}

	r := gin.Default()
	r.MaxMultipartMemory = handlers.MaxUploadSize

	handlers.RegisterRoutes(r, uc, auth.JWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience), handlers.Options{
		Logger:            logger,
		StreamFPS:         cfg.Session.StreamFPS,
		StreamBurst:       cfg.Session.StreamBurst,
		AutoTriggerFrames: cfg.Session.AutoTriggerFrames,
		AllowedOrigins:    cfg.Session.AllowedOrigins,
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	logger.Info("stylecoach API listening",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("pose_schema", ucConfig.Schema.Name),
		zap.String("season_policy", ucConfig.Policy.Name()),
	)
	if err := serveHTTPServer(server, cfg.HTTP.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func buildUseCaseConfig(cfg *config.Config) (usecase.Config, error) {
	ucConfig := usecase.DefaultConfig()

	schema, err := bodyshape.SchemaByName(cfg.Classifier.PoseSchema)
	if err != nil {
		return usecase.Config{}, err
	}
	policy, err := season.PolicyByName(cfg.Classifier.SeasonPolicy)
	if err != nil {
		return usecase.Config{}, err
	}

	if cfg.Classifier.Schema != nil {
		schema = *cfg.Classifier.Schema
	}
	ucConfig.Schema = schema
	ucConfig.Policy = policy
	ucConfig.MinScore = cfg.Classifier.MinConfidence
	ucConfig.SampleRadius = cfg.Classifier.SampleRadius
	if len(cfg.Classifier.SampleIndices) > 0 {
		ucConfig.SampleIndices = cfg.Classifier.SampleIndices
	}
	ucConfig.SessionTTL = cfg.Session.TTL
	return ucConfig, nil
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig, zapLogger *zap.Logger) *gorm.DB {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		zapLogger.Fatal("unsupported database driver", zap.String("driver", cfg.Driver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(fmt.Errorf("ping %s: %w", cfg.Addr, err)))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
