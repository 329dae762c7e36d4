package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tabungan-api/api/swagger"
	"github.com/noah-isme/tabungan-api/internal/models"
	"github.com/noah-isme/tabungan-api/internal/repository"
	"github.com/noah-isme/tabungan-api/internal/router"
	"github.com/noah-isme/tabungan-api/internal/service"
	"github.com/noah-isme/tabungan-api/pkg/broker"
	"github.com/noah-isme/tabungan-api/pkg/cache"
	"github.com/noah-isme/tabungan-api/pkg/config"
	"github.com/noah-isme/tabungan-api/pkg/database"
	"github.com/noah-isme/tabungan-api/pkg/logger"
	"github.com/noah-isme/tabungan-api/pkg/storage"
)

// @title Tabungan Siswa API
// @version 1.0.0
// @description Student savings ledger for school administrators and teachers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	gateway, closeGateway, err := openGateway(cfg)
	if err != nil {
		logr.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeGateway()
	store := service.NewInstrumentedGateway(gateway, metrics)

	notifier := service.NewNotifier(logr)
	ledger := service.NewLedgerService(store, notifier, metrics, validate, logr)
	if err := ledger.Load(ctx); err != nil {
		logr.Fatal("failed to load ledger", zap.Error(err))
	}

	cacheRepo, closeCache := openReportCache(cfg, logr)
	defer closeCache()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cacheRepo != nil)
	reports := service.NewReportService(ledger, cacheSvc, service.ReportServiceConfig{
		Grouping:  service.ParseReportGrouping(cfg.Reports.GroupBy),
		CacheTTL:  cfg.Reports.CacheTTL,
		KeyPrefix: cfg.Redis.KeyPrefix,
	}, logr)
	exports := service.NewExportService(reports, service.ExportConfig{SchoolName: cfg.SchoolName}, logr, nil, nil, nil)

	notifier.Subscribe("report-cache", func(ctx context.Context, evt models.LedgerEvent) error {
		reports.HandleLedgerEvent(ctx, evt)
		return nil
	})
	notifier.Subscribe("metrics", func(_ context.Context, evt models.LedgerEvent) error {
		metrics.RecordLedgerEvent(evt)
		return nil
	})
	if cfg.Events.Enabled {
		publisher, err := broker.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logr)
		if err != nil {
			logr.Warn("ledger event forwarding disabled", zap.Error(err))
		} else {
			defer publisher.Close() //nolint:errcheck
			forwarder := service.NewEventForwarder(publisher, logr)
			notifier.Subscribe("amqp", forwarder.Forward)
		}
	}
	notifier.StartAsync(context.Background())
	defer notifier.Close()

	users, err := repository.NewUserRepository(cfg.Auth.Users)
	if err != nil {
		logr.Fatal("invalid AUTH_USERS", zap.Error(err))
	}
	sessions := service.NewSessionService(store, logr)
	if err := sessions.Restore(ctx); err != nil {
		logr.Warn("failed to restore session", zap.Error(err))
	}
	auth := service.NewAuthService(users, sessions, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		SingleSession:     cfg.Auth.SingleSession,
	})

	engine := router.New(router.Dependencies{
		Config:  cfg,
		Logger:  logr,
		Metrics: metrics,
		Ledger:  ledger,
		Auth:    auth,
		Reports: reports,
		Exports: exports,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openGateway builds the persistence gateway selected by STORAGE_DRIVER.
func openGateway(cfg *config.Config) (service.LedgerGateway, func(), error) {
	noop := func() {}
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if err := database.MigratePostgres(cfg.Database); err != nil {
			return nil, noop, err
		}
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewSQLGateway(db), func() { _ = db.Close() }, nil
	case config.StorageSQLite:
		if err := database.MigrateSQLite(cfg.Storage.SQLitePath); err != nil {
			return nil, noop, err
		}
		db, err := database.NewSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewSQLGateway(db), func() { _ = db.Close() }, nil
	case config.StorageRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewRedisGateway(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
	default:
		store, err := storage.OpenDocumentStore(cfg.Storage.FilePath)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewFileGateway(store), noop, nil
	}
}

// openReportCache connects the Redis report cache when enabled. A nil
// repository disables caching.
func openReportCache(cfg *config.Config, logr *zap.Logger) (service.CacheRepository, func()) {
	if !cfg.Reports.CacheEnabled {
		return nil, func() {}
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("report cache disabled", zap.Error(err))
		return nil, func() {}
	}
	return repository.NewCacheRepository(client, logr), func() { _ = client.Close() }
}
