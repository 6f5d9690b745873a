package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-triage/internal/api/http"
	"github.com/spec-kit/civic-triage/internal/api/http/handlers"
	"github.com/spec-kit/civic-triage/internal/auth"
	"github.com/spec-kit/civic-triage/internal/classifier"
	"github.com/spec-kit/civic-triage/internal/config"
	"github.com/spec-kit/civic-triage/internal/observability"
	"github.com/spec-kit/civic-triage/internal/persistence"
	"github.com/spec-kit/civic-triage/internal/repository"
	"github.com/spec-kit/civic-triage/internal/repository/memory"
	"github.com/spec-kit/civic-triage/internal/service"
	"github.com/spec-kit/civic-triage/internal/storage"
)

type repositories struct {
	issues      repository.IssueRepository
	departments repository.DepartmentRepository
	profiles    repository.ProfileRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, redis, cfg.Redis, logger)

	images, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal("failed to prepare image storage", zap.Error(err))
	}

	if cfg.Classifier.APIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY not set; every submission will be classified as Other")
	}
	model := classifier.NewAnthropicModel(cfg.Classifier.APIKey, cfg.Classifier.Model, cfg.Classifier.MaxTokens)
	issueClassifier := classifier.New(model, images, logger, metrics, classifier.Options{
		Timeout:    cfg.Classifier.Timeout(),
		MaxRetries: cfg.Classifier.MaxRetries,
	})

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		IssueRepo:     repos.issues,
		ProfileRepo:   repos.profiles,
		Images:        images,
		Classifier:    issueClassifier,
		Metrics:       metrics,
		Logger:        logger,
		MaxImageBytes: cfg.Storage.MaxImageBytes,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		IssueRepo: repos.issues,
		Metrics:   metrics,
		Logger:    logger,
	})
	routingService := service.NewRoutingService(service.RoutingDependencies{
		IssueRepo:      repos.issues,
		DepartmentRepo: repos.departments,
		Metrics:        metrics,
		Logger:         logger,
	})
	queryService := service.NewQueryService(service.QueryDependencies{
		IssueRepo:      repos.issues,
		DepartmentRepo: repos.departments,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, 0)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Storage.MaxImageBytes + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Issues: handlers.NewIssuesHandler(intakeService, queryService, cfg.Storage.PublicBaseURL, cfg.Storage.MaxImageBytes),
		Admin: handlers.NewAdminHandler(handlers.AdminHandlerDependencies{
			Triage:       triageService,
			Routing:      routingService,
			Query:        queryService,
			ImageBaseURL: cfg.Storage.PublicBaseURL,
		}),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
		ImagesPrefix:   cfg.Storage.PublicBaseURL,
		ImagesDir:      images.Root(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres, redis *persistence.Redis, redisCfg config.RedisConfig, logger *zap.Logger) repositories {
	if !pg.Enabled() {
		store := memory.NewSeeded()
		return repositories{
			issues:      store.Issues(),
			departments: store.Departments(),
			profiles:    store.Profiles(),
		}
	}

	pool := pg.PoolHandle()
	return repositories{
		issues:      repository.NewIssueRepository(pool),
		departments: repository.NewCachedDepartmentRepository(repository.NewDepartmentRepository(pool), redis.Client, redisCfg.DepartmentCacheTTL(), logger),
		profiles:    repository.NewProfileRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
