package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/trendhijack/trendhijack-back/internal/cache"
	"github.com/trendhijack/trendhijack-back/internal/client"
	"github.com/trendhijack/trendhijack-back/internal/config"
	httpserver "github.com/trendhijack/trendhijack-back/internal/http"
	"github.com/trendhijack/trendhijack-back/internal/http/handlers"
	"github.com/trendhijack/trendhijack-back/internal/logging"
	"github.com/trendhijack/trendhijack-back/internal/pipeline"
	"github.com/trendhijack/trendhijack-back/internal/repository"
	"github.com/trendhijack/trendhijack-back/internal/service"
	"github.com/trendhijack/trendhijack-back/internal/store"
	"github.com/trendhijack/trendhijack-back/internal/supervisor"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	searchCache, cacheCloser := setupSearchCache(ctx, cfg, logger)
	defer cacheCloser()

	tavily := client.NewTavilyClient(client.TavilyClientConfig{
		APIKey:     cfg.TavilyAPIKey,
		BaseURL:    cfg.TavilyBaseURL,
		Timeout:    time.Duration(cfg.TavilyTimeoutMS) * time.Millisecond,
		MaxRetries: cfg.TavilyRetries,
	})
	search := client.NewCachedSearcher(tavily, searchCache, logger)
	twitter := client.NewTwitterClient(client.TwitterClientConfig{
		BearerToken:   cfg.TwitterBearerToken,
		BaseURL:       cfg.TwitterBaseURL,
		RateLimitWait: time.Duration(cfg.TwitterRateLimitWaitMS) * time.Millisecond,
	})
	reka := client.NewRekaClient(client.RekaClientConfig{
		APIKey:         cfg.RekaAPIKey,
		FallbackAPIKey: cfg.RekaFallbackAPIKey,
		BaseURL:        cfg.RekaBaseURL,
		Model:          cfg.RekaModel,
		Timeout:        time.Duration(cfg.RekaTimeoutMS) * time.Millisecond,
	})
	kling := client.NewKlingClient(client.KlingClientConfig{
		APIKey:       cfg.KieAPIKey,
		BaseURL:      cfg.KieBaseURL,
		Model:        cfg.KieModel,
		PollInterval: time.Duration(cfg.KiePollIntervalSec) * time.Second,
		MaxWait:      time.Duration(cfg.KiePollMaxWaitSec) * time.Second,
	})

	mode := pipeline.ModeLive
	if cfg.SmokeMode {
		mode = pipeline.ModeSmoke
		logger.Info("smoke mode enabled, pipeline will return synthetic results")
	}
	machine := pipeline.New(pipeline.Config{
		Mode:      mode,
		Search:    search,
		Microblog: twitter,
		Analyzer:  reka,
		Generator: kling,
		Logger:    logger,
	})

	archive, archiveCloser := setupArchive(ctx, cfg, logger)
	defer archiveCloser()

	jobs := store.New(logger)
	sup := supervisor.New(supervisor.Config{
		Store:      jobs,
		Runner:     machine,
		Archive:    archive,
		Logger:     logger,
		MaxRuntime: time.Duration(cfg.JobMaxRuntimeMinutes) * time.Minute,
	})
	jobsService := service.NewJobsService(jobs, sup, machine, logger)

	api := handlers.NewAPI(handlers.Config{
		Jobs: jobsService,
		Services: handlers.ServiceAvailability{
			Search:     tavily.Available(),
			Microblog:  twitter.Available(),
			Analysis:   reka.Available(),
			Generation: kling.Available(),
		},
		Models: map[string]string{
			"search":     "tavily",
			"analysis":   cfg.RekaModel,
			"generation": cfg.KieModel,
		},
		SmokeMode: cfg.SmokeMode,
		Debug:     cfg.Debug(),
	})

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    splitOrigins(cfg.CORSAllowedOrigins),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("api listening", slog.String("port", cfg.Port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func setupSearchCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.Cache, func()) {
	memory := func() (cache.Cache, func()) {
		return cache.NewMemoryCache(cache.Config{
			TTL:        time.Duration(cfg.SearchCacheTTLSeconds) * time.Second,
			MaxEntries: cfg.SearchCacheMaxEntries,
		}), func() {}
	}

	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not configured, using in-memory search cache")
		return memory()
	}

	redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      time.Duration(cfg.SearchCacheTTLSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Warn("redis search cache unavailable, falling back to memory", slog.String("error", err.Error()))
		return memory()
	}
	logger.Info("redis search cache initialized")
	return redisCache, func() { _ = redisCache.Close() }
}

func setupArchive(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Archiver, func()) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not configured, job archive disabled")
		return nil, func() {}
	}

	archive, err := repository.NewPostgresArchive(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres archive unavailable, continuing without it", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres job archive initialized")
	return archive, archive.Close
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
