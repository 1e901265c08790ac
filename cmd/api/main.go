package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dreamcard/dreamcard-back/internal/ai"
	"github.com/dreamcard/dreamcard-back/internal/config"
	httpserver "github.com/dreamcard/dreamcard-back/internal/http"
	"github.com/dreamcard/dreamcard-back/internal/http/handlers"
	"github.com/dreamcard/dreamcard-back/internal/imagegen"
	"github.com/dreamcard/dreamcard-back/internal/infra"
	"github.com/dreamcard/dreamcard-back/internal/interpreter"
	"github.com/dreamcard/dreamcard-back/internal/quality"
	"github.com/dreamcard/dreamcard-back/internal/queue"
	"github.com/dreamcard/dreamcard-back/internal/render"
	"github.com/dreamcard/dreamcard-back/internal/repository"
	"github.com/dreamcard/dreamcard-back/internal/service"
	"github.com/dreamcard/dreamcard-back/internal/storage"
	"github.com/dreamcard/dreamcard-back/internal/worker"
)

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		panic(err)
	}
	cfg := config.Load()
	logger := infra.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, repoCloser := setupRepository(ctx, cfg, logger)
	defer repoCloser()

	producer, consumer, reporter, queueCloser := setupQueue(ctx, cfg, logger)
	defer queueCloser()

	store := setupStorage(cfg, logger)

	aiClient := ai.NewOpenRouterClient(ai.OpenRouterClientConfig{
		APIKey:     cfg.OpenRouterAPIKey,
		BaseURL:    cfg.OpenRouterBaseURL,
		Timeout:    time.Duration(cfg.OpenRouterTimeoutMS) * time.Millisecond,
		MaxRetries: cfg.OpenRouterMaxRetries,
		SiteURL:    cfg.OpenRouterSiteURL,
		AppName:    cfg.OpenRouterAppName,
	})
	validator := quality.NewPlanValidator(quality.DefaultConfig())
	interp := interpreter.New(aiClient, validator, interpreter.Config{
		PrimaryModel:   cfg.InterpreterModelPrimary,
		FallbackModel:  cfg.InterpreterModelFallback,
		Temperature:    cfg.InterpreterTemperature,
		MaxTokens:      cfg.InterpreterMaxTokens,
		MaxRetries:     cfg.InterpreterMaxRetries,
		AcceptDegraded: cfg.AcceptDegradedPlans,
	}, logger)

	imageClient := imagegen.NewReplicateClient(imagegen.ReplicateClientConfig{
		APIToken: cfg.ReplicateAPIToken,
		BaseURL:  cfg.ReplicateBaseURL,
		Model:    cfg.ReplicateModel,
		Timeout:  time.Duration(cfg.ReplicateTimeoutMS) * time.Millisecond,
	})
	renderer := render.NewRenderer(imageClient, logger)

	projectsService := service.NewProjectsService(repo, producer, reporter)
	api := handlers.NewAPI(projectsService)

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	if cfg.WorkerEnabled {
		jobsPerMin := cfg.WorkerJobsPerMin
		if jobsPerMin <= 0 {
			jobsPerMin = 10
		}
		processor := worker.NewProcessor(consumer, reporter, repo, interp, renderer, store, worker.Config{
			Concurrency: cfg.WorkerConcurrency,
			RateLimit:   rate.Every(time.Minute / time.Duration(jobsPerMin)),
			RateBurst:   jobsPerMin,
		}, logger)
		go processor.Start(ctx)
		logger.Info().Msg("worker enabled and started")
	} else {
		logger.Info().Msg("worker disabled by configuration")
	}

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
		logger.Info().Str("port", cfg.Port).Msg("api listening")
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupRepository(
	ctx context.Context,
	cfg config.Config,
	logger zerolog.Logger,
) (repository.ProjectsRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not configured, using in-memory repository")
		return repository.NewMemoryProjectsRepository(), func() {}
	}

	pgRepo, err := repository.NewPostgresProjectsRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize postgres repository, fallback to memory")
		return repository.NewMemoryProjectsRepository(), func() {}
	}
	logger.Info().Msg("postgres repository initialized")
	return pgRepo, func() {
		pgRepo.Close()
	}
}

func setupQueue(
	ctx context.Context,
	cfg config.Config,
	logger zerolog.Logger,
) (queue.Producer, queue.Consumer, queue.ProgressReporter, func()) {
	if cfg.RedisAddr == "" {
		logger.Warn().Msg("REDIS_ADDR not configured, using local queue fallback")
		local := queue.NewLocalQueue(512, cfg.MaxAttempts, logger)
		return local, local, local, func() {}
	}

	streams, err := queue.NewStreamsQueue(ctx, queue.StreamsConfig{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		Stream:      cfg.RedisStream,
		DLQStream:   cfg.RedisDLQ,
		Group:       cfg.RedisGroup,
		Consumer:    cfg.RedisConsumer,
		MaxAttempts: cfg.MaxAttempts,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize redis streams queue, fallback to local")
		local := queue.NewLocalQueue(512, cfg.MaxAttempts, logger)
		return local, local, local, func() {}
	}
	logger.Info().Msg("redis streams queue initialized")
	return streams, streams, streams, func() {
		_ = streams.Close()
	}
}

func setupStorage(cfg config.Config, logger zerolog.Logger) storage.ArtifactStore {
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		logger.Info().Str("bucket", cfg.SupabaseBucket).Msg("supabase storage initialized")
		return storage.NewSupabaseStore(storage.SupabaseStoreConfig{
			ProjectURL: cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceKey,
			Bucket:     cfg.SupabaseBucket,
		})
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StoragePublicBase)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not initialize file storage")
	}
	logger.Warn().Str("path", cfg.StoragePath).Msg("object storage not configured, using file storage")
	return fileStore
}
