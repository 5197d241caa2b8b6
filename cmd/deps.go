package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hr-interview-bot/internal/admin"
	"hr-interview-bot/internal/analyzer"
	"hr-interview-bot/internal/api"
	"hr-interview-bot/internal/config"
	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
	"hr-interview-bot/internal/ratelimit"
	"hr-interview-bot/internal/storage"
)

const rateLimitPrefix = "hrbot:ratelimit:"

// store - репозиторий собеседований вместе со стороной чтения для отчетов
type store interface {
	interview.Repository
	admin.ReportSource
}

func loadCatalog(cfg *config.AppConfig) (*questions.Catalog, error) {
	branding := questions.Branding{
		Company:    cfg.Company.Name,
		HRName:     cfg.Company.HRName,
		HRPosition: cfg.Company.HRPosition,
	}
	if cfg.Interview.QuestionsFile != "" {
		return questions.Load(cfg.Interview.QuestionsFile, branding)
	}
	return questions.Default(branding)
}

// openStore подключает PostgreSQL, если задан DATABASE_URL, иначе хранит все в памяти
func openStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (store, func() error, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is not set, interviews are kept in memory")
		return storage.NewMemoryRepository(), func() error { return nil }, nil
	}

	db, err := storage.OpenPostgres(ctx, storage.PostgresConfig{
		Driver:          cfg.Driver,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdle:     5 * time.Minute,
		ConnMaxLifetime: time.Hour,
		ConnectTimeout:  30 * time.Second,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	repo := storage.NewPostgresRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logger.Info("connected to postgres", zap.String("driver", cfg.Driver))
	return repo, db.Close, nil
}

// openLimiter выбирает Redis, если задан REDIS_URL, иначе лимитер в памяти процесса
func openLimiter(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (ratelimit.Limiter, func() error, error) {
	limit := cfg.Interview.RateLimitPerMin
	if limit <= 0 {
		logger.Info("inbound rate limiting is disabled")
		return ratelimit.Noop{}, func() error { return nil }, nil
	}

	if cfg.Storage.RedisURL == "" {
		l := ratelimit.NewMemoryLimiter(limit, time.Minute)
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					l.Cleanup()
				}
			}
		}()
		return l, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.Storage.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("rate limiting via redis", zap.Int("per_minute", limit))
	return ratelimit.NewRedisLimiter(client, limit, time.Minute, rateLimitPrefix), client.Close, nil
}

func newOracle(ctx context.Context, cfg config.OracleConfig) (analyzer.Oracle, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := api.NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		return api.NewOpenAIClientWithConfig(cfg.OpenAIKey, cfg.OpenAIModel, cfg.MaxTokens, cfg.Temperature).
			WithBaseURL(cfg.OpenAIURL), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
