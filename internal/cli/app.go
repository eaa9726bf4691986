// Package cli wires configuration into a ready-to-use engine for the command line.
package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/config"
	"github.com/aretw0/spindle/pkg/adapters/file"
	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/adapters/openai"
	"github.com/aretw0/spindle/pkg/adapters/postgres"
	redisAdapter "github.com/aretw0/spindle/pkg/adapters/redis"
	"github.com/aretw0/spindle/pkg/adapters/weaviate"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/observability"
	"github.com/aretw0/spindle/pkg/persistence/middleware"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/progress"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

// App is an engine together with the stores it was wired to.
type App struct {
	Engine   *spindle.Engine
	Datasets ports.DatasetStore
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Inputs   InputSanitizer

	closers []func() error
}

// Close releases every connection opened by NewApp.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// NewApp builds the engine selected by cfg.
// The memory backends need no external service. hooks receive node events in
// addition to the debug log.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*App, error) {
	reg := prometheus.NewRegistry()
	app := &App{
		Metrics:  observability.NewMetrics(reg),
		Gatherer: reg,
		Inputs:   InputSanitizer{MaxSize: cfg.MaxInputSize},
	}

	opts := []spindle.Option{
		spindle.WithLogger(logger),
		spindle.WithMetrics(app.Metrics),
		spindle.WithConcurrency(cfg.Concurrency),
		spindle.WithStrictTypes(cfg.StrictTypes),
		spindle.WithLifecycleHooks(progress.Combine(append([]domain.LifecycleHooks{DebugHooks(logger)}, hooks...)...)),
	}

	var store ports.RunStore
	switch cfg.RunStore {
	case config.StoreFile:
		store = file.New(cfg.RunsDir)
	case config.StoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, client.Close)

		store = redisAdapter.NewFromClient(client,
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithTTL(cfg.RunTTL),
		)
		opts = append(opts, spindle.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix), cfg.LockTTL))
	default:
		store = memory.NewRunStore()
	}

	store, err := wrapStore(store, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	opts = append(opts, spindle.WithRunStore(store))

	var client *openai.Client
	if cfg.OpenAI.APIKey != "" {
		client = openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL,
			openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			openai.WithTimeout(cfg.OpenAI.Timeout),
		)
		opts = append(opts, spindle.WithChatCompleter(client))
	}

	var pool *pgxpool.Pool
	switch cfg.Retrieval {
	case config.RetrievalPostgres:
		if client == nil {
			_ = app.Close()
			return nil, errors.New("postgres retrieval needs OPENAI_API_KEY to embed queries")
		}
		pool, err = postgres.Connect(ctx, cfg.Postgres.URL, postgres.PoolConfig{
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() error { pool.Close(); return nil })
		if err := postgres.Migrate(ctx, pool, cfg.Postgres.Dimensions); err != nil {
			_ = app.Close()
			return nil, err
		}
		opts = append(opts, spindle.WithRetrieval(postgres.NewIndexRegistry(pool), postgres.NewSearcher(pool, client)))
		app.Datasets = postgres.NewDatasetStore(pool)

	case config.RetrievalWeaviate:
		var searcher *weaviate.Searcher
		searcher, err = weaviate.New(cfg.Weaviate.Scheme, cfg.Weaviate.Host)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		// Index metadata stays local; weaviate only holds the chunks.
		opts = append(opts, spindle.WithRetrieval(memory.NewIndexRegistry(), searcher))
		app.Datasets = memory.NewDatasetStore()

	default:
		indices := memory.NewIndexRegistry()
		opts = append(opts, spindle.WithRetrieval(indices, indices))
		app.Datasets = memory.NewDatasetStore()
	}

	app.Engine = spindle.New(opts...)
	return app, nil
}

// wrapStore applies PII masking and payload encryption when configured.
// Masking is applied before encryption.
func wrapStore(store ports.RunStore, cfg *config.Config) (ports.RunStore, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns))
	}
	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}
