// Package container wires the application together with samber/do. Each
// *Package function registers the providers for one concern; cmd/server and
// cmd/consumer pick the packages they need.
package container

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink-web/internal/events"
	"github.com/serroba/shortlink-web/internal/handlers"
	"github.com/serroba/shortlink-web/internal/health"
	"github.com/serroba/shortlink-web/internal/messaging"
	"github.com/serroba/shortlink-web/internal/middleware"
	"github.com/serroba/shortlink-web/internal/replica"
	"github.com/serroba/shortlink-web/internal/shortener"
	"github.com/serroba/shortlink-web/internal/store"
	"github.com/serroba/shortlink-web/internal/web"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const startupTimeout = 5 * time.Second

// Redis owns the shared Redis client.
type Redis struct {
	Client *redis.Client
}

// Ping checks Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	return r.Client.Close()
}

// Postgres owns the shared connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Ping checks PostgreSQL connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	p.Pool.Close()

	return nil
}

// NewLogger builds a zap logger with the given encoding and level.
func NewLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	if format == LogFormatJSON {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// LoggerPackage provides *zap.Logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

// RedisPackage provides *Redis. An unreachable server is logged; commands
// fail individually until it comes back.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		conn := &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		if err := conn.Ping(ctx); err != nil {
			logger.Error("redis unreachable", zap.String("addr", opts.RedisAddr), zap.Error(err))
		}

		return conn, nil
	})
}

// PostgresPackage provides *Postgres. Only a malformed connection string
// is fatal; connection failures are logged.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, err
		}

		conn := &Postgres{Pool: pool}

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		if err := conn.Ping(ctx); err != nil {
			logger.Error("postgres unreachable", zap.Error(err))
		}

		return conn, nil
	})
}

// RepositoryPackage provides shortener.Repository for the configured
// store, wrapped in the Redis cache when a cache TTL is set.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var repo shortener.Repository

		switch opts.Store {
		case StoreRedis:
			repo = store.NewRedisStore(do.MustInvoke[*Redis](i).Client)
		case StorePostgres:
			pg := store.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool)

			ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
			defer cancel()

			if err := pg.EnsureSchema(ctx); err != nil {
				logger.Error("failed to ensure postgres schema", zap.Error(err))
			}

			repo = pg
		default:
			repo = store.NewMemoryStore()
		}

		if opts.cacheEnabled() {
			repo = store.NewRedisCache(repo, do.MustInvoke[*Redis](i).Client, opts.cacheTTL())
		}

		logger.Info("link store ready",
			zap.String("store", opts.Store),
			zap.Bool("cache", opts.cacheEnabled()),
		)

		return repo, nil
	})
}

// PublisherPackage provides the LinkCreated publish function, backed by
// Redis streams when events are enabled and discarding otherwise.
func PublisherPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		redisConn := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := messaging.NewRedisPublisher(redisConn.Client, logger)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[events.LinkCreated], error) {
		if !do.MustInvoke[*Options](i).Events {
			return messaging.Discard[events.LinkCreated](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[events.LinkCreated](group.Publisher(), events.TopicLinkCreated), nil
	})
}

// ServicePackage provides *shortener.Service.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)

		generator, err := nanoid.Standard(opts.IDLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			generator,
			do.MustInvoke[messaging.Publish[events.LinkCreated]](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// HealthPackage provides the dependency checkers behind /health.
func HealthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		checkers := make(map[string]health.Checker)

		if opts.Store == StorePostgres {
			checkers["postgres"] = do.MustInvoke[*Postgres](i)
		}

		if opts.UsesRedis() {
			checkers["redis"] = do.MustInvoke[*Redis](i)
		}

		return health.NewHandler(checkers), nil
	})
}

// APIConfig keeps the OpenAPI document, docs and schemas under /api so no
// generated short identifier is shadowed by them.
func APIConfig() huma.Config {
	config := huma.DefaultConfig("URL Shortener", "1.0.0")
	config.OpenAPIPath = "/api/openapi"
	config.DocsPath = "/api/docs"
	config.SchemasPath = "/api/schemas"

	return config
}

// HTTPPackage provides the router and the huma API. Invoking huma.API
// registers every route.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		router := chi.NewMux()
		router.Use(middleware.RequestLogger(logger), chimiddleware.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		service := do.MustInvoke[*shortener.Service](i)

		api := humachi.New(router, APIConfig())

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(service, opts.BaseURL, logger))
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		pages, err := web.NewHandler(service, opts.BaseURL, logger)
		if err != nil {
			return nil, err
		}

		web.RegisterRoutes(router, pages)

		return api, nil
	})
}

// ConsumerPackage provides the consumer group that replicates created
// links into the configured store.
func ConsumerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		cfg := do.MustInvoke[*ConsumerConfig](i)

		return messaging.NewRedisSubscriber(
			do.MustInvoke[*Redis](i).Client,
			cfg.ConsumerGroup,
			do.MustInvoke[*zap.Logger](i),
		)
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		subscriber := do.MustInvoke[message.Subscriber](i)

		replicator := replica.NewReplicator(do.MustInvoke[shortener.Repository](i), logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer[events.LinkCreated](
			subscriber,
			events.TopicLinkCreated,
			replicator.HandleLinkCreated,
			logger,
		))

		return group, nil
	})
}

