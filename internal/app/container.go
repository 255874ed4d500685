package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-pos/internal/audit"
	"github.com/odyssey-erp/odyssey-pos/internal/fx"
	"github.com/odyssey-erp/odyssey-pos/internal/integration"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/pnl"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/jobs"
)

// Container owns the wired services and the connections behind them.
type Container struct {
	Config      *Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Metrics     *observability.Metrics
	Jobs        *jobs.Client
	Idempotency *shared.IdempotencyStore

	Inventory *inventory.Service
	Journal   *journal.Service
	PnL       *pnl.Service
	Audit     *audit.Service

	closers []func()
}

// ContainerOptions toggles optional wiring.
type ContainerOptions struct {
	// EnqueueWarmups schedules a P&L warmup after every P&L-affecting write.
	EnqueueWarmups bool
	// Redis overrides the client dialled from Config.RedisAddr.
	Redis *redis.Client
}

// NewContainer connects to the configured stores and wires every service.
// Redis is optional: without it the P&L cache and Redis idempotency are disabled.
func NewContainer(ctx context.Context, cfg *Config, logger *slog.Logger, opts ContainerOptions) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	c.Redis = opts.Redis
	if c.Redis == nil && cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", slog.Any("error", err))
		} else {
			c.Redis = client
			c.closers = append(c.closers, func() {
				if err := client.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			})
		}
	}

	var (
		repo        inventory.RepositoryPort
		store       journal.Store
		auditor     inventory.AuditPort
		auditTrail  audit.Repository
		idempotency inventory.IdempotencyPort
	)
	switch cfg.Storage {
	case StorageMemory:
		journalStore := journal.NewMemoryStore()
		repo = inventory.NewMemoryRepository(journalStore)
		store = journalStore
		auditLog := audit.NewMemoryLog(logger)
		auditor = auditLog
		auditTrail = auditLog
		if c.Redis != nil {
			idempotency = shared.NewRedisIdempotencyStore(c.Redis, cfg.IdempotencyTTL)
		}
	default:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		c.Pool = pool
		c.closers = append(c.closers, pool.Close)
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				c.Close()
				return nil, fmt.Errorf("app: migrate: %w", err)
			}
		}
		repo = inventory.NewRepository(pool)
		store = journal.NewRepository(pool)
		auditor = shared.NewAuditLogger(pool)
		auditTrail = audit.NewRepository(pool)
		c.Idempotency = shared.NewIdempotencyStore(pool)
		idempotency = c.Idempotency
	}

	var pnlCache *pnl.Cache
	if c.Redis != nil {
		pnlCache = pnl.NewCache(c.Redis, cfg.PnLCacheTTL)
		if cfg.Storage == StorageMemory {
			// summaries cached by a previous process describe a journal that no longer exists
			if err := pnlCache.Bump(ctx); err != nil {
				logger.Warn("reset pnl cache", slog.Any("error", err))
			}
		}
	}
	converter := fx.NewConverter(fx.Policy{BaseCurrency: cfg.BaseCurrency, RequireForeignRate: cfg.FXRequireForeignRate})
	c.PnL = pnl.NewService(store, pnlCache, converter.BaseCurrency(), logger)

	var scheduler integration.WarmupScheduler
	if opts.EnqueueWarmups && c.Redis != nil {
		client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("app: jobs client: %w", err)
		}
		c.Jobs = client
		scheduler = client
		c.closers = append(c.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		})
	}
	hooks := integration.NewHooks(c.PnL, scheduler)

	c.Inventory = inventory.NewService(repo, converter, auditor, idempotency, inventory.ServiceConfig{
		Logger:  logger,
		Metrics: c.Metrics,
	}, hooks)
	c.Journal = journal.NewService(store, auditor, hooks, journal.ServiceConfig{
		Products: c.Inventory,
		Currency: converter.BaseCurrency(),
		Logger:   logger,
	})
	c.Audit = audit.NewService(auditTrail)
	return c, nil
}

// Health pings the stores the container depends on.
func (c *Container) Health(ctx context.Context) error {
	if c.Pool != nil {
		if err := c.Pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
