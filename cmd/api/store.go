package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/cache"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/postgres"
	"github.com/jhoicas/shelf-inventory/pkg/config"
	"github.com/jhoicas/shelf-inventory/pkg/logger"
)

// storage es el backend de persistencia elegido.
type storage struct {
	txRunner   inventory.TxRunner
	products   repository.ProductRepository
	ledger     repository.LedgerRepository
	admins     repository.AdminRepository
	strategies []repository.LedgerQueryStrategy
	ping       func(context.Context) error
	seedAdmin  func(context.Context, entity.Admin) error
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn().Msg("using the in-memory store; data is lost on restart")
		store := memory.New()
		admins := store.Admins()
		return &storage{
			txRunner:   store,
			products:   store.Products(),
			ledger:     store.Ledger(),
			admins:     admins,
			strategies: memory.NewLedgerQueryStrategies(store),
			ping:       store.Ping,
			seedAdmin: func(_ context.Context, a entity.Admin) error {
				admins.Seed(a)
				return nil
			},
			close: func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conectando a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migrations applied")
	}
	admins := postgres.NewAdminRepository(pool)
	return &storage{
		txRunner:   postgres.NewTxRunner(pool),
		products:   postgres.NewProductRepository(pool),
		ledger:     postgres.NewLedgerRepository(pool),
		admins:     admins,
		strategies: postgres.NewLedgerQueryStrategies(pool),
		ping:       pool.Ping,
		seedAdmin: func(ctx context.Context, a entity.Admin) error {
			return admins.Upsert(ctx, &a)
		},
		close: pool.Close,
	}, nil
}

// bootstrapAdmin instala el operador configurado con las variables ADMIN_*.
func (s *storage) bootstrapAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if !cfg.Enabled() {
		return nil
	}
	return s.seedAdmin(ctx, entity.Admin{
		ID:           uuid.NewString(),
		Username:     cfg.Username,
		DisplayName:  cfg.DisplayName,
		PasswordHash: cfg.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	})
}

type closer interface {
	Close() error
}

// cacheBackend elige Redis si está configurado, si no el mapa en proceso.
func cacheBackend(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (analytics.CacheBackend, closer, error) {
	if !cfg.Enabled() {
		log.Info().Msg("aggregate cache backed by process memory")
		return cache.NewMemory(0), nil, nil
	}
	r, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("conectando a Redis: %w", err)
	}
	log.Info().Msg("aggregate cache backed by Redis")
	return r, r, nil
}

func closeAll(closers ...closer) error {
	var err error
	for _, c := range closers {
		if c != nil {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
