package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/pkg/metrics"
)

var _ inventory.StatsInvalidator = (*AggregateCache)(nil)

// CacheBackend es un almacén clave-valor con expiración por clave.
type CacheBackend interface {
	// Get devuelve (nil, false, nil) si la clave no está.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Touch renueva la expiración de una clave existente.
	Touch(ctx context.Context, key string, ttl time.Duration) error
	// DeletePrefix elimina todas las claves que empiezan con prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Pool selecciona uno de los pools independientes del caché.
type Pool int

const (
	// PoolStats guarda estadísticas volátiles del dashboard.
	PoolStats Pool = iota
	// PoolOptions guarda listas de opciones que cambian poco.
	PoolOptions
)

// PoolConfig acota la vida de las entradas de un pool. Una entrada expira TTL después de
// escrita o Idle después de su última lectura, lo que ocurra primero. Idle 0 desactiva
// la ventana de acceso.
type PoolConfig struct {
	Name string
	TTL  time.Duration
	Idle time.Duration
}

// DefaultStatsPool y DefaultOptionsPool son las duraciones de producción.
var (
	DefaultStatsPool   = PoolConfig{Name: "stats", TTL: 5 * time.Minute, Idle: 2 * time.Minute}
	DefaultOptionsPool = PoolConfig{Name: "options", TTL: 10 * time.Minute}
)

// AggregateCache es un caché read-through de cifras derivadas con dos pools. Pertenece a
// quien lo construye y se inyecta donde se necesite.
//
// Cada pool lleva una generación que Invalidate incrementa. Un valor cargado mientras la
// generación cambió se devuelve al llamador pero no se guarda.
type AggregateCache struct {
	backend CacheBackend
	pools   map[Pool]PoolConfig
	gens    map[Pool]*atomic.Uint64
	log     zerolog.Logger
	metrics *metrics.CacheMetrics
	now     func() time.Time
}

// NewAggregateCache construye el caché sobre backend.
func NewAggregateCache(backend CacheBackend, stats, options PoolConfig, log zerolog.Logger, m *metrics.CacheMetrics) *AggregateCache {
	return &AggregateCache{
		backend: backend,
		pools:   map[Pool]PoolConfig{PoolStats: stats, PoolOptions: options},
		gens:    map[Pool]*atomic.Uint64{PoolStats: new(atomic.Uint64), PoolOptions: new(atomic.Uint64)},
		log:     log.With().Str("component", "aggregate_cache").Logger(),
		metrics: m,
		now:     time.Now,
	}
}

type envelope struct {
	Value     json.RawMessage `json:"v"`
	WrittenAt time.Time       `json:"w"`
}

// Fetch devuelve el valor en caché de key en pool, o llama a load y guarda el resultado.
// Si el backend falla se llama a load directamente.
func Fetch[T any](ctx context.Context, c *AggregateCache, pool Pool, key string, load func(context.Context) (T, error)) (T, error) {
	cfg := c.pools[pool]
	full := cfg.Name + ":" + key

	if v, ok := lookup[T](ctx, c, cfg, full); ok {
		c.metrics.IncHit(cfg.Name)
		return v, nil
	}
	c.metrics.IncMiss(cfg.Name)

	gen := c.gens[pool]
	before := gen.Load()
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if gen.Load() != before {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", full).Msg("encode cache value")
		return v, nil
	}
	env, err := json.Marshal(envelope{Value: raw, WrittenAt: c.now().UTC()})
	if err == nil {
		err = c.backend.Set(ctx, full, env, cfg.window(cfg.TTL))
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", full).Msg("store cache value")
		return v, nil
	}
	// Una invalidación que cayó entre el chequeo y la escritura vuelve a descartar la entrada.
	if gen.Load() != before {
		if err := c.backend.DeletePrefix(ctx, full); err != nil {
			c.log.Warn().Err(err).Str("key", full).Msg("drop superseded cache value")
		}
	}
	return v, nil
}

func lookup[T any](ctx context.Context, c *AggregateCache, cfg PoolConfig, key string) (T, bool) {
	var zero T
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("read cache")
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, false
	}
	remaining := cfg.TTL - c.now().Sub(env.WrittenAt)
	if remaining <= 0 {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(env.Value, &v); err != nil {
		return zero, false
	}
	if cfg.Idle > 0 {
		if err := c.backend.Touch(ctx, key, cfg.window(remaining)); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("refresh cache entry")
		}
	}
	return v, true
}

// window es la expiración en el backend de una entrada a la que le queda left de vida.
func (p PoolConfig) window(left time.Duration) time.Duration {
	if p.Idle > 0 && p.Idle < left {
		return p.Idle
	}
	return left
}

// Invalidate descarta todas las entradas del pool.
func (c *AggregateCache) Invalidate(ctx context.Context, pool Pool) error {
	cfg := c.pools[pool]
	c.gens[pool].Add(1)
	if err := c.backend.DeletePrefix(ctx, cfg.Name+":"); err != nil {
		return fmt.Errorf("invalidando pool %s: %w", cfg.Name, err)
	}
	c.metrics.IncInvalidation(cfg.Name)
	return nil
}

// InvalidateStats descarta todas las estadísticas en caché.
func (c *AggregateCache) InvalidateStats(ctx context.Context) error {
	return c.Invalidate(ctx, PoolStats)
}

// InvalidateOptions descarta todas las listas de opciones en caché.
func (c *AggregateCache) InvalidateOptions(ctx context.Context) error {
	return c.Invalidate(ctx, PoolOptions)
}
