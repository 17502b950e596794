package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/pkg/config"
)

var _ analytics.CacheBackend = (*Redis)(nil)

const (
	keyNamespace = "shelf"
	cachePrefix  = "cache"
	scanCount    = 200
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Redis guarda las entradas del caché en Redis bajo el namespace shelf:cache.
type Redis struct {
	store cmdable
	raw   *redis.Client
}

// NewRedis conecta a Redis y verifica la conectividad.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping a redis: %w", err)
	}
	return &Redis{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("se requiere url o address de redis")
	}
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parseando url de redis: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.store.Get(ctx, r.buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.store.Set(ctx, r.buildKey(key), value, ttl).Err()
}

func (r *Redis) Touch(ctx context.Context, key string, ttl time.Duration) error {
	return r.store.Expire(ctx, r.buildKey(key), ttl).Err()
}

// DeletePrefix recorre el namespace con SCAN y borra las claves coincidentes por lotes.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	match := r.buildKey(prefix) + "*"
	var cursor uint64
	for {
		keys, next, err := r.store.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", match, err)
		}
		if len(keys) > 0 {
			if err := r.store.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("borrando claves de caché: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping verifica la conexión.
func (r *Redis) Ping(ctx context.Context) error {
	return r.store.Ping(ctx).Err()
}

// Close cierra el cliente subyacente si existe.
func (r *Redis) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

func (r *Redis) buildKey(key string) string {
	return strings.Join([]string{keyNamespace, cachePrefix, strings.TrimSpace(key)}, ":")
}
