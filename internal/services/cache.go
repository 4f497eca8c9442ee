package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"market-insights/backend-go/internal/config"
)

// ErrUncached is returned by writes while the cache is unreachable. Callers
// only log it.
var ErrUncached = errors.New("cache not ready")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// ReadyChecker is implemented by caches whose backing service can go away.
type ReadyChecker interface {
	Ready(ctx context.Context) bool
}

type MemoryCache struct {
	mu    sync.Mutex
	clock clockwork.Clock
	items map[string]memItem
}

type memItem struct {
	val []byte
	exp time.Time
}

// NewCache picks the backend named by cfg.CacheBackend. "none" yields a nil
// Cache and every fetch goes to the origin.
func NewCache(cfg config.Config, log *zap.Logger) Cache {
	switch cfg.CacheBackend {
	case "none":
		log.Info("cache disabled")
		return nil
	case "memory":
		log.Info("using in-process cache")
		return NewMemoryCache(clockwork.NewRealClock())
	default:
		conn := NewRedisConn(cfg.RedisAddr(), cfg.CacheConnectTimeout, cfg.CacheRetryBackoff, log.Named("redis"))
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CacheConnectTimeout)
		defer cancel()
		conn.Connect(ctx)
		return NewRedisStore(conn, log.Named("redis"))
	}
}

func NewMemoryCache(clock clockwork.Clock) *MemoryCache {
	return &MemoryCache{clock: clock, items: make(map[string]memItem)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !it.exp.IsZero() && !m.clock.Now().Before(it.exp) {
		delete(m.items, key)
		return nil, false
	}
	return it.val, true
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = m.clock.Now().Add(ttl)
	}
	m.items[key] = memItem{val: val, exp: exp}
	return nil
}

func (m *MemoryCache) Ready(context.Context) bool {
	return true
}
