package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"market-insights/backend-go/internal/config"
)

var ErrMalformedPayload = errors.New("origin payload missing count or items")

// FetchResult is a payload exactly as the origin sent it, or as it was cached.
type FetchResult struct {
	Body   []byte
	Cached bool
}

// payloadShape is only used to gate caching; the body itself is passed on
// untouched.
type payloadShape struct {
	Count *int               `json:"count"`
	Items *[]json.RawMessage `json:"items"`
}

// Fetcher is the cache-aside read path. The cache key and the origin endpoint
// are the same string.
type Fetcher struct {
	cache         Cache
	origin        Origin
	ttl           time.Duration
	writeTimeout  time.Duration
	originTimeout time.Duration
	group         *singleflight.Group
	writes        sync.WaitGroup
	log           *zap.Logger
}

func NewFetcher(cfg config.Config, cache Cache, origin Origin, log *zap.Logger) *Fetcher {
	f := &Fetcher{
		cache:         cache,
		origin:        origin,
		ttl:           cfg.CacheTTL,
		writeTimeout:  cfg.CacheWriteTimeout,
		originTimeout: cfg.OriginTimeout,
		log:           log,
	}
	if cfg.CoalesceFetches {
		f.group = &singleflight.Group{}
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, key string) (FetchResult, error) {
	if f.cache != nil {
		if b, ok := f.cache.Get(ctx, key); ok {
			f.log.Debug("cache hit", zap.String("key", key))
			return FetchResult{Body: b, Cached: true}, nil
		}
	}
	if f.group == nil {
		return f.fetchOrigin(ctx, key)
	}
	return f.fetchShared(ctx, key)
}

// fetchShared runs one origin call per key for all concurrent callers. The
// call is detached from its callers and bounded by the origin timeout. Each
// caller stops waiting on its own ctx.
func (f *Fetcher) fetchShared(ctx context.Context, key string) (FetchResult, error) {
	ch := f.group.DoChan(key, func() (any, error) {
		octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.originTimeout)
		defer cancel()
		return f.fetchOrigin(octx, key)
	})
	select {
	case res := <-ch:
		if res.Shared {
			f.log.Debug("coalesced origin fetch", zap.String("key", key))
		}
		if res.Err != nil {
			return FetchResult{}, res.Err
		}
		return res.Val.(FetchResult), nil
	case <-ctx.Done():
		return FetchResult{}, ctx.Err()
	}
}

func (f *Fetcher) fetchOrigin(ctx context.Context, key string) (FetchResult, error) {
	body, err := f.origin.Fetch(ctx, key)
	if err != nil {
		return FetchResult{}, err
	}
	var shape payloadShape
	if err := json.Unmarshal(body, &shape); err != nil {
		return FetchResult{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if shape.Count == nil || shape.Items == nil {
		return FetchResult{}, fmt.Errorf("decode %s: %w", key, ErrMalformedPayload)
	}
	if f.cache != nil && *shape.Count > 0 && len(*shape.Items) > 0 {
		f.writeBehind(key, body)
	}
	return FetchResult{Body: body}, nil
}

// writeBehind stores the payload without holding up the response. Its error
// is only ever logged.
func (f *Fetcher) writeBehind(key string, body []byte) {
	f.writes.Add(1)
	go func() {
		defer f.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.writeTimeout)
		defer cancel()
		if err := f.cache.Set(ctx, key, body, f.ttl); err != nil {
			f.log.Debug("cache write skipped", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Wait blocks until pending cache writes finish or ctx is done.
func (f *Fetcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.writes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
