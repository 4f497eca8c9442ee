package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"market-insights/backend-go/internal/config"
)

var ErrCircuitOpen = errors.New("origin circuit breaker open")

const maxOriginBody = 16 << 20

// Origin fetches one logical endpoint from the upstream data service.
type Origin interface {
	Fetch(ctx context.Context, endpoint string) ([]byte, error)
}

type OriginClient struct {
	baseURL string
	client  string
	hc      *http.Client
	token   *TokenSource
	cb      *circuitBreaker
	log     *zap.Logger
}

type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("origin api: %d", e.Status)
}

type circuitBreaker struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	failures  int
	threshold int
	openedAt  time.Time
	cooldown  time.Duration
}

func newCircuitBreaker(clock clockwork.Clock, threshold int, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{clock: clock, threshold: threshold, cooldown: cooldown}
}

func (c *circuitBreaker) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.threshold <= 0 || c.failures < c.threshold {
		return true
	}
	if c.clock.Since(c.openedAt) > c.cooldown {
		c.failures = 0
		c.openedAt = time.Time{}
		return true
	}
	return false
}

func (c *circuitBreaker) success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.openedAt = time.Time{}
}

func (c *circuitBreaker) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.threshold > 0 && c.failures >= c.threshold {
		c.openedAt = c.clock.Now()
	}
}

func NewOriginClient(cfg config.Config, token *TokenSource, log *zap.Logger) *OriginClient {
	return newOriginClient(cfg, token, log, clockwork.NewRealClock())
}

func newOriginClient(cfg config.Config, token *TokenSource, log *zap.Logger, clock clockwork.Clock) *OriginClient {
	base := cfg.OriginHost
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &OriginClient{
		baseURL: strings.TrimRight(base, "/"),
		client:  cfg.InternalClient,
		hc: &http.Client{
			Timeout: cfg.OriginTimeout,
		},
		token: token,
		cb:    newCircuitBreaker(clock, cfg.CircuitFailLimit, cfg.CircuitCooldown),
		log:   log,
	}
}

// Fetch returns the raw body of GET /<endpoint>. Non-2xx replies come back as
// *UpstreamError.
func (c *OriginClient) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	if !c.cb.allow() {
		return nil, ErrCircuitOpen
	}
	body, err := c.get(ctx, endpoint)
	if err != nil {
		c.cb.fail()
		c.log.Warn("origin fetch failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	c.cb.success()
	return body, nil
}

func (c *OriginClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+strings.TrimLeft(endpoint, "/"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer Internal")
	req.Header.Set("X-Internal-Client", c.client)
	token := ""
	if c.token != nil {
		token = c.token.Token()
	}
	req.Header.Set("X-Internal-Token", token)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &UpstreamError{Status: res.StatusCode, Body: string(body)}
	}
	return io.ReadAll(io.LimitReader(res.Body, maxOriginBody))
}
