package services

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConn owns the single connection to the cache service. A nil client
// means closed; an open client has answered a PING and is ready.
//
// Any transport error seen on the client tears it down, and the next
// EnsureReady dials again. After a failed dial no new dial is attempted for
// backoff, so callers queue behind at most one dial per backoff window.
type RedisConn struct {
	addr    string
	timeout time.Duration
	backoff time.Duration
	clock   clockwork.Clock
	log     *zap.Logger
	open    func(ctx context.Context) (*redis.Client, error)

	mu         sync.Mutex
	client     *redis.Client
	warned     bool
	failedDial time.Time
}

func NewRedisConn(addr string, timeout, backoff time.Duration, log *zap.Logger) *RedisConn {
	c := &RedisConn{addr: addr, timeout: timeout, backoff: backoff, clock: clockwork.NewRealClock(), log: log}
	c.open = c.dial
	return c
}

func (c *RedisConn) dial(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        c.addr,
		DialTimeout: c.timeout,
		MaxRetries:  -1,
	})
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Connect opens the transport if it is closed. Failures are logged and leave
// the connection closed.
func (c *RedisConn) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectLocked(ctx)
}

func (c *RedisConn) connectLocked(ctx context.Context) {
	if c.client != nil {
		return
	}
	if !c.failedDial.IsZero() && c.clock.Since(c.failedDial) < c.backoff {
		return
	}
	client, err := c.open(ctx)
	if err != nil {
		c.failedDial = c.clock.Now()
		c.log.Debug("connect failed", zap.String("addr", c.addr), zap.Error(err))
		return
	}
	client.AddHook(faultHook{conn: c, client: client})
	c.client = client
	c.failedDial = time.Time{}
	c.warned = false
	c.log.Info("connected", zap.String("addr", c.addr))
}

// Disconnect closes the transport. Safe to call on a closed connection.
func (c *RedisConn) Disconnect() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		c.log.Debug("close failed", zap.Error(err))
	}
}

// EnsureReady reconnects a closed transport and reports whether commands can
// be sent. The uncached-mode warning is logged once per outage.
func (c *RedisConn) EnsureReady(ctx context.Context) bool {
	return c.acquire(ctx) != nil
}

func (c *RedisConn) acquire(ctx context.Context) *redis.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectLocked(ctx)
	if c.client == nil {
		if !c.warned {
			c.log.Warn("redis client is not ready, operating in uncached mode", zap.String("addr", c.addr))
			c.warned = true
		}
		return nil
	}
	return c.client
}

// fault drops client if it is still the current one.
func (c *RedisConn) fault(client *redis.Client, err error) {
	c.mu.Lock()
	if c.client != client {
		c.mu.Unlock()
		return
	}
	c.client = nil
	c.mu.Unlock()

	c.log.Error("connection error", zap.String("addr", c.addr), zap.Error(err))
	_ = client.Close()
}

type faultHook struct {
	conn   *RedisConn
	client *redis.Client
}

func (h faultHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if isTransportError(err) {
			h.conn.fault(h.client, err)
		}
		return conn, err
	}
}

func (h faultHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if isTransportError(err) {
			h.conn.fault(h.client, err)
		}
		return err
	}
}

func (h faultHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if isTransportError(err) {
			h.conn.fault(h.client, err)
		}
		return err
	}
}

// isTransportError reports errors that mean the link itself is gone, as
// opposed to a nil reply or an error reply from the server.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, redis.Nil) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.Canceled) {
		return false
	}
	var replyErr redis.Error
	return !errors.As(err, &replyErr)
}
