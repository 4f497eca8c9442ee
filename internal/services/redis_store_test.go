package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type replyError string

func (e replyError) Error() string { return string(e) }
func (replyError) RedisError()     {}

// stubConn returns a connection whose dials are decided by up. Successful
// dials hand back a client pointed at a closed port.
func stubConn(t *testing.T, up *bool) (*RedisConn, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewRedisConn("127.0.0.1:1", 200*time.Millisecond, 0, zap.New(core))
	c.open = func(context.Context) (*redis.Client, error) {
		if !*up {
			return nil, errors.New("dial tcp 127.0.0.1:1: connection refused")
		}
		return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond}), nil
	}
	t.Cleanup(c.Disconnect)
	return c, logs
}

func uncachedWarnings(logs *observer.ObservedLogs) int {
	return logs.FilterMessage("redis client is not ready, operating in uncached mode").Len()
}

func TestEnsureReadyWarnsOncePerOutage(t *testing.T) {
	up := false
	c, logs := stubConn(t, &up)
	ctx := context.Background()

	if c.EnsureReady(ctx) {
		t.Fatal("expected not ready while down")
	}
	if c.EnsureReady(ctx) {
		t.Fatal("expected not ready while down")
	}
	if got := uncachedWarnings(logs); got != 1 {
		t.Fatalf("expected one warning, got %d", got)
	}

	up = true
	if !c.EnsureReady(ctx) {
		t.Fatal("expected ready after recovery")
	}

	// The warning re-arms once readiness was regained.
	up = false
	c.Disconnect()
	if c.EnsureReady(ctx) {
		t.Fatal("expected not ready after second outage")
	}
	if got := uncachedWarnings(logs); got != 2 {
		t.Fatalf("expected warning to re-arm, got %d warnings", got)
	}
}

func TestEnsureReadyDoesNotDuplicateClients(t *testing.T) {
	up := true
	c, _ := stubConn(t, &up)
	dials := 0
	open := c.open
	c.open = func(ctx context.Context) (*redis.Client, error) {
		dials++
		return open(ctx)
	}
	for i := 0; i < 3; i++ {
		if !c.EnsureReady(context.Background()) {
			t.Fatal("expected ready")
		}
	}
	if dials != 1 {
		t.Fatalf("expected a single dial, got %d", dials)
	}
}

func TestEnsureReadyBacksOffAfterFailedDial(t *testing.T) {
	up := false
	c, _ := stubConn(t, &up)
	clock := clockwork.NewFakeClock()
	c.clock = clock
	c.backoff = time.Second
	dials := 0
	open := c.open
	c.open = func(ctx context.Context) (*redis.Client, error) {
		dials++
		return open(ctx)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if c.EnsureReady(ctx) {
			t.Fatal("expected not ready while down")
		}
	}
	if dials != 1 {
		t.Fatalf("expected one dial inside the backoff window, got %d", dials)
	}

	up = true
	if c.EnsureReady(ctx) {
		t.Fatal("expected no redial before backoff elapses")
	}
	clock.Advance(time.Second)
	if !c.EnsureReady(ctx) {
		t.Fatal("expected redial after backoff")
	}
	if dials != 2 {
		t.Fatalf("expected 2 dials, got %d", dials)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	up := true
	c, _ := stubConn(t, &up)
	c.Connect(context.Background())
	c.Disconnect()
	c.Disconnect()
	if c.client != nil {
		t.Fatal("expected closed connection")
	}
}

func TestFaultIgnoresStaleClient(t *testing.T) {
	up := true
	c, _ := stubConn(t, &up)
	c.Connect(context.Background())
	current := c.client

	stale := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	c.fault(stale, errors.New("broken pipe"))
	if c.client != current {
		t.Fatal("stale fault must not drop the current client")
	}

	c.fault(current, errors.New("broken pipe"))
	if c.client != nil {
		t.Fatal("expected current client torn down")
	}
}

func TestTransportErrorTearsDownConnection(t *testing.T) {
	up := true
	c, _ := stubConn(t, &up)
	store := NewRedisStore(c, zap.NewNop())
	ctx := context.Background()

	if _, ok := store.Get(ctx, "insights"); ok {
		t.Fatal("expected miss against a dead port")
	}
	if c.client != nil {
		t.Fatal("expected transport error to close the connection")
	}

	up = false
	if c.EnsureReady(ctx) {
		t.Fatal("expected reconnect attempt to fail")
	}
}

func TestRedisStoreUncachedMode(t *testing.T) {
	up := false
	c, _ := stubConn(t, &up)
	store := NewRedisStore(c, zap.NewNop())
	ctx := context.Background()

	if _, ok := store.Get(ctx, "latest"); ok {
		t.Fatal("expected miss in uncached mode")
	}
	if err := store.Set(ctx, "latest", []byte(`{"count":1,"items":[1]}`), time.Hour); !errors.Is(err, ErrUncached) {
		t.Fatalf("expected ErrUncached, got %v", err)
	}
	if store.Ready(ctx) {
		t.Fatal("expected store not ready")
	}
}

func TestRedisConnUnreachableServer(t *testing.T) {
	c := NewRedisConn("127.0.0.1:1", 200*time.Millisecond, 0, zap.NewNop())
	c.Connect(context.Background())
	defer c.Disconnect()
	if c.EnsureReady(context.Background()) {
		t.Fatal("expected closed port to be unreachable")
	}
}

func TestCheckWrite(t *testing.T) {
	ok := redis.NewStatusResult("OK", nil)
	applied := redis.NewBoolResult(true, nil)

	if err := checkWrite(ok, applied, nil); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := checkWrite(ok, redis.NewBoolResult(false, nil), nil); err == nil {
		t.Fatal("expected error when expire was not applied")
	}
	if err := checkWrite(redis.NewStatusResult("", nil), applied, nil); err == nil {
		t.Fatal("expected error when set was not acknowledged")
	}
	if err := checkWrite(ok, applied, errors.New("EXECABORT")); err == nil {
		t.Fatal("expected exec error to surface")
	}
}

func TestIsTransportError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{redis.Nil, false},
		{redis.ErrClosed, false},
		{context.Canceled, false},
		{replyError("ERR unknown command 'JSON.GET'"), false},
		{errors.New("dial tcp: connection refused"), true},
		{context.DeadlineExceeded, true},
	}
	for _, tc := range cases {
		if got := isTransportError(tc.err); got != tc.want {
			t.Fatalf("isTransportError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
