package recall

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

var errUnreachable = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

// flakyClient passes commands through to a real client unless the command name
// is listed in fail, in which case it returns errUnreachable.
type flakyClient struct {
	redis.Cmdable
	mu   sync.Mutex
	fail map[string]bool
}

func newFlakyClient(inner redis.Cmdable, fail ...string) *flakyClient {
	f := &flakyClient{Cmdable: inner, fail: make(map[string]bool)}
	for _, name := range fail {
		f.fail[name] = true
	}
	return f
}

func (f *flakyClient) failing(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[name]
}

func (f *flakyClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.failing("incr") {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(errUnreachable)
		return cmd
	}
	return f.Cmdable.Incr(ctx, key)
}

func (f *flakyClient) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.failing("rpush") {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(errUnreachable)
		return cmd
	}
	return f.Cmdable.RPush(ctx, key, values...)
}

func (f *flakyClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failing("get") {
		cmd := redis.NewStringCmd(ctx)
		cmd.SetErr(errUnreachable)
		return cmd
	}
	return f.Cmdable.Get(ctx, key)
}

func (f *flakyClient) SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failing("setex") {
		cmd := redis.NewStatusCmd(ctx)
		cmd.SetErr(errUnreachable)
		return cmd
	}
	return f.Cmdable.SetEx(ctx, key, value, expiration)
}

func (f *flakyClient) FlushDB(ctx context.Context) *redis.StatusCmd {
	if f.failing("flushdb") {
		cmd := redis.NewStatusCmd(ctx)
		cmd.SetErr(errUnreachable)
		return cmd
	}
	return f.Cmdable.FlushDB(ctx)
}

// echo returns its first argument, or an error when asked to.
func echo(ctx context.Context, args ...any) (any, error) {
	if len(args) > 0 {
		if err, ok := args[0].(error); ok {
			return nil, err
		}
		return args[0], nil
	}
	return "", nil
}

func mustMethod(t *testing.T, name string, client redis.Cmdable, op Operation) *Method {
	t.Helper()
	m, err := NewMethod(name, client, op)
	if err != nil {
		t.Fatalf("NewMethod failed: %v", err)
	}
	return m
}
