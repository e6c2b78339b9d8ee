package recall

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClientFromURL creates a Redis client from a connection URL.
// Example: "redis://localhost:6379/0" or "redis://:password@localhost:6379/1"
//
// The caller owns the returned client and must Close it.
func NewClientFromURL(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Ping checks if the store connection is alive.
func Ping(ctx context.Context, client redis.Cmdable) error {
	if client == nil {
		return ErrNilClient
	}
	return storeError("PING", "", client.Ping(ctx).Err())
}

// CountKey is the call counter key for an operation identity.
func CountKey(identity string) string { return identity }

// InputsKey is the list of encoded argument tuples for an operation identity.
func InputsKey(identity string) string { return identity + ":inputs" }

// OutputsKey is the list of results for an operation identity.
func OutputsKey(identity string) string { return identity + ":outputs" }

// ResultKey is where the expiring cache keeps the fetched value for arg.
func ResultKey(arg string) string { return "result:" + arg }

// AccessKey counts fetch attempts (hits and misses) for arg.
func AccessKey(arg string) string { return "count:" + arg }
