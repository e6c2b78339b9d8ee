package recall

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// FetchFunc fetches the value for a single string argument, typically a URL.
// It may block for as long as the collaborator takes; deadlines come from ctx.
type FetchFunc func(ctx context.Context, arg string) (string, error)

// AccessIdentity is the CallEvent identity reported by CountAccesses. The
// per-argument counter key travels in CallEvent.Key.
const AccessIdentity = "count_accesses"

// CountAccesses increments count:<arg> on every call, hit or miss, then delegates.
func CountAccesses(client redis.Cmdable, fetch FetchFunc, opts ...Option) (FetchFunc, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := newSettings(opts)
	return func(ctx context.Context, arg string) (string, error) {
		start := time.Now()
		key := AccessKey(arg)
		result, err := func() (string, error) {
			if err := client.Incr(ctx, key).Err(); err != nil {
				return "", storeError("INCR", key, err)
			}
			return fetch(ctx, arg)
		}()
		s.observer.OnCall(ctx, &CallEvent{
			Identity: AccessIdentity,
			Wrapper:  "count_accesses",
			Key:      key,
			Duration: time.Since(start),
			Error:    err,
		})
		return result, err
	}, nil
}

// CacheResult memoizes fetch under result:<arg> for ttl. A live entry is
// returned without calling fetch; otherwise the fresh value is written with
// SETEX. A failed fetch writes nothing.
//
// The lookup, fetch and write are separate commands. Two callers missing on the
// same argument at once will both fetch, and the later SETEX wins.
func CacheResult(client redis.Cmdable, ttl time.Duration, fetch FetchFunc, opts ...Option) (FetchFunc, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if err := validateTTL(ttl); err != nil {
		return nil, err
	}
	s := newSettings(opts)
	return func(ctx context.Context, arg string) (string, error) {
		key := ResultKey(arg)

		start := time.Now()
		cached, err := client.Get(ctx, key).Result()
		hit := err == nil
		if errors.Is(err, redis.Nil) {
			err = nil
		}
		err = storeError("GET", key, err)
		s.observer.OnCacheCheck(ctx, &CacheCheckEvent{
			Key:     key,
			Hit:     hit,
			Latency: time.Since(start),
			Error:   err,
		})
		if err != nil {
			return "", err
		}
		if hit {
			return cached, nil
		}

		result, err := fetch(ctx, arg)
		if err != nil {
			return "", err
		}
		if err := client.SetEx(ctx, key, result, ttl).Err(); err != nil {
			return "", storeError("SETEX", key, err)
		}
		return result, nil
	}, nil
}

// NewExpiringCache composes CountAccesses over CacheResult, so every call is
// counted before the cache is consulted.
func NewExpiringCache(client redis.Cmdable, ttl time.Duration, fetch FetchFunc, opts ...Option) (FetchFunc, error) {
	cached, err := CacheResult(client, ttl, fetch, opts...)
	if err != nil {
		return nil, err
	}
	return CountAccesses(client, cached, opts...)
}

func validateTTL(ttl time.Duration) error {
	if ttl < time.Second || ttl%time.Second != 0 {
		return ErrInvalidTTL
	}
	return nil
}
