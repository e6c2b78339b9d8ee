package recall

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"pgregory.net/rapid"
)

func TestCache_RoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, client)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	key, err := cache.Store(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if s, ok, err := cache.GetStr(ctx, key); err != nil || !ok || s != "hello" {
		t.Errorf("GetStr = %q, %v, %v", s, ok, err)
	}

	key, _ = cache.Store(ctx, 42)
	if n, ok, err := cache.GetInt(ctx, key); err != nil || !ok || n != 42 {
		t.Errorf("GetInt = %d, %v, %v", n, ok, err)
	}

	key, _ = cache.Store(ctx, 3.14)
	if f, ok, err := cache.GetFloat(ctx, key); err != nil || !ok || f != 3.14 {
		t.Errorf("GetFloat = %v, %v, %v", f, ok, err)
	}

	key, _ = cache.Store(ctx, []byte{0x00, 0x01})
	if raw, ok, err := cache.Get(ctx, key); err != nil || !ok || !bytes.Equal(raw, []byte{0x00, 0x01}) {
		t.Errorf("Get = %v, %v, %v", raw, ok, err)
	}
}

func TestCache_MissingKeyIsAbsent(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, client)
	if err != nil {
		t.Fatal(err)
	}

	raw, ok, err := cache.Get(ctx, "missing-key")
	if err != nil {
		t.Fatalf("expected no error for a missing key, got %v", err)
	}
	if ok || raw != nil {
		t.Errorf("expected absent, got %v, %v", raw, ok)
	}

	if _, ok, err := cache.GetInt(ctx, "missing-key"); ok || err != nil {
		t.Errorf("GetInt on missing key: ok=%v err=%v", ok, err)
	}
}

func TestCache_DecodeFailure(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, client)
	if err != nil {
		t.Fatal(err)
	}
	key, _ := cache.Store(ctx, "not a number")

	_, ok, err := cache.GetInt(ctx, key)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !ok {
		t.Error("the key exists, ok should be true")
	}
	if fe.Key != key || fe.Decoder != "int" || string(fe.Value) != "not a number" {
		t.Errorf("unexpected error fields: %+v", fe)
	}
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Errorf("expected parse error as cause, got %v", fe.Cause)
	}

	key, _ = cache.Store(ctx, []byte{0xff, 0xfe})
	if _, _, err := cache.GetStr(ctx, key); !errors.As(err, &fe) || fe.Decoder != "string" {
		t.Errorf("expected string FormatError for invalid UTF-8, got %v", err)
	}
}

func TestCache_CustomDecoder(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, client)
	if err != nil {
		t.Fatal(err)
	}
	key, _ := cache.Store(ctx, "a,b,c")

	length := Decoder[int]{Name: "length", Decode: func(raw []byte) (int, error) { return len(raw), nil }}
	n, ok, err := GetAs(ctx, cache, key, length)
	if err != nil || !ok || n != 5 {
		t.Errorf("GetAs = %d, %v, %v", n, ok, err)
	}
}

func TestCache_RejectsNonScalar(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, client)
	if err != nil {
		t.Fatal(err)
	}

	_, err = cache.Store(ctx, map[string]int{"a": 1})
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
	if _, err := cache.Store(ctx, true); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("bool should be rejected, got %v", err)
	}

	// Attempts are counted, but nothing else is written
	if got, _ := mr.Get("store"); got != "2" {
		t.Errorf("expected 2 counted attempts, got %q", got)
	}
	if mr.Exists("store:outputs") {
		t.Error("rejected values must not produce outputs")
	}
}

func TestNewCache_FlushesStore(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Set("leftover", "1")

	if _, err := NewCache(context.Background(), client); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("leftover") {
		t.Error("NewCache should flush existing keys")
	}
}

func TestNewCache_WithoutFlush(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Set("leftover", "1")

	if _, err := NewCache(context.Background(), client, WithoutFlush()); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("leftover") {
		t.Error("WithoutFlush should keep existing keys")
	}
}

func TestNewCache_WithFlushAll(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.DB(3).Set("other-db", "1")

	if _, err := NewCache(context.Background(), client, WithFlushAll()); err != nil {
		t.Fatal(err)
	}
	if mr.DB(3).Exists("other-db") {
		t.Error("WithFlushAll should clear every database")
	}
}

func TestNewCache_FlushFailure(t *testing.T) {
	_, client := newTestRedis(t)
	_, err := NewCache(context.Background(), newFlakyClient(client, "flushdb"))
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) || connErr.Command != "FLUSHDB" {
		t.Fatalf("expected FLUSHDB ConnectivityError, got %v", err)
	}
}

func TestNewCache_WithIdentity(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, client, WithIdentity("Cache.store"))
	if err != nil {
		t.Fatal(err)
	}
	cache.Store(ctx, "x")

	if cache.StoreMethod().Name() != "Cache.store" {
		t.Errorf("unexpected identity %q", cache.StoreMethod().Name())
	}
	if got, _ := mr.Get("Cache.store"); got != "1" {
		t.Errorf("expected counter under custom identity, got %q", got)
	}
}

func TestNewCache_NilClient(t *testing.T) {
	if _, err := NewCache(context.Background(), nil); !errors.Is(err, ErrNilClient) {
		t.Errorf("expected ErrNilClient, got %v", err)
	}
}

func TestCache_StoreConnectivityError(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, newFlakyClient(client, "incr"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = cache.Store(ctx, "x")
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("nothing should be written when the counter fails, found %v", mr.Keys())
	}
}

// ============================================================================
// Property Tests
// ============================================================================

func TestProperty_StoreGetRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	cache, err := NewCache(ctx, client)
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOf(rapid.Byte()).Draw(rt, "raw")
		key, err := cache.Store(ctx, raw)
		if err != nil {
			rt.Fatal(err)
		}
		got, ok, err := cache.Get(ctx, key)
		if err != nil || !ok {
			rt.Fatalf("Get(%s): ok=%v err=%v", key, ok, err)
		}
		if !bytes.Equal(got, raw) {
			rt.Fatalf("round trip mismatch: %v != %v", got, raw)
		}

		n := rapid.Int64().Draw(rt, "n")
		key, err = cache.Store(ctx, n)
		if err != nil {
			rt.Fatal(err)
		}
		if got, _, err := cache.GetInt(ctx, key); err != nil || got != n {
			rt.Fatalf("GetInt = %d, %v; want %d", got, err, n)
		}
	})
}

func TestProperty_StoreKeysAreDistinct(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	cache, err := NewCache(ctx, client)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := cache.Store(ctx, i)
		if err != nil {
			t.Fatal(err)
		}
		if seen[key] {
			t.Fatalf("key %s returned twice", key)
		}
		seen[key] = true
	}
	for key := range seen {
		if _, ok, _ := cache.Get(ctx, key); !ok {
			t.Fatalf("key %s was overwritten or lost", key)
		}
	}
}
