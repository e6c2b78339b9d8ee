package recall

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStoreIdentity is the operation identity Cache uses for Store.
const DefaultStoreIdentity = "store"

// Cache stores scalar values under random keys. Store is instrumented with
// CountCalls and CallHistory, so its traffic can be replayed.
type Cache struct {
	client redis.Cmdable
	store  *Method
}

// NewCache creates a Cache over client.
//
// Construction flushes the selected database so each process starts from an
// empty store. Use WithoutFlush to keep existing keys or WithFlushAll to clear
// every database.
func NewCache(ctx context.Context, client redis.Cmdable, opts ...Option) (*Cache, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := newSettings(opts)
	identity := s.identity
	if identity == "" {
		identity = DefaultStoreIdentity
	}

	if err := flush(ctx, client, s.flush); err != nil {
		s.observer.OnFlush(ctx, &FlushEvent{Mode: s.flush, Error: err})
		return nil, err
	} else if s.flush != FlushNone {
		s.observer.OnFlush(ctx, &FlushEvent{Mode: s.flush})
	}

	c := &Cache{client: client}
	m, err := NewMethod(identity, client, c.put)
	if err != nil {
		return nil, err
	}
	c.store = CountCalls(CallHistory(m, opts...), opts...)
	return c, nil
}

func flush(ctx context.Context, client redis.Cmdable, mode FlushMode) error {
	switch mode {
	case FlushDB:
		return storeError("FLUSHDB", "", client.FlushDB(ctx).Err())
	case FlushAll:
		return storeError("FLUSHALL", "", client.FlushAll(ctx).Err())
	default:
		return nil
	}
}

// Store writes value under a fresh UUID and returns the key.
// value must be a string, []byte, integer or float.
func (c *Cache) Store(ctx context.Context, value any) (string, error) {
	out, err := c.store.Call(ctx, value)
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// StoreMethod returns the instrumented Store method, for Replay and ReadHistory.
func (c *Cache) StoreMethod() *Method {
	return c.store
}

func (c *Cache) put(ctx context.Context, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("store takes exactly one value, got %d", len(args))
	}
	value := args[0]
	if !isScalar(value) {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
	key := uuid.NewString()
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		return nil, storeError("SET", key, err)
	}
	return key, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// Get returns the raw value for key. A missing key reports ok == false and a
// nil error.
func (c *Cache) Get(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	raw, err = c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeError("GET", key, err)
	}
	return raw, true, nil
}

// Decoder converts a raw stored value. Name appears in FormatError.
type Decoder[T any] struct {
	Name   string
	Decode func(raw []byte) (T, error)
}

// Built-in decoders used by GetStr, GetInt and GetFloat.
var (
	DecodeString = Decoder[string]{Name: "string", Decode: func(raw []byte) (string, error) {
		if !utf8.Valid(raw) {
			return "", errors.New("invalid UTF-8")
		}
		return string(raw), nil
	}}

	DecodeInt = Decoder[int64]{Name: "int", Decode: func(raw []byte) (int64, error) {
		return strconv.ParseInt(string(raw), 10, 64)
	}}

	DecodeFloat = Decoder[float64]{Name: "float", Decode: func(raw []byte) (float64, error) {
		return strconv.ParseFloat(string(raw), 64)
	}}
)

// GetAs reads key and applies dec. A missing key reports ok == false; a value
// dec rejects is returned as a *FormatError.
func GetAs[T any](ctx context.Context, c *Cache, key string, dec Decoder[T]) (value T, ok bool, err error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return value, ok, err
	}
	value, err = dec.Decode(raw)
	if err != nil {
		var zero T
		return zero, true, &FormatError{Key: key, Decoder: dec.Name, Value: raw, Cause: err}
	}
	return value, true, nil
}

// GetStr reads key as UTF-8 text.
func (c *Cache) GetStr(ctx context.Context, key string) (string, bool, error) {
	return GetAs(ctx, c, key, DecodeString)
}

// GetInt reads key as a base-10 integer.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, bool, error) {
	return GetAs(ctx, c, key, DecodeInt)
}

// GetFloat reads key as a float.
func (c *Cache) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	return GetAs(ctx, c, key, DecodeFloat)
}
