package recall

import (
	"context"
	"time"
)

// Observer is the interface for observing wrapped calls and cache lookups.
// Implementations can emit metrics, logs, or traces to their observability backend.
//
// All Observer methods are called synchronously on the caller's goroutine, so
// implementations should be fast and non-blocking.
type Observer interface {
	// OnCall is called after a wrapped operation returns (success or failure).
	OnCall(ctx context.Context, event *CallEvent)

	// OnCacheCheck is called after the expiring cache looks up a result.
	OnCacheCheck(ctx context.Context, event *CacheCheckEvent)

	// OnFlush is called after NewCache clears the store.
	OnFlush(ctx context.Context, event *FlushEvent)
}

// CallEvent is emitted when an instrumented operation completes.
//
// Identity and Wrapper come from a bounded set and are safe as metric labels.
// Key carries the per-argument store key for access events and is meant for
// logs only.
type CallEvent struct {
	Identity string
	Wrapper  string // "count_calls", "call_history" or "count_accesses"
	Key      string // empty unless Wrapper is "count_accesses"
	Duration time.Duration
	Error    error // nil if successful
}

// CacheCheckEvent is emitted when the expiring cache checks for a live result.
type CacheCheckEvent struct {
	Key     string
	Hit     bool          // true if a live result was found
	Latency time.Duration // Time spent in GET
	Error   error         // nil if the lookup succeeded
}

// FlushEvent is emitted when the Cache façade clears the store.
type FlushEvent struct {
	Mode  FlushMode
	Error error
}

// NoOpObserver is a no-op implementation of Observer.
// Useful as a base for partial implementations.
type NoOpObserver struct{}

func (NoOpObserver) OnCall(ctx context.Context, event *CallEvent)             {}
func (NoOpObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {}
func (NoOpObserver) OnFlush(ctx context.Context, event *FlushEvent)           {}

// MultiObserver combines multiple observers into one.
// Events are sent to all observers in order.
type MultiObserver struct {
	Observers []Observer
}

func (m *MultiObserver) OnCall(ctx context.Context, event *CallEvent) {
	for _, obs := range m.Observers {
		obs.OnCall(ctx, event)
	}
}

func (m *MultiObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	for _, obs := range m.Observers {
		obs.OnCacheCheck(ctx, event)
	}
}

func (m *MultiObserver) OnFlush(ctx context.Context, event *FlushEvent) {
	for _, obs := range m.Observers {
		obs.OnFlush(ctx, event)
	}
}

func (m FlushMode) String() string {
	switch m {
	case FlushDB:
		return "flushdb"
	case FlushAll:
		return "flushall"
	case FlushNone:
		return "none"
	default:
		return "unknown"
	}
}
