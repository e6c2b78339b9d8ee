package recall

import (
	"context"
	"log/slog"
)

// SlogObserver implements Observer using Go's structured logging (log/slog).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	cache, err := recall.NewCache(ctx, rdb, recall.WithObserver(recall.NewSlogObserver(logger, slog.LevelInfo)))
type SlogObserver struct {
	logger   *slog.Logger
	minLevel slog.Level
}

// NewSlogObserver creates an observer that logs to the given slog.Logger.
// Only events at or above minLevel will be logged.
func NewSlogObserver(logger *slog.Logger, minLevel slog.Level) *SlogObserver {
	return &SlogObserver{
		logger:   logger,
		minLevel: minLevel,
	}
}

func (o *SlogObserver) OnCall(ctx context.Context, event *CallEvent) {
	attrs := []any{
		slog.String("identity", event.Identity),
		slog.String("wrapper", event.Wrapper),
	}
	if event.Key != "" {
		attrs = append(attrs, slog.String("key", event.Key))
	}
	attrs = append(attrs, slog.Duration("duration", event.Duration))

	if event.Error != nil {
		if o.minLevel <= slog.LevelWarn {
			attrs = append(attrs, slog.String("error", event.Error.Error()))
			o.logger.WarnContext(ctx, "call failed", attrs...)
		}
		return
	}
	if o.minLevel <= slog.LevelDebug {
		o.logger.DebugContext(ctx, "call completed", attrs...)
	}
}

func (o *SlogObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	if event.Error != nil {
		if o.minLevel <= slog.LevelWarn {
			o.logger.WarnContext(ctx, "cache check failed",
				slog.String("key", event.Key),
				slog.String("error", event.Error.Error()),
			)
		}
		return
	}
	if o.minLevel <= slog.LevelDebug {
		o.logger.DebugContext(ctx, "cache check",
			slog.String("key", event.Key),
			slog.Bool("hit", event.Hit),
			slog.Duration("latency", event.Latency),
		)
	}
}

func (o *SlogObserver) OnFlush(ctx context.Context, event *FlushEvent) {
	if event.Error != nil {
		if o.minLevel <= slog.LevelError {
			o.logger.ErrorContext(ctx, "store flush failed",
				slog.String("mode", event.Mode.String()),
				slog.String("error", event.Error.Error()),
			)
		}
		return
	}
	if o.minLevel <= slog.LevelInfo {
		o.logger.InfoContext(ctx, "store flushed",
			slog.String("mode", event.Mode.String()),
		)
	}
}
