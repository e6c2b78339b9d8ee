// Package web fetches pages over HTTP for the expiring cache.
package web

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"recall/pkg/recall"
)

const (
	DefaultRequestTimeout = 20 * time.Second
	DefaultUserAgent      = "recall/1.0"
	DefaultMaxBodySize    = 10 << 20
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Cause
}

// ErrUnsupportedScheme is returned for URLs that are not http:// or https://.
var ErrUnsupportedScheme = errors.New("url must start with http:// or https://")

// ErrBodyTooLarge is returned when a response body exceeds the configured
// limit. The partial body is discarded, so nothing truncated reaches a cache.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRequestTimeout bounds each request. Zero keeps colly's default.
func WithRequestTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the accepted body size in bytes. Zero or a negative
// value disables the limit.
func WithMaxBodySize(n int) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// Fetcher returns response bodies as text. It does not retry and does not
// cache; wrap FetchFunc with recall.NewExpiringCache for that.
type Fetcher struct {
	timeout     time.Duration
	userAgent   string
	maxBodySize int
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultRequestTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// collector builds a fresh collector per request so concurrent Fetch calls do
// not share callbacks.
//
// colly truncates at MaxBodySize without reporting it, so the collector reads
// one byte past the limit and Fetch rejects anything that long.
func (f *Fetcher) collector(ctx context.Context) *colly.Collector {
	readLimit := 0
	if f.maxBodySize > 0 {
		readLimit = f.maxBodySize + 1
	}
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
		colly.UserAgent(f.userAgent),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(readLimit),
	)
	if f.timeout > 0 {
		c.SetRequestTimeout(f.timeout)
	}
	c.Context = ctx
	return c
}

// Fetch GETs rawURL and returns the body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", ErrUnsupportedScheme
	}

	c := f.collector(ctx)

	var body []byte
	var statusErr error
	c.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			statusErr = &StatusError{URL: rawURL, StatusCode: r.StatusCode, Cause: err}
		}
	})

	if err := c.Visit(rawURL); err != nil {
		if statusErr != nil {
			return "", statusErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if statusErr != nil {
		return "", statusErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.maxBodySize > 0 && len(body) > f.maxBodySize {
		return "", fmt.Errorf("fetch %s: %w (%d bytes)", rawURL, ErrBodyTooLarge, f.maxBodySize)
	}
	return string(body), nil
}

// FetchFunc adapts the fetcher to recall.FetchFunc.
func (f *Fetcher) FetchFunc() recall.FetchFunc {
	return f.Fetch
}
