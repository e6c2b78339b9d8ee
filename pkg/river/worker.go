// Package river warms the expiring cache from River jobs.
//
// A PrefetchWorker runs the cached fetch for a URL, so a later caller finds a
// live result:<url> entry. The access counter counts prefetches like any other
// call.
package river

import (
	"context"
	"errors"
	"fmt"

	"github.com/riverqueue/river"

	"recall/pkg/recall"
)

// PrefetchArgs are the arguments of a cache warming job.
type PrefetchArgs struct {
	URL string `json:"url"`
}

func (PrefetchArgs) Kind() string { return "recall_prefetch" }

// PrefetchWorker is a River worker that calls an expiring-cache fetch.
type PrefetchWorker struct {
	river.WorkerDefaults[PrefetchArgs]

	// Fetch is normally the FetchFunc returned by recall.NewExpiringCache
	Fetch recall.FetchFunc
}

// NewPrefetchWorker creates a PrefetchWorker for fetch.
func NewPrefetchWorker(fetch recall.FetchFunc) *PrefetchWorker {
	return &PrefetchWorker{Fetch: fetch}
}

// Work fetches job.Args.URL through the cache.
func (w *PrefetchWorker) Work(ctx context.Context, job *river.Job[PrefetchArgs]) error {
	if job.Args.URL == "" {
		return river.JobCancel(errors.New("prefetch job has no url"))
	}
	if _, err := w.Fetch(ctx, job.Args.URL); err != nil {
		return classifyError(job.ID, err)
	}
	return nil
}

// classifyError converts fetch errors to River-appropriate errors.
func classifyError(jobID int64, err error) error {
	// Context cancellation - don't retry, job was cancelled
	if errors.Is(err, context.Canceled) {
		return river.JobCancel(err)
	}

	// A bad stored counter will not fix itself on retry
	var formatErr *recall.FormatError
	if errors.As(err, &formatErr) {
		return river.JobCancel(err)
	}

	var connErr *recall.ConnectivityError
	if errors.As(err, &connErr) {
		return fmt.Errorf("prefetch job %d: store unavailable: %w", jobID, err)
	}

	// Default: return error as-is, let River retry
	return fmt.Errorf("prefetch job %d: %w", jobID, err)
}
