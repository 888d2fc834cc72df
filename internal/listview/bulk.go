package listview

import (
	"context"
	"time"
)

// DefaultRequestTimeout bounds each request of a bulk run when no timeout is configured.
const DefaultRequestTimeout = 15 * time.Second

// BulkOptions configures a bulk run
type BulkOptions struct {
	// RequestTimeout bounds every per-record request.
	RequestTimeout time.Duration
}

func (o BulkOptions) timeout() time.Duration {
	if o.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return o.RequestTimeout
}

// BulkReport is the aggregate outcome of a bulk run.
type BulkReport struct {
	Entity     string           `json:"entity"`
	Action     string           `json:"action"`
	Requested  []int64          `json:"requested"`
	Succeeded  []int64          `json:"succeeded"`
	Failed     map[int64]string `json:"failed"`
	Skipped    []int64          `json:"skipped,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Err returns a *PartialBatchFailure when any record failed or was skipped.
func (r BulkReport) Err() error {
	if len(r.Failed) == 0 && len(r.Skipped) == 0 {
		return nil
	}
	return &PartialBatchFailure{
		Action:    r.Action,
		Succeeded: len(r.Succeeded),
		Failed:    len(r.Failed),
		Skipped:   len(r.Skipped),
	}
}

// RunBulk runs op for every id in order, one request at a time.
// A failing record does not stop the run; cancelling ctx skips the remaining ids.
func RunBulk(ctx context.Context, action string, ids []int64, opts BulkOptions, op func(ctx context.Context, id int64) error) BulkReport {
	report := BulkReport{
		Action:    action,
		Requested: append([]int64(nil), ids...),
		Succeeded: []int64{},
		Failed:    make(map[int64]string),
		StartedAt: time.Now(),
	}

	for i, id := range ids {
		if ctx.Err() != nil {
			report.Skipped = append(report.Skipped, ids[i:]...)
			break
		}
		if err := runOne(ctx, opts.timeout(), id, op); err != nil {
			report.Failed[id] = err.Error()
			continue
		}
		report.Succeeded = append(report.Succeeded, id)
	}

	report.FinishedAt = time.Now()
	return report
}

func runOne(ctx context.Context, timeout time.Duration, id int64, op func(ctx context.Context, id int64) error) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(reqCtx, id)
}
