package listview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkPartialFailureScenario(t *testing.T) {
	v := loadedView(t,
		lot{ID: 1, State: statusPending},
		lot{ID: 2, State: statusPending},
		lot{ID: 3, State: statusPending},
	)
	v.SelectAll()

	report := v.Bulk(context.Background(), "start", BulkOptions{}, func(_ context.Context, current lot, tr Transition) (lot, error) {
		if current.ID == 2 {
			return lot{}, errors.New("backend refused")
		}
		current.State = tr.To
		return current, nil
	})

	assert.Equal(t, "lots", report.Entity)
	assert.Equal(t, []int64{1, 3}, report.Succeeded)
	assert.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[2], "backend refused")

	var partial *PartialBatchFailure
	require.ErrorAs(t, report.Err(), &partial)
	assert.Equal(t, 2, partial.Succeeded)
	assert.Equal(t, 1, partial.Failed)

	for id, want := range map[int64]Status{1: statusInProgress, 2: statusPending, 3: statusInProgress} {
		r, _ := v.Get(id)
		assert.Equal(t, want, r.State, "record %d", id)
	}
	// committed records left the eligible set, the failed one stays selected
	assert.Equal(t, []int64{2}, v.SelectedIDs())
}

func TestRunBulkAllSucceed(t *testing.T) {
	var seen []int64

	report := RunBulk(context.Background(), "receive", []int64{3, 1, 2}, BulkOptions{}, func(_ context.Context, id int64) error {
		seen = append(seen, id)
		return nil
	})

	assert.Equal(t, []int64{3, 1, 2}, seen, "requests run sequentially in order")
	assert.Equal(t, []int64{3, 1, 2}, report.Succeeded)
	assert.NoError(t, report.Err())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRunBulkCancellationSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	report := RunBulk(ctx, "receive", []int64{1, 2, 3, 4}, BulkOptions{}, func(_ context.Context, id int64) error {
		if id == 2 {
			cancel()
		}
		return nil
	})

	assert.Equal(t, []int64{1, 2}, report.Succeeded)
	assert.Equal(t, []int64{3, 4}, report.Skipped)
	var partial *PartialBatchFailure
	require.ErrorAs(t, report.Err(), &partial)
	assert.Equal(t, 2, partial.Skipped)
}

func TestRunBulkAppliesPerRequestTimeout(t *testing.T) {
	report := RunBulk(context.Background(), "receive", []int64{1, 2}, BulkOptions{RequestTimeout: 10 * time.Millisecond}, func(ctx context.Context, id int64) error {
		if id == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	assert.Equal(t, []int64{2}, report.Succeeded)
	assert.Contains(t, report.Failed[1], context.DeadlineExceeded.Error())
}
