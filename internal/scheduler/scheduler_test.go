package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls       int32
	hadDeadline int32
	err         error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	atomic.AddInt32(&c.calls, 1)
	if _, ok := ctx.Deadline(); ok {
		atomic.StoreInt32(&c.hadDeadline, 1)
	}
	return c.err
}

func TestSchedulerPollsRepeatedly(t *testing.T) {
	target := &countingRefresher{err: errors.New("source down")}
	s := New(20*time.Millisecond, time.Second, target)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&target.calls) >= 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&target.hadDeadline))
}

func TestSchedulerStopHaltsPolling(t *testing.T) {
	target := &countingRefresher{}
	s := New(20*time.Millisecond, time.Second, target)
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&target.calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	s.Stop()

	n := atomic.LoadInt32(&target.calls)
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&target.calls), n+1)
}
