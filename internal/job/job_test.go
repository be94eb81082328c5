package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/securemail-server/internal/testutil"
)

type countingJob struct {
	runs  atomic.Int32
	block chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return nil
}

type fakeCleaner struct {
	grace time.Duration
	n     int64
	err   error
}

func (c *fakeCleaner) Cleanup(_ context.Context, grace time.Duration) (int64, error) {
	c.grace = grace
	return c.n, c.err
}

func TestScheduler_AddRejectsBadSpec(t *testing.T) {
	s := NewScheduler(testutil.MakeNoopLogger())

	err := s.Add(&countingJob{}, "not a spec")
	require.Error(t, err)

	require.NoError(t, s.Add(&countingJob{}, "@every 10m"))
	require.NoError(t, s.Add(&countingJob{}, "*/5 * * * *"))
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := NewScheduler(testutil.MakeNoopLogger())
	job := &countingJob{block: make(chan struct{})}
	run := s.wrap(job, "@every 1s")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	run()
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	<-done

	job.block = nil
	run()
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(testutil.MakeNoopLogger())
	require.NoError(t, s.Add(&countingJob{}, "@every 1h"))

	s.Start(context.Background())
	s.Stop()
}

func TestOTPCleanup_Run(t *testing.T) {
	cleaner := &fakeCleaner{n: 3}
	j := NewOTPCleanup(cleaner, time.Hour, testutil.MakeNoopLogger())

	require.NoError(t, j.Run(context.Background()))
	assert.Equal(t, time.Hour, cleaner.grace)
	assert.Equal(t, "otp_cleanup", j.Name())

	cleaner.err = assert.AnError
	require.ErrorIs(t, j.Run(context.Background()), assert.AnError)
}
