package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	errs     []error // attempt별 반환값, 소진 후 nil
	calls    atomic.Int32
}

func (f *fakeJob) Name() string     { return f.name }
func (f *fakeJob) Schedule() string { return f.schedule }
func (f *fakeJob) Run(ctx context.Context) error {
	n := int(f.calls.Add(1)) - 1
	if n < len(f.errs) {
		return f.errs[n]
	}
	return nil
}

func testScheduler() *Scheduler {
	return New(Config{MaxRetries: 2, RetryDelay: time.Millisecond, JobTimeout: time.Second}, logger.Nop())
}

func TestScheduler_AddJob(t *testing.T) {
	s := testScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 40 16 * * MON-FRI"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "b", schedule: "not a cron"}))

	assert.ElementsMatch(t, []string{"a"}, s.GetAllJobs())

	_, ok := s.NextRun("a")
	assert.True(t, ok)

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
}

func TestScheduler_RunJobRetries(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		success   bool
		wantCalls int32
	}{
		{"first attempt succeeds", nil, true, 1},
		{"transient failure then success", []error{errors.New("timeout")}, true, 2},
		{"all attempts fail", []error{errors.New("x"), errors.New("y"), errors.New("z")}, false, 3},
		{"insufficient days is not retried", []error{fmt.Errorf("screen: %w", contracts.ErrInsufficientTradingDays)}, false, 1},
		{"invalid request is not retried", []error{contracts.ErrInvalidRequest}, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testScheduler()
			job := &fakeJob{name: "job", schedule: "@daily", errs: tt.errs}
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJob("job")
			require.NoError(t, err)

			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.wantCalls, job.calls.Load())
			assert.Equal(t, int(tt.wantCalls), result.Attempts)
			if !tt.success {
				assert.NotEmpty(t, result.Error)
			}

			history, err := s.GetJobHistory("job")
			require.NoError(t, err)
			latest, ok := history.Latest()
			require.True(t, ok)
			assert.Equal(t, tt.success, latest.Success)
		})
	}
}

func TestScheduler_RunUnknownJob(t *testing.T) {
	_, err := testScheduler().RunJob("missing")
	assert.Error(t, err)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	_, ok := h.Latest()
	assert.False(t, ok)
	assert.Zero(t, h.SuccessRate())

	for i := 0; i < historyLimit+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(Config{JobTimeout: time.Minute}, logger.Nop())
	started := make(chan struct{})
	job := &blockingJob{started: started}
	require.NoError(t, s.AddJob(job))

	done := make(chan JobResult, 1)
	go func() {
		r, _ := s.RunJob("blocking")
		done <- r
	}()

	<-started
	s.Stop()

	select {
	case r := <-done:
		assert.False(t, r.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not canceled")
	}
}

func TestScheduler_RunJobAfterStop(t *testing.T) {
	s := testScheduler()
	job := &fakeJob{name: "a", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	s.Stop()

	_, err := s.RunJob("a")
	assert.ErrorIs(t, err, ErrStopped)
	assert.Zero(t, job.calls.Load())

	h, err := s.GetJobHistory("a")
	require.NoError(t, err)
	assert.Empty(t, h.Results)
}

func TestScheduler_RunJobDuringStop(t *testing.T) {
	s := New(Config{JobTimeout: time.Minute}, logger.Nop())
	started := make(chan struct{})
	require.NoError(t, s.AddJob(&blockingJob{started: started}))
	require.NoError(t, s.AddJob(&fakeJob{name: "late", schedule: "@daily"}))

	go func() { _, _ = s.RunJob("blocking") }()
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	// Stop 진행 중이거나 끝난 뒤의 수동 실행은 거부되거나, 시작됐다면 Stop이 기다린다
	for i := 0; i < 10; i++ {
		_, _ = s.RunJob("late")
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	_, err := s.RunJob("late")
	assert.ErrorIs(t, err, ErrStopped)
}

type blockingJob struct {
	started chan struct{}
}

func (b *blockingJob) Name() string     { return "blocking" }
func (b *blockingJob) Schedule() string { return "@daily" }
func (b *blockingJob) Run(ctx context.Context) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}
