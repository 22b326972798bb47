package scheduler_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/scheduler"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})
}

func TestExecuteRunsSynchronously(t *testing.T) {
	s := scheduler.New(testLogger(), time.Second)
	defer s.Close()

	var ran int32
	err := s.Execute("test-job", func(ctx context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestExecutePropagatesError(t *testing.T) {
	s := scheduler.New(testLogger(), time.Second)
	defer s.Close()

	boom := context.DeadlineExceeded
	err := s.Execute("failing-job", func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestJobsNeverOverlap(t *testing.T) {
	s := scheduler.New(testLogger(), time.Second)
	defer s.Close()

	var inFlight int32
	var overlapped int32
	jobs := 20
	doneCh := make(chan struct{}, jobs)

	run := func(ctx context.Context) error {
		if atomic.AddInt32(&inFlight, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	}

	for i := 0; i < jobs; i++ {
		go func() {
			_ = s.Execute("concurrent-job", run)
			doneCh <- struct{}{}
		}()
	}
	for i := 0; i < jobs; i++ {
		<-doneCh
	}

	require.Zero(t, atomic.LoadInt32(&overlapped), "no two jobs should run concurrently")
}

func TestScheduleRepeatingRunsImmediatelyThenPeriodically(t *testing.T) {
	s := scheduler.New(testLogger(), time.Second)
	defer s.Close()

	var count int32
	s.ScheduleRepeating("tick", 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestScheduleRepeatingDelayedWaitsForFirstTick(t *testing.T) {
	s := scheduler.New(testLogger(), time.Second)
	defer s.Close()

	var count int32
	s.ScheduleRepeatingDelayed("delayed-tick", 20*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	time.Sleep(5 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&count), "delayed schedule must not run before the first period elapses")

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestCloseDrainsAndRejectsFurtherExecute(t *testing.T) {
	s := scheduler.New(testLogger(), time.Second)
	s.Close()

	err := s.Execute("after-close", func(ctx context.Context) error { return nil })
	require.Error(t, err)
}
