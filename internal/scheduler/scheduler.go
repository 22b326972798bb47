// Package scheduler implements a single-threaded cooperative executor
// that runs a connector's periodic housekeeping jobs (topic/ACL/config
// reconciliation, consumer-group refresh) one at a time, never overlapping,
// each on its own named ticker loop rather than firing work off onto
// ad-hoc goroutines.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// job is a unit of work submitted to the scheduler's single worker
// goroutine, together with the means to report completion back to whoever
// is waiting (a synchronous Execute caller, or nobody, for a periodic
// tick).
type job struct {
	description string
	run         func(ctx context.Context) error
	done        chan error // nil for fire-and-forget periodic ticks
}

// Scheduler serializes job execution onto a single goroutine so that
// topic/ACL/config reconciliation and consumer-group refresh never run
// concurrently with each other.
type Scheduler struct {
	logger  *log.Logger
	timeout time.Duration

	jobs   chan job
	stop   chan struct{}
	closed chan struct{}
}

// New starts the scheduler's worker goroutine. timeout bounds every
// submitted job via context.WithTimeout.
func New(logger *log.Logger, timeout time.Duration) *Scheduler {
	s := &Scheduler{
		logger:  logger,
		timeout: timeout,
		jobs:    make(chan job),
		stop:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) run() {
	defer close(s.closed)
	for {
		select {
		case j := <-s.jobs:
			s.runOne(j)
		case <-s.stop:
			s.drain()
			return
		}
	}
}

// drain does not run anything: it takes any job a sender is handing over at
// shutdown (s.jobs is unbuffered, so nothing is queued) and reports an error
// to a waiting Execute caller, so it observes cancellation rather than
// hanging forever.
func (s *Scheduler) drain() {
	for {
		select {
		case j := <-s.jobs:
			if j.done != nil {
				j.done <- fmt.Errorf("scheduler: closed before %q could run", j.description)
			}
		default:
			return
		}
	}
}

func (s *Scheduler) runOne(j job) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err := j.run(ctx)
	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.description, "err", err)
	}
	if j.done != nil {
		j.done <- err
	}
}

// Execute runs fn on the scheduler's worker goroutine and blocks until it
// completes, serialized with every other job. description appears in error
// logs.
func (s *Scheduler) Execute(description string, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	select {
	case s.jobs <- job{description: description, run: fn, done: done}:
	case <-s.closed:
		return fmt.Errorf("scheduler: closed, cannot run %q", description)
	}
	select {
	case err := <-done:
		return err
	case <-s.closed:
		return fmt.Errorf("scheduler: closed while running %q", description)
	}
}

// ScheduleRepeating runs fn immediately, then every period, until Close is
// called. Each tick is serialized with all other scheduler jobs.
func (s *Scheduler) ScheduleRepeating(description string, period time.Duration, fn func(ctx context.Context) error) {
	s.scheduleRepeating(description, period, fn, false)
}

// ScheduleRepeatingDelayed is ScheduleRepeating but waits one period before
// the first run, matching MirrorCheckpointConnector's
// scheduleRepeatingDelayed for consumer-group refresh.
func (s *Scheduler) ScheduleRepeatingDelayed(description string, period time.Duration, fn func(ctx context.Context) error) {
	s.scheduleRepeating(description, period, fn, true)
}

func (s *Scheduler) scheduleRepeating(description string, period time.Duration, fn func(ctx context.Context) error, delayFirst bool) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		if !delayFirst {
			s.submitTick(description, fn)
		}

		for {
			select {
			case <-ticker.C:
				s.submitTick(description, fn)
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Scheduler) submitTick(description string, fn func(ctx context.Context) error) {
	select {
	case s.jobs <- job{description: description, run: fn}:
	case <-s.stop:
	}
}

// Close stops accepting new periodic ticks and waits for the worker
// goroutine to drain, then returns. Any Execute call racing with Close
// gets an error rather than hanging.
func (s *Scheduler) Close() {
	close(s.stop)
	<-s.closed
}
