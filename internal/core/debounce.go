package core

import (
	"sync"
	"time"
)

// Handle identifies a task returned by Scheduler.Schedule. The zero Handle is never issued.
type Handle uint64

type timer interface {
	Stop() bool
}

// AfterFunc matches time.AfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Scheduler runs functions after a delay and lets callers cancel them before they fire.
type Scheduler struct {
	mu        sync.Mutex
	afterFunc AfterFunc
	next      Handle
	pending   map[Handle]timer
}

func NewScheduler(afterFunc AfterFunc) *Scheduler {
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	return &Scheduler{
		afterFunc: afterFunc,
		pending:   make(map[Handle]timer),
	}
}

func (s *Scheduler) Schedule(fn func(), delay time.Duration) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.pending[h] = s.afterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.pending[h]
		delete(s.pending, h)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return h
}

// Cancel stops h. It reports whether h was still pending; once Cancel returns,
// the task is guaranteed not to run.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[h]
	if !ok {
		return false
	}
	delete(s.pending, h)
	t.Stop()
	return true
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Debouncer keeps at most one outstanding task: each Trigger replaces the previous one.
type Debouncer struct {
	mu        sync.Mutex
	scheduler *Scheduler
	delay     time.Duration
	current   Handle
}

func NewDebouncer(scheduler *Scheduler, delay time.Duration) *Debouncer {
	return &Debouncer{scheduler: scheduler, delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != 0 {
		d.scheduler.Cancel(d.current)
	}
	d.current = d.scheduler.Schedule(fn, d.delay)
}

// Cancel drops the pending task, if any.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == 0 {
		return false
	}
	cancelled := d.scheduler.Cancel(d.current)
	d.current = 0
	return cancelled
}
