// Package schedule coalesces bursts of detection requests into at most one
// run per key per frame.
//
// A request for a key replaces any request still pending for that key, so a
// probe whose parameters change ten times between two frames is detected
// once, with whatever state is current when the frame fires. Tasks are
// closures and must read their inputs when they run, not when they are
// scheduled.
package schedule

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultInterval is one display frame at 60 Hz.
const DefaultInterval = 16 * time.Millisecond

// Task is one unit of scheduled work.
type Task func()

// Scheduler is a keyed single-flight-replace queue drained one batch per
// frame. Schedule and friends may be called from any goroutine; tasks only
// ever run inside Frame and never concurrently with each other.
type Scheduler struct {
	mu    sync.Mutex
	keyed map[string]Task
	order []string
	all   Task

	// runMu serializes Frame so two frame sources cannot interleave tasks.
	runMu sync.Mutex

	frames      int64
	executed    int64
	replaced    int64
	lastFrameAt time.Time
}

// Stats reports scheduler activity.
type Stats struct {
	Pending     int       `json:"pending"`
	AllPending  bool      `json:"all_pending"`
	Frames      int64     `json:"frames"`
	Executed    int64     `json:"executed"`
	Replaced    int64     `json:"replaced"`
	LastFrameAt time.Time `json:"last_frame_at,omitempty"`
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{keyed: make(map[string]Task)}
}

// Schedule queues fn for key, replacing any task still pending for the same
// key. While a coalesced all-keys task is pending the request is absorbed by
// it.
func (s *Scheduler) Schedule(key string, fn Task) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.all != nil {
		s.replaced++
		return
	}
	if _, ok := s.keyed[key]; ok {
		s.removeLocked(key)
		s.replaced++
	}
	s.keyed[key] = fn
	s.order = append(s.order, key)
}

// ScheduleAll queues one coalesced task that supersedes every pending keyed
// task and any earlier all-keys task.
func (s *Scheduler) ScheduleAll(fn Task) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaced += int64(len(s.order))
	if s.all != nil {
		s.replaced++
	}
	s.keyed = make(map[string]Task)
	s.order = nil
	s.all = fn
}

// Cancel drops the pending task for key. It reports whether one was pending.
// A task that is already running is not interrupted.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keyed[key]; !ok {
		return false
	}
	s.removeLocked(key)
	return true
}

// Pending returns the number of queued tasks, counting a pending all-keys
// task as one.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	if s.all != nil {
		n++
	}
	return n
}

// Frame runs one batch: the all-keys task if one is pending, otherwise every
// pending keyed task in the order they were last scheduled. Tasks scheduled
// while the batch runs wait for the next frame. It returns the number of
// tasks run.
func (s *Scheduler) Frame() int {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	var batch []Task
	if s.all != nil {
		batch = []Task{s.all}
		s.all = nil
	} else {
		batch = make([]Task, 0, len(s.order))
		for _, key := range s.order {
			batch = append(batch, s.keyed[key])
		}
		s.keyed = make(map[string]Task)
		s.order = nil
	}
	s.frames++
	s.lastFrameAt = time.Now()
	s.mu.Unlock()

	for _, fn := range batch {
		run(fn)
	}

	s.mu.Lock()
	s.executed += int64(len(batch))
	s.mu.Unlock()
	return len(batch)
}

// Run calls Frame on every tick of interval until ctx is done. A
// non-positive interval selects DefaultInterval. Frames with nothing pending
// cost one lock round trip.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	return s.RunFrames(ctx, ticker.C)
}

// RunFrames is Run with an external frame signal, such as a display refresh
// callback or a test-controlled channel. It returns when ctx is done or
// frames is closed.
func (s *Scheduler) RunFrames(ctx context.Context, frames <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-frames:
			if !ok {
				return nil
			}
			if s.Pending() == 0 {
				continue
			}
			s.Frame()
		}
	}
}

// Stats returns a snapshot of scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Pending:     len(s.order),
		AllPending:  s.all != nil,
		Frames:      s.frames,
		Executed:    s.executed,
		Replaced:    s.replaced,
		LastFrameAt: s.lastFrameAt,
	}
}

func (s *Scheduler) removeLocked(key string) {
	delete(s.keyed, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// run executes fn, logging instead of crashing the frame loop on panic.
func run(fn Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduled task panicked: %v", r)
		}
	}()
	fn()
}
