// Package scheduler provides a time-driven job scheduler backed by a
// min-heap of pending runs. The scheduler owns its timer state entirely:
// Start brings it up, Stop tears it down, and no package-level handles
// exist.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStopped is returned when scheduling against a stopped scheduler
var ErrStopped = errors.New("scheduler is stopped")

// job is a pending execution ordered by its run time
type job struct {
	id    string
	runAt time.Time
	fn    func()
	index int // position in the heap
}

type jobHeap []*job

func (h jobHeap) Len() int           { return len(h) }
func (h jobHeap) Less(i, j int) bool { return h[i].runAt.Before(h[j].runAt) }
func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x interface{}) {
	n := len(*h)
	j := x.(*job)
	j.index = n
	*h = append(*h, j)
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*h = old[0 : n-1]
	return j
}

// Scheduler runs registered jobs at their scheduled times. A slow job
// never delays the timer loop: each run executes on its own goroutine,
// and a periodic job's next tick is scheduled before the current run
// starts.
type Scheduler struct {
	mu      sync.Mutex
	heap    jobHeap
	jobs    map[string]*job
	wakeup  chan struct{}
	stopCh  chan struct{}
	stopped bool
}

// New creates a scheduler. Call Start before scheduling.
func New() *Scheduler {
	s := &Scheduler{
		heap:   make(jobHeap, 0),
		jobs:   make(map[string]*job),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
	heap.Init(&s.heap)
	return s
}

// Start launches the timer loop
func (s *Scheduler) Start() {
	go s.run()
}

// Stop stops scheduling further runs. In-flight job executions are left
// to complete or fail on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
}

// At schedules fn to run once at the given time. Scheduling an ID that is
// already pending replaces the pending run.
func (s *Scheduler) At(id string, runAt time.Time, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}

	if existing, ok := s.jobs[id]; ok {
		heap.Remove(&s.heap, existing.index)
		delete(s.jobs, id)
	}

	j := &job{id: id, runAt: runAt, fn: fn}
	heap.Push(&s.heap, j)
	s.jobs[id] = j

	// Wake the loop if this run is now the earliest
	if s.heap[0] == j {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}

	return nil
}

// Every schedules fn to run immediately and then at each interval. The
// next tick is scheduled before fn runs, so a slow run delays only its
// own completion, not the cadence.
func (s *Scheduler) Every(id string, interval time.Duration, fn func()) error {
	var schedule func(runAt time.Time) error
	schedule = func(runAt time.Time) error {
		return s.At(id, runAt, func() {
			_ = schedule(time.Now().Add(interval))
			runRecovered(id, fn)
		})
	}
	return schedule(time.Now())
}

// Cancel removes a pending job run
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return false
	}

	heap.Remove(&s.heap, j.index)
	delete(s.jobs, id)
	return true
}

// Pending returns the number of scheduled runs
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) run() {
	for {
		s.mu.Lock()

		if s.stopped {
			s.mu.Unlock()
			return
		}

		var wait time.Duration
		if s.heap.Len() == 0 {
			wait = 24 * time.Hour
		} else {
			next := s.heap[0]
			wait = time.Until(next.runAt)

			if wait <= 0 {
				j := heap.Pop(&s.heap).(*job)
				delete(s.jobs, j.id)

				go j.fn()

				s.mu.Unlock()
				continue
			}
		}

		s.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.wakeup:
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

// runRecovered executes a job and converts a panic into a logged error so
// an unexpected failure in one tick never takes the process down.
func runRecovered(id string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Job %s panicked: %v\n", id, r)
		}
	}()
	fn()
}
