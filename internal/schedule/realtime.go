package schedule

import (
	"sync"
	"time"
)

// Realtime runs every task on its own goroutine driven by a time.Ticker.
type Realtime struct {
	mu     sync.Mutex
	next   Handle
	tasks  map[Handle]chan struct{}
	closed bool
}

// NewRealtime creates a scheduler on the wall clock.
func NewRealtime() *Realtime {
	return &Realtime{tasks: make(map[Handle]chan struct{})}
}

// Every starts task with the given period. Non-positive periods and calls
// after Close return a handle whose task never runs.
func (r *Realtime) Every(period time.Duration, task Task) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	if period <= 0 || r.closed {
		return h
	}

	stop := make(chan struct{})
	r.tasks[h] = stop
	go r.run(h, period, task, stop)
	return h
}

func (r *Realtime) run(h Handle, period time.Duration, task Task, stop chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			// A tick can race with Cancel; re-check before running.
			if !r.live(h) {
				return
			}
			task(now.Sub(start))
		}
	}
}

func (r *Realtime) live(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[h]
	return ok
}

// Cancel stops the task. It does not wait for an in-flight invocation to
// return; callers that need that guarantee must guard the task body.
func (r *Realtime) Cancel(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stop, ok := r.tasks[h]; ok {
		close(stop)
		delete(r.tasks, h)
	}
}

// Active returns the number of running tasks.
func (r *Realtime) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Close cancels every task and rejects new ones.
func (r *Realtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for h, stop := range r.tasks {
		close(stop)
		delete(r.tasks, h)
	}
}
