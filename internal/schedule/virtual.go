package schedule

import (
	"sort"
	"sync"
	"time"
)

type virtualTask struct {
	handle Handle
	period time.Duration
	start  time.Duration
	due    time.Duration
	task   Task
}

// Virtual is a deterministic scheduler whose clock only moves on Advance.
// Tasks run synchronously on the goroutine calling Advance, in due order;
// ties are broken by scheduling order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Duration
	next  Handle
	tasks map[Handle]*virtualTask
}

// NewVirtual creates a virtual clock at time zero.
func NewVirtual() *Virtual {
	return &Virtual{tasks: make(map[Handle]*virtualTask)}
}

// Every schedules task to first run one period from the current virtual time.
func (v *Virtual) Every(period time.Duration, task Task) Handle {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.next++
	h := v.next
	if period <= 0 {
		return h
	}
	v.tasks[h] = &virtualTask{
		handle: h,
		period: period,
		start:  v.now,
		due:    v.now + period,
		task:   task,
	}
	return h
}

// Cancel removes the task. Safe to call from inside a running task.
func (v *Virtual) Cancel(h Handle) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.tasks, h)
}

// Now returns the virtual time elapsed since NewVirtual.
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Active returns the number of scheduled tasks.
func (v *Virtual) Active() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tasks)
}

// Advance moves the clock forward by d, running every tick that falls due.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now + d
	v.mu.Unlock()

	for {
		v.mu.Lock()
		t := v.earliest(target)
		if t == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = t.due
		elapsed := t.due - t.start
		t.due += t.period
		task := t.task
		v.mu.Unlock()

		task(elapsed)
	}
}

// earliest returns the next task due at or before target. Caller holds mu.
func (v *Virtual) earliest(target time.Duration) *virtualTask {
	due := make([]*virtualTask, 0, len(v.tasks))
	for _, t := range v.tasks {
		if t.due <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].handle < due[j].handle
	})
	return due[0]
}
