// Package schedule runs periodic tasks behind a cancellable handle.
//
// Two implementations are provided: Realtime, backed by time.Ticker
// goroutines, and Virtual, a manually advanced clock for tests and previews.
// A task is first invoked one period after Every and then once per period
// until its handle is cancelled. Once Cancel returns, the task is never
// invoked again by that scheduler.
package schedule

import "time"

// Handle identifies a scheduled task. The zero Handle is never issued.
type Handle uint64

// Task is the body of a periodic loop. Elapsed is the time since the task
// was scheduled, measured on the scheduler's clock.
type Task func(elapsed time.Duration)

// Scheduler starts and cancels periodic tasks.
type Scheduler interface {
	Every(period time.Duration, task Task) Handle
	Cancel(h Handle)
}
