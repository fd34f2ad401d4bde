// Package timer runs the per-session scheduled tasks that fire phase
// transitions when a countdown expires. At most one task exists per
// session code; scheduling replaces any pending task.
package timer

import (
	"sync"
	"time"
)

type Engine struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewEngine() *Engine {
	return &Engine{
		timers: make(map[string]*time.Timer),
	}
}

// Schedule fires fn after d, replacing any task already pending for
// code. The callback runs on the timer goroutine; it must re-check
// session state itself since a manual skip may have won the race.
func (e *Engine) Schedule(code string, d time.Duration, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[code]; ok {
		t.Stop()
	}

	e.timers[code] = time.AfterFunc(d, func() {
		e.mu.Lock()
		delete(e.timers, code)
		e.mu.Unlock()

		fn()
	})
}

// Cancel drops the pending task for code, if any.
func (e *Engine) Cancel(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[code]; ok {
		t.Stop()
		delete(e.timers, code)
	}
}

// Pending reports whether a task is scheduled for code.
func (e *Engine) Pending(code string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.timers[code]
	return ok
}

// Stop cancels every pending task. Callbacks already running are not
// interrupted.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for code, t := range e.timers {
		t.Stop()
		delete(e.timers, code)
	}
}
