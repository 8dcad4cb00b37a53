// Package autosave coalesces bursts of edits into a single delayed save.
package autosave

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a pending save runs.
const DefaultDelay = time.Second

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn after d. The default wraps time.AfterFunc.
type Scheduler func(d time.Duration, fn func()) Timer

// SaveFunc performs the save. It runs on the timer goroutine or on the
// goroutine that calls Flush.
type SaveFunc func(ctx context.Context) error

// Option customises a Debouncer.
type Option func(*Debouncer)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.delay = d
		}
	}
}

// WithScheduler replaces time.AfterFunc, typically with a fake in tests.
func WithScheduler(s Scheduler) Option {
	return func(db *Debouncer) {
		if s != nil {
			db.schedule = s
		}
	}
}

// OnError receives errors returned by the save function.
func OnError(fn func(error)) Option {
	return func(db *Debouncer) {
		db.onError = fn
	}
}

// WithContext sets the context handed to timer-driven saves.
func WithContext(ctx context.Context) Option {
	return func(db *Debouncer) {
		if ctx != nil {
			db.ctx = ctx
		}
	}
}

// Debouncer keeps at most one pending save. Every Trigger cancels the pending
// timer and starts a new one.
type Debouncer struct {
	mu         sync.Mutex
	save       SaveFunc
	delay      time.Duration
	schedule   Scheduler
	onError    func(error)
	ctx        context.Context
	timer      Timer
	generation uint64
	stopped    bool
}

// New constructs a Debouncer around save.
func New(save SaveFunc, options ...Option) *Debouncer {
	db := &Debouncer{
		save:  save,
		delay: DefaultDelay,
		schedule: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
		ctx: context.Background(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(db)
		}
	}
	return db
}

// Trigger schedules a save after the delay, replacing any pending one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.timer = d.schedule(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a save is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs the pending save now, if any, and returns its error.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return nil
	}
	d.timer.Stop()
	d.timer = nil
	d.generation++
	d.mu.Unlock()

	return d.save(ctx)
}

// Stop cancels the pending save and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}

// fire runs a timer-driven save unless it was superseded in the meantime.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	ctx := d.ctx
	d.mu.Unlock()

	if err := d.save(ctx); err != nil && d.onError != nil {
		d.onError(err)
	}
}
