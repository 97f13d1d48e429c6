package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one onFlush call after the
// quiet window elapses.
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	onFlush func()
	stopped bool
}

func NewDebouncer(window time.Duration, onFlush func()) *Debouncer {
	return &Debouncer{
		window:  window,
		onFlush: onFlush,
	}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.timer = nil
		d.mu.Unlock()

		if !stopped && d.onFlush != nil {
			d.onFlush()
		}
	})
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
