package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid change events per key into a single settle
// callback once a quiet period passes without new events.
//
// # Description
//
// Record may be called from any goroutine, including fsnotify callback
// goroutines. Each key gets its own timer; a new event for a key whose
// timer is still pending replaces that timer, so the settle callback fires
// at (time of last event + quiet period), exactly once per burst. Under
// continuous activity nothing fires until the activity stops.
//
// # Thread Safety
//
// Safe for concurrent use. The settle callback runs on a timer goroutine.
// Every armed timer carries a generation number; the callback settles only
// if its generation is still the one registered for the key, so a callback
// already in flight when Record, Cancel, or Stop takes the mutex becomes a
// no-op instead of settling early or double-firing. Resetting a fired
// timer cannot win that race because fired timers are replaced, never
// reset.
type Debouncer struct {
	quiet  time.Duration
	settle func(key string)

	mu      sync.Mutex
	timers  map[string]*debounceTimer
	gen     uint64
	stopped bool
}

type debounceTimer struct {
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a debouncer with the given quiet period.
//
// The settle callback is invoked with the key whose burst has settled.
// It runs on an internal timer goroutine and should hand long work off
// rather than block.
func NewDebouncer(quiet time.Duration, settle func(key string)) *Debouncer {
	return &Debouncer{
		quiet:  quiet,
		settle: settle,
		timers: make(map[string]*debounceTimer),
	}
}

// Record notes a change event for key, scheduling or extending the
// settle check. Events after Stop are ignored.
func (d *Debouncer) Record(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if entry, ok := d.timers[key]; ok {
		entry.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timers[key] = &debounceTimer{
		gen:   gen,
		timer: time.AfterFunc(d.quiet, func() { d.fire(key, gen) }),
	}
}

// fire is the timer callback. The generation check rejects callbacks
// whose timer has been superseded, cancelled, or stopped since arming.
func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	entry, ok := d.timers[key]
	if d.stopped || !ok || entry.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.mu.Unlock()

	d.settle(key)
}

// Cancel drops any pending settle check for key without firing it.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.timers[key]; ok {
		entry.timer.Stop()
		delete(d.timers, key)
	}
}

// Pending reports whether a settle check is scheduled for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}

// Stop cancels all outstanding settle checks. No settle callback fires
// after Stop returns. Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, entry := range d.timers {
		entry.timer.Stop()
		delete(d.timers, key)
	}
}
