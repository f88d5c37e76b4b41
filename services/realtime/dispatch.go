package realtime

import (
	"log/slog"
	"sync"
)

// Dispatcher serializes work from watcher goroutines onto a single
// owning goroutine, so downstream state (index updates, broadcasts)
// sees tasks in submission order.
//
// Submit never blocks and never panics into the caller: tasks submitted
// before Start or after Stop are dropped with a warning, because a
// watcher callback goroutine must not be stalled or crashed by backend
// shutdown timing. Tasks still queued when Stop runs are discarded, not
// carried over to a later Start.
type Dispatcher struct {
	tasks chan func()

	mu      sync.Mutex
	running bool
	done    chan struct{}
	exited  chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue depth.
func NewDispatcher(queueSize int) *Dispatcher {
	return &Dispatcher{
		tasks: make(chan func(), queueSize),
	}
}

// Start launches the dispatch goroutine. Calling Start on a running
// dispatcher is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true
	d.done = make(chan struct{})
	d.exited = make(chan struct{})

	go d.run(d.done, d.exited)
}

func (d *Dispatcher) run(done, exited chan struct{}) {
	defer close(exited)

	for {
		// Shutdown wins over queued work, so Stop's "queued tasks are
		// discarded" guarantee holds even when both are ready.
		select {
		case <-done:
			return
		default:
		}

		select {
		case <-done:
			return
		case task := <-d.tasks:
			task()
		}
	}
}

// Submit enqueues a task for the dispatch goroutine and returns
// immediately. Reports false if the dispatcher is not running or the
// queue is full; the task is dropped in either case.
//
// The running check and the enqueue happen under one mutex hold, so a
// task accepted by Submit was enqueued strictly before any concurrent
// Stop began discarding the queue.
func (d *Dispatcher) Submit(task func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		slog.Warn("Dropping task, dispatcher not running")
		droppedTasks.Inc()
		return false
	}

	select {
	case d.tasks <- task:
		return true
	default:
		slog.Warn("Dropping task, dispatch queue full", "queue", cap(d.tasks))
		droppedTasks.Inc()
		return false
	}
}

// Stop halts the dispatch goroutine and discards queued tasks that have
// not started. Safe to call multiple times.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	done := d.done
	exited := d.exited
	d.mu.Unlock()

	close(done)
	<-exited

	for {
		select {
		case <-d.tasks:
			droppedTasks.Inc()
		default:
			return
		}
	}
}
