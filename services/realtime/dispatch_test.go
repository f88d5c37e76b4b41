package realtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsTasksInOrder(t *testing.T) {
	d := NewDispatcher(16)
	d.Start()
	defer d.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		i := i
		ok := d.Submit(func() {
			mu.Lock()
			order = append(order, i)
			n := len(order)
			mu.Unlock()
			if n == 5 {
				close(done)
			}
		})
		require.True(t, ok)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDispatcherDropsBeforeStart(t *testing.T) {
	d := NewDispatcher(16)

	ran := false
	ok := d.Submit(func() { ran = true })

	assert.False(t, ok)
	assert.False(t, ran)
}

func TestDispatcherDropsAfterStop(t *testing.T) {
	d := NewDispatcher(16)
	d.Start()
	d.Stop()
	d.Stop() // idempotent

	assert.False(t, d.Submit(func() {}))
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(1)
	d.Start()
	defer d.Stop()

	block := make(chan struct{})
	release := make(chan struct{})
	require.True(t, d.Submit(func() {
		close(block)
		<-release
	}))
	<-block // dispatch goroutine is now occupied

	require.True(t, d.Submit(func() {})) // fills the queue slot
	assert.False(t, d.Submit(func() {}), "submit past a full queue must be dropped")

	close(release)
}

func TestDispatcherStopDiscardsQueuedTasks(t *testing.T) {
	d := NewDispatcher(4)
	d.Start()

	started := make(chan struct{})
	release := make(chan struct{})
	require.True(t, d.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	// Queued behind the blocking task; accepted, but must never run
	// once Stop discards the queue.
	var stale atomic.Bool
	require.True(t, d.Submit(func() { stale.Store(true) }))

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	close(release)
	<-stopped

	d.Start()
	defer d.Stop()

	ran := make(chan struct{})
	require.True(t, d.Submit(func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("fresh task did not run after restart")
	}

	assert.False(t, stale.Load(), "task queued before Stop ran after restart")
}

func TestDispatcherRestart(t *testing.T) {
	d := NewDispatcher(16)
	d.Start()
	d.Stop()

	d.Start()
	defer d.Stop()

	ran := make(chan struct{})
	require.True(t, d.Submit(func() { close(ran) }))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run after restart")
	}
}
