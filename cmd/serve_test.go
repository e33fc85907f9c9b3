package cmd

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func stopTimer(t *testing.T, b *rebuilder) {
	t.Cleanup(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.timer != nil {
			b.timer.Stop()
		}
	})
}

// overlapRecorder counts processed names and flags any two runs that were
// in flight at the same time.
type overlapRecorder struct {
	busy       int32
	overlapped int32
	done       int32
	mu         sync.Mutex
	seen       map[string]int
}

func newOverlapRecorder() *overlapRecorder {
	return &overlapRecorder{seen: map[string]int{}}
}

func (r *overlapRecorder) process(name string) error {
	if !atomic.CompareAndSwapInt32(&r.busy, 0, 1) {
		atomic.StoreInt32(&r.overlapped, 1)
	}
	time.Sleep(5 * time.Millisecond)
	r.mu.Lock()
	r.seen[name]++
	r.mu.Unlock()
	atomic.StoreInt32(&r.busy, 0)
	atomic.AddInt32(&r.done, 1)
	return nil
}

func TestRebuilderSerializesBurstOfChanges(t *testing.T) {
	rec := newOverlapRecorder()
	b := &rebuilder{pending: make(map[string]bool), debounce: 10 * time.Millisecond}
	b.processOne = rec.process
	b.rebuildAll = func() error { return nil }
	stopTimer(t, b)

	const n = 6
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.noteChange(fmt.Sprintf("posts/p%d.md", i))
		}(i)
	}
	wg.Wait()

	waitFor(t, func() bool { return atomic.LoadInt32(&rec.done) == n })
	assert.Zero(t, atomic.LoadInt32(&rec.overlapped), "reprocessing runs overlapped")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.seen, n)
	for name, count := range rec.seen {
		assert.Equal(t, 1, count, "%s reprocessed more than once", name)
	}
}

func TestRebuilderConcurrentFlushesDoNotOverlap(t *testing.T) {
	rec := newOverlapRecorder()
	// Debounce far in the future so only the explicit flushes run.
	b := &rebuilder{pending: make(map[string]bool), debounce: time.Hour}
	b.processOne = rec.process
	b.rebuildAll = func() error { return nil }
	stopTimer(t, b)

	var wg sync.WaitGroup
	for _, name := range []string{"posts/a.md", "posts/b.md"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			b.noteChange(name)
			b.flush()
		}(name)
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&rec.overlapped), "flushes overlapped")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.seen, 2, "every queued post is processed exactly once")
	for name, count := range rec.seen {
		assert.Equal(t, 1, count, "%s reprocessed more than once", name)
	}
}

func TestRebuilderRemovalSupersedesQueuedChanges(t *testing.T) {
	var rebuilds, processed int32
	b := &rebuilder{pending: make(map[string]bool), debounce: 50 * time.Millisecond}
	b.processOne = func(string) error { atomic.AddInt32(&processed, 1); return nil }
	b.rebuildAll = func() error { atomic.AddInt32(&rebuilds, 1); return nil }
	stopTimer(t, b)

	b.noteChange("posts/a.md")
	b.noteRemoval()
	b.noteChange("posts/b.md")

	waitFor(t, func() bool { return atomic.LoadInt32(&rebuilds) == 1 })
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&processed), "rebuild covers queued incremental work")
	assert.Equal(t, int32(1), atomic.LoadInt32(&rebuilds))
}
