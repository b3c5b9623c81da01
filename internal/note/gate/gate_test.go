package gate

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireSecondAttemptRejected(t *testing.T) {
	g := New()

	require.True(t, g.TryAcquire("note-1"))
	assert.False(t, g.TryAcquire("note-1"), "second attempt for the same note must be rejected")

	g.Release("note-1")
	assert.True(t, g.TryAcquire("note-1"), "release must make the note admittable again")
}

func TestDistinctNotesNeverContend(t *testing.T) {
	g := New()

	require.True(t, g.TryAcquire("note-a"))
	assert.True(t, g.TryAcquire("note-b"), "a held note must not block a different note")

	g.Release("note-a")
	g.Release("note-b")
}

func TestAtMostOneHolderUnderContention(t *testing.T) {
	g := New()

	var holders int32
	var maxHolders int32
	var admitted int32
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !g.TryAcquire("hot-note") {
				return
			}
			atomic.AddInt32(&admitted, 1)
			cur := atomic.AddInt32(&holders, 1)
			for {
				prev := atomic.LoadInt32(&maxHolders)
				if cur <= prev || atomic.CompareAndSwapInt32(&maxHolders, prev, cur) {
					break
				}
			}
			atomic.AddInt32(&holders, -1)
			g.Release("hot-note")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&maxHolders), "never more than one holder at a time")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&admitted), int32(1), "at least one attempt must be admitted")
}
