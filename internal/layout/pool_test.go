package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBox struct {
	id int
}

func newBoxPool() (*Pool[*fakeBox], *int) {
	built := 0
	pool := NewPool(func() *fakeBox {
		built++
		return &fakeBox{id: built}
	})
	return pool, &built
}

func TestPoolConstructsWhenEmpty(t *testing.T) {
	pool, built := newBoxPool()

	a := pool.Acquire()
	b := pool.Acquire()

	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, *built)
	assert.Equal(t, 2, pool.InUse())
	assert.Equal(t, 0, pool.Free())
}

func TestPoolReusesMostRecentlyReleased(t *testing.T) {
	pool, built := newBoxPool()

	a := pool.Acquire()
	b := pool.Acquire()
	pool.Release(a)
	pool.Release(b)

	// b went back last, so it comes out first.
	assert.Same(t, b, pool.Acquire())
	assert.Same(t, a, pool.Acquire())
	assert.Equal(t, 2, *built, "no new construction while the free list has widgets")
}

func TestPoolHeldWidgetNeverHandedOutTwice(t *testing.T) {
	pool, _ := newBoxPool()

	seen := make(map[*fakeBox]bool)
	for i := 0; i < 50; i++ {
		w := pool.Acquire()
		require.False(t, seen[w], "widget handed out while still held")
		seen[w] = true
	}
}

func TestPoolBatchRelease(t *testing.T) {
	pool, _ := newBoxPool()

	widgets := []*fakeBox{pool.Acquire(), pool.Acquire(), pool.Acquire()}
	pool.Release(widgets...)

	assert.Equal(t, 3, pool.Free())
	assert.Equal(t, 0, pool.InUse())
}

func TestPoolIgnoresForeignAndDoubleRelease(t *testing.T) {
	pool, _ := newBoxPool()

	w := pool.Acquire()
	pool.Release(w)
	pool.Release(w)                // double release
	pool.Release(&fakeBox{id: 99}) // never acquired

	assert.Equal(t, 1, pool.Free())

	// The single free slot hands out exactly once.
	got := pool.Acquire()
	assert.Same(t, w, got)
	assert.Equal(t, 0, pool.Free())
}
