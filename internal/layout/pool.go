package layout

// Pool recycles presentation widgets across layout passes so the renderer
// does not rebuild every box on every pass. It is an owned free-list, not a
// cache: a widget handed out by Acquire stays out of circulation until the
// caller passes it back to Release.
//
// The pool is meant for the single goroutine that runs layout passes. It
// holds no lock; concurrent Acquire/Release needs external synchronization.
type Pool[T comparable] struct {
	construct func() T
	free      []T // stack; the top is the most recently released widget
	held      map[T]struct{}
}

// NewPool returns a pool that calls construct when the free list is empty.
func NewPool[T comparable](construct func() T) *Pool[T] {
	return &Pool[T]{
		construct: construct,
		held:      make(map[T]struct{}),
	}
}

// Acquire returns a free widget, most recently released first so any native
// resources behind it are still warm, or constructs a new one.
func (p *Pool[T]) Acquire() T {
	var w T
	if n := len(p.free); n > 0 {
		w = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		w = p.construct()
	}
	p.held[w] = struct{}{}
	return w
}

// Release returns a batch of widgets to the free list. Widgets the pool
// never handed out, or that were already released, are ignored so a double
// release cannot put the same widget in circulation twice. The pool does
// not reset or hide released widgets; that is the caller's job.
func (p *Pool[T]) Release(widgets ...T) {
	for _, w := range widgets {
		if _, ok := p.held[w]; !ok {
			continue
		}
		delete(p.held, w)
		p.free = append(p.free, w)
	}
}

// Free reports how many widgets are waiting for reuse.
func (p *Pool[T]) Free() int { return len(p.free) }

// InUse reports how many widgets are currently held by the caller.
func (p *Pool[T]) InUse() int { return len(p.held) }
