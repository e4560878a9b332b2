// Package chain holds the in-memory, height-ordered log of committed
// blocks. Each height is its own lock stripe: readers and writers at
// different heights never contend, and no lock is ever held across a
// call into another package.
package chain

import (
	"sync"

	"github.com/ledgerforge/corechain/block"
)

type entry struct {
	mu    sync.RWMutex
	block block.Committed
	ready bool
}

// Chain is the append-only, height-keyed store of committed blocks.
type Chain struct {
	mu      sync.RWMutex
	entries map[uint64]*entry
	count   int
	maxH    uint64
}

// New returns an empty Chain.
func New() *Chain {
	return &Chain{entries: make(map[uint64]*entry)}
}

// stripe returns (creating if necessary) the lock stripe for height,
// holding the chain-level lock only long enough to look up or insert the
// map entry — never across the stripe's own lock.
func (c *Chain) stripe(height uint64, create bool) *entry {
	c.mu.RLock()
	e, ok := c.entries[height]
	c.mu.RUnlock()
	if ok || !create {
		return e
	}
	c.mu.Lock()
	e, ok = c.entries[height]
	if !ok {
		e = &entry{}
		c.entries[height] = e
	}
	c.mu.Unlock()
	return e
}

// Push inserts b at its own header height. Pushing to an already
// occupied height silently overwrites it: the chain itself enforces no
// continuity; Candidate.Revalidate already did that before the block
// reached here.
func (c *Chain) Push(b block.Committed) {
	height := b.Header().Height
	e := c.stripe(height, true)

	e.mu.Lock()
	occupied := e.ready
	e.block = b
	e.ready = true
	e.mu.Unlock()

	if occupied {
		return
	}

	c.mu.Lock()
	if c.count == 0 || height > c.maxH {
		c.maxH = height
	}
	c.count++
	c.mu.Unlock()
}

// Len returns the number of blocks pushed so far. It only ever
// increases.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Latest returns the highest-height block and true, or the zero value
// and false if the chain is empty. Push advances the max height only
// after the block's entry is ready, so a reader never sees a
// half-written block.
func (c *Chain) Latest() (block.Committed, bool) {
	c.mu.RLock()
	height, count := c.maxH, c.count
	c.mu.RUnlock()
	if count == 0 {
		return block.Committed{}, false
	}
	return c.at(height)
}

// Get returns the block at height, if present and fully written.
func (c *Chain) Get(height uint64) (block.Committed, bool) {
	return c.at(height)
}

func (c *Chain) at(height uint64) (block.Committed, bool) {
	e := c.stripe(height, false)
	if e == nil {
		return block.Committed{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ready {
		return block.Committed{}, false
	}
	return e.block, true
}

// snapshotHeights returns the sorted heights present at call time. The
// returned slice is never mutated afterward, giving iterators built from
// it snapshot-at-construction semantics: a concurrent Push during
// iteration cannot extend or shrink the range already being walked.
func (c *Chain) snapshotHeights() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	heights := make([]uint64, 0, c.count)
	for h, e := range c.entries {
		e.mu.RLock()
		ready := e.ready
		e.mu.RUnlock()
		if ready {
			heights = append(heights, h)
		}
	}
	sortUint64s(heights)
	return heights
}

func sortUint64s(s []uint64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Iterator walks a fixed, already-captured set of heights in one
// direction. It is not safe for concurrent use by multiple goroutines.
type Iterator struct {
	chain   *Chain
	heights []uint64
	pos     int
}

// Ascending returns an iterator over every height present at the moment
// of the call, lowest first.
func (c *Chain) Ascending() *Iterator {
	return &Iterator{chain: c, heights: c.snapshotHeights()}
}

// Descending returns an iterator over every height present at the
// moment of the call, highest first.
func (c *Chain) Descending() *Iterator {
	heights := c.snapshotHeights()
	for i, j := 0, len(heights)-1; i < j; i, j = i+1, j-1 {
		heights[i], heights[j] = heights[j], heights[i]
	}
	return &Iterator{chain: c, heights: heights}
}

// Next returns the next block in the iterator's direction, or false
// once exhausted.
func (it *Iterator) Next() (block.Committed, bool) {
	for it.pos < len(it.heights) {
		h := it.heights[it.pos]
		it.pos++
		if b, ok := it.chain.at(h); ok {
			return b, true
		}
	}
	return block.Committed{}, false
}

// Skip advances the iterator by n entries without materializing them.
func (it *Iterator) Skip(n int) *Iterator {
	it.pos += n
	if it.pos > len(it.heights) {
		it.pos = len(it.heights)
	}
	return it
}

// Nth returns the nth (0-indexed) remaining entry, consuming everything
// up to and including it.
func (it *Iterator) Nth(n int) (block.Committed, bool) {
	it.Skip(n)
	return it.Next()
}

// Count consumes the rest of the iterator and returns how many entries
// remained.
func (it *Iterator) Count() int {
	n := 0
	for {
		if _, ok := it.Next(); !ok {
			return n
		}
		n++
	}
}

// SizeHint returns the number of remaining entries; lower and upper
// bound are identical because the iterator's height set was fixed at
// construction time.
func (it *Iterator) SizeHint() (int, int) {
	remaining := len(it.heights) - it.pos
	if remaining < 0 {
		remaining = 0
	}
	return remaining, remaining
}
