// Package handles bounds the number of frame files held open at once.
//
// Frames register themselves after opening or reopening their reader. When
// the pool is full the least recently used frame is asked to release its
// handle; it reopens transparently on its next column load. The pool holds
// no ownership: disposing a frame is always the owner's job.
package handles

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Releaser is implemented by anything holding an open file handle that can
// be closed on request and reopened later.
type Releaser interface {
	ID() uuid.UUID
	// ReleaseHandleIfIdle closes the handle unless the holder is busy and
	// reports whether it did.
	ReleaseHandleIfIdle() bool
}

// Pool is an LRU registry of open handles.
type Pool struct {
	cache    *lru.Cache[uuid.UUID, Releaser]
	maxOpen  int
	released atomic.Int64
}

// NewPool creates a pool that keeps at most maxOpen handles registered.
func NewPool(maxOpen int) (*Pool, error) {
	if maxOpen < 1 {
		return nil, fmt.Errorf("pool size must be positive, got %d", maxOpen)
	}
	p := &Pool{maxOpen: maxOpen}
	cache, err := lru.NewWithEvict[uuid.UUID, Releaser](maxOpen, p.onEvict)
	if err != nil {
		return nil, err
	}
	p.cache = cache
	return p, nil
}

func (p *Pool) onEvict(id uuid.UUID, r Releaser) {
	if r.ReleaseHandleIfIdle() {
		p.released.Add(1)
		slog.Debug("Released idle frame handle", "id", id)
	}
}

// Touch registers r or marks it most recently used. It may evict, and so
// release, another registered handle.
func (p *Pool) Touch(r Releaser) {
	if p == nil || r == nil {
		return
	}
	p.cache.Add(r.ID(), r)
}

// Register is Touch under the name used at construction time.
func (p *Pool) Register(r Releaser) {
	p.Touch(r)
}

// Deregister drops id from the pool. The eviction callback runs, so the
// releaser is asked to close its handle if it still has one.
func (p *Pool) Deregister(id uuid.UUID) {
	if p == nil {
		return
	}
	p.cache.Remove(id)
}

// Contains reports whether id is registered.
func (p *Pool) Contains(id uuid.UUID) bool {
	if p == nil {
		return false
	}
	return p.cache.Contains(id)
}

// Len returns the number of registered handles.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return p.cache.Len()
}

// Cap returns the configured pool size.
func (p *Pool) Cap() int { return p.maxOpen }

// Released returns how many handles the pool has closed so far.
func (p *Pool) Released() int64 {
	if p == nil {
		return 0
	}
	return p.released.Load()
}

// Purge asks every registered releaser to close and empties the pool.
func (p *Pool) Purge() {
	if p == nil {
		return
	}
	p.cache.Purge()
}
