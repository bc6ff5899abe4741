// Package enginepool implements the bounded, lazily filled pool that every
// engine backend leases its workers from.
package enginepool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("engine pool is closed")

	// ErrExhausted is returned when no engine became available before the
	// acquire context was done.
	ErrExhausted = errors.New("engine pool exhausted")
)

// Worker is one pooled engine instance.
type Worker interface {
	// Reset clears per-render state before the worker is reused. A non-nil
	// error destroys the worker.
	Reset() error

	// Close releases the engine's resources.
	Close()
}

// Config bounds a pool.
type Config struct {
	Max       int  // live workers, at least 1
	MaxUsages int  // destroy a worker after this many leases (0 = unlimited)
	Reuse     bool // false destroys every worker on release
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Live      int   // workers currently alive (idle + leased)
	Idle      int   // workers waiting in the pool
	InUse     int   // workers currently leased
	Created   int64 // workers created since the pool was built
	Destroyed int64 // workers destroyed since the pool was built
	Leases    int64 // successful acquisitions
}

type entry[W Worker] struct {
	w    W
	uses int
}

// Pool manages a bounded set of workers of type W. Workers are created on
// demand up to Config.Max and handed out exclusively through leases.
type Pool[W Worker] struct {
	newWorker func() (W, error)
	cfg       Config

	idle  chan *entry[W]
	slots chan struct{} // one token per live worker
	done  chan struct{}

	mu     sync.Mutex
	closed bool

	created   atomic.Int64
	destroyed atomic.Int64
	leases    atomic.Int64
}

// New creates an empty pool. No worker is created until Acquire or Prewarm.
func New[W Worker](cfg Config, newWorker func() (W, error)) *Pool[W] {
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	return &Pool[W]{
		newWorker: newWorker,
		cfg:       cfg,
		idle:      make(chan *entry[W], cfg.Max),
		slots:     make(chan struct{}, cfg.Max),
		done:      make(chan struct{}),
	}
}

// Prewarm creates workers until n are live (capped at Config.Max).
func (p *Pool[W]) Prewarm(n int) error {
	if n > p.cfg.Max {
		n = p.cfg.Max
	}
	for len(p.slots) < n {
		select {
		case p.slots <- struct{}{}:
		default:
			return nil
		}
		e, err := p.create()
		if err != nil {
			return fmt.Errorf("creating pool worker %d: %w", len(p.slots), err)
		}
		p.idle <- e
	}
	return nil
}

// Acquire leases a worker. An idle worker is preferred; otherwise a new one
// is created if the pool is below its bound; otherwise Acquire waits for a
// release until ctx is done.
func (p *Pool[W]) Acquire(ctx context.Context) (*Lease[W], error) {
	if p.isClosed() {
		return nil, ErrClosed
	}

	select {
	case e := <-p.idle:
		return p.lease(e), nil
	default:
	}

	select {
	case e := <-p.idle:
		return p.lease(e), nil
	case p.slots <- struct{}{}:
		e, err := p.create()
		if err != nil {
			return nil, err
		}
		return p.lease(e), nil
	case <-p.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrExhausted, ctx.Err())
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[W]) Stats() Stats {
	live, idle := len(p.slots), len(p.idle)
	inUse := live - idle
	if inUse < 0 {
		inUse = 0
	}
	return Stats{
		Live:      live,
		Idle:      idle,
		InUse:     inUse,
		Created:   p.created.Load(),
		Destroyed: p.destroyed.Load(),
		Leases:    p.leases.Load(),
	}
}

// Close destroys all idle workers and makes Acquire fail. Leased workers
// are destroyed when their lease ends.
func (p *Pool[W]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	for {
		select {
		case e := <-p.idle:
			p.destroy(e)
		default:
			return
		}
	}
}

func (p *Pool[W]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// create builds a worker for a slot already taken by the caller. The slot is
// given back on failure.
func (p *Pool[W]) create() (*entry[W], error) {
	w, err := p.newWorker()
	if err != nil {
		<-p.slots
		return nil, err
	}
	p.created.Add(1)
	return &entry[W]{w: w}, nil
}

func (p *Pool[W]) destroy(e *entry[W]) {
	e.w.Close()
	p.destroyed.Add(1)
	<-p.slots
}

func (p *Pool[W]) lease(e *entry[W]) *Lease[W] {
	e.uses++
	p.leases.Add(1)
	return &Lease[W]{pool: p, entry: e}
}

func (p *Pool[W]) put(e *entry[W]) {
	if !p.cfg.Reuse || (p.cfg.MaxUsages > 0 && e.uses >= p.cfg.MaxUsages) {
		p.destroy(e)
		return
	}
	if err := e.w.Reset(); err != nil {
		p.destroy(e)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		e.w.Close()
		p.destroyed.Add(1)
		<-p.slots
		return
	}
	// idle has room for every live worker, so this never blocks.
	p.idle <- e
}

// Lease is exclusive use of one worker.
type Lease[W Worker] struct {
	pool  *Pool[W]
	entry *entry[W]
	once  sync.Once
}

// Worker returns the leased worker.
func (l *Lease[W]) Worker() W {
	return l.entry.w
}

// Release resets the worker and returns it to the pool (or destroys it when
// reuse is disabled, its usage cap is reached, or the pool is closed).
func (l *Lease[W]) Release() {
	l.once.Do(func() { l.pool.put(l.entry) })
}

// Discard destroys the worker without returning it.
func (l *Lease[W]) Discard() {
	l.once.Do(func() { l.pool.destroy(l.entry) })
}
