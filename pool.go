package postrender

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps automatic sizing; each member may own a browser (~200MB).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("enhancer pool closed")

// EnhancerPool manages Enhancer instances for parallel processing.
// Each goroutine acquires its own Enhancer, so no instance is ever shared.
// Enhancers are created lazily on first acquire to avoid startup delay.
type EnhancerPool struct {
	size      int
	newFn     func() (*Enhancer, error)
	enhancers []*Enhancer
	sem       chan *Enhancer
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewEnhancerPool creates a pool with capacity for n Enhancers built by newFn.
// A nil newFn builds default Enhancers. newFn must not hand out a shared
// DiagramRenderer that holds a browser.
// Enhancers are created lazily when acquired, not at pool creation.
func NewEnhancerPool(n int, newFn func() (*Enhancer, error)) *EnhancerPool {
	if n < 1 {
		n = 1
	}
	if newFn == nil {
		newFn = func() (*Enhancer, error) { return NewEnhancer() }
	}

	return &EnhancerPool{
		size:      n,
		newFn:     newFn,
		enhancers: make([]*Enhancer, 0, n),
		sem:       make(chan *Enhancer, n),
	}
}

// Acquire gets an Enhancer from the pool, creating one if needed.
// Blocks if all Enhancers are in use.
func (p *EnhancerPool) Acquire() (*Enhancer, error) {
	// Try to get an existing enhancer (non-blocking)
	select {
	case e, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return e, nil
	default:
	}

	// Check if we can create a new enhancer
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new enhancer outside the lock
		e, err := p.newFn()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.enhancers = append(p.enhancers, e)
		p.mu.Unlock()

		return e, nil
	}
	p.mu.Unlock()

	// All enhancers created, wait for one to be released
	e, ok := <-p.sem
	if !ok {
		return nil, ErrPoolClosed
	}
	return e, nil
}

// Release returns an Enhancer to the pool.
// The lock is held while sending so Close cannot close the channel mid-send;
// the channel has room for every created Enhancer, so the send never blocks.
func (p *EnhancerPool) Release(e *Enhancer) {
	if e == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- e
}

// Close releases all browser resources.
// Returns an aggregated error if multiple enhancers fail to close.
func (p *EnhancerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	enhancers := p.enhancers
	p.mu.Unlock()

	var errs []error
	for _, e := range enhancers {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *EnhancerPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
