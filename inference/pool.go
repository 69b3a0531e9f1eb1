package inference

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrPoolClosed is returned when taking a Session from a closed Pool
	ErrPoolClosed = errors.New("session pool is closed")
)

// Pool is a simple pool of Sessions opened on the same Model so concurrent
// callers each get their own inference context
type Pool struct {
	// pool of sessions
	sessions chan Session
	// size of pool
	size   int
	mu     sync.RWMutex
	closed bool
	close  sync.Once
}

// NewPool creates a new session pool of the given size
func NewPool(size int, model Model) (*Pool, error) {

	if size < 1 {
		return nil, fmt.Errorf("invalid pool size %d", size)
	}

	p := &Pool{
		sessions: make(chan Session, size),
		size:     size,
	}

	for i := 0; i < size; i++ {
		s, err := model.NewSession()

		if err != nil {
			// close any sessions that may have been created before receiving
			// the error
			p.Close()
			return nil, fmt.Errorf("error creating session %d: %w", i, err)
		}

		// attach to pool
		p.Return(s)
	}

	return p, nil
}

// Get takes a session from the pool, blocking until one is available
func (p *Pool) Get() (Session, error) {

	s, ok := <-p.sessions

	if !ok {
		return nil, ErrPoolClosed
	}

	return s, nil
}

// Return a session to the pool.  Sessions returned after the pool has been
// closed are closed instead.
func (p *Pool) Return(s Session) {

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		_ = s.Close()
		return
	}

	select {
	case p.sessions <- s:
	default:
		// pool is full
		_ = s.Close()
	}
}

// Size returns the number of sessions the pool was created with
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all sessions currently in it
func (p *Pool) Close() {
	p.close.Do(func() {
		p.mu.Lock()
		p.closed = true
		// close channel
		close(p.sessions)
		p.mu.Unlock()

		// close all idle sessions
		for next := range p.sessions {
			_ = next.Close()
		}
	})
}
