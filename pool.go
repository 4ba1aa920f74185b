// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrPoolClosed is returned by Acquire and Exec after the pool was closed.
var ErrPoolClosed = errors.New("session pool is closed")

// Pool maintains a fixed set of ready Sessions so concurrent callers can run
// JavaScript without paying engine startup per request. Sessions are created
// eagerly; each one is used by a single goroutine between Acquire and
// Release, preserving the single-caller discipline Sessions require.
type Pool struct {
	idle   chan *Session
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool of size Sessions produced by factory. If any
// Session fails to initialize, the ones already created are closed and the
// error is returned.
func NewPool(size int, factory func() (*Session, error)) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	if factory == nil {
		return nil, errors.New("session factory must be provided")
	}

	p := &Pool{
		idle:   make(chan *Session, size),
		logger: slog.Default(),
	}
	for i := 0; i < size; i++ {
		s, err := factory()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create pool session %d: %w", i, err)
		}
		p.idle <- s
	}
	if p.logger != nil {
		p.logger.Debug("Session pool started", "size", size)
	}
	return p, nil
}

// Acquire takes a Session out of the pool, blocking until one is idle. The
// caller must hand it back with Release.
func (p *Pool) Acquire() (*Session, error) {
	s, ok := <-p.idle
	if !ok {
		return nil, ErrPoolClosed
	}
	return s, nil
}

// Release returns a Session to the pool. A Session released after the pool
// was closed is closed instead of kept.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		s.Close()
		return
	}
	p.idle <- s
}

// Exec runs fn with a pooled Session, handling Acquire and Release around it.
func (p *Pool) Exec(fn func(*Session) error) error {
	s, err := p.Acquire()
	if err != nil {
		return err
	}
	defer p.Release(s)
	return fn(s)
}

// Close shuts the pool down and closes every idle Session. Sessions checked
// out at the time of the call are closed when they are released, and blocked
// Acquire calls return ErrPoolClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	for {
		select {
		case s := <-p.idle:
			if err := s.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		default:
		}
		break
	}
	close(p.idle)
	if p.logger != nil {
		p.logger.Debug("Session pool closed")
	}
	return firstErr
}
