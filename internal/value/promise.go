// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package value

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Promise is a goroutine-backed Future.
type Promise struct {
	id     string
	done   chan struct{}
	result any
	err    error
}

// ID returns the promise identifier.
func (p *Promise) ID() string { return p.id }

// Await implements Future.
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the promise has settled.
func (p *Promise) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Promise) String() string { return "<future " + p.id + ">" }

// Resolved returns an already settled Future.
func Resolved(v any) Future {
	p := &Promise{id: "_resolved", done: make(chan struct{}), result: v}
	close(p.done)
	return p
}

// PromiseGroup tracks the promises started for one runtime.
type PromiseGroup struct {
	counter atomic.Int64
	pending atomic.Int64
	wg      sync.WaitGroup
}

// NewPromiseGroup creates an empty group.
func NewPromiseGroup() *PromiseGroup {
	return &PromiseGroup{}
}

// Go runs fn on its own goroutine and returns a Promise for its result.
func (g *PromiseGroup) Go(fn func() (any, error)) *Promise {
	p := &Promise{
		id:   fmt.Sprintf("_async_%d", g.counter.Add(1)),
		done: make(chan struct{}),
	}
	g.pending.Add(1)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer close(p.done)
		defer g.pending.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				p.err = fmt.Errorf("async host function panicked: %v", r)
			}
		}()
		p.result, p.err = fn()
	}()
	return p
}

// After returns a promise resolving to v once d has elapsed.
func (g *PromiseGroup) After(d time.Duration, v any) *Promise {
	return g.Go(func() (any, error) {
		time.Sleep(d)
		return v, nil
	})
}

// Pending returns the number of unsettled promises.
func (g *PromiseGroup) Pending() int { return int(g.pending.Load()) }

// Shutdown waits for running goroutines, giving up after five seconds.
func (g *PromiseGroup) Shutdown() {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
