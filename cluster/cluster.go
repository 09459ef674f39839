// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cluster supervises a group of Executors running against the
// same set of instances: a process-wide interrupt flag each of them
// polls, plus the goroutine bookkeeping to launch them, bound their
// concurrency, and join them on shutdown.
package cluster

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Cluster owns the interrupt flag every attached ExecContext polls
// (exec.ExecContext.checkInterrupt, via the exec.Cluster interface)
// and bounds how many Executors may run concurrently against it.
type Cluster struct {
	interrupted int32 // accessed atomically

	sem *semaphore.Weighted
	g   *errgroup.Group
	ctx context.Context
}

// New returns a Cluster that allows up to maxConcurrent Executors to
// run at once. maxConcurrent <= 0 means unbounded.
func New(ctx context.Context, maxConcurrent int64) *Cluster {
	g, gctx := errgroup.WithContext(ctx)
	c := &Cluster{g: g, ctx: gctx}
	if maxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(maxConcurrent)
	}
	return c
}

// Interrupted reports whether the cluster has been told to stop.
// exec.ExecContext polls this once per instruction (or a batched
// equivalent) and aborts the running call with exec.ErrRestart when it
// is true. The call is unwound, not suspended: the caller runs it
// again from the start with a new Invoke.
func (c *Cluster) Interrupted() bool {
	return atomic.LoadInt32(&c.interrupted) != 0
}

// Interrupt sets the cluster-wide interrupt flag. Safe to call from
// any goroutine, including from within a running Executor (e.g. a
// host function implementing a watchdog).
func (c *Cluster) Interrupt() {
	atomic.StoreInt32(&c.interrupted, 1)
}

// Reset clears the interrupt flag, so the next Invoke on an attached
// ExecContext runs instead of returning exec.ErrRestart.
func (c *Cluster) Reset() {
	atomic.StoreInt32(&c.interrupted, 0)
}

// Go runs fn as a tracked member of the cluster, blocking until a
// concurrency slot is available. The first fn to return a non-nil
// error cancels the cluster's context (reachable via Context) and
// that error is what Wait ultimately returns.
func (c *Cluster) Go(fn func(ctx context.Context) error) error {
	if c.sem != nil {
		if err := c.sem.Acquire(c.ctx, 1); err != nil {
			return err
		}
	}
	c.g.Go(func() error {
		if c.sem != nil {
			defer c.sem.Release(1)
		}
		return fn(c.ctx)
	})
	return nil
}

// Wait blocks until every goroutine started with Go has returned,
// returning the first non-nil error, if any.
func (c *Cluster) Wait() error {
	return c.g.Wait()
}

// Context returns the cluster's derived context, cancelled once any
// tracked goroutine returns an error.
func (c *Cluster) Context() context.Context {
	return c.ctx
}
