// Copyright 2022 The OpenZipkin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package zipkintracer

import (
	"bytes"
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Future is the eventual outcome of an asynchronous submission. Dropping a
// Future does not cancel the send it stands for.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func completedFuture(err error) *Future {
	f := newFuture()
	f.complete(err)
	return f
}

func (f *Future) complete(err error) {
	f.err = err
	close(f.done)
}

// Done is closed once the submission finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Err returns the outcome of a finished submission, and nil while it is
// still running.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Wait blocks until the submission finished or ctx is done. Giving up on the
// wait leaves the submission running.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncCollector encodes on the calling goroutine and sends from a goroutine
// pool. Only the encoded bytes leave the caller, so spans may be reused as
// soon as a submit returns. Sends are serialized on the transport but their
// order across submissions is not defined.
type AsyncCollector struct {
	p    *pipeline
	pool *pool.Pool

	mtx    sync.RWMutex
	closed bool
}

var _ Collector = (*AsyncCollector)(nil)

// NewAsyncCollector returns an AsyncCollector writing spans encoded by
// encoder to transport.
func NewAsyncCollector(encoder Encoder, transport Transport, opts ...CollectorOption) (*AsyncCollector, error) {
	p, err := newPipeline("async", encoder, transport, opts)
	if err != nil {
		return nil, err
	}
	wp := pool.New()
	if p.opts.poolSize > 0 {
		wp = wp.WithMaxGoroutines(p.opts.poolSize)
	}
	return &AsyncCollector{p: p, pool: wp}, nil
}

// SubmitAsync encodes spans and schedules the send. When encoding fails the
// returned Future is already completed and nothing is scheduled. The send
// runs to completion even if ctx is cancelled afterwards; ctx values are
// still visible to the transport.
func (c *AsyncCollector) SubmitAsync(ctx context.Context, spans ...*Span) *Future {
	f, err := c.submit(ctx, spans)
	if err != nil {
		return completedFuture(err)
	}
	return f
}

// Submit encodes spans and schedules the send, returning only encode
// failures. Send failures are logged and counted.
func (c *AsyncCollector) Submit(ctx context.Context, spans ...*Span) error {
	_, err := c.submit(ctx, spans)
	return err
}

func (c *AsyncCollector) submit(ctx context.Context, spans []*Span) (*Future, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.closed {
		return nil, ErrCollectorClosed
	}
	if len(spans) == 0 {
		return completedFuture(nil), nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, c.p.opts.maxMessageSize))
	if err := c.p.encode(buf, spans); err != nil {
		return nil, err
	}

	payload := buf.Bytes()
	sendCtx := context.WithoutCancel(ctx)
	f := newFuture()
	c.pool.Go(func() {
		f.complete(c.p.send(sendCtx, payload))
	})
	return f, nil
}

// Close waits for scheduled sends and closes the transport. Later submits
// fail with ErrCollectorClosed.
func (c *AsyncCollector) Close() error {
	c.mtx.Lock()
	if c.closed {
		c.mtx.Unlock()
		return nil
	}
	c.closed = true
	c.mtx.Unlock()

	c.pool.Wait()
	return c.p.close()
}
