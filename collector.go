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
	"sync/atomic"
)

// Encoder serializes a batch of spans into a wire format.
type Encoder interface {
	// Encode appends the encoded spans to buf.
	Encode(buf *bytes.Buffer, spans []*Span) error
	// MimeType is the content type of the encoded payload.
	MimeType() string
}

// Transport delivers encoded payloads to a Zipkin backend. Implementations
// must not retain payload after Send returns.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// ContentTypeSetter is implemented by transports that label payloads with
// the MIME type of the encoder feeding them. Collectors call it once, before
// the first Send.
type ContentTypeSetter interface {
	SetContentType(mime string)
}

// Collector represents a Zipkin trace collector, which is probably a set of
// remote endpoints.
type Collector interface {
	Submit(ctx context.Context, spans ...*Span) error
	Close() error
}

// NopCollector implements Collector but performs no work.
type NopCollector struct{}

// Submit implements Collector.
func (NopCollector) Submit(context.Context, ...*Span) error { return nil }

// Close implements Collector.
func (NopCollector) Close() error { return nil }

var bufferPool sync.Pool

func getBuffer(size int) *bytes.Buffer {
	if b, ok := bufferPool.Get().(*bytes.Buffer); ok {
		b.Reset()
		return b
	}
	return bytes.NewBuffer(make([]byte, 0, size))
}

func putBuffer(b *bytes.Buffer) {
	bufferPool.Put(b)
}

// pipeline holds the guarded encoder and transport shared by both collector
// flavours. The encoder is always released before the transport is taken.
type pipeline struct {
	kind      string
	encoder   *guard[Encoder]
	transport *guard[Transport]
	opts      collectorOptions
	errLog    *StateLogger
}

func newPipeline(kind string, encoder Encoder, transport Transport, opts []CollectorOption) (*pipeline, error) {
	o, err := newCollectorOptions(opts)
	if err != nil {
		return nil, err
	}
	if setter, ok := transport.(ContentTypeSetter); ok && encoder != nil {
		setter.SetContentType(encoder.MimeType())
	}
	return &pipeline{
		kind:      kind,
		encoder:   newGuard(encoder),
		transport: newGuard(transport),
		opts:      o,
		errLog:    NewStateLogger(o.logger, o.logErrorInterval),
	}, nil
}

func (p *pipeline) encode(buf *bytes.Buffer, spans []*Span) error {
	p.opts.metrics.submitted(p.kind, len(spans))
	err := p.encoder.with(func(enc Encoder) error {
		return enc.Encode(buf, spans)
	})
	if err != nil {
		p.opts.metrics.encodeFailed(p.kind)
		p.errLog.LogError(err, "collector", p.kind, "stage", "encode")
	}
	return err
}

func (p *pipeline) send(ctx context.Context, payload []byte) error {
	err := p.transport.with(func(t Transport) error {
		return t.Send(ctx, payload)
	})
	if err != nil {
		p.opts.metrics.sendFailed(p.kind)
		p.errLog.LogError(err, "collector", p.kind, "stage", "send")
		return err
	}
	p.opts.metrics.sent(p.kind, len(payload))
	p.errLog.Fixed("msg", "transport recovered", "collector", p.kind)
	return nil
}

func (p *pipeline) close() error {
	return p.transport.with(func(t Transport) error {
		return t.Close()
	})
}

// SyncCollector encodes and sends on the calling goroutine. Submissions are
// serialized: at most one encode and one send are in flight at any time.
type SyncCollector struct {
	p      *pipeline
	closed atomic.Bool
}

var _ Collector = (*SyncCollector)(nil)

// NewCollector returns a SyncCollector writing spans encoded by encoder to
// transport.
func NewCollector(encoder Encoder, transport Transport, opts ...CollectorOption) (*SyncCollector, error) {
	p, err := newPipeline("sync", encoder, transport, opts)
	if err != nil {
		return nil, err
	}
	return &SyncCollector{p: p}, nil
}

// Submit encodes spans as one payload and sends it, returning the first
// failure.
func (c *SyncCollector) Submit(ctx context.Context, spans ...*Span) error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}
	if len(spans) == 0 {
		return nil
	}
	buf := getBuffer(c.p.opts.maxMessageSize)
	defer putBuffer(buf)
	if err := c.p.encode(buf, spans); err != nil {
		return err
	}
	return c.p.send(ctx, buf.Bytes())
}

// Close closes the transport. Later submits fail with ErrCollectorClosed.
func (c *SyncCollector) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.p.close()
}
