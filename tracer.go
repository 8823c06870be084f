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
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/openzipkin/zipkin-go/model"
	"github.com/pkg/errors"
)

// Tracer creates spans and hands finished ones to a Collector. It does not
// buffer or retry: every Submit is delegated to the collector immediately.
type Tracer struct {
	collector Collector
	opts      TracerOptions
}

// NewTracer returns a Tracer submitting to collector.
func NewTracer(collector Collector, opts ...TracerOption) (*Tracer, error) {
	if collector == nil {
		return nil, errors.New("zipkintracer: collector is required")
	}
	t := &Tracer{
		collector: collector,
		opts: TracerOptions{
			generator: defaultGenerator,
			clock:     clockwork.NewRealClock(),
		},
	}
	for _, o := range opts {
		o(&t.opts)
	}
	if t.opts.generator == nil {
		t.opts.generator = defaultGenerator
	}
	if t.opts.clock == nil {
		t.opts.clock = clockwork.NewRealClock()
	}
	return t, nil
}

// LocalEndpoint returns the endpoint configured with WithLocalEndpoint.
func (t *Tracer) LocalEndpoint() *Endpoint {
	return t.opts.localEndpoint
}

func (t *Tracer) newSpan(name string, traceID model.TraceID) *Span {
	return &Span{
		TraceID:   traceID,
		Name:      name,
		ID:        t.opts.generator.SpanID(traceID),
		Timestamp: t.opts.clock.Now(),
		clock:     t.opts.clock,
		event:     t.opts.listener,
	}
}

// Span starts a new trace. The sampler, if any, is consulted exactly once to
// set the sampling decision.
func (t *Tracer) Span(name string) *Span {
	s := t.newSpan(name, t.opts.generator.TraceID())
	if t.opts.debug {
		s.WithDebug(true)
	}
	if t.opts.sampler != nil {
		s.WithSampled(t.opts.sampler.Sample(s))
	}
	s.onCreate()
	return s
}

// ChildSpan starts a span within the trace of parent. The child follows the
// parent's debug flag and sampling decision; the sampler is not consulted.
// A nil parent starts a new trace.
func (t *Tracer) ChildSpan(parent *Span, name string) *Span {
	if parent == nil {
		return t.Span(name)
	}
	s := t.newSpan(name, parent.TraceID).WithParentID(parent.ID)
	if parent.Debug != nil {
		s.WithDebug(*parent.Debug)
	}
	if parent.Sampled != nil {
		s.WithSampled(*parent.Sampled)
	}
	s.onCreate()
	return s
}

// SpanFromContext starts a span continuing a propagated context, as a child
// of the remote span. The sampler is only consulted when the context carries
// no decision. An empty context starts a new trace.
func (t *Tracer) SpanFromContext(sc model.SpanContext, name string) *Span {
	if sc.TraceID.Empty() {
		return t.Span(name)
	}
	s := t.newSpan(name, sc.TraceID)
	if sc.ID != 0 {
		s.WithParentID(sc.ID)
	}
	if sc.Debug {
		s.WithDebug(true)
	}
	switch {
	case sc.Sampled != nil:
		s.WithSampled(*sc.Sampled)
	case !sc.Debug && t.opts.sampler != nil:
		s.WithSampled(t.opts.sampler.Sample(s))
	}
	s.onCreate()
	return s
}

// Submit finishes spans and forwards them to the collector in one call.
//
// A span whose Duration is zero gets now minus its Timestamp, at least one
// microsecond. A non-zero Duration, such as one derived from an explicit
// finish time, is kept as is.
//
// Spans with Sampled set to false and no debug flag are dropped and never
// reach the collector; the remaining spans are forwarded unchanged. When
// every span is dropped the collector is not called.
func (t *Tracer) Submit(ctx context.Context, spans ...*Span) error {
	now := t.opts.clock.Now()
	kept := spans[:0:0]
	for _, s := range spans {
		if s == nil {
			continue
		}
		s.finish(now)
		if s.Used() {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return t.collector.Submit(ctx, kept...)
}

// Close closes the collector.
func (t *Tracer) Close() error {
	return t.collector.Close()
}
