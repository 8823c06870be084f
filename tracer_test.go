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
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/openzipkin/zipkin-go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracer(t *testing.T, opts ...TracerOption) (*Tracer, *InMemoryCollector) {
	t.Helper()
	c := NewInMemoryCollector()
	tracer, err := NewTracer(c, opts...)
	require.NoError(t, err)
	return tracer, c
}

type countingSampler struct {
	calls int
	keep  bool
}

func (s *countingSampler) Sample(*Span) bool {
	s.calls++
	return s.keep
}

func TestNewTracerRequiresCollector(t *testing.T) {
	_, err := NewTracer(nil)
	assert.Error(t, err)
}

func TestTracerSpanConsultsSamplerOnce(t *testing.T) {
	sampler := &countingSampler{keep: true}
	tracer, _ := newTestTracer(t, WithSampler(sampler))

	span := tracer.Span("root")
	assert.Equal(t, 1, sampler.calls)
	require.NotNil(t, span.Sampled)
	assert.True(t, *span.Sampled)
	assert.Nil(t, span.ParentID)
	assert.Nil(t, span.Debug)

	child := tracer.ChildSpan(span, "child")
	assert.Equal(t, 1, sampler.calls)
	assert.Equal(t, span.TraceID, child.TraceID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, span.ID, *child.ParentID)
	assert.NotEqual(t, span.ID, child.ID)
	assert.True(t, *child.Sampled)
}

func TestTracerWithoutSamplerLeavesDecisionUnset(t *testing.T) {
	tracer, _ := newTestTracer(t)
	span := tracer.Span("root")
	assert.Nil(t, span.Sampled)
	assert.True(t, span.Used())
}

func TestTracerChildOfUnsampledParent(t *testing.T) {
	tracer, _ := newTestTracer(t, WithSampler(NeverSample))
	parent := tracer.Span("root")
	child := tracer.ChildSpan(parent, "child")
	assert.False(t, child.Used())

	orphan := tracer.ChildSpan(nil, "orphan")
	assert.Nil(t, orphan.ParentID)
}

func TestTracerDebug(t *testing.T) {
	tracer, _ := newTestTracer(t, WithDebug(true), WithSampler(NeverSample))
	span := tracer.Span("root")
	assert.True(t, span.IsDebug())
	assert.True(t, span.Used())
	assert.True(t, tracer.ChildSpan(span, "child").IsDebug())
}

func TestTracerSubmitComputesDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracer, c := newTestTracer(t, WithClock(clock))

	span := tracer.Span("root")
	assert.Equal(t, clock.Now(), span.Timestamp)
	clock.Advance(42 * time.Millisecond)
	span.Annotate(ServerSend, nil)
	require.NoError(t, tracer.Submit(context.Background(), span))

	spans := c.Flush()
	require.Len(t, spans, 1)
	assert.Equal(t, 42*time.Millisecond, spans[0].Duration)
	assert.Equal(t, clock.Now(), spans[0].Annotations[0].Timestamp)
}

func TestTracerSubmitKeepsExplicitDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracer, c := newTestTracer(t, WithClock(clock))

	explicit := tracer.Span("explicit")
	explicit.Duration = time.Hour
	measured := tracer.Span("measured")
	clock.Advance(5 * time.Second)
	require.NoError(t, tracer.Submit(context.Background(), explicit, measured))

	spans := c.Flush()
	require.Len(t, spans, 2)
	assert.Equal(t, time.Hour, spans[0].Duration)
	assert.Equal(t, 5*time.Second, spans[1].Duration)
}

func TestTracerSubmitDropsOnlyUnsampled(t *testing.T) {
	tracer, c := newTestTracer(t)
	sampled := tracer.Span("sampled").WithSampled(true)
	unsampled := tracer.Span("unsampled").WithSampled(false)
	undecided := tracer.Span("undecided")
	require.NoError(t, tracer.Submit(context.Background(), sampled, unsampled, undecided))

	spans := c.Flush()
	require.Len(t, spans, 2)
	assert.Equal(t, "sampled", spans[0].Name)
	assert.Equal(t, "undecided", spans[1].Name)
}

func TestTracerSubmitDropsUnsampled(t *testing.T) {
	tracer, c := newTestTracer(t, WithSampler(NeverSample))
	require.NoError(t, tracer.Submit(context.Background(), tracer.Span("dropped"), nil))
	assert.Empty(t, c.Spans())

	kept := tracer.Span("kept").WithDebug(true)
	require.NoError(t, tracer.Submit(context.Background(), kept))
	assert.Len(t, c.Spans(), 1)
}

func TestTracerSubmitReturnsCollectorError(t *testing.T) {
	transport := &recordingTransport{err: ErrCollectorClosed}
	collector, err := NewCollector(&nameEncoder{}, transport)
	require.NoError(t, err)
	tracer, err := NewTracer(collector)
	require.NoError(t, err)

	assert.Equal(t, ErrCollectorClosed, tracer.Submit(context.Background(), tracer.Span("x")))
	require.NoError(t, tracer.Close())
	assert.Equal(t, int32(1), transport.closed.Load())
}

func TestTracerSpanFromContext(t *testing.T) {
	sampler := &countingSampler{keep: true}
	tracer, _ := newTestTracer(t, WithSampler(sampler))

	no := false
	remote := model.SpanContext{TraceID: model.TraceID{Low: 1}, ID: 2, Sampled: &no}
	span := tracer.SpanFromContext(remote, "server")
	assert.Equal(t, remote.TraceID, span.TraceID)
	assert.Equal(t, model.ID(2), *span.ParentID)
	assert.False(t, span.Used())
	assert.Equal(t, 0, sampler.calls)

	undecided := tracer.SpanFromContext(model.SpanContext{TraceID: model.TraceID{Low: 1}, ID: 2}, "server")
	assert.Equal(t, 1, sampler.calls)
	assert.True(t, *undecided.Sampled)

	debug := tracer.SpanFromContext(model.SpanContext{TraceID: model.TraceID{Low: 1}, Debug: true}, "server")
	assert.True(t, debug.IsDebug())
	assert.Nil(t, debug.ParentID)
	assert.Equal(t, 1, sampler.calls)

	fresh := tracer.SpanFromContext(model.SpanContext{}, "root")
	assert.False(t, fresh.TraceID.Empty())
	assert.Equal(t, 2, sampler.calls)
}

func TestTracerIDGeneratorAndEndpoint(t *testing.T) {
	endpoint := NewEndpoint("svc", nil, 0)
	tracer, _ := newTestTracer(t, WithIDGenerator(NewSeededGenerator(7, false)), WithLocalEndpoint(endpoint))
	want := NewSeededGenerator(7, false)

	span := tracer.Span("root")
	traceID := want.TraceID()
	assert.Equal(t, traceID, span.TraceID)
	assert.Equal(t, want.SpanID(traceID), span.ID)
	assert.Same(t, endpoint, tracer.LocalEndpoint())
}

func TestTracerSpanEvents(t *testing.T) {
	var events []SpanEvent
	tracer, _ := newTestTracer(t, WithSpanEventListener(func(e SpanEvent) {
		events = append(events, e)
	}))

	span := tracer.Span("root")
	span.Annotate(ClientSend, nil)
	span.BinaryAnnotate(HTTPPath, "/", nil)
	require.NoError(t, tracer.Submit(context.Background(), span))

	require.Len(t, events, 4)
	assert.Equal(t, EventCreate{Name: "root", TraceID: span.TraceID, ID: span.ID}, events[0])
	assert.Equal(t, ClientSend, events[1].(EventAnnotate).Value)
	assert.Equal(t, HTTPPath, events[2].(EventBinaryAnnotate).Key)
	assert.Same(t, span, events[3].(EventFinish).Span)
}
