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

package zipkinot

import (
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

func newTracer(t testing.TB, opts ...zipkintracer.TracerOption) (opentracing.Tracer, *zipkintracer.InMemoryCollector) {
	collector := zipkintracer.NewInMemoryCollector()
	tr, err := zipkintracer.NewTracer(collector, opts...)
	require.NoError(t, err)
	return Wrap(tr), collector
}

func annotationValues(s *zipkintracer.Span) []string {
	values := make([]string, 0, len(s.Annotations))
	for _, a := range s.Annotations {
		values = append(values, a.Value)
	}
	return values
}

func binaryAnnotation(s *zipkintracer.Span, key string) (zipkintracer.BinaryAnnotation, bool) {
	for _, ba := range s.BinaryAnnotations {
		if ba.Key == key {
			return ba, true
		}
	}
	return zipkintracer.BinaryAnnotation{}, false
}

func TestSpanSingleLoggedTaggedSpan(t *testing.T) {
	tracer, collector := newTracer(t, zipkintracer.WithSampler(zipkintracer.AlwaysSample))

	span := tracer.StartSpan("x")
	span.LogEventWithPayload("key1", "{\"user\": 123}")
	span.LogFields(log.String("key2", "value2"), log.Uint32("32bit", 4294967295))
	span.SetTag("key3", "value3")
	span.Finish()

	spans := collector.Flush()
	require.Len(t, spans, 1)
	assert.Equal(t, "x", spans[0].Name)
	assert.Equal(t, []string{
		`event=key1 payload="{\"user\": 123}"`,
		"key2=value2 32bit=4294967295",
	}, annotationValues(spans[0]))

	ba, ok := binaryAnnotation(spans[0], "key3")
	require.True(t, ok)
	assert.Equal(t, "value3", ba.Value.String())
}

func TestSpanNeverSampled(t *testing.T) {
	tracer, collector := newTracer(t, zipkintracer.WithSampler(zipkintracer.NeverSample))

	span := tracer.StartSpan("x")
	span.LogFields(log.String("key_str", "value"))
	span.SetTag("tag", "value")
	span.Finish()
	assert.Empty(t, collector.Flush())
}

func TestSpanSamplingPriority(t *testing.T) {
	tracer, collector := newTracer(t, zipkintracer.WithSampler(zipkintracer.NeverSample))

	span := tracer.StartSpan("forced", opentracing.Tag{Key: string(ext.SamplingPriority), Value: uint16(1)})
	span.Finish()
	spans := collector.Flush()
	require.Len(t, spans, 1)
	assert.True(t, spans[0].IsDebug())

	tracer, collector = newTracer(t)
	span = tracer.StartSpan("dropped")
	ext.SamplingPriority.Set(span, 0)
	span.Finish()
	assert.Empty(t, collector.Flush())
}

func TestTagTranslation(t *testing.T) {
	tracer, collector := newTracer(t)

	span := tracer.StartSpan("x")
	span.SetTag("db.statement", "SELECT 1")
	span.SetTag("db.type", "mysql")
	span.Finish()

	spans := collector.Flush()
	require.Len(t, spans, 1)
	query, ok := binaryAnnotation(spans[0], zipkintracer.SQLQuery)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", query.Value.String())
	_, ok = binaryAnnotation(spans[0], "db.statement")
	assert.False(t, ok)
	dbType, ok := binaryAnnotation(spans[0], "db.type")
	require.True(t, ok)
	assert.Equal(t, "mysql", dbType.Value.String())
}

func TestClientSpanKind(t *testing.T) {
	clock := clockwork.NewFakeClock()
	local := zipkintracer.NewEndpoint("frontend", net.IPv4(10, 0, 0, 1), 80)
	tracer, collector := newTracer(t,
		zipkintracer.WithClock(clock),
		zipkintracer.WithLocalEndpoint(local),
	)

	span := tracer.StartSpan("get", ext.SpanKindRPCClient, opentracing.Tags{
		string(ext.PeerService):  "backend",
		string(ext.PeerHostIPv4): "10.0.0.2",
		string(ext.PeerPort):     uint16(8080),
	})
	clock.Advance(10 * time.Millisecond)
	span.Finish()

	spans := collector.Flush()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, []string{zipkintracer.ClientSend, zipkintracer.ClientRecv}, annotationValues(s))
	assert.Equal(t, 10*time.Millisecond, s.Annotations[1].Timestamp.Sub(s.Annotations[0].Timestamp))
	assert.Equal(t, local, s.Annotations[0].Endpoint)
	assert.Equal(t, 10*time.Millisecond, s.Duration)

	sa, ok := binaryAnnotation(s, zipkintracer.ServerAddr)
	require.True(t, ok)
	v, isBool := sa.Value.AsBool()
	assert.True(t, isBool)
	assert.True(t, v)
	require.NotNil(t, sa.Endpoint)
	assert.Equal(t, "backend", sa.Endpoint.ServiceName)
	assert.Equal(t, net.IPv4(10, 0, 0, 2).To4(), sa.Endpoint.IPv4())
	assert.Equal(t, uint16(8080), sa.Endpoint.Port)
}

func TestServerSpanKind(t *testing.T) {
	for _, kind := range []interface{}{"server", ext.SpanKindRPCServerEnum} {
		tracer, collector := newTracer(t)

		span := tracer.StartSpan("handle", opentracing.Tag{Key: string(ext.SpanKind), Value: kind})
		ext.PeerHostIPv4.Set(span, 0x0a000003)
		span.Finish()

		spans := collector.Flush()
		require.Len(t, spans, 1)
		assert.Equal(t, []string{zipkintracer.ServerRecv, zipkintracer.ServerSend}, annotationValues(spans[0]))
		ca, ok := binaryAnnotation(spans[0], zipkintracer.ClientAddr)
		require.True(t, ok)
		assert.Equal(t, net.IPv4(10, 0, 0, 3).To4(), ca.Endpoint.IPv4())
	}
}

func TestUnknownSpanKindIsKeptAsTag(t *testing.T) {
	tracer, collector := newTracer(t)

	span := tracer.StartSpan("test", opentracing.Tag{Key: "span.kind", Value: "banana"})
	span.Finish()

	spans := collector.Flush()
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].Annotations)
	kind, ok := binaryAnnotation(spans[0], "span.kind")
	require.True(t, ok)
	assert.Equal(t, "banana", kind.Value.String())
}

func TestChildOfReference(t *testing.T) {
	tracer, collector := newTracer(t)

	parent := tracer.StartSpan("parent")
	child := tracer.StartSpan("child", opentracing.ChildOf(parent.Context()))
	follower := tracer.StartSpan("follower", opentracing.FollowsFrom(child.Context()))
	follower.Finish()
	child.Finish()
	parent.Finish()

	spans := collector.Flush()
	require.Len(t, spans, 3)
	f, c, p := spans[0], spans[1], spans[2]
	assert.Equal(t, p.TraceID, c.TraceID)
	assert.Equal(t, p.TraceID, f.TraceID)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, p.ID, *c.ParentID)
	require.NotNil(t, f.ParentID)
	assert.Equal(t, c.ID, *f.ParentID)
	assert.Nil(t, p.ParentID)
}

func TestFinishWithOptions(t *testing.T) {
	tracer, collector := newTracer(t)
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	span := tracer.StartSpan("timed", opentracing.StartTime(start))
	span.SetOperationName("renamed")
	span.FinishWithOptions(opentracing.FinishOptions{
		FinishTime: start.Add(time.Second),
		LogRecords: []opentracing.LogRecord{{
			Timestamp: start.Add(500 * time.Millisecond),
			Fields:    []log.Field{log.String("event", "halfway")},
		}},
	})
	span.Finish()

	spans := collector.Flush()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "renamed", s.Name)
	assert.Equal(t, start, s.Timestamp)
	assert.Equal(t, time.Second, s.Duration)
	require.Len(t, s.Annotations, 1)
	assert.Equal(t, "event=halfway", s.Annotations[0].Value)
	assert.Equal(t, start.Add(500*time.Millisecond), s.Annotations[0].Timestamp)
}

func TestMaterializers(t *testing.T) {
	fields := []log.Field{log.String("event", "retry"), log.Int("attempt", 2)}

	b, err := MaterializeWithLogFmt(fields)
	require.NoError(t, err)
	assert.Equal(t, "event=retry attempt=2", string(b))

	b, err = MaterializeWithJSON(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"retry","attempt":"2"}`, string(b))

	b, err = StrictZipkinMaterializer(fields)
	require.NoError(t, err)
	assert.Equal(t, "retry", string(b))

	_, err = StrictZipkinMaterializer([]log.Field{log.Int("attempt", 2)})
	assert.Equal(t, errEventLogNotFound, err)
}

func TestStrictMaterializerDropsOtherLogs(t *testing.T) {
	collector := zipkintracer.NewInMemoryCollector()
	tr, err := zipkintracer.NewTracer(collector)
	require.NoError(t, err)
	tracer := Wrap(tr, WithStrictMaterializer())

	span := tracer.StartSpan("x")
	span.LogKV("event", "cache miss", "key", "user:1")
	span.LogKV("key", "user:2")
	span.Finish()

	spans := collector.Flush()
	require.Len(t, spans, 1)
	assert.Equal(t, []string{"cache miss"}, annotationValues(spans[0]))
}
