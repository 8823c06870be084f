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

package b3_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go/model"
	zb3 "github.com/openzipkin/zipkin-go/propagation/b3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
	"github.com/openzipkin-contrib/zipkin-go-v1/propagation/b3"
)

func TestHTTPExtractFlagsOnly(t *testing.T) {
	c := http.Header{}
	c.Set(zb3.Flags, "1")

	sc, err := b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
	require.NoError(t, err)
	assert.True(t, sc.Debug)
}

func TestHTTPExtractSampledOnly(t *testing.T) {
	c := http.Header{}
	c.Set(zb3.Sampled, "0")

	sc, err := b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
	require.NoError(t, err)
	require.NotNil(t, sc.Sampled)
	assert.False(t, *sc.Sampled)

	c = http.Header{}
	c.Set(zb3.Sampled, "1")

	sc, err = b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
	require.NoError(t, err)
	require.NotNil(t, sc.Sampled)
	assert.True(t, *sc.Sampled)
}

func TestHTTPExtractFlagsAndSampledOnly(t *testing.T) {
	c := http.Header{}
	c.Set(zb3.Flags, "1")
	c.Set(zb3.Sampled, "1")

	sc, err := b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
	require.NoError(t, err)
	assert.True(t, sc.Debug)
	// Sampled should not be set when sc.Debug is set.
	assert.Nil(t, sc.Sampled)
}

func TestHTTPExtractSampledErrors(t *testing.T) {
	c := http.Header{}
	c.Set(zb3.Sampled, "2")

	sc, err := b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
	assert.Equal(t, zb3.ErrInvalidSampledHeader, err)
	assert.Nil(t, sc)
}

func TestHTTPExtractFlagsErrors(t *testing.T) {
	values := map[string]bool{
		"1":    true,  // only acceptable Flags value, debug switches to true
		"true": false, // true is not a valid value for Flags
		"3":    false, // Flags is not a bitset
		"6":    false,
		"7":    false,
	}
	for value, debug := range values {
		c := http.Header{}
		c.Set(zb3.Flags, value)
		sc, err := b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
		require.NoError(t, err, value)
		assert.Equal(t, debug, sc.Debug, value)
	}
}

func TestHTTPExtractErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		headers map[string]string
		want    error
	}{
		{"trace id", map[string]string{zb3.TraceID: "invalid_data"}, zb3.ErrInvalidTraceIDHeader},
		{"span id", map[string]string{zb3.SpanID: "invalid_data"}, zb3.ErrInvalidSpanIDHeader},
		{"trace id only", map[string]string{zb3.TraceID: "1"}, zb3.ErrInvalidScope},
		{"span id only", map[string]string{zb3.SpanID: "1"}, zb3.ErrInvalidScope},
		{"parent id only", map[string]string{zb3.ParentSpanID: "1"}, zb3.ErrInvalidScopeParent},
		{"invalid parent id", map[string]string{
			zb3.TraceID:      "1",
			zb3.SpanID:       "2",
			zb3.ParentSpanID: "invalid_data",
		}, zb3.ErrInvalidParentSpanIDHeader},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := http.Header{}
			for k, v := range tc.headers {
				c.Set(k, v)
			}
			_, err := b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
			assert.Equal(t, tc.want, err)
		})
	}
}

func TestHTTPExtractAnyCase(t *testing.T) {
	carrier := opentracing.TextMapCarrier{
		"X-B3-TRACEID": "000000000000007b",
		"x-b3-SpanId":  "00000000000001c8",
	}
	sc, err := b3.ExtractHTTP(carrier)
	require.NoError(t, err)
	assert.Equal(t, model.TraceID{Low: 123}, sc.TraceID)
	assert.Equal(t, model.ID(456), sc.ID)
}

func TestHTTPExtractSingleHeader(t *testing.T) {
	c := http.Header{}
	c.Set("b3", "000000000000007b-00000000000001c8-1")

	sc, err := b3.ExtractHTTP(opentracing.HTTPHeadersCarrier(c))
	require.NoError(t, err)
	assert.Equal(t, model.TraceID{Low: 123}, sc.TraceID)
	assert.Equal(t, model.ID(456), sc.ID)
	require.NotNil(t, sc.Sampled)
	assert.True(t, *sc.Sampled)

	out := opentracing.TextMapCarrier{}
	require.NoError(t, b3.InjectSingleHeader(*sc, out))
	assert.Equal(t, "000000000000007b-00000000000001c8-1", out["b3"])
}

func TestHTTPExtractInvalidCarrier(t *testing.T) {
	_, err := b3.ExtractHTTP("not a carrier")
	assert.Equal(t, opentracing.ErrInvalidCarrier, err)
	assert.Equal(t, opentracing.ErrInvalidCarrier, b3.InjectHTTP(model.SpanContext{Debug: true}, 42))
}

func TestHTTPInjectEmptyContextError(t *testing.T) {
	err := b3.InjectHTTP(model.SpanContext{}, opentracing.TextMapCarrier{})
	assert.Equal(t, zb3.ErrEmptyContext, err)
}

func TestHTTPInjectDebugOnly(t *testing.T) {
	c := http.Header{}
	require.NoError(t, b3.InjectHTTP(model.SpanContext{Debug: true}, opentracing.HTTPHeadersCarrier(c)))
	assert.Equal(t, "1", c.Get(zb3.Flags))
}

func TestHTTPInjectSampledOnly(t *testing.T) {
	c := http.Header{}
	sampled := false
	require.NoError(t, b3.InjectHTTP(model.SpanContext{Sampled: &sampled}, opentracing.HTTPHeadersCarrier(c)))
	assert.Equal(t, "0", c.Get(zb3.Sampled))
}

func TestHTTPInjectSampledAndDebugTrace(t *testing.T) {
	c := http.Header{}
	sampled := true
	sc := model.SpanContext{
		TraceID: model.TraceID{Low: 1},
		ID:      model.ID(2),
		Debug:   true,
		Sampled: &sampled,
	}
	require.NoError(t, b3.InjectHTTP(sc, opentracing.HTTPHeadersCarrier(c)))
	assert.Equal(t, "", c.Get(zb3.Sampled))
	assert.Equal(t, "1", c.Get(zb3.Flags))
}

func TestHTTPExtractScope(t *testing.T) {
	collector := zipkintracer.NewInMemoryCollector()
	tracer, err := zipkintracer.NewTracer(collector)
	require.NoError(t, err)

	iterations := 1000
	for i := 0; i < iterations; i++ {
		var (
			parent      = tracer.Span("parent")
			child       = tracer.ChildSpan(parent, "child")
			wantContext = child.Context()
		)

		req, err := http.NewRequest(http.MethodGet, "http://localhost/", nil)
		require.NoError(t, err)
		require.NoError(t, b3.InjectRequest(wantContext, req))

		haveContext, err := b3.ExtractRequest(req)
		require.NoError(t, err)
		require.NotNil(t, haveContext)
		assert.Equal(t, wantContext.TraceID, haveContext.TraceID)
		assert.Equal(t, wantContext.ID, haveContext.ID)
		require.NotNil(t, haveContext.ParentID)
		assert.Equal(t, *wantContext.ParentID, *haveContext.ParentID)

		require.NoError(t, tracer.Submit(context.Background(), child, parent))
	}

	// parent and child of every iteration
	assert.Len(t, collector.Flush(), 2*iterations)
}

func TestGRPCRoundTrip(t *testing.T) {
	sampled := true
	parent := model.ID(7)
	want := model.SpanContext{
		TraceID:  model.TraceID{High: 1, Low: 2},
		ID:       model.ID(3),
		ParentID: &parent,
		Sampled:  &sampled,
	}

	md := metadata.MD{}
	require.NoError(t, b3.InjectGRPC(want, &md))
	assert.Equal(t, []string{want.TraceID.String()}, md.Get("x-b3-traceid"))

	have, err := b3.ExtractGRPC(&md)
	require.NoError(t, err)
	assert.Equal(t, want.TraceID, have.TraceID)
	assert.Equal(t, want.ID, have.ID)
	require.NotNil(t, have.ParentID)
	assert.Equal(t, parent, *have.ParentID)
	require.NotNil(t, have.Sampled)
	assert.True(t, *have.Sampled)
}

func TestGRPCInjectEmptyContext(t *testing.T) {
	md := metadata.MD{}
	assert.Equal(t, zb3.ErrEmptyContext, b3.InjectGRPC(model.SpanContext{}, &md))
}
