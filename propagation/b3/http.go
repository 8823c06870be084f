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

/*
Package b3 injects and extracts Zipkin span contexts using B3 headers.

Multiple headers (X-B3-TraceId, X-B3-SpanId, ...) are written on inject.
Extract accepts them in any letter case, and falls back to the single "b3"
header when no multi header is present.
*/
package b3

import (
	"net/http"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go/model"
	zb3 "github.com/openzipkin/zipkin-go/propagation/b3"
)

const (
	traceIDHeader      = "x-b3-traceid"
	spanIDHeader       = "x-b3-spanid"
	parentSpanIDHeader = "x-b3-parentspanid"
	sampledHeader      = "x-b3-sampled"
	flagsHeader        = "x-b3-flags"
	singleHeader       = "b3"
)

// InjectHTTP writes sc into a TextMapWriter such as
// opentracing.HTTPHeadersCarrier.
func InjectHTTP(sc model.SpanContext, carrier interface{}) error {
	c, ok := carrier.(opentracing.TextMapWriter)
	if !ok {
		return opentracing.ErrInvalidCarrier
	}

	if (model.SpanContext{}) == sc {
		return zb3.ErrEmptyContext
	}

	if !sc.TraceID.Empty() && sc.ID > 0 {
		c.Set(zb3.TraceID, sc.TraceID.String())
		c.Set(zb3.SpanID, sc.ID.String())
		if sc.ParentID != nil {
			c.Set(zb3.ParentSpanID, sc.ParentID.String())
		}
	}

	if sc.Debug {
		c.Set(zb3.Flags, "1")
	} else if sc.Sampled != nil {
		if *sc.Sampled {
			c.Set(zb3.Sampled, "1")
		} else {
			c.Set(zb3.Sampled, "0")
		}
	}

	return nil
}

// InjectSingleHeader writes sc as one "b3" header.
func InjectSingleHeader(sc model.SpanContext, carrier interface{}) error {
	c, ok := carrier.(opentracing.TextMapWriter)
	if !ok {
		return opentracing.ErrInvalidCarrier
	}
	if (model.SpanContext{}) == sc {
		return zb3.ErrEmptyContext
	}
	c.Set(singleHeader, zb3.BuildSingleHeader(sc))
	return nil
}

// ExtractHTTP reads a span context from a TextMapReader. The returned
// context is empty, not nil, when the carrier holds no B3 header.
func ExtractHTTP(carrier interface{}) (*model.SpanContext, error) {
	c, ok := carrier.(opentracing.TextMapReader)
	if !ok {
		return nil, opentracing.ErrInvalidCarrier
	}

	var (
		traceID      string
		spanID       string
		parentSpanID string
		sampled      string
		flags        string
		single       string
	)

	err := c.ForeachKey(func(key, val string) error {
		switch strings.ToLower(key) {
		case traceIDHeader:
			traceID = val
		case spanIDHeader:
			spanID = val
		case parentSpanIDHeader:
			parentSpanID = val
		case sampledHeader:
			sampled = val
		case flagsHeader:
			flags = val
		case singleHeader:
			single = val
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if single != "" && traceID == "" && spanID == "" && sampled == "" && flags == "" {
		return zb3.ParseSingleHeader(single)
	}
	return zb3.ParseHeaders(traceID, spanID, parentSpanID, sampled, flags)
}

// InjectRequest writes sc into the headers of req.
func InjectRequest(sc model.SpanContext, req *http.Request) error {
	return InjectHTTP(sc, opentracing.HTTPHeadersCarrier(req.Header))
}

// ExtractRequest reads the span context carried by req.
func ExtractRequest(req *http.Request) (*model.SpanContext, error) {
	return ExtractHTTP(opentracing.HTTPHeadersCarrier(req.Header))
}
