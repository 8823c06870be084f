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
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go/model"

	"github.com/openzipkin-contrib/zipkin-go-v1/propagation/b3"
)

type textMapPropagator struct {
	tracer *tracerImpl
}

func (p *textMapPropagator) Inject(spanContext opentracing.SpanContext, carrier interface{}) error {
	sc, ok := spanContext.(SpanContext)
	if !ok {
		return opentracing.ErrInvalidSpanContext
	}
	switch p.tracer.opts.b3InjectOpt {
	case B3InjectSingle:
		return b3.InjectSingleHeader(model.SpanContext(sc), carrier)
	case B3InjectBoth:
		if err := b3.InjectSingleHeader(model.SpanContext(sc), carrier); err != nil {
			return err
		}
	}
	return b3.InjectHTTP(model.SpanContext(sc), carrier)
}

func (p *textMapPropagator) Extract(carrier interface{}) (opentracing.SpanContext, error) {
	sc, err := b3.ExtractHTTP(carrier)
	if err != nil {
		return nil, err
	}
	if (model.SpanContext{}) == *sc {
		return nil, opentracing.ErrSpanContextNotFound
	}
	return SpanContext(*sc), nil
}

type accessorPropagator struct {
	tracer *tracerImpl
}

// DelegatingCarrier is a flexible carrier interface which can be implemented
// by types which have a means of storing the trace metadata and already know
// how to serialize themselves.
type DelegatingCarrier interface {
	SetState(traceID model.TraceID, spanID model.ID, parentSpanID *model.ID, sampled *bool, debug bool)
	State() (traceID model.TraceID, spanID model.ID, parentSpanID *model.ID, sampled *bool, debug bool)
}

func (p *accessorPropagator) Inject(spanContext opentracing.SpanContext, carrier interface{}) error {
	dc, ok := carrier.(DelegatingCarrier)
	if !ok || dc == nil {
		return opentracing.ErrInvalidCarrier
	}
	sc, ok := spanContext.(SpanContext)
	if !ok {
		return opentracing.ErrInvalidSpanContext
	}
	dc.SetState(sc.TraceID, sc.ID, sc.ParentID, sc.Sampled, sc.Debug)
	return nil
}

func (p *accessorPropagator) Extract(carrier interface{}) (opentracing.SpanContext, error) {
	dc, ok := carrier.(DelegatingCarrier)
	if !ok || dc == nil {
		return nil, opentracing.ErrInvalidCarrier
	}

	traceID, spanID, parentSpanID, sampled, debug := dc.State()
	if traceID.Empty() {
		return nil, opentracing.ErrSpanContextNotFound
	}
	return SpanContext{
		TraceID:  traceID,
		ID:       spanID,
		ParentID: parentSpanID,
		Sampled:  sampled,
		Debug:    debug,
	}, nil
}
