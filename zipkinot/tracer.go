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
Package zipkinot exposes a zipkintracer.Tracer as an opentracing.Tracer.

OpenTracing spans map onto Zipkin v1 spans: span.kind becomes the cs/cr or
sr/ss core annotations, peer.* tags become the sa or ca endpoint annotation,
logs become timestamped annotations and every other tag becomes a binary
annotation on the local endpoint.
*/
package zipkinot

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go/model"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

type tracerImpl struct {
	tracer             *zipkintracer.Tracer
	textPropagator     *textMapPropagator
	accessorPropagator *accessorPropagator
	opts               *TracerOptions
}

// Wrap returns an opentracing.Tracer creating its spans with tr. Finished
// spans are submitted through tr.
func Wrap(tr *zipkintracer.Tracer, opts ...TracerOption) opentracing.Tracer {
	t := &tracerImpl{
		tracer: tr,
		opts: &TracerOptions{
			materializer: MaterializeWithLogFmt,
			submitCtx:    context.Background(),
		},
	}
	t.textPropagator = &textMapPropagator{t}
	t.accessorPropagator = &accessorPropagator{t}

	for _, o := range opts {
		o(t.opts)
	}
	if len(t.opts.observers) > 0 {
		t.opts.observer = observer{observers: t.opts.observers}
	}

	return t
}

func (t *tracerImpl) StartSpan(operationName string, opts ...opentracing.StartSpanOption) opentracing.Span {
	var startSpanOptions opentracing.StartSpanOptions
	for _, opt := range opts {
		opt.Apply(&startSpanOptions)
	}

	var span *zipkintracer.Span
	for _, ref := range startSpanOptions.References {
		if parent, ok := ref.ReferencedContext.(SpanContext); ok && !parent.TraceID.Empty() {
			span = t.tracer.SpanFromContext(model.SpanContext(parent), operationName)
			break
		}
	}
	if span == nil {
		span = t.tracer.Span(operationName)
	}
	if !startSpanOptions.StartTime.IsZero() {
		span.WithTimestamp(startSpanOptions.StartTime)
	}

	sp := &spanImpl{
		tracer: t,
		span:   span,
	}
	for key, value := range startSpanOptions.Tags {
		sp.setTag(key, value)
	}

	if t.opts.observer != nil {
		if spanObserver, ok := t.opts.observer.OnStartSpan(sp, operationName, startSpanOptions); ok {
			sp.observer = spanObserver
		}
	}

	return sp
}

type delegatorType struct{}

// Delegator is the format to use for DelegatingCarrier.
var Delegator delegatorType

func (t *tracerImpl) Inject(sc opentracing.SpanContext, format interface{}, carrier interface{}) error {
	switch format {
	case opentracing.TextMap, opentracing.HTTPHeaders:
		return t.textPropagator.Inject(sc, carrier)
	}
	if _, ok := format.(delegatorType); ok {
		return t.accessorPropagator.Inject(sc, carrier)
	}
	return opentracing.ErrUnsupportedFormat
}

func (t *tracerImpl) Extract(format interface{}, carrier interface{}) (opentracing.SpanContext, error) {
	switch format {
	case opentracing.TextMap, opentracing.HTTPHeaders:
		return t.textPropagator.Extract(carrier)
	}
	if _, ok := format.(delegatorType); ok {
		return t.accessorPropagator.Extract(carrier)
	}
	return nil, opentracing.ErrUnsupportedFormat
}

func (t *tracerImpl) submit(span *zipkintracer.Span) {
	_ = t.tracer.Submit(t.opts.submitCtx, span)
}
