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
	"context"

	otobserver "github.com/opentracing-contrib/go-observer"
	"github.com/opentracing/opentracing-go/log"
)

// B3InjectOption selects the B3 header style written on Inject.
type B3InjectOption int

// Available B3InjectOption values.
const (
	B3InjectStandard B3InjectOption = iota
	B3InjectSingle
	B3InjectBoth
)

// TracerOptions allows creating a customized Tracer.
type TracerOptions struct {
	observers    []otobserver.Observer
	observer     otobserver.Observer
	b3InjectOpt  B3InjectOption
	materializer func(fields []log.Field) ([]byte, error)
	submitCtx    context.Context
}

// TracerOption allows for functional options.
type TracerOption func(opts *TracerOptions)

// WithObserver adds an observer notified of span starts, tag changes and
// finishes. It can be given more than once.
func WithObserver(observer otobserver.Observer) TracerOption {
	return func(opts *TracerOptions) {
		opts.observers = append(opts.observers, observer)
	}
}

// WithB3InjectOption sets the B3 header style written on Inject.
func WithB3InjectOption(b3InjectOption B3InjectOption) TracerOption {
	return func(opts *TracerOptions) {
		opts.b3InjectOpt = b3InjectOption
	}
}

// WithLogFmtMaterializer converts log fields to a logfmt annotation. This is
// the default.
func WithLogFmtMaterializer() TracerOption {
	return func(opts *TracerOptions) {
		opts.materializer = MaterializeWithLogFmt
	}
}

// WithJSONMaterializer converts log fields to a JSON object annotation.
func WithJSONMaterializer() TracerOption {
	return func(opts *TracerOptions) {
		opts.materializer = MaterializeWithJSON
	}
}

// WithStrictMaterializer records only the "event" log field and discards
// the rest.
func WithStrictMaterializer() TracerOption {
	return func(opts *TracerOptions) {
		opts.materializer = StrictZipkinMaterializer
	}
}

// WithSubmitContext sets the context passed to the collector when a span
// finishes.
func WithSubmitContext(ctx context.Context) TracerOption {
	return func(opts *TracerOptions) {
		opts.submitCtx = ctx
	}
}
