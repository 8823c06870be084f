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
	"github.com/jonboulle/clockwork"
)

// TracerOptions allows creating a customized Tracer.
type TracerOptions struct {
	sampler       Sampler
	generator     IDGenerator
	clock         clockwork.Clock
	debug         bool
	localEndpoint *Endpoint
	listener      SpanEventListener
}

// TracerOption allows for functional options.
// See: http://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis
type TracerOption func(opts *TracerOptions)

// WithSampler sets the sampler consulted once for every new trace. Without a
// sampler the sampling decision of new traces stays unset.
func WithSampler(sampler Sampler) TracerOption {
	return func(opts *TracerOptions) {
		opts.sampler = sampler
	}
}

// WithIDGenerator sets the trace and span id generator.
func WithIDGenerator(generator IDGenerator) TracerOption {
	return func(opts *TracerOptions) {
		opts.generator = generator
	}
}

// WithClock sets the clock used for span timestamps and durations.
func WithClock(clock clockwork.Clock) TracerOption {
	return func(opts *TracerOptions) {
		opts.clock = clock
	}
}

// WithDebug marks every new trace as debug, so it is recorded and kept
// regardless of sampling.
func WithDebug(debug bool) TracerOption {
	return func(opts *TracerOptions) {
		opts.debug = debug
	}
}

// WithLocalEndpoint sets the endpoint returned by Tracer.LocalEndpoint.
func WithLocalEndpoint(endpoint *Endpoint) TracerOption {
	return func(opts *TracerOptions) {
		opts.localEndpoint = endpoint
	}
}

// WithSpanEventListener sets a listener notified of span creation,
// annotation and submission.
func WithSpanEventListener(listener SpanEventListener) TracerOption {
	return func(opts *TracerOptions) {
		opts.listener = listener
	}
}
