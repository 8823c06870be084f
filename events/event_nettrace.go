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

// Package events provides SpanEventListener implementations.
package events

import (
	"sync"

	"github.com/openzipkin/zipkin-go/model"
	"golang.org/x/net/trace"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

// NetTraceIntegrator can be passed to zipkintracer.WithSpanEventListener and
// causes all spans to be registered with the golang.org/x/net/trace endpoint.
var NetTraceIntegrator = func() zipkintracer.SpanEventListener {
	return NetTraceFamily("tracing")
}

// NetTraceFamily is NetTraceIntegrator with a custom net/trace family name.
func NetTraceFamily(family string) zipkintracer.SpanEventListener {
	var (
		mtx    sync.Mutex
		traces = map[model.ID]trace.Trace{}
	)
	lookup := func(id model.ID) trace.Trace {
		mtx.Lock()
		defer mtx.Unlock()
		return traces[id]
	}
	return func(e zipkintracer.SpanEvent) {
		switch t := e.(type) {
		case zipkintracer.EventCreate:
			tr := trace.New(family, t.Name)
			mtx.Lock()
			traces[t.ID] = tr
			mtx.Unlock()
		case zipkintracer.EventAnnotate:
			if tr := lookup(t.ID); tr != nil {
				tr.LazyPrintf("%s", t.Value)
			}
		case zipkintracer.EventBinaryAnnotate:
			if tr := lookup(t.ID); tr != nil {
				tr.LazyPrintf("%s=%s", t.Key, t.Value)
				if t.Key == zipkintracer.Error {
					tr.SetError()
				}
			}
		case zipkintracer.EventFinish:
			mtx.Lock()
			tr, ok := traces[t.Span.ID]
			delete(traces, t.Span.ID)
			mtx.Unlock()
			if ok {
				tr.Finish()
			}
		}
	}
}
