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

import "github.com/openzipkin/zipkin-go/model"

// A SpanEvent is emitted when a Span is created, annotated or finished.
type SpanEvent interface{}

// SpanEventListener receives the events of the spans created by a Tracer.
type SpanEventListener func(SpanEvent)

// EventCreate is emitted when a Span is created.
type EventCreate struct {
	Name    string
	TraceID model.TraceID
	ID      model.ID
}

// EventAnnotate is emitted when an annotation is recorded.
type EventAnnotate struct {
	ID model.ID
	Annotation
}

// EventBinaryAnnotate is emitted when a binary annotation is recorded.
type EventBinaryAnnotate struct {
	ID model.ID
	BinaryAnnotation
}

// EventFinish is emitted when the span is submitted.
type EventFinish struct{ Span *Span }

func (s *Span) onCreate() {
	if s.event != nil {
		s.event(EventCreate{Name: s.Name, TraceID: s.TraceID, ID: s.ID})
	}
}

func (s *Span) onAnnotate(a Annotation) {
	if s.event != nil {
		s.event(EventAnnotate{ID: s.ID, Annotation: a})
	}
}

func (s *Span) onBinaryAnnotate(a BinaryAnnotation) {
	if s.event != nil {
		s.event(EventBinaryAnnotate{ID: s.ID, BinaryAnnotation: a})
	}
}

func (s *Span) onFinish() {
	if s.event != nil {
		s.event(EventFinish{Span: s})
	}
}
