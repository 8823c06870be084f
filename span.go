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
	"net"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/openzipkin/zipkin-go/model"
)

// Endpoint describes the network context of a service recording an
// annotation. Endpoints are shared by pointer and must not be modified once
// they are attached to a span.
type Endpoint struct {
	ServiceName string
	IP          net.IP
	Port        uint16
}

// NewEndpoint returns an Endpoint for the given service and address. ip may
// be nil when the address is unknown.
func NewEndpoint(serviceName string, ip net.IP, port uint16) *Endpoint {
	return &Endpoint{ServiceName: serviceName, IP: ip, Port: port}
}

// IPv4 returns the 4 byte form of the address, or nil if it is not an IPv4
// address.
func (e *Endpoint) IPv4() net.IP {
	if e == nil || e.IP == nil {
		return nil
	}
	return e.IP.To4()
}

// IPv6 returns the 16 byte form of the address, or nil if it is an IPv4
// address or no address is set.
func (e *Endpoint) IPv6() net.IP {
	if e == nil || e.IP == nil || e.IP.To4() != nil {
		return nil
	}
	return e.IP.To16()
}

func (e *Endpoint) String() string {
	if e == nil {
		return ""
	}
	if e.IP == nil {
		return e.ServiceName
	}
	return e.ServiceName + "@" + net.JoinHostPort(e.IP.String(), strconv.Itoa(int(e.Port)))
}

// Annotation is a timestamped event, like "cs" for client send.
type Annotation struct {
	Timestamp time.Time
	Value     string
	Endpoint  *Endpoint
}

// BinaryAnnotation is a key with a typed value attached to a span.
type BinaryAnnotation struct {
	Key      string
	Value    Value
	Endpoint *Endpoint
}

// Span is a single timed operation within a trace.
//
// A Span records annotations only while it is used: when it is marked debug
// or when its sampling decision is not an explicit false. All annotate methods
// are safe to call on a nil *Span.
//
// A Span is not safe for concurrent mutation. Once handed to Tracer.Submit it
// must be treated as immutable.
type Span struct {
	TraceID           model.TraceID
	Name              string
	ID                model.ID
	ParentID          *model.ID
	Timestamp         time.Time
	Duration          time.Duration // zero while unset
	Annotations       []Annotation
	BinaryAnnotations []BinaryAnnotation
	Debug             *bool
	Sampled           *bool

	clock clockwork.Clock
	event SpanEventListener
}

// NewSpan returns a root span with a fresh 128 bit trace id, a fresh span id
// and the current time as start timestamp. Its sampling decision is unset.
func NewSpan(name string) *Span {
	traceID := defaultGenerator.TraceID()
	return &Span{
		TraceID:   traceID,
		Name:      name,
		ID:        defaultGenerator.SpanID(traceID),
		Timestamp: time.Now(),
	}
}

// WithTraceID sets the trace id.
func (s *Span) WithTraceID(id model.TraceID) *Span {
	s.TraceID = id
	return s
}

// WithID sets the span id.
func (s *Span) WithID(id model.ID) *Span {
	s.ID = id
	return s
}

// WithParentID sets the parent span id.
func (s *Span) WithParentID(id model.ID) *Span {
	s.ParentID = &id
	return s
}

// WithDebug sets the debug flag.
func (s *Span) WithDebug(debug bool) *Span {
	s.Debug = &debug
	return s
}

// WithSampled sets the sampling decision.
func (s *Span) WithSampled(sampled bool) *Span {
	s.Sampled = &sampled
	return s
}

// WithTimestamp sets the start timestamp.
func (s *Span) WithTimestamp(ts time.Time) *Span {
	s.Timestamp = ts
	return s
}

// IsDebug reports whether the span is marked debug.
func (s *Span) IsDebug() bool {
	return s != nil && s.Debug != nil && *s.Debug
}

// Used reports whether annotations are recorded on this span.
func (s *Span) Used() bool {
	if s == nil {
		return false
	}
	return s.IsDebug() || s.Sampled == nil || *s.Sampled
}

func (s *Span) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}

// Annotate records a timestamped event at the current time.
func (s *Span) Annotate(value string, endpoint *Endpoint) {
	if !s.Used() {
		return
	}
	s.AnnotateAt(s.now(), value, endpoint)
}

// AnnotateAt records a timestamped event at ts.
func (s *Span) AnnotateAt(ts time.Time, value string, endpoint *Endpoint) {
	if !s.Used() {
		return
	}
	a := Annotation{Timestamp: ts, Value: value, Endpoint: endpoint}
	s.Annotations = append(s.Annotations, a)
	s.onAnnotate(a)
}

// BinaryAnnotate records a key with a typed value. value is converted with
// ValueOf.
func (s *Span) BinaryAnnotate(key string, value interface{}, endpoint *Endpoint) {
	if !s.Used() {
		return
	}
	a := BinaryAnnotation{Key: key, Value: ValueOf(value), Endpoint: endpoint}
	s.BinaryAnnotations = append(s.BinaryAnnotations, a)
	s.onBinaryAnnotate(a)
}

// Context returns the identifiers and sampling flags used for propagation.
func (s *Span) Context() model.SpanContext {
	if s == nil {
		return model.SpanContext{}
	}
	return model.SpanContext{
		TraceID:  s.TraceID,
		ID:       s.ID,
		ParentID: s.ParentID,
		Debug:    s.IsDebug(),
		Sampled:  s.Sampled,
	}
}

// finish fixes the duration at now, rounded up to one microsecond so the
// backend does not read it as absent. A non-zero duration set by the caller
// is kept.
func (s *Span) finish(now time.Time) {
	if s.Duration == 0 {
		d := now.Sub(s.Timestamp)
		if d < time.Microsecond {
			d = time.Microsecond
		}
		s.Duration = d
	}
	s.onFinish()
}
