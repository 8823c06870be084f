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
	"fmt"
	"net"
	"sync"
	"time"

	otobserver "github.com/opentracing-contrib/go-observer"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

type spanImpl struct {
	tracer   *tracerImpl
	observer otobserver.SpanObserver

	mtx      sync.Mutex
	span     *zipkintracer.Span
	kind     ext.SpanKindEnum
	remote   zipkintracer.Endpoint
	finished bool
}

func (s *spanImpl) SetOperationName(operationName string) opentracing.Span {
	if s.observer != nil {
		s.observer.OnSetOperationName(operationName)
	}

	s.mtx.Lock()
	s.span.Name = operationName
	s.mtx.Unlock()
	return s
}

func (s *spanImpl) SetTag(key string, value interface{}) opentracing.Span {
	if s.observer != nil {
		s.observer.OnSetTag(key, value)
	}

	s.setTag(key, value)
	return s
}

func (s *spanImpl) setTag(key string, value interface{}) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	switch key {
	case string(ext.SamplingPriority):
		if priority, ok := toInt(value); ok {
			if priority > 0 {
				s.span.WithDebug(true)
			} else if !s.span.IsDebug() {
				s.span.WithSampled(false)
			}
		}
	case string(ext.SpanKind):
		s.setKind(value)
	case string(ext.DBStatement):
		s.span.BinaryAnnotate(zipkintracer.SQLQuery, value, s.tracer.tracer.LocalEndpoint())
	case string(ext.PeerService):
		s.remote.ServiceName = fmt.Sprint(value)
	case string(ext.PeerHostIPv4):
		switch v := value.(type) {
		case uint32:
			s.remote.IP = net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).To4()
		case string:
			s.remote.IP = net.ParseIP(v)
		}
	case string(ext.PeerHostIPv6):
		ipv6, _ := value.(string)
		s.remote.IP = net.ParseIP(ipv6)
	case string(ext.PeerPort):
		if port, ok := toInt(value); ok {
			s.remote.Port = uint16(port)
		}
	default:
		s.span.BinaryAnnotate(key, value, s.tracer.tracer.LocalEndpoint())
	}
}

func (s *spanImpl) setKind(value interface{}) {
	var kind ext.SpanKindEnum
	switch v := value.(type) {
	case ext.SpanKindEnum:
		kind = v
	case string:
		kind = ext.SpanKindEnum(v)
	}
	local := s.tracer.tracer.LocalEndpoint()
	if s.kind != "" {
		return
	}
	switch kind {
	case ext.SpanKindRPCClientEnum:
		s.kind = kind
		s.span.AnnotateAt(s.span.Timestamp, zipkintracer.ClientSend, local)
	case ext.SpanKindRPCServerEnum:
		s.kind = kind
		s.span.AnnotateAt(s.span.Timestamp, zipkintracer.ServerRecv, local)
	default:
		// no core annotation for this kind, keep it readable
		s.span.BinaryAnnotate(string(ext.SpanKind), value, local)
	}
}

func (s *spanImpl) LogKV(keyValues ...interface{}) {
	fields, err := log.InterleavedKVToFields(keyValues...)
	if err != nil {
		return
	}
	s.logFields(time.Time{}, fields...)
}

func (s *spanImpl) LogFields(fields ...log.Field) {
	s.logFields(time.Time{}, fields...)
}

func (s *spanImpl) logFields(t time.Time, fields ...log.Field) {
	if len(fields) == 0 {
		return
	}
	annotation, err := s.tracer.opts.materializer(fields)
	if err != nil {
		return
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if t.IsZero() {
		s.span.Annotate(string(annotation), s.tracer.tracer.LocalEndpoint())
		return
	}
	s.span.AnnotateAt(t, string(annotation), s.tracer.tracer.LocalEndpoint())
}

func (s *spanImpl) LogEvent(event string) {
	s.Log(opentracing.LogData{
		Event: event,
	})
}

func (s *spanImpl) LogEventWithPayload(event string, payload interface{}) {
	s.Log(opentracing.LogData{
		Event:   event,
		Payload: payload,
	})
}

func (s *spanImpl) Log(ld opentracing.LogData) {
	record := ld.ToLogRecord()
	s.logFields(ld.Timestamp, record.Fields...)
}

func (s *spanImpl) Finish() {
	s.FinishWithOptions(opentracing.FinishOptions{})
}

func (s *spanImpl) FinishWithOptions(opts opentracing.FinishOptions) {
	if s.observer != nil {
		s.observer.OnFinish(opts)
	}

	for _, lr := range opts.LogRecords {
		s.logFields(lr.Timestamp, lr.Fields...)
	}
	for _, ld := range opts.BulkLogData {
		s.Log(ld)
	}

	s.mtx.Lock()
	if s.finished {
		s.mtx.Unlock()
		return
	}
	s.finished = true

	finishTime := opts.FinishTime
	if !finishTime.IsZero() {
		d := finishTime.Sub(s.span.Timestamp)
		if d < time.Microsecond {
			d = time.Microsecond
		}
		s.span.Duration = d
	}
	s.closeKind(finishTime)
	span := s.span
	s.mtx.Unlock()

	s.tracer.submit(span)
}

// closeKind records the closing core annotation and the remote endpoint.
// Callers hold s.mtx.
func (s *spanImpl) closeKind(finishTime time.Time) {
	local := s.tracer.tracer.LocalEndpoint()
	closing, remoteKey := "", zipkintracer.ServerAddr
	switch s.kind {
	case ext.SpanKindRPCClientEnum:
		closing = zipkintracer.ClientRecv
	case ext.SpanKindRPCServerEnum:
		closing, remoteKey = zipkintracer.ServerSend, zipkintracer.ClientAddr
	}
	if closing != "" {
		if finishTime.IsZero() {
			s.span.Annotate(closing, local)
		} else {
			s.span.AnnotateAt(finishTime, closing, local)
		}
	}
	if s.remote.ServiceName != "" || s.remote.IP != nil || s.remote.Port != 0 {
		remote := s.remote
		s.span.BinaryAnnotate(remoteKey, true, &remote)
	}
}

func (s *spanImpl) Tracer() opentracing.Tracer {
	return s.tracer
}

func (s *spanImpl) Context() opentracing.SpanContext {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return SpanContext(s.span.Context())
}

func (s *spanImpl) SetBaggageItem(key, val string) opentracing.Span {
	return s
}

func (s *spanImpl) BaggageItem(key string) string {
	return ""
}

func toInt(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}
