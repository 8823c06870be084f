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

package codec

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"

	"github.com/apache/thrift/lib/go/thrift"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
	"github.com/openzipkin-contrib/zipkin-go-v1/thrift/gen-go/zipkincore"
)

type thriftEncoder struct{}

// Thrift returns the Thrift binary protocol encoder. A batch is a thrift
// list of Span structs, streamed span by span.
func Thrift() zipkintracer.Encoder { return thriftEncoder{} }

func (thriftEncoder) MimeType() string { return MimeThrift }

func (thriftEncoder) Encode(buf *bytes.Buffer, spans []*zipkintracer.Span) error {
	start := buf.Len()
	if err := writeThrift(buf, spans); err != nil {
		buf.Truncate(start)
		return &zipkintracer.EncodeError{Format: NameThrift, Err: err}
	}
	return nil
}

func writeThrift(buf *bytes.Buffer, spans []*zipkintracer.Span) error {
	ctx := context.Background()
	p := thrift.NewTBinaryProtocolConf(&thrift.TMemoryBuffer{Buffer: buf}, nil)
	if err := p.WriteListBegin(ctx, thrift.STRUCT, len(spans)); err != nil {
		return err
	}
	for _, s := range spans {
		if err := ToThrift(s).Write(ctx, p); err != nil {
			return err
		}
	}
	if err := p.WriteListEnd(ctx); err != nil {
		return err
	}
	return p.Flush(ctx)
}

// MarshalThrift encodes a single span as a thrift Span struct.
func MarshalThrift(s *zipkintracer.Span) ([]byte, error) {
	ctx := context.Background()
	buf := thrift.NewTMemoryBuffer()
	p := thrift.NewTBinaryProtocolConf(buf, nil)
	if err := ToThrift(s).Write(ctx, p); err != nil {
		return nil, &zipkintracer.EncodeError{Format: NameThrift, Err: err}
	}
	return buf.Bytes(), nil
}

// ToThrift converts a span to its zipkinCore.thrift representation.
// Timestamps and durations are in microseconds.
func ToThrift(s *zipkintracer.Span) *zipkincore.Span {
	ts := microseconds(s.Timestamp)
	zs := &zipkincore.Span{
		TraceID:   int64(s.TraceID.Low),
		Name:      s.Name,
		ID:        int64(s.ID),
		Debug:     s.Debug,
		Timestamp: &ts,
	}
	if s.TraceID.High != 0 {
		high := int64(s.TraceID.High)
		zs.TraceIDHigh = &high
	}
	if s.ParentID != nil {
		parentID := int64(*s.ParentID)
		zs.ParentID = &parentID
	}
	if s.Duration > 0 {
		d := s.Duration.Microseconds()
		zs.Duration = &d
	}
	for _, a := range s.Annotations {
		zs.Annotations = append(zs.Annotations, &zipkincore.Annotation{
			Timestamp: microseconds(a.Timestamp),
			Value:     a.Value,
			Host:      toThriftEndpoint(a.Endpoint),
		})
	}
	for _, b := range s.BinaryAnnotations {
		zs.BinaryAnnotations = append(zs.BinaryAnnotations, &zipkincore.BinaryAnnotation{
			Key:            b.Key,
			Value:          ValueBytes(b.Value),
			AnnotationType: zipkincore.AnnotationType(b.Value.Type()),
			Host:           toThriftEndpoint(b.Endpoint),
		})
	}
	return zs
}

func toThriftEndpoint(e *zipkintracer.Endpoint) *zipkincore.Endpoint {
	if e == nil {
		return nil
	}
	ep := zipkincore.NewEndpoint()
	ep.ServiceName = e.ServiceName
	if ip4 := e.IPv4(); ip4 != nil {
		ep.Ipv4 = int32(binary.BigEndian.Uint32(ip4))
		ep.Port = int16(e.Port)
	} else if ip6 := e.IPv6(); ip6 != nil {
		ep.Ipv6 = []byte(ip6)
		ep.Port = int16(e.Port)
	}
	return ep
}

// ValueBytes returns the thrift encoding of a binary annotation value:
// integers and doubles big-endian, bools as a single byte.
func ValueBytes(v zipkintracer.Value) []byte {
	switch v.Type() {
	case zipkintracer.BOOL:
		if b, _ := v.AsBool(); b {
			return []byte{1}
		}
		return []byte{0}
	case zipkintracer.BYTES:
		raw, _ := v.AsBytes()
		return raw
	case zipkintracer.I16:
		n, _ := v.AsUint16()
		return binary.BigEndian.AppendUint16(nil, n)
	case zipkintracer.I32:
		n, _ := v.AsUint32()
		return binary.BigEndian.AppendUint32(nil, n)
	case zipkintracer.I64:
		n, _ := v.AsUint64()
		return binary.BigEndian.AppendUint64(nil, n)
	case zipkintracer.DOUBLE:
		f, _ := v.AsDouble()
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(f))
	default:
		str, _ := v.AsString()
		return []byte(str)
	}
}
