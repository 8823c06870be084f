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

// Package zipkincore holds the Zipkin v1 zipkinCore.thrift structures and
// their binary protocol codecs.
package zipkincore

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

// AnnotationType is the type tag of a BinaryAnnotation value.
type AnnotationType int64

// AnnotationType values.
const (
	AnnotationType_BOOL   AnnotationType = 0
	AnnotationType_BYTES  AnnotationType = 1
	AnnotationType_I16    AnnotationType = 2
	AnnotationType_I32    AnnotationType = 3
	AnnotationType_I64    AnnotationType = 4
	AnnotationType_DOUBLE AnnotationType = 5
	AnnotationType_STRING AnnotationType = 6
)

func (p AnnotationType) String() string {
	switch p {
	case AnnotationType_BOOL:
		return "BOOL"
	case AnnotationType_BYTES:
		return "BYTES"
	case AnnotationType_I16:
		return "I16"
	case AnnotationType_I32:
		return "I32"
	case AnnotationType_I64:
		return "I64"
	case AnnotationType_DOUBLE:
		return "DOUBLE"
	case AnnotationType_STRING:
		return "STRING"
	}
	return "<UNSET>"
}

func writeField(ctx context.Context, oprot thrift.TProtocol, name string, typ thrift.TType, id int16, body func() error) error {
	if err := oprot.WriteFieldBegin(ctx, name, typ, id); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field begin error %d:%s: ", id, name), err)
	}
	if err := body(); err != nil {
		return thrift.PrependError(fmt.Sprintf("%d:%s: ", id, name), err)
	}
	if err := oprot.WriteFieldEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field end error %d:%s: ", id, name), err)
	}
	return nil
}

func writeStruct(ctx context.Context, oprot thrift.TProtocol, name string, fields func() error) error {
	if err := oprot.WriteStructBegin(ctx, name); err != nil {
		return thrift.PrependError(name+" write struct begin error: ", err)
	}
	if err := fields(); err != nil {
		return err
	}
	if err := oprot.WriteFieldStop(ctx); err != nil {
		return thrift.PrependError("write field stop error: ", err)
	}
	if err := oprot.WriteStructEnd(ctx); err != nil {
		return thrift.PrependError("write struct stop error: ", err)
	}
	return nil
}

// readStruct walks the fields of a struct, handing each to field. field
// returns false for fields it does not know, which are skipped.
func readStruct(ctx context.Context, iprot thrift.TProtocol, name string, field func(id int16, typ thrift.TType) (bool, error)) error {
	if _, err := iprot.ReadStructBegin(ctx); err != nil {
		return thrift.PrependError(name+" read error: ", err)
	}
	for {
		_, typ, id, err := iprot.ReadFieldBegin(ctx)
		if err != nil {
			return thrift.PrependError(fmt.Sprintf("%s field %d read error: ", name, id), err)
		}
		if typ == thrift.STOP {
			break
		}
		known, err := field(id, typ)
		if err != nil {
			return err
		}
		if !known {
			if err := iprot.Skip(ctx, typ); err != nil {
				return err
			}
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := iprot.ReadStructEnd(ctx); err != nil {
		return thrift.PrependError(name+" read struct end error: ", err)
	}
	return nil
}

// Endpoint is the network context of a node in the service graph.
type Endpoint struct {
	Ipv4        int32  `thrift:"ipv4,1" json:"ipv4"`
	Port        int16  `thrift:"port,2" json:"port"`
	ServiceName string `thrift:"service_name,3" json:"service_name"`
	Ipv6        []byte `thrift:"ipv6,4" json:"ipv6,omitempty"`
}

// NewEndpoint returns an empty Endpoint.
func NewEndpoint() *Endpoint {
	return &Endpoint{}
}

// IsSetIpv6 reports whether the optional ipv6 field is present.
func (p *Endpoint) IsSetIpv6() bool {
	return p.Ipv6 != nil
}

func (p *Endpoint) Write(ctx context.Context, oprot thrift.TProtocol) error {
	return writeStruct(ctx, oprot, "Endpoint", func() error {
		if err := writeField(ctx, oprot, "ipv4", thrift.I32, 1, func() error { return oprot.WriteI32(ctx, p.Ipv4) }); err != nil {
			return err
		}
		if err := writeField(ctx, oprot, "port", thrift.I16, 2, func() error { return oprot.WriteI16(ctx, p.Port) }); err != nil {
			return err
		}
		if err := writeField(ctx, oprot, "service_name", thrift.STRING, 3, func() error { return oprot.WriteString(ctx, p.ServiceName) }); err != nil {
			return err
		}
		if p.IsSetIpv6() {
			if err := writeField(ctx, oprot, "ipv6", thrift.STRING, 4, func() error { return oprot.WriteBinary(ctx, p.Ipv6) }); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Endpoint) Read(ctx context.Context, iprot thrift.TProtocol) error {
	return readStruct(ctx, iprot, "Endpoint", func(id int16, typ thrift.TType) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == thrift.I32:
			p.Ipv4, err = iprot.ReadI32(ctx)
		case id == 2 && typ == thrift.I16:
			p.Port, err = iprot.ReadI16(ctx)
		case id == 3 && typ == thrift.STRING:
			p.ServiceName, err = iprot.ReadString(ctx)
		case id == 4 && typ == thrift.STRING:
			p.Ipv6, err = iprot.ReadBinary(ctx)
		default:
			return false, nil
		}
		return true, err
	})
}

// Annotation is a timestamped event.
type Annotation struct {
	Timestamp int64     `thrift:"timestamp,1" json:"timestamp"`
	Value     string    `thrift:"value,2" json:"value"`
	Host      *Endpoint `thrift:"host,3" json:"host,omitempty"`
}

// NewAnnotation returns an empty Annotation.
func NewAnnotation() *Annotation {
	return &Annotation{}
}

// IsSetHost reports whether the optional host field is present.
func (p *Annotation) IsSetHost() bool {
	return p.Host != nil
}

func (p *Annotation) Write(ctx context.Context, oprot thrift.TProtocol) error {
	return writeStruct(ctx, oprot, "Annotation", func() error {
		if err := writeField(ctx, oprot, "timestamp", thrift.I64, 1, func() error { return oprot.WriteI64(ctx, p.Timestamp) }); err != nil {
			return err
		}
		if err := writeField(ctx, oprot, "value", thrift.STRING, 2, func() error { return oprot.WriteString(ctx, p.Value) }); err != nil {
			return err
		}
		if p.IsSetHost() {
			if err := writeField(ctx, oprot, "host", thrift.STRUCT, 3, func() error { return p.Host.Write(ctx, oprot) }); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Annotation) Read(ctx context.Context, iprot thrift.TProtocol) error {
	return readStruct(ctx, iprot, "Annotation", func(id int16, typ thrift.TType) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == thrift.I64:
			p.Timestamp, err = iprot.ReadI64(ctx)
		case id == 2 && typ == thrift.STRING:
			p.Value, err = iprot.ReadString(ctx)
		case id == 3 && typ == thrift.STRUCT:
			p.Host = NewEndpoint()
			err = p.Host.Read(ctx, iprot)
		default:
			return false, nil
		}
		return true, err
	})
}

// BinaryAnnotation is a key with a typed, binary encoded value.
type BinaryAnnotation struct {
	Key            string         `thrift:"key,1" json:"key"`
	Value          []byte         `thrift:"value,2" json:"value"`
	AnnotationType AnnotationType `thrift:"annotation_type,3" json:"annotation_type"`
	Host           *Endpoint      `thrift:"host,4" json:"host,omitempty"`
}

// NewBinaryAnnotation returns an empty BinaryAnnotation.
func NewBinaryAnnotation() *BinaryAnnotation {
	return &BinaryAnnotation{}
}

// IsSetHost reports whether the optional host field is present.
func (p *BinaryAnnotation) IsSetHost() bool {
	return p.Host != nil
}

func (p *BinaryAnnotation) Write(ctx context.Context, oprot thrift.TProtocol) error {
	return writeStruct(ctx, oprot, "BinaryAnnotation", func() error {
		if err := writeField(ctx, oprot, "key", thrift.STRING, 1, func() error { return oprot.WriteString(ctx, p.Key) }); err != nil {
			return err
		}
		if err := writeField(ctx, oprot, "value", thrift.STRING, 2, func() error { return oprot.WriteBinary(ctx, p.Value) }); err != nil {
			return err
		}
		if err := writeField(ctx, oprot, "annotation_type", thrift.I32, 3, func() error { return oprot.WriteI32(ctx, int32(p.AnnotationType)) }); err != nil {
			return err
		}
		if p.IsSetHost() {
			if err := writeField(ctx, oprot, "host", thrift.STRUCT, 4, func() error { return p.Host.Write(ctx, oprot) }); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *BinaryAnnotation) Read(ctx context.Context, iprot thrift.TProtocol) error {
	return readStruct(ctx, iprot, "BinaryAnnotation", func(id int16, typ thrift.TType) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == thrift.STRING:
			p.Key, err = iprot.ReadString(ctx)
		case id == 2 && typ == thrift.STRING:
			p.Value, err = iprot.ReadBinary(ctx)
		case id == 3 && typ == thrift.I32:
			var v int32
			v, err = iprot.ReadI32(ctx)
			p.AnnotationType = AnnotationType(v)
		case id == 4 && typ == thrift.STRUCT:
			p.Host = NewEndpoint()
			err = p.Host.Read(ctx, iprot)
		default:
			return false, nil
		}
		return true, err
	})
}

// Span is a Zipkin v1 span.
type Span struct {
	TraceID           int64               `thrift:"trace_id,1" json:"trace_id"`
	Name              string              `thrift:"name,3" json:"name"`
	ID                int64               `thrift:"id,4" json:"id"`
	ParentID          *int64              `thrift:"parent_id,5" json:"parent_id,omitempty"`
	Annotations       []*Annotation       `thrift:"annotations,6" json:"annotations,omitempty"`
	BinaryAnnotations []*BinaryAnnotation `thrift:"binary_annotations,8" json:"binary_annotations,omitempty"`
	Debug             *bool               `thrift:"debug,9" json:"debug,omitempty"`
	Timestamp         *int64              `thrift:"timestamp,10" json:"timestamp,omitempty"`
	Duration          *int64              `thrift:"duration,11" json:"duration,omitempty"`
	TraceIDHigh       *int64              `thrift:"trace_id_high,12" json:"trace_id_high,omitempty"`
}

// NewSpan returns an empty Span.
func NewSpan() *Span {
	return &Span{}
}

func (p *Span) Write(ctx context.Context, oprot thrift.TProtocol) error {
	return writeStruct(ctx, oprot, "Span", func() error {
		if err := writeField(ctx, oprot, "trace_id", thrift.I64, 1, func() error { return oprot.WriteI64(ctx, p.TraceID) }); err != nil {
			return err
		}
		if err := writeField(ctx, oprot, "name", thrift.STRING, 3, func() error { return oprot.WriteString(ctx, p.Name) }); err != nil {
			return err
		}
		if err := writeField(ctx, oprot, "id", thrift.I64, 4, func() error { return oprot.WriteI64(ctx, p.ID) }); err != nil {
			return err
		}
		if p.ParentID != nil {
			if err := writeField(ctx, oprot, "parent_id", thrift.I64, 5, func() error { return oprot.WriteI64(ctx, *p.ParentID) }); err != nil {
				return err
			}
		}
		if len(p.Annotations) > 0 {
			if err := writeField(ctx, oprot, "annotations", thrift.LIST, 6, func() error {
				if err := oprot.WriteListBegin(ctx, thrift.STRUCT, len(p.Annotations)); err != nil {
					return thrift.PrependError("error writing list begin: ", err)
				}
				for _, v := range p.Annotations {
					if err := v.Write(ctx, oprot); err != nil {
						return err
					}
				}
				return oprot.WriteListEnd(ctx)
			}); err != nil {
				return err
			}
		}
		if len(p.BinaryAnnotations) > 0 {
			if err := writeField(ctx, oprot, "binary_annotations", thrift.LIST, 8, func() error {
				if err := oprot.WriteListBegin(ctx, thrift.STRUCT, len(p.BinaryAnnotations)); err != nil {
					return thrift.PrependError("error writing list begin: ", err)
				}
				for _, v := range p.BinaryAnnotations {
					if err := v.Write(ctx, oprot); err != nil {
						return err
					}
				}
				return oprot.WriteListEnd(ctx)
			}); err != nil {
				return err
			}
		}
		if p.Debug != nil {
			if err := writeField(ctx, oprot, "debug", thrift.BOOL, 9, func() error { return oprot.WriteBool(ctx, *p.Debug) }); err != nil {
				return err
			}
		}
		if p.Timestamp != nil {
			if err := writeField(ctx, oprot, "timestamp", thrift.I64, 10, func() error { return oprot.WriteI64(ctx, *p.Timestamp) }); err != nil {
				return err
			}
		}
		if p.Duration != nil {
			if err := writeField(ctx, oprot, "duration", thrift.I64, 11, func() error { return oprot.WriteI64(ctx, *p.Duration) }); err != nil {
				return err
			}
		}
		if p.TraceIDHigh != nil {
			if err := writeField(ctx, oprot, "trace_id_high", thrift.I64, 12, func() error { return oprot.WriteI64(ctx, *p.TraceIDHigh) }); err != nil {
				return err
			}
		}
		return nil
	})
}

func readI64Ptr(ctx context.Context, iprot thrift.TProtocol) (*int64, error) {
	v, err := iprot.ReadI64(ctx)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (p *Span) Read(ctx context.Context, iprot thrift.TProtocol) error {
	return readStruct(ctx, iprot, "Span", func(id int16, typ thrift.TType) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == thrift.I64:
			p.TraceID, err = iprot.ReadI64(ctx)
		case id == 3 && typ == thrift.STRING:
			p.Name, err = iprot.ReadString(ctx)
		case id == 4 && typ == thrift.I64:
			p.ID, err = iprot.ReadI64(ctx)
		case id == 5 && typ == thrift.I64:
			p.ParentID, err = readI64Ptr(ctx, iprot)
		case id == 6 && typ == thrift.LIST:
			err = readList(ctx, iprot, func() error {
				a := NewAnnotation()
				p.Annotations = append(p.Annotations, a)
				return a.Read(ctx, iprot)
			})
		case id == 8 && typ == thrift.LIST:
			err = readList(ctx, iprot, func() error {
				a := NewBinaryAnnotation()
				p.BinaryAnnotations = append(p.BinaryAnnotations, a)
				return a.Read(ctx, iprot)
			})
		case id == 9 && typ == thrift.BOOL:
			var v bool
			if v, err = iprot.ReadBool(ctx); err == nil {
				p.Debug = &v
			}
		case id == 10 && typ == thrift.I64:
			p.Timestamp, err = readI64Ptr(ctx, iprot)
		case id == 11 && typ == thrift.I64:
			p.Duration, err = readI64Ptr(ctx, iprot)
		case id == 12 && typ == thrift.I64:
			p.TraceIDHigh, err = readI64Ptr(ctx, iprot)
		default:
			return false, nil
		}
		return true, err
	})
}

func readList(ctx context.Context, iprot thrift.TProtocol, elem func() error) error {
	_, size, err := iprot.ReadListBegin(ctx)
	if err != nil {
		return thrift.PrependError("error reading list begin: ", err)
	}
	for i := 0; i < size; i++ {
		if err := elem(); err != nil {
			return err
		}
	}
	return iprot.ReadListEnd(ctx)
}

// ReadSpans decodes a list of spans, the payload format of the Zipkin v1
// thrift HTTP and Kafka endpoints.
func ReadSpans(ctx context.Context, iprot thrift.TProtocol) ([]*Span, error) {
	var spans []*Span
	err := readList(ctx, iprot, func() error {
		s := NewSpan()
		spans = append(spans, s)
		return s.Read(ctx, iprot)
	})
	if err != nil {
		return nil, err
	}
	return spans, nil
}
