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
	"encoding/json"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

// The field order of these structs is the key order on the wire.

type jsonEndpoint struct {
	IPv4        string `json:"ipv4,omitempty"`
	IPv6        string `json:"ipv6,omitempty"`
	Port        uint16 `json:"port,omitempty"`
	ServiceName string `json:"serviceName,omitempty"`
}

type jsonAnnotation struct {
	Endpoint  *jsonEndpoint `json:"endpoint,omitempty"`
	Timestamp int64         `json:"timestamp"`
	Value     string        `json:"value"`
}

type jsonBinaryAnnotation struct {
	Endpoint *jsonEndpoint `json:"endpoint,omitempty"`
	Key      string        `json:"key"`
	Type     string        `json:"type,omitempty"`
	Value    interface{}   `json:"value"`
}

type jsonSpan struct {
	Annotations       []jsonAnnotation       `json:"annotations,omitempty"`
	BinaryAnnotations []jsonBinaryAnnotation `json:"binaryAnnotations,omitempty"`
	Debug             *bool                  `json:"debug,omitempty"`
	Duration          *int64                 `json:"duration,omitempty"`
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	ParentID          string                 `json:"parentId,omitempty"`
	Timestamp         int64                  `json:"timestamp"`
	TraceID           string                 `json:"traceId"`
}

func toJSONEndpoint(e *zipkintracer.Endpoint) *jsonEndpoint {
	if e == nil {
		return nil
	}
	je := &jsonEndpoint{ServiceName: e.ServiceName}
	switch {
	case e.IPv4() != nil:
		je.IPv4 = e.IPv4().String()
		je.Port = e.Port
	case e.IPv6() != nil:
		je.IPv6 = e.IPv6().String()
		je.Port = e.Port
	}
	return je
}

func toJSONValue(v zipkintracer.Value) (interface{}, string) {
	switch v.Type() {
	case zipkintracer.BOOL:
		b, _ := v.AsBool()
		return b, ""
	case zipkintracer.BYTES:
		raw, _ := v.AsBytes()
		if raw == nil {
			raw = []byte{}
		}
		return raw, "BYTES"
	case zipkintracer.I16:
		n, _ := v.AsInt16()
		return n, "I16"
	case zipkintracer.I32:
		n, _ := v.AsInt32()
		return n, "I32"
	case zipkintracer.I64:
		n, _ := v.AsInt64()
		return n, "I64"
	case zipkintracer.DOUBLE:
		f, _ := v.AsDouble()
		return f, "DOUBLE"
	default:
		s, _ := v.AsString()
		return s, ""
	}
}

func toJSONSpan(s *zipkintracer.Span) *jsonSpan {
	js := &jsonSpan{
		Debug:     s.Debug,
		ID:        s.ID.String(),
		Name:      s.Name,
		Timestamp: microseconds(s.Timestamp),
		TraceID:   s.TraceID.String(),
	}
	if s.ParentID != nil {
		js.ParentID = s.ParentID.String()
	}
	if s.Duration > 0 {
		d := s.Duration.Milliseconds()
		js.Duration = &d
	}
	for _, a := range s.Annotations {
		js.Annotations = append(js.Annotations, jsonAnnotation{
			Endpoint:  toJSONEndpoint(a.Endpoint),
			Timestamp: microseconds(a.Timestamp),
			Value:     a.Value,
		})
	}
	for _, b := range s.BinaryAnnotations {
		value, typ := toJSONValue(b.Value)
		js.BinaryAnnotations = append(js.BinaryAnnotations, jsonBinaryAnnotation{
			Endpoint: toJSONEndpoint(b.Endpoint),
			Key:      b.Key,
			Type:     typ,
			Value:    value,
		})
	}
	return js
}

type jsonEncoder struct {
	pretty bool
}

// JSON returns the compact JSON encoder. A batch is a JSON array of spans.
func JSON() zipkintracer.Encoder { return jsonEncoder{} }

// PrettyJSON returns a JSON encoder indenting with two spaces.
func PrettyJSON() zipkintracer.Encoder { return jsonEncoder{pretty: true} }

func (e jsonEncoder) MimeType() string { return MimeJSON }

func (e jsonEncoder) Encode(buf *bytes.Buffer, spans []*zipkintracer.Span) error {
	start := buf.Len()
	var tmp bytes.Buffer
	buf.WriteByte('[')
	for i, s := range spans {
		if i > 0 {
			buf.WriteByte(',')
		}
		tmp.Reset()
		if err := writeJSON(&tmp, s); err != nil {
			buf.Truncate(start)
			return err
		}
		if e.pretty {
			buf.WriteString("\n  ")
			if err := indentJSON(buf, tmp.Bytes(), "  "); err != nil {
				buf.Truncate(start)
				return err
			}
		} else {
			buf.Write(tmp.Bytes())
		}
	}
	if e.pretty && len(spans) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteByte(']')
	return nil
}

// writeJSON writes the compact form of s without HTML escaping and without
// the trailing newline json.Encoder adds.
func writeJSON(buf *bytes.Buffer, s *zipkintracer.Span) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toJSONSpan(s)); err != nil {
		return &zipkintracer.EncodeError{Format: NameJSON, Err: err}
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// MarshalJSON encodes a single span as a compact JSON object.
func MarshalJSON(s *zipkintracer.Span) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSONIndent encodes a single span as a JSON object indented with two
// spaces.
func MarshalJSONIndent(s *zipkintracer.Span) ([]byte, error) {
	var compact, out bytes.Buffer
	if err := writeJSON(&compact, s); err != nil {
		return nil, err
	}
	if err := indentJSON(&out, compact.Bytes(), ""); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// indentJSON appends src to dst indented by two spaces per level after
// prefix. dst is left unchanged on failure.
func indentJSON(dst *bytes.Buffer, src []byte, prefix string) error {
	start := dst.Len()
	if err := json.Indent(dst, src, prefix, "  "); err != nil {
		dst.Truncate(start)
		return &zipkintracer.EncodeError{Format: NameJSON, Err: err}
	}
	return nil
}
