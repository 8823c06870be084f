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

// Package codec implements the Zipkin v1 wire encodings: JSON and Thrift
// binary.
package codec

import (
	"strings"
	"time"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

// Codec names accepted by Parse.
const (
	NameJSON       = "json"
	NamePrettyJSON = "pretty-json"
	NameThrift     = "thrift"
)

// MIME types of the encodings.
const (
	MimeJSON   = "application/json"
	MimeThrift = "application/x-thrift"
)

// Parse returns the encoder registered under name. "pretty" is accepted as
// a short form of "pretty-json". Names are case insensitive.
func Parse(name string) (zipkintracer.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameJSON:
		return JSON(), nil
	case NamePrettyJSON, "pretty":
		return PrettyJSON(), nil
	case NameThrift:
		return Thrift(), nil
	}
	return nil, &zipkintracer.UnknownCodecError{Name: name}
}

// Names lists the canonical codec names.
func Names() []string {
	return []string{NameJSON, NamePrettyJSON, NameThrift}
}

func microseconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
