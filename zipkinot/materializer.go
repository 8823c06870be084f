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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-logfmt/logfmt"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
)

var errEventLogNotFound = errors.New("event log field not found")

// MaterializeWithJSON converts log fields to a JSON object string.
func MaterializeWithJSON(logFields []log.Field) ([]byte, error) {
	fields := make(map[string]string, len(logFields))
	for _, field := range logFields {
		fields[field.Key()] = fmt.Sprint(field.Value())
	}
	return json.Marshal(fields)
}

// MaterializeWithLogFmt converts log fields to a logfmt string.
func MaterializeWithLogFmt(logFields []log.Field) ([]byte, error) {
	var (
		buffer  = bytes.NewBuffer(nil)
		encoder = logfmt.NewEncoder(buffer)
	)
	for _, field := range logFields {
		if err := encoder.EncodeKeyval(field.Key(), field.Value()); err != nil {
			_ = encoder.EncodeKeyval(field.Key(), err.Error())
		}
	}
	return buffer.Bytes(), nil
}

// StrictZipkinMaterializer keeps only the value of the "event" field, the
// way Zipkin expects annotations to read.
func StrictZipkinMaterializer(logFields []log.Field) ([]byte, error) {
	for _, field := range logFields {
		if field.Key() == "event" {
			return []byte(fmt.Sprintf("%+v", field.Value())), nil
		}
	}
	return nil, errEventLogNotFound
}
