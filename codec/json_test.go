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
	"math"
	"net"
	"testing"
	"time"

	"github.com/openzipkin/zipkin-go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

func fixtureSpan() *zipkintracer.Span {
	epoch := time.Unix(0, 0)
	endpoint := zipkintracer.NewEndpoint("test", net.IPv4(127, 0, 0, 1), 8080)

	span := zipkintracer.NewSpan("test").
		WithTraceID(model.TraceID{High: 456, Low: 123}).
		WithID(123).
		WithParentID(456).
		WithDebug(true).
		WithTimestamp(epoch)

	span.AnnotateAt(epoch, zipkintracer.ClientSend, endpoint)
	span.AnnotateAt(epoch, zipkintracer.ClientRecv, nil)
	span.BinaryAnnotate(zipkintracer.HTTPMethod, "GET", endpoint)
	span.BinaryAnnotate("debug", true, nil)
	span.BinaryAnnotate(zipkintracer.HTTPStatusCode, int16(123), nil)
	span.BinaryAnnotate(zipkintracer.HTTPRequestSize, int32(-456), nil)
	span.BinaryAnnotate(zipkintracer.HTTPResponseSize, int64(-789), nil)
	span.BinaryAnnotate("time", 123.456, nil)
	span.BinaryAnnotate("raw", []byte("some\x00raw\x00data"), nil)
	return span
}

const prettyJSON = `{
  "annotations": [
    {
      "endpoint": {
        "ipv4": "127.0.0.1",
        "port": 8080,
        "serviceName": "test"
      },
      "timestamp": 0,
      "value": "cs"
    },
    {
      "timestamp": 0,
      "value": "cr"
    }
  ],
  "binaryAnnotations": [
    {
      "endpoint": {
        "ipv4": "127.0.0.1",
        "port": 8080,
        "serviceName": "test"
      },
      "key": "http.method",
      "value": "GET"
    },
    {
      "key": "debug",
      "value": true
    },
    {
      "key": "http.status_code",
      "type": "I16",
      "value": 123
    },
    {
      "key": "http.request.size",
      "type": "I32",
      "value": -456
    },
    {
      "key": "http.response.size",
      "type": "I64",
      "value": -789
    },
    {
      "key": "time",
      "type": "DOUBLE",
      "value": 123.456
    },
    {
      "key": "raw",
      "type": "BYTES",
      "value": "c29tZQByYXcAZGF0YQ=="
    }
  ],
  "debug": true,
  "id": "000000000000007b",
  "name": "test",
  "parentId": "00000000000001c8",
  "timestamp": 0,
  "traceId": "00000000000001c8000000000000007b"
}`

func TestMarshalJSONIndentMatchesFixture(t *testing.T) {
	have, err := MarshalJSONIndent(fixtureSpan())
	require.NoError(t, err)
	assert.Equal(t, prettyJSON, string(have))
}

func TestJSONRoundTrip(t *testing.T) {
	raw, err := MarshalJSON(fixtureSpan())
	require.NoError(t, err)

	var decoded struct {
		TraceID           string `json:"traceId"`
		ID                string `json:"id"`
		ParentID          string `json:"parentId"`
		Name              string `json:"name"`
		Timestamp         int64  `json:"timestamp"`
		Debug             bool   `json:"debug"`
		Annotations       []struct {
			Value     string `json:"value"`
			Timestamp int64  `json:"timestamp"`
		} `json:"annotations"`
		BinaryAnnotations []struct {
			Key   string      `json:"key"`
			Type  string      `json:"type"`
			Value interface{} `json:"value"`
		} `json:"binaryAnnotations"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "00000000000001c8000000000000007b", decoded.TraceID)
	assert.Equal(t, "000000000000007b", decoded.ID)
	assert.Equal(t, "00000000000001c8", decoded.ParentID)
	assert.Equal(t, "test", decoded.Name)
	assert.True(t, decoded.Debug)
	require.Len(t, decoded.Annotations, 2)
	assert.Equal(t, "cs", decoded.Annotations[0].Value)
	assert.Equal(t, "cr", decoded.Annotations[1].Value)
	require.Len(t, decoded.BinaryAnnotations, 7)
	assert.Equal(t, "GET", decoded.BinaryAnnotations[0].Value)
	assert.Equal(t, true, decoded.BinaryAnnotations[1].Value)
	assert.Equal(t, float64(123), decoded.BinaryAnnotations[2].Value)
	assert.Equal(t, "DOUBLE", decoded.BinaryAnnotations[5].Type)
	assert.Equal(t, 123.456, decoded.BinaryAnnotations[5].Value)
	assert.Equal(t, "c29tZQByYXcAZGF0YQ==", decoded.BinaryAnnotations[6].Value)
}

func TestJSONOmitsEmptyFields(t *testing.T) {
	span := zipkintracer.NewSpan("bare").
		WithTraceID(model.TraceID{Low: 1}).
		WithID(2).
		WithTimestamp(time.UnixMicro(1500))
	span.Duration = 3 * time.Millisecond

	have, err := MarshalJSON(span)
	require.NoError(t, err)
	assert.Equal(t,
		`{"duration":3,"id":"0000000000000002","name":"bare","timestamp":1500,"traceId":"0000000000000001"}`,
		string(have),
	)
}

func TestJSONEndpoint(t *testing.T) {
	for _, tc := range []struct {
		name     string
		endpoint *zipkintracer.Endpoint
		want     string
	}{
		{"service only", zipkintracer.NewEndpoint("svc", nil, 80), `{"serviceName":"svc"}`},
		{"no port", zipkintracer.NewEndpoint("svc", net.IPv4(10, 0, 0, 1), 0), `{"ipv4":"10.0.0.1","serviceName":"svc"}`},
		{"ipv6", zipkintracer.NewEndpoint("", net.ParseIP("2001:db8::1"), 9411), `{"ipv6":"2001:db8::1","port":9411}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			have, err := json.Marshal(toJSONEndpoint(tc.endpoint))
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(have))
		})
	}
}

func TestJSONDoesNotEscapeHTML(t *testing.T) {
	span := zipkintracer.NewSpan("<a&b>").WithTraceID(model.TraceID{Low: 1}).WithID(1)
	have, err := MarshalJSON(span)
	require.NoError(t, err)
	assert.Contains(t, string(have), `"name":"<a&b>"`)
}

func TestJSONBatch(t *testing.T) {
	first := zipkintracer.NewSpan("a").WithTraceID(model.TraceID{Low: 1}).WithID(1).WithTimestamp(time.Unix(0, 0))
	second := zipkintracer.NewSpan("b").WithTraceID(model.TraceID{Low: 1}).WithID(2).WithTimestamp(time.Unix(0, 0))

	var buf bytes.Buffer
	require.NoError(t, JSON().Encode(&buf, []*zipkintracer.Span{first, second}))
	assert.Equal(t,
		`[{"id":"0000000000000001","name":"a","timestamp":0,"traceId":"0000000000000001"},`+
			`{"id":"0000000000000002","name":"b","timestamp":0,"traceId":"0000000000000001"}]`,
		buf.String(),
	)

	buf.Reset()
	require.NoError(t, PrettyJSON().Encode(&buf, []*zipkintracer.Span{first}))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a", decoded[0]["name"])
	assert.Contains(t, buf.String(), "\n    \"name\": \"a\"")
}

func TestJSONEncodeErrorLeavesBufferUntouched(t *testing.T) {
	span := zipkintracer.NewSpan("nan").WithTraceID(model.TraceID{Low: 1}).WithID(1)
	span.BinaryAnnotate("ratio", math.NaN(), nil)

	buf := bytes.NewBufferString("prefix")
	err := JSON().Encode(buf, []*zipkintracer.Span{span})
	require.Error(t, err)

	var encErr *zipkintracer.EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, NameJSON, encErr.Format)
	assert.Equal(t, "prefix", buf.String())
}

func TestIndentJSONReportsMalformedInput(t *testing.T) {
	buf := bytes.NewBufferString("[")
	err := indentJSON(buf, []byte(`{"name":`), "  ")

	var encErr *zipkintracer.EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, NameJSON, encErr.Format)
	assert.Equal(t, "[", buf.String())

	require.NoError(t, indentJSON(buf, []byte(`{"name":"get"}`), ""))
	assert.Equal(t, "[{\n  \"name\": \"get\"\n}", buf.String())
}

func TestParse(t *testing.T) {
	for name, mime := range map[string]string{
		"json":        MimeJSON,
		"JSON":        MimeJSON,
		"pretty":      MimeJSON,
		"pretty-json": MimeJSON,
		"thrift":      MimeThrift,
	} {
		enc, err := Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, mime, enc.MimeType(), name)
	}

	_, err := Parse("protobuf")
	require.Error(t, err)
	assert.ErrorIs(t, err, zipkintracer.ErrUnknownCodec)
	var unknown *zipkintracer.UnknownCodecError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "protobuf", unknown.Name)
}
