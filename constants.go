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

// Core annotation values understood by the Zipkin v1 UI and dependency linker.
const (
	ClientSend         = "cs"
	ClientRecv         = "cr"
	ServerSend         = "ss"
	ServerRecv         = "sr"
	WireSend           = "ws"
	WireRecv           = "wr"
	ClientSendFragment = "csf"
	ClientRecvFragment = "crf"
	ServerSendFragment = "ssf"
	ServerRecvFragment = "srf"
)

// Binary annotation keys.
const (
	LocalComponent = "lc"
	Error          = "error"
	ClientAddr     = "ca"
	ServerAddr     = "sa"

	HTTPHost         = "http.host"
	HTTPMethod       = "http.method"
	HTTPPath         = "http.path"
	HTTPURL          = "http.url"
	HTTPStatusCode   = "http.status_code"
	HTTPRequestSize  = "http.request.size"
	HTTPResponseSize = "http.response.size"
	SQLQuery         = "sql.query"
)

// CoreAnnotations lists the timestamped annotations that mark RPC boundaries.
var CoreAnnotations = []string{
	ClientSend,
	ClientRecv,
	ServerSend,
	ServerRecv,
	WireSend,
	WireRecv,
	ClientSendFragment,
	ClientRecvFragment,
	ServerSendFragment,
	ServerRecvFragment,
}

// IsCoreAnnotation reports whether value is one of CoreAnnotations.
func IsCoreAnnotation(value string) bool {
	for _, a := range CoreAnnotations {
		if a == value {
			return true
		}
	}
	return false
}
