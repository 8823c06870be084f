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

package b3

import (
	"github.com/openzipkin/zipkin-go/model"
	zb3 "github.com/openzipkin/zipkin-go/propagation/b3"
	"google.golang.org/grpc/metadata"
)

// InjectGRPC writes sc into outgoing gRPC metadata.
func InjectGRPC(sc model.SpanContext, md *metadata.MD) error {
	return zb3.InjectGRPC(md)(sc)
}

// ExtractGRPC reads a span context from incoming gRPC metadata.
func ExtractGRPC(md *metadata.MD) (*model.SpanContext, error) {
	return zb3.ExtractGRPC(md)()
}
