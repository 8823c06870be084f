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
	"context"
	"sync"
)

// InMemoryCollector keeps submitted spans in memory, for tests and debugging.
type InMemoryCollector struct {
	mtx   sync.RWMutex
	spans []*Span
}

var _ Collector = (*InMemoryCollector)(nil)

// NewInMemoryCollector returns an empty InMemoryCollector.
func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{}
}

// Submit implements Collector.
func (c *InMemoryCollector) Submit(_ context.Context, spans ...*Span) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.spans = append(c.spans, spans...)
	return nil
}

// Close implements Collector.
func (c *InMemoryCollector) Close() error { return nil }

// Spans returns a copy of the spans submitted so far.
func (c *InMemoryCollector) Spans() []*Span {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	spans := make([]*Span, len(c.spans))
	copy(spans, c.spans)
	return spans
}

// Flush returns the spans submitted so far and forgets them.
func (c *InMemoryCollector) Flush() []*Span {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	spans := c.spans
	c.spans = nil
	return spans
}
