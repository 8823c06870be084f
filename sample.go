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
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Sampler decides whether a span is kept. Implementations must be safe for
// concurrent use.
type Sampler interface {
	Sample(span *Span) bool
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(span *Span) bool

// Sample implements Sampler.
func (f SamplerFunc) Sample(span *Span) bool { return f(span) }

// TraceIDSampler adapts a sampler that decides on the low 64 bits of the
// trace id, like the ones of the zipkin-go package.
func TraceIDSampler(fn func(id uint64) bool) Sampler {
	return SamplerFunc(func(span *Span) bool {
		return fn(span.TraceID.Low)
	})
}

var (
	// AlwaysSample keeps every span.
	AlwaysSample Sampler = SamplerFunc(func(*Span) bool { return true })
	// NeverSample drops every span.
	NeverSample Sampler = SamplerFunc(func(*Span) bool { return false })
)

// FixedRate keeps exactly one of every n spans: calls 1, n+1, 2n+1 and so on.
// Which span of a concurrent burst gets picked is unspecified, only the rate
// is.
type FixedRate struct {
	n       uint64
	counter atomic.Uint64
}

// NewFixedRate returns a sampler keeping one in every n spans.
func NewFixedRate(n int) (*FixedRate, error) {
	if n < 1 {
		return nil, errors.Errorf("fixed rate must be at least 1, got %d", n)
	}
	return &FixedRate{n: uint64(n)}, nil
}

// Sample implements Sampler.
func (f *FixedRate) Sample(*Span) bool {
	return (f.counter.Add(1)-1)%f.n == 0
}

// RateLimitOption configures a RateLimit or ExactRateLimit.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	clock clockwork.Clock
}

// SamplerClock sets the clock used to measure refill intervals.
func SamplerClock(clock clockwork.Clock) RateLimitOption {
	return func(c *rateLimitConfig) { c.clock = clock }
}

func newRateLimitConfig(quantum, capacity int64, interval time.Duration, opts []RateLimitOption) (rateLimitConfig, int64, error) {
	cfg := rateLimitConfig{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if quantum < 1 {
		return cfg, 0, errors.Errorf("rate limit quantum must be at least 1, got %d", quantum)
	}
	if interval <= 0 {
		return cfg, 0, errors.Errorf("rate limit interval must be positive, got %s", interval)
	}
	if capacity < quantum {
		capacity = quantum
	}
	return cfg, capacity, nil
}

func refillAmount(quantum, capacity int64, elapsed, interval time.Duration) int64 {
	refill := int64(float64(quantum) * float64(elapsed) / float64(interval))
	if refill > capacity {
		refill = capacity
	}
	return refill
}

// RateLimit is a lock-free token bucket. The bucket starts with quantum
// tokens and is refilled only once it runs dry, with quantum tokens per
// elapsed interval up to capacity.
//
// The limiter is approximate: when several goroutines find the bucket empty
// at the same time only one refill wins the compare-and-swap, the others fall
// back to a plain decrement. Under contention it may admit or reject up to
// one span per concurrent caller more than an exact limiter would; use
// ExactRateLimit when that matters.
type RateLimit struct {
	quantum  int64
	capacity int64
	interval time.Duration
	clock    clockwork.Clock
	start    time.Time

	tokens     atomic.Int64
	lastRefill atomic.Int64 // nanoseconds since start
}

// NewRateLimit returns a lock-free token bucket sampler. capacity is raised
// to quantum when smaller.
func NewRateLimit(quantum, capacity int64, interval time.Duration, opts ...RateLimitOption) (*RateLimit, error) {
	cfg, capacity, err := newRateLimitConfig(quantum, capacity, interval, opts)
	if err != nil {
		return nil, err
	}
	r := &RateLimit{
		quantum:  quantum,
		capacity: capacity,
		interval: interval,
		clock:    cfg.clock,
		start:    cfg.clock.Now(),
	}
	r.tokens.Store(quantum)
	return r, nil
}

// PerSecond returns a RateLimit admitting n spans per second.
func PerSecond(n int64, opts ...RateLimitOption) (*RateLimit, error) {
	return NewRateLimit(n, n, time.Second, opts...)
}

// PerMinute returns a RateLimit admitting n spans per minute.
func PerMinute(n int64, opts ...RateLimitOption) (*RateLimit, error) {
	return NewRateLimit(n, n, time.Minute, opts...)
}

// Sample implements Sampler.
func (r *RateLimit) Sample(*Span) bool {
	remaining := r.tokens.Add(-1) + 1
	if remaining-1 >= 0 {
		return true
	}

	now := r.clock.Since(r.start)
	elapsed := now - time.Duration(r.lastRefill.Load())
	if elapsed < r.interval {
		return false
	}

	refill := refillAmount(r.quantum, r.capacity, elapsed, r.interval)
	if r.tokens.CompareAndSwap(remaining-1, refill-1) {
		r.lastRefill.Store(int64(now))
		return true
	}
	return r.tokens.Add(-1) >= 0
}

// ExactRateLimit has the semantics of RateLimit but serializes callers on a
// mutex, so it never over or under admits.
type ExactRateLimit struct {
	quantum  int64
	capacity int64
	interval time.Duration
	clock    clockwork.Clock

	mtx        sync.Mutex
	tokens     int64
	lastRefill time.Time
}

// NewExactRateLimit returns a mutex guarded token bucket sampler.
func NewExactRateLimit(quantum, capacity int64, interval time.Duration, opts ...RateLimitOption) (*ExactRateLimit, error) {
	cfg, capacity, err := newRateLimitConfig(quantum, capacity, interval, opts)
	if err != nil {
		return nil, err
	}
	return &ExactRateLimit{
		quantum:    quantum,
		capacity:   capacity,
		interval:   interval,
		clock:      cfg.clock,
		tokens:     quantum,
		lastRefill: cfg.clock.Now(),
	}, nil
}

// Sample implements Sampler.
func (r *ExactRateLimit) Sample(*Span) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.tokens > 0 {
		r.tokens--
		return true
	}

	now := r.clock.Now()
	elapsed := now.Sub(r.lastRefill)
	if elapsed < r.interval {
		return false
	}
	r.tokens = refillAmount(r.quantum, r.capacity, elapsed, r.interval) - 1
	r.lastRefill = now
	return true
}
