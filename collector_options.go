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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxMessageSize is the initial capacity of encode buffers.
const DefaultMaxMessageSize = 4096

type collectorOptions struct {
	maxMessageSize   int
	logger           Logger
	logErrorInterval time.Duration
	registerer       prometheus.Registerer
	metrics          *Metrics
	poolSize         int
}

// CollectorOption sets a parameter of a SyncCollector or AsyncCollector.
type CollectorOption func(o *collectorOptions)

// MaxMessageSize sets the capacity encode buffers are allocated with. It is
// a hint, larger payloads still encode.
func MaxMessageSize(n int) CollectorOption {
	return func(o *collectorOptions) {
		if n > 0 {
			o.maxMessageSize = n
		}
	}
}

// CollectorLogger sets the logger used to report encode and send failures.
func CollectorLogger(logger Logger) CollectorOption {
	return func(o *collectorOptions) { o.logger = logger }
}

// LogErrorInterval suppresses repeats of the same error within d.
func LogErrorInterval(d time.Duration) CollectorOption {
	return func(o *collectorOptions) { o.logErrorInterval = d }
}

// CollectorMetrics registers the collector counters with reg.
func CollectorMetrics(reg prometheus.Registerer) CollectorOption {
	return func(o *collectorOptions) { o.registerer = reg }
}

// PoolSize bounds the number of goroutines an AsyncCollector sends from.
// SubmitAsync blocks while all of them are busy. Zero means unbounded. The
// SyncCollector ignores it.
func PoolSize(n int) CollectorOption {
	return func(o *collectorOptions) { o.poolSize = n }
}

func newCollectorOptions(opts []CollectorOption) (collectorOptions, error) {
	o := collectorOptions{
		maxMessageSize: DefaultMaxMessageSize,
		logger:         NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewNopLogger()
	}
	if o.registerer != nil {
		m, err := NewMetrics(o.registerer)
		if err != nil {
			return o, err
		}
		o.metrics = m
	}
	return o, nil
}
