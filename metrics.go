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
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what collectors do. All methods are no-ops on a nil
// *Metrics.
type Metrics struct {
	submittedSpans *prometheus.CounterVec
	encodeErrors   *prometheus.CounterVec
	sendErrors     *prometheus.CounterVec
	sentBytes      *prometheus.CounterVec
}

// NewMetrics creates the collector counters and registers them with reg.
// Counters that are already registered are shared, so several collectors may
// report to the same registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submittedSpans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zipkin",
			Subsystem: "collector",
			Name:      "submitted_spans_total",
			Help:      "Spans handed to the collector.",
		}, []string{"collector"}),
		encodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zipkin",
			Subsystem: "collector",
			Name:      "encode_errors_total",
			Help:      "Submissions that failed to encode.",
		}, []string{"collector"}),
		sendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zipkin",
			Subsystem: "collector",
			Name:      "send_errors_total",
			Help:      "Payloads the transport failed to deliver.",
		}, []string{"collector"}),
		sentBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zipkin",
			Subsystem: "collector",
			Name:      "sent_bytes_total",
			Help:      "Encoded bytes delivered by the transport.",
		}, []string{"collector"}),
	}
	var err error
	if m.submittedSpans, err = register(reg, m.submittedSpans); err != nil {
		return nil, err
	}
	if m.encodeErrors, err = register(reg, m.encodeErrors); err != nil {
		return nil, err
	}
	if m.sendErrors, err = register(reg, m.sendErrors); err != nil {
		return nil, err
	}
	if m.sentBytes, err = register(reg, m.sentBytes); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, errors.Wrap(err, "register collector metrics")
	}
	return c, nil
}

func (m *Metrics) submitted(kind string, n int) {
	if m != nil {
		m.submittedSpans.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *Metrics) encodeFailed(kind string) {
	if m != nil {
		m.encodeErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) sendFailed(kind string) {
	if m != nil {
		m.sendErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) sent(kind string, n int) {
	if m != nil {
		m.sentBytes.WithLabelValues(kind).Add(float64(n))
	}
}
