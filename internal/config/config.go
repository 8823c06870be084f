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

// Package config loads tracer and collector settings from the environment.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
	"github.com/openzipkin-contrib/zipkin-go-v1/codec"
	zipkinhttp "github.com/openzipkin-contrib/zipkin-go-v1/transport/http"
	"github.com/openzipkin-contrib/zipkin-go-v1/transport/kafka"
)

// Prefix of every environment variable read by Load.
const Prefix = "ZIPKIN"

// Transport names.
const (
	TransportHTTP  = "http"
	TransportKafka = "kafka"
)

// Config holds the tracer configuration.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"zipkin-emit"`
	HostPort    string `envconfig:"HOST_PORT" default:"127.0.0.1:0"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`

	Codec     string `envconfig:"CODEC" default:"thrift"`
	Transport string `envconfig:"TRANSPORT" default:"http"`

	HTTPURL          string        `envconfig:"HTTP_URL" default:"http://localhost:9411/api/v1/spans"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	HTTPRetryMax     int           `envconfig:"HTTP_RETRY_MAX" default:"0"`

	KafkaBrokers      []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic        string        `envconfig:"KAFKA_TOPIC" default:"zipkin"`
	KafkaCompression  string        `envconfig:"KAFKA_COMPRESSION" default:"none"`
	KafkaRequiredAcks string        `envconfig:"KAFKA_REQUIRED_ACKS" default:"local"`
	KafkaAckTimeout   time.Duration `envconfig:"KAFKA_ACK_TIMEOUT" default:"5s"`

	// SampleEvery keeps one trace out of n; 0 keeps none.
	SampleEvery int `envconfig:"SAMPLE_EVERY" default:"1"`
	// RateLimit, when positive, replaces SampleEvery with a per second
	// token bucket.
	RateLimit      int64 `envconfig:"RATE_LIMIT" default:"0"`
	RateLimitExact bool  `envconfig:"RATE_LIMIT_EXACT" default:"false"`

	MaxMessageSize   int           `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`
	Async            bool          `envconfig:"ASYNC" default:"false"`
	PoolSize         int           `envconfig:"POOL_SIZE" default:"0"`
	LogErrorInterval time.Duration `envconfig:"LOG_ERROR_INTERVAL" default:"1m"`
}

// Load reads the configuration from ZIPKIN_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return &cfg, nil
}

// Sampler returns the configured sampler.
func (c *Config) Sampler() (zipkintracer.Sampler, error) {
	switch {
	case c.RateLimit > 0 && c.RateLimitExact:
		return zipkintracer.NewExactRateLimit(c.RateLimit, c.RateLimit, time.Second)
	case c.RateLimit > 0:
		return zipkintracer.PerSecond(c.RateLimit)
	case c.SampleEvery == 0:
		return zipkintracer.NeverSample, nil
	case c.SampleEvery == 1:
		return zipkintracer.AlwaysSample, nil
	}
	return zipkintracer.NewFixedRate(c.SampleEvery)
}

// NewTransport returns the configured transport. Content type follows enc.
func (c *Config) NewTransport(enc zipkintracer.Encoder) (zipkintracer.Transport, error) {
	switch strings.ToLower(c.Transport) {
	case TransportHTTP:
		return zipkinhttp.NewTransport(c.HTTPURL,
			zipkinhttp.ForEncoder(enc),
			zipkinhttp.ReadTimeout(c.HTTPReadTimeout),
			zipkinhttp.WriteTimeout(c.HTTPWriteTimeout),
			zipkinhttp.RetryMax(c.HTTPRetryMax),
		)
	case TransportKafka:
		opts, err := c.kafkaOptions()
		if err != nil {
			return nil, err
		}
		return kafka.NewTransport(c.KafkaBrokers, opts...)
	}
	return nil, errors.Errorf("unknown transport %q", c.Transport)
}

func (c *Config) kafkaOptions() ([]kafka.TransportOption, error) {
	compression, err := kafka.ParseCompression(c.KafkaCompression)
	if err != nil {
		return nil, err
	}
	acks, err := kafka.ParseRequiredAcks(c.KafkaRequiredAcks)
	if err != nil {
		return nil, err
	}
	return []kafka.TransportOption{
		kafka.Topic(c.KafkaTopic),
		kafka.Compression(compression),
		kafka.RequiredAcks(acks),
		kafka.AckTimeout(c.KafkaAckTimeout),
	}, nil
}

// Build wires encoder, transport, collector and sampler into a tracer.
// Closing the tracer closes the collector and the transport. Extra options
// are applied after the configured ones.
func (c *Config) Build(logger zipkintracer.Logger, reg prometheus.Registerer, extra ...zipkintracer.TracerOption) (*zipkintracer.Tracer, error) {
	enc, err := codec.Parse(c.Codec)
	if err != nil {
		return nil, err
	}
	sampler, err := c.Sampler()
	if err != nil {
		return nil, err
	}
	endpoint, err := zipkintracer.MakeEndpoint(c.HostPort, c.ServiceName)
	if err != nil {
		return nil, err
	}
	transport, err := c.NewTransport(enc)
	if err != nil {
		return nil, err
	}

	collectorOpts := []zipkintracer.CollectorOption{
		zipkintracer.MaxMessageSize(c.MaxMessageSize),
		zipkintracer.CollectorLogger(logger),
		zipkintracer.LogErrorInterval(c.LogErrorInterval),
		zipkintracer.CollectorMetrics(reg),
	}
	var collector zipkintracer.Collector
	if c.Async {
		collectorOpts = append(collectorOpts, zipkintracer.PoolSize(c.PoolSize))
		collector, err = zipkintracer.NewAsyncCollector(enc, transport, collectorOpts...)
	} else {
		collector, err = zipkintracer.NewCollector(enc, transport, collectorOpts...)
	}
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	tracerOpts := append([]zipkintracer.TracerOption{
		zipkintracer.WithSampler(sampler),
		zipkintracer.WithLocalEndpoint(endpoint),
		zipkintracer.WithDebug(c.Debug),
	}, extra...)
	return zipkintracer.NewTracer(collector, tracerOpts...)
}
