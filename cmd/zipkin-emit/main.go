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

// Command zipkin-emit sends a small client/server trace to a Zipkin
// collector. Settings come from ZIPKIN_* environment variables and can be
// overridden with flags.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
	"github.com/openzipkin-contrib/zipkin-go-v1/codec"
	"github.com/openzipkin-contrib/zipkin-go-v1/events"
	"github.com/openzipkin-contrib/zipkin-go-v1/internal/config"
	"github.com/openzipkin-contrib/zipkin-go-v1/propagation/b3"
)

type options struct {
	traces      int
	interval    time.Duration
	metricsAddr string
	netTrace    bool
	verbose     bool
}

func addFlags(fs *pflag.FlagSet, cfg *config.Config, opts *options) {
	fs.StringVar(&cfg.ServiceName, "service", cfg.ServiceName, "local service name")
	fs.StringVar(&cfg.HostPort, "host-port", cfg.HostPort, "local endpoint host:port")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "span codec: thrift, json or pretty-json")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport: http or kafka")
	fs.StringVar(&cfg.HTTPURL, "url", cfg.HTTPURL, "HTTP collector URL")
	fs.IntVar(&cfg.HTTPRetryMax, "retry-max", cfg.HTTPRetryMax, "HTTP retries per payload")
	fs.StringSliceVar(&cfg.KafkaBrokers, "brokers", cfg.KafkaBrokers, "Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "topic", cfg.KafkaTopic, "Kafka topic")
	fs.StringVar(&cfg.KafkaCompression, "compression", cfg.KafkaCompression, "Kafka compression: none, gzip, snappy, lz4 or zstd")
	fs.IntVar(&cfg.SampleEvery, "sample-every", cfg.SampleEvery, "keep one trace out of n, 0 keeps none")
	fs.Int64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "keep at most n traces per second, 0 disables")
	fs.BoolVar(&cfg.RateLimitExact, "rate-limit-exact", cfg.RateLimitExact, "use the mutex based rate limiter")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "mark every trace as debug")
	fs.BoolVar(&cfg.Async, "async", cfg.Async, "send from background goroutines")
	fs.IntVar(&cfg.PoolSize, "pool-size", cfg.PoolSize, "async send goroutines, 0 is unbounded")

	fs.IntVarP(&opts.traces, "traces", "n", 1, "number of traces to emit")
	fs.DurationVar(&opts.interval, "interval", 0, "pause between traces")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /debug/requests on this address")
	fs.BoolVar(&opts.netTrace, "net-trace", false, "register spans with golang.org/x/net/trace")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log every emitted trace")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	var opts options
	addFlags(pflag.CommandLine, cfg, &opts)
	pflag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, opts, logger); err != nil {
		logger.Error("zipkin-emit failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	if opts.metricsAddr != "" {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(opts.metricsAddr, nil); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	var tracerOpts []zipkintracer.TracerOption
	if opts.netTrace {
		tracerOpts = append(tracerOpts, zipkintracer.WithSpanEventListener(events.NetTraceIntegrator()))
	}
	tracer, err := cfg.Build(zipkintracer.NewZapLogger(logger), reg, tracerOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Close(); err != nil {
			logger.Warn("close tracer", zap.Error(err))
		}
	}()

	ctx := context.Background()
	for i := 0; i < opts.traces; i++ {
		if i > 0 && opts.interval > 0 {
			time.Sleep(opts.interval)
		}
		client, server, err := emitTrace(ctx, tracer)
		if err != nil {
			logger.Error("submit trace", zap.Error(err))
			continue
		}
		if opts.verbose {
			pretty, err := codec.MarshalJSONIndent(client)
			if err != nil {
				return err
			}
			logger.Info("emitted trace",
				zap.Stringer("trace_id", client.TraceID),
				zap.Stringer("server_span_id", server.ID),
				zap.ByteString("client_span", pretty),
			)
		}
	}
	return nil
}

// emitTrace records a client call and the server side that handled it. The
// call crosses the process boundary through B3 headers.
func emitTrace(ctx context.Context, tracer *zipkintracer.Tracer) (*zipkintracer.Span, *zipkintracer.Span, error) {
	local := tracer.LocalEndpoint()
	client := tracer.Span("get /checkout")
	client.Annotate(zipkintracer.ClientSend, local)
	client.BinaryAnnotate(zipkintracer.HTTPMethod, http.MethodGet, local)
	client.BinaryAnnotate(zipkintracer.HTTPPath, "/checkout", local)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://backend/checkout", nil)
	if err != nil {
		return nil, nil, err
	}
	if err := b3.InjectRequest(client.Context(), req); err != nil {
		return nil, nil, err
	}

	sc, err := b3.ExtractRequest(req)
	if err != nil {
		return nil, nil, err
	}
	server := tracer.SpanFromContext(*sc, "checkout")
	server.Annotate(zipkintracer.ServerRecv, local)
	server.BinaryAnnotate(zipkintracer.HTTPStatusCode, int32(http.StatusOK), local)
	server.Annotate(zipkintracer.ServerSend, local)

	client.Annotate(zipkintracer.ClientRecv, local)
	return client, server, tracer.Submit(ctx, server, client)
}
