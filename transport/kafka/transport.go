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

/*
Package kafka implements a Zipkin transport that publishes each encoded span
batch as one message on a Kafka topic.
*/
package kafka

import (
	"context"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
)

// Defaults for the producer configuration.
const (
	DefaultTopic                 = "zipkin"
	DefaultAckTimeout            = 5 * time.Second
	DefaultConnectionIdleTimeout = 30 * time.Second
)

// Transport publishes payloads through a sarama.SyncProducer.
type Transport struct {
	producer sarama.SyncProducer
	topic    string
}

type transportOptions struct {
	topic           string
	compression     sarama.CompressionCodec
	ackTimeout      time.Duration
	idleTimeout     time.Duration
	requiredAcks    sarama.RequiredAcks
	maxMessageBytes int
	clientID        string
	producer        sarama.SyncProducer
}

// TransportOption sets a parameter for the Kafka transport.
type TransportOption func(o *transportOptions)

// Topic sets the destination topic.
func Topic(topic string) TransportOption {
	return func(o *transportOptions) { o.topic = topic }
}

// Compression sets the message compression codec.
func Compression(codec sarama.CompressionCodec) TransportOption {
	return func(o *transportOptions) { o.compression = codec }
}

// AckTimeout bounds how long the broker may wait for the required acks.
func AckTimeout(d time.Duration) TransportOption {
	return func(o *transportOptions) { o.ackTimeout = d }
}

// ConnectionIdleTimeout sets the keep-alive period of idle broker
// connections.
func ConnectionIdleTimeout(d time.Duration) TransportOption {
	return func(o *transportOptions) { o.idleTimeout = d }
}

// RequiredAcks sets the acknowledgement level. WaitForLocal is the default.
func RequiredAcks(acks sarama.RequiredAcks) TransportOption {
	return func(o *transportOptions) { o.requiredAcks = acks }
}

// MaxMessageBytes caps the size of one produced message.
func MaxMessageBytes(n int) TransportOption {
	return func(o *transportOptions) { o.maxMessageBytes = n }
}

// ClientID sets the client id reported to the brokers.
func ClientID(id string) TransportOption {
	return func(o *transportOptions) { o.clientID = id }
}

// Producer injects an existing producer. Broker and producer configuration
// options are ignored when set.
func Producer(p sarama.SyncProducer) TransportOption {
	return func(o *transportOptions) { o.producer = p }
}

// ParseCompression maps none, gzip, snappy, lz4 and zstd to sarama codecs.
func ParseCompression(name string) (sarama.CompressionCodec, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return sarama.CompressionNone, nil
	case "gzip":
		return sarama.CompressionGZIP, nil
	case "snappy":
		return sarama.CompressionSnappy, nil
	case "lz4":
		return sarama.CompressionLZ4, nil
	case "zstd":
		return sarama.CompressionZSTD, nil
	}
	return sarama.CompressionNone, errors.Errorf("unknown compression %q", name)
}

// ParseRequiredAcks accepts none/0, local/1 and all/-1.
func ParseRequiredAcks(a string) (sarama.RequiredAcks, error) {
	switch strings.ToLower(a) {
	case "0", "none":
		return sarama.NoResponse, nil
	case "", "1", "local":
		return sarama.WaitForLocal, nil
	case "-1", "all":
		return sarama.WaitForAll, nil
	}
	return sarama.WaitForLocal, errors.Errorf("invalid acks value %q, must be none/0, local/1 or all/-1", a)
}

func newTransportOptions(options []TransportOption) transportOptions {
	o := transportOptions{
		topic:        DefaultTopic,
		compression:  sarama.CompressionNone,
		ackTimeout:   DefaultAckTimeout,
		idleTimeout:  DefaultConnectionIdleTimeout,
		requiredAcks: sarama.WaitForLocal,
		clientID:     "zipkin-go-v1",
	}
	for _, option := range options {
		option(&o)
	}
	return o
}

func (o transportOptions) config() (*sarama.Config, error) {
	config := sarama.NewConfig()
	config.ClientID = o.clientID
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = o.requiredAcks
	config.Producer.Timeout = o.ackTimeout
	config.Producer.Compression = o.compression
	config.Net.KeepAlive = o.idleTimeout
	if o.maxMessageBytes > 0 {
		config.Producer.MaxMessageBytes = o.maxMessageBytes
	}
	if o.compression == sarama.CompressionZSTD && !config.Version.IsAtLeast(sarama.V2_1_0_0) {
		config.Version = sarama.V2_1_0_0
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "kafka config")
	}
	return config, nil
}

// NewTransport returns a transport producing to brokers.
func NewTransport(brokers []string, options ...TransportOption) (*Transport, error) {
	o := newTransportOptions(options)
	if o.topic == "" {
		return nil, errors.New("kafka transport: empty topic")
	}
	if o.producer != nil {
		return &Transport{producer: o.producer, topic: o.topic}, nil
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka transport: no brokers")
	}
	config, err := o.config()
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return &Transport{producer: producer, topic: o.topic}, nil
}

// Send publishes payload as a single message and waits for the configured
// acknowledgement.
func (t *Transport) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: t.topic,
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := t.producer.SendMessage(msg); err != nil {
		return errors.Wrapf(err, "produce to %s", t.topic)
	}
	return nil
}

// Close shuts the producer down.
func (t *Transport) Close() error {
	return errors.Wrap(t.producer.Close(), "close kafka producer")
}

var _ zipkintracer.Transport = (*Transport)(nil)
