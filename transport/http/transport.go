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
Package http implements a Zipkin transport that POSTs encoded span batches to
a collector endpoint such as http://localhost:9411/api/v1/spans.
*/
package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	zipkintracer "github.com/openzipkin-contrib/zipkin-go-v1"
	"github.com/openzipkin-contrib/zipkin-go-v1/codec"
)

// Default timeouts, applied separately to reading the response and writing
// the request.
const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 15 * time.Second
)

// RequestCallbackFn receives the initialized request before it is sent.
type RequestCallbackFn func(*http.Request)

// RedirectPolicyFn decides whether a redirect to req is followed.
type RedirectPolicyFn func(req *http.Request, via []*http.Request) bool

// Transport posts payloads to a Zipkin HTTP collector.
type Transport struct {
	url         string
	contentType string
	fixedType   bool
	client      *retryablehttp.Client
	callback    RequestCallbackFn
}

type transportOptions struct {
	contentType  string
	fixedType    bool
	redirect     RedirectPolicyFn
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxIdleConns int
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	callback     RequestCallbackFn
	logger       zipkintracer.Logger
	client       *http.Client
}

// TransportOption sets a parameter for the HTTP transport.
type TransportOption func(o *transportOptions)

// ContentType sets the Content-Type header of each request. It takes
// precedence over the MIME type announced by a collector's encoder.
func ContentType(mime string) TransportOption {
	return func(o *transportOptions) {
		o.contentType = mime
		o.fixedType = true
	}
}

// ForEncoder sets the Content-Type header to the MIME type of enc.
func ForEncoder(enc zipkintracer.Encoder) TransportOption {
	return ContentType(enc.MimeType())
}

// RedirectPolicy sets the redirect policy. FollowAll is the default.
func RedirectPolicy(fn RedirectPolicyFn) TransportOption {
	return func(o *transportOptions) { o.redirect = fn }
}

// FollowAll follows every redirect, up to net/http's limit of 10.
func FollowAll(*http.Request, []*http.Request) bool { return true }

// FollowNone never follows a redirect; the redirect response is reported as
// a *zipkintracer.ResponseError.
func FollowNone(*http.Request, []*http.Request) bool { return false }

// FollowIf follows redirects whose target satisfies fn.
func FollowIf(fn func(req *http.Request) bool) RedirectPolicyFn {
	return func(req *http.Request, _ []*http.Request) bool { return fn(req) }
}

// ReadTimeout bounds the wait for the response headers.
func ReadTimeout(d time.Duration) TransportOption {
	return func(o *transportOptions) { o.readTimeout = d }
}

// WriteTimeout is added to the read timeout to bound a whole request.
func WriteTimeout(d time.Duration) TransportOption {
	return func(o *transportOptions) { o.writeTimeout = d }
}

// MaxIdleConnections limits the idle keep-alive connections kept open.
func MaxIdleConnections(n int) TransportOption {
	return func(o *transportOptions) { o.maxIdleConns = n }
}

// RetryMax sets how many times a failed request is retried. Zero, the
// default, sends each payload once.
func RetryMax(n int) TransportOption {
	return func(o *transportOptions) { o.retryMax = n }
}

// RetryBackoff sets the bounds of the exponential backoff between retries.
func RetryBackoff(min, max time.Duration) TransportOption {
	return func(o *transportOptions) {
		o.retryWaitMin = min
		o.retryWaitMax = max
	}
}

// RequestCallback registers a callback invoked on every outgoing request,
// e.g. to add authentication headers.
func RequestCallback(fn RequestCallbackFn) TransportOption {
	return func(o *transportOptions) { o.callback = fn }
}

// Logger receives the retry client's diagnostics.
func Logger(logger zipkintracer.Logger) TransportOption {
	return func(o *transportOptions) { o.logger = logger }
}

// Client replaces the underlying *http.Client. Timeout, redirect and idle
// connection options are ignored when a client is supplied.
func Client(client *http.Client) TransportOption {
	return func(o *transportOptions) { o.client = client }
}

// NewTransport returns a transport posting to url.
func NewTransport(url string, options ...TransportOption) (*Transport, error) {
	if url == "" {
		return nil, errors.New("http transport: empty url")
	}
	o := transportOptions{
		contentType:  codec.MimeThrift,
		redirect:     FollowAll,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		maxIdleConns: 100,
		retryWaitMin: 100 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, option := range options {
		option(&o)
	}
	if o.retryMax < 0 {
		return nil, errors.Errorf("http transport: negative retry count %d", o.retryMax)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = o.retryMax
	client.RetryWaitMin = o.retryWaitMin
	client.RetryWaitMax = o.retryWaitMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	if o.logger != nil {
		client.Logger = leveledLogger{o.logger}
	}
	if o.client != nil {
		client.HTTPClient = o.client
	} else {
		client.HTTPClient = newHTTPClient(o)
	}

	return &Transport{
		url:         url,
		contentType: o.contentType,
		fixedType:   o.fixedType,
		client:      client,
		callback:    o.callback,
	}, nil
}

func newHTTPClient(o transportOptions) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   o.writeTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          o.maxIdleConns,
		MaxIdleConnsPerHost:   o.maxIdleConns,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: o.readTimeout,
	}
	redirect := o.redirect
	return &http.Client{
		Transport: transport,
		Timeout:   o.readTimeout + o.writeTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			if !redirect(req, via) {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// SetContentType implements zipkintracer.ContentTypeSetter. It is ignored
// when the transport was built with ContentType or ForEncoder.
func (t *Transport) SetContentType(mime string) {
	if t.fixedType || mime == "" {
		return
	}
	t.contentType = mime
}

// Send posts payload. Any non-2xx answer, including an unfollowed redirect,
// is returned as a *zipkintracer.ResponseError.
func (t *Transport) Send(ctx context.Context, payload []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.url, payload)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", t.contentType)
	if t.callback != nil {
		t.callback(req.Request)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post %s", t.url)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &zipkintracer.ResponseError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.client.HTTPClient.CloseIdleConnections()
	return nil
}

// leveledLogger feeds retryablehttp diagnostics into a key/value Logger.
type leveledLogger struct {
	logger zipkintracer.Logger
}

func (l leveledLogger) log(level, msg string, keyvals []interface{}) {
	_ = l.logger.Log(append([]interface{}{"level", level, "msg", msg}, keyvals...)...)
}

func (l leveledLogger) Error(msg string, keyvals ...interface{}) { l.log("error", msg, keyvals) }
func (l leveledLogger) Info(msg string, keyvals ...interface{})  { l.log("info", msg, keyvals) }
func (l leveledLogger) Debug(msg string, keyvals ...interface{}) { l.log("debug", msg, keyvals) }
func (l leveledLogger) Warn(msg string, keyvals ...interface{})  { l.log("warn", msg, keyvals) }

var _ zipkintracer.Transport = (*Transport)(nil)
