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
	"fmt"
	"io"
	"sync"

	"github.com/go-logfmt/logfmt"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// errMissingValue is appended to keyvals with an odd number of elements.
var errMissingValue = errors.New("(MISSING)")

// Logger is the fundamental interface for all log operations. Log creates a
// log event from keyvals, a variadic sequence of alternating keys and values.
type Logger interface {
	Log(keyvals ...interface{}) error
}

// LoggerFunc is an adapter to allow use of ordinary functions as Loggers.
type LoggerFunc func(...interface{}) error

// Log implements Logger by calling f(keyvals...).
func (f LoggerFunc) Log(keyvals ...interface{}) error {
	return f(keyvals...)
}

// NewNopLogger returns a logger that doesn't do anything.
func NewNopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Log(...interface{}) error { return nil }

// NewLogfmtLogger returns a logger that writes one logfmt record per event
// to w. It is safe for concurrent use.
func NewLogfmtLogger(w io.Writer) Logger {
	return &logfmtLogger{enc: logfmt.NewEncoder(w)}
}

type logfmtLogger struct {
	mtx sync.Mutex
	enc *logfmt.Encoder
}

func (l *logfmtLogger) Log(keyvals ...interface{}) error {
	if len(keyvals)%2 == 1 {
		keyvals = append(keyvals, errMissingValue)
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if err := l.enc.EncodeKeyvals(keyvals...); err != nil {
		return err
	}
	return l.enc.EndRecord()
}

// NewZapLogger adapts a zap logger. Events carrying an "err" key are logged
// at error level, the value of a "msg" key becomes the message.
func NewZapLogger(logger *zap.Logger) Logger {
	return zapLogger{sugar: logger.Sugar()}
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapLogger) Log(keyvals ...interface{}) error {
	var (
		msg    string
		isErr  bool
		fields = make([]interface{}, 0, len(keyvals))
	)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		var val interface{} = errMissingValue
		if i+1 < len(keyvals) {
			val = keyvals[i+1]
		}
		switch key {
		case "msg":
			msg = fmt.Sprint(val)
			continue
		case "err":
			isErr = true
		}
		fields = append(fields, key, val)
	}
	if isErr {
		l.sugar.Errorw(msg, fields...)
	} else {
		l.sugar.Infow(msg, fields...)
	}
	return nil
}
