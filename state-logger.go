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
	"time"

	"github.com/jonboulle/clockwork"
)

// StateLogger is a Logger that logs error only if logErrorInterval have passed
// from the last error, or it is a different error than the last seen. Errors
// are compared by message.
type StateLogger struct {
	logger           Logger
	logErrorInterval time.Duration
	clock            clockwork.Clock
	failing          bool
	lastError        string
	lastErrorTime    time.Time
	mutex            sync.Mutex
}

// NewStateLogger creates a new stateLogger
func NewStateLogger(logger Logger, logErrorInterval time.Duration) *StateLogger {
	return newStateLogger(logger, logErrorInterval, clockwork.NewRealClock())
}

func newStateLogger(logger Logger, logErrorInterval time.Duration, clock clockwork.Clock) *StateLogger {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &StateLogger{
		logger:           logger,
		logErrorInterval: logErrorInterval,
		clock:            clock,
	}
}

// LogError logs an error if it is different from the last seen error,
// or that logErrorInterval have passed since the last reported error.
func (se *StateLogger) LogError(err error, keyvals ...interface{}) {
	se.mutex.Lock()
	defer se.mutex.Unlock()
	msg := err.Error()
	now := se.clock.Now()
	if se.failing && msg == se.lastError && now.Sub(se.lastErrorTime) < se.logErrorInterval {
		return
	}
	_ = se.logger.Log(append([]interface{}{"err", msg}, keyvals...)...)
	se.failing = true
	se.lastError = msg
	se.lastErrorTime = now
}

// Fixed makes the stateLogger understand that the state is fixed, and when
// the next error will occur, it will log it. keyVal is logged only when an
// error was reported before.
func (se *StateLogger) Fixed(keyVal ...interface{}) {
	se.mutex.Lock()
	defer se.mutex.Unlock()
	if se.logErrorInterval == 0 || !se.failing {
		return
	}
	_ = se.logger.Log(keyVal...)
	se.failing = false
}
