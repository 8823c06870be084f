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

	"github.com/pkg/errors"
)

var (
	// ErrLockPoisoned is returned when an encoder or transport is used after
	// a previous call panicked while holding it.
	ErrLockPoisoned = errors.New("lock poisoned by a previous panic")

	// ErrUnknownCodec is the cause of every UnknownCodecError.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrCollectorClosed is returned by Submit after Close.
	ErrCollectorClosed = errors.New("collector closed")
)

// EncodeError reports a failure to serialize spans.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

// Unwrap returns the underlying serialization error.
func (e *EncodeError) Unwrap() error { return e.Err }

// Cause returns the underlying serialization error.
func (e *EncodeError) Cause() error { return e.Err }

// ResponseError reports a backend that answered, but not with success.
type ResponseError struct {
	StatusCode int
	Status     string
}

func (e *ResponseError) Error() string {
	if e.Status != "" {
		return "unexpected response: " + e.Status
	}
	return fmt.Sprintf("unexpected response: %d", e.StatusCode)
}

// PanicError is returned by the call that panicked while holding an encoder
// or transport. The resource is poisoned afterwards.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Is makes errors.Is(err, ErrLockPoisoned) hold for the panicking call too.
func (e *PanicError) Is(target error) bool { return target == ErrLockPoisoned }

// UnknownCodecError is returned when a codec name cannot be resolved.
type UnknownCodecError struct {
	Name string
}

func (e *UnknownCodecError) Error() string {
	return fmt.Sprintf("unknown codec %q", e.Name)
}

// Is reports whether target is ErrUnknownCodec.
func (e *UnknownCodecError) Is(target error) bool { return target == ErrUnknownCodec }
