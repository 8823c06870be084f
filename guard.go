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

import "sync"

// guard serializes access to a value and poisons itself when a caller panics
// while holding it. A poisoned guard refuses every later use with
// ErrLockPoisoned, since the value may have been left half written.
type guard[T any] struct {
	mtx      sync.Mutex
	poisoned bool
	val      T
}

func newGuard[T any](val T) *guard[T] {
	return &guard[T]{val: val}
}

func (g *guard[T]) with(fn func(T) error) (err error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.poisoned {
		return ErrLockPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			g.poisoned = true
			err = &PanicError{Value: r}
		}
	}()
	return fn(g.val)
}

func (g *guard[T]) isPoisoned() bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.poisoned
}
