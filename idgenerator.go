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
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"github.com/openzipkin/zipkin-go/idgenerator"
	"github.com/openzipkin/zipkin-go/model"
)

// IDGenerator produces trace and span identifiers. It is the same contract as
// the zipkin-go idgenerator package so its generators can be plugged in too.
type IDGenerator = idgenerator.IDGenerator

var _ IDGenerator = (*randomGenerator)(nil)

// randomGenerator hands out identifiers from a pool of PCG sources. Every
// source is seeded from crypto/rand when the pool creates it, so callers on
// different goroutines neither contend on a lock nor share a sequence.
type randomGenerator struct {
	traceID128 bool
	sources    sync.Pool
}

// NewRandomGenerator returns an IDGenerator that is safe for concurrent use.
// With traceID128 set, trace identifiers carry a non-zero high part.
func NewRandomGenerator(traceID128 bool) IDGenerator {
	g := &randomGenerator{traceID128: traceID128}
	g.sources.New = func() interface{} {
		return rand.New(rand.NewPCG(seed(), seed()))
	}
	return g
}

func seed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("zipkintracer: unable to read entropy: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}

func (g *randomGenerator) next() uint64 {
	r := g.sources.Get().(*rand.Rand)
	defer g.sources.Put(r)
	for {
		if id := r.Uint64(); id != 0 {
			return id
		}
	}
}

func (g *randomGenerator) TraceID() model.TraceID {
	id := model.TraceID{Low: g.next()}
	if g.traceID128 {
		id.High = g.next()
	}
	return id
}

func (g *randomGenerator) SpanID(model.TraceID) model.ID {
	return model.ID(g.next())
}

// seededGenerator is deterministic, for tests and reproducible tooling.
type seededGenerator struct {
	traceID128 bool
	mtx        sync.Mutex
	r          *rand.Rand
}

// NewSeededGenerator returns a deterministic IDGenerator. Two generators built
// from the same seed produce the same sequence of identifiers.
func NewSeededGenerator(seed uint64, traceID128 bool) IDGenerator {
	return &seededGenerator{
		traceID128: traceID128,
		r:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *seededGenerator) next() uint64 {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	for {
		if id := g.r.Uint64(); id != 0 {
			return id
		}
	}
}

func (g *seededGenerator) TraceID() model.TraceID {
	id := model.TraceID{Low: g.next()}
	if g.traceID128 {
		id.High = g.next()
	}
	return id
}

func (g *seededGenerator) SpanID(model.TraceID) model.ID {
	return model.ID(g.next())
}

var defaultGenerator = NewRandomGenerator(true)

// NextID returns a random non-zero 64 bit identifier.
func NextID() uint64 {
	return uint64(defaultGenerator.SpanID(model.TraceID{}))
}

// NewTraceID returns a random 128 bit trace identifier.
func NewTraceID() model.TraceID {
	return defaultGenerator.TraceID()
}
