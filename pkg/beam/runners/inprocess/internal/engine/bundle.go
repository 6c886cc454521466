// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package engine holds the runner side state shared by evaluators: bundles
// and their factory, per step execution contexts, and the evaluation
// context that commits the results of evaluated bundles.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/google/uuid"
)

// PCollection identifies a collection of elements in the pipeline.
type PCollection struct {
	ID string
}

func (p PCollection) String() string {
	return p.ID
}

// UncommittedBundle is a bundle being produced by a single evaluator. It is
// not safe for concurrent use.
type UncommittedBundle struct {
	id        string
	pcol      PCollection
	key       string
	elements  []window.WindowedValue
	committed bool
}

// ID returns the unique identifier of the bundle.
func (b *UncommittedBundle) ID() string { return b.id }

// PCollection returns the collection the bundle's elements belong to.
func (b *UncommittedBundle) PCollection() PCollection { return b.pcol }

// Key returns the key of every element in the bundle, empty if unkeyed.
func (b *UncommittedBundle) Key() string { return b.key }

// Len returns the number of elements added so far.
func (b *UncommittedBundle) Len() int { return len(b.elements) }

// Add appends an element. Adding to a committed bundle panics.
func (b *UncommittedBundle) Add(v window.WindowedValue) {
	if b.committed {
		panic(fmt.Sprintf("add to committed bundle %v", b.id))
	}
	b.elements = append(b.elements, v)
}

// Commit freezes the bundle at the given processing time. Committing twice
// panics.
func (b *UncommittedBundle) Commit(t mtime.Time) *CommittedBundle {
	if b.committed {
		panic(fmt.Sprintf("bundle %v committed twice", b.id))
	}
	b.committed = true
	return &CommittedBundle{
		id:         b.id,
		pcol:       b.pcol,
		key:        b.key,
		elements:   b.elements,
		commitTime: t,
	}
}

// CommittedBundle is an immutable bundle of elements of a collection. It is
// safe to share between goroutines.
type CommittedBundle struct {
	id         string
	pcol       PCollection
	key        string
	elements   []window.WindowedValue
	commitTime mtime.Time
}

// ID returns the unique identifier of the bundle.
func (b *CommittedBundle) ID() string { return b.id }

// PCollection returns the collection the bundle's elements belong to.
func (b *CommittedBundle) PCollection() PCollection { return b.pcol }

// Key returns the key of every element in the bundle, empty if unkeyed.
func (b *CommittedBundle) Key() string { return b.key }

// CommitTime returns the processing time the bundle was committed at.
func (b *CommittedBundle) CommitTime() mtime.Time { return b.commitTime }

// Len returns the number of elements in the bundle.
func (b *CommittedBundle) Len() int { return len(b.elements) }

// Elements returns a copy of the elements of the bundle.
func (b *CommittedBundle) Elements() []window.WindowedValue {
	ret := make([]window.WindowedValue, len(b.elements))
	copy(ret, b.elements)
	return ret
}

// WithElements returns a new committed bundle of the same collection, key
// and commit time holding the given elements.
func (b *CommittedBundle) WithElements(elms []window.WindowedValue) *CommittedBundle {
	cp := make([]window.WindowedValue, len(elms))
	copy(cp, elms)
	return &CommittedBundle{
		id:         uuid.NewString(),
		pcol:       b.pcol,
		key:        b.key,
		elements:   cp,
		commitTime: b.commitTime,
	}
}

// Split divides the bundle into bundles of at most size elements, keeping
// element order. A bundle that already fits is returned as is.
func (b *CommittedBundle) Split(size int) []*CommittedBundle {
	if size <= 0 || len(b.elements) <= size {
		return []*CommittedBundle{b}
	}
	var ret []*CommittedBundle
	for i := 0; i < len(b.elements); i += size {
		end := i + size
		if end > len(b.elements) {
			end = len(b.elements)
		}
		ret = append(ret, b.WithElements(b.elements[i:end]))
	}
	return ret
}

// MinTimestamp returns the earliest element timestamp, or
// mtime.MaxTimestamp for an empty bundle.
func (b *CommittedBundle) MinTimestamp() mtime.Time {
	min := mtime.MaxTimestamp
	for _, e := range b.elements {
		min = mtime.Min(min, e.Timestamp)
	}
	return min
}

func (b *CommittedBundle) String() string {
	return fmt.Sprintf("Bundle[%v %v key=%q n=%d @%v]", b.id, b.pcol, b.key, len(b.elements), b.commitTime)
}

// LogValue implements slog.LogValuer.
func (b *CommittedBundle) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("ID", b.id),
		slog.String("pcollection", b.pcol.ID),
		slog.String("key", b.key),
		slog.Int("elements", len(b.elements)),
		slog.Any("commitTime", b.commitTime))
}

// BundleFactory creates uncommitted bundles. It holds no state and is safe
// for concurrent use.
type BundleFactory struct{}

// CreateRootBundle returns an empty unkeyed bundle with no input.
func (BundleFactory) CreateRootBundle(pcol PCollection) *UncommittedBundle {
	return &UncommittedBundle{id: uuid.NewString(), pcol: pcol}
}

// CreateBundle returns an empty bundle for output produced from input,
// keyed like input.
func (f BundleFactory) CreateBundle(input *CommittedBundle, pcol PCollection) *UncommittedBundle {
	var key string
	if input != nil {
		key = input.key
	}
	return f.CreateKeyedBundle(input, key, pcol)
}

// CreateKeyedBundle returns an empty bundle for output produced from input
// with every element having the given key.
func (BundleFactory) CreateKeyedBundle(_ *CommittedBundle, key string, pcol PCollection) *UncommittedBundle {
	return &UncommittedBundle{id: uuid.NewString(), pcol: pcol, key: key}
}
