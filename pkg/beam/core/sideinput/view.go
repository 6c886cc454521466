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

// Package sideinput contains the side input views a DoFn may read, the
// readers that answer per-window readiness and value lookups, and an
// in-memory container holding materialized view contents.
package sideinput

import (
	"fmt"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
)

// Kind is how the contents of a view are presented to user code.
type Kind int

const (
	// Singleton views hold at most one value per window.
	Singleton Kind = iota
	// Iterable views present every value in the window as a []any.
	Iterable
)

func (k Kind) String() string {
	switch k {
	case Singleton:
		return "Singleton"
	case Iterable:
		return "Iterable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// View identifies one materialized side input. Views are identified by ID.
type View struct {
	ID   string
	Kind Kind

	def        any
	hasDefault bool
}

// NewSingleton returns a singleton view without a default value.
func NewSingleton(id string) View {
	return View{ID: id, Kind: Singleton}
}

// NewIterable returns an iterable view.
func NewIterable(id string) View {
	return View{ID: id, Kind: Iterable}
}

// WithDefault returns a copy of the singleton view yielding def for ready
// windows that hold no value.
func (v View) WithDefault(def any) View {
	if v.Kind != Singleton {
		panic(fmt.Sprintf("sideinput: default value on %v view %v", v.Kind, v.ID))
	}
	v.def, v.hasDefault = def, true
	return v
}

// Default returns the default value of the view, if any.
func (v View) Default() (any, bool) {
	return v.def, v.hasDefault
}

func (v View) String() string {
	return fmt.Sprintf("%v[%v]", v.ID, v.Kind)
}

// Reader provides access to the contents of side inputs.
type Reader interface {
	// Get returns the value of the view in window w.
	Get(v View, w typex.Window) (any, error)
	// Contains reports whether the view may be read through this reader.
	Contains(v View) bool
	// IsEmpty reports whether the reader has no views.
	IsEmpty() bool
}

// ReadyCheckingReader is a Reader that can report whether a view's contents
// for a window are available.
type ReadyCheckingReader interface {
	Reader
	// IsReady reports whether Get(v, w) would observe the final contents of
	// the view in w. Views outside the reader are never ready.
	IsReady(v View, w typex.Window) bool
}
