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

// Package dofn is the user facing API for element-wise processing.
//
// A DoFn consumes elements of type I and emits elements of type O to its
// main output, and any value to additional tagged outputs:
//
//	fn := dofn.Func[string, int](func(ctx context.Context, pc dofn.ProcessContext[string, int]) error {
//		pc.Output(len(pc.Element()))
//		return nil
//	})
//
// Optional bundle lifecycle methods are discovered through the
// BundleStarter and BundleFinisher interfaces.
package dofn

import (
	"context"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/timers"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
)

// Tag identifies an output of a DoFn.
type Tag string

// MainOutput is the conventional tag of a DoFn's main output.
const MainOutput Tag = "main"

// DoFn processes one element in one window at a time.
type DoFn[I, O any] interface {
	ProcessElement(ctx context.Context, pc ProcessContext[I, O]) error
}

// Func adapts a function to a DoFn.
type Func[I, O any] func(ctx context.Context, pc ProcessContext[I, O]) error

// ProcessElement calls f.
func (f Func[I, O]) ProcessElement(ctx context.Context, pc ProcessContext[I, O]) error {
	return f(ctx, pc)
}

// BundleStarter is implemented by DoFns needing setup before the first
// element of every bundle.
type BundleStarter interface {
	StartBundle(ctx context.Context) error
}

// BundleFinisher is implemented by DoFns needing to act after the last
// element of every bundle.
type BundleFinisher interface {
	FinishBundle(ctx context.Context) error
}

// ProcessContext is the view of the current element handed to a DoFn. It
// is only valid during the ProcessElement call it was passed to.
type ProcessContext[I, O any] interface {
	// Element returns the element being processed.
	Element() I
	// Timestamp returns the event time of the element.
	Timestamp() typex.EventTime
	// Window returns the single window the element is processed in.
	Window() typex.Window
	// Pane returns the pane the element was produced in.
	Pane() typex.PaneInfo
	// Key returns the key of the bundle, empty for unkeyed bundles.
	Key() string

	// SideInput returns the contents of the view in the current window.
	SideInput(v sideinput.View) (any, error)

	// Output emits o to the main output with the element's timestamp and
	// window.
	Output(o O)
	// OutputWithTimestamp emits o to the main output at ts. Timestamps
	// earlier than the element's panic.
	OutputWithTimestamp(o O, ts typex.EventTime)
	// OutputTo emits v to the output with the given tag. Undeclared tags
	// panic.
	OutputTo(tag Tag, v any)

	// Timers returns the provider for timers in the current window.
	Timers() timers.Provider
	// Counter returns the counter of this step with the given name.
	Counter(namespace, name string) *metrics.Counter
	// Distribution returns the distribution of this step with the given name.
	Distribution(namespace, name string) *metrics.Distribution
	// Gauge returns the gauge of this step with the given name.
	Gauge(namespace, name string) *metrics.Gauge
}

// SideInputReader is the part of a ProcessContext reading side inputs.
type SideInputReader interface {
	SideInput(v sideinput.View) (any, error)
}

// SideInputAs reads a view and asserts its value to T. Use IterableAs for
// iterable views.
func SideInputAs[T any](r SideInputReader, v sideinput.View) (T, error) {
	var zero T
	raw, err := r.SideInput(v)
	if err != nil {
		return zero, err
	}
	if t, ok := raw.(T); ok {
		return t, nil
	}
	return zero, errors.Errorf("side input %v is %T, not %T", v, raw, zero)
}

// IterableAs converts the contents of an iterable view to a []E.
func IterableAs[E any](r SideInputReader, v sideinput.View) ([]E, error) {
	vals, err := SideInputAs[[]any](r, v)
	if err != nil {
		return nil, err
	}
	ret := make([]E, 0, len(vals))
	for i, val := range vals {
		e, ok := val.(E)
		if !ok {
			var zero E
			return nil, errors.Errorf("side input %v value %d is %T, not %T", v, i, val, zero)
		}
		ret = append(ret, e)
	}
	return ret, nil
}
