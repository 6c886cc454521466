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

package sideinput

import (
	"testing"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
	"github.com/google/go-cmp/cmp"
)

func TestContainer_Readiness(t *testing.T) {
	c := NewContainer()
	view := NewSingleton("v")
	other := NewSingleton("other")
	w := window.IntervalWindow{Start: 0, End: 10000}
	glo := window.GlobalWindow{}

	r := c.Reader([]View{view})
	if r.IsEmpty() {
		t.Fatal("IsEmpty() = true for a reader with one view")
	}
	if !r.Contains(view) || r.Contains(other) {
		t.Errorf("Contains() scope is wrong")
	}
	if r.IsReady(view, glo) {
		t.Error("IsReady() before any write = true")
	}
	if _, err := r.Get(view, glo); err == nil {
		t.Error("Get() on an unready window succeeded")
	}

	c.Write(view, []window.WindowedValue{window.ValueInGlobalWindow(5)})
	if r.IsReady(view, glo) {
		t.Error("IsReady(global) after a write but before Complete = true")
	}
	if _, err := r.Get(view, glo); err == nil {
		t.Error("Get() before Complete succeeded")
	}

	c.Complete(view)
	for _, win := range []typex.Window{glo, w} {
		if !r.IsReady(view, win) {
			t.Errorf("IsReady(%v) after Complete = false", win)
		}
	}
	got, err := r.Get(view, glo)
	if err != nil || got != 5 {
		t.Errorf("Get(global) = %v, %v, want 5", got, err)
	}

	if r.IsReady(other, glo) {
		t.Error("IsReady() on a view outside the reader = true")
	}
	if _, err := r.Get(other, glo); err == nil {
		t.Error("Get() on a view outside the reader succeeded")
	}
}

func TestContainer_Complete(t *testing.T) {
	c := NewContainer()
	w := window.IntervalWindow{Start: 0, End: 10}
	plain := NewSingleton("plain")
	withDefault := NewSingleton("def").WithDefault(42)
	iter := NewIterable("iter")
	r := c.Reader([]View{plain, withDefault, iter})

	for _, v := range []View{plain, withDefault, iter} {
		c.Complete(v)
		if !c.IsComplete(v) || !r.IsReady(v, w) {
			t.Errorf("%v not ready after Complete", v)
		}
	}

	if _, err := r.Get(plain, w); err == nil {
		t.Error("Get() on an empty singleton without default succeeded")
	}
	if got, err := r.Get(withDefault, w); err != nil || got != 42 {
		t.Errorf("Get(default) = %v, %v, want 42", got, err)
	}
	got, err := r.Get(iter, w)
	if err != nil {
		t.Fatalf("Get(iterable) = %v", err)
	}
	if d := cmp.Diff([]any{}, got); d != "" {
		t.Errorf("Get(iterable) diff (-want, +got):\n%s", d)
	}
}

func TestContainer_Values(t *testing.T) {
	c := NewContainer()
	w := window.IntervalWindow{Start: 0, End: 10}
	single := NewSingleton("single")
	iter := NewIterable("iter")
	r := c.Reader([]View{single, iter})

	vals := []window.WindowedValue{
		window.Of("a", 1, []typex.Window{w}, typex.NoFiringPane()),
		window.Of("b", 2, []typex.Window{w, window.GlobalWindow{}}, typex.NoFiringPane()),
	}
	c.Write(single, vals)
	c.Write(iter, vals[:1])
	c.Write(iter, vals[1:])
	c.Complete(single)
	c.Complete(iter)

	if _, err := r.Get(single, w); err == nil {
		t.Error("Get() on a singleton with two values succeeded")
	}
	if got, err := r.Get(single, window.GlobalWindow{}); err != nil || got != "b" {
		t.Errorf("Get(single, global) = %v, %v, want b", got, err)
	}
	got, err := r.Get(iter, w)
	if err != nil {
		t.Fatalf("Get(iterable) = %v", err)
	}
	if d := cmp.Diff([]any{"a", "b"}, got); d != "" {
		t.Errorf("Get(iterable) diff (-want, +got):\n%s", d)
	}
}

func TestContainer_AccumulatesUntilComplete(t *testing.T) {
	c := NewContainer()
	iter := NewIterable("iter")
	r := c.Reader([]View{iter})
	for i := 0; i < 4; i++ {
		c.Write(iter, []window.WindowedValue{window.ValueInGlobalWindow(i)})
		if r.IsReady(iter, window.GlobalWindow{}) {
			t.Fatalf("IsReady() after %d partial writes = true", i+1)
		}
	}
	c.Complete(iter)
	got, err := r.Get(iter, window.GlobalWindow{})
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if d := cmp.Diff([]any{0, 1, 2, 3}, got); d != "" {
		t.Errorf("Get() diff (-want, +got):\n%s", d)
	}
}

func TestReader_UsesRegisteredView(t *testing.T) {
	c := NewContainer()
	registered := NewSingleton("s").WithDefault(1)
	r := c.Reader([]View{registered})
	c.Complete(registered)

	tests := []struct {
		name string
		v    View
	}{
		{"same view", registered},
		{"other default", NewSingleton("s").WithDefault(2)},
		{"no default", NewSingleton("s")},
		{"other kind", NewIterable("s")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := r.Get(test.v, window.GlobalWindow{})
			if err != nil || got != 1 {
				t.Errorf("Get(%v) = %v, %v, want the registered default 1", test.v, got, err)
			}
		})
	}
}

func TestWithDefaultOnIterablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("WithDefault on an iterable view did not panic")
		}
	}()
	NewIterable("i").WithDefault(1)
}
