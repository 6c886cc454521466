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

package window

import (
	"fmt"
	"strings"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
)

// WindowedValue is an element together with its event time, the windows it
// is assigned to and the pane it was produced in.
//
// A value assigned to several windows stands for the same event replicated in
// each window. WindowedValues are treated as immutable once constructed.
type WindowedValue struct {
	Elm       any
	Timestamp typex.EventTime
	Windows   []typex.Window
	Pane      typex.PaneInfo
}

// Of returns a windowed value. It panics if no windows are given, since every
// element belongs to at least one window.
func Of(elm any, ts typex.EventTime, windows []typex.Window, pane typex.PaneInfo) WindowedValue {
	if len(windows) == 0 {
		panic(fmt.Sprintf("windowed value %v at %v must be assigned to at least one window", elm, ts))
	}
	ws := make([]typex.Window, len(windows))
	copy(ws, windows)
	return WindowedValue{Elm: elm, Timestamp: ts, Windows: ws, Pane: pane}
}

// ValueInGlobalWindow returns elm in the global window at the minimum
// timestamp with no firing pane.
func ValueInGlobalWindow(elm any) WindowedValue {
	return TimestampedValueInGlobalWindow(elm, mtime.MinTimestamp)
}

// TimestampedValueInGlobalWindow returns elm at ts in the global window with
// no firing pane.
func TimestampedValueInGlobalWindow(elm any, ts typex.EventTime) WindowedValue {
	return WindowedValue{Elm: elm, Timestamp: ts, Windows: []typex.Window{GlobalWindow{}}, Pane: typex.NoFiringPane()}
}

// WithValue returns a copy of v carrying elm instead of v.Elm.
func (v WindowedValue) WithValue(elm any) WindowedValue {
	v.Elm = elm
	return v
}

// Explode splits v into one value per window, in window order. Each copy keeps
// the element, timestamp and pane. A value in a single window is returned as is.
func (v WindowedValue) Explode() []WindowedValue {
	if len(v.Windows) == 1 {
		return []WindowedValue{v}
	}
	ret := make([]WindowedValue, 0, len(v.Windows))
	for _, w := range v.Windows {
		ret = append(ret, WindowedValue{Elm: v.Elm, Timestamp: v.Timestamp, Windows: []typex.Window{w}, Pane: v.Pane})
	}
	return ret
}

// Window returns the single window of an exploded value. It panics for values
// in several windows.
func (v WindowedValue) Window() typex.Window {
	if len(v.Windows) != 1 {
		panic(fmt.Sprintf("windowed value %v has %d windows, want exactly one", v, len(v.Windows)))
	}
	return v.Windows[0]
}

func (v WindowedValue) String() string {
	ws := make([]string, len(v.Windows))
	for i, w := range v.Windows {
		ws[i] = fmt.Sprint(w)
	}
	return fmt.Sprintf("%v @%v in {%v} %v", v.Elm, v.Timestamp, strings.Join(ws, ","), v.Pane)
}
