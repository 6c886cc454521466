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

// Package window holds the window types of the in-process runner and the
// windowed value that moves an element between steps.
package window

import (
	"fmt"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
)

// GlobalWindow is the single window spanning all event time.
type GlobalWindow struct{}

func (GlobalWindow) MaxTimestamp() typex.EventTime {
	return mtime.EndOfGlobalWindowTime
}

func (GlobalWindow) Equals(o typex.Window) bool {
	_, ok := o.(GlobalWindow)
	return ok
}

func (GlobalWindow) String() string {
	return "[*]"
}

// IntervalWindow covers event times in [Start, End).
type IntervalWindow struct {
	Start, End typex.EventTime
}

// MaxTimestamp is End-1, the last millisecond the window covers.
func (w IntervalWindow) MaxTimestamp() typex.EventTime {
	return w.End - 1
}

func (w IntervalWindow) Equals(o typex.Window) bool {
	ow, ok := o.(IntervalWindow)
	return ok && ow == w
}

func (w IntervalWindow) String() string {
	return fmt.Sprintf("[%v:%v)", w.Start, w.End)
}
