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

package typex

import "fmt"

// PaneTiming describes when a pane fired relative to the watermark.
type PaneTiming byte

const (
	PaneEarly PaneTiming = iota
	PaneOnTime
	PaneLate
	PaneUnknown
)

func (t PaneTiming) String() string {
	switch t {
	case PaneEarly:
		return "EARLY"
	case PaneOnTime:
		return "ON_TIME"
	case PaneLate:
		return "LATE"
	default:
		return "UNKNOWN"
	}
}

// PaneInfo records which firing of a window's aggregation a value belongs to.
type PaneInfo struct {
	Timing                     PaneTiming
	IsFirst, IsLast            bool
	Index, NonSpeculativeIndex int64
}

// NoFiringPane is the pane of values that were never produced by a trigger
// firing, such as those read from a source.
func NoFiringPane() PaneInfo {
	return PaneInfo{Timing: PaneUnknown, IsFirst: true, IsLast: true}
}

// IsNoFiring reports whether the pane is the no firing pane.
func (p PaneInfo) IsNoFiring() bool {
	return p == NoFiringPane()
}

func (p PaneInfo) String() string {
	if p.IsNoFiring() {
		return "NO_FIRING"
	}
	return fmt.Sprintf("{%v first:%v last:%v index:%d onTimeIndex:%d}", p.Timing, p.IsFirst, p.IsLast, p.Index, p.NonSpeculativeIndex)
}
