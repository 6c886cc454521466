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

import "testing"

func TestPaneInfo_String(t *testing.T) {
	tests := []struct {
		pane PaneInfo
		want string
	}{
		{NoFiringPane(), "NO_FIRING"},
		{PaneInfo{Timing: PaneOnTime, IsFirst: true}, "{ON_TIME first:true last:false index:0 onTimeIndex:0}"},
		{PaneInfo{Timing: PaneLate, IsLast: true, Index: 3, NonSpeculativeIndex: 2}, "{LATE first:false last:true index:3 onTimeIndex:2}"},
	}
	for _, test := range tests {
		if got := test.pane.String(); got != test.want {
			t.Errorf("%#v.String() = %q, want %q", test.pane, got, test.want)
		}
	}
}

func TestPaneInfo_IsNoFiring(t *testing.T) {
	if !NoFiringPane().IsNoFiring() {
		t.Error("NoFiringPane().IsNoFiring() = false, want true")
	}
	if (PaneInfo{Timing: PaneEarly, IsFirst: true}).IsNoFiring() {
		t.Error("early pane reported as no firing")
	}
}
