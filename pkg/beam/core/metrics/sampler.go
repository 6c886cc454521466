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

package metrics

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

type bundleProcState int

// String implements the Stringer interface.
func (b bundleProcState) String() string {
	switch b {
	case StartBundle:
		return "START_BUNDLE"
	case ProcessBundle:
		return "PROCESS_BUNDLE"
	case FinishBundle:
		return "FINISH_BUNDLE"
	case TotalBundle:
		return "TOTAL_BUNDLE"
	default:
		return "unknown process bundle state!"
	}
}

const (
	// StartBundle indicates starting state of a bundle
	StartBundle bundleProcState = 0
	// ProcessBundle indicates processing state of a bundle
	ProcessBundle bundleProcState = 1
	// FinishBundle indicates finishing state of a bundle
	FinishBundle bundleProcState = 2
	// TotalBundle (not a state) used for aggregating above states of a bundle
	TotalBundle bundleProcState = 3
)

// ExecutionState stores the information about a bundle in a particular state.
type ExecutionState struct {
	State     bundleProcState
	TotalTime time.Duration
}

// String implements the Stringer interface.
func (e ExecutionState) String() string {
	return fmt.Sprintf("Execution State:\n\t State: %s\n\t Total time: %v\n", e.State, e.TotalTime)
}

// StateSampler tracks how long a transform spends in each state of a bundle.
type StateSampler struct {
	clk       clock.Clock
	transform string

	active bool
	state  bundleProcState
	since  time.Time
	states [4]ExecutionState
}

func newStateSampler(clk clock.Clock, transform string) *StateSampler {
	s := &StateSampler{clk: clk, transform: transform}
	for i := range s.states {
		s.states[i].State = bundleProcState(i)
	}
	return s
}

// Transform returns the transform the sampler is timing.
func (s *StateSampler) Transform() string {
	return s.transform
}

// Start charges the time since the previous transition to the previous
// state, and moves the sampler into state.
func (s *StateSampler) Start(state bundleProcState) {
	if state == TotalBundle {
		panic("metrics: TotalBundle is not a state")
	}
	now := s.clk.Now()
	s.sample(now)
	s.active = true
	s.state = state
	s.since = now
}

// Stop charges the time since the last transition and stops the sampler.
// Stopping a stopped sampler is a no-op.
func (s *StateSampler) Stop() {
	s.sample(s.clk.Now())
	s.active = false
}

func (s *StateSampler) sample(now time.Time) {
	if !s.active {
		return
	}
	t := now.Sub(s.since)
	s.states[s.state].TotalTime += t
	s.states[TotalBundle].TotalTime += t
}

// States returns the time spent in each state so far.
func (s *StateSampler) States() [4]ExecutionState {
	return s.states
}
