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

package engine

import (
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/timers"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
)

// ExecutionContext is the per key execution state of one evaluation.
type ExecutionContext interface {
	// GetOrCreateStepContext returns the state of the named step, creating
	// it on first use. Repeated calls with the same step name return the
	// same StepContext.
	GetOrCreateStepContext(stepName, transformName string, sampler *metrics.StateSampler) StepContext
}

// StepContext is the state of a single step within an ExecutionContext.
type StepContext interface {
	// Timers returns the manager receiving timer changes made by the step.
	Timers() timers.Manager
	// TimerUpdate returns the timer changes made so far.
	TimerUpdate() timers.Update
	// WatermarkHold returns the earliest hold of the timers set so far, or
	// mtime.MaxTimestamp.
	WatermarkHold() mtime.Time
}

type executionContext struct {
	key   string
	steps map[string]*stepContext
}

func newExecutionContext(key string) *executionContext {
	return &executionContext{key: key, steps: map[string]*stepContext{}}
}

func (ec *executionContext) GetOrCreateStepContext(stepName, transformName string, _ *metrics.StateSampler) StepContext {
	if sc, ok := ec.steps[stepName]; ok {
		return sc
	}
	sc := &stepContext{
		name:      stepName,
		transform: transformName,
		builder:   timers.NewUpdateBuilder(ec.key),
		holds:     newHoldTracker(),
		held:      map[timerID]mtime.Time{},
	}
	ec.steps[stepName] = sc
	return sc
}

type timerID struct {
	family, tag string
	window      typex.Window
	domain      timers.TimeDomainEnum
}

func idOf(t timers.TimerData) timerID {
	return timerID{family: t.Family, tag: t.Tag, window: t.Window, domain: t.Domain}
}

// stepContext tracks the holds of timers set during the bundle alongside
// the timer update.
type stepContext struct {
	name, transform string

	builder *timers.UpdateBuilder
	holds   *holdTracker
	held    map[timerID]mtime.Time
}

func (sc *stepContext) Timers() timers.Manager {
	return sc
}

func (sc *stepContext) SetTimer(t timers.TimerData) {
	id := idOf(t)
	if prev, ok := sc.held[id]; ok {
		sc.holds.Drop(prev)
	}
	sc.held[id] = t.HoldTimestamp
	sc.holds.Add(t.HoldTimestamp)
	sc.builder.SetTimer(t)
}

func (sc *stepContext) DeleteTimer(t timers.TimerData) {
	id := idOf(t)
	if prev, ok := sc.held[id]; ok {
		sc.holds.Drop(prev)
		delete(sc.held, id)
	}
	sc.builder.DeleteTimer(t)
}

func (sc *stepContext) TimerUpdate() timers.Update {
	return sc.builder.Build()
}

func (sc *stepContext) WatermarkHold() mtime.Time {
	return sc.holds.Min()
}
