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

// Package timers provides structs for setting timers from user code, and the
// per bundle delta of timer modifications handed back to the runner.
package timers

import (
	"fmt"
	"time"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
)

type TimeDomainEnum int32

const (
	TimeDomainUnspecified    TimeDomainEnum = 0
	TimeDomainEventTime      TimeDomainEnum = 1
	TimeDomainProcessingTime TimeDomainEnum = 2
)

func (d TimeDomainEnum) String() string {
	switch d {
	case TimeDomainEventTime:
		return "EventTime"
	case TimeDomainProcessingTime:
		return "ProcessingTime"
	default:
		return "Unspecified"
	}
}

// TimerMap is what user code hands to a Provider. The window and key are
// filled in from the element being processed.
type TimerMap struct {
	Family                       string
	Tag                          string
	Domain                       TimeDomainEnum
	Clear                        bool
	FireTimestamp, HoldTimestamp mtime.Time
}

// Provider is how timers are set or cleared from a DoFn.
type Provider interface {
	Set(t TimerMap)
}

// TimerData is a timer as tracked by the runner: a TimerMap bound to the
// window it was set in.
type TimerData struct {
	Family, Tag                  string
	Window                       typex.Window
	Domain                       TimeDomainEnum
	FireTimestamp, HoldTimestamp mtime.Time
}

// id identifies a timer. Setting a timer with the same id replaces it.
type id struct {
	family, tag string
	window      typex.Window
	domain      TimeDomainEnum
}

func (t TimerData) id() id {
	return id{family: t.Family, tag: t.Tag, window: t.Window, domain: t.Domain}
}

func (t TimerData) String() string {
	return fmt.Sprintf("%v/%v[%v]@%v(%v) hold %v", t.Family, t.Tag, t.Window, t.FireTimestamp, t.Domain, t.HoldTimestamp)
}

// Manager receives timer modifications for the bundle being processed.
type Manager interface {
	SetTimer(t TimerData)
	DeleteTimer(t TimerData)
}

// WindowedProvider adapts a Manager into a Provider for user code processing
// an element in window W.
type WindowedProvider struct {
	Manager Manager
	W       typex.Window
}

// Set converts the TimerMap into TimerData for the provider's window.
func (p WindowedProvider) Set(t TimerMap) {
	td := TimerData{
		Family:        t.Family,
		Tag:           t.Tag,
		Window:        p.W,
		Domain:        t.Domain,
		FireTimestamp: t.FireTimestamp,
		HoldTimestamp: t.HoldTimestamp,
	}
	if t.Clear {
		p.Manager.DeleteTimer(td)
		return
	}
	p.Manager.SetTimer(td)
}

type EventTime struct {
	Family string
}

// Set sets an event time timer. The watermark hold matches the firing time.
func (t EventTime) Set(p Provider, firingTimestamp time.Time) {
	fire := mtime.FromTime(firingTimestamp)
	p.Set(TimerMap{Family: t.Family, Domain: TimeDomainEventTime, FireTimestamp: fire, HoldTimestamp: fire})
}

type Opts struct {
	Tag  string
	Hold time.Time
}

// SetWithOpts sets a tagged event time timer, optionally with a separate hold.
func (t EventTime) SetWithOpts(p Provider, firingTimestamp time.Time, opts Opts) {
	fire := mtime.FromTime(firingTimestamp)
	tm := TimerMap{Family: t.Family, Tag: opts.Tag, Domain: TimeDomainEventTime, FireTimestamp: fire, HoldTimestamp: fire}
	if !opts.Hold.IsZero() {
		tm.HoldTimestamp = mtime.FromTime(opts.Hold)
	}
	p.Set(tm)
}

// Clear removes the timer with the given tag.
func (t EventTime) Clear(p Provider, tag string) {
	p.Set(TimerMap{Family: t.Family, Tag: tag, Domain: TimeDomainEventTime, Clear: true})
}

func (t EventTime) TimerFamily() string {
	return t.Family
}

func (t EventTime) TimerDomain() TimeDomainEnum {
	return TimeDomainEventTime
}

type ProcessingTime struct {
	Family string
}

// Set sets a processing time timer.
func (t ProcessingTime) Set(p Provider, firingTimestamp time.Time) {
	fire := mtime.FromTime(firingTimestamp)
	p.Set(TimerMap{Family: t.Family, Domain: TimeDomainProcessingTime, FireTimestamp: fire, HoldTimestamp: fire})
}

// Clear removes the timer with the given tag.
func (t ProcessingTime) Clear(p Provider, tag string) {
	p.Set(TimerMap{Family: t.Family, Tag: tag, Domain: TimeDomainProcessingTime, Clear: true})
}

func (t ProcessingTime) TimerFamily() string {
	return t.Family
}

func (t ProcessingTime) TimerDomain() TimeDomainEnum {
	return TimeDomainProcessingTime
}

func InEventTime(family string) EventTime {
	return EventTime{Family: family}
}

func InProcessingTime(family string) ProcessingTime {
	return ProcessingTime{Family: family}
}
