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

// Package metrics implements the counters user code and the runner report
// while processing a bundle, and the store they are aggregated into once a
// bundle's result is committed.
//
// A CounterSet belongs to exactly one evaluator and is not synchronized.
// The Store is shared and safe for concurrent use.
package metrics

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Labels provide the context about the metric.
type Labels struct {
	transform, namespace, name string
}

// UserLabels builds a Labels for user metrics.
func UserLabels(transform, namespace, name string) Labels {
	return Labels{transform: transform, namespace: namespace, name: name}
}

// Transform returns the transform context for this metric, if available.
func (l Labels) Transform() string { return l.transform }

// Namespace returns the namespace context for this metric.
func (l Labels) Namespace() string { return l.namespace }

// Name returns the name for this metric.
func (l Labels) Name() string { return l.name }

func (l Labels) String() string {
	return fmt.Sprintf("%s/%s.%s", l.transform, l.namespace, l.name)
}

func (l Labels) less(o Labels) bool {
	if l.transform != o.transform {
		return l.transform < o.transform
	}
	if l.namespace != o.namespace {
		return l.namespace < o.namespace
	}
	return l.name < o.name
}

type kind uint8

const (
	kindUnknown kind = iota
	kindSumCounter
	kindDistribution
	kindGauge
)

func (k kind) String() string {
	switch k {
	case kindSumCounter:
		return "Counter"
	case kindDistribution:
		return "Distribution"
	case kindGauge:
		return "Gauge"
	default:
		panic(fmt.Sprintf("Unknown metric type value: %v", uint8(k)))
	}
}

// userMetric knows what kind it is.
type userMetric interface {
	kind() kind
}

// Counter is a metric cell for incrementing and decrementing a value.
type Counter struct {
	value int64
}

// Inc increments the counter by v.
func (m *Counter) Inc(v int64) {
	m.value += v
}

// Dec decrements the counter by v.
func (m *Counter) Dec(v int64) {
	m.Inc(-v)
}

// Value returns the current count.
func (m *Counter) Value() int64 {
	return m.value
}

func (m *Counter) kind() kind {
	return kindSumCounter
}

func (m *Counter) String() string {
	return fmt.Sprintf("value: %d", m.value)
}

// Distribution is a metric cell tracking the count, sum, min and max of
// the values it is updated with.
type Distribution struct {
	count, sum, min, max int64
}

// Update adds v to the distribution.
func (m *Distribution) Update(v int64) {
	if m.count == 0 {
		m.min, m.max = v, v
	}
	if v < m.min {
		m.min = v
	}
	if v > m.max {
		m.max = v
	}
	m.count++
	m.sum += v
}

func (m *Distribution) merge(o *Distribution) {
	if o.count == 0 {
		return
	}
	if m.count == 0 || o.min < m.min {
		m.min = o.min
	}
	if m.count == 0 || o.max > m.max {
		m.max = o.max
	}
	m.count += o.count
	m.sum += o.sum
}

func (m *Distribution) kind() kind {
	return kindDistribution
}

func (m *Distribution) String() string {
	return fmt.Sprintf("count: %d sum: %d min: %d max: %d", m.count, m.sum, m.min, m.max)
}

// Gauge is a time, value pair metric cell.
type Gauge struct {
	clk clock.Clock
	t   time.Time
	v   int64
}

// Set sets the gauge to the given value, and associates it with the
// current time on the clock.
func (m *Gauge) Set(v int64) {
	m.t = m.clk.Now()
	m.v = v
}

func (m *Gauge) kind() kind {
	return kindGauge
}

func (m *Gauge) String() string {
	return fmt.Sprintf("%v time: %s value: %d", m.kind(), m.t, m.v)
}

// CounterSet holds the metric cells written while processing one bundle.
type CounterSet struct {
	clk           clock.Clock
	counters      map[Labels]*Counter
	distributions map[Labels]*Distribution
	gauges        map[Labels]*Gauge
	samplers      map[string]*StateSampler
}

// NewCounterSet returns an empty counter set whose gauges and samplers read
// time from clk.
func NewCounterSet(clk clock.Clock) *CounterSet {
	if clk == nil {
		clk = clock.New()
	}
	return &CounterSet{
		clk:           clk,
		counters:      map[Labels]*Counter{},
		distributions: map[Labels]*Distribution{},
		gauges:        map[Labels]*Gauge{},
		samplers:      map[string]*StateSampler{},
	}
}

// Counter returns the counter cell for l, creating it on first use.
func (cs *CounterSet) Counter(l Labels) *Counter {
	if c, ok := cs.counters[l]; ok {
		return c
	}
	c := &Counter{}
	cs.counters[l] = c
	return c
}

// Distribution returns the distribution cell for l, creating it on first use.
func (cs *CounterSet) Distribution(l Labels) *Distribution {
	if d, ok := cs.distributions[l]; ok {
		return d
	}
	d := &Distribution{}
	cs.distributions[l] = d
	return d
}

// Gauge returns the gauge cell for l, creating it on first use.
func (cs *CounterSet) Gauge(l Labels) *Gauge {
	if g, ok := cs.gauges[l]; ok {
		return g
	}
	g := &Gauge{clk: cs.clk}
	cs.gauges[l] = g
	return g
}

// Sampler returns the state sampler timing the given transform.
func (cs *CounterSet) Sampler(transform string) *StateSampler {
	if s, ok := cs.samplers[transform]; ok {
		return s
	}
	s := newStateSampler(cs.clk, transform)
	cs.samplers[transform] = s
	return s
}

// IsEmpty reports whether nothing was recorded in the set.
func (cs *CounterSet) IsEmpty() bool {
	return len(cs.counters) == 0 && len(cs.distributions) == 0 && len(cs.gauges) == 0 && len(cs.samplers) == 0
}
