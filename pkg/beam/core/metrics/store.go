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
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// metricKey identifies a metric in the store. Metrics of different kinds
// may share labels.
type metricKey struct {
	kind   kind
	labels Labels
}

// Store retains the committed metrics of every bundle of a pipeline.
type Store struct {
	mu    sync.RWMutex
	store map[metricKey]userMetric

	stateRegistry map[string]*[4]ExecutionState
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		store:         map[metricKey]userMetric{},
		stateRegistry: map[string]*[4]ExecutionState{},
	}
}

// Merge adds the cells of a committed bundle's counter set to the store.
// Counters and distributions accumulate, gauges keep the latest value.
func (s *Store) Merge(cs *CounterSet) {
	if cs == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for l, c := range cs.counters {
		key := metricKey{kindSumCounter, l}
		if um, ok := s.store[key]; ok {
			um.(*Counter).Inc(c.value)
			continue
		}
		s.store[key] = &Counter{value: c.value}
	}
	for l, d := range cs.distributions {
		key := metricKey{kindDistribution, l}
		if um, ok := s.store[key]; ok {
			um.(*Distribution).merge(d)
			continue
		}
		cp := *d
		s.store[key] = &cp
	}
	for l, g := range cs.gauges {
		key := metricKey{kindGauge, l}
		if um, ok := s.store[key]; ok {
			if sg := um.(*Gauge); !g.t.Before(sg.t) {
				sg.t, sg.v = g.t, g.v
			}
			continue
		}
		cp := *g
		s.store[key] = &cp
	}
	for pid, sampler := range cs.samplers {
		v, ok := s.stateRegistry[pid]
		if !ok {
			v = &[4]ExecutionState{}
			for i := range v {
				v[i].State = bundleProcState(i)
			}
			s.stateRegistry[pid] = v
		}
		for i, st := range sampler.States() {
			v[i].TotalTime += st.TotalTime
		}
	}
}

// Extractor allows users to access metrics programatically after
// pipeline completion. Users assign functions to fields that
// interest them, and that function is called for each metric
// of the associated kind.
type Extractor struct {
	// SumInt64 extracts data from Sum Int64 counters.
	SumInt64 func(labels Labels, v int64)
	// DistributionInt64 extracts data from Distribution Int64 counters.
	DistributionInt64 func(labels Labels, count, sum, min, max int64)
	// GaugeInt64 extracts data from Gauge Int64 counters.
	GaugeInt64 func(labels Labels, v int64, t time.Time)

	// MsecsInt64 extracts the time spent per bundle state of a transform.
	MsecsInt64 func(transform string, e *[4]ExecutionState)
}

// ExtractFrom the given metrics Store all the metrics for
// populated function fields, in label order and then kind order.
// Returns an error if no fields were set.
func (e Extractor) ExtractFrom(store *Store) error {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if e.SumInt64 == nil && e.DistributionInt64 == nil && e.GaugeInt64 == nil && e.MsecsInt64 == nil {
		return fmt.Errorf("no Extractor fields were set")
	}

	keys := maps.Keys(store.store)
	slices.SortFunc(keys, func(a, b metricKey) int {
		switch {
		case a.labels.less(b.labels):
			return -1
		case b.labels.less(a.labels):
			return 1
		}
		return int(a.kind) - int(b.kind)
	})
	for _, k := range keys {
		l := k.labels
		switch um := store.store[k].(type) {
		case *Counter:
			if e.SumInt64 != nil {
				e.SumInt64(l, um.value)
			}
		case *Distribution:
			if e.DistributionInt64 != nil {
				e.DistributionInt64(l, um.count, um.sum, um.min, um.max)
			}
		case *Gauge:
			if e.GaugeInt64 != nil {
				e.GaugeInt64(l, um.v, um.t)
			}
		}
	}
	if e.MsecsInt64 != nil {
		pids := maps.Keys(store.stateRegistry)
		slices.Sort(pids)
		for _, pid := range pids {
			e.MsecsInt64(pid, store.stateRegistry[pid])
		}
	}
	return nil
}

// Counters returns the committed value of every sum counter.
func (s *Store) Counters() map[Labels]int64 {
	ret := map[Labels]int64{}
	Extractor{SumInt64: func(l Labels, v int64) { ret[l] = v }}.ExtractFrom(s)
	return ret
}
