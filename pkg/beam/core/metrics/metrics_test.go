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
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounterSet(t *testing.T) {
	cs := NewCounterSet(clock.NewMock())
	l := UserLabels("t1", "ns", "elements")

	cs.Counter(l).Inc(5)
	cs.Counter(l).Dec(2)
	if got, want := cs.Counter(l).Value(), int64(3); got != want {
		t.Errorf("Counter(%v).Value() = %v, want %v", l, got, want)
	}
	if cs.Counter(l) != cs.Counter(l) {
		t.Error("Counter() returned distinct cells for the same labels")
	}

	d := cs.Distribution(l)
	for _, v := range []int64{4, -1, 9} {
		d.Update(v)
	}
	if got, want := d.String(), "count: 3 sum: 12 min: -1 max: 9"; got != want {
		t.Errorf("Distribution = %q, want %q", got, want)
	}
}

func TestStore_Merge(t *testing.T) {
	clk := clock.NewMock()
	store := NewStore()
	l := UserLabels("t1", "ns", "n")

	for i := int64(1); i <= 3; i++ {
		cs := NewCounterSet(clk)
		cs.Counter(l).Inc(i)
		cs.Distribution(l).Update(i * 10)
		cs.Gauge(l).Set(i)
		clk.Add(time.Second)
		store.Merge(cs)
	}

	type dist struct{ Count, Sum, Min, Max int64 }
	var (
		sums  = map[Labels]int64{}
		dists = map[Labels]dist{}
		gauge int64
	)
	err := Extractor{
		SumInt64: func(l Labels, v int64) { sums[l] = v },
		DistributionInt64: func(l Labels, count, sum, min, max int64) {
			dists[l] = dist{count, sum, min, max}
		},
		GaugeInt64: func(_ Labels, v int64, _ time.Time) { gauge = v },
	}.ExtractFrom(store)
	if err != nil {
		t.Fatalf("ExtractFrom() = %v", err)
	}
	if d := cmp.Diff(map[Labels]int64{l: 6}, sums, cmp.AllowUnexported(Labels{})); d != "" {
		t.Errorf("counters diff (-want, +got):\n%s", d)
	}
	if d := cmp.Diff(map[Labels]dist{l: {3, 60, 10, 30}}, dists, cmp.AllowUnexported(Labels{})); d != "" {
		t.Errorf("distributions diff (-want, +got):\n%s", d)
	}
	if gauge != 3 {
		t.Errorf("gauge = %v, want 3", gauge)
	}
}

func TestStore_MergeKindsSharingLabels(t *testing.T) {
	l := UserLabels("t1", "ns", "x")
	counter := func(cs *CounterSet) { cs.Counter(l).Inc(1) }
	distribution := func(cs *CounterSet) { cs.Distribution(l).Update(7) }
	gauge := func(cs *CounterSet) { cs.Gauge(l).Set(9) }

	tests := []struct {
		name string
		// bundles lists the cells written by each merged counter set.
		bundles [][]func(*CounterSet)
		want    []string
	}{
		{
			name:    "same bundle",
			bundles: [][]func(*CounterSet){{counter, distribution}},
			want:    []string{"sum 1", "dist 1/7"},
		}, {
			name:    "counter then distribution",
			bundles: [][]func(*CounterSet){{counter}, {distribution}, {counter}},
			want:    []string{"sum 2", "dist 1/7"},
		}, {
			name:    "distribution then counter",
			bundles: [][]func(*CounterSet){{distribution}, {counter}},
			want:    []string{"sum 1", "dist 1/7"},
		}, {
			name:    "every kind",
			bundles: [][]func(*CounterSet){{gauge}, {distribution, counter}, {gauge, counter}},
			want:    []string{"sum 2", "dist 1/7", "gauge 9"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := NewStore()
			clk := clock.NewMock()
			for _, cells := range test.bundles {
				cs := NewCounterSet(clk)
				for _, write := range cells {
					write(cs)
				}
				store.Merge(cs)
			}
			var got []string
			err := Extractor{
				SumInt64: func(_ Labels, v int64) { got = append(got, fmt.Sprintf("sum %d", v)) },
				DistributionInt64: func(_ Labels, count, sum, _, _ int64) {
					got = append(got, fmt.Sprintf("dist %d/%d", count, sum))
				},
				GaugeInt64: func(_ Labels, v int64, _ time.Time) { got = append(got, fmt.Sprintf("gauge %d", v)) },
			}.ExtractFrom(store)
			if err != nil {
				t.Fatalf("ExtractFrom() = %v", err)
			}
			if d := cmp.Diff(test.want, got); d != "" {
				t.Errorf("extracted diff (-want, +got):\n%s", d)
			}
		})
	}
}

func TestStore_MergeIsolatesCounterSet(t *testing.T) {
	store := NewStore()
	cs := NewCounterSet(clock.NewMock())
	l := UserLabels("t1", "ns", "n")
	cs.Counter(l).Inc(1)
	store.Merge(cs)
	cs.Counter(l).Inc(100)

	if got := store.Counters()[l]; got != 1 {
		t.Errorf("store counter = %v after mutating the merged set, want 1", got)
	}
}

func TestExtractor_NoFields(t *testing.T) {
	if err := (Extractor{}).ExtractFrom(NewStore()); err == nil {
		t.Error("ExtractFrom() with no fields succeeded, want error")
	}
}

func TestStateSampler(t *testing.T) {
	clk := clock.NewMock()
	cs := NewCounterSet(clk)
	s := cs.Sampler("t1")

	s.Start(StartBundle)
	clk.Add(2 * time.Millisecond)
	s.Start(ProcessBundle)
	clk.Add(5 * time.Millisecond)
	s.Start(FinishBundle)
	clk.Add(3 * time.Millisecond)
	s.Stop()
	clk.Add(time.Second)
	s.Stop()

	got := s.States()
	want := [4]time.Duration{2 * time.Millisecond, 5 * time.Millisecond, 3 * time.Millisecond, 10 * time.Millisecond}
	for i, st := range got {
		if st.TotalTime != want[i] {
			t.Errorf("%v = %v, want %v", st.State, st.TotalTime, want[i])
		}
	}

	store := NewStore()
	store.Merge(cs)
	store.Merge(cs)
	var total time.Duration
	Extractor{MsecsInt64: func(transform string, e *[4]ExecutionState) {
		if transform == "t1" {
			total = e[TotalBundle].TotalTime
		}
	}}.ExtractFrom(store)
	if total != 20*time.Millisecond {
		t.Errorf("stored total = %v, want 20ms", total)
	}
}

func TestCollector(t *testing.T) {
	clk := clock.NewMock()
	cs := NewCounterSet(clk)
	l := UserLabels("t1", "ns", "elements")
	cs.Counter(l).Inc(3)
	cs.Distribution(l).Update(7)
	cs.Gauge(l).Set(1)
	s := cs.Sampler("t1")
	s.Start(ProcessBundle)
	clk.Add(time.Second)
	s.Stop()

	store := NewStore()
	store.Merge(cs)
	c := NewCollector("inprocess", store)

	if got, want := testutil.CollectAndCount(c), 7; got != want {
		t.Errorf("CollectAndCount() = %v, want %v", got, want)
	}

	const want = `
# HELP inprocess_user_counter_total Committed value of a user counter.
# TYPE inprocess_user_counter_total counter
inprocess_user_counter_total{name="elements",namespace="ns",transform="t1"} 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want), "inprocess_user_counter_total"); err != nil {
		t.Error(err)
	}
}
