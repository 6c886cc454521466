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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports the contents of a Store to Prometheus. Values are read
// from the store on every scrape.
type Collector struct {
	store *Store

	counter      *prometheus.Desc
	distribution *prometheus.Desc
	gauge        *prometheus.Desc
	msecs        *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector exporting store under the given
// metric namespace.
func NewCollector(namespace string, store *Store) *Collector {
	userLabels := []string{"transform", "namespace", "name"}
	return &Collector{
		store: store,
		counter: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "user", "counter_total"),
			"Committed value of a user counter.",
			userLabels, nil),
		distribution: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "user", "distribution"),
			"Committed count and sum of a user distribution.",
			userLabels, nil),
		gauge: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "user", "gauge"),
			"Latest committed value of a user gauge.",
			userLabels, nil),
		msecs: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "transform", "state_seconds_total"),
			"Time a transform spent in each bundle state.",
			[]string{"transform", "state"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.counter
	ch <- c.distribution
	ch <- c.gauge
	ch <- c.msecs
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	Extractor{
		SumInt64: func(l Labels, v int64) {
			ch <- prometheus.MustNewConstMetric(c.counter, prometheus.CounterValue, float64(v), l.transform, l.namespace, l.name)
		},
		DistributionInt64: func(l Labels, count, sum, _, _ int64) {
			ch <- prometheus.MustNewConstSummary(c.distribution, uint64(count), float64(sum), nil, l.transform, l.namespace, l.name)
		},
		GaugeInt64: func(l Labels, v int64, _ time.Time) {
			ch <- prometheus.MustNewConstMetric(c.gauge, prometheus.GaugeValue, float64(v), l.transform, l.namespace, l.name)
		},
		MsecsInt64: func(transform string, e *[4]ExecutionState) {
			for _, st := range e {
				ch <- prometheus.MustNewConstMetric(c.msecs, prometheus.CounterValue, st.TotalTime.Seconds(), transform, st.State.String())
			}
		},
	}.ExtractFrom(c.store)
}
