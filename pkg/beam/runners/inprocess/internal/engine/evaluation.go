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
	"log/slog"
	"strings"
	"sync"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/timers"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/benbjohnson/clock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EvaluationContext is shared by every evaluation of a pipeline run. It
// creates bundles and readers for evaluators, and commits their results.
// It is safe for concurrent use.
type EvaluationContext struct {
	factory    BundleFactory
	sideInputs *sideinput.Container
	store      *metrics.Store
	clk        clock.Clock

	mu      sync.Mutex
	pending map[pendingKey]*pendingTimers
}

// Option configures an EvaluationContext.
type Option func(*EvaluationContext)

// WithClock sets the clock used for commit times and state sampling.
func WithClock(clk clock.Clock) Option {
	return func(c *EvaluationContext) {
		c.clk = clk
	}
}

// WithSideInputs sets the container views are read from and written to.
func WithSideInputs(container *sideinput.Container) Option {
	return func(c *EvaluationContext) {
		c.sideInputs = container
	}
}

// WithMetricsStore sets the store committed metrics are merged into.
func WithMetricsStore(store *metrics.Store) Option {
	return func(c *EvaluationContext) {
		c.store = store
	}
}

// NewEvaluationContext returns an evaluation context using the wall clock,
// an empty side input container and an empty metrics store.
func NewEvaluationContext(opts ...Option) *EvaluationContext {
	c := &EvaluationContext{
		sideInputs: sideinput.NewContainer(),
		store:      metrics.NewStore(),
		clk:        clock.New(),
		pending:    map[pendingKey]*pendingTimers{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRootBundle returns an empty bundle with no input.
func (c *EvaluationContext) CreateRootBundle(pcol PCollection) *UncommittedBundle {
	return c.factory.CreateRootBundle(pcol)
}

// CreateBundle returns an empty bundle for output of input to pcol.
func (c *EvaluationContext) CreateBundle(input *CommittedBundle, pcol PCollection) *UncommittedBundle {
	return c.factory.CreateBundle(input, pcol)
}

// CreateKeyedBundle returns an empty bundle for output of input to pcol
// with the given key.
func (c *EvaluationContext) CreateKeyedBundle(input *CommittedBundle, key string, pcol PCollection) *UncommittedBundle {
	return c.factory.CreateKeyedBundle(input, key, pcol)
}

// CreateSideInputReader returns a reader over the given views.
func (c *EvaluationContext) CreateSideInputReader(views []sideinput.View) sideinput.ReadyCheckingReader {
	return c.sideInputs.Reader(views)
}

// ExecutionContext returns fresh execution state for evaluating a bundle
// of the given key with the transform.
func (c *EvaluationContext) ExecutionContext(_ Transform, key string) ExecutionContext {
	return newExecutionContext(key)
}

// CreateCounterSet returns an empty counter set for one evaluation.
func (c *EvaluationContext) CreateCounterSet() *metrics.CounterSet {
	return metrics.NewCounterSet(c.clk)
}

// Commit freezes b at the current processing time.
func (c *EvaluationContext) Commit(b *UncommittedBundle) *CommittedBundle {
	return b.Commit(mtime.FromTime(c.clk.Now()))
}

// HandleResult commits the result of evaluating input. Counters are merged
// into the metrics store, output bundles are committed at the current
// processing time, the timer update is applied to the pending timers of the
// transform and key, and view writes are added to the side input container. The
// unprocessed elements are returned as a bundle to evaluate again.
func (c *EvaluationContext) HandleResult(input *CommittedBundle, r *TransformResult) (CommittedResult, error) {
	if r == nil {
		return CommittedResult{}, errors.New("nil transform result")
	}
	if len(r.Unprocessed) > 0 && input == nil {
		return CommittedResult{}, errors.Errorf("root evaluation of %v left %d unprocessed elements", r.Transform, len(r.Unprocessed))
	}
	c.store.Merge(r.Counters)
	ret := CommittedResult{Transform: r.Transform}
	now := mtime.FromTime(c.clk.Now())
	for _, b := range r.OutputBundles {
		ret.Outputs = append(ret.Outputs, b.Commit(now))
	}
	if !r.TimerUpdate.IsEmpty() {
		c.applyTimers(r.Transform, r.TimerUpdate)
	}
	for _, vw := range r.ViewWrites {
		c.sideInputs.Write(vw.View, vw.Values)
	}
	if len(r.Unprocessed) > 0 {
		ret.Unprocessed = input.WithElements(r.Unprocessed)
	}
	slog.Debug("handled result", slog.Any("result", r), slog.Int("outputs", len(ret.Outputs)))
	return ret, nil
}

// Metrics returns the store of committed metrics.
func (c *EvaluationContext) Metrics() *metrics.Store {
	return c.store
}

// SideInputs returns the side input container.
func (c *EvaluationContext) SideInputs() *sideinput.Container {
	return c.sideInputs
}

// Clock returns the processing time clock.
func (c *EvaluationContext) Clock() clock.Clock {
	return c.clk
}

type pendingKey struct {
	transform string
	key       string
}

// pendingTimers is the set of timers of a transform and key that have been
// set and neither deleted nor fired.
type pendingTimers struct {
	timers map[timerID]timers.TimerData
	holds  *holdTracker
}

func (c *EvaluationContext) applyTimers(t Transform, u timers.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pk := pendingKey{transform: t.ID, key: u.Key()}
	p, ok := c.pending[pk]
	if !ok {
		p = &pendingTimers{timers: map[timerID]timers.TimerData{}, holds: newHoldTracker()}
		c.pending[pk] = p
	}
	remove := func(td timers.TimerData) {
		id := idOf(td)
		if prev, ok := p.timers[id]; ok {
			p.holds.Drop(prev.HoldTimestamp)
			delete(p.timers, id)
		}
	}
	for _, td := range u.CompletedTimers() {
		remove(td)
	}
	for _, td := range u.DeletedTimers() {
		remove(td)
	}
	for _, td := range u.SetTimers() {
		remove(td)
		p.timers[idOf(td)] = td
		p.holds.Add(td.HoldTimestamp)
	}
}

// PendingTimers returns the pending timers of the transform and key ordered
// by firing time.
func (c *EvaluationContext) PendingTimers(t Transform, key string) []timers.TimerData {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[pendingKey{transform: t.ID, key: key}]
	if !ok {
		return nil
	}
	ret := maps.Values(p.timers)
	slices.SortFunc(ret, func(a, b timers.TimerData) int {
		switch {
		case a.FireTimestamp < b.FireTimestamp:
			return -1
		case a.FireTimestamp > b.FireTimestamp:
			return 1
		case a.Family != b.Family:
			return strings.Compare(a.Family, b.Family)
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	return ret
}

// WatermarkHold returns the earliest hold of the pending timers of the
// transform across keys, or mtime.MaxTimestamp.
func (c *EvaluationContext) WatermarkHold(t Transform) mtime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	hold := mtime.MaxTimestamp
	for pk, p := range c.pending {
		if pk.transform == t.ID {
			hold = mtime.Min(hold, p.holds.Min())
		}
	}
	return hold
}
