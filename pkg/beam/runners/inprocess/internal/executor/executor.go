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

// Package executor schedules the evaluation of bundles through the steps
// of a pipeline until no work remains.
package executor

import (
	"context"
	"log/slog"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/config"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/engine"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/evaluator"
	"golang.org/x/sync/errgroup"
	"gopkg.in/retry.v1"
)

// step is a transform consuming one collection.
type step struct {
	transform engine.Transform
	input     engine.PCollection
	factory   evaluator.Factory
}

// work is a bundle waiting to be evaluated by a step.
type work struct {
	step   *step
	bundle *engine.CommittedBundle
}

func (w work) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transform", w.step.transform.ID),
		slog.Any("bundle", w.bundle))
}

// Executor runs bundles through registered steps.
type Executor struct {
	ec  *engine.EvaluationContext
	cfg config.Config

	steps     map[string]*step
	consumers map[engine.PCollection][]*step
	views     []viewStep
}

// viewStep is the step materializing a view.
type viewStep struct {
	step *step
	view sideinput.View
}

// New returns an executor committing results to ec. Zero fields of cfg take
// their defaults.
func New(ec *engine.EvaluationContext, cfg config.Config) *Executor {
	return &Executor{
		ec:        ec,
		cfg:       cfg.WithDefaults(),
		steps:     map[string]*step{},
		consumers: map[engine.PCollection][]*step{},
	}
}

// AddStep registers a transform evaluating bundles of input with
// evaluators from f.
func (e *Executor) AddStep(t engine.Transform, input engine.PCollection, f evaluator.Factory) error {
	if _, ok := e.steps[t.ID]; ok {
		return errors.Errorf("duplicate transform %v", t)
	}
	s := &step{transform: t, input: input, factory: f}
	e.steps[t.ID] = s
	e.consumers[input] = append(e.consumers[input], s)
	return nil
}

// AddView registers a transform materializing input as the view.
func (e *Executor) AddView(t engine.Transform, input engine.PCollection, v sideinput.View) error {
	if err := e.AddStep(t, input, &evaluator.ViewFactory{Transform: t, View: v}); err != nil {
		return err
	}
	e.views = append(e.views, viewStep{step: e.steps[t.ID], view: v})
	return nil
}

// Outcome holds the bundles of collections without consumers.
type Outcome struct {
	bundles map[engine.PCollection][]*engine.CommittedBundle
}

// Bundles returns the committed bundles of pcol in commit order.
func (o *Outcome) Bundles(pcol engine.PCollection) []*engine.CommittedBundle {
	return o.bundles[pcol]
}

// Elements returns the elements of every bundle of pcol.
func (o *Outcome) Elements(pcol engine.PCollection) []window.WindowedValue {
	var ret []window.WindowedValue
	for _, b := range o.bundles[pcol] {
		ret = append(ret, b.Elements()...)
	}
	return ret
}

// Run evaluates the root bundles and everything downstream of them.
//
// Work runs in rounds of concurrent evaluations. A view is completed at the
// start of a round once no pending or parked work can still reach its step,
// so readers only ever observe its final contents. Elements deferred for
// side inputs are parked until a view completes. Parked elements left when
// no view can complete anymore stall the run.
func (e *Executor) Run(ctx context.Context, roots []*engine.CommittedBundle) (*Outcome, error) {
	out := &Outcome{bundles: map[engine.PCollection][]*engine.CommittedBundle{}}
	var pending, parked []work
	for _, b := range roots {
		pending = append(pending, e.route(b, out)...)
	}

	complete := map[string]bool{}
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.completeViews(complete, pending, parked) > 0 {
			pending = append(pending, parked...)
			parked = nil
		}
		if len(pending) == 0 {
			if len(parked) == 0 {
				break
			}
			return nil, errors.Errorf("pipeline stalled: %d bundles are waiting on side inputs that can't become ready, first is %v", len(parked), parked[0].bundle)
		}

		slog.Debug("evaluating round", slog.Int("round", round), slog.Int("bundles", len(pending)))
		results, err := e.evaluateAll(ctx, pending)
		if err != nil {
			return nil, err
		}
		var next []work
		for i, res := range results {
			for _, b := range res.Outputs {
				next = append(next, e.route(b, out)...)
			}
			if res.Unprocessed != nil {
				parked = append(parked, work{step: pending[i].step, bundle: res.Unprocessed})
			}
		}
		pending = next
	}
	return out, nil
}

// completeViews completes the views no outstanding work can write to
// anymore, and returns how many it completed.
func (e *Executor) completeViews(complete map[string]bool, pending, parked []work) int {
	n := 0
	for _, vs := range e.views {
		if complete[vs.view.ID] || e.feedsAny(vs.step, pending) || e.feedsAny(vs.step, parked) {
			continue
		}
		e.ec.SideInputs().Complete(vs.view)
		complete[vs.view.ID] = true
		n++
		slog.Debug("completed side input", slog.String("view", vs.view.ID))
	}
	return n
}

func (e *Executor) feedsAny(target *step, ws []work) bool {
	for _, w := range ws {
		if e.reaches(w.step, target, map[*step]bool{}) {
			return true
		}
	}
	return false
}

// reaches reports whether output of s can arrive at target, including s
// being target.
func (e *Executor) reaches(s, target *step, seen map[*step]bool) bool {
	if s == target {
		return true
	}
	if seen[s] {
		return false
	}
	seen[s] = true
	for _, pcol := range s.factory.Produces() {
		for _, c := range e.consumers[pcol] {
			if e.reaches(c, target, seen) {
				return true
			}
		}
	}
	return false
}

// route returns the work b creates for consumers of its collection, or
// records it as an outcome if there are none.
func (e *Executor) route(b *engine.CommittedBundle, out *Outcome) []work {
	consumers := e.consumers[b.PCollection()]
	if len(consumers) == 0 {
		out.bundles[b.PCollection()] = append(out.bundles[b.PCollection()], b)
		return nil
	}
	var ret []work
	for _, s := range consumers {
		for _, part := range b.Split(e.cfg.MaxBundleSize) {
			ret = append(ret, work{step: s, bundle: part})
		}
	}
	return ret
}

func (e *Executor) evaluateAll(ctx context.Context, ws []work) ([]engine.CommittedResult, error) {
	results := make([]engine.CommittedResult, len(ws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)
	for i, w := range ws {
		i, w := i, w
		g.Go(func() error {
			res, err := e.evaluate(gctx, w)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluate runs w with a new evaluator per attempt and commits the first
// successful result.
func (e *Executor) evaluate(ctx context.Context, w work) (engine.CommittedResult, error) {
	strategy := retry.LimitCount(e.cfg.Retry.MaxAttempts, retry.Exponential{
		Initial:  e.cfg.Retry.InitialBackoff,
		MaxDelay: e.cfg.Retry.MaxBackoff,
		Factor:   2,
	})
	var err error
	for a := retry.StartWithCancel(strategy, e.ec.Clock(), ctx.Done()); a.Next(); {
		var res *engine.TransformResult
		res, err = e.evaluateOnce(ctx, w)
		if err == nil {
			return e.ec.HandleResult(w.bundle, res)
		}
		slog.Warn("bundle evaluation failed", slog.Any("work", w), slog.Int("attempt", a.Count()), slog.Any("error", err))
	}
	if cerr := ctx.Err(); cerr != nil {
		return engine.CommittedResult{}, cerr
	}
	return engine.CommittedResult{}, errors.WithContextf(err, "evaluating bundle %v in %v", w.bundle.ID(), w.step.transform)
}

func (e *Executor) evaluateOnce(ctx context.Context, w work) (res *engine.TransformResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.SetTopLevelMsgf(errors.Errorf("panic: %v", r), "panic: %v", r)
		}
	}()
	ev, err := w.step.factory.NewEvaluator(ctx, e.ec, w.bundle)
	if err != nil {
		return nil, err
	}
	for _, elm := range w.bundle.Elements() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := ev.ProcessElement(ctx, elm); err != nil {
			return nil, err
		}
	}
	return ev.FinishBundle(ctx)
}
