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

package evaluator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/dofn"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/timers"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/engine"
)

// ParDo evaluates a DoFn over one bundle.
//
// Every element is processed once per window it is in. A window is only
// processed once every side input of the DoFn is ready in it; the other
// element-windows are reported as unprocessed in the result, so the bundle
// can be driven again later with just those.
type ParDo[I, O any] struct {
	ec        EvaluationContext
	input     *engine.CommittedBundle
	transform engine.Transform
	fn        dofn.DoFn[I, O]
	views     []sideinput.View
	mainTag   dofn.Tag
	outputs   map[dofn.Tag]engine.PCollection

	reader   sideinput.ReadyCheckingReader
	step     engine.StepContext
	counters *metrics.CounterSet
	sampler  *metrics.StateSampler

	bundles     map[engine.PCollection]*engine.UncommittedBundle
	order       []*engine.UncommittedBundle
	unprocessed []window.WindowedValue

	status Status
}

// NewParDo returns an evaluator of fn over the input bundle. The main tag
// and every additional tag must have a destination in outputs. Optional
// StartBundle methods of fn are called before returning.
func NewParDo[I, O any](ctx context.Context, ec EvaluationContext, input *engine.CommittedBundle, transform engine.Transform, fn dofn.DoFn[I, O], views []sideinput.View, mainTag dofn.Tag, additionalTags []dofn.Tag, outputs map[dofn.Tag]engine.PCollection) (*ParDo[I, O], error) {
	declared := make(map[dofn.Tag]engine.PCollection, 1+len(additionalTags))
	for _, tag := range append([]dofn.Tag{mainTag}, additionalTags...) {
		pcol, ok := outputs[tag]
		if !ok {
			return nil, errors.Errorf("invalid ParDo %v: output tag %q has no destination", transform, tag)
		}
		declared[tag] = pcol
	}
	var key string
	if input != nil {
		key = input.Key()
	}
	counters := ec.CreateCounterSet()
	sampler := counters.Sampler(transform.ID)
	p := &ParDo[I, O]{
		ec:        ec,
		input:     input,
		transform: transform,
		fn:        fn,
		views:     views,
		mainTag:   mainTag,
		outputs:   declared,
		reader:    ec.CreateSideInputReader(views),
		step:      ec.ExecutionContext(transform, key).GetOrCreateStepContext(transform.ID, transform.Name, sampler),
		counters:  counters,
		sampler:   sampler,
		bundles:   map[engine.PCollection]*engine.UncommittedBundle{},
		status:    Active,
	}

	sampler.Start(metrics.StartBundle)
	if s, ok := fn.(dofn.BundleStarter); ok {
		if err := callNoPanic(ctx, s.StartBundle); err != nil {
			return nil, errors.WithContextf(err, "starting bundle for %v", transform)
		}
	}
	return p, nil
}

// ProcessElement processes elm in each of its windows, or defers the
// windows where a side input is not ready.
func (p *ParDo[I, O]) ProcessElement(ctx context.Context, elm window.WindowedValue) error {
	if p.status != Active {
		return errors.Errorf("invalid status for ParDo %v: %v, want Active", p.transform, p.status)
	}
	if len(elm.Windows) == 0 {
		p.status = Broken
		return errors.Errorf("invalid element for ParDo %v: %v is in no window", p.transform, elm)
	}
	p.sampler.Start(metrics.ProcessBundle)
	for _, wv := range elm.Explode() {
		w := wv.Windows[0]
		if !p.ready(w) {
			p.unprocessed = append(p.unprocessed, wv)
			continue
		}
		in, ok := wv.Elm.(I)
		if !ok {
			p.status = Broken
			var want I
			return errors.Errorf("invalid element for ParDo %v: got %T, want %T", p.transform, wv.Elm, want)
		}
		pc := &processContext[I, O]{p: p, wv: wv, elm: in}
		if err := callNoPanic(ctx, func(ctx context.Context) error {
			return p.fn.ProcessElement(ctx, pc)
		}); err != nil {
			p.status = Broken
			return errors.WithContextf(err, "processing %v in %v", wv, p.transform)
		}
	}
	return nil
}

// ready reports whether every side input is ready in w.
func (p *ParDo[I, O]) ready(w typex.Window) bool {
	for _, v := range p.views {
		if !p.reader.IsReady(v, w) {
			return false
		}
	}
	return true
}

// FinishBundle calls optional FinishBundle methods of the DoFn and returns
// the result of the bundle. The timer update is the one at this moment.
func (p *ParDo[I, O]) FinishBundle(ctx context.Context) (*engine.TransformResult, error) {
	if p.status != Active {
		return nil, errors.Errorf("invalid status for ParDo %v: %v, want Active", p.transform, p.status)
	}
	p.sampler.Start(metrics.FinishBundle)
	if f, ok := p.fn.(dofn.BundleFinisher); ok {
		if err := callNoPanic(ctx, f.FinishBundle); err != nil {
			p.status = Broken
			return nil, errors.WithContextf(err, "finishing bundle for %v", p.transform)
		}
	}
	p.sampler.Stop()
	p.status = Finished

	res := &engine.TransformResult{
		Transform:     p.transform,
		OutputBundles: p.order,
		Unprocessed:   p.unprocessed,
		TimerUpdate:   p.step.TimerUpdate(),
		Counters:      p.counters,
		WatermarkHold: p.step.WatermarkHold(),
	}
	if len(p.unprocessed) > 0 {
		slog.Debug("deferred elements awaiting side inputs",
			slog.String("transform", p.transform.ID),
			slog.Int("unprocessed", len(p.unprocessed)))
	}
	return res, nil
}

// Status returns the lifecycle state of the evaluator.
func (p *ParDo[I, O]) Status() Status {
	return p.status
}

// emit adds wv to the bundle of the tag's destination. Destinations get a
// single bundle, created on first output.
func (p *ParDo[I, O]) emit(tag dofn.Tag, wv window.WindowedValue) {
	pcol, ok := p.outputs[tag]
	if !ok {
		panic(fmt.Sprintf("output to undeclared tag %q of %v", tag, p.transform))
	}
	b, ok := p.bundles[pcol]
	if !ok {
		b = p.ec.CreateBundle(p.input, pcol)
		p.bundles[pcol] = b
		p.order = append(p.order, b)
	}
	b.Add(wv)
}

// processContext is handed to the DoFn for one element in one window.
type processContext[I, O any] struct {
	p   *ParDo[I, O]
	wv  window.WindowedValue
	elm I
}

func (pc *processContext[I, O]) Element() I                 { return pc.elm }
func (pc *processContext[I, O]) Timestamp() typex.EventTime { return pc.wv.Timestamp }
func (pc *processContext[I, O]) Window() typex.Window       { return pc.wv.Windows[0] }
func (pc *processContext[I, O]) Pane() typex.PaneInfo       { return pc.wv.Pane }

func (pc *processContext[I, O]) Key() string {
	if pc.p.input == nil {
		return ""
	}
	return pc.p.input.Key()
}

func (pc *processContext[I, O]) SideInput(v sideinput.View) (any, error) {
	if !pc.p.reader.Contains(v) {
		return nil, errors.Errorf("side input %v is not a side input of %v", v, pc.p.transform)
	}
	return pc.p.reader.Get(v, pc.Window())
}

func (pc *processContext[I, O]) Output(o O) {
	pc.p.emit(pc.p.mainTag, pc.wv.WithValue(o))
}

func (pc *processContext[I, O]) OutputWithTimestamp(o O, ts typex.EventTime) {
	if ts < pc.wv.Timestamp {
		panic(fmt.Sprintf("output timestamp %v is before the element timestamp %v", ts, pc.wv.Timestamp))
	}
	pc.p.emit(pc.p.mainTag, window.Of(o, ts, pc.wv.Windows, pc.wv.Pane))
}

func (pc *processContext[I, O]) OutputTo(tag dofn.Tag, v any) {
	pc.p.emit(tag, pc.wv.WithValue(v))
}

func (pc *processContext[I, O]) Timers() timers.Provider {
	return timers.WindowedProvider{Manager: pc.p.step.Timers(), W: pc.Window()}
}

func (pc *processContext[I, O]) Counter(namespace, name string) *metrics.Counter {
	return pc.p.counters.Counter(metrics.UserLabels(pc.p.transform.ID, namespace, name))
}

func (pc *processContext[I, O]) Distribution(namespace, name string) *metrics.Distribution {
	return pc.p.counters.Distribution(metrics.UserLabels(pc.p.transform.ID, namespace, name))
}

func (pc *processContext[I, O]) Gauge(namespace, name string) *metrics.Gauge {
	return pc.p.counters.Gauge(metrics.UserLabels(pc.p.transform.ID, namespace, name))
}
