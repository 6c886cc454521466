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

// Package inprocess runs pipelines of DoFns inside the current process.
//
// A Pipeline is built from in-memory root collections and ParDos, which may
// read side inputs materialized from other collections:
//
//	p := inprocess.NewPipeline()
//	words := inprocess.Create(p, "a", "bb", "ccc")
//	min := inprocess.AsSingleton(p, inprocess.Create(p, 2))
//	long := inprocess.ParDo[string, string](p, "long", longerThan(min), words, min)
//	res, err := inprocess.Execute(ctx, p, inprocess.Config{})
//
// Collections without consumers are the outputs of the pipeline, available
// from the Result.
package inprocess

import (
	"fmt"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/dofn"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/engine"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/evaluator"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/executor"
)

// PCollection identifies a collection of the pipeline.
type PCollection = engine.PCollection

type root struct {
	pcol PCollection
	elms []window.WindowedValue
}

// Pipeline is a graph of transforms under construction. It is not safe for
// concurrent use.
type Pipeline struct {
	ids   int
	roots []root
	// steps register the transforms with an executor, in application order.
	steps []func(ex *executor.Executor) error
	err   error
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

func (p *Pipeline) newID(prefix string) string {
	p.ids++
	return fmt.Sprintf("%s%d", prefix, p.ids)
}

func (p *Pipeline) newPCollection() PCollection {
	return PCollection{ID: p.newID("n")}
}

// Err returns the first construction error of the pipeline.
func (p *Pipeline) Err() error {
	return p.err
}

func (p *Pipeline) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Create returns a root collection of the values, in the global window at
// the minimum timestamp.
func Create(p *Pipeline, values ...any) PCollection {
	elms := make([]window.WindowedValue, 0, len(values))
	for _, v := range values {
		elms = append(elms, window.ValueInGlobalWindow(v))
	}
	return CreateWindowed(p, elms...)
}

// CreateWindowed returns a root collection of already windowed values.
func CreateWindowed(p *Pipeline, values ...window.WindowedValue) PCollection {
	pcol := p.newPCollection()
	p.roots = append(p.roots, root{pcol: pcol, elms: values})
	return pcol
}

// ParDo applies fn to every element of in and returns its main output. The
// same fn value serves every bundle, so it must be safe for concurrent use.
func ParDo[I, O any](p *Pipeline, name string, fn dofn.DoFn[I, O], in PCollection, views ...sideinput.View) PCollection {
	out, _ := ParDoWithOutputs[I, O](p, name, fn, in, nil, views...)
	return out
}

// ParDoWithOutputs is ParDo for DoFns emitting to additional tagged outputs.
// It returns the main output and a collection per additional tag.
func ParDoWithOutputs[I, O any](p *Pipeline, name string, fn dofn.DoFn[I, O], in PCollection, tags []dofn.Tag, views ...sideinput.View) (PCollection, map[dofn.Tag]PCollection) {
	return ParDoFn[I, O](p, name, func() dofn.DoFn[I, O] { return fn }, in, tags, views...)
}

// ParDoFn is ParDoWithOutputs with a DoFn constructed for every bundle,
// for DoFns keeping state between their bundle methods.
func ParDoFn[I, O any](p *Pipeline, name string, newFn func() dofn.DoFn[I, O], in PCollection, tags []dofn.Tag, views ...sideinput.View) (PCollection, map[dofn.Tag]PCollection) {
	t := engine.Transform{ID: p.newID("s"), Name: name}
	main := p.newPCollection()
	outputs := map[dofn.Tag]engine.PCollection{dofn.MainOutput: main}
	additional := map[dofn.Tag]PCollection{}
	for _, tag := range tags {
		if _, ok := outputs[tag]; ok {
			p.fail(errors.Errorf("ParDo %v declares output %q twice", t, tag))
			continue
		}
		pcol := p.newPCollection()
		outputs[tag] = pcol
		additional[tag] = pcol
	}
	f := &evaluator.ParDoFactory[I, O]{
		Transform:      t,
		NewFn:          newFn,
		Views:          views,
		MainTag:        dofn.MainOutput,
		AdditionalTags: tags,
		Outputs:        outputs,
	}
	p.steps = append(p.steps, func(ex *executor.Executor) error {
		return ex.AddStep(t, in, f)
	})
	return main, additional
}

// AsSingleton materializes in as a view holding one value per window.
// Reading a window without a value fails unless a default is given with
// AsSingletonWithDefault.
func AsSingleton(p *Pipeline, in PCollection) sideinput.View {
	return p.addView(in, sideinput.NewSingleton(p.newID("v")))
}

// AsSingletonWithDefault is AsSingleton with a value for empty windows.
func AsSingletonWithDefault(p *Pipeline, in PCollection, def any) sideinput.View {
	return p.addView(in, sideinput.NewSingleton(p.newID("v")).WithDefault(def))
}

// AsIterable materializes in as a view holding every value per window.
func AsIterable(p *Pipeline, in PCollection) sideinput.View {
	return p.addView(in, sideinput.NewIterable(p.newID("v")))
}

func (p *Pipeline) addView(in PCollection, v sideinput.View) sideinput.View {
	t := engine.Transform{ID: p.newID("s"), Name: "View(" + v.ID + ")"}
	p.steps = append(p.steps, func(ex *executor.Executor) error {
		return ex.AddView(t, in, v)
	})
	return v
}
