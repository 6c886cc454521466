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

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/dofn"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/engine"
)

// ParDoFactory creates ParDo evaluators for a transform. NewFn is called
// for every evaluator, so DoFns holding per bundle state are not shared
// between concurrent bundles.
type ParDoFactory[I, O any] struct {
	Transform      engine.Transform
	NewFn          func() dofn.DoFn[I, O]
	Views          []sideinput.View
	MainTag        dofn.Tag
	AdditionalTags []dofn.Tag
	Outputs        map[dofn.Tag]engine.PCollection
}

// NewEvaluator implements Factory.
func (f *ParDoFactory[I, O]) NewEvaluator(ctx context.Context, ec EvaluationContext, input *engine.CommittedBundle) (Evaluator, error) {
	p, err := NewParDo[I, O](ctx, ec, input, f.Transform, f.NewFn(), f.Views, f.MainTag, f.AdditionalTags, f.Outputs)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Produces implements Factory.
func (f *ParDoFactory[I, O]) Produces() []engine.PCollection {
	ret := make([]engine.PCollection, 0, len(f.Outputs))
	for _, pcol := range f.Outputs {
		ret = append(ret, pcol)
	}
	return ret
}

// ViewFactory creates View evaluators for a transform.
type ViewFactory struct {
	Transform engine.Transform
	View      sideinput.View
}

// NewEvaluator implements Factory.
func (f *ViewFactory) NewEvaluator(_ context.Context, _ EvaluationContext, _ *engine.CommittedBundle) (Evaluator, error) {
	return NewView(f.Transform, f.View), nil
}

// Produces implements Factory. Views write to the side input container only.
func (f *ViewFactory) Produces() []engine.PCollection {
	return nil
}
