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

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/timers"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/engine"
)

// View collects a bundle of a side input's source collection and reports
// it as a write of the view.
type View struct {
	transform engine.Transform
	view      sideinput.View
	values    []window.WindowedValue
	status    Status
}

// NewView returns an evaluator materializing a bundle into view.
func NewView(transform engine.Transform, view sideinput.View) *View {
	return &View{transform: transform, view: view, status: Active}
}

// ProcessElement records elm as contents of the view in each of its windows.
func (v *View) ProcessElement(_ context.Context, elm window.WindowedValue) error {
	if v.status != Active {
		return errors.Errorf("invalid status for view %v: %v, want Active", v.transform, v.status)
	}
	v.values = append(v.values, elm)
	return nil
}

// FinishBundle returns the view write of the bundle.
func (v *View) FinishBundle(_ context.Context) (*engine.TransformResult, error) {
	if v.status != Active {
		return nil, errors.Errorf("invalid status for view %v: %v, want Active", v.transform, v.status)
	}
	v.status = Finished
	return &engine.TransformResult{
		Transform:     v.transform,
		TimerUpdate:   timers.EmptyUpdate(),
		WatermarkHold: mtime.MaxTimestamp,
		ViewWrites:    []engine.ViewWrite{{View: v.view, Values: v.values}},
	}, nil
}
