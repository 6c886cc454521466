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

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/timers"
)

// Transform identifies an applied transform of the pipeline.
type Transform struct {
	ID   string
	Name string
}

func (t Transform) String() string {
	if t.Name == "" || t.Name == t.ID {
		return t.ID
	}
	return t.ID + "(" + t.Name + ")"
}

// ViewWrite is the materialized contents of a view produced by a bundle.
type ViewWrite struct {
	View   sideinput.View
	Values []window.WindowedValue
}

// TransformResult is everything an evaluator produced for one bundle.
// Nothing in it is visible to the rest of the pipeline until the
// EvaluationContext handles it.
type TransformResult struct {
	Transform Transform
	// OutputBundles holds a bundle per destination that received output,
	// in the order destinations were first written.
	OutputBundles []*UncommittedBundle
	// Unprocessed holds the single window elements that could not be
	// processed yet, in the order they were deferred.
	Unprocessed   []window.WindowedValue
	TimerUpdate   timers.Update
	Counters      *metrics.CounterSet
	WatermarkHold mtime.Time
	ViewWrites    []ViewWrite
}

// LogValue implements slog.LogValuer.
func (r *TransformResult) LogValue() slog.Value {
	outs := make([]string, 0, len(r.OutputBundles))
	for _, b := range r.OutputBundles {
		outs = append(outs, b.PCollection().ID)
	}
	return slog.GroupValue(
		slog.String("transform", r.Transform.String()),
		slog.Any("outputs", outs),
		slog.Int("unprocessed", len(r.Unprocessed)),
		slog.Bool("timers", !r.TimerUpdate.IsEmpty()),
		slog.Any("hold", r.WatermarkHold),
		slog.Int("viewWrites", len(r.ViewWrites)))
}

// CommittedResult is a TransformResult after it was committed.
type CommittedResult struct {
	Transform Transform
	Outputs   []*CommittedBundle
	// Unprocessed is the remainder of the input to evaluate again, nil if
	// every element was processed.
	Unprocessed *CommittedBundle
}
