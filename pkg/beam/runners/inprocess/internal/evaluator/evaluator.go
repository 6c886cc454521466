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

// Package evaluator contains the evaluators that process a single committed
// bundle for one transform, and the factories the executor creates them
// with.
package evaluator

import (
	"context"
	"runtime/debug"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/engine"
)

// EvaluationContext is the part of the engine evaluators depend on.
type EvaluationContext interface {
	CreateBundle(input *engine.CommittedBundle, pcol engine.PCollection) *engine.UncommittedBundle
	CreateSideInputReader(views []sideinput.View) sideinput.ReadyCheckingReader
	ExecutionContext(t engine.Transform, key string) engine.ExecutionContext
	CreateCounterSet() *metrics.CounterSet
}

// Evaluator processes the elements of one bundle. An evaluator is used by
// a single goroutine and evaluates exactly one bundle.
type Evaluator interface {
	// ProcessElement processes one element of the bundle.
	ProcessElement(ctx context.Context, elm window.WindowedValue) error
	// FinishBundle completes the bundle and returns everything it produced.
	// It may be called once.
	FinishBundle(ctx context.Context) (*engine.TransformResult, error)
}

// Factory creates an evaluator for a bundle of a transform's input.
type Factory interface {
	NewEvaluator(ctx context.Context, ec EvaluationContext, input *engine.CommittedBundle) (Evaluator, error)
	// Produces returns the collections evaluators of the transform may
	// output to.
	Produces() []engine.PCollection
}

// Status is the lifecycle state of an evaluator.
type Status int

const (
	Active Status = iota
	Finished
	Broken
)

func (s Status) String() string {
	switch s {
	case Active:
		return "Active"
	case Finished:
		return "Finished"
	case Broken:
		return "Broken"
	default:
		return "Unknown"
	}
}

// callNoPanic calls the given function and catches any panic.
func callNoPanic(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// The panic is the top level message, the stack trace stays in
			// the full error.
			err = errors.SetTopLevelMsgf(errors.Errorf("panic: %v %s", r, debug.Stack()), "panic: %v", r)
		}
	}()
	return fn(ctx)
}
