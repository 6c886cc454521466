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

package inprocess

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/logconfig"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/config"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/engine"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess/internal/executor"
	"github.com/benbjohnson/clock"
)

// Config configures a pipeline run. The zero value is a valid
// configuration.
type Config = config.Config

// LoadConfig reads the named variant of a YAML configuration file. An empty
// variant selects the file's default.
func LoadConfig(path, variant string) (Config, error) {
	return config.LoadFile(path, variant)
}

// ConfigureLogging installs the default structured logger, writing to w.
// See Config.Log for the valid level and kind values.
func ConfigureLogging(w io.Writer, level, kind string) error {
	return logconfig.Configure(w, level, kind)
}

// Result is the outcome of a successful run.
type Result struct {
	outcome *executor.Outcome
	store   *metrics.Store
}

// Output returns the elements of a collection without consumers.
func (r *Result) Output(pcol PCollection) []window.WindowedValue {
	return r.outcome.Elements(pcol)
}

// Metrics returns the committed metrics of the run.
func (r *Result) Metrics() *metrics.Store {
	return r.store
}

// Option configures Execute.
type Option func(*options)

type options struct {
	clk   clock.Clock
	store *metrics.Store
}

// WithClock sets the processing time clock of the run.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clk = clk }
}

// WithMetricsStore commits the run's metrics into store, which may be
// exported while the pipeline runs.
func WithMetricsStore(store *metrics.Store) Option {
	return func(o *options) { o.store = store }
}

// Execute runs the pipeline to completion.
func Execute(ctx context.Context, p *Pipeline, cfg Config, opts ...Option) (*Result, error) {
	if err := p.Err(); err != nil {
		return nil, errors.WithContext(err, "invalid pipeline")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{clk: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	ecOpts := []engine.Option{engine.WithClock(o.clk)}
	if o.store != nil {
		ecOpts = append(ecOpts, engine.WithMetricsStore(o.store))
	}
	ec := engine.NewEvaluationContext(ecOpts...)
	ex := executor.New(ec, cfg)
	for _, register := range p.steps {
		if err := register(ex); err != nil {
			return nil, errors.WithContext(err, "invalid pipeline")
		}
	}
	roots := make([]*engine.CommittedBundle, 0, len(p.roots))
	for _, r := range p.roots {
		b := ec.CreateRootBundle(r.pcol)
		for _, e := range r.elms {
			b.Add(e)
		}
		roots = append(roots, ec.Commit(b))
	}

	start := o.clk.Now()
	slog.Info("executing pipeline", slog.Int("roots", len(roots)), slog.Int("transforms", len(p.steps)))
	outcome, err := ex.Run(ctx, roots)
	if err != nil {
		return nil, errors.WithContext(err, "executing pipeline")
	}
	slog.Info("pipeline finished", slog.Duration("elapsed", o.clk.Since(start).Round(time.Millisecond)))
	return &Result{outcome: outcome, store: ec.Metrics()}, nil
}
