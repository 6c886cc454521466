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

package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/dofn"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess"
)

// demo is the pipeline executed by the run command.
//
// Even elements are in the global window and odd elements in a single
// interval window covering them all. The offset is a singleton side input
// holding a value in the global window only, so once the view is complete
// odd elements read the default of zero.
type demo struct {
	elements, offset int
}

type demoResult struct {
	outputs  []window.WindowedValue
	counters map[metrics.Labels]int64
}

func (d demo) pipeline() (*inprocess.Pipeline, inprocess.PCollection) {
	p := inprocess.NewPipeline()
	odd := window.IntervalWindow{Start: 0, End: mtime.Time(d.elements)}
	values := make([]window.WindowedValue, 0, d.elements)
	for i := 0; i < d.elements; i++ {
		ts := mtime.Time(i)
		if i%2 == 0 {
			values = append(values, window.TimestampedValueInGlobalWindow(i, ts))
		} else {
			values = append(values, window.Of(i, ts, []typex.Window{odd}, typex.NoFiringPane()))
		}
	}
	offset := inprocess.AsSingletonWithDefault(p, inprocess.Create(p, d.offset), 0)
	out := inprocess.ParDo[int, int](p, "addOffset", dofn.Func[int, int](func(ctx context.Context, pc dofn.ProcessContext[int, int]) error {
		k, err := dofn.SideInputAs[int](pc, offset)
		if err != nil {
			return err
		}
		pc.Counter("demo", "elements").Inc(1)
		pc.Distribution("demo", "offset").Update(int64(k))
		pc.Output(pc.Element() + k)
		return nil
	}), inprocess.CreateWindowed(p, values...), offset)
	return p, out
}

func (d demo) run(ctx context.Context, cfg inprocess.Config, opts ...inprocess.Option) (*demoResult, error) {
	p, out := d.pipeline()
	res, err := inprocess.Execute(ctx, p, cfg, opts...)
	if err != nil {
		return nil, err
	}
	outputs := res.Output(out)
	sort.Slice(outputs, func(i, j int) bool {
		return outputs[i].Elm.(int) < outputs[j].Elm.(int)
	})
	return &demoResult{outputs: outputs, counters: res.Metrics().Counters()}, nil
}

func (r *demoResult) print(w io.Writer) {
	for _, v := range r.outputs {
		fmt.Fprintln(w, v)
	}
	labels := make([]metrics.Labels, 0, len(r.counters))
	for l := range r.counters {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return labels[i].String() < labels[j].String()
	})
	for _, l := range labels {
		fmt.Fprintf(w, "%v: %d\n", l, r.counters[l])
	}
}
