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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/dofn"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func addSingleton(view sideinput.View) dofn.Func[int, int] {
	return func(ctx context.Context, pc dofn.ProcessContext[int, int]) error {
		side, err := dofn.SideInputAs[int](pc, view)
		if err != nil {
			return err
		}
		pc.Counter("test", "processed").Inc(1)
		pc.Output(pc.Element() + side)
		return nil
	}
}

func byValue(a, b window.WindowedValue) bool {
	return a.Elm.(int) < b.Elm.(int)
}

func TestExecute_SideInputWindows(t *testing.T) {
	p := NewPipeline()
	nonGlobal := window.IntervalWindow{Start: 0, End: 10000}
	main := CreateWindowed(p,
		window.ValueInGlobalWindow(3),
		window.Of(2, 1234, []typex.Window{nonGlobal}, typex.NoFiringPane()),
		window.Of(1, 2468, []typex.Window{nonGlobal, window.GlobalWindow{}}, typex.NoFiringPane()),
	)
	view := AsSingletonWithDefault(p, Create(p, 5), 0)
	out := ParDo[int, int](p, "add", addSingleton(view), main, view)

	res, err := Execute(context.Background(), p, Config{}, WithClock(clock.NewMock()))
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	want := []window.WindowedValue{
		window.Of(1, 2468, []typex.Window{nonGlobal}, typex.NoFiringPane()),
		window.Of(2, 1234, []typex.Window{nonGlobal}, typex.NoFiringPane()),
		window.TimestampedValueInGlobalWindow(6, 2468),
		window.ValueInGlobalWindow(8),
	}
	if d := cmp.Diff(want, res.Output(out), cmpopts.SortSlices(byValue)); d != "" {
		t.Errorf("output diff (-want, +got):\n%s", d)
	}
	if got := res.Metrics().Counters()[metrics.UserLabels("s5", "test", "processed")]; got != 4 {
		t.Errorf("processed counter = %v, want 4 in %v", got, res.Metrics().Counters())
	}
}

func TestExecute_AdditionalOutputs(t *testing.T) {
	p := NewPipeline()
	in := Create(p, 1, 2, 3, 4, 5)
	const odd dofn.Tag = "odd"
	evens, outs := ParDoWithOutputs[int, int](p, "split", dofn.Func[int, int](func(ctx context.Context, pc dofn.ProcessContext[int, int]) error {
		if pc.Element()%2 == 0 {
			pc.Output(pc.Element())
		} else {
			pc.OutputTo(odd, pc.Element())
		}
		return nil
	}), in, []dofn.Tag{odd})

	res, err := Execute(context.Background(), p, Config{})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	values := func(pc PCollection) []int {
		var ret []int
		for _, v := range res.Output(pc) {
			ret = append(ret, v.Elm.(int))
		}
		sort.Ints(ret)
		return ret
	}
	if d := cmp.Diff([]int{2, 4}, values(evens)); d != "" {
		t.Errorf("evens diff (-want, +got):\n%s", d)
	}
	if d := cmp.Diff([]int{1, 3, 5}, values(outs[odd])); d != "" {
		t.Errorf("odds diff (-want, +got):\n%s", d)
	}
}

func TestExecute_Iterable(t *testing.T) {
	p := NewPipeline()
	view := AsIterable(p, Create(p, 1, 2, 3))
	out := ParDo[string, int](p, "sum", dofn.Func[string, int](func(ctx context.Context, pc dofn.ProcessContext[string, int]) error {
		vs, err := dofn.IterableAs[int](pc, view)
		if err != nil {
			return err
		}
		sum := 0
		for _, v := range vs {
			sum += v
		}
		pc.Output(sum)
		return nil
	}), Create(p, "x"), view)

	res, err := Execute(context.Background(), p, Config{})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	got := res.Output(out)
	if len(got) != 1 || got[0].Elm != 6 {
		t.Errorf("output = %v, want a single 6", got)
	}
}

func TestExecute_Errors(t *testing.T) {
	t.Run("duplicate tag", func(t *testing.T) {
		p := NewPipeline()
		fn := dofn.Func[int, int](func(context.Context, dofn.ProcessContext[int, int]) error { return nil })
		ParDoWithOutputs[int, int](p, "dup", fn, Create(p, 1), []dofn.Tag{"a", "a"})
		if _, err := Execute(context.Background(), p, Config{}); err == nil {
			t.Error("Execute() with a duplicated tag succeeded")
		}
	})
	t.Run("invalid config", func(t *testing.T) {
		if _, err := Execute(context.Background(), NewPipeline(), Config{Parallelism: -1}); err == nil {
			t.Error("Execute() with negative parallelism succeeded")
		}
	})
	t.Run("user failure", func(t *testing.T) {
		p := NewPipeline()
		errBad := errors.New("bad element")
		ParDo[int, int](p, "fail", dofn.Func[int, int](func(context.Context, dofn.ProcessContext[int, int]) error {
			return errBad
		}), Create(p, 1))
		_, err := Execute(context.Background(), p, Config{})
		if !errors.Is(err, errBad) {
			t.Errorf("Execute() = %v, want %v", err, errBad)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.yaml")
	if err := os.WriteFile(path, []byte("default: small\nsmall:\n  max_bundle_size: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if cfg.MaxBundleSize != 2 {
		t.Errorf("MaxBundleSize = %v, want 2", cfg.MaxBundleSize)
	}
}

func TestConfigureLogging(t *testing.T) {
	if err := ConfigureLogging(&bytes.Buffer{}, "verbose", "text"); err == nil {
		t.Error("ConfigureLogging() with an invalid level succeeded")
	}
}

func TestExecute_IterableSplitAcrossBundles(t *testing.T) {
	values := make([]any, 40)
	for i := range values {
		values[i] = i
	}
	for run := 0; run < 50; run++ {
		p := NewPipeline()
		view := AsIterable(p, Create(p, values...))
		out := ParDo[string, int](p, "size", dofn.Func[string, int](func(ctx context.Context, pc dofn.ProcessContext[string, int]) error {
			vs, err := dofn.IterableAs[int](pc, view)
			if err != nil {
				return err
			}
			pc.Output(len(vs))
			return nil
		}), Create(p, "a", "b"), view)

		res, err := Execute(context.Background(), p, Config{Parallelism: 8, MaxBundleSize: 1})
		if err != nil {
			t.Fatalf("Execute() = %v", err)
		}
		for _, v := range res.Output(out) {
			if v.Elm != len(values) {
				t.Fatalf("run %d: DoFn saw %v side input values, want %d", run, v.Elm, len(values))
			}
		}
	}
}

func TestExecute_MetricKindsShareName(t *testing.T) {
	p := NewPipeline()
	ParDo[int, int](p, "measure", dofn.Func[int, int](func(ctx context.Context, pc dofn.ProcessContext[int, int]) error {
		pc.Counter("ns", "x").Inc(1)
		pc.Distribution("ns", "x").Update(int64(pc.Element()))
		pc.Gauge("ns", "x").Set(int64(pc.Element()))
		return nil
	}), Create(p, 1, 2, 3))

	res, err := Execute(context.Background(), p, Config{MaxBundleSize: 1})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	var sum, count int64
	metrics.Extractor{
		SumInt64:          func(_ metrics.Labels, v int64) { sum += v },
		DistributionInt64: func(_ metrics.Labels, c, _, _, _ int64) { count += c },
	}.ExtractFrom(res.Metrics())
	if sum != 3 || count != 3 {
		t.Errorf("counter = %v, distribution count = %v, want 3 and 3", sum, count)
	}
}
