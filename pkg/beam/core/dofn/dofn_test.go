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

package dofn

import (
	"testing"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/sideinput"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/google/go-cmp/cmp"
)

type fakeReader map[string]any

func (r fakeReader) SideInput(v sideinput.View) (any, error) {
	val, ok := r[v.ID]
	if !ok {
		return nil, errors.Errorf("no side input %v", v)
	}
	return val, nil
}

func TestSideInputAs(t *testing.T) {
	r := fakeReader{"n": 5, "s": "five"}

	if got, err := SideInputAs[int](r, sideinput.NewSingleton("n")); err != nil || got != 5 {
		t.Errorf("SideInputAs[int](n) = %v, %v, want 5", got, err)
	}
	if _, err := SideInputAs[int](r, sideinput.NewSingleton("s")); err == nil {
		t.Error("SideInputAs[int](s) succeeded on a string")
	}
	if _, err := SideInputAs[int](r, sideinput.NewSingleton("missing")); err == nil {
		t.Error("SideInputAs[int](missing) succeeded")
	}
}

func TestIterableAs(t *testing.T) {
	r := fakeReader{"ints": []any{1, 2, 3}, "mixed": []any{1, "two"}}

	got, err := IterableAs[int](r, sideinput.NewIterable("ints"))
	if err != nil {
		t.Fatalf("IterableAs[int](ints) = %v", err)
	}
	if d := cmp.Diff([]int{1, 2, 3}, got); d != "" {
		t.Errorf("IterableAs[int](ints) diff (-want, +got):\n%s", d)
	}
	if _, err := IterableAs[int](r, sideinput.NewIterable("mixed")); err == nil {
		t.Error("IterableAs[int](mixed) succeeded")
	}
}
