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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const twoVariants = `
version: 1
default: local
local:
  parallelism: 4
  max_bundle_size: 100
  retry:
    max_attempts: 3
    initial_backoff: 20ms
    max_backoff: 2s
  log:
    level: debug
    kind: dev
serial:
  parallelism: 1
empty:
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		variant string
		want    Config
	}{
		{
			name: "default variant",
			want: Config{
				Parallelism:   4,
				MaxBundleSize: 100,
				Retry:         Retry{MaxAttempts: 3, InitialBackoff: 20 * time.Millisecond, MaxBackoff: 2 * time.Second},
				Log:           Log{Level: "debug", Kind: "dev"},
			},
		}, {
			name:    "named variant",
			variant: "serial",
			want:    Config{Parallelism: 1},
		}, {
			name:    "empty variant",
			variant: "empty",
			want:    Config{},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Load(strings.NewReader(twoVariants), test.variant)
			if err != nil {
				t.Fatalf("Load(%q) = %v", test.variant, err)
			}
			if d := cmp.Diff(test.want, got); d != "" {
				t.Errorf("Load(%q) diff (-want, +got):\n%s", test.variant, d)
			}
		})
	}
}

func TestParse_Variants(t *testing.T) {
	f, err := Parse(strings.NewReader(twoVariants))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if d := cmp.Diff([]string{"empty", "local", "serial"}, f.Variants()); d != "" {
		t.Errorf("Variants() diff (-want, +got):\n%s", d)
	}
	_, err = f.Variant("flink")
	var uv *unknownVariantErr
	if !errors.As(err, &uv) {
		t.Fatalf("Variant(flink) = %v, want unknown variant error", err)
	}
	if !strings.Contains(err.Error(), "empty,local,serial") {
		t.Errorf("error %q does not list the known variants", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name, config string
	}{
		{"unknown field", "local:\n  parralelism: 3\n"},
		{"bad duration", "local:\n  retry:\n    max_backoff: soon\n"},
		{"negative", "local:\n  max_bundle_size: -1\n"},
		{"backoffs inverted", "local:\n  retry:\n    initial_backoff: 2s\n    max_backoff: 1s\n"},
		{"missing default", "default: remote\nlocal:\n  parallelism: 1\n"},
		{"future version", "version: 2\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(test.config)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", test.config)
			}
		})
	}
}

func TestEmptyFile(t *testing.T) {
	got, err := Load(strings.NewReader(""), "")
	if err != nil {
		t.Fatalf("Load(empty) = %v", err)
	}
	if d := cmp.Diff(Config{}, got); d != "" {
		t.Errorf("Load(empty) diff (-want, +got):\n%s", d)
	}
}

func TestWithDefaults(t *testing.T) {
	got := Config{MaxBundleSize: 7}.WithDefaults()
	want := Config{
		Parallelism:   runtime.GOMAXPROCS(0),
		MaxBundleSize: 7,
		Retry:         Retry{MaxAttempts: 1, InitialBackoff: defaultInitialBackoff, MaxBackoff: defaultMaxBackoff},
		Log:           Log{Level: "info", Kind: "text"},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("WithDefaults() diff (-want, +got):\n%s", d)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.yaml")
	if err := os.WriteFile(path, []byte(twoVariants), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path, "serial")
	if err != nil {
		t.Fatalf("LoadFile() = %v", err)
	}
	if got.Parallelism != 1 {
		t.Errorf("LoadFile().Parallelism = %v, want 1", got.Parallelism)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("LoadFile(missing) succeeded")
	}
}
