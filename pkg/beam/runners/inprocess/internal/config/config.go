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

// Package config defines the configuration of the in-process runner and
// parses it from YAML.
//
// A configuration file holds one or more named variants, each a complete
// runner configuration. The default field names the variant used when none
// is requested.
//
//	version: 1
//	default: local
//	local:
//	  parallelism: 4
//	  max_bundle_size: 100
//	  retry:
//	    max_attempts: 3
//	    initial_backoff: 10ms
//	    max_backoff: 1s
//	  log:
//	    level: info
//	    kind: text
//
// Every field has a useful zero value, so an empty variant is a valid
// configuration.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

// Config is a complete runner configuration.
type Config struct {
	// Parallelism is the number of bundles evaluated concurrently.
	// Zero uses GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`
	// MaxBundleSize splits larger bundles before evaluation. Zero never
	// splits.
	MaxBundleSize int   `yaml:"max_bundle_size"`
	Retry         Retry `yaml:"retry"`
	Log           Log   `yaml:"log"`
}

// Retry configures how often a failed bundle evaluation is attempted.
type Retry struct {
	// MaxAttempts is the total number of attempts. Zero means one.
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// Log configures the structured logger.
type Log struct {
	Level string `yaml:"level"`
	Kind  string `yaml:"kind"`
}

const (
	defaultInitialBackoff = 10 * time.Millisecond
	defaultMaxBackoff     = time.Second
)

// WithDefaults returns the configuration with zero fields replaced by their
// defaults.
func (c Config) WithDefaults() Config {
	if c.Parallelism == 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = defaultInitialBackoff
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = defaultMaxBackoff
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Kind == "" {
		c.Log.Kind = "text"
	}
	return c
}

// Validate reports the invalid fields of the configuration.
func (c Config) Validate() error {
	var problems []string
	if c.Parallelism < 0 {
		problems = append(problems, fmt.Sprintf("parallelism must not be negative, got %d", c.Parallelism))
	}
	if c.MaxBundleSize < 0 {
		problems = append(problems, fmt.Sprintf("max_bundle_size must not be negative, got %d", c.MaxBundleSize))
	}
	if c.Retry.MaxAttempts < 0 {
		problems = append(problems, fmt.Sprintf("retry.max_attempts must not be negative, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < 0 {
		problems = append(problems, "retry backoffs must not be negative")
	}
	if c.Retry.MaxBackoff != 0 && c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		problems = append(problems, fmt.Sprintf("retry.max_backoff %v is less than retry.initial_backoff %v", c.Retry.MaxBackoff, c.Retry.InitialBackoff))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid runner configuration:\n\t%s", strings.Join(problems, "\n\t"))
}

// configFile is the struct configuration files are decoded into.
type configFile struct {
	Version  int
	Default  string
	Variants map[string]yaml.Node `yaml:",inline"`
}

type unknownVariantErr struct {
	variant string
	known   []string
}

func (e *unknownVariantErr) Error() string {
	return fmt.Sprintf("yaml config has no variant %q, known variants are [%s]", e.variant, strings.Join(e.known, ","))
}

// File is a parsed configuration file.
type File struct {
	def      string
	variants map[string]Config
}

// Parse decodes a configuration file. Unknown fields in variants are errors.
func Parse(r io.Reader) (*File, error) {
	d := yaml.NewDecoder(r)
	var cf configFile
	if err := d.Decode(&cf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("unable to decode runner config: %w", err)
	}
	if cf.Version > 1 {
		return nil, fmt.Errorf("unsupported runner config version %d", cf.Version)
	}
	f := &File{def: cf.Default, variants: map[string]Config{}}
	for name, node := range cf.Variants {
		c, err := decodeStrict(&node)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", name, err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("variant %q: %w", name, err)
		}
		f.variants[name] = c
	}
	if f.def != "" {
		if _, ok := f.variants[f.def]; !ok {
			return nil, &unknownVariantErr{variant: f.def, known: f.Variants()}
		}
	}
	return f, nil
}

// decodeStrict decodes a variant, rejecting fields Config doesn't have.
func decodeStrict(node *yaml.Node) (Config, error) {
	var c Config
	if node.Kind == 0 || node.Tag == "!!null" {
		return c, nil
	}
	b, err := yaml.Marshal(node)
	if err != nil {
		return c, err
	}
	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	if err := d.Decode(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Variants returns the sorted names of the variants in the file.
func (f *File) Variants() []string {
	names := maps.Keys(f.variants)
	sort.Strings(names)
	return names
}

// Variant returns the named variant, or the default variant for an empty
// name. Without a default variant, an empty name selects the zero Config.
func (f *File) Variant(name string) (Config, error) {
	if name == "" {
		name = f.def
	}
	if name == "" {
		return Config{}, nil
	}
	c, ok := f.variants[name]
	if !ok {
		return Config{}, &unknownVariantErr{variant: name, known: f.Variants()}
	}
	return c, nil
}

// Load parses a configuration file and returns the requested variant.
func Load(r io.Reader, variant string) (Config, error) {
	f, err := Parse(r)
	if err != nil {
		return Config{}, err
	}
	return f.Variant(variant)
}

// LoadFile is Load on the file at path.
func LoadFile(path, variant string) (Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer fh.Close()
	return Load(fh, variant)
}
