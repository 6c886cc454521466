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

package sideinput

import (
	"sync"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/window"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/typex"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
)

type viewData struct {
	complete bool
	windows  map[typex.Window][]any
}

// Container holds the materialized contents of views. Writes accumulate
// until the view is completed, after which every window of the view is
// ready and reads observe the final contents. It is safe for concurrent use.
type Container struct {
	mu    sync.RWMutex
	views map[string]*viewData
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{views: map[string]*viewData{}}
}

func (c *Container) data(id string) *viewData {
	d, ok := c.views[id]
	if !ok {
		d = &viewData{windows: map[typex.Window][]any{}}
		c.views[id] = d
	}
	return d
}

// Write appends values to the view in each of their windows. The values
// are not visible to readers until the view is complete.
func (c *Container) Write(v View, values []window.WindowedValue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.data(v.ID)
	for _, val := range values {
		for _, w := range val.Windows {
			d.windows[w] = append(d.windows[w], val.Elm)
		}
	}
}

// Complete marks every window of the view ready, including windows that
// were never written. It must only be called once nothing can write to the
// view anymore.
func (c *Container) Complete(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data(v.ID).complete = true
}

// IsComplete reports whether Complete was called for the view.
func (c *Container) IsComplete(v View) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.views[v.ID]
	return ok && d.complete
}

// Reader returns a reader scoped to the given views.
func (c *Container) Reader(views []View) ReadyCheckingReader {
	r := &reader{c: c, views: make(map[string]View, len(views))}
	for _, v := range views {
		r.views[v.ID] = v
	}
	return r
}

type reader struct {
	c     *Container
	views map[string]View
}

func (r *reader) Contains(v View) bool {
	_, ok := r.views[v.ID]
	return ok
}

func (r *reader) IsEmpty() bool {
	return len(r.views) == 0
}

// IsReady reports whether the view is complete. Contents are final for all
// windows at once.
func (r *reader) IsReady(v View, _ typex.Window) bool {
	if !r.Contains(v) {
		return false
	}
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	d, ok := r.c.views[v.ID]
	return ok && d.complete
}

// Get reads the view registered with the reader under v's ID, so the kind
// and default are the reader's, not the caller's.
func (r *reader) Get(v View, w typex.Window) (any, error) {
	registered, ok := r.views[v.ID]
	if !ok {
		return nil, errors.Errorf("side input %v is not available to this reader", v)
	}
	v = registered
	if !r.IsReady(v, w) {
		return nil, errors.Errorf("side input %v is not ready in window %v", v, w)
	}
	r.c.mu.RLock()
	values := r.c.views[v.ID].windows[w]
	r.c.mu.RUnlock()

	switch v.Kind {
	case Iterable:
		ret := make([]any, len(values))
		copy(ret, values)
		return ret, nil
	case Singleton:
		switch len(values) {
		case 0:
			if def, ok := v.Default(); ok {
				return def, nil
			}
			return nil, errors.Errorf("singleton side input %v is empty in window %v and has no default", v, w)
		case 1:
			return values[0], nil
		default:
			return nil, errors.Errorf("singleton side input %v has %d values in window %v", v, len(values), w)
		}
	default:
		return nil, errors.Errorf("side input %v has unknown kind", v)
	}
}
