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

package timers

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Update is the change to one key's timers made by processing a bundle:
// timers that were set, timers that were deleted, and timers that fired and
// were delivered to the bundle. Updates are immutable.
type Update struct {
	key       string
	completed []TimerData
	set       []TimerData
	deleted   []TimerData
}

// EmptyUpdate returns the update that changes nothing. It is the identity for
// Merge.
func EmptyUpdate() Update {
	return Update{}
}

// Key returns the user key the update applies to.
func (u Update) Key() string { return u.key }

// SetTimers returns the timers set by the bundle, in the order they were set.
func (u Update) SetTimers() []TimerData { return slices.Clone(u.set) }

// DeletedTimers returns the timers deleted by the bundle.
func (u Update) DeletedTimers() []TimerData { return slices.Clone(u.deleted) }

// CompletedTimers returns the timers that were delivered to the bundle.
func (u Update) CompletedTimers() []TimerData { return slices.Clone(u.completed) }

// IsEmpty reports whether the update carries no changes.
func (u Update) IsEmpty() bool {
	return len(u.completed) == 0 && len(u.set) == 0 && len(u.deleted) == 0
}

// WithCompletedTimers returns a copy of u that also records the given timers
// as completed.
func (u Update) WithCompletedTimers(completed []TimerData) Update {
	u.completed = append(slices.Clone(u.completed), completed...)
	return u
}

// Merge applies o after u. A set in o replaces a delete of the same timer in
// u, and the reverse. Merging updates for different keys panics.
func (u Update) Merge(o Update) Update {
	if o.IsEmpty() {
		return u
	}
	if u.IsEmpty() {
		return o
	}
	if u.key != o.key {
		panic(fmt.Sprintf("cannot merge timer updates for different keys %q and %q", u.key, o.key))
	}
	b := &UpdateBuilder{
		key:       u.key,
		completed: slices.Clone(u.completed),
		set:       slices.Clone(u.set),
		deleted:   slices.Clone(u.deleted),
	}
	b.completed = append(b.completed, o.completed...)
	for _, t := range o.set {
		b.SetTimer(t)
	}
	for _, t := range o.deleted {
		b.DeleteTimer(t)
	}
	return b.Build()
}

func (u Update) String() string {
	return fmt.Sprintf("TimerUpdate[%q set:%v deleted:%v completed:%v]", u.key, u.set, u.deleted, u.completed)
}

// UpdateBuilder accumulates timer modifications for a key. It implements
// Manager and is not safe for concurrent use.
type UpdateBuilder struct {
	key       string
	completed []TimerData
	set       []TimerData
	deleted   []TimerData
}

// NewUpdateBuilder returns a builder for the given key.
func NewUpdateBuilder(key string) *UpdateBuilder {
	return &UpdateBuilder{key: key}
}

// SetTimer records t as set, replacing any earlier set or delete of the same
// timer.
func (b *UpdateBuilder) SetTimer(t TimerData) {
	b.deleted = remove(b.deleted, t.id())
	b.set = upsert(b.set, t)
}

// DeleteTimer records t as deleted, dropping any earlier set of the same timer.
func (b *UpdateBuilder) DeleteTimer(t TimerData) {
	b.set = remove(b.set, t.id())
	b.deleted = upsert(b.deleted, t)
}

// CompleteTimer records that t fired and was delivered.
func (b *UpdateBuilder) CompleteTimer(t TimerData) {
	b.completed = append(b.completed, t)
}

// Build returns the update accumulated so far. The builder may continue to be
// used afterwards without affecting the returned update.
func (b *UpdateBuilder) Build() Update {
	return Update{
		key:       b.key,
		completed: slices.Clone(b.completed),
		set:       slices.Clone(b.set),
		deleted:   slices.Clone(b.deleted),
	}
}

func remove(ts []TimerData, i id) []TimerData {
	return slices.DeleteFunc(ts, func(t TimerData) bool { return t.id() == i })
}

func upsert(ts []TimerData, t TimerData) []TimerData {
	if j := slices.IndexFunc(ts, func(o TimerData) bool { return o.id() == t.id() }); j >= 0 {
		ts[j] = t
		return ts
	}
	return append(ts, t)
}
