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
	"container/heap"
	"fmt"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/graph/mtime"
)

// mtimeHeap is a min heap of hold times.
type mtimeHeap []mtime.Time

func (h mtimeHeap) Len() int           { return len(h) }
func (h mtimeHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h mtimeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *mtimeHeap) Push(x any) {
	*h = append(*h, x.(mtime.Time))
}

func (h *mtimeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h *mtimeHeap) remove(t mtime.Time) {
	for i, v := range *h {
		if v == t {
			heap.Remove(h, i)
			return
		}
	}
}

// holdTracker counts the watermark holds of pending timers. Several timers
// may hold the same time, so each hold time is counted and only leaves the
// heap once its count drops to zero.
type holdTracker struct {
	heap   mtimeHeap
	counts map[mtime.Time]int
}

func newHoldTracker() *holdTracker {
	return &holdTracker{counts: map[mtime.Time]int{}}
}

// Add records one more hold at t.
func (ht *holdTracker) Add(t mtime.Time) {
	ht.counts[t]++
	if ht.counts[t] == 1 {
		heap.Push(&ht.heap, t)
	}
}

// Drop releases one hold at t. Dropping a hold that isn't held panics.
func (ht *holdTracker) Drop(t mtime.Time) {
	n := ht.counts[t] - 1
	switch {
	case n > 0:
		ht.counts[t] = n
	case n == 0:
		delete(ht.counts, t)
		ht.heap.remove(t)
	default:
		panic(fmt.Sprintf("negative watermark hold count for time %v", t))
	}
}

// Min returns the earliest hold, or mtime.MaxTimestamp when nothing is held.
func (ht *holdTracker) Min() mtime.Time {
	if len(ht.heap) == 0 {
		return mtime.MaxTimestamp
	}
	return ht.heap[0]
}
