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

// Package mtime holds the millisecond event time of the in-process runner,
// with sentinels beyond what time.Time expresses for the global window bounds.
package mtime

import (
	"math"
	"strconv"
	"time"
)

const (
	// MinTimestamp is "-infinity". Both bounds fit in int64 microseconds.
	MinTimestamp Time = math.MinInt64 / 1000

	// MaxTimestamp is "+infinity".
	MaxTimestamp Time = math.MaxInt64 / 1000

	// EndOfGlobalWindowTime is one day short of MaxTimestamp.
	EndOfGlobalWindowTime = MaxTimestamp - 24*60*60*1000
)

// Time is milliseconds since the Unix epoch.
type Time int64

// Now returns the wall time.
func Now() Time {
	return FromTime(time.Now())
}

// FromTime truncates t to milliseconds, clamped to the representable range.
func FromTime(t time.Time) Time {
	ms := Time(t.UnixMilli())
	if ms < MinTimestamp {
		return MinTimestamp
	}
	if ms > MaxTimestamp {
		return MaxTimestamp
	}
	return ms
}

func (t Time) String() string {
	switch t {
	case MinTimestamp:
		return "-inf"
	case MaxTimestamp:
		return "+inf"
	case EndOfGlobalWindowTime:
		return "glo"
	}
	return strconv.FormatInt(int64(t), 10)
}

// Min returns the earlier time.
func Min(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}
