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

// Package logconfig sets up the structured logger of the in-process runner.
package logconfig

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/internal/errors"
	"github.com/golang-cz/devslog"
)

// Valid values for the level and kind of Configure.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	KindDev  = "dev"
	KindJSON = "json"
	KindText = "text"
)

// NewHandler returns a slog handler writing to w. The level is one of
// debug, info, warn or error, and the kind one of dev, json or text.
// Empty values select info and text.
func NewHandler(w io.Writer, level, kind string) (slog.Handler, error) {
	logLevel := new(slog.LevelVar)
	opts := &slog.HandlerOptions{Level: logLevel}
	switch strings.ToLower(level) {
	case LevelDebug:
		logLevel.Set(slog.LevelDebug)
		opts.AddSource = true
	case LevelInfo, "":
		logLevel.Set(slog.LevelInfo)
	case LevelWarn:
		logLevel.Set(slog.LevelWarn)
	case LevelError:
		logLevel.Set(slog.LevelError)
	default:
		return nil, errors.Errorf("invalid log level %q, must be 'debug', 'info', 'warn', or 'error'", level)
	}
	switch strings.ToLower(kind) {
	case KindDev:
		return devslog.NewHandler(w, &devslog.Options{
			TimeFormat:         "[" + time.RFC3339Nano + "]",
			HandlerOptions:     opts,
			NewLineAfterLog:    true,
			MaxErrorStackTrace: 3,
		}), nil
	case KindJSON:
		return slog.NewJSONHandler(w, opts), nil
	case KindText, "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, errors.Errorf("invalid log kind %q, must be 'dev', 'json', or 'text'", kind)
	}
}

// Configure installs a handler built by NewHandler as the slog default.
func Configure(w io.Writer, level, kind string) error {
	h, err := NewHandler(w, level, kind)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(h))
	return nil
}
