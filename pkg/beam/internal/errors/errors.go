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

// Package errors creates and wraps the errors reported by the runner.
// Wrapped errors print every layer of context, most recent first, and an
// optional top level message meant for the user.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// New returns an error with the given message.
func New(message string) error {
	return &beamError{msg: message}
}

// Errorf returns an error with a message formatted according to the format
// specifier. A %w verb keeps the wrapped error reachable through Unwrap.
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Wrap returns a new error annotating err with a new message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &beamError{cause: err, msg: message, top: topOf(err)}
}

// Wrapf returns a new error annotating err with a new message according to
// the format specifier.
func Wrapf(err error, format string, args ...any) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithContext returns a new error adding additional context to err.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return &beamError{cause: err, context: context, top: topOf(err)}
}

// WithContextf returns a new error adding additional context to err according
// to the format specifier.
func WithContextf(err error, format string, args ...any) error {
	return WithContext(err, fmt.Sprintf(format, args...))
}

// SetTopLevelMsg returns a new error with the given top level message. The top
// level message is printed first by the returned error and by any error
// wrapping it.
func SetTopLevelMsg(err error, top string) error {
	if err == nil {
		return nil
	}
	return &beamError{cause: err, top: top}
}

// SetTopLevelMsgf is SetTopLevelMsg with a format specifier.
func SetTopLevelMsgf(err error, format string, args ...any) error {
	return SetTopLevelMsg(err, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// TopLevelMsg returns the top level message of err, or the empty string if
// none was set.
func TopLevelMsg(err error) string {
	return topOf(err)
}

func topOf(err error) string {
	var be *beamError
	if stderrors.As(err, &be) {
		return be.top
	}
	return ""
}

// beamError is one layer of an error chain.
//
// * No cause means this is the original error and msg is set.
// * With both msg and context set, the context describes this layer.
// * top propagates up from the cause unless replaced by SetTopLevelMsg.
type beamError struct {
	cause   error
	context string
	msg     string
	top     string
}

func (e *beamError) Error() string {
	var b strings.Builder
	if e.top != "" {
		fmt.Fprintf(&b, "%s\nFull error:\n", e.top)
	}
	e.write(&b)
	return b.String()
}

func (e *beamError) write(b *strings.Builder) {
	if e.context != "" {
		fmt.Fprintf(b, "\t%s\n", strings.ReplaceAll(e.context, "\n", "\n\t"))
	}
	if e.msg != "" {
		b.WriteString(e.msg)
		if e.cause != nil {
			b.WriteString("\n\tcaused by:\n")
		}
	}
	if e.cause == nil {
		return
	}
	if be, ok := e.cause.(*beamError); ok {
		be.write(b)
		return
	}
	b.WriteString(e.cause.Error())
}

// Format implements the fmt.Formatter interface
func (e *beamError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Unwrap returns the cause of this error if present.
func (e *beamError) Unwrap() error {
	return e.cause
}
