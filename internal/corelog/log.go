// The MIT License
//
// Copyright (c) 2017-2018 by the author(s)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//
// Author(s):
//   - Andreas Oeldemann <andreas.oeldemann@tum.de>
//
// Package corelog implements the leveled logging facility used throughout
// the benchmarking core. The call shape (leveled Log with indent tracking)
// follows the teacher's internal logger, but unlike a CLI-driven hardware
// tool this core is embedded in an outer test-suite host and must never
// terminate the process on error: LOG_ERR messages are printed like any
// other level, never via log.Fatal; a caller that must fail returns its
// own error.
package corelog

import (
	"fmt"
	"log"
	"os"
	"sync"

	"go.uber.org/zap/zapcore"
)

// log levels
const (
	LevelDebug int = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[int]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// Logger is a leveled logger with an indentation level used to visually
// nest the progress of multi-stage operations (e.g. init_resource's
// pipeline steps) the way the teacher nests replay/capture log output.
type Logger struct {
	mu          sync.Mutex
	out         *log.Logger
	level       int
	indentLevel uint
}

// New creates a Logger that writes to os.Stdout at LevelInfo.
func New() *Logger {
	return &Logger{
		out:   log.New(os.Stdout, "", log.Ldate|log.Lmicroseconds),
		level: LevelInfo,
	}
}

// SetLevel sets the minimum criticality of messages that are actually
// printed. Messages below the level are ignored.
func (l *Logger) SetLevel(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// IncrementIndent increments the indentation level of further log messages.
func (l *Logger) IncrementIndent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.indentLevel++
}

// DecrementIndent decrements the indentation level of further log messages.
func (l *Logger) DecrementIndent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indentLevel == 0 {
		return
	}
	l.indentLevel--
}

// Log prints a log message at the given level. It never aborts the process;
// callers that need LevelError to be fatal to the run construct and return
// an error from coreerrors instead of relying on this function to do so.
func (l *Logger) Log(level int, msg string, a ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	for i := uint(0); i < l.indentLevel; i++ {
		msg = "... " + msg
	}

	name, ok := levelNames[level]
	if !ok {
		name = "UNKNOWN"
	}

	l.out.Printf("%s: %s", name, fmt.Sprintf(msg, a...))
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, a ...interface{}) { l.Log(LevelDebug, msg, a...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, a ...interface{}) { l.Log(LevelInfo, msg, a...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, a ...interface{}) { l.Log(LevelWarn, msg, a...) }

// Error logs at LevelError. It still does not abort the process.
func (l *Logger) Error(msg string, a ...interface{}) { l.Log(LevelError, msg, a...) }

// LogFields logs msg at level with structured context (port identity,
// stream id, tpld id, and similar call-site metadata) attached. Fields are
// accepted as zapcore.Field so call sites can reuse the ecosystem's
// standard field constructors (zap.String, zap.Int, ...) without this
// package adopting zap's own Logger/sugared-logger API, keeping Log() as
// the primary call shape the teacher's code already uses.
func (l *Logger) LogFields(level int, msg string, fields ...zapcore.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	l.Log(level, "%s %v", msg, enc.Fields)
}

// Default is the package-level logger instance used by components that do
// not carry their own injected Logger.
var Default = New()
