// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/vfsjob/pkg/job"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	kindWidth   = 10 // Width for job kind
	statusWidth = 12 // Width for status text
)

// 📦 JobOperation describes a submitted job for the console header
type JobOperation struct {
	ID          string
	Kind        string
	Source      string
	Destination string
}

// 🎯 Logger prints job activity to a console and mirrors it to zerolog. It is a job.Observer.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// NewWithZerolog creates a logger that mirrors to zlog.
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileEvent formats the end of one file for display
func formatFileEvent(kind string, ev job.FileEvent) string {
	var symbol rune
	var symbolColor color.Attribute
	switch ev.Status {
	case job.FileTransferred:
		symbol = '✓'
		symbolColor = color.FgGreen
	case job.FileSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '✗'
		symbolColor = color.FgRed
	}

	name := ev.Destination
	if name == "" {
		name = ev.Source
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, name),
		color.New(color.FgBlue).Sprint(fmt.Sprintf("%-*s", kindWidth, kind)),
		fmt.Sprintf("%-*s", statusWidth, ev.Status))
	if ev.Err != nil {
		line += color.New(color.Faint).Sprint(ev.Err.Error())
	}
	return line
}

// 📝 StartJob prints the header of a job
func (l *Logger) StartJob(ctx context.Context, op JobOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	target := op.Destination
	if target == "" {
		target = op.Source
	}
	fmt.Fprintf(l.console, "[%s %s]\n", op.Kind, color.New(color.FgCyan).Sprint(target))
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Kind),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.ID))

	l.zlog.Info().
		Str("job_id", op.ID).
		Str("kind", op.Kind).
		Str("source", op.Source).
		Str("destination", op.Destination).
		Msg("job submitted")
}

// OnProgress mirrors progress to zerolog only; the console shows files as they finish.
func (l *Logger) OnProgress(h *job.Handle, s job.Snapshot) {
	l.zlog.Trace().
		Str("job_id", h.ID()).
		Int64("bytes", s.Bytes).
		Int64("total_bytes", s.TotalBytes).
		Int64("files", s.Files).
		Int64("total_files", s.TotalFiles).
		Str("current", s.Current).
		Msg("progress")
}

// 📝 OnFile prints one finished file
func (l *Logger) OnFile(h *job.Handle, ev job.FileEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, formatFileEvent(h.Kind(), ev))

	evt := l.zlog.Info()
	if ev.Status == job.FileFailed {
		evt = l.zlog.Warn().Err(ev.Err)
	}
	evt.
		Str("job_id", h.ID()).
		Str("kind", h.Kind()).
		Str("file", ev.Source).
		Str("destination", ev.Destination).
		Str("status", ev.Status.String()).
		Int64("bytes", ev.Bytes).
		Msg("file done")
}

// 📝 OnTerminal prints the summary line of a job
func (l *Logger) OnTerminal(h *job.Handle, o job.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := o.Summary
	summary := fmt.Sprintf("%s %s: %d transferred, %d skipped, %d failed, %s",
		h.Kind(), o.State, s.Transferred, s.Skipped, s.Failed, FormatBytes(s.Bytes))

	switch o.State {
	case job.StateCompleted:
		fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(summary))
	case job.StateCancelled:
		fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(summary))
	default:
		fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(summary))
		if o.Err != nil {
			fmt.Fprintf(l.console, "%*s%s\n", fileIndent, "", o.Err)
		}
	}

	evt := l.zlog.Info()
	if o.State == job.StateFailed {
		evt = l.zlog.Error().Err(o.Err)
	}
	evt.
		Str("job_id", h.ID()).
		Str("kind", h.Kind()).
		Str("state", o.State.String()).
		Int64("files", s.Files).
		Int64("transferred", s.Transferred).
		Int64("skipped", s.Skipped).
		Int64("failed", s.Failed).
		Int64("bytes", s.Bytes).
		Msg("job finished")
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("vfsjob")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

var _ job.Observer = (*Logger)(nil)
