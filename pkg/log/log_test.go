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
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/vfsjob/pkg/job"
	"gitlab.com/tozd/go/errors"
)

// scriptedJob reports a fixed list of file events and ends with err.
type scriptedJob struct {
	events []job.FileEvent
	err    error
}

func (j *scriptedJob) Kind() string { return "copy" }

func (j *scriptedJob) Run(ctx context.Context, rt *job.Runtime) error {
	rt.AddTotals(int64(len(j.events)), 0)
	for _, ev := range j.events {
		rt.StartFile(ev.Source)
		if ev.Bytes > 0 {
			if _, err := rt.Copy(io.Discard, bytes.NewReader(make([]byte, ev.Bytes))); err != nil {
				return err
			}
		}
		rt.FileDone(ev)
	}
	return j.err
}

func runJob(t *testing.T, logger *Logger, j job.Job) (*job.Handle, job.Outcome) {
	t.Helper()
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	eng := job.NewEngine(job.Options{})
	h := eng.Submit(ctx, j, job.WithObserver(logger))

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	o, err := h.Wait(waitCtx)
	require.NoError(t, err, "job should finish")
	return h, o
}

func consoleLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "start_job",
			op: func(t *testing.T, logger *Logger) {
				logger.StartJob(context.Background(), JobOperation{
					ID:          "1234",
					Kind:        "copy",
					Source:      "/src",
					Destination: "/dst",
				})
			},
			wantLogs: []string{
				"[copy /dst]",
				"◆ copy • 1234",
			},
		},
		{
			name: "start_job_without_destination",
			op: func(t *testing.T, logger *Logger) {
				logger.StartJob(context.Background(), JobOperation{ID: "42", Kind: "test", Source: "/a.zip"})
			},
			wantLogs: []string{
				"[test /a.zip]",
				"◆ test • 42",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("copying files")
			},
			wantLogs: []string{
				"vfsjob • copying files",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewWithZerolog(buf, zerolog.New(zerolog.NewTestWriter(t)))

			tt.op(t, logger)

			lines := consoleLines(buf)
			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.InfoLevel)

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx), "logger from context should be the same instance")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestFileEventFormatting(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		ev   job.FileEvent
		want []string
	}{
		{
			name: "transferred",
			ev:   job.FileEvent{Source: "/src/a.txt", Destination: "/dst/a.txt", Status: job.FileTransferred},
			want: []string{"✓", "/dst/a.txt", "copy", "transferred"},
		},
		{
			name: "skipped",
			ev:   job.FileEvent{Source: "/src/a.txt", Destination: "/dst/a.txt", Status: job.FileSkipped},
			want: []string{"-", "/dst/a.txt", "copy", "skipped"},
		},
		{
			name: "failed_without_destination",
			ev:   job.FileEvent{Source: "/src/a.txt", Status: job.FileFailed, Err: errors.New("disk full")},
			want: []string{"✗", "/src/a.txt", "copy", "failed", "disk", "full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := formatFileEvent("copy", tt.ev)
			assert.True(t, strings.HasPrefix(line, "    "), "file lines should be indented")
			assert.Equal(t, tt.want, strings.Fields(line))
		})
	}
}

// 🧪 TestObserver tests the logger attached to a running job
func TestObserver(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	buf := &bytes.Buffer{}
	logger := NewWithZerolog(buf, zerolog.New(zerolog.NewTestWriter(t)))

	_, o := runJob(t, logger, &scriptedJob{events: []job.FileEvent{
		{Source: "/src/a.txt", Destination: "/dst/a.txt", Status: job.FileTransferred, Bytes: 2048},
		{Source: "/src/b.txt", Destination: "/dst/b.txt", Status: job.FileSkipped},
	}})
	require.Equal(t, job.StateCompleted, o.State)

	lines := consoleLines(buf)
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"✓", "/dst/a.txt", "copy", "transferred"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"-", "/dst/b.txt", "copy", "skipped"}, strings.Fields(lines[1]))
	assert.Equal(t, "✅ copy completed: 1 transferred, 1 skipped, 0 failed, 2.0 KiB", lines[2])
}

// 🧪 TestObserverFailure tests the summary of a failed job
func TestObserverFailure(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	buf := &bytes.Buffer{}
	logger := NewWithZerolog(buf, zerolog.New(zerolog.NewTestWriter(t)))

	_, o := runJob(t, logger, &scriptedJob{err: errors.New("volume vanished")})
	require.Equal(t, job.StateFailed, o.State)

	out := buf.String()
	assert.Contains(t, out, "❌ copy failed: 0 transferred, 0 skipped, 0 failed, 0 B")
	assert.Contains(t, out, "volume vanished")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.n))
	}
}
