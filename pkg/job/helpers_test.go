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

package job_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/vfs"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, ctx context.Context, f vfs.File, content string) {
	t.Helper()
	require.NoError(t, vfs.EnsureParent(ctx, f))
	w, err := f.Create(ctx, vfs.Truncate)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readFile(t *testing.T, ctx context.Context, f vfs.File) string {
	t.Helper()
	r, err := f.Open(ctx)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func exists(t *testing.T, ctx context.Context, f vfs.File) bool {
	t.Helper()
	ok, err := f.Exists(ctx)
	require.NoError(t, err)
	return ok
}

// sampleTree writes {a.txt (10 bytes), dir/b.txt (5 bytes)} below /src.
func sampleTree(t *testing.T, ctx context.Context, fsys afero.Fs) vfs.File {
	t.Helper()
	src := vfs.NewLocal(fsys, "/src")
	writeFile(t, ctx, src.Child("a.txt"), "0123456789")
	writeFile(t, ctx, vfs.Descend(src, "dir/b.txt"), "hello")
	return src
}

func sampleSet(src vfs.File) job.FileSet {
	return job.NewFileSet(src, src.Child("a.txt"), src.Child("dir"))
}

func waitOutcome(t *testing.T, h *job.Handle) job.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o, err := h.Wait(ctx)
	require.NoError(t, err, "job %s did not finish", h.ID())
	return o
}

func run(t *testing.T, ctx context.Context, e *job.Engine, j job.Job, opts ...job.SubmitOption) job.Outcome {
	t.Helper()
	return waitOutcome(t, e.Submit(ctx, j, opts...))
}

// observerFuncs is an Observer built from optional callbacks.
type observerFuncs struct {
	progress func(h *job.Handle, s job.Snapshot)
	file     func(h *job.Handle, ev job.FileEvent)
	terminal func(h *job.Handle, o job.Outcome)
}

func (o observerFuncs) OnProgress(h *job.Handle, s job.Snapshot) {
	if o.progress != nil {
		o.progress(h, s)
	}
}

func (o observerFuncs) OnFile(h *job.Handle, ev job.FileEvent) {
	if o.file != nil {
		o.file(h, ev)
	}
}

func (o observerFuncs) OnTerminal(h *job.Handle, out job.Outcome) {
	if o.terminal != nil {
		o.terminal(h, out)
	}
}

// gateJob runs until released or cancelled.
type gateJob struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gateJob {
	return &gateJob{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateJob) Kind() string { return "gate" }

func (g *gateJob) Run(ctx context.Context, rt *job.Runtime) error {
	close(g.started)
	for {
		select {
		case <-g.release:
			return nil
		case <-time.After(time.Millisecond):
		}
		if err := rt.Checkpoint(); err != nil {
			return err
		}
	}
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out")
	}
}
