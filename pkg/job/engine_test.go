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
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/walteh/vfsjob/gen/mockery"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/vfs"
)

type panicJob struct{}

func (panicJob) Kind() string                                  { return "panic" }
func (panicJob) Run(ctx context.Context, rt *job.Runtime) error { panic("boom") }

// 🧪 TestEngineMaxConcurrent tests that jobs over the bound wait queued
func TestEngineMaxConcurrent(t *testing.T) {
	ctx := testContext(t)
	e := job.NewEngine(job.Options{MaxConcurrent: 1})

	first, second := newGate(), newGate()
	h1 := e.Submit(ctx, first)
	waitClosed(t, first.started)
	h2 := e.Submit(ctx, second)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, job.StateRunning, h1.State())
	assert.Equal(t, job.StateQueued, h2.State())

	close(first.release)
	assert.Equal(t, job.StateCompleted, waitOutcome(t, h1).State)

	waitClosed(t, second.started)
	close(second.release)
	assert.Equal(t, job.StateCompleted, waitOutcome(t, h2).State)
}

// 🧪 TestEngineCancelQueued tests that a queued job can be cancelled before it starts
func TestEngineCancelQueued(t *testing.T) {
	ctx := testContext(t)
	e := job.NewEngine(job.Options{MaxConcurrent: 1})

	running, queued := newGate(), newGate()
	h1 := e.Submit(ctx, running)
	waitClosed(t, running.started)
	h2 := e.Submit(ctx, queued)

	h2.Cancel()
	o := waitOutcome(t, h2)
	assert.Equal(t, job.StateCancelled, o.State)
	assert.ErrorIs(t, o.Err, job.ErrCancelled)

	select {
	case <-queued.started:
		t.Fatal("cancelled job started")
	default:
	}

	close(running.release)
	assert.Equal(t, job.StateCompleted, waitOutcome(t, h1).State)
}

// 🧪 TestEngineSubmitContext tests that cancelling the submit context cancels the job
func TestEngineSubmitContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	g := newGate()
	h := job.NewEngine(job.Options{}).Submit(ctx, g)
	waitClosed(t, g.started)

	cancel()
	assert.Equal(t, job.StateCancelled, waitOutcome(t, h).State)
}

// 🧪 TestEngineShutdown tests that shutdown cancels and waits for every job
func TestEngineShutdown(t *testing.T) {
	ctx := testContext(t)
	e := job.NewEngine(job.Options{MaxConcurrent: 2})

	gates := []*gateJob{newGate(), newGate(), newGate()}
	for _, g := range gates {
		e.Submit(ctx, g)
	}
	waitClosed(t, gates[0].started)

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, e.Shutdown(sctx))

	handles := e.Handles()
	require.Len(t, handles, 3)
	for _, h := range handles {
		assert.Equal(t, job.StateCancelled, h.State(), h.ID())
	}
}

// 🧪 TestEnginePanic tests that a panicking job fails instead of crashing
func TestEnginePanic(t *testing.T) {
	ctx := testContext(t)
	o := run(t, ctx, job.NewEngine(job.Options{}), panicJob{})

	assert.Equal(t, job.StateFailed, o.State)
	require.Error(t, o.Err)
	assert.Contains(t, o.Err.Error(), "boom")
}

// 🧪 TestHandleAfterFinish tests control requests on a finished job
func TestHandleAfterFinish(t *testing.T) {
	ctx := testContext(t)
	e := job.NewEngine(job.Options{})
	g := newGate()
	close(g.release)
	h := e.Submit(ctx, g)
	waitOutcome(t, h)

	assert.ErrorIs(t, h.Pause(), job.ErrInvalidTransition)
	assert.ErrorIs(t, h.Resume(), job.ErrInvalidTransition)
	h.Cancel()
	assert.Equal(t, job.StateCompleted, h.State())

	found, ok := e.Lookup(h.ID())
	require.True(t, ok)
	assert.Same(t, h, found)
	_, ok = e.Lookup("nope")
	assert.False(t, ok)
}

// 🧪 TestEngineCancelWhilePaused tests that a paused job can be cancelled
func TestEngineCancelWhilePaused(t *testing.T) {
	ctx := testContext(t)
	g := newGate()
	h := job.NewEngine(job.Options{}).Submit(ctx, g)
	waitClosed(t, g.started)

	require.NoError(t, h.Pause())
	require.Eventually(t, func() bool { return h.State() == job.StatePaused }, 5*time.Second, time.Millisecond)

	h.Cancel()
	assert.Equal(t, job.StateCancelled, waitOutcome(t, h).State)
}

// 🧪 TestEngineObservers tests the observer callbacks of a copy
func TestEngineObservers(t *testing.T) {
	ctx := testContext(t)
	fsys := afero.NewMemMapFs()
	src := sampleTree(t, ctx, fsys)

	observer := mockery.NewMockObserver_job(t)
	observer.EXPECT().OnProgress(mock.Anything, mock.Anything).Return().Maybe()
	observer.EXPECT().OnFile(mock.Anything, mock.MatchedBy(func(ev job.FileEvent) bool {
		return ev.Status == job.FileTransferred
	})).Return().Times(2)
	observer.EXPECT().OnTerminal(mock.Anything, mock.MatchedBy(func(o job.Outcome) bool {
		return o.State == job.StateCompleted && o.Summary.Files == 2
	})).Return().Once()

	e := job.NewEngine(job.Options{Observers: []job.Observer{observer}})
	o := run(t, ctx, e, &job.CopyJob{Files: sampleSet(src), Destination: vfs.NewLocal(fsys, "/out")})
	require.NoError(t, o.Err)
}

// 🧪 TestEngineProgressIsMonotonic tests that counters never go backwards
func TestEngineProgressIsMonotonic(t *testing.T) {
	ctx := testContext(t)
	fsys := afero.NewMemMapFs()
	src := sampleTree(t, ctx, fsys)

	var last job.Snapshot
	regressions := 0
	watch := observerFuncs{progress: func(_ *job.Handle, s job.Snapshot) {
		if s.Bytes < last.Bytes || s.Files < last.Files {
			regressions++
		}
		last = s
	}}

	e := job.NewEngine(job.Options{ChunkSize: 2})
	o := run(t, ctx, e, &job.CopyJob{Files: sampleSet(src), Destination: vfs.NewLocal(fsys, "/out")}, job.WithObserver(watch))

	require.NoError(t, o.Err)
	assert.Zero(t, regressions)
	assert.Equal(t, int64(15), last.Bytes)
	assert.Equal(t, int64(2), last.Files)
}
