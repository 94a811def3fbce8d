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

package job

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultChunkSize is how many bytes are copied between two checkpoints.
const DefaultChunkSize = 64 * 1024

// 🧩 Job is one unit of background file work
type Job interface {
	// Kind names the job type for logs and metrics, e.g. "copy" or "pack".
	Kind() string
	// Run does the work. ctx is never cancelled by the engine; cancellation and pausing are
	// observed through rt.Checkpoint and rt.Resolve.
	Run(ctx context.Context, rt *Runtime) error
}

// 🔧 Options configures an Engine
type Options struct {
	// MaxConcurrent bounds how many jobs run at once; 0 means no bound. Jobs over the
	// bound wait in StateQueued.
	MaxConcurrent int64
	// ChunkSize is the copy buffer size, DefaultChunkSize when 0.
	ChunkSize int
	// Resolver answers per-file problems for jobs that bring none of their own.
	Resolver Resolver
	// Observers receive every job's events.
	Observers []Observer
}

// 🏭 Engine runs jobs, each on its own goroutine
type Engine struct {
	opts Options
	sem  *semaphore.Weighted

	mu      sync.RWMutex
	handles map[string]*Handle
	order   []*Handle
}

// NewEngine returns an engine with opts.
func NewEngine(opts Options) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	e := &Engine{
		opts:    opts,
		handles: make(map[string]*Handle),
	}
	if opts.MaxConcurrent > 0 {
		e.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	return e
}

// SubmitOption adjusts a single submission.
type SubmitOption func(*submission)

type submission struct {
	resolver  Resolver
	observers []Observer
}

// WithResolver answers this job's requests with r instead of the engine resolver.
func WithResolver(r Resolver) SubmitOption {
	return func(s *submission) { s.resolver = r }
}

// WithObserver adds an observer for this job only.
func WithObserver(o Observer) SubmitOption {
	return func(s *submission) { s.observers = append(s.observers, o) }
}

// 🚀 Submit starts j in the background and returns at once. Cancelling ctx cancels the job
// the same way Handle.Cancel does.
func (e *Engine) Submit(ctx context.Context, j Job, opts ...SubmitOption) *Handle {
	sub := submission{resolver: e.opts.Resolver}
	for _, opt := range opts {
		opt(&sub)
	}

	runCtx, stop := context.WithCancel(ctx)
	h := &Handle{
		id:        uuid.NewString(),
		kind:      j.Kind(),
		stop:      stop,
		runCtx:    runCtx,
		wake:      make(chan struct{}),
		done:      make(chan struct{}),
		observers: append(append([]Observer{}, e.opts.Observers...), sub.observers...),
	}

	logger := zerolog.Ctx(ctx).With().Str("job_id", h.id).Str("kind", h.kind).Logger()
	rt := &Runtime{
		h:         h,
		resolver:  sub.resolver,
		chunkSize: e.opts.ChunkSize,
		cache:     make(map[Condition]Decision),
		logger:    &logger,
	}

	e.mu.Lock()
	e.handles[h.id] = h
	e.order = append(e.order, h)
	e.mu.Unlock()

	go e.run(logger.WithContext(context.WithoutCancel(ctx)), j, rt)
	return h
}

func (e *Engine) run(ctx context.Context, j Job, rt *Runtime) {
	h := rt.h
	logger := rt.logger

	if e.sem != nil {
		if err := e.sem.Acquire(h.runCtx, 1); err != nil {
			h.complete(rt, errors.Errorf("waiting for a slot: %w", ErrCancelled))
			return
		}
		defer e.sem.Release(1)
	}

	if h.cancelled() || !h.state.move(StateQueued, StateRunning) {
		h.complete(rt, ErrCancelled)
		return
	}
	logger.Debug().Msg("job started")

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("job panicked: %v", r)
			}
		}()
		return j.Run(ctx, rt)
	}()
	h.complete(rt, err)
}

// Lookup returns the handle for a job ID.
func (e *Engine) Lookup(id string) (*Handle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handles[id]
	return h, ok
}

// Handles returns every submitted job in submission order.
func (e *Engine) Handles() []*Handle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Handle(nil), e.order...)
}

// 🛑 Shutdown cancels every job and waits for all of them to reach a terminal state.
func (e *Engine) Shutdown(ctx context.Context) error {
	handles := e.Handles()

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range handles {
		h.Cancel()
		g.Go(func() error {
			_, err := h.Wait(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Errorf("waiting for jobs: %w", err)
	}
	return nil
}

// 🏁 Outcome is how a job ended
type Outcome struct {
	State   State
	Summary Summary
	// Err is nil for StateCompleted, wraps ErrCancelled for StateCancelled, and holds the
	// cause for StateFailed.
	Err error
}

// FileStatus is what happened to one file.
type FileStatus int

const (
	FileTransferred FileStatus = iota
	FileSkipped
	FileFailed
)

func (s FileStatus) String() string {
	switch s {
	case FileTransferred:
		return "transferred"
	case FileSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// FileEvent reports the end of one file.
type FileEvent struct {
	Source      string
	Destination string
	Status      FileStatus
	Bytes       int64
	Err         error
}

// 👀 Observer watches jobs. Callbacks run on the job goroutine and must not block on the
// job itself, e.g. by calling Wait.
type Observer interface {
	OnProgress(h *Handle, s Snapshot)
	OnFile(h *Handle, ev FileEvent)
	OnTerminal(h *Handle, o Outcome)
}

// 🎫 Handle controls and observes one submitted job
type Handle struct {
	id        string
	kind      string
	state     stateBox
	progress  progress
	observers []Observer

	runCtx context.Context
	stop   context.CancelFunc

	mu     sync.Mutex
	paused bool
	wake   chan struct{}

	done    chan struct{}
	outcome Outcome
}

func (h *Handle) ID() string   { return h.id }
func (h *Handle) Kind() string { return h.kind }
func (h *Handle) State() State { return h.state.load() }

// Progress returns the current counters.
func (h *Handle) Progress() Snapshot { return h.progress.snapshot() }

// Done is closed once the job reached a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// ⏸️ Pause asks the job to stop at its next checkpoint. The state turns StatePaused once
// the job actually parked.
func (h *Handle) Pause() error {
	if s := h.State(); s.Terminal() {
		return errors.Errorf("pausing %s job: %w", s, ErrInvalidTransition)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
	return nil
}

// ▶️ Resume wakes a paused job.
func (h *Handle) Resume() error {
	if s := h.State(); s.Terminal() {
		return errors.Errorf("resuming %s job: %w", s, ErrInvalidTransition)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paused {
		h.paused = false
		close(h.wake)
		h.wake = make(chan struct{})
	}
	return nil
}

// ❌ Cancel asks the job to stop at its next checkpoint, or right away when it waits for a
// decision, a slot, or a resume. Cancelling a finished job does nothing.
func (h *Handle) Cancel() {
	h.stop()
}

// Wait blocks until the job ends or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (h *Handle) cancelled() bool {
	return h.runCtx.Err() != nil
}

func (h *Handle) complete(rt *Runtime, err error) {
	target := StateCompleted
	switch {
	case err == nil:
	case errors.Is(err, ErrCancelled):
		target = StateCancelled
	default:
		target = StateFailed
	}

	final, _ := h.state.finish(target)
	h.outcome = Outcome{State: final, Summary: h.progress.summary(), Err: err}
	h.stop()

	ev := rt.logger.Info()
	if final == StateFailed {
		ev = rt.logger.Error().Err(err)
	}
	ev.Stringer("state", final).
		Int64("files", h.outcome.Summary.Files).
		Int64("bytes", h.outcome.Summary.Bytes).
		Msg("job finished")

	for _, o := range h.observers {
		o.OnTerminal(h, h.outcome)
	}
	close(h.done)
}
