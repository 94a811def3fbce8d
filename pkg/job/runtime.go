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
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ⚙️ Runtime is a running job's view of the engine: checkpoints, decisions and counters
//
// A Runtime belongs to the job goroutine; none of its methods may be called from elsewhere.
type Runtime struct {
	h         *Handle
	resolver  Resolver
	chunkSize int
	cache     map[Condition]Decision
	logger    *zerolog.Logger
}

// ID returns the job ID.
func (rt *Runtime) ID() string { return rt.h.id }

// Logger returns the job logger.
func (rt *Runtime) Logger() *zerolog.Logger { return rt.logger }

// ⏯️ Checkpoint parks the job while it is paused and reports ErrCancelled once it was
// cancelled. Jobs call it before every file and after every chunk.
func (rt *Runtime) Checkpoint() error {
	h := rt.h
	for {
		if h.cancelled() {
			return ErrCancelled
		}

		h.mu.Lock()
		paused, wake := h.paused, h.wake
		h.mu.Unlock()
		if !paused {
			return nil
		}

		if h.state.move(StateRunning, StatePaused) {
			rt.logger.Debug().Msg("job paused")
		}
		select {
		case <-wake:
		case <-h.runCtx.Done():
			return ErrCancelled
		}
		if h.state.move(StatePaused, StateRunning) {
			rt.logger.Debug().Msg("job resumed")
		}
	}
}

// 🤝 Resolve asks the resolver what to do and waits for the answer. It returns ErrAborted
// when the answer is CancelAll and ErrCancelled when the job is cancelled while waiting.
func (rt *Runtime) Resolve(req Request) (Decision, error) {
	req.JobID = rt.h.id

	if d, ok := rt.cache[req.Condition]; ok {
		return rt.settle(req, d)
	}

	d := req.Fallback
	if rt.resolver != nil {
		reply := make(chan Decision, 1)
		go func() {
			reply <- rt.resolver.Resolve(rt.h.runCtx, req)
		}()

		select {
		case d = <-reply:
		case <-rt.h.runCtx.Done():
			rt.logger.Debug().Stringer("condition", req.Condition).Msg("cancelled while waiting for a decision")
			return CancelAll, ErrCancelled
		}
	}

	if !req.allows(d.Kind) {
		rt.logger.Warn().
			Stringer("decision", d).
			Stringer("condition", req.Condition).
			Msg("decision not offered, using fallback")
		d = req.Fallback
	}
	if d.ApplyToRemaining && d.Kind != DecisionRename && d.Kind != DecisionRetry {
		rt.cache[req.Condition] = d
	}
	return rt.settle(req, d)
}

// headless answers every request with its fallback until restore is called.
func (rt *Runtime) headless() (restore func()) {
	prev := rt.resolver
	rt.resolver = nil
	return func() { rt.resolver = prev }
}

func (rt *Runtime) settle(req Request, d Decision) (Decision, error) {
	rt.logger.Debug().
		Stringer("condition", req.Condition).
		Str("file", req.FileName()).
		Stringer("decision", d).
		Msg("resolved")

	if d.Kind == DecisionCancelAll {
		if req.Err != nil {
			return d, errors.Errorf("%s on %s: %w: %v", req.Condition, req.FileName(), ErrAborted, req.Err)
		}
		return d, errors.Errorf("%s on %s: %w", req.Condition, req.FileName(), ErrAborted)
	}
	return d, nil
}

// AddTotals grows the expected totals once a job knows more about its work.
func (rt *Runtime) AddTotals(files, bytes int64) {
	rt.h.progress.totalFiles.Add(files)
	rt.h.progress.totalBytes.Add(bytes)
}

// StartFile records the file being worked on.
func (rt *Runtime) StartFile(name string) {
	rt.h.progress.current.Store(&name)
	rt.notifyProgress()
}

// 📝 FileDone counts one finished file.
func (rt *Runtime) FileDone(ev FileEvent) {
	p := &rt.h.progress
	switch ev.Status {
	case FileTransferred:
		p.transferred.Add(1)
		p.delivered.Add(max(ev.Bytes, 0))
	case FileSkipped:
		p.skipped.Add(1)
	default:
		p.failed.Add(1)
	}
	p.files.Add(1)

	log := rt.logger.Debug()
	if ev.Status == FileFailed {
		log = rt.logger.Warn().Err(ev.Err)
	}
	log.Str("file", ev.Source).
		Str("destination", ev.Destination).
		Stringer("status", ev.Status).
		Int64("bytes", ev.Bytes).
		Msg("file done")

	for _, o := range rt.h.observers {
		o.OnFile(rt.h, ev)
	}
	rt.notifyProgress()
}

// addBytes counts bytes moved without a stream, e.g. by a rename.
func (rt *Runtime) addBytes(n int64) {
	rt.h.progress.bytes.Add(n)
}

func (rt *Runtime) notifyProgress() {
	if len(rt.h.observers) == 0 {
		return
	}
	s := rt.h.progress.snapshot()
	for _, o := range rt.h.observers {
		o.OnProgress(rt.h, s)
	}
}

// 🔁 Copy moves src into dst one chunk at a time, counting bytes and running a checkpoint
// after every chunk. A cancelled job stops after the chunk in flight.
func (rt *Runtime) Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, rt.chunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			rt.addBytes(int64(m))
			rt.notifyProgress()
			if werr != nil {
				return written, errors.Errorf("writing: %w", werr)
			}
			if m != n {
				return written, errors.Errorf("writing: %w", io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, errors.Errorf("reading: %w", rerr)
		}
		if err := rt.Checkpoint(); err != nil {
			return written, err
		}
	}
}

// Writer wraps w so that every write is counted and followed by a checkpoint. Used where a
// collaborator drives the copy loop, such as a decoder.
func (rt *Runtime) Writer(w io.WriteCloser) io.WriteCloser {
	return &checkpointWriter{rt: rt, w: w}
}

type checkpointWriter struct {
	rt *Runtime
	w  io.WriteCloser
}

func (c *checkpointWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.rt.addBytes(int64(n))
	c.rt.notifyProgress()
	if err != nil {
		return n, err
	}
	if err := c.rt.Checkpoint(); err != nil {
		return n, err
	}
	return n, nil
}

func (c *checkpointWriter) Close() error { return c.w.Close() }

// Reader wraps r so that every read is counted and followed by a checkpoint.
func (rt *Runtime) Reader(r io.Reader) io.Reader {
	return &checkpointReader{rt: rt, r: r}
}

type checkpointReader struct {
	rt *Runtime
	r  io.Reader
}

func (c *checkpointReader) Read(p []byte) (int, error) {
	if len(p) > c.rt.chunkSize {
		p = p[:c.rt.chunkSize]
	}
	n, err := c.r.Read(p)
	c.rt.addBytes(int64(n))
	c.rt.notifyProgress()
	if err != nil {
		return n, err
	}
	if cerr := c.rt.Checkpoint(); cerr != nil {
		return n, cerr
	}
	return n, nil
}
