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

package archive

import (
	"sync"
)

// 🔗 Handle counts the users of an open decoder and closes it when the last one leaves
//
// The creator holds the first reference. Every operation that touches the decoder acquires
// its own reference for its duration, so closing the archive while an entry is being read
// defers the decoder Close until that read finishes.
type Handle struct {
	mu        sync.Mutex
	refs      int
	closed    bool
	dec       Decoder
	reentrant bool

	// serializes decoder access unless the format is reentrant
	ioMu sync.Mutex
}

// NewHandle wraps dec with a single reference held by the caller. Operations on dec are
// serialized unless reentrant is set.
func NewHandle(dec Decoder, reentrant bool) *Handle {
	return &Handle{dec: dec, refs: 1, reentrant: reentrant}
}

// Acquire adds a reference. It fails with ErrClosed once the count dropped to zero.
func (h *Handle) Acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	h.refs++
	return nil
}

// Release drops a reference, closing the decoder when it was the last one.
func (h *Handle) Release() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.refs--
	last := h.refs == 0
	if last {
		h.closed = true
	}
	h.mu.Unlock()

	if last {
		return h.dec.Close()
	}
	return nil
}

// Refs returns the current reference count.
func (h *Handle) Refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

// Closed reports whether the decoder has been closed.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Do runs fn with a reference held for its duration.
func (h *Handle) Do(fn func(Decoder) error) error {
	if err := h.Acquire(); err != nil {
		return err
	}
	return h.held(fn)
}

// held runs fn under a reference the caller already acquired and releases it afterwards.
func (h *Handle) held(fn func(Decoder) error) (err error) {
	defer func() {
		if rerr := h.Release(); err == nil {
			err = rerr
		}
	}()

	if !h.reentrant {
		h.ioMu.Lock()
		defer h.ioMu.Unlock()
	}
	return fn(h.dec)
}
