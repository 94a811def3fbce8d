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
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// StreamDecision is what a Bridge does for one entry the decoder asks about.
type StreamDecision int

const (
	DecisionSkip StreamDecision = iota
	DecisionProvideStream
	DecisionDirectoryOnly
)

func (d StreamDecision) String() string {
	switch d {
	case DecisionProvideStream:
		return "provide-stream"
	case DecisionDirectoryOnly:
		return "directory-only"
	default:
		return "skip"
	}
}

// ErrStreamHandedOut is returned when a decoder asks a Bridge for a second stream.
var ErrStreamHandedOut = errors.Base("extraction stream already handed out")

// 🌉 Bridge answers a decoder's pull callback with vfs streams for a single entry
//
// Directories the decoder reports are created below the destination root. Every other entry
// is skipped unless its path is the scoped one, which gets at most one output stream.
// Extracting a whole archive means one Bridge per entry.
type Bridge struct {
	ctx   context.Context
	table EntryTable
	root  vfs.File
	scope string

	sink   io.WriteCloser
	target vfs.File
	wrap   func(io.WriteCloser) io.WriteCloser

	mu      sync.Mutex
	handed  bool
	written vfs.File
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithSink makes the scoped entry go to w instead of a file below the root. In test mode
// the verified content is passed through w as well.
func WithSink(w io.WriteCloser) BridgeOption {
	return func(b *Bridge) { b.sink = w }
}

// WithTarget writes the scoped entry to f instead of its natural place below the root.
func WithTarget(f vfs.File) BridgeOption {
	return func(b *Bridge) { b.target = f }
}

// WithStreamWrapper lets the caller observe the stream before the decoder gets it.
func WithStreamWrapper(fn func(io.WriteCloser) io.WriteCloser) BridgeOption {
	return func(b *Bridge) { b.wrap = fn }
}

// NewBridge returns a bridge for the entry at scope, extracting below root. root may be nil
// when a sink is set. ctx bounds the filesystem work done from inside the callback.
func NewBridge(ctx context.Context, table EntryTable, root vfs.File, scope string, opts ...BridgeOption) *Bridge {
	b := &Bridge{ctx: ctx, table: table, root: root, scope: scope}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ResolveTarget looks up the entry the decoder refers to by position.
func (b *Bridge) ResolveTarget(index int) (*Entry, error) {
	return b.table.At(index)
}

// DecideStream settles what to do for target, creating directories and clearing stale files
// on the way.
func (b *Bridge) DecideStream(mode AskMode, target *Entry) (StreamDecision, error) {
	if mode == AskTest {
		// a sink may watch the scoped entry go by; nothing is ever created
		if b.sink != nil && !target.Attributes.Dir && target.Path() == b.scope {
			return DecisionProvideStream, nil
		}
		return DecisionSkip, nil
	}

	if target.Attributes.Dir {
		if b.root == nil {
			return DecisionDirectoryOnly, nil
		}
		dir, err := vfs.Within(b.root, target.Path())
		if err != nil {
			return DecisionSkip, err
		}
		if err := dir.Mkdirs(b.ctx); err != nil {
			return DecisionSkip, errors.Errorf("creating directory for %s: %w", target.Path(), err)
		}
		return DecisionDirectoryOnly, nil
	}

	if target.Path() != b.scope {
		return DecisionSkip, nil
	}
	if b.sink != nil {
		return DecisionProvideStream, nil
	}

	dst, err := b.destination(target)
	if err != nil {
		return DecisionSkip, err
	}
	if err := vfs.EnsureParent(b.ctx, dst); err != nil {
		return DecisionSkip, errors.Errorf("creating parent of %s: %w", dst.Path(), err)
	}
	if target.Position == NoPosition {
		exists, err := dst.Exists(b.ctx)
		if err != nil {
			return DecisionSkip, err
		}
		if exists {
			if err := dst.Delete(b.ctx); err != nil {
				return DecisionSkip, errors.Errorf("removing stale %s: %w", dst.Path(), err)
			}
		}
	}
	return DecisionProvideStream, nil
}

// GetStream implements ExtractCallback.
func (b *Bridge) GetStream(index int, mode AskMode) (io.WriteCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	target, err := b.ResolveTarget(index)
	if err != nil {
		return nil, err
	}
	decision, err := b.DecideStream(mode, target)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(b.ctx).Trace().
		Str("entry", target.Path()).
		Stringer("mode", mode).
		Stringer("decision", decision).
		Msg("extraction callback")

	if decision != DecisionProvideStream {
		return nil, nil
	}
	if b.handed {
		return nil, errors.Errorf("entry %s: %w", target.Path(), ErrStreamHandedOut)
	}

	var w io.WriteCloser
	if b.sink != nil {
		w = b.sink
	} else {
		dst, err := b.destination(target)
		if err != nil {
			return nil, err
		}
		if w, err = dst.Create(b.ctx, vfs.Truncate); err != nil {
			return nil, errors.Errorf("creating %s: %w", dst.Path(), err)
		}
		b.written = dst
	}
	b.handed = true

	if b.wrap != nil {
		w = b.wrap(w)
	}
	return w, nil
}

// Handed reports whether an output stream was given to the decoder.
func (b *Bridge) Handed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handed
}

// Written returns the file an output stream was created for, nil if none was.
func (b *Bridge) Written() vfs.File {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

// destination re-roots the entry path below the root. It never leaves the root.
func (b *Bridge) destination(target *Entry) (vfs.File, error) {
	if b.target != nil {
		return b.target, nil
	}
	return vfs.Within(b.root, target.Path())
}

var _ ExtractCallback = (*Bridge)(nil)
