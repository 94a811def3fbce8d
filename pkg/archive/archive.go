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

// Package archive reads and writes archive files and exposes their entries as vfs.File.
//
// Each format plugs in two collaborators: an [Archiver] that serializes entries into a new
// archive and a [Decoder] that lists an existing archive and drives extraction through a
// pull callback ([ExtractCallback]). The [Bridge] adapts that callback to vfs streams.
package archive

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/vfsjob/pkg/entry"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// NoPosition marks an entry without content data in the archive.
const NoPosition int64 = -1

var (
	ErrUnknownFormat = errors.Base("unknown archive format")
	ErrClosed        = errors.Base("archive is closed")
	ErrNoEntry       = errors.Base("no such archive entry")
)

// 📦 Entry is one member of an archive listing
type Entry struct {
	Attributes *entry.Attributes
	// Position locates the content inside the archive, NoPosition when there is none.
	Position int64
	// Object belongs to the decoder that produced the entry.
	Object any
}

// Path returns the entry address as a string.
func (e *Entry) Path() string { return e.Attributes.Address.Path() }

// EntryTable is the positional listing of an archive.
type EntryTable []*Entry

// At returns the entry at index.
func (t EntryTable) At(index int) (*Entry, error) {
	if index < 0 || index >= len(t) {
		return nil, errors.Errorf("entry %d of %d: %w", index, len(t), ErrNoEntry)
	}
	return t[index], nil
}

// Index returns the position of the entry with the given path, or -1.
func (t EntryTable) Index(path string) int {
	for i, e := range t {
		if e.Path() == path {
			return i
		}
	}
	return -1
}

// AskMode is what a decoder wants to do with an entry.
type AskMode int

const (
	AskExtract AskMode = iota
	AskTest
)

func (m AskMode) String() string {
	if m == AskTest {
		return "test"
	}
	return "extract"
}

// ExtractCallback is pulled by a Decoder once per requested entry. A nil stream skips the
// entry. The decoder writes the content to a non-nil stream and closes it.
type ExtractCallback interface {
	GetStream(index int, mode AskMode) (io.WriteCloser, error)
}

// 🔓 Decoder lists and extracts an existing archive
type Decoder interface {
	Entries() EntryTable
	// Extract visits indices in order (all entries when indices is nil). In AskTest mode the
	// content is read and verified but never written.
	Extract(ctx context.Context, indices []int, mode AskMode, cb ExtractCallback) error
	Close() error
}

// 🔒 Archiver starts writing a new archive
type Archiver interface {
	Begin(w io.Writer, comment string) (Session, error)
}

// Session receives the members of an archive being written.
type Session interface {
	// AddEntry writes one member. content is nil for directories.
	AddEntry(attrs *entry.Attributes, content io.Reader) error
	// Close finishes the archive. It does not close the underlying writer.
	Close() error
}

// memberName normalizes a stored member name into an entry path.
func memberName(name string, dir bool) string {
	name = strings.ReplaceAll(name, "\\", "/")
	for strings.HasPrefix(name, "./") {
		name = name[2:]
	}
	name = strings.TrimLeft(name, "/")
	if dir && name != "" && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return name
}

// unsafeMember reports a member left out of the listing because its name cannot be
// extracted below a destination, such as "../../etc/passwd".
func unsafeMember(ctx context.Context, src vfs.File, name string, err error) {
	zerolog.Ctx(ctx).Warn().
		Err(err).
		Str("archive", src.Path()).
		Str("member", name).
		Msg("ignoring archive member with an unsafe name")
}

// readOnly builds the error for write operations on archive entries.
func readOnly(op string, f vfs.File) error {
	return errors.Errorf("%s %s: %w", op, f.Path(), vfs.ErrNotSupported)
}
