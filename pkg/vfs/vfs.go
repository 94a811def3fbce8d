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

/*
Package vfs provides a uniform handle over local files, remote files and archive entries.

	+-----------+     +-----------+     +----------------+
	|   local   |     |  remote   |     | archive entry  |
	|  (afero)  |     |  (rclone) |     | (pkg/archive)  |
	+-----+-----+     +-----+-----+     +-------+--------+
	      |                 |                   |
	      +--------+--------+---------+---------+
	               |      File        |
	               +------------------+

Every backend implements [File]. Jobs only ever talk to [File]; they never look at which
backend sits behind it. Backends are picked from a location's scheme through the registry
([Register], [Resolve]); a bare path means the local filesystem.

Capabilities a backend cannot offer return [ErrNotSupported].
*/
package vfs

import (
	"context"
	"io"
	"os"

	"github.com/walteh/vfsjob/pkg/entry"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind identifies the backend behind a File
type Kind int

const (
	KindLocal Kind = iota
	KindRemote
	KindArchiveEntry
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	case KindArchiveEntry:
		return "archive-entry"
	default:
		return "unknown"
	}
}

// ✍️ WriteMode selects how Create treats existing content
type WriteMode int

const (
	Truncate WriteMode = iota
	Append
)

// Common errors. Not-found and exists alias the os package errors so os.IsNotExist keeps working.
var (
	ErrNotFound     = os.ErrNotExist
	ErrExist        = os.ErrExist
	ErrNotDir       = errors.Base("not a directory")
	ErrIsDir        = errors.Base("is a directory")
	ErrNotSupported = errors.Base("operation not supported by this backend")
	ErrCrossVolume  = errors.Base("files are on different volumes")
)

// 📁 File is a capability handle over one virtual entry
type File interface {
	// Kind reports the backend.
	Kind() Kind
	// Volume identifies the storage the file lives on. Two files can be renamed into one
	// another only when their volumes are equal.
	Volume() string
	// Path is the '/'-delimited location of the file inside its volume.
	Path() string
	// Name is the last element of Path.
	Name() string

	// Stat returns fresh attributes for the file.
	Stat(ctx context.Context) (*entry.Attributes, error)
	// Exists reports whether anything lives at the file's path.
	Exists(ctx context.Context) (bool, error)
	// IsDir reports whether the file exists and is a directory.
	IsDir(ctx context.Context) (bool, error)

	// Parent returns the enclosing directory, nil at the root of the volume.
	Parent() File
	// Child returns a handle for name inside this directory. The child need not exist.
	Child(name string) File
	// List returns the direct children of a directory, sorted by name.
	List(ctx context.Context) ([]File, error)

	// Open acquires an input stream.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Create acquires an output stream, truncating or appending to existing content.
	Create(ctx context.Context, mode WriteMode) (io.WriteCloser, error)

	// Delete removes a file or an empty directory.
	Delete(ctx context.Context) error
	// Mkdirs creates the directory and its parents. An existing directory is success,
	// an existing non-directory is ErrNotDir.
	Mkdirs(ctx context.Context) error
	// SetReadOnly clears every write permission bit.
	SetReadOnly(ctx context.Context) error
	// Rename moves the file to dst, which must be on the same volume.
	Rename(ctx context.Context, dst File) error
}

// SameVolume reports whether a and b can be renamed into each other.
func SameVolume(a, b File) bool {
	return a.Kind() == b.Kind() && a.Volume() == b.Volume()
}
