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
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/vfsjob/pkg/entry"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// 🗃️ Archive is an open archive file whose entries can be browsed as vfs.File
type Archive struct {
	src    vfs.File
	format *Format
	handle *Handle
	table  EntryTable

	closeOnce sync.Once
	closeErr  error
}

// Open opens src with the format its name implies.
func Open(ctx context.Context, src vfs.File) (*Archive, error) {
	format, err := ForName(src.Name())
	if err != nil {
		return nil, err
	}
	return OpenFormat(ctx, src, format)
}

// OpenFormat opens src with an explicit format.
func OpenFormat(ctx context.Context, src vfs.File, format *Format) (*Archive, error) {
	dec, err := format.OpenDecoder(ctx, src)
	if err != nil {
		return nil, errors.Errorf("opening %s archive %s: %w", format.Name, src.Path(), err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("archive", src.Path()).
		Str("format", format.Name).
		Int("entries", len(dec.Entries())).
		Msg("opened archive")

	return &Archive{
		src:    src,
		format: format,
		handle: NewHandle(dec, format.Reentrant),
		table:  dec.Entries(),
	}, nil
}

func (a *Archive) Source() vfs.File      { return a.src }
func (a *Archive) Format() *Format       { return a.format }
func (a *Archive) Entries() EntryTable   { return a.table }
func (a *Archive) Handle() *Handle       { return a.handle }
func (a *Archive) Root() vfs.File        { return &entryFile{a: a} }
func (a *Archive) volume() string        { return a.src.Volume() + "!" + a.src.Path() }
func (a *Archive) entryFor(p string) int { return a.table.Index(p) }

// Comment returns the archive comment when the format keeps one.
func (a *Archive) Comment() string {
	if c, ok := a.handle.dec.(interface{ Comment() string }); ok {
		return c.Comment()
	}
	return ""
}

// Lookup returns the file for an entry path. Directories may be given with or without their
// trailing '/'.
func (a *Archive) Lookup(ctx context.Context, p string) (vfs.File, error) {
	f := &entryFile{a: a, path: strings.Trim(p, "/")}
	if _, err := f.Stat(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Extract drives the decoder under a handle reference.
func (a *Archive) Extract(ctx context.Context, indices []int, mode AskMode, cb ExtractCallback) error {
	return a.handle.Do(func(dec Decoder) error {
		return dec.Extract(ctx, indices, mode, cb)
	})
}

// Close releases the archive's own reference. The decoder closes once in-flight entry
// reads are done.
func (a *Archive) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.handle.Release()
	})
	return a.closeErr
}

// EntryOf returns the listing entry behind an archive file.
func EntryOf(f vfs.File) (*Entry, bool) {
	ef, ok := f.(*entryFile)
	if !ok {
		return nil, false
	}
	idx := ef.index()
	if idx < 0 {
		return nil, false
	}
	return ef.a.table[idx], true
}

// entryFile is an entry, or an implicit directory, inside an archive. path has no
// leading or trailing '/'; the archive root is "".
type entryFile struct {
	a    *Archive
	path string
}

func (f *entryFile) Kind() vfs.Kind { return vfs.KindArchiveEntry }
func (f *entryFile) Volume() string { return f.a.volume() }
func (f *entryFile) Path() string   { return f.path }
func (f *entryFile) String() string { return f.a.src.Path() + "!/" + f.path }

func (f *entryFile) Name() string {
	if f.path == "" {
		return f.a.src.Name()
	}
	return path.Base(f.path)
}

// index finds the table position of the entry, trying the directory form as well.
func (f *entryFile) index() int {
	if f.path == "" {
		return -1
	}
	if i := f.a.entryFor(f.path); i >= 0 {
		return i
	}
	return f.a.entryFor(f.path + "/")
}

func (f *entryFile) implicitDir() bool {
	if f.path == "" {
		return true
	}
	prefix := f.path + "/"
	for _, e := range f.a.table {
		if strings.HasPrefix(e.Path(), prefix) {
			return true
		}
	}
	return false
}

func (f *entryFile) Stat(ctx context.Context) (*entry.Attributes, error) {
	if i := f.index(); i >= 0 {
		return f.a.table[i].Attributes.Clone(), nil
	}
	if f.implicitDir() {
		var addr entry.Address
		if f.path != "" {
			addr = entry.MustAddress(f.path + "/")
		}
		return entry.NewAttributes(addr, true), nil
	}
	return nil, errors.Errorf("stat %s: %w", f, os.ErrNotExist)
}

func (f *entryFile) Exists(ctx context.Context) (bool, error) {
	_, err := f.Stat(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (f *entryFile) IsDir(ctx context.Context) (bool, error) {
	attrs, err := f.Stat(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return attrs.Dir, nil
}

// Parent of the archive root is the directory holding the archive file.
func (f *entryFile) Parent() vfs.File {
	if f.path == "" {
		return f.a.src.Parent()
	}
	dir := path.Dir(f.path)
	if dir == "." {
		dir = ""
	}
	return &entryFile{a: f.a, path: dir}
}

func (f *entryFile) Child(name string) vfs.File {
	return &entryFile{a: f.a, path: strings.Trim(path.Join(f.path, name), "/")}
}

// List returns direct children, including directories that only exist as a prefix of
// deeper entries.
func (f *entryFile) List(ctx context.Context) ([]vfs.File, error) {
	isDir, err := f.IsDir(ctx)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, errors.Errorf("listing %s: %w", f, vfs.ErrNotDir)
	}

	prefix := ""
	if f.path != "" {
		prefix = f.path + "/"
	}

	seen := make(map[string]bool)
	var children []vfs.File
	for _, e := range f.a.table {
		rest, ok := strings.CutPrefix(e.Path(), prefix)
		if !ok || rest == "" {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		children = append(children, &entryFile{a: f.a, path: prefix + name})
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
	return children, nil
}

// Open streams the entry out of the decoder through a pipe. The handle reference taken here
// is released when the decoder is done with the entry.
func (f *entryFile) Open(ctx context.Context) (io.ReadCloser, error) {
	idx := f.index()
	if idx < 0 {
		return nil, errors.Errorf("opening %s: %w", f, os.ErrNotExist)
	}
	e := f.a.table[idx]
	if e.Attributes.Dir {
		return nil, errors.Errorf("opening %s: %w", f, vfs.ErrIsDir)
	}

	if err := f.a.handle.Acquire(); err != nil {
		return nil, errors.Errorf("opening %s: %w", f, err)
	}

	pr, pw := io.Pipe()
	bridge := NewBridge(ctx, f.a.table, nil, e.Path(), WithSink(pw))
	go func() {
		err := f.a.handle.held(func(dec Decoder) error {
			return dec.Extract(ctx, []int{idx}, AskExtract, bridge)
		})
		_ = pw.CloseWithError(err)
	}()
	return pr, nil
}

func (f *entryFile) Create(ctx context.Context, mode vfs.WriteMode) (io.WriteCloser, error) {
	return nil, readOnly("creating", f)
}

func (f *entryFile) Delete(ctx context.Context) error { return readOnly("deleting", f) }
func (f *entryFile) Mkdirs(ctx context.Context) error { return readOnly("creating directory", f) }

// SetReadOnly succeeds without doing anything, entries cannot be written to begin with.
func (f *entryFile) SetReadOnly(ctx context.Context) error { return nil }

func (f *entryFile) Rename(ctx context.Context, dst vfs.File) error {
	return readOnly("renaming", f)
}

var _ vfs.File = (*entryFile)(nil)
