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

package vfs

import (
	"context"
	"io"
	"os"
	"path"
	"sort"
	"time"

	"github.com/rclone/rclone/fs"
	"github.com/rclone/rclone/fs/operations"
	"github.com/walteh/vfsjob/pkg/entry"
	"gitlab.com/tozd/go/errors"
)

// RemoteScheme addresses rclone remotes, e.g. "rclone://gdrive:backup".
const RemoteScheme = "rclone"

func init() {
	Register(RemoteScheme, func(ctx context.Context, location string) (File, error) {
		return NewRemote(ctx, location)
	})
}

// ☁️ remoteFile is a File on any rclone-supported remote
type remoteFile struct {
	fsys fs.Fs
	path string // relative to the root of fsys, "" for the root itself
}

// NewRemote opens the rclone remote spec (e.g. "gdrive:backup" or a local path for the
// rclone local backend) and returns a File for its root.
func NewRemote(ctx context.Context, spec string) (File, error) {
	fsys, err := fs.NewFs(ctx, spec)
	if err != nil {
		return nil, errors.Errorf("opening remote %q: %w", spec, err)
	}
	return RemoteFromFs(fsys, ""), nil
}

// RemoteFromFs returns a File for p below the root of fsys.
func RemoteFromFs(fsys fs.Fs, p string) File {
	return &remoteFile{fsys: fsys, path: cleanRemote(p)}
}

func cleanRemote(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return ""
	}
	return p[1:]
}

func (r *remoteFile) Kind() Kind { return KindRemote }

func (r *remoteFile) Volume() string {
	return r.fsys.Name() + ":" + r.fsys.Root()
}

func (r *remoteFile) Path() string { return r.path }

func (r *remoteFile) Name() string {
	if r.path == "" {
		return r.fsys.Name()
	}
	return path.Base(r.path)
}

func (r *remoteFile) String() string { return r.fsys.Name() + ":" + path.Join(r.fsys.Root(), r.path) }

func (r *remoteFile) object(ctx context.Context) (fs.Object, error) {
	if r.path == "" {
		return nil, fs.ErrorObjectNotFound
	}
	return r.fsys.NewObject(ctx, r.path)
}

func (r *remoteFile) Stat(ctx context.Context) (*entry.Attributes, error) {
	if obj, err := r.object(ctx); err == nil {
		attrs := entry.NewAttributes(addressFor(r.path, false), false)
		attrs.Size = obj.Size()
		attrs.ModTime = obj.ModTime(ctx)
		return attrs, nil
	}

	if _, err := r.fsys.List(ctx, r.path); err != nil {
		return nil, convertRemoteError(err)
	}
	return entry.NewAttributes(addressFor(r.path, true), true), nil
}

func (r *remoteFile) Exists(ctx context.Context) (bool, error) {
	_, err := r.Stat(ctx)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (r *remoteFile) IsDir(ctx context.Context) (bool, error) {
	attrs, err := r.Stat(ctx)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return attrs.Dir, nil
}

func (r *remoteFile) Parent() File {
	if r.path == "" {
		return nil
	}
	dir := path.Dir(r.path)
	if dir == "." {
		dir = ""
	}
	return &remoteFile{fsys: r.fsys, path: dir}
}

func (r *remoteFile) Child(name string) File {
	return &remoteFile{fsys: r.fsys, path: cleanRemote(path.Join(r.path, name))}
}

func (r *remoteFile) List(ctx context.Context) ([]File, error) {
	entries, err := r.fsys.List(ctx, r.path)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", r, convertRemoteError(err))
	}

	children := make([]File, 0, len(entries))
	for _, e := range entries {
		children = append(children, &remoteFile{fsys: r.fsys, path: e.Remote()})
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
	return children, nil
}

func (r *remoteFile) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := r.object(ctx)
	if err != nil {
		return nil, convertRemoteError(err)
	}
	return obj.Open(ctx)
}

// Create streams through a pipe into operations.Rcat; Close reports the upload result.
func (r *remoteFile) Create(ctx context.Context, mode WriteMode) (io.WriteCloser, error) {
	var prefix io.ReadCloser
	if mode == Append {
		if obj, err := r.object(ctx); err == nil {
			if prefix, err = obj.Open(ctx); err != nil {
				return nil, errors.Errorf("reading %s for append: %w", r, err)
			}
		}
	}

	pr, pw := io.Pipe()
	w := &remoteWriter{pw: pw, done: make(chan error, 1)}

	go func() {
		var in io.ReadCloser = pr
		if prefix != nil {
			in = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(prefix, pr), pr}
		}
		_, err := operations.Rcat(ctx, r.fsys, r.path, in, time.Now(), nil)
		if prefix != nil {
			_ = prefix.Close()
		}
		if err != nil {
			_ = pr.CloseWithError(err)
		}
		w.done <- err
	}()

	return w, nil
}

type remoteWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *remoteWriter) Write(p []byte) (int, error) { return w.pw.Write(p) }

func (w *remoteWriter) Close() error {
	_ = w.pw.Close()
	return <-w.done
}

func (r *remoteFile) Delete(ctx context.Context) error {
	if obj, err := r.object(ctx); err == nil {
		return obj.Remove(ctx)
	}
	return convertRemoteError(r.fsys.Rmdir(ctx, r.path))
}

func (r *remoteFile) Mkdirs(ctx context.Context) error {
	if _, err := r.object(ctx); err == nil {
		return errors.Errorf("creating directory %s: %w", r, ErrNotDir)
	}
	return r.fsys.Mkdir(ctx, r.path)
}

func (r *remoteFile) SetReadOnly(ctx context.Context) error {
	return errors.Errorf("setting %s read-only: %w", r, ErrNotSupported)
}

func (r *remoteFile) Rename(ctx context.Context, dst File) error {
	d, ok := dst.(*remoteFile)
	if !ok || !SameVolume(r, dst) {
		return errors.Errorf("renaming %s to %s: %w", r, dst.Path(), ErrCrossVolume)
	}

	if _, err := r.object(ctx); err == nil {
		return operations.MoveFile(ctx, r.fsys, r.fsys, d.path, r.path)
	}
	if mover, ok := r.fsys.(fs.DirMover); ok {
		return mover.DirMove(ctx, r.fsys, r.path, d.path)
	}
	return errors.Errorf("renaming directory %s: %w", r, ErrNotSupported)
}

func convertRemoteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrorObjectNotFound) || errors.Is(err, fs.ErrorDirNotFound) {
		return os.ErrNotExist
	}
	return err
}

var _ File = (*remoteFile)(nil)
