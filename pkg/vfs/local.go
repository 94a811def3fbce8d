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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/walteh/vfsjob/pkg/entry"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(DefaultScheme, func(ctx context.Context, location string) (File, error) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, err
		}
		return Local(abs), nil
	})
}

// 💾 localFile is a File on an afero filesystem
type localFile struct {
	fs   afero.Fs
	path string
}

// Local returns a File for path on the operating system's filesystem.
func Local(path string) File {
	return NewLocal(afero.NewOsFs(), path)
}

// NewLocal returns a File for path on fsys. Tests typically pass an afero.MemMapFs.
func NewLocal(fsys afero.Fs, path string) File {
	return &localFile{fs: fsys, path: filepath.Clean(path)}
}

func (f *localFile) Kind() Kind { return KindLocal }

func (f *localFile) Volume() string {
	if _, ok := f.fs.(*afero.OsFs); ok {
		return "file://" + filepath.VolumeName(f.path)
	}
	return fmt.Sprintf("afero:%p", f.fs)
}

func (f *localFile) Path() string { return filepath.ToSlash(f.path) }
func (f *localFile) Name() string { return filepath.Base(f.path) }

func (f *localFile) String() string { return f.path }

func (f *localFile) Stat(ctx context.Context) (*entry.Attributes, error) {
	info, err := f.fs.Stat(f.path)
	if err != nil {
		return nil, err
	}
	return attributesFromInfo(f.Path(), info), nil
}

func (f *localFile) Exists(ctx context.Context) (bool, error) {
	_, err := f.fs.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking %s: %w", f.path, err)
}

func (f *localFile) IsDir(ctx context.Context) (bool, error) {
	info, err := f.fs.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Errorf("checking %s: %w", f.path, err)
	}
	return info.IsDir(), nil
}

func (f *localFile) Parent() File {
	dir := filepath.Dir(f.path)
	if dir == f.path {
		return nil
	}
	return &localFile{fs: f.fs, path: dir}
}

func (f *localFile) Child(name string) File {
	return &localFile{fs: f.fs, path: filepath.Join(f.path, name)}
}

func (f *localFile) List(ctx context.Context) ([]File, error) {
	infos, err := afero.ReadDir(f.fs, f.path)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", f.path, err)
	}

	children := make([]File, 0, len(infos))
	for _, info := range infos {
		children = append(children, f.Child(info.Name()))
	}
	return children, nil
}

func (f *localFile) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := f.fs.Open(f.path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err == nil && info.IsDir() {
		_ = file.Close()
		return nil, errors.Errorf("opening %s: %w", f.path, ErrIsDir)
	}
	return file, nil
}

func (f *localFile) Create(ctx context.Context, mode WriteMode) (io.WriteCloser, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if mode == Append {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	return f.fs.OpenFile(f.path, flag, entry.DefaultFilePermissions)
}

func (f *localFile) Delete(ctx context.Context) error {
	return f.fs.Remove(f.path)
}

func (f *localFile) Mkdirs(ctx context.Context) error {
	info, err := f.fs.Stat(f.path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return errors.Errorf("creating directory %s: %w", f.path, ErrNotDir)
	}
	if !os.IsNotExist(err) {
		return errors.Errorf("checking %s: %w", f.path, err)
	}
	return f.fs.MkdirAll(f.path, entry.DefaultDirectoryPermissions)
}

func (f *localFile) SetReadOnly(ctx context.Context) error {
	info, err := f.fs.Stat(f.path)
	if err != nil {
		return err
	}
	return f.fs.Chmod(f.path, info.Mode().Perm()&^0o222)
}

func (f *localFile) Rename(ctx context.Context, dst File) error {
	d, ok := dst.(*localFile)
	if !ok || !SameVolume(f, dst) {
		return errors.Errorf("renaming %s to %s: %w", f.path, dst.Path(), ErrCrossVolume)
	}
	return f.fs.Rename(f.path, d.path)
}

var _ File = (*localFile)(nil)
