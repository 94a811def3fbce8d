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

package vfs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/rclone/rclone/backend/local"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/vfsjob/pkg/entry"
	"github.com/walteh/vfsjob/pkg/vfs"
)

func writeFile(t *testing.T, ctx context.Context, f vfs.File, content string) {
	t.Helper()
	require.NoError(t, vfs.EnsureParent(ctx, f))
	w, err := f.Create(ctx, vfs.Truncate)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readFile(t *testing.T, ctx context.Context, f vfs.File) string {
	t.Helper()
	r, err := f.Open(ctx)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestLocalBasics(t *testing.T) {
	ctx := context.Background()
	root := vfs.NewLocal(afero.NewMemMapFs(), "/src")

	writeFile(t, ctx, root.Child("a.txt"), "0123456789")
	writeFile(t, ctx, vfs.Descend(root, "dir/b.txt"), "hello")

	attrs, err := root.Child("a.txt").Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), attrs.Size)
	assert.False(t, attrs.Dir)
	assert.Equal(t, "src/a.txt", attrs.Address.Path())

	isDir, err := root.Child("dir").IsDir(ctx)
	require.NoError(t, err)
	assert.True(t, isDir)

	exists, err := root.Child("missing").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = root.Child("missing").Stat(ctx)
	assert.True(t, os.IsNotExist(err))

	children, err := root.List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"a.txt", "dir"}, names)
}

func TestLocalCreateModes(t *testing.T) {
	ctx := context.Background()
	f := vfs.NewLocal(afero.NewMemMapFs(), "/out/file.txt")

	writeFile(t, ctx, f, "abc")

	w, err := f.Create(ctx, vfs.Append)
	require.NoError(t, err)
	_, err = io.WriteString(w, "def")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "abcdef", readFile(t, ctx, f))

	writeFile(t, ctx, f, "x")
	assert.Equal(t, "x", readFile(t, ctx, f))
}

func TestLocalMkdirs(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	dir := vfs.NewLocal(fsys, "/a/b/c")

	require.NoError(t, dir.Mkdirs(ctx))
	require.NoError(t, dir.Mkdirs(ctx), "existing directory is not an error")

	file := vfs.NewLocal(fsys, "/a/file")
	writeFile(t, ctx, file, "data")
	err := file.Mkdirs(ctx)
	assert.ErrorIs(t, err, vfs.ErrNotDir)
}

func TestLocalOpenDirectory(t *testing.T) {
	ctx := context.Background()
	dir := vfs.NewLocal(afero.NewMemMapFs(), "/d")
	require.NoError(t, dir.Mkdirs(ctx))

	_, err := dir.Open(ctx)
	assert.ErrorIs(t, err, vfs.ErrIsDir)
}

func TestLocalSetReadOnly(t *testing.T) {
	ctx := context.Background()
	f := vfs.NewLocal(afero.NewMemMapFs(), "/ro.txt")
	writeFile(t, ctx, f, "data")

	require.NoError(t, f.SetReadOnly(ctx))

	attrs, err := f.Stat(ctx)
	require.NoError(t, err)
	assert.Zero(t, attrs.EffectivePermissions()&0o222)
}

func TestLocalRenameAcrossVolumes(t *testing.T) {
	ctx := context.Background()
	a := vfs.NewLocal(afero.NewMemMapFs(), "/a.txt")
	b := vfs.NewLocal(afero.NewMemMapFs(), "/b.txt")
	writeFile(t, ctx, a, "x")

	assert.False(t, vfs.SameVolume(a, b))
	assert.ErrorIs(t, a.Rename(ctx, b), vfs.ErrCrossVolume)
}

func TestParentChain(t *testing.T) {
	f := vfs.NewLocal(afero.NewMemMapFs(), "/a/b")
	p := f.Parent()
	require.NotNil(t, p)
	assert.Equal(t, "/a", p.Path())
	require.NotNil(t, p.Parent())
	assert.Nil(t, p.Parent().Parent())
}

func TestWalk(t *testing.T) {
	ctx := context.Background()
	root := vfs.NewLocal(afero.NewMemMapFs(), "/src")
	writeFile(t, ctx, root.Child("a.txt"), "a")
	writeFile(t, ctx, vfs.Descend(root, "dir/b.txt"), "b")
	writeFile(t, ctx, vfs.Descend(root, "skip/c.txt"), "c")

	var visited []string
	err := vfs.Walk(ctx, root, func(f vfs.File, attrs *entry.Attributes) error {
		rel, err := vfs.Rel(root, f)
		if err != nil {
			return err
		}
		visited = append(visited, rel)
		if attrs.Dir && f.Name() == "skip" {
			return vfs.SkipDir
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a.txt", "dir", "dir/b.txt", "skip"}, visited)
}

func TestRel(t *testing.T) {
	fsys := afero.NewMemMapFs()
	base := vfs.NewLocal(fsys, "/base")

	rel, err := vfs.Rel(base, vfs.NewLocal(fsys, "/base/x/y.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x/y.txt", rel)

	_, err = vfs.Rel(base, vfs.NewLocal(fsys, "/other/y.txt"))
	assert.Error(t, err)

	_, err = vfs.Rel(base, vfs.NewLocal(afero.NewMemMapFs(), "/base/y.txt"))
	assert.ErrorIs(t, err, vfs.ErrCrossVolume)
}

func TestWithin(t *testing.T) {
	out := vfs.NewLocal(afero.NewMemMapFs(), "/home/user/out")

	f, err := vfs.Within(out, "photos/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/out/photos/img.jpg", f.Path())

	for _, rel := range []string{"../../escaped.txt", "photos/../../x", "./a.txt", ".."} {
		_, err := vfs.Within(out, rel)
		assert.ErrorIs(t, err, vfs.ErrEscapesRoot, rel)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := vfs.Resolve(ctx, filepath.Join(dir, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, vfs.KindLocal, f.Kind())

	f, err = vfs.Resolve(ctx, "file://"+dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir), f.Path())

	_, err = vfs.Resolve(ctx, "nope://x")
	assert.Error(t, err)

	assert.Contains(t, vfs.Schemes(), vfs.RemoteScheme)
}

func TestSplitLocation(t *testing.T) {
	scheme, rest := vfs.SplitLocation("rclone://gdrive:backup")
	assert.Equal(t, "rclone", scheme)
	assert.Equal(t, "gdrive:backup", rest)

	scheme, rest = vfs.SplitLocation("/tmp/x")
	assert.Equal(t, vfs.DefaultScheme, scheme)
	assert.Equal(t, "/tmp/x", rest)
}

func TestRemoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	root, err := vfs.NewRemote(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, vfs.KindRemote, root.Kind())

	f := vfs.Descend(root, "nested/file.txt")
	require.NoError(t, vfs.EnsureParent(ctx, f))
	writeFile(t, ctx, f, "remote data")

	on, err := os.ReadFile(filepath.Join(dir, "nested", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "remote data", string(on))

	assert.Equal(t, "remote data", readFile(t, ctx, f))

	attrs, err := f.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len("remote data")), attrs.Size)

	isDir, err := root.Child("nested").IsDir(ctx)
	require.NoError(t, err)
	assert.True(t, isDir)

	exists, err := root.Child("missing.txt").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoteAppendAndRename(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	root, err := vfs.NewRemote(ctx, dir)
	require.NoError(t, err)

	f := root.Child("log.txt")
	writeFile(t, ctx, f, "one,")

	w, err := f.Create(ctx, vfs.Append)
	require.NoError(t, err)
	_, err = io.WriteString(w, "two")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "one,two", readFile(t, ctx, f))

	dst := root.Child("moved.txt")
	require.NoError(t, f.Rename(ctx, dst))

	exists, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "one,two", readFile(t, ctx, dst))

	children, err := root.List(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "moved.txt", children[0].Name())
}

func TestRemoteMkdirsOverFile(t *testing.T) {
	ctx := context.Background()
	root, err := vfs.NewRemote(ctx, t.TempDir())
	require.NoError(t, err)

	f := root.Child("plain")
	writeFile(t, ctx, f, "x")

	assert.ErrorIs(t, f.Mkdirs(ctx), vfs.ErrNotDir)
	assert.ErrorIs(t, f.SetReadOnly(ctx), vfs.ErrNotSupported)
	assert.True(t, strings.HasSuffix(f.Path(), "plain"))
}
