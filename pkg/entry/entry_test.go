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

package entry_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/vfsjob/pkg/entry"
	"gitlab.com/tozd/go/errors"
)

func TestDepth(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{path: "a.txt", want: 0},
		{path: "dir/", want: 0},
		{path: "dir/b.txt", want: 1},
		{path: "dir/sub/", want: 1},
		{path: "a/b/c.txt", want: 2},
		{path: "a/b/c/", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := entry.Depth(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepthEmptyPath(t *testing.T) {
	_, err := entry.Depth("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entry.ErrMalformedPath), "should be a malformed path")
}

func TestDepthOfChildIsOneMore(t *testing.T) {
	for _, p := range []string{"a", "a.txt", "a/b", "x/y/z.tar.gz", "deep/er/than/that"} {
		d, err := entry.Depth(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 0)

		child, err := entry.Depth(p + "/child")
		require.NoError(t, err)
		assert.Equal(t, d+1, child, "child of %q", p)
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "c.txt", entry.Name(strings.Join([]string{"a", "b", "c.txt"}, "/")))
	assert.Equal(t, "b", entry.Name("a/b/"))
	assert.Equal(t, "top", entry.Name("top"))
	assert.Equal(t, "top", entry.Name("top/"))
	assert.Equal(t, "", entry.Name(""))
}

func TestNewAddress(t *testing.T) {
	_, err := entry.NewAddress("")
	assert.True(t, errors.Is(err, entry.ErrMalformedPath))

	_, err = entry.NewAddress("/etc/passwd")
	assert.True(t, errors.Is(err, entry.ErrMalformedPath))

	for _, p := range []string{"../../escaped.txt", "docs/../../x", "docs/..", "./a.txt", "a/./b/"} {
		_, err = entry.NewAddress(p)
		assert.True(t, errors.Is(err, entry.ErrMalformedPath), "%q should not address an entry", p)
	}

	_, err = entry.NewAddress("..hidden/notes..txt")
	assert.NoError(t, err, "dots inside a name are fine")

	addr, err := entry.NewAddress("photos/2024/")
	require.NoError(t, err)
	assert.True(t, addr.IsDir())
	assert.Equal(t, 1, addr.Depth())
	assert.Equal(t, "2024", addr.Name())

	parent, ok := addr.Parent()
	require.True(t, ok)
	assert.Equal(t, "photos/", parent.Path())

	_, ok = parent.Parent()
	assert.False(t, ok, "top-level entries have no parent")

	child, err := addr.Child("img.jpg", false)
	require.NoError(t, err)
	assert.Equal(t, "photos/2024/img.jpg", child.Path())
	assert.Equal(t, 2, child.Depth())

	_, err = child.Child("nope", false)
	assert.True(t, errors.Is(err, entry.ErrMalformedPath), "files have no children")
}

func TestEffectivePermissions(t *testing.T) {
	file := entry.NewAttributes(entry.MustAddress("a.txt"), false)
	dir := entry.NewAttributes(entry.MustAddress("d/"), true)

	assert.Equal(t, entry.DefaultFilePermissions, file.EffectivePermissions())
	assert.Equal(t, entry.DefaultDirectoryPermissions, dir.EffectivePermissions())
	assert.False(t, file.HasPermissions())

	file.SetPermissions(fs.ModeSetuid | 0o600)
	assert.Equal(t, fs.FileMode(0o600), file.EffectivePermissions(), "only permission bits are kept")
	assert.True(t, file.HasPermissions())

	file.ClearPermissions()
	assert.Equal(t, entry.DefaultFilePermissions, file.EffectivePermissions())

	assert.True(t, dir.Mode().IsDir())
	assert.Equal(t, entry.SizeUnknown, dir.Size)
}
