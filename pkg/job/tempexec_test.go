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

package job_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/vfsjob/gen/mockery"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/vfs"
)

// 🧪 TestNewTempDestination tests that every destination gets a directory of its own
func TestNewTempDestination(t *testing.T) {
	tmp := vfs.NewLocal(afero.NewMemMapFs(), "/tmp")

	a := job.NewTempDestination(tmp, "report.pdf")
	b := job.NewTempDestination(tmp, "report.pdf")

	assert.Equal(t, "report.pdf", a.Name())
	assert.True(t, strings.HasPrefix(a.Parent().Name(), "vfsjob-"))
	assert.Equal(t, "/tmp", a.Parent().Parent().Path())
	assert.NotEqual(t, a.Path(), b.Path())
}

// 🧪 TestTempExecJob tests that the staged copy is read-only before the opener sees it
func TestTempExecJob(t *testing.T) {
	ctx := testContext(t)
	fsys := afero.NewMemMapFs()
	src := sampleTree(t, ctx, fsys)
	dst := job.NewTempDestination(vfs.NewLocal(fsys, "/tmp"), "a.txt")
	writeFile(t, ctx, dst, "stale")

	// the collision must be settled without asking
	resolver := mockery.NewMockResolver_job(t)

	opener := mockery.NewMockOpener_opener(t)
	opener.EXPECT().Open(mock.Anything, filepath.FromSlash(dst.Path())).
		RunAndReturn(func(ctx context.Context, path string) error {
			attrs, err := dst.Stat(ctx)
			if assert.NoError(t, err) {
				assert.Zero(t, attrs.EffectivePermissions()&0o222, "opened before read-only")
			}
			return nil
		}).Once()

	o := run(t, ctx, job.NewEngine(job.Options{Resolver: resolver}), &job.TempExecJob{
		Source:      src.Child("a.txt"),
		Destination: dst,
		Opener:      opener,
	})

	require.NoError(t, o.Err)
	assert.Equal(t, job.Summary{Files: 1, Transferred: 1, Bytes: 10}, o.Summary)
	assert.Equal(t, "0123456789", readFile(t, ctx, dst))
}

// 🧪 TestTempExecJobOpenerFailure tests that a failing opener does not fail the job
func TestTempExecJobOpenerFailure(t *testing.T) {
	ctx := testContext(t)
	fsys := afero.NewMemMapFs()
	src := sampleTree(t, ctx, fsys)
	dst := job.NewTempDestination(vfs.NewLocal(fsys, "/tmp"), "a.txt")

	opener := mockery.NewMockOpener_opener(t)
	opener.EXPECT().Open(mock.Anything, mock.Anything).Return(errors.New("no application")).Once()

	o := run(t, ctx, job.NewEngine(job.Options{}), &job.TempExecJob{Source: src.Child("a.txt"), Destination: dst, Opener: opener})

	require.NoError(t, o.Err)
	assert.Equal(t, job.StateCompleted, o.State)
}

// 🧪 TestTempExecJobDirectory tests that only single files can be staged
func TestTempExecJobDirectory(t *testing.T) {
	ctx := testContext(t)
	fsys := afero.NewMemMapFs()
	src := sampleTree(t, ctx, fsys)

	// never called
	opener := mockery.NewMockOpener_opener(t)

	o := run(t, ctx, job.NewEngine(job.Options{}), &job.TempExecJob{
		Source:      src.Child("dir"),
		Destination: job.NewTempDestination(vfs.NewLocal(fsys, "/tmp"), "dir"),
		Opener:      opener,
	})

	assert.Equal(t, job.StateFailed, o.State)
	assert.True(t, job.IsStructural(o.Err))
	assert.ErrorIs(t, o.Err, vfs.ErrIsDir)
}

// 🧪 TestTempExecJobMissingSource tests that a source that cannot be staged fails the job without opening anything
func TestTempExecJobMissingSource(t *testing.T) {
	ctx := testContext(t)
	fsys := afero.NewMemMapFs()
	src := sampleTree(t, ctx, fsys)
	opener := mockery.NewMockOpener_opener(t)

	o := run(t, ctx, job.NewEngine(job.Options{}), &job.TempExecJob{
		Source:      &brokenFile{File: src.Child("a.txt"), openErr: errors.New("permission denied")},
		Destination: job.NewTempDestination(vfs.NewLocal(fsys, "/tmp"), "a.txt"),
		Opener:      opener,
	})

	assert.Equal(t, job.StateFailed, o.State)
	assert.True(t, job.IsStructural(o.Err))
	assert.Equal(t, int64(1), o.Summary.Failed)
}
