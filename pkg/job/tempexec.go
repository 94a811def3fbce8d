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

package job

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/walteh/vfsjob/pkg/opener"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// NewTempDestination returns a fresh path for name below tempDir, in a directory of its own.
func NewTempDestination(tempDir vfs.File, name string) vfs.File {
	return tempDir.Child("vfsjob-" + uuid.NewString()).Child(name)
}

// 🚀 TempExecJob stages one file in a temporary location and opens it with the default
// application once it is read-only
type TempExecJob struct {
	Source vfs.File
	// Destination is usually made with NewTempDestination. An existing file is overwritten.
	Destination vfs.File
	// Opener defaults to opener.Default.
	Opener opener.Opener
}

func (j *TempExecJob) Kind() string { return "exec" }

// 🏃 Run copies without ever asking the resolver, then marks the copy read-only, then opens it.
func (j *TempExecJob) Run(ctx context.Context, rt *Runtime) error {
	dir, err := j.Source.IsDir(ctx)
	if err != nil {
		return structural(j.Source.Path(), err)
	}
	if dir {
		return structural(j.Source.Path(), vfs.ErrIsDir)
	}
	parent := j.Destination.Parent()
	if parent == nil {
		return structural(j.Destination.Path(), errors.New("temporary destination needs a parent directory"))
	}

	defer rt.headless()()

	copyJob := &CopyJob{
		Files:           NewFileSet(nil, j.Source),
		Destination:     parent,
		DestinationName: j.Destination.Name(),
		Mode:            ModeCopy,
		Policy:          PolicyOverwrite,
		AfterComplete:   j.launch,
	}
	return copyJob.Run(ctx, rt)
}

func (j *TempExecJob) launch(ctx context.Context, rt *Runtime, written []vfs.File) error {
	if len(written) != 1 {
		return structural(j.Source.Path(), errors.New("file was not staged"))
	}
	staged := written[0]

	if err := staged.SetReadOnly(ctx); err != nil {
		return structural(staged.Path(), err)
	}

	o := j.Opener
	if o == nil {
		o = opener.Default()
	}
	if err := o.Open(ctx, filepath.FromSlash(staged.Path())); err != nil {
		rt.logger.Warn().Err(err).Str("file", staged.Path()).Msg("opening staged file failed")
	}
	return nil
}
