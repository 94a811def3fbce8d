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
	"os"
	"strings"

	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// 📦 CopyJob copies or moves a file set into a destination folder
type CopyJob struct {
	Files FileSet
	// Destination is the folder receiving the files. It is created when missing.
	Destination vfs.File
	// DestinationName renames the only file of a single-file set.
	DestinationName string
	// Mode is ModeCopy or ModeMove.
	Mode   Mode
	Policy Policy
	// Exclude holds doublestar patterns matched against relative paths and names.
	Exclude []string
	// AfterComplete runs once every file was handled, with the files actually written.
	AfterComplete func(ctx context.Context, rt *Runtime, written []vfs.File) error
}

func (j *CopyJob) Kind() string { return j.Mode.String() }

// copyStage tells where a single file copy stopped.
type copyStage int

const (
	stageOpen copyStage = iota
	stageCreate
	stageStream
)

// 🏃 Run copies every file of the set, directories first, in set order
func (j *CopyJob) Run(ctx context.Context, rt *Runtime) error {
	if j.Mode != ModeCopy && j.Mode != ModeMove {
		return errors.Errorf("copy job cannot run in %s mode", j.Mode)
	}
	if err := ValidatePatterns(j.Exclude); err != nil {
		return err
	}
	if err := j.Destination.Mkdirs(ctx); err != nil {
		return structural(j.Destination.Path(), err)
	}

	items, err := expand(ctx, rt, j.Files, j.Exclude)
	if err != nil {
		return err
	}

	var (
		written   []vfs.File
		movedDirs []vfs.File
		skipped   []string
		topRel    string
		topDst    vfs.File
	)

	for i := 0; i < len(items); i++ {
		it := items[i]

		if it.top {
			topRel, topDst = it.rel, j.topTarget(it.rel)
		}
		dst := topDst
		if !it.top {
			dst = vfs.Descend(topDst, strings.TrimPrefix(it.rel, topRel+"/"))
		}

		// below a directory the resolver told us to skip
		if below(skipped, it.rel) {
			if !it.attrs.Dir {
				rt.FileDone(FileEvent{Source: it.file.Path(), Destination: dst.Path(), Status: FileSkipped})
			}
			continue
		}

		if err := rt.Checkpoint(); err != nil {
			return err
		}

		if it.top && j.Mode == ModeMove && vfs.SameVolume(it.file, dst) {
			n := subtreeLen(items, i)
			moved, err := j.renameTop(ctx, rt, items[i:i+n], topRel, dst)
			if err != nil {
				return err
			}
			if moved != nil {
				written = append(written, moved...)
				i += n - 1
				continue
			}
		}

		if it.attrs.Dir {
			skip, err := makeDir(ctx, rt, it.file, dst)
			if err != nil {
				return err
			}
			if skip {
				skipped = append(skipped, it.rel)
			} else if j.Mode == ModeMove {
				movedDirs = append(movedDirs, it.file)
			}
			continue
		}

		out, err := j.transfer(ctx, rt, it, dst)
		if err != nil {
			return err
		}
		if out != nil {
			written = append(written, out)
		}
	}

	// sources of a move go bottom-up; directories still holding skipped files stay
	for i := len(movedDirs) - 1; i >= 0; i-- {
		if err := movedDirs[i].Delete(ctx); err != nil {
			rt.logger.Debug().Err(err).Str("dir", movedDirs[i].Path()).Msg("source directory kept")
		}
	}

	if j.AfterComplete != nil {
		return j.AfterComplete(ctx, rt, written)
	}
	return nil
}

func (j *CopyJob) topTarget(rel string) vfs.File {
	if j.DestinationName != "" && len(j.Files.Files) == 1 {
		return j.Destination.Child(j.DestinationName)
	}
	return vfs.Descend(j.Destination, rel)
}

func below(prefixes []string, rel string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// subtreeLen counts the items that belong to the top-level item at i.
func subtreeLen(items []item, i int) int {
	n := 1
	for i+n < len(items) && !items[i+n].top {
		n++
	}
	return n
}

// 🚚 renameTop tries to move a whole top-level item with a single rename. It returns nil
// when the caller has to fall back to copy-then-delete.
func (j *CopyJob) renameTop(ctx context.Context, rt *Runtime, subtree []item, topRel string, dst vfs.File) ([]vfs.File, error) {
	top := subtree[0]

	exists, err := dst.Exists(ctx)
	if err != nil || exists {
		return nil, nil
	}
	if err := vfs.EnsureParent(ctx, dst); err != nil {
		return nil, structural(dst.Path(), err)
	}
	if err := top.file.Rename(ctx, dst); err != nil {
		rt.logger.Debug().Err(err).Str("file", top.file.Path()).Msg("rename failed, copying instead")
		return nil, nil
	}

	moved := []vfs.File{}
	for _, it := range subtree {
		if it.attrs.Dir {
			continue
		}
		target := dst
		if !it.top {
			target = vfs.Descend(dst, strings.TrimPrefix(it.rel, topRel+"/"))
		}
		size := max(it.attrs.Size, 0)
		rt.StartFile(it.rel)
		rt.addBytes(size)
		rt.FileDone(FileEvent{Source: it.file.Path(), Destination: target.Path(), Status: FileTransferred, Bytes: size})
		moved = append(moved, target)
	}
	return moved, nil
}

// 📁 makeDir creates a destination directory. It reports true when the resolver chose to
// skip the directory and everything below it.
func makeDir(ctx context.Context, rt *Runtime, src, dst vfs.File) (bool, error) {
	for {
		err := dst.Mkdirs(ctx)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, vfs.ErrNotDir) {
			return false, structural(dst.Path(), err)
		}

		d, rerr := rt.Resolve(Request{
			Condition:   ConditionNotADirectory,
			Source:      src,
			Destination: dst,
			Err:         err,
			Choices:     []DecisionKind{DecisionSkip, DecisionOverwrite, DecisionCancelAll},
			Fallback:    Skip,
		})
		if rerr != nil {
			return false, rerr
		}
		if d.Kind != DecisionOverwrite {
			return true, nil
		}
		if err := dst.Delete(ctx); err != nil {
			return false, structural(dst.Path(), err)
		}
	}
}

// 📄 transfer copies one file, settling collisions and failures with the resolver. It
// returns the file written, or nil when the file was skipped or failed.
func (j *CopyJob) transfer(ctx context.Context, rt *Runtime, it item, dst vfs.File) (vfs.File, error) {
	rt.StartFile(it.rel)

	target, err := collide(ctx, rt, j.Policy, it.file, dst)
	if err != nil {
		return nil, err
	}
	if target == nil {
		rt.FileDone(FileEvent{Source: it.file.Path(), Destination: dst.Path(), Status: FileSkipped})
		return nil, nil
	}
	if vfs.SameVolume(it.file, target) && it.file.Path() == target.Path() {
		rt.FileDone(FileEvent{
			Source:      it.file.Path(),
			Destination: target.Path(),
			Status:      FileSkipped,
			Err:         errors.New("source and destination are the same file"),
		})
		return nil, nil
	}

	for {
		n, stage, err := copyFile(ctx, rt, it.file, target)
		if err == nil {
			rt.FileDone(FileEvent{Source: it.file.Path(), Destination: target.Path(), Status: FileTransferred, Bytes: n})
			break
		}

		if stage == stageStream {
			discard(ctx, rt, target)
		}
		if errors.Is(err, ErrCancelled) {
			return nil, err
		}

		cond := ConditionTransientIO
		if stage == stageOpen {
			cond = ConditionUnreadableSource
		}
		d, rerr := rt.Resolve(Request{
			Condition:   cond,
			Source:      it.file,
			Destination: target,
			Err:         err,
			Choices:     []DecisionKind{DecisionSkip, DecisionRetry, DecisionCancelAll},
			Fallback:    Skip,
		})
		if rerr != nil {
			return nil, rerr
		}
		if d.Kind != DecisionRetry {
			rt.FileDone(FileEvent{Source: it.file.Path(), Destination: target.Path(), Status: FileFailed, Err: err})
			return nil, nil
		}
	}

	if j.Mode == ModeMove {
		if err := it.file.Delete(ctx); err != nil {
			rt.logger.Warn().Err(err).Str("file", it.file.Path()).Msg("moved file could not be removed from its source")
		}
	}
	return target, nil
}

// copyFile streams src into dst and reports how far it got.
func copyFile(ctx context.Context, rt *Runtime, src, dst vfs.File) (int64, copyStage, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return 0, stageOpen, errors.Errorf("opening %s: %w", src.Path(), err)
	}
	defer r.Close()

	if err := vfs.EnsureParent(ctx, dst); err != nil {
		return 0, stageCreate, errors.Errorf("creating parent of %s: %w", dst.Path(), err)
	}
	w, err := dst.Create(ctx, vfs.Truncate)
	if err != nil {
		return 0, stageCreate, errors.Errorf("creating %s: %w", dst.Path(), err)
	}

	n, err := rt.Copy(w, r)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = errors.Errorf("closing %s: %w", dst.Path(), cerr)
	}
	return n, stageStream, err
}

// discard removes what was written of an abandoned file.
func discard(ctx context.Context, rt *Runtime, f vfs.File) {
	if err := f.Delete(ctx); err != nil && !os.IsNotExist(err) {
		rt.logger.Warn().Err(err).Str("file", f.Path()).Msg("partial file left behind")
		return
	}
	rt.logger.Debug().Str("file", f.Path()).Msg("removed partial file")
}
