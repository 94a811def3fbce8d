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
	"bytes"
	"context"
	"io"

	"github.com/spf13/afero"
	"github.com/walteh/vfsjob/pkg/archive"
	"github.com/walteh/vfsjob/pkg/entry"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// 🗜️ ArchiveJob writes a file set into a new archive
type ArchiveJob struct {
	Files FileSet
	// Destination is the archive file to write.
	Destination vfs.File
	// Format defaults to the format matching the destination's extension.
	Format  *archive.Format
	Comment string
	Exclude []string
	// Policy applies when the archive already exists.
	Policy Policy
}

func (j *ArchiveJob) Kind() string { return ModePack.String() }

// 🏃 Run expands the set and adds every entry as a member named by its relative path.
// Failures writing the archive itself are structural; the partial archive is removed.
// Sources are read in full before their member is written.
func (j *ArchiveJob) Run(ctx context.Context, rt *Runtime) error {
	if err := ValidatePatterns(j.Exclude); err != nil {
		return err
	}

	format := j.Format
	if format == nil {
		f, err := archive.ForName(j.Destination.Name())
		if err != nil {
			return err
		}
		format = f
	}

	comment := j.Comment
	if comment != "" && !format.SupportsComment {
		rt.logger.Debug().Str("format", format.Name).Msg("format has no comments, dropping comment")
		comment = ""
	}

	dst, err := collide(ctx, rt, j.Policy, nil, j.Destination)
	if err != nil {
		return err
	}
	if dst == nil {
		rt.logger.Info().Str("archive", j.Destination.Path()).Msg("archive exists, skipped")
		return nil
	}

	items, err := expand(ctx, rt, j.Files, j.Exclude)
	if err != nil {
		return err
	}

	if err := vfs.EnsureParent(ctx, dst); err != nil {
		return structural(dst.Path(), err)
	}
	w, err := dst.Create(ctx, vfs.Truncate)
	if err != nil {
		return structural(dst.Path(), err)
	}

	sess, err := format.NewArchiver().Begin(w, comment)
	if err != nil {
		_ = w.Close()
		discard(ctx, rt, dst)
		return structural(dst.Path(), err)
	}

	if err := j.addAll(ctx, rt, sess, dst, items); err != nil {
		_ = sess.Close()
		_ = w.Close()
		discard(ctx, rt, dst)
		return err
	}

	if err := sess.Close(); err != nil {
		_ = w.Close()
		discard(ctx, rt, dst)
		return structural(dst.Path(), err)
	}
	if err := w.Close(); err != nil {
		discard(ctx, rt, dst)
		return structural(dst.Path(), err)
	}
	return nil
}

func (j *ArchiveJob) addAll(ctx context.Context, rt *Runtime, sess archive.Session, dst vfs.File, items []item) error {
	for _, it := range items {
		if err := rt.Checkpoint(); err != nil {
			return err
		}

		// the base itself has no member name
		if it.rel == "" {
			continue
		}
		// the archive may sit inside the tree it is made of
		if vfs.SameVolume(it.file, dst) && it.file.Path() == dst.Path() {
			rt.FileDone(FileEvent{Source: it.file.Path(), Status: FileSkipped})
			continue
		}

		attrs, err := member(it)
		if err != nil {
			return structural(it.file.Path(), err)
		}

		if it.attrs.Dir {
			if err := sess.AddEntry(attrs, nil); err != nil {
				return structural(dst.Path(), err)
			}
			continue
		}

		rt.StartFile(it.rel)
		sp, err := j.read(ctx, rt, it)
		if err != nil {
			return err
		}
		if sp == nil {
			continue
		}

		attrs.Size = sp.size
		err = sess.AddEntry(attrs, paced{rt: rt, r: sp})
		sp.cleanup()
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				return err
			}
			return structural(dst.Path(), err)
		}
		rt.FileDone(FileEvent{
			Source:      it.file.Path(),
			Destination: dst.Path() + "!/" + attrs.Address.Path(),
			Status:      FileTransferred,
			Bytes:       sp.size,
		})
	}
	return nil
}

// 📥 read takes in a whole source before its member is started, so that a source failing
// part way never leaves half a member behind. It asks the resolver when the source cannot
// be read and returns nil when the file is to be left out.
func (j *ArchiveJob) read(ctx context.Context, rt *Runtime, it item) (*spooled, error) {
	r, err := it.file.Open(ctx)
	if err == nil {
		var sp *spooled
		sp, err = spool(rt, sourceReader{r: r}, it.attrs.Size)
		_ = r.Close()
		if err == nil {
			return sp, nil
		}
		var rf readFailure
		if !errors.As(err, &rf) {
			if errors.Is(err, ErrCancelled) {
				return nil, err
			}
			return nil, structural(it.file.Path(), err)
		}
	}

	_, rerr := rt.Resolve(Request{
		Condition: ConditionUnreadableSource,
		Source:    it.file,
		Err:       err,
		Choices:   []DecisionKind{DecisionSkip, DecisionCancelAll},
		Fallback:  Skip,
	})
	if rerr != nil {
		return nil, rerr
	}
	rt.FileDone(FileEvent{Source: it.file.Path(), Status: FileFailed, Err: err})
	return nil, nil
}

// spoolInMemory is the largest source kept in memory; bigger ones go to a temporary file.
const spoolInMemory = 1 << 20

// spooled is a source read to the end, ready to become a member.
type spooled struct {
	io.Reader
	size    int64
	cleanup func()
}

func spool(rt *Runtime, r io.Reader, size int64) (*spooled, error) {
	if size >= 0 && size <= spoolInMemory {
		buf := bytes.NewBuffer(make([]byte, 0, size))
		n, err := rt.Copy(buf, r)
		if err != nil {
			return nil, err
		}
		return &spooled{Reader: buf, size: n, cleanup: func() {}}, nil
	}

	osfs := afero.NewOsFs()
	tmp, err := afero.TempFile(osfs, "", "vfsjob-member-*")
	if err != nil {
		return nil, errors.Errorf("spooling member: %w", err)
	}
	remove := func() {
		_ = tmp.Close()
		_ = osfs.Remove(tmp.Name())
	}

	n, err := rt.Copy(tmp, r)
	if err != nil {
		remove()
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		remove()
		return nil, errors.Errorf("rewinding spooled member: %w", err)
	}
	return &spooled{Reader: tmp, size: n, cleanup: remove}, nil
}

// readFailure marks an error that came from the source and not from where it was going.
type readFailure struct {
	err error
}

func (f readFailure) Error() string { return f.err.Error() }
func (f readFailure) Unwrap() error { return f.err }

type sourceReader struct {
	r io.Reader
}

func (s sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		err = readFailure{err: err}
	}
	return n, err
}

// paced runs a checkpoint between the chunks of a stream that was already counted.
type paced struct {
	rt *Runtime
	r  io.Reader
}

func (p paced) Read(b []byte) (int, error) {
	if len(b) > p.rt.chunkSize {
		b = b[:p.rt.chunkSize]
	}
	n, err := p.r.Read(b)
	if err != nil {
		return n, err
	}
	if cerr := p.rt.Checkpoint(); cerr != nil {
		return n, cerr
	}
	return n, nil
}

// member returns the archive attributes of an item, addressed by its relative path.
func member(it item) (*entry.Attributes, error) {
	addr, err := entry.JoinAddress(it.attrs.Dir, it.rel)
	if err != nil {
		return nil, err
	}
	attrs := it.attrs.Clone()
	attrs.Address = addr
	return attrs, nil
}
