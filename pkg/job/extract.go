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
	"strings"

	"github.com/walteh/vfsjob/pkg/archive"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// 📤 ExtractJob extracts or tests archive entries, one bridge per entry
type ExtractJob struct {
	Archive *archive.Archive
	// Entries selects entries by path; a directory path selects everything below it.
	// Nil selects the whole archive.
	Entries []string
	// Destination is the folder entries are extracted into. Unused in ModeTest.
	Destination vfs.File
	// Mode is ModeExtract or ModeTest.
	Mode   Mode
	Policy Policy
}

func (j *ExtractJob) Kind() string { return j.Mode.String() }

// 🏃 Run goes through the selected entries in archive order.
func (j *ExtractJob) Run(ctx context.Context, rt *Runtime) error {
	if j.Mode != ModeExtract && j.Mode != ModeTest {
		return errors.Errorf("extract job cannot run in %s mode", j.Mode)
	}

	table := j.Archive.Entries()
	indices, err := selectEntries(table, j.Entries)
	if err != nil {
		return err
	}

	var files, bytes int64
	for _, idx := range indices {
		if a := table[idx].Attributes; !a.Dir {
			files++
			bytes += max(a.Size, 0)
		}
	}
	rt.AddTotals(files, bytes)

	if j.Mode == ModeExtract {
		if err := j.Destination.Mkdirs(ctx); err != nil {
			return structural(j.Destination.Path(), err)
		}
	}

	var skipped []string
	for _, idx := range indices {
		e := table[idx]
		p := strings.TrimSuffix(e.Path(), "/")

		if below(skipped, p) {
			if !e.Attributes.Dir {
				rt.FileDone(FileEvent{Source: e.Path(), Status: FileSkipped})
			}
			continue
		}
		if err := rt.Checkpoint(); err != nil {
			return err
		}

		if e.Attributes.Dir {
			if j.Mode == ModeTest {
				continue
			}
			dst, err := vfs.Within(j.Destination, p)
			if err != nil {
				rt.logger.Warn().Err(err).Str("entry", e.Path()).Msg("directory entry left out")
				skipped = append(skipped, p)
				continue
			}
			src, _ := j.Archive.Lookup(ctx, e.Path())
			skip, err := makeDir(ctx, rt, src, dst)
			if err != nil {
				return err
			}
			if skip {
				skipped = append(skipped, p)
			}
			continue
		}

		rt.StartFile(e.Path())
		if j.Mode == ModeTest {
			err = j.test(ctx, rt, table, idx)
		} else {
			err = j.extract(ctx, rt, table, idx)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// test reads one entry through the decoder. The verified content goes to a counting sink
// so that the test can be paused or cancelled between chunks.
func (j *ExtractJob) test(ctx context.Context, rt *Runtime, table archive.EntryTable, idx int) error {
	e := table[idx]
	for {
		seen := &discardCounter{}
		bridge := archive.NewBridge(ctx, table, nil, e.Path(), archive.WithSink(rt.Writer(seen)))
		err := j.Archive.Extract(ctx, []int{idx}, archive.AskTest, bridge)
		if err == nil {
			rt.FileDone(FileEvent{Source: e.Path(), Status: FileTransferred, Bytes: seen.n})
			return nil
		}
		if errors.Is(err, ErrCancelled) {
			return err
		}

		retry, rerr := j.failed(rt, e, nil, err)
		if rerr != nil || !retry {
			return rerr
		}
	}
}

// extract writes one entry below the destination, settling collisions first.
func (j *ExtractJob) extract(ctx context.Context, rt *Runtime, table archive.EntryTable, idx int) error {
	e := table[idx]
	dst, err := vfs.Within(j.Destination, e.Path())
	if err != nil {
		rt.FileDone(FileEvent{Source: e.Path(), Status: FileFailed, Err: err})
		return nil
	}

	src, _ := j.Archive.Lookup(ctx, e.Path())
	target, err := collide(ctx, rt, j.Policy, src, dst)
	if err != nil {
		return err
	}
	if target == nil {
		rt.FileDone(FileEvent{Source: e.Path(), Destination: dst.Path(), Status: FileSkipped})
		return nil
	}

	for {
		bridge := archive.NewBridge(ctx, table, j.Destination, e.Path(),
			archive.WithTarget(target),
			archive.WithStreamWrapper(rt.Writer),
		)
		err := j.Archive.Extract(ctx, []int{idx}, archive.AskExtract, bridge)
		if err == nil {
			rt.FileDone(FileEvent{
				Source:      e.Path(),
				Destination: target.Path(),
				Status:      FileTransferred,
				Bytes:       max(e.Attributes.Size, 0),
			})
			return nil
		}

		if w := bridge.Written(); w != nil {
			discard(ctx, rt, w)
		}
		if errors.Is(err, ErrCancelled) {
			return err
		}

		retry, rerr := j.failed(rt, e, target, err)
		if rerr != nil || !retry {
			return rerr
		}
	}
}

// failed asks the resolver about a broken entry and reports whether to retry it.
func (j *ExtractJob) failed(rt *Runtime, e *archive.Entry, target vfs.File, err error) (bool, error) {
	d, rerr := rt.Resolve(Request{
		Condition:   ConditionTransientIO,
		Destination: target,
		Err:         errors.Errorf("entry %s: %w", e.Path(), err),
		Choices:     []DecisionKind{DecisionSkip, DecisionRetry, DecisionCancelAll},
		Fallback:    Skip,
	})
	if rerr != nil {
		return false, rerr
	}
	if d.Kind == DecisionRetry {
		return true, nil
	}

	ev := FileEvent{Source: e.Path(), Status: FileFailed, Err: err}
	if target != nil {
		ev.Destination = target.Path()
	}
	rt.FileDone(ev)
	return false, nil
}

// selectEntries returns the table indices matching paths, in archive order.
func selectEntries(table archive.EntryTable, paths []string) ([]int, error) {
	if paths == nil {
		out := make([]int, len(table))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	matched := make([]bool, len(paths))
	var out []int
	for i, e := range table {
		p := strings.TrimSuffix(e.Path(), "/")
		for k, want := range paths {
			want = strings.Trim(want, "/")
			if p == want || strings.HasPrefix(p, want+"/") {
				matched[k] = true
				out = append(out, i)
				break
			}
		}
	}
	for k, ok := range matched {
		if !ok {
			return nil, structural(paths[k], archive.ErrNoEntry)
		}
	}
	return out, nil
}

// discardCounter drops what it is given and remembers how much that was.
type discardCounter struct {
	n int64
}

func (d *discardCounter) Write(p []byte) (int, error) {
	d.n += int64(len(p))
	return len(p), nil
}

func (d *discardCounter) Close() error { return nil }
