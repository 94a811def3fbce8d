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
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/vfsjob/pkg/entry"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// 🎛️ Mode is what a job does with its file set
type Mode int

const (
	ModeCopy Mode = iota
	ModeMove
	ModePack
	ModeExtract
	ModeTest
)

func (m Mode) String() string {
	switch m {
	case ModeCopy:
		return "copy"
	case ModeMove:
		return "move"
	case ModePack:
		return "pack"
	case ModeExtract:
		return "extract"
	case ModeTest:
		return "test"
	default:
		return "unknown"
	}
}

// 🛡️ Policy is how a job treats destinations that already exist
type Policy int

const (
	// PolicyAsk sends a collision request to the resolver.
	PolicyAsk Policy = iota
	PolicyOverwrite
	PolicySkip
	// PolicyRename writes next to the existing file as "name (n).ext".
	PolicyRename
)

func (p Policy) String() string {
	switch p {
	case PolicyAsk:
		return "ask"
	case PolicyOverwrite:
		return "overwrite"
	case PolicySkip:
		return "skip"
	case PolicyRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ParsePolicy reads a policy name as written in configuration.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ask":
		return PolicyAsk, nil
	case "overwrite":
		return PolicyOverwrite, nil
	case "skip":
		return PolicySkip, nil
	case "rename":
		return PolicyRename, nil
	default:
		return PolicyAsk, errors.Errorf("unknown collision policy %q", s)
	}
}

// 📚 FileSet is the ordered input of a job. Destination paths are the files' paths
// relative to Base; without a Base each file is relative to its own parent.
type FileSet struct {
	Base  vfs.File
	Files []vfs.File
}

// NewFileSet returns a set of files below base.
func NewFileSet(base vfs.File, files ...vfs.File) FileSet {
	return FileSet{Base: base, Files: files}
}

// item is one file or directory found while expanding a FileSet.
type item struct {
	file  vfs.File
	attrs *entry.Attributes
	rel   string
	top   bool
}

// ValidatePatterns checks exclude patterns before a job starts.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

func excluded(rt *Runtime, patterns []string, rel string) bool {
	for _, pattern := range patterns {
		for _, candidate := range []string{rel, path.Base(rel)} {
			matched, err := doublestar.Match(pattern, candidate)
			if err != nil {
				rt.logger.Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
				continue
			}
			if matched {
				rt.logger.Debug().Str("file", rel).Str("pattern", pattern).Msg("file excluded by pattern")
				return true
			}
		}
	}
	return false
}

// 🌳 expand walks every file of the set in order, directories before their contents.
// A top-level file that cannot be walked is put to the resolver.
func expand(ctx context.Context, rt *Runtime, set FileSet, exclude []string) ([]item, error) {
	var items []item

	for _, top := range set.Files {
		if err := rt.Checkpoint(); err != nil {
			return nil, err
		}

		base := set.Base
		if base == nil {
			if base = top.Parent(); base == nil {
				return nil, structural(top.Path(), errors.New("a volume root needs an explicit base"))
			}
		}

		found, err := walkTop(ctx, rt, base, top, exclude)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}

	var files, bytes int64
	for _, it := range items {
		if !it.attrs.Dir {
			files++
			if it.attrs.Size > 0 {
				bytes += it.attrs.Size
			}
		}
	}
	rt.AddTotals(files, bytes)

	return items, nil
}

// walkTop collects everything below one top-level file, asking the resolver when the
// walk fails. A skipped top-level file yields no items.
func walkTop(ctx context.Context, rt *Runtime, base, top vfs.File, exclude []string) ([]item, error) {
	for {
		var found []item
		err := vfs.Walk(ctx, top, func(f vfs.File, attrs *entry.Attributes) error {
			if err := rt.Checkpoint(); err != nil {
				return err
			}
			rel, err := vfs.Rel(base, f)
			if err != nil {
				return err
			}
			if excluded(rt, exclude, rel) {
				if attrs.Dir {
					return vfs.SkipDir
				}
				return nil
			}
			found = append(found, item{file: f, attrs: attrs, rel: rel, top: len(found) == 0})
			return nil
		})
		if err == nil {
			return found, nil
		}
		if errors.Is(err, ErrCancelled) {
			return nil, err
		}

		d, rerr := rt.Resolve(Request{
			Condition: ConditionUnreadableSource,
			Source:    top,
			Err:       err,
			Choices:   []DecisionKind{DecisionSkip, DecisionRetry, DecisionCancelAll},
			Fallback:  Skip,
		})
		if rerr != nil {
			return nil, rerr
		}
		if d.Kind != DecisionRetry {
			rt.FileDone(FileEvent{Source: top.Path(), Status: FileFailed, Err: err})
			return nil, nil
		}
	}
}

// 🔀 collide settles what to do about an existing destination. It returns the file to write
// to, or nil when the source is to be skipped.
func collide(ctx context.Context, rt *Runtime, policy Policy, src, dst vfs.File) (vfs.File, error) {
	for {
		exists, err := dst.Exists(ctx)
		if err != nil {
			return nil, errors.Errorf("checking %s: %w", dst.Path(), err)
		}
		if !exists {
			return dst, nil
		}

		var d Decision
		switch policy {
		case PolicyOverwrite:
			d = Overwrite
		case PolicySkip:
			d = Skip
		case PolicyRename:
			name, err := freeName(ctx, dst)
			if err != nil {
				return nil, err
			}
			d = Rename(name)
		default:
			d, err = rt.Resolve(Request{
				Condition:   ConditionCollision,
				Source:      src,
				Destination: dst,
				Err:         errors.Errorf("%s: %w", dst.Path(), ErrCollision),
				Choices:     []DecisionKind{DecisionSkip, DecisionOverwrite, DecisionRename, DecisionCancelAll},
				Fallback:    Skip,
			})
			if err != nil {
				return nil, err
			}
		}

		switch d.Kind {
		case DecisionOverwrite:
			return dst, nil
		case DecisionRename:
			if d.NewName == "" || strings.ContainsRune(d.NewName, '/') {
				return nil, errors.Errorf("invalid new name %q", d.NewName)
			}
			parent := dst.Parent()
			if parent == nil {
				return nil, structural(dst.Path(), errors.New("cannot rename at a volume root"))
			}
			// the new name may collide as well
			dst = parent.Child(d.NewName)
		default:
			return nil, nil
		}
	}
}

// freeName finds the first "name (n).ext" next to dst that does not exist yet.
func freeName(ctx context.Context, dst vfs.File) (string, error) {
	parent := dst.Parent()
	if parent == nil {
		return "", structural(dst.Path(), errors.New("cannot rename at a volume root"))
	}

	name := dst.Name()
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := stem + " (" + strconv.Itoa(n) + ")" + ext
		exists, err := parent.Child(candidate).Exists(ctx)
		if err != nil {
			return "", errors.Errorf("checking %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}
