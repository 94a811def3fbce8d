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
	"io/fs"
	"strings"

	"github.com/walteh/vfsjob/pkg/entry"
	"gitlab.com/tozd/go/errors"
)

// SkipDir can be returned by a WalkFunc to skip the contents of a directory.
var SkipDir = fs.SkipDir

// WalkFunc is called for every file Walk visits, directories before their contents.
type WalkFunc func(f File, attrs *entry.Attributes) error

// 🚶 Walk visits root and, when it is a directory, everything below it in name order
func Walk(ctx context.Context, root File, fn WalkFunc) error {
	attrs, err := root.Stat(ctx)
	if err != nil {
		return errors.Errorf("stat %s: %w", root.Path(), err)
	}
	err = walk(ctx, root, attrs, fn)
	if errors.Is(err, SkipDir) {
		return nil
	}
	return err
}

func walk(ctx context.Context, f File, attrs *entry.Attributes, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(f, attrs); err != nil {
		return err
	}
	if !attrs.Dir {
		return nil
	}

	children, err := f.List(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		childAttrs, err := child.Stat(ctx)
		if err != nil {
			return errors.Errorf("stat %s: %w", child.Path(), err)
		}
		if err := walk(ctx, child, childAttrs, fn); err != nil {
			if errors.Is(err, SkipDir) && childAttrs.Dir {
				continue
			}
			return err
		}
	}
	return nil
}

// 🔗 Rel returns the '/'-delimited path of f relative to the directory base
func Rel(base, f File) (string, error) {
	if !SameVolume(base, f) {
		return "", errors.Errorf("relating %s to %s: %w", f.Path(), base.Path(), ErrCrossVolume)
	}

	b := strings.TrimSuffix(base.Path(), "/")
	p := f.Path()
	if b == "" || b == "." {
		return strings.TrimPrefix(p, "/"), nil
	}
	if p == b {
		return "", nil
	}
	if !strings.HasPrefix(p, b+"/") {
		return "", errors.Errorf("%s is not below %s", p, b)
	}
	return p[len(b)+1:], nil
}

// Descend returns the file found by following the '/'-delimited rel from dir.
func Descend(dir File, rel string) File {
	f := dir
	for _, part := range strings.Split(strings.Trim(rel, "/"), "/") {
		if part == "" {
			continue
		}
		f = f.Child(part)
	}
	return f
}

// ErrEscapesRoot is returned when a relative path would leave the directory it is rooted at.
var ErrEscapesRoot = errors.Base("path escapes its root")

// 🧱 Within is Descend for untrusted paths: rel may not hold "." or ".." segments and the
// result has to stay below dir.
func Within(dir File, rel string) (File, error) {
	for _, part := range strings.Split(strings.Trim(rel, "/"), "/") {
		if part == "." || part == ".." {
			return nil, errors.Errorf("%q below %s: %w", rel, dir.Path(), ErrEscapesRoot)
		}
	}
	f := Descend(dir, rel)
	if got, err := Rel(dir, f); err != nil || (got == "" && strings.Trim(rel, "/") != "") {
		return nil, errors.Errorf("%q below %s: %w", rel, dir.Path(), ErrEscapesRoot)
	}
	return f, nil
}

// EnsureParent creates the parent directory chain of f.
func EnsureParent(ctx context.Context, f File) error {
	parent := f.Parent()
	if parent == nil {
		return nil
	}
	return parent.Mkdirs(ctx)
}

// attributesFromInfo converts an fs.FileInfo found at the volume path p.
func attributesFromInfo(p string, info fs.FileInfo) *entry.Attributes {
	attrs := entry.NewAttributes(addressFor(p, info.IsDir()), info.IsDir())
	if !info.IsDir() {
		attrs.Size = info.Size()
	}
	attrs.ModTime = info.ModTime()
	attrs.SetPermissions(info.Mode())
	return attrs
}

// addressFor turns a volume path into an entry address. The volume root has none.
func addressFor(p string, dir bool) entry.Address {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return entry.Address{}
	}
	if dir {
		p += "/"
	}
	return entry.MustAddress(p)
}
