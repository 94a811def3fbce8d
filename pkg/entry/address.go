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

// Package entry models how a virtual entry is addressed and described, independent of
// whether it lives on a local disk, a remote, or inside an archive.
//
// Entry paths always use '/' as delimiter, are relative (no leading '/'), and directories
// carry a trailing '/'.
package entry

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Separator is the only path delimiter entry paths use, whatever the backend.
const Separator = '/'

// ErrMalformedPath is returned for paths that cannot address an entry.
var ErrMalformedPath = errors.Base("malformed entry path")

// 📍 Address identifies a virtual entry by its relative path
type Address struct {
	path string
}

// 🏭 NewAddress validates path and returns its Address
func NewAddress(path string) (Address, error) {
	if path == "" {
		return Address{}, errors.Errorf("%w: empty path", ErrMalformedPath)
	}
	if path[0] == Separator {
		return Address{}, errors.Errorf("%w: %q is absolute", ErrMalformedPath, path)
	}
	for _, seg := range strings.Split(strings.TrimSuffix(path, string(Separator)), string(Separator)) {
		if seg == "." || seg == ".." {
			return Address{}, errors.Errorf("%w: %q has a %q segment", ErrMalformedPath, path, seg)
		}
	}
	return Address{path: path}, nil
}

// MustAddress is like NewAddress but panics on a malformed path.
func MustAddress(path string) Address {
	a, err := NewAddress(path)
	if err != nil {
		panic(err)
	}
	return a
}

// 🔍 JoinAddress builds an address out of path segments
func JoinAddress(dir bool, segments ...string) (Address, error) {
	p := strings.Join(segments, string(Separator))
	if dir && !strings.HasSuffix(p, string(Separator)) {
		p += string(Separator)
	}
	return NewAddress(p)
}

func (a Address) Path() string   { return a.path }
func (a Address) String() string { return a.path }

// IsZero reports whether a was never constructed.
func (a Address) IsZero() bool { return a.path == "" }

// IsDir reports whether the address denotes a directory (trailing '/').
func (a Address) IsDir() bool {
	return strings.HasSuffix(a.path, string(Separator))
}

// Depth returns the depth of the address; top-level entries have depth 0.
func (a Address) Depth() int {
	d, _ := Depth(a.path)
	return d
}

// Name returns the last path element.
func (a Address) Name() string {
	return Name(a.path)
}

// 👆 Parent returns the address of the enclosing directory; false for top-level entries
func (a Address) Parent() (Address, bool) {
	p := strings.TrimSuffix(a.path, string(Separator))
	i := strings.LastIndexByte(p, Separator)
	if i <= 0 {
		return Address{}, false
	}
	return Address{path: p[:i+1]}, true
}

// 👇 Child returns the address of name directly under a, which must be a directory
func (a Address) Child(name string, dir bool) (Address, error) {
	if !a.IsDir() {
		return Address{}, errors.Errorf("%w: %q is not a directory", ErrMalformedPath, a.path)
	}
	return JoinAddress(dir, strings.TrimSuffix(a.path, string(Separator)), name)
}

// Depth returns the number of '/' delimiters found after the first character of path, less
// one when path ends with '/' since a trailing delimiter only marks a directory.
func Depth(path string) (int, error) {
	if path == "" {
		return 0, errors.Errorf("%w: empty path", ErrMalformedPath)
	}

	depth := strings.Count(path[1:], string(Separator))
	if path[len(path)-1] == Separator {
		depth--
	}
	return depth, nil
}

// Name strips one trailing '/' and returns what follows the last remaining '/'.
func Name(path string) string {
	path = strings.TrimSuffix(path, string(Separator))
	if i := strings.LastIndexByte(path, Separator); i >= 0 {
		return path[i+1:]
	}
	return path
}
