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

package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// 🗂️ Format describes one archive format
type Format struct {
	Name string
	// Extensions are matched case-insensitively against file names, longest first.
	Extensions      []string
	SupportsComment bool
	// Reentrant formats may have several entries extracted at once. Decoders of other
	// formats are entered by one extraction at a time.
	Reentrant   bool
	NewArchiver func() Archiver
	OpenDecoder func(ctx context.Context, src vfs.File) (Decoder, error)
}

// Extension returns the primary extension of the format.
func (f *Format) Extension() string {
	if len(f.Extensions) == 0 {
		return ""
	}
	return f.Extensions[0]
}

var (
	formatsMu sync.RWMutex
	formats   = make(map[string]*Format)
)

// RegisterFormat makes a format available by name and extension.
func RegisterFormat(f *Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	if _, exists := formats[f.Name]; exists {
		panic(fmt.Sprintf("archive: format %q already registered", f.Name))
	}
	formats[f.Name] = f
}

// ByName returns the format registered under name.
func ByName(name string) (*Format, error) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("format %q: %w", name, ErrUnknownFormat)
	}
	return f, nil
}

// ForName picks the format whose extension matches the end of the file name. The longest
// matching extension wins, so "x.tar.gz" is tar.gz and not gz.
func ForName(fileName string) (*Format, error) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	lower := strings.ToLower(fileName)
	var (
		best    *Format
		bestLen int
	)
	for _, f := range formats {
		for _, ext := range f.Extensions {
			if strings.HasSuffix(lower, ext) && len(ext) > bestLen {
				best, bestLen = f, len(ext)
			}
		}
	}
	if best == nil {
		return nil, errors.Errorf("file %q: %w", fileName, ErrUnknownFormat)
	}
	return best, nil
}

// Formats returns every registered format sorted by name.
func Formats() []*Format {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	out := make([]*Format, 0, len(formats))
	for _, f := range formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
