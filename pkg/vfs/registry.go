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
	"fmt"
	"sort"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// DefaultScheme is used for locations that carry no "scheme://" prefix.
const DefaultScheme = "file"

// Resolver builds a File for the scheme-specific part of a location.
type Resolver func(ctx context.Context, location string) (File, error)

var (
	mu        sync.RWMutex
	resolvers = make(map[string]Resolver)
)

// 📝 Register makes a backend available under scheme. It panics if scheme is taken.
func Register(scheme string, r Resolver) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := resolvers[scheme]; exists {
		panic(fmt.Sprintf("vfs: scheme %q already registered", scheme))
	}
	resolvers[scheme] = r
}

// Schemes returns the registered schemes, sorted.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(resolvers))
	for name := range resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitLocation separates "scheme://rest" into its parts. Locations without a scheme
// belong to DefaultScheme.
func SplitLocation(location string) (scheme, rest string) {
	if i := strings.Index(location, "://"); i > 0 {
		return location[:i], location[i+3:]
	}
	return DefaultScheme, location
}

// 🔍 Resolve returns the File a location points at
func Resolve(ctx context.Context, location string) (File, error) {
	scheme, rest := SplitLocation(location)

	mu.RLock()
	r, ok := resolvers[scheme]
	mu.RUnlock()

	if !ok {
		return nil, errors.Errorf("unknown scheme %q in %q", scheme, location)
	}

	f, err := r(ctx, rest)
	if err != nil {
		return nil, errors.Errorf("resolving %q: %w", location, err)
	}
	return f, nil
}
