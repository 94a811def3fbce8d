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


package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/walteh/vfsjob/pkg/archive"
	"github.com/walteh/vfsjob/pkg/vfs"
)

// backendModules are the dependencies whose versions decide what a binary can talk to.
var backendModules = []string{
	"github.com/rclone/rclone",
	"github.com/spf13/afero",
	"github.com/pierrec/lz4/v4",
}

// 🏷️ buildInfo describes how the running binary was built and what it can reach
type buildInfo struct {
	version  string
	revision string
	dirty    bool
	built    string
	backends map[string]string
}

func readBuildInfo() buildInfo {
	b := buildInfo{version: "dev", backends: map[string]string{}}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		b.version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			b.revision = s.Value
		case "vcs.time":
			b.built = s.Value
		case "vcs.modified":
			b.dirty = s.Value == "true"
		}
	}
	for _, dep := range info.Deps {
		for _, want := range backendModules {
			if dep.Path == want {
				b.backends[want] = dep.Version
			}
		}
	}
	return b
}

// writeVersion prints the build details followed by the formats and schemes compiled in.
func writeVersion(w io.Writer) {
	b := readBuildInfo()

	revision := b.revision
	if revision == "" {
		revision = "unknown"
	}
	if b.dirty {
		revision += " (modified)"
	}

	fmt.Fprintln(w, "🚀 vfsjob version info:")
	fmt.Fprintf(w, "  version:   %s\n", b.version)
	fmt.Fprintf(w, "  revision:  %s\n", revision)
	if b.built != "" {
		fmt.Fprintf(w, "  built:     %s\n", b.built)
	}
	fmt.Fprintf(w, "  go:        %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	names := make([]string, 0, len(archive.Formats()))
	for _, f := range archive.Formats() {
		names = append(names, f.Name)
	}
	fmt.Fprintf(w, "  formats:   %s\n", strings.Join(names, ", "))
	fmt.Fprintf(w, "  schemes:   %s\n", strings.Join(vfs.Schemes(), ", "))

	for _, m := range backendModules {
		if v, ok := b.backends[m]; ok {
			fmt.Fprintf(w, "  %s %s\n", m, v)
		}
	}
}
