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
	"sync/atomic"
)

// 📊 Snapshot is a point-in-time copy of a job's counters. Bytes counts every byte moved,
// including attempts that were later retried or abandoned.
type Snapshot struct {
	Bytes      int64
	Files      int64
	TotalBytes int64
	TotalFiles int64
	Current    string
}

// Summary is the final tally of a job. Files = Transferred + Skipped + Failed, and Bytes
// only counts files that were transferred.
type Summary struct {
	Files       int64
	Transferred int64
	Skipped     int64
	Failed      int64
	Bytes       int64
}

// progress is written by the job goroutine and read by anyone. Every counter only grows.
type progress struct {
	bytes       atomic.Int64
	delivered   atomic.Int64
	files       atomic.Int64
	transferred atomic.Int64
	skipped     atomic.Int64
	failed      atomic.Int64
	totalBytes  atomic.Int64
	totalFiles  atomic.Int64
	current     atomic.Pointer[string]
}

func (p *progress) snapshot() Snapshot {
	s := Snapshot{
		Bytes:      p.bytes.Load(),
		Files:      p.files.Load(),
		TotalBytes: p.totalBytes.Load(),
		TotalFiles: p.totalFiles.Load(),
	}
	if c := p.current.Load(); c != nil {
		s.Current = *c
	}
	return s
}

func (p *progress) summary() Summary {
	return Summary{
		Files:       p.files.Load(),
		Transferred: p.transferred.Load(),
		Skipped:     p.skipped.Load(),
		Failed:      p.failed.Load(),
		Bytes:       p.delivered.Load(),
	}
}
