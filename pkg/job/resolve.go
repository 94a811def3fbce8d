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

	"github.com/walteh/vfsjob/pkg/vfs"
)

// ❓ Condition is the kind of per-file problem a job asks about
type Condition int

const (
	// ConditionCollision: the destination already exists.
	ConditionCollision Condition = iota
	// ConditionNotADirectory: a directory is needed where a file exists.
	ConditionNotADirectory
	// ConditionTransientIO: reading or writing failed mid-operation.
	ConditionTransientIO
	// ConditionUnreadableSource: the source could not be opened or listed.
	ConditionUnreadableSource
)

func (c Condition) String() string {
	switch c {
	case ConditionCollision:
		return "collision"
	case ConditionNotADirectory:
		return "not-a-directory"
	case ConditionTransientIO:
		return "transient-io"
	case ConditionUnreadableSource:
		return "unreadable-source"
	default:
		return "unknown"
	}
}

// DecisionKind is the answer to a Request.
type DecisionKind int

const (
	DecisionSkip DecisionKind = iota
	DecisionOverwrite
	DecisionRename
	DecisionRetry
	DecisionCancelAll
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionSkip:
		return "skip"
	case DecisionOverwrite:
		return "overwrite"
	case DecisionRename:
		return "rename"
	case DecisionRetry:
		return "retry"
	case DecisionCancelAll:
		return "cancel-all"
	default:
		return "unknown"
	}
}

// ✅ Decision answers a Request. ApplyToRemaining reuses the answer for every later request of
// the same Condition in the same job. Rename and Retry never carry over.
type Decision struct {
	Kind             DecisionKind
	NewName          string
	ApplyToRemaining bool
}

var (
	Skip         = Decision{Kind: DecisionSkip}
	SkipAll      = Decision{Kind: DecisionSkip, ApplyToRemaining: true}
	Overwrite    = Decision{Kind: DecisionOverwrite}
	OverwriteAll = Decision{Kind: DecisionOverwrite, ApplyToRemaining: true}
	Retry        = Decision{Kind: DecisionRetry}
	CancelAll    = Decision{Kind: DecisionCancelAll}
)

// Rename answers with a new name for the destination, in the same folder.
func Rename(newName string) Decision {
	return Decision{Kind: DecisionRename, NewName: newName}
}

func (d Decision) String() string {
	s := d.Kind.String()
	if d.Kind == DecisionRename {
		s += "(" + d.NewName + ")"
	}
	if d.ApplyToRemaining {
		s += " [all]"
	}
	return s
}

// 📨 Request is what a job blocks on until a Resolver answers
type Request struct {
	JobID       string
	Condition   Condition
	Source      vfs.File
	Destination vfs.File
	Err         error
	// Choices lists the decision kinds that make sense for this request.
	Choices []DecisionKind
	// Fallback is used when no resolver is attached or the answer is not one of Choices.
	Fallback Decision
}

// FileName is the name shown to whoever answers.
func (r Request) FileName() string {
	switch {
	case r.Source != nil:
		return r.Source.Name()
	case r.Destination != nil:
		return r.Destination.Name()
	default:
		return ""
	}
}

func (r Request) allows(k DecisionKind) bool {
	if len(r.Choices) == 0 {
		return true
	}
	for _, c := range r.Choices {
		if c == k {
			return true
		}
	}
	return false
}

// 🙋 Resolver answers per-file problems. It is called on its own goroutine, never the job's,
// and ctx is cancelled when the job is cancelled while waiting.
type Resolver interface {
	Resolve(ctx context.Context, req Request) Decision
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, req Request) Decision

func (f ResolverFunc) Resolve(ctx context.Context, req Request) Decision { return f(ctx, req) }

// Always answers every request with d.
func Always(d Decision) Resolver {
	return ResolverFunc(func(context.Context, Request) Decision { return d })
}
