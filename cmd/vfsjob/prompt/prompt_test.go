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

package prompt

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

func scripted(t *testing.T, pick string, name string) (*Resolver, *[]string) {
	t.Helper()
	var shown []string
	return &Resolver{
		Select: func(question string, options []string) (string, error) {
			shown = options
			return pick, nil
		},
		Input: func(question, def string) (string, error) {
			assert.Equal(t, "a.txt", def, "the current name should be suggested")
			return name, nil
		},
	}, &shown
}

func collision() job.Request {
	fsys := afero.NewMemMapFs()
	return job.Request{
		Condition:   job.ConditionCollision,
		Source:      vfs.NewLocal(fsys, "/src/a.txt"),
		Destination: vfs.NewLocal(fsys, "/dst/a.txt"),
		Choices:     []job.DecisionKind{job.DecisionSkip, job.DecisionOverwrite, job.DecisionRename, job.DecisionCancelAll},
		Fallback:    job.Skip,
	}
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// 🧪 TestResolve tests mapping picked options to decisions
func TestResolve(t *testing.T) {
	tests := []struct {
		pick string
		name string
		want job.Decision
	}{
		{"Skip", "", job.Skip},
		{"Skip all", "", job.SkipAll},
		{"Overwrite", "", job.Overwrite},
		{"Overwrite all", "", job.OverwriteAll},
		{"Rename", "b.txt", job.Rename("b.txt")},
		{"Rename", "", job.Skip},
		{"Rename", "a.txt", job.Skip},
		{"Cancel job", "", job.CancelAll},
		{"Something else", "", job.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.pick+"_"+tt.name, func(t *testing.T) {
			r, shown := scripted(t, tt.pick, tt.name)
			got := r.Resolve(testContext(t), collision())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"Skip", "Skip all", "Overwrite", "Overwrite all", "Rename", "Cancel job"}, *shown)
		})
	}
}

// 🧪 TestResolveOffersOnlyChoices tests that options follow the request's choices
func TestResolveOffersOnlyChoices(t *testing.T) {
	r, shown := scripted(t, "Retry", "")
	req := collision()
	req.Condition = job.ConditionTransientIO
	req.Err = errors.New("connection reset")
	req.Choices = []job.DecisionKind{job.DecisionSkip, job.DecisionRetry, job.DecisionCancelAll}

	assert.Equal(t, job.Retry, r.Resolve(testContext(t), req))
	assert.Equal(t, []string{"Skip", "Skip all", "Retry", "Cancel job"}, *shown)
}

// 🧪 TestResolvePromptError tests that a broken terminal answers with the fallback
func TestResolvePromptError(t *testing.T) {
	r := &Resolver{
		Select: func(string, []string) (string, error) { return "", errors.New("not a terminal") },
	}
	req := collision()
	req.Fallback = job.Overwrite
	assert.Equal(t, job.Overwrite, r.Resolve(testContext(t), req))
}

// 🧪 TestResolveCancelled tests that no prompt is shown once the job is gone
func TestResolveCancelled(t *testing.T) {
	r := &Resolver{
		Select: func(string, []string) (string, error) {
			require.Fail(t, "no prompt expected")
			return "", nil
		},
	}
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	assert.Equal(t, job.Skip, r.Resolve(ctx, collision()))
}

func TestQuestion(t *testing.T) {
	req := collision()
	assert.Equal(t, "a.txt already exists", question(req))

	req.Condition = job.ConditionUnreadableSource
	req.Err = errors.New("permission denied")
	assert.Equal(t, "a.txt cannot be read (permission denied)", question(req))
}
