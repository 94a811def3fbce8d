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
	"fmt"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/vfsjob/pkg/job"
)

// 🙋 Resolver asks the user at the terminal. Prompts from concurrent jobs are taken one
// at a time.
type Resolver struct {
	mu sync.Mutex
	// Select shows options and returns the one picked.
	Select func(question string, options []string) (string, error)
	// Input asks for free text; an empty answer means def.
	Input func(question, def string) (string, error)
}

// New returns a resolver backed by pterm's interactive printers.
func New() *Resolver {
	return &Resolver{Select: ptermSelect, Input: ptermInput}
}

func ptermSelect(question string, options []string) (string, error) {
	return pterm.DefaultInteractiveSelect.
		WithDefaultText(question).
		WithOptions(options).
		Show()
}

func ptermInput(question, def string) (string, error) {
	answer, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText(fmt.Sprintf("%s [%s]", question, def)).
		Show()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return def, nil
	}
	return strings.TrimSpace(answer), nil
}

type option struct {
	label    string
	decision job.Decision
}

// options lists what the user may answer to req, in a stable order.
func options(req job.Request) []option {
	kinds := req.Choices
	if len(kinds) == 0 {
		kinds = []job.DecisionKind{job.DecisionSkip, job.DecisionOverwrite, job.DecisionRename, job.DecisionRetry, job.DecisionCancelAll}
	}

	var out []option
	for _, k := range kinds {
		switch k {
		case job.DecisionSkip:
			out = append(out,
				option{"Skip", job.Skip},
				option{"Skip all", job.SkipAll},
			)
		case job.DecisionOverwrite:
			out = append(out,
				option{"Overwrite", job.Overwrite},
				option{"Overwrite all", job.OverwriteAll},
			)
		case job.DecisionRename:
			out = append(out, option{"Rename", job.Decision{Kind: job.DecisionRename}})
		case job.DecisionRetry:
			out = append(out, option{"Retry", job.Retry})
		case job.DecisionCancelAll:
			out = append(out, option{"Cancel job", job.CancelAll})
		}
	}
	return out
}

func question(req job.Request) string {
	var what string
	switch req.Condition {
	case job.ConditionCollision:
		what = "already exists"
	case job.ConditionNotADirectory:
		what = "is a file where a folder is needed"
	case job.ConditionUnreadableSource:
		what = "cannot be read"
	default:
		what = "could not be transferred"
	}
	q := fmt.Sprintf("%s %s", req.FileName(), what)
	if req.Err != nil && req.Condition != job.ConditionCollision {
		q += fmt.Sprintf(" (%v)", req.Err)
	}
	return q
}

// 📨 Resolve asks one question. Any prompt failure answers with the request's fallback.
func (r *Resolver) Resolve(ctx context.Context, req job.Request) job.Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := zerolog.Ctx(ctx)
	if ctx.Err() != nil {
		return req.Fallback
	}

	opts := options(req)
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.label
	}

	picked, err := r.Select(question(req), labels)
	if err != nil {
		logger.Warn().Err(err).Msg("prompt failed, using fallback")
		return req.Fallback
	}

	for _, o := range opts {
		if o.label != picked {
			continue
		}
		if o.decision.Kind != job.DecisionRename {
			return o.decision
		}
		suggestion := ""
		if req.Destination != nil {
			suggestion = req.Destination.Name()
		}
		name, err := r.Input("New name", suggestion)
		if err != nil || name == "" || name == suggestion {
			logger.Debug().Err(err).Msg("no new name given, using fallback")
			return req.Fallback
		}
		return job.Rename(name)
	}

	logger.Warn().Str("answer", picked).Msg("unknown answer, using fallback")
	return req.Fallback
}

var _ job.Resolver = (*Resolver)(nil)
