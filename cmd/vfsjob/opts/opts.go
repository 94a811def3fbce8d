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

package opts

import (
	"context"

	"github.com/walteh/vfsjob/pkg/config"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/log"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// 🎛️ RootOpts is what every command shares once the root flags are parsed
type RootOpts struct {
	Config *config.Config
	Logger *log.Logger
	Engine *job.Engine
	// Resolver answers prompts; nil runs jobs headless with their fallbacks.
	Resolver job.Resolver
}

// 🔍 Locate turns a command-line location into a File, expanding configured remotes.
func (o *RootOpts) Locate(ctx context.Context, location string) (vfs.File, error) {
	f, err := vfs.Resolve(ctx, o.Config.Expand(location))
	if err != nil {
		return nil, errors.Errorf("locating %s: %w", location, err)
	}
	return f, nil
}

// LocateAll locates every argument in order.
func (o *RootOpts) LocateAll(ctx context.Context, locations []string) ([]vfs.File, error) {
	files := make([]vfs.File, 0, len(locations))
	for _, l := range locations {
		f, err := o.Locate(ctx, l)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Policy picks the collision policy from a flag value, falling back to the config.
func (o *RootOpts) Policy(flag string) (job.Policy, error) {
	if flag == "" {
		return o.Config.Policy(), nil
	}
	return job.ParsePolicy(flag)
}

// 🏃 Run submits j, waits for it and turns anything but completion into an error.
// Cancelling ctx cancels the job.
func (o *RootOpts) Run(ctx context.Context, j job.Job, op log.JobOperation) (job.Outcome, error) {
	var submitOpts []job.SubmitOption
	if o.Resolver != nil {
		submitOpts = append(submitOpts, job.WithResolver(o.Resolver))
	}

	h := o.Engine.Submit(ctx, j, submitOpts...)
	op.ID, op.Kind = h.ID(), h.Kind()
	o.Logger.StartJob(ctx, op)

	<-h.Done()
	out, err := h.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return out, err
	}

	switch out.State {
	case job.StateCompleted:
		if out.Summary.Failed > 0 {
			return out, errors.Errorf("%s finished with %d failed files", h.Kind(), out.Summary.Failed)
		}
		return out, nil
	case job.StateCancelled:
		return out, errors.Errorf("%s cancelled: %w", h.Kind(), out.Err)
	default:
		return out, errors.Errorf("%s failed: %w", h.Kind(), out.Err)
	}
}
