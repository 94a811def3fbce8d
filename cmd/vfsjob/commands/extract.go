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

package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/vfsjob/cmd/vfsjob/opts"
	"github.com/walteh/vfsjob/pkg/archive"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/log"
)

// NewExtractCmd creates the extract command
func NewExtractCmd(o *opts.RootOpts) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "extract ARCHIVE DESTINATION [ENTRY...]",
		Short: "Extract archive entries into a folder",
		Long: `Extract writes the archive's entries below the destination folder. Naming
entries limits the extraction to them; a folder entry selects everything below it.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "extract").Logger().WithContext(cmd.Context())

			dst, err := o.Locate(ctx, args[1])
			if err != nil {
				return err
			}
			p, err := o.Policy(policy)
			if err != nil {
				return err
			}

			return withArchive(o, cmd, args[0], func(a *archive.Archive) error {
				_, err := o.Run(ctx, &job.ExtractJob{
					Archive:     a,
					Entries:     entries(args[2:]),
					Destination: dst,
					Mode:        job.ModeExtract,
					Policy:      p,
				}, log.JobOperation{Source: args[0], Destination: args[1]})
				return err
			})
		},
	}

	addPolicyFlag(cmd, &policy)

	return cmd
}

// NewTestCmd creates the test command
func NewTestCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "test ARCHIVE [ENTRY...]",
		Short: "Check that archive entries can be read back",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "test").Logger().WithContext(cmd.Context())

			return withArchive(o, cmd, args[0], func(a *archive.Archive) error {
				_, err := o.Run(ctx, &job.ExtractJob{
					Archive: a,
					Entries: entries(args[1:]),
					Mode:    job.ModeTest,
				}, log.JobOperation{Source: args[0]})
				return err
			})
		},
	}
}

// withArchive opens location as an archive for the length of fn.
func withArchive(o *opts.RootOpts, cmd *cobra.Command, location string, fn func(a *archive.Archive) error) error {
	ctx := cmd.Context()

	src, err := o.Locate(ctx, location)
	if err != nil {
		return err
	}
	a, err := archive.Open(ctx, src)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("archive", location).Msg("closing archive")
		}
	}()

	return fn(a)
}

// entries returns nil for no arguments, which selects the whole archive.
func entries(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return args
}
