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
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/vfsjob/cmd/vfsjob/opts"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/log"
)

// NewCopyCmd creates the copy command
func NewCopyCmd(o *opts.RootOpts) *cobra.Command {
	return newTransferCmd(o, job.ModeCopy, "Copy files and folders into a destination folder")
}

// NewMoveCmd creates the move command
func NewMoveCmd(o *opts.RootOpts) *cobra.Command {
	return newTransferCmd(o, job.ModeMove, "Move files and folders into a destination folder")
}

func newTransferCmd(o *opts.RootOpts, mode job.Mode, short string) *cobra.Command {
	var (
		policy  string
		name    string
		exclude []string
	)

	cmd := &cobra.Command{
		Use:   mode.String() + " SOURCE... DESTINATION",
		Short: short,
		Long: short + `.
Sources and destination are local paths, rclone:// locations or remote names
from the config, e.g. "backup:photos". Folders are copied recursively.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", mode.String()).Logger().WithContext(cmd.Context())

			sources, target := args[:len(args)-1], args[len(args)-1]
			files, err := o.LocateAll(ctx, sources)
			if err != nil {
				return err
			}
			dst, err := o.Locate(ctx, target)
			if err != nil {
				return err
			}
			p, err := o.Policy(policy)
			if err != nil {
				return err
			}

			_, err = o.Run(ctx, &job.CopyJob{
				Files:           job.NewFileSet(nil, files...),
				Destination:     dst,
				DestinationName: name,
				Mode:            mode,
				Policy:          p,
				Exclude:         slices.Concat(o.Config.Exclude, exclude),
			}, log.JobOperation{Source: strings.Join(sources, ", "), Destination: target})
			return err
		},
	}

	addPolicyFlag(cmd, &policy)
	addExcludeFlag(cmd, &exclude)
	cmd.Flags().StringVar(&name, "name", "", "new name for a single source file")

	return cmd
}

func addPolicyFlag(cmd *cobra.Command, policy *string) {
	cmd.Flags().StringVarP(policy, "policy", "p", "", "what to do with existing files: ask, overwrite, skip or rename (default from config)")
}

func addExcludeFlag(cmd *cobra.Command, exclude *[]string) {
	cmd.Flags().StringSliceVarP(exclude, "exclude", "x", nil, "glob patterns to leave out, added to the config's")
}
