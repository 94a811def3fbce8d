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
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/log"
	"github.com/walteh/vfsjob/pkg/opener"
	"github.com/walteh/vfsjob/pkg/vfs"
)

// NewExecCmd creates the exec command
func NewExecCmd(o *opts.RootOpts, op opener.Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "exec FILE",
		Short: "Copy a file to a temporary folder and open it",
		Long: `Exec stages a read-only copy of the file below the configured temp_dir and hands
it to the platform's default application. Useful for files on remotes or inside archives.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "exec").Logger().WithContext(cmd.Context())

			src, err := o.Locate(ctx, args[0])
			if err != nil {
				return err
			}
			dst := job.NewTempDestination(vfs.Local(o.Config.TempDir), src.Name())

			_, err = o.Run(ctx, &job.TempExecJob{
				Source:      src,
				Destination: dst,
				Opener:      op,
			}, log.JobOperation{Source: args[0], Destination: dst.Path()})
			return err
		},
	}
}
