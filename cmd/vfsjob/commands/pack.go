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
	"github.com/walteh/vfsjob/pkg/archive"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/log"
)

// NewPackCmd creates the pack command
func NewPackCmd(o *opts.RootOpts) *cobra.Command {
	var (
		policy  string
		format  string
		comment string
		exclude []string
	)

	cmd := &cobra.Command{
		Use:   "pack ARCHIVE SOURCE...",
		Short: "Pack files and folders into a new archive",
		Long: `Pack writes the sources into a new archive. The format follows the archive's
extension unless --format is given; members are named relative to each source's folder.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "pack").Logger().WithContext(cmd.Context())

			dst, err := o.Locate(ctx, args[0])
			if err != nil {
				return err
			}
			files, err := o.LocateAll(ctx, args[1:])
			if err != nil {
				return err
			}
			p, err := o.Policy(policy)
			if err != nil {
				return err
			}

			var f *archive.Format
			switch {
			case format != "":
				if f, err = archive.ByName(format); err != nil {
					return err
				}
			default:
				// the extension decides, the config only when it cannot
				if f, err = archive.ForName(dst.Name()); err != nil {
					f = o.Config.ArchiveFormat()
				}
			}
			if comment == "" {
				comment = o.Config.Archive.Comment
			}

			_, err = o.Run(ctx, &job.ArchiveJob{
				Files:       job.NewFileSet(nil, files...),
				Destination: dst,
				Format:      f,
				Comment:     comment,
				Exclude:     slices.Concat(o.Config.Exclude, exclude),
				Policy:      p,
			}, log.JobOperation{Source: strings.Join(args[1:], ", "), Destination: args[0]})
			return err
		},
	}

	addPolicyFlag(cmd, &policy)
	addExcludeFlag(cmd, &exclude)
	cmd.Flags().StringVarP(&format, "format", "f", "", "archive format, see the formats command")
	cmd.Flags().StringVar(&comment, "comment", "", "archive comment, for formats that keep one")

	return cmd
}
