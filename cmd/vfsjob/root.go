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
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/vfsjob/cmd/vfsjob/commands"
	"github.com/walteh/vfsjob/cmd/vfsjob/opts"
	"github.com/walteh/vfsjob/cmd/vfsjob/prompt"
	"github.com/walteh/vfsjob/pkg/config"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/log"
	"github.com/walteh/vfsjob/pkg/metrics"
	"github.com/walteh/vfsjob/pkg/opener"
	"gitlab.com/tozd/go/errors"
)

// 🌱 root owns the command tree and everything built from the root flags
type root struct {
	cmd  *cobra.Command
	opts *opts.RootOpts

	// Flags
	configFile  string
	debug       bool
	yes         bool
	metricsAddr string

	registry *prometheus.Registry
	server   *http.Server
}

func newRoot(op opener.Opener) *root {
	r := &root{opts: &opts.RootOpts{}}

	r.cmd = &cobra.Command{
		Use:   "vfsjob",
		Short: "Copy, move, pack and extract files across local disks, remotes and archives",
		Long: `vfsjob runs file operations as background jobs over one virtual file system:
local paths, rclone remotes and the inside of archives. Jobs can be paused,
resumed and cancelled, and ask before touching existing files.`,
		SilenceUsage:      true,
		PersistentPreRunE: r.setup,
	}

	r.addRootFlags()

	r.cmd.AddCommand(
		commands.NewCopyCmd(r.opts),
		commands.NewMoveCmd(r.opts),
		commands.NewPackCmd(r.opts),
		commands.NewExtractCmd(r.opts),
		commands.NewTestCmd(r.opts),
		commands.NewExecCmd(r.opts, op),
		commands.NewFormatsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				writeVersion(cmd.OutOrStdout())
			},
		},
	)

	return r
}

// addRootFlags adds shared flags to the root command
func (r *root) addRootFlags() {
	flags := r.cmd.PersistentFlags()
	flags.StringVarP(&r.configFile, "config", "c", "", "config file path (.yaml, .json or .hcl)")
	flags.BoolVarP(&r.debug, "debug", "d", false, "enable debug logging")
	flags.BoolVarP(&r.yes, "yes", "y", false, "never prompt; problems are settled by each job's defaults")
	flags.StringVar(&r.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
}

// setup loads the config and builds the engine before any subcommand runs.
func (r *root) setup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Default()
	if r.configFile != "" {
		var err error
		if cfg, err = config.Load(ctx, r.configFile); err != nil {
			return errors.Errorf("loading config: %w", err)
		}
	}

	level := cfg.LogLevel()
	if r.debug {
		level = zerolog.DebugLevel
	}
	zlog := setupLogging(level)
	ctx = zlog.WithContext(ctx)
	cmd.SetContext(ctx)

	logger := log.NewWithZerolog(cmd.OutOrStdout(), zlog)

	r.registry = prometheus.NewRegistry()
	r.registry.MustRegister(collectors.NewGoCollector())

	engineOpts := cfg.EngineOptions()
	engineOpts.Observers = []job.Observer{logger, metrics.New(r.registry)}

	*r.opts = opts.RootOpts{
		Config: cfg,
		Logger: logger,
		Engine: job.NewEngine(engineOpts),
	}
	if !r.yes {
		r.opts.Resolver = prompt.New()
	}

	if r.metricsAddr != "" {
		if err := r.serveMetrics(ctx); err != nil {
			return err
		}
	}

	zlog.Debug().Str("config", cfg.String()).Str("location", cfg.Location()).Msg("ready")
	return nil
}

// setupLogging configures zerolog based on flags
func setupLogging(level zerolog.Level) zerolog.Logger {
	zerolog.SetGlobalLevel(level)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
	return log
}

func (r *root) serveMetrics(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.metricsAddr)
	if err != nil {
		return errors.Errorf("listening for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(r.registry))
	r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("metrics server stopped")
		}
	}()
	zerolog.Ctx(ctx).Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return nil
}

// close stops whatever setup started. Jobs still running are cancelled.
func (r *root) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if r.opts.Engine != nil {
		if err := r.opts.Engine.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			errs = append(errs, errors.Errorf("stopping metrics server: %w", err))
		}
	}
	return errors.Join(errs...)
}
