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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/vfsjob/pkg/archive"
	"github.com/walteh/vfsjob/pkg/job"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// DefaultMaxConcurrent is how many jobs run at once when the config says nothing.
const DefaultMaxConcurrent = 2

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// ⚙️ EngineArgs configures the job engine
type EngineArgs struct {
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	ChunkSizeKiB  int `json:"chunk_size_kib,omitempty" yaml:"chunk_size_kib,omitempty"`
}

// 🗜️ ArchiveArgs holds the defaults for new archives
type ArchiveArgs struct {
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// 📝 LogArgs configures logging
type LogArgs struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Engine EngineArgs `json:"engine" yaml:"engine"`
	// Collision is the default collision policy: ask, overwrite, skip or rename.
	Collision string      `json:"collision,omitempty" yaml:"collision,omitempty"`
	TempDir   string      `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`
	Archive   ArchiveArgs `json:"archive" yaml:"archive"`
	Exclude   []string    `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// Remotes maps short names to rclone remote specs, so "docs:a/b" reads "rclone://<spec>/a/b".
	Remotes map[string]string `json:"remotes,omitempty" yaml:"remotes,omitempty"`
	Log     LogArgs           `json:"log" yaml:"log"`

	location string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	cfg.location = path

	return cfg, nil
}

// Location is the file the config was loaded from, empty for defaults.
func (cfg *Config) Location() string { return cfg.location }

// 🔍 Validate checks the configuration and fills in defaults
func (cfg *Config) Validate() error {
	if cfg.Engine.MaxConcurrent < 0 {
		return errors.Errorf("engine.max_concurrent must not be negative")
	}
	if cfg.Engine.MaxConcurrent == 0 {
		cfg.Engine.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Engine.ChunkSizeKiB < 0 {
		return errors.Errorf("engine.chunk_size_kib must not be negative")
	}
	if cfg.Engine.ChunkSizeKiB == 0 {
		cfg.Engine.ChunkSizeKiB = job.DefaultChunkSize / 1024
	}

	if _, err := job.ParsePolicy(cfg.Collision); err != nil {
		return errors.Errorf("collision: %w", err)
	}
	if cfg.Collision == "" {
		cfg.Collision = job.PolicyAsk.String()
	}

	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	cfg.TempDir = filepath.Clean(cfg.TempDir)

	if cfg.Archive.Format == "" {
		cfg.Archive.Format = "zip"
	}
	if _, err := archive.ByName(cfg.Archive.Format); err != nil {
		return errors.Errorf("archive.format: %w", err)
	}

	if err := job.ValidatePatterns(cfg.Exclude); err != nil {
		return err
	}

	for name, spec := range cfg.Remotes {
		if name == "" || strings.ContainsAny(name, ":/") {
			return errors.Errorf("invalid remote name %q", name)
		}
		if spec == "" {
			return errors.Errorf("remote %q has no spec", name)
		}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = zerolog.InfoLevel.String()
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return errors.Errorf("log.level: %w", err)
	}

	return nil
}

// Policy is the parsed collision policy.
func (cfg *Config) Policy() job.Policy {
	p, _ := job.ParsePolicy(cfg.Collision)
	return p
}

// ArchiveFormat is the default format for new archives.
func (cfg *Config) ArchiveFormat() *archive.Format {
	f, _ := archive.ByName(cfg.Archive.Format)
	return f
}

// LogLevel is the parsed log level.
func (cfg *Config) LogLevel() zerolog.Level {
	l, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// EngineOptions builds job engine options from the config.
func (cfg *Config) EngineOptions() job.Options {
	return job.Options{
		MaxConcurrent: int64(cfg.Engine.MaxConcurrent),
		ChunkSize:     cfg.Engine.ChunkSizeKiB * 1024,
	}
}

// 🔗 Expand rewrites "name:path" for a configured remote into its full rclone location.
// Anything else comes back unchanged.
func (cfg *Config) Expand(location string) string {
	if scheme, _ := vfs.SplitLocation(location); scheme != vfs.DefaultScheme {
		return location
	}
	name, rest, ok := strings.Cut(location, ":")
	if !ok {
		return location
	}
	spec, ok := cfg.Remotes[name]
	if !ok {
		return location
	}
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return vfs.RemoteScheme + "://" + spec
	}
	sep := "/"
	if strings.HasSuffix(spec, ":") || strings.HasSuffix(spec, "/") {
		sep = ""
	}
	return vfs.RemoteScheme + "://" + spec + sep + rest
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("jobs=%d chunk=%dKiB collision=%s archive=%s temp=%s",
		cfg.Engine.MaxConcurrent, cfg.Engine.ChunkSizeKiB, cfg.Collision, cfg.Archive.Format, cfg.TempDir)
}
