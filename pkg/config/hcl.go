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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// hclConfig is the HCL schema; blocks are optional so an empty file is valid.
type hclConfig struct {
	Engine *struct {
		MaxConcurrent int `hcl:"max_concurrent,optional"`
		ChunkSizeKiB  int `hcl:"chunk_size_kib,optional"`
	} `hcl:"engine,block"`
	Collision string `hcl:"collision,optional"`
	TempDir   string `hcl:"temp_dir,optional"`
	Archive   *struct {
		Format  string `hcl:"format,optional"`
		Comment string `hcl:"comment,optional"`
	} `hcl:"archive,block"`
	Exclude []string          `hcl:"exclude,optional"`
	Remotes map[string]string `hcl:"remotes,optional"`
	Log     *struct {
		Level string `hcl:"level,optional"`
	} `hcl:"log,block"`
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// env is available to expressions, e.g. temp_dir = "${env.HOME}/tmp"
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Collision: hclCfg.Collision,
		TempDir:   hclCfg.TempDir,
		Exclude:   hclCfg.Exclude,
		Remotes:   hclCfg.Remotes,
	}
	if e := hclCfg.Engine; e != nil {
		cfg.Engine = EngineArgs{MaxConcurrent: e.MaxConcurrent, ChunkSizeKiB: e.ChunkSizeKiB}
	}
	if a := hclCfg.Archive; a != nil {
		cfg.Archive = ArchiveArgs{Format: a.Format, Comment: a.Comment}
	}
	if l := hclCfg.Log; l != nil {
		cfg.Log = LogArgs{Level: l.Level}
	}

	return cfg, nil
}

func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
