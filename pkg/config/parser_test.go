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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	ext string
}

func (s *stubParser) CanParse(filename string) bool { return filename == "x"+s.ext }

func (s *stubParser) Parse(context.Context, []byte) (*Config, error) { return &Config{}, nil }

// 🧪 TestParserRegistration tests the parser registration system
func TestParserRegistration(t *testing.T) {
	originalParsers := parsers
	defer func() {
		parsers = originalParsers
	}()
	parsers = nil

	p := &stubParser{ext: ".stub"}
	Register(p)
	assert.Len(t, parsers, 1, "should have 1 parser registered")
	assert.Same(t, p, GetParser("x.stub"), "registered parser should be found")
	assert.Nil(t, GetParser("x.other"), "no parser should match")
}

// 🧪 TestParserSelection tests parser selection by file extension
func TestParserSelection(t *testing.T) {
	tests := []struct {
		filename string
		want     Parser
	}{
		{"vfsjob.yaml", &YAMLParser{}},
		{"vfsjob.YML", &YAMLParser{}},
		{"vfsjob.json", &JSONParser{}},
		{"vfsjob.hcl", &HCLParser{}},
		{"vfsjob.txt", nil},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}

// 🧪 TestFormatsAgree tests that the same settings read the same in every format
func TestFormatsAgree(t *testing.T) {
	files := map[string]string{
		"vfsjob.yaml": `
engine:
  max_concurrent: 3
collision: skip
archive:
  format: tar
exclude: ["*.log"]
remotes:
  media: "sftp:media"
log:
  level: warn
`,
		"vfsjob.json": `{
	"engine": {"max_concurrent": 3},
	"collision": "skip",
	"archive": {"format": "tar"},
	"exclude": ["*.log"],
	"remotes": {"media": "sftp:media"},
	"log": {"level": "warn"}
}`,
		"vfsjob.hcl": `
engine {
  max_concurrent = 3
}
collision = "skip"
archive {
  format = "tar"
}
exclude = ["*.log"]
remotes = {
  media = "sftp:media"
}
log {
  level = "warn"
}
`,
	}

	var configs []*Config
	for name, content := range files {
		cfg, err := Load(testContext(t), writeConfig(t, name, content))
		require.NoError(t, err, "loading %s should succeed", name)
		configs = append(configs, cfg)
	}

	for _, cfg := range configs {
		assert.Equal(t, 3, cfg.Engine.MaxConcurrent)
		assert.Equal(t, "skip", cfg.Collision)
		assert.Equal(t, "tar", cfg.Archive.Format)
		assert.Equal(t, []string{"*.log"}, cfg.Exclude)
		assert.Equal(t, map[string]string{"media": "sftp:media"}, cfg.Remotes)
		assert.Equal(t, "warn", cfg.Log.Level)
	}
}

// 🧪 TestJSONUnknownField tests that JSON rejects fields it does not know
func TestJSONUnknownField(t *testing.T) {
	_, err := (&JSONParser{}).Parse(context.Background(), []byte(`{"force": true}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON")
}

// 🧪 TestJSONErrorLines tests that JSON errors point at the line they come from
func TestJSONErrorLines(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "{\n  \"collision\": \"skip\",\n  \"temp_dir\": ,\n}", "line 3"},
		{"type", "{\n  \"engine\": {\"max_concurrent\": \"two\"}\n}", "line 2"},
		{"trailing", "{\"collision\": \"skip\"}\n{}", "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&JSONParser{}).Parse(context.Background(), []byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// 🧪 TestHCLEnvironment tests that HCL expressions can read the environment
func TestHCLEnvironment(t *testing.T) {
	t.Setenv("VFSJOB_TEST_TMP", "/scratch")

	cfg, err := (&HCLParser{}).Parse(context.Background(), []byte(`temp_dir = "${env.VFSJOB_TEST_TMP}/jobs"`))
	require.NoError(t, err)
	assert.Equal(t, "/scratch/jobs", cfg.TempDir)
}

// 🧪 TestHCLErrors tests HCL syntax and schema errors
func TestHCLErrors(t *testing.T) {
	_, err := (&HCLParser{}).Parse(context.Background(), []byte(`engine {`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing HCL")

	_, err = (&HCLParser{}).Parse(context.Background(), []byte(`destination = "/tmp"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding HCL")
}
