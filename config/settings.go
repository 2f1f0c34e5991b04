// Package config provides configuration structures for the blender.
// It defines the blend inputs and limits, the HTTP server settings, and the
// optional blender.yml file they are loaded from.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults used when neither flags nor blender.yml set a value.
const (
	DefaultExternalPath    = "results-filled-20.txt"
	DefaultForkedPath      = "all_unwatched_sources.txt"
	DefaultForkedLimit     = 5
	DefaultResultLimit     = 10
	DefaultPort            = "8080"
	DefaultDataDir         = "./blender_data"
	DefaultMaxWorkers      = 2
	DefaultMaxRequestBytes = 32 << 20
)

// configFileNames are tried in order by Load
var configFileNames = []string{"blender.yml", "blender.yaml"}

// BlendSettings describes which files are blended and how.
//
// The external file is the primary, larger list; the forked file contributes
// its first ForkedLimit values to the front of every merged line.
type BlendSettings struct {
	ExternalPath string `yaml:"externalPath" json:"external_path"` // Primary suggestions, one "key:v1,v2,..." line per key
	ForkedPath   string `yaml:"forkedPath" json:"forked_path"`     // Prioritised suggestions, positionally aligned with ExternalPath
	ForkedLimit  int    `yaml:"forkedLimit" json:"forked_limit"`   // How many forked values are considered per line
	ResultLimit  int    `yaml:"resultLimit" json:"result_limit"`   // Maximum number of values per merged line
}

// ServerSettings configures `blender serve`.
type ServerSettings struct {
	Port            string `yaml:"port" json:"port"`
	DataDir         string `yaml:"dataDir" json:"data_dir"`                 // Where result snapshots are kept
	MaxWorkers      int    `yaml:"maxWorkers" json:"max_workers"`           // Concurrent background blend jobs
	MaxRequestBytes int64  `yaml:"maxRequestBytes" json:"max_request_bytes"` // Body size limit for POST /blend
	Watch           bool   `yaml:"watch" json:"watch"`                      // Re-blend when an input file changes
}

// Settings is the full contents of blender.yml.
type Settings struct {
	Blend  BlendSettings  `yaml:"blend" json:"blend"`
	Server ServerSettings `yaml:"server" json:"server"`
}

// DefaultBlendSettings returns the built-in input files and limits.
func DefaultBlendSettings() BlendSettings {
	return BlendSettings{
		ExternalPath: DefaultExternalPath,
		ForkedPath:   DefaultForkedPath,
		ForkedLimit:  DefaultForkedLimit,
		ResultLimit:  DefaultResultLimit,
	}
}

// DefaultSettings returns defaults for every section.
func DefaultSettings() Settings {
	return Settings{
		Blend: DefaultBlendSettings(),
		Server: ServerSettings{
			Port:            DefaultPort,
			DataDir:         DefaultDataDir,
			MaxWorkers:      DefaultMaxWorkers,
			MaxRequestBytes: DefaultMaxRequestBytes,
		},
	}
}

// Load reads blender.yml or blender.yaml from dir. Fields missing from the
// file keep their defaults. Returns the defaults (not an error) if no config
// file exists.
func Load(dir string) (*Settings, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	settings := DefaultSettings()
	return &settings, nil
}

// LoadFile reads a specific config file. Unlike Load, a missing file is an error.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is chosen by the operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &settings, nil
}

// Validate returns a list of problems with the blend settings; empty means valid.
func (s *BlendSettings) Validate() []string {
	var problems []string

	if strings.TrimSpace(s.ExternalPath) == "" {
		problems = append(problems, "external path cannot be empty")
	}
	if strings.TrimSpace(s.ForkedPath) == "" {
		problems = append(problems, "forked path cannot be empty")
	}
	if s.ForkedLimit < 0 {
		problems = append(problems, fmt.Sprintf("forked limit must not be negative, got %d", s.ForkedLimit))
	}
	if s.ResultLimit <= 0 {
		problems = append(problems, fmt.Sprintf("result limit must be positive, got %d", s.ResultLimit))
	}

	return problems
}

// ValidateLimits checks only the numeric limits, for requests that carry
// their own lines instead of file paths.
func (s *BlendSettings) ValidateLimits() []string {
	withPaths := *s
	withPaths.ExternalPath = "-"
	withPaths.ForkedPath = "-"
	return withPaths.Validate()
}

// Validate returns a list of problems with the server settings.
func (s *ServerSettings) Validate() []string {
	var problems []string

	if strings.TrimSpace(s.Port) == "" {
		problems = append(problems, "port cannot be empty")
	}
	if strings.TrimSpace(s.DataDir) == "" {
		problems = append(problems, "data directory cannot be empty")
	}
	if s.MaxWorkers <= 0 {
		problems = append(problems, fmt.Sprintf("max workers must be positive, got %d", s.MaxWorkers))
	}
	if s.MaxRequestBytes <= 0 {
		problems = append(problems, fmt.Sprintf("max request bytes must be positive, got %d", s.MaxRequestBytes))
	}

	return problems
}
