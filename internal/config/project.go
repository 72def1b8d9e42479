package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig represents a .codegraph.yaml file at a repository root.
// Everything is optional; zero values fall back to analyzer defaults.
type ProjectConfig struct {
	Version string `yaml:"version"`

	// SourceRoot is the directory alias prefixes (@/, ~/) expand to
	SourceRoot string `yaml:"source_root,omitempty"`

	// Exclude are doublestar globs matched against relative paths
	Exclude []string `yaml:"exclude,omitempty"`

	// IncludeDependencies also walks node_modules/vendor
	IncludeDependencies bool `yaml:"include_dependencies,omitempty"`

	// MaxDepth limits traversal depth, zero means unlimited
	MaxDepth int `yaml:"max_depth,omitempty"`

	// MaxFileSize overrides the parse ceiling in bytes
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`

	// Classifier toggles the AI classifier for this repository
	Classifier ProjectClassifierConfig `yaml:"classifier,omitempty"`
}

// ProjectClassifierConfig holds per-repo classifier preferences
type ProjectClassifierConfig struct {
	Disabled bool `yaml:"disabled,omitempty"`
}

// DefaultProjectConfig returns the defaults applied when no file exists
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Version:    "1",
		SourceRoot: "src",
	}
}

// LoadProjectConfig reads .codegraph.yaml (or .codegraph.yml) from the
// repository root. A missing file returns defaults; a malformed one is an
// error.
func LoadProjectConfig(repoPath string) (*ProjectConfig, error) {
	cfg := DefaultProjectConfig()

	var data []byte
	var err error
	for _, name := range []string{".codegraph.yaml", ".codegraph.yml"} {
		data, err = os.ReadFile(filepath.Join(repoPath, name))
		if err == nil {
			break
		}
	}
	if err != nil {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.SourceRoot == "" {
		cfg.SourceRoot = "src"
	}
	return cfg, nil
}
