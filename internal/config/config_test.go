package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSize)
	assert.False(t, cfg.Classifier.Disabled)
	assert.NotEmpty(t, cfg.Classifier.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("CLASSIFIER_DISABLED", "true")
	t.Setenv("MAX_FILE_SIZE", "1024")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.True(t, cfg.Classifier.Disabled)
	assert.Equal(t, int64(1024), cfg.MaxFileSize)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: 8080, MaxFileSize: 1}
	assert.NoError(t, cfg.Validate())

	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Port = 8080
	cfg.MaxFileSize = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadProjectConfig_Missing(t *testing.T) {
	cfg, err := LoadProjectConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "src", cfg.SourceRoot)
	assert.Empty(t, cfg.Exclude)
	assert.False(t, cfg.Classifier.Disabled)
}

func TestLoadProjectConfig_Yaml(t *testing.T) {
	root := t.TempDir()
	content := `version: "1"
source_root: app
exclude:
  - "**/*.test.ts"
  - "scripts/**"
max_depth: 4
classifier:
  disabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".codegraph.yaml"), []byte(content), 0o644))

	cfg, err := LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.SourceRoot)
	assert.Equal(t, []string{"**/*.test.ts", "scripts/**"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.MaxDepth)
	assert.True(t, cfg.Classifier.Disabled)
}

func TestLoadProjectConfig_YmlFallback(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".codegraph.yml"),
		[]byte("source_root: web\n"), 0o644))

	cfg, err := LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.SourceRoot)
}

func TestLoadProjectConfig_Malformed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".codegraph.yaml"),
		[]byte("source_root: [unclosed\n"), 0o644))

	_, err := LoadProjectConfig(root)
	assert.Error(t, err)
}
