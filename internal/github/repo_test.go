package github

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL_HTTPS(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		name  string
	}{
		{"https://github.com/facebook/react", "facebook", "react"},
		{"https://github.com/facebook/react.git", "facebook", "react"},
		{"https://github.com/facebook/react/", "facebook", "react"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			info, err := ParseRepoURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, info.Owner)
			assert.Equal(t, tt.name, info.Name)
			assert.Equal(t, "https://github.com/facebook/react.git", info.CloneURL)
			assert.Equal(t, "main", info.Branch)
		})
	}
}

func TestParseRepoURL_SSH(t *testing.T) {
	info, err := ParseRepoURL("git@github.com:golang/go.git")
	require.NoError(t, err)
	assert.Equal(t, "golang", info.Owner)
	assert.Equal(t, "go", info.Name)
	assert.Equal(t, "https://github.com/golang/go.git", info.CloneURL)
}

func TestParseRepoURL_Invalid(t *testing.T) {
	tests := []string{
		"https://gitlab.com/group/project",
		"https://github.com/onlyowner",
		"git@github.com:badpath",
		"git@github.com:too/many/parts.git",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseRepoURL(raw)
			assert.Error(t, err)
		})
	}
}

func TestCleanup_OnlyInsideWorkspace(t *testing.T) {
	base := t.TempDir()
	svc := NewRepoService(base, "")

	inside := filepath.Join(base, "owner", "repo")
	require.NoError(t, os.MkdirAll(inside, 0o755))
	svc.Cleanup(inside)
	_, err := os.Stat(inside)
	assert.True(t, os.IsNotExist(err))

	// paths outside the workspace are never touched
	outside := t.TempDir()
	victim := filepath.Join(outside, "keep")
	require.NoError(t, os.MkdirAll(victim, 0o755))
	svc.Cleanup(victim)
	_, err = os.Stat(victim)
	assert.NoError(t, err)

	svc.Cleanup("")
}
