package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("// stub\n"), 0o644))
}

func TestWalk_RootNotFound(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestWalk_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "single.js")
	_, err := Walk(filepath.Join(root, "single.js"), Options{})
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestWalk_SupportedExtensionsOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js")
	writeFile(t, root, "b.jsx")
	writeFile(t, root, "c.ts")
	writeFile(t, root, "d.tsx")
	writeFile(t, root, "e.py")
	writeFile(t, root, "README.md")
	writeFile(t, root, "styles.css")
	writeFile(t, root, "go.sum")

	files, err := Walk(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "b.jsx", "c.ts", "d.tsx", "e.py"}, files)
}

func TestWalk_IgnoresToolingDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts")
	writeFile(t, root, ".git/hooks/pre-commit.py")
	writeFile(t, root, "__pycache__/app.py")
	writeFile(t, root, "dist/bundle.js")
	writeFile(t, root, ".venv/lib/site.py")

	files, err := Walk(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.ts"}, files)
}

func TestWalk_DependencyDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.js")
	writeFile(t, root, "node_modules/react/index.js")
	writeFile(t, root, "vendor/lib/util.py")

	files, err := Walk(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"index.js"}, files)

	files, err = Walk(root, Options{IncludeDependencies: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"index.js", "node_modules/react/index.js", "vendor/lib/util.py"}, files)
}

func TestWalk_MaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "top.js")
	writeFile(t, root, "src/mid.js")
	writeFile(t, root, "src/deep/low.js")
	writeFile(t, root, "src/deep/deeper/lowest.js")

	files, err := Walk(root, Options{MaxDepth: 2})
	require.NoError(t, err)
	// files at the max level stay, descent below it stops
	assert.Equal(t, []string{"src/deep/low.js", "src/mid.js", "top.js"}, files)
}

func TestWalk_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts")
	writeFile(t, root, "src/app.test.ts")
	writeFile(t, root, "src/deep/util.test.ts")
	writeFile(t, root, "scripts/gen.py")

	files, err := Walk(root, Options{ExcludePatterns: []string{"**/*.test.ts", "scripts/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.ts"}, files)
}

func TestWalk_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.js")
	writeFile(t, root, "generated/schema.js")
	writeFile(t, root, "src/secret.py")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"),
		[]byte("generated/\nsrc/secret.py\n"), 0o644))

	files, err := Walk(root, Options{UseGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.js"}, files)

	// without the flag the .gitignore is not consulted
	files, err = Walk(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"generated/schema.js", "src/app.js", "src/secret.py"}, files)
}

func TestWalk_EmptyTree(t *testing.T) {
	files, err := Walk(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, files)
}
