// Package walker enumerates candidate source files under an analysis root.
package walker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	ignore "github.com/sabhiram/go-gitignore"
)

// supportedExtensions is the extension allow-list for candidate files
var supportedExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
	".py":  true,
}

// alwaysIgnoreDirs are skipped unconditionally: VCS metadata, caches,
// virtualenvs and build output
var alwaysIgnoreDirs = map[string]bool{
	".git":             true,
	".svn":             true,
	".hg":              true,
	"__pycache__":      true,
	".venv":            true,
	"venv":             true,
	"env":              true,
	".tox":             true,
	".pytest_cache":    true,
	".mypy_cache":      true,
	".ruff_cache":      true,
	"dist":             true,
	"build":            true,
	"out":              true,
	".next":            true,
	".nuxt":            true,
	".cache":           true,
	"coverage":         true,
	".idea":            true,
	"bower_components": true,
}

// dependencyDirs hold vendored third-party packages; skipped unless the
// caller opts in
var dependencyDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
}

// ErrRootNotFound means the analysis root does not exist or is not a directory
var ErrRootNotFound = errors.New("analysis root not found")

// Options controls a walk
type Options struct {
	// IncludeDependencies also descends into node_modules/vendor
	IncludeDependencies bool

	// MaxDepth limits descent, measured as path-separator count relative to
	// the root. Zero means unlimited. Files at the configured level are still
	// collected; descent below it stops.
	MaxDepth int

	// ExcludePatterns are doublestar globs matched against relative paths
	ExcludePatterns []string

	// UseGitignore honors a .gitignore at the root when present
	UseGitignore bool
}

// Walk returns the relative (slash-separated) paths of all candidate source
// files under root, in lexical order. Unreadable subtrees are skipped
// silently; only a missing root is an error.
func Walk(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, ErrRootNotFound
	}

	var matcher *ignore.GitIgnore
	if opts.UseGitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			matcher = gi
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// unreadable entries are not fatal
			log.Debug().Err(walkErr).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if alwaysIgnoreDirs[name] {
				return filepath.SkipDir
			}
			if dependencyDirs[name] && !opts.IncludeDependencies {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && strings.Count(rel, "/") >= opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !supportedExtensions[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		for _, pattern := range opts.ExcludePatterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
