// Package analyzer orchestrates the pipeline: walk, extract, resolve
// imports, build the graph, resolve calls, tier functions, decorate nodes.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codegraph-hq/codegraph/internal/calls"
	"github.com/codegraph-hq/codegraph/internal/classifier"
	"github.com/codegraph-hq/codegraph/internal/extractor"
	"github.com/codegraph-hq/codegraph/internal/graph"
	"github.com/codegraph-hq/codegraph/internal/resolver"
	"github.com/codegraph-hq/codegraph/internal/tiers"
	"github.com/codegraph-hq/codegraph/internal/walker"
)

// ErrNoSupportedFiles is the one fatal input error: the root exists but
// holds nothing we can analyze
var ErrNoSupportedFiles = errors.New("no supported files found")

// Options configures one analysis run
type Options struct {
	Root                string
	IncludeDependencies bool
	MaxDepth            int
	ExcludePatterns     []string
	UseGitignore        bool
	SourceRoot          string // alias expansion target, default src
	Concurrency         int    // parallel file extraction, default NumCPU
	SkipClassifier      bool
}

// FileError records one file-local failure. These never abort a run.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Summary is the run metadata persisted alongside the graph
type Summary struct {
	TotalFiles   int            `json:"total_files"`
	TotalNodes   int            `json:"total_nodes"`
	TotalEdges   int            `json:"total_edges"`
	TotalCalls   int            `json:"total_calls"`
	Languages    map[string]int `json:"languages"`
	SkippedFiles int            `json:"skipped_files"`
	DurationMS   int64          `json:"duration_ms"`
	Errors       []FileError    `json:"errors,omitempty"`
}

// Result is the full output of one run
type Result struct {
	ID      uuid.UUID              `json:"id"`
	Root    string                 `json:"root"`
	Files   []*extractor.FileFacts `json:"files"`
	Graph   *graph.Graph           `json:"graph"`
	Export  *graph.PositionedGraph `json:"export"`
	Calls   []calls.ResolvedCall   `json:"calls"`
	Tiers   *tiers.Report          `json:"tiers"`
	Summary Summary                `json:"summary"`
}

// Analyzer runs the pipeline. Construct once per process with its long-lived
// extractor and classifier and inject wherever analyses run.
type Analyzer struct {
	extractor  *extractor.Extractor
	classifier *classifier.Classifier
}

// New creates an analyzer
func New(ext *extractor.Extractor, cls *classifier.Classifier) *Analyzer {
	return &Analyzer{extractor: ext, classifier: cls}
}

// Run executes the pipeline over opts.Root. Per-file parse failures are
// collected and skipped; only a missing root or an empty discovery set
// aborts.
func (a *Analyzer) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}

	paths, err := walker.Walk(root, walker.Options{
		IncludeDependencies: opts.IncludeDependencies,
		MaxDepth:            opts.MaxDepth,
		ExcludePatterns:     opts.ExcludePatterns,
		UseGitignore:        opts.UseGitignore,
	})
	if err != nil {
		return nil, fmt.Errorf("walk failed: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoSupportedFiles, opts.Root)
	}

	files, fileErrors := a.extractAll(ctx, root, paths, opts.Concurrency)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: all %d candidates failed extraction", ErrNoSupportedFiles, len(paths))
	}

	relPaths := make([]string, 0, len(files))
	for _, f := range files {
		relPaths = append(relPaths, f.Source.RelPath)
	}
	set := resolver.NewFileSet(relPaths)

	var resOpts []resolver.Option
	if opts.SourceRoot != "" {
		resOpts = append(resOpts, resolver.WithSourceRoot(opts.SourceRoot))
	}
	res := resolver.New(set, resOpts...)
	res.ResolveAll(files)

	// Skipping classification drops the AI client, not decoration: path
	// heuristics still label every node.
	decorator := a.classifier
	if decorator == nil || opts.SkipClassifier {
		decorator = classifier.New(nil)
	}
	decorations := decorator.Decorate(ctx, filepath.Base(root), files)

	g := graph.Build(files, res, toGraphDecorations(decorations))

	resolvedCalls := calls.NewResolver(files, res).ResolveAll(files)

	nodeIDs := make(map[string]string, len(files))
	for _, f := range files {
		nodeIDs[f.Source.RelPath] = graph.NodeID(f.Source.RelPath)
	}
	report := tiers.Calculate(files, resolvedCalls, nodeIDs)

	result := &Result{
		ID:     uuid.New(),
		Root:   root,
		Files:  files,
		Graph:  g,
		Export: graph.Export(g),
		Calls:  resolvedCalls,
		Tiers:  report,
		Summary: Summary{
			TotalFiles:   len(files),
			TotalNodes:   len(g.Nodes),
			TotalEdges:   len(g.Edges),
			TotalCalls:   len(resolvedCalls),
			Languages:    countLanguages(files),
			SkippedFiles: len(fileErrors),
			DurationMS:   time.Since(start).Milliseconds(),
			Errors:       fileErrors,
		},
	}

	log.Info().
		Int("files", len(files)).
		Int("nodes", len(g.Nodes)).
		Int("edges", len(g.Edges)).
		Int("skipped", len(fileErrors)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")

	return result, nil
}

// extractAll parses files in parallel. Each goroutine writes only its own
// slot, so extraction shares no mutable state across files.
func (a *Analyzer) extractAll(ctx context.Context, root string, paths []string, concurrency int) ([]*extractor.FileFacts, []FileError) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	slots := make([]*extractor.FileFacts, len(paths))
	var mu sync.Mutex
	var fileErrors []FileError

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, rel := range paths {
		eg.Go(func() error {
			abs := filepath.Join(root, filepath.FromSlash(rel))
			content, err := os.ReadFile(abs)
			if err != nil {
				mu.Lock()
				fileErrors = append(fileErrors, FileError{Path: rel, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			facts, err := a.extractor.Extract(egCtx, abs, rel, string(content))
			if err != nil {
				log.Debug().Err(err).Str("file", rel).Msg("skipping file")
				mu.Lock()
				fileErrors = append(fileErrors, FileError{Path: rel, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			slots[i] = facts
			return nil
		})
	}
	_ = eg.Wait()

	// compact in walk order so downstream output stays deterministic
	files := make([]*extractor.FileFacts, 0, len(paths))
	for _, f := range slots {
		if f != nil {
			files = append(files, f)
		}
	}
	return files, fileErrors
}

func toGraphDecorations(in map[string]classifier.Decoration) map[string]graph.Decoration {
	if in == nil {
		return nil
	}
	out := make(map[string]graph.Decoration, len(in))
	for path, dec := range in {
		out[path] = graph.Decoration{
			Role:        string(dec.Role),
			Category:    string(dec.Category),
			Description: dec.Description,
		}
	}
	return out
}

func countLanguages(files []*extractor.FileFacts) map[string]int {
	out := make(map[string]int)
	for _, f := range files {
		out[string(f.Source.Language)]++
	}
	return out
}
