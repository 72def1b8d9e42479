package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codegraph-hq/codegraph/internal/analyzer"
	"github.com/codegraph-hq/codegraph/internal/classifier"
	"github.com/codegraph-hq/codegraph/internal/config"
	"github.com/codegraph-hq/codegraph/internal/extractor"
)

var version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:     "codegraph",
		Short:   "CodeGraph - source dependency graph analysis",
		Long:    `CodeGraph walks a JavaScript, TypeScript or Python codebase and builds its import graph, call map and function tiers.`,
		Version: version,
	}

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(tiersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	var (
		output      string
		includeDeps bool
		maxDepth    int
		noClassify  bool
		noGitignore bool
		exclude     []string
	)

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a local codebase and emit its positioned graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			result, err := runAnalysis(ctx, args[0], analyzer.Options{
				IncludeDependencies: includeDeps,
				MaxDepth:            maxDepth,
				ExcludePatterns:     exclude,
				UseGitignore:        !noGitignore,
				SkipClassifier:      noClassify,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Analyzed %d files (%d skipped) in %dms\n",
				result.Summary.TotalFiles, result.Summary.SkippedFiles, result.Summary.DurationMS)
			fmt.Printf("Graph: %d nodes, %d edges, %d resolved calls\n",
				result.Summary.TotalNodes, result.Summary.TotalEdges, result.Summary.TotalCalls)
			for lang, count := range result.Summary.Languages {
				fmt.Printf("  %s: %d files\n", lang, count)
			}

			return writeJSON(output, result.Export)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the positioned graph JSON to a file (default stdout)")
	cmd.Flags().BoolVar(&includeDeps, "include-deps", false, "Include dependency directories such as node_modules")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum directory depth (0 = unlimited)")
	cmd.Flags().BoolVar(&noClassify, "no-classify", false, "Skip the AI classifier, keep path heuristics only")
	cmd.Flags().BoolVar(&noGitignore, "no-gitignore", false, "Ignore .gitignore rules when walking")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "e", nil, "Glob patterns to exclude (repeatable)")

	return cmd
}

func graphCmd() *cobra.Command {
	var (
		output      string
		includeDeps bool
	)

	cmd := &cobra.Command{
		Use:   "graph [path]",
		Short: "Emit the raw dependency graph of a local codebase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			result, err := runAnalysis(ctx, args[0], analyzer.Options{
				IncludeDependencies: includeDeps,
				UseGitignore:        true,
				SkipClassifier:      true,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Graph: %d nodes, %d edges\n",
				result.Summary.TotalNodes, result.Summary.TotalEdges)

			return writeJSON(output, result.Graph)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the graph JSON to a file (default stdout)")
	cmd.Flags().BoolVar(&includeDeps, "include-deps", false, "Include dependency directories such as node_modules")

	return cmd
}

func tiersCmd() *cobra.Command {
	var (
		output string
		top    int
	)

	cmd := &cobra.Command{
		Use:   "tiers [path]",
		Short: "Rank the functions of a local codebase into tiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			result, err := runAnalysis(ctx, args[0], analyzer.Options{
				UseGitignore:   true,
				SkipClassifier: true,
			})
			if err != nil {
				return err
			}

			report := result.Tiers
			fmt.Printf("Ranked %d functions across %d calls\n",
				report.Stats.TotalFunctions, report.Stats.TotalCalls)
			shown := 0
			for _, item := range report.Items {
				if top > 0 && shown >= top {
					break
				}
				fmt.Printf("  [%s] %-40s %s:%d score=%.1f\n",
					item.Tier, item.QualifiedName, item.File, item.StartLine, item.Score)
				shown++
			}

			if output != "" {
				return writeJSON(output, report)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the full tier report JSON to a file")
	cmd.Flags().IntVarP(&top, "top", "n", 20, "Number of functions to print (0 = all)")

	return cmd
}

func runAnalysis(ctx context.Context, root string, opts analyzer.Options) (*analyzer.Result, error) {
	project, err := config.LoadProjectConfig(root)
	if err != nil {
		return nil, err
	}

	ext := extractor.New(extractor.WithMaxFileSize(project.MaxFileSize))

	var client classifier.Client
	if !opts.SkipClassifier && !project.Classifier.Disabled {
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			client = classifier.NewLLMClient(key, os.Getenv("CLASSIFIER_MODEL"), "")
		}
	}

	opts.Root = root
	opts.SourceRoot = project.SourceRoot
	opts.ExcludePatterns = append(opts.ExcludePatterns, project.Exclude...)
	if opts.MaxDepth == 0 {
		opts.MaxDepth = project.MaxDepth
	}
	if !opts.IncludeDependencies {
		opts.IncludeDependencies = project.IncludeDependencies
	}

	return analyzer.New(ext, classifier.New(client)).Run(ctx, opts)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
