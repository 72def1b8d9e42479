// Package extractor turns source files into structural facts (imports,
// exports, functions, classes, call sites) using tree-sitter concrete
// syntax trees.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DefaultMaxFileSize is the parse ceiling applied when no override is set
const DefaultMaxFileSize = 2 * 1024 * 1024

var (
	// ErrUnsupportedLanguage marks a file whose extension is not in the
	// supported set. The file is skipped, not a run failure.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrFileTooLarge marks a file exceeding the parse ceiling
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// Extractor parses source files with tree-sitter. Construct one per process
// and inject it wherever extraction runs; the per-language parsers are
// long-lived and reused across files.
type Extractor struct {
	jsParser  *langParser
	tsParser  *langParser
	tsxParser *langParser
	pyParser  *langParser

	maxFileSize int64
	keepContent bool
}

// langParser serializes access to one tree-sitter parser. Parsers are not
// safe for concurrent use, and the host may extract files in parallel.
type langParser struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

func newLangParser(lang *sitter.Language) *langParser {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &langParser{parser: p}
}

func (lp *langParser) parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.parser.ParseCtx(ctx, nil, source)
}

// Option configures an Extractor
type Option func(*Extractor)

// WithMaxFileSize overrides the parse ceiling in bytes
func WithMaxFileSize(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFileSize = n
		}
	}
}

// WithKeepContent retains raw file content on extracted SourceFiles, for
// callers that persist files from ephemeral clones
func WithKeepContent(keep bool) Option {
	return func(e *Extractor) { e.keepContent = keep }
}

// New creates an extractor with parsers for every supported language
func New(opts ...Option) *Extractor {
	e := &Extractor{
		jsParser:    newLangParser(javascript.GetLanguage()),
		tsParser:    newLangParser(typescript.GetLanguage()),
		tsxParser:   newLangParser(tsx.GetLanguage()),
		pyParser:    newLangParser(python.GetLanguage()),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetectLanguage maps a file extension to a language
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs":
		return LanguageJavaScript
	case ".ts", ".tsx":
		return LanguageTypeScript
	case ".py":
		return LanguagePython
	default:
		return LanguageUnknown
	}
}

// Extract parses content and returns the file's structural facts.
//
// relPath is the path relative to the analysis root, slash-separated.
// Unsupported extensions return ErrUnsupportedLanguage; content larger than
// the ceiling returns ErrFileTooLarge. Both are file-local: callers skip the
// file and continue the run. tree-sitter grammars are error tolerant, so
// malformed code still yields partial facts.
func (e *Extractor) Extract(ctx context.Context, absPath, relPath, content string) (*FileFacts, error) {
	lang := DetectLanguage(relPath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, relPath)
	}
	if int64(len(content)) > e.maxFileSize {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, relPath, len(content))
	}

	source := []byte(content)
	tree, err := e.parserFor(lang, relPath).parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", relPath, err)
	}
	defer tree.Close()

	relPath = filepath.ToSlash(relPath)
	facts := &FileFacts{
		Source: SourceFile{
			AbsPath:  absPath,
			RelPath:  relPath,
			Name:     filepath.Base(relPath),
			Folder:   folderOf(relPath),
			Language: lang,
			Size:     int64(len(content)),
			Lines:    countLines(content),
		},
		Imports:   make([]ImportRecord, 0),
		Exports:   make([]string, 0),
		Functions: make([]FunctionDefinition, 0),
		Classes:   make([]ClassDefinition, 0),
		Calls:     make([]CallSite, 0),
	}
	if e.keepContent {
		facts.Source.Content = content
	}

	switch lang {
	case LanguagePython:
		extractPython(tree.RootNode(), source, facts)
	default:
		extractJS(tree.RootNode(), source, facts)
	}

	return facts, nil
}

func (e *Extractor) parserFor(lang Language, path string) *langParser {
	if lang == LanguagePython {
		return e.pyParser
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return e.tsParser
	case ".tsx":
		return e.tsxParser
	default:
		return e.jsParser
	}
}

func folderOf(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return ""
	}
	return dir
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// walkTree visits every node depth-first. The visitor returns false to skip
// a node's children.
func walkTree(node *sitter.Node, visit func(*sitter.Node) bool) {
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(i), visit)
	}
}
