package extractor

import "fmt"

// Language represents a detected source language
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageUnknown    Language = "unknown"
)

// ImportKind classifies how a module was imported
type ImportKind string

const (
	ImportStatic  ImportKind = "import"
	ImportDynamic ImportKind = "dynamic-import"
	ImportRequire ImportKind = "require"
	ImportFrom    ImportKind = "from-import"
)

// FunctionKind classifies a function definition
type FunctionKind string

const (
	FunctionPlain       FunctionKind = "function"
	FunctionArrow       FunctionKind = "arrow"
	FunctionMethod      FunctionKind = "method"
	FunctionConstructor FunctionKind = "constructor"
	FunctionHook        FunctionKind = "hook"
)

// CallKind classifies a call site expression
type CallKind string

const (
	CallPlain       CallKind = "plain"
	CallMethod      CallKind = "method"
	CallConstructor CallKind = "constructor"
)

// Origin classifies where a call's target lives. It starts unset and is
// assigned exactly once by the call resolver.
type Origin string

const (
	OriginUnset    Origin = ""
	OriginLocal    Origin = "local"
	OriginInternal Origin = "internal"
	OriginExternal Origin = "external"
)

// SourceFile describes one discovered source file. Built once per walk,
// immutable afterwards.
type SourceFile struct {
	AbsPath  string   `json:"abs_path"`
	RelPath  string   `json:"rel_path"`
	Name     string   `json:"name"`
	Folder   string   `json:"folder"`
	Language Language `json:"language"`
	Size     int64    `json:"size"`
	Lines    int      `json:"lines"`
	// Content is retained only when the caller asked for it, e.g. for
	// persisting files from an ephemeral clone.
	Content string `json:"content,omitempty"`
}

// ImportRecord is one import statement in a file. ResolvedPath is empty until
// the resolver pass fills it in; that pass is the only place it changes.
type ImportRecord struct {
	File         string     `json:"file"`
	Specifier    string     `json:"specifier"`
	Kind         ImportKind `json:"kind"`
	Names        []string   `json:"names,omitempty"`
	IsRelative   bool       `json:"is_relative"`
	ResolvedPath string     `json:"resolved_path,omitempty"`
}

// FunctionDefinition is one extracted function. Immutable after extraction.
type FunctionDefinition struct {
	File          string       `json:"file"`
	Name          string       `json:"name"`
	QualifiedName string       `json:"qualified_name"`
	Kind          FunctionKind `json:"kind"`
	StartLine     int          `json:"start_line"`
	EndLine       int          `json:"end_line"`
	ParamCount    int          `json:"param_count"`
	Async         bool         `json:"async"`
	Exported      bool         `json:"exported"`
	EntryPoint    bool         `json:"entry_point"`
	ParentClass   string       `json:"parent_class,omitempty"`
}

// ClassDefinition is one extracted class
type ClassDefinition struct {
	File      string `json:"file"`
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Exported  bool   `json:"exported"`
}

// CallSite is one call expression observed in a file. Origin assignment is
// the call resolver's job; extraction leaves it unset.
type CallSite struct {
	File      string   `json:"file"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	Callee    string   `json:"callee"`
	Qualifier string   `json:"qualifier,omitempty"`
	Kind      CallKind `json:"kind"`
}

// ID returns a stable identity for the call site within one analysis run
func (c CallSite) ID() string {
	return fmt.Sprintf("%s:%d:%d:%s", c.File, c.Line, c.Column, c.Callee)
}

// FileFacts bundles everything extracted from one source file
type FileFacts struct {
	Source    SourceFile           `json:"source"`
	Imports   []ImportRecord       `json:"imports"`
	Exports   []string             `json:"exports"`
	Functions []FunctionDefinition `json:"functions"`
	Classes   []ClassDefinition    `json:"classes"`
	Calls     []CallSite           `json:"calls"`
}
