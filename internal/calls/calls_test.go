package calls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-hq/codegraph/internal/extractor"
	"github.com/codegraph-hq/codegraph/internal/resolver"
)

// fixture: app.ts imports fetchUser from api.ts and calls it alongside a
// local helper; unique() lives only in util.ts; dup() exists twice.
func callFixture() ([]*extractor.FileFacts, *resolver.Resolver) {
	files := []*extractor.FileFacts{
		{
			Source: extractor.SourceFile{RelPath: "src/app.ts"},
			Imports: []extractor.ImportRecord{
				{Specifier: "./api", Kind: extractor.ImportStatic, Names: []string{"fetchUser", "client"}},
			},
			Functions: []extractor.FunctionDefinition{
				{File: "src/app.ts", Name: "render", QualifiedName: "render"},
				{File: "src/app.ts", Name: "dup", QualifiedName: "dup"},
			},
			Calls: []extractor.CallSite{
				{File: "src/app.ts", Line: 5, Column: 1, Callee: "render", Kind: extractor.CallPlain},
				{File: "src/app.ts", Line: 6, Column: 1, Callee: "fetchUser", Kind: extractor.CallPlain},
				{File: "src/app.ts", Line: 7, Column: 1, Callee: "get", Qualifier: "client", Kind: extractor.CallMethod},
				{File: "src/app.ts", Line: 8, Column: 1, Callee: "unique", Kind: extractor.CallPlain},
				{File: "src/app.ts", Line: 9, Column: 1, Callee: "dup", Kind: extractor.CallPlain},
				{File: "src/app.ts", Line: 10, Column: 1, Callee: "axios", Kind: extractor.CallPlain},
			},
		},
		{
			Source: extractor.SourceFile{RelPath: "src/api.ts"},
			Functions: []extractor.FunctionDefinition{
				{File: "src/api.ts", Name: "fetchUser", QualifiedName: "fetchUser"},
				{File: "src/api.ts", Name: "dup", QualifiedName: "dup"},
			},
		},
		{
			Source: extractor.SourceFile{RelPath: "src/util.ts"},
			Functions: []extractor.FunctionDefinition{
				{File: "src/util.ts", Name: "unique", QualifiedName: "unique"},
			},
		},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Source.RelPath)
	}
	return files, resolver.New(resolver.NewFileSet(paths))
}

func TestResolveSite_LocalFirst(t *testing.T) {
	files, res := callFixture()
	r := NewResolver(files, res)

	got := r.ResolveSite(files[0].Calls[0]) // render()
	assert.Equal(t, extractor.OriginLocal, got.Origin)
	assert.Equal(t, "src/app.ts", got.TargetFile)
}

func TestResolveSite_ImportedName(t *testing.T) {
	files, res := callFixture()
	r := NewResolver(files, res)

	got := r.ResolveSite(files[0].Calls[1]) // fetchUser()
	assert.Equal(t, extractor.OriginInternal, got.Origin)
	assert.Equal(t, "src/api.ts", got.TargetFile)
}

func TestResolveSite_QualifierLookup(t *testing.T) {
	files, res := callFixture()
	r := NewResolver(files, res)

	// client.get() resolves through the imported qualifier, not the method
	got := r.ResolveSite(files[0].Calls[2])
	assert.Equal(t, extractor.OriginInternal, got.Origin)
	assert.Equal(t, "src/api.ts", got.TargetFile)
}

func TestResolveSite_UniqueGlobalName(t *testing.T) {
	files, res := callFixture()
	r := NewResolver(files, res)

	got := r.ResolveSite(files[0].Calls[3]) // unique()
	assert.Equal(t, extractor.OriginInternal, got.Origin)
	assert.Equal(t, "src/util.ts", got.TargetFile)
}

func TestResolveSite_AmbiguousNameNotGuessed(t *testing.T) {
	files, res := callFixture()
	r := NewResolver(files, res)

	// dup is defined locally in app.ts, so local scope wins there
	got := r.ResolveSite(files[0].Calls[4])
	assert.Equal(t, extractor.OriginLocal, got.Origin)

	// from a third file the two dup definitions are ambiguous: external
	got = r.ResolveSite(extractor.CallSite{File: "src/util.ts", Line: 1, Column: 1, Callee: "dup"})
	assert.Equal(t, extractor.OriginExternal, got.Origin)
	assert.Empty(t, got.TargetFile)
}

func TestResolveSite_ExternalDefault(t *testing.T) {
	files, res := callFixture()
	r := NewResolver(files, res)

	got := r.ResolveSite(files[0].Calls[5]) // axios()
	assert.Equal(t, extractor.OriginExternal, got.Origin)
	assert.Empty(t, got.TargetFile)
}

func TestResolveAll_OrderAndMerge(t *testing.T) {
	files, res := callFixture()
	r := NewResolver(files, res)

	resolved := r.ResolveAll(files)
	require.Len(t, resolved, len(files[0].Calls))

	// output follows input order and keeps the site intact
	for i, rc := range resolved {
		assert.Equal(t, files[0].Calls[i], rc.Site)
		assert.NotEqual(t, extractor.OriginUnset, rc.Origin)
	}
}
