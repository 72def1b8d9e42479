package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractPython walks a Python syntax tree and fills facts. Imports and calls
// come from a flat walk; definitions are collected recursively so methods get
// attributed to their parent class.
func extractPython(root *sitter.Node, source []byte, facts *FileFacts) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			facts.Imports = append(facts.Imports, parsePyImport(n, source, facts.Source.RelPath)...)
		case "import_from_statement":
			if imp := parsePyFromImport(n, source, facts.Source.RelPath); imp != nil {
				facts.Imports = append(facts.Imports, *imp)
			}
		case "call":
			if call := parsePyCall(n, source, facts.Source.RelPath); call != nil {
				facts.Calls = append(facts.Calls, *call)
			}
		}
		return true
	})

	collectPyDefs(root, source, "", facts)
}

// parsePyImport handles `import a.b` and `import a.b as c`, one record per
// imported module
func parsePyImport(node *sitter.Node, source []byte, file string) []ImportRecord {
	var imports []ImportRecord
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			specifier := child.Content(source)
			imports = append(imports, ImportRecord{
				File:      file,
				Specifier: specifier,
				Kind:      ImportStatic,
				Names:     []string{lastDotSegment(specifier)},
			})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil {
				continue
			}
			imp := ImportRecord{
				File:      file,
				Specifier: nameNode.Content(source),
				Kind:      ImportStatic,
			}
			if aliasNode != nil {
				imp.Names = []string{aliasNode.Content(source)}
			} else {
				imp.Names = []string{lastDotSegment(imp.Specifier)}
			}
			imports = append(imports, imp)
		}
	}
	return imports
}

// parsePyFromImport handles `from x import a, b` including relative forms.
// The specifier keeps the leading dots so the resolver can count them.
func parsePyFromImport(node *sitter.Node, source []byte, file string) *ImportRecord {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil
	}

	imp := &ImportRecord{
		File:  file,
		Kind:  ImportFrom,
		Names: make([]string, 0),
	}

	switch moduleNode.Type() {
	case "relative_import":
		imp.Specifier = moduleNode.Content(source)
		imp.IsRelative = true
	case "dotted_name":
		imp.Specifier = moduleNode.Content(source)
	default:
		return nil
	}

	// imported names follow the "import" keyword
	seenImportKw := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "import" {
			seenImportKw = true
			continue
		}
		if !seenImportKw {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			imp.Names = append(imp.Names, lastDotSegment(child.Content(source)))
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Names = append(imp.Names, alias.Content(source))
			} else if name := child.ChildByFieldName("name"); name != nil {
				imp.Names = append(imp.Names, lastDotSegment(name.Content(source)))
			}
		case "wildcard_import":
			// star import binds no usable names
		}
	}

	return imp
}

// collectPyDefs gathers function and class definitions. parentClass is only
// set while directly inside a class body; nested functions reset it.
func collectPyDefs(node *sitter.Node, source []byte, parentClass string, facts *FileFacts) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_definition":
			if fn := parsePyFunction(child, source, parentClass, facts.Source.RelPath); fn != nil {
				facts.Functions = append(facts.Functions, *fn)
			}
			if body := child.ChildByFieldName("body"); body != nil {
				collectPyDefs(body, source, "", facts)
			}
		case "class_definition":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(source)
			facts.Classes = append(facts.Classes, ClassDefinition{
				File:      facts.Source.RelPath,
				Name:      name,
				StartLine: int(child.StartPoint().Row) + 1,
				EndLine:   int(child.EndPoint().Row) + 1,
				Exported:  !strings.HasPrefix(name, "_"),
			})
			if body := child.ChildByFieldName("body"); body != nil {
				collectPyDefs(body, source, name, facts)
			}
		case "decorated_definition":
			collectPyDefs(child, source, parentClass, facts)
		default:
			// blocks under if/try/with still hold definitions
			if child.ChildCount() > 0 && child.Type() != "call" {
				collectPyDefs(child, source, parentClass, facts)
			}
		}
	}
}

func parsePyFunction(node *sitter.Node, source []byte, parentClass, file string) *FunctionDefinition {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)

	isInit := name == "__init__"
	if isDunder(name) && !isInit {
		return nil
	}

	kind := FunctionPlain
	switch {
	case isInit:
		kind = FunctionConstructor
	case parentClass != "":
		kind = FunctionMethod
	}

	qualified := name
	if parentClass != "" {
		qualified = parentClass + "." + name
	}

	fn := &FunctionDefinition{
		File:          file,
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		ParamCount:    countPyParams(node.ChildByFieldName("parameters"), source),
		Async:         hasChildToken(node, "async"),
		// single or double leading underscore is module-private, with the
		// constructor as the one exception
		Exported:    isInit || !strings.HasPrefix(name, "_"),
		EntryPoint:  name == "main",
		ParentClass: parentClass,
	}
	return fn
}

// parsePyCall builds a call site from a call node, dropping builtins
func parsePyCall(node *sitter.Node, source []byte, file string) *CallSite {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return nil
	}

	switch fnNode.Type() {
	case "identifier":
		callee := fnNode.Content(source)
		if pyBuiltinFunctions[callee] {
			return nil
		}
		return &CallSite{
			File:   file,
			Line:   int(node.StartPoint().Row) + 1,
			Column: int(node.StartPoint().Column) + 1,
			Callee: callee,
			Kind:   CallPlain,
		}
	case "attribute":
		attr := fnNode.ChildByFieldName("attribute")
		if attr == nil {
			return nil
		}
		obj := fnNode.ChildByFieldName("object")
		for obj != nil && obj.Type() == "attribute" {
			obj = obj.ChildByFieldName("object")
		}
		var qualifier string
		if obj != nil && obj.Type() == "identifier" {
			qualifier = obj.Content(source)
		}
		return &CallSite{
			File:      file,
			Line:      int(node.StartPoint().Row) + 1,
			Column:    int(node.StartPoint().Column) + 1,
			Callee:    attr.Content(source),
			Qualifier: qualifier,
			Kind:      CallMethod,
		}
	}
	return nil
}

// countPyParams counts parameters, excluding the implicit receiver
func countPyParams(params *sitter.Node, source []byte) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		switch child.Type() {
		case "identifier":
			name := child.Content(source)
			if name != "self" && name != "cls" {
				count++
			}
		case "typed_parameter", "default_parameter", "typed_default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern":
			count++
		}
	}
	return count
}

// isDunder reports double-underscore names like __repr__
func isDunder(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4
}

func lastDotSegment(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}
