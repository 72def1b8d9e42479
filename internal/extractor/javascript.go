package extractor

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractJS walks a JS/TS/JSX/TSX syntax tree and fills facts. The same
// traversal serves all four dialects; the TS grammars only add node types on
// top of the JS ones.
func extractJS(root *sitter.Node, source []byte, facts *FileFacts) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			if imp := parseJSImport(n, source, facts.Source.RelPath); imp != nil {
				facts.Imports = append(facts.Imports, *imp)
			}
		case "export_statement":
			parseJSExport(n, source, facts)
		case "function_declaration", "generator_function_declaration":
			if fn := parseJSFunctionDecl(n, source, facts.Source.RelPath); fn != nil {
				facts.Functions = append(facts.Functions, *fn)
			}
		case "arrow_function", "function_expression", "function":
			if fn := parseJSBoundFunction(n, source, facts.Source.RelPath); fn != nil {
				facts.Functions = append(facts.Functions, *fn)
			}
		case "class_declaration":
			if cls := parseJSClass(n, source, facts.Source.RelPath); cls != nil {
				facts.Classes = append(facts.Classes, *cls)
				collectJSMethods(n, source, cls.Name, facts)
			}
		case "call_expression":
			parseJSCall(n, source, facts)
		case "new_expression":
			if call := parseJSNew(n, source, facts.Source.RelPath); call != nil {
				facts.Calls = append(facts.Calls, *call)
			}
		}
		return true
	})
}

// parseJSImport handles static import declarations. Default, named and
// namespace forms all contribute bound names.
func parseJSImport(node *sitter.Node, source []byte, file string) *ImportRecord {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	specifier := stripQuotes(sourceNode.Content(source))

	imp := &ImportRecord{
		File:       file,
		Specifier:  specifier,
		Kind:       ImportStatic,
		Names:      make([]string, 0),
		IsRelative: strings.HasPrefix(specifier, "."),
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			clause := child.Child(j)
			switch clause.Type() {
			case "identifier":
				// default import
				imp.Names = append(imp.Names, clause.Content(source))
			case "named_imports":
				for k := 0; k < int(clause.ChildCount()); k++ {
					spec := clause.Child(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					// the local binding is the alias when present
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						imp.Names = append(imp.Names, alias.Content(source))
					} else if name := spec.ChildByFieldName("name"); name != nil {
						imp.Names = append(imp.Names, name.Content(source))
					}
				}
			case "namespace_import":
				for k := 0; k < int(clause.ChildCount()); k++ {
					if clause.Child(k).Type() == "identifier" {
						imp.Names = append(imp.Names, clause.Child(k).Content(source))
					}
				}
			}
		}
	}

	return imp
}

// parseJSExport records exported names. Declarations wrapped by the export
// keep their own extraction path; this only collects the name list.
func parseJSExport(node *sitter.Node, source []byte, facts *FileFacts) {
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				facts.Exports = append(facts.Exports, name.Content(source))
			}
		case "lexical_declaration", "variable_declaration":
			for i := 0; i < int(decl.ChildCount()); i++ {
				child := decl.Child(i)
				if child.Type() == "variable_declarator" {
					if name := child.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
						facts.Exports = append(facts.Exports, name.Content(source))
					}
				}
			}
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "export_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					facts.Exports = append(facts.Exports, alias.Content(source))
				} else if name := spec.ChildByFieldName("name"); name != nil {
					facts.Exports = append(facts.Exports, name.Content(source))
				}
			}
		case "identifier":
			// export default someName
			facts.Exports = append(facts.Exports, child.Content(source))
		}
	}
}

func parseJSFunctionDecl(node *sitter.Node, source []byte, file string) *FunctionDefinition {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)

	fn := &FunctionDefinition{
		File:          file,
		Name:          name,
		QualifiedName: name,
		Kind:          jsFunctionKind(name, FunctionPlain),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		ParamCount:    countJSParams(node.ChildByFieldName("parameters"), source),
		Async:         hasChildToken(node, "async"),
	}
	fn.Exported = isInsideExport(node)
	fn.EntryPoint = isJSEntryPoint(name) || isDefaultExport(node)
	return fn
}

// parseJSBoundFunction handles arrow functions and function expressions bound
// to a variable or object property, plus self-named function expressions.
// Truly anonymous values with no name anywhere are skipped.
func parseJSBoundFunction(node *sitter.Node, source []byte, file string) *FunctionDefinition {
	parent := node.Parent()
	if parent == nil {
		return nil
	}

	var name string
	switch parent.Type() {
	case "variable_declarator":
		if n := parent.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
			name = n.Content(source)
		}
	case "pair":
		if n := parent.ChildByFieldName("key"); n != nil {
			name = stripQuotes(n.Content(source))
		}
	case "assignment_expression":
		if n := parent.ChildByFieldName("left"); n != nil && n.Type() == "identifier" {
			name = n.Content(source)
		}
	}
	if name == "" {
		// A function expression can carry its own name. Error recovery on
		// broken files often leaves them outside any binding context, and
		// partial extraction should still surface them.
		if n := node.ChildByFieldName("name"); n != nil {
			name = n.Content(source)
		}
	}
	if name == "" {
		return nil
	}

	kind := FunctionArrow
	if node.Type() != "arrow_function" {
		kind = FunctionPlain
	}

	fn := &FunctionDefinition{
		File:          file,
		Name:          name,
		QualifiedName: name,
		Kind:          jsFunctionKind(name, kind),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		ParamCount:    countJSParams(jsParamsNode(node), source),
		Async:         hasChildToken(node, "async"),
	}
	fn.Exported = isInsideExport(parent)
	fn.EntryPoint = isJSEntryPoint(name) || isDefaultExport(parent)
	return fn
}

func parseJSClass(node *sitter.Node, source []byte, file string) *ClassDefinition {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &ClassDefinition{
		File:      file,
		Name:      nameNode.Content(source),
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Exported:  isInsideExport(node),
	}
}

// collectJSMethods pulls method definitions out of a class body. The
// "constructor" member is deliberately left out of the functions list; the
// class record covers it.
func collectJSMethods(classNode *sitter.Node, source []byte, className string, facts *FileFacts) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() != "method_definition" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := stripQuotes(nameNode.Content(source))
		if name == "constructor" {
			continue
		}
		facts.Functions = append(facts.Functions, FunctionDefinition{
			File:          facts.Source.RelPath,
			Name:          name,
			QualifiedName: className + "." + name,
			Kind:          FunctionMethod,
			StartLine:     int(member.StartPoint().Row) + 1,
			EndLine:       int(member.EndPoint().Row) + 1,
			ParamCount:    countJSParams(member.ChildByFieldName("parameters"), source),
			Async:         hasChildToken(member, "async"),
			Exported:      isInsideExport(classNode),
			EntryPoint:    isJSEntryPoint(name),
			ParentClass:   className,
		})
	}
}

// parseJSCall emits either an import record (require / dynamic import) or a
// call site. Built-in namespace and global calls are dropped here.
func parseJSCall(node *sitter.Node, source []byte, facts *FileFacts) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}

	switch fnNode.Type() {
	case "import":
		if imp := parseJSCallImport(node, source, facts.Source.RelPath, ImportDynamic); imp != nil {
			facts.Imports = append(facts.Imports, *imp)
		}
		return
	case "identifier":
		callee := fnNode.Content(source)
		if callee == "require" {
			if imp := parseJSRequire(node, source, facts.Source.RelPath); imp != nil {
				facts.Imports = append(facts.Imports, *imp)
			}
			return
		}
		if jsBuiltinFunctions[callee] {
			return
		}
		facts.Calls = append(facts.Calls, CallSite{
			File:   facts.Source.RelPath,
			Line:   int(node.StartPoint().Row) + 1,
			Column: int(node.StartPoint().Column) + 1,
			Callee: callee,
			Kind:   CallPlain,
		})
	case "member_expression":
		qualifier, callee := splitJSMember(fnNode, source)
		if callee == "" || jsBuiltinNamespaces[qualifier] {
			return
		}
		facts.Calls = append(facts.Calls, CallSite{
			File:      facts.Source.RelPath,
			Line:      int(node.StartPoint().Row) + 1,
			Column:    int(node.StartPoint().Column) + 1,
			Callee:    callee,
			Qualifier: qualifier,
			Kind:      CallMethod,
		})
	}
}

func parseJSNew(node *sitter.Node, source []byte, file string) *CallSite {
	ctor := node.ChildByFieldName("constructor")
	if ctor == nil {
		return nil
	}
	var qualifier, callee string
	switch ctor.Type() {
	case "identifier":
		callee = ctor.Content(source)
	case "member_expression":
		qualifier, callee = splitJSMember(ctor, source)
	default:
		return nil
	}
	if callee == "" || jsBuiltinNamespaces[callee] || jsBuiltinFunctions[callee] {
		return nil
	}
	return &CallSite{
		File:      file,
		Line:      int(node.StartPoint().Row) + 1,
		Column:    int(node.StartPoint().Column) + 1,
		Callee:    callee,
		Qualifier: qualifier,
		Kind:      CallConstructor,
	}
}

// parseJSRequire handles const x = require('mod') and bare require calls
func parseJSRequire(node *sitter.Node, source []byte, file string) *ImportRecord {
	specifier := firstStringArg(node, source)
	if specifier == "" {
		return nil
	}
	imp := &ImportRecord{
		File:       file,
		Specifier:  specifier,
		Kind:       ImportRequire,
		Names:      make([]string, 0),
		IsRelative: strings.HasPrefix(specifier, "."),
	}
	// bound name from const x = require(...) when present
	if parent := node.Parent(); parent != nil && parent.Type() == "variable_declarator" {
		if name := parent.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			imp.Names = append(imp.Names, name.Content(source))
		}
	}
	return imp
}

func parseJSCallImport(node *sitter.Node, source []byte, file string, kind ImportKind) *ImportRecord {
	specifier := firstStringArg(node, source)
	if specifier == "" {
		return nil
	}
	return &ImportRecord{
		File:       file,
		Specifier:  specifier,
		Kind:       kind,
		Names:      make([]string, 0),
		IsRelative: strings.HasPrefix(specifier, "."),
	}
}

// splitJSMember returns the leading identifier and the called property of a
// member expression, e.g. api.client.get -> ("api", "get")
func splitJSMember(node *sitter.Node, source []byte) (qualifier, callee string) {
	prop := node.ChildByFieldName("property")
	if prop != nil {
		callee = prop.Content(source)
	}
	obj := node.ChildByFieldName("object")
	for obj != nil && obj.Type() == "member_expression" {
		obj = obj.ChildByFieldName("object")
	}
	if obj != nil && obj.Type() == "identifier" {
		qualifier = obj.Content(source)
	}
	return qualifier, callee
}

func jsParamsNode(fnNode *sitter.Node) *sitter.Node {
	if params := fnNode.ChildByFieldName("parameters"); params != nil {
		return params
	}
	// single-parameter arrow without parens
	return fnNode.ChildByFieldName("parameter")
}

func countJSParams(params *sitter.Node, source []byte) int {
	if params == nil {
		return 0
	}
	if params.Type() == "identifier" {
		return 1
	}
	count := 0
	for i := 0; i < int(params.ChildCount()); i++ {
		switch params.Child(i).Type() {
		case "identifier", "assignment_pattern", "rest_pattern",
			"object_pattern", "array_pattern",
			"required_parameter", "optional_parameter":
			count++
		}
	}
	return count
}

// jsFunctionKind upgrades a plain/arrow kind to hook when the name follows
// the React hook convention (usePrefix)
func jsFunctionKind(name string, base FunctionKind) FunctionKind {
	if isHookName(name) {
		return FunctionHook
	}
	return base
}

func isHookName(name string) bool {
	if !strings.HasPrefix(name, "use") || len(name) < 4 {
		return false
	}
	return unicode.IsUpper(rune(name[3]))
}

// isJSEntryPoint flags handler-convention names: main, handler-style names
// and verb-prefixed REST handlers
func isJSEntryPoint(name string) bool {
	lower := strings.ToLower(name)
	if lower == "main" || lower == "handler" || lower == "handlerequest" {
		return true
	}
	if strings.HasPrefix(lower, "handle") && len(name) > len("handle") {
		return true
	}
	if strings.HasSuffix(lower, "handler") {
		return true
	}
	for _, verb := range []string{"get", "post", "put", "patch", "delete"} {
		if strings.HasPrefix(name, verb) && len(name) > len(verb) &&
			unicode.IsUpper(rune(name[len(verb)])) {
			return true
		}
	}
	return false
}

// isInsideExport reports whether the node hangs off an export statement
func isInsideExport(node *sitter.Node) bool {
	parent := node.Parent()
	for parent != nil {
		switch parent.Type() {
		case "export_statement":
			return true
		case "program", "statement_block", "class_body":
			return false
		}
		parent = parent.Parent()
	}
	return false
}

// isDefaultExport reports whether the node is the module's primary value
func isDefaultExport(node *sitter.Node) bool {
	parent := node.Parent()
	for parent != nil {
		if parent.Type() == "export_statement" {
			return hasChildToken(parent, "default")
		}
		parent = parent.Parent()
	}
	return false
}

func hasChildToken(node *sitter.Node, token string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == token {
			return true
		}
	}
	return false
}

func firstStringArg(callNode *sitter.Node, source []byte) string {
	args := callNode.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		if args.Child(i).Type() == "string" {
			return stripQuotes(args.Child(i).Content(source))
		}
	}
	return ""
}

func stripQuotes(s string) string {
	return strings.Trim(s, "'\"`")
}
