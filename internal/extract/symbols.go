package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/abramin/codegraph/internal/graph"
)

// importSymbol is one name an import statement binds locally.
type importSymbol struct {
	localName  string
	modulePath string
	exportName string
}

// addImports records one node per imported name, each linked to the
// file by contains and imports edges. The signature carries the module
// path so the resolver can use it as a hint.
func (w *walker) addImports(n *sitter.Node, parentID string) {
	imports := w.importSymbols(n)
	if len(imports) == 0 {
		return
	}

	startLine := int(n.StartPoint().Row) + 1
	endLine := int(n.EndPoint().Row) + 1
	startCol := int(n.StartPoint().Column)

	for _, imp := range imports {
		qualified := w.filePath + "::import::" + imp.localName + "::" + imp.modulePath
		id := graph.NodeID(w.filePath, graph.KindImport, qualified, startLine)

		signature := imp.modulePath
		if imp.exportName != "" {
			signature = imp.modulePath + "|export=" + imp.exportName
		}

		w.result.Nodes = append(w.result.Nodes, graph.Node{
			ID:            id,
			Kind:          graph.KindImport,
			Name:          imp.localName,
			QualifiedName: qualified,
			FilePath:      w.filePath,
			Language:      w.lang,
			StartLine:     startLine,
			EndLine:       endLine,
			StartColumn:   startCol,
			EndColumn:     int(n.EndPoint().Column),
			Signature:     signature,
			UpdatedAt:     w.now,
		})

		w.result.Edges = append(w.result.Edges,
			graph.Edge{Source: parentID, Target: id, Kind: graph.EdgeContains, Line: startLine, Column: startCol},
			graph.Edge{Source: parentID, Target: id, Kind: graph.EdgeImports, Line: startLine, Column: startCol},
		)
	}
}

func (w *walker) importSymbols(n *sitter.Node) []importSymbol {
	switch w.lang {
	case "go":
		return goImports(n, w.source)
	case "python":
		return pythonImports(n, w.source)
	case "javascript", "typescript":
		return jsImports(n, w.source)
	}
	return nil
}

func goImports(n *sitter.Node, source []byte) []importSymbol {
	var imports []importSymbol
	var specs []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "import_spec":
			specs = append(specs, child)
		case "import_spec_list":
			for j := 0; j < int(child.ChildCount()); j++ {
				if spec := child.Child(j); spec.Type() == "import_spec" {
					specs = append(specs, spec)
				}
			}
		}
	}

	for _, spec := range specs {
		pathNode := spec.ChildByFieldName("path")
		if pathNode == nil {
			continue
		}
		path := strings.Trim(pathNode.Content(source), `"`)
		if path == "" {
			continue
		}
		local := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			local = path[i+1:]
		}
		if alias := spec.ChildByFieldName("name"); alias != nil {
			local = alias.Content(source)
		}
		imports = append(imports, importSymbol{localName: local, modulePath: path})
	}
	return imports
}

func pythonImports(n *sitter.Node, source []byte) []importSymbol {
	module := ""
	if m := n.ChildByFieldName("module_name"); m != nil {
		module = m.Content(source)
	}

	var imports []importSymbol
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "name" {
			continue
		}
		child := n.Child(i)
		switch child.Type() {
		case "dotted_name":
			name := child.Content(source)
			local := name
			if j := strings.LastIndex(name, "."); j >= 0 {
				local = name[j+1:]
			}
			path := name
			exportName := ""
			if module != "" {
				path = module
				exportName = name
			}
			imports = append(imports, importSymbol{localName: local, modulePath: path, exportName: exportName})
		case "aliased_import":
			orig := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if orig == nil || alias == nil {
				continue
			}
			name := orig.Content(source)
			path := name
			exportName := name
			if module != "" {
				path = module
			}
			imports = append(imports, importSymbol{localName: alias.Content(source), modulePath: path, exportName: exportName})
		}
	}
	return imports
}

func jsImports(n *sitter.Node, source []byte) []importSymbol {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	module := strings.Trim(sourceNode.Content(source), `"'`)
	if module == "" {
		return nil
	}

	var imports []importSymbol
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "import_clause" {
			collectJSImportClause(n.Child(i), source, module, &imports)
		}
	}

	// Bare import for side effects: import "./setup"
	if len(imports) == 0 {
		imports = append(imports, importSymbol{localName: module, modulePath: module})
	}
	return imports
}

func collectJSImportClause(n *sitter.Node, source []byte, module string, imports *[]importSymbol) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "identifier":
			*imports = append(*imports, importSymbol{localName: child.Content(source), modulePath: module})
		case "namespace_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				if id := child.Child(j); id.Type() == "identifier" {
					*imports = append(*imports, importSymbol{localName: id.Content(source), modulePath: module})
				}
			}
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				if spec := child.Child(j); spec.Type() == "import_specifier" {
					collectJSImportSpecifier(spec, source, module, imports)
				}
			}
		}
	}
}

func collectJSImportSpecifier(n *sitter.Node, source []byte, module string, imports *[]importSymbol) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	exportName := nameNode.Content(source)
	local := exportName
	if alias := n.ChildByFieldName("alias"); alias != nil {
		local = alias.Content(source)
	}
	*imports = append(*imports, importSymbol{localName: local, modulePath: module, exportName: exportName})
}

// addExports records export nodes for JavaScript and TypeScript export
// statements, linked to the file by contains and exports edges.
func (w *walker) addExports(n *sitter.Node, parentID string) {
	if w.lang != "javascript" && w.lang != "typescript" {
		return
	}

	modulePath := ""
	if src := n.ChildByFieldName("source"); src != nil {
		modulePath = strings.Trim(src.Content(w.source), `"'`)
	}

	var names []string
	collectExportNames(n, w.source, &names)
	if len(names) == 0 {
		return
	}

	startLine := int(n.StartPoint().Row) + 1
	startCol := int(n.StartPoint().Column)

	for _, name := range names {
		qualified := w.filePath + "::export::" + name
		id := graph.NodeID(w.filePath, graph.KindExport, qualified, startLine)

		w.result.Nodes = append(w.result.Nodes, graph.Node{
			ID:            id,
			Kind:          graph.KindExport,
			Name:          name,
			QualifiedName: qualified,
			FilePath:      w.filePath,
			Language:      w.lang,
			StartLine:     startLine,
			EndLine:       int(n.EndPoint().Row) + 1,
			StartColumn:   startCol,
			EndColumn:     int(n.EndPoint().Column),
			Signature:     modulePath,
			IsExported:    true,
			UpdatedAt:     w.now,
		})

		w.result.Edges = append(w.result.Edges,
			graph.Edge{Source: parentID, Target: id, Kind: graph.EdgeContains, Line: startLine, Column: startCol},
			graph.Edge{Source: parentID, Target: id, Kind: graph.EdgeExports, Line: startLine, Column: startCol},
		)
	}
}

func collectExportNames(n *sitter.Node, source []byte, names *[]string) {
	if n.Type() == "export_specifier" {
		name := n.ChildByFieldName("alias")
		if name == nil {
			name = n.ChildByFieldName("name")
		}
		if name != nil {
			*names = append(*names, name.Content(source))
		}
		return
	}

	switch n.Type() {
	case "function_declaration", "class_declaration", "interface_declaration",
		"type_alias_declaration", "enum_declaration", "variable_declarator":
		if name := n.ChildByFieldName("name"); name != nil {
			*names = append(*names, name.Content(source))
		}
		return
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		collectExportNames(n.Child(i), source, names)
	}
}
