package extract

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/abramin/codegraph/internal/graph"
)

// walker accumulates nodes and edges during a two-pass traversal. The
// first pass (collect) records symbol definitions and builds a per-file
// index; the second pass (calls) links call sites against that index.
type walker struct {
	filePath string
	lang     string
	source   []byte
	now      int64
	result   *Result

	// byKey maps kind:row:col:name to a callable's node id so the call
	// pass can recover which function it is inside.
	byKey  map[string]string
	byName map[string][]string
}

// collect walks the tree recording symbol definitions. stack holds the
// names of enclosing containers, parentID the id of the nearest one.
func (w *walker) collect(n *sitter.Node, parentID string, stack []string, inClass bool) {
	kind, container := w.mapKind(n, inClass)

	if kind == graph.KindImport {
		w.addImports(n, parentID)
		return
	}
	if kind == graph.KindExport {
		w.addExports(n, parentID)
		// fall through: exported declarations still need collecting
		kind = ""
	}

	nextParent := parentID
	nextStack := stack
	nextInClass := inClass

	if kind != "" {
		name := nodeName(n, w.source)
		if name != "" {
			qualified := w.filePath + "::" + name
			if len(stack) > 0 {
				qualified = w.filePath + "::" + strings.Join(stack, "::") + "::" + name
			}
			startLine := int(n.StartPoint().Row) + 1
			id := graph.NodeID(w.filePath, kind, qualified, startLine)

			node := graph.Node{
				ID:            id,
				Kind:          kind,
				Name:          name,
				QualifiedName: qualified,
				FilePath:      w.filePath,
				Language:      w.lang,
				StartLine:     startLine,
				EndLine:       int(n.EndPoint().Row) + 1,
				StartColumn:   int(n.StartPoint().Column),
				EndColumn:     int(n.EndPoint().Column),
				Docstring:     w.docstring(n),
				Signature:     w.signature(n),
				IsExported:    isExported(w.lang, name),
				UpdatedAt:     w.now,
			}
			w.result.Nodes = append(w.result.Nodes, node)

			if kind.Callable() {
				w.byKey[scopeKey(n, name)] = id
				w.byName[name] = append(w.byName[name], id)
			}

			w.result.Edges = append(w.result.Edges, graph.Edge{
				Source: parentID,
				Target: id,
				Kind:   graph.EdgeContains,
				Line:   startLine,
				Column: int(n.StartPoint().Column),
			})

			if container {
				nextParent = id
				nextStack = append(stack, name)
				nextInClass = kind == graph.KindClass || kind == graph.KindStruct || kind == graph.KindInterface
			}
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.collect(n.Child(i), nextParent, nextStack, nextInClass)
	}
}

// calls walks the tree a second time linking call expressions to the
// callables collected in the first pass. A call with exactly one
// in-file match becomes an edge; anything else is recorded as an
// unresolved reference for the resolver.
func (w *walker) calls(n *sitter.Node, scope []string) {
	kind, _ := w.mapKind(n, false)
	if kind.Callable() {
		name := nodeName(n, w.source)
		if id, ok := w.byKey[scopeKey(n, name)]; ok {
			scope = append(scope, id)
		}
	}

	if isCallExpression(w.lang, n.Type()) && len(scope) > 0 {
		if callee := callName(n, w.source); callee != "" {
			from := scope[len(scope)-1]
			line := int(n.StartPoint().Row) + 1
			col := int(n.StartPoint().Column)
			arity := callArity(n)
			targets := w.byName[callee]
			switch {
			case len(targets) == 1:
				w.result.Edges = append(w.result.Edges, graph.Edge{
					Source: from,
					Target: targets[0],
					Kind:   graph.EdgeCalls,
					Line:   line,
					Column: col,
				})
			case len(targets) > 1:
				candidates := make([]graph.Candidate, len(targets))
				for i, t := range targets {
					candidates[i] = graph.Candidate{NodeID: t}
				}
				w.result.Unresolved = append(w.result.Unresolved, graph.UnresolvedRef{
					FromNodeID:    from,
					ReferenceName: callee,
					ReferenceKind: graph.EdgeCalls,
					Line:          line,
					Column:        col,
					Arity:         arity,
					Candidates:    candidates,
				})
			default:
				w.result.Unresolved = append(w.result.Unresolved, graph.UnresolvedRef{
					FromNodeID:    from,
					ReferenceName: callee,
					ReferenceKind: graph.EdgeCalls,
					Line:          line,
					Column:        col,
					Arity:         arity,
				})
			}
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.calls(n.Child(i), scope)
	}
}

// mapKind classifies a tree-sitter node type for the file's language.
// The bool result marks containers whose children get qualified names.
func (w *walker) mapKind(n *sitter.Node, inClass bool) (graph.NodeKind, bool) {
	switch w.lang {
	case "go":
		switch n.Type() {
		case "function_declaration":
			return graph.KindFunction, false
		case "method_declaration":
			return graph.KindMethod, false
		case "type_spec":
			if t := n.ChildByFieldName("type"); t != nil {
				switch t.Type() {
				case "struct_type":
					return graph.KindStruct, true
				case "interface_type":
					return graph.KindInterface, true
				}
			}
			return graph.KindTypeAlias, false
		case "const_spec":
			return graph.KindConstant, false
		case "var_spec":
			return graph.KindVariable, false
		case "import_declaration":
			return graph.KindImport, false
		}
	case "python":
		switch n.Type() {
		case "function_definition":
			if inClass {
				return graph.KindMethod, false
			}
			return graph.KindFunction, false
		case "class_definition":
			return graph.KindClass, true
		case "import_statement", "import_from_statement":
			return graph.KindImport, false
		}
	case "javascript", "typescript":
		switch n.Type() {
		case "function_declaration":
			return graph.KindFunction, false
		case "class_declaration":
			return graph.KindClass, true
		case "method_definition":
			return graph.KindMethod, false
		case "interface_declaration":
			return graph.KindInterface, true
		case "type_alias_declaration":
			return graph.KindTypeAlias, false
		case "enum_declaration":
			return graph.KindEnum, true
		case "import_statement":
			return graph.KindImport, false
		case "export_statement":
			return graph.KindExport, false
		}
	}
	return "", false
}

func isCallExpression(lang, nodeType string) bool {
	switch lang {
	case "python":
		return nodeType == "call"
	default:
		return nodeType == "call_expression"
	}
}

// callName returns the bare callee name of a call expression: the last
// segment of a selector or qualified path.
func callName(n *sitter.Node, source []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	raw := strings.TrimSpace(fn.Content(source))
	if raw == "" {
		return ""
	}
	if i := strings.LastIndex(raw, "::"); i >= 0 {
		raw = raw[i+2:]
	}
	if i := strings.LastIndex(raw, "."); i >= 0 {
		raw = raw[i+1:]
	}
	return raw
}

// callArity counts the arguments at a call site.
func callArity(n *sitter.Node) int {
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return 0
	}
	return int(args.NamedChildCount())
}

// nodeName returns the declared name of a definition node.
func nodeName(n *sitter.Node, source []byte) string {
	name := n.ChildByFieldName("name")
	if name == nil {
		name = n.ChildByFieldName("property")
	}
	if name == nil {
		return ""
	}
	return name.Content(source)
}

// scopeKey identifies a callable by position and name so the call pass
// can match definitions found in the collect pass.
func scopeKey(n *sitter.Node, name string) string {
	p := n.StartPoint()
	return fmt.Sprintf("%d:%d:%s", p.Row, p.Column, name)
}

func isExported(lang, name string) bool {
	if name == "" {
		return false
	}
	switch lang {
	case "go":
		return name[0] >= 'A' && name[0] <= 'Z'
	case "python":
		return !strings.HasPrefix(name, "_")
	}
	return false
}

// docstring pulls documentation adjacent to a definition: preceding
// comment lines, or for Python the leading string of the body.
func (w *walker) docstring(n *sitter.Node) string {
	if w.lang == "python" {
		return pythonDocstring(n, w.source)
	}

	var lines []string
	prevRow := int(n.StartPoint().Row)
	for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if prev.Type() != "comment" || int(prev.EndPoint().Row) < prevRow-1 {
			break
		}
		lines = append([]string{cleanComment(prev.Content(w.source))}, lines...)
		prevRow = int(prev.StartPoint().Row)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func pythonDocstring(n *sitter.Node, source []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	str := first.Child(0)
	if str.Type() != "string" {
		return ""
	}
	text := str.Content(source)
	text = strings.Trim(text, "\"'")
	return strings.TrimSpace(text)
}

func cleanComment(text string) string {
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "#")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	return strings.TrimSpace(text)
}

// signature is the declaration header: everything up to the body.
func (w *walker) signature(n *sitter.Node) string {
	body := n.ChildByFieldName("body")
	if body != nil && body.StartByte() > n.StartByte() {
		return strings.TrimSpace(string(w.source[n.StartByte():body.StartByte()]))
	}
	text := n.Content(w.source)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
