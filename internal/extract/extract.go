// Package extract parses source files with tree-sitter and produces
// graph nodes, edges, and unresolved references for the store.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/abramin/codegraph/internal/graph"
)

// Result holds everything extracted from a single file.
type Result struct {
	Nodes      []graph.Node
	Edges      []graph.Edge
	Unresolved []graph.UnresolvedRef
	Errors     []string
}

// DetectLanguage maps a file path to a language tag, or "" when the
// extension is not supported.
func DetectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	}
	return ""
}

// Supported reports whether a language tag has a parser.
func Supported(lang string) bool {
	switch lang {
	case "go", "python", "javascript", "typescript":
		return true
	}
	return false
}

// grammarForPath picks the tree-sitter grammar for a file. TSX and JSX
// need their own grammars even though they share a language tag.
func grammarForPath(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return golang.GetLanguage()
	case ".py":
		return python.GetLanguage()
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	}
	return nil
}

// File extracts all symbols from one source file. filePath must be
// relative to the project root with forward slashes. The first node in
// the result is always the file node; every other node is reachable
// from it through contains edges.
func File(ctx context.Context, filePath string, content []byte, now int64) (*Result, error) {
	lang := DetectLanguage(filePath)
	grammar := grammarForPath(filePath)
	if lang == "" || grammar == nil {
		return nil, fmt.Errorf("unsupported file type: %s", filePath)
	}

	fileNode := graph.Node{
		ID:            graph.NodeID(filePath, graph.KindFile, filePath, 1),
		Kind:          graph.KindFile,
		Name:          filepath.Base(filePath),
		QualifiedName: filePath,
		FilePath:      filePath,
		Language:      lang,
		StartLine:     1,
		EndLine:       1,
		UpdatedAt:     now,
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	defer tree.Close()

	result := &Result{Nodes: []graph.Node{fileNode}}
	root := tree.RootNode()
	if root == nil {
		result.Errors = append(result.Errors, "parser returned no tree")
		return result, nil
	}
	if root.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	w := &walker{
		filePath: filePath,
		lang:     lang,
		source:   content,
		now:      now,
		result:   result,
		byKey:    make(map[string]string),
		byName:   make(map[string][]string),
	}
	w.collect(root, fileNode.ID, nil, false)
	w.calls(root, nil)

	return result, nil
}
