// Package resolve binds unresolved references to definition nodes.
package resolve

import (
	"fmt"
	"path"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/store"
)

// Scoring weights. A reference commits to its top candidate only when
// the score beats the runner-up by the configured margin, so the
// weights are spaced to keep the location buckets from overlapping.
const (
	scoreImportHint = 120
	scoreSameFile   = 100
	scoreSameDir    = 50
	scoreArityMatch = 20
	depthPenalty    = 2
)

// Options tunes a resolution pass.
type Options struct {
	// Margin is the minimum score gap between the best and second-best
	// candidate for an edge to be committed.
	Margin float64
	// TopK caps the candidate list persisted on ambiguous references.
	TopK int
	// Limit caps how many unresolved references one pass scans.
	Limit int
}

// Result summarizes one resolution pass.
type Result struct {
	Scanned   int `json:"scanned"`
	Resolved  int `json:"resolved"`
	Remaining int `json:"remaining"`
}

// Resolver matches unresolved references against the node table.
type Resolver struct {
	store   *store.Store
	margin  float64
	topK    int
	byName  *lru.Cache[string, []graph.Node]
	imports *lru.Cache[string, []graph.Node]
}

// New returns a Resolver over st. Zero option fields fall back to
// margin 10, top-K 5.
func New(st *store.Store, opts Options) *Resolver {
	if opts.Margin <= 0 {
		opts.Margin = 10
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	byName, _ := lru.New[string, []graph.Node](1024)
	imports, _ := lru.New[string, []graph.Node](1024)
	return &Resolver{
		store:   st,
		margin:  opts.Margin,
		topK:    opts.TopK,
		byName:  byName,
		imports: imports,
	}
}

// Run scans up to limit unresolved references, commits an edge for
// each confidently matched one, and persists ranked candidates on the
// rest. Committed edges and their reference rows change in a single
// transaction, so re-running over an unchanged graph is a no-op.
func (r *Resolver) Run(limit int) (*Result, error) {
	refs, err := r.store.ListUnresolved(limit)
	if err != nil {
		return nil, fmt.Errorf("listing unresolved refs: %w", err)
	}
	if len(refs) == 0 {
		return &Result{}, nil
	}

	// Name lookups repeat heavily within a pass; never across passes.
	r.byName.Purge()
	r.imports.Purge()

	var edges []graph.Edge
	var resolvedIDs []int64

	for i := range refs {
		ref := &refs[i]
		from, err := r.store.GetNode(ref.FromNodeID)
		if err != nil {
			return nil, err
		}

		candidates, err := r.candidatesFor(ref)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			continue
		}

		hint := r.importHint(from, ref.ReferenceName)
		scored := r.score(ref, from, hint, candidates)

		if len(scored) == 1 || scored[0].Score-scored[1].Score >= r.margin {
			edges = append(edges, graph.Edge{
				Source: ref.FromNodeID,
				Target: scored[0].NodeID,
				Kind:   ref.ReferenceKind,
				Line:   ref.Line,
				Column: ref.Column,
			})
			resolvedIDs = append(resolvedIDs, ref.ID)
			continue
		}

		top := scored
		if len(top) > r.topK {
			top = top[:r.topK]
		}
		if err := r.store.SetCandidates(ref.ID, top); err != nil {
			return nil, err
		}
	}

	if err := r.store.CommitResolutions(edges, resolvedIDs); err != nil {
		return nil, fmt.Errorf("committing resolutions: %w", err)
	}

	return &Result{
		Scanned:   len(refs),
		Resolved:  len(resolvedIDs),
		Remaining: len(refs) - len(resolvedIDs),
	}, nil
}

// candidatesFor returns the kind-compatible definition nodes matching
// the reference name.
func (r *Resolver) candidatesFor(ref *graph.UnresolvedRef) ([]graph.Node, error) {
	nodes, err := r.lookup(ref.ReferenceName)
	if err != nil {
		return nil, err
	}

	var out []graph.Node
	for _, n := range nodes {
		if kindCompatible(ref.ReferenceKind, n.Kind) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *Resolver) lookup(name string) ([]graph.Node, error) {
	if nodes, ok := r.byName.Get(name); ok {
		return nodes, nil
	}
	nodes, err := r.store.FindNodesByName(name)
	if err != nil {
		return nil, err
	}
	r.byName.Add(name, nodes)
	return nodes, nil
}

func kindCompatible(ref graph.EdgeKind, kind graph.NodeKind) bool {
	switch ref {
	case graph.EdgeCalls:
		return kind.Callable()
	case graph.EdgeExtends, graph.EdgeImplements, graph.EdgeInstantiates:
		switch kind {
		case graph.KindClass, graph.KindStruct, graph.KindInterface,
			graph.KindEnum, graph.KindTypeAlias:
			return true
		}
		return false
	case graph.EdgeImports:
		return kind == graph.KindFile || kind == graph.KindModule
	default:
		return kind != graph.KindFile && kind != graph.KindImport && kind != graph.KindExport
	}
}

// importHint finds an import of the referenced name in the referencing
// file. The import signature carries the module path and, for aliased
// imports, the original exported name.
type hint struct {
	modulePath string
	exportName string
}

func (r *Resolver) importHint(from *graph.Node, name string) *hint {
	if from == nil {
		return nil
	}
	nodes, ok := r.imports.Get(name)
	if !ok {
		all, err := r.lookup(name)
		if err != nil {
			return nil
		}
		for _, n := range all {
			if n.Kind == graph.KindImport {
				nodes = append(nodes, n)
			}
		}
		r.imports.Add(name, nodes)
	}

	for _, imp := range nodes {
		if imp.FilePath != from.FilePath {
			continue
		}
		if imp.Signature == "" {
			return &hint{modulePath: imp.Name}
		}
		if module, export, ok := strings.Cut(imp.Signature, "|export="); ok {
			return &hint{modulePath: module, exportName: export}
		}
		return &hint{modulePath: imp.Signature}
	}
	return nil
}

// score ranks candidates descending. Ties break on qualified name then
// id so repeated passes choose identically.
func (r *Resolver) score(ref *graph.UnresolvedRef, from *graph.Node, h *hint, candidates []graph.Node) []graph.Candidate {
	fromDir := ""
	if from != nil {
		fromDir = path.Dir(from.FilePath)
	}

	type scoredNode struct {
		node  graph.Node
		score float64
	}
	scored := make([]scoredNode, 0, len(candidates))
	for _, c := range candidates {
		s := 0.0
		if h != nil && matchesModulePath(c.FilePath, h.modulePath) {
			s += scoreImportHint
		}
		if from != nil {
			if c.FilePath == from.FilePath {
				s += scoreSameFile
			} else if fromDir != "" && path.Dir(c.FilePath) == fromDir {
				s += scoreSameDir
			}
		}
		if ref.Arity > 0 && signatureArity(c.Name, c.Signature) == ref.Arity {
			s += scoreArityMatch
		}
		s -= float64(depthPenalty * strings.Count(c.QualifiedName, "::"))
		scored = append(scored, scoredNode{node: c, score: s})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].node.QualifiedName != scored[j].node.QualifiedName {
			return scored[i].node.QualifiedName < scored[j].node.QualifiedName
		}
		return scored[i].node.ID < scored[j].node.ID
	})

	out := make([]graph.Candidate, len(scored))
	for i, s := range scored {
		out[i] = graph.Candidate{NodeID: s.node.ID, Score: s.score}
	}
	return out
}

// matchesModulePath reports whether a file path plausibly provides the
// hinted module: the path without extension ends with the hint, or the
// file's base name equals the hint's last segment.
func matchesModulePath(filePath, module string) bool {
	if module == "" {
		return false
	}
	module = strings.TrimPrefix(module, "./")
	if i := strings.LastIndex(module, "::"); i >= 0 {
		module = module[i+2:]
	}

	noExt := strings.TrimSuffix(filePath, path.Ext(filePath))
	if strings.HasSuffix(noExt, module) {
		return true
	}

	base := path.Base(noExt)
	last := module
	if i := strings.LastIndexAny(module, "./"); i >= 0 {
		last = module[i+1:]
	}
	return base == last
}

// signatureArity counts the parameters in a declaration signature,
// anchored at the symbol name so Go method receivers are skipped.
func signatureArity(name, signature string) int {
	if signature == "" {
		return -1
	}
	start := strings.Index(signature, name+"(")
	if start >= 0 {
		start += len(name)
	} else {
		start = strings.IndexByte(signature, '(')
	}
	if start < 0 {
		return -1
	}

	depth := 0
	count := 0
	sawToken := false
	for i := start; i < len(signature); i++ {
		switch signature[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if sawToken {
					count++
				}
				return count
			}
		case ',':
			if depth == 1 {
				count++
				sawToken = false
			}
		default:
			if depth == 1 && signature[i] != ' ' && signature[i] != '\t' && signature[i] != '\n' {
				sawToken = true
			}
		}
	}
	return -1
}
