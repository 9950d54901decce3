package resolve

import (
	"testing"

	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func fileRecord(path string) *graph.FileRecord {
	return &graph.FileRecord{Path: path, ContentHash: "h-" + path, Language: "go"}
}

func symbol(file, name string, kind graph.NodeKind, line int) graph.Node {
	qualified := file + "::" + name
	return graph.Node{
		ID:            graph.NodeID(file, kind, qualified, line),
		Kind:          kind,
		Name:          name,
		QualifiedName: qualified,
		FilePath:      file,
		Language:      "go",
		StartLine:     line,
		EndLine:       line + 3,
	}
}

func upsert(t *testing.T, st *store.Store, file string, nodes []graph.Node, refs []graph.UnresolvedRef) {
	t.Helper()
	if err := st.UpsertFileSymbols(fileRecord(file), nodes, nil, refs); err != nil {
		t.Fatalf("upserting %s: %v", file, err)
	}
}

func callRef(from graph.Node, name string) graph.UnresolvedRef {
	return graph.UnresolvedRef{
		FromNodeID:    from.ID,
		ReferenceName: name,
		ReferenceKind: graph.EdgeCalls,
		Line:          from.StartLine + 1,
	}
}

func TestResolveUniqueMatch(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	upsert(t, st, "app/a.go", []graph.Node{caller}, []graph.UnresolvedRef{callRef(caller, "target")})

	target := symbol("lib/b.go", "target", graph.KindFunction, 10)
	upsert(t, st, "lib/b.go", []graph.Node{target}, nil)

	result, err := New(st, Options{}).Run(0)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if result.Resolved != 1 || result.Remaining != 0 {
		t.Fatalf("result = %+v, want 1 resolved", result)
	}

	edges, err := st.EdgesFrom(caller.ID, graph.EdgeCalls, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 || edges[0].Target != target.ID {
		t.Errorf("expected calls edge to target, got %+v", edges)
	}

	count, _ := st.CountUnresolved()
	if count != 0 {
		t.Errorf("expected no unresolved refs, got %d", count)
	}
}

func TestResolvePrefersSameFile(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	local := symbol("app/a.go", "target", graph.KindFunction, 20)
	upsert(t, st, "app/a.go", []graph.Node{caller, local},
		[]graph.UnresolvedRef{callRef(caller, "target")})

	remote := symbol("lib/b.go", "target", graph.KindFunction, 10)
	upsert(t, st, "lib/b.go", []graph.Node{remote}, nil)

	result, err := New(st, Options{}).Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolved != 1 {
		t.Fatalf("result = %+v, want same-file candidate to win", result)
	}

	edges, _ := st.EdgesFrom(caller.ID, graph.EdgeCalls, 0)
	if len(edges) != 1 || edges[0].Target != local.ID {
		t.Errorf("expected edge to same-file target, got %+v", edges)
	}
}

func TestResolveAmbiguousKeepsCandidates(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	upsert(t, st, "app/a.go", []graph.Node{caller}, []graph.UnresolvedRef{callRef(caller, "target")})

	// Two equally plausible matches in unrelated directories.
	one := symbol("lib/b.go", "target", graph.KindFunction, 10)
	two := symbol("pkg/c.go", "target", graph.KindFunction, 10)
	upsert(t, st, "lib/b.go", []graph.Node{one}, nil)
	upsert(t, st, "pkg/c.go", []graph.Node{two}, nil)

	result, err := New(st, Options{}).Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolved != 0 || result.Remaining != 1 {
		t.Fatalf("result = %+v, want ambiguous reference retained", result)
	}

	refs, err := st.ListUnresolved(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 unresolved ref, got %d", len(refs))
	}
	if len(refs[0].Candidates) != 2 {
		t.Errorf("expected 2 persisted candidates, got %d", len(refs[0].Candidates))
	}
}

func TestResolveFiltersByKind(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	upsert(t, st, "app/a.go", []graph.Node{caller}, []graph.UnresolvedRef{callRef(caller, "target")})

	fn := symbol("lib/b.go", "target", graph.KindFunction, 10)
	v := symbol("lib/c.go", "target", graph.KindVariable, 3)
	upsert(t, st, "lib/b.go", []graph.Node{fn}, nil)
	upsert(t, st, "lib/c.go", []graph.Node{v}, nil)

	result, err := New(st, Options{}).Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolved != 1 {
		t.Fatalf("result = %+v, want variable filtered out of call candidates", result)
	}

	edges, _ := st.EdgesFrom(caller.ID, graph.EdgeCalls, 0)
	if len(edges) != 1 || edges[0].Target != fn.ID {
		t.Errorf("expected edge to the callable, got %+v", edges)
	}
}

func TestResolveImportHintBeatsSameFile(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	local := symbol("app/a.go", "target", graph.KindFunction, 30)
	imp := symbol("app/a.go", "target", graph.KindImport, 2)
	imp.Signature = "lib/util"
	upsert(t, st, "app/a.go", []graph.Node{caller, local, imp},
		[]graph.UnresolvedRef{callRef(caller, "target")})

	hinted := symbol("lib/util.go", "target", graph.KindFunction, 8)
	upsert(t, st, "lib/util.go", []graph.Node{hinted}, nil)

	result, err := New(st, Options{}).Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolved != 1 {
		t.Fatalf("result = %+v, want hinted candidate to win", result)
	}

	edges, _ := st.EdgesFrom(caller.ID, graph.EdgeCalls, 0)
	if len(edges) != 1 || edges[0].Target != hinted.ID {
		t.Errorf("expected edge to hinted module target, got %+v", edges)
	}
}

func TestResolveArityBreaksTie(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	ref := callRef(caller, "target")
	ref.Arity = 2
	upsert(t, st, "app/a.go", []graph.Node{caller}, []graph.UnresolvedRef{ref})

	twoArg := symbol("lib/b.go", "target", graph.KindFunction, 10)
	twoArg.Signature = "func target(a, b int) int"
	zeroArg := symbol("pkg/c.go", "target", graph.KindFunction, 10)
	zeroArg.Signature = "func target() int"
	upsert(t, st, "lib/b.go", []graph.Node{twoArg}, nil)
	upsert(t, st, "pkg/c.go", []graph.Node{zeroArg}, nil)

	result, err := New(st, Options{}).Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolved != 1 {
		t.Fatalf("result = %+v, want arity match to win", result)
	}

	edges, _ := st.EdgesFrom(caller.ID, graph.EdgeCalls, 0)
	if len(edges) != 1 || edges[0].Target != twoArg.ID {
		t.Errorf("expected edge to two-argument target, got %+v", edges)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	upsert(t, st, "app/a.go", []graph.Node{caller}, []graph.UnresolvedRef{callRef(caller, "target")})
	target := symbol("lib/b.go", "target", graph.KindFunction, 10)
	upsert(t, st, "lib/b.go", []graph.Node{target}, nil)

	r := New(st, Options{})
	if _, err := r.Run(0); err != nil {
		t.Fatal(err)
	}
	second, err := r.Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if second.Scanned != 0 || second.Resolved != 0 {
		t.Errorf("second pass = %+v, want no-op", second)
	}

	edges, _ := st.EdgesFrom(caller.ID, graph.EdgeCalls, 0)
	if len(edges) != 1 {
		t.Errorf("expected exactly 1 edge after two passes, got %d", len(edges))
	}
}

func TestResolveAfterLateDefinition(t *testing.T) {
	st := newTestStore(t)

	caller := symbol("app/a.go", "caller", graph.KindFunction, 5)
	upsert(t, st, "app/a.go", []graph.Node{caller}, []graph.UnresolvedRef{callRef(caller, "target")})

	r := New(st, Options{})
	first, err := r.Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if first.Resolved != 0 || first.Remaining != 1 {
		t.Fatalf("first pass = %+v, want unmatched reference retained", first)
	}

	// The definition arrives in a later batch.
	target := symbol("lib/b.go", "target", graph.KindFunction, 10)
	upsert(t, st, "lib/b.go", []graph.Node{target}, nil)

	second, err := r.Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if second.Resolved != 1 {
		t.Fatalf("second pass = %+v, want late definition resolved", second)
	}
}

func TestSignatureArity(t *testing.T) {
	tests := []struct {
		name      string
		signature string
		want      int
	}{
		{"target", "func target() int", 0},
		{"target", "func target(a int) int", 1},
		{"target", "func target(a, b int) error", 2},
		{"Bump", "func (c *Counter) Bump(n int)", 1},
		{"apply", "func apply(f func(a, b int), x int)", 2},
		{"save", "def save(self, record):", 2},
		{"target", "", -1},
	}

	for _, tt := range tests {
		if got := signatureArity(tt.name, tt.signature); got != tt.want {
			t.Errorf("signatureArity(%q, %q) = %d, want %d", tt.name, tt.signature, got, tt.want)
		}
	}
}
