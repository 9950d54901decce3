package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abramin/codegraph/internal/config"
	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/store"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newPipeline(t *testing.T) (*Pipeline, *store.Store, string) {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewPipeline(root, config.Default(), st), st, root
}

func TestScanHonorsExcludesAndGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "lib/util.py", "x = 1\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, root, "ignored/secret.go", "package secret\n")
	writeFile(t, root, "build.gen.go", "package main\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, ".gitignore", "ignored/\n*.gen.go\n")

	files, err := Scan(root, config.Default())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"lib/util.py", "main.go"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i, f := range files {
		if f != want[i] {
			t.Fatalf("files = %v, want %v", files, want)
		}
	}
}

func TestIndexAllThenSkipUnchanged(t *testing.T) {
	p, st, root := newPipeline(t)
	writeFile(t, root, "a.go", "package app\n\nfunc Fetch() {\n\tParse()\n}\n")
	writeFile(t, root, "b.go", "package app\n\nfunc Parse() {}\n")

	result, err := p.IndexAll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 2 {
		t.Fatalf("FilesIndexed = %d, want 2", result.FilesIndexed)
	}
	if result.NodesCreated == 0 || result.EdgesCreated == 0 {
		t.Fatalf("nothing created: %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	// The cross-file call resolves in the post-index pass.
	fetch, err := st.FindNodesByName("Fetch")
	if err != nil || len(fetch) != 1 {
		t.Fatalf("FindNodesByName(Fetch) = %v, %v", fetch, err)
	}
	calls, err := st.EdgesFrom(fetch[0].ID, graph.EdgeCalls, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("calls from Fetch = %d, want 1", len(calls))
	}

	again, err := p.IndexAll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if again.FilesIndexed != 0 || again.FilesSkipped != 2 {
		t.Fatalf("second pass = %+v, want all skipped", again)
	}
}

func TestSameFileCallBindsWithoutUnresolved(t *testing.T) {
	p, st, root := newPipeline(t)
	writeFile(t, root, "math.go", `package app

func add(a, b int) int {
	return a + b
}

func quickMath() int {
	return add(1, 2)
}
`)

	if _, err := p.IndexAll(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	quick, err := st.FindNodesByName("quickMath")
	if err != nil || len(quick) != 1 {
		t.Fatalf("FindNodesByName(quickMath) = %v, %v", quick, err)
	}
	calls, err := st.EdgesFrom(quick[0].ID, graph.EdgeCalls, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("calls from quickMath = %d, want 1", len(calls))
	}
	if n, err := st.CountUnresolved(); err != nil || n != 0 {
		t.Fatalf("unresolved = %d, %v, want 0", n, err)
	}
}

func TestBodyEditPreservesCrossFileEdge(t *testing.T) {
	p, st, root := newPipeline(t)
	writeFile(t, root, "caller.go", "package app\n\nfunc quickMath() int {\n\treturn add(1, 2)\n}\n")
	writeFile(t, root, "mathlib.go", "package app\n\nfunc add(a, b int) int {\n\treturn a + b\n}\n")

	if _, err := p.IndexAll(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	quick, err := st.FindNodesByName("quickMath")
	if err != nil || len(quick) != 1 {
		t.Fatalf("FindNodesByName(quickMath) = %v, %v", quick, err)
	}
	before, err := st.EdgesFrom(quick[0].ID, graph.EdgeCalls, 10)
	if err != nil || len(before) != 1 {
		t.Fatalf("calls before edit = %v, %v", before, err)
	}

	// Same signature and position, different body: the content hash
	// changes but add's node id does not.
	writeFile(t, root, "mathlib.go", "package app\n\nfunc add(a, b int) int {\n\treturn b + a\n}\n")
	result, err := p.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Modified != 1 {
		t.Fatalf("sync = %+v, want 1 modified", result)
	}

	after, err := st.EdgesFrom(quick[0].ID, graph.EdgeCalls, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0].Target != before[0].Target {
		t.Fatalf("edge after edit = %v, want %v preserved", after, before)
	}
}

func TestIndexAllForceReindexes(t *testing.T) {
	p, _, root := newPipeline(t)
	writeFile(t, root, "a.go", "package app\n\nfunc A() {}\n")

	if _, err := p.IndexAll(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	result, err := p.IndexAll(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 1 {
		t.Fatalf("FilesIndexed = %d after force, want 1", result.FilesIndexed)
	}
}

func TestSyncAddModifyRemove(t *testing.T) {
	p, st, root := newPipeline(t)
	writeFile(t, root, "a.go", "package app\n\nfunc A() {}\n")
	writeFile(t, root, "b.go", "package app\n\nfunc B() {}\n")

	if _, err := p.IndexAll(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	writeFile(t, root, "a.go", "package app\n\nfunc A() {}\n\nfunc A2() {}\n")
	writeFile(t, root, "c.py", "def helper():\n    pass\n")
	if err := os.Remove(filepath.Join(root, "b.go")); err != nil {
		t.Fatal(err)
	}

	result, err := p.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Added != 1 || result.Modified != 1 || result.Removed != 1 {
		t.Fatalf("sync = %+v, want 1 added, 1 modified, 1 removed", result)
	}
	if result.FilesChecked != 2 {
		t.Fatalf("FilesChecked = %d, want 2", result.FilesChecked)
	}

	if nodes, err := st.FindNodesByName("B"); err != nil || len(nodes) != 0 {
		t.Fatalf("B still present after removal: %v, %v", nodes, err)
	}
	if nodes, err := st.FindNodesByName("A2"); err != nil || len(nodes) != 1 {
		t.Fatalf("A2 not indexed: %v, %v", nodes, err)
	}
	if nodes, err := st.FindNodesByName("helper"); err != nil || len(nodes) != 1 {
		t.Fatalf("helper not indexed: %v, %v", nodes, err)
	}
}

func TestSyncNoChangesIsNoop(t *testing.T) {
	p, _, root := newPipeline(t)
	writeFile(t, root, "a.go", "package app\n\nfunc A() {}\n")

	if _, err := p.IndexAll(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	result, err := p.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Added != 0 || result.Modified != 0 || result.Removed != 0 || result.NodesUpdated != 0 {
		t.Fatalf("sync after no changes = %+v", result)
	}
}

func TestIndexSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	st, err := store.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	cfg := config.Default()
	cfg.MaxFileSize = 64
	p := NewPipeline(root, cfg, st)

	writeFile(t, root, "big.go", "package app\n\n// "+strings.Repeat("x", 200)+"\nfunc Big() {}\n")
	writeFile(t, root, "small.go", "package app\n")

	result, err := p.IndexAll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 1 || result.FilesSkipped != 1 {
		t.Fatalf("result = %+v, want 1 indexed, 1 skipped", result)
	}
	if nodes, err := st.FindNodesByName("Big"); err != nil || len(nodes) != 0 {
		t.Fatalf("oversized file was indexed: %v, %v", nodes, err)
	}
}

func TestIndexRecordsSyntaxErrorsWithoutAborting(t *testing.T) {
	p, st, root := newPipeline(t)
	writeFile(t, root, "broken.go", "package app\n\nfunc Broken( {\n")
	writeFile(t, root, "ok.go", "package app\n\nfunc OK() {}\n")

	result, err := p.IndexAll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 2 {
		t.Fatalf("FilesIndexed = %d, want 2", result.FilesIndexed)
	}

	rec, err := st.GetFile("broken.go")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || !strings.Contains(rec.Errors, "syntax") {
		t.Fatalf("file record errors = %+v, want syntax error noted", rec)
	}
}

func TestIndexFileForcesSingleFile(t *testing.T) {
	p, st, root := newPipeline(t)
	writeFile(t, root, "a.go", "package app\n\nfunc A() {}\n")

	if _, err := p.IndexAll(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	nodes, err := p.IndexFile(context.Background(), "a.go")
	if err != nil {
		t.Fatal(err)
	}
	if nodes == 0 {
		t.Fatal("forced reindex stored no nodes")
	}
	if found, err := st.FindNodesByName("A"); err != nil || len(found) != 1 {
		t.Fatalf("A missing after forced reindex: %v, %v", found, err)
	}
}

func TestIndexAllGroupsCommits(t *testing.T) {
	root := t.TempDir()
	st, err := store.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	// Three files with BatchSize 2 crosses a flush boundary.
	cfg := config.Default()
	cfg.BatchSize = 2
	p := NewPipeline(root, cfg, st)

	writeFile(t, root, "a.go", "package app\n\nfunc A() {}\n")
	writeFile(t, root, "b.go", "package app\n\nfunc B() {}\n")
	writeFile(t, root, "c.go", "package app\n\nfunc C() {\n\tA()\n}\n")

	result, err := p.IndexAll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 3 {
		t.Fatalf("FilesIndexed = %d, want 3", result.FilesIndexed)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	for _, name := range []string{"A", "B", "C"} {
		if found, err := st.FindNodesByName(name); err != nil || len(found) != 1 {
			t.Fatalf("%s missing after batched index: %v, %v", name, found, err)
		}
	}

	// The cross-file call resolved even though caller and callee were
	// committed in different groups.
	callee, _ := st.FindNodesByName("A")
	edges, err := st.EdgesTo(callee[0].ID, graph.EdgeCalls, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected resolved call into A, got %d edges", len(edges))
	}

	second, err := p.IndexAll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if second.FilesIndexed != 0 || second.FilesSkipped != 3 {
		t.Fatalf("second run = %+v, want all skipped", second)
	}
}
