package query

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abramin/codegraph/internal/embed"
	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/store"
)

func writeSource(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildContext(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	writeSource(t, dir, "billing/invoice.go", `package billing

// CreateInvoice builds an invoice for an order.
func CreateInvoice(orderID string) error {
	return persistInvoice(orderID)
}

func persistInvoice(orderID string) error {
	return nil
}
`)

	create := symbol("billing/invoice.go", "CreateInvoice", graph.KindFunction, 3)
	create.EndLine = 6
	create.Docstring = "CreateInvoice builds an invoice for an order."
	persist := symbol("billing/invoice.go", "persistInvoice", graph.KindFunction, 8)
	persist.EndLine = 10
	seedFile(t, st, "billing/invoice.go", []graph.Node{create, persist},
		[]graph.Edge{callEdge(create, persist)})

	b := NewContextBuilder(st, nil, dir)
	ctxBundle, err := b.Build(context.Background(), "invoice", ContextOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if len(ctxBundle.EntryPoints) == 0 {
		t.Fatal("expected entry points for 'invoice'")
	}
	if _, ok := ctxBundle.Subgraph.Nodes[persist.ID]; !ok {
		t.Error("expected depth-1 traversal to pull in the callee")
	}
	if len(ctxBundle.CodeBlocks) == 0 {
		t.Fatal("expected code blocks")
	}
	if !strings.Contains(ctxBundle.CodeBlocks[0].Content, "Invoice") {
		t.Errorf("code block content = %q", ctxBundle.CodeBlocks[0].Content)
	}
	if len(ctxBundle.RelatedFiles) != 1 || ctxBundle.RelatedFiles[0] != "billing/invoice.go" {
		t.Errorf("related files = %v", ctxBundle.RelatedFiles)
	}
	if ctxBundle.Stats.CodeBlockCount != len(ctxBundle.CodeBlocks) {
		t.Error("stats disagree with code block count")
	}

	md := ctxBundle.Markdown()
	for _, want := range []string{"## Code Context", "**Query:** invoice", "### Entry Points", "### Code"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestBuildContextLimitsAndTruncation(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	long := "// " + strings.Repeat("x", 400)
	writeSource(t, dir, "big/file.go", strings.Repeat(long+"\n", 10))

	var nodes []graph.Node
	for i := 0; i < 8; i++ {
		n := symbol("big/file.go", "widget"+string(rune('A'+i)), graph.KindFunction, i+1)
		n.EndLine = 10
		n.Docstring = "widget helper"
		nodes = append(nodes, n)
	}
	seedFile(t, st, "big/file.go", nodes, nil)

	b := NewContextBuilder(st, nil, dir)
	ctxBundle, err := b.Build(context.Background(), "widget", ContextOptions{MaxCodeBlocks: 2, MaxCodeBlockSize: 100})
	if err != nil {
		t.Fatal(err)
	}

	if len(ctxBundle.CodeBlocks) != 2 {
		t.Errorf("expected 2 code blocks, got %d", len(ctxBundle.CodeBlocks))
	}
	for _, blk := range ctxBundle.CodeBlocks {
		if !strings.Contains(blk.Content, "... truncated ...") {
			t.Error("expected oversized block to carry the truncation marker")
		}
		if len(blk.Content) > 100+len("\n// ... truncated ...") {
			t.Errorf("block exceeds size cap: %d bytes", len(blk.Content))
		}
	}
}

func TestBuildContextOmitCode(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	n := symbol("a.go", "thing", graph.KindFunction, 1)
	seedFile(t, st, "a.go", []graph.Node{n}, nil)

	ctxBundle, err := NewContextBuilder(st, nil, dir).Build(context.Background(), "thing", ContextOptions{OmitCode: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(ctxBundle.CodeBlocks) != 0 {
		t.Errorf("expected no code blocks, got %d", len(ctxBundle.CodeBlocks))
	}
}

func TestBuildContextMergesSemanticEntryPoints(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	// lexMatch matches the task text lexically; vecMatch shares no
	// tokens with it and is reachable only through its stored vector.
	lexMatch := symbol("pay.go", "settle", graph.KindFunction, 1)
	lexMatch.Docstring = "settle a payment"
	vecMatch := symbol("pay.go", "reconcile", graph.KindFunction, 10)
	vecMatch.Docstring = "balance the books"
	seedFile(t, st, "pay.go", []graph.Node{lexMatch, vecMatch}, nil)

	provider := embed.NewLocal("")
	ctx := context.Background()
	vec, err := provider.Embed(ctx, "settle a payment")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.StoreEmbedding(vecMatch.ID, vec, provider.Model()); err != nil {
		t.Fatal(err)
	}

	bundle, err := NewContextBuilder(st, provider, dir).Build(ctx, "settle a payment", ContextOptions{OmitCode: true})
	if err != nil {
		t.Fatal(err)
	}

	ids := make(map[string]int)
	for _, n := range bundle.EntryPoints {
		ids[n.ID]++
	}
	if ids[lexMatch.ID] != 1 {
		t.Error("lexical match missing from entry points")
	}
	if ids[vecMatch.ID] != 1 {
		t.Error("stored-vector match missing from entry points")
	}

	// Without a provider the semantic hit cannot contribute.
	lexOnly, err := NewContextBuilder(st, nil, dir).Build(ctx, "settle a payment", ContextOptions{OmitCode: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range lexOnly.EntryPoints {
		if n.ID == vecMatch.ID {
			t.Error("semantic-only match must not appear without a provider")
		}
	}
}

func TestBuildContextMissingSourceFile(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	// Node indexed but its file is gone from disk.
	n := symbol("gone.go", "orphan", graph.KindFunction, 1)
	seedFile(t, st, "gone.go", []graph.Node{n}, nil)

	ctxBundle, err := NewContextBuilder(st, nil, dir).Build(context.Background(), "orphan", ContextOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ctxBundle.CodeBlocks) != 0 {
		t.Error("unreadable files must be skipped, not fail the build")
	}
	if len(ctxBundle.EntryPoints) == 0 {
		t.Error("entry points should still be returned")
	}
}
