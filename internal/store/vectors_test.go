package store

import (
	"math"
	"testing"

	"github.com/abramin/codegraph/internal/graph"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tc := range cases {
		got := CosineSimilarity(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("%s: got %f, want %f", tc.name, got, tc.want)
		}
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	st := newTestStore(t)

	n := testNode("src/a.go", "f", graph.KindFunction, 1)
	if err := st.UpsertFileSymbols(testFile("src/a.go", 1), []graph.Node{n}, nil, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	vec := []float32{0.25, -1.5, 3.75}
	if err := st.StoreEmbedding(n.ID, vec, "test-model"); err != nil {
		t.Fatalf("store embedding: %v", err)
	}

	got, err := st.LoadEmbedding(n.ID, "test-model")
	if err != nil {
		t.Fatalf("load embedding: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("expected %d dims, got %d", len(vec), len(got))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("dim %d: got %f, want %f", i, got[i], vec[i])
		}
	}

	// Re-embedding overwrites, never duplicates.
	if err := st.StoreEmbedding(n.ID, []float32{9, 9, 9}, "test-model"); err != nil {
		t.Fatalf("re-embed: %v", err)
	}
	var count int
	if err := st.DB().QueryRow("SELECT COUNT(*) FROM vectors WHERE node_id = ?", n.ID).Scan(&count); err != nil {
		t.Fatalf("counting vectors: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 vector per (node, model), got %d", count)
	}
}

func TestSearchSimilarRankingAndFloor(t *testing.T) {
	st := newTestStore(t)

	close := testNode("src/a.go", "close", graph.KindFunction, 1)
	far := testNode("src/a.go", "far", graph.KindFunction, 10)
	if err := st.UpsertFileSymbols(testFile("src/a.go", 2), []graph.Node{close, far}, nil, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.StoreEmbedding(close.ID, []float32{1, 0.1}, "m"); err != nil {
		t.Fatalf("embed close: %v", err)
	}
	if err := st.StoreEmbedding(far.ID, []float32{0, 1}, "m"); err != nil {
		t.Fatalf("embed far: %v", err)
	}

	results, err := st.SearchSimilar([]float32{1, 0}, "m", 10, 0.5)
	if err != nil {
		t.Fatalf("search similar: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result above floor, got %d", len(results))
	}
	if results[0].Node.Name != "close" {
		t.Errorf("expected closest vector first, got %s", results[0].Node.Name)
	}
}

func TestEmbeddingCascadesWithNode(t *testing.T) {
	st := newTestStore(t)

	n := testNode("src/a.go", "f", graph.KindFunction, 1)
	if err := st.UpsertFileSymbols(testFile("src/a.go", 1), []graph.Node{n}, nil, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.StoreEmbedding(n.ID, []float32{1}, "m"); err != nil {
		t.Fatalf("embed: %v", err)
	}

	if err := st.DeleteFile("src/a.go"); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	vec, err := st.LoadEmbedding(n.ID, "m")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if vec != nil {
		t.Error("embedding should be destroyed with its node")
	}
}
