package graph

import "testing"

func TestNodeIDDeterministic(t *testing.T) {
	a := NodeID("src/math.go", KindFunction, "math.Add", 10)
	b := NodeID("src/math.go", KindFunction, "math.Add", 10)
	if a != b {
		t.Errorf("expected identical ids, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex id, got %d chars", len(a))
	}
}

func TestNodeIDVariesByInput(t *testing.T) {
	base := NodeID("src/math.go", KindFunction, "math.Add", 10)

	cases := []struct {
		name string
		id   string
	}{
		{"different file", NodeID("src/other.go", KindFunction, "math.Add", 10)},
		{"different kind", NodeID("src/math.go", KindMethod, "math.Add", 10)},
		{"different qualified name", NodeID("src/math.go", KindFunction, "math.Sub", 10)},
		{"different line", NodeID("src/math.go", KindFunction, "math.Add", 11)},
	}
	for _, tc := range cases {
		if tc.id == base {
			t.Errorf("%s: expected id to differ from base", tc.name)
		}
	}
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash([]byte("func add() {}"))
	b := ContentHash([]byte("func add() {}"))
	if a != b {
		t.Error("same content must hash identically")
	}
	if ContentHash([]byte("func add() { return }")) == a {
		t.Error("different content must hash differently")
	}
}
