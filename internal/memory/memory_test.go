package memory

import (
	"strings"
	"testing"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestWriteAndRead(t *testing.T) {
	m := newManager(t)

	if _, err := m.Write("architecture", "# Architecture\n\nLayered.\n"); err != nil {
		t.Fatal(err)
	}
	content, err := m.Read("architecture")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "Layered.") {
		t.Fatalf("content = %q", content)
	}

	// The .md suffix is optional on both sides.
	content, err = m.Read("architecture.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "Layered.") {
		t.Fatalf("content via .md name = %q", content)
	}
}

func TestReadMissingIsNotAnError(t *testing.T) {
	m := newManager(t)
	content, err := m.Read("nothing")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "not found") {
		t.Fatalf("content = %q, want not-found hint", content)
	}
}

func TestListSorted(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"zebra", "alpha", "middle"} {
		if _, err := m.Write(name, "x"); err != nil {
			t.Fatal(err)
		}
	}
	names, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha", "middle", "zebra"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestDeleteMissingIsAnError(t *testing.T) {
	m := newManager(t)
	if _, err := m.Delete("ghost"); err == nil {
		t.Fatal("deleting a missing memory succeeded")
	}

	if _, err := m.Write("real", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Delete("real"); err != nil {
		t.Fatal(err)
	}
	if m.Exists("real") {
		t.Fatal("memory still exists after delete")
	}
}

func TestRejectsPathSeparators(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"../escape", "a/b", "a\\b", "", "."} {
		if _, err := m.Write(name, "x"); err == nil {
			t.Fatalf("Write(%q) succeeded", name)
		}
	}
}
