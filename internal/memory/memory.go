// Package memory persists project knowledge as markdown files under
// .codegraph/memories/, surviving across sessions and reindexes.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manager reads and writes named memories for one project.
type Manager struct {
	dir string
}

// NewManager creates the memories directory if needed and returns a
// manager rooted at it.
func NewManager(projectRoot string) (*Manager, error) {
	dir := filepath.Join(projectRoot, ".codegraph", "memories")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memories dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the memories directory path.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) path(name string) (string, error) {
	name = strings.TrimSuffix(name, ".md")
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return "", fmt.Errorf("invalid memory name %q", name)
	}
	return filepath.Join(m.dir, name+".md"), nil
}

// Write stores a memory, replacing any previous content.
func (m *Manager) Write(name, content string) (string, error) {
	path, err := m.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("Memory '%s' written successfully", strings.TrimSuffix(name, ".md")), nil
}

// Read returns a memory's content. A missing memory is not an error;
// the returned text tells the caller it does not exist yet.
func (m *Manager) Read(name string) (string, error) {
	path, err := m.path(name)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Sprintf("Memory '%s' not found. Consider creating it with write_memory if needed.",
			strings.TrimSuffix(name, ".md")), nil
	}
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// List returns the names of all stored memories, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a memory with the given name is stored.
func (m *Manager) Exists(name string) bool {
	path, err := m.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes a memory. Deleting a memory that does not exist is an
// error, unlike reading one.
func (m *Manager) Delete(name string) (string, error) {
	path, err := m.path(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("memory '%s' not found", strings.TrimSuffix(name, ".md"))
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return fmt.Sprintf("Memory '%s' deleted successfully", strings.TrimSuffix(name, ".md")), nil
}
