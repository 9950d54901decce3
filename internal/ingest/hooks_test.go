package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func initGitDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git", "hooks"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestHooksRequireGitRepository(t *testing.T) {
	h := NewHooks(t.TempDir())
	if h.IsGitRepository() {
		t.Fatal("bare temp dir reported as git repository")
	}
	result := h.Install()
	if result.Success {
		t.Fatal("install succeeded outside a git repository")
	}
	if !strings.Contains(result.Message, "git init") {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestHooksInstallAndRemove(t *testing.T) {
	root := initGitDir(t)
	h := NewHooks(root)

	result := h.Install()
	if !result.Success {
		t.Fatalf("install failed: %s", result.Message)
	}
	if !h.IsInstalled() {
		t.Fatal("hook not detected after install")
	}

	content, err := os.ReadFile(result.HookPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "codegraph sync --quiet") {
		t.Fatalf("hook script missing sync invocation:\n%s", content)
	}

	removed := h.Remove()
	if !removed.Success || removed.Restored {
		t.Fatalf("remove = %+v", removed)
	}
	if h.IsInstalled() {
		t.Fatal("hook still present after remove")
	}
}

func TestHooksBackUpAndRestoreForeignHook(t *testing.T) {
	root := initGitDir(t)
	foreign := "#!/bin/sh\necho custom\n"
	hookPath := filepath.Join(root, ".git", "hooks", "post-commit")
	if err := os.WriteFile(hookPath, []byte(foreign), 0o755); err != nil {
		t.Fatal(err)
	}

	h := NewHooks(root)
	result := h.Install()
	if !result.Success || !result.BackedUp {
		t.Fatalf("install = %+v, want backup of foreign hook", result)
	}

	removed := h.Remove()
	if !removed.Success || !removed.Restored {
		t.Fatalf("remove = %+v, want restore from backup", removed)
	}
	content, err := os.ReadFile(hookPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != foreign {
		t.Fatalf("restored hook = %q, want original", content)
	}
}

func TestHooksRefuseToRemoveForeignHook(t *testing.T) {
	root := initGitDir(t)
	hookPath := filepath.Join(root, ".git", "hooks", "post-commit")
	if err := os.WriteFile(hookPath, []byte("#!/bin/sh\necho custom\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	h := NewHooks(root)
	result := h.Remove()
	if result.Success {
		t.Fatal("removed a hook we did not install")
	}
	if _, err := os.Stat(hookPath); err != nil {
		t.Fatal("foreign hook was deleted")
	}
}

func TestHooksRemoveWhenNoneInstalled(t *testing.T) {
	h := NewHooks(initGitDir(t))
	result := h.Remove()
	if !result.Success {
		t.Fatalf("remove with no hook = %+v", result)
	}
}
