package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	postCommitHook = "post-commit"
	hookMarker     = "# codegraph auto-sync hook"
	hookBackupExt  = ".codegraph-backup"
)

const postCommitScript = `#!/bin/sh
# codegraph auto-sync hook
# Keeps the graph in sync after each commit.
# To remove: codegraph hooks remove

(
  if [ ! -d ".codegraph" ]; then
    exit 0
  fi

  if command -v codegraph >/dev/null 2>&1; then
    codegraph sync --quiet 2>/dev/null &
  fi
) &

exit 0
`

// HookInstallResult reports the outcome of installing the post-commit hook.
type HookInstallResult struct {
	Success  bool   `json:"success"`
	HookPath string `json:"hook_path"`
	Message  string `json:"message"`
	BackedUp bool   `json:"previous_hook_backed_up"`
	Backup   string `json:"backup_path,omitempty"`
}

// HookRemoveResult reports the outcome of removing the post-commit hook.
type HookRemoveResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Restored bool   `json:"restored_from_backup"`
}

// Hooks manages the git post-commit hook that triggers sync.
type Hooks struct {
	gitDir   string
	hooksDir string
}

// NewHooks returns a hook manager for the given project root.
func NewHooks(projectRoot string) *Hooks {
	gitDir := filepath.Join(projectRoot, ".git")
	return &Hooks{gitDir: gitDir, hooksDir: filepath.Join(gitDir, "hooks")}
}

// IsGitRepository reports whether the project root has a .git directory.
func (h *Hooks) IsGitRepository() bool {
	info, err := os.Stat(h.gitDir)
	return err == nil && info.IsDir()
}

// IsInstalled reports whether our post-commit hook is present.
func (h *Hooks) IsInstalled() bool {
	content, err := os.ReadFile(filepath.Join(h.hooksDir, postCommitHook))
	return err == nil && strings.Contains(string(content), hookMarker)
}

// Install writes the post-commit hook, backing up any existing foreign
// hook first.
func (h *Hooks) Install() HookInstallResult {
	hookPath := filepath.Join(h.hooksDir, postCommitHook)
	result := HookInstallResult{HookPath: hookPath}

	if !h.IsGitRepository() {
		result.Message = "Not a git repository. Run git init first."
		return result
	}
	if err := os.MkdirAll(h.hooksDir, 0o755); err != nil {
		result.Message = fmt.Sprintf("Failed to create hooks directory: %v", err)
		return result
	}

	if existing, err := os.ReadFile(hookPath); err == nil {
		if !strings.Contains(string(existing), hookMarker) {
			backup := hookPath + hookBackupExt
			if err := os.WriteFile(backup, existing, 0o755); err != nil {
				result.Message = fmt.Sprintf("Failed to backup existing hook: %v", err)
				return result
			}
			result.BackedUp = true
			result.Backup = backup
		}
	}

	if err := os.WriteFile(hookPath, []byte(postCommitScript), 0o755); err != nil {
		result.Message = fmt.Sprintf("Failed to write hook: %v", err)
		return result
	}

	result.Success = true
	result.Message = "Post-commit hook installed."
	return result
}

// Remove deletes our hook and restores a backed-up foreign hook when
// one exists. Removing a hook we did not install is an error.
func (h *Hooks) Remove() HookRemoveResult {
	hookPath := filepath.Join(h.hooksDir, postCommitHook)
	backupPath := hookPath + hookBackupExt

	content, err := os.ReadFile(hookPath)
	if err != nil {
		return HookRemoveResult{Success: true, Message: "No post-commit hook found."}
	}
	if !strings.Contains(string(content), hookMarker) {
		return HookRemoveResult{Message: "Post-commit hook was not installed by codegraph."}
	}
	if err := os.Remove(hookPath); err != nil {
		return HookRemoveResult{Message: fmt.Sprintf("Failed to remove hook: %v", err)}
	}

	if _, err := os.Stat(backupPath); err == nil {
		if err := os.Rename(backupPath, hookPath); err != nil {
			return HookRemoveResult{
				Success: true,
				Message: fmt.Sprintf("Hook removed. Failed to restore backup: %v", err),
			}
		}
		return HookRemoveResult{Success: true, Message: "Hook removed. Previous hook restored.", Restored: true}
	}
	return HookRemoveResult{Success: true, Message: "Hook removed."}
}
