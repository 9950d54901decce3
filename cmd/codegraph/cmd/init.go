package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abramin/codegraph/internal/ingest"
	"github.com/abramin/codegraph/internal/store"
)

var (
	initIndex   bool
	initNoHooks bool
)

const defaultConfigYAML = `# codegraph configuration
languages:
  - go
  - python
  - javascript
  - typescript

exclude:
  dirs:
    - .git
    - .codegraph
    - node_modules
    - vendor
  files_glob:
    - "**/*.min.js"

max_file_size: 1048576

embeddings:
  enabled: false
  provider: local
  model: text-embedding-3-small

resolution:
  margin: 10
  top_k: 5
`

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize codegraph for a project",
	Long: `Set up codegraph in a project: create the .codegraph data directory,
write a starter codegraph.yaml, add .codegraph/ to .gitignore, and
install the post-commit sync hook.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := projectPath(args)

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		fmt.Printf("Created %s\n", st.DBPath())
		st.Close()

		configPath := filepath.Join(path, "codegraph.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("Created %s\n", configPath)
		}

		if err := ensureGitignoreEntry(path); err != nil {
			return err
		}

		hooks := ingest.NewHooks(path)
		if !initNoHooks && hooks.IsGitRepository() {
			result := hooks.Install()
			fmt.Println(result.Message)
		}

		if initIndex {
			return indexCmd.RunE(cmd, args)
		}
		fmt.Println("Run 'codegraph index' to build the graph.")
		return nil
	},
}

// ensureGitignoreEntry adds .codegraph/ to the project's .gitignore,
// creating the file when absent.
func ensureGitignoreEntry(path string) error {
	gitignorePath := filepath.Join(path, ".gitignore")
	content, err := os.ReadFile(gitignorePath)
	if err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			if strings.TrimSpace(line) == ".codegraph/" || strings.TrimSpace(line) == ".codegraph" {
				return nil
			}
		}
		updated := string(content)
		if updated != "" && !strings.HasSuffix(updated, "\n") {
			updated += "\n"
		}
		updated += ".codegraph/\n"
		return os.WriteFile(gitignorePath, []byte(updated), 0o644)
	}
	if os.IsNotExist(err) {
		return os.WriteFile(gitignorePath, []byte(".codegraph/\n"), 0o644)
	}
	return err
}
