package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/ingest"
	"github.com/spf13/cobra"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the git post-commit sync hook",
	Long: `Install or remove a git post-commit hook that runs "codegraph sync"
after every commit, keeping the graph current without manual syncs.

An existing foreign post-commit hook is backed up on install and
restored on remove.`,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install [path]",
	Short: "Install the post-commit hook",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := ingest.NewHooks(projectPath(args)).Install()
		fmt.Println(result.Message)
		if result.BackedUp {
			fmt.Printf("Previous hook backed up to %s\n", result.Backup)
		}
		if !result.Success {
			return fmt.Errorf("hook install failed")
		}
		return nil
	},
}

var hooksRemoveCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Remove the post-commit hook",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := ingest.NewHooks(projectPath(args)).Remove()
		fmt.Println(result.Message)
		if !result.Success {
			return fmt.Errorf("hook remove failed")
		}
		return nil
	},
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show whether the post-commit hook is installed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h := ingest.NewHooks(projectPath(args))
		switch {
		case !h.IsGitRepository():
			fmt.Println("Not a git repository.")
		case h.IsInstalled():
			fmt.Println("Post-commit hook is installed.")
		default:
			fmt.Println("Post-commit hook is not installed.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksRemoveCmd)
	hooksCmd.AddCommand(hooksStatusCmd)
}
