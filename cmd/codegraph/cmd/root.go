package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "codegraph - Persistent semantic code graph for coding agents",
	Long: `codegraph indexes a codebase into a persistent graph of symbols and
relationships (calls, contains, imports) backed by SQLite.

It answers questions like "who calls this?", "what breaks if I change
this?", and "what code is relevant to this task?" via the CLI or an MCP
server, and keeps itself current through incremental content-hash sync.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./codegraph.yaml)")
}

func GetConfig() *config.Config {
	return cfg
}

// projectPath resolves the optional positional project argument.
func projectPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
