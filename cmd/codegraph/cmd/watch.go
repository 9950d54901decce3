package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abramin/codegraph/internal/ingest"
	"github.com/abramin/codegraph/internal/store"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch the project and sync the graph on changes",
	Long: `Watch the project tree for file changes and run an incremental sync
whenever they settle.

Events are debounced so a burst of writes (editor save, git checkout)
triggers a single sync. New directories are picked up as they appear.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := projectPath(args)
		cfg := GetConfig()

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()
		pipeline := ingest.NewPipeline(path, cfg, st)

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		defer watcher.Close()

		addDirs := func(root string) error {
			return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if !d.IsDir() {
					return nil
				}
				if p != root && cfg.IsExcludedDir(d.Name()) {
					return filepath.SkipDir
				}
				return watcher.Add(p)
			})
		}
		if err := addDirs(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}

		fmt.Printf("Watching %s for changes (debounce %s)\n", path, watchDebounce)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		dirty := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if !cfg.IsExcludedDir(filepath.Base(event.Name)) {
							_ = addDirs(event.Name)
						}
					}
				}
				if !dirty {
					dirty = true
				}
				timer.Reset(watchDebounce)

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

			case <-timer.C:
				if !dirty {
					continue
				}
				dirty = false
				result, err := pipeline.Sync(cmd.Context())
				if err != nil {
					fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
					continue
				}
				if result.Added+result.Modified+result.Removed > 0 {
					fmt.Printf("Synced: %d added, %d modified, %d removed (%dms)\n",
						result.Added, result.Modified, result.Removed, result.DurationMS)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before syncing after a change")
}
