package ingest

import (
	"os"
	"path/filepath"
	"sort"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/abramin/codegraph/internal/config"
	"github.com/abramin/codegraph/internal/extract"
)

// Scan walks the project tree and returns the relative paths of every
// indexable source file, sorted, with forward slashes. Directories and
// files excluded by the config or the project's .gitignore are skipped.
func Scan(root string, cfg *config.Config) ([]string, error) {
	var ignore *gitignore.GitIgnore
	if matcher, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		ignore = matcher
	}

	var files []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			if dir == root {
				return nil, err
			}
			continue
		}

		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			rel, err := filepath.Rel(root, full)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if entry.IsDir() {
				if cfg.IsExcludedDir(entry.Name()) {
					continue
				}
				if ignore != nil && ignore.MatchesPath(rel+"/") {
					continue
				}
				stack = append(stack, full)
				continue
			}
			if !entry.Type().IsRegular() {
				continue
			}
			if cfg.IsExcludedFile(rel) {
				continue
			}
			if ignore != nil && ignore.MatchesPath(rel) {
				continue
			}
			lang := extract.DetectLanguage(rel)
			if lang == "" || !cfg.LanguageEnabled(lang) {
				continue
			}
			files = append(files, rel)
		}
	}

	sort.Strings(files)
	return files, nil
}
