package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the codegraph configuration.
type Config struct {
	Exclude     ExcludeConfig    `yaml:"exclude"`
	Languages   []string         `yaml:"languages"`
	MaxFileSize int64            `yaml:"max_file_size"`
	BatchSize   int              `yaml:"batch_size"`
	Embeddings  EmbeddingConfig  `yaml:"embeddings"`
	Resolution  ResolutionConfig `yaml:"resolution"`
}

// ExcludeConfig defines patterns to exclude from indexing.
type ExcludeConfig struct {
	Dirs      []string `yaml:"dirs"`
	FilesGlob []string `yaml:"files_glob"`
}

// EmbeddingConfig controls semantic search vectors.
type EmbeddingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	// Provider selects how vectors are produced: "openai" or "local".
	Provider string `yaml:"provider"`
}

// ResolutionConfig tunes the reference resolver.
type ResolutionConfig struct {
	// Margin is the score gap the top candidate must hold over the
	// runner-up before an edge is committed.
	Margin float64 `yaml:"margin"`
	// TopK is how many scored candidates are retained on a reference
	// that stays ambiguous.
	TopK int `yaml:"top_k"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Exclude: ExcludeConfig{
			Dirs:      []string{".git", ".codegraph", "node_modules", "vendor", "third_party", "dist", "build", "target", "testdata"},
			FilesGlob: []string{"**/*.min.js", "**/*.pb.go", "**/*_gen.go", "**/*_mock.go"},
		},
		Languages:   []string{"go", "python", "javascript", "typescript"},
		MaxFileSize: 1 << 20,
		BatchSize:   50,
		Embeddings: EmbeddingConfig{
			Enabled:  false,
			Model:    "text-embedding-3-small",
			Provider: "local",
		},
		Resolution: ResolutionConfig{
			Margin: 10,
			TopK:   5,
		},
	}
}

// Load reads configuration from file, falling back to defaults.
// If configPath is empty, it looks for codegraph.yaml in the current directory.
// Values in the config file replace defaults entirely (no merging).
func Load(configPath string) (*Config, error) {
	defaults := Default()

	if configPath == "" {
		configPath = "codegraph.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config file, use defaults
			return defaults, nil
		}
		return nil, err
	}

	// Unmarshal into empty struct first
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults.Merge(&fileCfg)
	return defaults, nil
}

// LoadFromDir loads configuration from the specified directory.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, "codegraph.yaml"))
}

// Merge combines another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Exclude.Dirs) > 0 {
		c.Exclude.Dirs = other.Exclude.Dirs
	}
	if len(other.Exclude.FilesGlob) > 0 {
		c.Exclude.FilesGlob = other.Exclude.FilesGlob
	}
	if len(other.Languages) > 0 {
		c.Languages = other.Languages
	}
	if other.MaxFileSize > 0 {
		c.MaxFileSize = other.MaxFileSize
	}
	if other.BatchSize > 0 {
		c.BatchSize = other.BatchSize
	}
	if other.Embeddings.Model != "" || other.Embeddings.Provider != "" || other.Embeddings.Enabled {
		merged := c.Embeddings
		merged.Enabled = other.Embeddings.Enabled
		if other.Embeddings.Model != "" {
			merged.Model = other.Embeddings.Model
		}
		if other.Embeddings.Provider != "" {
			merged.Provider = other.Embeddings.Provider
		}
		c.Embeddings = merged
	}
	if other.Resolution.Margin > 0 {
		c.Resolution.Margin = other.Resolution.Margin
	}
	if other.Resolution.TopK > 0 {
		c.Resolution.TopK = other.Resolution.TopK
	}
}

// IsExcludedDir checks if a directory should be excluded from indexing.
func (c *Config) IsExcludedDir(dir string) bool {
	base := filepath.Base(dir)
	for _, excluded := range c.Exclude.Dirs {
		if base == excluded {
			return true
		}
	}
	return false
}

// IsExcludedFile checks a path against the configured file globs.
// Patterns of the form **/name match on the basename.
func (c *Config) IsExcludedFile(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.FilesGlob {
		trimmed := strings.TrimPrefix(pattern, "**/")
		if matched, err := filepath.Match(trimmed, base); err == nil && matched {
			return true
		}
	}
	return false
}

// LanguageEnabled reports whether a language tag is configured for indexing.
func (c *Config) LanguageEnabled(lang string) bool {
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
