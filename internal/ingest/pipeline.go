// Package ingest scans a project tree, extracts symbols from changed
// files, and keeps the graph store in sync with the working copy.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abramin/codegraph/internal/config"
	"github.com/abramin/codegraph/internal/extract"
	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/resolve"
	"github.com/abramin/codegraph/internal/store"
)

// resolveBatchSize caps how many unresolved references a single
// resolution pass after indexing will scan.
const resolveBatchSize = 10_000

// IndexResult summarizes a full indexing run.
type IndexResult struct {
	FilesIndexed int      `json:"files_indexed"`
	FilesSkipped int      `json:"files_skipped"`
	NodesCreated int      `json:"nodes_created"`
	EdgesCreated int      `json:"edges_created"`
	Errors       []string `json:"errors,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
}

// SyncResult summarizes an incremental sync run.
type SyncResult struct {
	FilesChecked int      `json:"files_checked"`
	Added        int      `json:"files_added"`
	Modified     int      `json:"files_modified"`
	Removed      int      `json:"files_removed"`
	NodesUpdated int      `json:"nodes_updated"`
	Errors       []string `json:"errors,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
}

// Pipeline drives extraction and storage for one project.
type Pipeline struct {
	root     string
	cfg      *config.Config
	store    *store.Store
	resolver *resolve.Resolver
}

// NewPipeline wires a pipeline over an open store. root is the project
// directory that file paths in the store are relative to.
func NewPipeline(root string, cfg *config.Config, st *store.Store) *Pipeline {
	return &Pipeline{
		root:  root,
		cfg:   cfg,
		store: st,
		resolver: resolve.New(st, resolve.Options{
			Margin: cfg.Resolution.Margin,
			TopK:   cfg.Resolution.TopK,
		}),
	}
}

// IndexAll indexes every indexable file under the project root. With
// force set, the store is cleared first so everything re-extracts;
// otherwise files whose content hash is unchanged are skipped.
func (p *Pipeline) IndexAll(ctx context.Context, force bool) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	files, err := Scan(p.root, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.root, err)
	}

	if force {
		if err := p.store.Clear(); err != nil {
			return nil, err
		}
	}

	var pending []store.FileBatch
	flush := func() {
		if err := p.store.UpsertFileBatch(pending); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("committing %d files: %v", len(pending), err))
		} else {
			for _, b := range pending {
				if len(b.Nodes) == 0 {
					result.FilesSkipped++
					continue
				}
				result.FilesIndexed++
				result.NodesCreated += len(b.Nodes)
				result.EdgesCreated += len(b.Edges)
			}
		}
		pending = pending[:0]
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := p.extractFile(ctx, file)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file, err))
			continue
		}
		if batch == nil {
			result.FilesSkipped++
			continue
		}
		pending = append(pending, *batch)
		if len(pending) >= p.batchSize() {
			flush()
		}
	}
	flush()

	if _, err := p.resolver.Run(resolveBatchSize); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("resolver: %v", err))
	}

	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

// batchSize is how many files share one storage transaction.
func (p *Pipeline) batchSize() int {
	if p.cfg.BatchSize > 0 {
		return p.cfg.BatchSize
	}
	return 1
}

// Sync reconciles the store with the working copy: files that vanished
// are removed, new and modified files are re-extracted, and unchanged
// files are left alone.
func (p *Pipeline) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{}

	files, err := Scan(p.root, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.root, err)
	}
	current := make(map[string]bool, len(files))
	for _, f := range files {
		current[f] = true
	}

	tracked, err := p.store.ListFiles()
	if err != nil {
		return nil, err
	}
	trackedByPath := make(map[string]graph.FileRecord, len(tracked))
	for _, rec := range tracked {
		trackedByPath[rec.Path] = rec
	}

	for _, rec := range tracked {
		if current[rec.Path] {
			continue
		}
		if err := p.store.DeleteFile(rec.Path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rec.Path, err))
			continue
		}
		result.Removed++
	}

	var pending []store.FileBatch
	flush := func() {
		if err := p.store.UpsertFileBatch(pending); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("committing %d files: %v", len(pending), err))
		} else {
			for _, b := range pending {
				if len(b.Nodes) == 0 {
					continue
				}
				result.NodesUpdated += len(b.Nodes)
				if _, known := trackedByPath[b.File.Path]; known {
					result.Modified++
				} else {
					result.Added++
				}
			}
		}
		pending = pending[:0]
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := p.extractFile(ctx, file)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file, err))
			continue
		}
		if batch == nil {
			continue
		}
		pending = append(pending, *batch)
		if len(pending) >= p.batchSize() {
			flush()
		}
	}
	flush()
	result.FilesChecked = len(files)

	if _, err := p.resolver.Run(resolveBatchSize); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("resolver: %v", err))
	}

	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

// IndexFile forces extraction of a single file regardless of its
// current hash state, returning the number of nodes stored.
func (p *Pipeline) IndexFile(ctx context.Context, relPath string) (int, error) {
	if err := p.store.DeleteFile(relPath); err != nil {
		return 0, err
	}
	batch, err := p.extractFile(ctx, relPath)
	if err != nil {
		return 0, err
	}
	if batch == nil {
		return 0, nil
	}
	if err := p.store.UpsertFileBatch([]store.FileBatch{*batch}); err != nil {
		return 0, err
	}
	nodes := len(batch.Nodes)
	if _, err := p.resolver.Run(resolveBatchSize); err != nil {
		return nodes, err
	}
	return nodes, nil
}

// RemoveFile drops one file from the store, requeueing edges that
// pointed into it.
func (p *Pipeline) RemoveFile(relPath string) error {
	return p.store.DeleteFile(relPath)
}

// extractFile reads and extracts one file into a storage batch. Returns
// (nil, nil) when the file was skipped: unchanged content, oversized, or
// disabled language.
func (p *Pipeline) extractFile(ctx context.Context, relPath string) (*store.FileBatch, error) {
	full := filepath.Join(p.root, filepath.FromSlash(relPath))
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if p.cfg.MaxFileSize > 0 && info.Size() > p.cfg.MaxFileSize {
		return nil, nil
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}

	hash := graph.ContentHash(content)
	if existing, err := p.store.GetFile(relPath); err == nil && existing != nil {
		if existing.ContentHash == hash {
			return nil, nil
		}
	}

	now := time.Now().UnixMilli()
	res, err := extract.File(ctx, relPath, content, now)
	if err != nil {
		return nil, err
	}

	return &store.FileBatch{
		File: &graph.FileRecord{
			Path:        relPath,
			ContentHash: hash,
			Language:    extract.DetectLanguage(relPath),
			Size:        info.Size(),
			ModifiedAt:  info.ModTime().UnixMilli(),
			IndexedAt:   now,
			NodeCount:   len(res.Nodes),
			Errors:      strings.Join(res.Errors, "; "),
		},
		Nodes:      res.Nodes,
		Edges:      res.Edges,
		Unresolved: res.Unresolved,
	}, nil
}
