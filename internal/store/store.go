package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/abramin/codegraph/internal/graph"
)

// Store handles persistence of the code graph to SQLite. All writes are
// serialized through one mutex so there is a single logical writer per
// project; readers run against the last-committed state.
type Store struct {
	db      *sql.DB
	dbPath  string
	baseDir string

	mu sync.Mutex // serializes writer transactions
}

// Open creates or opens a codegraph index database.
// By default, stores at .codegraph/index.db relative to the given project directory.
func Open(projectDir string) (*Store, error) {
	dataDir := filepath.Join(projectDir, ".codegraph")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating .codegraph directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")
	dsn := "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{
		db:      db,
		dbPath:  dbPath,
		baseDir: projectDir,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the path to the database file.
func (s *Store) DBPath() string {
	return s.dbPath
}

// BaseDir returns the project root this store belongs to.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// DB returns the underlying database for advanced queries.
// Use with caution - prefer adding methods to Store instead.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Clear removes all data from the database (for re-indexing).
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"unresolved_refs", "vectors", "edges", "nodes", "files", "metadata"}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing table %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// FileBatch is one file's extraction output, queued for a grouped
// commit.
type FileBatch struct {
	File       *graph.FileRecord
	Nodes      []graph.Node
	Edges      []graph.Edge
	Unresolved []graph.UnresolvedRef
}

// UpsertFileSymbols replaces a file's entire graph contribution in one
// transaction: the old nodes for the file are deleted (edges, unresolved
// refs and vectors cascade), the new node set is inserted, edges whose
// target already exists are inserted, and edges whose target is missing
// are demoted to unresolved references. Incoming cross-file edges survive
// the replacement when their target's id is stable; when the target
// vanished they are re-queued as unresolved references on their source.
// A crash mid-operation leaves the prior consistent state.
func (s *Store) UpsertFileSymbols(file *graph.FileRecord, nodes []graph.Node, edges []graph.Edge, unresolved []graph.UnresolvedRef) error {
	return s.UpsertFileBatch([]FileBatch{{File: file, Nodes: nodes, Edges: edges, Unresolved: unresolved}})
}

// UpsertFileBatch writes several files' contributions in a single
// transaction, with the same per-file replacement semantics as
// UpsertFileSymbols. Either every file in the batch commits or none do.
func (s *Store) UpsertFileBatch(batches []FileBatch) error {
	if len(batches) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range batches {
		if err := upsertFileTx(tx, b.File, b.Nodes, b.Edges, b.Unresolved); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func upsertFileTx(tx *sql.Tx, file *graph.FileRecord, nodes []graph.Node, edges []graph.Edge, unresolved []graph.UnresolvedRef) error {
	incoming, err := incomingCrossFileEdges(tx, file.Path)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM nodes WHERE file_path = ?", file.Path); err != nil {
		return fmt.Errorf("deleting old nodes for %s: %w", file.Path, err)
	}

	inserted := make(map[string]bool, len(nodes))
	for i := range nodes {
		if err := insertNode(tx, &nodes[i]); err != nil {
			return fmt.Errorf("inserting node %s: %w", nodes[i].QualifiedName, err)
		}
		inserted[nodes[i].ID] = true
	}

	for i := range edges {
		e := &edges[i]
		if !inserted[e.Source] && !nodeExists(tx, e.Source) {
			continue
		}
		if inserted[e.Target] || nodeExists(tx, e.Target) {
			if err := insertEdge(tx, e); err != nil {
				return fmt.Errorf("inserting edge %s->%s: %w", e.Source, e.Target, err)
			}
			continue
		}
		// Target not in the graph yet: keep the fact as an unresolved
		// reference so a later resolution pass can bind it.
		unresolved = append(unresolved, graph.UnresolvedRef{
			FromNodeID:    e.Source,
			ReferenceName: e.Target,
			ReferenceKind: e.Kind,
			Line:          e.Line,
			Column:        e.Column,
		})
	}

	for i := range unresolved {
		u := &unresolved[i]
		if !inserted[u.FromNodeID] && !nodeExists(tx, u.FromNodeID) {
			continue
		}
		if err := insertUnresolved(tx, u); err != nil {
			return fmt.Errorf("inserting unresolved ref %s: %w", u.ReferenceName, err)
		}
	}

	for i := range incoming {
		in := &incoming[i]
		if inserted[in.edge.Target] {
			if err := insertEdge(tx, &in.edge); err != nil {
				return fmt.Errorf("restoring edge %s->%s: %w", in.edge.Source, in.edge.Target, err)
			}
			continue
		}
		if err := insertUnresolved(tx, &graph.UnresolvedRef{
			FromNodeID:    in.edge.Source,
			ReferenceName: in.targetName,
			ReferenceKind: in.edge.Kind,
			Line:          in.edge.Line,
			Column:        in.edge.Column,
		}); err != nil {
			return fmt.Errorf("re-queueing reference %s: %w", in.targetName, err)
		}
	}

	if err := upsertFileRecord(tx, file); err != nil {
		return fmt.Errorf("upserting file record %s: %w", file.Path, err)
	}

	return nil
}

type incomingEdge struct {
	edge       graph.Edge
	targetName string
}

// incomingCrossFileEdges collects edges from other files into path's
// nodes, before a replacement cascades them away.
func incomingCrossFileEdges(tx *sql.Tx, path string) ([]incomingEdge, error) {
	rows, err := tx.Query(`
		SELECT e.source, e.target, e.kind, e.metadata, e.line, e.col, n.name
		FROM edges e
		JOIN nodes n ON n.id = e.target
		JOIN nodes src ON src.id = e.source
		WHERE n.file_path = ? AND src.file_path != ?`, path, path)
	if err != nil {
		return nil, fmt.Errorf("finding incoming edges for %s: %w", path, err)
	}
	defer rows.Close()

	var incoming []incomingEdge
	for rows.Next() {
		var in incomingEdge
		var metadata sql.NullString
		var line, col sql.NullInt64
		if err := rows.Scan(&in.edge.Source, &in.edge.Target, &in.edge.Kind, &metadata, &line, &col, &in.targetName); err != nil {
			return nil, fmt.Errorf("scanning incoming edge: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			json.Unmarshal([]byte(metadata.String), &in.edge.Metadata)
		}
		in.edge.Line = int(line.Int64)
		in.edge.Column = int(col.Int64)
		incoming = append(incoming, in)
	}
	return incoming, rows.Err()
}

// DeleteFile removes a file and everything it owns. Cross-file edges that
// pointed at the deleted symbols are re-queued as unresolved references on
// their surviving source nodes rather than silently dropped.
func (s *Store) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT e.source, n.name, e.kind, e.line, e.col
		FROM edges e
		JOIN nodes n ON n.id = e.target
		JOIN nodes src ON src.id = e.source
		WHERE n.file_path = ? AND src.file_path != ?`, path, path)
	if err != nil {
		return fmt.Errorf("finding incoming edges for %s: %w", path, err)
	}
	var requeued []graph.UnresolvedRef
	for rows.Next() {
		var u graph.UnresolvedRef
		var line, col sql.NullInt64
		if err := rows.Scan(&u.FromNodeID, &u.ReferenceName, &u.ReferenceKind, &line, &col); err != nil {
			rows.Close()
			return fmt.Errorf("scanning incoming edge: %w", err)
		}
		u.Line = int(line.Int64)
		u.Column = int(col.Int64)
		requeued = append(requeued, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if _, err := tx.Exec("DELETE FROM nodes WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("deleting nodes for %s: %w", path, err)
	}
	if _, err := tx.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("deleting file record %s: %w", path, err)
	}

	for i := range requeued {
		if err := insertUnresolved(tx, &requeued[i]); err != nil {
			return fmt.Errorf("re-queueing reference %s: %w", requeued[i].ReferenceName, err)
		}
	}

	return tx.Commit()
}

// GetFile returns the record for an indexed file, or nil if unknown.
func (s *Store) GetFile(path string) (*graph.FileRecord, error) {
	row := s.db.QueryRow(`
		SELECT path, content_hash, language, size, modified_at, indexed_at, node_count, errors
		FROM files WHERE path = ?`, path)
	rec, err := scanFileRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying file %s: %w", path, err)
	}
	return rec, nil
}

// ListFiles returns all tracked file records.
func (s *Store) ListFiles() ([]graph.FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT path, content_hash, language, size, modified_at, indexed_at, node_count, errors
		FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []graph.FileRecord
	for rows.Next() {
		rec, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file record: %w", err)
		}
		files = append(files, *rec)
	}
	return files, rows.Err()
}

// GetNode returns a node by id, or nil if it does not exist.
func (s *Store) GetNode(id string) (*graph.Node, error) {
	row := s.db.QueryRow(selectNodeSQL+" WHERE id = ?", id)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying node %s: %w", id, err)
	}
	return node, nil
}

// FindNodesByName returns nodes whose short or qualified name equals name.
func (s *Store) FindNodesByName(name string) ([]graph.Node, error) {
	rows, err := s.db.Query(selectNodeSQL+" WHERE name = ? OR qualified_name = ?", name, name)
	if err != nil {
		return nil, fmt.Errorf("finding nodes named %s: %w", name, err)
	}
	return collectNodes(rows)
}

// FindNodesLike returns nodes whose name or qualified name matches a SQL
// LIKE pattern.
func (s *Store) FindNodesLike(pattern string) ([]graph.Node, error) {
	rows, err := s.db.Query(selectNodeSQL+" WHERE name LIKE ? OR qualified_name LIKE ?", pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("finding nodes like %s: %w", pattern, err)
	}
	return collectNodes(rows)
}

// NodesForFile returns all nodes owned by a file, in source order.
func (s *Store) NodesForFile(path string) ([]graph.Node, error) {
	rows, err := s.db.Query(selectNodeSQL+" WHERE file_path = ? ORDER BY start_line, start_column", path)
	if err != nil {
		return nil, fmt.Errorf("querying nodes for %s: %w", path, err)
	}
	return collectNodes(rows)
}

// EdgesFrom returns edges whose source is id, optionally filtered by kind.
func (s *Store) EdgesFrom(id string, kind graph.EdgeKind, limit int) ([]graph.Edge, error) {
	return s.queryEdges("source", id, kind, limit)
}

// EdgesTo returns edges whose target is id, optionally filtered by kind.
func (s *Store) EdgesTo(id string, kind graph.EdgeKind, limit int) ([]graph.Edge, error) {
	return s.queryEdges("target", id, kind, limit)
}

func (s *Store) queryEdges(column, id string, kind graph.EdgeKind, limit int) ([]graph.Edge, error) {
	sqlStr := "SELECT source, target, kind, metadata, line, col FROM edges WHERE " + column + " = ?"
	args := []any{id}
	if kind != "" {
		sqlStr += " AND kind = ?"
		args = append(args, string(kind))
	}
	if limit > 0 {
		sqlStr += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges by %s: %w", column, err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var metadata sql.NullString
		var line, col sql.NullInt64
		if err := rows.Scan(&e.Source, &e.Target, &e.Kind, &metadata, &line, &col); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			json.Unmarshal([]byte(metadata.String), &e.Metadata)
		}
		e.Line = int(line.Int64)
		e.Column = int(col.Int64)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// SearchText runs a full-text query over node names, qualified names and
// docstrings. Multi-word queries are OR-combined so any term may match.
// Results come back ranked best-first; the score is the negated bm25 rank.
func (s *Store) SearchText(query string, kind graph.NodeKind, limit int) ([]graph.SearchResult, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, nil
	}
	for i, w := range words {
		words[i] = quoteFTSTerm(w)
	}
	ftsQuery := strings.Join(words, " OR ")

	sqlStr := `
		SELECT ` + nodeColumns("n") + `, fts.rank AS score
		FROM nodes n
		INNER JOIN nodes_fts fts ON n.rowid = fts.rowid
		WHERE nodes_fts MATCH ?`
	args := []any{ftsQuery}
	if kind != "" {
		sqlStr += " AND n.kind = ?"
		args = append(args, string(kind))
	}
	sqlStr += " ORDER BY score ASC, length(n.name) ASC LIMIT ?"
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()

	var results []graph.SearchResult
	for rows.Next() {
		node, rank, err := scanNodeWithScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		results = append(results, graph.SearchResult{Node: *node, Score: -rank})
	}
	return results, rows.Err()
}

// ListUnresolved returns unresolved references, oldest first.
func (s *Store) ListUnresolved(limit int) ([]graph.UnresolvedRef, error) {
	sqlStr := `
		SELECT id, from_node_id, reference_name, reference_kind, line, col, arity, candidates
		FROM unresolved_refs ORDER BY id`
	args := []any{}
	if limit > 0 {
		sqlStr += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing unresolved refs: %w", err)
	}
	defer rows.Close()

	var refs []graph.UnresolvedRef
	for rows.Next() {
		var u graph.UnresolvedRef
		var candidates sql.NullString
		if err := rows.Scan(&u.ID, &u.FromNodeID, &u.ReferenceName, &u.ReferenceKind, &u.Line, &u.Column, &u.Arity, &candidates); err != nil {
			return nil, fmt.Errorf("scanning unresolved ref: %w", err)
		}
		if candidates.Valid && candidates.String != "" {
			json.Unmarshal([]byte(candidates.String), &u.Candidates)
		}
		refs = append(refs, u)
	}
	return refs, rows.Err()
}

// CountUnresolved returns the number of retained unresolved references.
func (s *Store) CountUnresolved() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM unresolved_refs").Scan(&n)
	return n, err
}

// SetCandidates persists the ranked candidate list on an unresolved row.
func (s *Store) SetCandidates(refID int64, candidates []graph.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encoding candidates: %w", err)
	}
	_, err = s.db.Exec("UPDATE unresolved_refs SET candidates = ? WHERE id = ?", string(blob), refID)
	return err
}

// CommitResolutions inserts the resolved edges and deletes their unresolved
// rows in a single transaction. Re-running the pass afterwards is a no-op
// because the rows are gone.
func (s *Store) CommitResolutions(edges []graph.Edge, resolvedIDs []int64) error {
	if len(edges) == 0 && len(resolvedIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range edges {
		if err := insertEdge(tx, &edges[i]); err != nil {
			return fmt.Errorf("inserting resolved edge: %w", err)
		}
	}
	for _, id := range resolvedIDs {
		if _, err := tx.Exec("DELETE FROM unresolved_refs WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting unresolved ref %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// SetMetadata stores a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMetadata retrieves a value from the metadata table.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	return value, err
}

// Stats holds statistics about the indexed data.
type Stats struct {
	FileCount       int `json:"file_count"`
	NodeCount       int `json:"node_count"`
	EdgeCount       int `json:"edge_count"`
	UnresolvedCount int `json:"unresolved_count"`
	VectorCount     int `json:"vector_count"`
}

// GetStats returns statistics about the indexed data.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	rows := []struct {
		table string
		dest  *int
	}{
		{"files", &stats.FileCount},
		{"nodes", &stats.NodeCount},
		{"edges", &stats.EdgeCount},
		{"unresolved_refs", &stats.UnresolvedCount},
		{"vectors", &stats.VectorCount},
	}

	for _, r := range rows {
		err := s.db.QueryRow("SELECT COUNT(*) FROM " + r.table).Scan(r.dest)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", r.table, err)
		}
	}
	return stats, nil
}

const selectNodeSQL = `
	SELECT id, kind, name, qualified_name, file_path, language,
	       start_line, end_line, start_column, end_column,
	       docstring, signature, visibility,
	       is_exported, is_async, is_static, is_abstract,
	       decorators, type_parameters, updated_at
	FROM nodes`

func nodeColumns(alias string) string {
	cols := []string{
		"id", "kind", "name", "qualified_name", "file_path", "language",
		"start_line", "end_line", "start_column", "end_column",
		"docstring", "signature", "visibility",
		"is_exported", "is_async", "is_static", "is_abstract",
		"decorators", "type_parameters", "updated_at",
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// quoteFTSTerm wraps a term in double quotes so punctuation in identifiers
// (dots, underscores) is not parsed as FTS5 syntax.
func quoteFTSTerm(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, ``) + `"`
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func nodeExists(tx execer, id string) bool {
	var one int
	err := tx.QueryRow("SELECT 1 FROM nodes WHERE id = ?", id).Scan(&one)
	return err == nil
}

func insertNode(tx execer, n *graph.Node) error {
	decorators := marshalOrEmpty(n.Decorators)
	typeParams := marshalOrEmpty(n.TypeParams)
	_, err := tx.Exec(`
		INSERT INTO nodes (
			id, kind, name, qualified_name, file_path, language,
			start_line, end_line, start_column, end_column,
			docstring, signature, visibility,
			is_exported, is_async, is_static, is_abstract,
			decorators, type_parameters, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind), n.Name, n.QualifiedName, n.FilePath, n.Language,
		n.StartLine, n.EndLine, n.StartColumn, n.EndColumn,
		nullIfEmpty(n.Docstring), nullIfEmpty(n.Signature), nullIfEmpty(string(n.Visibility)),
		boolToInt(n.IsExported), boolToInt(n.IsAsync), boolToInt(n.IsStatic), boolToInt(n.IsAbstract),
		decorators, typeParams, n.UpdatedAt)
	return err
}

func insertEdge(tx execer, e *graph.Edge) error {
	var metadata any
	if len(e.Metadata) > 0 {
		blob, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encoding edge metadata: %w", err)
		}
		metadata = string(blob)
	}
	_, err := tx.Exec(`
		INSERT INTO edges (source, target, kind, metadata, line, col)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Source, e.Target, string(e.Kind), metadata, e.Line, e.Column)
	return err
}

func insertUnresolved(tx execer, u *graph.UnresolvedRef) error {
	var candidates any
	if len(u.Candidates) > 0 {
		blob, err := json.Marshal(u.Candidates)
		if err != nil {
			return fmt.Errorf("encoding candidates: %w", err)
		}
		candidates = string(blob)
	}
	_, err := tx.Exec(`
		INSERT INTO unresolved_refs (from_node_id, reference_name, reference_kind, line, col, arity, candidates)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.FromNodeID, u.ReferenceName, string(u.ReferenceKind), u.Line, u.Column, u.Arity, candidates)
	return err
}

func upsertFileRecord(tx execer, f *graph.FileRecord) error {
	_, err := tx.Exec(`
		INSERT INTO files (path, content_hash, language, size, modified_at, indexed_at, node_count, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			language = excluded.language,
			size = excluded.size,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at,
			node_count = excluded.node_count,
			errors = excluded.errors`,
		f.Path, f.ContentHash, f.Language, f.Size, f.ModifiedAt, f.IndexedAt, f.NodeCount, nullIfEmpty(f.Errors))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*graph.Node, error) {
	var n graph.Node
	var docstring, signature, visibility, decorators, typeParams sql.NullString
	var exported, async, static, abstract int
	err := row.Scan(
		&n.ID, &n.Kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.Language,
		&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
		&docstring, &signature, &visibility,
		&exported, &async, &static, &abstract,
		&decorators, &typeParams, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.Docstring = docstring.String
	n.Signature = signature.String
	n.Visibility = graph.Visibility(visibility.String)
	n.IsExported = exported != 0
	n.IsAsync = async != 0
	n.IsStatic = static != 0
	n.IsAbstract = abstract != 0
	if decorators.Valid && decorators.String != "" {
		json.Unmarshal([]byte(decorators.String), &n.Decorators)
	}
	if typeParams.Valid && typeParams.String != "" {
		json.Unmarshal([]byte(typeParams.String), &n.TypeParams)
	}
	return &n, nil
}

func scanNodeWithScore(row rowScanner) (*graph.Node, float64, error) {
	var n graph.Node
	var docstring, signature, visibility, decorators, typeParams sql.NullString
	var exported, async, static, abstract int
	var score float64
	err := row.Scan(
		&n.ID, &n.Kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.Language,
		&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
		&docstring, &signature, &visibility,
		&exported, &async, &static, &abstract,
		&decorators, &typeParams, &n.UpdatedAt, &score)
	if err != nil {
		return nil, 0, err
	}
	n.Docstring = docstring.String
	n.Signature = signature.String
	n.Visibility = graph.Visibility(visibility.String)
	n.IsExported = exported != 0
	n.IsAsync = async != 0
	n.IsStatic = static != 0
	n.IsAbstract = abstract != 0
	if decorators.Valid && decorators.String != "" {
		json.Unmarshal([]byte(decorators.String), &n.Decorators)
	}
	if typeParams.Valid && typeParams.String != "" {
		json.Unmarshal([]byte(typeParams.String), &n.TypeParams)
	}
	return &n, score, nil
}

func scanFileRecord(row rowScanner) (*graph.FileRecord, error) {
	var f graph.FileRecord
	var errors sql.NullString
	err := row.Scan(&f.Path, &f.ContentHash, &f.Language, &f.Size, &f.ModifiedAt, &f.IndexedAt, &f.NodeCount, &errors)
	if err != nil {
		return nil, err
	}
	f.Errors = errors.String
	return &f, nil
}

func collectNodes(rows *sql.Rows) ([]graph.Node, error) {
	defer rows.Close()
	var nodes []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

func marshalOrEmpty(vals []string) any {
	if len(vals) == 0 {
		return nil
	}
	blob, err := json.Marshal(vals)
	if err != nil {
		return nil
	}
	return string(blob)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
