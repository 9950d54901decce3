package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/abramin/codegraph/internal/graph"
)

// StoreEmbedding writes a vector for (node, model), replacing any previous
// embedding for that pair.
func (s *Store) StoreEmbedding(nodeID string, embedding []float32, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO vectors (node_id, embedding, model, created_at)
		VALUES (?, ?, ?, ?)`,
		nodeID, encodeVector(embedding), model, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("storing embedding for %s: %w", nodeID, err)
	}
	return nil
}

// LoadEmbedding reads the vector for (node, model), or nil if absent.
func (s *Store) LoadEmbedding(nodeID, model string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRow(
		"SELECT embedding FROM vectors WHERE node_id = ? AND model = ?",
		nodeID, model).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading embedding for %s: %w", nodeID, err)
	}
	return decodeVector(blob), nil
}

// MissingEmbeddings returns nodes that have no stored vector for the model.
// File nodes are skipped; they carry no code of their own.
func (s *Store) MissingEmbeddings(model string, limit int) ([]graph.Node, error) {
	sqlStr := selectNodeSQL + `
		WHERE kind != 'file' AND id NOT IN (SELECT node_id FROM vectors WHERE model = ?)`
	args := []any{model}
	if limit > 0 {
		sqlStr += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("finding nodes without embeddings: %w", err)
	}
	return collectNodes(rows)
}

// SearchSimilar scans all stored vectors for the model, scores each against
// the query by cosine similarity, and returns the top results above the
// similarity floor, best first.
func (s *Store) SearchSimilar(query []float32, model string, limit int, minSimilarity float64) ([]graph.SearchResult, error) {
	rows, err := s.db.Query(`
		SELECT `+nodeColumns("n")+`, v.embedding
		FROM vectors v
		JOIN nodes n ON n.id = v.node_id
		WHERE v.model = ?`, model)
	if err != nil {
		return nil, fmt.Errorf("scanning vectors: %w", err)
	}
	defer rows.Close()

	var results []graph.SearchResult
	for rows.Next() {
		var n graph.Node
		var docstring, signature, visibility, decorators, typeParams sql.NullString
		var exported, async, static, abstract int
		var blob []byte
		err := rows.Scan(
			&n.ID, &n.Kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.Language,
			&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
			&docstring, &signature, &visibility,
			&exported, &async, &static, &abstract,
			&decorators, &typeParams, &n.UpdatedAt, &blob)
		if err != nil {
			return nil, fmt.Errorf("scanning vector row: %w", err)
		}
		n.Docstring = docstring.String
		n.Signature = signature.String
		n.Visibility = graph.Visibility(visibility.String)
		n.IsExported = exported != 0
		n.IsAsync = async != 0
		n.IsStatic = static != 0
		n.IsAbstract = abstract != 0

		sim := CosineSimilarity(query, decodeVector(blob))
		if sim < minSimilarity {
			continue
		}
		results = append(results, graph.SearchResult{Node: n, Score: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CosineSimilarity returns the cosine of the angle between two vectors, in
// [-1, 1]. Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
