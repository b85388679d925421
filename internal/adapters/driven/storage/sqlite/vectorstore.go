package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// deleteBatchSize stays well under SQLite's bound parameter limit.
const deleteBatchSize = 500

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Get returns records matching the filter in insertion order.
func (s *vectorStore) Get(ctx context.Context, filter driven.MetadataFilter, limit int) (*driven.GetResult, error) {
	where, args := filterClause(filter)
	query := "SELECT id, content, metadata FROM records" + where + " ORDER BY seq"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	result := &driven.GetResult{}
	for rows.Next() {
		var id, content, metadataJSON string
		if err := rows.Scan(&id, &content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		meta, err := decodeMetadata(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		result.IDs = append(result.IDs, id)
		result.Documents = append(result.Documents, content)
		result.Metadatas = append(result.Metadatas, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return result, nil
}

// Add stores records in one transaction.
// The whole batch is rejected if any ID is empty or already exists.
func (s *vectorStore) Add(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidInput, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, content, embedding, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		metadataJSON, err := encodeMetadata(r.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		res, err := stmt.ExecContext(ctx, r.ID, r.Content, nullBytes(float32SliceToBytes(r.Embedding)), metadataJSON)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidInput, r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Delete removes records by ID. Unknown IDs are ignored.
func (s *vectorStore) Delete(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		query := "DELETE FROM records WHERE id IN (" + placeholders + ")"
		if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting records: %w", err)
		}
	}
	return nil
}

// SimilaritySearch returns the k records closest to the query vector.
func (s *vectorStore) SimilaritySearch(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, content, embedding, metadata FROM records WHERE embedding IS NOT NULL ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		id, content, metadata string
		embedding             []float32
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var blob []byte
		if err := rows.Scan(&c.id, &c.content, &blob, &c.metadata); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		c.embedding = bytesToFloat32Slice(blob)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.embedding
	}

	ranked := similarity.TopK(query, vectors, k)
	hits := make([]driven.VectorHit, 0, len(ranked))
	for _, sc := range ranked {
		c := candidates[sc.Index]
		meta, err := decodeMetadata(c.metadata)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", c.id, err)
		}
		hits = append(hits, driven.VectorHit{
			Record: driven.VectorRecord{
				ID:        c.id,
				Content:   c.content,
				Embedding: c.embedding,
				Metadata:  meta,
			},
			Similarity: sc.Score,
		})
	}
	return hits, nil
}

// Close is a no-op; the parent Store owns the connection.
func (s *vectorStore) Close() error {
	return nil
}

// filterClause builds a WHERE clause matching every filter entry by JSON path.
// Keys are sorted so identical filters produce identical SQL.
func filterClause(filter driven.MetadataFilter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		conds = append(conds, "json_extract(metadata, ?) = ?")
		args = append(args, jsonPath(k), filterValue(filter[k]))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// jsonPath quotes the key so dots and spaces are not treated as path syntax.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

// filterValue maps Go values onto what json_extract returns for them.
func filterValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}

func encodeMetadata(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

// decodeMetadata restores integers as int so values compare equal to
// what the indexer stored.
func decodeMetadata(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var meta map[string]any
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	for k, v := range meta {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			meta[k] = int(i)
		} else if f, err := n.Float64(); err == nil {
			meta[k] = f
		}
	}
	return meta, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// nullBytes keeps empty blobs as SQL NULL.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return b
}
