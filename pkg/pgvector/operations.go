package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// SetupCollection installs the vector extension and provisions the backing
// table. No approximate index is built, so searches are exact scans. Safe to
// call repeatedly.
func (a *Adapter) SetupCollection(ctx context.Context) error {
	pool, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: create extension: %w", err)
	}

	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, embedding vector(%d), metadata JSONB)",
		tableIdent(a.cfg.Collection), a.cfg.Dimension)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("pgvector: create table %q: %w", a.cfg.Collection, err)
	}

	a.log.Info("provisioned table", nil, map[string]interface{}{
		"table":     a.cfg.Collection,
		"dimension": a.cfg.Dimension,
	})
	return nil
}

// Cleanup drops the backing table.
func (a *Adapter) Cleanup(ctx context.Context) error {
	pool, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tableIdent(a.cfg.Collection))); err != nil {
		return fmt.Errorf("pgvector: drop table %q: %w", a.cfg.Collection, err)
	}
	return nil
}

// Insert upserts one row per vector in a single batch round trip. External
// ids map onto the shared numeric key space before storage.
func (a *Adapter) Insert(ctx context.Context, collection string, vectors [][]float32, ids []string, metadata []map[string]any) (vectordb.Payload, error) {
	pool, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	stmt := fmt.Sprintf(
		"INSERT INTO %s (id, embedding, metadata) VALUES ($1, $2::vector, $3) "+
			"ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata",
		tableIdent(collection))

	batch := &pgx.Batch{}
	stored := make([]string, len(vectors))
	for i, vector := range vectors {
		stored[i] = vectordb.NumericIDString(externalID(ids, i))
		var meta map[string]any
		if i < len(metadata) {
			meta = metadata[i]
		}
		batch.Queue(stmt, stored[i], vectorLiteral(vector), meta)
	}

	results := pool.SendBatch(ctx, batch)
	var firstErr error
	for range vectors {
		if _, err := results.Exec(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := results.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return nil, fmt.Errorf("pgvector: insert into %q: %w", collection, firstErr)
	}

	return map[string]any{"ids": stored}, nil
}

// Search orders the table by distance to the query vector. The metric picks
// the pgvector operator, so unlike index-bound backends it applies per query.
// The payload is the bare hit list.
func (a *Adapter) Search(ctx context.Context, collection string, queryVector []float32, limit int, metric vectordb.Metric) (vectordb.Payload, error) {
	pool, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, embedding %s $1::vector AS distance FROM %s ORDER BY distance LIMIT $2",
		operatorFor(metric), tableIdent(collection))

	rows, err := pool.Query(ctx, query, vectorLiteral(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("pgvector: search %q: %w", collection, err)
	}
	defer rows.Close()

	hits := make([]any, 0, limit)
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, fmt.Errorf("pgvector: scan search row: %w", err)
		}
		hits = append(hits, map[string]any{"id": id, "distance": distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: search %q: %w", collection, err)
	}
	return hits, nil
}

// Delete removes rows by id and reports how many went away.
func (a *Adapter) Delete(ctx context.Context, collection string, ids []string) (vectordb.Payload, error) {
	pool, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = vectordb.NumericIDString(id)
	}

	tag, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", tableIdent(collection)), keys)
	if err != nil {
		return nil, fmt.Errorf("pgvector: delete from %q: %w", collection, err)
	}

	return map[string]any{
		"success": true,
		"deleted": tag.RowsAffected(),
	}, nil
}

// DescribeCollection reports the row count and the declared vector dimension.
func (a *Adapter) DescribeCollection(ctx context.Context, collection string) (vectordb.Payload, error) {
	pool, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	var rowCount int64
	if err := pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", tableIdent(collection))).Scan(&rowCount); err != nil {
		return nil, fmt.Errorf("pgvector: count rows in %q: %w", collection, err)
	}

	// For vector columns atttypmod holds the dimension directly.
	var dimension int
	if err := pool.QueryRow(ctx,
		"SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'",
		collection).Scan(&dimension); err != nil {
		return nil, fmt.Errorf("pgvector: read dimension of %q: %w", collection, err)
	}

	return map[string]any{
		"table_name": collection,
		"row_count":  rowCount,
		"dimension":  dimension,
	}, nil
}
