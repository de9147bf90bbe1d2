package redisearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// SetupCollection creates the search index over hash keys carrying the
// collection prefix. Safe to call repeatedly.
func (a *Adapter) SetupCollection(ctx context.Context) error {
	api, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	name := a.cfg.Collection
	if err := api.FTInfo(ctx, name).Err(); err == nil {
		a.log.Debug("index already exists", nil, map[string]interface{}{"index": name})
		return nil
	}

	err = api.FTCreate(ctx, name,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{keyPrefix(name)},
		},
		&redis.FieldSchema{
			FieldName: vectorField,
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				FlatOptions: &redis.FTFlatOptions{
					Type:           "FLOAT32",
					Dim:            a.cfg.Dimension,
					DistanceMetric: metricName(a.cfg.Metric),
				},
			},
		},
		&redis.FieldSchema{
			FieldName: metadataField,
			FieldType: redis.SearchFieldTypeText,
		},
	).Err()
	if err != nil {
		return fmt.Errorf("redisearch: create index %q: %w", name, err)
	}

	a.log.Info("created index", nil, map[string]interface{}{
		"index":     name,
		"dimension": a.cfg.Dimension,
		"metric":    metricName(a.cfg.Metric),
	})
	return nil
}

// Cleanup drops the index together with the documents it covers.
func (a *Adapter) Cleanup(ctx context.Context) error {
	api, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	if err := api.FTDropIndexWithArgs(ctx, a.cfg.Collection, &redis.FTDropIndexOptions{DeleteDocs: true}).Err(); err != nil {
		return fmt.Errorf("redisearch: drop index %q: %w", a.cfg.Collection, err)
	}
	return nil
}

// Insert writes one hash per vector under the collection prefix. Redis needs
// no index to accept hashes, so inserts into unknown collections succeed and
// only become visible once an index covers the prefix.
func (a *Adapter) Insert(ctx context.Context, collection string, vectors [][]float32, ids []string, metadata []map[string]any) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	stored := make([]string, len(vectors))
	for i, vector := range vectors {
		stored[i] = vectordb.NumericIDString(externalID(ids, i))

		meta := "{}"
		if i < len(metadata) && metadata[i] != nil {
			doc, err := json.Marshal(metadata[i])
			if err != nil {
				return nil, fmt.Errorf("redisearch: marshal metadata row %d: %w", i, err)
			}
			meta = string(doc)
		}

		key := keyPrefix(collection) + stored[i]
		if err := api.HSet(ctx, key, vectorField, vectorBlob(vector), metadataField, meta).Err(); err != nil {
			return nil, fmt.Errorf("redisearch: insert %q: %w", key, err)
		}
	}

	return map[string]any{"ids": stored}, nil
}

// Search runs a KNN query against the index. The distance function is baked
// into the index at setup time, so the metric argument is not forwarded.
func (a *Adapter) Search(ctx context.Context, collection string, queryVector []float32, limit int, _ vectordb.Metric) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	query := fmt.Sprintf("*=>[KNN %d @%s $vec AS dist]", limit, vectorField)
	result, err := api.FTSearchWithArgs(ctx, collection, query, &redis.FTSearchOptions{
		NoContent:      true,
		SortBy:         []redis.FTSearchSortBy{{FieldName: "dist", Asc: true}},
		LimitOffset:    0,
		Limit:          limit,
		Params:         map[string]interface{}{"vec": vectorBlob(queryVector)},
		DialectVersion: 2,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redisearch: search %q: %w", collection, err)
	}

	hitIDs := make([]any, 0, len(result.Docs))
	for _, doc := range result.Docs {
		hitIDs = append(hitIDs, documentID(collection, doc.ID))
	}
	return map[string]any{
		"total": result.Total,
		"ids":   hitIDs,
	}, nil
}

// Delete removes the hashes behind the given ids and reports how many keys
// existed.
func (a *Adapter) Delete(ctx context.Context, collection string, ids []string) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix(collection) + vectordb.NumericIDString(id)
	}

	deleted := int64(0)
	if len(keys) > 0 {
		deleted, err = api.Del(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("redisearch: delete from %q: %w", collection, err)
		}
	}

	return map[string]any{
		"success": true,
		"deleted": deleted,
	}, nil
}

// DescribeCollection reports the index shape and document count.
func (a *Adapter) DescribeCollection(ctx context.Context, collection string) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	info, err := api.FTInfo(ctx, collection).Result()
	if err != nil {
		return nil, fmt.Errorf("redisearch: describe index %q: %w", collection, err)
	}

	attributes := make([]any, 0, len(info.Attributes))
	for _, attr := range info.Attributes {
		attributes = append(attributes, map[string]any{
			"name": attr.Attribute,
			"type": attr.Type,
		})
	}
	return map[string]any{
		"index_name": info.IndexName,
		"num_docs":   info.NumDocs,
		"attributes": attributes,
	}, nil
}
