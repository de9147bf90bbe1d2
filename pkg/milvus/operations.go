package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

const (
	idField       = "id"
	vectorField   = "vector"
	metadataField = "metadata"
)

// SetupCollection creates the configured collection if it does not exist,
// builds a flat index over the vector field and loads the collection into
// memory. Safe to call repeatedly.
func (a *Adapter) SetupCollection(ctx context.Context) error {
	api, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	name := a.cfg.Collection
	exists, err := api.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("milvus: check collection %q: %w", name, err)
	}
	if exists {
		a.log.Debug("collection already exists", nil, map[string]interface{}{"collection": name})
		return nil
	}

	schema := entity.NewSchema().
		WithName(name).
		WithField(entity.NewField().
			WithName(idField).
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(vectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(a.cfg.Dimension))).
		WithField(entity.NewField().
			WithName(metadataField).
			WithDataType(entity.FieldTypeJSON))

	if err := api.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
		return fmt.Errorf("milvus: create collection %q: %w", name, err)
	}

	indexTask, err := api.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, vectorField, index.NewFlatIndex(metricFor(a.cfg.Metric))))
	if err != nil {
		return fmt.Errorf("milvus: create index on %q: %w", name, err)
	}
	if err := indexTask.Await(ctx); err != nil {
		return fmt.Errorf("milvus: await index on %q: %w", name, err)
	}

	loadTask, err := api.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("milvus: load collection %q: %w", name, err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("milvus: await load of %q: %w", name, err)
	}

	a.log.Info("created collection", nil, map[string]interface{}{
		"collection": name,
		"dimension":  a.cfg.Dimension,
		"metric":     string(a.cfg.Metric),
	})
	return nil
}

// Cleanup drops the configured collection.
func (a *Adapter) Cleanup(ctx context.Context) error {
	api, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	if err := api.DropCollection(ctx, milvusclient.NewDropCollectionOption(a.cfg.Collection)); err != nil {
		return fmt.Errorf("milvus: drop collection %q: %w", a.cfg.Collection, err)
	}
	return nil
}

// Insert writes the vectors column-wise. External string ids map onto int64
// primary keys; metadata rows serialize into the JSON field, empty objects
// standing in for missing entries.
func (a *Adapter) Insert(ctx context.Context, collection string, vectors [][]float32, ids []string, metadata []map[string]any) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	keys := primaryKeys(ids, len(vectors))
	meta, err := metadataJSON(metadata, len(vectors))
	if err != nil {
		return nil, err
	}

	dim := a.cfg.Dimension
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	result, err := api.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection,
		column.NewColumnInt64(idField, keys),
		column.NewColumnFloatVector(vectorField, dim, vectors),
		column.NewColumnJSONBytes(metadataField, meta),
	))
	if err != nil {
		return nil, fmt.Errorf("milvus: insert into %q: %w", collection, err)
	}

	insertIDs := make([]string, len(keys))
	for i, key := range keys {
		insertIDs[i] = strconv.FormatInt(key, 10)
	}
	return map[string]any{
		"insert_count": result.InsertCount,
		"ids":          insertIDs,
	}, nil
}

// Search runs a nearest-neighbour query over the vector field. The metric is
// bound to the index at setup time; Milvus rejects per-query overrides, so
// the argument is not forwarded.
func (a *Adapter) Search(ctx context.Context, collection string, queryVector []float32, limit int, _ vectordb.Metric) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	results, err := api.Search(ctx, milvusclient.NewSearchOption(collection, limit, []entity.Vector{entity.FloatVector(queryVector)}).
		WithANNSField(vectorField).
		WithOutputFields(idField))
	if err != nil {
		return nil, fmt.Errorf("milvus: search %q: %w", collection, err)
	}

	data := make([]any, 0, limit)
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hit := map[string]any{}
			if id, err := result.IDs.Get(i); err == nil {
				hit["id"] = fmt.Sprintf("%v", id)
			}
			if i < len(result.Scores) {
				hit["distance"] = result.Scores[i]
			}
			data = append(data, hit)
		}
	}
	return map[string]any{"data": data}, nil
}

// Delete removes rows by primary key. Milvus accepts deletes of unknown keys
// and reports the count it acted on.
func (a *Adapter) Delete(ctx context.Context, collection string, ids []string) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	keys := primaryKeys(ids, len(ids))
	result, err := api.Delete(ctx, milvusclient.NewDeleteOption(collection).WithInt64IDs(idField, keys))
	if err != nil {
		return nil, fmt.Errorf("milvus: delete from %q: %w", collection, err)
	}

	return map[string]any{
		"status":       "ok",
		"delete_count": result.DeleteCount,
	}, nil
}

// DescribeCollection reports the schema and load state.
func (a *Adapter) DescribeCollection(ctx context.Context, collection string) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	info, err := api.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(collection))
	if err != nil {
		return nil, fmt.Errorf("milvus: describe collection %q: %w", collection, err)
	}

	fields := make([]any, 0, len(info.Schema.Fields))
	for _, field := range info.Schema.Fields {
		fields = append(fields, map[string]any{
			"name":        field.Name,
			"type":        field.DataType.Name(),
			"primary_key": field.PrimaryKey,
		})
	}
	return map[string]any{
		"collection_name": info.Name,
		"loaded":          info.Loaded,
		"dimension":       dimensionOf(info.Schema),
		"fields":          fields,
	}, nil
}
