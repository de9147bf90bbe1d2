package qdrant

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// SetupCollection creates the configured collection if it does not exist.
// Safe to call repeatedly.
func (a *Adapter) SetupCollection(ctx context.Context) error {
	api, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	name := a.cfg.Collection
	collections, err := api.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("qdrant: list collections: %w", err)
	}
	if slices.Contains(collections, name) {
		a.log.Debug("collection already exists", nil, map[string]interface{}{"collection": name})
		return nil
	}

	err = api.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(a.cfg.Dimension),
			Distance: distanceFor(a.cfg.Distance),
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %q: %w", name, err)
	}

	a.log.Info("created collection", nil, map[string]interface{}{
		"collection": name,
		"dimension":  a.cfg.Dimension,
		"distance":   string(a.cfg.Distance),
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

	if err := api.DeleteCollection(ctx, a.cfg.Collection); err != nil {
		return fmt.Errorf("qdrant: drop collection %q: %w", a.cfg.Collection, err)
	}
	return nil
}

// Insert upserts the vectors as points and waits for persistence. External
// string ids map onto numeric point ids; the returned insert_ids list the
// numeric ids actually written.
func (a *Adapter) Insert(ctx context.Context, collection string, vectors [][]float32, ids []string, metadata []map[string]any) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	points := make([]*qdrant.PointStruct, len(vectors))
	pointIDs := make([]string, len(vectors))
	for i, vector := range vectors {
		num := vectordb.NumericID(externalID(ids, i))
		pointIDs[i] = strconv.FormatUint(num, 10)

		point := &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(num),
			Vectors: qdrant.NewVectors(vector...),
		}
		if i < len(metadata) && len(metadata[i]) > 0 {
			point.Payload = qdrant.NewValueMap(normalizeMeta(metadata[i]))
		}
		points[i] = point
	}

	wait := true
	resp, err := api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: upsert into %q: %w", collection, err)
	}

	return map[string]any{
		"status":     resp.GetStatus().String(),
		"insert_ids": pointIDs,
	}, nil
}

// Search runs a nearest-neighbour query. Qdrant binds the distance function
// to the collection at creation time, so the metric argument cannot change
// it per query; backends that honor per-query metrics will diverge here.
func (a *Adapter) Search(ctx context.Context, collection string, queryVector []float32, limit int, _ vectordb.Metric) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	lim := uint64(limit)
	resp, err := api.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search %q: %w", collection, err)
	}

	points := make([]any, 0, len(resp))
	for _, hit := range resp {
		id, err := pointIDString(hit.GetId())
		if err != nil {
			return nil, err
		}
		points = append(points, map[string]any{
			"id":    id,
			"score": hit.GetScore(),
		})
	}
	return map[string]any{"points": points}, nil
}

// Delete removes points by id and waits for completion. Unknown ids are
// accepted by Qdrant without complaint.
func (a *Adapter) Delete(ctx context.Context, collection string, ids []string) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	qdrantIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		qdrantIDs[i] = qdrant.NewIDNum(vectordb.NumericID(id))
	}

	wait := true
	resp, err := api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: qdrantIDs},
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: delete from %q: %w", collection, err)
	}

	return map[string]any{"status": resp.GetStatus().String()}, nil
}

// DescribeCollection reports status, point counts and vector schema.
func (a *Adapter) DescribeCollection(ctx context.Context, collection string) (vectordb.Payload, error) {
	api, err := a.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	info, err := api.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("qdrant: describe collection %q: %w", collection, err)
	}

	size, distance := extractVectorDetails(info)
	return map[string]any{
		"status":                info.GetStatus().String(),
		"points_count":          derefUint64(info.PointsCount),
		"indexed_vectors_count": derefUint64(info.IndexedVectorsCount),
		"vector_size":           size,
		"distance":              distance,
	}, nil
}
