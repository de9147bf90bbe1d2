// Package qdrant adapts a Qdrant backend to the vectordb.Adapter contract.
//
// The adapter speaks Qdrant's gRPC API through the official Go client.
// Connect dials and health-checks; SetupCollection provisions the configured
// test collection idempotently; Insert, Search, Delete and
// DescribeCollection translate fuzzed operations into point upserts, nearest
// neighbour queries, point deletions and collection introspection.
//
// Two Qdrant-specific translations matter for cross-backend comparison:
//
//   - Point ids are numeric. External string ids that do not parse as
//     integers hash into [0, 1000000), deterministically, so inserts and
//     deletes of the same external id meet the same point.
//
//   - The distance function is a collection property. The metric requested
//     per search cannot override the one the collection was created with;
//     backends honoring per-query metrics legitimately diverge from Qdrant
//     here.
//
// Responses stay in Qdrant's shape: inserts report status and insert_ids,
// searches a points list with id and score, deletions a status string.
package qdrant
