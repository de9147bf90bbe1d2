// Package milvus adapts a Milvus standalone deployment to the vectordb
// contract over gRPC.
//
// Collections carry an int64 primary key, a float vector field and a JSON
// metadata field. External string ids hash into the numeric key space, so
// search results stay comparable with other backends. The similarity metric
// binds to the index at setup time and per-query overrides are ignored.
// Operation responses keep Milvus' own shape.
package milvus
