// Package redisearch adapts Redis with the search module to the vectordb
// contract.
//
// A collection is one search index over hash keys sharing the collection
// name as prefix. Vectors live as little-endian float32 byte strings in a
// flat index, metadata as a JSON text field. The distance function binds to
// the index at setup time. External string ids hash into the shared numeric
// key space, so results stay comparable with other backends. Hashes need no
// index to be written, so inserts into unknown collections succeed silently.
package redisearch
