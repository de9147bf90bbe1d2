// Package vectordb defines the capability contract shared by every vector
// database backend under test.
//
// The differential testing core never talks to a concrete database; it talks
// to Adapter. An adapter owns one backend session, one configured test
// collection, and translates the six fuzzed operations (insert, search,
// delete, plus their batch and mixed forms built on top of them) into its
// backend's SDK calls.
//
// Two properties of the contract carry the whole design:
//
//   - Raw payloads. Adapter methods return Payload, an alias for any, holding
//     the response in the backend's natural shape (a Qdrant answer keeps its
//     "points" list, a Milvus answer its "insert_count"). Differential
//     comparison needs this heterogeneity; normalizing here would hide the
//     divergences the system exists to find.
//
//   - Contained failure. Every method returns an error instead of panicking,
//     and Connect is the only place a backend being down is discovered. The
//     orchestrator records failures per backend and keeps the remaining
//     backends comparable.
//
// Implementations in this module: qdrant, milvus, pgvector and redisearch,
// each in its own package with its own Config. mock_adapter.go carries a
// generated gomock double for tests that need scripted backends.
package vectordb
