// Package pgvector adapts Postgres with the pgvector extension to the
// vectordb contract.
//
// Each collection is one table with a text primary key, a vector column and
// a JSONB metadata column. No approximate index is provisioned, so search
// results are exact and the metric argument selects the distance operator
// per query. External string ids hash into the shared numeric key space, so
// results stay comparable with other backends. Search returns a bare hit
// list rather than a wrapped document.
package pgvector
