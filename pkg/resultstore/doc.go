// Package resultstore archives test results in Postgres.
//
// Result files and event sinks answer "what happened in this run"; the store
// answers questions across runs: which operations diverge most often, whether
// an inconsistency is new or a repeat, how adapter latency drifts over time.
// Records land in one AutoMigrate'd table with the input, per-adapter
// payloads and timings as jsonb columns.
//
// The store is optional and off by default. When enabled it dials eagerly;
// a run that cannot archive results fails before any test executes.
package resultstore
