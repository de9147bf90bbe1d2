// Package report turns a finished run into artifacts: a JSON file with every
// test's inputs and raw per-adapter payloads, and a plain-text report with
// consistency rates per adapter and per operation. Artifacts can optionally
// be shipped to an S3-compatible object store, keyed by run id.
package report
