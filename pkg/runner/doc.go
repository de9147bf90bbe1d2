// Package runner drives a fuzzing campaign end to end: it provisions the
// configured adapters, draws tests from a generator, hands each one to the
// differential orchestrator, fans results out to the configured sinks and
// tears the adapters down when the campaign ends.
//
// Setup and Cleanup are best-effort. An adapter that fails to connect or
// provision its collection is logged and left behind; the remaining adapters
// still take part in the run. A campaign with a single healthy adapter still
// executes and records results, it just cannot detect divergence.
//
// A campaign is identified by a run id (a UUID unless the caller supplies
// one) and is reproducible from the generator seed together with the test
// count and edge-case ratio.
package runner
