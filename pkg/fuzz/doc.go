// Package fuzz generates the randomized inputs driving differential tests.
//
// A Generator draws (operation, input) pairs across the six-operation
// vocabulary (insert, search, delete, batch_insert, batch_search,
// mixed_operations) with fuzzing mutations applied to vectors, metadata and
// collection names: empty and wrong-dimension vectors, oversized dimensions,
// wide-range components, rare NaN/Infinity tails, special-character strings
// and a pool of syntactically invalid collection names. The mutation draws
// are independent, so hostile properties co-occur.
//
// Besides uniform fuzzing, the package ships eight named deterministic edge
// cases (see EdgeCases) targeting boundaries random draws rarely hit, such
// as a 10,000-dimension vector or a 1000-vector batch.
//
// Reproducibility:
//
// Generation is driven by a private random source seeded from Config.Seed.
// Re-running a campaign with the seed a previous run logged replays the
// identical test sequence:
//
//	gen := fuzz.NewGenerator(fuzz.DefaultConfig().WithSeed(42))
//	op, input := gen.GenerateTest()
//
// A Generator is not safe for concurrent use; the campaign runner owns one
// and drives it sequentially.
package fuzz
