package difftest

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// CompareFunc inspects the successful per-adapter results of one test and
// returns human-readable inconsistency descriptions. Comparators are advisory:
// they emit findings, never errors, and must not mutate the results.
type CompareFunc func(successes []DatabaseResult) []string

// overlapThreshold is the agreement floor for approximate search results, in
// percent. Result sets overlapping below it count as divergent.
const overlapThreshold = 50.0

func defaultComparators() map[Operation]CompareFunc {
	return map[Operation]CompareFunc{
		OpInsert:      compareInsertCounts,
		OpBatchInsert: compareInsertCounts,
		OpSearch:      compareSearchOverlap,
		OpBatchSearch: compareBatchSearchOverlap,
		OpDelete:      compareDeleteStatus,
		OpMixed:       compareMixedCompletion,
	}
}

// compareResults applies the cross-cutting divergence rules, then dispatches
// to the operation's comparator. With fewer than two successful adapters
// there is nothing to compare.
func compareResults(comparators map[Operation]CompareFunc, op Operation, results []DatabaseResult) []string {
	var successes, failures []DatabaseResult
	for _, r := range results {
		if r.Success {
			successes = append(successes, r)
		} else {
			failures = append(failures, r)
		}
	}

	var inconsistencies []string
	if len(successes) > 0 && len(failures) > 0 {
		inconsistencies = append(inconsistencies, fmt.Sprintf(
			"some adapters succeeded while others failed: success=%v failed=%v",
			adapterNames(successes), adapterNames(failures)))
	}
	if len(successes) < 2 {
		return inconsistencies
	}

	compare, ok := comparators[op]
	if !ok {
		compare = compareSuccessFlags
	}
	return append(inconsistencies, compare(successes)...)
}

// compareInsertCounts flags adapters that accepted a different number of
// vectors. The accepted count is derived per adapter: an explicit
// insert_count field wins, else the length of a returned id list
// (insert_ids or ids), else a default of one accepted write.
func compareInsertCounts(successes []DatabaseResult) []string {
	counts := make(map[string]int, len(successes))
	for _, r := range successes {
		counts[r.Adapter] = insertedCount(r.Data)
	}
	if distinct(counts) > 1 {
		return []string{fmt.Sprintf("insert count mismatch: %v", counts)}
	}
	return nil
}

func insertedCount(data vectordb.Payload) int {
	m, ok := data.(map[string]any)
	if !ok {
		return 1
	}
	if n, ok := asCount(m["insert_count"]); ok {
		return n
	}
	for _, key := range []string{"insert_ids", "ids"} {
		if list, ok := asList(m[key]); ok {
			return len(list)
		}
	}
	return 1
}

func asCount(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// compareSearchOverlap extracts the id set of every adapter's hits and
// measures each against the first successful adapter. A pair whose overlap
// falls below the threshold while both sets are non-empty is flagged; two
// empty sets never are.
func compareSearchOverlap(successes []DatabaseResult) []string {
	ref := successes[0]
	refIDs := ExtractResultIDs(ref.Data)

	var inconsistencies []string
	for _, other := range successes[1:] {
		otherIDs := ExtractResultIDs(other.Data)
		overlap := overlapPercent(refIDs, otherIDs)
		if overlap < overlapThreshold && len(refIDs) > 0 && len(otherIDs) > 0 {
			inconsistencies = append(inconsistencies, fmt.Sprintf(
				"search results differ significantly between %s and %s: overlap %.1f%%",
				ref.Adapter, other.Adapter, overlap))
		}
	}
	return inconsistencies
}

// compareBatchSearchOverlap applies the search overlap rule per query index.
// The reference adapter's result list bounds the index range; an index beyond
// another adapter's list counts as an empty result for that adapter.
func compareBatchSearchOverlap(successes []DatabaseResult) []string {
	ref := successes[0]
	refList, ok := asList(ref.Data)
	if !ok {
		return nil
	}

	var inconsistencies []string
	for idx := 0; idx < len(refList); idx++ {
		refIDs := ExtractResultIDs(refList[idx])
		for _, other := range successes[1:] {
			var otherIDs []string
			if otherList, ok := asList(other.Data); ok && idx < len(otherList) {
				otherIDs = ExtractResultIDs(otherList[idx])
			}
			overlap := overlapPercent(refIDs, otherIDs)
			if overlap < overlapThreshold && len(refIDs) > 0 && len(otherIDs) > 0 {
				inconsistencies = append(inconsistencies, fmt.Sprintf(
					"batch search results differ at query %d between %s and %s: overlap %.1f%%",
					idx, ref.Adapter, other.Adapter, overlap))
			}
		}
	}
	return inconsistencies
}

// compareDeleteStatus derives a per-adapter boolean from the delete payload
// and flags disagreement. A status field is truthy for the case-insensitive
// values success, ok and completed; otherwise an explicit success boolean
// decides; a payload carrying neither counts as accepted.
func compareDeleteStatus(successes []DatabaseResult) []string {
	statuses := make(map[string]bool, len(successes))
	for _, r := range successes {
		statuses[r.Adapter] = deleteAccepted(r.Data)
	}
	if distinct(statuses) > 1 {
		return []string{fmt.Sprintf("delete status mismatch: %v", statuses)}
	}
	return nil
}

func deleteAccepted(data vectordb.Payload) bool {
	m, ok := data.(map[string]any)
	if !ok {
		return true
	}
	if status, ok := m["status"].(string); ok {
		switch strings.ToLower(status) {
		case "success", "ok", "completed":
			return true
		default:
			return false
		}
	}
	if accepted, ok := m["success"].(bool); ok {
		return accepted
	}
	return true
}

// compareMixedCompletion flags adapters that completed a different number of
// sub-operations. A non-list payload counts as zero completed steps.
func compareMixedCompletion(successes []DatabaseResult) []string {
	counts := make(map[string]int, len(successes))
	for _, r := range successes {
		if list, ok := asList(r.Data); ok {
			counts[r.Adapter] = len(list)
		} else {
			counts[r.Adapter] = 0
		}
	}
	if distinct(counts) > 1 {
		return []string{fmt.Sprintf("mixed operations completed count mismatch: %v", counts)}
	}
	return nil
}

// compareSuccessFlags is the fallback for operations without a dedicated
// comparator: it only checks that the adapters agree on success.
func compareSuccessFlags(results []DatabaseResult) []string {
	flags := make(map[string]bool, len(results))
	for _, r := range results {
		flags[r.Adapter] = r.Success
	}
	if distinct(flags) > 1 {
		return []string{fmt.Sprintf("operation success status mismatch: %v", flags)}
	}
	return nil
}

func overlapPercent(a, b []string) float64 {
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom == 0 {
		return 100
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	shared := 0
	for _, id := range b {
		if _, ok := set[id]; ok {
			shared++
		}
	}
	return float64(shared) / float64(denom) * 100
}

func adapterNames(results []DatabaseResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Adapter
	}
	return names
}

func distinct[T comparable](m map[string]T) int {
	values := make(map[T]struct{}, len(m))
	for _, v := range m {
		values[v] = struct{}{}
	}
	return len(values)
}
