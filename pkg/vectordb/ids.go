package vectordb

import (
	"hash/fnv"
	"strconv"
)

// NumericID maps an external string id onto a numeric id. Numeric strings
// pass through unchanged; anything else hashes into [0, 1000000).
//
// Backends that restrict key types (Qdrant's numeric point ids, Milvus'
// int64 primary keys) cannot store the generator's string ids directly.
// Every adapter routes external ids through this one mapping, so the same
// input id lands on the same stored id in every backend and returned result
// ids stay comparable across them. The mapping is deterministic across runs
// and processes.
func NumericID(id string) uint64 {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64() % 1000000
}

// NumericIDString renders NumericID as the decimal string adapters return in
// result payloads.
func NumericIDString(id string) string {
	return strconv.FormatUint(NumericID(id), 10)
}
