package redisearch

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

const (
	vectorField   = "vector"
	metadataField = "metadata"
)

// externalID returns the supplied id for position i, falling back to the
// position itself when the batch carries fewer ids than vectors.
func externalID(ids []string, i int) string {
	if i < len(ids) {
		return ids[i]
	}
	return strconv.Itoa(i)
}

// keyPrefix namespaces document keys per collection.
func keyPrefix(collection string) string {
	return collection + ":"
}

// documentID strips the collection prefix off a document key.
func documentID(collection, key string) string {
	return strings.TrimPrefix(key, keyPrefix(collection))
}

// vectorBlob encodes a vector as the little-endian float32 byte string the
// search module expects.
func vectorBlob(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// metricName maps a metric onto the index distance function name.
func metricName(metric vectordb.Metric) string {
	switch metric {
	case vectordb.MetricCosine:
		return "COSINE"
	case vectordb.MetricIP:
		return "IP"
	default:
		return "L2"
	}
}
