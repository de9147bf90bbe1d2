package pgvector

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// externalID returns the supplied id for position i, falling back to the
// position itself when the batch carries fewer ids than vectors.
func externalID(ids []string, i int) string {
	if i < len(ids) {
		return ids[i]
	}
	return strconv.Itoa(i)
}

// tableIdent quotes a collection name for use as a SQL identifier.
func tableIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// vectorLiteral renders a vector in pgvector's input syntax. Non-finite
// components render as their float names and get rejected server side.
func vectorLiteral(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// operatorFor maps a metric onto the pgvector distance operator.
func operatorFor(metric vectordb.Metric) string {
	switch metric {
	case vectordb.MetricCosine:
		return "<=>"
	case vectordb.MetricIP:
		return "<#>"
	default:
		return "<->"
	}
}
