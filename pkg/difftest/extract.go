package difftest

import (
	"fmt"
	"sort"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// ExtractResultIDs normalizes a heterogeneous search payload into the ordered
// list of point identifiers it carries. Shape detectors run in a fixed order
// and the first structural match wins, so {"data": []} yields an empty list
// without consulting later detectors. Unrecognized shapes yield nil, never an
// error; the function is pure and never mutates the payload.
//
// Map payload shapes, in match order:
//
//	{"data": [{"id": ...}, ...]}            list of id-carrying objects
//	{"ids": [...]}                          flat id list
//	{"result": <payload>}                   wrapper, re-processed one level
//	{"Get": {"Class": [{"_additional": {"id": ...}}]}}  name-keyed nested lists
//	{"points": [{"id": ...}, ...]}          list of id-carrying objects
//
// List payloads flatten a list-of-lists into scalars, pull "id" fields out of
// object elements, and stringify anything else.
func ExtractResultIDs(payload vectordb.Payload) []string {
	switch v := payload.(type) {
	case map[string]any:
		for _, detect := range mapShapeDetectors {
			if ids, ok := detect(v); ok {
				return dedupe(ids)
			}
		}
		return nil
	default:
		if list, ok := asList(payload); ok {
			return dedupe(extractFromList(list))
		}
		return nil
	}
}

type mapShapeDetector func(map[string]any) ([]string, bool)

var mapShapeDetectors []mapShapeDetector

// Populated in init rather than declared directly: detectWrapper recurses
// through ExtractResultIDs, which reads this slice, and a direct declaration
// would form an initialization cycle.
func init() {
	mapShapeDetectors = []mapShapeDetector{
		detectObjectList("data"),
		detectScalarIDList,
		detectWrapper,
		detectNamedNestedLists,
		detectObjectList("points"),
	}
}

// detectObjectList matches {key: [{"id": ...}, ...]} and collects the ids of
// the elements that carry one.
func detectObjectList(key string) mapShapeDetector {
	return func(m map[string]any) ([]string, bool) {
		raw, present := m[key]
		if !present {
			return nil, false
		}
		list, ok := asList(raw)
		if !ok {
			return nil, false
		}
		var ids []string
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				if id, ok := obj["id"]; ok {
					ids = append(ids, stringify(id))
				}
			}
		}
		return ids, true
	}
}

// detectScalarIDList matches {"ids": [...]} and stringifies every element.
func detectScalarIDList(m map[string]any) ([]string, bool) {
	raw, present := m["ids"]
	if !present {
		return nil, false
	}
	list, ok := asList(raw)
	if !ok {
		return nil, false
	}
	ids := make([]string, 0, len(list))
	for _, item := range list {
		ids = append(ids, stringify(item))
	}
	return ids, true
}

// detectWrapper matches {"result": <anything>} and re-processes the wrapped
// value, once per nesting level.
func detectWrapper(m map[string]any) ([]string, bool) {
	inner, present := m["result"]
	if !present {
		return nil, false
	}
	return ExtractResultIDs(inner), true
}

// detectNamedNestedLists matches the GraphQL-style shape where results hang
// off class names and each object hides its id under a secondary field:
// {"Get": {"Article": [{"_additional": {"id": ...}}, ...]}}. Class names are
// visited in sorted order so the output is deterministic.
func detectNamedNestedLists(m map[string]any) ([]string, bool) {
	raw, present := m["Get"]
	if !present {
		return nil, false
	}
	classes, ok := raw.(map[string]any)
	if !ok {
		return nil, true
	}
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	var ids []string
	for _, name := range names {
		list, ok := asList(classes[name])
		if !ok {
			continue
		}
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			additional, ok := obj["_additional"].(map[string]any)
			if !ok {
				continue
			}
			if id, ok := additional["id"]; ok {
				ids = append(ids, stringify(id))
			}
		}
	}
	return ids, true
}

// extractFromList handles bare list payloads: a list of lists flattens into
// scalars, object elements contribute their id field, scalars stringify.
func extractFromList(list []any) []string {
	if len(list) == 0 {
		return nil
	}
	if _, ok := asList(list[0]); ok {
		var ids []string
		for _, sub := range list {
			inner, ok := asList(sub)
			if !ok {
				continue
			}
			for _, item := range inner {
				ids = append(ids, stringify(item))
			}
		}
		return ids
	}
	ids := make([]string, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			if id, ok := obj["id"]; ok {
				ids = append(ids, stringify(id))
				continue
			}
		}
		ids = append(ids, stringify(item))
	}
	return ids
}

// asList widens the slice types adapters actually produce into []any.
func asList(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
