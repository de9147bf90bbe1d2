package difftest

import (
	"testing"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestExtractResultIDs_MapShapes(t *testing.T) {
	cases := map[string]struct {
		payload vectordb.Payload
		want    []string
	}{
		"points objects": {
			map[string]any{"points": []any{map[string]any{"id": int64(1)}, map[string]any{"id": int64(2)}}},
			[]string{"1", "2"},
		},
		"data objects": {
			map[string]any{"data": []any{map[string]any{"id": "a", "distance": 0.1}, map[string]any{"id": "b"}}},
			[]string{"a", "b"},
		},
		"objects without id skipped": {
			map[string]any{"points": []any{map[string]any{"id": "a"}, map[string]any{"payload": "no id"}}},
			[]string{"a"},
		},
		"scalar id list": {
			map[string]any{"ids": []string{"x", "y"}},
			[]string{"x", "y"},
		},
		"numeric id list": {
			map[string]any{"ids": []int64{1, 2, 3}},
			[]string{"1", "2", "3"},
		},
		"result wrapper": {
			map[string]any{"result": map[string]any{"ids": []any{"a"}}},
			[]string{"a"},
		},
		"nested wrappers": {
			map[string]any{"result": map[string]any{"result": map[string]any{"points": []any{map[string]any{"id": "p"}}}}},
			[]string{"p"},
		},
		"unknown shape": {
			map[string]any{"count": 3},
			nil,
		},
	}
	for name, tc := range cases {
		if got := ExtractResultIDs(tc.payload); !equalIDs(got, tc.want) {
			t.Errorf("%s: ExtractResultIDs = %v, want %v", name, got, tc.want)
		}
	}
}

func TestExtractResultIDs_FirstDetectorWins(t *testing.T) {
	payload := map[string]any{
		"data": []any{},
		"ids":  []any{"z"},
	}
	if got := ExtractResultIDs(payload); len(got) != 0 {
		t.Errorf("empty data list should win over ids, got %v", got)
	}
}

func TestExtractResultIDs_NamedNestedLists(t *testing.T) {
	payload := map[string]any{
		"Get": map[string]any{
			"Zebra": []any{
				map[string]any{"_additional": map[string]any{"id": "z1"}},
			},
			"Apple": []any{
				map[string]any{"_additional": map[string]any{"id": "a1"}},
				map[string]any{"_additional": map[string]any{"id": "a2"}},
				map[string]any{"title": "no additional block"},
			},
		},
	}

	got := ExtractResultIDs(payload)
	want := []string{"a1", "a2", "z1"}
	if !equalIDs(got, want) {
		t.Errorf("ExtractResultIDs = %v, want %v (class names in sorted order)", got, want)
	}

	if got := ExtractResultIDs(map[string]any{"Get": "nothing"}); got != nil {
		t.Errorf("non-map Get should yield nil, got %v", got)
	}
}

func TestExtractResultIDs_ListShapes(t *testing.T) {
	cases := map[string]struct {
		payload vectordb.Payload
		want    []string
	}{
		"object list":    {[]map[string]any{{"id": "a"}, {"id": "b"}}, []string{"a", "b"}},
		"scalar list":    {[]any{"a", int64(2), 3.0}, []string{"a", "2", "3"}},
		"string list":    {[]string{"x", "y"}, []string{"x", "y"}},
		"list of lists":  {[]any{[]any{"a", "b"}, []any{"b", "c"}}, []string{"a", "b", "c"}},
		"mixed elements": {[]any{map[string]any{"id": "a"}, "b"}, []string{"a", "b"}},
		"empty list":     {[]any{}, nil},
		"nil payload":    {nil, nil},
		"scalar payload": {"hello", nil},
	}
	for name, tc := range cases {
		if got := ExtractResultIDs(tc.payload); !equalIDs(got, tc.want) {
			t.Errorf("%s: ExtractResultIDs = %v, want %v", name, got, tc.want)
		}
	}
}

func TestExtractResultIDs_DedupePreservesFirstOccurrence(t *testing.T) {
	payload := map[string]any{"ids": []any{"a", "b", "a", "c", "b"}}
	got := ExtractResultIDs(payload)
	want := []string{"a", "b", "c"}
	if !equalIDs(got, want) {
		t.Errorf("ExtractResultIDs = %v, want %v", got, want)
	}
}
