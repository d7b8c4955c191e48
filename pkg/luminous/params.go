package luminous

import (
	"encoding/json"
	"strconv"
)

// FlattenParams condenses a nested parameter map into flat bracket-notation
// query keys. For example:
//
//	FlattenParams(map[string]any{
//		"pg": map[string]any{"size": 5, "cursor": "abcde=="},
//	})
//
// yields
//
//	map[string]string{"pg[size]": "5", "pg[cursor]": "abcde=="}
//
// Nil values are omitted at every level, scalar leaves are copied as-is, and
// the input is never mutated.
func FlattenParams(p map[string]any) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		flattenInto(out, k, v)
	}
	return out
}

func flattenInto(out map[string]string, key string, v any) {
	switch val := v.(type) {
	case nil:
		// omitted
	case string:
		out[key] = val
	case map[string]any:
		for k, sub := range val {
			flattenInto(out, key+"["+k+"]", sub)
		}
	case map[string]string:
		for k, sub := range val {
			out[key+"["+k+"]"] = sub
		}
	default:
		if s, ok := formatScalar(v); ok {
			out[key] = s
		}
	}
}

// formatScalar renders supported leaf values. Unsupported types are dropped
// rather than guessed at.
func formatScalar(v any) (string, bool) {
	switch n := v.(type) {
	case bool:
		return strconv.FormatBool(n), true
	case int:
		return strconv.Itoa(n), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case json.Number:
		return n.String(), true
	default:
		return "", false
	}
}
