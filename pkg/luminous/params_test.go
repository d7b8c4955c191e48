package luminous

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenParams(t *testing.T) {
	t.Parallel()

	t.Run("scalars pass through", func(t *testing.T) {
		out := FlattenParams(map[string]any{
			"q":      "coffee",
			"limit":  10,
			"active": true,
			"ratio":  0.5,
			"count":  json.Number("42"),
		})
		require.Equal(t, map[string]string{
			"q":      "coffee",
			"limit":  "10",
			"active": "true",
			"ratio":  "0.5",
			"count":  "42",
		}, out)
	})

	t.Run("nested maps become bracket notation", func(t *testing.T) {
		out := FlattenParams(map[string]any{
			"pg": map[string]any{"size": 5, "cursor": "abcde=="},
		})
		require.Equal(t, map[string]string{
			"pg[size]":   "5",
			"pg[cursor]": "abcde==",
		}, out)
	})

	t.Run("nesting goes arbitrarily deep", func(t *testing.T) {
		out := FlattenParams(map[string]any{
			"filter": map[string]any{
				"date": map[string]any{"gte": "2024-01-01", "lt": "2024-02-01"},
			},
		})
		require.Equal(t, map[string]string{
			"filter[date][gte]": "2024-01-01",
			"filter[date][lt]":  "2024-02-01",
		}, out)
	})

	t.Run("string maps flatten one level", func(t *testing.T) {
		out := FlattenParams(map[string]any{
			"pg": map[string]string{"cursor": "xyz"},
		})
		require.Equal(t, map[string]string{"pg[cursor]": "xyz"}, out)
	})

	t.Run("nil values are omitted", func(t *testing.T) {
		out := FlattenParams(map[string]any{
			"q":  "coffee",
			"pg": map[string]any{"size": 5, "cursor": nil},
		})
		require.Equal(t, map[string]string{
			"q":        "coffee",
			"pg[size]": "5",
		}, out)
	})

	t.Run("unsupported leaves are dropped", func(t *testing.T) {
		out := FlattenParams(map[string]any{
			"q":   "coffee",
			"odd": []int{1, 2, 3},
		})
		require.Equal(t, map[string]string{"q": "coffee"}, out)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		inner := map[string]any{"size": 5}
		in := map[string]any{"pg": inner}

		_ = FlattenParams(in)

		require.Equal(t, map[string]any{"pg": inner}, in)
		require.Equal(t, map[string]any{"size": 5}, inner)
	})
}
