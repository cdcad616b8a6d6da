package guard

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SanitizeFormIDs turns untrusted allow-list input into a sorted set of
// non-negative form ids. Anything that is not a list yields an empty set;
// non-numeric entries are dropped.
func SanitizeFormIDs(input any) []int {
	var items []any
	switch v := input.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []int:
		for _, n := range v {
			items = append(items, n)
		}
	default:
		return []int{}
	}

	seen := make(map[int]struct{}, len(items))
	ids := make([]int, 0, len(items))
	for _, item := range items {
		id, ok := formID(item)
		if !ok || id < 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func formID(item any) (int, bool) {
	switch v := item.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		return numericString(v.String())
	case string:
		return numericString(v)
	default:
		return 0, false
	}
}

func numericString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
