package docstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Validate rejects unknown operators and filter values that cannot be
// represented in a stored document.
func (q Query) Validate() error {
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		default:
			return fmt.Errorf("unsupported filter operator %q on %s", f.Op, f.Field)
		}
		if f.Field == "" {
			return fmt.Errorf("filter field is required")
		}
		if _, err := NormalizeValue(f.Value); err != nil {
			return fmt.Errorf("invalid value for filter on %s: %w", f.Field, err)
		}
	}
	return nil
}

// NormalizeValue converts a filter value to the shape it would have inside a
// stored document.
func NormalizeValue(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Matches reports whether fields satisfy every filter in q.
func (q Query) Matches(fields Fields) bool {
	for _, f := range q.Filters {
		got, ok := fields[f.Field]
		if !ok {
			return false
		}
		want, err := NormalizeValue(f.Value)
		if err != nil {
			return false
		}
		cmp, ok := compare(got, want)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if cmp != 0 {
				return false
			}
		case OpLess:
			if cmp >= 0 {
				return false
			}
		case OpLessOrEqual:
			if cmp > 0 {
				return false
			}
		case OpGreater:
			if cmp <= 0 {
				return false
			}
		case OpGreaterOrEqual:
			if cmp < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compare orders two JSON scalar values of the same kind. Values of different
// kinds, or non-scalars, are incomparable.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	case nil:
		return 0, b == nil
	}
	return 0, false
}

// Apply filters, orders and limits docs in place of a backend that cannot do
// so natively. Ties are broken by id so results are stable across backends.
func Apply(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if !q.Matches(d.Fields) {
			continue
		}
		if q.OrderBy != "" {
			if _, ok := d.Fields[q.OrderBy]; !ok {
				continue
			}
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy != "" {
			cmp, ok := compare(out[i].Fields[q.OrderBy], out[j].Fields[q.OrderBy])
			if ok && cmp != 0 {
				if q.Direction == Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return out[i].ID < out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
