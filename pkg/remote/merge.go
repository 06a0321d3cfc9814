package remote

import (
	"fmt"
	"sort"
	"time"
)

// MergeFields merges src into dst field by field and returns dst. Nested
// objects merge recursively; any other value in src replaces dst's.
func MergeFields(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, sv := range src {
		sm, sIsMap := sv.(map[string]any)
		dm, dIsMap := dst[k].(map[string]any)
		if sIsMap && dIsMap {
			dst[k] = MergeFields(dm, sm)
			continue
		}
		dst[k] = sv
	}
	return dst
}

// Apply returns the stored fields after writing payload with opts.
func Apply(existing map[string]any, payload any, opts ...SetOption) (map[string]any, error) {
	fields, err := Fields(payload)
	if err != nil {
		return nil, err
	}
	if !ResolveSetOptions(opts...).Merge || existing == nil {
		return fields, nil
	}
	return MergeFields(existing, fields), nil
}

// SortDocuments orders docs in place by order.Field. Timestamps compare as
// times, numbers as numbers, everything else by its printed form. Documents
// missing the field sort last. With no field docs are sorted by id.
func SortDocuments(docs []Document, order Order) {
	if order.Field == "" {
		sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, aok := docs[i].Data[order.Field]
		b, bok := docs[j].Data[order.Field]
		switch {
		case !aok && !bok:
			return docs[i].ID < docs[j].ID
		case !aok:
			return false
		case !bok:
			return true
		}
		c := compareValues(a, b)
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
}

func compareValues(a, b any) int {
	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Compare(bt)
		}
	}
	if af, ok := a.(float64); ok {
		if bf, ok := b.(float64); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
