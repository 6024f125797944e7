package store

import (
	"reflect"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Matches evaluates a filter expression against a document. Filter keys
// are dotted field paths (plus the reserved _id, createdAt, updatedAt);
// values are either literals compared for equality or operator maps:
//
//	{"Status": "published"}
//	{"Views": {"$gte": 100}}
//	{"_id": {"$in": ["a", "b"]}}
//
// An empty or nil filter matches everything.
func Matches(doc models.Document, filter map[string]any) bool {
	for path, cond := range filter {
		actual, present := lookup(doc, path)
		if !matchCond(actual, present, cond) {
			return false
		}
	}
	return true
}

func matchCond(actual any, present bool, cond any) bool {
	ops, isOps := cond.(map[string]any)
	if !isOps || !hasOperator(ops) {
		return present && looseEqual(actual, cond)
	}
	for op, arg := range ops {
		switch op {
		case "$exists":
			want, _ := arg.(bool)
			if present != want {
				return false
			}
		case "$ne":
			if present && looseEqual(actual, arg) {
				return false
			}
		case "$in":
			list, ok := arg.([]any)
			if !ok || !present {
				return false
			}
			found := false
			for _, el := range list {
				if looseEqual(actual, el) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			c, ok := compareValues(actual, arg)
			if !present || !ok {
				return false
			}
			switch op {
			case "$gt":
				if c <= 0 {
					return false
				}
			case "$gte":
				if c < 0 {
					return false
				}
			case "$lt":
				if c >= 0 {
					return false
				}
			case "$lte":
				if c > 0 {
					return false
				}
			}
		default:
			// Unknown operator never matches.
			return false
		}
	}
	return true
}

func hasOperator(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// lookup resolves a dotted path against the document, including the
// reserved identifier and timestamp keys.
func lookup(doc models.Document, path string) (any, bool) {
	switch path {
	case "_id":
		return doc.ID, true
	case "createdAt":
		return doc.CreatedAt, true
	case "updatedAt":
		return doc.UpdatedAt, true
	}
	var cur any = doc.Fields
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// looseEqual compares with JSON number semantics: any numeric pair is
// compared as float64, everything else via deep equality.
func looseEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two values when both are numbers or both are
// strings; ok is false otherwise.
func compareValues(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
