package ldjson

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	j "github.com/goccy/go-json"
)

// DeepCopy returns a copy of v that shares no objects or arrays with it.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = DeepCopy(t[i])
		}
		return out
	default:
		return v
	}
}

// ToPlain converts ordered values into map[string]any trees for libraries that
// expect encoding/json shaped input. Numbers stay json.Number.
func ToPlain(v any) any {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil
		}
		m := make(map[string]any, t.Len())
		t.Range(func(k string, vv any) bool {
			m[k] = ToPlain(vv)
			return true
		})
		return m
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = ToPlain(t[i])
		}
		return out
	default:
		return v
	}
}

// FromPlain converts map[string]any trees into ordered values. Map keys are
// sorted so that the result is deterministic.
func FromPlain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			o.Set(k, FromPlain(t[k]))
		}
		return o
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = FromPlain(t[i])
		}
		return out
	default:
		return v
	}
}

// EnsureArray wraps a single value into a one-element slice; nil becomes an
// empty slice and slices are returned as-is.
func EnsureArray(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	default:
		return []any{v}
	}
}

// UniqueValues removes repeated scalar values keeping first-seen order.
// Objects and arrays are never considered equal to one another.
func UniqueValues(vs []any) []any {
	seen := make(map[any]struct{}, len(vs))
	out := make([]any, 0, len(vs))
	for _, v := range vs {
		switch v.(type) {
		case string, bool, j.Number, nil:
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}

// IsProperObject reports whether v is a non-nil object.
func IsProperObject(v any) bool {
	o, ok := v.(*Object)
	return ok && o != nil
}

// IsObjectWithProperties reports whether v is an object with at least one member.
func IsObjectWithProperties(v any) bool {
	o, ok := v.(*Object)
	return ok && o.Len() > 0
}

// ReadFile decodes a JSON or YAML file, picking the format from the extension.
func ReadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return Decode(data)
	}
}
