package ldjson

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is an RFC 6901 JSON Pointer built segment by segment. Values are
// immutable; Field and Index return extended copies.
type Pointer struct {
	parts []string
}

// Root returns the empty pointer.
func Root() Pointer { return Pointer{} }

// Field appends an object member segment.
func (p Pointer) Field(name string) Pointer {
	return Pointer{parts: append(append([]string{}, p.parts...), name)}
}

// Index appends an array index segment.
func (p Pointer) Index(i int) Pointer {
	return Pointer{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

// String renders the pointer; the root renders as "/".
func (p Pointer) String() string {
	if len(p.parts) == 0 {
		return "/"
	}
	esc := make([]string, len(p.parts))
	for i, s := range p.parts {
		// '~' -> '~0', '/' -> '~1' per RFC6901
		esc[i] = strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
	}
	return "/" + strings.Join(esc, "/")
}

// ParsePointer parses "/a/b~1c" style pointers. Both "" and "/" denote the root.
func ParsePointer(s string) (Pointer, error) {
	if s == "" || s == "/" {
		return Root(), nil
	}
	if !strings.HasPrefix(s, "/") {
		return Pointer{}, fmt.Errorf("ldjson: pointer %q must start with '/'", s)
	}
	raw := strings.Split(s[1:], "/")
	parts := make([]string, len(raw))
	for i, r := range raw {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(r, "~1", "/"), "~0", "~")
	}
	return Pointer{parts: parts}, nil
}

// Lookup walks root along the pointer.
func (p Pointer) Lookup(root any) (any, bool) {
	cur := root
	for _, seg := range p.parts {
		switch t := cur.(type) {
		case *Object:
			v, ok := t.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
