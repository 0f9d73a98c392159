// Package walker is the recursive descent shared by the schema compilers.
//
// Compile dispatches a schema node to a Sink: boolean schemas go to OnBoolean,
// object schemas go to OnObject after the active @context has been refreshed
// from the node. Sinks call Compile again for every nested schema they visit
// (properties, items, combinator branches), so Compile is the single entry
// point of the recursion.
package walker

import (
	"context"
	"fmt"

	"github.com/reoring/jsonldschema/ldcontext"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

// Sink folds schema nodes into a result of type T.
type Sink[T any] interface {
	OnBoolean(ctx context.Context, v bool, s Scope) (T, error)
	OnObject(ctx context.Context, node *ldjson.Object, s Scope) (T, error)
}

// Scope is what a sink knows about its position in the schema tree.
type Scope struct {
	Context *ldcontext.Context
	Path    ldjson.Pointer
}

// NewScope returns the root scope with the given context.
func NewScope(c *ldcontext.Context) Scope {
	return Scope{Context: c, Path: ldjson.Root()}
}

// Field descends into nested members, keeping the active context.
func (s Scope) Field(names ...string) Scope {
	for _, n := range names {
		s.Path = s.Path.Field(n)
	}
	return s
}

// Index descends into an array element.
func (s Scope) Index(i int) Scope {
	s.Path = s.Path.Index(i)
	return s
}

// Compile runs sink over node.
func Compile[T any](ctx context.Context, sink Sink[T], node any, s Scope) (T, error) {
	switch t := node.(type) {
	case bool:
		return sink.OnBoolean(ctx, t, s)
	case *ldjson.Object:
		if t != nil {
			s.Context = s.Context.Update(t)
			return sink.OnObject(ctx, t, s)
		}
	case map[string]any:
		// decoded with encoding/json; key order is lost, FromPlain sorts it
		if t != nil {
			return Compile(ctx, sink, ldjson.FromPlain(t), s)
		}
	}
	var zero T
	return zero, &schemaerr.SchemaShapeError{Path: s.Path.String(), Got: typeName(node)}
}

// CombinatorKeywords lists the composition keywords in the order both
// compilers visit them.
var CombinatorKeywords = []string{"if", "then", "else", "allOf", "anyOf", "oneOf", "not"}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case []any:
		return "array"
	case interface{ Float64() (float64, error) }:
		return "number"
	case *ldjson.Object, map[string]any:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
