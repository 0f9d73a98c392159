// Package shacl compiles a JSON-LD annotated JSON Schema into SHACL shapes.
//
// Each object schema is checked against five independent classifiers (object,
// array, string, numeric, combinator). Every classifier that applies yields a
// fragment; several fragments are folded into one sh:and.
//
// String, numeric and array keywords constrain the property that points at a
// value rather than the value itself (sh:minLength, sh:minCount, ...). Those
// fragments carry their constraints under a transient key that the enclosing
// property shape extracts; Parse never returns it.
package shacl

import (
	"context"

	"github.com/reoring/jsonldschema/ldcontext"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/walker"
)

const (
	shNS  = "http://www.w3.org/ns/shacl#"
	xsdNS = "http://www.w3.org/2001/XMLSchema#"

	// parentConstraints is the transient key holding constraints for the
	// enclosing property shape.
	parentConstraints = "parent-properties-constraints"
)

// Vocabulary returns the @context attached to compiled shapes.
func Vocabulary() *ldjson.Object {
	return ldjson.ObjectOf("sh", shNS, "xsd", xsdNS)
}

// Dereferencer inlines $ref targets before compilation.
type Dereferencer interface {
	Dereference(ctx context.Context, schema any) (any, error)
}

// Compiler turns schemas into SHACL shapes.
type Compiler struct {
	// Resolver dereferences the schema first; nil compiles it as-is.
	Resolver Dereferencer
	// Expander resolves property names and types to IRIs. Without one, names
	// are used verbatim.
	Expander ldcontext.Expander
}

// Parse compiles schema into a shape carrying the sh/xsd vocabulary context.
func (c *Compiler) Parse(ctx context.Context, schema any) (*ldjson.Object, error) {
	schema = ldjson.FromPlain(schema)
	resolved := schema
	if c.Resolver != nil {
		var err error
		if resolved, err = c.Resolver.Dereference(ctx, schema); err != nil {
			return nil, err
		}
	}
	shape, err := Compile(ctx, resolved, walker.NewScope(ldcontext.New(c.Expander)))
	if err != nil {
		return nil, err
	}
	foldTransient(shape)
	shape.Set("@context", Vocabulary())
	return shape, nil
}

// Compile runs the SHACL sink over one schema node. The result may still carry
// transient parent constraints.
func Compile(ctx context.Context, schema any, s walker.Scope) (*ldjson.Object, error) {
	return walker.Compile[*ldjson.Object](ctx, sink{}, schema, s)
}

type sink struct{}

// OnBoolean accepts anything for both true and false: a false schema is not
// enforced in SHACL output.
func (sink) OnBoolean(context.Context, bool, walker.Scope) (*ldjson.Object, error) {
	return ldjson.NewObject(), nil
}

func (sink) OnObject(ctx context.Context, node *ldjson.Object, s walker.Scope) (*ldjson.Object, error) {
	var fragments []*ldjson.Object

	obj, err := objectShape(ctx, node, s)
	if err != nil {
		return nil, err
	}
	arr, err := arrayShape(ctx, node, s)
	if err != nil {
		return nil, err
	}
	for _, f := range []*ldjson.Object{obj, arr, stringShape(node), numericShape(node)} {
		if f != nil {
			fragments = append(fragments, f)
		}
	}
	comb, err := combinatorShapes(ctx, node, s)
	if err != nil {
		return nil, err
	}
	fragments = append(fragments, comb...)

	switch len(fragments) {
	case 0:
		return ldjson.NewObject(), nil
	case 1:
		return fragments[0], nil
	}
	list := make([]any, len(fragments))
	for i, f := range fragments {
		list[i] = f
	}
	return ldjson.ObjectOf("sh:and", ldjson.ObjectOf("@list", list)), nil
}

// expandName resolves name in the active context, falling back to the name
// itself when the context has no mapping for it.
func expandName(ctx context.Context, name string, s walker.Scope) (string, error) {
	iri, err := s.Context.Expand(ctx, name)
	if err != nil {
		return "", err
	}
	if iri == "" {
		return name, nil
	}
	return iri, nil
}

func idRef(iri string) *ldjson.Object {
	return ldjson.ObjectOf("@id", iri)
}
