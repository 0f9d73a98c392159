// Package frame compiles a JSON-LD annotated JSON Schema into a JSON-LD frame.
//
// Every object schema becomes a frame node: "@type" turns into a type
// constraint, "properties" into nested property frames, and the frames of
// "items" and combinator branches are merged into the node itself. A subtree
// describing an array is marked with a transient "@container": "@set" that
// the parent consumes and turns into a "@container": "@set" term definition
// in its own "@context", so that framing returns the property as a set.
package frame

import (
	"context"
	"strings"

	"github.com/reoring/jsonldschema/ldcontext"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/walker"
)

// Dereferencer inlines $ref targets before compilation.
type Dereferencer interface {
	Dereference(ctx context.Context, schema any) (any, error)
}

// Compiler turns schemas into frames. The zero value compiles schemas as-is,
// without dereferencing.
type Compiler struct {
	Resolver Dereferencer
}

// Parse compiles schema into a frame. It returns a nil frame for the boolean
// schema false, which matches nothing.
func (c *Compiler) Parse(ctx context.Context, schema any) (*ldjson.Object, error) {
	schema = ldjson.FromPlain(schema)
	resolved := schema
	if c.Resolver != nil {
		var err error
		if resolved, err = c.Resolver.Dereference(ctx, schema); err != nil {
			return nil, err
		}
	}
	parsed, err := Compile(ctx, resolved, walker.NewScope(ldcontext.New(nil)))
	if err != nil || parsed == nil {
		return nil, err
	}
	parsed.Delete("@container")

	var declared any
	if o, ok := schema.(*ldjson.Object); ok {
		declared = o.Value("@context")
	}
	final := ldcontext.FromValue(declared, nil).Update(parsed)
	if !final.IsEmpty() {
		parsed.Set("@context", final.Value())
	}
	return parsed, nil
}

// Compile runs the frame sink over one schema node without the top-level
// post-processing done by Parse.
func Compile(ctx context.Context, schema any, s walker.Scope) (*ldjson.Object, error) {
	return walker.Compile[*ldjson.Object](ctx, sink{}, schema, s)
}

// IsProper reports whether a compiled frame constrains anything; frames that
// do not are left out of their parent.
func IsProper(f *ldjson.Object) bool {
	return f.Len() > 0
}

type sink struct{}

func (sink) OnBoolean(_ context.Context, v bool, _ walker.Scope) (*ldjson.Object, error) {
	if v {
		return ldjson.NewObject(), nil // matches any node
	}
	return nil, nil
}

func (k sink) OnObject(ctx context.Context, node *ldjson.Object, s walker.Scope) (*ldjson.Object, error) {
	f := ldjson.NewObject()
	if t := node.Value("@type"); truthy(t) {
		f.Set("@type", ldjson.DeepCopy(ldjson.EnsureArray(t)))
	}

	if props := node.Object("properties"); props != nil {
		for _, name := range props.Keys() {
			if err := k.property(ctx, f, name, props.Value(name), s.Field("properties", name)); err != nil {
				return nil, err
			}
		}
	}

	// items may describe the same nodes as properties; keep both constraints
	if item, scope, ok := itemSchema(node, s); ok {
		parsed, err := Compile(ctx, item, scope)
		if err != nil {
			return nil, err
		}
		if parsed != nil {
			if err := mergeObject(f, parsed); err != nil {
				return nil, err
			}
		}
		f.Set("@container", "@set")
	}

	for _, b := range branches(node, s) {
		parsed, err := Compile(ctx, b.schema, b.scope)
		if err != nil {
			return nil, err
		}
		if parsed != nil {
			if err := mergeObject(f, parsed); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func (k sink) property(ctx context.Context, f *ldjson.Object, name string, schema any, s walker.Scope) error {
	nested, err := Compile(ctx, schema, s)
	if err != nil {
		return err
	}
	if !IsProper(nested) {
		return nil
	}
	if f.Has(name) {
		if err := mergeMember(f, name, nested); err != nil {
			return err
		}
	} else {
		f.Set(name, nested)
	}
	target := f.Object(name)
	if c, _ := target.GetString("@container"); c == "@set" {
		liftContainer(f, name, s.Context)
		target.Delete("@container")
	}
	return nil
}

// liftContainer records in f's @context that name must be framed as a set.
// The term definition comes from f's own @context, else from the active
// schema context, and is copied before being annotated. An undefined term is
// annotated only when it can still map to an IRI.
func liftContainer(f *ldjson.Object, name string, active *ldcontext.Context) {
	fctx := f.Object("@context")
	if fctx == nil {
		fctx = ldjson.NewObject()
	}
	def, ok := fctx.Get(name)
	if !ok {
		if d, found := active.Lookup(name); found {
			def = ldjson.DeepCopy(d)
		}
	}
	switch d := def.(type) {
	case *ldjson.Object:
		d.Set("@container", "@set")
		fctx.Set(name, d)
	case string:
		fctx.Set(name, ldjson.ObjectOf("@id", d, "@container", "@set"))
	default:
		switch {
		case strings.Contains(name, ":"):
			fctx.Set(name, ldjson.ObjectOf("@id", name, "@container", "@set"))
		case active.HasVocab() || fctx.Has("@vocab"):
			fctx.Set(name, ldjson.ObjectOf("@container", "@set"))
		default:
			// the term maps to no IRI, so framing drops the property anyway
			return
		}
	}
	f.Set("@context", fctx)
}

// itemSchema returns the schema describing array members: items itself when it
// is an object, its first element when it is an array.
func itemSchema(node *ldjson.Object, s walker.Scope) (any, walker.Scope, bool) {
	switch t := node.Value("items").(type) {
	case *ldjson.Object:
		return t, s.Field("items"), true
	case []any:
		if len(t) > 0 {
			return t[0], s.Field("items").Index(0), true
		}
	}
	return nil, s, false
}

type branch struct {
	schema any
	scope  walker.Scope
}

// branches flattens combinator subschemas in keyword order, then schema order.
func branches(node *ldjson.Object, s walker.Scope) []branch {
	var out []branch
	for _, kw := range walker.CombinatorKeywords {
		v := node.Value(kw)
		if !truthy(v) {
			continue
		}
		if arr, ok := v.([]any); ok {
			for i, b := range arr {
				out = append(out, branch{schema: b, scope: s.Field(kw).Index(i)})
			}
			continue
		}
		out = append(out, branch{schema: v, scope: s.Field(kw)})
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	return true
}
