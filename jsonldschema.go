package jsonldschema

import (
	"context"

	"github.com/reoring/jsonldschema/deref"
	"github.com/reoring/jsonldschema/frame"
	"github.com/reoring/jsonldschema/jsonld"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/shacl"
	"github.com/reoring/jsonldschema/validation"
)

func defaultResolver() *deref.Resolver {
	return &deref.Resolver{Loader: deref.DefaultLoader{}}
}

// Frame compiles schema into a JSON-LD frame. It returns nil for the schema false.
func Frame(ctx context.Context, schema any) (*ldjson.Object, error) {
	c := &frame.Compiler{Resolver: defaultResolver()}
	return c.Parse(ctx, schema)
}

// Shapes compiles schema into SHACL shapes, expanding property names and types
// with JSON-LD 1.1.
func Shapes(ctx context.Context, schema any) (*ldjson.Object, error) {
	c := &shacl.Compiler{Resolver: defaultResolver(), Expander: jsonld.NewProcessor(jsonld.Options{})}
	return c.Parse(ctx, schema)
}

// Validate frames document with schema and validates every framed node.
func Validate(ctx context.Context, document, schema any) (*validation.Report, error) {
	return validation.New(validation.Options{}).Validate(ctx, document, schema)
}
