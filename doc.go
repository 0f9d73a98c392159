// Package jsonldschema compiles JSON Schemas annotated with JSON-LD hints
// (@context, @type) into JSON-LD frames and SHACL shapes, and validates JSON-LD
// documents node by node against such a schema.
//
// The root package only wires the default collaborators together:
//
//   - deref resolves $ref against the file system and HTTP
//   - jsonld runs JSON-LD 1.1 expansion, framing and RDF conversion (json-gold)
//   - structural validates framed nodes (santhosh-tekuri/jsonschema)
//
// Typical usage:
//
//	schema, err := ldjson.ReadFile("person.schema.json")
//	f, err := jsonldschema.Frame(ctx, schema)
//	shapes, err := jsonldschema.Shapes(ctx, schema)
//	rep, err := jsonldschema.Validate(ctx, doc, schema)
//
// Use the frame, shacl and validation packages directly to plug in other
// resolvers or engines.
package jsonldschema
