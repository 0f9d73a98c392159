package shacl

import (
	"context"

	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

// Format names an RDF serialization exchanged with an Engine.
type Format string

const (
	FormatNQuads Format = "application/n-quads"
	FormatJSONLD Format = "application/ld+json"
)

// RDFSerializer converts a JSON-LD document to N-Quads.
type RDFSerializer interface {
	ToRDF(ctx context.Context, doc any) (string, error)
}

// Violation is one result reported by a SHACL engine.
type Violation struct {
	FocusNode   string `json:"focusNode"`
	Path        string `json:"path,omitempty"`
	Value       string `json:"value,omitempty"`
	SourceShape string `json:"sourceShape,omitempty"`
	Constraint  string `json:"constraint,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Report is the outcome of a SHACL validation run.
type Report interface {
	Conforms() bool
	Results() []Violation
}

// Engine validates a data graph against a shapes graph. No engine ships with
// this module; callers plug in their own.
type Engine interface {
	Validate(ctx context.Context, data string, dataFormat Format, shapes string, shapesFormat Format) (Report, error)
}

// ToNQuads serializes compiled shapes as an N-Quads shapes graph.
func ToNQuads(ctx context.Context, rdf RDFSerializer, shapes *ldjson.Object) (string, error) {
	return rdf.ToRDF(ctx, shapes)
}

// Targeted returns a copy of shape whose sh:class is also its sh:targetClass,
// so an engine applies the root shape to every instance of the class.
func Targeted(shape *ldjson.Object) *ldjson.Object {
	out := shape.Clone()
	if class := out.Value("sh:class"); class != nil && !out.Has("sh:targetClass") {
		out.Set("sh:targetClass", ldjson.DeepCopy(class))
	}
	return out
}

// Check serializes document and shapes to N-Quads and runs them through eng.
func Check(ctx context.Context, eng Engine, rdf RDFSerializer, document any, shapes *ldjson.Object) (Report, error) {
	data, err := rdf.ToRDF(ctx, document)
	if err != nil {
		return nil, err
	}
	sg, err := ToNQuads(ctx, rdf, Targeted(shapes))
	if err != nil {
		return nil, err
	}
	rep, err := eng.Validate(ctx, data, FormatNQuads, sg, FormatNQuads)
	if err != nil {
		return nil, &schemaerr.SHACLEngineError{Cause: err}
	}
	return rep, nil
}
