// Package schemaerr defines the failure taxonomy shared by the schema
// compilers, the reference resolver and the external engine adapters.
//
// Every compile error is fatal for the Parse call that produced it; no partial
// frame or shape is returned. Use errors.As to branch on the concrete kind.
package schemaerr

import (
	"errors"
	"fmt"
)

// SchemaShapeError reports a schema node that is neither a boolean nor an object.
type SchemaShapeError struct {
	Path string // JSON Pointer of the offending node
	Got  string // Go type of the value found
}

func (e *SchemaShapeError) Error() string {
	return fmt.Sprintf("schema must be boolean or object at %s (got %s)", e.Path, e.Got)
}

// ReferenceResolutionError reports an unresolved or broken $ref.
type ReferenceResolutionError struct {
	Ref   string
	Cause error
}

func (e *ReferenceResolutionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("cannot resolve $ref %q", e.Ref)
	}
	return fmt.Sprintf("cannot resolve $ref %q: %v", e.Ref, e.Cause)
}

func (e *ReferenceResolutionError) Unwrap() error { return e.Cause }

// ExpansionError reports that the active context could not expand a term.
type ExpansionError struct {
	Term  string
	Cause error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("cannot expand %q: %v", e.Term, e.Cause)
}

func (e *ExpansionError) Unwrap() error { return e.Cause }

// MergeError reports an attempt to merge a structural object with an array.
type MergeError struct {
	Key string
}

func (e *MergeError) Error() string {
	if e.Key == "" {
		return "cannot merge a JSON object with an array"
	}
	return fmt.Sprintf("cannot merge a JSON object with an array at key %q", e.Key)
}

// JSONLDProcessingError wraps a failure of the JSON-LD processor.
type JSONLDProcessingError struct {
	Op    string // expand, frame, toRDF
	Cause error
}

func (e *JSONLDProcessingError) Error() string {
	return fmt.Sprintf("jsonld %s: %v", e.Op, e.Cause)
}

func (e *JSONLDProcessingError) Unwrap() error { return e.Cause }

// SHACLEngineError wraps a failure of the external SHACL engine.
type SHACLEngineError struct {
	Cause error
}

func (e *SHACLEngineError) Error() string {
	return fmt.Sprintf("shacl engine: %v", e.Cause)
}

func (e *SHACLEngineError) Unwrap() error { return e.Cause }

// IsReferenceError reports whether err carries a ReferenceResolutionError.
func IsReferenceError(err error) bool {
	var target *ReferenceResolutionError
	return errors.As(err, &target)
}

// IsProcessingError reports whether err carries a JSONLDProcessingError.
func IsProcessingError(err error) bool {
	var target *JSONLDProcessingError
	return errors.As(err, &target)
}
