// Package ldcontext tracks the JSON-LD @context that is active while a schema
// tree is walked.
//
// A Context is a value: Update and Merge always return a new Context and never
// touch the receiver, so sibling subtrees cannot observe each other's local
// @context declarations.
package ldcontext

import (
	"context"
	"strings"

	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

// Expander resolves a term or compact IRI against a raw @context value, the
// way a JSON-LD processor expands a property name (vocabulary relative). It
// returns "" when the name maps to no absolute IRI.
type Expander interface {
	ExpandIRI(ctx context.Context, activeContext any, name string) (string, error)
}

// Context is an immutable scoped @context.
type Context struct {
	entries *ldjson.Object
	remote  []string
	exp     Expander
}

// New returns an empty context that expands terms with exp. exp may be nil, in
// which case Expand never resolves anything.
func New(exp Expander) *Context {
	return &Context{entries: ldjson.NewObject(), exp: exp}
}

// FromValue builds a context from a raw @context value: an object of term
// definitions, a remote context URL, or an array of both.
func FromValue(v any, exp Expander) *Context {
	return New(exp).overlay(v)
}

// Update returns the context in effect inside node. Without a local @context
// the receiver itself is returned.
func (c *Context) Update(node *ldjson.Object) *Context {
	v, ok := node.Get("@context")
	if !ok || v == nil {
		return c
	}
	return c.overlay(v)
}

// Merge returns a new context with other's definitions overlaid on c.
func (c *Context) Merge(other *Context) *Context {
	out := c.copy()
	out.remote = append(out.remote, other.remote...)
	other.entries.Range(func(k string, v any) bool {
		out.entries.Set(k, v)
		return true
	})
	return out
}

func (c *Context) overlay(v any) *Context {
	out := c.copy()
	out.apply(v)
	return out
}

func (c *Context) apply(v any) {
	switch t := v.(type) {
	case *ldjson.Object:
		t.Range(func(k string, vv any) bool {
			c.entries.Set(k, vv)
			return true
		})
	case string:
		c.remote = append(c.remote, t)
	case []any:
		for _, e := range t {
			c.apply(e)
		}
	}
}

// copy is shallow: term definitions are shared, which is safe because nothing
// mutates them in place.
func (c *Context) copy() *Context {
	out := &Context{entries: ldjson.NewObject(), remote: append([]string(nil), c.remote...), exp: c.exp}
	c.entries.Range(func(k string, v any) bool {
		out.entries.Set(k, v)
		return true
	})
	return out
}

// Lookup returns the definition bound to term.
func (c *Context) Lookup(term string) (any, bool) {
	return c.entries.Get(term)
}

// Entries returns a copy of the local term definitions.
func (c *Context) Entries() *ldjson.Object {
	return c.entries.Clone()
}

// IsEmpty reports whether the context binds nothing.
func (c *Context) IsEmpty() bool {
	return c.entries.Len() == 0 && len(c.remote) == 0
}

// HasVocab reports whether terms without a definition can still map to IRIs:
// an @vocab is bound, or a remote context may bind one.
func (c *Context) HasVocab() bool {
	if len(c.remote) > 0 {
		return true
	}
	v, ok := c.entries.GetString("@vocab")
	return ok && v != ""
}

// Value renders the context as an @context value owned by the caller: the
// term object alone, or an array of remote URLs followed by the term object.
func (c *Context) Value() any {
	if len(c.remote) == 0 {
		return c.entries.Clone()
	}
	out := make([]any, 0, len(c.remote)+1)
	for _, r := range c.remote {
		out = append(out, r)
	}
	if c.entries.Len() > 0 {
		out = append(out, c.entries.Clone())
	}
	return out
}

// Expand resolves a term or compact IRI to an absolute IRI using the active
// context's term definitions and @vocab. It returns "" when the name does not
// resolve.
func (c *Context) Expand(ctx context.Context, name string) (string, error) {
	if c.exp == nil || c.IsEmpty() || strings.HasPrefix(name, "@") {
		return "", nil
	}
	iri, err := c.exp.ExpandIRI(ctx, c.Value(), name)
	if err != nil {
		return "", &schemaerr.ExpansionError{Term: name, Cause: err}
	}
	return iri, nil
}
