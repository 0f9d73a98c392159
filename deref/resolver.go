// Package deref inlines JSON Schema $ref targets ahead of compilation.
//
// The compilers never follow references themselves: a schema is dereferenced
// once, then walked as a plain tree. Local JSON Pointer fragments, relative
// files and HTTP(S) documents are supported; cyclic references cannot be
// represented in a tree and are left in place as $ref residue.
package deref

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

// Loader fetches the document behind an absolute or relative URL.
type Loader interface {
	Load(ctx context.Context, u *url.URL) (any, error)
}

// Resolver replaces $ref objects with copies of their targets.
//
// A Resolver is safe for concurrent use as long as its Loader is.
type Resolver struct {
	// Base is the URL the root schema was loaded from. Relative references
	// resolve against it; nil means the working directory.
	Base *url.URL
	// Loader fetches external documents. Nil disables external references.
	Loader Loader
	// Logger receives warnings about references left unresolved; nil uses slog.Default().
	Logger *slog.Logger
}

// dataKeywords hold instance data rather than subschemas; a "$ref" member
// inside them is a literal value.
var dataKeywords = map[string]bool{
	"enum":     true,
	"const":    true,
	"default":  true,
	"examples": true,
	"@context": true,
}

// Dereference returns a copy of schema with every resolvable $ref inlined.
// Members next to a $ref win over members of the target. The input is never
// modified, and dereferencing an already dereferenced schema is a no-op.
func (r *Resolver) Dereference(ctx context.Context, schema any) (any, error) {
	st := &state{r: r, docs: map[string]any{}, active: map[string]bool{}}
	st.docs[docKey(r.Base)] = schema
	return st.walk(ctx, schema, schema, r.Base)
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

type state struct {
	r      *Resolver
	docs   map[string]any
	active map[string]bool // refs being expanded on the current path
}

func (st *state) walk(ctx context.Context, v any, root any, base *url.URL) (any, error) {
	switch t := v.(type) {
	case *ldjson.Object:
		if ref, ok := t.GetString("$ref"); ok {
			return st.resolve(ctx, t, ref, root, base)
		}
		out := ldjson.NewObject()
		var err error
		t.Range(func(k string, vv any) bool {
			if dataKeywords[k] {
				out.Set(k, ldjson.DeepCopy(vv))
				return true
			}
			var child any
			child, err = st.walk(ctx, vv, root, base)
			if err != nil {
				return false
			}
			out.Set(k, child)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i := range t {
			child, err := st.walk(ctx, t[i], root, base)
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil
	default:
		return v, nil
	}
}

func (st *state) resolve(ctx context.Context, node *ldjson.Object, ref string, root any, base *url.URL) (any, error) {
	target, err := url.Parse(ref)
	if err != nil {
		return nil, &schemaerr.ReferenceResolutionError{Ref: ref, Cause: err}
	}
	abs := target
	if base != nil {
		abs = base.ResolveReference(target)
	}
	key := abs.String()
	if st.active[key] {
		st.r.logger().Warn("circular $ref left unresolved", "ref", ref)
		return node.Clone(), nil
	}

	doc, docBase, err := st.document(ctx, abs, root, base)
	if err != nil {
		return nil, &schemaerr.ReferenceResolutionError{Ref: ref, Cause: err}
	}
	if abs.Fragment != "" && !strings.HasPrefix(abs.Fragment, "/") {
		return nil, &schemaerr.ReferenceResolutionError{Ref: ref, Cause: errors.New("anchor fragments are not supported")}
	}
	ptr, err := ldjson.ParsePointer(abs.Fragment)
	if err != nil {
		return nil, &schemaerr.ReferenceResolutionError{Ref: ref, Cause: err}
	}
	resolved, ok := ptr.Lookup(doc)
	if !ok {
		return nil, &schemaerr.ReferenceResolutionError{Ref: ref, Cause: fmt.Errorf("pointer %s not found", ptr)}
	}

	st.active[key] = true
	expanded, err := st.walk(ctx, resolved, doc, docBase)
	delete(st.active, key)
	if err != nil {
		return nil, err
	}

	obj, ok := expanded.(*ldjson.Object)
	if !ok || node.Len() == 1 {
		return expanded, nil
	}
	// extended $ref: siblings are kept and take precedence
	merged := obj.Clone()
	for _, k := range node.Keys() {
		if k == "$ref" {
			continue
		}
		v := node.Value(k)
		if !dataKeywords[k] {
			if v, err = st.walk(ctx, v, root, base); err != nil {
				return nil, err
			}
		}
		merged.Set(k, ldjson.DeepCopy(v))
	}
	return merged, nil
}

// document returns the document abs points into and the base URL for
// references found inside it.
func (st *state) document(ctx context.Context, abs *url.URL, root any, base *url.URL) (any, *url.URL, error) {
	docURL := *abs
	docURL.Fragment = ""
	docURL.RawFragment = ""
	k := docKey(&docURL)
	if k == docKey(base) {
		return root, base, nil
	}
	if doc, ok := st.docs[k]; ok {
		return doc, &docURL, nil
	}
	if st.r.Loader == nil {
		return nil, nil, fmt.Errorf("external document %q: no loader configured", k)
	}
	doc, err := st.r.Loader.Load(ctx, &docURL)
	if err != nil {
		return nil, nil, err
	}
	st.docs[k] = doc
	return doc, &docURL, nil
}

func docKey(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
