// Package jsonld adapts the json-gold JSON-LD 1.1 processor to the types used
// by the compilers: documents may hold *ldjson.Object values and json numbers.
package jsonld

import (
	"context"
	"net/http"

	"github.com/piprate/json-gold/ld"

	j "github.com/goccy/go-json"

	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

// Options configures a Processor.
type Options struct {
	// Base is the document base IRI; empty leaves relative IRIs unresolved.
	Base string
	// HTTPClient loads remote contexts; nil uses http.DefaultClient.
	HTTPClient *http.Client
	// DocumentLoader overrides remote context loading entirely.
	DocumentLoader ld.DocumentLoader
}

// Processor runs expansion, framing and RDF conversion. It is safe for
// concurrent use.
type Processor struct {
	proc   *ld.JsonLdProcessor
	base   string
	loader ld.DocumentLoader
}

// NewProcessor returns a JSON-LD 1.1 processor. Remote contexts are cached for
// the processor's lifetime.
func NewProcessor(o Options) *Processor {
	loader := o.DocumentLoader
	if loader == nil {
		client := o.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		loader = ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(client))
	}
	return &Processor{proc: ld.NewJsonLdProcessor(), base: o.Base, loader: loader}
}

func (p *Processor) options() *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions(p.base)
	opts.ProcessingMode = ld.JsonLd_1_1
	opts.DocumentLoader = p.loader
	return opts
}

// Expand returns the expanded form of input.
func (p *Processor) Expand(ctx context.Context, input any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := p.proc.Expand(Plain(input), p.options())
	if err != nil {
		return nil, &schemaerr.JSONLDProcessingError{Op: "expand", Cause: err}
	}
	return out, nil
}

// ExpandIRI parses activeContext and expands name as a property or type name:
// term definitions first, then compact IRIs, then @vocab. Names that end up
// relative yield "".
func (p *Processor) ExpandIRI(ctx context.Context, activeContext any, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	active, err := ld.NewContext(nil, p.options()).Parse(Plain(activeContext))
	if err != nil {
		return "", &schemaerr.JSONLDProcessingError{Op: "context", Cause: err}
	}
	iri, err := active.ExpandIri(name, false, true, nil, nil)
	if err != nil {
		return "", &schemaerr.JSONLDProcessingError{Op: "expandIri", Cause: err}
	}
	if !ld.IsAbsoluteIri(iri) {
		return "", nil
	}
	return iri, nil
}

// Frame frames doc with frame. The result always carries its nodes under
// "@graph", even when only one node matched.
func (p *Processor) Frame(ctx context.Context, doc, frame any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := p.options()
	opts.OmitGraph = false
	out, err := p.proc.Frame(Plain(doc), Plain(frame), opts)
	if err != nil {
		return nil, &schemaerr.JSONLDProcessingError{Op: "frame", Cause: err}
	}
	return out, nil
}

// ToRDF serializes doc as N-Quads.
func (p *Processor) ToRDF(ctx context.Context, doc any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opts := p.options()
	opts.Format = "application/n-quads"
	out, err := p.proc.ToRDF(Plain(doc), opts)
	if err != nil {
		return "", &schemaerr.JSONLDProcessingError{Op: "toRDF", Cause: err}
	}
	s, _ := out.(string)
	return s, nil
}

// Plain converts v into the map/slice form json-gold works on. Numbers become
// float64, the only numeric type the processor understands.
func Plain(v any) any {
	return floats(ldjson.ToPlain(v))
}

func floats(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = floats(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = floats(e)
		}
		return out
	case j.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return v
}
