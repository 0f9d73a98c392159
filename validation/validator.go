// Package validation validates JSON-LD documents against an annotated schema.
//
// The schema is compiled to a frame, the document is framed with it, and every
// node of the resulting @graph is checked against the schema on its own. One
// failing node never stops the others from being checked.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reoring/jsonldschema/deref"
	"github.com/reoring/jsonldschema/frame"
	"github.com/reoring/jsonldschema/jsonld"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/structural"
)

// FrameCompiler compiles a schema into a JSON-LD frame.
type FrameCompiler interface {
	Parse(ctx context.Context, schema any) (*ldjson.Object, error)
}

// Framer frames a JSON-LD document.
type Framer interface {
	Frame(ctx context.Context, doc, frame any) (map[string]any, error)
}

// Checker validates a single node.
type Checker interface {
	Validate(instance any) (structural.Issues, error)
}

// CheckerFunc compiles a schema into a Checker.
type CheckerFunc func(schema any) (Checker, error)

// Options configures a Validator. Nil fields get defaults: a frame compiler
// dereferencing through the file system and HTTP, a json-gold framer and a
// draft-07 structural validator.
type Options struct {
	Frames  FrameCompiler
	Framer  Framer
	Checker CheckerFunc
	Metrics *Metrics
	Logger  *slog.Logger
}

// Validator runs document validations. It is safe for concurrent use when its
// collaborators are.
type Validator struct {
	frames  FrameCompiler
	framer  Framer
	checker CheckerFunc
	metrics *Metrics
	log     *slog.Logger
}

// New returns a Validator with defaults filled in.
func New(o Options) *Validator {
	v := &Validator{frames: o.Frames, framer: o.Framer, checker: o.Checker, metrics: o.Metrics, log: o.Logger}
	if v.log == nil {
		v.log = slog.Default()
	}
	if v.frames == nil {
		v.frames = &frame.Compiler{Resolver: &deref.Resolver{Loader: deref.DefaultLoader{}, Logger: v.log}}
	}
	if v.framer == nil {
		v.framer = jsonld.NewProcessor(jsonld.Options{})
	}
	if v.checker == nil {
		v.checker = func(schema any) (Checker, error) {
			return structural.Compile(schema, structural.Options{})
		}
	}
	return v
}

// Report aggregates per-node results.
type Report struct {
	Success     bool                  `json:"success"`
	TotalErrors int                   `json:"totalErrors"` // number of failing nodes
	Results     map[string]NodeResult `json:"results"`
}

// NodeResult is the outcome for one framed node.
type NodeResult struct {
	Result bool              `json:"result"`
	Errors structural.Issues `json:"errors"`
}

// Validate frames document with schema and checks each framed node against
// the schema as given. Errors from compilation or from the external engines
// abort the run; node failures are reported.
func (v *Validator) Validate(ctx context.Context, document, schema any) (rep *Report, err error) {
	start := time.Now()
	defer func() { v.metrics.observeRun(rep, err, time.Since(start)) }()

	f, err := v.frames.Parse(ctx, schema)
	if err != nil {
		return nil, err
	}
	if f == nil {
		// false schema: frame everything and let the checker reject it
		f = ldjson.NewObject()
	}
	framed, err := v.framer.Frame(ctx, document, f)
	if err != nil {
		return nil, err
	}
	checker, err := v.checker(schema)
	if err != nil {
		return nil, fmt.Errorf("structural schema: %w", err)
	}

	nodes := graphNodes(framed)
	v.log.DebugContext(ctx, "framed document", "nodes", len(nodes))

	rep = &Report{Success: true, Results: make(map[string]NodeResult, len(nodes))}
	for i, n := range nodes {
		id := nodeID(n, i)
		issues, err := checker.Validate(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		if len(issues) == 0 {
			rep.Results[id] = NodeResult{Result: true, Errors: structural.Issues{}}
			v.metrics.observeNode(true)
			continue
		}
		v.log.DebugContext(ctx, "node failed validation", "id", id, "issues", len(issues))
		rep.Results[id] = NodeResult{Result: false, Errors: issues}
		rep.Success = false
		rep.TotalErrors++
		v.metrics.observeNode(false)
	}
	return rep, nil
}

func graphNodes(framed map[string]any) []any {
	g, ok := framed["@graph"].([]any)
	if !ok {
		return nil
	}
	return g
}

// nodeID keys a node by its @id; blank nodes pruned of their identifier get a
// positional one.
func nodeID(n any, i int) string {
	if m, ok := n.(map[string]any); ok {
		if id, ok := m["@id"].(string); ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("_:node%d", i)
}
