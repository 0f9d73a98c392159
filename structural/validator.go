// Package structural checks instances against a JSON Schema with
// santhosh-tekuri/jsonschema and reports failures as flat Issues.
package structural

import (
	"errors"
	"fmt"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/reoring/jsonldschema/ldjson"
)

// DefaultLocation is the URL the schema is registered under when no other
// location is known.
const DefaultLocation = "file:///schema.json"

// Issue is one failed keyword.
type Issue struct {
	Path       string         `json:"instancePath"` // JSON Pointer into the instance
	Keyword    string         `json:"keyword"`
	SchemaPath string         `json:"schemaPath"`
	Message    string         `json:"message"`
	Params     map[string]any `json:"params,omitempty"`
}

// Issues is a list of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Keyword, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Options configures Compile.
type Options struct {
	// Location is the schema's own URL; relative $refs resolve against it.
	Location string
	// Draft applies when the schema has no $schema. Defaults to draft-07.
	Draft *jsonschema.Draft
	// Language selects the message catalog. Defaults to English.
	Language language.Tag
}

// DraftByName maps a draft name such as "draft-07" or "2020-12" to its
// jsonschema draft.
func DraftByName(name string) (*jsonschema.Draft, error) {
	switch strings.TrimPrefix(strings.ToLower(name), "draft-") {
	case "04", "4":
		return jsonschema.Draft4, nil
	case "06", "6":
		return jsonschema.Draft6, nil
	case "07", "7":
		return jsonschema.Draft7, nil
	case "2019-09":
		return jsonschema.Draft2019, nil
	case "2020-12":
		return jsonschema.Draft2020, nil
	}
	return nil, fmt.Errorf("unknown JSON Schema draft %q", name)
}

// Validator is a compiled schema. It is safe for concurrent use.
type Validator struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

// Compile compiles schema once for repeated validation.
func Compile(schema any, o Options) (*Validator, error) {
	loc := o.Location
	if loc == "" {
		loc = DefaultLocation
	}
	draft := o.Draft
	if draft == nil {
		draft = jsonschema.Draft7
	}
	tag := o.Language
	if tag == language.Und {
		tag = language.English
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(draft)
	if err := c.AddResource(loc, ldjson.ToPlain(schema)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	sch, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: sch, printer: message.NewPrinter(tag)}, nil
}

// Validate checks instance. It returns no issues when the instance is valid;
// the error is reserved for instances that are not JSON values.
func (v *Validator) Validate(instance any) (Issues, error) {
	err := v.schema.Validate(ldjson.ToPlain(instance))
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}
	var out Issues
	v.flatten(ve, &out)
	return out, nil
}

// flatten collects the leaves of the error tree; inner nodes only group causes.
func (v *Validator) flatten(ve *jsonschema.ValidationError, out *Issues) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			v.flatten(c, out)
		}
		return
	}
	p := ldjson.Root()
	for _, tok := range ve.InstanceLocation {
		p = p.Field(tok)
	}
	is := Issue{
		Path:       p.String(),
		SchemaPath: ve.SchemaURL,
		Message:    ve.ErrorKind.LocalizedString(v.printer),
		Params:     params(ve.ErrorKind),
	}
	if kp := ve.ErrorKind.KeywordPath(); len(kp) > 0 {
		is.Keyword = kp[len(kp)-1]
	}
	*out = append(*out, is)
}

// params exposes the fields of an error kind as a map.
func params(k jsonschema.ErrorKind) map[string]any {
	b, err := j.Marshal(k)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := j.Unmarshal(b, &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}
