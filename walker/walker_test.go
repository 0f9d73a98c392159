package walker_test

import (
	"context"
	"errors"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/jsonldschema/ldcontext"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
	"github.com/reoring/jsonldschema/walker"
)

// pathSink records the pointer and active "ex" binding of every object node,
// recursing into properties.
type pathSink struct {
	visited []string
}

func (p *pathSink) OnBoolean(_ context.Context, v bool, s walker.Scope) (string, error) {
	p.visited = append(p.visited, s.Path.String())
	if v {
		return "true", nil
	}
	return "false", nil
}

func (p *pathSink) OnObject(ctx context.Context, node *ldjson.Object, s walker.Scope) (string, error) {
	ex, _ := s.Context.Lookup("ex")
	iri, _ := ex.(string)
	p.visited = append(p.visited, s.Path.String()+" "+iri)
	if props := node.Object("properties"); props != nil {
		for _, k := range props.Keys() {
			if _, err := walker.Compile[string](ctx, p, props.Value(k), s.Field("properties", k)); err != nil {
				return "", err
			}
		}
	}
	return "object", nil
}

func TestCompile_DispatchAndScope(t *testing.T) {
	schema, err := ldjson.Decode([]byte(`{
		"@context": {"ex": "http://root/"},
		"properties": {
			"a": {"@context": {"ex": "http://a/"}, "properties": {"x": true}},
			"b": {"properties": {"y": false}}
		}
	}`))
	require.NoError(t, err)

	sink := &pathSink{}
	out, err := walker.Compile[string](context.Background(), sink, schema, walker.NewScope(ldcontext.New(nil)))
	require.NoError(t, err)
	assert.Equal(t, "object", out)
	assert.Equal(t, []string{
		"/ http://root/",
		"/properties/a http://a/",
		"/properties/a/properties/x",
		"/properties/b http://root/",
		"/properties/b/properties/y",
	}, sink.visited)
}

func TestCompile_PlainMapsAreObjects(t *testing.T) {
	schema := map[string]any{
		"@context":   map[string]any{"ex": "http://root/"},
		"properties": map[string]any{"b": map[string]any{"properties": map[string]any{}}, "a": true},
	}
	sink := &pathSink{}
	out, err := walker.Compile[string](context.Background(), sink, schema, walker.NewScope(ldcontext.New(nil)))
	require.NoError(t, err)
	assert.Equal(t, "object", out)
	assert.Equal(t, []string{"/ http://root/", "/properties/a", "/properties/b http://root/"}, sink.visited)
}

func TestCompile_RejectsNonSchemas(t *testing.T) {
	tests := []struct {
		name string
		node any
		got  string
	}{
		{name: "string", node: "x", got: "string"},
		{name: "number", node: j.Number("1"), got: "number"},
		{name: "array", node: []any{}, got: "array"},
		{name: "null", node: nil, got: "null"},
		{name: "nil map", node: map[string]any(nil), got: "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := ldjson.ObjectOf("properties", ldjson.ObjectOf("bad", tt.node))
			_, err := walker.Compile[string](context.Background(), &pathSink{}, schema, walker.NewScope(ldcontext.New(nil)))

			var se *schemaerr.SchemaShapeError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "/properties/bad", se.Path)
			assert.Equal(t, tt.got, se.Got)
		})
	}
}
