package frame_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/jsonldschema/deref"
	"github.com/reoring/jsonldschema/frame"
	"github.com/reoring/jsonldschema/jsonld"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := ldjson.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func parse(t *testing.T, schema string) *ldjson.Object {
	t.Helper()
	c := &frame.Compiler{Resolver: &deref.Resolver{}}
	f, err := c.Parse(context.Background(), decode(t, schema))
	require.NoError(t, err)
	return f
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := ldjson.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestParse_BooleanSchemas(t *testing.T) {
	c := &frame.Compiler{}
	f, err := c.Parse(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, `{}`, marshal(t, f))

	f, err = c.Parse(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, f)

	// neither shows up inside a parent
	assert.Equal(t, `{"@type":["T"]}`, marshal(t, parse(t, `{"@type":"T","properties":{"a":true,"b":false}}`)))
}

func TestParse_UnanchoredSubtreesOmitted(t *testing.T) {
	f := parse(t, `{
		"@type": "Person",
		"properties": {
			"name": {"type": "string", "minLength": 2},
			"age": {"type": "integer", "minimum": 0},
			"knows": {"@type": "Person"}
		}
	}`)
	assert.Equal(t, `{"@type":["Person"],"knows":{"@type":["Person"]}}`, marshal(t, f))
}

func TestParse_TypeOnlyRoundTrip(t *testing.T) {
	assert.Equal(t, `{"@type":["T"]}`, marshal(t, parse(t, `{"@type":"T"}`)))
}

func TestParse_ItemsLiftContainerIntoParentContext(t *testing.T) {
	f := parse(t, `{
		"@context": {"ex": "http://example.org/", "members": "ex:members"},
		"@type": "ex:Group",
		"properties": {
			"members": {"type": "array", "items": {"@type": "ex:Person"}}
		}
	}`)

	members := f.Object("members")
	require.NotNil(t, members)
	assert.False(t, members.Has("@container"), "nested frame must not keep the marker")
	assert.Equal(t, []any{"ex:Person"}, members.Value("@type"))

	assert.Equal(t,
		`{"ex":"http://example.org/","members":{"@id":"ex:members","@container":"@set"}}`,
		marshal(t, f.Value("@context")))
	assert.False(t, f.Has("@container"), "top-level marker is stripped")
}

func TestParse_ContainerWithoutTermDefinition(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   string
	}{
		{
			name:   "unmapped term is left alone",
			schema: `{"properties":{"tags":{"items":{"@type":"Tag"}}}}`,
			want:   `{"tags":{"@type":["Tag"]}}`,
		},
		{
			name:   "absolute IRI names itself",
			schema: `{"properties":{"http://ex/tags":{"items":{"@type":"Tag"}}}}`,
			want:   `{"http://ex/tags":{"@type":["Tag"]},"@context":{"http://ex/tags":{"@id":"http://ex/tags","@container":"@set"}}}`,
		},
		{
			name:   "vocab maps the term",
			schema: `{"@context":{"@vocab":"http://ex/"},"properties":{"tags":{"items":{"@type":"Tag"}}}}`,
			want:   `{"tags":{"@type":["Tag"]},"@context":{"@vocab":"http://ex/","tags":{"@container":"@set"}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, marshal(t, parse(t, tt.schema)))
		})
	}
}

func TestParse_ContainerKeepsDescriptor(t *testing.T) {
	f := parse(t, `{
		"@context": {"tags": {"@id": "http://ex/tags", "@type": "@id"}},
		"properties": {"tags": {"items": {"@type": "Tag"}}}
	}`)
	assert.Equal(t,
		`{"tags":{"@id":"http://ex/tags","@type":"@id","@container":"@set"}}`,
		marshal(t, f.Value("@context")))
}

func TestParse_ItemsArrayUsesFirstElement(t *testing.T) {
	f := parse(t, `{"items":[{"@type":"First"},{"@type":"Second"}]}`)
	assert.Equal(t, `{"@type":["First"]}`, marshal(t, f))
}

func TestParse_TypeUnionIsOrderIndependent(t *testing.T) {
	a := parse(t, `{"items":{"@type":"A"},"allOf":[{"@type":["B","A"]}]}`)
	b := parse(t, `{"items":{"@type":["B"]},"allOf":[{"@type":"A"},{"@type":"B"}]}`)

	assert.ElementsMatch(t, []any{"A", "B"}, a.Value("@type"))
	assert.ElementsMatch(t, []any{"A", "B"}, b.Value("@type"))
	assert.Len(t, a.Value("@type"), 2)
	assert.Len(t, b.Value("@type"), 2)
}

func TestParse_CombinatorsMergeIntoNode(t *testing.T) {
	f := parse(t, `{
		"@type": "Pet",
		"oneOf": [
			{"properties": {"owner": {"@type": "Person"}}},
			{"properties": {"owner": {"@type": "Org"}, "vet": {"@type": "Vet"}}}
		],
		"not": {"@type": "Robot"}
	}`)
	assert.Equal(t,
		`{"@type":["Pet","Robot"],"owner":{"@type":["Person","Org"]},"vet":{"@type":["Vet"]}}`,
		marshal(t, f))
}

func TestParse_LocalContextsReachTheFrame(t *testing.T) {
	f := parse(t, `{
		"@context": "https://schema.org/",
		"@type": "Person",
		"properties": {"knows": {"type": "array", "items": {"@type": "Person"}}}
	}`)
	assert.Equal(t, `["https://schema.org/",{"knows":{"@container":"@set"}}]`, marshal(t, f.Value("@context")))
}

func TestParse_Dereferences(t *testing.T) {
	f := parse(t, `{
		"definitions": {"Person": {"@type": "Person", "properties": {"knows": {"$ref": "#/definitions/Person"}}}},
		"properties": {"author": {"$ref": "#/definitions/Person"}}
	}`)
	// the cycle stays a $ref and frames nothing
	assert.Equal(t, `{"author":{"@type":["Person"],"knows":{"@type":["Person"]}}}`, marshal(t, f))
}

// The merged context of two colliding fragments lands under "@frame" while
// "@context" keeps the first fragment's entries. This looks like a defect but
// existing consumers depend on the layout, so it is pinned here.
func TestParse_ContextCollisionGoesToFrameKey_Suspect(t *testing.T) {
	f := parse(t, `{"@context":{"@vocab":"http://ex/"},"allOf":[
		{"properties":{"xs":{"items":{"@type":"X"}}}},
		{"properties":{"ys":{"items":{"@type":"Y"}}}}
	]}`)

	assert.Equal(t, `{"@vocab":"http://ex/","xs":{"@container":"@set"}}`, marshal(t, f.Value("@context")))
	assert.Equal(t, `{"xs":{"@container":"@set"},"ys":{"@container":"@set"}}`, marshal(t, f.Value("@frame")))
}

func TestParse_Deterministic(t *testing.T) {
	schema := `{
		"@context": {"ex": "http://example.org/"},
		"@type": ["ex:A", "ex:B"],
		"properties": {
			"z": {"@type": "ex:Z"},
			"a": {"items": {"@type": "ex:Item"}},
			"m": {"anyOf": [{"@type": "ex:M1"}, {"@type": "ex:M2"}]}
		}
	}`
	input := decode(t, schema)
	before := marshal(t, input)

	c := &frame.Compiler{Resolver: &deref.Resolver{}}
	first, err := c.Parse(context.Background(), input)
	require.NoError(t, err)
	second, err := c.Parse(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, marshal(t, first), marshal(t, second))
	assert.Equal(t, before, marshal(t, input), "schema is not mutated")
}

func TestParse_ShapeErrors(t *testing.T) {
	c := &frame.Compiler{}
	_, err := c.Parse(context.Background(), decode(t, `{"properties":{"a":"string"}}`))
	var se *schemaerr.SchemaShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/properties/a", se.Path)

	_, err = c.Parse(context.Background(), decode(t, `{"items":{"$ref":"#/missing"}}`))
	require.NoError(t, err, "without a resolver $ref is an ordinary keyword")

	_, err = (&frame.Compiler{Resolver: &deref.Resolver{}}).Parse(context.Background(), decode(t, `{"items":{"$ref":"#/missing"}}`))
	assert.True(t, schemaerr.IsReferenceError(err))
}

func TestIsProper(t *testing.T) {
	assert.False(t, frame.IsProper(nil))
	assert.False(t, frame.IsProper(ldjson.NewObject()))
	assert.True(t, frame.IsProper(ldjson.ObjectOf("@type", []any{"T"})))
}

func TestParse_PlainMapSchema(t *testing.T) {
	var schema any
	require.NoError(t, json.Unmarshal([]byte(`{"@type":"T","properties":{"b":{"@type":"B"},"a":{"@type":"A"}}}`), &schema))

	f, err := (&frame.Compiler{Resolver: &deref.Resolver{}}).Parse(context.Background(), schema)
	require.NoError(t, err)
	assert.Equal(t, `{"@type":["T"],"a":{"@type":["A"]},"b":{"@type":["B"]}}`, marshal(t, f), "keys come out sorted")
}

func frameWith(t *testing.T, schema, doc string) map[string]any {
	t.Helper()
	f := parse(t, schema)
	out, err := jsonld.NewProcessor(jsonld.Options{}).Frame(context.Background(), decode(t, doc), f)
	require.NoError(t, err)
	return out
}

func graphNode(t *testing.T, framed map[string]any) map[string]any {
	t.Helper()
	g, ok := framed["@graph"].([]any)
	require.True(t, ok)
	require.Len(t, g, 1)
	n, ok := g[0].(map[string]any)
	require.True(t, ok)
	return n
}

func TestParse_FramesAcceptedByProcessor(t *testing.T) {
	t.Run("unmapped array property", func(t *testing.T) {
		out := frameWith(t,
			`{"@type":"http://ex/Group","properties":{"tags":{"type":"array","items":{"@type":"http://ex/Tag"}}}}`,
			`{"@id":"http://ex/g","@type":"http://ex/Group","http://ex/tags":{"@id":"http://ex/t1","@type":"http://ex/Tag"}}`)
		assert.Equal(t, "http://ex/g", graphNode(t, out)["@id"])
	})

	t.Run("IRI named array property stays a set", func(t *testing.T) {
		out := frameWith(t,
			`{"@type":"http://ex/Group","properties":{"http://ex/tags":{"items":{"@type":"http://ex/Tag"}}}}`,
			`{"@id":"http://ex/g","@type":"http://ex/Group","http://ex/tags":{"@id":"http://ex/t1","@type":"http://ex/Tag"}}`)
		tags, ok := graphNode(t, out)["http://ex/tags"].([]any)
		require.True(t, ok)
		assert.Len(t, tags, 1)
	})

	t.Run("vocab term stays a set", func(t *testing.T) {
		out := frameWith(t,
			`{"@context":{"@vocab":"http://ex/"},"@type":"Group","properties":{"tags":{"items":{"@type":"Tag"}}}}`,
			`{"@context":{"@vocab":"http://ex/"},"@id":"http://ex/g","@type":"Group","tags":{"@id":"http://ex/t1","@type":"Tag"}}`)
		tags, ok := graphNode(t, out)["tags"].([]any)
		require.True(t, ok)
		assert.Len(t, tags, 1)
	})
}

// A @container annotation lifted into a nested frame's @context does not
// reach compaction, which only uses the top-level context: a one-element
// nested array comes back as a single object.
func TestParse_NestedContainerNotCompacted_KnownLimitation(t *testing.T) {
	schema := `{
		"@context": {"@vocab": "http://schema.org/"},
		"@type": "Project",
		"properties": {
			"org": {"@type": "Organization", "properties": {"member": {"items": {"@type": "Person"}}}}
		}
	}`
	f := parse(t, schema)
	assert.Equal(t, `{"member":{"@container":"@set"}}`, marshal(t, f.Object("org").Value("@context")))

	out := frameWith(t, schema, `{
		"@context": {"@vocab": "http://schema.org/"},
		"@id": "http://ex/p", "@type": "Project",
		"org": {"@id": "http://ex/o", "@type": "Organization", "member": {"@id": "http://ex/m", "@type": "Person"}}
	}`)
	org, ok := graphNode(t, out)["org"].(map[string]any)
	require.True(t, ok)
	assert.IsType(t, map[string]any{}, org["member"])
}
