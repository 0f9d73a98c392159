package ldcontext_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/jsonldschema/ldcontext"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

// termExpander resolves names through the string entries of the active
// context, the way a JSON-LD processor would for simple term definitions.
type termExpander struct {
	calls int
	seen  any
	err   error
}

func (e *termExpander) ExpandIRI(_ context.Context, active any, name string) (string, error) {
	e.calls++
	e.seen = active
	if e.err != nil {
		return "", e.err
	}
	defs, _ := active.(*ldjson.Object)
	iri, _ := defs.GetString(name)
	return iri, nil
}

func mustObject(t *testing.T, s string) *ldjson.Object {
	t.Helper()
	v, err := ldjson.Decode([]byte(s))
	require.NoError(t, err)
	o, ok := v.(*ldjson.Object)
	require.True(t, ok)
	return o
}

func TestUpdate_IdentityWithoutLocalContext(t *testing.T) {
	c := ldcontext.FromValue(ldjson.ObjectOf("a", "http://a/"), nil)
	assert.Same(t, c, c.Update(mustObject(t, `{"type":"object"}`)))
}

func TestUpdate_OverlaysWithoutTouchingParent(t *testing.T) {
	parent := ldcontext.FromValue(mustObject(t, `{"a":"http://a/","b":"http://b/"}`), nil)
	child := parent.Update(mustObject(t, `{"@context":{"b":"http://b2/","c":"http://c/"}}`))

	v, _ := child.Lookup("b")
	assert.Equal(t, "http://b2/", v, "last write wins")
	v, _ = child.Lookup("a")
	assert.Equal(t, "http://a/", v, "bound names survive")

	v, _ = parent.Lookup("b")
	assert.Equal(t, "http://b/", v)
	_, ok := parent.Lookup("c")
	assert.False(t, ok)
}

func TestMerge_IsShallow(t *testing.T) {
	a := ldcontext.FromValue(mustObject(t, `{"p":{"@id":"http://p/","@type":"@id"}}`), nil)
	b := ldcontext.FromValue(mustObject(t, `{"p":{"@container":"@set"}}`), nil)
	v, _ := a.Merge(b).Lookup("p")
	out, err := ldjson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"@container":"@set"}`, string(out))
}

func TestValue_RemoteContexts(t *testing.T) {
	c := ldcontext.FromValue([]any{"https://schema.org/", mustObject(t, `{"ex":"http://ex/"}`)}, nil)
	out, err := ldjson.Marshal(c.Value())
	require.NoError(t, err)
	assert.Equal(t, `["https://schema.org/",{"ex":"http://ex/"}]`, string(out))
	assert.False(t, c.IsEmpty())
	assert.True(t, ldcontext.New(nil).IsEmpty())
}

func TestExpand(t *testing.T) {
	ctx := context.Background()
	exp := &termExpander{}
	c := ldcontext.FromValue(mustObject(t, `{"name":"http://schema.org/name"}`), exp)

	iri, err := c.Expand(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "http://schema.org/name", iri)
	out, err := ldjson.Marshal(exp.seen)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"http://schema.org/name"}`, string(out), "the processor sees the active context")

	iri, err = c.Expand(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, iri)

	calls := exp.calls
	iri, err = c.Expand(ctx, "@type")
	require.NoError(t, err)
	assert.Empty(t, iri)
	assert.Equal(t, calls, exp.calls, "keywords are never sent to the processor")
}

func TestExpand_EmptyContextSkipsProcessor(t *testing.T) {
	exp := &termExpander{}
	iri, err := ldcontext.New(exp).Expand(context.Background(), "name")
	require.NoError(t, err)
	assert.Empty(t, iri)
	assert.Zero(t, exp.calls)
}

func TestExpand_ProcessorFailure(t *testing.T) {
	boom := errors.New("boom")
	c := ldcontext.FromValue(ldjson.ObjectOf("a", "http://a/"), &termExpander{err: boom})
	_, err := c.Expand(context.Background(), "a")

	var ee *schemaerr.ExpansionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "a", ee.Term)
	assert.ErrorIs(t, err, boom)
}

func TestHasVocab(t *testing.T) {
	assert.False(t, ldcontext.New(nil).HasVocab())
	assert.False(t, ldcontext.FromValue(ldjson.ObjectOf("ex", "http://ex/"), nil).HasVocab())
	assert.True(t, ldcontext.FromValue(ldjson.ObjectOf("@vocab", "http://ex/"), nil).HasVocab())
	assert.True(t, ldcontext.FromValue("https://schema.org/", nil).HasVocab(), "a remote context may bind one")
}
