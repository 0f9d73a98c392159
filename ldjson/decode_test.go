package ldjson_test

import (
	"errors"
	"strings"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/jsonldschema/ldjson"
)

func TestDecode_KeepsKeyOrder(t *testing.T) {
	in := `{"zeta":1,"alpha":{"d":true,"c":null,"b":[1.5,"x",{"y":2}]},"mid":"m"}`
	v, err := ldjson.Decode([]byte(in))
	require.NoError(t, err)

	o, ok := v.(*ldjson.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, o.Keys())
	assert.Equal(t, []string{"d", "c", "b"}, o.Object("alpha").Keys())

	out, err := ldjson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestDecode_NumbersStayLiteral(t *testing.T) {
	v, err := ldjson.Decode([]byte(`{"i":2,"f":0.1,"n":-7}`))
	require.NoError(t, err)
	assert.Equal(t, j.Number("2"), v.(*ldjson.Object).Value("i"))
	out, err := ldjson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"i":2,"f":0.1,"n":-7}`, string(out))
}

func TestDecode_Duplicates(t *testing.T) {
	in := `{"a":{"k":1,"k":2}}`

	v, err := ldjson.Decode([]byte(in))
	require.NoError(t, err)
	out, _ := ldjson.Marshal(v)
	assert.Equal(t, `{"a":{"k":2}}`, string(out), "last value wins by default")

	_, err = ldjson.DecodeWith(strings.NewReader(in), ldjson.DecodeOptions{RejectDuplicates: true})
	var dup *ldjson.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "k", dup.Key)
	assert.Equal(t, "/a", dup.Path)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "trailing", in: `{} {}`},
		{name: "truncated", in: `{"a":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ldjson.Decode([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestObject_UnmarshalJSON(t *testing.T) {
	var o ldjson.Object
	require.NoError(t, o.UnmarshalJSON([]byte(`{"b":1,"a":2}`)))
	assert.Equal(t, []string{"b", "a"}, o.Keys())

	assert.Error(t, o.UnmarshalJSON([]byte(`[1]`)))
}

func TestDecodeYAML(t *testing.T) {
	in := `
type: object
properties:
  name: {type: string, minLength: 2}
  age: {type: integer, maximum: 1.5e2}
required: [name]
`
	v, err := ldjson.DecodeYAML([]byte(in))
	require.NoError(t, err)
	out, err := ldjson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"object","properties":{"name":{"type":"string","minLength":2},"age":{"type":"integer","maximum":150}},"required":["name"]}`,
		string(out))
}

func TestDecodeYAML_DuplicateKey(t *testing.T) {
	_, err := ldjson.DecodeYAML([]byte("a: 1\nb: 2\na: 3\n"))
	var dup *ldjson.YAMLDuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Key)
	assert.Equal(t, 1, dup.FirstLine)
	assert.Equal(t, 3, dup.Line)
}

func TestMarshalIndent(t *testing.T) {
	out, err := ldjson.MarshalIndent(ldjson.ObjectOf("b", true, "a", "x&y"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": true,\n  \"a\": \"x&y\"\n}\n", string(out))
}
