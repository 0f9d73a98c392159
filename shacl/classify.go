package shacl

import (
	"context"

	j "github.com/goccy/go-json"

	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/walker"
)

var (
	objectKeywords = []string{
		"properties", "maxProperties", "minProperties",
		"required", "patternProperties", "additionalProperties",
		"dependencies", "propertyNames",
	}
	arrayKeywords = []string{
		"items", "additionalItems", "maxItems",
		"minItems", "uniqueItems", "contains",
	}
	stringKeywords  = []string{"maxLength", "minLength", "pattern"}
	numericKeywords = []string{"multipleOf", "maximum", "minimum", "exclusiveMaximum", "exclusiveMinimum"}
	// a bare @type makes a node shape unless the schema says the value is not an object
	scalarTypes = []string{"string", "number", "integer", "boolean", "array", "null"}
)

func hasAny(node *ldjson.Object, keywords []string) bool {
	for _, k := range keywords {
		if node.Has(k) {
			return true
		}
	}
	return false
}

// typeIs reports whether the JSON Schema "type" names one of names, either as
// a string or inside an array of types.
func typeIs(node *ldjson.Object, names ...string) bool {
	for _, t := range ldjson.EnsureArray(node.Value("type")) {
		s, ok := t.(string)
		if !ok {
			continue
		}
		for _, n := range names {
			if s == n {
				return true
			}
		}
	}
	return false
}

// objectShape builds the node shape for object keywords. A $ref left over
// after dereferencing (a cycle) matches anything.
func objectShape(ctx context.Context, node *ldjson.Object, s walker.Scope) (*ldjson.Object, error) {
	if node.Value("$ref") != nil {
		return ldjson.NewObject(), nil
	}
	semType := node.Value("@type")
	if !hasAny(node, objectKeywords) && !typeIs(node, "object") && (semType == nil || typeIs(node, scalarTypes...)) {
		return nil, nil
	}

	propertyShapes := ldjson.NewObject()
	if props := node.Object("properties"); props != nil {
		for _, name := range props.Keys() {
			ps, err := propertyShape(ctx, name, s)
			if err != nil {
				return nil, err
			}
			vs, err := Compile(ctx, props.Value(name), s.Field("properties", name))
			if err != nil {
				return nil, err
			}
			propertyShapes.Set(name, mergeParentConstraints(ps, vs))
		}
	}

	nodeShape := ldjson.ObjectOf("@type", "sh:NodeShape")
	for _, kw := range node.Keys() {
		switch kw {
		case "required":
			if err := requireProperties(ctx, propertyShapes, node.Value(kw), s); err != nil {
				return nil, err
			}
		case "additionalProperties":
			// only false maps to SHACL; schemas for extra members are ignored
			if b, ok := node.Value(kw).(bool); ok && !b {
				nodeShape.Set("sh:closed", true)
			}
		}
	}

	if semType != nil {
		class, err := classOf(ctx, semType, s)
		if err != nil {
			return nil, err
		}
		if class != nil {
			nodeShape.Set("sh:class", class)
		}
	}

	if propertyShapes.Len() > 0 {
		list := make([]any, 0, propertyShapes.Len())
		propertyShapes.Range(func(_ string, v any) bool {
			list = append(list, v)
			return true
		})
		nodeShape.Set("sh:property", list)
	}
	return nodeShape, nil
}

func propertyShape(ctx context.Context, name string, s walker.Scope) (*ldjson.Object, error) {
	iri, err := expandName(ctx, name, s)
	if err != nil {
		return nil, err
	}
	return ldjson.ObjectOf("sh:path", idRef(iri)), nil
}

func classOf(ctx context.Context, semType any, s walker.Scope) (any, error) {
	var classes []any
	for _, t := range ldjson.EnsureArray(semType) {
		name, ok := t.(string)
		if !ok || name == "" {
			continue
		}
		iri, err := expandName(ctx, name, s)
		if err != nil {
			return nil, err
		}
		classes = append(classes, idRef(iri))
	}
	switch len(classes) {
	case 0:
		return nil, nil
	case 1:
		return classes[0], nil
	}
	return classes, nil
}

// requireProperties raises sh:minCount to at least 1 for every required name,
// creating bare property shapes for names without a properties entry.
func requireProperties(ctx context.Context, shapes *ldjson.Object, required any, s walker.Scope) error {
	names, _ := required.([]any)
	for _, r := range names {
		name, ok := r.(string)
		if !ok {
			continue
		}
		ps := shapes.Object(name)
		if ps == nil {
			var err error
			if ps, err = propertyShape(ctx, name, s); err != nil {
				return err
			}
		}
		if !atLeastOne(ps.Value("sh:minCount")) {
			ps.Set("sh:minCount", 1)
		}
		shapes.Set(name, ps)
	}
	return nil
}

func atLeastOne(v any) bool {
	switch n := v.(type) {
	case int:
		return n >= 1
	case j.Number:
		f, err := n.Float64()
		return err == nil && f >= 1
	case float64:
		return n >= 1
	}
	return false
}

// arrayShape compiles items into the value shape; cardinality keywords go to
// the enclosing property.
func arrayShape(ctx context.Context, node *ldjson.Object, s walker.Scope) (*ldjson.Object, error) {
	if !hasAny(node, arrayKeywords) && !typeIs(node, "array") {
		return nil, nil
	}
	shape, err := itemsShape(ctx, node, s)
	if err != nil {
		return nil, err
	}

	constraints := ldjson.NewObject()
	for _, kw := range node.Keys() {
		switch kw {
		case "maxItems":
			constraints.Set("sh:maxCount", node.Value(kw))
		case "minItems":
			constraints.Set("sh:minCount", node.Value(kw))
		case "contains":
			cs, err := Compile(ctx, node.Value(kw), s.Field(kw))
			if err != nil {
				return nil, err
			}
			foldTransient(cs)
			constraints.Set("sh:hasValue", cs)
		}
	}
	if constraints.Len() > 0 {
		addParentConstraints(shape, constraints)
	}
	return shape, nil
}

func itemsShape(ctx context.Context, node *ldjson.Object, s walker.Scope) (*ldjson.Object, error) {
	switch items := node.Value("items").(type) {
	case nil:
		return ldjson.NewObject(), nil
	case []any:
		list := make([]any, 0, len(items))
		for i, it := range items {
			is, err := Compile(ctx, it, s.Field("items").Index(i))
			if err != nil {
				return nil, err
			}
			foldTransient(is)
			list = append(list, is)
		}
		return ldjson.ObjectOf("@list", list), nil
	default:
		return Compile(ctx, items, s.Field("items"))
	}
}

// stringShape maps string keywords; a string schema only annotates the
// property pointing at it.
func stringShape(node *ldjson.Object) *ldjson.Object {
	if !hasAny(node, stringKeywords) && !typeIs(node, "string") {
		return nil
	}
	constraints := ldjson.ObjectOf("sh:datatype", idRef("xsd:string"))
	for _, kw := range node.Keys() {
		switch kw {
		case "maxLength":
			constraints.Set("sh:maxLength", node.Value(kw))
		case "minLength":
			constraints.Set("sh:minLength", node.Value(kw))
		case "pattern":
			constraints.Set("sh:pattern", node.Value(kw))
		}
	}
	return ldjson.ObjectOf(parentConstraints, constraints)
}

// numericShape maps numeric bounds verbatim; multipleOf has no SHACL core
// counterpart.
func numericShape(node *ldjson.Object) *ldjson.Object {
	if !hasAny(node, numericKeywords) && !typeIs(node, "number", "integer") {
		return nil
	}
	constraints := ldjson.NewObject()
	for _, kw := range node.Keys() {
		switch kw {
		case "maximum":
			constraints.Set("sh:maxInclusive", node.Value(kw))
		case "minimum":
			constraints.Set("sh:minInclusive", node.Value(kw))
		case "exclusiveMaximum":
			constraints.Set("sh:maxExclusive", node.Value(kw))
		case "exclusiveMinimum":
			constraints.Set("sh:minExclusive", node.Value(kw))
		}
	}
	return ldjson.ObjectOf(parentConstraints, constraints)
}

// combinatorShapes yields one fragment per combinator keyword, in the order
// the keywords appear in the schema. if/then/else are not supported.
func combinatorShapes(ctx context.Context, node *ldjson.Object, s walker.Scope) ([]*ldjson.Object, error) {
	if !hasAny(node, walker.CombinatorKeywords) {
		return nil, nil
	}
	var out []*ldjson.Object
	for _, kw := range node.Keys() {
		var op string
		switch kw {
		case "allOf":
			op = "sh:and"
		case "anyOf":
			op = "sh:or"
		case "oneOf":
			op = "sh:xone"
		case "not":
			ns, err := Compile(ctx, node.Value(kw), s.Field(kw))
			if err != nil {
				return nil, err
			}
			out = append(out, ldjson.ObjectOf("sh:not", ns))
			continue
		default:
			continue
		}
		subs, err := subShapes(ctx, node.Value(kw), s.Field(kw))
		if err != nil {
			return nil, err
		}
		out = append(out, ldjson.ObjectOf(op, ldjson.ObjectOf("@list", subs)))
	}
	return out, nil
}

func subShapes(ctx context.Context, v any, s walker.Scope) ([]any, error) {
	arr, _ := v.([]any)
	out := make([]any, 0, len(arr))
	for i, sub := range arr {
		shape, err := Compile(ctx, sub, s.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, shape)
	}
	return out, nil
}
