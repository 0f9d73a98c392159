package shacl

import "github.com/reoring/jsonldschema/ldjson"

// combinatorOps lists the list-valued SHACL combinators in lookup order.
var combinatorOps = []string{"sh:and", "sh:or", "sh:xone"}

// mergeParentConstraints combines a property shape (carrying sh:path) with the
// compiled shape of its value. Transient constraints move onto the property
// shape; whatever else remains is attached as sh:node. When the value shape is
// a combinator, the property shape is distributed into each branch so that
// every branch carries its own sh:path. Each branch receives its own copy.
func mergeParentConstraints(ps, vs *ldjson.Object) *ldjson.Object {
	if op, ok := combinatorOf(vs); ok {
		// constraints attached to the wrapper hold for every branch
		if pc := extractParent(vs); pc != nil {
			setAll(ps, pc)
		}
		if op == "sh:not" {
			inner, _ := vs.Value(op).(*ldjson.Object)
			return ldjson.ObjectOf(op, mergeParentConstraints(ps.Clone(), inner))
		}
		var items []any
		if list, ok := vs.Value(op).(*ldjson.Object); ok {
			items, _ = list.Value("@list").([]any)
		}
		merged := make([]any, 0, len(items))
		for _, it := range items {
			bs, ok := it.(*ldjson.Object)
			if !ok {
				merged = append(merged, it)
				continue
			}
			merged = append(merged, mergeParentConstraints(ps.Clone(), bs))
		}
		return ldjson.ObjectOf(op, ldjson.ObjectOf("@list", merged))
	}

	if pc := extractParent(vs); pc != nil {
		setAll(ps, pc)
	}
	if vs.Len() > 0 {
		ps.Set("sh:node", vs)
	}
	return ps
}

func combinatorOf(shape *ldjson.Object) (string, bool) {
	for _, op := range combinatorOps {
		if shape.Has(op) {
			return op, true
		}
	}
	if shape.Has("sh:not") {
		return "sh:not", true
	}
	return "", false
}

// addParentConstraints merges constraints into the transient key of shape;
// new values win.
func addParentConstraints(shape, constraints *ldjson.Object) {
	if pc := shape.Object(parentConstraints); pc != nil {
		setAll(pc, constraints)
		return
	}
	shape.Set(parentConstraints, constraints)
}

// extractParent removes and returns the transient constraints of shape.
func extractParent(shape *ldjson.Object) *ldjson.Object {
	pc := shape.Object(parentConstraints)
	shape.Delete(parentConstraints)
	return pc
}

func setAll(dst, src *ldjson.Object) {
	src.Range(func(k string, v any) bool {
		dst.Set(k, v)
		return true
	})
}

// foldTransient moves leftover transient constraints into the shape owning
// them, recursively. Shapes with no enclosing property (the root, list items)
// end up with the constraints applied to themselves.
func foldTransient(v any) {
	switch t := v.(type) {
	case *ldjson.Object:
		if pc := extractParent(t); pc != nil {
			pc.Range(func(k string, cv any) bool {
				if !t.Has(k) {
					t.Set(k, cv)
				}
				return true
			})
		}
		t.Range(func(_ string, cv any) bool {
			foldTransient(cv)
			return true
		})
	case []any:
		for _, e := range t {
			foldTransient(e)
		}
	}
}
