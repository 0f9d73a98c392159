package frame

import (
	"errors"

	"github.com/reoring/jsonldschema/ldcontext"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/schemaerr"
)

// mergeObject folds src into dst in place. Non-object sources are ignored,
// except arrays which cannot be merged into a structural object.
func mergeObject(dst *ldjson.Object, src any) error {
	nf, ok := src.(*ldjson.Object)
	if !ok || nf == nil {
		if _, isArr := src.([]any); isArr {
			return &schemaerr.MergeError{}
		}
		return nil
	}
	for _, key := range nf.Keys() {
		if !dst.Has(key) {
			dst.Set(key, nf.Value(key))
			continue
		}
		if err := mergeMember(dst, key, nf.Value(key)); err != nil {
			return err
		}
	}
	return nil
}

// mergeMember merges nv into the existing member key of dst.
func mergeMember(dst *ldjson.Object, key string, nv any) error {
	ev := dst.Value(key)
	switch key {
	case "@type":
		types := append(append([]any{}, ldjson.EnsureArray(ev)...), ldjson.EnsureArray(nv)...)
		dst.Set("@type", ldjson.UniqueValues(types))
	case "@context":
		// Colliding contexts are merged under "@frame", leaving "@context"
		// untouched. Consumers of existing frames rely on this layout.
		merged := ldcontext.FromValue(ev, nil).Merge(ldcontext.FromValue(nv, nil))
		dst.Set("@frame", merged.Value())
	default:
		eo, ok := ev.(*ldjson.Object)
		if !ok {
			if _, isArr := nv.([]any); isArr {
				return &schemaerr.MergeError{Key: key}
			}
			return nil
		}
		if err := mergeObject(eo, nv); err != nil {
			var me *schemaerr.MergeError
			if errors.As(err, &me) && me.Key == "" {
				me.Key = key
			}
			return err
		}
	}
	return nil
}
