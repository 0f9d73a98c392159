// Package ldjson models JSON values the way the schema compilers need them:
// objects keep their key order so that properties, combinator branches and
// required lists are compiled in declaration order, and encoding is stable so
// that compiling the same schema twice yields byte-identical output.
//
// Values are one of *Object, []any, string, json.Number, bool or nil.
package ldjson

// Object is an insertion-ordered JSON object.
// The zero value is not usable; construct with NewObject or ObjectOf.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: map[string]any{}}
}

// ObjectOf builds an object from alternating key/value arguments. Non-string
// keys are skipped.
func ObjectOf(kv ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		o.Set(k, kv[i+1])
	}
	return o
}

// Len returns the number of members. A nil object has length zero.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the member names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Get returns the member value and whether it is present.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Value returns the member value or nil.
func (o *Object) Value(key string) any {
	v, _ := o.Get(key)
	return v
}

// Has reports whether key is present, even when bound to null.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Object returns the member as an object, or nil when absent or not an object.
func (o *Object) Object(key string) *Object {
	v, _ := o.Value(key).(*Object)
	return v
}

// GetString returns the member as a string and whether it was one.
func (o *Object) GetString(key string) (string, bool) {
	s, ok := o.Value(key).(string)
	return s, ok
}

// Set binds key to v. An existing key keeps its position.
func (o *Object) Set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Delete removes key if present.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{keys: append([]string(nil), o.keys...), values: make(map[string]any, len(o.values))}
	for k, v := range o.values {
		out.values[k] = DeepCopy(v)
	}
	return out
}

// Range calls fn for each member in order until fn returns false.
func (o *Object) Range(fn func(key string, v any) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}
