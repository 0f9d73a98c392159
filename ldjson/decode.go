package ldjson

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"
)

// DuplicateKeyError reports a repeated member name inside one object.
type DuplicateKeyError struct {
	Key  string
	Path string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate JSON key %q at %s", e.Key, e.Path)
}

// DecodeOptions controls decoding.
type DecodeOptions struct {
	// RejectDuplicates turns repeated keys into a DuplicateKeyError. When false the
	// last value wins and keeps the position of the first occurrence.
	RejectDuplicates bool
}

// Decode parses a single JSON document into ordered values.
func Decode(data []byte) (any, error) {
	return DecodeWith(bytes.NewReader(data), DecodeOptions{})
}

// DecodeReader parses a single JSON document from r.
func DecodeReader(r io.Reader) (any, error) {
	return DecodeWith(r, DecodeOptions{})
}

// DecodeWith parses a single JSON document from r using opts.
func DecodeWith(r io.Reader, opts DecodeOptions) (any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	d := &decoder{dec: dec, opts: opts}
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("ldjson: empty input")
		}
		return nil, fmt.Errorf("ldjson: %w", err)
	}
	v, err := d.value(tok, Root())
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("ldjson: %w", err)
		}
		return nil, errors.New("ldjson: trailing data after top-level value")
	}
	return v, nil
}

type decoder struct {
	dec  *j.Decoder
	opts DecodeOptions
}

func (d *decoder) value(tok j.Token, at Pointer) (any, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return d.object(at)
		case '[':
			return d.array(at)
		}
		return nil, fmt.Errorf("ldjson: unexpected %q at %s", rune(v), at)
	case string, bool, j.Number:
		return v, nil
	case float64:
		return j.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("ldjson: unsupported token %T at %s", tok, at)
}

func (d *decoder) object(at Pointer) (*Object, error) {
	o := NewObject()
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("ldjson: %w", err)
		}
		if delim, ok := tok.(j.Delim); ok && delim == '}' {
			return o, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("ldjson: expected object key at %s, got %T", at, tok)
		}
		if d.opts.RejectDuplicates && o.Has(key) {
			return nil, &DuplicateKeyError{Key: key, Path: at.String()}
		}
		vt, err := d.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("ldjson: %w", err)
		}
		v, err := d.value(vt, at.Field(key))
		if err != nil {
			return nil, err
		}
		o.Set(key, v)
	}
}

func (d *decoder) array(at Pointer) ([]any, error) {
	out := []any{}
	for i := 0; ; i++ {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("ldjson: %w", err)
		}
		if delim, ok := tok.(j.Delim); ok && delim == ']' {
			return out, nil
		}
		v, err := d.value(tok, at.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// UnmarshalJSON decodes an object in place, keeping key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	src, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("ldjson: cannot unmarshal %T into Object", v)
	}
	*o = *src
	return nil
}
