package forms

import (
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Draft holds the in-progress field values of an editor keyed by json field
// name, as the browser submits them.
type Draft map[string]string

// DraftOf initialises a draft from a fetched entity.
func DraftOf(v interface{}) (Draft, error) {
	var m map[string]interface{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &m,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, errors.Wrap(err, "draft from entity")
	}
	d := Draft{}
	for k, val := range m {
		if val == nil {
			continue
		}
		d[k] = cast.ToString(val)
	}
	return d, nil
}

// Bind copies the submitted values of fields into the draft. Text is kept
// as typed except for surrounding whitespace on single line inputs.
func (d Draft) Bind(fields []Field, values url.Values) {
	for _, f := range fields {
		if f.Kind == KindFile {
			continue
		}
		v := values.Get(f.Name)
		if f.Kind != KindMarkdown {
			v = strings.TrimSpace(v)
		}
		d[f.Name] = v
	}
}

// Get returns the value of a field, empty when unset.
func (d Draft) Get(name string) string {
	return d[name]
}

// Decode builds a T from the draft. Empty values are left at their zero
// value; numbers are parsed leniently.
func Decode[T any](d Draft) (T, error) {
	var out T
	in := make(map[string]interface{}, len(d))
	for k, v := range d {
		if v == "" {
			continue
		}
		in[k] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(in); err != nil {
		return out, errors.Wrap(err, "decode draft")
	}
	return out, nil
}

// DecodeMap builds a T from a decoded JSON object, as the JSON mirror
// receives it.
func DecodeMap[T any](m map[string]interface{}) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(m); err != nil {
		return out, errors.Wrap(err, "decode payload")
	}
	return out, nil
}

// checkNumbers reports number fields whose value does not parse.
func checkNumbers(fields []Field, d Draft) FieldErrors {
	errs := FieldErrors{}
	for _, f := range fields {
		if f.Kind != KindNumber {
			continue
		}
		if v := d[f.Name]; v != "" {
			if _, err := cast.ToFloat64E(v); err != nil {
				errs[f.Name] = "Must be a number"
			}
		}
	}
	return errs
}
