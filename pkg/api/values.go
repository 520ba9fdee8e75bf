package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ssargent/bitrec/pkg/codec"
	"github.com/ssargent/bitrec/pkg/config"
)

// applyValues writes named JSON values into the matching record fields.
// Unknown names, kind mismatches and out-of-range literals are errors;
// fields not named keep the values the schema seeded.
func applyValues(def *config.SchemaDef, rec *codec.Record, values map[string]interface{}) error {
	for name, v := range values {
		i := def.FieldIndex(name)
		if i < 0 {
			return fmt.Errorf("schema %q has no field %q", def.Name, name)
		}
		f := rec.Field(i)

		switch f.Kind() {
		case codec.KindBool:
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("field %q wants a boolean", name)
			}
			f.SetBool(b)

		case codec.KindString:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("field %q wants a string", name)
			}
			f.SetStr(s)

		case codec.KindNumber, codec.KindBits:
			if f.Signed() {
				n, err := toInt(v)
				if err != nil {
					return fmt.Errorf("field %q: %w", name, err)
				}
				f.SetInt(n)
			} else {
				n, err := toUint(v)
				if err != nil {
					return fmt.Errorf("field %q: %w", name, err)
				}
				f.SetUint(n)
			}

		case codec.KindArray:
			elems, ok := v.([]interface{})
			if !ok {
				return fmt.Errorf("field %q wants an array", name)
			}
			if len(elems) != f.Len() {
				return fmt.Errorf("field %q wants %d elements, got %d", name, f.Len(), len(elems))
			}
			for j, e := range elems {
				if f.Signed() {
					n, err := toInt(e)
					if err != nil {
						return fmt.Errorf("field %q element %d: %w", name, j, err)
					}
					f.SetIntAt(j, n)
				} else {
					n, err := toUint(e)
					if err != nil {
						return fmt.Errorf("field %q element %d: %w", name, j, err)
					}
					f.SetAt(j, n)
				}
			}
		}
	}
	return nil
}

// recordValues renders the record's non-separator fields as a name to
// value map.
func recordValues(def *config.SchemaDef, rec *codec.Record) map[string]interface{} {
	out := make(map[string]interface{}, rec.Len())
	for i, fd := range def.Fields {
		if fd.Kind == "separator" {
			continue
		}
		out[fd.Name] = fieldValue(rec.Field(i))
	}
	return out
}

// fieldViews renders every field in wire order, separators included.
func fieldViews(def *config.SchemaDef, rec *codec.Record) []FieldView {
	views := make([]FieldView, rec.Len())
	for i, fd := range def.Fields {
		f := rec.Field(i)
		view := FieldView{
			Name: fd.Name,
			Kind: f.Kind().String(),
		}
		switch f.Kind() {
		case codec.KindBool, codec.KindString:
			view.Value = fieldValue(f)
		case codec.KindNumber, codec.KindBits:
			view.Width = f.Width()
			view.Signed = f.Signed()
			view.Value = fieldValue(f)
		case codec.KindArray:
			view.Width = f.Width()
			view.Count = f.Len()
			view.Signed = f.Signed()
			view.Value = fieldValue(f)
		}
		views[i] = view
	}
	return views
}

func fieldValue(f *codec.Field) interface{} {
	switch f.Kind() {
	case codec.KindBool:
		return f.Bool()
	case codec.KindString:
		return f.Str()
	case codec.KindNumber, codec.KindBits:
		if f.Signed() {
			return f.Int()
		}
		return f.Uint()
	case codec.KindArray:
		if f.Signed() {
			vals := make([]int64, f.Len())
			for i := range vals {
				vals[i] = f.IntAt(i)
			}
			return vals
		}
		vals := make([]uint64, f.Len())
		for i := range vals {
			vals[i] = f.At(i)
		}
		return vals
	}
	return nil
}

// toUint coerces a JSON literal to uint64. Request bodies are decoded
// with UseNumber so full 64-bit values survive; the float64 and int
// cases cover callers that build value maps directly.
func toUint(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s is not an unsigned integer", n.String())
		}
		return u, nil
	case float64:
		if n < 0 || n >= 1<<64 || n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an unsigned integer", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("%d is not an unsigned integer", n)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("expected an unsigned integer, got %T", v)
	}
}

// toInt coerces a JSON literal to int64.
func toInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", n.String())
		}
		return i, nil
	case float64:
		if n < -(1 << 63) || n >= 1<<63 || n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
