/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"

	"github.com/ssargent/bitrec/pkg/bitfield"
	"github.com/ssargent/bitrec/pkg/codec"
)

// SchemaDef is a declarative record schema. Field order is wire order.
type SchemaDef struct {
	Name   string     `yaml:"name"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef describes one field of a record schema.
//
// Kind is one of separator, bool, string, uint, int, bits or array.
// Width applies to uint, int, bits and array kinds and must be 8, 16,
// 32 or 64. Count applies to arrays (1..255). Signed selects a signed
// array. Default, when present, seeds the in-memory value: a scalar
// for scalar kinds, a scalar or list for arrays.
type FieldDef struct {
	Name    string `yaml:"name,omitempty"`
	Kind    string `yaml:"kind"`
	Width   int    `yaml:"width,omitempty"`
	Count   int    `yaml:"count,omitempty"`
	Signed  bool   `yaml:"signed,omitempty"`
	Default any    `yaml:"default,omitempty"`
}

// Build constructs a fresh record from the schema definition.
func (s *SchemaDef) Build() (*codec.Record, error) {
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("schema %q has no fields", s.Name)
	}

	seen := make(map[string]bool, len(s.Fields))
	fields := make([]*codec.Field, 0, len(s.Fields))
	for i, fd := range s.Fields {
		if fd.Kind != "separator" {
			if fd.Name == "" {
				return nil, fmt.Errorf("schema %q: field %d has no name", s.Name, i)
			}
			if seen[fd.Name] {
				return nil, fmt.Errorf("schema %q: duplicate field name %q", s.Name, fd.Name)
			}
			seen[fd.Name] = true
		}

		f, err := fd.build()
		if err != nil {
			return nil, fmt.Errorf("schema %q field %q: %w", s.Name, fd.Name, err)
		}
		fields = append(fields, f)
	}

	return codec.NewRecord(fields...), nil
}

// FieldIndex returns the position of the named field, or -1.
func (s *SchemaDef) FieldIndex(name string) int {
	for i, fd := range s.Fields {
		if fd.Kind != "separator" && fd.Name == name {
			return i
		}
	}
	return -1
}

func (fd *FieldDef) build() (*codec.Field, error) {
	switch fd.Kind {
	case "separator":
		return codec.NewSeparator(), nil

	case "bool":
		v := false
		if fd.Default != nil {
			b, ok := fd.Default.(bool)
			if !ok {
				return nil, fmt.Errorf("default %v is not a bool", fd.Default)
			}
			v = b
		}
		return codec.NewBool(v), nil

	case "string":
		v := ""
		if fd.Default != nil {
			s, ok := fd.Default.(string)
			if !ok {
				return nil, fmt.Errorf("default %v is not a string", fd.Default)
			}
			v = s
		}
		return codec.NewString(v), nil

	case "uint":
		if err := checkWidth(fd.Width); err != nil {
			return nil, err
		}
		v, err := defaultUint(fd.Default)
		if err != nil {
			return nil, err
		}
		return codec.NewUint(fd.Width, v), nil

	case "int":
		if err := checkWidth(fd.Width); err != nil {
			return nil, err
		}
		v, err := defaultInt(fd.Default)
		if err != nil {
			return nil, err
		}
		return codec.NewInt(fd.Width, v), nil

	case "bits":
		if err := checkWidth(fd.Width); err != nil {
			return nil, err
		}
		v, err := defaultUint(fd.Default)
		if err != nil {
			return nil, err
		}
		return codec.NewBits(fd.Width, v), nil

	case "array":
		if err := checkWidth(fd.Width); err != nil {
			return nil, err
		}
		if fd.Count < 1 || fd.Count > 255 {
			return nil, fmt.Errorf("array count %d out of range 1..255", fd.Count)
		}
		var f *codec.Field
		if fd.Signed {
			f = codec.NewIntArray(fd.Width, fd.Count)
		} else {
			f = codec.NewUintArray(fd.Width, fd.Count)
		}
		if err := seedArray(f, fd); err != nil {
			return nil, err
		}
		return f, nil

	default:
		return nil, fmt.Errorf("unknown field kind %q", fd.Kind)
	}
}

func checkWidth(width int) error {
	switch width {
	case 8, 16, 32, 64:
		return nil
	}
	return fmt.Errorf("width %d is not 8, 16, 32 or 64", width)
}

func seedArray(f *codec.Field, fd *FieldDef) error {
	if fd.Default == nil {
		return nil
	}

	list, ok := fd.Default.([]any)
	if !ok {
		// Scalar default fills every element.
		if fd.Signed {
			v, err := defaultInt(fd.Default)
			if err != nil {
				return err
			}
			for i := 0; i < fd.Count; i++ {
				f.SetIntAt(i, v)
			}
			return nil
		}
		v, err := defaultUint(fd.Default)
		if err != nil {
			return err
		}
		f.Fill(v)
		return nil
	}

	if len(list) > fd.Count {
		return fmt.Errorf("default has %d elements, array holds %d", len(list), fd.Count)
	}
	for i, el := range list {
		if fd.Signed {
			v, err := defaultInt(el)
			if err != nil {
				return fmt.Errorf("default element %d: %w", i, err)
			}
			f.SetIntAt(i, v)
		} else {
			v, err := defaultUint(el)
			if err != nil {
				return fmt.Errorf("default element %d: %w", i, err)
			}
			f.SetAt(i, v)
		}
	}
	return nil
}

// defaultUint coerces the integer types yaml.v3 produces.
func defaultUint(v any) (uint64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("default %d is negative for an unsigned field", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("default %d is negative for an unsigned field", n)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, fmt.Errorf("default %v is not an unsigned integer", v)
	}
}

func defaultInt(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("default %v is not an integer", v)
	}
}

// LayoutDef is a declarative bit-field layout.
type LayoutDef struct {
	Name   string           `yaml:"name"`
	Unit   int              `yaml:"unit"`
	Fields []LayoutFieldDef `yaml:"fields"`
}

// LayoutFieldDef describes one packed sub-field of a layout.
type LayoutFieldDef struct {
	Name  string `yaml:"name"`
	Width int    `yaml:"width"`
}

// Build constructs the bit-field layout from the definition.
func (l *LayoutDef) Build() (*bitfield.Layout, error) {
	fields := make([]bitfield.Field, len(l.Fields))
	for i, fd := range l.Fields {
		fields[i] = bitfield.Field{Name: fd.Name, Width: fd.Width}
	}

	layout, err := bitfield.NewLayout(l.Unit, fields...)
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w", l.Name, err)
	}
	return layout, nil
}
