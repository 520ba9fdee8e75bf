package codec

import (
	"fmt"

	"github.com/ssargent/bitrec/pkg/bitstream"
)

// Record is an ordered list of fields encoded back to back with no
// field names, lengths or offsets on the wire. Reader and writer must
// agree on the field list; version separators let them disagree about
// how many trailing generations exist.
type Record struct {
	fields []*Field
}

// NewRecord returns a record over the given fields. The record keeps
// the field pointers, so values set through them are seen by the
// record and vice versa. Fields must be non-nil.
func NewRecord(fields ...*Field) *Record {
	return &Record{fields: fields}
}

// Len reports the number of fields.
func (r *Record) Len() int { return len(r.fields) }

// Field returns field i in declaration order.
func (r *Record) Field(i int) *Field { return r.fields[i] }

// DataVersion reports the schema generation: the number of version
// separators in the field list.
func (r *Record) DataVersion() int {
	n := 0
	for _, f := range r.fields {
		if f.kind == KindSeparator {
			n++
		}
	}
	return n
}

// Equal reports whether other has the same field count and every field
// pair compares equal.
func (r *Record) Equal(other *Record) bool {
	if other == nil || len(r.fields) != len(other.fields) {
		return false
	}
	for i, f := range r.fields {
		if !f.Equal(other.fields[i]) {
			return false
		}
	}
	return true
}

// Copy copies every field value from other. It reports false and copies
// nothing when the field counts differ. Individual fields whose kinds
// do not line up keep their values.
func (r *Record) Copy(other *Record) bool {
	if other == nil || len(r.fields) != len(other.fields) {
		return false
	}
	for i, f := range r.fields {
		f.CopyFrom(other.fields[i])
	}
	return true
}

// Serialize encodes every field to s in order. On any field's failure
// the cursor is rewound to where the call started and the stream
// carries no partial record.
func (r *Record) Serialize(s *bitstream.Stream) error {
	beg := s.Tell()
	for i, f := range r.fields {
		if err := f.Encode(s); err != nil {
			s.Seek(beg)
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// SerializeDiff encodes, field by field, the delta that turns this
// record's values into other's. Applying the result with
// DeserializeDiff to a record holding this record's values yields
// other's. Field counts must match; on failure the cursor is rewound.
func (r *Record) SerializeDiff(s *bitstream.Stream, other *Record) error {
	if other == nil || len(r.fields) != len(other.fields) {
		return ErrFieldCount
	}
	beg := s.Tell()
	for i, f := range r.fields {
		if err := f.EncodeDiff(s, other.fields[i]); err != nil {
			s.Seek(beg)
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// SerializeDiffAndCopy encodes the delta to other and, on success,
// copies other's values into this record so the next diff is taken
// against the state just sent.
func (r *Record) SerializeDiffAndCopy(s *bitstream.Stream, other *Record) error {
	if err := r.SerializeDiff(s, other); err != nil {
		return err
	}
	r.Copy(other)
	return nil
}

// Deserialize decodes every field from s in order. A failure on a
// version separator means the writer predates this record's trailing
// generations: the cursor is rewound to just before the separator and
// the call succeeds with the newer fields untouched. Any other failure
// rewinds to the call's start and returns an error; fields decoded
// before the failing one keep their decoded values.
func (r *Record) Deserialize(s *bitstream.Stream) error {
	return r.decode(s, false)
}

// DeserializeDiff decodes a delta stream produced by SerializeDiff and
// applies it field by field. Version separators are tolerated the same
// way as in Deserialize.
func (r *Record) DeserializeDiff(s *bitstream.Stream) error {
	return r.decode(s, true)
}

func (r *Record) decode(s *bitstream.Stream, diff bool) error {
	beg := s.Tell()
	for i, f := range r.fields {
		prev := s.Tell()
		var err error
		if diff {
			err = f.DecodeDiff(s)
		} else {
			err = f.Decode(s)
		}
		if err != nil {
			if f.kind == KindSeparator {
				s.Seek(prev)
				return nil
			}
			s.Seek(beg)
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// SizeHint reports a byte estimate for pre-allocating a stream, not
// the exact encoded size. Fields are costed at their declared widths
// plus tag and alignment allowances; actual encodings are usually
// smaller thanks to zero elision and adaptive array elements, though
// an adaptive element holding a value wider than its declared width
// can exceed its share. String fields are costed at their current
// length.
func (r *Record) SizeHint() int {
	bits := 0
	for _, f := range r.fields {
		bits += baseBits
		switch f.kind {
		case KindSeparator, KindBool:
		case KindString:
			bits += sizeBits + len(f.str)*byteBits + 7
		case KindNumber, KindBits:
			bits += sizeBits + f.width + 7
		case KindArray:
			bits += sizeBits + f.count*f.width
			if f.count > 1 {
				bits += byteBits
			} else {
				bits += 7
			}
		}
	}
	return (bits + 7) / byteBits
}
