//go:build fuzz
// +build fuzz

package codec

import (
	"testing"

	"github.com/ssargent/bitrec/pkg/bitstream"
)

// FuzzRecord_SerializeRoundTrip checks that any representable value set
// survives a full encode and decode unchanged.
func FuzzRecord_SerializeRoundTrip(f *testing.F) {
	f.Add(false, uint32(0), "", uint8(0))
	f.Add(true, uint32(1000), "Namae", uint8(20))
	f.Add(true, uint32(1)<<31, "sixty-three-byte-strings-are-the-longest-representable-ones!!!", uint8(255))

	f.Fuzz(func(t *testing.T, enabled bool, count uint32, name string, age uint8) {
		if len(name) > maxStringLen {
			t.Skip("name exceeds the 6-bit length field")
		}

		src := NewRecord(
			NewBool(enabled),
			NewUint(32, uint64(count)),
			NewString(name),
			NewUint(8, uint64(age)),
		)
		s := bitstream.New(src.SizeHint())
		if err := src.Serialize(s); err != nil {
			t.Fatalf("Serialize failed for count=%d name=%q age=%d: %v", count, name, age, err)
		}

		dst := NewRecord(NewBool(!enabled), NewUint(32, 1), NewString("x"), NewUint(8, 1))
		if err := dst.Deserialize(bitstream.FromBytes(s.Bytes())); err != nil {
			t.Fatalf("Deserialize failed: %v", err)
		}
		if !dst.Equal(src) {
			t.Errorf("round trip mismatch: got count=%d name=%q age=%d, want count=%d name=%q age=%d",
				dst.Field(1).Uint(), dst.Field(2).Str(), dst.Field(3).Uint(), count, name, age)
		}
	})
}

// FuzzRecord_DiffRoundTrip checks the delta property: applying the diff
// from base to target onto a copy of base reproduces target.
func FuzzRecord_DiffRoundTrip(f *testing.F) {
	f.Add(false, uint32(1000), "Namae", uint8(20), true, uint32(222), "DiffTarget", uint8(31))
	f.Add(false, uint32(0), "", uint8(0), false, uint32(0), "", uint8(0))
	f.Add(true, uint32(31), "a", uint8(31), true, uint32(20), "a", uint8(20))

	f.Fuzz(func(t *testing.T,
		enabledA bool, countA uint32, nameA string, ageA uint8,
		enabledB bool, countB uint32, nameB string, ageB uint8) {
		if len(nameA) > maxStringLen || len(nameB) > maxStringLen {
			t.Skip("name exceeds the 6-bit length field")
		}

		build := func(enabled bool, count uint32, name string, age uint8) *Record {
			return NewRecord(
				NewBool(enabled),
				NewUint(32, uint64(count)),
				NewString(name),
				NewUint(8, uint64(age)),
			)
		}
		base := build(enabledA, countA, nameA, ageA)
		target := build(enabledB, countB, nameB, ageB)

		// The diff can carry target's string in full, so size for it.
		s := bitstream.New(base.SizeHint() + target.SizeHint())
		if err := base.SerializeDiff(s, target); err != nil {
			t.Fatalf("SerializeDiff failed: %v", err)
		}

		applied := build(enabledA, countA, nameA, ageA)
		if err := applied.DeserializeDiff(bitstream.FromBytes(s.Bytes())); err != nil {
			t.Fatalf("DeserializeDiff failed: %v", err)
		}
		if !applied.Equal(target) {
			t.Errorf("diff application mismatch: got count=%d name=%q age=%d, want count=%d name=%q age=%d",
				applied.Field(1).Uint(), applied.Field(2).Str(), applied.Field(3).Uint(),
				countB, nameB, ageB)
		}

		// Equal records must collapse to two bits per field.
		if base.Equal(target) && s.Size() != 1 {
			t.Errorf("diff of equal records took %d bytes", s.Size())
		}
	})
}

// FuzzRecord_DecodeJunk feeds arbitrary bytes to the decoder. Decoding
// may fail but must never panic, and a failed decode must rewind the
// cursor to where it started.
func FuzzRecord_DecodeJunk(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x00})
	f.Add([]byte{0x23, 0x14})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<16 {
			t.Skip("input larger than any realistic record")
		}

		rec := NewRecord(
			NewBool(false),
			NewUint(32, 0),
			NewString(""),
			NewSeparator(),
			NewUintArray(16, 4),
		)
		in := bitstream.FromBytes(data)
		if err := rec.Deserialize(in); err != nil {
			if in.Tell() != 0 {
				t.Errorf("failed decode left the cursor at %d", in.Tell())
			}
		}

		in = bitstream.FromBytes(data)
		if err := rec.DeserializeDiff(in); err != nil {
			if in.Tell() != 0 {
				t.Errorf("failed diff decode left the cursor at %d", in.Tell())
			}
		}
	})
}
