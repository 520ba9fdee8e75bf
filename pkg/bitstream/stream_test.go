package bitstream

import (
	"bytes"
	"testing"
)

type step struct {
	value uint64
	width int
}

// refWrite packs the low w bits of v into buf at bit position pos, low
// bit first, mirroring a conceptual flat bit array. Used to check that
// the word-packed stream is bit-identical to the naive layout.
func refWrite(buf []byte, pos int, v uint64, w int) int {
	for i := 0; i < w; i++ {
		byteIndex := pos / 8
		bitIndex := pos % 8
		if v>>i&1 != 0 {
			buf[byteIndex] |= 1 << bitIndex
		} else {
			buf[byteIndex] &^= 1 << bitIndex
		}
		pos++
	}
	return pos
}

func TestStream_WriteReadRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		steps []step
	}{
		{
			name:  "single bits",
			steps: []step{{1, 1}, {0, 1}, {1, 1}, {1, 1}, {0, 1}},
		},
		{
			name:  "tag and size shapes",
			steps: []step{{3, 2}, {32, 6}, {1000, 32}, {0, 2}},
		},
		{
			name:  "word boundary straddle",
			steps: []step{{0x2FFFFFFFFFFFFFF, 58}, {0x2AAA, 14}, {0x15, 6}},
		},
		{
			name:  "full words",
			steps: []step{{0xDEADBEEFCAFEF00D, 64}, {0x0123456789ABCDEF, 64}},
		},
		{
			name:  "mixed odd widths",
			steps: []step{{5, 3}, {21, 5}, {99, 7}, {4321, 13}, {1 << 28, 29}, {1<<60 - 3, 61}},
		},
		{
			name:  "width class payloads",
			steps: []step{{63, 6}, {16000, 14}, {1 << 29, 30}, {1<<61 + 7, 62}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(64)
			ref := make([]byte, 64)
			refPos := 0

			for _, st := range tc.steps {
				if err := s.WriteBits(st.value, st.width); err != nil {
					t.Fatalf("WriteBits(%#x, %d) failed: %v", st.value, st.width, err)
				}
				refPos = refWrite(ref, refPos, st.value, st.width)
			}

			if s.Tell() != refPos {
				t.Fatalf("Tell mismatch: got %d, want %d", s.Tell(), refPos)
			}

			// The byte view must be bit-identical to the flat layout.
			if got := s.Bytes(); !bytes.Equal(got, ref[:s.Size()]) {
				t.Errorf("Bytes mismatch: got %x, want %x", got, ref[:s.Size()])
			}

			s.Reset()
			for _, st := range tc.steps {
				got, err := s.ReadBits(st.width)
				if err != nil {
					t.Fatalf("ReadBits(%d) failed: %v", st.width, err)
				}
				want := st.value & mask(st.width)
				if got != want {
					t.Errorf("ReadBits(%d) mismatch: got %#x, want %#x", st.width, got, want)
				}
			}
		})
	}
}

func TestStream_SignMagnitude(t *testing.T) {
	testCases := []struct {
		name  string
		value int64
		width int
	}{
		{name: "small negative", value: -5, width: 8},
		{name: "small positive", value: 5, width: 8},
		{name: "zero", value: 0, width: 8},
		{name: "negative sixteen bit", value: -1000, width: 16},
		{name: "max positive magnitude", value: 127, width: 8},
		{name: "max negative magnitude", value: -127, width: 8},
		{name: "negative two", value: -2, width: 16},
		{name: "wide negative", value: -(1 << 60), width: 62},
		{name: "full width negative", value: -123456789, width: 64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(16)
			if err := s.WriteInt(tc.value, tc.width); err != nil {
				t.Fatalf("WriteInt(%d, %d) failed: %v", tc.value, tc.width, err)
			}
			s.Reset()
			got, err := s.ReadInt(tc.width)
			if err != nil {
				t.Fatalf("ReadInt(%d) failed: %v", tc.width, err)
			}
			if got != tc.value {
				t.Errorf("ReadInt mismatch: got %d, want %d", got, tc.value)
			}
		})
	}

	t.Run("non-negative value with the sign bit set reads back without it", func(t *testing.T) {
		s := New(8)
		if err := s.WriteInt(130, 8); err != nil {
			t.Fatalf("WriteInt failed: %v", err)
		}
		s.Reset()
		got, err := s.ReadInt(8)
		if err != nil {
			t.Fatalf("ReadInt failed: %v", err)
		}
		// Bit 7 is the sign flag, so only the low 7 bits survive.
		if got != 2 {
			t.Errorf("ReadInt mismatch: got %d, want 2", got)
		}
	})
}

func TestStream_CapacityGuard(t *testing.T) {
	t.Run("refused write leaves cursor unchanged", func(t *testing.T) {
		s := New(1)
		if err := s.WriteBits(0x1F, 5); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		if err := s.WriteBits(0xF, 4); err != ErrCapacity {
			t.Fatalf("Expected ErrCapacity, got %v", err)
		}
		if s.Tell() != 5 {
			t.Errorf("Cursor moved on failed write: got %d, want 5", s.Tell())
		}
		// A write that fits must still succeed afterwards.
		if err := s.WriteBits(0x7, 3); err != nil {
			t.Errorf("WriteBits after refusal failed: %v", err)
		}
	})

	t.Run("refused read leaves cursor unchanged", func(t *testing.T) {
		s := FromBytes([]byte{0xAB})
		if _, err := s.ReadBits(9); err != ErrCapacity {
			t.Fatalf("Expected ErrCapacity, got %v", err)
		}
		if s.Tell() != 0 {
			t.Errorf("Cursor moved on failed read: got %d, want 0", s.Tell())
		}
		got, err := s.ReadBits(8)
		if err != nil {
			t.Fatalf("ReadBits failed: %v", err)
		}
		if got != 0xAB {
			t.Errorf("ReadBits mismatch: got %#x, want 0xab", got)
		}
	})
}

func TestStream_ByteAligned(t *testing.T) {
	t.Run("aligned write and read", func(t *testing.T) {
		s := New(4)
		for i, b := range []byte{0xDE, 0xAD, 0xBE, 0xEF} {
			if err := s.WriteByte(b); err != nil {
				t.Fatalf("WriteByte %d failed: %v", i, err)
			}
		}
		s.Reset()
		for i, want := range []byte{0xDE, 0xAD, 0xBE, 0xEF} {
			got, err := s.ReadByte()
			if err != nil {
				t.Fatalf("ReadByte %d failed: %v", i, err)
			}
			if got != want {
				t.Errorf("ReadByte %d mismatch: got %#x, want %#x", i, got, want)
			}
		}
	})

	t.Run("unaligned write panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic for unaligned WriteByte, got none")
			}
		}()
		s := New(8)
		if err := s.WriteBits(1, 3); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		_ = s.WriteByte(0xAB)
	})

	t.Run("unaligned read panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic for unaligned ReadByte, got none")
			}
		}()
		s := FromBytes([]byte{0xAB, 0xCD})
		if _, err := s.ReadBits(1); err != nil {
			t.Fatalf("ReadBits failed: %v", err)
		}
		_, _ = s.ReadByte()
	})
}

func TestStream_AlignByteAndPadToNext(t *testing.T) {
	t.Run("align advances without writing", func(t *testing.T) {
		s := New(2)
		if err := s.WriteBits(0xFF, 8); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		s.Seek(3)
		s.AlignByte()
		if s.Tell() != 8 {
			t.Fatalf("Tell mismatch after AlignByte: got %d, want 8", s.Tell())
		}
		s.Seek(0)
		got, err := s.ReadBits(8)
		if err != nil {
			t.Fatalf("ReadBits failed: %v", err)
		}
		if got != 0xFF {
			t.Errorf("AlignByte touched the buffer: got %#x, want 0xff", got)
		}
	})

	t.Run("pad advances writing zeros", func(t *testing.T) {
		s := New(2)
		if err := s.WriteBits(0xFF, 8); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		s.Seek(3)
		if err := s.PadToNext(); err != nil {
			t.Fatalf("PadToNext failed: %v", err)
		}
		if s.Tell() != 8 {
			t.Fatalf("Tell mismatch after PadToNext: got %d, want 8", s.Tell())
		}
		s.Seek(0)
		got, err := s.ReadBits(8)
		if err != nil {
			t.Fatalf("ReadBits failed: %v", err)
		}
		if got != 0x07 {
			t.Errorf("PadToNext did not zero bits: got %#x, want 0x07", got)
		}
	})

	t.Run("already aligned is a no-op", func(t *testing.T) {
		s := New(2)
		if err := s.WriteBits(0xAA, 8); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		s.AlignByte()
		if s.Tell() != 8 {
			t.Errorf("AlignByte moved an aligned cursor: got %d, want 8", s.Tell())
		}
		if err := s.PadToNext(); err != nil {
			t.Fatalf("PadToNext failed: %v", err)
		}
		if s.Tell() != 8 {
			t.Errorf("PadToNext moved an aligned cursor: got %d, want 8", s.Tell())
		}
	})
}

func TestStream_CursorAndSize(t *testing.T) {
	s := New(8)
	if s.Size() != 0 {
		t.Errorf("Size of fresh stream: got %d, want 0", s.Size())
	}
	if err := s.WriteBits(0x5, 3); err != nil {
		t.Fatalf("WriteBits failed: %v", err)
	}
	if s.Size() != 1 {
		t.Errorf("Size after 3 bits: got %d, want 1", s.Size())
	}
	if err := s.WriteBits(0x1FF, 9); err != nil {
		t.Fatalf("WriteBits failed: %v", err)
	}
	if s.Size() != 2 {
		t.Errorf("Size after 12 bits: got %d, want 2", s.Size())
	}
	if s.Cap() != 64 {
		t.Errorf("Cap mismatch: got %d, want 64", s.Cap())
	}

	// Size follows the cursor, so rewinding shrinks it.
	s.Seek(4)
	if s.Size() != 1 {
		t.Errorf("Size after Seek(4): got %d, want 1", s.Size())
	}
	s.Reset()
	if s.Size() != 0 {
		t.Errorf("Size after Reset: got %d, want 0", s.Size())
	}
	if s.Tell() != 0 {
		t.Errorf("Tell after Reset: got %d, want 0", s.Tell())
	}
}

func TestStream_BytesLittleEndian(t *testing.T) {
	t.Run("sixteen bit value", func(t *testing.T) {
		s := New(4)
		if err := s.WriteBits(0xABCD, 16); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		want := []byte{0xCD, 0xAB}
		if got := s.Bytes(); !bytes.Equal(got, want) {
			t.Errorf("Bytes mismatch: got %x, want %x", got, want)
		}
	})

	t.Run("crosses word boundary", func(t *testing.T) {
		s := New(24)
		if err := s.WriteBits(0x1111111111111111, 64); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		if err := s.WriteBits(0x22222222AAAAAAAA, 64); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		if err := s.WriteBits(0x33, 8); err != nil {
			t.Fatalf("WriteBits failed: %v", err)
		}
		got := s.Bytes()
		if len(got) != 17 {
			t.Fatalf("Bytes length mismatch: got %d, want 17", len(got))
		}
		if got[0] != 0x11 || got[8] != 0xAA || got[15] != 0x22 || got[16] != 0x33 {
			t.Errorf("Bytes content mismatch: got %x", got)
		}
	})
}

func TestStream_TransportRoundTrip(t *testing.T) {
	w := New(16)
	writes := []step{{3, 2}, {42, 6}, {0xBEEF, 16}, {1, 1}, {0x1FFFF, 17}}
	for _, st := range writes {
		if err := w.WriteBits(st.value, st.width); err != nil {
			t.Fatalf("WriteBits(%#x, %d) failed: %v", st.value, st.width, err)
		}
	}
	if err := w.Terminate(0xCAFEBABE); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}

	r := FromBytes(w.Bytes())
	for _, st := range writes {
		got, err := r.ReadBits(st.width)
		if err != nil {
			t.Fatalf("ReadBits(%d) failed: %v", st.width, err)
		}
		if got != st.value {
			t.Errorf("ReadBits(%d) mismatch: got %#x, want %#x", st.width, got, st.value)
		}
	}
	marker, err := r.ReadBits(32)
	if err != nil {
		t.Fatalf("ReadBits for marker failed: %v", err)
	}
	if marker != 0xCAFEBABE {
		t.Errorf("Marker mismatch: got %#x, want 0xcafebabe", marker)
	}
}

func TestStream_SeekReplay(t *testing.T) {
	s := New(8)
	if err := s.WriteBits(0x2A, 6); err != nil {
		t.Fatalf("WriteBits failed: %v", err)
	}
	if err := s.WriteBits(0x15, 5); err != nil {
		t.Fatalf("WriteBits failed: %v", err)
	}

	pos := s.Tell()
	s.Seek(6)
	got, err := s.ReadBits(5)
	if err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}
	if got != 0x15 {
		t.Errorf("Replay mismatch: got %#x, want 0x15", got)
	}
	if s.Tell() != pos {
		t.Errorf("Tell after replay: got %d, want %d", s.Tell(), pos)
	}

	// Overwrite in place after seeking back.
	s.Seek(6)
	if err := s.WriteBits(0x0A, 5); err != nil {
		t.Fatalf("WriteBits failed: %v", err)
	}
	s.Seek(0)
	first, err := s.ReadBits(6)
	if err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}
	if first != 0x2A {
		t.Errorf("Neighbor bits disturbed: got %#x, want 0x2a", first)
	}
	second, err := s.ReadBits(5)
	if err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}
	if second != 0x0A {
		t.Errorf("Overwrite mismatch: got %#x, want 0x0a", second)
	}
}
