package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitrec/pkg/bitstream"
)

// layoutV1 is a single-unit record; layoutV2 appends a field that
// opens a second unit.
func layoutV1(t *testing.T) *Layout {
	t.Helper()
	l, err := NewLayout(32, Field{Name: "ts", Width: 20}, Field{Name: "flags", Width: 12})
	require.NoError(t, err)
	return l
}

func layoutV2(t *testing.T) *Layout {
	t.Helper()
	l, err := NewLayout(32,
		Field{Name: "ts", Width: 20},
		Field{Name: "flags", Width: 12},
		Field{Name: "seq", Width: 16},
	)
	require.NoError(t, err)
	return l
}

func TestPack_WireLayout(t *testing.T) {
	a := layoutV1(t).NewArray(2)
	a.Set(0, "ts", 0x12345)
	a.Set(0, "flags", 0xABC)
	a.Set(1, "ts", 7)
	a.Set(1, "flags", 1)

	s := bitstream.New(a.Layout().PackedSize(2))
	require.NoError(t, Pack(s, a))

	// 3-bit size class 0, 13-bit count 2, then two raw words.
	want := []byte{0x10, 0x00, 0x45, 0x23, 0xC1, 0xAB, 0x07, 0x00, 0x10, 0x00}
	assert.Equal(t, want, s.Bytes())
	assert.Equal(t, 10, a.Layout().PackedSize(2))
}

func TestUnpack_SameLayoutRoundTrip(t *testing.T) {
	t.Run("32-bit units", func(t *testing.T) {
		src := layoutV1(t).NewArray(3)
		for i := 0; i < 3; i++ {
			src.Set(i, "ts", uint64(1000*i+1))
			src.Set(i, "flags", uint64(i))
		}

		s := bitstream.New(src.Layout().PackedSize(3))
		require.NoError(t, Pack(s, src))

		dst := src.Layout().NewArray(3)
		n, err := Unpack(bitstream.FromBytes(s.Bytes()), dst)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		for i := 0; i < 3; i++ {
			assert.Equal(t, src.Get(i, "ts"), dst.Get(i, "ts"))
			assert.Equal(t, src.Get(i, "flags"), dst.Get(i, "flags"))
		}
	})

	t.Run("64-bit elements write as one word and read as two", func(t *testing.T) {
		l, err := NewLayout(64, Field{Name: "a", Width: 40}, Field{Name: "b", Width: 24})
		require.NoError(t, err)

		src := l.NewArray(2)
		src.Set(0, "a", 0x12_3456_789A)
		src.Set(0, "b", 0xFEDCBA)
		src.Set(1, "a", 42)
		src.Set(1, "b", 1)

		s := bitstream.New(l.PackedSize(2))
		require.NoError(t, Pack(s, src))

		dst := l.NewArray(2)
		n, err := Unpack(bitstream.FromBytes(s.Bytes()), dst)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, uint64(0x12_3456_789A), dst.Get(0, "a"))
		assert.Equal(t, uint64(0xFEDCBA), dst.Get(0, "b"))
		assert.Equal(t, uint64(42), dst.Get(1, "a"))
	})
}

func TestUnpack_MigratesAcrossLayouts(t *testing.T) {
	t.Run("up: new trailing field keeps its prior value", func(t *testing.T) {
		src := layoutV1(t).NewArray(2)
		src.Set(0, "ts", 0x12345)
		src.Set(0, "flags", 0xABC)
		src.Set(1, "ts", 7)
		src.Set(1, "flags", 1)

		s := bitstream.New(src.Layout().PackedSize(2))
		require.NoError(t, Pack(s, src))

		dst := layoutV2(t).NewArray(2)
		dst.Set(0, "seq", 0xBEEF)
		dst.Set(1, "seq", 0xBEEF)

		in := bitstream.FromBytes(s.Bytes())
		n, err := Unpack(in, dst)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.Equal(t, uint64(0x12345), dst.Get(0, "ts"))
		assert.Equal(t, uint64(0xABC), dst.Get(0, "flags"))
		assert.Equal(t, uint64(7), dst.Get(1, "ts"))
		assert.Equal(t, uint64(0xBEEF), dst.Get(0, "seq"), "field outside the source words must keep its value")
		assert.Equal(t, uint64(0xBEEF), dst.Get(1, "seq"))
	})

	t.Run("down: source words beyond the destination are skipped", func(t *testing.T) {
		src := layoutV2(t).NewArray(2)
		src.Set(0, "ts", 0x12345)
		src.Set(0, "flags", 0xABC)
		src.Set(0, "seq", 0x1111)
		src.Set(1, "ts", 7)
		src.Set(1, "flags", 1)
		src.Set(1, "seq", 0x2222)

		s := bitstream.New(src.Layout().PackedSize(2))
		require.NoError(t, Pack(s, src))

		dst := layoutV1(t).NewArray(2)
		in := bitstream.FromBytes(s.Bytes())
		n, err := Unpack(in, dst)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.Equal(t, uint64(0x12345), dst.Get(0, "ts"))
		assert.Equal(t, uint64(0xABC), dst.Get(0, "flags"))
		assert.Equal(t, uint64(7), dst.Get(1, "ts"))
		assert.Equal(t, uint64(1), dst.Get(1, "flags"))
		// Header plus, per element, one word read and one skipped.
		assert.Equal(t, 16+2*64, in.Tell())
	})
}

func TestUnpack_ClampsToCapacity(t *testing.T) {
	src := layoutV1(t).NewArray(5)
	for i := 0; i < 5; i++ {
		src.Set(i, "ts", uint64(100+i))
	}

	s := bitstream.New(src.Layout().PackedSize(5))
	require.NoError(t, Pack(s, src))

	dst := layoutV1(t).NewArray(3)
	in := bitstream.FromBytes(s.Bytes())
	n, err := Unpack(in, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for i := 0; i < 3; i++ {
		assert.Equal(t, uint64(100+i), dst.Get(i, "ts"))
	}
	// Excess serialized elements stay unread.
	assert.Equal(t, 16+3*32, in.Tell())
}

func TestPack_RefusesOversizedCount(t *testing.T) {
	a := layoutV1(t).NewArray(maxCount + 1)
	s := bitstream.New(64)

	err := Pack(s, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCount)
	assert.Equal(t, 0, s.Tell(), "refused pack must not touch the stream")
}

func TestUnpack_EmptyDump(t *testing.T) {
	src := layoutV1(t).NewArray(0)
	s := bitstream.New(src.Layout().PackedSize(0))
	require.NoError(t, Pack(s, src))

	dst := layoutV1(t).NewArray(4)
	dst.Set(2, "ts", 9)
	n, err := Unpack(bitstream.FromBytes(s.Bytes()), dst)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(9), dst.Get(2, "ts"), "no element may be touched")
}
