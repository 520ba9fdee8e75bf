package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayout(t *testing.T) {
	t.Run("fields share a unit until it is full", func(t *testing.T) {
		l, err := NewLayout(32, Field{Name: "ts", Width: 20}, Field{Name: "flags", Width: 12})
		require.NoError(t, err)

		assert.Equal(t, 4, l.Size())
		assert.Equal(t, 1, l.Words())
		assert.Equal(t, 32, l.Unit())
	})

	t.Run("a field never straddles a unit boundary", func(t *testing.T) {
		l, err := NewLayout(32, Field{Name: "a", Width: 30}, Field{Name: "b", Width: 30})
		require.NoError(t, err)

		// b cannot fit in the two bits left of the first unit.
		assert.Equal(t, 8, l.Size())
	})

	t.Run("64-bit units hold wide fields", func(t *testing.T) {
		l, err := NewLayout(64, Field{Name: "a", Width: 40}, Field{Name: "b", Width: 24})
		require.NoError(t, err)

		assert.Equal(t, 8, l.Size())
		assert.Equal(t, 2, l.Words())
	})

	t.Run("rejects bad shapes", func(t *testing.T) {
		cases := []struct {
			name   string
			unit   int
			fields []Field
		}{
			{name: "unsupported unit", unit: 16, fields: []Field{{Name: "a", Width: 8}}},
			{name: "no fields", unit: 32, fields: nil},
			{name: "zero width", unit: 32, fields: []Field{{Name: "a", Width: 0}}},
			{name: "width beyond unit", unit: 32, fields: []Field{{Name: "a", Width: 33}}},
			{name: "empty name", unit: 32, fields: []Field{{Width: 8}}},
			{
				name: "duplicate name",
				unit: 32,
				fields: []Field{
					{Name: "a", Width: 8}, {Name: "a", Width: 8},
				},
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewLayout(tc.unit, tc.fields...)
				assert.Error(t, err)
			})
		}
	})

	t.Run("rejects elements beyond the size class", func(t *testing.T) {
		fields := make([]Field, 9)
		for i := range fields {
			fields[i] = Field{Name: string(rune('a' + i)), Width: 32}
		}
		_, err := NewLayout(32, fields...)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSizeClass)
	})

	t.Run("exposes declared fields", func(t *testing.T) {
		l, err := NewLayout(32, Field{Name: "ts", Width: 20}, Field{Name: "flags", Width: 12})
		require.NoError(t, err)

		fields := l.Fields()
		require.Len(t, fields, 2)
		assert.Equal(t, "ts", fields[0].Name)
		assert.Equal(t, 12, fields[1].Width)
		assert.True(t, l.Has("flags"))
		assert.False(t, l.Has("missing"))
	})
}

func TestArray_GetSet(t *testing.T) {
	t.Run("32-bit unit", func(t *testing.T) {
		l, err := NewLayout(32, Field{Name: "ts", Width: 20}, Field{Name: "flags", Width: 12})
		require.NoError(t, err)

		a := l.NewArray(2)
		a.Set(0, "ts", 0x12345)
		a.Set(0, "flags", 0xABC)
		a.Set(1, "ts", 7)
		a.Set(1, "flags", 1)

		assert.Equal(t, uint64(0x12345), a.Get(0, "ts"))
		assert.Equal(t, uint64(0xABC), a.Get(0, "flags"))
		assert.Equal(t, uint64(7), a.Get(1, "ts"))
		assert.Equal(t, uint64(1), a.Get(1, "flags"))
	})

	t.Run("64-bit unit spans two storage words", func(t *testing.T) {
		l, err := NewLayout(64, Field{Name: "a", Width: 40}, Field{Name: "b", Width: 24})
		require.NoError(t, err)

		arr := l.NewArray(1)
		arr.Set(0, "a", 0x12_3456_789A)
		arr.Set(0, "b", 0xFEDCBA)

		assert.Equal(t, uint64(0x12_3456_789A), arr.Get(0, "a"))
		assert.Equal(t, uint64(0xFEDCBA), arr.Get(0, "b"))
	})

	t.Run("set masks to the field width", func(t *testing.T) {
		l, err := NewLayout(32, Field{Name: "ts", Width: 20}, Field{Name: "flags", Width: 12})
		require.NoError(t, err)

		a := l.NewArray(1)
		a.Set(0, "ts", 0xFFFFFFFF)
		assert.Equal(t, uint64(0xFFFFF), a.Get(0, "ts"))
		assert.Equal(t, uint64(0), a.Get(0, "flags"))
	})

	t.Run("neighbouring fields stay independent", func(t *testing.T) {
		l, err := NewLayout(32, Field{Name: "lo", Width: 16}, Field{Name: "hi", Width: 16})
		require.NoError(t, err)

		a := l.NewArray(1)
		a.Set(0, "lo", 0xAAAA)
		a.Set(0, "hi", 0x5555)
		a.Set(0, "lo", 0x1234)

		assert.Equal(t, uint64(0x1234), a.Get(0, "lo"))
		assert.Equal(t, uint64(0x5555), a.Get(0, "hi"))
	})

	t.Run("unknown name panics", func(t *testing.T) {
		l, err := NewLayout(32, Field{Name: "ts", Width: 20})
		require.NoError(t, err)

		a := l.NewArray(1)
		assert.Panics(t, func() { a.Get(0, "missing") })
		assert.Panics(t, func() { a.Set(0, "missing", 1) })
	})
}
