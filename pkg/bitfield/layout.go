package bitfield

import (
	"errors"
	"fmt"
)

// maxElementBytes is the widest element the 3-bit wire size class can
// name: (7+1) * 4 bytes.
const maxElementBytes = 32

var (
	// ErrSizeClass reports a layout too large for the wire's 3-bit
	// size class.
	ErrSizeClass = errors.New("bitfield: element size exceeds the wire size class")
	// ErrCount reports an element count too large for the wire's
	// 13-bit count field.
	ErrCount = errors.New("bitfield: element count out of range")
)

// Field is one named bit width in a layout.
type Field struct {
	Name  string
	Width int
}

type placement struct {
	unit   int
	offset int
	width  int
}

// Layout describes one bit-field record shape: ordered fields packed
// LSB-first into fixed allocation units. A Layout is immutable after
// construction and safe to share.
type Layout struct {
	unit      int
	fields    []Field
	place     map[string]placement
	units     int
	elemWords int
}

// NewLayout packs fields in order into units of the given width (32 or
// 64 bits). A field that would straddle a unit boundary starts the
// next unit. The resulting element must fit the wire's size class, 32
// bytes at most.
func NewLayout(unit int, fields ...Field) (*Layout, error) {
	if unit != 32 && unit != 64 {
		return nil, fmt.Errorf("bitfield: unit must be 32 or 64, got %d", unit)
	}
	if len(fields) == 0 {
		return nil, errors.New("bitfield: layout needs at least one field")
	}

	l := &Layout{
		unit:   unit,
		fields: make([]Field, len(fields)),
		place:  make(map[string]placement, len(fields)),
	}
	copy(l.fields, fields)

	unitIdx, offset := 0, 0
	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.New("bitfield: field name must not be empty")
		}
		if _, dup := l.place[f.Name]; dup {
			return nil, fmt.Errorf("bitfield: duplicate field %q", f.Name)
		}
		if f.Width < 1 || f.Width > unit {
			return nil, fmt.Errorf("bitfield: field %q width %d outside 1..%d", f.Name, f.Width, unit)
		}
		if offset+f.Width > unit {
			unitIdx++
			offset = 0
		}
		l.place[f.Name] = placement{unit: unitIdx, offset: offset, width: f.Width}
		offset += f.Width
	}

	l.units = unitIdx + 1
	if l.Size() > maxElementBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrSizeClass, l.Size())
	}
	l.elemWords = l.Size() / 4
	return l, nil
}

// Size reports the element size in bytes.
func (l *Layout) Size() int { return l.units * l.unit / 8 }

// Words reports the element size in 32-bit words, the granularity the
// wire format and migration work at.
func (l *Layout) Words() int { return l.elemWords }

// Unit reports the allocation unit width in bits.
func (l *Layout) Unit() int { return l.unit }

// Fields returns the declared fields in order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Has reports whether the layout declares a field of this name.
func (l *Layout) Has(name string) bool {
	_, ok := l.place[name]
	return ok
}

// Array is a sequence of elements over one layout, stored as raw
// 32-bit words.
type Array struct {
	layout *Layout
	words  []uint32
	n      int
}

// NewArray returns an array of n zeroed elements.
func (l *Layout) NewArray(n int) *Array {
	if n < 0 {
		panic("bitfield: negative array length")
	}
	return &Array{layout: l, words: make([]uint32, n*l.elemWords), n: n}
}

// Len reports the element count.
func (a *Array) Len() int { return a.n }

// Layout reports the array's layout.
func (a *Array) Layout() *Layout { return a.layout }

func (a *Array) placeOf(name string) placement {
	p, ok := a.layout.place[name]
	if !ok {
		panic("bitfield: no field named " + name)
	}
	return p
}

func widthMask(width int) uint64 {
	if width == 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// Get reads the named field of element i.
func (a *Array) Get(i int, name string) uint64 {
	p := a.placeOf(name)
	base := i * a.layout.elemWords
	if a.layout.unit == 32 {
		w := uint64(a.words[base+p.unit])
		return (w >> p.offset) & widthMask(p.width)
	}
	lo := uint64(a.words[base+2*p.unit])
	hi := uint64(a.words[base+2*p.unit+1])
	return ((lo | hi<<32) >> p.offset) & widthMask(p.width)
}

// Set writes the named field of element i, masking v to the field's
// width.
func (a *Array) Set(i int, name string, v uint64) {
	p := a.placeOf(name)
	base := i * a.layout.elemWords
	v &= widthMask(p.width)
	if a.layout.unit == 32 {
		w := uint64(a.words[base+p.unit])
		w = w&^(widthMask(p.width)<<p.offset) | v<<p.offset
		a.words[base+p.unit] = uint32(w)
		return
	}
	lo := uint64(a.words[base+2*p.unit])
	hi := uint64(a.words[base+2*p.unit+1])
	u := lo | hi<<32
	u = u&^(widthMask(p.width)<<p.offset) | v<<p.offset
	a.words[base+2*p.unit] = uint32(u)
	a.words[base+2*p.unit+1] = uint32(u >> 32)
}
