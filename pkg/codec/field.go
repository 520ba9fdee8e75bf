package codec

import "errors"

// Wire-level constants. Every field starts with a 2-bit base tag; the
// Other tag is followed by a 6-bit size field whose zero value marks an
// array header.
const (
	baseBits = 2
	sizeBits = 6
	byteBits = 8

	tagZero    = 0x0
	tagOne     = 0x1
	tagVersion = 0x2
	tagOther   = 0x3

	// A string length must fit the 6-bit size field, an array count the
	// 8-bit count field.
	maxStringLen = 1<<sizeBits - 1
	maxArrayLen  = 1<<byteBits - 1
)

// Errors
var (
	ErrTagMismatch  = errors.New("codec: tag mismatch")
	ErrKindMismatch = errors.New("codec: field kind mismatch")
	ErrFieldCount   = errors.New("codec: field count mismatch")
	ErrLength       = errors.New("codec: length out of range")
)

// Kind identifies a field's wire encoding.
type Kind uint8

const (
	KindSeparator Kind = iota
	KindBool
	KindString
	KindNumber
	KindArray
	KindBits
)

func (k Kind) String() string {
	switch k {
	case KindSeparator:
		return "separator"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindArray:
		return "array"
	case KindBits:
		return "bits"
	}
	return "unknown"
}

// Field is one typed record value together with its wire codec. A Field
// is created once by the record that declares it and mutated in place by
// decode operations. Numeric fields carry a declared width of 8, 16, 32
// or 64 bits; values are kept masked to that width.
type Field struct {
	kind   Kind
	width  int
	signed bool
	count  int

	b     bool
	str   string
	num   uint64
	elems []uint64
}

func checkNumWidth(width int) {
	switch width {
	case 8, 16, 32, 64:
	default:
		panic("codec: width must be 8, 16, 32 or 64")
	}
}

// NewSeparator returns a version separator field. Separators carry no
// value; their count partitions a record into schema generations.
func NewSeparator() *Field {
	return &Field{kind: KindSeparator}
}

// NewBool returns a boolean field holding v.
func NewBool(v bool) *Field {
	return &Field{kind: KindBool, b: v}
}

// NewString returns a string field holding s. Strings longer than 63
// bytes cannot be encoded and fail at Encode.
func NewString(s string) *Field {
	return &Field{kind: KindString, str: s}
}

// NewUint returns an unsigned number field of the given width holding v.
func NewUint(width int, v uint64) *Field {
	checkNumWidth(width)
	f := &Field{kind: KindNumber, width: width}
	f.num = v & f.valueMask()
	return f
}

// NewInt returns a signed number field of the given width holding v.
// Signed values travel in sign-magnitude form, so magnitudes must fit
// in width-1 bits.
func NewInt(width int, v int64) *Field {
	checkNumWidth(width)
	f := &Field{kind: KindNumber, width: width, signed: true}
	f.num = uint64(v) & f.valueMask()
	return f
}

// NewBits returns a bit-set field of the given width holding v. Bit-set
// fields share the number wire form and add SetBit and Bit.
func NewBits(width int, v uint64) *Field {
	checkNumWidth(width)
	f := &Field{kind: KindBits, width: width}
	f.num = v & f.valueMask()
	return f
}

// NewUintArray returns an array field of count unsigned elements of the
// given width, all zero. count must be between 1 and 255: the wire
// header stores it in 8 bits.
func NewUintArray(width, count int) *Field {
	checkNumWidth(width)
	if count < 1 || count > maxArrayLen {
		panic("codec: array count must be between 1 and 255")
	}
	return &Field{kind: KindArray, width: width, count: count, elems: make([]uint64, count)}
}

// NewIntArray returns an array field of count signed elements of the
// given width, all zero.
func NewIntArray(width, count int) *Field {
	f := NewUintArray(width, count)
	f.signed = true
	return f
}

// Kind reports the field's kind.
func (f *Field) Kind() Kind { return f.kind }

// Width reports the declared bit width of a number, bits or array
// element; zero for other kinds.
func (f *Field) Width() int { return f.width }

// Signed reports whether a number or array field carries signed values.
func (f *Field) Signed() bool { return f.signed }

// Len reports the element count of an array field, 1 otherwise.
func (f *Field) Len() int {
	if f.kind == KindArray {
		return f.count
	}
	return 1
}

func (f *Field) valueMask() uint64 {
	if f.width == 64 {
		return ^uint64(0)
	}
	return 1<<f.width - 1
}

func signExtend(v uint64, width int) int64 {
	if width < 64 && v&(1<<(width-1)) != 0 {
		v |= ^uint64(0) << width
	}
	return int64(v)
}

// Bool reports the value of a boolean field.
func (f *Field) Bool() bool {
	if f.kind != KindBool {
		panic("codec: Bool on " + f.kind.String() + " field")
	}
	return f.b
}

// SetBool sets a boolean field.
func (f *Field) SetBool(v bool) {
	if f.kind != KindBool {
		panic("codec: SetBool on " + f.kind.String() + " field")
	}
	f.b = v
}

// Str reports the value of a string field.
func (f *Field) Str() string {
	if f.kind != KindString {
		panic("codec: Str on " + f.kind.String() + " field")
	}
	return f.str
}

// SetStr sets a string field. Length is checked at Encode, not here.
func (f *Field) SetStr(v string) {
	if f.kind != KindString {
		panic("codec: SetStr on " + f.kind.String() + " field")
	}
	f.str = v
}

// Uint reports the raw masked value of a number or bits field.
func (f *Field) Uint() uint64 {
	if f.kind != KindNumber && f.kind != KindBits {
		panic("codec: Uint on " + f.kind.String() + " field")
	}
	return f.num
}

// SetUint sets a number or bits field, masking to the declared width.
func (f *Field) SetUint(v uint64) {
	if f.kind != KindNumber && f.kind != KindBits {
		panic("codec: SetUint on " + f.kind.String() + " field")
	}
	f.num = v & f.valueMask()
}

// Int reports the value of a number or bits field sign-extended at the
// declared width.
func (f *Field) Int() int64 {
	if f.kind != KindNumber && f.kind != KindBits {
		panic("codec: Int on " + f.kind.String() + " field")
	}
	return signExtend(f.num, f.width)
}

// SetInt sets a number or bits field from a signed value, truncating to
// the declared width.
func (f *Field) SetInt(v int64) {
	if f.kind != KindNumber && f.kind != KindBits {
		panic("codec: SetInt on " + f.kind.String() + " field")
	}
	f.num = uint64(v) & f.valueMask()
}

// At reports the raw masked element i of an array field.
func (f *Field) At(i int) uint64 {
	if f.kind != KindArray {
		panic("codec: At on " + f.kind.String() + " field")
	}
	return f.elems[i]
}

// IntAt reports element i sign-extended at the declared width.
func (f *Field) IntAt(i int) int64 {
	if f.kind != KindArray {
		panic("codec: IntAt on " + f.kind.String() + " field")
	}
	return signExtend(f.elems[i], f.width)
}

// SetAt sets element i of an array field, masking to the declared width.
func (f *Field) SetAt(i int, v uint64) {
	if f.kind != KindArray {
		panic("codec: SetAt on " + f.kind.String() + " field")
	}
	f.elems[i] = v & f.valueMask()
}

// SetIntAt sets element i from a signed value, truncating to the
// declared width.
func (f *Field) SetIntAt(i int, v int64) {
	if f.kind != KindArray {
		panic("codec: SetIntAt on " + f.kind.String() + " field")
	}
	f.elems[i] = uint64(v) & f.valueMask()
}

// Fill sets every element of an array field to v.
func (f *Field) Fill(v uint64) {
	if f.kind != KindArray {
		panic("codec: Fill on " + f.kind.String() + " field")
	}
	v &= f.valueMask()
	for i := range f.elems {
		f.elems[i] = v
	}
}

// SetBit sets or clears one bit of a bits field. Indices outside the
// declared width are ignored.
func (f *Field) SetBit(bit int, flag bool) {
	if f.kind != KindBits {
		panic("codec: SetBit on " + f.kind.String() + " field")
	}
	if bit < 0 || bit >= f.width {
		return
	}
	if flag {
		f.num |= 1 << bit
	} else {
		f.num &^= 1 << bit
	}
}

// Bit reports one bit of a bits field. Indices outside the declared
// width read as false.
func (f *Field) Bit(bit int) bool {
	if f.kind != KindBits {
		panic("codec: Bit on " + f.kind.String() + " field")
	}
	if bit < 0 || bit >= f.width {
		return false
	}
	return f.num&(1<<bit) != 0
}

// Equal reports whether peer holds the same kind, shape and value. A
// kind or shape mismatch is inequality, not a fault.
func (f *Field) Equal(peer *Field) bool {
	if peer == nil || f.kind != peer.kind {
		return false
	}
	switch f.kind {
	case KindSeparator:
		return true
	case KindBool:
		return f.b == peer.b
	case KindString:
		return f.str == peer.str
	case KindNumber, KindBits:
		return f.width == peer.width && f.signed == peer.signed && f.num == peer.num
	case KindArray:
		if f.width != peer.width || f.signed != peer.signed || f.count != peer.count {
			return false
		}
		for i := range f.elems {
			if f.elems[i] != peer.elems[i] {
				return false
			}
		}
		return true
	}
	return false
}

// CopyFrom copies peer's value into f. It reports false and leaves f
// untouched when the kinds or shapes differ.
func (f *Field) CopyFrom(peer *Field) bool {
	if peer == nil || f.kind != peer.kind {
		return false
	}
	switch f.kind {
	case KindSeparator:
		return true
	case KindBool:
		f.b = peer.b
	case KindString:
		f.str = peer.str
	case KindNumber, KindBits:
		if f.width != peer.width || f.signed != peer.signed {
			return false
		}
		f.num = peer.num
	case KindArray:
		if f.width != peer.width || f.signed != peer.signed || f.count != peer.count {
			return false
		}
		copy(f.elems, peer.elems)
	}
	return true
}
