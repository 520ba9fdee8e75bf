package bitstream

import "errors"

const (
	wordBits = 64
	byteBits = 8
)

// ErrCapacity is returned when a read or write would cross the stream's
// declared bit capacity.
var ErrCapacity = errors.New("bitstream: capacity exceeded")

// Stream is a cursor-based bit reader/writer with a fixed capacity.
// The zero value is not usable; create instances with New or FromBytes.
type Stream struct {
	words []uint64
	size  int // capacity in bits
	pos   int // cursor in bits
}

// New returns a Stream with a capacity of n bytes, all bits zero.
func New(n int) *Stream {
	return &Stream{
		words: make([]uint64, (n+7)/8),
		size:  n * byteBits,
	}
}

// FromBytes returns a Stream holding a copy of b with the cursor at zero.
// The capacity is len(b) bytes.
func FromBytes(b []byte) *Stream {
	s := New(len(b))
	for i, c := range b {
		s.words[i/8] |= uint64(c) << (i % 8 * byteBits)
	}
	return s
}

func checkWidth(width int) {
	if width < 1 || width > wordBits {
		panic("bitstream: bit width out of range")
	}
}

func mask(width int) uint64 {
	if width == wordBits {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// WriteBits packs the low width bits of value at the cursor and advances
// it. width must be between 1 and 64; an out-of-range width is a caller
// bug and panics. If the write would cross the capacity it returns
// ErrCapacity and leaves the cursor and buffer untouched.
func (s *Stream) WriteBits(value uint64, width int) error {
	checkWidth(width)
	if s.pos+width > s.size {
		return ErrCapacity
	}
	idx := s.pos / wordBits
	off := s.pos % wordBits
	value &= mask(width)
	if low := wordBits - off; width <= low {
		m := mask(width) << off
		s.words[idx] = s.words[idx]&^m | value<<off
	} else {
		// The value straddles two words: the low bits complete the
		// current word, the rest start the next.
		s.words[idx] = s.words[idx]&^(^uint64(0)<<off) | value<<off
		hi := width - low
		s.words[idx+1] = s.words[idx+1]&^mask(hi) | value>>low
	}
	s.pos += width
	return nil
}

// ReadBits unpacks width bits at the cursor and advances it. The same
// width and capacity rules as WriteBits apply.
func (s *Stream) ReadBits(width int) (uint64, error) {
	checkWidth(width)
	if s.pos+width > s.size {
		return 0, ErrCapacity
	}
	idx := s.pos / wordBits
	off := s.pos % wordBits
	v := s.words[idx] >> off
	if low := wordBits - off; width > low {
		v |= s.words[idx+1] << low
	}
	v &= mask(width)
	s.pos += width
	return v, nil
}

// WriteInt packs value at the given width in sign-magnitude form: the top
// bit of the width is the sign flag, the remaining bits hold the absolute
// value. Non-negative values have the top bit cleared even if the value
// itself set it, so magnitudes must fit in width-1 bits.
func (s *Stream) WriteInt(value int64, width int) error {
	checkWidth(width)
	sign := uint64(1) << (width - 1)
	var u uint64
	if value < 0 {
		u = uint64(-value) | sign
	} else {
		u = uint64(value) &^ sign
	}
	return s.WriteBits(u, width)
}

// ReadInt unpacks a sign-magnitude value of the given width.
func (s *Stream) ReadInt(width int) (int64, error) {
	checkWidth(width)
	u, err := s.ReadBits(width)
	if err != nil {
		return 0, err
	}
	sign := uint64(1) << (width - 1)
	if u&sign != 0 {
		return -int64(u &^ sign), nil
	}
	return int64(u), nil
}

// WriteBool writes a single bit.
func (s *Stream) WriteBool(value bool) error {
	var b uint64
	if value {
		b = 1
	}
	return s.WriteBits(b, 1)
}

// ReadBool reads a single bit.
func (s *Stream) ReadBool() (bool, error) {
	b, err := s.ReadBits(1)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// WriteByte writes one byte at the cursor. The cursor must be byte
// aligned; calling it mid-byte is a contract violation and panics.
func (s *Stream) WriteByte(value byte) error {
	if s.pos%byteBits != 0 {
		panic("bitstream: WriteByte at unaligned cursor")
	}
	return s.WriteBits(uint64(value), byteBits)
}

// ReadByte reads one byte at the cursor, which must be byte aligned.
func (s *Stream) ReadByte() (byte, error) {
	if s.pos%byteBits != 0 {
		panic("bitstream: ReadByte at unaligned cursor")
	}
	v, err := s.ReadBits(byteBits)
	return byte(v), err
}

// AlignByte advances the cursor to the next byte boundary without
// touching the buffer.
func (s *Stream) AlignByte() {
	s.pos = (s.pos + byteBits - 1) / byteBits * byteBits
}

// PadToNext advances the cursor to the next byte boundary by writing
// zero bits.
func (s *Stream) PadToNext() error {
	if rem := s.pos % byteBits; rem != 0 {
		return s.WriteBits(0, byteBits-rem)
	}
	return nil
}

// Terminate writes a 32-bit end-of-stream marker. The marker is a caller
// convention; nothing in the stream interprets it.
func (s *Stream) Terminate(mark uint32) error {
	return s.WriteBits(uint64(mark), 32)
}

// Reset moves the cursor back to the start for replay.
func (s *Stream) Reset() { s.pos = 0 }

// Seek moves the cursor to the bit position pos. Positions are not
// bounds checked; a read or write at an out-of-range position fails
// there. pos must not be negative.
func (s *Stream) Seek(pos int) { s.pos = pos }

// Tell reports the cursor's bit position.
func (s *Stream) Tell() int { return s.pos }

// Size reports the bytes needed to hold every bit up to the cursor.
func (s *Stream) Size() int { return (s.pos + byteBits - 1) / byteBits }

// Cap reports the capacity in bits.
func (s *Stream) Cap() int { return s.size }

// Bytes renders the first Size() bytes of the buffer, each word least
// significant byte first. The slice is a copy.
func (s *Stream) Bytes() []byte {
	out := make([]byte, s.Size())
	for i := range out {
		out[i] = byte(s.words[i/8] >> (i % 8 * byteBits))
	}
	return out
}
