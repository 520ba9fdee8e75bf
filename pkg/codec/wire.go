package codec

import (
	"fmt"

	"github.com/ssargent/bitrec/pkg/bitstream"
)

// Adaptive array elements pick the smallest of four payload widths. The
// 2-bit class index selects one of these.
var classWidths = [4]int{6, 14, 30, 62}

// Encode appends the field's full wire form to s. On error the stream
// cursor is wherever the failing write left it; record-level encoding
// rewinds it.
func (f *Field) Encode(s *bitstream.Stream) error {
	switch f.kind {
	case KindSeparator:
		return s.WriteBits(tagVersion, baseBits)
	case KindBool:
		v := uint64(0)
		if f.b {
			v = 1
		}
		return s.WriteBits(v, baseBits)
	case KindString:
		return f.encodeString(s)
	case KindNumber, KindBits:
		if f.signed {
			return writeNumberInt(s, f.Int(), f.width)
		}
		return writeNumberUint(s, f.num, f.width)
	case KindArray:
		return f.encodeArray(s)
	}
	return ErrKindMismatch
}

// Decode reads the field's full wire form from s into the field. The
// value may be partially overwritten when an error is returned;
// record-level decoding handles cursor rollback.
func (f *Field) Decode(s *bitstream.Stream) error {
	switch f.kind {
	case KindSeparator:
		return decodeSeparator(s)
	case KindBool:
		return f.decodeBool(s)
	case KindString:
		return f.decodeString(s, false)
	case KindNumber, KindBits:
		return f.decodeNumber(s, false)
	case KindArray:
		return f.decodeArray(s, false)
	}
	return ErrKindMismatch
}

// EncodeDiff appends a delta against f that, applied by DecodeDiff to a
// field holding f's value, yields peer's value. Numbers and arrays
// travel as differences so unchanged values collapse to a 2-bit Zero
// tag; bools and strings re-encode peer's value in full when it
// changed.
func (f *Field) EncodeDiff(s *bitstream.Stream, peer *Field) error {
	switch f.kind {
	case KindSeparator:
		return s.WriteBits(tagVersion, baseBits)
	case KindBool:
		if peer == nil || peer.kind != KindBool {
			return ErrKindMismatch
		}
		return peer.Encode(s)
	case KindString:
		if peer == nil || peer.kind != KindString {
			return ErrKindMismatch
		}
		if f.str == peer.str {
			return s.WriteBits(tagZero, baseBits)
		}
		return peer.encodeString(s)
	case KindNumber, KindBits:
		if peer == nil || peer.kind != f.kind || peer.width != f.width || peer.signed != f.signed {
			return ErrKindMismatch
		}
		if f.signed {
			return writeNumberInt(s, peer.Int()-f.Int(), f.width)
		}
		return writeNumberUint(s, peer.num-f.num, f.width)
	case KindArray:
		return f.encodeArrayDiff(s, peer)
	}
	return ErrKindMismatch
}

// DecodeDiff reads a delta from s and applies it to the field in place.
// Numeric fields add the delta modulo their declared width; bools and
// strings take the re-encoded value, with a Zero tag meaning unchanged.
func (f *Field) DecodeDiff(s *bitstream.Stream) error {
	switch f.kind {
	case KindSeparator:
		return decodeSeparator(s)
	case KindBool:
		return f.decodeBool(s)
	case KindString:
		return f.decodeString(s, true)
	case KindNumber, KindBits:
		return f.decodeNumber(s, true)
	case KindArray:
		return f.decodeArray(s, true)
	}
	return ErrKindMismatch
}

func decodeSeparator(s *bitstream.Stream) error {
	v, err := s.ReadBits(baseBits)
	if err != nil {
		return err
	}
	if v != tagVersion {
		return fmt.Errorf("%w: separator tag %#x", ErrTagMismatch, v)
	}
	return nil
}

func (f *Field) decodeBool(s *bitstream.Stream) error {
	v, err := s.ReadBits(baseBits)
	if err != nil {
		return err
	}
	switch v {
	case tagZero:
		f.b = false
	case tagOne:
		f.b = true
	default:
		return fmt.Errorf("%w: bool tag %#x", ErrTagMismatch, v)
	}
	return nil
}

func (f *Field) encodeString(s *bitstream.Stream) error {
	n := len(f.str)
	if n > maxStringLen {
		return fmt.Errorf("%w: string is %d bytes, limit %d", ErrLength, n, maxStringLen)
	}
	if err := s.WriteBits(tagOther, baseBits); err != nil {
		return err
	}
	if err := s.WriteBits(uint64(n), sizeBits); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := s.PadToNext(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.WriteByte(f.str[i]); err != nil {
			return err
		}
	}
	return nil
}

// decodeString reads a string body. In diff mode a Zero tag means the
// value did not change.
func (f *Field) decodeString(s *bitstream.Stream, diff bool) error {
	tag, err := s.ReadBits(baseBits)
	if err != nil {
		return err
	}
	if diff && tag == tagZero {
		return nil
	}
	if tag != tagOther {
		return fmt.Errorf("%w: string tag %#x", ErrTagMismatch, tag)
	}
	n, err := s.ReadBits(sizeBits)
	if err != nil {
		return err
	}
	f.str = ""
	if n == 0 {
		return nil
	}
	s.AlignByte()
	buf := make([]byte, 0, n)
	for i := 0; i < int(n); i++ {
		b, err := s.ReadByte()
		if err != nil {
			f.str = string(buf)
			return err
		}
		buf = append(buf, b)
	}
	f.str = string(buf)
	return nil
}

// writeNumberUint writes a scalar: a bare Zero tag for zero, otherwise
// Other, the payload width in 6 bits and the value at that width. A
// 64-bit width wraps to zero in the size field, which decoders then
// take for an array header; 64-bit scalars only survive the wire when
// their value is zero.
func writeNumberUint(s *bitstream.Stream, v uint64, width int) error {
	if v == 0 {
		return s.WriteBits(tagZero, baseBits)
	}
	if err := s.WriteBits(tagOther, baseBits); err != nil {
		return err
	}
	if err := s.WriteBits(uint64(width), sizeBits); err != nil {
		return err
	}
	return s.WriteBits(v, width)
}

func writeNumberInt(s *bitstream.Stream, v int64, width int) error {
	if v == 0 {
		return s.WriteBits(tagZero, baseBits)
	}
	if err := s.WriteBits(tagOther, baseBits); err != nil {
		return err
	}
	if err := s.WriteBits(uint64(width), sizeBits); err != nil {
		return err
	}
	return s.WriteInt(v, width)
}

// readNumberPayload consumes the common scalar prefix and returns the
// payload width, or width 0 with ok=false for an elided zero.
func readNumberPayload(s *bitstream.Stream) (width int, ok bool, err error) {
	tag, err := s.ReadBits(baseBits)
	if err != nil {
		return 0, false, err
	}
	if tag == tagZero {
		return 0, false, nil
	}
	if tag != tagOther {
		return 0, false, fmt.Errorf("%w: number tag %#x", ErrTagMismatch, tag)
	}
	w, err := s.ReadBits(sizeBits)
	if err != nil {
		return 0, false, err
	}
	if w == 0 {
		return 0, false, fmt.Errorf("%w: array header in scalar position", ErrTagMismatch)
	}
	return int(w), true, nil
}

// decodeNumber reads a scalar at the width recorded on the wire and
// truncates it to the field's declared width. In diff mode the value is
// added to the current one instead, wrapping at the declared width.
func (f *Field) decodeNumber(s *bitstream.Stream, diff bool) error {
	width, ok, err := readNumberPayload(s)
	if err != nil {
		return err
	}
	var v uint64
	if ok {
		if f.signed {
			i, err := s.ReadInt(width)
			if err != nil {
				return err
			}
			v = uint64(i)
		} else {
			v, err = s.ReadBits(width)
			if err != nil {
				return err
			}
		}
	}
	if diff {
		v += f.num
	}
	f.num = v & f.valueMask()
	return nil
}

func writeArrayHeader(s *bitstream.Stream, count int) error {
	if err := s.WriteBits(tagOther, baseBits); err != nil {
		return err
	}
	if err := s.WriteBits(0, sizeBits); err != nil {
		return err
	}
	return s.WriteBits(uint64(count), byteBits)
}

func readArrayHeader(s *bitstream.Stream) (int, error) {
	tag, err := s.ReadBits(baseBits)
	if err != nil {
		return 0, err
	}
	if tag != tagOther {
		return 0, fmt.Errorf("%w: array tag %#x", ErrTagMismatch, tag)
	}
	size, err := s.ReadBits(sizeBits)
	if err != nil {
		return 0, err
	}
	if size != 0 {
		return 0, fmt.Errorf("%w: scalar in array position", ErrTagMismatch)
	}
	n, err := s.ReadBits(byteBits)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// writeElemUint writes one array element with the smallest class whose
// payload holds it. Values of 2^62 and above lose their top bits in the
// widest class.
func writeElemUint(s *bitstream.Stream, v uint64) error {
	var class int
	switch {
	case v < 1<<6:
		class = 0
	case v < 1<<14:
		class = 1
	case v < 1<<30:
		class = 2
	default:
		class = 3
	}
	if err := s.WriteBits(uint64(class), baseBits); err != nil {
		return err
	}
	return s.WriteBits(v, classWidths[class])
}

// writeElemInt picks the class by magnitude, leaving one payload bit
// for the sign.
func writeElemInt(s *bitstream.Stream, v int64) error {
	a := v
	if a < 0 {
		a = -a
	}
	var class int
	switch {
	case a < 1<<5:
		class = 0
	case a < 1<<13:
		class = 1
	case a < 1<<29:
		class = 2
	default:
		class = 3
	}
	if err := s.WriteBits(uint64(class), baseBits); err != nil {
		return err
	}
	return s.WriteInt(v, classWidths[class])
}

func readElemUint(s *bitstream.Stream) (uint64, error) {
	class, err := s.ReadBits(baseBits)
	if err != nil {
		return 0, err
	}
	return s.ReadBits(classWidths[class])
}

func readElemInt(s *bitstream.Stream) (int64, error) {
	class, err := s.ReadBits(baseBits)
	if err != nil {
		return 0, err
	}
	return s.ReadInt(classWidths[class])
}

func (f *Field) encodeArray(s *bitstream.Stream) error {
	if err := writeArrayHeader(s, f.count); err != nil {
		return err
	}
	for i := range f.elems {
		var err error
		if f.signed {
			err = writeElemInt(s, f.IntAt(i))
		} else {
			err = writeElemUint(s, f.elems[i])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Field) encodeArrayDiff(s *bitstream.Stream, peer *Field) error {
	if peer == nil || peer.kind != KindArray ||
		peer.width != f.width || peer.signed != f.signed || peer.count != f.count {
		return ErrKindMismatch
	}
	if err := writeArrayHeader(s, f.count); err != nil {
		return err
	}
	for i := range f.elems {
		var err error
		if f.signed {
			err = writeElemInt(s, peer.IntAt(i)-f.IntAt(i))
		} else {
			// The delta wraps at the element width, keeping backward
			// steps in the narrow classes.
			err = writeElemUint(s, (peer.elems[i]-f.elems[i])&f.valueMask())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// decodeArray reads the header, rejects counts that differ from the
// declared one, then reads each element. Elements read before a failure
// keep their new values.
func (f *Field) decodeArray(s *bitstream.Stream, diff bool) error {
	n, err := readArrayHeader(s)
	if err != nil {
		return err
	}
	if n != f.count {
		return fmt.Errorf("%w: array count %d on wire, declared %d", ErrLength, n, f.count)
	}
	for i := range f.elems {
		var v uint64
		if f.signed {
			x, err := readElemInt(s)
			if err != nil {
				return err
			}
			v = uint64(x)
		} else {
			v, err = readElemUint(s)
			if err != nil {
				return err
			}
		}
		if diff {
			v += f.elems[i]
		}
		f.elems[i] = v & f.valueMask()
	}
	return nil
}
