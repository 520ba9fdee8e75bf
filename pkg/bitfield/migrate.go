package bitfield

import (
	"fmt"

	"github.com/ssargent/bitrec/pkg/bitstream"
)

const (
	sizeClassBits = 3
	countBits     = 13

	maxCount = 1<<countBits - 1
)

// PackedSize reports the bytes Pack needs for n elements of this
// layout.
func (l *Layout) PackedSize(n int) int {
	bits := sizeClassBits + countBits + n*l.Size()*8
	return (bits + 7) / 8
}

// Pack writes the array's size class, element count and raw words to
// s. The count is validated before anything is written, but a capacity
// failure mid-dump leaves the header and earlier elements in the
// stream; size with PackedSize to avoid that.
func Pack(s *bitstream.Stream, a *Array) error {
	if a.n > maxCount {
		return fmt.Errorf("%w: %d elements, limit %d", ErrCount, a.n, maxCount)
	}
	l := a.layout
	if err := s.WriteBits(uint64(l.Size()/4-1), sizeClassBits); err != nil {
		return err
	}
	if err := s.WriteBits(uint64(a.n), countBits); err != nil {
		return err
	}

	if l.Size()%8 == 0 {
		for i := 0; i < len(a.words); i += 2 {
			w := uint64(a.words[i]) | uint64(a.words[i+1])<<32
			if err := s.WriteBits(w, 64); err != nil {
				return err
			}
		}
		return nil
	}
	for _, w := range a.words {
		if err := s.WriteBits(uint64(w), 32); err != nil {
			return err
		}
	}
	return nil
}

// Unpack reads a packed dump from s into a, reconciling layout
// differences at word granularity. It returns how many elements were
// filled: the wire count clamped to a's length. Elements beyond the
// clamp are not consumed from the stream. Destination words past the
// source's element width keep their prior values; source words past
// the destination's are skipped.
func Unpack(s *bitstream.Stream, a *Array) (int, error) {
	class, err := s.ReadBits(sizeClassBits)
	if err != nil {
		return 0, err
	}
	count, err := s.ReadBits(countBits)
	if err != nil {
		return 0, err
	}

	n := int(count)
	if n > a.n {
		n = a.n
	}

	srcWords := int(class) + 1
	dstWords := a.layout.elemWords
	shared := srcWords
	skipBits := 0
	if srcWords > dstWords {
		shared = dstWords
		skipBits = (srcWords - dstWords) * 32
	}

	for i := 0; i < n; i++ {
		base := i * dstWords
		for p := 0; p < shared; p++ {
			w, err := s.ReadBits(32)
			if err != nil {
				return i, err
			}
			a.words[base+p] = uint32(w)
		}
		if skipBits > 0 {
			s.Seek(s.Tell() + skipBits)
		}
	}
	return n, nil
}
