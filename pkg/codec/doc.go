// Package codec provides bit-packed record serialization with delta
// encoding and schema version tolerance.
//
// A Record is an ordered list of typed fields written back to back into
// a bitstream.Stream with no field names, lengths or offsets. The wire
// carries only tag bits and payloads, so both sides must construct the
// same field list in the same order; the format spends bits on nothing
// else.
//
// # Field Encodings
//
// Every field starts with a 2-bit base tag (Zero, One, Version, Other).
// What follows depends on the field kind:
//
//   - Separator: the Version tag alone. Separators carry no value and
//     mark schema generation boundaries.
//   - Bool: Zero or One tag alone.
//   - String: Other tag, 6-bit byte length, then (for non-empty values)
//     padding to the next byte boundary and the raw bytes. Strings are
//     limited to 63 bytes by the length field.
//   - Number: a bare Zero tag when the value is zero; otherwise the
//     Other tag, the payload width in 6 bits and the value at that
//     width. Signed values travel in sign-magnitude form: magnitude in
//     the low bits, sign in the top bit of the payload.
//   - Array: the Other tag, a zero in the 6-bit size field (the array
//     marker) and an 8-bit element count, then each element as a 2-bit
//     width class followed by a 6, 14, 30 or 62-bit payload chosen per
//     element. Small values cost 8 bits regardless of the declared
//     element type.
//   - Bits: a Number on the wire, with bit set/clear accessors in
//     memory.
//
// # Diff Encoding
//
// SerializeDiff writes, per field, a delta against a peer record such
// that DeserializeDiff applied to a record still holding the old values
// reproduces the peer's. Numbers and arrays encode the arithmetic
// difference, so unchanged values collapse to the 2-bit Zero tag and
// small changes to narrow adaptive classes. Deltas are applied modulo
// the declared field width, which makes unsigned wrap-around deltas
// land on the right value. Strings write a bare Zero tag when equal and
// a full re-encoding when not; bools always re-encode.
//
// SerializeDiffAndCopy additionally copies the peer's values into the
// baseline record on success, which is the bookkeeping a sender needs
// to diff against exactly what it last put on the wire.
//
// # Version Tolerance
//
// A schema grows by appending a Separator and new fields to the field
// list. A reader with fewer generations simply stops after its own
// shorter list. A reader with more generations than the writer fails to
// decode the Separator that the writer never wrote; Deserialize treats
// that one failure as a clean stop, rewinds to just before the
// Separator and returns success with the newer fields left at their
// prior values. DataVersion reports how many generations a record
// declares.
//
// # Usage
//
//	name := codec.NewString("Namae")
//	age := codec.NewUint(8, 20)
//	rec := codec.NewRecord(name, age)
//
//	s := bitstream.New(rec.SizeHint())
//	if err := rec.Serialize(s); err != nil {
//	    return err
//	}
//	payload := s.Bytes()
//
//	// On the receiving side, over the same field list:
//	if err := rec2.Deserialize(bitstream.FromBytes(payload)); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Encode and decode operations return an error and never panic on wire
// data. Sentinel errors classify the failure: ErrTagMismatch for wire
// bits that contradict the expected field, ErrKindMismatch for diffing
// against a peer of another shape, ErrFieldCount for record pairs of
// different lengths and ErrLength for values that do not fit their wire
// fields. Record operations wrap these with the failing field index.
// Accessors called on the wrong field kind panic; that is a programming
// error, not a data error.
//
// Failed record decodes rewind the stream cursor but do not restore
// field values already decoded before the failure.
//
// # Limits
//
// Nonzero 64-bit scalars do not survive the wire: the width 64 wraps to
// zero in the 6-bit size field and decoders then expect an array. Use
// 64-bit scalars only for values that are always zero, or split wider
// values across 32-bit fields. Signed magnitudes must fit in width-1
// bits, and array elements of 2^62 and above lose their top bits in the
// widest adaptive class.
//
// # Thread Safety
//
// Records and fields are plain mutable state with no internal locking.
// Confine a record and the streams it serializes to to one goroutine at
// a time.
package codec
