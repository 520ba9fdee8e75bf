// Package bitstream implements a fixed-capacity bit-level cursor over a
// word-packed buffer.
//
// Values are packed bit-minor within 64-bit words, least significant bit
// first: the first bit written lands in bit 0 of word 0, and Bytes renders
// each word little-endian, so the byte view is identical to packing into a
// flat byte array low bit first.
//
// A Stream has a single cursor shared by reads and writes. Every operation
// either fully succeeds and advances the cursor, or fails with ErrCapacity
// and leaves the cursor where it was. Reset, Seek and Tell allow replay and
// rollback. A Stream does no I/O and never grows; callers size it up front,
// typically from a record's SizeHint.
//
// Streams are not safe for concurrent use. Use one Stream per goroutine.
package bitstream
