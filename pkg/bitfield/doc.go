// Package bitfield packs arrays of fixed-width bit-field records and
// migrates them across differing layouts.
//
// A Layout is an explicit ordered list of named bit widths packed
// least-significant-bit first into 32 or 64-bit allocation units, with
// no field straddling a unit boundary. Declaring the layout explicitly,
// rather than reinterpreting whatever a compiler laid out in memory,
// keeps the wire format identical across platforms.
//
// The wire format is a bulk word dump, not a field-aware encoding: a
// 3-bit size class (element bytes divided by four, minus one), a 13-bit
// element count, then count times the element's raw 32-bit words.
// Elements whose byte size is a multiple of eight are written as 64-bit
// words; readers always consume 32-bit words, which yields identical
// bits either way.
//
// Migration works on the shared word prefix. Unpacking into a narrower
// destination reads only the words the destination knows and skips the
// rest of each element; unpacking into a wider destination leaves the
// trailing destination words untouched, so fields added in newer
// layouts keep their prior values when fed old data. Element counts
// beyond the destination's capacity are not consumed: the cursor stops
// after the last element actually read. Preservation is word-granular:
// a new field sharing its unit with old fields is overwritten by the
// source's padding bits.
package bitfield
