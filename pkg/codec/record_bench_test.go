//go:build bench
// +build bench

package codec

import (
	"testing"

	"github.com/ssargent/bitrec/pkg/bitstream"
)

// benchRecords returns schema-identical record pairs of increasing
// weight for the serialize benchmarks.
func benchRecords() []struct {
	name string
	rec  *Record
	peer *Record
} {
	small := func(count uint64, age uint64) *Record {
		return NewRecord(
			NewBool(true),
			NewUint(32, count),
			NewString("Namae"),
			NewUint(8, age),
		)
	}

	arrays := func(seed uint64) *Record {
		points := NewUintArray(32, 64)
		for i := 0; i < 64; i++ {
			points.SetAt(i, seed+uint64(i)*97)
		}
		deltas := NewIntArray(16, 32)
		for i := 0; i < 32; i++ {
			deltas.SetIntAt(i, int64(seed)-int64(i)*13)
		}
		return NewRecord(NewUint(32, seed), points, deltas)
	}

	strings := func(tail string) *Record {
		return NewRecord(
			NewString("first-part-of-a-longer-payload"),
			NewString("second-part-of-the-payload"),
			NewString(tail),
			NewUint(16, 9000),
		)
	}

	return []struct {
		name string
		rec  *Record
		peer *Record
	}{
		{name: "small", rec: small(1000, 20), peer: small(1001, 31)},
		{name: "arrays", rec: arrays(5000), peer: arrays(5017)},
		{name: "strings", rec: strings("tail-a"), peer: strings("tail-b")},
	}
}

func BenchmarkRecord_Serialize(b *testing.B) {
	for _, bm := range benchRecords() {
		b.Run(bm.name, func(b *testing.B) {
			s := bitstream.New(bm.rec.SizeHint() * 2)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Reset()
				if err := bm.rec.Serialize(s); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecord_Deserialize(b *testing.B) {
	for _, bm := range benchRecords() {
		b.Run(bm.name, func(b *testing.B) {
			s := bitstream.New(bm.rec.SizeHint() * 2)
			if err := bm.rec.Serialize(s); err != nil {
				b.Fatal(err)
			}
			in := bitstream.FromBytes(s.Bytes())

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				in.Seek(0)
				if err := bm.rec.Deserialize(in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecord_SerializeDiff(b *testing.B) {
	for _, bm := range benchRecords() {
		b.Run(bm.name+"/changed", func(b *testing.B) {
			s := bitstream.New(bm.rec.SizeHint() + bm.peer.SizeHint())

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Reset()
				if err := bm.rec.SerializeDiff(s, bm.peer); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(bm.name+"/unchanged", func(b *testing.B) {
			s := bitstream.New(bm.rec.SizeHint() * 2)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Reset()
				if err := bm.rec.SerializeDiff(s, bm.rec); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecord_DeserializeDiff(b *testing.B) {
	for _, bm := range benchRecords() {
		b.Run(bm.name, func(b *testing.B) {
			s := bitstream.New(bm.rec.SizeHint() + bm.peer.SizeHint())
			if err := bm.rec.SerializeDiff(s, bm.peer); err != nil {
				b.Fatal(err)
			}
			in := bitstream.FromBytes(s.Bytes())

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				in.Seek(0)
				if err := bm.rec.DeserializeDiff(in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecord_SizeHint(b *testing.B) {
	rec := benchRecords()[1].rec

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rec.SizeHint()
	}
}
