package varint

import (
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 255, 256, 16383, 16384, 1 << 32, ^uint64(0)}
	for _, v := range values {
		buf := Encode(nil, v)
		var pos int
		got, ok := Decode(buf, &pos)
		if !ok {
			t.Fatalf("Decode(%d) failed", v)
		}
		if got != v {
			t.Fatalf("round trip mismatch: got %d want %d", got, v)
		}
		if pos != len(buf) {
			t.Fatalf("pos=%d, want %d (len(buf))", pos, len(buf))
		}
	}
}

func TestEncodedLenBounds(t *testing.T) {
	if got := AppendedLen(0); got != 1 {
		t.Fatalf("AppendedLen(0)=%d want 1", got)
	}
	if got := AppendedLen(^uint64(0)); got != MaxLen {
		t.Fatalf("AppendedLen(max)=%d want %d", got, MaxLen)
	}
	for _, v := range []uint64{0, 1, 127, 128, 1 << 40, ^uint64(0)} {
		buf := Encode(nil, v)
		if len(buf) != AppendedLen(v) {
			t.Fatalf("len mismatch for %d: encoded %d, AppendedLen %d", v, len(buf), AppendedLen(v))
		}
		if len(buf) > MaxLen {
			t.Fatalf("encoding of %d exceeded MaxLen: %d bytes", v, len(buf))
		}
	}
}

func TestDecodeTruncatedBuffer(t *testing.T) {
	buf := Encode(nil, uint64(1)<<40)
	for n := 0; n < len(buf)-1; n++ {
		pos := 0
		if _, ok := Decode(buf[:n], &pos); ok {
			t.Fatalf("Decode on truncated buffer (%d/%d bytes) unexpectedly succeeded", n, len(buf))
		}
		if pos != 0 {
			t.Fatalf("Decode must not advance pos on failure, got %d", pos)
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		v := rng.Uint64()
		buf := Encode(nil, v)
		var pos int
		got, ok := Decode(buf, &pos)
		if !ok || got != v {
			t.Fatalf("round trip failed for %d: got=%d ok=%v", v, got, ok)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	dst := make([]byte, 0, MaxLen)
	for i := 0; i < b.N; i++ {
		dst = Encode(dst[:0], uint64(i))
	}
}

func BenchmarkDecode(b *testing.B) {
	buf := Encode(nil, 123456789)
	for i := 0; i < b.N; i++ {
		var pos int
		Decode(buf, &pos)
	}
}
