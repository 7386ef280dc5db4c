package usox

import (
	"math"
	"math/rand"
	"testing"
)

func TestJumpHashBounds(t *testing.T) {
	const buckets = 20
	for i := 0; i < 10000; i++ {
		key := rand.Int63n(math.MaxInt64)
		hash := JumpHash(uint64(key), buckets)
		if hash < 0 || hash >= buckets {
			t.Fatalf("JumpHash(%d, %d) = %d, out of range", key, buckets, hash)
		}
	}
}

func TestJumpHashStable(t *testing.T) {
	const buckets = 8
	key := uint64(123456789)
	first := JumpHash(key, buckets)
	for i := 0; i < 100; i++ {
		if got := JumpHash(key, buckets); got != first {
			t.Fatalf("JumpHash not deterministic: got %d, want %d", got, first)
		}
	}
}

func TestLoopGroupPickStableForSameKey(t *testing.T) {
	g := &LoopGroup{loops: []*Loop{{}, {}, {}, {}}}
	var key uint64 = 42
	want := g.Pick(key)
	for i := 0; i < 10; i++ {
		if got := g.Pick(key); got != want {
			t.Fatalf("Pick(%d) not stable across calls", key)
		}
	}
}
