package hashtable

import (
	"context"
	"testing"
)

// flatMem is a tiny ReadPointer-only mock addressed from 0, 8-byte words.
type flatMem struct {
	words map[uint64]uint64
}

func (f *flatMem) ReadPointer(ctx context.Context, addr uint64) (uint64, error) {
	return f.words[addr], nil
}

func TestWalkBucketsExactCountWithEmptyBuckets(t *testing.T) {
	// 4 buckets; bucket 0 empty, bucket 1 has a 2-entry chain, bucket 2
	// empty, bucket 3 has a 1-entry chain. next pointer lives at entry+8.
	const bucketsPtr = 0x1000
	mem := &flatMem{words: map[uint64]uint64{
		bucketsPtr + 0*8: 0,
		bucketsPtr + 1*8: 0x2000,
		bucketsPtr + 2*8: 0,
		bucketsPtr + 3*8: 0x3000,
		0x2000 + 8:        0x2100,
		0x2100 + 8:        0,
		0x3000 + 8:        0,
	}}

	var visited []uint64
	err := WalkBuckets(context.Background(), mem, bucketsPtr, 4, 8,
		func(entry uint64) uint64 { return entry + 8 },
		func(entry uint64) error { visited = append(visited, entry); return nil })
	if err != nil {
		t.Fatalf("WalkBuckets: %v", err)
	}
	want := []uint64{0x2000, 0x2100, 0x3000}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %#x, want %#x", i, visited[i], want[i])
		}
	}
}
