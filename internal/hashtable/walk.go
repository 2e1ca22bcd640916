// Package hashtable implements the bucket-chain walk shared by the
// in-memory hashtable layouts the client uses for both its entity table
// and its native container packages: a bucket array of head pointers,
// each head chaining forward through a singly-linked entry list.
package hashtable

import "context"

// Reader is the minimal pointer-reading surface the walk needs; both
// procmem.ProcessMemory and test doubles satisfy it.
type Reader interface {
	ReadPointer(ctx context.Context, addr uint64) (uint64, error)
}

// WalkBuckets visits every non-null entry across nbBuckets chains rooted
// at bucketsPtr[i], calling visit(entryPtr) for each. next computes the
// address of an entry's successor pointer from the entry's own address;
// callers pass a closure since the chain-link offset differs between the
// entity table (fixed +8) and native hashtables (+key_size).
func WalkBuckets(ctx context.Context, r Reader, bucketsPtr uint64, nbBuckets uint32, pointerSize int, next func(entryPtr uint64) uint64, visit func(entryPtr uint64) error) error {
	for i := uint32(0); i < nbBuckets; i++ {
		head, err := r.ReadPointer(ctx, bucketsPtr+uint64(i)*uint64(pointerSize))
		if err != nil {
			return err
		}
		for entry := head; entry != 0; {
			if err := visit(entry); err != nil {
				return err
			}
			nextAddr := next(entry)
			nextEntry, err := r.ReadPointer(ctx, nextAddr)
			if err != nil {
				return err
			}
			entry = nextEntry
		}
	}
	return nil
}
