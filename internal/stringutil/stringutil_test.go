package stringutil

import (
	"context"
	"encoding/binary"
	"testing"
)

type fakeMemory struct{ buf []byte }

func (f *fakeMemory) ReadBytes(ctx context.Context, addr uint64, n int) ([]byte, error) {
	return f.buf[addr : addr+uint64(n)], nil
}
func (f *fakeMemory) ReadU8(ctx context.Context, addr uint64) (uint8, error) { return f.buf[addr], nil }
func (f *fakeMemory) ReadU16(ctx context.Context, addr uint64) (uint16, error) {
	return binary.LittleEndian.Uint16(f.buf[addr:]), nil
}
func (f *fakeMemory) ReadU32(ctx context.Context, addr uint64) (uint32, error) {
	return binary.LittleEndian.Uint32(f.buf[addr:]), nil
}
func (f *fakeMemory) ReadU64(ctx context.Context, addr uint64) (uint64, error) {
	return binary.LittleEndian.Uint64(f.buf[addr:]), nil
}
func (f *fakeMemory) ReadF32(ctx context.Context, addr uint64) (float32, error) { return 0, nil }
func (f *fakeMemory) ReadF64(ctx context.Context, addr uint64) (float64, error) { return 0, nil }
func (f *fakeMemory) ReadBool(ctx context.Context, addr uint64) (bool, error) {
	return f.buf[addr] != 0, nil
}
func (f *fakeMemory) ReadPointer(ctx context.Context, addr uint64) (uint64, error) {
	return binary.LittleEndian.Uint64(f.buf[addr:]), nil
}
func (f *fakeMemory) Close() error { return nil }

// byteSwappedUTF16 writes "Hi" with each code unit's bytes swapped,
// matching what ReadLiteralMemoryString expects to unswap.
func byteSwappedUTF16(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		var pair [2]byte
		binary.LittleEndian.PutUint16(pair[:], uint16(r))
		out = append(out, pair[1], pair[0]) // swapped
	}
	return out
}

func TestReadLiteralMemoryString(t *testing.T) {
	const strPtr = 64
	mem := &fakeMemory{buf: make([]byte, 256)}

	text := byteSwappedUTF16("Hi")
	copy(mem.buf[strPtr:], text)
	// header: char count (including the implicit terminator) at +8
	// relative to headerPtr = strPtr-12.
	binary.LittleEndian.PutUint32(mem.buf[strPtr-12+8:], 3)

	got, err := ReadLiteralMemoryString(context.Background(), mem, strPtr)
	if err != nil {
		t.Fatalf("ReadLiteralMemoryString: %v", err)
	}
	if got != "Hi" {
		t.Errorf("got %q, want %q", got, "Hi")
	}
}

func TestReadLiteralMemoryStringEmpty(t *testing.T) {
	mem := &fakeMemory{buf: make([]byte, 64)}
	got, err := ReadLiteralMemoryString(context.Background(), mem, 32)
	if err != nil {
		t.Fatalf("ReadLiteralMemoryString: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestReadApproxWideString(t *testing.T) {
	mem := &fakeMemory{buf: make([]byte, 128)}
	// "EU1" as UTF-16LE, each code unit's high byte zero, followed by a
	// terminating run of zero bytes.
	name := "EU1"
	var encoded []byte
	for _, r := range name {
		encoded = append(encoded, byte(r), 0)
	}
	copy(mem.buf[16:], encoded)

	got, err := ReadApproxWideString(context.Background(), mem, 16, 80)
	if err != nil {
		t.Fatalf("ReadApproxWideString: %v", err)
	}
	if got != name {
		t.Errorf("got %q, want %q", got, name)
	}
}

func TestReadApproxWideStringNullPointer(t *testing.T) {
	mem := &fakeMemory{buf: make([]byte, 16)}
	got, err := ReadApproxWideString(context.Background(), mem, 0, 80)
	if err != nil {
		t.Fatalf("ReadApproxWideString: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
