package nativepkg

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/propval"
)

// fakeMemory is a flat byte-addressed process memory double.
type fakeMemory struct {
	buf []byte
}

func newFakeMemory(size int) *fakeMemory { return &fakeMemory{buf: make([]byte, size)} }

func (f *fakeMemory) putU32(addr uint64, v uint32) { binary.LittleEndian.PutUint32(f.buf[addr:], v) }
func (f *fakeMemory) putU64(addr uint64, v uint64) { binary.LittleEndian.PutUint64(f.buf[addr:], v) }

func (f *fakeMemory) putUTF16(addr uint64, s string) {
	for i, r := range s {
		binary.LittleEndian.PutUint16(f.buf[addr+uint64(i)*2:], uint16(r))
	}
	binary.LittleEndian.PutUint16(f.buf[addr+uint64(len(s))*2:], 0)
}

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

func TestDecodeBankRepositoryDataLive(t *testing.T) {
	mem := newFakeMemory(4096)
	layout := procmem.NewLayout(true, 0)

	const base = 0
	const offset = 8 // pointer size
	mem.putU64(base+uint64(offset)+16, 100) // buckets_ptr
	mem.putU32(base+uint64(offset)+32, 1)   // nb_buckets
	mem.putU32(base+uint64(offset)+36, 1)   // nb_elements

	mem.putU64(100, 200) // bucket[0] head

	mem.putU32(200, 42)  // key
	mem.putU64(208, 0)   // next = 0
	mem.putU64(216, 300) // value ptr -> string address
	mem.putUTF16(300, "Chest A")

	l := NewLiveDecoder(mem, layout, &fakeRegistry{}, fakeEnumLookup{})
	vd, err := l.DecodeBankRepositoryData(context.Background(), base)
	if err != nil {
		t.Fatalf("DecodeBankRepositoryData: %v", err)
	}
	if vd.ChestNames[42] != "Chest A" {
		t.Errorf("ChestNames[42] = %q, want %q", vd.ChestNames[42], "Chest A")
	}
}

func TestDecodeBankRepositoryDataAdaptorLive(t *testing.T) {
	mem := newFakeMemory(4096)
	layout := procmem.NewLayout(true, 0)

	const ptr = 0
	mem.putU64(ptr+8, 0x1122334455) // item iid

	l := NewLiveDecoder(mem, layout, &fakeRegistry{}, fakeEnumLookup{})
	v, err := l.DecodeBankRepositoryDataAdaptor(context.Background(), ptr)
	if err != nil {
		t.Fatalf("DecodeBankRepositoryDataAdaptor: %v", err)
	}
	if v.ItemIID != 0x1122334455 {
		t.Errorf("ItemIID = %#x, want %#x", v.ItemIID, 0x1122334455)
	}
	if v.Props == nil || v.Props.Len() != 0 {
		t.Errorf("Props = %+v, want empty set", v.Props)
	}
	if v.TooltipHelper != nil {
		t.Errorf("TooltipHelper = %+v, want nil", v.TooltipHelper)
	}
}

func TestDecodeNativeIntSet(t *testing.T) {
	mem := newFakeMemory(4096)
	layout := procmem.NewLayout(true, 0)

	const factoryPtr = 1000
	mem.putU32(factoryPtr, pkgIntSet)

	const base = 0
	mem.putU64(base+16, 100) // buckets_ptr
	mem.putU32(base+32, 1)   // nb_buckets
	mem.putU32(base+36, 1)   // nb_elements
	mem.putU64(100, 200)     // bucket[0] head
	mem.putU32(200, 7)       // key
	mem.putU64(208, 0)       // next

	l := NewLiveDecoder(mem, layout, &fakeRegistry{}, fakeEnumLookup{})
	v, err := l.DecodeNative(context.Background(), factoryPtr, base)
	if err != nil {
		t.Fatalf("DecodeNative: %v", err)
	}
	set, ok := v.(map[uint32]struct{})
	if !ok {
		t.Fatalf("v = %T, want map[uint32]struct{}", v)
	}
	if _, ok := set[7]; !ok {
		t.Errorf("set = %v, want key 7 present", set)
	}
}

func TestDecodeNativeUnmanagedID(t *testing.T) {
	mem := newFakeMemory(64)
	layout := procmem.NewLayout(true, 0)
	mem.putU32(0, 0xFFFF)

	l := NewLiveDecoder(mem, layout, &fakeRegistry{}, fakeEnumLookup{})
	if _, err := l.DecodeNative(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error for unmanaged native package id")
	}
}

func TestDecodeDBPropertiesDoesNotRecurseForever(t *testing.T) {
	mem := newFakeMemory(4096)
	layout := procmem.NewLayout(true, 0)

	const factoryPtr = 1000
	mem.putU32(factoryPtr, pkgDBProperties)

	const outer = 0
	const inner = 500
	mem.putU64(outer, inner) // one pointer indirection
	// inner hashtable header (offset=pointer_size): buckets_ptr left zero -> empty property set
	mem.putU64(inner+8+16, 0)
	mem.putU32(inner+8+32, 0)

	l := NewLiveDecoder(mem, layout, &fakeRegistry{}, fakeEnumLookup{})
	v, err := l.DecodeNative(context.Background(), factoryPtr, outer)
	if err != nil {
		t.Fatalf("DecodeNative: %v", err)
	}
	ps, ok := v.(*propval.PropertySet)
	if !ok || ps.Len() != 0 {
		t.Errorf("v = %+v, want an empty *propval.PropertySet", v)
	}
}
