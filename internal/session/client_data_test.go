package session

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/propval"
)

// fakeMemory is a flat byte-addressed process memory double, the kind
// procmem.ProcessMemory documents test implementations using.
type fakeMemory struct {
	buf []byte
}

func newFakeMemory(size int) *fakeMemory { return &fakeMemory{buf: make([]byte, size)} }

func (f *fakeMemory) putU32(addr uint64, v uint32) {
	binary.LittleEndian.PutUint32(f.buf[addr:], v)
}

func (f *fakeMemory) putWideString(addr uint64, s string) {
	i := addr
	for _, r := range s {
		binary.LittleEndian.PutUint16(f.buf[i:], uint16(r))
		i += 2
	}
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
	return uint64(binary.LittleEndian.Uint32(f.buf[addr:])), nil
}
func (f *fakeMemory) Close() error { return nil }

type fakeRegistry struct{}

func (fakeRegistry) GetPropertyDef(pid uint32) (*propval.PropertyDef, bool) { return nil, false }

type fakeEnumLookup struct{}

func (fakeEnumLookup) GetEnumMapper(did uint32) (propval.EnumMapper, bool) { return nil, false }

func TestLoadClientData(t *testing.T) {
	mem := newFakeMemory(8192)
	layout := procmem.NewLayout(false, 0)

	const clientDataField = 0x10
	const clientInstanceAddr = 0x200
	const serverNameBuf = 0x400
	const languageBuf = 0x500

	layout.ClientDataAddr = clientDataField
	mem.putU32(clientDataField, clientInstanceAddr)

	mem.putU32(clientInstanceAddr+layout.ClientServerNameOffset(), serverNameBuf)
	mem.putWideString(serverNameBuf, "Bree-land")

	mem.putU32(clientInstanceAddr+layout.ClientLanguageOffset(), languageBuf)
	mem.putWideString(languageBuf, "EN")

	// account/world property pointers resolve to objects whose hashtable
	// bucketsPtr is left zero, so HandleProperties returns an empty,
	// error-free PropertySet without needing a populated hashtable.
	const accountObjAddr = 0x600
	const worldObjAddr = 0x700
	mem.putU32(clientInstanceAddr+layout.ClientAccountPropertyOffset(), accountObjAddr)
	mem.putU32(clientInstanceAddr+layout.ClientWorldPropertyOffset(), worldObjAddr)

	props := propval.NewLiveDecoder(mem, layout, fakeRegistry{}, fakeEnumLookup{})

	data, err := LoadClientData(context.Background(), mem, layout, props)
	if err != nil {
		t.Fatalf("LoadClientData: %v", err)
	}
	if data.ServerName != "Bree-land" {
		t.Errorf("ServerName = %q, want Bree-land", data.ServerName)
	}
	if data.Language != "EN" {
		t.Errorf("Language = %q, want EN", data.Language)
	}
	if data.AccountProperties == nil || data.AccountProperties.Len() != 0 {
		t.Errorf("AccountProperties = %#v, want empty non-nil set", data.AccountProperties)
	}
	if data.WorldProperties == nil || data.WorldProperties.Len() != 0 {
		t.Errorf("WorldProperties = %#v, want empty non-nil set", data.WorldProperties)
	}
}

func TestLoadClientDataNilClientPointer(t *testing.T) {
	mem := newFakeMemory(4096)
	layout := procmem.NewLayout(false, 0)
	layout.ClientDataAddr = 0x10
	// clientInstanceAddr resolves to 0; every downstream pointer read
	// against offsets of 0 stays within the buffer and comes back zero.
	props := propval.NewLiveDecoder(mem, layout, fakeRegistry{}, fakeEnumLookup{})

	data, err := LoadClientData(context.Background(), mem, layout, props)
	if err != nil {
		t.Fatalf("LoadClientData: %v", err)
	}
	if data.ServerName != "" || data.Language != "" {
		t.Errorf("data = %#v, want empty strings", data)
	}
}
