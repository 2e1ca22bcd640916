package procmem

import (
	"context"
	"encoding/binary"
	"math"
)

// MockMemory is a flat byte buffer addressed from Base, for tests and for
// fixture-driven golden scenarios. Reads outside the buffer return
// MemoryReadError the same way a real unmapped page would.
type MockMemory struct {
	Base    uint64
	Buf     []byte
	Is64Bit bool
}

func (m *MockMemory) ReadBytes(ctx context.Context, addr uint64, n int) ([]byte, error) {
	if addr < m.Base {
		return nil, &MemoryReadError{Addr: addr}
	}
	off := addr - m.Base
	if off+uint64(n) > uint64(len(m.Buf)) {
		return nil, &MemoryReadError{Addr: addr}
	}
	out := make([]byte, n)
	copy(out, m.Buf[off:off+uint64(n)])
	return out, nil
}

func (m *MockMemory) ReadU8(ctx context.Context, addr uint64) (uint8, error) {
	b, err := m.ReadBytes(ctx, addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *MockMemory) ReadU16(ctx context.Context, addr uint64) (uint16, error) {
	b, err := m.ReadBytes(ctx, addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *MockMemory) ReadU32(ctx context.Context, addr uint64) (uint32, error) {
	b, err := m.ReadBytes(ctx, addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *MockMemory) ReadU64(ctx context.Context, addr uint64) (uint64, error) {
	b, err := m.ReadBytes(ctx, addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *MockMemory) ReadF32(ctx context.Context, addr uint64) (float32, error) {
	v, err := m.ReadU32(ctx, addr)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (m *MockMemory) ReadF64(ctx context.Context, addr uint64) (float64, error) {
	v, err := m.ReadU64(ctx, addr)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (m *MockMemory) ReadBool(ctx context.Context, addr uint64) (bool, error) {
	v, err := m.ReadU8(ctx, addr)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (m *MockMemory) ReadPointer(ctx context.Context, addr uint64) (uint64, error) {
	if m.Is64Bit {
		return m.ReadU64(ctx, addr)
	}
	v, err := m.ReadU32(ctx, addr)
	return uint64(v), err
}

func (m *MockMemory) Close() error { return nil }
