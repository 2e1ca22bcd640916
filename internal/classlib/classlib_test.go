package classlib

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
)

type fakeLoader struct {
	data []byte
}

func (f *fakeLoader) LoadResource(ctx context.Context, did uint32) ([]byte, error) {
	return f.data, nil
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putVLE(buf *bytes.Buffer, n uint32) {
	if n >= 0x80 {
		panic("test helper only supports small vle values")
	}
	buf.WriteByte(byte(n))
}

func putTSize(buf *bytes.Buffer, n uint32) {
	buf.WriteByte(0)
	putVLE(buf, n)
}

func buildClassDefsChunk(classes []struct {
	index   uint16
	rawSize uint32
}) []byte {
	var buf bytes.Buffer
	putVLE(&buf, uint32(len(classes)))
	for _, c := range classes {
		buf.WriteByte(1) // is_defined
		putU16(&buf, c.index)
		putU16(&buf, 0) // pair_count
		putU32(&buf, c.rawSize)
		putVLE(&buf, 0) // num_references
		putVLE(&buf, 0) // num_offsets
		putVLE(&buf, 0) // num_offsets_indices
	}
	return buf.Bytes()
}

func buildClassVarsChunk(classIndex uint16, vars []struct {
	hash  uint32
	index uint16
	typ   uint8
}) []byte {
	var buf bytes.Buffer
	putTSize(&buf, 1)
	putU32(&buf, uint32(classIndex))
	putTSize(&buf, uint32(len(vars)))
	for _, v := range vars {
		putU32(&buf, v.hash)
		putU16(&buf, v.index)
		buf.WriteByte(v.typ)
	}
	return buf.Bytes()
}

func buildParentsMapChunk(parents []uint32) []byte {
	var buf bytes.Buffer
	putU32(&buf, uint32(len(parents)))
	for _, p := range parents {
		putU32(&buf, p)
	}
	return buf.Bytes()
}

func wrapChunk(chunkType uint32, body []byte) []byte {
	var buf bytes.Buffer
	putU32(&buf, chunkMarker)
	putU32(&buf, chunkType)
	putU32(&buf, uint32(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

func buildClassLibraryResource(did, stopCode uint32, chunks [][]byte) []byte {
	var buf bytes.Buffer
	putU32(&buf, did)
	putU32(&buf, stopCode)
	buf.Write(make([]byte, 8))
	for _, c := range chunks {
		buf.Write(c)
	}
	putU32(&buf, stopCode)
	buf.WriteByte(1)
	return buf.Bytes()
}

func TestClassLibraryLoad(t *testing.T) {
	classDefsChunk := buildClassDefsChunk([]struct {
		index   uint16
		rawSize uint32
	}{
		{index: 10, rawSize: 100},
		{index: 20, rawSize: 200},
	})
	classVarsChunk := buildClassVarsChunk(20, []struct {
		hash  uint32
		index uint16
		typ   uint8
	}{
		{hash: 0xAABBCCDD, index: 0, typ: 2},
	})
	parentsChunk := buildParentsMapChunk([]uint32{0, 10})

	data := buildClassLibraryResource(0x56000000, 0xFEED, [][]byte{
		wrapChunk(chunkClassDefs, classDefsChunk),
		wrapChunk(chunkClassVars, classVarsChunk),
		wrapChunk(chunkParents, parentsChunk),
	})

	lib := NewClassLibrary(map[uint16]string{10: "WBase", 20: "WPlayer"}, nil, nil)
	if err := lib.Load(context.Background(), &fakeLoader{data: data}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	base, ok := lib.GetClass(10)
	if !ok || base.DisplayName() != "WBase" {
		t.Fatalf("class 10 = %+v, ok=%v", base, ok)
	}
	player, ok := lib.GetClass(20)
	if !ok || player.DisplayName() != "WPlayer" {
		t.Fatalf("class 20 = %+v, ok=%v", player, ok)
	}
	if player.Parent != base {
		t.Errorf("class 20 parent = %+v, want class 10", player.Parent)
	}
	if len(player.Attrs) != 1 || player.Attrs[0].Type != 2 {
		t.Errorf("class 20 attrs = %+v", player.Attrs)
	}
	if player.Attrs[0].Name != "AABBCCDD" {
		t.Errorf("unresolved hash name = %q, want hex fallback AABBCCDD", player.Attrs[0].Name)
	}
}

func TestClassLibraryUnresolvedNameFallsBackToIndex(t *testing.T) {
	classDefsChunk := buildClassDefsChunk([]struct {
		index   uint16
		rawSize uint32
	}{
		{index: 99, rawSize: 1},
	})
	data := buildClassLibraryResource(0x56000000, 0xFEED, [][]byte{
		wrapChunk(chunkClassDefs, classDefsChunk),
	})
	lib := NewClassLibrary(nil, nil, nil)
	if err := lib.Load(context.Background(), &fakeLoader{data: data}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, ok := lib.GetClass(99)
	if !ok {
		t.Fatal("class 99 not found")
	}
	if c.DisplayName() != "99" {
		t.Errorf("DisplayName() = %q, want 99", c.DisplayName())
	}
}
