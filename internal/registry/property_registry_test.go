package registry

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/ashenvale/charstate/internal/propval"
)

type fakeLoader struct {
	resources map[uint32][]byte
}

func (f *fakeLoader) LoadResource(ctx context.Context, did uint32) ([]byte, error) {
	data, ok := f.resources[did]
	if !ok {
		return nil, fmt.Errorf("no such test resource: %#x", did)
	}
	return data, nil
}

func putU32le(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putVLE(buf *bytes.Buffer, n uint32) {
	if n >= 0x80 {
		panic("test helper only supports small vle values")
	}
	buf.WriteByte(byte(n))
}

func putTSize(buf *bytes.Buffer, n uint32) {
	buf.WriteByte(0) // bucket count, discarded by the reader
	putVLE(buf, n)
}

func putPascalString(buf *bytes.Buffer, s string) {
	putVLE(buf, uint32(len(s)))
	buf.WriteString(s)
}

func buildMasterPropertyResource() []byte {
	var buf bytes.Buffer
	putU32le(&buf, masterPropertyResourceDID)
	buf.Write(make([]byte, 8))

	putTSize(&buf, 2)
	putU32le(&buf, 1)
	putPascalString(&buf, "Alpha")
	putU32le(&buf, 2)
	putPascalString(&buf, "Beta")

	buf.Write(make([]byte, 2))
	putTSize(&buf, 2)

	// pid=1: Bool, no def/min/max, no children
	putU32le(&buf, 1)
	putU32le(&buf, 1)                    // duplicate pid
	putU32le(&buf, uint32(propval.Bool)) // type code
	buf.Write(make([]byte, 8))           // two reserved u32s
	putU32le(&buf, 0)                    // data
	buf.Write(make([]byte, 4))           // one reserved u32
	putU32le(&buf, 0)                    // flags v5: no def/min/max
	putU32le(&buf, propertyDefMarker)
	buf.Write(make([]byte, 5))
	buf.WriteByte(0) // nb_children
	putU32le(&buf, 0) // nb_unknown
	putU32le(&buf, 0) // terminator

	// pid=2: Int, default value 42, one child (pid 1)
	putU32le(&buf, 2)
	putU32le(&buf, 2)
	putU32le(&buf, uint32(propval.Int))
	buf.Write(make([]byte, 8))
	putU32le(&buf, 0)
	buf.Write(make([]byte, 4))
	putU32le(&buf, 0x800) // def_val present
	putU32le(&buf, 42)
	putU32le(&buf, propertyDefMarker)
	buf.Write(make([]byte, 5))
	buf.WriteByte(1) // nb_children
	putU32le(&buf, 1)
	putU32le(&buf, 1)
	putU32le(&buf, 0) // nb_unknown
	putU32le(&buf, 0) // terminator

	return buf.Bytes()
}

func TestPropertyRegistryLoad(t *testing.T) {
	loader := &fakeLoader{resources: map[uint32][]byte{
		masterPropertyResourceDID: buildMasterPropertyResource(),
	}}
	reg := NewPropertyRegistry(nil)
	if err := reg.Load(context.Background(), loader); err != nil {
		t.Fatalf("Load: %v", err)
	}

	alpha, ok := reg.GetPropertyDef(1)
	if !ok {
		t.Fatal("pid 1 not found")
	}
	if alpha.Name != "Alpha" || alpha.Type != propval.Bool {
		t.Errorf("pid 1 = %+v, want Name=Alpha Type=Bool", alpha)
	}

	beta, ok := reg.GetPropertyDef(2)
	if !ok {
		t.Fatal("pid 2 not found")
	}
	if beta.Name != "Beta" || beta.Type != propval.Int {
		t.Errorf("pid 2 = %+v, want Name=Beta Type=Int", beta)
	}
	if v, ok := beta.DefVal.(uint32); !ok || v != 42 {
		t.Errorf("pid 2 DefVal = %v, want uint32(42)", beta.DefVal)
	}
	if !beta.HasChildProp(1) {
		t.Errorf("pid 2 expected child prop 1")
	}

	if _, ok := reg.GetPropertyDefByName("Alpha"); !ok {
		t.Error("GetPropertyDefByName(Alpha) missed")
	}
}

func TestPropertyRegistryLoadBadDID(t *testing.T) {
	var buf bytes.Buffer
	putU32le(&buf, 0xDEADBEEF)
	loader := &fakeLoader{resources: map[uint32][]byte{masterPropertyResourceDID: buf.Bytes()}}
	reg := NewPropertyRegistry(nil)
	err := reg.Load(context.Background(), loader)
	if _, ok := err.(*MasterResourceError); !ok {
		t.Errorf("err = %v, want *MasterResourceError", err)
	}
}
