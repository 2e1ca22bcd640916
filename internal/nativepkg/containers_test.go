package nativepkg

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/ashenvale/charstate/internal/binreader"
)

func putU32le(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU16le(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putI64le(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func putTSize(buf *bytes.Buffer, n uint32) {
	buf.WriteByte(0)
	buf.WriteByte(byte(n))
}

func TestDecodeAAHash(t *testing.T) {
	var buf bytes.Buffer
	putTSize(&buf, 2)
	putU32le(&buf, 1)
	putU32le(&buf, 100)
	putU32le(&buf, 2)
	putU32le(&buf, 200)

	r := binreader.New(buf.Bytes())
	m, err := DecodeAAHash(r, false)
	if err != nil {
		t.Fatalf("DecodeAAHash: %v", err)
	}
	if m[1] != uint32(100) || m[2] != uint32(200) {
		t.Errorf("m = %v", m)
	}

	r2 := binreader.New(buf.Bytes())
	refs, err := DecodeAAHash(r2, true)
	if err != nil {
		t.Fatalf("DecodeAAHash(useRef): %v", err)
	}
	if refs[1] != (DataReference{Handle: 100}) {
		t.Errorf("refs[1] = %v", refs[1])
	}
}

func TestDecodeArray(t *testing.T) {
	var buf bytes.Buffer
	putU32le(&buf, 3)
	putU32le(&buf, 10)
	putU32le(&buf, 20)
	putU32le(&buf, 30)

	r := binreader.New(buf.Bytes())
	arr, err := DecodeArray(r, false)
	if err != nil {
		t.Fatalf("DecodeArray: %v", err)
	}
	if len(arr) != 3 || arr[0] != uint32(10) || arr[2] != uint32(30) {
		t.Errorf("arr = %v", arr)
	}
}

func TestDecodeHashSet(t *testing.T) {
	var buf bytes.Buffer
	putU16le(&buf, 2)
	putU16le(&buf, 0)
	putU32le(&buf, 7)
	putU32le(&buf, 9)

	r := binreader.New(buf.Bytes())
	set, err := DecodeHashSet(r)
	if err != nil {
		t.Fatalf("DecodeHashSet: %v", err)
	}
	if len(set) != 2 || set[0] != 7 || set[1] != 9 {
		t.Errorf("set = %v", set)
	}
}

func TestDecodeLArrayAndLHashSet(t *testing.T) {
	var buf bytes.Buffer
	putU32le(&buf, 2)
	putI64le(&buf, -5)
	putI64le(&buf, 99)
	r := binreader.New(buf.Bytes())
	arr, err := DecodeLArray(r)
	if err != nil {
		t.Fatalf("DecodeLArray: %v", err)
	}
	if len(arr) != 2 || arr[0] != -5 || arr[1] != 99 {
		t.Errorf("arr = %v", arr)
	}

	var buf2 bytes.Buffer
	putU16le(&buf2, 1)
	putU16le(&buf2, 0)
	putI64le(&buf2, 42)
	r2 := binreader.New(buf2.Bytes())
	set, err := DecodeLHashSet(r2)
	if err != nil {
		t.Fatalf("DecodeLHashSet: %v", err)
	}
	if len(set) != 1 || set[0] != 42 {
		t.Errorf("set = %v", set)
	}
}

func TestDecodeNAHash(t *testing.T) {
	var buf bytes.Buffer
	putTSize(&buf, 1)
	putU32le(&buf, 111)
	putU32le(&buf, 222)
	putU32le(&buf, 333)
	r := binreader.New(buf.Bytes())
	recs, err := DecodeNAHash(r)
	if err != nil {
		t.Fatalf("DecodeNAHash: %v", err)
	}
	if len(recs) != 1 || recs[0].Ref1.Handle != 111 || recs[0].Mid != 222 || recs[0].Ref2.Handle != 333 {
		t.Errorf("recs = %+v", recs)
	}
}

func TestDecodeNHashSet(t *testing.T) {
	var buf bytes.Buffer
	putU16le(&buf, 2)
	putU16le(&buf, 0)
	buf.Write(make([]byte, 2*9))
	r := binreader.New(buf.Bytes())
	n, err := DecodeNHashSet(r)
	if err != nil {
		t.Fatalf("DecodeNHashSet: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	if r.Len() != 0 {
		t.Errorf("leftover bytes = %d, want 0", r.Len())
	}
}

func TestDecodeRandomSelectionTable(t *testing.T) {
	var buf bytes.Buffer
	putU32le(&buf, 2)
	putU32le(&buf, 1)
	putU32le(&buf, 50)
	putU32le(&buf, 0)
	putU32le(&buf, 2)
	putU32le(&buf, 50)
	putU32le(&buf, 0)
	putU32le(&buf, 0) // terminator

	r := binreader.New(buf.Bytes())
	entries, err := DecodeRandomSelectionTable(r)
	if err != nil {
		t.Fatalf("DecodeRandomSelectionTable: %v", err)
	}
	if len(entries) != 2 || entries[0].Value != 1 || entries[0].Weight != 50 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDecodeRandomSelectionTableMissingTerminator(t *testing.T) {
	var buf bytes.Buffer
	putU32le(&buf, 0)
	putU32le(&buf, 1) // not a zero terminator
	r := binreader.New(buf.Bytes())
	if _, err := DecodeRandomSelectionTable(r); err == nil {
		t.Fatal("expected error for missing zero terminator")
	}
}

func TestDecodeDiscoveredMapNoteData(t *testing.T) {
	payload := make([]byte, 32)
	payload[0] = 0x01
	payload[5] = 0x80

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	zw.Close()

	var inner bytes.Buffer
	putU32le(&inner, 0)
	putU32le(&inner, uint32(len(payload)))
	inner.Write(compressed.Bytes())

	var outer bytes.Buffer
	putU32le(&outer, uint32(inner.Len()))
	outer.Write(inner.Bytes())

	r := binreader.New(outer.Bytes())
	bs, err := DecodeDiscoveredMapNoteData(r)
	if err != nil {
		t.Fatalf("DecodeDiscoveredMapNoteData: %v", err)
	}
	if !bs.Get(0) {
		t.Error("expected bit 0 set")
	}
	if !bs.Get(47) { // byte 5, 0x80 -> bit 7 -> index 5*8+7=47
		t.Error("expected bit 47 set")
	}
	if bs.Get(1) {
		t.Error("expected bit 1 clear")
	}
}

func TestDecodeBankRepositoryData(t *testing.T) {
	var buf bytes.Buffer
	putTSize(&buf, 1)
	putU32le(&buf, 7)
	// prefixed UTF-16 "Hi": vle code-unit count, then the code units
	buf.WriteByte(2)
	buf.WriteByte('H')
	buf.WriteByte(0)
	buf.WriteByte('i')
	buf.WriteByte(0)
	putU32le(&buf, 500) // total capacity
	putU32le(&buf, 3)   // current quantity

	r := binreader.New(buf.Bytes())
	vault, err := DecodeBankRepositoryData(r)
	if err != nil {
		t.Fatalf("DecodeBankRepositoryData: %v", err)
	}
	if vault.ChestNames[7] != "Hi" || vault.MaxCapacity != 500 || vault.CurrentQuantity != 3 {
		t.Errorf("vault = %+v", vault)
	}
}

func TestCurrencyPurseFromAAHash(t *testing.T) {
	m := map[uint32]interface{}{
		currencyGoldKey:   uint32(3),
		currencySilverKey: uint32(2),
		currencyCopperKey: uint32(1),
	}
	p := CurrencyPurseFromAAHash(m)
	if p.Gold != 3 || p.Silver != 2 || p.Copper != 1 {
		t.Errorf("p = %+v", p)
	}
}
