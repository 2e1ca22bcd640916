package archive

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func putU32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}
func putU16(buf []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(buf[off:off+2], v)
}

func writeFileRecord(buf []byte, off int, flags, policy uint16, fileID, fileOffset, size, timestamp, version, blockSize uint32) {
	putU16(buf, off, flags)
	putU16(buf, off+2, policy)
	putU32(buf, off+4, fileID)
	putU32(buf, off+8, fileOffset)
	putU32(buf, off+12, size)
	putU32(buf, off+16, timestamp)
	putU32(buf, off+20, version)
	putU32(buf, off+24, blockSize)
}

func buildFixture(t *testing.T) string {
	t.Helper()
	const rootOffset = 0x300
	const dirA = 0x400
	const dirB = 0x580 // past the root node's file records (0x4FC..0x55C)
	const dirC = 0x600

	plainA := []byte("hello world!")
	plainB := []byte("golang!!")

	var compressedBuf bytes.Buffer
	uncompressedC := []byte("this is a compressed payload used to exercise the zlib path")
	zw := zlib.NewWriter(&compressedBuf)
	if _, err := zw.Write(uncompressedC); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	payloadC := make([]byte, 4+compressedBuf.Len())
	binary.LittleEndian.PutUint32(payloadC[:4], uint32(len(uncompressedC)))
	copy(payloadC[4:], compressedBuf.Bytes())

	total := dirC + 8 + len(payloadC) + 64
	buf := make([]byte, total)

	// superblock at 0x140
	putU32(buf, headerOffset, magic)
	putU32(buf, headerOffset+4, 0) // block_size, unused by our reader
	putU32(buf, headerOffset+32, rootOffset)
	putU32(buf, headerOffset+52, 1) // dat_pack_version

	// root directory node: no children, 3 files
	putU32(buf, rootOffset, 0) // num_extra_blocks
	putU32(buf, rootOffset+4, 0)
	putU32(buf, rootOffset+8, 0) // terminator: block_size 0
	putU32(buf, rootOffset+0x1F8, 3)
	writeFileRecord(buf, rootOffset+0x1FC+0*32, 0, 0, 10, dirA, uint32(len(plainA)), 111, 1, uint32(8+len(plainA)))
	writeFileRecord(buf, rootOffset+0x1FC+1*32, 0, 0, 20, dirB, uint32(len(plainB)), 222, 1, uint32(8+len(plainB)))
	writeFileRecord(buf, rootOffset+0x1FC+2*32, 1, 0, 30, dirC, uint32(len(uncompressedC)), 333, 1, uint32(8+len(payloadC)))

	// file entries: {num_extra_blocks, legacy} then payload
	putU32(buf, dirA, 0)
	putU32(buf, dirA+4, 0)
	copy(buf[dirA+8:], plainA)

	putU32(buf, dirB, 0)
	putU32(buf, dirB+4, 0)
	copy(buf[dirB+8:], plainB)

	putU32(buf, dirC, 0)
	putU32(buf, dirC+4, 0)
	copy(buf[dirC+8:], payloadC)

	path := filepath.Join(t.TempDir(), "fixture.dat")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestArchiveLoadByID(t *testing.T) {
	path := buildFixture(t)
	ar, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ar.Close()

	got, err := ar.LoadByID(10)
	if err != nil {
		t.Fatalf("LoadByID(10): %v", err)
	}
	if string(got) != "hello world!" {
		t.Errorf("file 10 = %q, want %q", got, "hello world!")
	}

	got, err = ar.LoadByID(20)
	if err != nil {
		t.Fatalf("LoadByID(20): %v", err)
	}
	if string(got) != "golang!!" {
		t.Errorf("file 20 = %q, want %q", got, "golang!!")
	}

	got, err = ar.LoadByID(30)
	if err != nil {
		t.Fatalf("LoadByID(30): %v", err)
	}
	want := "this is a compressed payload used to exercise the zlib path"
	if string(got) != want {
		t.Errorf("file 30 = %q, want %q", got, want)
	}
}

func TestArchiveLoadByIDMissing(t *testing.T) {
	path := buildFixture(t)
	ar, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ar.Close()

	_, err = ar.LoadByID(999)
	if _, ok := err.(*ResourceNotFound); !ok {
		t.Errorf("err = %v, want *ResourceNotFound", err)
	}
}
