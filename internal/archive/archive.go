// Package archive implements the client's paged container file format:
// a B-tree of directory nodes pointing at 32-byte file records, with
// optional zlib-compressed payloads.
package archive

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/ashenvale/charstate/internal/gamelog"
)

const (
	headerOffset = 0x140
	magic        = 0x5442
)

type fileRecord struct {
	flags, policy                   uint16
	fileID, fileOffset, size        uint32
	timestamp, version, blockSize   uint32
}

func (f fileRecord) isCompressed() bool { return f.flags&1 != 0 }

type childRef struct {
	blockSize, offset uint32
}

type dirNode struct {
	offset  uint32
	dirs    []childRef
	files   []fileRecord
}

// ArchiveReader reads one .dat-style archive file, caching directory
// nodes by file offset after first read (mirroring DATArchive's
// __ensure_loaded_dir, backed by an LRU instead of an unbounded dict).
type ArchiveReader struct {
	f      *os.File
	data   mmap.MMap
	dirs   *lru.Cache[uint32, *dirNode]
	root   uint32
	logger *gamelog.Helper

	blockSize       uint32
	datPackVersion  uint32
}

// Open mmaps path and parses the superblock at offset 0x140.
func Open(path string, logger *gamelog.Helper) (*ArchiveReader, error) {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	dirs, err := lru.New[uint32, *dirNode](256)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	ar := &ArchiveReader{f: f, data: data, dirs: dirs, logger: logger}
	if err := ar.readSuperBlock(); err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	return ar, nil
}

// Close unmaps the archive file and releases its handle.
func (a *ArchiveReader) Close() error {
	uerr := a.data.Unmap()
	cerr := a.f.Close()
	if uerr != nil {
		return uerr
	}
	return cerr
}

func (a *ArchiveReader) readSuperBlock() error {
	if headerOffset+0x68 > len(a.data) {
		return &ArchiveFormatError{Reason: "file too small for header"}
	}
	h := a.data[headerOffset : headerOffset+0x68]
	if binary.LittleEndian.Uint32(h[0:4]) != magic {
		return &ArchiveFormatError{Reason: "bad archive magic"}
	}
	a.blockSize = binary.LittleEndian.Uint32(h[4:8])
	// 24 reserved bytes at [8:32]
	a.root = binary.LittleEndian.Uint32(h[32:36])
	// 16 reserved bytes at [36:52]
	a.datPackVersion = binary.LittleEndian.Uint32(h[52:56])
	return nil
}

func (a *ArchiveReader) loadDir(offset uint32) (*dirNode, error) {
	if d, ok := a.dirs.Get(offset); ok {
		return d, nil
	}
	d, err := a.parseDir(offset)
	if err != nil {
		return nil, err
	}
	a.dirs.Add(offset, d)
	return d, nil
}

func (a *ArchiveReader) parseDir(offset uint32) (*dirNode, error) {
	if int(offset)+0x1FC > len(a.data) {
		return nil, &ArchiveFormatError{Reason: "directory node beyond file bounds"}
	}
	buf := a.data[offset:]
	filesCount := binary.LittleEndian.Uint32(buf[0x1F8:0x1FC])

	d := &dirNode{offset: offset}
	pos := 8
	for i := uint32(0); i <= filesCount; i++ {
		blockSize := binary.LittleEndian.Uint32(buf[pos : pos+4])
		dirOffset := binary.LittleEndian.Uint32(buf[pos+4 : pos+8])
		pos += 8
		if blockSize == 0 {
			break
		}
		d.dirs = append(d.dirs, childRef{blockSize: blockSize, offset: dirOffset})
	}

	pos = 0x1FC
	for j := uint32(0); j < filesCount; j++ {
		rec := buf[pos : pos+32]
		fr := fileRecord{
			flags:      binary.LittleEndian.Uint16(rec[0:2]),
			policy:     binary.LittleEndian.Uint16(rec[2:4]),
			fileID:     binary.LittleEndian.Uint32(rec[4:8]),
			fileOffset: binary.LittleEndian.Uint32(rec[8:12]),
			size:       binary.LittleEndian.Uint32(rec[12:16]),
			timestamp:  binary.LittleEndian.Uint32(rec[16:20]),
			version:    binary.LittleEndian.Uint32(rec[20:24]),
			blockSize:  binary.LittleEndian.Uint32(rec[24:28]),
		}
		d.files = append(d.files, fr)
		pos += 32
	}
	return d, nil
}

// findFile descends the B-tree via binary search by file id, per §4.C.
func (a *ArchiveReader) findFile(offset uint32, fileID uint32) (*fileRecord, error) {
	d, err := a.loadDir(offset)
	if err != nil {
		return nil, err
	}
	lower, upper := 0, len(d.files)-1
	for lower <= upper {
		mid := (lower + upper) / 2
		switch {
		case d.files[mid].fileID < fileID:
			lower = mid + 1
		case d.files[mid].fileID > fileID:
			upper = mid - 1
		default:
			return &d.files[mid], nil
		}
	}
	if len(d.dirs) == 0 {
		return nil, nil
	}
	if lower >= len(d.dirs) {
		lower = len(d.dirs) - 1
	}
	return a.findFile(d.dirs[lower].offset, fileID)
}

// LoadByID finds and decodes the file with the given id, per §4.C.
func (a *ArchiveReader) LoadByID(fileID uint32) ([]byte, error) {
	rec, err := a.findFile(a.root, fileID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &ResourceNotFound{DID: fileID}
	}
	return a.loadEntry(*rec)
}

func (a *ArchiveReader) loadEntry(rec fileRecord) ([]byte, error) {
	off := int(rec.fileOffset)
	if off+8 > len(a.data) {
		return nil, &ArchiveFormatError{Reason: "file entry header beyond file bounds"}
	}
	numExtraBlocks := binary.LittleEndian.Uint32(a.data[off : off+4])
	pos := off + 8

	firstChunkSize := int(rec.blockSize) - 8 - int(numExtraBlocks)*8
	if firstChunkSize > int(rec.size) {
		firstChunkSize = int(rec.size)
	}
	if firstChunkSize < 0 || pos+firstChunkSize > len(a.data) {
		return nil, &ArchiveFormatError{Reason: "first chunk beyond file bounds"}
	}
	data := make([]byte, 0, rec.size)
	data = append(data, a.data[pos:pos+firstChunkSize]...)
	pos += firstChunkSize

	type link struct{ size, offset uint32 }
	links := make([]link, numExtraBlocks)
	for i := range links {
		if pos+8 > len(a.data) {
			return nil, &ArchiveFormatError{Reason: "chain link beyond file bounds"}
		}
		links[i].size = binary.LittleEndian.Uint32(a.data[pos : pos+4])
		links[i].offset = binary.LittleEndian.Uint32(a.data[pos+4 : pos+8])
		pos += 8
	}
	for _, l := range links {
		lo := int(l.offset)
		if lo+int(l.size) > len(a.data) {
			return nil, &ArchiveFormatError{Reason: "chain link payload beyond file bounds"}
		}
		data = append(data, a.data[lo:lo+int(l.size)]...)
	}
	if len(data) > int(rec.size) {
		data = data[:rec.size]
	}

	if !rec.isCompressed() {
		return data, nil
	}
	if len(data) < 4 {
		return nil, &ArchiveFormatError{Reason: "compressed payload missing size prefix"}
	}
	uncompressedSize := binary.LittleEndian.Uint32(data[:4])
	zr, err := zlib.NewReader(bytes.NewReader(data[4:]))
	if err != nil {
		return nil, &ArchiveFormatError{Reason: "bad zlib stream: " + err.Error()}
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, &ArchiveFormatError{Reason: "zlib decompression failed: " + err.Error()}
	}
	if uint32(len(out)) != uncompressedSize {
		return nil, &ArchiveFormatError{Reason: "decompressed size mismatch"}
	}
	return out, nil
}
