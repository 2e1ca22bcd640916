package nativepkg

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/bitset"
	"github.com/ashenvale/charstate/internal/position"
	"github.com/ashenvale/charstate/internal/propval"
)

// DecodeBaseProperty reads one {pid, pid (duplicate), type, value} item —
// a single property read outside of any enclosing Properties set
// (BasePropertyLoader delegates to DBPropertiesLoader.decode_property).
func DecodeBaseProperty(r *binreader.Reader, reg propval.Registry, enums propval.EnumLookup) (*propval.PropertyValue, error) {
	pid, err := r.U32()
	if err != nil {
		return nil, err
	}
	if pid == 0 {
		return nil, nil
	}
	if _, err := r.U32(); err != nil { // duplicate pid
		return nil, err
	}
	typeByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	ptype := propval.PropertyType(typeByte)
	def, ok := reg.GetPropertyDef(pid)
	if !ok {
		def = &propval.PropertyDef{PID: pid, Type: ptype}
	}
	value, err := propval.DecodeValue(r, ptype, reg, enums)
	if err != nil {
		return nil, err
	}
	return &propval.PropertyValue{Def: def, Value: value, Complement: propval.ComplementFor(value, def, enums)}, nil
}

// DecodeDynamicBitset reads a BitSet from its stream encoding.
func DecodeDynamicBitset(r *binreader.Reader) (*bitset.BitSet, error) {
	idxs, err := r.BitsetStream()
	if err != nil {
		return nil, err
	}
	return bitset.FromIndexes(idxs), nil
}

// DecodePosition reads a compound Position value.
func DecodePosition(r *binreader.Reader) (position.Position, error) {
	return position.FromStream(r)
}

// DecodeProperties reads a full tsize-prefixed Properties set
// (PropertiesLoader delegates to DBPropertiesLoader.decode_properties).
func DecodeProperties(r *binreader.Reader, reg propval.Registry, enums propval.EnumLookup) (*propval.PropertySet, error) {
	return propval.DecodePropertySet(r, reg, enums)
}

// RandomSelectionEntry is one weighted entry of a random-selection table.
type RandomSelectionEntry struct {
	Value  uint32
	Weight uint32
}

// DecodeRandomSelectionTable reads a u32 count of {value, weight,
// reserved} triples terminated by a u32 == 0 sentinel.
func DecodeRandomSelectionTable(r *binreader.Reader) ([]RandomSelectionEntry, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]RandomSelectionEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		val, err := r.U32()
		if err != nil {
			return nil, err
		}
		weight, err := r.U32()
		if err != nil {
			return nil, err
		}
		if _, err := r.U32(); err != nil { // reserved
			return nil, err
		}
		out = append(out, RandomSelectionEntry{Value: val, Weight: weight})
	}
	terminator, err := r.U32()
	if err != nil {
		return nil, err
	}
	if terminator != 0 {
		return nil, &DecodeError{Context: "random selection table missing zero terminator"}
	}
	return out, nil
}

// DecodeStringInfo reads a StringInfo value (the container grammar lives
// in propval, shared with property-stream decoding).
func DecodeStringInfo(r *binreader.Reader) (*propval.StringInfo, error) {
	return propval.DecodeStringInfo(r)
}

// DecodeString reads a length-prefixed UTF-16 string.
func DecodeString(r *binreader.Reader) (string, error) {
	return r.PrefixedUTF16()
}

// DecodeDiscoveredMapNoteData reads a nested, zlib-compressed bitset: a
// u32 buffer size, then an embedded stream beginning with a u32==0
// sentinel, a u32 uncompressed size, and the zlib payload itself. The
// decompressed byte count, times 8, is the bitset's bit width.
func DecodeDiscoveredMapNoteData(r *binreader.Reader) (*bitset.BitSet, error) {
	bufSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	buf, err := r.Bytes(int(bufSize))
	if err != nil {
		return nil, err
	}
	inner := binreader.New(buf)
	if sentinel, err := inner.U32(); err != nil {
		return nil, err
	} else if sentinel != 0 {
		return nil, &DecodeError{Context: "discovered map note data: expected 0 sentinel"}
	}
	unpackedSize, err := inner.U32()
	if err != nil {
		return nil, err
	}
	packed, err := inner.Bytes(inner.Len())
	if err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, &DecodeError{Context: "discovered map note data: bad zlib stream", Err: err}
	}
	defer zr.Close()
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		return nil, &DecodeError{Context: "discovered map note data: zlib decompression failed", Err: err}
	}
	if uint32(len(decompressed)) != unpackedSize {
		return nil, &DecodeError{Context: "discovered map note data: decompressed size mismatch"}
	}
	nbBits := len(decompressed) * 8
	return bitset.FromIndexes(bitsFromBytes(decompressed, nbBits)), nil
}

func bitsFromBytes(buf []byte, nbBits int) []int {
	var idxs []int
	for i := 0; i < nbBits; i++ {
		byteIdx, bit := i/8, uint(i%8)
		if byteIdx >= len(buf) {
			break
		}
		if buf[byteIdx]&(1<<bit) != 0 {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// DecodeGenericLoader reads a fixed run of little-endian u32 words, the
// generic struct-format-string loader specialized to the all-u32 layouts
// the class library actually declares.
func DecodeGenericLoader(r *binreader.Reader, numWords int) ([]uint32, error) {
	out := make([]uint32, 0, numWords)
	for i := 0; i < numWords; i++ {
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeBankType reads a plain u32 bank-type code.
func DecodeBankType(r *binreader.Reader) (uint32, error) {
	return r.U32()
}
