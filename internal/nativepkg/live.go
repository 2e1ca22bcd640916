package nativepkg

import (
	"context"

	"github.com/ashenvale/charstate/internal/hashtable"
	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/propval"
)

// LiveDecoder reads native packages directly out of live process memory,
// for the reference table's native-dispatch path (§4.I/§4.L): entries
// whose bitfield has the native bit set hold a pointer to one of these
// container or record shapes rather than a WState-encoded byte stream.
type LiveDecoder struct {
	mem    procmem.ProcessMemory
	layout *procmem.Layout
	props  *propval.LiveDecoder
	enums  propval.EnumLookup
}

func NewLiveDecoder(mem procmem.ProcessMemory, layout *procmem.Layout, reg propval.Registry, enums propval.EnumLookup) *LiveDecoder {
	return &LiveDecoder{mem: mem, layout: layout, props: propval.NewLiveDecoder(mem, layout, reg, enums), enums: enums}
}

// bucketsPtr reads the hashtable header fields shared by every live
// native hashtable: {…, buckets_ptr, first_bucket_ptr, nb_buckets: u32,
// nb_elements: u32}, offset from a caller-supplied base.
func (l *LiveDecoder) bucketsPtr(ctx context.Context, base uint64, offset int) (uint64, uint32, uint32, error) {
	ptrSize := uint64(l.layout.PointerSize)
	bucketsPtr, err := l.mem.ReadPointer(ctx, base+uint64(offset)+2*ptrSize)
	if err != nil {
		return 0, 0, 0, err
	}
	nbBuckets, err := l.mem.ReadU32(ctx, base+uint64(offset)+4*ptrSize)
	if err != nil {
		return 0, 0, 0, err
	}
	nbElements, err := l.mem.ReadU32(ctx, base+uint64(offset)+4*ptrSize+4)
	if err != nil {
		return 0, 0, 0, err
	}
	return bucketsPtr, nbBuckets, nbElements, nil
}

type pointerReader struct{ mem procmem.ProcessMemory }

func (p pointerReader) ReadPointer(ctx context.Context, addr uint64) (uint64, error) {
	return p.mem.ReadPointer(ctx, addr)
}

// decodeIntKeyedHashtable walks a hashtable whose entries are
// {key: u32, ..., next at keySize}, calling decodeVal to read each
// entry's value at whatever offset the caller already knows. Decoders
// MUST observe collected==nb_elements on completion (§4.I); a mismatch
// is reported, not silently ignored.
func (l *LiveDecoder) decodeIntKeyedHashtable(ctx context.Context, base uint64, offset, keySize int, decodeVal func(entry uint64) error) (int, error) {
	bucketsPtr, nbBuckets, nbElements, err := l.bucketsPtr(ctx, base, offset)
	if err != nil {
		return 0, err
	}
	if bucketsPtr == 0 {
		return 0, nil
	}
	collected := 0
	err = hashtable.WalkBuckets(ctx, pointerReader{l.mem}, bucketsPtr, nbBuckets, l.layout.PointerSize,
		func(entry uint64) uint64 { return entry + uint64(keySize) },
		func(entry uint64) error {
			collected++
			return decodeVal(entry)
		})
	if err != nil {
		return collected, err
	}
	if uint32(collected) != nbElements {
		return collected, &DecodeError{Context: "native hashtable entry count mismatch"}
	}
	return collected, nil
}

// DecodeIntIntHashtable reads an int->int hashtable (package ids 11/35).
func (l *LiveDecoder) DecodeIntIntHashtable(ctx context.Context, ptr uint64, packageID int) (map[uint32]interface{}, error) {
	ptrSize := l.layout.PointerSize
	keySize := l.layout.MapIntKeySize
	valOffset := keySize + ptrSize
	out := make(map[uint32]interface{})
	_, err := l.decodeIntKeyedHashtable(ctx, ptr, 0, keySize, func(entry uint64) error {
		key, err := l.mem.ReadU32(ctx, entry)
		if err != nil {
			return err
		}
		val, err := l.mem.ReadU32(ctx, entry+uint64(valOffset))
		if err != nil {
			return err
		}
		out[key] = wrapU32(val, packageID == 35)
		return nil
	})
	return out, err
}

// DecodeIntMultiHashtable reads an int->[]value multihash (package id 13/37).
func (l *LiveDecoder) DecodeIntMultiHashtable(ctx context.Context, ptr uint64, packageID int) (map[uint32][]interface{}, error) {
	ptrSize := l.layout.PointerSize
	keySize := l.layout.MapIntKeySize
	valOffset := l.layout.IntSize + ptrSize + 4
	out := make(map[uint32][]interface{})
	_, err := l.decodeIntKeyedHashtable(ctx, ptr, 0, keySize, func(entry uint64) error {
		key, err := l.mem.ReadU32(ctx, entry)
		if err != nil {
			return err
		}
		val, err := l.mem.ReadU32(ctx, entry+uint64(valOffset))
		if err != nil {
			return err
		}
		out[key] = append(out[key], wrapU32(val, packageID == 37))
		return nil
	})
	return out, err
}

// DecodeIntSet reads an int-set (package id 18): an int->int hashtable
// whose values are discarded, keeping only the keys.
func (l *LiveDecoder) DecodeIntSet(ctx context.Context, ptr uint64) (map[uint32]struct{}, error) {
	ptrSize := l.layout.PointerSize
	keySize := l.layout.MapIntKeySize
	out := make(map[uint32]struct{})
	_, err := l.decodeIntKeyedHashtable(ctx, ptr, 0, keySize, func(entry uint64) error {
		key, err := l.mem.ReadU32(ctx, entry)
		if err != nil {
			return err
		}
		out[key] = struct{}{}
		return nil
	})
	return out, err
}

// DecodeArray reads a live native array/list: a data pointer and an item
// count, then that many inline u32 (or i64 for the long variant) values.
func (l *LiveDecoder) DecodeArray(ctx context.Context, ptr uint64, packageID int) ([]interface{}, error) {
	ptrSize := uint64(l.layout.PointerSize)
	arrayPtr, err := l.mem.ReadPointer(ctx, ptr)
	if err != nil {
		return nil, err
	}
	nbItems, err := l.mem.ReadU32(ctx, ptr+ptrSize+4)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, nbItems)
	for i := uint32(0); i < nbItems; i++ {
		if packageID == 104 {
			v, err := l.mem.ReadU64(ctx, arrayPtr+uint64(i)*8)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}
		v, err := l.mem.ReadU32(ctx, arrayPtr+uint64(i)*4)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapU32(v, packageID == 176))
	}
	return out, nil
}

// DecodeList reads a live native linked list: a head pointer and count,
// then that many {value, next} nodes chained via a trailing pointer.
func (l *LiveDecoder) DecodeList(ctx context.Context, ptr uint64, packageID int) ([]interface{}, error) {
	ptrSize := uint64(l.layout.PointerSize)
	nbItems, err := l.mem.ReadU32(ctx, ptr+3*ptrSize)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, nbItems)
	if nbItems == 0 {
		return out, nil
	}
	node, err := l.mem.ReadPointer(ctx, ptr+ptrSize)
	if err != nil {
		return nil, err
	}
	for node != 0 {
		if packageID == 111 {
			v, err := l.mem.ReadU64(ctx, node)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		} else {
			v, err := l.mem.ReadU32(ctx, node)
			if err != nil {
				return nil, err
			}
			out = append(out, wrapU32(v, packageID == 182))
		}
		node, err = l.mem.ReadPointer(ctx, node+uint64(l.layout.IntSize))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeFriendsAdaptor and DecodeIgnoresAdaptor (package ids 414/433) are
// both a plain Properties record at native_package_ptr+pointer_size —
// the live Properties decoder already implements that walk.
func (l *LiveDecoder) DecodeFriendsAdaptor(ctx context.Context, ptr uint64) (*propval.PropertySet, error) {
	return l.props.HandleProperties(ctx, ptr, uint64(l.layout.PointerSize))
}

func (l *LiveDecoder) DecodeIgnoresAdaptor(ctx context.Context, ptr uint64) (*propval.PropertySet, error) {
	return l.props.HandleProperties(ctx, ptr, uint64(l.layout.PointerSize))
}

// DecodeCurrencyRecord reads a character's purse from its native int->int
// hashtable form, picking out the three well-known currency keys.
func (l *LiveDecoder) DecodeCurrencyRecord(ctx context.Context, ptr uint64) (CurrencyPurse, error) {
	ptrSize := l.layout.PointerSize
	keySize := l.layout.MapIntKeySize
	valOffset := keySize + ptrSize
	var p CurrencyPurse
	_, err := l.decodeIntKeyedHashtable(ctx, ptr, 0, keySize, func(entry uint64) error {
		key, err := l.mem.ReadU32(ctx, entry)
		if err != nil {
			return err
		}
		val, err := l.mem.ReadU32(ctx, entry+uint64(valOffset))
		if err != nil {
			return err
		}
		switch key {
		case currencyGoldKey:
			p.Gold = val
		case currencySilverKey:
			p.Silver = val
		case currencyCopperKey:
			p.Copper = val
		}
		return nil
	})
	return p, err
}

// discoveredMapNoteEnumDID is the enum resource that labels each
// discovered-map-note bit index.
const discoveredMapNoteEnumDID uint32 = 0x2300006F

// DecodeDiscoveredMapNotes reads the live 2048-bit discovered-map-notes
// bitfield and resolves each set bit to its label through the given enum
// mapper (callers fetch it once via an EnumLookup keyed on
// discoveredMapNoteEnumDID and pass it in, since this decoder has no
// resource-loading capability of its own).
func (l *LiveDecoder) DecodeDiscoveredMapNotes(ctx context.Context, ptr uint64, mapper propval.EnumMapper) ([]string, error) {
	const nbBits = 2048
	dataPtr, err := l.mem.ReadPointer(ctx, ptr)
	if err != nil {
		return nil, err
	}
	raw, err := l.mem.ReadBytes(ctx, dataPtr, nbBits/8)
	if err != nil {
		return nil, err
	}
	var out []string
	for i := 0; i < nbBits; i++ {
		label, ok := mapper.GetStr(i)
		if !ok {
			continue
		}
		if raw[i/8]&(1<<uint(i%8)) != 0 {
			out = append(out, label)
		}
	}
	return out, nil
}
