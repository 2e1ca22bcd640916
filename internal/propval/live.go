package propval

import (
	"context"

	"github.com/ashenvale/charstate/internal/bitset"
	"github.com/ashenvale/charstate/internal/hashtable"
	"github.com/ashenvale/charstate/internal/position"
	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/stringutil"
)

// hashtableSize is the client's fixed hashtable header size:
// 4*pointer_size + 8, used to locate the is_literal flag and literal
// text inside a StringInfo block.
func hashtableSize(l *procmem.Layout) uint64 {
	return 4*uint64(l.PointerSize) + 8
}

// LiveDecoder decodes PropertyValues by walking live process memory,
// grounded on properties_decoder.py's handle_property/handle_properties.
type LiveDecoder struct {
	mem    procmem.ProcessMemory
	layout *procmem.Layout
	reg    Registry
	enums  EnumLookup
}

func NewLiveDecoder(mem procmem.ProcessMemory, layout *procmem.Layout, reg Registry, enums EnumLookup) *LiveDecoder {
	return &LiveDecoder{mem: mem, layout: layout, reg: reg, enums: enums}
}

// HandleProperty decodes one property value at ptr+offset: ptr+offset
// holds a pointer to the shared property descriptor; ptr+offset+ptr_size
// holds the inline or pointer-indirected value (§4.H point 2).
func (d *LiveDecoder) HandleProperty(ctx context.Context, ptr, offset uint64, expected *PropertyDef) (*PropertyValue, error) {
	if expected != nil && expected.PID == 0 {
		return &PropertyValue{Def: expected}, nil
	}
	descPtr, err := d.mem.ReadPointer(ctx, ptr+offset)
	if err != nil {
		return nil, err
	}
	def, err := d.loadPropertyDescriptor(ctx, descPtr, expected)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nil
	}
	value, err := d.handlePropFromMem(ctx, ptr, offset, def)
	if err != nil {
		return nil, &DecodeError{Context: "property " + def.Name, Err: err}
	}
	if values, ok := value.([]*PropertyValue); ok {
		return &PropertyValue{Def: def, Value: values}, nil
	}
	return &PropertyValue{Def: def, Value: value, Complement: complementFor(value, def, d.enums)}, nil
}

// loadPropertyDescriptor reads {pid, type} from a property descriptor
// and resolves the full definition through the registry.
func (d *LiveDecoder) loadPropertyDescriptor(ctx context.Context, descPtr uint64, expected *PropertyDef) (*PropertyDef, error) {
	refCountSize := uint64(d.layout.ReferenceCountSize())
	pid, err := d.mem.ReadU32(ctx, descPtr+refCountSize)
	if err != nil {
		return nil, err
	}
	if expected != nil && expected.PID == pid {
		return expected, nil
	}
	def, ok := d.reg.GetPropertyDef(pid)
	if !ok {
		return nil, nil
	}
	return def, nil
}

func (d *LiveDecoder) handlePropFromMem(ctx context.Context, ptr, offset uint64, def *PropertyDef) (interface{}, error) {
	valOffset := offset + uint64(d.layout.PointerSize)
	switch def.Type {
	case Bool:
		return d.mem.ReadBool(ctx, ptr+valOffset)
	case EnumMapper, Int, PropertyID, Bitfield32, DataFile:
		return d.mem.ReadU32(ctx, ptr+valOffset)
	case Float:
		return d.mem.ReadF32(ctx, ptr+valOffset)
	default:
		valuePtr, err := d.mem.ReadPointer(ctx, ptr+valOffset)
		if err != nil {
			return nil, err
		}
		return d.handlePointerPropVal(ctx, valuePtr, def)
	}
}

func (d *LiveDecoder) handlePointerPropVal(ctx context.Context, ptr uint64, def *PropertyDef) (interface{}, error) {
	refCountSize := uint64(d.layout.ReferenceCountSize())
	switch def.Type {
	case StringInfoType:
		return d.readStringInfo(ctx, ptr, refCountSize)
	case String:
		strPtr, err := d.mem.ReadPointer(ctx, ptr+refCountSize)
		if err != nil {
			return nil, err
		}
		return readUTF16CString(ctx, d.mem, strPtr, 260)
	case Array:
		return d.readArray(ctx, ptr, refCountSize)
	case Struct:
		return d.HandleProperties(ctx, ptr, refCountSize)
	case Bitfield32:
		return d.readArbitraryBitfield(ctx, ptr, refCountSize)
	case Int64, InstanceID, Bitfield64:
		return d.mem.ReadU64(ctx, ptr+refCountSize)
	case TimeStamp:
		return d.mem.ReadF64(ctx, ptr+refCountSize)
	case Vector:
		x, err := d.mem.ReadF32(ctx, ptr+refCountSize)
		if err != nil {
			return nil, err
		}
		y, err := d.mem.ReadF32(ctx, ptr+refCountSize+4)
		if err != nil {
			return nil, err
		}
		z, err := d.mem.ReadF32(ctx, ptr+refCountSize+8)
		if err != nil {
			return nil, err
		}
		return [3]float32{x, y, z}, nil
	case Color:
		rr, err := d.mem.ReadU8(ctx, ptr+refCountSize)
		if err != nil {
			return nil, err
		}
		g, err := d.mem.ReadU8(ctx, ptr+refCountSize+4)
		if err != nil {
			return nil, err
		}
		b, err := d.mem.ReadU8(ctx, ptr+refCountSize+8)
		if err != nil {
			return nil, err
		}
		a, err := d.mem.ReadU8(ctx, ptr+refCountSize+12)
		if err != nil {
			return nil, err
		}
		return position.Color{R: rr, G: g, B: b, A: a}, nil
	case Position:
		return d.readPosition(ctx, ptr, refCountSize)
	default:
		return nil, nil
	}
}

func (d *LiveDecoder) readArray(ctx context.Context, ptr, refCountSize uint64) ([]*PropertyValue, error) {
	offset := refCountSize
	dataPtr, err := d.mem.ReadPointer(ctx, ptr+offset)
	if err != nil {
		return nil, err
	}
	nbItems, err := d.mem.ReadU32(ctx, ptr+offset+uint64(d.layout.PointerSize)+4)
	if err != nil {
		return nil, err
	}
	if nbItems == 0 {
		return nil, nil
	}
	out := make([]*PropertyValue, 0, nbItems)
	stride := uint64(2 * d.layout.PointerSize)
	for i := uint32(0); i < nbItems; i++ {
		pv, err := d.HandleProperty(ctx, dataPtr, uint64(i)*stride, nil)
		if err != nil {
			return nil, err
		}
		if pv != nil {
			out = append(out, pv)
		}
	}
	return out, nil
}

func (d *LiveDecoder) readArbitraryBitfield(ctx context.Context, ptr, refCountSize uint64) (*bitset.BitSet, error) {
	// the pointer already addresses a BitSet-shaped block: a u32 bit
	// count followed by the packed bits, least significant bit first.
	count, err := d.mem.ReadU32(ctx, ptr+refCountSize)
	if err != nil {
		return nil, err
	}
	nbytes := (int(count) + 7) / 8
	raw, err := d.mem.ReadBytes(ctx, ptr+refCountSize+4, nbytes)
	if err != nil {
		return nil, err
	}
	var idxs []int
	for i := 0; i < int(count); i++ {
		if raw[i/8]&(1<<uint(i%8)) != 0 {
			idxs = append(idxs, i)
		}
	}
	return bitset.FromIndexes(idxs), nil
}

func (d *LiveDecoder) readPosition(ctx context.Context, ptr, refCountSize uint64) (position.Position, error) {
	var p position.Position
	pad := uint64(2)
	if d.layout.Is64Bit {
		pad = 6
	}
	start := refCountSize + uint64(d.layout.PointerSize)

	region, err := d.mem.ReadU32(ctx, ptr+start+0)
	if err != nil {
		return p, err
	}
	bx, err := d.mem.ReadU8(ctx, ptr+start+4)
	if err != nil {
		return p, err
	}
	by, err := d.mem.ReadU8(ctx, ptr+start+5)
	if err != nil {
		return p, err
	}
	cell, err := d.mem.ReadU16(ctx, ptr+start+6)
	if err != nil {
		return p, err
	}
	instance, err := d.mem.ReadU16(ctx, ptr+start+8)
	if err != nil {
		return p, err
	}
	x, err := d.mem.ReadF32(ctx, ptr+start+10+pad)
	if err != nil {
		return p, err
	}
	y, err := d.mem.ReadF32(ctx, ptr+start+14+pad)
	if err != nil {
		return p, err
	}
	z, err := d.mem.ReadF32(ctx, ptr+start+18+pad)
	if err != nil {
		return p, err
	}

	r8 := uint8(region)
	p.Flags = position.FlagRegion | position.FlagBlock | position.FlagInstance | position.FlagCell | position.FlagPos
	p.Region = &r8
	p.BlockX, p.BlockY = &bx, &by
	p.Instance = &instance
	p.Cell = &cell
	p.Offset = &position.Vector3{X: x, Y: y, Z: z}
	return p, nil
}

func (d *LiveDecoder) readStringInfo(ctx context.Context, ptr, refCountSize uint64) (*StringInfo, error) {
	offset := refCountSize
	htSize := hashtableSize(d.layout)
	ptrSize := uint64(d.layout.PointerSize)
	isLiteralOffset := offset + ptrSize + 8 + htSize + ptrSize
	isLiteral, err := d.mem.ReadBool(ctx, ptr+isLiteralOffset)
	if err != nil {
		return nil, err
	}
	if isLiteral {
		strPtr, err := d.mem.ReadPointer(ctx, ptr+offset+ptrSize+8+htSize)
		if err != nil {
			return nil, err
		}
		lit, err := stringutil.ReadLiteralMemoryString(ctx, d.mem, strPtr)
		if err != nil {
			return nil, err
		}
		return &StringInfo{IsLiteral: true, Literal: lit}, nil
	}
	token, err := d.mem.ReadU32(ctx, ptr+offset+ptrSize)
	if err != nil {
		return nil, err
	}
	tableDID, err := d.mem.ReadU32(ctx, ptr+offset+ptrSize+4)
	if err != nil {
		return nil, err
	}
	return &StringInfo{Token: token, TableDID: tableDID}, nil
}

// readUTF16CString reads a null-terminated UTF-16LE string, bounded by
// maxChars as a safety cap against a missing terminator.
func readUTF16CString(ctx context.Context, mem procmem.ProcessMemory, ptr uint64, maxChars int) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	var out []rune
	for i := 0; i < maxChars; i++ {
		u, err := mem.ReadU16(ctx, ptr+uint64(i)*2)
		if err != nil {
			return "", err
		}
		if u == 0 {
			break
		}
		out = append(out, rune(u))
	}
	return string(out), nil
}

// HandleProperties walks the hashtable at ptr+hashTableOffset, decoding
// each entry's property value (properties_decoder.py handle_properties).
func (d *LiveDecoder) HandleProperties(ctx context.Context, ptr, hashTableOffset uint64) (*PropertySet, error) {
	ptrSize := uint64(d.layout.PointerSize)
	bucketsPtr, err := d.mem.ReadPointer(ctx, ptr+hashTableOffset+2*ptrSize)
	if err != nil {
		return nil, err
	}
	nbBuckets, err := d.mem.ReadU32(ctx, ptr+hashTableOffset+4*ptrSize)
	if err != nil {
		return nil, err
	}
	ps := NewPropertySet()
	if bucketsPtr == 0 {
		return ps, nil
	}
	valueOffset := uint64(d.layout.MapIntKeySize) + ptrSize
	err = hashtable.WalkBuckets(ctx, pointerReader{d.mem}, bucketsPtr, nbBuckets, d.layout.PointerSize,
		func(entry uint64) uint64 { return entry + uint64(d.layout.MapIntKeySize) },
		func(entry uint64) error {
			pv, err := d.HandleProperty(ctx, entry, valueOffset, nil)
			if err != nil {
				return nil // a single property's decode error must not abort the set (§7)
			}
			ps.Set(pv)
			return nil
		})
	return ps, err
}

type pointerReader struct{ mem procmem.ProcessMemory }

func (p pointerReader) ReadPointer(ctx context.Context, addr uint64) (uint64, error) {
	return p.mem.ReadPointer(ctx, addr)
}

// The Read* methods below expose this decoder's field-layout readers for
// callers outside this package (the native package codec's standalone
// Position/StringInfo/bitfield/string native packages) that address a
// value directly at ptr, with none of the ptr+offset property-descriptor
// preamble HandleProperty's callers thread through.

// ReadPosition reads a compound Position value at ptr.
func (d *LiveDecoder) ReadPosition(ctx context.Context, ptr uint64) (position.Position, error) {
	return d.readPosition(ctx, ptr, 0)
}

// ReadStringInfo reads a StringInfo value at ptr.
func (d *LiveDecoder) ReadStringInfo(ctx context.Context, ptr uint64) (*StringInfo, error) {
	return d.readStringInfo(ctx, ptr, 0)
}

// ReadArbitraryBitfield reads a BitSet-shaped stream at ptr.
func (d *LiveDecoder) ReadArbitraryBitfield(ctx context.Context, ptr uint64) (*bitset.BitSet, error) {
	return d.readArbitraryBitfield(ctx, ptr, 0)
}

// ReadCString reads a pointer at ptr, then the null-terminated UTF-16LE
// string it addresses.
func (d *LiveDecoder) ReadCString(ctx context.Context, ptr uint64) (string, error) {
	strPtr, err := d.mem.ReadPointer(ctx, ptr)
	if err != nil {
		return "", err
	}
	return readUTF16CString(ctx, d.mem, strPtr, 260)
}
