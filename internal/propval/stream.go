package propval

import (
	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/bitset"
	"github.com/ashenvale/charstate/internal/knownvars"
	"github.com/ashenvale/charstate/internal/position"
)

// DecodePropertySet reads a tsize-prefixed run of property stream items
// (§6 "Property-type -> stream encoding", §8 scenario 2): each item is
// {pid: u32, pid (duplicate, validated): u32, type: u8, value}.
func DecodePropertySet(r *binreader.Reader, reg Registry, enums EnumLookup) (*PropertySet, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, &DecodeError{Context: "property set tsize", Err: err}
	}
	ps := NewPropertySet()
	for i := uint32(0); i < count; i++ {
		pv, err := decodeStreamItem(r, reg, enums)
		if err != nil {
			return nil, &DecodeError{Context: "property set item", Err: err}
		}
		ps.Set(pv)
	}
	return ps, nil
}

func decodeStreamItem(r *binreader.Reader, reg Registry, enums EnumLookup) (*PropertyValue, error) {
	pid1, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.U32(); err != nil { // duplicate pid, validated by the client but not load-bearing here
		return nil, err
	}
	typeByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	ptype := PropertyType(typeByte)

	def, ok := reg.GetPropertyDef(pid1)
	if !ok {
		def = &PropertyDef{PID: pid1, Type: ptype}
	}

	value, err := decodeStreamValue(r, ptype, reg, enums)
	if err != nil {
		return nil, err
	}
	return &PropertyValue{Def: def, Value: value, Complement: complementFor(value, def, enums)}, nil
}

// DecodeValue reads one inline value of the given type, for callers (the
// native package codec's BaseProperty loader) that already know a
// property's id and type and only need the value decoder.
func DecodeValue(r *binreader.Reader, ptype PropertyType, reg Registry, enums EnumLookup) (interface{}, error) {
	return decodeStreamValue(r, ptype, reg, enums)
}

// ComplementFor exposes complementFor to callers outside this package
// that decode a value through DecodeValue and still need its rendered
// enum/bitfield label.
func ComplementFor(value interface{}, def *PropertyDef, enums EnumLookup) string {
	return complementFor(value, def, enums)
}

func decodeStreamValue(r *binreader.Reader, ptype PropertyType, reg Registry, enums EnumLookup) (interface{}, error) {
	switch ptype {
	case String:
		return r.PascalString()
	case StringToken, EnumMapper, Int, PropertyID, Bitfield32, DataFile:
		return r.U32()
	case Waveform:
		kind, err := r.I32()
		if err != nil {
			return nil, err
		}
		if kind == 1 {
			return r.F32()
		}
		if kind > 1 {
			out := make([]float32, 10)
			for i := range out {
				v, err := r.F32()
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		}
		return nil, nil
	case TimeStamp:
		return r.F64()
	case TriState:
		return r.U8()
	case Vector:
		x, err := r.F32()
		if err != nil {
			return nil, err
		}
		y, err := r.F32()
		if err != nil {
			return nil, err
		}
		z, err := r.F32()
		if err != nil {
			return nil, err
		}
		return [3]float32{x, y, z}, nil
	case InstanceID, Int64, Bitfield64:
		return r.U64()
	case Float:
		return r.F32()
	case Struct:
		return DecodePropertySet(r, reg, enums)
	case Array:
		return decodeStreamArray(r, reg, enums)
	case StringInfoType:
		return decodeStreamStringInfo(r)
	case Color:
		rr, err := r.U8()
		if err != nil {
			return nil, err
		}
		g, err := r.U8()
		if err != nil {
			return nil, err
		}
		b, err := r.U8()
		if err != nil {
			return nil, err
		}
		a, err := r.U8()
		if err != nil {
			return nil, err
		}
		return [4]uint8{rr, g, b, a}, nil
	case Position:
		return position.FromStream(r)
	case Bool:
		return r.Bool()
	case Bitfield:
		indexes, err := r.BitsetStream()
		if err != nil {
			return nil, err
		}
		return bitset.FromIndexes(indexes), nil
	default:
		return nil, &DecodeError{Context: "unknown property type byte"}
	}
}

// decodeStreamArray decodes a u32 count followed by that many nested
// property items, each a full {pid,pid,type,value} item like a top-level
// property set entry.
func decodeStreamArray(r *binreader.Reader, reg Registry, enums EnumLookup) ([]*PropertyValue, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	out := make([]*PropertyValue, 0, count)
	for i := uint32(0); i < count; i++ {
		pv, err := decodeStreamItem(r, reg, enums)
		if err != nil {
			return nil, err
		}
		out = append(out, pv)
	}
	return out, nil
}

// DecodeStringInfo reads a StringInfo per §4.N: a literal, or a
// table/token reference optionally followed by a bound-variable list
// (three discarded dev-only template strings, then a vle-counted run of
// {vartype, name-hash, value} entries — vartype 0 is a present-but-empty
// slot, skipped with nothing else read). Exported so registry/nativepkg
// decoders that read a standalone StringInfo outside a property stream
// item can reuse the same grammar.
func DecodeStringInfo(r *binreader.Reader) (*StringInfo, error) {
	return decodeStreamStringInfo(r)
}

func decodeStreamStringInfo(r *binreader.Reader) (*StringInfo, error) {
	isLiteral, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if isLiteral {
		lit, err := r.PrefixedUTF16()
		if err != nil {
			return nil, err
		}
		return &StringInfo{IsLiteral: true, Literal: lit}, nil
	}
	token, err := r.U32()
	if err != nil {
		return nil, err
	}
	tableDID, err := r.U32()
	if err != nil {
		return nil, err
	}
	info := &StringInfo{Token: token, TableDID: tableDID}

	hasVariables, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if !hasVariables {
		if _, err := r.I8(); err != nil { // remainder1 == 1
			return nil, err
		}
		if _, err := r.U8(); err != nil { // remainder2 == 0
			return nil, err
		}
		return info, nil
	}
	for i := 0; i < 3; i++ { // dev-only template strings, unused at render time
		if _, err := r.PascalString(); err != nil {
			return nil, err
		}
	}
	numVariables, err := r.VLE()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numVariables; i++ {
		varType, err := r.I8()
		if err != nil {
			return nil, err
		}
		if varType == 0 {
			continue
		}
		tokenHash, err := r.U32()
		if err != nil {
			return nil, err
		}
		name := knownvars.NameForHash(tokenHash)
		if varType != 1 {
			marker, err := r.I8()
			if err != nil {
				return nil, err
			}
			_ = marker // always 1 in practice, not load-bearing
		}
		if info.Variables == nil {
			info.Variables = make(map[string]interface{})
		}
		switch varType {
		case 4: // Integer
			v, err := r.VLE()
			if err != nil {
				return nil, err
			}
			info.Variables[name] = v
		case 1: // nested String
			v, err := decodeStreamStringInfo(r)
			if err != nil {
				return nil, err
			}
			info.Variables[name] = v
		case 2: // Float
			v, err := r.F32()
			if err != nil {
				return nil, err
			}
			info.Variables[name] = v
		default:
			return nil, &DecodeError{Context: "string-info variable type"}
		}
	}
	return info, nil
}

// complementFor computes the enum/bitfield complement string per §4.H:
// after decoding a scalar whose definition carries an enum DID, join the
// matching labels with ",".
func complementFor(value interface{}, def *PropertyDef, enums EnumLookup) string {
	if def == nil || def.Data == 0 || enums == nil {
		return ""
	}
	mapper, ok := enums.GetEnumMapper(def.Data)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case uint32:
		if label, ok := mapper.GetStr(int(v)); ok {
			return label
		}
	case *bitset.BitSet:
		return joinBitfieldLabels(v, mapper)
	}
	return ""
}

func joinBitfieldLabels(b *bitset.BitSet, mapper EnumMapper) string {
	var out string
	for _, idx := range b.Indexes() {
		label, ok := mapper.GetStr(idx + 1)
		if !ok {
			continue
		}
		if out != "" {
			out += ","
		}
		out += label
	}
	return out
}
