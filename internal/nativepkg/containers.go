package nativepkg

import "github.com/ashenvale/charstate/internal/binreader"

// DecodeAAHash reads a tsize-prefixed int->value map (AAHash/AAMultiHash's
// singular form); useRef wraps each value in a DataReference.
func DecodeAAHash(r *binreader.Reader, useRef bool) (map[uint32]interface{}, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]interface{}, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.U32()
		if err != nil {
			return nil, err
		}
		val, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[key] = wrapU32(val, useRef)
	}
	return out, nil
}

// DecodeAAMultiHash reads a tsize-prefixed int->value map where repeated
// keys accumulate a list of values instead of overwriting.
func DecodeAAMultiHash(r *binreader.Reader, useRef bool) (map[uint32][]interface{}, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32][]interface{}, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.U32()
		if err != nil {
			return nil, err
		}
		val, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[key] = append(out[key], wrapU32(val, useRef))
	}
	return out, nil
}

// DecodeArray reads a u32-prefixed array of u32 values (AArray/AList's
// shared wire shape).
func DecodeArray(r *binreader.Reader, useRef bool) ([]interface{}, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		out = append(out, wrapU32(v, useRef))
	}
	return out, nil
}

// DecodeHashSet reads a {count: u16, reserved: u16} header followed by
// that many u32 values.
func DecodeHashSet(r *binreader.Reader) ([]uint32, error) {
	count, err := r.U16()
	if err != nil {
		return nil, err
	}
	if _, err := r.U16(); err != nil { // reserved
		return nil, err
	}
	out := make([]uint32, 0, count)
	for i := uint16(0); i < count; i++ {
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeALHash reads a tsize-prefixed int->i64 map (ALHash).
func DecodeALHash(r *binreader.Reader) (map[uint32]int64, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]int64, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.U32()
		if err != nil {
			return nil, err
		}
		val, err := r.I64()
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

// DecodeARHash reads a tsize-prefixed int->i32 map; useRef wraps values
// in a DataReference (ARHash/ARMultiHash's singular form).
func DecodeARHash(r *binreader.Reader, useRef bool) (map[uint32]interface{}, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]interface{}, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.U32()
		if err != nil {
			return nil, err
		}
		val, err := r.I32()
		if err != nil {
			return nil, err
		}
		out[key] = wrapI32(val, useRef)
	}
	return out, nil
}

// DecodeARMultiHash is DecodeARHash with repeated-key accumulation.
func DecodeARMultiHash(r *binreader.Reader, useRef bool) (map[uint32][]interface{}, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32][]interface{}, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.U32()
		if err != nil {
			return nil, err
		}
		val, err := r.I32()
		if err != nil {
			return nil, err
		}
		out[key] = append(out[key], wrapI32(val, useRef))
	}
	return out, nil
}

// DecodeLAHash reads a tsize-prefixed i64->u32 map (LAHash).
func DecodeLAHash(r *binreader.Reader) (map[int64]uint32, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make(map[int64]uint32, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.I64()
		if err != nil {
			return nil, err
		}
		val, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

// DecodeLArray reads a u32-prefixed array of i64 values.
func DecodeLArray(r *binreader.Reader) ([]int64, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.I64()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeLHashSet reads a {count: u16, reserved: u16} header followed by
// that many i64 values.
func DecodeLHashSet(r *binreader.Reader) ([]int64, error) {
	count, err := r.U16()
	if err != nil {
		return nil, err
	}
	if _, err := r.U16(); err != nil {
		return nil, err
	}
	out := make([]int64, 0, count)
	for i := uint16(0); i < count; i++ {
		v, err := r.I64()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeLRHash reads a tsize-prefixed u64->u32 map; useRef wraps values
// in a DataReference.
func DecodeLRHash(r *binreader.Reader, useRef bool) (map[uint64]interface{}, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]interface{}, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.U64()
		if err != nil {
			return nil, err
		}
		val, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[key] = wrapU32(val, useRef)
	}
	return out, nil
}

// NARecord is one entry of an NAHash/NRHash table: {ref1, mid, ref2},
// where ref1/ref2 are reference-table handles and mid is an opaque
// interior value (DataReference.go's use_ref is always true for these
// two fields, per class_loader.py's NAHashLoader/NRHashLoader).
type NARecord struct {
	Ref1 DataReference
	Mid  uint32
	Ref2 DataReference
}

// DecodeNAHash and DecodeNRHash share the identical {v1,v2,v4} triple
// wire shape (class_loader.py keeps them as separate classes; nothing
// about their decode differs).
func DecodeNAHash(r *binreader.Reader) ([]NARecord, error) { return decodeNARecords(r) }
func DecodeNRHash(r *binreader.Reader) ([]NARecord, error) { return decodeNARecords(r) }

func decodeNARecords(r *binreader.Reader) ([]NARecord, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	out := make([]NARecord, 0, count)
	for i := uint32(0); i < count; i++ {
		v1, err := r.U32()
		if err != nil {
			return nil, err
		}
		v2, err := r.U32()
		if err != nil {
			return nil, err
		}
		v4, err := r.U32()
		if err != nil {
			return nil, err
		}
		out = append(out, NARecord{Ref1: DataReference{Handle: v1}, Mid: v2, Ref2: DataReference{Handle: v4}})
	}
	return out, nil
}

// DecodeNHashSet reads an opaque, size-only entry table: {count: u16,
// reserved: u16} followed by count*{u32,u32,u8} records whose content is
// never inspected by the client itself.
func DecodeNHashSet(r *binreader.Reader) (int, error) {
	count, err := r.U16()
	if err != nil {
		return 0, err
	}
	if _, err := r.U16(); err != nil {
		return 0, err
	}
	if err := r.Skip(int(count) * 9); err != nil {
		return 0, err
	}
	return int(count), nil
}

// DecodeRArray and DecodeRList share the u32-prefixed array of i32
// values wire shape (RArrayLoader/RListLoader in class_loader.py).
func DecodeRArray(r *binreader.Reader) ([]int32, error) { return decodeI32Array(r) }
func DecodeRList(r *binreader.Reader) ([]int32, error)  { return decodeI32Array(r) }

func decodeI32Array(r *binreader.Reader) ([]int32, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]int32, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.I32()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func wrapU32(v uint32, useRef bool) interface{} {
	if useRef {
		return DataReference{Handle: v}
	}
	return v
}

func wrapI32(v int32, useRef bool) interface{} {
	if useRef {
		return DataReference{Handle: uint32(v)}
	}
	return v
}
