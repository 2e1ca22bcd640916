// Package binreader provides typed little-endian reads over an in-memory
// byte buffer, plus the client's variable-length integer ("vle") and
// bucket-prefixed ("tsize") encodings, Pascal and UTF-16 strings, and
// LSB-first bitset streams.
package binreader

import (
	"encoding/binary"
	"errors"
	"math"

	"golang.org/x/text/encoding/unicode"
)

// ErrInsufficientBytes is returned when a read would run past the end of
// the buffer.
var ErrInsufficientBytes = errors.New("binreader: insufficient bytes remaining")

// ErrBadBool is returned when a byte that should encode a TriState/Bool
// value is neither 0, 1 nor 0xFF.
var ErrBadBool = errors.New("binreader: invalid bool byte")

// Reader is a cursor over a byte slice. It does not copy the slice; callers
// must keep the backing buffer alive for the Reader's lifetime.
type Reader struct {
	buf []byte
	pos int
}

// New wraps buf in a Reader positioned at offset 0.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(pos int) { r.pos = pos }

// Skip advances the cursor by n bytes without reading them.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.Len() < n {
		return ErrInsufficientBytes
	}
	r.pos += n
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, ErrInsufficientBytes
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// U8 reads an unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 reads a signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// I16 reads a little-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads a little-endian IEEE-754 single.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64 reads a little-endian IEEE-754 double.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Bool reads a single byte and interprets 0/1/0xFF as the client's
// TriState encoding collapsed to a bool (0xFF is treated as false, matching
// an absent/"unset" tristate).
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0, 0xFF:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrBadBool
	}
}

// VLE reads the client's variable-length unsigned integer encoding (§4.A):
//
//	a := u8()
//	if a&0x80 == 0            -> a
//	if a == 0xE0               -> u32()
//	b := u8()
//	if a&0x40 == 0x40           -> ((a&0x3F)<<24) | (b<<16) | u16()
//	else                        -> ((a&0x7F)<<8) | b   (high bit of a is the sentinel)
func (r *Reader) VLE() (uint32, error) {
	a, err := r.U8()
	if err != nil {
		return 0, err
	}
	if a&0x80 == 0 {
		return uint32(a), nil
	}
	if a == 0xE0 {
		return r.U32()
	}
	b, err := r.U8()
	if err != nil {
		return 0, err
	}
	if a&0x40 == 0x40 {
		c, err := r.U16()
		if err != nil {
			return 0, err
		}
		return uint32(a&0x3F)<<24 | uint32(b)<<16 | uint32(c), nil
	}
	return uint32(a&0x7F)<<8 | uint32(b), nil
}

// TSize reads a one-byte bucket count (an implementation detail of the
// client's hashtable, discarded here) followed by a VLE element count.
func (r *Reader) TSize() (uint32, error) {
	if err := r.Skip(1); err != nil {
		return 0, err
	}
	return r.VLE()
}

// PascalString reads a VLE length prefix followed by that many Latin-1
// (ISO-8859-1) bytes, decoded 1:1 into runes.
func (r *Reader) PascalString() (string, error) {
	n, err := r.VLE()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}

// PrefixedUTF16 reads a VLE code-unit count followed by that many UTF-16LE
// code units.
func (r *Reader) PrefixedUTF16() (string, error) {
	n, err := r.VLE()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n) * 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16LE(b)
}

// decodeUTF16LE decodes a raw UTF-16LE byte slice, reusing the same
// golang.org/x/text decoder the teacher uses for its PE string fields.
func decodeUTF16LE(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// BitsetStream reads a VLE bit count followed by ceil(bits/8) bytes, LSB
// first per byte, returning the raw set bit indexes.
func (r *Reader) BitsetStream() ([]int, error) {
	bitCount, err := r.VLE()
	if err != nil {
		return nil, err
	}
	if bitCount == 0 {
		return nil, nil
	}
	byteCount := int(bitCount) / 8
	if int(bitCount)%8 != 0 {
		byteCount++
	}
	set := make([]int, 0, bitCount/8)
	bitIndex := 0
	for i := 0; i < byteCount; i++ {
		v, err := r.U8()
		if err != nil {
			return nil, err
		}
		flag := uint8(1)
		for bitIndex < int(bitCount) && flag != 0 {
			if v&flag != 0 {
				set = append(set, bitIndex)
			}
			flag <<= 1
			bitIndex++
		}
	}
	return set, nil
}

// Peek returns the next n bytes without advancing the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	r.pos -= n
	return b, nil
}

// Available reports how many unread bytes remain.
func (r *Reader) Available() int { return r.Len() }
