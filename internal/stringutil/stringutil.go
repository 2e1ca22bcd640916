// Package stringutil holds the two freestanding text-from-memory
// readers the client's decoders lean on outside the regular
// PropertyValueCodec path: the literal-string byte-swap quirk, and the
// best-effort "read a wide string, stop at the first run of NULs"
// reader the client data loader uses for plain C-ish fields (server
// name, language) that carry no length prefix at all.
package stringutil

import (
	"context"

	"github.com/ashenvale/charstate/internal/procmem"
)

// ReadLiteralMemoryString reads a literal String/StringInfo value
// (§10 SUPPLEMENTED FEATURES): the 12-byte header preceding the
// character buffer carries the character count at +8, and the buffer
// itself stores each UTF-16 code unit's two bytes byte-swapped relative
// to plain UTF-16LE — grounded on
// StringInfoUtils.handle_literal_str_value, which XORs adjacent byte
// pairs before decoding.
func ReadLiteralMemoryString(ctx context.Context, mem procmem.ProcessMemory, strPtr uint64) (string, error) {
	headerPtr := strPtr - 12
	rawCount, err := mem.ReadU32(ctx, headerPtr+8)
	if err != nil {
		return "", err
	}
	if rawCount == 0 {
		return "", nil
	}
	count := int(rawCount) - 1
	if count <= 0 {
		return "", nil
	}
	buf, err := mem.ReadBytes(ctx, strPtr, count*2)
	if err != nil {
		return "", err
	}
	swapped := make([]byte, len(buf))
	for i := 0; i < count; i++ {
		swapped[i*2] = buf[i*2+1]
		swapped[i*2+1] = buf[i*2]
	}
	var out []rune
	for i := 0; i < count; i++ {
		u := uint16(swapped[i*2]) | uint16(swapped[i*2+1])<<8
		if u == 0 {
			continue
		}
		out = append(out, rune(u))
	}
	return string(out), nil
}

// ReadApproxWideString reads up to approxBytes bytes at ptr and decodes
// them as best-effort text: it stops at the first run of three or more
// zero bytes (an end-of-string marker, tolerating a trailing run of
// spaces/dots the client sometimes pads with), then drops every
// remaining zero byte — which, for a UTF-16LE buffer of ASCII text,
// is exactly the high byte of each code unit. Grounded on
// Utils.retrieve_string, which does the same scan-and-strip over an
// 80-byte guess rather than reading a length-prefixed string, because
// the server name/language fields carry no length prefix at all.
func ReadApproxWideString(ctx context.Context, mem procmem.ProcessMemory, ptr uint64, approxBytes int) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	buf, err := mem.ReadBytes(ctx, ptr, approxBytes)
	if err != nil {
		return "", err
	}
	end := len(buf)
	for i := 0; i+2 < len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 0 {
			end = i
			break
		}
	}
	out := make([]byte, 0, end)
	for _, b := range buf[:end] {
		if b != 0 {
			out = append(out, b)
		}
	}
	return string(out), nil
}
