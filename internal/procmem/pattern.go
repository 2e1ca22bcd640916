package procmem

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// patternToken is one matched byte (exact) or one wildcard byte (any value).
type patternToken struct {
	value    byte
	wildcard bool
}

// parsePattern turns a hex-pair string, where "?N" denotes N+1 wildcard
// bytes, into a token list. E.g. "48895c24?3488b0d" has a run of 4
// wildcard bytes after the literal prefix.
func parsePattern(pattern string) ([]patternToken, error) {
	var tokens []patternToken
	for i := 0; i < len(pattern); {
		if pattern[i] == '?' {
			if i+1 >= len(pattern) {
				return nil, fmt.Errorf("procmem: truncated wildcard in pattern %q", pattern)
			}
			n := pattern[i+1] - '0'
			if n > 9 {
				return nil, fmt.Errorf("procmem: bad wildcard count in pattern %q", pattern)
			}
			for k := 0; k < int(n)+1; k++ {
				tokens = append(tokens, patternToken{wildcard: true})
			}
			i += 2
			continue
		}
		if i+2 > len(pattern) {
			return nil, fmt.Errorf("procmem: odd-length pattern %q", pattern)
		}
		b, err := hex.DecodeString(pattern[i : i+2])
		if err != nil {
			return nil, fmt.Errorf("procmem: bad hex in pattern %q: %w", pattern, err)
		}
		tokens = append(tokens, patternToken{value: b[0]})
		i += 2
	}
	return tokens, nil
}

// find returns the index of the first match of tokens within data, or -1.
func find(data []byte, tokens []patternToken) int {
	if len(tokens) == 0 || len(tokens) > len(data) {
		return -1
	}
	for start := 0; start+len(tokens) <= len(data); start++ {
		ok := true
		for i, tok := range tokens {
			if !tok.wildcard && data[start+i] != tok.value {
				ok = false
				break
			}
		}
		if ok {
			return start
		}
	}
	return -1
}

// FindStaticOffset locates pattern in imageBytes, reads a 32-bit
// little-endian value at index+displacement, and resolves it to an
// absolute address per §4.B: for 64-bit targets the value is a
// RIP-relative displacement (resolved address = index + displacement + 4
// + value + base); for 32-bit targets the value is already absolute.
func FindStaticOffset(imageBytes []byte, name, pattern string, displacement int, is64Bit bool, base uint64) (uint64, error) {
	tokens, err := parsePattern(pattern)
	if err != nil {
		return 0, err
	}
	index := find(imageBytes, tokens)
	if index < 0 {
		return 0, &PatternNotFound{Name: name, Pattern: pattern}
	}
	operand := index + displacement
	if operand < 0 || operand+4 > len(imageBytes) {
		return 0, &PatternNotFound{Name: name, Pattern: pattern}
	}
	value := binary.LittleEndian.Uint32(imageBytes[operand : operand+4])
	if is64Bit {
		return uint64(operand+4) + uint64(int64(int32(value))) + base, nil
	}
	return uint64(value), nil
}

// PatternSpec names one of the four required static-address anchors (§4.B).
type PatternSpec struct {
	Name               string
	Anchor64, Anchor32 string
	Disp64, Disp32     int
}

// RequiredPatterns is the fixed anchor table; entries are data, not logic,
// and must be preserved exactly.
var RequiredPatterns = []PatternSpec{
	{
		Name:     "Entities",
		Anchor64: "48895c2408574883ec40488bd9488b0d?3",
		Disp64:   16,
		Anchor32: "8B0D?383EC?05633F63BCE",
		Disp32:   2,
	},
	{
		Name:     "References",
		Anchor64: "488b05?3488b08488b0cd1428d14c500000000488b4910",
		Disp64:   3,
		Anchor32: "8B476468DF00000050E8",
		Disp32:   -9,
	},
	{
		Name:     "Client/Account",
		Anchor64: "48893d?3b201b900010000",
		Disp64:   3,
		Anchor32: "85C974078B018B5030FFE2B801000000C3",
		Disp32:   -4,
	},
	{
		Name:     "Storage",
		Anchor64: "4883EC28BA02000000488D0D?3",
		Disp64:   12,
		Anchor32: "6a016a02b9?3e8",
		Disp32:   5,
	},
}
