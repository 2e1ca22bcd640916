// Package knownvars is the static hash->name cache used when rendering
// a string-info template without a bound variable-name list (§4.N).
package knownvars

import "fmt"

// seed mirrors the hardcoded bootstrap entries spec §4.N requires; the
// larger external name list the client ships is not part of this
// resource pack, so lookups outside this seed fall back to the hex form
// of the hash.
var seed = map[uint32]string{
	65808821:  "PLAYER",
	246996147: "CLASS",
	65824981:  "RACE",
	788899:    "CURRENT",
	104736179: "MAX",
}

// NameForHash resolves a variable-name hash to its name, or the hex form
// of the hash if it is not among the known seed entries.
func NameForHash(hash uint32) string {
	if name, ok := seed[hash]; ok {
		return name
	}
	return fmt.Sprintf("%X", hash)
}
