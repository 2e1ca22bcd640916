// Package nativepkg decodes the client's native container and record
// packages (§4.I/§4.J): a family of small, package-id-keyed container
// shapes (hashes, multihashes, arrays, lists, sets) plus a handful of
// larger domain records (vault, currency, map notes, gameplay options,
// quest geo data) read either from a serialized byte stream (the WState
// class bundle) or from live process memory (the reference table's
// native entries).
package nativepkg

import "fmt"

// DataReference wraps a raw reference-table handle. Resolution into the
// object it names happens later, in the reference resolver (§4.M); every
// container decoder that the original source marks "use_ref" produces
// these instead of bare integers so the resolver can find them.
type DataReference struct {
	Handle uint32
}

func (d DataReference) String() string {
	return fmt.Sprintf("ref(%#x)", d.Handle)
}

// DecodeError scopes a failure to a single native package or record.
// The WState loader wraps it with the class index and returns it, which
// ends the decode of the enclosing buffer.
type DecodeError struct {
	Context string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nativepkg: %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("nativepkg: %s", e.Context)
}

func (e *DecodeError) Unwrap() error { return e.Err }
