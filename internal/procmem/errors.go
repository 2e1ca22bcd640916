package procmem

import "fmt"

// MemoryReadError reports a read from an inaccessible address. Callers
// classify it as transient: the target process may simply not have the
// page mapped yet (mid-login, streaming world data).
type MemoryReadError struct {
	Addr uint64
}

func (e *MemoryReadError) Error() string {
	return fmt.Sprintf("procmem: read at %#x failed: address not mapped", e.Addr)
}

// PatternNotFound reports a failed byte-pattern scan for a named anchor.
// Fatal for the current attach attempt: without the table address nothing
// downstream can run.
type PatternNotFound struct {
	Name    string
	Pattern string
}

func (e *PatternNotFound) Error() string {
	return fmt.Sprintf("procmem: pattern %q not found for %s", e.Pattern, e.Name)
}
