package registry

import "fmt"

// MasterResourceError reports a structural problem in the master
// property resource itself (bad DID, truncated body) — fatal to the
// whole registry, unlike a single property def's marker mismatch, which
// is only logged.
type MasterResourceError struct {
	Reason string
}

func (e *MasterResourceError) Error() string {
	return fmt.Sprintf("property registry: %s", e.Reason)
}

// UnknownPropertyID reports a property definition body whose id was
// never declared in the name table that precedes it.
type UnknownPropertyID struct {
	PID uint32
}

func (e *UnknownPropertyID) Error() string {
	return fmt.Sprintf("property registry: property id %d has no name-table entry", e.PID)
}
