package archive

import "fmt"

// ArchiveFormatError reports a structurally invalid archive: bad magic,
// a size mismatch, or a decompression failure. Fatal for the one
// resource being loaded, not for the archive as a whole.
type ArchiveFormatError struct {
	Reason string
}

func (e *ArchiveFormatError) Error() string {
	return fmt.Sprintf("archive: %s", e.Reason)
}

// ResourceNotFound reports that no archive (router miss) or no file
// record (B-tree miss) could produce the requested DID.
type ResourceNotFound struct {
	DID uint32
}

func (e *ResourceNotFound) Error() string {
	return fmt.Sprintf("archive: resource %#x not found", e.DID)
}
