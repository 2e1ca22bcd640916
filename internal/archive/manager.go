package archive

import (
	"context"
	"fmt"

	"github.com/ashenvale/charstate/internal/gamelog"
)

// Manager composes a set of named, already-open archives with the DID
// routing table so callers can resolve a resource by id alone without
// knowing which archive holds it.
type Manager struct {
	archives map[string]*ArchiveReader
	logger   *gamelog.Helper
}

// NewManager wraps a name->ArchiveReader map built by the caller (each
// entry typically opened from a distinct .dat file on disk).
func NewManager(archives map[string]*ArchiveReader, logger *gamelog.Helper) *Manager {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	return &Manager{archives: archives, logger: logger}
}

// LoadResource resolves did through ArchivesFor and returns the payload
// from the first candidate archive that has it. Per §4.D/§4.E, the
// routing table only narrows which archives to try; a candidate archive
// missing the resource is not itself an error.
func (m *Manager) LoadResource(ctx context.Context, did uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := ArchivesFor(did)
	if names == nil {
		return nil, &ResourceNotFound{DID: did}
	}
	var lastErr error
	for _, name := range names {
		ar, ok := m.archives[name]
		if !ok {
			continue
		}
		data, err := ar.LoadByID(did)
		if err == nil {
			return data, nil
		}
		if _, isNotFound := err.(*ResourceNotFound); isNotFound {
			continue
		}
		m.logger.Warnw("archive candidate failed", "archive", name, "did", did, "err", err)
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &ResourceNotFound{DID: did}
}

// Close closes every archive the manager holds, returning the first
// error encountered.
func (m *Manager) Close() error {
	var first error
	for name, ar := range m.archives {
		if err := ar.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing archive %q: %w", name, err)
		}
	}
	return first
}
