package registry

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/gamelog"
)

// StringTableEntry is one localized template: label parts to splice
// together, and the variable ids/names bound into the gaps between
// them, per §4.F/§4.N.
type StringTableEntry struct {
	LabelParts    []string
	VariableIDs   []uint32
	VariableNames []string
}

type stringTable struct {
	did     uint32
	entries map[uint32]*StringTableEntry
}

// StringTableRegistry lazily loads and caches localized string-table
// resources by DID, with the same absent-tombstone discipline as
// EnumRegistry.
type StringTableRegistry struct {
	loader ResourceLoader
	logger *gamelog.Helper

	tables *lru.Cache[uint32, *stringTable]
	absent *lru.Cache[uint32, bool]
	group  singleflight.Group
}

func NewStringTableRegistry(loader ResourceLoader, logger *gamelog.Helper) *StringTableRegistry {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	tables, _ := lru.New[uint32, *stringTable](512)
	absent, _ := lru.New[uint32, bool](512)
	return &StringTableRegistry{loader: loader, logger: logger, tables: tables, absent: absent}
}

// GetEntry resolves a {table_did, token} pair to its StringTableEntry.
func (s *StringTableRegistry) GetEntry(ctx context.Context, tableDID, token uint32) (*StringTableEntry, bool) {
	t, ok := s.getTable(ctx, tableDID)
	if !ok {
		return nil, false
	}
	e, ok := t.entries[token]
	return e, ok
}

func (s *StringTableRegistry) getTable(ctx context.Context, did uint32) (*stringTable, bool) {
	if t, ok := s.tables.Get(did); ok {
		return t, true
	}
	if _, ok := s.absent.Get(did); ok {
		return nil, false
	}
	v, err, _ := s.group.Do(fmt.Sprintf("strtable:%d", did), func() (interface{}, error) {
		data, err := s.loader.LoadResource(ctx, did)
		if err != nil {
			return nil, err
		}
		return decodeStringTable(data)
	})
	if err != nil {
		s.absent.Add(did, true)
		s.logger.Warnw("string table unavailable, caching as absent", "did", did, "err", err)
		return nil, false
	}
	t := v.(*stringTable)
	s.tables.Add(did, t)
	return t, true
}

// decodeStringTable parses a string-table resource: {did, flag (0|1),
// tsize entries of {token, 0-pad, n label-parts (UTF-16), n-1 variable
// ids, optional variable-name list}}, per §4.F.
func decodeStringTable(data []byte) (*stringTable, error) {
	r := binreader.New(data)
	did, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.U32(); err != nil { // flag, 0 or 1, not load-bearing here
		return nil, err
	}
	nbEntries, err := r.TSize()
	if err != nil {
		return nil, err
	}
	t := &stringTable{did: did, entries: make(map[uint32]*StringTableEntry, nbEntries)}
	for i := uint32(0); i < nbEntries; i++ {
		token, entry, err := decodeStringTableEntry(r)
		if err != nil {
			return nil, err
		}
		t.entries[token] = entry
	}
	return t, nil
}

func decodeStringTableEntry(r *binreader.Reader) (uint32, *StringTableEntry, error) {
	token, err := r.U32()
	if err != nil {
		return 0, nil, err
	}
	if _, err := r.U32(); err != nil { // reserved, always 0
		return 0, nil, err
	}

	labelPartsCount, err := r.U32()
	if err != nil {
		return 0, nil, err
	}
	labelParts := make([]string, labelPartsCount)
	for i := range labelParts {
		if labelParts[i], err = r.PrefixedUTF16(); err != nil {
			return 0, nil, err
		}
	}

	nbVariables, err := r.U32()
	if err != nil {
		return 0, nil, err
	}
	variableIDs := make([]uint32, nbVariables)
	for i := range variableIDs {
		if variableIDs[i], err = r.U32(); err != nil {
			return 0, nil, err
		}
	}

	var variableNames []string
	hasNames, err := r.Bool()
	if err != nil {
		return 0, nil, err
	}
	if hasNames {
		cnt, err := r.U32()
		if err != nil {
			return 0, nil, err
		}
		variableNames = make([]string, cnt)
		for i := range variableNames {
			if variableNames[i], err = r.PrefixedUTF16(); err != nil {
				return 0, nil, err
			}
		}
	}

	return token, &StringTableEntry{
		LabelParts:    labelParts,
		VariableIDs:   variableIDs,
		VariableNames: variableNames,
	}, nil
}
