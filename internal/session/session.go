// Package session composes one attach's fully-loaded snapshot: the live
// entity table, global client data, and the reference-table inspector
// (§4.O), grounded on memory_data_facade.py's MemoryDataFacade and
// MemoryExtractionSession.
package session

import (
	"context"

	"github.com/ashenvale/charstate/internal/classlib"
	"github.com/ashenvale/charstate/internal/entitywalk"
	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/nativepkg"
	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/propval"
	"github.com/ashenvale/charstate/internal/reftable"
)

// ExtractionSession is one attach's loaded snapshot: the entity table,
// the client's global data, and a reference-table inspector for
// directed queries the entity table alone can't answer (the account
// property sheet, quest/deed definitions, anything reached only by
// package id rather than through an entity).
type ExtractionSession struct {
	Entities   map[uint64]*entitywalk.Entity
	ClientData *ClientData
	Table      *reftable.Controller
	Inspector  *Inspector
}

// Load builds one ExtractionSession: it walks the entity table, loads
// client data, and initializes the reference table controller, the
// three independent resources MemoryDataFacade assembles per attach.
func Load(
	ctx context.Context,
	mem procmem.ProcessMemory,
	layout *procmem.Layout,
	reg propval.Registry,
	enums propval.EnumLookup,
	classes *classlib.ClassLibrary,
	native *nativepkg.LiveDecoder,
	logger *gamelog.Helper,
) (*ExtractionSession, error) {
	if logger == nil {
		logger = gamelog.NewNop()
	}

	walker := entitywalk.NewWalker(mem, layout, reg, enums)
	entities, err := walker.Load(ctx, layout.EntitiesTableAddr)
	if err != nil {
		return nil, err
	}

	props := propval.NewLiveDecoder(mem, layout, reg, enums)
	clientData, err := LoadClientData(ctx, mem, layout, props)
	if err != nil {
		return nil, err
	}

	table := reftable.NewController(mem, layout, classes, native, logger)
	if err := table.Init(ctx); err != nil {
		return nil, err
	}

	return &ExtractionSession{
		Entities:   entities,
		ClientData: clientData,
		Table:      table,
		Inspector:  NewInspector(table, logger),
	}, nil
}

// Character returns the session's player-character entity, or nil if
// none qualifies yet (the entity table loaded before character data
// streamed in).
func (s *ExtractionSession) Character() *CharacterEntity {
	return FindCharacter(s.Entities)
}
