package session

import (
	"context"

	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/reftable"
	"github.com/ashenvale/charstate/internal/resolver"
	"github.com/ashenvale/charstate/internal/wstate"
)

// localPlayerPackageID is the reference-table package id the client
// registers its own avatar under, grounded on WSLInspector.find_local_player.
const localPlayerPackageID = 1654

// pedigreeRegistryAttr is the attribute WSLInspector checks to confirm a
// package-1654 entry is a genuinely logged-in player avatar rather than a
// placeholder slot.
const pedigreeRegistryAttr = "m_rcPedigreeRegistry"

// entryTable is the slice of *reftable.Controller's surface Inspector
// needs, narrowed the way resolver.valueSource narrows it for the
// reference providers — small local interfaces kept next to their only
// caller rather than declared on the concrete type.
type entryTable interface {
	TableSize() int
	GetEntry(ctx context.Context, index uint32) (*reftable.Entry, error)
	GetValue(ctx context.Context, index uint32) (interface{}, error)
}

// Inspector answers directed reference-table queries, fully resolving
// every reference reachable from a match before returning it, grounded
// on wsl_inspector.py.
type Inspector struct {
	table    entryTable
	provider *resolver.ReferencesTableReferenceProvider
	resolve  *resolver.Resolver
}

// NewInspector builds an Inspector over table. table must already be
// initialized (Controller.Init called).
func NewInspector(table *reftable.Controller, logger *gamelog.Helper) *Inspector {
	provider := resolver.NewReferencesTableReferenceProvider(table)
	return &Inspector{
		table:    table,
		provider: provider,
		resolve:  resolver.NewResolver(provider, logger),
	}
}

// FindLocalPlayer returns the fully-resolved local player avatar, or nil
// if no entry in the table currently qualifies (not yet logged in, or
// between characters).
func (ins *Inspector) FindLocalPlayer(ctx context.Context) (*wstate.ClassInstance, error) {
	n := ins.table.TableSize()
	for i := uint32(0); i < uint32(n); i++ {
		entry, err := ins.table.GetEntry(ctx, i)
		if err != nil {
			return nil, err
		}
		if entry == nil || entry.PackageID != localPlayerPackageID {
			continue
		}
		value, err := ins.table.GetValue(ctx, i)
		if err != nil {
			return nil, err
		}
		inst, ok := value.(*wstate.ClassInstance)
		if !ok {
			continue
		}
		ref, ok := inst.Get(pedigreeRegistryAttr)
		if !ok || !isPositive(ref) {
			continue
		}
		if err := resolver.ResolveDeep(ctx, ins.resolve, ins.provider, inst); err != nil {
			return nil, err
		}
		return inst, nil
	}
	return nil, nil
}

// FindAll returns every reference-table entry declared under packageID,
// resolving each class-instance value's references before returning,
// grounded on WSLInspector.find_all.
func (ins *Inspector) FindAll(ctx context.Context, packageID uint32) ([]interface{}, error) {
	n := ins.table.TableSize()
	var out []interface{}
	for i := uint32(0); i < uint32(n); i++ {
		entry, err := ins.table.GetEntry(ctx, i)
		if err != nil {
			return nil, err
		}
		if entry == nil || entry.PackageID != packageID {
			continue
		}
		value, err := ins.table.GetValue(ctx, i)
		if err != nil {
			return nil, err
		}
		if inst, ok := value.(*wstate.ClassInstance); ok {
			if err := resolver.ResolveDeep(ctx, ins.resolve, ins.provider, inst); err != nil {
				return nil, err
			}
		}
		out = append(out, value)
	}
	return out, nil
}

func isPositive(v interface{}) bool {
	switch x := v.(type) {
	case int64:
		return x > 0
	case int32:
		return x > 0
	case int:
		return x > 0
	case uint32:
		return x > 0
	case uint64:
		return x > 0
	}
	return false
}
