// Package entitywalk walks the live entity table (§4.K): a hashtable of
// in-memory entities, each holding a world-entity pointer this package
// follows to pull out a content DID and property set.
package entitywalk

import (
	"context"

	"github.com/ashenvale/charstate/internal/hashtable"
	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/propval"
)

// Entity is one decoded entity table row: its instance id, the content
// DID its world entity was constructed from (0 if unresolved), and its
// property set (nil if the entity has no live property source).
type Entity struct {
	InstanceID uint64
	DataID     uint32
	Properties *propval.PropertySet
}

// Walker decodes the entity table rooted at a static address resolved
// at attach time.
type Walker struct {
	mem    procmem.ProcessMemory
	layout *procmem.Layout
	props  *propval.LiveDecoder
}

func NewWalker(mem procmem.ProcessMemory, layout *procmem.Layout, reg propval.Registry, enums propval.EnumLookup) *Walker {
	return &Walker{mem: mem, layout: layout, props: propval.NewLiveDecoder(mem, layout, reg, enums)}
}

// entityChainLinkOffset is the entity table entry's forward-link
// offset: fixed at 8 bytes regardless of pointer width, unlike the
// native package hashtables whose link offset scales with key size.
const entityChainLinkOffset = 8

// Load walks every bucket of the entity table at tableAddr, returning
// every reachable entity keyed by instance id.
func (w *Walker) Load(ctx context.Context, tableAddr uint64) (map[uint64]*Entity, error) {
	ptrSize := uint64(w.layout.PointerSize)

	bucketsPtr, err := w.mem.ReadPointer(ctx, tableAddr+3*ptrSize)
	if err != nil {
		return nil, err
	}
	nbBuckets, err := w.mem.ReadU32(ctx, tableAddr+5*ptrSize)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]*Entity)
	if bucketsPtr == 0 {
		return out, nil
	}

	err = hashtable.WalkBuckets(ctx, pointerReader{w.mem}, bucketsPtr, nbBuckets, w.layout.PointerSize,
		func(entry uint64) uint64 { return entry + entityChainLinkOffset },
		func(entry uint64) error {
			e, err := w.handleTableEntry(ctx, entry)
			if err != nil {
				return err
			}
			out[e.InstanceID] = e
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type pointerReader struct{ mem procmem.ProcessMemory }

func (p pointerReader) ReadPointer(ctx context.Context, addr uint64) (uint64, error) {
	return p.mem.ReadPointer(ctx, addr)
}

func (w *Walker) handleTableEntry(ctx context.Context, entry uint64) (*Entity, error) {
	instanceID, err := w.mem.ReadPointer(ctx, entry)
	if err != nil {
		return nil, err
	}
	e := &Entity{InstanceID: instanceID}

	worldEntityPtr, err := w.mem.ReadPointer(ctx, entry+uint64(w.layout.WorldEntityOffset))
	if err != nil {
		return nil, err
	}
	if worldEntityPtr != 0 {
		if err := w.handleWorldEntity(ctx, worldEntityPtr, e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (w *Walker) handleWorldEntity(ctx context.Context, worldEntityPtr uint64, e *Entity) error {
	constructionOffset := w.layout.WorldEntityConstructionOffset()
	constructionPtr, err := w.mem.ReadPointer(ctx, worldEntityPtr+constructionOffset)
	if err != nil {
		return err
	}
	if constructionPtr != 0 {
		didAddr := constructionPtr + constructionOffset + uint64(w.layout.PointerSize) + 4
		did, err := w.mem.ReadU32(ctx, didAddr)
		if err != nil {
			return err
		}
		e.DataID = did
	}

	propSourceOffset := w.layout.PropertySourceOffset()
	propSourcePtr, err := w.mem.ReadPointer(ctx, worldEntityPtr+propSourceOffset)
	if err != nil {
		return err
	}
	if propSourcePtr != 0 {
		props, err := w.props.HandleProperties(ctx, propSourcePtr, w.layout.PropertySourcePropsOffset()+uint64(w.layout.PointerSize))
		if err != nil {
			return err
		}
		e.Properties = props
	}
	return nil
}
