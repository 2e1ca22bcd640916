package reftable

import (
	"context"

	"github.com/ashenvale/charstate/internal/classlib"
	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/nativepkg"
	"github.com/ashenvale/charstate/internal/procmem"
)

// Controller resolves the static reference table once at attach time and
// memoizes both entry lookups and decoded values, grounded on
// reference_table_controller.py.
type Controller struct {
	mem     procmem.ProcessMemory
	layout  *procmem.Layout
	classes *classlib.ClassLibrary
	native  *nativepkg.LiveDecoder
	logger  *gamelog.Helper

	tablePtr      uint64
	numEntries    uint32
	gcGeneration  uint32
	entryPointers []uint64

	entriesCache map[uint32]*Entry
	valuesCache  map[uint32]interface{}
}

func NewController(mem procmem.ProcessMemory, layout *procmem.Layout, classes *classlib.ClassLibrary, native *nativepkg.LiveDecoder, logger *gamelog.Helper) *Controller {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	return &Controller{
		mem:          mem,
		layout:       layout,
		classes:      classes,
		native:       native,
		logger:       logger,
		entriesCache: make(map[uint32]*Entry),
		valuesCache:  make(map[uint32]interface{}),
	}
}

// Init resolves the reference table's static address into a live entry
// pointer array, the table-wide gc generation, and entry count.
func (c *Controller) Init(ctx context.Context) error {
	ptrSize := uint64(c.layout.PointerSize)

	refTablePtr, err := c.mem.ReadPointer(ctx, c.layout.ReferencesTableAddr)
	if err != nil {
		return err
	}
	tablePtr, err := c.mem.ReadPointer(ctx, refTablePtr)
	if err != nil {
		return err
	}
	numEntries, err := c.mem.ReadU32(ctx, refTablePtr+ptrSize+4)
	if err != nil {
		return err
	}
	gcGeneration, err := c.mem.ReadU32(ctx, refTablePtr+ptrSize+12)
	if err != nil {
		return err
	}

	entryPointers := make([]uint64, numEntries)
	for i := range entryPointers {
		p, err := c.mem.ReadPointer(ctx, tablePtr+uint64(i)*ptrSize)
		if err != nil {
			return err
		}
		entryPointers[i] = p
	}

	c.tablePtr = tablePtr
	c.numEntries = numEntries
	c.gcGeneration = gcGeneration & 0xFF
	c.entryPointers = entryPointers
	return nil
}

// TableSize is the number of entry slots resolved by Init.
func (c *Controller) TableSize() int { return len(c.entryPointers) }

// GetEntry returns the entry at index, memoized after first load. A nil,
// nil result means the slot is empty or its generation is stale — not
// an error.
func (c *Controller) GetEntry(ctx context.Context, index uint32) (*Entry, error) {
	if e, ok := c.entriesCache[index]; ok {
		return e, nil
	}
	e, err := c.loadEntry(ctx, index)
	if err != nil {
		c.logger.Warnw("failed to load reference table entry", "index", index, "err", err)
		return nil, nil
	}
	c.entriesCache[index] = e
	return e, nil
}

func (c *Controller) loadEntry(ctx context.Context, index uint32) (*Entry, error) {
	if index >= uint32(len(c.entryPointers)) {
		return nil, nil
	}
	entryPtr := c.entryPointers[index]
	if entryPtr == 0 {
		return nil, nil
	}
	bitfield, err := c.mem.ReadU32(ctx, entryPtr)
	if err != nil {
		return nil, err
	}
	if bitfield&0xFF != c.gcGeneration {
		return nil, nil
	}
	intSize := uint64(c.layout.IntSize)
	ptrSize := uint64(c.layout.PointerSize)
	factoryPtr, err := c.mem.ReadPointer(ctx, entryPtr+intSize)
	if err != nil {
		return nil, err
	}
	wslPtr, err := c.mem.ReadPointer(ctx, entryPtr+intSize+ptrSize)
	if err != nil {
		return nil, err
	}
	nativePtr, err := c.mem.ReadPointer(ctx, entryPtr+intSize+2*ptrSize)
	if err != nil {
		return nil, err
	}
	packageID, err := c.mem.ReadU32(ctx, factoryPtr)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Index:                 index,
		PackageID:             packageID,
		Bitfield:              bitfield,
		PackageFactoryInfoPtr: factoryPtr,
		WSLPackagePtr:         wslPtr,
		NativePackagePtr:      nativePtr,
	}, nil
}

// GetValue resolves and memoizes the decoded value at index: a
// *wstate.ClassInstance for a WSL entry, or whatever shape
// nativepkg.LiveDecoder.DecodeNative produces for a native entry.
func (c *Controller) GetValue(ctx context.Context, index uint32) (interface{}, error) {
	entry, err := c.GetEntry(ctx, index)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if v, ok := c.valuesCache[index]; ok {
		return v, nil
	}
	v, err := c.loadValue(ctx, entry)
	if err != nil {
		c.logger.Warnw("failed to decode reference table value", "index", index, "err", err)
		return nil, nil
	}
	c.valuesCache[index] = v
	return v, nil
}

func (c *Controller) loadValue(ctx context.Context, entry *Entry) (interface{}, error) {
	if entry.IsNative() {
		return c.native.DecodeNative(ctx, entry.PackageFactoryInfoPtr, entry.NativePackagePtr)
	}
	if entry.WSLPackagePtr == 0 {
		return nil, nil
	}
	return c.decodeClassInstance(ctx, entry.PackageFactoryInfoPtr, entry.WSLPackagePtr)
}
