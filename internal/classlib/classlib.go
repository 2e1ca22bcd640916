// Package classlib parses the class library resource (§4.G): static
// class and attribute definitions shared by WState object graphs and
// the native package codec's "db properties" records.
package classlib

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/gamelog"
)

const classLibraryResourceDID uint32 = 0x56000000

// chunkMarker is the four-byte sentinel (read as a signed value by the
// client, -19131852) that introduces a {chunk_type, size, data} triple;
// anything else at that position is either the header's own stop_code
// or, per the client's own tolerant loop, skipped.
const chunkMarker uint32 = uint32(int32(-19131852))

const (
	chunkBytecode  = 1
	chunkMessages  = 2
	chunkClassDefs = 16
	chunkUnknown   = 64
	chunkClassVars = 512
	chunkParents   = 1024
)

// AttributeDef is one class variable: its name (resolved through the
// static hash->name table, or the hex hash if unresolved), wire index,
// and raw type code (REFERENCE=1, INTEGER=2, FLOAT=3, LONG=130,
// UNUSED=131, TIMESTAMP=195).
type AttributeDef struct {
	NameHash uint32
	Name     string
	Index    uint16
	Type     uint8
}

// ClassDef is one entry in the library: its declared index, name
// (falling back to the decimal index when unresolved), raw object size,
// attributes, and parent class.
type ClassDef struct {
	Index   uint16
	Name    string
	RawSize uint32
	Attrs   []*AttributeDef
	Parent  *ClassDef
}

// DisplayName returns Name, or the class index's decimal form if no
// name was resolved — matching ClassDefinition.name's own fallback.
func (c *ClassDef) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return strconv.Itoa(int(c.Index))
}

func (c *ClassDef) AttrByName(name string) (*AttributeDef, bool) {
	for _, a := range c.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// SortedAttrs returns a copy of Attrs ordered by wire Index ascending,
// the layout live attribute decoders (a class instance read directly
// out of process memory rather than a WState byte stream) walk in.
func (c *ClassDef) SortedAttrs() []*AttributeDef {
	out := make([]*AttributeDef, len(c.Attrs))
	copy(out, c.Attrs)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ResourceLoader resolves a resource DID to its raw decompressed bytes.
type ResourceLoader interface {
	LoadResource(ctx context.Context, did uint32) ([]byte, error)
}

// ClassLibrary holds every class declared by the class library resource,
// keyed by class index.
type ClassLibrary struct {
	classNames map[uint16]string // static class_index -> name table
	hashNames  map[uint32]string // static hash -> attribute-name table
	logger     *gamelog.Helper

	classes []*ClassDef // in ClassDefs declaration order, parallel to ParentsMap
	byIndex map[uint16]*ClassDef
}

// NewClassLibrary constructs an empty library. classNames/hashNames are
// the client's static PackageNames/StringHashMap tables; either may be
// nil if unavailable, in which case every class/attribute name falls
// back to its numeric form, per §4.G.
func NewClassLibrary(classNames map[uint16]string, hashNames map[uint32]string, logger *gamelog.Helper) *ClassLibrary {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	if classNames == nil {
		classNames = map[uint16]string{}
	}
	if hashNames == nil {
		hashNames = map[uint32]string{}
	}
	return &ClassLibrary{
		classNames: classNames,
		hashNames:  hashNames,
		logger:     logger,
		byIndex:    make(map[uint16]*ClassDef),
	}
}

func (l *ClassLibrary) GetClass(index uint16) (*ClassDef, bool) {
	c, ok := l.byIndex[index]
	return c, ok
}

// Load fetches and parses the class library resource.
func (l *ClassLibrary) Load(ctx context.Context, loader ResourceLoader) error {
	data, err := loader.LoadResource(ctx, classLibraryResourceDID)
	if err != nil {
		return fmt.Errorf("loading class library resource: %w", err)
	}
	r := binreader.New(data)

	if _, err := r.U32(); err != nil { // did
		return err
	}
	stopCode, err := r.U32()
	if err != nil {
		return err
	}
	if err := r.Skip(8); err != nil { // two reserved u32 fields
		return err
	}

	for r.Len() > 4 {
		fourCC, err := r.U32()
		if err != nil {
			return err
		}
		switch fourCC {
		case chunkMarker:
			chunkType, err := r.U32()
			if err != nil {
				return err
			}
			size, err := r.U32()
			if err != nil {
				return err
			}
			body, err := r.Bytes(int(size))
			if err != nil {
				return err
			}
			if err := l.loadChunk(int(chunkType), body); err != nil {
				return err
			}
		case stopCode:
			flag, err := r.I8()
			if err != nil {
				return err
			}
			if flag != 1 {
				l.logger.Warnw("unexpected class library stop-code flag", "flag", flag)
			}
		default:
			l.logger.Warnw("unrecognized class library four-cc, skipping", "value", fourCC)
		}
	}
	return nil
}

func (l *ClassLibrary) loadChunk(chunkType int, data []byte) error {
	r := binreader.New(data)
	switch chunkType {
	case chunkBytecode:
		return nil // opaque, recognized but not consumed further
	case chunkMessages:
		return nil // opaque, recognized but not consumed further
	case chunkClassDefs:
		return l.loadClassDefs(r)
	case chunkClassVars:
		return l.loadClassVars(r)
	case chunkParents:
		return l.loadParentsMap(r)
	case chunkUnknown:
		return nil
	default:
		l.logger.Warnw("unmanaged class library chunk type", "type", chunkType)
		return nil
	}
}

func (l *ClassLibrary) loadClassDefs(r *binreader.Reader) error {
	count, err := r.VLE()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		defined, err := r.Bool()
		if err != nil {
			return err
		}
		if !defined {
			l.classes = append(l.classes, nil)
			continue
		}
		c, err := l.loadClassDef(r)
		if err != nil {
			return err
		}
		l.classes = append(l.classes, c)
	}
	return nil
}

func (l *ClassLibrary) loadClassDef(r *binreader.Reader) (*ClassDef, error) {
	classIndex, err := r.U16()
	if err != nil {
		return nil, err
	}
	pairCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	rawSize, err := r.U32()
	if err != nil {
		return nil, err
	}

	c := &ClassDef{Index: classIndex, Name: l.classNames[classIndex], RawSize: rawSize}
	l.byIndex[classIndex] = c

	for i := uint16(0); i < pairCount; i++ {
		if err := r.Skip(8); err != nil { // {default_val: u32, n: u32} pair, opaque
			return nil, err
		}
	}
	numReferences, err := r.VLE()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(int(numReferences) * 2); err != nil { // u16 references
		return nil, err
	}
	numOffsets, err := r.VLE()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(int(numOffsets) * 4); err != nil { // u32 offsets
		return nil, err
	}
	numOffsetIndices, err := r.VLE()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(int(numOffsetIndices) * 2); err != nil { // u16 offset indices
		return nil, err
	}
	return c, nil
}

func (l *ClassLibrary) loadClassVars(r *binreader.Reader) error {
	numClasses, err := r.TSize()
	if err != nil {
		return err
	}
	for i := uint32(0); i < numClasses; i++ {
		classIndex32, err := r.U32()
		if err != nil {
			return err
		}
		classIndex := uint16(classIndex32)
		c, ok := l.byIndex[classIndex]
		if !ok {
			return fmt.Errorf("classlib: class vars reference undeclared class %d", classIndex)
		}
		numVars, err := r.TSize()
		if err != nil {
			return err
		}
		for j := uint32(0); j < numVars; j++ {
			nameHash, err := r.U32()
			if err != nil {
				return err
			}
			index, err := r.U16()
			if err != nil {
				return err
			}
			typeCode, err := r.U8()
			if err != nil {
				return err
			}
			name := l.hashNames[nameHash]
			if name == "" {
				name = fmt.Sprintf("%X", nameHash)
			}
			c.Attrs = append(c.Attrs, &AttributeDef{NameHash: nameHash, Name: name, Index: index, Type: typeCode})
		}
	}
	return nil
}

func (l *ClassLibrary) loadParentsMap(r *binreader.Reader) error {
	count, err := r.U32()
	if err != nil {
		return err
	}
	if int(count) != len(l.classes) {
		return fmt.Errorf("classlib: parents map length %d does not match class defs count %d", count, len(l.classes))
	}
	for i := uint32(0); i < count; i++ {
		parentIndex, err := r.U32()
		if err != nil {
			return err
		}
		if parentIndex == 0 {
			continue
		}
		c := l.classes[i]
		if c == nil {
			continue
		}
		parent, ok := l.byIndex[uint16(parentIndex)]
		if ok {
			c.Parent = parent
		}
	}
	return nil
}
