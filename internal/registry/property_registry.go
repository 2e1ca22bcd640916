// Package registry loads the client's lazily- and eagerly-populated
// resource registries: the property definition table, enum tables, and
// localized string tables (§4.E, §4.F).
package registry

import (
	"context"
	"fmt"

	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/bitset"
	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/propval"
)

const (
	masterPropertyResourceDID uint32 = 0x34000000
	propertyDefMarker         uint32 = 0x3FC00000
)

// ResourceLoader resolves a resource DID to its raw decompressed bytes.
// *archive.Manager satisfies this.
type ResourceLoader interface {
	LoadResource(ctx context.Context, did uint32) ([]byte, error)
}

// PropertyRegistry holds every property definition declared by the
// master property resource. Unlike EnumRegistry/StringTableRegistry it
// is loaded once, eagerly, since every decoder needs it immediately.
type PropertyRegistry struct {
	props  map[uint32]*propval.PropertyDef
	byName map[string]*propval.PropertyDef
	logger *gamelog.Helper
}

func NewPropertyRegistry(logger *gamelog.Helper) *PropertyRegistry {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	return &PropertyRegistry{
		props:  make(map[uint32]*propval.PropertyDef),
		byName: make(map[string]*propval.PropertyDef),
		logger: logger,
	}
}

// GetPropertyDef satisfies propval.Registry.
func (p *PropertyRegistry) GetPropertyDef(pid uint32) (*propval.PropertyDef, bool) {
	d, ok := p.props[pid]
	return d, ok
}

func (p *PropertyRegistry) GetPropertyDefByName(name string) (*propval.PropertyDef, bool) {
	d, ok := p.byName[name]
	return d, ok
}

// Load fetches and parses the master property resource, per §4.E.
func (p *PropertyRegistry) Load(ctx context.Context, loader ResourceLoader) error {
	data, err := loader.LoadResource(ctx, masterPropertyResourceDID)
	if err != nil {
		return fmt.Errorf("loading master property resource: %w", err)
	}
	r := binreader.New(data)

	did, err := r.U32()
	if err != nil {
		return &MasterResourceError{Reason: "truncated before did: " + err.Error()}
	}
	if did != masterPropertyResourceDID {
		return &MasterResourceError{Reason: fmt.Sprintf("unexpected did %#x", did)}
	}
	if err := r.Skip(8); err != nil {
		return &MasterResourceError{Reason: "truncated header: " + err.Error()}
	}

	numNames, err := r.TSize()
	if err != nil {
		return &MasterResourceError{Reason: "truncated name-table count: " + err.Error()}
	}
	for i := uint32(0); i < numNames; i++ {
		pid, err := r.U32()
		if err != nil {
			return &MasterResourceError{Reason: "truncated name-table entry: " + err.Error()}
		}
		name, err := r.PascalString()
		if err != nil {
			return &MasterResourceError{Reason: "truncated name-table entry: " + err.Error()}
		}
		def := &propval.PropertyDef{PID: pid, Name: name}
		p.props[pid] = def
		p.byName[name] = def
	}

	if err := r.Skip(2); err != nil {
		return &MasterResourceError{Reason: "truncated before def-table: " + err.Error()}
	}
	nbDefs, err := r.TSize()
	if err != nil {
		return &MasterResourceError{Reason: "truncated def-table count: " + err.Error()}
	}
	for j := uint32(0); j < nbDefs; j++ {
		pid, err := r.U32()
		if err != nil {
			return &MasterResourceError{Reason: "truncated def-table entry: " + err.Error()}
		}
		if err := p.readPropertyDef(r, pid); err != nil {
			return err
		}
	}
	return nil
}

func (p *PropertyRegistry) readPropertyDef(r *binreader.Reader, pid uint32) error {
	def, ok := p.props[pid]
	if !ok {
		return &UnknownPropertyID{PID: pid}
	}

	if _, err := r.U32(); err != nil { // the def's own copy of pid, unused
		return err
	}
	typeCode, err := r.U32()
	if err != nil {
		return err
	}
	def.Type = propval.PropertyType(typeCode)
	if err := r.Skip(8); err != nil { // two unknown reserved u32 fields
		return err
	}
	data, err := r.U32()
	if err != nil {
		return err
	}
	def.Data = data
	if err := r.Skip(4); err != nil { // one unknown reserved u32 field
		return err
	}
	v5, err := r.U32()
	if err != nil {
		return err
	}

	if v5&0x800 != 0 {
		if def.DefVal, err = readDefValue(r, def.Type); err != nil {
			return err
		}
	}
	if v5&0x1000 != 0 {
		if def.MinVal, err = readDefValue(r, def.Type); err != nil {
			return err
		}
	}
	if v5&0x2000 != 0 {
		if def.MaxVal, err = readDefValue(r, def.Type); err != nil {
			return err
		}
	}

	marker, err := r.U32()
	if err != nil {
		return err
	}
	if marker != propertyDefMarker {
		p.logger.Warnw("unexpected property-def marker", "pid", pid, "marker", marker)
	}
	if err := r.Skip(5); err != nil {
		return err
	}

	nbChildren, err := r.U8()
	if err != nil {
		return err
	}
	for i := uint8(0); i < nbChildren; i++ {
		cp1, err := r.U32()
		if err != nil {
			return err
		}
		cp2, err := r.U32()
		if err != nil {
			return err
		}
		if cp1 != cp2 {
			p.logger.Warnw("mismatched child property id pair", "pid", pid, "cp1", cp1, "cp2", cp2)
		}
		child, ok := p.props[cp1]
		if !ok {
			p.logger.Warnw("child property id has no definition", "pid", pid, "child", cp1)
			continue
		}
		def.ChildProps = append(def.ChildProps, child)
	}

	nbUnknown, err := r.U32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < nbUnknown; i++ {
		cpid, err := r.U32()
		if err != nil {
			return err
		}
		if !def.HasChildProp(cpid) {
			p.logger.Warnw("redundant child property id not present", "pid", pid, "child", cpid)
		}
	}

	numLast, err := r.U32()
	if err != nil {
		return err
	}
	if numLast != 0 {
		p.logger.Warnw("unexpected property-def terminator value", "pid", pid, "value", numLast)
	}
	return nil
}

// readDefValue decodes a property definition's default/min/max field.
// PropertyID/Struct/Array/Position never carry one in this context —
// the client's own def-value reader returns without consuming bytes for
// these four tags, unlike the general stream-item value reader — so
// this is its own scalar-only switch, not a reuse of propval's.
func readDefValue(r *binreader.Reader, ptype propval.PropertyType) (interface{}, error) {
	switch ptype {
	case propval.PropertyID, propval.Struct, propval.Array, propval.Position:
		return nil, nil
	case propval.String:
		return r.PascalString()
	case propval.StringToken, propval.EnumMapper, propval.Int, propval.Bitfield32, propval.DataFile:
		return r.U32()
	case propval.Waveform:
		kind, err := r.I32()
		if err != nil {
			return nil, err
		}
		if kind == 1 {
			return r.F32()
		}
		if kind > 1 {
			out := make([]float32, 10)
			for i := range out {
				if out[i], err = r.F32(); err != nil {
					return nil, err
				}
			}
			return out, nil
		}
		return nil, nil
	case propval.TimeStamp:
		return r.F64()
	case propval.TriState:
		return r.U8()
	case propval.Vector:
		var v [3]float32
		for i := range v {
			var err error
			if v[i], err = r.F32(); err != nil {
				return nil, err
			}
		}
		return v, nil
	case propval.InstanceID, propval.Int64, propval.Bitfield64:
		return r.U64()
	case propval.Float:
		return r.F32()
	case propval.StringInfoType:
		return propval.DecodeStringInfo(r)
	case propval.Color:
		var c [4]uint8
		for i := range c {
			var err error
			if c[i], err = r.U8(); err != nil {
				return nil, err
			}
		}
		return c, nil
	case propval.Bool:
		return r.Bool()
	case propval.Bitfield:
		indexes, err := r.BitsetStream()
		if err != nil {
			return nil, err
		}
		return bitset.FromIndexes(indexes), nil
	default:
		return nil, fmt.Errorf("property def value: unhandled property type %s", ptype)
	}
}
