package wstate

import (
	"fmt"

	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/classlib"
	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/nativepkg"
)

// dboType identifies the kind of object a WState import record refers
// to: a character/NPC-ish "entity" DID or an appearance DID. Every
// import is validated against these, matching the two branches the
// reference loader recognizes.
const (
	dboTypeEntity     uint32 = 69
	dboTypeAppearance uint32 = 78
)

// Loader decodes WState buffers into a DataSet, resolving embedded
// object class indices against a class library and dispatching unknown
// class indices through the native package codec.
type Loader struct {
	classes *classlib.ClassLibrary
	ctx     nativepkg.DecodeContext
	logger  *gamelog.Helper
}

// NewLoader constructs a Loader. ctx supplies the property registry and
// enum lookup the native package codec's BaseProperty/Properties
// decoders need.
func NewLoader(classes *classlib.ClassLibrary, ctx nativepkg.DecodeContext, logger *gamelog.Helper) *Loader {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	return &Loader{classes: classes, ctx: ctx, logger: logger}
}

// DecodeWState decodes one WState buffer into a DataSet.
func (l *Loader) DecodeWState(buf []byte) (*DataSet, error) {
	r := binreader.New(buf)

	if err := r.Skip(8); err != nil { // {idx, class_def_idx}, both opaque here
		return nil, err
	}
	if err := l.readImports(r); err != nil {
		return nil, fmt.Errorf("wstate: reading imports: %w", err)
	}
	if _, err := r.VLE(); err != nil { // always_0_v1
		return nil, err
	}
	if _, err := r.VLE(); err != nil { // always_0_v2
		return nil, err
	}
	if _, err := r.Bool(); err != nil { // unknown_bool
		return nil, err
	}

	classChunkSz, err := r.U32()
	if err != nil {
		return nil, err
	}
	result := newDataSet()
	if classChunkSz > 0 {
		body, err := r.Bytes(int(classChunkSz))
		if err != nil {
			return nil, err
		}
		if err := l.readClassBundle(body, result); err != nil {
			return nil, fmt.Errorf("wstate: reading class bundle: %w", err)
		}
	}

	linksPresent, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if linksPresent {
		if err := l.readLinks(r); err != nil {
			return nil, fmt.Errorf("wstate: reading links: %w", err)
		}
	}

	lastPidsPresent, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if lastPidsPresent {
		count, err := r.TSize()
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < count; i++ {
			pid1, err := r.U32()
			if err != nil {
				return nil, err
			}
			pid2, err := r.U32()
			if err != nil {
				return nil, err
			}
			if pid1 != pid2 {
				return nil, fmt.Errorf("wstate: mismatched last-pid pair %d/%d", pid1, pid2)
			}
		}
	}

	if remaining := r.Len(); remaining > 0 {
		l.logger.Warnw("extra bytes at end of wstate buffer", "remaining", remaining)
	}
	return result, nil
}

// readImports validates each import's {dbo_type, did, c} triple against
// the two DBO types the client's own loader recognizes.
func (l *Loader) readImports(r *binreader.Reader) error {
	count, err := r.TSize()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		dboType, err := r.U32()
		if err != nil {
			return err
		}
		did, err := r.U32()
		if err != nil {
			return err
		}
		c, err := r.U8()
		if err != nil {
			return err
		}
		switch dboType {
		case dboTypeEntity:
			didHigh := did >> 24
			if didHigh != 112 && didHigh != 118 {
				l.logger.Warnw("wstate entity import has unexpected did", "did", did)
			}
			if c != 0 && c != 16 {
				l.logger.Warnw("wstate entity import has unexpected flag byte", "value", c)
			}
		case dboTypeAppearance:
			didHigh := did >> 24
			if didHigh != 32 {
				l.logger.Warnw("wstate appearance import has unexpected did", "did", did)
			}
			if c != 0 {
				l.logger.Warnw("wstate appearance import has unexpected flag byte", "value", c)
			}
		default:
			return fmt.Errorf("wstate: unhandled dbo type %d (did=%d)", dboType, did)
		}
	}
	return nil
}

// readLinks reads and discards the optional link table: the decoded
// graph never needs to traverse it, but its {props} sub-records must
// still be consumed to keep the cursor in sync with the rest of the
// buffer.
func (l *Loader) readLinks(r *binreader.Reader) error {
	count, err := r.U32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := r.Skip(13); err != nil { // {bool, u32, u32, u32}
			return err
		}
		propsCount, err := r.TSize()
		if err != nil {
			return err
		}
		for j := uint32(0); j < propsCount; j++ {
			pid1, err := r.U32()
			if err != nil {
				return err
			}
			pid2, err := r.U32()
			if err != nil {
				return err
			}
			if pid1 != pid2 {
				return fmt.Errorf("wstate: mismatched link property pair %d/%d", pid1, pid2)
			}
		}
		if err := r.Skip(1); err != nil {
			return err
		}
	}
	return nil
}

// readClassBundle decodes the class bundle: a list of reference
// handles, a run of locally-declared class shapes (validated structure
// only — the embedded values that follow resolve their class against
// the shared class library, not these local declarations), then one
// decoded value per reference handle.
func (l *Loader) readClassBundle(buf []byte, result *DataSet) error {
	r := binreader.New(buf)

	refsCount, err := r.VLE()
	if err != nil {
		return err
	}
	for i := uint32(0); i < refsCount; i++ {
		ref, err := r.U32()
		if err != nil {
			return err
		}
		result.addReference(ref)
	}

	classDefCount, err := r.U16()
	if err != nil {
		return err
	}
	for i := uint16(0); i < classDefCount; i++ {
		if _, err := r.U16(); err != nil { // class_idx
			return err
		}
		attrCount, err := r.U16()
		if err != nil {
			return err
		}
		for j := uint16(0); j < attrCount; j++ {
			if err := r.Skip(4); err != nil { // name_hash
				return err
			}
			if _, err := r.U8(); err != nil { // value_type
				return err
			}
		}
	}

	for i := uint32(0); i < refsCount; i++ {
		value, err := l.readDataItem(r)
		if err != nil {
			return err
		}
		result.addValue(value)
	}

	if remaining := r.Len(); remaining > 0 {
		l.logger.Warnw("extra bytes at end of wstate class bundle", "remaining", remaining)
	}
	return nil
}

// Inline-value markers: a data item is either one of these two raw
// scalars, or an embedded object introduced by a zero/0x10000000 marker.
const (
	markerInlineU64 uint32 = 134217728
	markerInlineU32 uint32 = 536870912
	markerEmbeddedA uint32 = 0
	markerEmbeddedB uint32 = 268435456
)

func (l *Loader) readDataItem(r *binreader.Reader) (interface{}, error) {
	if r.Len() < 4 {
		return nil, fmt.Errorf("wstate: cannot read data item marker, %d bytes remaining", r.Len())
	}
	marker, err := r.U32()
	if err != nil {
		return nil, err
	}
	switch marker {
	case markerInlineU64:
		return r.U64()
	case markerInlineU32:
		return r.U32()
	case markerEmbeddedA, markerEmbeddedB:
		return l.readEmbeddedData(r)
	default:
		return nil, fmt.Errorf("wstate: unmanaged data item marker %d", marker)
	}
}

func (l *Loader) readEmbeddedData(r *binreader.Reader) (interface{}, error) {
	classIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	if class, ok := l.classes.GetClass(classIdx); ok {
		return l.readClassInstance(r, class)
	}
	value, err := nativepkg.DecodeByClassIndex(r, classIdx, l.ctx)
	if err != nil {
		return nil, fmt.Errorf("wstate: class idx %d: %w", classIdx, err)
	}
	return value, nil
}

// readClassInstance decodes one fixed-layout attribute record: each
// attribute's raw type code picks a 4- or 8-byte field, matching the
// client's reduced ClassInstance attribute decode (it does not recurse
// into the native package codec — only REFERENCE/INTEGER/FLOAT/LONG-ish
// types appear here).
func (l *Loader) readClassInstance(r *binreader.Reader, class *classlib.ClassDef) (*ClassInstance, error) {
	inst := NewClassInstance(class)
	for _, attr := range class.Attrs {
		var value interface{}
		switch attr.Type {
		case 1, 2: // REFERENCE, INTEGER
			v, err := r.U32()
			if err != nil {
				return nil, err
			}
			value = v
		case 3: // FLOAT
			v, err := r.F32()
			if err != nil {
				return nil, err
			}
			value = v
		case 130, 131, 195: // LONG, UNUSED, TIMESTAMP
			lo, err := r.U32()
			if err != nil {
				return nil, err
			}
			hi, err := r.U32()
			if err != nil {
				return nil, err
			}
			value = uint64(hi)<<32 | uint64(lo)
		default:
			value = nil
		}
		inst.SetAttrVal(attr, value)
	}
	return inst, nil
}
