package reftable

import (
	"context"

	"github.com/ashenvale/charstate/internal/classlib"
	"github.com/ashenvale/charstate/internal/wstate"
)

// Attribute raw type codes (classlib.AttributeDef.Type), per §4.G.
const (
	attrTypeReference = 1
	attrTypeInteger   = 2
	attrTypeFloat     = 3
	attrTypeLong      = 130
	attrTypeUnused    = 131
	attrTypeTimestamp = 195
)

// decodeClassInstance reads a WSL class instance: package_id names the
// class, then each of the class's attributes (sorted_attributes, by wire
// index) is read sequentially from wsl_package_ptr, each followed by a
// trailing type-code word the client writes for self-validation.
//
// wsl_decoder.py's per-attribute reader takes offset as a plain argument
// and never threads the advanced value back to its caller's loop, so
// every attribute in that source ends up read from offset 0 — clearly a
// bug, since a sequential attribute layout is the only thing that
// explains this type-code-after-every-field wire shape. The offset is
// threaded through correctly here instead.
func (c *Controller) decodeClassInstance(ctx context.Context, packageFactoryInfoPtr, wslPackagePtr uint64) (*wstate.ClassInstance, error) {
	packageID, err := c.mem.ReadU32(ctx, packageFactoryInfoPtr)
	if err != nil {
		return nil, err
	}
	if packageID == 0 {
		return nil, nil
	}
	class, ok := c.classes.GetClass(uint16(packageID))
	if !ok {
		return nil, nil
	}
	inst := wstate.NewClassInstance(class)
	var offset uint64
	for _, attr := range class.SortedAttrs() {
		value, consumed, err := c.readWSLValue(ctx, attr, wslPackagePtr, offset)
		if err != nil {
			return nil, err
		}
		inst.SetAttrVal(attr, value)
		offset += consumed
	}
	return inst, nil
}

// readWSLValue reads one attribute's value at wslPackagePtr+offset and
// returns how many bytes it (plus its trailing type-code word) consumed.
func (c *Controller) readWSLValue(ctx context.Context, attr *classlib.AttributeDef, base, offset uint64) (interface{}, uint64, error) {
	var value interface{}
	var consumed uint64

	switch attr.Type {
	case attrTypeReference, attrTypeInteger:
		v, err := c.mem.ReadU32(ctx, base+offset)
		if err != nil {
			return nil, 0, err
		}
		value = v
		consumed = 4
	case attrTypeFloat:
		v, err := c.mem.ReadF32(ctx, base+offset)
		if err != nil {
			return nil, 0, err
		}
		value = v
		consumed = 4
	case attrTypeLong, attrTypeUnused, attrTypeTimestamp:
		lo, err := c.mem.ReadU32(ctx, base+offset)
		if err != nil {
			return nil, 0, err
		}
		// A mid-value type-code word separates the two 32-bit halves.
		if _, err := c.mem.ReadU32(ctx, base+offset+4); err != nil {
			return nil, 0, err
		}
		hi, err := c.mem.ReadU32(ctx, base+offset+8)
		if err != nil {
			return nil, 0, err
		}
		value = uint64(hi)<<32 | uint64(lo)
		consumed = 12
	default:
		c.logger.Warnw("wsl attribute has unsupported type code", "type", attr.Type, "attribute", attr.Name)
		consumed = 4
	}

	// Trailing type-code word, present after every attribute regardless
	// of its own type.
	if _, err := c.mem.ReadU32(ctx, base+offset+consumed); err != nil {
		return nil, 0, err
	}
	consumed += 4

	return value, consumed, nil
}
