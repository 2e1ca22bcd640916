package wstate

import "github.com/ashenvale/charstate/internal/classlib"

// ClassInstance is an embedded value whose class index matched a class
// declared in the class library: one attribute value per AttributeDef,
// decoded according to the attribute's own raw type code rather than
// dispatched through the native package codec.
type ClassInstance struct {
	Class *classlib.ClassDef
	attrs map[*classlib.AttributeDef]interface{}
}

// NewClassInstance builds an empty instance of class, ready for
// SetAttrVal calls. Exported so other decoders that assemble a class
// instance from a different wire form (the reference table's WSL
// decode path, reading attributes directly out of live memory rather
// than a WState byte stream) can reuse this type instead of defining
// their own.
func NewClassInstance(class *classlib.ClassDef) *ClassInstance {
	return &ClassInstance{Class: class, attrs: make(map[*classlib.AttributeDef]interface{})}
}

func (c *ClassInstance) SetAttrVal(attr *classlib.AttributeDef, v interface{}) {
	c.attrs[attr] = v
}

// GetAttrVal returns the value stored for attr directly, without a name
// lookup. Used by the reference resolver, which already has the
// AttributeDef in hand while walking a class's declared attributes.
func (c *ClassInstance) GetAttrVal(attr *classlib.AttributeDef) (interface{}, bool) {
	v, ok := c.attrs[attr]
	return v, ok
}

// Get returns the decoded value for the named attribute, walking up the
// class's parent chain the way the original's attribute list (assembled
// from the whole inheritance chain) does.
func (c *ClassInstance) Get(name string) (interface{}, bool) {
	for class := c.Class; class != nil; class = class.Parent {
		if attr, ok := class.AttrByName(name); ok {
			v, ok := c.attrs[attr]
			return v, ok
		}
	}
	return nil, false
}
