// Package propval implements the client's property system: the 22-tag
// PropertyType set, property definitions and values, and the two-entry
// PropertyValueCodec (decode from a byte stream, decode from live
// process memory).
package propval

import "fmt"

// PropertyType is the closed 22-value set a property's definition
// declares. Numeric values match the client's own encoding so inline
// type bytes in a byte stream decode directly into a PropertyType.
type PropertyType uint8

const (
	Undef PropertyType = iota
	String
	StringToken
	Waveform
	TimeStamp
	TriState
	Vector
	InstanceID
	EnumMapper
	Float
	PropertyID
	Struct
	Array
	StringInfoType
	Bitfield64
	Int
	Color
	Position
	Bitfield32
	Int64
	DataFile
	Bool
	Bitfield
)

var typeNames = map[PropertyType]string{
	Undef: "Undef", String: "String", StringToken: "StringToken",
	Waveform: "Waveform", TimeStamp: "TimeStamp", TriState: "TriState",
	Vector: "Vector", InstanceID: "InstanceID", EnumMapper: "EnumMapper",
	Float: "Float", PropertyID: "PropertyID", Struct: "Struct",
	Array: "Array", StringInfoType: "StringInfo", Bitfield64: "Bitfield64",
	Int: "Int", Color: "Color", Position: "Position", Bitfield32: "Bitfield32",
	Int64: "Int64", DataFile: "DataFile", Bool: "Bool", Bitfield: "Bitfield",
}

func (t PropertyType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("PropertyType(%d)", uint8(t))
}

// PropertyDef is a registry entry: a property's id, name, declared type,
// and (for enum/bitfield types) the enum DID carried in Data.
type PropertyDef struct {
	PID        uint32
	Name       string
	Type       PropertyType
	Data       uint32
	MinVal     interface{}
	MaxVal     interface{}
	DefVal     interface{}
	ChildProps []*PropertyDef
}

// HasChildProp reports whether pid is among this definition's children.
func (d *PropertyDef) HasChildProp(pid uint32) bool {
	for _, c := range d.ChildProps {
		if c.PID == pid {
			return true
		}
	}
	return false
}

// PropertyValue pairs a decoded value with the definition it came from
// and, for enum/bitfield types, a rendered complement string (the
// joined label(s) the raw value maps to).
type PropertyValue struct {
	Def        *PropertyDef
	Value      interface{}
	Complement string
}

// PropertySet is a name-keyed bag of decoded property values, the
// client's "Properties" record.
type PropertySet struct {
	props map[string]*PropertyValue
}

func NewPropertySet() *PropertySet {
	return &PropertySet{props: make(map[string]*PropertyValue)}
}

func (p *PropertySet) Set(pv *PropertyValue) {
	if pv == nil || pv.Def == nil {
		return
	}
	p.props[pv.Def.Name] = pv
}

func (p *PropertySet) Has(name string) bool {
	_, ok := p.props[name]
	return ok
}

func (p *PropertySet) Get(name string) (interface{}, bool) {
	pv, ok := p.props[name]
	if !ok {
		return nil, false
	}
	return pv.Value, true
}

func (p *PropertySet) GetValue(name string) (*PropertyValue, bool) {
	pv, ok := p.props[name]
	return pv, ok
}

func (p *PropertySet) Len() int { return len(p.props) }

// Registry resolves a property id to its definition. PropertyRegistry
// satisfies this.
type Registry interface {
	GetPropertyDef(pid uint32) (*PropertyDef, bool)
}

// EnumMapper resolves an enum/bitfield raw index to its label.
type EnumMapper interface {
	GetStr(index int) (string, bool)
}

// EnumLookup resolves an enum DID to its mapper. EnumRegistry satisfies
// this.
type EnumLookup interface {
	GetEnumMapper(did uint32) (EnumMapper, bool)
}

// StringInfo is the decoded form of a StringInfo property: either an
// inline literal, or a table/token reference plus optional variables
// bound at decode time.
type StringInfo struct {
	IsLiteral bool
	Literal   string
	TableDID  uint32
	Token     uint32
	// Variables binds a variable name to its override value: uint32 for
	// an Integer variable, float32 for a Float variable, or a nested
	// *StringInfo for a String variable.
	Variables map[string]interface{}
}
