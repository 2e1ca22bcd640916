// Package strfmt renders a localized string-table template against a set
// of bound variables (§4.N). Templates go through two passes: a template
// built once per {table, token} pair from a registry.StringTableEntry
// (parser.go/builder.go), and a render pass against that session's actual
// variable values (renderer.go) producing the text a player would see.
//
// Grounded on original_source/backend/strings/{string_parser,
// string_format_builder, string_renderer}.py.
package strfmt

// Tag is one parsed option tag: a single-letter code plus whether it was
// negated with a leading '!' (e.g. "!M" matches when the value is not
// masculine).
type Tag struct {
	Code     byte
	Negative bool
}

// OptionItem is one '|'-separated alternative inside a variable's option
// list: display text plus the tags that must match for it to be chosen.
// Tags is nil for the tagless default option.
type OptionItem struct {
	Text string
	Tags []Tag
}

// StringPart is one piece of a parsed template: either LiteralPart or
// VariablePart.
type StringPart interface {
	isStringPart()
}

// LiteralPart is a run of template text with no variable reference in it.
type LiteralPart struct {
	Value string
}

func (LiteralPart) isStringPart() {}

// VariablePart is a "#N:..." reference: Index is the 1-based variable
// number, Options is nil for a plain "#N:" reference with no option list.
type VariablePart struct {
	Index   int
	Options []OptionItem
}

func (VariablePart) isStringPart() {}
