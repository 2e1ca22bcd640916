package strfmt

import (
	"strings"

	"github.com/ashenvale/charstate/internal/knownvars"
	"github.com/ashenvale/charstate/internal/registry"
)

// BuildFormat turns a decoded StringTableEntry into a render-ready format
// string: a plain run of text with "${name}" or "${name:opt1[tags]|...}"
// placeholders spliced in, grounded on StringFormatBuilder.format.
//
// The original builds this string by calling functions for their return
// value and discarding it (Python string concatenation via "+=" inside a
// helper does not mutate the caller's variable) — every placeholder that
// branch should have appended is silently dropped. Here the builder
// writes directly into the caller's strings.Builder instead, so every
// variable reference actually reaches the output.
func BuildFormat(entry *registry.StringTableEntry) string {
	if len(entry.LabelParts) == 0 {
		return ""
	}
	decodedParts := make([][]StringPart, len(entry.LabelParts))
	hasVar := false
	for i, part := range entry.LabelParts {
		decodedParts[i] = parseTemplate(part)
		for _, p := range decodedParts[i] {
			if _, ok := p.(VariablePart); ok {
				hasVar = true
			}
		}
	}
	if hasVar {
		return renderEntryWithVariables(entry, decodedParts)
	}
	return renderEntryWithoutVariables(entry)
}

// renderEntryWithoutVariables splices "${name}" between label parts using
// entry's variable list positionally — the label parts already come
// pre-split at each variable boundary (len(LabelParts) ==
// len(VariableIDs)+1), so no "#N:" markers appear in the text itself.
func renderEntryWithoutVariables(entry *registry.StringTableEntry) string {
	parts := entry.LabelParts
	var b strings.Builder
	b.WriteString(parts[0])
	for i := 1; i < len(parts); i++ {
		b.WriteString("${")
		b.WriteString(variableName(entry, i-1))
		b.WriteString("}")
		b.WriteString(parts[i])
	}
	return b.String()
}

// renderEntryWithVariables walks the parsed parts of every label part in
// order, binding each distinct "#N:" index to the next unbound variable
// name the first time that index is seen, grounded on
// StringFormatBuilder.__render_entry_with_variables/__build_index.
func renderEntryWithVariables(entry *registry.StringTableEntry, decodedParts [][]StringPart) string {
	names := buildVariableIndex(entry, decodedParts)
	var b strings.Builder
	for _, parts := range decodedParts {
		for _, part := range parts {
			switch p := part.(type) {
			case VariablePart:
				renderVariablePart(&b, names, p)
			case LiteralPart:
				b.WriteString(p.Value)
			}
		}
	}
	return b.String()
}

func buildVariableIndex(entry *registry.StringTableEntry, decodedParts [][]StringPart) map[int]string {
	names := make(map[int]string)
	position := 0
	for _, parts := range decodedParts {
		for _, part := range parts {
			vp, ok := part.(VariablePart)
			if !ok {
				continue
			}
			if _, seen := names[vp.Index]; seen {
				continue
			}
			names[vp.Index] = variableName(entry, position)
			position++
		}
	}
	return names
}

func renderVariablePart(b *strings.Builder, names map[int]string, vp VariablePart) {
	name := names[vp.Index]
	if len(vp.Options) > 0 {
		renderOptionsFormat(b, name, vp.Options)
		return
	}
	if vp.Index <= 0 {
		return
	}
	b.WriteString("${")
	b.WriteString(name)
	b.WriteString("}")
}

func renderOptionsFormat(b *strings.Builder, name string, options []OptionItem) {
	b.WriteString("${")
	b.WriteString(name)
	b.WriteString(":")
	for i, opt := range options {
		if i > 0 {
			b.WriteString("|")
		}
		b.WriteString(opt.Text)
		if len(opt.Tags) > 0 {
			b.WriteString("[")
			for j, t := range opt.Tags {
				if j > 0 {
					b.WriteString(",")
				}
				b.WriteString(t.name())
			}
			b.WriteString("]")
		}
	}
	b.WriteString("}")
}

// variableName prefers the resource's own declared name for the
// position'th variable (captured in entry.VariableNames when the
// resource carried one) over the static hash lookup — the original
// always uses the hash lookup and ignores the name list it otherwise
// fully decodes; since the name list, when present, is strictly more
// precise than the small static seed table, this prefers it.
func variableName(entry *registry.StringTableEntry, position int) string {
	if position < len(entry.VariableNames) && entry.VariableNames[position] != "" {
		return entry.VariableNames[position]
	}
	if position < len(entry.VariableIDs) {
		return knownvars.NameForHash(entry.VariableIDs[position])
	}
	return ""
}
