package strfmt

import "strings"

// VariableValueProvider supplies the actual value bound to a named
// variable at render time (the player's name, class, current/max stat
// pair, and so on) — an internal/session.ClientData or entity property
// set, through a small adapter, grounded on VariableValueProvider in
// string_info_utils.py.
type VariableValueProvider interface {
	GetVariable(name string) (string, bool)
}

// Render evaluates a format string produced by BuildFormat against
// provider, substituting every "${name}"/"${name:opt1[tags]|...}"
// placeholder, grounded on StringRenderer.render.
func Render(format string, provider VariableValueProvider) string {
	var b strings.Builder
	index := 0
	for index < len(format) {
		rel := strings.Index(format[index:], "${")
		if rel == -1 {
			b.WriteString(format[index:])
			return b.String()
		}
		start := index + rel
		b.WriteString(format[index:start])

		relEnd := strings.IndexByte(format[start+2:], '}')
		if relEnd == -1 {
			b.WriteString(format[start:])
			return b.String()
		}
		end := start + 2 + relEnd

		renderVariable(&b, format[start+2:end], provider)
		index = end + 1
	}
	return b.String()
}

func renderVariable(b *strings.Builder, body string, provider VariableValueProvider) {
	colon := strings.IndexByte(body, ':')
	if colon == -1 {
		if v, ok := provider.GetVariable(body); ok && v != "" {
			b.WriteString(v)
		} else {
			b.WriteString(body)
		}
		return
	}
	name := body[:colon]
	value, _ := provider.GetVariable(name)
	options := parseOptions(body[colon+1:])
	if opt, ok := chooseOption(options, value); ok {
		b.WriteString(opt.Text)
	}
}

// chooseOption picks the best-matching option for value, grounded on
// StringRenderer.__choose_option: a later option ties and overtakes an
// earlier one with the same score (">=", not ">"), and the last tagless
// option in the list is the fallback once every option scores zero —
// this is the spec's StringFormatter tie-break decision.
func chooseOption(options []OptionItem, value string) (OptionItem, bool) {
	tagsStr, hasTags := extractTagsStr(value)

	max := 0
	var chosen OptionItem
	found := false
	var defaultOption OptionItem
	hasDefault := false

	for _, opt := range options {
		n := countCommonTags(opt, value, tagsStr, hasTags)
		if n >= max {
			chosen = opt
			max = n
			found = true
		}
		if opt.Tags == nil {
			defaultOption = opt
			hasDefault = true
		}
	}
	if max == 0 && hasDefault {
		return defaultOption, true
	}
	return chosen, found
}

// countCommonTags scores one option's tags against value, grounded on
// StringRenderer.__count_common_tags: the 'E' tag matches a nonempty
// value directly, every other tag is looked up in value's own bracketed
// tag string (if it has one), negated tags score on absence instead.
func countCommonTags(opt OptionItem, value, tagsStr string, hasTags bool) int {
	if opt.Tags == nil {
		return 0
	}
	n := 0
	for _, tag := range opt.Tags {
		if tag.Code == 'E' {
			if len(value) > 0 {
				n++
			}
			continue
		}
		idx := -1
		if hasTags {
			idx = strings.IndexByte(tagsStr, tag.Code)
		}
		if tag.Negative {
			if idx == -1 {
				n++
			}
		} else if idx != -1 {
			n++
		}
	}
	return n
}
