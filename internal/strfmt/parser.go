package strfmt

import (
	"strconv"
	"strings"
)

// parseTemplate splits a raw template string into literal runs and
// variable references, grounded on StringParser.parse.
func parseTemplate(input string) []StringPart {
	var parts []StringPart
	index := 0
	for index < len(input) {
		vp, start, end, ok := parseVariableReference(input, index)
		if ok {
			if start > index {
				parts = append(parts, LiteralPart{Value: input[index:start]})
			}
			parts = append(parts, vp)
			index = end + 1
			continue
		}
		parts = append(parts, LiteralPart{Value: input[index:]})
		break
	}
	return parts
}

// parseVariableReference finds the next "#N:" reference at or after from,
// grounded on StringParser.parse_variable_reference. ok is false if no
// well-formed reference (a '#' followed eventually by ':' with a parseable
// integer between them) remains in input.
func parseVariableReference(input string, from int) (vp VariablePart, start, end int, ok bool) {
	sharp := strings.IndexByte(input[from:], '#')
	if sharp == -1 {
		return VariablePart{}, 0, 0, false
	}
	sharp += from

	colon := strings.IndexByte(input[sharp+1:], ':')
	if colon == -1 {
		return VariablePart{}, 0, 0, false
	}
	colon += sharp + 1

	number, err := strconv.Atoi(input[sharp+1 : colon])
	if err != nil {
		return VariablePart{}, 0, 0, false
	}

	endIndex := colon
	var options []OptionItem
	if open := strings.IndexByte(input[colon+1:], '{'); open != -1 {
		open += colon + 1
		if close := strings.IndexByte(input[open+1:], '}'); close != -1 {
			close += open + 1
			endIndex = close
			options = parseOptions(input[open+1 : close])
		}
	}
	return VariablePart{Index: number, Options: options}, sharp, endIndex, true
}

// parseOptions splits a "text1[tags]|text2[tags]|text3" option-list body
// on '|', grounded on StringParser.parse_options. An option segment with
// no bracket group keeps its whole text and a nil Tags (the tagless
// default option the renderer falls back to on an all-zero tie).
func parseOptions(optionsStr string) []OptionItem {
	segments := strings.Split(optionsStr, "|")
	items := make([]OptionItem, 0, len(segments))
	for _, seg := range segments {
		tagStr, hasTags := extractTagsStr(seg)
		if !hasTags {
			items = append(items, OptionItem{Text: seg})
			continue
		}
		open := strings.IndexByte(seg, '[')
		items = append(items, OptionItem{Text: seg[:open], Tags: parseTags(tagStr)})
	}
	return items
}

// extractTagsStr pulls the "tags" body out of a "text[tags]" segment,
// grounded on StringParser.extract_tags_str: it takes everything after
// the first '[' up to the segment's last character, which is exactly the
// tag body when (as the grammar guarantees) the segment ends in ']'.
func extractTagsStr(seg string) (string, bool) {
	open := strings.IndexByte(seg, '[')
	if open == -1 {
		return "", false
	}
	if open+1 > len(seg)-1 {
		return "", true
	}
	return seg[open+1 : len(seg)-1], true
}
