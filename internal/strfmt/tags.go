package strfmt

// tagAlphabet is the fixed set of single-letter option tags the template
// grammar recognizes (gender, number, class, and race codes), grounded on
// TagsManager.__load_tags. An unrecognized code is dropped rather than
// rejected, so a template referencing a tag this build doesn't know about
// degrades to having one fewer matching criterion instead of failing to
// parse.
var tagAlphabet = map[byte]struct{}{
	'1': {}, 'b': {}, 'B': {}, 'C': {}, 'D': {}, 'E': {}, 'f': {}, 'F': {},
	'G': {}, 'H': {}, 'I': {}, 'K': {}, 'L': {}, 'm': {}, 'M': {}, 'n': {},
	'N': {}, 'O': {}, 'p': {}, 'P': {}, 'R': {}, 'S': {}, 'T': {}, 'U': {},
	'v': {}, 'V': {}, 'W': {},
}

// parseTags turns a tag-spec string such as "M,!F" into its Tag list,
// grounded on StringParser.parse_tags: a leading '!' negates the code
// that follows it, ',' separates codes, and any code outside tagAlphabet
// is silently skipped.
func parseTags(tagStr string) []Tag {
	var tags []Tag
	negative := false
	for i := 0; i < len(tagStr); i++ {
		ch := tagStr[i]
		switch {
		case ch == ',':
			continue
		case ch == '!':
			negative = true
		default:
			if _, ok := tagAlphabet[ch]; ok {
				tags = append(tags, Tag{Code: ch, Negative: negative})
			}
			negative = false
		}
	}
	return tags
}

// name renders a Tag back to its "!X"/"X" template spelling.
func (t Tag) name() string {
	if t.Negative {
		return "!" + string(t.Code)
	}
	return string(t.Code)
}
