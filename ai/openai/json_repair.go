package openai

import "strings"

// repairJSON fixes the one malformation small local models produce often
// enough to matter: a key missing its opening quote, e.g. `{is_acronym": true}`.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		ch := runes[i]
		b.WriteRune(ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		// Skip whitespace after { or ,
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
			b.WriteRune(runes[i])
			i++
		}
		if i >= len(runes) || runes[i] == '"' || !isIdentRune(runes[i]) {
			continue
		}

		// Collect a bare identifier and check whether it ends with ": which
		// marks a key whose opening quote was dropped.
		start := i
		for i < len(runes) && isIdentRune(runes[i]) {
			i++
		}
		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			b.WriteRune('"')
		}
		b.WriteString(string(runes[start:i]))
	}

	return b.String()
}

func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}
