package board

import (
	"strings"
	"unicode"
)

// slugSeparators are split points in addition to whitespace.
const slugSeparators = "!?.,@:;|\\/\"'`£$%^&*{}[]()<>~#+-=_¬"

// Slugify derives a task identifier from a display name. Each run of ASCII
// capitals, together with the character that follows it, is lower-cased and
// prefixed with a hyphen unless it starts the name. The result is split on
// whitespace and separator symbols and the fragments are joined with single
// hyphens, so "Setup FastAPI Project" becomes "setup-fast-api-project".
//
// The result may be empty; callers must reject an empty identifier.
func Slugify(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 8)

	for i := 0; i < len(runes); {
		if !isASCIIUpper(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isASCIIUpper(runes[j]) {
			j++
		}
		if j < len(runes) && runes[j] != '\n' {
			j++
		}
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strings.ToLower(string(runes[i:j])))
		i = j
	}

	fragments := strings.FieldsFunc(b.String(), isSlugSeparator)
	return strings.Trim(strings.Join(fragments, "-"), "-")
}

// ValidateID reports whether id can name a task file.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return ErrInvalidIdentifier
	case id == "." || id == "..":
		return ErrInvalidIdentifier
	case strings.ContainsAny(id, "/\\\x00"):
		return ErrInvalidIdentifier
	}
	return nil
}

func isASCIIUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isSlugSeparator(r rune) bool {
	if unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f) {
		return true
	}
	return strings.ContainsRune(slugSeparators, r)
}
