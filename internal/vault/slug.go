// Package vault owns the Markdown output surface: slug derivation, the
// note path layout, prompt templates, renderers, and the idempotent
// artifact writer.
package vault

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxSlugLen caps slugs so derived filenames stay manageable.
const maxSlugLen = 64

// Slugify derives the stable concept identity from a display name.
//
// This must be a pure function: two tasks that resolve to the same name
// must converge on the same slug and therefore the same file. Input is
// NFC-normalized first so visually identical names with different
// Unicode compositions cannot fork into distinct slugs.
func Slugify(name string) string {
	s := norm.NFC.String(strings.ToLower(strings.TrimSpace(name)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	slug := strings.Join(fields, "-")

	if len(slug) > maxSlugLen {
		// Never cut mid-rune: the slug becomes a filename and must
		// stay valid UTF-8.
		cut := maxSlugLen
		for cut > 0 && !utf8.RuneStart(slug[cut]) {
			cut--
		}
		slug = strings.Trim(slug[:cut], "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}
