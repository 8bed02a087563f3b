package vault

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Goroutines", "goroutines"},
		{"spaces", "Structured Logging", "structured-logging"},
		{"hyphens collapse", "Actor -- Model", "actor-model"},
		{"punctuation stripped", "What is CRDT? (part 2)", "what-is-crdt-part-2"},
		{"underscore kept", "snake_case_name", "snake_case_name"},
		{"leading and trailing space", "  Raft  ", "raft"},
		{"unicode letters kept", "Café Économie", "café-économie"},
		{"empty", "", "untitled"},
		{"only punctuation", "!!!", "untitled"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestSlugify_NFCNormalization(t *testing.T) {
	// "é" precomposed vs "e" + combining acute: must converge.
	composed := "café"
	decomposed := "café"
	assert.Equal(t, Slugify(composed), Slugify(decomposed))
}

func TestSlugify_LengthCapped(t *testing.T) {
	long := strings.Repeat("word ", 40)
	slug := Slugify(long)
	assert.LessOrEqual(t, len(slug), maxSlugLen)
	assert.NotEqual(t, "-", slug[len(slug)-1:], "no trailing hyphen after truncation")

	// Multibyte input: the byte cap must land on a rune boundary so the
	// derived filename stays valid UTF-8.
	cjk := Slugify(strings.Repeat("世", 30))
	assert.True(t, utf8.ValidString(cjk))
	assert.LessOrEqual(t, len(cjk), maxSlugLen)
	assert.NotEmpty(t, cjk)
}

func TestSlugify_Deterministic(t *testing.T) {
	a := Slugify("Distributed Consensus")
	b := Slugify("Distributed Consensus")
	assert.Equal(t, a, b)
}

func TestLayout_Paths(t *testing.T) {
	l := Layout{Root: "/vault"}

	assert.Equal(t, "/vault/Concepts/structured-logging.md", l.ConceptPath("Structured Logging"))
	assert.Equal(t, "/vault/Questions/structured-logging.md", l.QuestionPath("Structured Logging"))
	assert.Equal(t, "/vault/Daily/2026-08-12.md", l.DailyPath("2026-08-12"))
	assert.Equal(t, "/vault/.distill/state.db", l.StatePath())
}
