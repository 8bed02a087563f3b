package vault

import "path/filepath"

// Vault subdirectories.
const (
	conceptsDir  = "Concepts"
	questionsDir = "Questions"
	dailyDir     = "Daily"
)

// Layout maps logical artifacts to deterministic, slug-derived paths
// under one vault root.
type Layout struct {
	Root string
}

// ConceptPath returns <root>/Concepts/<slug>.md for a concept name.
func (l Layout) ConceptPath(conceptName string) string {
	return filepath.Join(l.Root, conceptsDir, Slugify(conceptName)+".md")
}

// QuestionPath returns <root>/Questions/<slug>.md for a concept name.
func (l Layout) QuestionPath(conceptName string) string {
	return filepath.Join(l.Root, questionsDir, Slugify(conceptName)+".md")
}

// DailyPath returns <root>/Daily/<day>.md.
func (l Layout) DailyPath(day string) string {
	return filepath.Join(l.Root, dailyDir, day+".md")
}

// StatePath returns the state database location inside the vault. One
// store per output destination keeps idempotency local to the vault it
// protects.
func (l Layout) StatePath() string {
	return filepath.Join(l.Root, ".distill", "state.db")
}
