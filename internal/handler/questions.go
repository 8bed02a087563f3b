package handler

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/roach88/distill/internal/plan"
	"github.com/roach88/distill/internal/store"
	"github.com/roach88/distill/internal/vault"
)

// questionsHandler implements GENERATE_QUESTIONS: it reads an existing
// concept note and writes a companion file of reflection questions.
//
// The planner names the target concept in the task description, quoted:
// "Generate questions for 'Concept Name'". The concept note must already
// exist, which the plan guarantees by making every questions task depend
// on the note task that produces it.
type questionsHandler struct {
	d Deps
}

func (h *questionsHandler) Execute(ctx context.Context, t plan.Task) error {
	conceptName, err := quotedConcept(t.Description)
	if err != nil {
		return taskErr(t, err)
	}

	// Planner descriptions are free text; the registry holds the
	// canonical casing for a concept that already has a note. Slugs are
	// case-insensitive, so the resolved path is unchanged either way.
	if c, ok, err := h.d.Store.ConceptBySlug(ctx, vault.Slugify(conceptName)); err != nil {
		return taskErr(t, err)
	} else if ok {
		conceptName = c.DisplayName
	}

	notePath := h.d.Layout.ConceptPath(conceptName)
	noteContent, err := os.ReadFile(notePath)
	if err != nil {
		if h.d.Writer.DryRun && os.IsNotExist(err) {
			// The upstream note task suppressed its write; nothing to
			// read, and that is expected.
			h.d.Logger.Info("dry-run: concept note absent, skipping questions",
				"task", t.ID, "concept", conceptName)
			return nil
		}
		return taskErr(t, fmt.Errorf("concept note not found: %w", err))
	}

	questions, err := h.d.Renderer.RenderQuestions(ctx, conceptName, string(noteContent))
	if err != nil {
		return taskErr(t, err)
	}

	path := h.d.Layout.QuestionPath(conceptName)
	written, err := h.d.Writer.WriteIfChanged(ctx, path, store.ArtifactQuestion, questions)
	if err != nil {
		return taskErr(t, err)
	}

	h.d.Logger.Info("question note up to date",
		"task", t.ID, "path", path, "written", written)
	return nil
}

// quotedConcept extracts the single-quoted concept name from a task
// description.
func quotedConcept(desc string) (string, error) {
	first := strings.IndexByte(desc, '\'')
	if first >= 0 {
		if second := strings.IndexByte(desc[first+1:], '\''); second > 0 {
			return desc[first+1 : first+1+second], nil
		}
	}
	return "", fmt.Errorf("no quoted concept name in description %q", desc)
}
