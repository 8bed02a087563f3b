package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/distill/internal/event"
	"github.com/roach88/distill/internal/plan"
	"github.com/roach88/distill/internal/store"
	"github.com/roach88/distill/internal/vault"
)

// timestampWidth matches the second-precision timestamps used elsewhere.
const timestampWidth = 19

// noteHandler implements CREATE_OR_UPDATE_NOTE: it gathers the source
// text for the task's events, extracts a concept name, renders (or
// merges) the concept note, and upserts the concept registry row.
type noteHandler struct {
	d Deps
}

func (h *noteHandler) Execute(ctx context.Context, t plan.Task) error {
	taskEvents := event.ByID(h.d.Events, t.RelatedEventIDs)
	if len(taskEvents) == 0 {
		// Missing source material is a configuration problem, not a
		// flaky provider: fail without retry.
		return taskErr(t, fmt.Errorf("no events resolved for task"))
	}

	fullText, err := h.collectText(taskEvents)
	if err != nil {
		return taskErr(t, err)
	}
	if strings.TrimSpace(fullText) == "" {
		return taskErr(t, fmt.Errorf("no source text for referenced events"))
	}

	conceptName, err := h.d.Renderer.ExtractConcept(ctx, fullText)
	if err != nil {
		return taskErr(t, err)
	}
	h.d.Logger.Info("extracted concept", "task", t.ID, "concept", conceptName)

	path := h.d.Layout.ConceptPath(conceptName)
	existing := readIfExists(path)

	titles, err := h.d.Store.ConceptTitles(ctx)
	if err != nil {
		return taskErr(t, err)
	}

	content, err := h.d.Renderer.RenderConceptNote(ctx, fullText, titles, existing)
	if err != nil {
		return taskErr(t, err)
	}

	written, err := h.d.Writer.WriteIfChanged(ctx, path, store.ArtifactConcept, content)
	if err != nil {
		return taskErr(t, err)
	}

	if h.d.Writer.DryRun {
		return nil
	}

	lastTS := taskEvents[len(taskEvents)-1].Timestamp
	if len(lastTS) > timestampWidth {
		lastTS = lastTS[:timestampWidth]
	}
	err = h.d.Store.UpsertConcept(ctx, store.Concept{
		Slug:        vault.Slugify(conceptName),
		DisplayName: conceptName,
		ContentSHA:  vault.ContentSHA(content),
		LastSeenTS:  lastTS,
	})
	if err != nil {
		return taskErr(t, err)
	}

	h.d.Logger.Info("concept note up to date",
		"task", t.ID, "path", path, "written", written)
	return nil
}

// collectText assembles the source text for a note from the events'
// captured page bodies. Events without a text payload are skipped; a
// referenced payload file that has vanished is logged, not fatal, as
// long as some text remains.
func (h *noteHandler) collectText(events []event.Event) (string, error) {
	var b strings.Builder
	for _, ev := range events {
		textPath := ev.MetaString("text_path")
		if textPath == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(h.d.DataDir, textPath))
		if err != nil {
			h.d.Logger.Warn("content file unreadable",
				"event", ev.ID, "path", textPath, "error", err)
			continue
		}
		fmt.Fprintf(&b, "\n\n---\n\nURL: %s\nTitle: %s\n\n", ev.URL, ev.MetaString("title"))
		b.Write(data)
	}
	return b.String(), nil
}

// readIfExists returns the file's content, or "" when absent.
func readIfExists(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
