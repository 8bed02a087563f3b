package vault

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/distill/internal/event"
	"github.com/roach88/distill/internal/llm"
)

// Structured output shapes requested from the model.
type conceptOut struct {
	Concept string `json:"concept"`
}

type questionsOut struct {
	QuestionsMarkdown string `json:"questions_markdown"`
}

type markdownOut struct {
	Content string `json:"content"`
}

// Renderer turns events and note bodies into Markdown through the model.
// All methods propagate provider errors unchanged so the caller's retry
// and failure policy applies.
type Renderer struct {
	client llm.Client
}

// NewRenderer creates a Renderer over the given provider client.
func NewRenderer(client llm.Client) *Renderer {
	return &Renderer{client: client}
}

// ExtractConcept asks the model for the single concept name a text is
// about.
func (r *Renderer) ExtractConcept(ctx context.Context, text string) (string, error) {
	var out conceptOut
	if err := r.client.Generate(ctx, extractConceptSystem, extractConceptUser(text), &out); err != nil {
		return "", fmt.Errorf("extract concept: %w", err)
	}
	name := strings.TrimSpace(strings.ReplaceAll(out.Concept, `"`, ""))
	if name == "" {
		return "", fmt.Errorf("extract concept: model returned empty name")
	}
	return name, nil
}

// RenderConceptNote generates a concept note, or merges new content into
// an existing note body when one is supplied. existingTitles constrains
// which [[WikiLinks]] the model may emit.
func (r *Renderer) RenderConceptNote(ctx context.Context, text string, existingTitles []string, existingNote string) (string, error) {
	user := renderNoteCreateUser(text, existingTitles)
	if existingNote != "" {
		user = renderNoteMergeUser(existingNote, text, existingTitles)
	}

	var out markdownOut
	if err := r.client.Generate(ctx, renderNoteSystem, user, &out); err != nil {
		return "", fmt.Errorf("render concept note: %w", err)
	}
	if strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("render concept note: model returned empty content")
	}
	return out.Content, nil
}

// RenderQuestions generates the reflection-questions companion for a
// concept note.
func (r *Renderer) RenderQuestions(ctx context.Context, conceptName, noteContent string) (string, error) {
	var out questionsOut
	err := r.client.Generate(ctx, generateQuestionsSystem, generateQuestionsUser(conceptName, noteContent), &out)
	if err != nil {
		return "", fmt.Errorf("render questions: %w", err)
	}
	if strings.TrimSpace(out.QuestionsMarkdown) == "" {
		return "", fmt.Errorf("render questions: model returned empty content")
	}
	return out.QuestionsMarkdown, nil
}

// RenderDailyNote assembles the daily note: frontmatter, a model-written
// summary, the raw timeline, page links, and captured audio snippets.
// A failed summary degrades to a placeholder rather than failing the
// note; the timeline and links are still worth writing.
func (r *Renderer) RenderDailyNote(ctx context.Context, day string, events []event.Event) (string, error) {
	timeline := event.Timeline(events)

	summary := "*(Summary generation failed)*"
	var out markdownOut
	if err := r.client.Generate(ctx, renderDailySystem, renderDailyUser(day, timeline), &out); err != nil {
		if llm.IsTransient(err) {
			return "", fmt.Errorf("render daily summary: %w", err)
		}
	} else if strings.TrimSpace(out.Content) != "" {
		summary = out.Content
	}

	var b strings.Builder
	fmt.Fprintf(&b, "---\ndate: %s\nevents: %d\n---\n\n", day, len(events))
	b.WriteString("## Summary\n\n")
	b.WriteString(summary)
	b.WriteString("\n\n## Timeline\n\n")
	b.WriteString(timeline)
	b.WriteString("\n\n## Pages\n\n")
	for _, ref := range pageRefs(events) {
		fmt.Fprintf(&b, "- [[%s]]\n", ref)
	}
	b.WriteString("\n## Captured audio\n\n")
	for _, snip := range audioSnippets(events) {
		fmt.Fprintf(&b, "- %s\n", snip)
	}
	return b.String(), nil
}

// pageRefs returns page titles from page-text events, first occurrence
// per URL.
func pageRefs(events []event.Event) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ev := range events {
		if ev.Type != event.TypePageText || ev.URL == "" {
			continue
		}
		if _, dup := seen[ev.URL]; dup {
			continue
		}
		seen[ev.URL] = struct{}{}
		title := ev.MetaString("title")
		if title == "" {
			title = ev.URL
		}
		out = append(out, title)
	}
	return out
}

// audioSnippets returns non-empty transcript texts from audio events.
func audioSnippets(events []event.Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Type != event.TypeAudio {
			continue
		}
		if txt := strings.TrimSpace(ev.MetaString("transcript_text")); txt != "" {
			out = append(out, txt)
		}
	}
	return out
}
