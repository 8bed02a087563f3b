package vault

import (
	"fmt"
	"strings"
)

// Prompt templates for the note workflows. The planner's own prompt
// lives with the plan builder.

const extractConceptSystem = `You synthesize information. From the user's text (things they've read), extract one concise concept name (2-5 words) that represents the core theme.
Respond with a JSON object: {"concept": "<name>"}.`

func extractConceptUser(text string) string {
	return "Here is the text to analyze:\n\n" + text
}

const generateQuestionsSystem = `You are a research assistant. From the given concept and note, generate 3-5 open-ended questions to deepen understanding, consider alternatives, or plan next steps.
Respond with a JSON object: {"questions_markdown": "<markdown list of questions>"}.`

func generateQuestionsUser(conceptName, text string) string {
	return fmt.Sprintf("CONCEPT: %s\n\nTEXT:\n%s", conceptName, text)
}

const renderNoteSystem = `You create Obsidian Markdown notes from web content. Output well-structured Markdown only. Use [[WikiLinks]] for key concepts. The output is saved directly to a file.
Respond with a JSON object: {"content": "<markdown>"}.`

const renderDailySystem = `You summarize a day from an event timeline. Be concise and actionable.
Output Markdown only. Use [[WikiLinks]] for page titles when listing notable pages.
Respond with a JSON object: {"content": "<markdown>"}.`

func renderNoteCreateUser(text string, existingTitles []string) string {
	return fmt.Sprintf(`Create a well-structured note from this content.

CONTENT:
---
%s
---

EXISTING CONCEPT NOTES:
- %s

1. H1 title.
2. Short summary (2-4 bullets).
3. Key points as bullets.
4. "Related" section: 3-7 [[WikiLinks]] ONLY from EXISTING CONCEPT NOTES above.
5. "Tags" section: 5-12 tags (#example).`, text, strings.Join(existingTitles, "\n- "))
}

func renderNoteMergeUser(existing, text string, existingTitles []string) string {
	return fmt.Sprintf(`Merge the new information into the existing note.

EXISTING NOTE:
---
%s
---

NEW CONTENT:
---
%s
---

EXISTING CONCEPT NOTES:
- %s

1. Integrate new info into the note (rewrite sections, add bullets). Keep one coherent document. Preserve H1 if present.
2. Update "Related" with [[links]] ONLY from EXISTING CONCEPT NOTES above.
3. Update "Tags".
4. Output the full Markdown note.`, existing, text, strings.Join(existingTitles, "\n- "))
}

func renderDailyUser(day, timeline string) string {
	return fmt.Sprintf(`DAY: %s
EVENTS:
%s

Write: 5-10 bullet summary, 3 priorities/follow-ups, notable links as [[Page notes]].`, day, timeline)
}
