package handler

import (
	"context"
	"fmt"

	"github.com/roach88/distill/internal/event"
	"github.com/roach88/distill/internal/plan"
	"github.com/roach88/distill/internal/store"
)

// dailyHandler implements GENERATE_DAILY_NOTE: one summary note per day,
// assembled from the day's full event set rather than from
// related_event_ids, since the daily note is a digest of everything.
type dailyHandler struct {
	d Deps
}

func (h *dailyHandler) Execute(ctx context.Context, t plan.Task) error {
	day := h.d.Day
	if day == "" {
		return taskErr(t, fmt.Errorf("no target day for daily note"))
	}

	events := h.d.Events
	if len(t.RelatedEventIDs) > 0 {
		events = event.ByID(h.d.Events, t.RelatedEventIDs)
	}
	if len(events) == 0 {
		return taskErr(t, fmt.Errorf("no events for day %s", day))
	}

	content, err := h.d.Renderer.RenderDailyNote(ctx, day, events)
	if err != nil {
		return taskErr(t, err)
	}

	path := h.d.Layout.DailyPath(day)
	written, err := h.d.Writer.WriteIfChanged(ctx, path, store.ArtifactDaily, content)
	if err != nil {
		return taskErr(t, err)
	}

	h.d.Logger.Info("daily note up to date",
		"task", t.ID, "path", path, "written", written)
	return nil
}
