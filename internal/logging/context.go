package logging

import (
	"context"
	"log/slog"

	"mvstories/internal/storyerr"
)

// Structured field keys shared by every component.
const (
	FieldComponent     = "component"
	FieldStoryID       = "story_id" // library item or story folder
	FieldSceneID       = "scene_id"
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type" // story_compiled, scene_failed, ...
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
)

// ContextFields returns the story, scene and request identifiers carried by
// ctx as log attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	add := func(key string, value string, ok bool) {
		if ok && value != "" {
			fields = append(fields, slog.String(key, value))
		}
	}
	id, ok := storyerr.StoryIDFromContext(ctx)
	add(FieldStoryID, id, ok)
	id, ok = storyerr.SceneIDFromContext(ctx)
	add(FieldSceneID, id, ok)
	id, ok = storyerr.RequestIDFromContext(ctx)
	add(FieldCorrelationID, id, ok)
	return fields
}

// WithContext tags logger with the identifiers carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
