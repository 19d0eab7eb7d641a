package storyerr

import "context"

// ctxKey identifies one of the string annotations below.
type ctxKey int

const (
	requestIDKey ctxKey = iota
	storyIDKey
	sceneIDKey
)

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func value(ctx context.Context, key ctxKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithRequestID annotates ctx with the HTTP request's correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) { return value(ctx, requestIDKey) }

// WithStoryID annotates ctx with the library item or story folder in use.
func WithStoryID(ctx context.Context, id string) context.Context {
	return withValue(ctx, storyIDKey, id)
}

func StoryIDFromContext(ctx context.Context) (string, bool) { return value(ctx, storyIDKey) }

// WithSceneID annotates ctx with the scene being compiled.
func WithSceneID(ctx context.Context, id string) context.Context {
	return withValue(ctx, sceneIDKey, id)
}

func SceneIDFromContext(ctx context.Context) (string, bool) { return value(ctx, sceneIDKey) }
