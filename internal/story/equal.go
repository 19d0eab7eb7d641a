package story

import (
	"bytes"
	"reflect"
)

// Equal reports whether a and b are structurally equal: same metadata, global
// script, scenes in the same order with the same fields, and assets with
// byte-identical content. Numeric metadata values compare by value, so a
// story that passed through a codec with a different integer width still
// compares equal.
func Equal(a, b Story) bool {
	if a.JavaScript != b.JavaScript {
		return false
	}
	if !reflect.DeepEqual(normalizeValue(map[string]any(a.Metadata)), normalizeValue(map[string]any(b.Metadata))) {
		return false
	}
	if len(a.Scenes) != len(b.Scenes) || len(a.Assets) != len(b.Assets) {
		return false
	}
	for i := range a.Scenes {
		if !sceneEqual(a.Scenes[i], b.Scenes[i]) {
			return false
		}
	}
	for i := range a.Assets {
		if a.Assets[i].Name != b.Assets[i].Name || !bytes.Equal(a.Assets[i].Content, b.Assets[i].Content) {
			return false
		}
	}
	return true
}

func sceneEqual(a, b Scene) bool {
	if a.ID != b.ID || a.Header != b.Header || a.Key != b.Key ||
		a.Description != b.Description || a.JavaScript != b.JavaScript ||
		a.LingerDurationMs != b.LingerDurationMs || a.TransitionDurationMs != b.TransitionDurationMs {
		return false
	}
	if (a.Camera == nil) != (b.Camera == nil) {
		return false
	}
	return a.Camera == nil || *a.Camera == *b.Camera
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if len(val) == 0 {
			return map[string]any{}
		}
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeValue(inner)
		}
		return out
	case Metadata:
		return normalizeValue(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = inner
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}
