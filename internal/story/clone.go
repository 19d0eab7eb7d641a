package story

// Clone returns a deep copy of the story. Scene cameras, metadata containers,
// and asset buffers are all reallocated.
func (s Story) Clone() Story {
	out := Story{
		Metadata:   s.Metadata.Clone(),
		JavaScript: s.JavaScript,
	}
	if s.Scenes != nil {
		out.Scenes = make([]Scene, len(s.Scenes))
		for i, scene := range s.Scenes {
			out.Scenes[i] = scene.Clone()
		}
	}
	if s.Assets != nil {
		out.Assets = make([]Asset, len(s.Assets))
		for i, asset := range s.Assets {
			out.Assets[i] = asset.Clone()
		}
	}
	return out
}

// Clone returns a copy of the scene with its own camera.
func (sc Scene) Clone() Scene {
	out := sc
	if sc.Camera != nil {
		cam := *sc.Camera
		out.Camera = &cam
	}
	return out
}

// Clone returns a copy of the asset with its own content buffer.
func (a Asset) Clone() Asset {
	out := Asset{Name: a.Name}
	if a.Content != nil {
		out.Content = make([]byte, len(a.Content))
		copy(out.Content, a.Content)
	}
	return out
}

// Clone deep-copies the metadata map including nested maps and slices.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Metadata:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
