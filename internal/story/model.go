package story

import "strings"

// Default values for newly created stories and scenes.
const (
	DefaultStoryTitle  = "New Story"
	DefaultSceneHeader = "New Scene"
)

// Vec3 is a point or direction in model space.
type Vec3 [3]float64

// Camera describes an explicit viewpoint for a scene.
type Camera struct {
	Mode     string  `json:"mode" msgpack:"mode"`
	Target   Vec3    `json:"target" msgpack:"target"`
	Position Vec3    `json:"position" msgpack:"position"`
	Up       Vec3    `json:"up" msgpack:"up"`
	FOV      float64 `json:"fov" msgpack:"fov"`
}

// Orthographic reports whether the camera uses an orthographic projection.
func (c Camera) Orthographic() bool {
	return strings.EqualFold(strings.TrimSpace(c.Mode), "orthographic")
}

// Scene is one step of a story.
type Scene struct {
	ID                   string  `json:"id" msgpack:"id"`
	Header               string  `json:"header" msgpack:"header"`
	Key                  string  `json:"key" msgpack:"key"`
	Description          string  `json:"description" msgpack:"description"`
	JavaScript           string  `json:"javascript" msgpack:"javascript"`
	Camera               *Camera `json:"camera" msgpack:"camera"`
	LingerDurationMs     int     `json:"linger_duration_ms,omitempty" msgpack:"linger_duration_ms,omitempty"`
	TransitionDurationMs int     `json:"transition_duration_ms,omitempty" msgpack:"transition_duration_ms,omitempty"`
}

// Asset is a named binary resource bundled with a story.
type Asset struct {
	Name    string `json:"name" msgpack:"name"`
	Content []byte `json:"content" msgpack:"content"`
}

// Metadata is the open, string-keyed story metadata map. It always carries a
// title; other keys are preserved verbatim.
type Metadata map[string]any

// Title returns the story title or the empty string.
func (m Metadata) Title() string {
	if m == nil {
		return ""
	}
	if title, ok := m["title"].(string); ok {
		return title
	}
	return ""
}

// Story is the full authored document.
type Story struct {
	Metadata   Metadata `json:"metadata" msgpack:"metadata"`
	JavaScript string   `json:"javascript" msgpack:"javascript"`
	Scenes     []Scene  `json:"scenes" msgpack:"scenes"`
	Assets     []Asset  `json:"assets" msgpack:"assets"`
}

// SceneIndex returns the position of the scene with id, or -1.
func (s Story) SceneIndex(id string) int {
	for i := range s.Scenes {
		if s.Scenes[i].ID == id {
			return i
		}
	}
	return -1
}

// AssetIndex returns the position of the asset with name, or -1.
func (s Story) AssetIndex(name string) int {
	for i := range s.Assets {
		if s.Assets[i].Name == name {
			return i
		}
	}
	return -1
}

// TotalAssetBytes sums the content length of every asset.
func (s Story) TotalAssetBytes() int64 {
	var total int64
	for _, asset := range s.Assets {
		total += int64(len(asset.Content))
	}
	return total
}
