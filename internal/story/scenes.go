package story

import (
	"mvstories/internal/storyerr"
)

// ScenePatch lists scene fields to overwrite. Nil fields are left untouched.
// The scene id is deliberately absent: it cannot be changed through a patch.
type ScenePatch struct {
	Header               *string `json:"header,omitempty"`
	Key                  *string `json:"key,omitempty"`
	Description          *string `json:"description,omitempty"`
	JavaScript           *string `json:"javascript,omitempty"`
	Camera               *Camera `json:"camera,omitempty"`
	ClearCamera          bool    `json:"clear_camera,omitempty"`
	LingerDurationMs     *int    `json:"linger_duration_ms,omitempty"`
	TransitionDurationMs *int    `json:"transition_duration_ms,omitempty"`
}

func (p ScenePatch) apply(sc *Scene) {
	if p.Header != nil {
		sc.Header = *p.Header
	}
	if p.Key != nil {
		sc.Key = *p.Key
	}
	if p.Description != nil {
		sc.Description = *p.Description
	}
	if p.JavaScript != nil {
		sc.JavaScript = *p.JavaScript
	}
	if p.ClearCamera {
		sc.Camera = nil
	}
	if p.Camera != nil {
		cam := *p.Camera
		sc.Camera = &cam
	}
	if p.LingerDurationMs != nil {
		sc.LingerDurationMs = *p.LingerDurationMs
	}
	if p.TransitionDurationMs != nil {
		sc.TransitionDurationMs = *p.TransitionDurationMs
	}
}

// AddScene appends a new scene built from the defaults overlaid with patch
// and returns its freshly generated id.
func (d *Document) AddScene(patch ScenePatch) string {
	scene := DefaultScene(newSceneID())
	patch.apply(&scene)

	d.mu.Lock()
	defer d.mu.Unlock()
	scenes := make([]Scene, len(d.story.Scenes), len(d.story.Scenes)+1)
	copy(scenes, d.story.Scenes)
	d.story.Scenes = append(scenes, scene)
	return scene.ID
}

// UpdateScene merges patch into the scene with id. It reports false when no
// such scene exists.
func (d *Document) UpdateScene(id string, patch ScenePatch) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.story.SceneIndex(id)
	if idx < 0 {
		return false
	}
	scenes := make([]Scene, len(d.story.Scenes))
	copy(scenes, d.story.Scenes)
	patch.apply(&scenes[idx])
	d.story.Scenes = scenes
	return true
}

// RemoveScene deletes the scene with id, preserving the order of the rest.
// Unknown ids report false. Removing the only remaining scene is refused
// with an ErrInvariant error and leaves the story untouched.
func (d *Document) RemoveScene(id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.story.SceneIndex(id)
	if idx < 0 {
		return false, nil
	}
	if len(d.story.Scenes) <= 1 {
		return false, storyerr.Wrap(storyerr.ErrInvariant, "story", "remove_scene", "cannot remove the last scene", nil).WithSubject(id)
	}
	scenes := make([]Scene, 0, len(d.story.Scenes)-1)
	scenes = append(scenes, d.story.Scenes[:idx]...)
	scenes = append(scenes, d.story.Scenes[idx+1:]...)
	d.story.Scenes = scenes
	return true, nil
}

// ReorderScene moves the scene with id to newIndex. It reports false without
// mutating anything when the id is unknown or newIndex is outside
// [0, len(scenes)-1].
func (d *Document) ReorderScene(id string, newIndex int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.story.SceneIndex(id)
	if idx < 0 || newIndex < 0 || newIndex >= len(d.story.Scenes) {
		return false
	}
	moved := d.story.Scenes[idx]
	rest := make([]Scene, 0, len(d.story.Scenes))
	rest = append(rest, d.story.Scenes[:idx]...)
	rest = append(rest, d.story.Scenes[idx+1:]...)

	scenes := make([]Scene, 0, len(d.story.Scenes))
	scenes = append(scenes, rest[:newIndex]...)
	scenes = append(scenes, moved)
	scenes = append(scenes, rest[newIndex:]...)
	d.story.Scenes = scenes
	return true
}

// Scene returns the scene with id.
func (d *Document) Scene(id string) (Scene, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	idx := d.story.SceneIndex(id)
	if idx < 0 {
		return Scene{}, false
	}
	return d.story.Scenes[idx], true
}
