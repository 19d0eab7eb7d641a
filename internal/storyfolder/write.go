package storyfolder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mvstories/internal/fileutil"
	"mvstories/internal/story"
	"mvstories/internal/storyerr"
	"mvstories/internal/textutil"
)

// Write exports s into folder form at dir. dir must not exist or be empty.
// Scene folders are numbered so that Parse restores the scene order.
func Write(dir string, s story.Story) error {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return storyerr.Wrap(storyerr.ErrValidation, component, "write", "directory is not empty", nil).WithSubject(dir)
	}

	meta := storyFile{Metadata: map[string]any{}}
	for k, v := range s.Metadata {
		meta.Metadata[k] = v
	}
	if err := writeYAML(filepath.Join(dir, StoryFile), meta); err != nil {
		return err
	}
	if s.JavaScript != "" {
		if err := writeFile(filepath.Join(dir, ScriptFile), []byte(s.JavaScript)); err != nil {
			return err
		}
	}

	width := len(fmt.Sprint(len(s.Scenes)))
	if width < 2 {
		width = 2
	}
	for i, scene := range s.Scenes {
		label := scene.Key
		if strings.TrimSpace(label) == "" {
			label = scene.Header
		}
		name := fmt.Sprintf("%0*d-%s", width, i+1, textutil.Slug(label, "scene"))
		if err := writeScene(filepath.Join(dir, ScenesDir, name), name, scene); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, AssetsDir), 0o755); err != nil {
		return storyerr.Wrap(storyerr.ErrUnavailable, component, "write", "create assets dir", err)
	}
	for _, asset := range s.Assets {
		name := textutil.SanitizeFileName(filepath.Base(asset.Name))
		if name == "" || name == "." {
			return storyerr.Wrap(storyerr.ErrValidation, component, "write", "asset has no usable file name", nil).WithSubject(asset.Name)
		}
		if err := writeFile(filepath.Join(dir, AssetsDir, name), asset.Content); err != nil {
			return err
		}
	}
	return nil
}

func writeScene(dir, name string, scene story.Scene) error {
	file := sceneFile{
		Header:               scene.Header,
		Key:                  scene.Key,
		LingerDurationMs:     scene.LingerDurationMs,
		TransitionDurationMs: scene.TransitionDurationMs,
	}
	if cam := scene.Camera; cam != nil {
		file.Camera = &cameraFile{
			Mode:     cam.Mode,
			Target:   cam.Target[:],
			Position: cam.Position[:],
			Up:       cam.Up[:],
			FOV:      cam.FOV,
		}
	}
	if err := writeYAML(filepath.Join(dir, name+".yaml"), file); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, name+".md"), []byte(scene.Description)); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, name+".js"), []byte(scene.JavaScript))
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return storyerr.Wrap(storyerr.ErrValidation, component, "write", "encode yaml", err).WithSubject(filepath.Base(path))
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return storyerr.Wrap(storyerr.ErrUnavailable, component, "write", "write file", err).WithSubject(filepath.Base(path))
	}
	return nil
}
