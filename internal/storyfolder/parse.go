package storyfolder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mvstories/internal/story"
	"mvstories/internal/storyerr"
	"mvstories/internal/textutil"
)

// Folder defaults applied when a scene file leaves a value unset.
const (
	DefaultLingerDurationMs     = 5000
	DefaultTransitionDurationMs = 1000
	DefaultFOV                  = 45
)

const component = "storyfolder"

// File names of the layout.
const (
	StoryFile  = "story.yaml"
	ScriptFile = "story.js"
	ScenesDir  = "scenes"
	AssetsDir  = "assets"
)

type storyFile struct {
	Metadata map[string]any `yaml:"metadata"`
}

type sceneFile struct {
	Header               string      `yaml:"header"`
	Key                  string      `yaml:"key"`
	Camera               *cameraFile `yaml:"camera,omitempty"`
	LingerDurationMs     int         `yaml:"linger_duration_ms,omitempty"`
	TransitionDurationMs int         `yaml:"transition_duration_ms,omitempty"`
}

type cameraFile struct {
	Mode     string    `yaml:"mode"`
	Target   []float64 `yaml:"target,flow"`
	Position []float64 `yaml:"position,flow"`
	Up       []float64 `yaml:"up,flow"`
	FOV      float64   `yaml:"fov"`
}

// Parse loads the story folder at dir.
func Parse(dir string) (story.Story, error) {
	var meta storyFile
	if err := readYAML(filepath.Join(dir, StoryFile), &meta); err != nil {
		return story.Story{}, err
	}

	metadata := story.Metadata{}
	for k, v := range meta.Metadata {
		metadata[k] = normalizeYAML(v)
	}
	if title, _ := metadata["title"].(string); strings.TrimSpace(title) == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		metadata["title"] = filepath.Base(abs)
	}

	script, err := readOptional(filepath.Join(dir, ScriptFile))
	if err != nil {
		return story.Story{}, err
	}

	scenes, err := parseScenes(filepath.Join(dir, ScenesDir))
	if err != nil {
		return story.Story{}, err
	}
	assets, err := parseAssets(filepath.Join(dir, AssetsDir))
	if err != nil {
		return story.Story{}, err
	}
	return story.Story{
		Metadata:   metadata,
		JavaScript: script,
		Scenes:     scenes,
		Assets:     assets,
	}, nil
}

func parseScenes(dir string) ([]story.Scene, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []story.Scene{}, nil
	}
	if err != nil {
		return nil, storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse", "read scenes", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	scenes := make([]story.Scene, 0, len(names))
	for i, name := range names {
		scene, err := parseScene(filepath.Join(dir, name), name, i)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, scene)
	}
	return scenes, nil
}

func parseScene(dir, name string, index int) (story.Scene, error) {
	var file sceneFile
	if err := readYAML(filepath.Join(dir, name+".yaml"), &file); err != nil {
		return story.Scene{}, err
	}
	description, err := readOptional(filepath.Join(dir, name+".md"))
	if err != nil {
		return story.Scene{}, err
	}
	script, err := readOptional(filepath.Join(dir, name+".js"))
	if err != nil {
		return story.Scene{}, err
	}

	scene := story.Scene{
		ID:                   fmt.Sprintf("scene_%d", index+1),
		Header:               file.Header,
		Key:                  file.Key,
		Description:          description,
		JavaScript:           script,
		LingerDurationMs:     file.LingerDurationMs,
		TransitionDurationMs: file.TransitionDurationMs,
	}
	if strings.TrimSpace(scene.Header) == "" {
		scene.Header = textutil.TitleFromName(name)
	}
	if strings.TrimSpace(scene.Key) == "" {
		scene.Key = name
	}
	if scene.LingerDurationMs == 0 {
		scene.LingerDurationMs = DefaultLingerDurationMs
	}
	if scene.TransitionDurationMs == 0 {
		scene.TransitionDurationMs = DefaultTransitionDurationMs
	}
	if file.Camera != nil {
		cam, err := file.Camera.toCamera()
		if err != nil {
			return story.Scene{}, storyerr.Wrap(storyerr.ErrValidation, component, "parse", "invalid camera", err).WithSubject(name)
		}
		scene.Camera = &cam
	}
	return scene, nil
}

func (c cameraFile) toCamera() (story.Camera, error) {
	cam := story.Camera{
		Mode:     c.Mode,
		Target:   story.Vec3{0, 0, 0},
		Position: story.Vec3{10, 10, 10},
		Up:       story.Vec3{0, 1, 0},
		FOV:      c.FOV,
	}
	if cam.Mode == "" {
		cam.Mode = "perspective"
	}
	if cam.FOV == 0 {
		cam.FOV = DefaultFOV
	}
	for _, field := range []struct {
		name string
		src  []float64
		dst  *story.Vec3
	}{
		{"target", c.Target, &cam.Target},
		{"position", c.Position, &cam.Position},
		{"up", c.Up, &cam.Up},
	} {
		if field.src == nil {
			continue
		}
		if len(field.src) != 3 {
			return story.Camera{}, fmt.Errorf("%s must have 3 components, got %d", field.name, len(field.src))
		}
		copy(field.dst[:], field.src)
	}
	return cam, nil
}

// parseAssets reads every non-hidden file under dir, nested folders
// included. Assets are keyed by base name, so two files sharing a base name
// in different folders are rejected.
func parseAssets(dir string) ([]story.Asset, error) {
	assets := []story.Asset{}
	seen := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if prev, ok := seen[d.Name()]; ok {
			msg := fmt.Sprintf("asset name %q used by both %s and %s", d.Name(), prev, path)
			return storyerr.Wrap(storyerr.ErrValidation, component, "parse", msg, nil).WithSubject(d.Name())
		}
		seen[d.Name()] = path
		assets = append(assets, story.Asset{Name: d.Name(), Content: data})
		return nil
	})
	if errors.Is(err, storyerr.ErrValidation) {
		return nil, err
	}
	if err != nil {
		return nil, storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse", "read assets", err)
	}
	return assets, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storyerr.Wrap(storyerr.ErrNotFound, component, "parse", "required file missing", err).WithSubject(filepath.Base(path))
		}
		return storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse", "read file", err).WithSubject(filepath.Base(path))
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse", "malformed yaml", err).WithSubject(filepath.Base(path))
	}
	return nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse", "read file", err).WithSubject(filepath.Base(path))
	}
	return string(data), nil
}

// normalizeYAML converts decoded YAML values into the plain shapes the story
// codecs accept.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}
