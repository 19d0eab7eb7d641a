package storyfolder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mvstories/internal/mvs"
	"mvstories/internal/story"
	"mvstories/internal/storyerr"
	"mvstories/internal/storyfolder"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixedNow() time.Time { return time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC) }

func TestScaffoldThenParse(t *testing.T) {
	root, err := storyfolder.Scaffold(t.TempDir(), "my-story", storyfolder.ScaffoldOptions{Author: "Ada", Now: fixedNow})
	if err != nil {
		t.Fatalf("Scaffold: %v", err)
	}
	for _, rel := range []string{"story.yaml", "story.js", "README.md", "assets", "scenes/scene1/scene1.yaml", "scenes/scene2/scene2.js"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}

	s, err := storyfolder.Parse(root)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Metadata.Title() != "My Story" || s.Metadata["author"] != "Ada" || s.Metadata["created"] != "2025-05-04" {
		t.Fatalf("unexpected metadata %+v", s.Metadata)
	}
	if !strings.Contains(s.JavaScript, "globalColors") {
		t.Fatal("expected global script")
	}
	if len(s.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(s.Scenes))
	}
	first := s.Scenes[0]
	if first.ID != "scene_1" || first.Header != "Overview" || first.Key != "overview" {
		t.Fatalf("unexpected first scene %+v", first)
	}
	if first.LingerDurationMs != 5000 || first.TransitionDurationMs != 1000 {
		t.Fatalf("unexpected timings %+v", first)
	}
	if first.Camera == nil || first.Camera.Position != (story.Vec3{0, 0, 50}) || first.Camera.FOV != 45 {
		t.Fatalf("unexpected camera %+v", first.Camera)
	}
	if !strings.HasPrefix(first.Description, "# Overview") {
		t.Fatalf("unexpected description %q", first.Description)
	}

	state, err := (&mvs.Compiler{}).CompileStory(context.Background(), s)
	if err != nil {
		t.Fatalf("scaffolded story should compile: %v", err)
	}
	if len(state.Data.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(state.Data.Snapshots))
	}
}

func TestScaffoldRejectsBadNames(t *testing.T) {
	parent := t.TempDir()
	for _, name := range []string{"", "-lead", "trail_", "has space", "dot.name", strings.Repeat("a", 101)} {
		if _, err := storyfolder.Scaffold(parent, name, storyfolder.ScaffoldOptions{}); !errors.Is(err, storyerr.ErrValidation) {
			t.Fatalf("Scaffold(%q): expected validation error, got %v", name, err)
		}
	}
	for _, name := range []string{"a", "A1", "x_y-z"} {
		if err := storyfolder.ValidateName(name); err != nil {
			t.Fatalf("ValidateName(%q): %v", name, err)
		}
	}
}

func TestScaffoldRefusesExistingDirectory(t *testing.T) {
	parent := t.TempDir()
	if err := os.Mkdir(filepath.Join(parent, "taken"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := storyfolder.Scaffold(parent, "taken", storyfolder.ScaffoldOptions{}); !errors.Is(err, storyerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	root := filepath.Join(t.TempDir(), "kinase")
	writeFile(t, filepath.Join(root, "story.yaml"), "metadata:\n  tags: [a, b]\n")
	writeFile(t, filepath.Join(root, "scenes", "b_site", "b_site.yaml"), "camera:\n  mode: orthographic\n")
	writeFile(t, filepath.Join(root, "scenes", "a_intro", "a_intro.yaml"), "header: Intro\nlinger_duration_ms: 1500\n")
	writeFile(t, filepath.Join(root, "scenes", "a_intro", "a_intro.js"), "builder.download({ url: 'x' });")
	writeFile(t, filepath.Join(root, "assets", "models", "1cbs.cif"), "data_1cbs")

	s, err := storyfolder.Parse(root)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Metadata.Title() != "kinase" {
		t.Fatalf("expected folder name as title, got %q", s.Metadata.Title())
	}
	if s.JavaScript != "" {
		t.Fatal("missing story.js should leave the global script empty")
	}
	if len(s.Scenes) != 2 || s.Scenes[0].Header != "Intro" || s.Scenes[1].Header != "B Site" {
		t.Fatalf("unexpected scenes %+v", s.Scenes)
	}
	intro, site := s.Scenes[0], s.Scenes[1]
	if intro.LingerDurationMs != 1500 || intro.TransitionDurationMs != 1000 || intro.Key != "a_intro" || intro.Camera != nil {
		t.Fatalf("unexpected intro %+v", intro)
	}
	cam := site.Camera
	if cam == nil || cam.Mode != "orthographic" || cam.Position != (story.Vec3{10, 10, 10}) || cam.Up != (story.Vec3{0, 1, 0}) || cam.FOV != 45 {
		t.Fatalf("unexpected camera defaults %+v", cam)
	}
	if len(s.Assets) != 1 || s.Assets[0].Name != "1cbs.cif" || string(s.Assets[0].Content) != "data_1cbs" {
		t.Fatalf("unexpected assets %+v", s.Assets)
	}
}

func TestParseMissingFiles(t *testing.T) {
	root := t.TempDir()
	if _, err := storyfolder.Parse(root); !errors.Is(err, storyerr.ErrNotFound) {
		t.Fatalf("expected not found for missing story.yaml, got %v", err)
	}
	writeFile(t, filepath.Join(root, "story.yaml"), "metadata:\n  title: T\n")
	writeFile(t, filepath.Join(root, "scenes", "one", "one.js"), "")
	if _, err := storyfolder.Parse(root); !errors.Is(err, storyerr.ErrNotFound) {
		t.Fatalf("expected not found for missing scene yaml, got %v", err)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "story.yaml"), "metadata: [unclosed\n")
	if _, err := storyfolder.Parse(root); !errors.Is(err, storyerr.ErrInvalidFormat) {
		t.Fatalf("expected invalid format, got %v", err)
	}
}

func TestParseRejectsDuplicateAssetNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "story.yaml"), "metadata:\n  title: Dupes\n")
	writeFile(t, filepath.Join(root, "assets", "a", "x.pdb"), "first")
	writeFile(t, filepath.Join(root, "assets", "b", "x.pdb"), "second")

	_, err := storyfolder.Parse(root)
	if !errors.Is(err, storyerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, want := range []string{filepath.Join("a", "x.pdb"), filepath.Join("b", "x.pdb")} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestWriteThenParse(t *testing.T) {
	in := story.Story{
		Metadata:   story.Metadata{"title": "Round Trip"},
		JavaScript: "const shared = 1;",
		Scenes: []story.Scene{
			{ID: "scene_1", Header: "First", Key: "first", Description: "one", JavaScript: "builder;", LingerDurationMs: 4000, TransitionDurationMs: 700,
				Camera: &story.Camera{Mode: "perspective", Target: story.Vec3{1, 2, 3}, Position: story.Vec3{4, 5, 6}, Up: story.Vec3{0, 1, 0}, FOV: 0.8}},
			{ID: "scene_2", Header: "Second", Key: "second", Description: "two", JavaScript: "", LingerDurationMs: 5000, TransitionDurationMs: 1000},
		},
		Assets: []story.Asset{{Name: "model.pdb", Content: []byte{1, 2, 3}}},
	}
	dir := filepath.Join(t.TempDir(), "out")
	if err := storyfolder.Write(dir, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := storyfolder.Parse(dir)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !story.Equal(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
	if err := storyfolder.Write(dir, in); !errors.Is(err, storyerr.ErrValidation) {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
}
