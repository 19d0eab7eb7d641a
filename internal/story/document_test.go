package story_test

import (
	"bytes"
	"errors"
	"testing"

	"mvstories/internal/story"
	"mvstories/internal/storyerr"
)

func sampleStory() story.Story {
	return story.Story{
		Metadata:   story.Metadata{"title": "Test Story"},
		JavaScript: "const shared = 1;",
		Scenes: []story.Scene{
			{ID: "scene1", Header: "Scene 1", Key: "s1", Description: "first", JavaScript: "builder;"},
			{ID: "scene2", Header: "Scene 2", Key: "s2", Description: "second", JavaScript: "builder;"},
		},
		Assets: []story.Asset{{Name: "test.pdb", Content: []byte{1, 2, 3, 4, 5}}},
	}
}

func sceneIDs(s story.Story) []string {
	ids := make([]string, len(s.Scenes))
	for i, sc := range s.Scenes {
		ids[i] = sc.ID
	}
	return ids
}

func TestNewDocumentHoldsCanonicalEmptyStory(t *testing.T) {
	doc := story.New()
	s := doc.Story()

	if got := s.Metadata.Title(); got != "New Story" {
		t.Fatalf("title = %q, want New Story", got)
	}
	if s.JavaScript != "" {
		t.Fatalf("expected empty global script, got %q", s.JavaScript)
	}
	if len(s.Scenes) != 1 {
		t.Fatalf("expected exactly one scene, got %d", len(s.Scenes))
	}
	scene := s.Scenes[0]
	if scene.Header != "New Scene" || scene.Key != "" || scene.Description != "" || scene.JavaScript != "" || scene.Camera != nil {
		t.Fatalf("unexpected default scene: %+v", scene)
	}
	if scene.ID == "" {
		t.Fatal("expected default scene to have an id")
	}
	if len(s.Assets) != 0 {
		t.Fatalf("expected no assets, got %d", len(s.Assets))
	}
}

func TestEmptyFactoryMatchesDocumentDefault(t *testing.T) {
	a := story.Empty()
	b := story.New().Story()
	if a.Metadata.Title() != b.Metadata.Title() || len(a.Scenes) != len(b.Scenes) || len(a.Assets) != len(b.Assets) {
		t.Fatalf("factory and constructor disagree: %+v vs %+v", a, b)
	}
	if a.Scenes[0].ID == b.Scenes[0].ID {
		t.Fatal("expected each empty story to get a fresh scene id")
	}
}

func TestReorderSceneMovesToFront(t *testing.T) {
	doc := story.NewFromStory(sampleStory())

	if !doc.ReorderScene("scene2", 0) {
		t.Fatal("expected reorder to succeed")
	}
	got := sceneIDs(doc.Story())
	if got[0] != "scene2" || got[1] != "scene1" {
		t.Fatalf("order = %v, want [scene2 scene1]", got)
	}
	scene, ok := doc.Scene("scene2")
	if !ok || scene.Header != "Scene 2" || scene.Description != "second" {
		t.Fatalf("reorder changed scene content: %+v", scene)
	}
}

func TestReorderSceneRejectsOutOfRange(t *testing.T) {
	doc := story.NewFromStory(sampleStory())
	before := sceneIDs(doc.Story())

	for _, idx := range []int{-1, 2, 10} {
		if doc.ReorderScene("scene1", idx) {
			t.Fatalf("expected reorder to index %d to fail", idx)
		}
	}
	if doc.ReorderScene("missing", 0) {
		t.Fatal("expected reorder of unknown id to fail")
	}
	after := sceneIDs(doc.Story())
	if after[0] != before[0] || after[1] != before[1] {
		t.Fatalf("failed reorder mutated order: %v -> %v", before, after)
	}
}

func TestReorderSceneToLastIndex(t *testing.T) {
	s := sampleStory()
	s.Scenes = append(s.Scenes, story.Scene{ID: "scene3", Header: "Scene 3"})
	doc := story.NewFromStory(s)

	if !doc.ReorderScene("scene1", 2) {
		t.Fatal("expected reorder to last index to succeed")
	}
	got := sceneIDs(doc.Story())
	want := []string{"scene2", "scene3", "scene1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRemoveScene(t *testing.T) {
	doc := story.NewFromStory(sampleStory())

	removed, err := doc.RemoveScene("scene2")
	if err != nil || !removed {
		t.Fatalf("RemoveScene = %v, %v", removed, err)
	}
	if len(doc.Story().Scenes) != 1 {
		t.Fatalf("expected one remaining scene, got %d", len(doc.Story().Scenes))
	}
	if _, ok := doc.Scene("scene2"); ok {
		t.Fatal("expected scene2 to be gone")
	}

	removed, err = doc.RemoveScene("scene1")
	if removed {
		t.Fatal("expected removal of last scene to be refused")
	}
	if !errors.Is(err, storyerr.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if storyerr.OpOf(err) != "remove_scene" || storyerr.SubjectOf(err) != "scene1" {
		t.Fatalf("error lacks context: %v", err)
	}
	if len(doc.Story().Scenes) != 1 {
		t.Fatal("refused removal mutated the story")
	}
}

func TestRemoveUnknownSceneReportsFalse(t *testing.T) {
	doc := story.NewFromStory(story.Story{Metadata: story.Metadata{"title": "x"}, Scenes: []story.Scene{{ID: "only"}}})
	removed, err := doc.RemoveScene("missing")
	if removed || err != nil {
		t.Fatalf("RemoveScene(missing) = %v, %v", removed, err)
	}
}

func TestRemoveScenePreservesOrder(t *testing.T) {
	s := sampleStory()
	s.Scenes = append(s.Scenes, story.Scene{ID: "scene3"}, story.Scene{ID: "scene4"})
	doc := story.NewFromStory(s)

	if ok, err := doc.RemoveScene("scene2"); !ok || err != nil {
		t.Fatalf("RemoveScene = %v, %v", ok, err)
	}
	got := sceneIDs(doc.Story())
	want := []string{"scene1", "scene3", "scene4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestZeroSceneStoryIsAccepted(t *testing.T) {
	doc := story.NewFromStory(story.Story{Metadata: story.Metadata{"title": "bare"}})
	if len(doc.Story().Scenes) != 0 {
		t.Fatal("expected raw construction to keep zero scenes")
	}
	id := doc.AddScene(story.ScenePatch{})
	if _, ok := doc.Scene(id); !ok {
		t.Fatal("expected scene to be added to empty story")
	}
}

func TestAddSceneMergesPatchOverDefaults(t *testing.T) {
	doc := story.New()
	header := "Binding Site"
	linger := 8000
	id := doc.AddScene(story.ScenePatch{Header: &header, LingerDurationMs: &linger})

	scene, ok := doc.Scene(id)
	if !ok {
		t.Fatal("added scene not found")
	}
	if scene.Header != "Binding Site" || scene.LingerDurationMs != 8000 || scene.Key != "" {
		t.Fatalf("unexpected scene: %+v", scene)
	}
	s := doc.Story()
	if s.Scenes[len(s.Scenes)-1].ID != id {
		t.Fatal("expected new scene to be appended last")
	}
	other := doc.AddScene(story.ScenePatch{})
	if other == id {
		t.Fatal("expected unique scene ids")
	}
	if sc, _ := doc.Scene(other); sc.Header != "New Scene" {
		t.Fatalf("default header = %q", sc.Header)
	}
}

func TestUpdateScene(t *testing.T) {
	doc := story.NewFromStory(sampleStory())
	desc := "patched"
	cam := story.Camera{Mode: "perspective", Position: story.Vec3{1, 2, 3}, Up: story.Vec3{0, 1, 0}, FOV: 0.78}

	if !doc.UpdateScene("scene1", story.ScenePatch{Description: &desc, Camera: &cam}) {
		t.Fatal("expected update to succeed")
	}
	scene, _ := doc.Scene("scene1")
	if scene.ID != "scene1" || scene.Description != "patched" || scene.Header != "Scene 1" {
		t.Fatalf("unexpected scene after update: %+v", scene)
	}
	if scene.Camera == nil || scene.Camera.Position != (story.Vec3{1, 2, 3}) {
		t.Fatalf("camera not applied: %+v", scene.Camera)
	}

	if !doc.UpdateScene("scene1", story.ScenePatch{ClearCamera: true}) {
		t.Fatal("expected clear to succeed")
	}
	if scene, _ = doc.Scene("scene1"); scene.Camera != nil {
		t.Fatal("expected camera to be cleared")
	}
	if doc.UpdateScene("missing", story.ScenePatch{Description: &desc}) {
		t.Fatal("expected update of unknown scene to fail")
	}
}

func TestAddAssetReplacesInPlace(t *testing.T) {
	doc := story.NewFromStory(sampleStory())
	doc.AddAsset(story.Asset{Name: "extra.cif", Content: []byte("data_")})
	if n := len(doc.Story().Assets); n != 2 {
		t.Fatalf("expected 2 assets, got %d", n)
	}

	doc.AddAsset(story.Asset{Name: "test.pdb", Content: []byte{9, 9}})
	assets := doc.Story().Assets
	if len(assets) != 2 {
		t.Fatalf("replacement changed asset count to %d", len(assets))
	}
	if assets[0].Name != "test.pdb" || !bytes.Equal(assets[0].Content, []byte{9, 9}) {
		t.Fatalf("expected replacement in place, got %+v", assets[0])
	}
}

func TestRemoveAndGetAsset(t *testing.T) {
	doc := story.NewFromStory(sampleStory())
	if _, ok := doc.Asset("test.pdb"); !ok {
		t.Fatal("expected asset to exist")
	}
	if !doc.RemoveAsset("test.pdb") {
		t.Fatal("expected removal to succeed")
	}
	if doc.RemoveAsset("test.pdb") {
		t.Fatal("expected second removal to report false")
	}
	if _, ok := doc.Asset("test.pdb"); ok {
		t.Fatal("expected asset to be gone")
	}
}

func TestLargeAssetIsStoredVerbatim(t *testing.T) {
	content := make([]byte, 1<<20)
	for i := range content {
		content[i] = byte(i % 251)
	}
	doc := story.New()
	doc.AddAsset(story.Asset{Name: "big.bin", Content: content})

	got, ok := doc.Asset("big.bin")
	if !ok || !bytes.Equal(got.Content, content) {
		t.Fatal("large asset was not returned byte-for-byte")
	}
}

func TestCloneIsolation(t *testing.T) {
	s := sampleStory()
	s.Scenes[0].Camera = &story.Camera{Mode: "perspective", FOV: 1}
	s.Metadata["tags"] = []any{"a"}
	doc := story.NewFromStory(s)
	clone := doc.Clone()

	clone.UpdateMetadata(map[string]any{"title": "Changed"})
	clone.SetGlobalJavaScript("changed")
	desc := "changed"
	clone.UpdateScene("scene1", story.ScenePatch{Description: &desc})
	clone.Story().Scenes[0].Camera.FOV = 2
	clone.Story().Assets[0].Content[0] = 42
	clone.Story().Metadata["tags"].([]any)[0] = "b"

	orig := doc.Story()
	if orig.Metadata.Title() != "Test Story" || orig.JavaScript != "const shared = 1;" {
		t.Fatalf("clone mutation leaked into original: %+v", orig)
	}
	if orig.Scenes[0].Description != "first" || orig.Scenes[0].Camera.FOV != 1 {
		t.Fatalf("scene mutation leaked: %+v", orig.Scenes[0])
	}
	if orig.Assets[0].Content[0] != 1 {
		t.Fatal("asset buffer shared between clone and original")
	}
	if orig.Metadata["tags"].([]any)[0] != "a" {
		t.Fatal("nested metadata shared between clone and original")
	}

	doc.Story().Assets[0].Content[1] = 77
	if clone.Story().Assets[0].Content[1] == 77 {
		t.Fatal("original mutation leaked into clone")
	}
}

func TestDocumentsSharingAStoryAddScenesIndependently(t *testing.T) {
	base := story.New()
	base.AddScene(story.ScenePatch{})
	base.AddScene(story.ScenePatch{})
	shared := base.Story()
	shared.Scenes = append(make([]story.Scene, 0, 8), shared.Scenes...)

	d1 := story.NewFromStory(shared)
	d2 := story.NewFromStory(shared)
	h1, h2 := "from d1", "from d2"
	id1 := d1.AddScene(story.ScenePatch{Header: &h1})
	id2 := d2.AddScene(story.ScenePatch{Header: &h2})

	if sc, ok := d1.Scene(id1); !ok || sc.Header != h1 {
		t.Fatalf("d1 lost its scene: ok=%v %+v", ok, sc)
	}
	if _, ok := d1.Scene(id2); ok {
		t.Fatal("scene added to d2 appeared in d1")
	}
	if sc, ok := d2.Scene(id2); !ok || sc.Header != h2 {
		t.Fatalf("d2 lost its scene: ok=%v %+v", ok, sc)
	}
	if len(d1.Story().Scenes) != 4 || len(d2.Story().Scenes) != 4 || len(shared.Scenes) != 3 {
		t.Fatalf("unexpected scene counts %d %d %d", len(d1.Story().Scenes), len(d2.Story().Scenes), len(shared.Scenes))
	}

	d3 := story.New()
	d3.SetStory(shared)
	d3.AddScene(story.ScenePatch{})
	if got := d1.Story().Scenes[3].ID; got != id1 {
		t.Fatalf("SetStory document overwrote d1's scene: %s", got)
	}
}

func TestUpdateMetadataShallowMerge(t *testing.T) {
	doc := story.NewFromStory(sampleStory())
	doc.UpdateMetadata(map[string]any{"author": "Jane"})
	md := doc.Story().Metadata
	if md.Title() != "Test Story" || md["author"] != "Jane" {
		t.Fatalf("unexpected metadata: %v", md)
	}
	doc.UpdateMetadata(map[string]any{"title": "Renamed"})
	if doc.Story().Metadata.Title() != "Renamed" || doc.Story().Metadata["author"] != "Jane" {
		t.Fatalf("unexpected metadata after title update: %v", doc.Story().Metadata)
	}
}

func TestEqualNormalizesNumbers(t *testing.T) {
	a := sampleStory()
	b := sampleStory()
	a.Metadata["count"] = 3
	b.Metadata["count"] = float64(3)
	if !story.Equal(a, b) {
		t.Fatal("expected numeric metadata to compare by value")
	}
	b.Assets[0].Content = []byte{1, 2, 3, 4, 6}
	if story.Equal(a, b) {
		t.Fatal("expected asset byte difference to be detected")
	}
}
