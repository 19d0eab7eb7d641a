package main

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mvstories/internal/container"
	"mvstories/internal/storyfolder"
	"mvstories/internal/storytext"
	"mvstories/internal/testsupport"
)

func TestBuildWritesMVSJToStdout(t *testing.T) {
	env := setupCLITestEnv(t)
	st := testsupport.SampleStory()
	st.Assets = nil
	input := env.writeStory(t, "story.json", st)

	out, _, err := runCLI(t, []string{"build", input}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var data struct {
		Kind      string            `json:"kind"`
		Snapshots []json.RawMessage `json:"snapshots"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("decode mvsj: %v\n%s", err, out)
	}
	if data.Kind != "multiple" || len(data.Snapshots) != 2 {
		t.Fatalf("unexpected state: kind=%q snapshots=%d", data.Kind, len(data.Snapshots))
	}
}

func TestBuildEncodesBinaryOnStdout(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeStory(t, "story.json", testsupport.SampleStory())

	out, _, err := runCLI(t, []string{"build", input}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	const prefix = "MVSX_BASE64:"
	if !strings.HasPrefix(out, prefix) {
		t.Fatalf("expected %s prefix, got %.40q", prefix, out)
	}
	archive, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(out, prefix)))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open mvsx: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["index.mvsj"] || !names["test.pdb"] {
		t.Fatalf("unexpected archive entries: %v", names)
	}
}

func TestBuildWritesHTMLFile(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeStory(t, "story.json", testsupport.SampleStory())
	target := filepath.Join(env.baseDir, "out", "story.html")

	_, stderr, err := runCLI(t, []string{"build", input, "-o", target, "--title", "Shared"}, env.configPath)
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	requireContains(t, stderr, "HTML file saved to")
	html, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	requireContains(t, string(html), "<title>Shared</title>")
}

func TestBuildRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeStory(t, "story.json", testsupport.SampleStory())

	_, _, err := runCLI(t, []string{"build", input, "-f", "pdf"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestBuildReportsSceneFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	st := testsupport.SampleStory()
	st.Scenes[1].JavaScript = "throw new Error('broken scene');"
	input := env.writeStory(t, "story.json", st)

	_, _, err := runCLI(t, []string{"build", input, "-f", "html"}, env.configPath)
	if err == nil {
		t.Fatal("expected build to fail")
	}
	requireContains(t, err.Error(), "broken scene")
}

func TestCreateScaffoldsBuildableFolder(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"create", "my-story", "--dir", env.baseDir, "--author", "Ada"}, env.configPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	requireContains(t, out, "Created story at")
	root := filepath.Join(env.baseDir, "my-story")
	if _, err := os.Stat(filepath.Join(root, storyfolder.StoryFile)); err != nil {
		t.Fatalf("expected story.yaml: %v", err)
	}

	out, _, err = runCLI(t, []string{"build", root, "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("build scaffold: %v", err)
	}
	st, err := storytext.Decode([]byte(out))
	if err != nil {
		t.Fatalf("decode story: %v", err)
	}
	if st.Metadata.Title() != "My Story" || len(st.Scenes) != 2 {
		t.Fatalf("unexpected scaffold story: title=%q scenes=%d", st.Metadata.Title(), len(st.Scenes))
	}
}

func TestCreateRejectsExistingFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(filepath.Join(env.baseDir, "taken"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, _, err := runCLI(t, []string{"create", "taken", "--dir", env.baseDir}, env.configPath); err == nil {
		t.Fatal("expected create to refuse an existing folder")
	}
}

func TestConvertRoundTripsThroughContainerAndFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	original := testsupport.SampleStory()
	input := env.writeStory(t, "story.json", original)
	packed := filepath.Join(env.baseDir, "story.mvstory")

	if _, _, err := runCLI(t, []string{"convert", input, "-o", packed}, env.configPath); err != nil {
		t.Fatalf("convert to mvstory: %v", err)
	}
	data, err := os.ReadFile(packed)
	if err != nil {
		t.Fatalf("read container: %v", err)
	}
	if !container.Sniff(data) {
		t.Fatal("expected a compressed container")
	}

	folder := filepath.Join(env.baseDir, "unpacked")
	if _, _, err := runCLI(t, []string{"convert", packed, "-o", folder}, env.configPath); err != nil {
		t.Fatalf("convert to folder: %v", err)
	}
	st, err := storyfolder.Parse(folder)
	if err != nil {
		t.Fatalf("parse folder: %v", err)
	}
	if st.Metadata.Title() != "Test Story" || len(st.Scenes) != 2 || len(st.Assets) != 1 {
		t.Fatalf("unexpected folder story: %+v", st.Metadata)
	}
	if st.Scenes[0].JavaScript != original.Scenes[0].JavaScript {
		t.Fatalf("scene script changed: %q", st.Scenes[0].JavaScript)
	}
}

func TestConvertRequiresOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeStory(t, "story.json", testsupport.SampleStory())
	if _, _, err := runCLI(t, []string{"convert", input}, env.configPath); err == nil {
		t.Fatal("expected missing --output to fail")
	}
}

func TestInspectSummarizesStory(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeStory(t, "story.json", testsupport.SampleStory())

	out, _, err := runCLI(t, []string{"inspect", input}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "Test Story")
	requireContains(t, out, "scene2")
	requireContains(t, out, "perspective fov 45")
	requireContains(t, out, "test.pdb")

	out, _, err = runCLI(t, []string{"inspect", input, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect --json: %v", err)
	}
	var summary storySummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summary.Scenes) != 2 || summary.Scenes[0].ScriptLines != 7 || summary.Assets[0].Size != 5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestLibraryImportListExportDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeStory(t, "story.json", testsupport.SampleStory())

	out, _, err := runCLI(t, []string{"library", "import", input, "--tags", "demo, cli"}, env.configPath)
	if err != nil {
		t.Fatalf("library import: %v", err)
	}
	requireContains(t, out, "Saved session")
	sessionID := strings.Fields(out)[2]

	out, _, err = runCLI(t, []string{"library", "import", input, "--publish", "--title", "Published"}, env.configPath)
	if err != nil {
		t.Fatalf("library import --publish: %v", err)
	}
	requireContains(t, out, "Saved story")
	requireContains(t, out, "mvsx")

	out, _, err = runCLI(t, []string{"library", "list", "--kind", "session", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	var items []struct {
		ID    string   `json:"id"`
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 || items[0].ID != sessionID || items[0].Title != "Test Story" || len(items[0].Tags) != 2 {
		t.Fatalf("unexpected sessions: %+v", items)
	}

	out, _, err = runCLI(t, []string{"library", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("library list table: %v", err)
	}
	requireContains(t, out, "Published")

	target := filepath.Join(env.baseDir, "export.mvstory")
	if _, _, err := runCLI(t, []string{"library", "export", sessionID, "-o", target}, env.configPath); err != nil {
		t.Fatalf("library export: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !container.Sniff(data) {
		t.Fatal("exported session is not a container")
	}

	out, _, err = runCLI(t, []string{"library", "delete", sessionID}, env.configPath)
	if err != nil {
		t.Fatalf("library delete: %v", err)
	}
	requireContains(t, out, "Deleted "+sessionID)
	if _, _, err := runCLI(t, []string{"library", "delete", sessionID}, env.configPath); err == nil {
		t.Fatal("expected second delete to fail")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.DataDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestDoctorReportsUnreachableCDN(t *testing.T) {
	env := setupCLITestEnv(t)
	content, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content = append(content, []byte("cdn_base_url = \"http://127.0.0.1:1\"\n")...)
	testsupport.WriteFile(t, env.configPath, content)

	out, _, err := runCLI(t, []string{"doctor", "--json"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail with an unreachable CDN")
	}
	var results []struct {
		Name   string `json:"name"`
		Passed bool   `json:"passed"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode results: %v\n%s", err, out)
	}
	for _, r := range results {
		if r.Name == "Viewer bundle" && r.Passed {
			t.Fatal("expected viewer bundle check to fail")
		}
		if r.Name == "Library" && !r.Passed {
			t.Fatal("expected library check to pass")
		}
	}
}

func TestLogsPrintsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.LogDir, "mvs.log")
	testsupport.WriteFile(t, path, []byte("first\nsecond\nthird\n"))

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected logs output: %q", out)
	}
}
