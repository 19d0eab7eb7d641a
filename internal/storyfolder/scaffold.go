package storyfolder

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"mvstories/internal/storyerr"
	"mvstories/internal/textutil"
)

// MaxNameLength bounds story folder names.
const MaxNameLength = 100

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("storyfolder").Funcs(template.FuncMap{
	"quote": quote,
}).ParseFS(templateFS, "templates/*.tmpl"))

// ValidateName reports whether name can be used as a story folder name.
func ValidateName(name string) error {
	if len(name) > MaxNameLength {
		return storyerr.Wrap(storyerr.ErrValidation, component, "scaffold",
			fmt.Sprintf("name exceeds %d characters", MaxNameLength), nil).WithSubject(name)
	}
	if !namePattern.MatchString(name) {
		return storyerr.Wrap(storyerr.ErrValidation, component, "scaffold",
			"name must contain only letters, numbers, hyphens, and underscores, and start and end with a letter or number", nil).WithSubject(name)
	}
	return nil
}

// ScaffoldOptions fill the generated files.
type ScaffoldOptions struct {
	Author      string
	Description string
	// Now stamps the created date; nil uses time.Now.
	Now func() time.Time
}

type scaffoldScene struct {
	Folder       string
	Header       string
	Key          string
	Description  string
	StructureURL string
	LigandLabel  string
}

var scaffoldScenes = []scaffoldScene{
	{
		Folder:       "scene1",
		Header:       "Overview",
		Key:          "overview",
		Description:  "Initial molecular structure overview.",
		StructureURL: "https://www.ebi.ac.uk/pdbe/entry-files/1cbs.bcif",
		LigandLabel:  "Retinoic Acid",
	},
	{
		Folder:       "scene2",
		Header:       "Active Site",
		Key:          "active-site",
		Description:  "Detailed view of the active site.",
		StructureURL: "https://www.ebi.ac.uk/pdbe/entry-files/3pqr.bcif",
		LigandLabel:  "ATP",
	},
}

// Scaffold creates a new story folder called name under parent and returns
// its path. Nothing is left behind when scaffolding fails.
func Scaffold(parent, name string, opts ScaffoldOptions) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	root := filepath.Join(parent, name)
	if _, err := os.Stat(root); err == nil {
		return "", storyerr.Wrap(storyerr.ErrValidation, component, "scaffold", "directory already exists", nil).WithSubject(root)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", storyerr.Wrap(storyerr.ErrUnavailable, component, "scaffold", "inspect target", err).WithSubject(root)
	}

	if err := scaffold(root, name, opts); err != nil {
		_ = os.RemoveAll(root)
		return "", storyerr.Wrap(storyerr.ErrUnavailable, component, "scaffold", "write story folder", err).WithSubject(root)
	}
	return root, nil
}

type scaffoldFile struct {
	path string
	tmpl string
	data any
}

func scaffold(root, name string, opts ScaffoldOptions) error {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	description := strings.TrimSpace(opts.Description)
	if description == "" {
		description = "A molecular story created with mvs."
	}
	author := strings.TrimSpace(opts.Author)
	if author == "" {
		author = "Unknown"
	}
	data := map[string]any{
		"Title":       textutil.TitleFromName(name),
		"Description": description,
		"Author":      author,
		"Created":     now().UTC().Format("2006-01-02"),
		"Scenes":      scaffoldScenes,
	}

	for _, dir := range []string{root, filepath.Join(root, AssetsDir), filepath.Join(root, ScenesDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	files := []scaffoldFile{
		{filepath.Join(root, StoryFile), "story.yaml.tmpl", data},
		{filepath.Join(root, ScriptFile), "story.js.tmpl", data},
		{filepath.Join(root, "README.md"), "README.md.tmpl", data},
	}
	for _, scene := range scaffoldScenes {
		dir := filepath.Join(root, ScenesDir, scene.Folder)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		files = append(files,
			scaffoldFile{filepath.Join(dir, scene.Folder+".yaml"), "scene.yaml.tmpl", scene},
			scaffoldFile{filepath.Join(dir, scene.Folder+".md"), "scene.md.tmpl", scene},
			scaffoldFile{filepath.Join(dir, scene.Folder+".js"), "scene.js.tmpl", scene},
		)
	}
	for _, file := range files {
		if err := renderFile(file.path, file.tmpl, file.data); err != nil {
			return err
		}
	}
	return nil
}

func renderFile(path, name string, data any) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := templates.ExecuteTemplate(f, name, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", name, err)
	}
	return f.Close()
}

// quote renders s as a double-quoted literal valid in both YAML and JavaScript.
func quote(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}
