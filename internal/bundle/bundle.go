package bundle

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"mvstories/internal/engine"
	"mvstories/internal/mvs"
	"mvstories/internal/storyerr"
)

// DefaultTitle is used when a story has no title.
const DefaultTitle = "Untitled Story"

const component = "bundle"

// Mode selects how story data is embedded in the page.
type Mode string

const (
	// ModeEmbed embeds the compiled MVS state.
	ModeEmbed Mode = "embed"
	// ModeContainer embeds the story container and compiles it in the browser.
	ModeContainer Mode = "container"
)

// ParseMode validates a mode name; empty selects ModeEmbed.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeEmbed:
		return ModeEmbed, nil
	case ModeContainer:
		return ModeContainer, nil
	}
	return "", storyerr.Wrap(storyerr.ErrValidation, component, "parse_mode", fmt.Sprintf("unknown mode %q", value), nil)
}

//go:embed templates/page.html.tmpl bootstrap.js
var files embed.FS

var pageTemplate = template.Must(template.ParseFS(files, "templates/page.html.tmpl"))

var bootstrapSource = mustRead("bootstrap.js")

func mustRead(name string) string {
	data, err := files.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Input is the material a page is rendered from.
type Input struct {
	State     *mvs.State
	Container []byte
	Runtime   *engine.Runtime
}

// Options tune the rendered page.
type Options struct {
	Title string
	Mode  Mode
	// Inline embeds the viewer bundle instead of linking it.
	Inline bool
	// DataPath loads the state from a URL instead of embedding it.
	DataPath string
	// SessionPath adds a link to the story container.
	SessionPath string
	// Extra is appended as a trailing script.
	Extra string
}

type page struct {
	Title        string
	ScriptURL    string
	StyleURL     string
	InlineScript template.JS
	InlineStyle  template.CSS
	SessionPath  string
	Library      template.JS
	Bootstrap    template.JS
	Loader       template.JS
	Extra        template.JS
}

// Render writes the playback document for in to w.
func Render(w io.Writer, in Input, opts Options) error {
	p, err := buildPage(in, opts)
	if err != nil {
		return err
	}
	if err := pageTemplate.Execute(w, p); err != nil {
		return storyerr.Wrap(storyerr.ErrValidation, component, "render", "execute template", err)
	}
	return nil
}

// RenderBytes returns the playback document for in.
func RenderBytes(in Input, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, in, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildPage(in Input, opts Options) (*page, error) {
	if in.Runtime == nil {
		return nil, storyerr.Wrap(storyerr.ErrValidation, component, "render", "viewer runtime is required", nil)
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeEmbed
	}
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = DefaultTitle
	}

	p := &page{
		Title:       title,
		ScriptURL:   in.Runtime.ScriptURL,
		StyleURL:    in.Runtime.StyleURL,
		SessionPath: opts.SessionPath,
		Extra:       template.JS(opts.Extra),
	}
	if opts.Inline && in.Runtime.Inlined() {
		p.InlineScript = template.JS(escapeScript(string(in.Runtime.Script)))
		p.InlineStyle = template.CSS(strings.ReplaceAll(string(in.Runtime.Style), "</style", `<\/style`))
	}

	switch {
	case opts.DataPath != "":
		format := mvs.FormatMVSJ
		if in.State != nil {
			format = in.State.Format()
		}
		p.Loader = template.JS(fmt.Sprintf("mvsStories.loadFromURL(%s, { format: %s });",
			jsString(opts.DataPath), jsString(string(format))))
	case mode == ModeContainer && !hasArchive(in.State):
		if len(in.Container) == 0 {
			return nil, storyerr.Wrap(storyerr.ErrValidation, component, "render", "container mode requires a story container", nil)
		}
		version := mvs.DefaultVersion
		if in.State != nil && in.State.Data != nil {
			version = in.State.Data.Metadata.Version
		}
		p.Library = template.JS(escapeScript(mvs.LibrarySource()))
		p.Bootstrap = template.JS(escapeScript(bootstrapSource))
		p.Loader = template.JS(fmt.Sprintf("var mvsContainer = %s;\n\n        mvsBootstrap(mvsContainer, %s).catch(function (err) { console.error(err); });",
			jsString("base64,"+base64.StdEncoding.EncodeToString(in.Container)), jsString(version)))
	case mode == ModeEmbed || mode == ModeContainer:
		loader, err := embedLoader(in.State)
		if err != nil {
			return nil, err
		}
		p.Loader = template.JS(loader)
	default:
		return nil, storyerr.Wrap(storyerr.ErrValidation, component, "render", fmt.Sprintf("unknown mode %q", mode), nil)
	}
	return p, nil
}

func hasArchive(state *mvs.State) bool {
	return state != nil && state.Format() == mvs.FormatMVSX
}

func embedLoader(state *mvs.State) (string, error) {
	if state == nil || state.Data == nil {
		return "", storyerr.Wrap(storyerr.ErrValidation, component, "render", "compiled state is required", nil)
	}
	var data string
	format := state.Format()
	if format == mvs.FormatMVSX {
		data = jsString("base64," + base64.StdEncoding.EncodeToString(state.Archive))
	} else {
		raw, err := state.JSON()
		if err != nil {
			return "", storyerr.Wrap(storyerr.ErrValidation, component, "render", "encode state", err)
		}
		data = string(raw)
	}
	return fmt.Sprintf("var mvsData = %s;\n\n        mvsStories.loadFromData(mvsData, { format: %s });", data, jsString(string(format))), nil
}

// jsString quotes s as a JavaScript string literal safe for inline scripts.
func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func escapeScript(src string) string {
	return strings.ReplaceAll(src, "</script", `<\/script`)
}
