package bundle

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"mvstories/internal/engine"
	"mvstories/internal/mvs"
	"mvstories/internal/storyerr"
)

// Paths inside a self-hosted archive.
const (
	SelfHostedIndex   = "index.html"
	SelfHostedScript  = "assets/" + engine.ScriptFile
	SelfHostedStyle   = "assets/" + engine.StyleFile
	SelfHostedSession = "story/session.mvstory"
	SelfHostedReadme  = "README.md"
)

// SelfHostedDataPath returns the archive path of the compiled state.
func SelfHostedDataPath(format mvs.Format) string {
	return "story/data." + string(format)
}

const readmeTemplate = `# %s

This folder is a self-contained MolViewStories deployment.

- index.html: the story viewer
- %s: compiled MolViewSpec state
- %s: editable story session
- assets/: viewer script and style

The viewer loads its data with fetch, so serve the folder over HTTP, for
example:

    python3 -m http.server 8000

and open http://localhost:8000/.
`

type zipEntry struct {
	name string
	data []byte
}

// WriteSelfHosted writes a zip archive that serves the story from static
// hosting. The viewer bundle is included when the runtime is inlined and
// linked from the CDN otherwise.
func WriteSelfHosted(w io.Writer, in Input, opts Options) error {
	if in.State == nil || in.State.Data == nil {
		return storyerr.Wrap(storyerr.ErrValidation, component, "self_hosted", "compiled state is required", nil)
	}
	if in.Runtime == nil {
		return storyerr.Wrap(storyerr.ErrValidation, component, "self_hosted", "viewer runtime is required", nil)
	}
	payload, err := in.State.Bytes()
	if err != nil {
		return storyerr.Wrap(storyerr.ErrValidation, component, "self_hosted", "encode state", err)
	}
	dataPath := SelfHostedDataPath(in.State.Format())

	runtime := *in.Runtime
	bundled := runtime.Inlined()
	if bundled {
		runtime.ScriptURL = SelfHostedScript
		runtime.StyleURL = SelfHostedStyle
	}
	pageOpts := Options{
		Title:    opts.Title,
		Mode:     ModeEmbed,
		DataPath: dataPath,
		Extra:    opts.Extra,
	}
	if len(in.Container) > 0 {
		pageOpts.SessionPath = SelfHostedSession
	}
	html, err := RenderBytes(Input{State: in.State, Runtime: &runtime}, pageOpts)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = DefaultTitle
	}
	entries := []zipEntry{
		{SelfHostedIndex, html},
		{dataPath, payload},
		{SelfHostedReadme, []byte(fmt.Sprintf(readmeTemplate, title, dataPath, SelfHostedSession))},
	}
	if len(in.Container) > 0 {
		entries = append(entries, zipEntry{SelfHostedSession, in.Container})
	}
	if bundled {
		entries = append(entries,
			zipEntry{SelfHostedScript, in.Runtime.Script},
			zipEntry{SelfHostedStyle, in.Runtime.Style},
		)
	}

	zw := zip.NewWriter(w)
	modified := time.Now()
	for _, entry := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: entry.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("create %s: %w", entry.name, err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(entry.data)); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
