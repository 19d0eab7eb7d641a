package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"mvstories/internal/bundle"
	"mvstories/internal/container"
	"mvstories/internal/engine"
	"mvstories/internal/logging"
	"mvstories/internal/mvs"
	"mvstories/internal/story"
	"mvstories/internal/storytext"
)

// RuntimeProvider supplies the viewer bundle for playback exports.
type RuntimeProvider interface {
	Ready(ctx context.Context) (*engine.Runtime, error)
	Linked() *engine.Runtime
}

// Manager edits one story and exports it in every supported format.
type Manager struct {
	*story.Document

	compiler *mvs.Compiler
	codec    container.Codec
	engine   RuntimeProvider
	inline   bool
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCompiler sets the scene compiler.
func WithCompiler(c *mvs.Compiler) Option {
	return func(m *Manager) {
		if c != nil {
			m.compiler = c
		}
	}
}

// WithCodec sets the container codec.
func WithCodec(c container.Codec) Option {
	return func(m *Manager) { m.codec = c }
}

// WithEngine sets the viewer bundle provider. A nil provider keeps the
// default CDN loader. inline=false makes playback documents link the CDN
// instead of embedding the bundle, so they no longer work offline.
func WithEngine(p RuntimeProvider, inline bool) Option {
	return func(m *Manager) {
		if p != nil {
			m.engine = p
		}
		m.inline = inline
	}
}

// WithLogger sets the logger used for export diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// EmptyStory returns the canonical empty story.
func EmptyStory() story.Story {
	return story.Empty()
}

// New returns a manager holding the canonical empty story.
func New(opts ...Option) *Manager {
	return newManager(story.New(), opts)
}

// NewFromStory returns a manager holding s. The value is not copied; edits
// through the manager never write into the slices of s.
func NewFromStory(s story.Story, opts ...Option) *Manager {
	return newManager(story.NewFromStory(s), opts)
}

func newManager(doc *story.Document, opts []Option) *Manager {
	m := &Manager{
		Document: doc,
		codec:    container.Default(),
		inline:   true,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.compiler == nil {
		m.compiler = &mvs.Compiler{Logger: m.logger}
	}
	if m.engine == nil {
		m.engine = engine.NewLoader(engine.Options{Logger: m.logger})
	}
	m.logger = logging.NewComponentLogger(m.logger, "api")
	return m
}

// Clone returns an independent manager with a deep copy of the story and the
// same configuration.
func (m *Manager) Clone() *Manager {
	out := *m
	out.Document = m.Document.Clone()
	return &out
}

// ToText encodes the story as its JSON text form.
func (m *Manager) ToText() ([]byte, error) {
	return storytext.Encode(m.Snapshot())
}

// FromText replaces the story with the decoded text form. The current story
// is kept when decoding fails.
func (m *Manager) FromText(data []byte) error {
	s, err := storytext.Decode(data)
	if err != nil {
		return err
	}
	m.SetStory(s)
	return nil
}

// ToContainer packs the story into a binary container.
func (m *Manager) ToContainer(ctx context.Context) ([]byte, error) {
	return m.codec.Pack(ctx, m.Snapshot())
}

// FromContainer replaces the story with the unpacked container. The current
// story is kept when unpacking fails.
func (m *Manager) FromContainer(ctx context.Context, data []byte) error {
	s, err := m.codec.Unpack(ctx, data)
	if err != nil {
		return err
	}
	m.SetStory(s)
	return nil
}

// ToCompiledState compiles every scene. When some scenes fail the partial
// state is returned together with a *mvs.CompileError.
func (m *Manager) ToCompiledState(ctx context.Context) (*mvs.State, error) {
	return m.compiler.CompileStory(ctx, m.Snapshot())
}

// PlaybackOptions tune ToPlaybackDocument.
type PlaybackOptions struct {
	// Title overrides the story title.
	Title string
	Mode  bundle.Mode
}

// ToPlaybackDocument renders a standalone HTML document. Any scene failure
// fails the export.
func (m *Manager) ToPlaybackDocument(ctx context.Context, opts PlaybackOptions) ([]byte, error) {
	snapshot := m.Snapshot()
	in, err := m.exportInput(ctx, snapshot, opts.Mode == bundle.ModeContainer)
	if err != nil {
		return nil, err
	}
	html, err := bundle.RenderBytes(in, bundle.Options{
		Title:  m.title(snapshot, opts.Title),
		Mode:   opts.Mode,
		Inline: m.inline,
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("playback document exported",
		logging.String("mode", string(modeOrDefault(opts.Mode))),
		logging.Bytes("bytes", len(html)),
		logging.Bool("inline", m.inline),
	)
	return html, nil
}

// ToSelfHostedZip writes a static-hosting archive of the story to w.
func (m *Manager) ToSelfHostedZip(ctx context.Context, w io.Writer) error {
	snapshot := m.Snapshot()
	in, err := m.exportInput(ctx, snapshot, true)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := bundle.WriteSelfHosted(&buf, in, bundle.Options{Title: m.title(snapshot, "")}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (m *Manager) exportInput(ctx context.Context, s story.Story, withContainer bool) (bundle.Input, error) {
	state, err := m.compiler.CompileStory(ctx, s)
	if err != nil {
		var compileErr *mvs.CompileError
		if errors.As(err, &compileErr) {
			m.logger.Warn("export blocked by scene failures",
				logging.Int("failed", len(compileErr.Scenes)),
				logging.String(logging.FieldEventType, "export_compile_failed"),
				logging.Error(err),
			)
		}
		return bundle.Input{}, err
	}
	in := bundle.Input{State: state}
	if withContainer {
		packed, err := m.codec.Pack(ctx, s)
		if err != nil {
			return bundle.Input{}, err
		}
		in.Container = packed
	}
	rt, err := m.runtime(ctx)
	if err != nil {
		return bundle.Input{}, err
	}
	in.Runtime = rt
	return in, nil
}

func (m *Manager) runtime(ctx context.Context) (*engine.Runtime, error) {
	if !m.inline {
		return m.engine.Linked(), nil
	}
	return m.engine.Ready(ctx)
}

func (m *Manager) title(s story.Story, override string) string {
	if t := strings.TrimSpace(override); t != "" {
		return t
	}
	return s.Metadata.Title()
}

func modeOrDefault(mode bundle.Mode) bundle.Mode {
	if mode == "" {
		return bundle.ModeEmbed
	}
	return mode
}
