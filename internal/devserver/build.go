package devserver

import (
	"context"
	"errors"
	"time"

	"mvstories/internal/bundle"
	"mvstories/internal/engine"
	"mvstories/internal/logging"
	"mvstories/internal/mvs"
	"mvstories/internal/storyfolder"
)

// SceneFailure describes one scene that failed the latest build.
type SceneFailure struct {
	SceneID string `json:"scene_id"`
	Index   int    `json:"index"`
	Header  string `json:"header,omitempty"`
	Error   string `json:"error"`
}

// Status reports the outcome of the latest build.
type Status struct {
	Dir         string         `json:"dir"`
	Title       string         `json:"title,omitempty"`
	Format      mvs.Format     `json:"format,omitempty"`
	Scenes      int            `json:"scenes"`
	Assets      int            `json:"assets"`
	Builds      int            `json:"builds"`
	OK          bool           `json:"ok"`
	LastBuild   time.Time      `json:"last_build"`
	LastSuccess *time.Time     `json:"last_success,omitempty"`
	Elapsed     string         `json:"elapsed,omitempty"`
	Error       string         `json:"error,omitempty"`
	Failures    []SceneFailure `json:"scene_errors,omitempty"`
}

// build is a successfully compiled folder.
type build struct {
	title     string
	state     *mvs.State
	payload   []byte
	container []byte
	page      []byte
	assets    int
}

// Rebuild parses and compiles the folder. On success the preview switches
// to the new build and pages are told to reload; on failure the previous
// build stays live.
func (s *Server) Rebuild(ctx context.Context) Status {
	s.init()
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	started := time.Now()
	next, failures, err := s.compile(ctx)

	s.mu.Lock()
	s.status.Builds++
	s.status.LastBuild = started
	s.status.Elapsed = time.Since(started).Round(time.Millisecond).String()
	if err != nil {
		s.status.OK = false
		s.status.Error = err.Error()
		s.status.Failures = failures
	} else {
		s.current = next
		s.status.OK = true
		s.status.Error = ""
		s.status.Failures = nil
		s.status.Title = next.title
		s.status.Format = next.state.Format()
		s.status.Scenes = len(next.state.Data.Snapshots)
		s.status.Assets = next.assets
		success := started
		s.status.LastSuccess = &success
	}
	status := s.status
	s.mu.Unlock()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("story build failed",
				logging.String(logging.FieldEventType, "preview_build_failed"),
				logging.Int("failed_scenes", len(failures)),
				logging.Error(err),
			)
			s.hub.broadcast(message{Type: "error", Error: err.Error(), Scenes: failures})
		}
		return status
	}
	s.logger.Info("story rebuilt",
		logging.String("title", status.Title),
		logging.String("format", string(status.Format)),
		logging.Int("scenes", status.Scenes),
		logging.String("elapsed", status.Elapsed),
	)
	s.hub.broadcast(message{Type: "reload"})
	return status
}

func (s *Server) compile(ctx context.Context) (*build, []SceneFailure, error) {
	st, err := storyfolder.Parse(s.Dir)
	if err != nil {
		return nil, nil, err
	}
	state, err := s.Services.Compiler.CompileStory(ctx, st)
	if err != nil {
		var compileErr *mvs.CompileError
		if !errors.As(err, &compileErr) {
			return nil, nil, err
		}
		failures := make([]SceneFailure, 0, len(compileErr.Scenes))
		for _, scene := range compileErr.Scenes {
			failures = append(failures, SceneFailure{
				SceneID: scene.SceneID,
				Index:   scene.Index,
				Header:  scene.Header,
				Error:   scene.Err.Error(),
			})
		}
		return nil, failures, err
	}
	payload, err := state.Bytes()
	if err != nil {
		return nil, nil, err
	}
	packed, err := s.Services.Codec.Pack(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	title := st.Metadata.Title()

	b := &build{title: title, state: state, payload: payload, container: packed, assets: len(st.Assets)}
	if s.DirectServe {
		return b, nil, nil
	}
	page, err := bundle.RenderBytes(bundle.Input{State: state, Runtime: s.runtime(ctx)}, bundle.Options{
		Title:       title,
		Inline:      s.Services.Inline,
		DataPath:    dataPath(state.Format()),
		SessionPath: "/" + sessionFile,
		Extra:       reloadScript,
	})
	if err != nil {
		return nil, nil, err
	}
	b.page = page
	return b, nil, nil
}

// runtime prefers the inlined bundle and falls back to CDN links when it
// cannot be fetched.
func (s *Server) runtime(ctx context.Context) *engine.Runtime {
	if !s.Services.Inline {
		return s.Services.Engine.Linked()
	}
	rt, err := s.Services.Engine.Ready(ctx)
	if err != nil {
		s.logger.Warn("viewer bundle unavailable; linking CDN",
			logging.String(logging.FieldEventType, "engine_fallback"),
			logging.Error(err),
		)
		s.Services.Engine.Reset()
		return s.Services.Engine.Linked()
	}
	return rt
}

// Status returns the outcome of the latest build.
func (s *Server) Status() Status {
	s.init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.status
	out.Failures = append([]SceneFailure(nil), s.status.Failures...)
	return out
}

func (s *Server) currentBuild() *build {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func dataPath(format mvs.Format) string {
	return "/story." + string(format)
}
