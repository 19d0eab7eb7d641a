package mvs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/sync/errgroup"

	"mvstories/internal/logging"
	"mvstories/internal/story"
	"mvstories/internal/storyerr"
)

// DefaultSceneTimeout bounds a single scene script.
const DefaultSceneTimeout = 10 * time.Second

const component = "mvs"

// Compiler turns stories into MVS state.
type Compiler struct {
	// Timeout bounds each scene script; zero uses DefaultSceneTimeout.
	Timeout time.Duration
	// Workers limits how many scenes compile concurrently; zero uses GOMAXPROCS.
	Workers int
	// Version is recorded in the document metadata; empty uses DefaultVersion.
	Version string
	Logger  *slog.Logger
	// Now stamps the document; nil uses time.Now.
	Now func() time.Time
}

// CompileStory compiles every scene of s. Failed scenes are omitted from the
// returned state and reported together in a *CompileError. The state is nil
// only when ctx is cancelled.
func (c *Compiler) CompileStory(ctx context.Context, s story.Story) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := c.logger()
	started := time.Now()

	snapshots := make([]*Snapshot, len(s.Scenes))
	failures := make([]*SceneError, len(s.Scenes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i, scene := range s.Scenes {
		g.Go(func() error {
			snap, err := c.CompileScene(gctx, s.JavaScript, scene, i)
			if err != nil {
				var sceneErr *SceneError
				if !errors.As(err, &sceneErr) {
					sceneErr = &SceneError{SceneID: scene.ID, Index: i, Header: scene.Header, Err: err}
				}
				failures[i] = sceneErr
				return nil
			}
			snapshots[i] = snap
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := newData(s.Metadata.Title(), c.version(), c.now())
	for _, snap := range snapshots {
		if snap != nil {
			data.Snapshots = append(data.Snapshots, *snap)
		}
	}
	state := &State{Data: data}

	if len(s.Assets) > 0 {
		index, err := state.JSON()
		if err != nil {
			return nil, storyerr.Wrap(storyerr.ErrValidation, component, "compile", "encode mvsj", err)
		}
		archive, err := buildArchive(index, s.Assets, c.now())
		if err != nil {
			return nil, storyerr.Wrap(storyerr.ErrValidation, component, "compile", "build mvsx", err)
		}
		state.Archive = archive
	}

	var failed []*SceneError
	for _, f := range failures {
		if f != nil {
			failed = append(failed, f)
		}
	}
	logger.Info("story compiled",
		logging.Int("scenes", len(s.Scenes)),
		logging.Int("snapshots", len(data.Snapshots)),
		logging.Int("failed", len(failed)),
		logging.String("format", string(state.Format())),
		logging.Elapsed(started),
	)
	if len(failed) > 0 {
		return state, &CompileError{Scenes: failed}
	}
	return state, nil
}

// CompileScene runs one scene script, with globalJS prepended, and returns
// its snapshot. Failures are returned as *SceneError.
func (c *Compiler) CompileScene(ctx context.Context, globalJS string, scene story.Scene, index int) (*Snapshot, error) {
	fail := func(err error) (*Snapshot, error) {
		return nil, &SceneError{SceneID: scene.ID, Index: index, Header: scene.Header, Script: scene.JavaScript, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	logger := c.logger().With(logging.SceneID(scene.ID), logging.Int("scene_index", index))

	builder, err := c.runScript(ctx, logger, globalJS, scene, index)
	if err != nil {
		logger.Warn("scene script failed",
			logging.String(logging.FieldEventType, "scene_failed"),
			logging.Error(err),
		)
		return fail(err)
	}

	root := builder.Root()
	if scene.Camera != nil {
		root.add(&Node{Kind: "camera", Params: cameraParams(*scene.Camera)})
	}

	snap := &Snapshot{
		Root:      root,
		Animation: builder.Animation(),
		Metadata: SnapshotMetadata{
			Title:                scene.Header,
			Key:                  strings.TrimSpace(scene.Key),
			Description:          scene.Description,
			DescriptionFormat:    "markdown",
			LingerDurationMs:     scene.LingerDurationMs,
			TransitionDurationMs: scene.TransitionDurationMs,
		},
	}
	if snap.Metadata.LingerDurationMs == 0 {
		snap.Metadata.LingerDurationMs = DefaultLingerDurationMs
	}
	if snap.Metadata.TransitionDurationMs == 0 {
		snap.Metadata.TransitionDurationMs = DefaultTransitionDurationMs
	}
	logger.Debug("scene compiled", logging.Int("nodes", root.Count()))
	return snap, nil
}

func (c *Compiler) runScript(ctx context.Context, logger *slog.Logger, globalJS string, scene story.Scene, index int) (*Builder, error) {
	rt, err := newSceneRuntime(logger)
	if err != nil {
		return nil, storyerr.Wrap(storyerr.ErrUnavailable, component, "compile_scene", "init runtime", err).WithSubject(scene.ID)
	}

	source := "(async function (builder, index, __lib__) {\n" + globalJS + "\n" + scene.JavaScript + "\n})"
	prog, err := goja.Compile(fmt.Sprintf("scene_%d.js", index), source, false)
	if err != nil {
		return nil, storyerr.Wrap(storyerr.ErrScript, component, "compile_scene", "syntax error", err).WithSubject(scene.ID)
	}

	timer := time.AfterFunc(c.timeout(), func() { rt.vm.Interrupt(storyerr.ErrTimeout) })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { rt.vm.Interrupt(ctx.Err()) })
	defer stop()

	fnValue, err := rt.vm.RunProgram(prog)
	if err != nil {
		return nil, c.scriptError(ctx, scene.ID, err)
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return nil, storyerr.Wrap(storyerr.ErrScript, component, "compile_scene", "scene wrapper is not callable", nil).WithSubject(scene.ID)
	}
	lib := rt.vm.Get("__lib__")
	result, err := fn(goja.Undefined(), rt.rootObject(), rt.vm.ToValue(index), lib)
	if err != nil {
		return nil, c.scriptError(ctx, scene.ID, err)
	}

	if promise, ok := result.Export().(*goja.Promise); ok {
		switch promise.State() {
		case goja.PromiseStateRejected:
			return nil, storyerr.Wrap(storyerr.ErrScript, component, "compile_scene", "", errors.New(rejectionMessage(promise.Result()))).WithSubject(scene.ID)
		case goja.PromiseStatePending:
			return nil, storyerr.Wrap(storyerr.ErrScript, component, "compile_scene", "script did not settle", nil).WithSubject(scene.ID)
		}
	}
	return rt.builder, nil
}

func (c *Compiler) scriptError(ctx context.Context, sceneID string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return storyerr.Wrap(storyerr.ErrTimeout, component, "compile_scene", "cancelled", ctxErr).WithSubject(sceneID)
		}
		return storyerr.Wrap(storyerr.ErrTimeout, component, "compile_scene",
			fmt.Sprintf("script exceeded %s", c.timeout()), nil).WithSubject(sceneID)
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		return storyerr.Wrap(storyerr.ErrScript, component, "compile_scene", "", errors.New(rejectionMessage(exception.Value()))).WithSubject(sceneID)
	}
	return storyerr.Wrap(storyerr.ErrScript, component, "compile_scene", "", err).WithSubject(sceneID)
}

func rejectionMessage(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		name := obj.Get("name")
		msg := obj.Get("message")
		if msg != nil && !goja.IsUndefined(msg) {
			if name != nil && !goja.IsUndefined(name) {
				return name.String() + ": " + msg.String()
			}
			return msg.String()
		}
	}
	return v.String()
}

func (c *Compiler) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(c.Logger, component)
}

func (c *Compiler) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultSceneTimeout
	}
	return c.Timeout
}

func (c *Compiler) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(runtime.GOMAXPROCS(0), 1)
}

func (c *Compiler) version() string {
	if v := strings.TrimSpace(c.Version); v != "" {
		return v
	}
	return DefaultVersion
}

func (c *Compiler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
