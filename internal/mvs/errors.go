package mvs

import (
	"fmt"
	"strings"
)

// SceneError reports a scene whose script could not be compiled.
type SceneError struct {
	SceneID string
	Index   int
	Header  string
	Script  string
	Err     error
}

func (e *SceneError) Error() string {
	return fmt.Sprintf("scene %d (%s): %v", e.Index, e.SceneID, e.Err)
}

func (e *SceneError) Unwrap() error { return e.Err }

// CompileError collects every scene that failed during a story compile.
type CompileError struct {
	Scenes []*SceneError
}

func (e *CompileError) Error() string {
	switch len(e.Scenes) {
	case 0:
		return "compile failed"
	case 1:
		return "compile failed: " + e.Scenes[0].Error()
	}
	msgs := make([]string, 0, len(e.Scenes))
	for _, s := range e.Scenes {
		msgs = append(msgs, s.Error())
	}
	return fmt.Sprintf("compile failed for %d scenes: %s", len(e.Scenes), strings.Join(msgs, "; "))
}

func (e *CompileError) Unwrap() []error {
	errs := make([]error, 0, len(e.Scenes))
	for _, s := range e.Scenes {
		errs = append(errs, s)
	}
	return errs
}
