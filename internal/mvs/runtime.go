package mvs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

// sceneRuntime binds one builder into a fresh goja runtime.
type sceneRuntime struct {
	vm      *goja.Runtime
	builder *Builder
	logger  *slog.Logger
}

func newSceneRuntime(logger *slog.Logger) (*sceneRuntime, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	rt := &sceneRuntime{vm: vm, builder: NewBuilder(), logger: logger}
	if err := rt.installConsole(); err != nil {
		return nil, err
	}
	prog, err := libraryProgram()
	if err != nil {
		return nil, err
	}
	if _, err := vm.RunProgram(prog); err != nil {
		return nil, fmt.Errorf("load script library: %w", err)
	}
	return rt, nil
}

func (rt *sceneRuntime) installConsole() error {
	console := rt.vm.NewObject()
	bind := func(name string, level slog.Level) error {
		return console.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, 0, len(call.Arguments))
			for _, arg := range call.Arguments {
				parts = append(parts, rt.display(arg))
			}
			rt.logger.Log(context.Background(), level, strings.Join(parts, " "), "source", "console")
			return goja.Undefined()
		})
	}
	for name, level := range map[string]slog.Level{
		"log":   slog.LevelInfo,
		"info":  slog.LevelInfo,
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		if err := bind(name, level); err != nil {
			return err
		}
	}
	return rt.vm.Set("console", console)
}

func (rt *sceneRuntime) display(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() != "Function" && obj.ClassName() != "Error" {
		if raw, err := json.Marshal(sanitize(obj.Export())); err == nil {
			return string(raw)
		}
	}
	return v.String()
}

// wrap exposes node to scripts as a builder object.
func (rt *sceneRuntime) wrap(node *Node) *goja.Object {
	obj := rt.vm.NewObject()
	for _, name := range MethodNames(node.Kind) {
		name := name
		_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
			params := rt.params(call.Argument(0))
			next, err := rt.builder.Call(node, name, params)
			if err != nil {
				panic(rt.vm.NewTypeError(err.Error()))
			}
			if next == node {
				return call.This
			}
			return rt.wrap(next)
		})
	}
	return obj
}

// rootObject is the builder handed to scene scripts.
func (rt *sceneRuntime) rootObject() *goja.Object {
	obj := rt.wrap(rt.builder.Root())
	_ = obj.Set("getState", func(goja.FunctionCall) goja.Value {
		state := map[string]any{
			"kind":     "single",
			"root":     rt.builder.Root(),
			"metadata": map[string]any{"version": DefaultVersion},
		}
		return rt.jsonValue(state)
	})
	_ = obj.Set("getSnapshot", func(call goja.FunctionCall) goja.Value {
		snap := map[string]any{
			"root":     rt.builder.Root(),
			"metadata": rt.params(call.Argument(0)),
		}
		if anim := rt.builder.Animation(); anim != nil {
			snap["animation"] = anim
		}
		return rt.jsonValue(snap)
	})
	return obj
}

func (rt *sceneRuntime) params(v goja.Value) map[string]any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return map[string]any{}
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		panic(rt.vm.NewTypeError("builder params must be an object"))
	}
	out, ok := sanitize(obj.Export()).(map[string]any)
	if !ok {
		panic(rt.vm.NewTypeError("builder params must be an object"))
	}
	return out
}

// jsonValue hands a Go value to scripts as plain JS data.
func (rt *sceneRuntime) jsonValue(v any) goja.Value {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(rt.vm.NewGoError(err))
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		panic(rt.vm.NewGoError(err))
	}
	return rt.vm.ToValue(plain)
}

// sanitize drops function values and normalises exported containers.
func sanitize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if isFunc(item) {
				continue
			}
			out[k] = sanitize(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if isFunc(item) {
				out = append(out, nil)
				continue
			}
			out = append(out, sanitize(item))
		}
		return out
	default:
		return v
	}
}

func isFunc(v any) bool {
	_, ok := v.(func(goja.FunctionCall) goja.Value)
	return ok
}
