package mvs

import (
	"fmt"
	"sort"
)

// method describes one builder call available on a node kind.
type method struct {
	// child is the kind of node the call creates.
	child string
	// self makes the call return the receiving builder instead of the child.
	self bool
	// fixed params merged under the caller's params.
	fixed map[string]any
	// required params that must be present.
	required []string
	// defaults applied when a param is absent.
	defaults map[string]any
	// primitive adds a "primitive" child tagged with the method name.
	primitive bool
	// animation creates or reuses the snapshot animation root.
	animation bool
	// custom merges params into the receiving node's custom state.
	custom bool
}

var primitiveKinds = []string{"mesh", "lines", "tube", "arrow", "distance", "angle", "label", "ellipse", "ellipsoid", "box", "sphere"}

var methods = buildMethodTable()

func buildMethodTable() map[string]map[string]method {
	structure := func(kind string) method {
		return method{child: "structure", fixed: map[string]any{"type": kind}}
	}
	primitives := map[string]method{}
	for _, name := range primitiveKinds {
		primitives[name] = method{child: "primitive", self: true, primitive: true}
	}
	return map[string]map[string]method{
		"root": {
			"download":              {child: "download", required: []string{"url"}},
			"camera":                {child: "camera", self: true},
			"canvas":                {child: "canvas", self: true},
			"primitives":            {child: "primitives"},
			"primitivesFromUri":     {child: "primitives_from_uri", self: true, required: []string{"uri"}},
			"animation":             {child: "animation", animation: true},
			"extendRootCustomState": {self: true, custom: true},
		},
		"download": {
			"parse": {child: "parse", required: []string{"format"}},
		},
		"parse": {
			"modelStructure":         structure("model"),
			"assemblyStructure":      structure("assembly"),
			"symmetryStructure":      structure("symmetry"),
			"symmetryMatesStructure": structure("symmetry_mates"),
			"coordinates":            {child: "coordinates"},
			"volume":                 {child: "volume"},
		},
		"structure": {
			"component":           {child: "component", defaults: map[string]any{"selector": "all"}},
			"componentFromUri":    {child: "component_from_uri", required: []string{"uri"}},
			"componentFromSource": {child: "component_from_source"},
			"transform":           {child: "transform", self: true},
			"instance":            {child: "instance", self: true},
			"labelFromUri":        {child: "label_from_uri", self: true, required: []string{"uri"}},
			"labelFromSource":     {child: "label_from_source", self: true},
			"tooltipFromUri":      {child: "tooltip_from_uri", self: true, required: []string{"uri"}},
			"tooltipFromSource":   {child: "tooltip_from_source", self: true},
			"primitives":          {child: "primitives"},
			"primitivesFromUri":   {child: "primitives_from_uri", self: true, required: []string{"uri"}},
		},
		"component": {
			"representation": {child: "representation", defaults: map[string]any{"type": "cartoon"}},
			"label":          {child: "label", self: true, required: []string{"text"}},
			"tooltip":        {child: "tooltip", self: true, required: []string{"text"}},
			"focus":          {child: "focus", self: true},
		},
		"component_from_uri": {
			"representation": {child: "representation", defaults: map[string]any{"type": "cartoon"}},
			"label":          {child: "label", self: true, required: []string{"text"}},
			"tooltip":        {child: "tooltip", self: true, required: []string{"text"}},
			"focus":          {child: "focus", self: true},
		},
		"component_from_source": {
			"representation": {child: "representation", defaults: map[string]any{"type": "cartoon"}},
			"label":          {child: "label", self: true, required: []string{"text"}},
			"tooltip":        {child: "tooltip", self: true, required: []string{"text"}},
			"focus":          {child: "focus", self: true},
		},
		"representation": {
			"color":           {child: "color", self: true},
			"colorFromUri":    {child: "color_from_uri", self: true, required: []string{"uri"}},
			"colorFromSource": {child: "color_from_source", self: true},
			"opacity":         {child: "opacity", self: true, required: []string{"opacity"}},
			"clip":            {child: "clip", self: true},
		},
		"volume": {
			"representation": {child: "volume_representation", defaults: map[string]any{"type": "isosurface"}},
			"focus":          {child: "focus", self: true},
		},
		"volume_representation": {
			"color":   {child: "color", self: true},
			"opacity": {child: "opacity", self: true, required: []string{"opacity"}},
			"clip":    {child: "clip", self: true},
		},
		"primitives": primitives,
		"animation": {
			"interpolate": {child: "interpolate", self: true},
		},
	}
}

// MethodNames lists the builder calls available on a node kind, sorted.
func MethodNames(kind string) []string {
	table := methods[kind]
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder records the MVS tree for one scene.
type Builder struct {
	root      *Node
	animation *Node
}

// NewBuilder returns a builder with an empty root.
func NewBuilder() *Builder {
	return &Builder{root: &Node{Kind: "root"}}
}

// Root returns the root node of the tree built so far.
func (b *Builder) Root() *Node { return b.root }

// Animation returns the animation root, or nil when no animation was declared.
func (b *Builder) Animation() *Node { return b.animation }

// Call applies the builder method name to node with params and returns the
// node the caller should continue from.
func (b *Builder) Call(node *Node, name string, params map[string]any) (*Node, error) {
	spec, ok := methods[node.Kind][name]
	if !ok {
		return nil, fmt.Errorf("%s() is not available on a %s builder", name, node.Kind)
	}
	params = cloneParams(params)

	if spec.custom {
		if node.Custom == nil {
			node.Custom = map[string]any{}
		}
		for k, v := range params {
			node.Custom[k] = v
		}
		return node, nil
	}

	for _, key := range spec.required {
		if _, ok := params[key]; !ok {
			return nil, fmt.Errorf("%s() requires param %q", name, key)
		}
	}
	for key, value := range spec.defaults {
		if _, ok := params[key]; !ok {
			params[key] = value
		}
	}
	for key, value := range spec.fixed {
		params[key] = value
	}
	if spec.primitive {
		params["kind"] = name
	}

	child := &Node{Kind: spec.child}
	if ref, ok := params["ref"].(string); ok {
		child.Ref = ref
		delete(params, "ref")
	}
	if custom, ok := params["custom"].(map[string]any); ok {
		child.Custom = custom
		delete(params, "custom")
	}
	if len(params) > 0 {
		child.Params = params
	}

	if spec.animation {
		if b.animation == nil {
			b.animation = child
		} else if child.Params != nil {
			if b.animation.Params == nil {
				b.animation.Params = map[string]any{}
			}
			for k, v := range child.Params {
				b.animation.Params[k] = v
			}
		}
		return b.animation, nil
	}

	node.add(child)
	if spec.self {
		return node, nil
	}
	return child, nil
}

func cloneParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
