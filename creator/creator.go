// Package creator builds tasks from tengo scripts. A script sees width and
// height and the helpers box, ball, polygon and compound, and must set
// bodies, body1, body2 and relationships. It may also set phantom and
// description. Multi-line arrays close on the line of their last element;
// tengo rejects a trailing comma.
package creator

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

const (
	SceneWidth  = 256
	SceneHeight = 256
)

var ErrBadScript = errors.New("creator: bad task script")

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

const prelude = `
__body := func(kind, geo, opts) {
	m := {kind: kind}
	for k, v in geo { m[k] = v }
	if len(opts) > 0 {
		for k, v in opts[0] { m[k] = v }
	}
	return m
}
box := func(x, y, w, h, ...opts) { return __body("box", {x: x, y: y, width: w, height: h}, opts) }
ball := func(x, y, r, ...opts) { return __body("ball", {x: x, y: y, radius: r}, opts) }
polygon := func(x, y, vertices, ...opts) { return __body("polygon", {x: x, y: y, vertices: vertices}, opts) }
compound := func(x, y, parts, ...opts) { return __body("compound", {x: x, y: y, parts: parts}, opts) }
phantom := undefined
description := ""
`

// Build runs src and converts its globals into a task with the given id.
func Build(id string, src []byte) (*task.Task, error) {
	script := tengo.NewScript([]byte(prelude + "\n" + string(src)))
	_ = script.Add("width", SceneWidth)
	_ = script.Add("height", SceneHeight)
	script.SetImports(stdlib.GetModuleMap("math", "text"))

	compiled, err := script.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadScript, id, err)
	}
	for _, name := range []string{"bodies", "body1", "body2", "relationships"} {
		if !compiled.IsDefined(name) {
			return nil, fmt.Errorf("%w: %s: %s is not set", ErrBadScript, id, name)
		}
	}

	t := &task.Task{
		TaskID:      id,
		Scene:       scene.Scene{Width: SceneWidth, Height: SceneHeight},
		BodyID1:     int32(compiled.Get("body1").Int()),
		BodyID2:     int32(compiled.Get("body2").Int()),
		Description: compiled.Get("description").String(),
	}
	for i, raw := range compiled.Get("bodies").Array() {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s: bodies[%d] is not a map", ErrBadScript, id, i)
		}
		b, err := bodyFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bodies[%d]: %w", ErrBadScript, id, i, err)
		}
		t.Scene.Bodies = append(t.Scene.Bodies, b)
	}
	for _, raw := range compiled.Get("relationships").Array() {
		name, _ := raw.(string)
		rel, err := task.ParseRelationship(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadScript, id, err)
		}
		t.Relationships = append(t.Relationships, rel)
	}
	if v := compiled.Get("phantom"); !v.IsUndefined() {
		verts, err := vertices(v.Value())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: phantom: %w", ErrBadScript, id, err)
		}
		sh := scene.PolygonShape(verts...)
		t.PhantomShape = &sh
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("creator: %s: %w", id, err)
	}
	return t, nil
}

func bodyFromMap(m map[string]any) (scene.Body, error) {
	x, y := number(m["x"]), number(m["y"])
	angle := number(m["angle"])
	dynamic, _ := m["dynamic"].(bool)

	var b scene.Body
	switch kind, _ := m["kind"].(string); kind {
	case "box":
		w, h := number(m["width"]), number(m["height"])
		if w <= 0 || h <= 0 {
			return b, fmt.Errorf("box needs positive width and height")
		}
		b = scene.BuildBox(x, y, w, h, angle, dynamic)
		b.Diameter = max(w, h)
	case "ball":
		r := number(m["radius"])
		if r <= 0 {
			return b, fmt.Errorf("ball needs a positive radius")
		}
		b = scene.BuildCircle(x, y, r, dynamic)
	case "polygon":
		verts, err := vertices(m["vertices"])
		if err != nil {
			return b, err
		}
		b = scene.BuildPolygon(x, y, verts, angle, dynamic)
	case "compound":
		parts, ok := m["parts"].([]any)
		if !ok || len(parts) == 0 {
			return b, fmt.Errorf("compound needs a list of parts")
		}
		b = scene.BuildPolygon(x, y, nil, angle, dynamic)
		b.Shapes = b.Shapes[:0]
		for i, part := range parts {
			verts, err := vertices(part)
			if err != nil {
				return b, fmt.Errorf("part %d: %w", i, err)
			}
			b.Shapes = append(b.Shapes, scene.PolygonShape(verts...))
		}
	default:
		return b, fmt.Errorf("unknown kind %q", kind)
	}

	if s, ok := m["color"].(string); ok {
		if err := b.Color.UnmarshalText([]byte(s)); err != nil {
			return b, err
		}
	}
	if s, ok := m["shape_type"].(string); ok {
		if err := b.ShapeType.UnmarshalText([]byte(s)); err != nil {
			return b, err
		}
	}
	if d, ok := m["diameter"]; ok {
		b.Diameter = number(d)
	}
	return b, nil
}

func vertices(v any) ([]scene.Vector, error) {
	list, ok := v.([]any)
	if !ok || len(list) < 3 {
		return nil, fmt.Errorf("need at least three [x, y] vertices")
	}
	out := make([]scene.Vector, len(list))
	for i, p := range list {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("vertex %d is not an [x, y] pair", i)
		}
		out[i] = scene.Vector{X: number(pair[0]), Y: number(pair[1])}
	}
	return out, nil
}

func number(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// Names lists the embedded scripts without their extension.
func Names() []string {
	entries, _ := fs.ReadDir(ScriptsFS, "scripts")
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".tengo"))
	}
	sort.Strings(names)
	return names
}

// BuildEmbedded builds an embedded script by name. The task id is the name.
func BuildEmbedded(name string) (*task.Task, error) {
	src, err := ScriptsFS.ReadFile(path.Join("scripts", strings.TrimSuffix(name, ".tengo")+".tengo"))
	if err != nil {
		return nil, fmt.Errorf("creator: %w", err)
	}
	return Build(name, src)
}
