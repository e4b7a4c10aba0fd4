package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/zengl"
	"github.com/soypat/zengl/forge/sdf2d"
	"github.com/soypat/zengl/glbuild/glsllib"
	"github.com/soypat/zengl/zenaux"
)

type demo struct {
	jobs   []*zengl.Job
	params params
	// time is updated with the elapsed seconds every frame.
	time *zengl.Uniform
}

type demoFunc func(time *zengl.Uniform) (jobs []*zengl.Job, ps params)

var demos = map[string]struct {
	desc  string
	build demoFunc
}{
	"uv":        {"canvas coordinates as colors", uvDemo},
	"sdf":       {"2D signed distance shapes with isolines", sdfDemo},
	"warp":      {"domain warping with a uniform bounded loop", warpDemo},
	"feedback":  {"orbiting dot leaving a trail through a feedback texture", feedbackDemo},
	"instanced": {"grid of instanced quads with per instance colors", instancedDemo},
}

func demoNames() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newDemo(name string) (*demo, error) {
	d, ok := demos[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo %q, available: %v", name, demoNames())
	}
	t := zengl.NewUniform(zengl.TypeFloat)
	jobs, ps := d.build(t)
	for i, job := range jobs {
		if err := job.Err(); err != nil {
			return nil, fmt.Errorf("demo %s job %d: %w", name, i, err)
		}
	}
	return &demo{jobs: jobs, params: ps, time: t}, nil
}

func uvDemo(t *zengl.Uniform) ([]*zengl.Job, params) {
	nuv := zengl.NUV()
	blue := zengl.Add(zengl.Float(0.5), zengl.Mult(zengl.Float(0.5), zengl.Sin(t.Node())))
	color := zengl.Vec4(nuv.X(), nuv.Y(), blue, zengl.Float(1))
	return []*zengl.Job{zengl.Compile(color, nil, zengl.TriangleStrip)}, nil
}

func sdfDemo(t *zengl.Uniform) ([]*zengl.Job, params) {
	var bld sdf2d.Builder
	offset := zengl.NewUniform(zengl.TypeVec2, 0.3, 0)
	scale := zengl.NewUniform(zengl.TypeFloat, 1)
	circle := bld.Translate(bld.NewCircle(0.25), offset.Node())
	hex := bld.Rotate(bld.NewHexagon(0.2), t.Node())
	bar := bld.NewLine(ms2.Vec{X: -0.6, Y: -0.4}, ms2.Vec{X: 0.6, Y: -0.4}, 0.05)
	shape := bld.Union(bld.SmoothUnion(0.1, circle, hex), bar)
	shape = bld.Scale(bld.Annulus(shape, 0.04), scale.Node())
	color := sdf2d.ColorInigoQuilez(sdf2d.Distance(shape, zengl.UV()), 0.3)
	return []*zengl.Job{zengl.Compile(color, nil, zengl.TriangleStrip)}, params{
		"offset": offset,
		"scale":  scale,
	}
}

func warpDemo(t *zengl.Uniform) ([]*zengl.Job, params) {
	iterations := zengl.NewUniform(zengl.TypeFloat, 6)
	freq := zengl.NewUniform(zengl.TypeFloat, 2)
	acc := zengl.LoopAccumulator("warp", zengl.Mult(zengl.UV(), freq.Node()))
	step := zengl.Mult(zengl.Sin(zengl.Add(zengl.Swizzle(acc, "yx"), t.Node())), zengl.Float(0.4))
	w := zengl.SumLoop(step, iterations.Node(), nil)
	rgb := zengl.Vec3(w.X(), w.Y(), zengl.Add(w.X(), w.Y()))
	color := zengl.Vec4(zengl.Add(zengl.Float(0.5), zengl.Mult(zengl.Float(0.5), zengl.Cos(rgb))), zengl.Float(1))
	return []*zengl.Job{zengl.Compile(color, nil, zengl.TriangleStrip)}, params{
		"iterations": iterations,
		"frequency":  freq,
	}
}

func feedbackDemo(t *zengl.Uniform) ([]*zengl.Job, params) {
	fb := zengl.NewFeedbackTexture()
	decay := zengl.NewUniform(zengl.TypeFloat, 0.96)
	radius := zengl.NewUniform(zengl.TypeFloat, 0.05)
	col := zengl.NewUniform(zengl.TypeVec3, 1, 0.4, 0.1)
	center := zengl.Mult(zengl.Vec2(zengl.Cos(t.Node()), zengl.Sin(zengl.Mult(t.Node(), zengl.Float(1.3)))), zengl.Float(0.6))
	d := zengl.Sub(zengl.Distance(zengl.UV(), center), radius.Node())
	dot := sdf2d.Fill(d, zengl.Vec4(col.Node(), zengl.Float(1)), zengl.Black())
	trail := zengl.Mult(zengl.Texture2D(fb.Node(), zengl.NUV()), decay.Node())
	return []*zengl.Job{zengl.Compile(zengl.Max(trail, dot), nil, zengl.TriangleStrip)}, params{
		"decay":  decay,
		"radius": radius,
		"color":  col,
	}
}

func instancedDemo(t *zengl.Uniform) ([]*zengl.Job, params) {
	const n = 8
	offsets := make([]float32, 0, 2*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			offsets = append(offsets, (float32(i)+0.5)*2/n-1, (float32(j)+0.5)*2/n-1)
		}
	}
	quad := zengl.NewAttribute(zengl.TypeVec2, glsllib.QuadVertices(), 2, false)
	offset := zengl.NewAttribute(zengl.TypeVec2, offsets, 2, true)
	colors := zenaux.ColorAttribute(zenaux.Gradient(0x2060ff, 0xff6020, n*n), true)
	size := zengl.NewUniform(zengl.TypeFloat, 0.8/n)
	wobble := zengl.Mult(zengl.Sin(zengl.Add(t.Node(), zengl.Mult(offset.Node().X(), zengl.Float(math.Pi)))), zengl.Float(0.2))
	scale := zengl.Mult(size.Node(), zengl.Add(zengl.Float(1), wobble))
	pos := zengl.Add(zengl.Mult(quad.Node(), scale), offset.Node())
	vertex := zengl.Vec4(pos, zengl.Float(0), zengl.Float(1))
	fragment := zengl.Vec4(zengl.Varying(colors.Node()), zengl.Float(1))
	job := zengl.CompileStagePair(vertex, fragment, zengl.Options{Mode: zengl.TriangleStrip})
	return []*zengl.Job{job}, params{"size": size}
}
