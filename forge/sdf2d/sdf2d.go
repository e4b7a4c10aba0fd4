// Package sdf2d builds 2D signed distance functions as zengl graphs.
//
// Every [Shape] compiles to a GLSL function taking a vec2 position and
// returning the signed distance to the shape boundary, negative inside.
// Shapes compose by calling each other so shared shapes are declared once.
package sdf2d

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/zengl"
)

const (
	sqrt3d2 = 0.8660254037844386467637231707529361834714026269051903140279034897
	// epstol is used to check for badly conditioned lengths.
	epstol = 6e-7
)

// Shape is a 2D signed distance function.
type Shape struct {
	fn *zengl.Node
}

// Func returns the function node of the shape, for use with [zengl.Call].
func (s Shape) Func() *zengl.Node { return s.fn }

// Distance returns a float node with the signed distance of the shape at pos, a vec2 node.
func Distance(s Shape, pos *zengl.Node) *zengl.Node { return zengl.Call(s.fn, pos) }

// Builder creates shapes. Invalid dimensions panic unless NoDimensionPanic
// is set, in which case they are accumulated and returned by [Builder.Err].
type Builder struct {
	NoDimensionPanic bool
	accumErrs        []error
}

func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if !bld.NoDimensionPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (*Builder) nilshape(msg string) {
	panic("empty shape argument: " + msg)
}

// Function names must be unique across every shape linked in a program.
var shapeCount atomic.Uint32

func defun(kind string, body *zengl.Node) Shape {
	name := kind + strconv.FormatUint(uint64(shapeCount.Add(1)), 10)
	return Shape{fn: zengl.Defun(name, body)}
}

// pos is the position parameter of shape functions.
func pos() *zengl.Node { return zengl.Argument("p", 0, zengl.TypeVec2) }

func f(v float32) *zengl.Node { return zengl.Float(v) }

func okDim(v float32) bool { return v > 0 && !math32.IsInf(v, 1) }

// NewCircle creates a circle of a radius centered at the origin (x,y)=(0,0).
func (bld *Builder) NewCircle(radius float32) Shape {
	if !okDim(radius) {
		bld.shapeErrorf("bad circle radius: %g", radius)
	}
	return defun("circle", zengl.Sub(zengl.Length(pos()), f(radius)))
}

// NewRectangle creates a rectangle centered at the origin of x by y dimensions.
func (bld *Builder) NewRectangle(x, y float32) Shape {
	if !okDim(x) || !okDim(y) {
		bld.shapeErrorf("bad rectangle dimension: %g,%g", x, y)
	}
	d := zengl.Sub(zengl.Abs(pos()), zengl.ConstVec2(ms2.Vec{X: x / 2, Y: y / 2}))
	outside := zengl.Length(zengl.Max(d, f(0)))
	inside := zengl.Min(zengl.Max(d.X(), d.Y()), f(0))
	return defun("rect", zengl.Add(outside, inside))
}

// NewLine creates a line segment from a to b of the given width with rounded ends.
func (bld *Builder) NewLine(a, b ms2.Vec, width float32) Shape {
	ba := ms2.Vec{X: b.X - a.X, Y: b.Y - a.Y}
	baba := ba.X*ba.X + ba.Y*ba.Y
	if !okDim(width) {
		bld.shapeErrorf("bad line width: %g", width)
	} else if baba < epstol*epstol {
		bld.shapeErrorf("line start and end too close: %v, %v", a, b)
		baba = 1
	}
	baNode := zengl.ConstVec2(ba)
	pa := zengl.Sub(pos(), zengl.ConstVec2(a))
	h := zengl.Clamp(zengl.Div(zengl.Dot(pa, baNode), f(baba)), f(0), f(1))
	return defun("line", zengl.Sub(zengl.Length(zengl.Sub(pa, zengl.Mult(baNode, h))), f(width/2)))
}

// NewHexagon creates a regular hexagon centered at the origin with flat top
// and bottom sides at a distance side from the center.
func (bld *Builder) NewHexagon(side float32) Shape {
	if !okDim(side) {
		bld.shapeErrorf("bad hexagon side: %g", side)
	}
	const kz = 0.577350269
	k := zengl.ConstVec2(ms2.Vec{X: -sqrt3d2, Y: 0.5})
	q := zengl.Abs(pos())
	q = zengl.Sub(q, zengl.Mult(f(2), zengl.Min(zengl.Dot(k, q), f(0)), k))
	q = zengl.Sub(q, zengl.Vec2(zengl.Clamp(q.X(), f(-kz*side), f(kz*side)), f(side)))
	return defun("hex", zengl.Mult(zengl.Length(q), zengl.Sign(q.Y())))
}

// Union joins the shapes into one.
func (bld *Builder) Union(shapes ...Shape) Shape {
	if len(shapes) < 2 {
		bld.shapeErrorf("union requires at least 2 shapes")
		if len(shapes) == 1 {
			return shapes[0]
		}
		return bld.NewCircle(1)
	}
	d := make([]*zengl.Node, len(shapes))
	for i, s := range shapes {
		if s.fn == nil {
			bld.nilshape("Union")
		}
		d[i] = Distance(s, pos())
	}
	u := d[0]
	for _, di := range d[1:] {
		u = zengl.Min(u, di)
	}
	return defun("union", u)
}

// Intersection keeps the area common to both shapes.
func (bld *Builder) Intersection(a, b Shape) Shape {
	if a.fn == nil || b.fn == nil {
		bld.nilshape("Intersection")
	}
	return defun("intersect", zengl.Max(Distance(a, pos()), Distance(b, pos())))
}

// Difference removes b from a.
func (bld *Builder) Difference(a, b Shape) Shape {
	if a.fn == nil || b.fn == nil {
		bld.nilshape("Difference")
	}
	return defun("diff", zengl.Max(Distance(a, pos()), zengl.Mult(Distance(b, pos()), f(-1))))
}

// SmoothUnion joins two shapes blending them over a distance k.
func (bld *Builder) SmoothUnion(k float32, a, b Shape) Shape {
	if a.fn == nil || b.fn == nil {
		bld.nilshape("SmoothUnion")
	} else if !okDim(k) {
		bld.shapeErrorf("bad smooth union blend: %g", k)
	}
	d1, d2 := Distance(a, pos()), Distance(b, pos())
	h := zengl.Clamp(zengl.Add(f(0.5), zengl.Div(zengl.Mult(f(0.5), zengl.Sub(d2, d1)), f(k))), f(0), f(1))
	blend := zengl.Mult(f(k), h, zengl.Sub(f(1), h))
	return defun("smoothUnion", zengl.Sub(zengl.Mix(d2, d1, h), blend))
}

// Annulus hollows the shape, leaving a band of the given thickness centered on its boundary.
func (bld *Builder) Annulus(s Shape, thickness float32) Shape {
	if s.fn == nil {
		bld.nilshape("Annulus")
	} else if !okDim(thickness) {
		bld.shapeErrorf("bad annulus thickness: %g", thickness)
	}
	return defun("annulus", zengl.Sub(zengl.Abs(Distance(s, pos())), f(thickness/2)))
}

// Translate moves the shape by offset, a vec2 node. Use a uniform to animate it.
func (bld *Builder) Translate(s Shape, offset *zengl.Node) Shape {
	if s.fn == nil || offset == nil {
		bld.nilshape("Translate")
	}
	return defun("translate", Distance(s, zengl.Sub(pos(), offset)))
}

// Scale scales the shape uniformly by factor, a float node.
func (bld *Builder) Scale(s Shape, factor *zengl.Node) Shape {
	if s.fn == nil || factor == nil {
		bld.nilshape("Scale")
	}
	return defun("scale", zengl.Mult(Distance(s, zengl.Div(pos(), factor)), factor))
}

// Rotate rotates the shape counter-clockwise by angle radians, a float node.
func (bld *Builder) Rotate(s Shape, angle *zengl.Node) Shape {
	if s.fn == nil || angle == nil {
		bld.nilshape("Rotate")
	}
	c, sn := zengl.Cos(angle), zengl.Sin(angle)
	p := pos()
	// Inverse rotation of the sample position.
	x := zengl.Add(zengl.Mult(c, p.X()), zengl.Mult(sn, p.Y()))
	y := zengl.Sub(zengl.Mult(c, p.Y()), zengl.Mult(sn, p.X()))
	return defun("rotate", Distance(s, zengl.Vec2(x, y)))
}

// Fill returns inside where the distance d is negative and outside elsewhere.
func Fill(d, inside, outside *zengl.Node) *zengl.Node {
	return zengl.Mix(inside, outside, zengl.Step(f(0), d))
}

// ColorInigoQuilez colors the distance d in [Inigo Quilez]'s style with
// isolines spaced by characteristicDistance. A good value for characteristic
// distance is the shape size divided by 3. The result is a vec4 color.
//
// [Inigo Quilez]: https://iquilezles.org/articles/distfunctions2d/
func ColorInigoQuilez(d *zengl.Node, characteristicDistance float32) *zengl.Node {
	d = zengl.Div(d, f(characteristicDistance))
	ad := zengl.Abs(d)
	outside := zengl.ConstVec3(ms3.Vec{X: 0.9, Y: 0.6, Z: 0.3})
	inside := zengl.ConstVec3(ms3.Vec{X: 0.65, Y: 0.85, Z: 1.0})
	col := zengl.Switch(zengl.Gt(d, f(0)), outside, inside)
	col = zengl.Mult(col, zengl.Sub(f(1), zengl.Exp(zengl.Mult(f(-6), ad))))
	col = zengl.Mult(col, zengl.Add(f(0.8), zengl.Mult(f(0.2), zengl.Cos(zengl.Mult(f(150), d)))))
	edge := zengl.Sub(f(1), zengl.Smoothstep(f(0), f(0.01), ad))
	col = zengl.Mix(col, zengl.ConstVec3(ms3.Vec{X: 1, Y: 1, Z: 1}), edge)
	return zengl.Vec4(col, f(1))
}
