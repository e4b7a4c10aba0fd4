package zengl

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/zengl/glbuild"
)

// Uniform is a shader parameter that can be changed after compilation.
// A uniform may be used by any number of compiled jobs.
//
// Set methods are safe for concurrent use. They stage the value which is
// uploaded by the renderer before the next frame is drawn.
type Uniform struct {
	id   NodeID
	name string
	typ  GLType
	node *Node
	tex  *Texture

	mu      sync.Mutex
	value   []float32
	version uint64
	initErr error
}

// NewUniform creates a uniform of type typ. The initial value must hold
// typ.Components() floats; matrices are given in column-major order.
// Omitting the initial value zero-initializes the uniform.
func NewUniform(typ GLType, initial ...float32) *Uniform {
	u := &Uniform{
		id:      nextNodeID(),
		typ:     typ,
		value:   make([]float32, typ.Components()),
		version: 1,
	}
	u.name = "uniform" + strconv.FormatUint(uint64(u.id), 10)
	if len(initial) > 0 {
		u.initErr = u.setLocked(initial)
	}
	u.node = newLeaf("uniform", func(c *Context) Generated {
		if u.initErr != nil {
			c.Errorf("%s: %s", u.name, u.initErr)
		}
		c.reg.addUniforms(u)
		g := c.Emit(u.typ, "", u.name)
		g.Uniforms = []*Uniform{u}
		return g
	})
	return u
}

// Node returns the graph node reading the uniform.
func (u *Uniform) Node() *Node { return u.node }

// Name returns the GLSL identifier of the uniform.
func (u *Uniform) Name() string { return u.name }

// Type returns the GLSL type of the uniform.
func (u *Uniform) Type() GLType { return u.typ }

// Texture returns the texture sampled through the uniform, or nil for non-sampler uniforms.
func (u *Uniform) Texture() *Texture { return u.tex }

// Set stages a new value. The number of values must match the component count of the type.
func (u *Uniform) Set(values ...float32) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.setLocked(values)
}

func (u *Uniform) setLocked(values []float32) error {
	if u.tex != nil {
		return fmt.Errorf("%s: sampler uniform value is managed by its texture", u.name)
	} else if len(values) != len(u.value) {
		return fmt.Errorf("%s: %s uniform requires %d values, got %d", u.name, u.typ, len(u.value), len(values))
	}
	copy(u.value, values)
	u.version++
	return nil
}

// SetBool stages a boolean value.
func (u *Uniform) SetBool(b bool) error {
	var v float32
	if b {
		v = 1
	}
	return u.Set(v)
}

func (u *Uniform) SetVec2(v ms2.Vec) error { return u.Set(v.X, v.Y) }
func (u *Uniform) SetVec3(v ms3.Vec) error { return u.Set(v.X, v.Y, v.Z) }

// SetMat4 stages a row-major matrix, it is uploaded in column-major order.
func (u *Uniform) SetMat4(m ms3.Mat4) error {
	arr := m.Array()
	var buf [16]float32
	return u.Set(glbuild.ColumnMajor(buf[:0], 4, arr[:])...)
}

// Resend marks the last value as pending so it is uploaded again.
func (u *Uniform) Resend() {
	u.mu.Lock()
	u.version++
	u.mu.Unlock()
}

// Version returns the version of the last staged value.
func (u *Uniform) Version() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.version
}

// Value appends the current value to dst and returns it along with the value version.
// The version increases every time a value is staged.
func (u *Uniform) Value(dst []float32) ([]float32, uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append(dst, u.value...), u.version
}

// Color is a vec4 color parameter backed by three float uniforms.
type Color struct {
	r, g, b *Uniform
	node    *Node
}

// NewColor returns a color initialized to a 0xRRGGBB hex value.
func NewColor(hex uint32) *Color {
	c := &Color{
		r: NewUniform(TypeFloat, 0),
		g: NewUniform(TypeFloat, 0),
		b: NewUniform(TypeFloat, 0),
	}
	c.Set(hex)
	c.node = Vec4(c.r.Node(), c.g.Node(), c.b.Node(), Float(1))
	return c
}

// Node returns the vec4 color node with alpha set to 1.
func (c *Color) Node() *Node { return c.node }

// Set stages a new 0xRRGGBB color.
func (c *Color) Set(hex uint32) {
	r, g, b := HexRGB(hex)
	c.r.Set(r)
	c.g.Set(g)
	c.b.Set(b)
}

// HexRGB splits a 0xRRGGBB value into normalized color channels.
func HexRGB(hex uint32) (r, g, b float32) {
	r = float32(hex>>16&0xff) / 255
	g = float32(hex>>8&0xff) / 255
	b = float32(hex&0xff) / 255
	return r, g, b
}
