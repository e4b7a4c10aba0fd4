//go:build !tinygo && cgo

package gldevice

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/soypat/glgl/v4.1-core/glgl"
	"github.com/soypat/zengl"
	"github.com/soypat/zengl/glbuild/glsllib"
	"github.com/soypat/zengl/glrender"
)

// Device issues OpenGL 4.1 core calls on the current context.
type Device struct {
	vao      uint32
	programs map[glrender.Program]glgl.Program
	// enabled holds the attribute arrays enabled since the last UseProgram.
	enabled []uint32
}

// newDevice must be called with a current OpenGL context after gl.Init.
func newDevice() *Device {
	d := &Device{programs: make(map[glrender.Program]glgl.Program)}
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return d
}

// InstancingSupported is always true, instanced drawing is core since OpenGL 3.3.
func (d *Device) InstancingSupported() bool { return true }

func (d *Device) CompileProgram(vertex, fragment string) (glrender.Program, error) {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   glsllib.UpgradeES100(vertex, true),
		Fragment: glsllib.UpgradeES100(fragment, false),
	})
	if err != nil {
		return 0, err
	}
	p := glrender.Program(prog.ID())
	d.programs[p] = prog
	return p, nil
}

func (d *Device) DeleteProgram(p glrender.Program) {
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	prog.Delete()
	delete(d.programs, p)
}

func (d *Device) UseProgram(p glrender.Program) {
	for _, loc := range d.enabled {
		gl.VertexAttribDivisor(loc, 0)
		gl.DisableVertexAttribArray(loc)
	}
	d.enabled = d.enabled[:0]
	gl.UseProgram(uint32(p))
}

func (d *Device) UniformLocation(p glrender.Program, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) AttribLocation(p glrender.Program, name string) int32 {
	return gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) SetUniform(loc int32, typ zengl.GLType, v []float32) {
	if loc < 0 || len(v) < typ.Components() {
		return
	}
	switch typ {
	case zengl.TypeBool, zengl.TypeSampler2D:
		gl.Uniform1i(loc, int32(v[0]))
	case zengl.TypeFloat:
		gl.Uniform1f(loc, v[0])
	case zengl.TypeVec2:
		gl.Uniform2fv(loc, 1, &v[0])
	case zengl.TypeVec3:
		gl.Uniform3fv(loc, 1, &v[0])
	case zengl.TypeVec4:
		gl.Uniform4fv(loc, 1, &v[0])
	case zengl.TypeMat2:
		gl.UniformMatrix2fv(loc, 1, false, &v[0])
	case zengl.TypeMat3:
		gl.UniformMatrix3fv(loc, 1, false, &v[0])
	case zengl.TypeMat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	}
}

func (d *Device) CreateBuffer() (glrender.Buffer, error) {
	var b uint32
	gl.GenBuffers(1, &b)
	if b == 0 {
		return 0, errors.New("gldevice: could not create buffer")
	}
	return glrender.Buffer(b), glgl.Err()
}

func (d *Device) DeleteBuffer(b glrender.Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func (d *Device) ArrayBufferData(b glrender.Buffer, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(data), ptr(data), gl.DYNAMIC_DRAW)
}

func (d *Device) ElementBufferData(b glrender.Buffer, indices []uint16) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(b))
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 2*len(indices), ptr(indices), gl.STATIC_DRAW)
}

func (d *Device) BindAttribute(loc int32, b glrender.Buffer, size, divisor int) {
	if loc < 0 {
		return
	}
	idx := uint32(loc)
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.EnableVertexAttribArray(idx)
	gl.VertexAttribPointer(idx, int32(size), gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.VertexAttribDivisor(idx, uint32(divisor))
	d.enabled = append(d.enabled, idx)
}

func (d *Device) CreateTexture(width, height int, rgba []byte) (glrender.Texture, error) {
	var t uint32
	gl.GenTextures(1, &t)
	if t == 0 {
		return 0, errors.New("gldevice: could not create texture")
	}
	gl.BindTexture(gl.TEXTURE_2D, t)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	tex := glrender.Texture(t)
	d.TextureData(tex, width, height, rgba)
	return tex, glgl.Err()
}

func (d *Device) DeleteTexture(t glrender.Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *Device) TextureData(t glrender.Texture, width, height int, rgba []byte) {
	if rgba == nil {
		// Storage of a texture created without data is undefined.
		rgba = make([]byte, 4*width*height)
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr(rgba))
}

func (d *Device) BindTexture(unit int, t glrender.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *Device) CreateFramebuffer(color glrender.Texture) (glrender.Framebuffer, error) {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(color), 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fb)
		return 0, fmt.Errorf("gldevice: incomplete framebuffer, status %#x", status)
	}
	return glrender.Framebuffer(fb), nil
}

func (d *Device) DeleteFramebuffer(fb glrender.Framebuffer) {
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) BindFramebuffer(fb glrender.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
}

func (d *Device) Viewport(width, height int) { gl.Viewport(0, 0, int32(width), int32(height)) }

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) Draw(mode zengl.DrawMode, elements glrender.Buffer, count, instances int) {
	glmode := drawMode(mode)
	if elements == 0 {
		gl.DrawArraysInstanced(glmode, 0, int32(count), int32(instances))
		return
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(elements))
	gl.DrawElementsInstanced(glmode, int32(count), gl.UNSIGNED_SHORT, gl.PtrOffset(0), int32(instances))
}

func (d *Device) ReadPixels(width, height int, dst []byte) error {
	if len(dst) < 4*width*height {
		return errors.New("gldevice: pixel buffer too short")
	}
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	return glgl.Err()
}

func (d *Device) release() {
	for p := range d.programs {
		d.DeleteProgram(p)
	}
	gl.DeleteVertexArrays(1, &d.vao)
}

func drawMode(mode zengl.DrawMode) uint32 {
	switch mode {
	case zengl.Triangles:
		return gl.TRIANGLES
	case zengl.TriangleFan:
		return gl.TRIANGLE_FAN
	case zengl.LineStrip:
		return gl.LINE_STRIP
	case zengl.Lines:
		return gl.LINES
	case zengl.Points:
		return gl.POINTS
	}
	return gl.TRIANGLE_STRIP
}

// ptr returns nil for empty slices, which gl.Ptr rejects.
func ptr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}
