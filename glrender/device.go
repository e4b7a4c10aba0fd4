package glrender

import (
	"errors"

	"github.com/soypat/zengl"
)

// ErrUnsupported is returned by [Mount] when the surface cannot provide a
// device with the features required to render jobs.
var ErrUnsupported = errors.New("glrender: surface does not support rendering")

// GPU object handles. The zero value is never a valid object, except for
// [Framebuffer] where it names the default framebuffer.
type (
	Program     uint32
	Buffer      uint32
	Texture     uint32
	Framebuffer uint32
)

// Device is the GPU API used by renderers. It follows the WebGL 1 object
// model extended with instanced drawing. Shader sources are GLSL ES 1.00;
// implementations targeting other GLSL dialects translate them.
//
// Methods are called from the goroutine running the renderer only.
type Device interface {
	// InstancingSupported reports whether DrawInstanced and attribute divisors are available.
	InstancingSupported() bool

	CompileProgram(vertex, fragment string) (Program, error)
	DeleteProgram(Program)
	UseProgram(Program)
	// UniformLocation returns -1 when the program has no active uniform named name.
	UniformLocation(p Program, name string) int32
	// AttribLocation returns -1 when the program has no active attribute named name.
	AttribLocation(p Program, name string) int32
	// SetUniform sets the uniform at loc of the program in use. Sampler
	// uniforms receive the texture unit as value. Matrices are column-major.
	SetUniform(loc int32, typ zengl.GLType, value []float32)

	CreateBuffer() (Buffer, error)
	DeleteBuffer(Buffer)
	ArrayBufferData(Buffer, []float32)
	ElementBufferData(Buffer, []uint16)
	// BindAttribute sources the attribute at loc from b with size floats per
	// element. A non zero divisor advances the attribute once per divisor instances.
	BindAttribute(loc int32, b Buffer, size, divisor int)

	// CreateTexture creates a RGBA8 texture. A nil rgba zero-initializes it.
	CreateTexture(width, height int, rgba []byte) (Texture, error)
	DeleteTexture(Texture)
	TextureData(t Texture, width, height int, rgba []byte)
	BindTexture(unit int, t Texture)

	CreateFramebuffer(color Texture) (Framebuffer, error)
	DeleteFramebuffer(Framebuffer)
	BindFramebuffer(Framebuffer)

	Viewport(width, height int)
	Clear(r, g, b, a float32)
	// Draw draws count vertices, or count indices of elements when elements is non zero.
	Draw(mode zengl.DrawMode, elements Buffer, count, instances int)
	// ReadPixels reads the bound framebuffer as RGBA8 rows starting at the bottom row.
	ReadPixels(width, height int, dst []byte) error
}

// Surface is the render target of a renderer, usually a window.
type Surface interface {
	// Device returns the device drawing to the surface. It returns an error
	// if the surface has no usable device.
	Device() (Device, error)
	// SetSize resizes the default framebuffer of the surface.
	SetSize(width, height int)
}
