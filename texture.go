package zengl

import (
	"errors"
	"fmt"
	"sync"
)

// Texture is a 2D RGBA image sampled through a sampler2D uniform.
//
// A feedback texture has no data of its own: it is backed by a pair of
// surface sized buffers. Jobs sampling it read the previous frame while
// rendering into the other buffer, see package glrender.
type Texture struct {
	uniform  *Uniform
	feedback bool

	mu      sync.Mutex
	width   int
	height  int
	data    []byte
	version uint64
}

// NewTexture returns a texture of the given size with RGBA8 pixel data in
// row order starting at the bottom row. A nil rgba allocates a zeroed texture.
func NewTexture(width, height int, rgba []byte) (*Texture, error) {
	t := newTexture(false)
	if err := t.Set(width, height, rgba); err != nil {
		return nil, err
	}
	return t, nil
}

// NewFeedbackTexture returns a texture rendered to by the jobs sampling it.
func NewFeedbackTexture() *Texture {
	return newTexture(true)
}

func newTexture(feedback bool) *Texture {
	t := &Texture{uniform: NewUniform(TypeSampler2D), feedback: feedback}
	t.uniform.tex = t
	return t
}

// Node returns the sampler2D node of the texture, for use with [Texture2D].
func (t *Texture) Node() *Node { return t.uniform.Node() }

// Uniform returns the sampler uniform of the texture.
func (t *Texture) Uniform() *Uniform { return t.uniform }

func (t *Texture) IsFeedback() bool { return t.feedback }

// Size returns the dimensions of the texture data. Feedback textures report zero size.
func (t *Texture) Size() (width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

// Set stages new pixel data, uploaded by the renderer before the next frame.
func (t *Texture) Set(width, height int, rgba []byte) error {
	if t.feedback {
		return errors.New("feedback texture data is rendered, not set")
	} else if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	want := 4 * width * height
	if rgba == nil {
		rgba = make([]byte, want)
	} else if len(rgba) != want {
		return fmt.Errorf("texture %dx%d requires %d bytes of RGBA data, got %d", width, height, want, len(rgba))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.width, t.height = width, height
	t.data = append(t.data[:0], rgba...)
	t.version++
	return nil
}

// Version returns the version of the last staged pixel data.
func (t *Texture) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// Data appends the pixel data to dst and returns it with the texture size and data version.
func (t *Texture) Data(dst []byte) (_ []byte, width, height int, version uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append(dst, t.data...), t.width, t.height, t.version
}
