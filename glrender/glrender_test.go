package glrender_test

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/soypat/zengl"
	"github.com/soypat/zengl/glrender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type object int

const (
	objProgram object = iota
	objBuffer
	objTexture
	objFramebuffer
)

type uniformCall struct {
	prog  glrender.Program
	name  string
	typ   zengl.GLType
	value []float32
}

type drawCall struct {
	prog      glrender.Program
	mode      zengl.DrawMode
	elements  glrender.Buffer
	count     int
	instances int
	// framebuffer bound and texture at unit 0 at time of draw.
	fb      glrender.Framebuffer
	sampled glrender.Texture
}

// fakeDevice records the calls made by a renderer.
type fakeDevice struct {
	noInstancing bool
	failCompile  func(vertex, fragment string) bool

	next     uint32
	created  map[object][]uint32
	deleted  map[object]map[uint32]int
	sources  map[glrender.Program]string
	locs     map[glrender.Program][]string
	fbColor  map[glrender.Framebuffer]glrender.Texture
	texSizes map[glrender.Texture][2]int

	prog     glrender.Program
	fb       glrender.Framebuffer
	units    map[int]glrender.Texture
	uniforms []uniformCall
	binds    map[string]int // attribute name to divisor
	draws    []drawCall
	clears   int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		created:  make(map[object][]uint32),
		deleted:  make(map[object]map[uint32]int),
		sources:  make(map[glrender.Program]string),
		locs:     make(map[glrender.Program][]string),
		fbColor:  make(map[glrender.Framebuffer]glrender.Texture),
		texSizes: make(map[glrender.Texture][2]int),
		units:    make(map[int]glrender.Texture),
		binds:    make(map[string]int),
	}
}

func (d *fakeDevice) create(kind object) uint32 {
	d.next++
	d.created[kind] = append(d.created[kind], d.next)
	return d.next
}

func (d *fakeDevice) remove(kind object, h uint32) {
	if d.deleted[kind] == nil {
		d.deleted[kind] = make(map[uint32]int)
	}
	d.deleted[kind][h]++
}

func (d *fakeDevice) InstancingSupported() bool { return !d.noInstancing }

func (d *fakeDevice) CompileProgram(vertex, fragment string) (glrender.Program, error) {
	if d.failCompile != nil && d.failCompile(vertex, fragment) {
		return 0, errors.New("link failed")
	}
	p := glrender.Program(d.create(objProgram))
	d.sources[p] = vertex + fragment
	return p, nil
}

func (d *fakeDevice) DeleteProgram(p glrender.Program) { d.remove(objProgram, uint32(p)) }
func (d *fakeDevice) UseProgram(p glrender.Program)    { d.prog = p }

func (d *fakeDevice) location(p glrender.Program, name string) int32 {
	if !strings.Contains(d.sources[p], " "+name+";") {
		return -1
	}
	for i, n := range d.locs[p] {
		if n == name {
			return int32(i)
		}
	}
	d.locs[p] = append(d.locs[p], name)
	return int32(len(d.locs[p]) - 1)
}

func (d *fakeDevice) UniformLocation(p glrender.Program, name string) int32 {
	return d.location(p, name)
}

func (d *fakeDevice) AttribLocation(p glrender.Program, name string) int32 {
	return d.location(p, name)
}

func (d *fakeDevice) SetUniform(loc int32, typ zengl.GLType, value []float32) {
	d.uniforms = append(d.uniforms, uniformCall{
		prog:  d.prog,
		name:  d.locs[d.prog][loc],
		typ:   typ,
		value: append([]float32{}, value...),
	})
}

func (d *fakeDevice) CreateBuffer() (glrender.Buffer, error) {
	return glrender.Buffer(d.create(objBuffer)), nil
}

func (d *fakeDevice) DeleteBuffer(b glrender.Buffer)              { d.remove(objBuffer, uint32(b)) }
func (d *fakeDevice) ArrayBufferData(glrender.Buffer, []float32)  {}
func (d *fakeDevice) ElementBufferData(glrender.Buffer, []uint16) {}

func (d *fakeDevice) BindAttribute(loc int32, b glrender.Buffer, size, divisor int) {
	d.binds[d.locs[d.prog][loc]] = divisor
}

func (d *fakeDevice) CreateTexture(width, height int, rgba []byte) (glrender.Texture, error) {
	t := glrender.Texture(d.create(objTexture))
	d.texSizes[t] = [2]int{width, height}
	return t, nil
}

func (d *fakeDevice) DeleteTexture(t glrender.Texture) { d.remove(objTexture, uint32(t)) }

func (d *fakeDevice) TextureData(t glrender.Texture, width, height int, rgba []byte) {
	d.texSizes[t] = [2]int{width, height}
}

func (d *fakeDevice) BindTexture(unit int, t glrender.Texture) { d.units[unit] = t }

func (d *fakeDevice) CreateFramebuffer(color glrender.Texture) (glrender.Framebuffer, error) {
	fb := glrender.Framebuffer(d.create(objFramebuffer))
	d.fbColor[fb] = color
	return fb, nil
}

func (d *fakeDevice) DeleteFramebuffer(fb glrender.Framebuffer) { d.remove(objFramebuffer, uint32(fb)) }
func (d *fakeDevice) BindFramebuffer(fb glrender.Framebuffer)   { d.fb = fb }
func (d *fakeDevice) Viewport(width, height int)                {}
func (d *fakeDevice) Clear(r, g, b, a float32)                  { d.clears++ }

func (d *fakeDevice) Draw(mode zengl.DrawMode, elements glrender.Buffer, count, instances int) {
	d.draws = append(d.draws, drawCall{
		prog:      d.prog,
		mode:      mode,
		elements:  elements,
		count:     count,
		instances: instances,
		fb:        d.fb,
		sampled:   d.units[0],
	})
}

// ReadPixels fills every row with its index counted from the bottom.
func (d *fakeDevice) ReadPixels(width, height int, dst []byte) error {
	for y := 0; y < height; y++ {
		row := dst[4*width*y : 4*width*(y+1)]
		for i := range row {
			row[i] = byte(y)
		}
	}
	return nil
}

func (d *fakeDevice) uniformCalls(name string) (calls []uniformCall) {
	for _, c := range d.uniforms {
		if c.name == name {
			calls = append(calls, c)
		}
	}
	return calls
}

type fakeSurface struct {
	dev    *fakeDevice
	err    error
	width  int
	height int
}

func (s *fakeSurface) Device() (glrender.Device, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dev, nil
}

func (s *fakeSurface) SetSize(width, height int) { s.width, s.height = width, height }

func quadJob(fragment *zengl.Node) *zengl.Job {
	return zengl.Compile(fragment, nil, zengl.TriangleStrip)
}

func TestMountUnsupported(t *testing.T) {
	job := quadJob(zengl.Red())
	_, err := glrender.Mount(&fakeSurface{err: errors.New("no webgl")}, job)
	assert.ErrorIs(t, err, glrender.ErrUnsupported)

	dev := newFakeDevice()
	dev.noInstancing = true
	_, err = glrender.Mount(&fakeSurface{dev: dev}, job)
	assert.ErrorIs(t, err, glrender.ErrUnsupported)
	assert.Empty(t, dev.created)

	_, err = glrender.Mount(nil, job)
	assert.ErrorIs(t, err, glrender.ErrUnsupported)
}

func TestMountDispose(t *testing.T) {
	dev := newFakeDevice()
	surface := &fakeSurface{dev: dev}
	u := zengl.NewUniform(zengl.TypeFloat, 0.25)
	fb := zengl.NewFeedbackTexture()
	r1, err := glrender.Mount(surface, quadJob(zengl.Vec4(u.Node(), zengl.Float(0), zengl.Float(0), zengl.Float(1))))
	require.NoError(t, err)
	r2, err := glrender.Mount(surface, quadJob(zengl.Texture2D(fb.Node(), zengl.NUV())))
	require.NoError(t, err)
	r1.Render(64, 32)
	r2.Render(64, 32)
	assert.Equal(t, 64, surface.width)
	assert.Equal(t, 32, surface.height)

	r1.Dispose()
	r2.Dispose()
	r2.Dispose()
	r1.Render(64, 32)
	for kind, handles := range dev.created {
		require.NotEmpty(t, handles)
		for _, h := range handles {
			assert.Equal(t, 1, dev.deleted[kind][h], "object kind %d handle %d", kind, h)
		}
		assert.Len(t, dev.deleted[kind], len(handles))
	}
	assert.Len(t, dev.created[objFramebuffer], 2)
	assert.Equal(t, uint64(1), r1.Frame())
}

func TestFeedbackPingPong(t *testing.T) {
	dev := newFakeDevice()
	fb := zengl.NewFeedbackTexture()
	frag := zengl.Mix(zengl.Texture2D(fb.Node(), zengl.NUV()), zengl.Red(), zengl.Float(0.1))
	r, err := glrender.Mount(&fakeSurface{dev: dev}, quadJob(frag))
	require.NoError(t, err)
	defer r.Dispose()

	idx, ok := r.FeedbackIndex(fb)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	for k := 1; k <= 5; k++ {
		dev.draws = dev.draws[:0]
		r.Render(16, 16)
		idx, _ = r.FeedbackIndex(fb)
		assert.Equal(t, k%2, idx)

		// Job draw into a feedback buffer followed by a blit to the screen.
		require.Len(t, dev.draws, 2)
		job, blit := dev.draws[0], dev.draws[1]
		require.NotZero(t, job.fb)
		assert.NotEqual(t, dev.fbColor[job.fb], job.sampled, "frame %d samples its own target", k)
		assert.Zero(t, blit.fb)
		assert.Equal(t, dev.fbColor[job.fb], blit.sampled)
		assert.NotEqual(t, job.prog, blit.prog)
	}
	for _, tex := range dev.fbColor {
		assert.Equal(t, [2]int{16, 16}, dev.texSizes[tex])
	}
	_, ok = r.FeedbackIndex(zengl.NewFeedbackTexture())
	assert.False(t, ok)
}

func TestInstancedDraw(t *testing.T) {
	dev := newFakeDevice()
	pos := zengl.NewAttribute(zengl.TypeVec2, []float32{0, 0, 1, 0, 0, 1}, 2, false)
	offset := zengl.NewAttribute(zengl.TypeVec2, []float32{0, 0, 1, 1, 2, 2, 3, 3}, 2, true)
	vertex := zengl.Vec4(zengl.Add(pos.Node(), offset.Node()), zengl.Float(0), zengl.Float(1))
	job := zengl.CompileStagePair(vertex, zengl.Blue(), zengl.Options{Mode: zengl.Triangles, Indices: []uint16{0, 1, 2, 2, 1, 0}})
	require.NoError(t, job.Err())
	r, err := glrender.Mount(&fakeSurface{dev: dev}, job)
	require.NoError(t, err)
	defer r.Dispose()

	r.Render(8, 8)
	require.Len(t, dev.draws, 1)
	d := dev.draws[0]
	assert.Equal(t, zengl.Triangles, d.mode)
	assert.NotZero(t, d.elements)
	assert.Equal(t, 6, d.count)
	assert.Equal(t, 4, d.instances)
	assert.Equal(t, 0, dev.binds[pos.Name()])
	assert.Equal(t, 1, dev.binds[offset.Name()])
	assert.Equal(t, 1, dev.clears)
}

func TestLinkFailureIsolation(t *testing.T) {
	dev := newFakeDevice()
	dev.failCompile = func(_, fragment string) bool { return strings.Contains(fragment, "vec4(0.0, 1.0, 0.0, 1.0)") }
	attr := zengl.NewAttribute(zengl.TypeVec2, []float32{0, 0}, 2, false)
	bad := quadJob(zengl.Vec4(attr.Node(), zengl.Float(0), zengl.Float(1)))
	require.Error(t, bad.Err())
	good := quadJob(zengl.Red())
	r, err := glrender.Mount(&fakeSurface{dev: dev}, bad, good, quadJob(zengl.Green()))
	require.NoError(t, err)
	defer r.Dispose()
	assert.Equal(t, 1, r.Jobs())
	assert.Error(t, r.Err())
	r.Render(4, 4)
	assert.Len(t, dev.draws, 1)

	_, err = glrender.Mount(&fakeSurface{dev: dev}, bad, quadJob(zengl.Green()))
	assert.Error(t, err)
}

func TestUniformUploadOnChange(t *testing.T) {
	dev := newFakeDevice()
	u := zengl.NewUniform(zengl.TypeVec2, 1, 2)
	r, err := glrender.Mount(&fakeSurface{dev: dev}, quadJob(zengl.Vec4(u.Node(), zengl.Float(0), zengl.Float(1))))
	require.NoError(t, err)
	defer r.Dispose()

	calls := dev.uniformCalls(u.Name())
	require.Len(t, calls, 1)
	assert.Equal(t, []float32{1, 2}, calls[0].value)
	r.Render(10, 10)
	r.Render(10, 10)
	assert.Len(t, dev.uniformCalls(u.Name()), 1)

	require.NoError(t, u.Set(3, 4))
	require.NoError(t, u.Set(5, 6))
	r.Render(10, 10)
	calls = dev.uniformCalls(u.Name())
	require.Len(t, calls, 2)
	assert.Equal(t, []float32{5, 6}, calls[1].value)
	r.Render(10, 10)
	assert.Len(t, dev.uniformCalls(u.Name()), 2)

	res := dev.uniformCalls("resolution")
	require.Len(t, res, 1)
	assert.Equal(t, []float32{5, 5}, res[0].value)
	r.Render(20, 10)
	res = dev.uniformCalls("resolution")
	require.Len(t, res, 2)
	assert.Equal(t, []float32{10, 5}, res[1].value)
}

func TestTextureUpload(t *testing.T) {
	dev := newFakeDevice()
	tex, err := zengl.NewTexture(2, 2, nil)
	require.NoError(t, err)
	r, err := glrender.Mount(&fakeSurface{dev: dev}, quadJob(zengl.Texture2D(tex.Node(), zengl.NUV())))
	require.NoError(t, err)
	defer r.Dispose()
	require.Len(t, dev.created[objTexture], 1)
	gpuTex := glrender.Texture(dev.created[objTexture][0])
	samplers := dev.uniformCalls(tex.Uniform().Name())
	require.Len(t, samplers, 1)
	assert.Equal(t, zengl.TypeSampler2D, samplers[0].typ)

	require.NoError(t, tex.Set(3, 1, make([]byte, 12)))
	r.Render(4, 4)
	assert.Equal(t, [2]int{3, 1}, dev.texSizes[gpuTex])
	assert.Equal(t, gpuTex, dev.draws[0].sampled)
}

func TestSnapshot(t *testing.T) {
	dev := newFakeDevice()
	r, err := glrender.Mount(&fakeSurface{dev: dev}, quadJob(zengl.White()))
	require.NoError(t, err)
	defer r.Dispose()
	_, err = r.Snapshot(nil)
	assert.Error(t, err)

	r.Render(3, 4)
	img, err := r.Snapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 4), img.Bounds())
	for y := 0; y < 4; y++ {
		assert.Equal(t, uint8(3-y), img.RGBAAt(1, y).R, "row %d", y)
	}
	again, err := r.Snapshot(img)
	require.NoError(t, err)
	assert.Same(t, img, again)
}
