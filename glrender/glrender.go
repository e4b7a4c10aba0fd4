// Package glrender runs compiled [zengl.Job]s on a GPU [Device].
//
// A [Renderer] is created by [Mount] and drawn once per frame with
// [Renderer.Render]. Staged uniform, attribute and texture values are
// uploaded at the start of the frame that follows the change.
package glrender

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/soypat/zengl"
	"github.com/soypat/zengl/glbuild"
	"github.com/soypat/zengl/glbuild/glsllib"
)

// Renderer draws mounted jobs to a surface. A Renderer is not safe for
// concurrent use; Set methods of graph resources are.
type Renderer struct {
	dev     Device
	surface Surface
	jobs    []*jobState
	// Feedback pairs and plain textures are shared by all jobs of the renderer.
	pairs    map[*zengl.Texture]*feedbackPair
	pairList []*feedbackPair
	plain    map[*zengl.Texture]*plainTexture
	blit     blitProgram
	width    int
	height   int
	frame    uint64
	errs     []error
	disposed bool

	// Created objects, deleted on Dispose.
	programs     []Program
	buffers      []Buffer
	textures     []Texture
	framebuffers []Framebuffer

	scratch []float32
	pix     []byte
}

type jobState struct {
	job        *zengl.Job
	prog       Program
	resolution int32
	uniforms   []uniformState
	attribs    []attribState
	textures   []textureState
	elements   Buffer
	// target is the feedback pair rendered to, nil when drawing to the surface.
	target *feedbackPair
}

type uniformState struct {
	u    *zengl.Uniform
	loc  int32
	sent uint64
}

type attribState struct {
	a    *zengl.Attribute
	loc  int32
	buf  Buffer
	sent uint64
}

type textureState struct {
	unit  int
	pair  *feedbackPair
	plain *plainTexture
}

type plainTexture struct {
	t    *zengl.Texture
	tex  Texture
	sent uint64
}

// feedbackPair is a double buffered render target. Jobs draw into
// index current and sample the other texture.
type feedbackPair struct {
	t       *zengl.Texture
	tex     [2]Texture
	fb      [2]Framebuffer
	current int
}

type blitProgram struct {
	prog Program
	quad Buffer
	pos  int32
	tex  int32
}

// Mount links jobs on the device of surface. Jobs that fail to link are
// dropped and reported by [Renderer.Err] while the rest render normally.
// Mount fails if surface has no device, the device lacks instancing or
// every job fails. The returned Renderer must be released with [Renderer.Dispose].
func Mount(surface Surface, jobs ...*zengl.Job) (*Renderer, error) {
	if surface == nil {
		return nil, ErrUnsupported
	}
	dev, err := surface.Device()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	} else if dev == nil {
		return nil, ErrUnsupported
	} else if !dev.InstancingSupported() {
		return nil, fmt.Errorf("%w: instanced drawing not available", ErrUnsupported)
	} else if len(jobs) == 0 {
		return nil, errors.New("glrender: no jobs to mount")
	}
	r := &Renderer{
		dev:     dev,
		surface: surface,
		pairs:   make(map[*zengl.Texture]*feedbackPair),
		plain:   make(map[*zengl.Texture]*plainTexture),
	}
	log := Logger()
	for i, job := range jobs {
		js, err := r.link(job)
		if err != nil {
			err = fmt.Errorf("job %d: %w", i, err)
			log.Warn("glrender: dropping render job", slog.Int("job", i), slog.String("err", err.Error()))
			r.errs = append(r.errs, err)
			continue
		}
		r.jobs = append(r.jobs, js)
	}
	if len(r.jobs) == 0 {
		r.Dispose()
		return nil, errors.Join(r.errs...)
	}
	if len(r.pairList) > 0 {
		err = r.linkBlit()
		if err != nil {
			r.Dispose()
			return nil, fmt.Errorf("glrender: blit program: %w", err)
		}
	}
	log.Debug("glrender: mounted", slog.Int("jobs", len(r.jobs)), slog.Int("feedback", len(r.pairList)))
	return r, nil
}

func (r *Renderer) link(job *zengl.Job) (*jobState, error) {
	if job == nil {
		return nil, errors.New("nil job")
	} else if err := job.Err(); err != nil {
		return nil, err
	}
	dev := r.dev
	prog, err := dev.CompileProgram(job.VertexSource, job.FragmentSource)
	if err != nil {
		return nil, err
	}
	r.programs = append(r.programs, prog)
	js := &jobState{
		job:        job,
		prog:       prog,
		resolution: dev.UniformLocation(prog, glbuild.ResolutionName),
	}
	dev.UseProgram(prog)
	for _, u := range job.Uniforms() {
		if u.Type() == zengl.TypeSampler2D {
			continue
		}
		js.uniforms = append(js.uniforms, uniformState{u: u, loc: dev.UniformLocation(prog, u.Name())})
	}
	for unit, t := range job.Textures() {
		ts := textureState{unit: unit}
		if t.IsFeedback() {
			ts.pair, err = r.feedbackPair(t)
		} else {
			ts.plain, err = r.plainTexture(t)
		}
		if err != nil {
			return nil, err
		}
		js.textures = append(js.textures, ts)
		loc := dev.UniformLocation(prog, t.Uniform().Name())
		if loc >= 0 {
			dev.SetUniform(loc, zengl.TypeSampler2D, []float32{float32(unit)})
		}
	}
	if fb := job.Feedback(); fb != nil {
		js.target = r.pairs[fb]
	}
	for _, a := range job.Attributes() {
		buf, err := r.createBuffer()
		if err != nil {
			return nil, err
		}
		js.attribs = append(js.attribs, attribState{a: a, loc: dev.AttribLocation(prog, a.Name()), buf: buf})
	}
	if job.Indices != nil {
		js.elements, err = r.createBuffer()
		if err != nil {
			return nil, err
		}
		dev.ElementBufferData(js.elements, job.Indices)
	}
	// Push the last known values to the new program.
	r.uploadUniforms(js)
	return js, nil
}

func (r *Renderer) linkBlit() error {
	dev := r.dev
	prog, err := dev.CompileProgram(glsllib.BlitVertex(), glsllib.BlitFragment())
	if err != nil {
		return err
	}
	r.programs = append(r.programs, prog)
	quad, err := r.createBuffer()
	if err != nil {
		return err
	}
	dev.ArrayBufferData(quad, glsllib.QuadVertices())
	r.blit = blitProgram{
		prog: prog,
		quad: quad,
		pos:  dev.AttribLocation(prog, glsllib.BlitPositionAttrib),
		tex:  dev.UniformLocation(prog, glsllib.BlitTextureUniform),
	}
	if r.blit.pos < 0 || r.blit.tex < 0 {
		return errors.New("missing position attribute or texture uniform")
	}
	dev.UseProgram(prog)
	dev.SetUniform(r.blit.tex, zengl.TypeSampler2D, []float32{0})
	return nil
}

func (r *Renderer) createBuffer() (Buffer, error) {
	buf, err := r.dev.CreateBuffer()
	if err != nil {
		return 0, err
	}
	r.buffers = append(r.buffers, buf)
	return buf, nil
}

func (r *Renderer) createTexture(width, height int, rgba []byte) (Texture, error) {
	tex, err := r.dev.CreateTexture(width, height, rgba)
	if err != nil {
		return 0, err
	}
	r.textures = append(r.textures, tex)
	return tex, nil
}

// feedbackPair returns the ping-pong pair of t, creating it on first use.
// Storage is sized on the first Render.
func (r *Renderer) feedbackPair(t *zengl.Texture) (*feedbackPair, error) {
	if p, ok := r.pairs[t]; ok {
		return p, nil
	}
	p := &feedbackPair{t: t}
	for i := range p.tex {
		tex, err := r.createTexture(1, 1, nil)
		if err != nil {
			return nil, err
		}
		fb, err := r.dev.CreateFramebuffer(tex)
		if err != nil {
			return nil, err
		}
		r.framebuffers = append(r.framebuffers, fb)
		p.tex[i], p.fb[i] = tex, fb
	}
	r.pairs[t] = p
	r.pairList = append(r.pairList, p)
	return p, nil
}

func (r *Renderer) plainTexture(t *zengl.Texture) (*plainTexture, error) {
	if pt, ok := r.plain[t]; ok {
		return pt, nil
	}
	data, w, h, version := t.Data(r.pix[:0])
	r.pix = data
	tex, err := r.createTexture(w, h, data)
	if err != nil {
		return nil, err
	}
	pt := &plainTexture{t: t, tex: tex, sent: version}
	r.plain[t] = pt
	return pt, nil
}

// Render draws a frame of all jobs at the given surface size. It does nothing
// after [Renderer.Dispose] or for an empty size.
func (r *Renderer) Render(width, height int) {
	if r.disposed || width <= 0 || height <= 0 {
		return
	}
	if width != r.width || height != r.height {
		r.resize(width, height)
	}
	dev := r.dev
	dev.BindFramebuffer(0)
	dev.Viewport(width, height)
	dev.Clear(0, 0, 0, 1)
	for _, js := range r.jobs {
		r.draw(js)
	}
	for _, p := range r.pairList {
		p.current = 1 - p.current
	}
	r.frame++
}

func (r *Renderer) resize(width, height int) {
	r.width, r.height = width, height
	r.surface.SetSize(width, height)
	dev := r.dev
	// UV and NUV assume the resolution uniform holds half the surface size.
	res := []float32{float32(width) / 2, float32(height) / 2}
	for _, js := range r.jobs {
		if js.resolution < 0 {
			continue
		}
		dev.UseProgram(js.prog)
		dev.SetUniform(js.resolution, zengl.TypeVec2, res)
	}
	for _, p := range r.pairList {
		for _, tex := range p.tex {
			dev.TextureData(tex, width, height, nil)
		}
	}
	Logger().Debug("glrender: resized", slog.Int("width", width), slog.Int("height", height))
}

func (r *Renderer) draw(js *jobState) {
	dev := r.dev
	dev.UseProgram(js.prog)
	r.uploadUniforms(js)
	for i := range js.attribs {
		as := &js.attribs[i]
		if as.a.Version() != as.sent {
			data, version := as.a.Data(r.scratch[:0])
			r.scratch = data
			dev.ArrayBufferData(as.buf, data)
			as.sent = version
		}
		if as.loc < 0 {
			continue
		}
		divisor := 0
		if as.a.Instanced() {
			divisor = 1
		}
		// Rebound every frame since jobs share device state.
		dev.BindAttribute(as.loc, as.buf, as.a.Size(), divisor)
	}
	for _, ts := range js.textures {
		if ts.pair != nil {
			dev.BindTexture(ts.unit, ts.pair.tex[1-ts.pair.current])
			continue
		}
		pt := ts.plain
		if pt.t.Version() != pt.sent {
			data, w, h, version := pt.t.Data(r.pix[:0])
			r.pix = data
			dev.TextureData(pt.tex, w, h, data)
			pt.sent = version
		}
		dev.BindTexture(ts.unit, pt.tex)
	}
	vertices, instances := js.job.Counts()
	if js.target == nil {
		dev.Draw(js.job.Mode, js.elements, vertices, instances)
		return
	}
	target := js.target
	dev.BindFramebuffer(target.fb[target.current])
	dev.Draw(js.job.Mode, js.elements, vertices, instances)
	dev.BindFramebuffer(0)
	r.blitTexture(target.tex[target.current])
}

// blitTexture draws tex over the bound framebuffer.
func (r *Renderer) blitTexture(tex Texture) {
	dev := r.dev
	dev.UseProgram(r.blit.prog)
	dev.BindAttribute(r.blit.pos, r.blit.quad, 2, 0)
	dev.BindTexture(0, tex)
	dev.Draw(zengl.TriangleStrip, 0, 4, 1)
}

func (r *Renderer) uploadUniforms(js *jobState) {
	for i := range js.uniforms {
		us := &js.uniforms[i]
		if us.loc < 0 || us.u.Version() == us.sent {
			continue
		}
		value, version := us.u.Value(r.scratch[:0])
		r.scratch = value
		r.dev.SetUniform(us.loc, us.u.Type(), value)
		us.sent = version
	}
}

// Dispose deletes every GPU object created by the renderer. Later calls do nothing.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	dev := r.dev
	for _, fb := range r.framebuffers {
		dev.DeleteFramebuffer(fb)
	}
	for _, tex := range r.textures {
		dev.DeleteTexture(tex)
	}
	for _, buf := range r.buffers {
		dev.DeleteBuffer(buf)
	}
	for _, prog := range r.programs {
		dev.DeleteProgram(prog)
	}
	Logger().Debug("glrender: disposed",
		slog.Int("programs", len(r.programs)),
		slog.Int("buffers", len(r.buffers)),
		slog.Int("textures", len(r.textures)),
		slog.Int("framebuffers", len(r.framebuffers)),
	)
	r.programs, r.buffers, r.textures, r.framebuffers = nil, nil, nil, nil
	r.jobs, r.pairList = nil, nil
	clear(r.pairs)
	clear(r.plain)
}

// Err returns the errors of jobs dropped by [Mount], or nil.
func (r *Renderer) Err() error { return errors.Join(r.errs...) }

// Jobs returns the number of jobs being rendered.
func (r *Renderer) Jobs() int { return len(r.jobs) }

// Frame returns the number of frames rendered.
func (r *Renderer) Frame() uint64 { return r.frame }

// Size returns the surface size of the last rendered frame.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// FeedbackIndex returns the index of the buffer of feedback texture t that
// the next frame renders to. After k frames it is k%2.
func (r *Renderer) FeedbackIndex(t *zengl.Texture) (int, bool) {
	p, ok := r.pairs[t]
	if !ok {
		return 0, false
	}
	return p.current, true
}
