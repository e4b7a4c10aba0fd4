package zengl

import (
	"errors"

	"github.com/soypat/zengl/glbuild"
	"github.com/soypat/zengl/glbuild/glsllib"
)

// Job is a compiled vertex and fragment shader pair along with the resources
// they use. Jobs are immutable and may be mounted by any number of renderers.
type Job struct {
	VertexSource   string
	FragmentSource string
	Vertex         *Context
	Fragment       *Context
	Mode           DrawMode
	// Indices, when non-nil, are the vertex indices drawn.
	Indices []uint16
}

// Compile compiles fragment and vertex graphs into a [Job]. A nil vertex graph
// compiles a fragment shader over a full screen quad drawn as a triangle strip.
func Compile(fragment, vertex *Node, mode DrawMode) *Job {
	if vertex == nil {
		quad := NewAttribute(TypeVec2, glsllib.QuadVertices(), 2, false)
		vertex = quad.Node()
		mode = TriangleStrip
	}
	return CompileStagePair(vertex, fragment, Options{Mode: mode})
}

// CompileStagePair compiles a vertex and fragment graph. The vertex graph
// is evaluated first so [Varying] nodes in the fragment graph can share its
// declarations. Graph errors do not stop compilation, see [Job.Err].
func CompileStagePair(vertex, fragment *Node, opts Options) *Job {
	sess := newSession(opts)
	vc := newContext(StageVertex, sess)
	fc := newContext(StageFragment, sess)
	fc.sibling = vc
	gv := vc.Gen(vertex)
	gf := fc.Gen(fragment)
	p := glbuild.NewDefaultProgrammer()
	job := &Job{
		Vertex:   vc,
		Fragment: fc,
		Mode:     opts.Mode,
	}
	if opts.Indices != nil {
		job.Indices = append([]uint16{}, opts.Indices...)
	}
	job.VertexSource = generateShader(p, vc, gv, fc.reg.varyings)
	job.FragmentSource = generateShader(p, fc, gf, nil)
	return job
}

// Err returns the errors recorded compiling both stages, or nil.
func (j *Job) Err() error {
	return errors.Join(j.Vertex.Err(), j.Fragment.Err())
}

// Uniforms returns the uniforms of both stages, vertex stage first.
func (j *Job) Uniforms() []*Uniform {
	return appendUnique(append([]*Uniform{}, j.Vertex.reg.uniforms...), j.Fragment.reg.uniforms...)
}

// Attributes returns the vertex attributes in binding order.
func (j *Job) Attributes() []*Attribute { return j.Vertex.reg.attributes }

// Textures returns the textures sampled by both stages.
func (j *Job) Textures() []*Texture {
	return appendUnique(append([]*Texture{}, j.Vertex.reg.textures...), j.Fragment.reg.textures...)
}

// Feedback returns the first feedback texture sampled by the fragment stage.
// The job renders into it. It returns nil for jobs drawing to the screen only.
func (j *Job) Feedback() *Texture {
	for _, t := range j.Fragment.reg.textures {
		if t.feedback {
			return t
		}
	}
	return nil
}

// Instanced reports whether the job reads per-instance attributes.
func (j *Job) Instanced() bool {
	for _, a := range j.Vertex.reg.attributes {
		if a.instanced {
			return true
		}
	}
	return false
}

// Counts returns the number of vertices and instances drawn per frame, the
// longest attribute of each kind sets its count. Indexed jobs draw
// len(Indices) vertices. Non instanced jobs draw one instance.
func (j *Job) Counts() (vertices, instances int) {
	instanced := false
	for _, a := range j.Vertex.reg.attributes {
		n := a.Count()
		if a.instanced {
			instanced = true
			instances = max(instances, n)
		} else {
			vertices = max(vertices, n)
		}
	}
	if j.Indices != nil {
		vertices = len(j.Indices)
	}
	if !instanced {
		instances = 1
	}
	return vertices, instances
}
