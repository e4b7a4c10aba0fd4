// Package zengl builds GLSL ES 1.00 shader programs from graphs of expression nodes.
//
// Graphs are assembled with builder functions such as [Add], [Vec4] and [UV]. Leaves are
// literals, [Uniform], [Attribute] and [Texture] nodes. [Compile] evaluates the graph once per
// shader stage, sharing repeated sub-expressions through memoization, and returns a [Job] holding
// vertex and fragment sources plus the resource registries needed to render them.
// See package glrender for running compiled jobs on a GPU.
package zengl

import (
	"github.com/soypat/zengl/glbuild"
)

// GLType is the GLSL type of a node result. Mixed operand types promote
// to the type with the greatest ordinal, so float and vec2 produce vec2.
type GLType = glbuild.Type

const (
	TypeBool      = glbuild.TypeBool
	TypeFloat     = glbuild.TypeFloat
	TypeVec2      = glbuild.TypeVec2
	TypeVec3      = glbuild.TypeVec3
	TypeVec4      = glbuild.TypeVec4
	TypeMat2      = glbuild.TypeMat2
	TypeMat3      = glbuild.TypeMat3
	TypeMat4      = glbuild.TypeMat4
	TypeSampler2D = glbuild.TypeSampler2D
	TypeFunction  = glbuild.TypeFunction
)

// Stage identifies the shader stage a [Context] compiles.
type Stage uint8

const (
	StageFragment Stage = iota
	StageVertex
)

func (s Stage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// DrawMode is the primitive assembly mode used to draw a job.
type DrawMode uint8

const (
	TriangleStrip DrawMode = iota
	Triangles
	TriangleFan
	LineStrip
	Lines
	Points
)

var drawModeNames = [...]string{
	TriangleStrip: "triangle-strip",
	Triangles:     "triangles",
	TriangleFan:   "triangle-fan",
	LineStrip:     "line-strip",
	Lines:         "lines",
	Points:        "points",
}

func (m DrawMode) String() string {
	if int(m) < len(drawModeNames) {
		return drawModeNames[m]
	}
	return "DrawMode(?)"
}

// Options configures compilation of a stage pair.
type Options struct {
	Mode DrawMode
	// Indices, when set, draws the vertex attributes through an index buffer.
	Indices []uint16
	// NoConstantFolding disables evaluation of operations whose operands are
	// all compile time constants. Folded operations emit a single float declaration.
	NoConstantFolding bool
}

// MaxLoopIterations bounds [SumLoop] loops whose iteration count is only known at runtime.
// GLSL ES 1.00 requires loop conditions to compare against a constant expression.
const MaxLoopIterations = 1024
