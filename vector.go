package zengl

import (
	"strings"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/zengl/glbuild"
)

func Vec2(args ...*Node) *Node { return construct(TypeVec2, args) }
func Vec3(args ...*Node) *Node { return construct(TypeVec3, args) }
func Vec4(args ...*Node) *Node { return construct(TypeVec4, args) }
func Mat2(args ...*Node) *Node { return construct(TypeMat2, args) }
func Mat3(args ...*Node) *Node { return construct(TypeMat3, args) }
func Mat4(args ...*Node) *Node { return construct(TypeMat4, args) }

// construct is a GLSL type constructor. Arguments must fill all components
// of the type, or be a single scalar which is splatted.
func construct(typ GLType, args []*Node) *Node {
	name := typ.String()
	return newNode(name, func(c *Context) Generated {
		gargs := c.genAll(args)
		total := 0
		for i, g := range gargs {
			if g.Type == TypeSampler2D || g.Type == TypeFunction {
				c.Errorf("%s: invalid argument %d of type %s", name, i, g.Type)
			}
			total += g.Type.Components()
		}
		single := len(gargs) == 1 && (gargs[0].Type.IsScalar() || (typ.IsMatrix() && gargs[0].Type.IsMatrix()))
		if !single && total != typ.Components() {
			c.Errorf("%s: arguments provide %d components, want %d", name, total, typ.Components())
		}
		v := c.UseVariable(name + "Val")
		vars := make([]string, len(gargs))
		for i := range gargs {
			vars[i] = gargs[i].Variable
		}
		expr := glbuild.AppendCall(nil, name, vars...)
		code := glbuild.AppendDecl(nil, typ, v, string(expr))
		return c.Emit(typ, string(code), v, gargs...)
	})
}

// ConstVec2 returns a vec2 node with a fixed value.
func ConstVec2(v ms2.Vec) *Node {
	return newNode("vec2", func(c *Context) Generated {
		variable := c.UseVariable("vec2Val")
		return c.Emit(TypeVec2, string(glbuild.AppendVec2Decl(nil, variable, v)), variable)
	})
}

// ConstVec3 returns a vec3 node with a fixed value.
func ConstVec3(v ms3.Vec) *Node {
	return newNode("vec3", func(c *Context) Generated {
		variable := c.UseVariable("vec3Val")
		return c.Emit(TypeVec3, string(glbuild.AppendVec3Decl(nil, variable, v)), variable)
	})
}

// ConstMat4 returns a mat4 node with a fixed value. m is row-major as is
// convention in the geometry package, it is written column-major in GLSL.
func ConstMat4(m ms3.Mat4) *Node {
	return newNode("mat4", func(c *Context) Generated {
		variable := c.UseVariable("matVal")
		return c.Emit(TypeMat4, string(glbuild.AppendMat4Decl(nil, variable, m)), variable)
	})
}

// Swizzle selects components of a vector by field names, i.e: "xy", "zyx", "rgb".
// Swizzles of a given node are shared so they are declared once per scope.
func Swizzle(n *Node, fields string) *Node {
	if n == nil {
		return nil
	}
	return n.swizzle(fields, func() *Node {
		return newNode("swizzle", func(c *Context) Generated {
			g := c.Gen(n)
			typ, err := glbuild.VecType(len(fields))
			if err != nil {
				c.Errorf("swizzle %q: %s", fields, err)
				typ = TypeFloat
			}
			if !g.Type.IsVector() {
				c.Errorf("swizzle %q of non-vector type %s", fields, g.Type)
			} else if !validSwizzle(fields, g.Type.Components()) {
				c.Errorf("swizzle %q invalid for %s", fields, g.Type)
			}
			v := c.UseVariable(strings.ToLower(fields) + "Val")
			code := glbuild.AppendDecl(nil, typ, v, g.Variable+"."+fields)
			return c.Emit(typ, string(code), v, g)
		})
	})
}

func validSwizzle(fields string, components int) bool {
	const sets = "xyzw" + "rgba" + "stpq"
	set := -1
	for i := 0; i < len(fields); i++ {
		idx := strings.IndexByte(sets, fields[i])
		if idx < 0 || idx%4 >= components {
			return false
		}
		if set == -1 {
			set = idx / 4
		} else if set != idx/4 {
			return false // Mixed naming sets.
		}
	}
	return len(fields) > 0
}

// Switch selects a when cond is true and b otherwise.
func Switch(cond, a, b *Node) *Node {
	return newNode("switch", func(c *Context) Generated {
		gc := c.Gen(cond)
		ga := c.Gen(a)
		gb := c.Gen(b)
		if gc.Type != TypeBool {
			c.Errorf("switch: condition must be bool, got %s", gc.Type)
		}
		typ := glbuild.Promote(ga.Type, gb.Type)
		v := c.UseVariable("switchVal")
		expr := gc.Variable + " ? " + cast(c, typ, ga) + " : " + cast(c, typ, gb)
		code := glbuild.AppendDecl(nil, typ, v, expr)
		return c.Emit(typ, string(code), v, gc, ga, gb)
	})
}

// cast returns an expression of g converted to typ. Only scalars convert implicitly.
func cast(c *Context, typ GLType, g Generated) string {
	if g.Type == typ {
		return g.Variable
	} else if g.Type != TypeFloat {
		c.Errorf("cannot convert %s to %s", g.Type, typ)
		return g.Variable
	}
	return typ.String() + "(" + g.Variable + ")"
}

// fragCoord emits a read of gl_FragCoord, which only exists in fragment stages.
func fragCoord(name string, typ GLType, expr string) *Node {
	return newNode(name, func(c *Context) Generated {
		if c.stage != StageFragment {
			c.Errorf("%s: gl_FragCoord is not available in the %s stage", name, c.stage)
		}
		v := c.UseVariable(name)
		code := glbuild.AppendDecl(nil, typ, v, expr)
		return c.Emit(typ, string(code), v)
	})
}

// The renderer sets the resolution uniform to half the canvas size,
// which centers UV on the canvas.
var (
	uvNode    = fragCoord("uv", TypeVec2, "((gl_FragCoord.xy-resolution)/resolution.y)")
	nuvNode   = fragCoord("nuv", TypeVec2, "(gl_FragCoord.xy/resolution.xy)/2.0")
	fragX     = fragCoord("xVal", TypeFloat, "gl_FragCoord.x")
	fragY     = fragCoord("yVal", TypeFloat, "gl_FragCoord.y")
	resNode   = resolutionExpr("res", TypeVec2, "resolution*2.0")
	redNode   = Vec4(Floats(1, 0, 0, 1)...)
	greenNode = Vec4(Floats(0, 1, 0, 1)...)
	blueNode  = Vec4(Floats(0, 0, 1, 1)...)
	blackNode = Vec4(Floats(0, 0, 0, 1)...)
	whiteNode = Vec4(Floats(1, 1, 1, 1)...)
)

func resolutionExpr(name string, typ GLType, expr string) *Node {
	return newNode(name, func(c *Context) Generated {
		v := c.UseVariable(name)
		return c.Emit(typ, string(glbuild.AppendDecl(nil, typ, v, expr)), v)
	})
}

// UV returns aspect corrected fragment coordinates centered on the canvas. The
// vertical axis spans [-1, 1].
func UV() *Node { return uvNode }

// NUV returns fragment coordinates normalized to [0, 1] across the canvas.
func NUV() *Node { return nuvNode }

// FragX returns the horizontal fragment coordinate in pixels.
func FragX() *Node { return fragX }

// FragY returns the vertical fragment coordinate in pixels.
func FragY() *Node { return fragY }

// Resolution returns the canvas size in pixels.
func Resolution() *Node { return resNode }

func Red() *Node   { return redNode }
func Green() *Node { return greenNode }
func Blue() *Node  { return blueNode }
func Black() *Node { return blackNode }
func White() *Node { return whiteNode }

// PerspectiveMatrix returns a right handed projection matrix with the
// vertical field of view fov in radians.
func PerspectiveMatrix(fov, aspect, near, far *Node) *Node {
	f := Div(Float(1), Tan(Div(fov, Float(2))))
	zero := Float(0)
	return Mat4(
		Div(f, aspect), zero, zero, zero,
		zero, f, zero, zero,
		zero, zero, Div(Add(far, near), Sub(near, far)), Float(-1),
		zero, zero, Div(Mult(Float(2), far, near), Sub(near, far)), zero,
	)
}

// ViewMatrix returns the matrix transforming world coordinates to the
// coordinates of a camera at eye looking at target.
func ViewMatrix(eye, target, up *Node) *Node {
	zAxis := Normalize(Sub(eye, target))
	xAxis := Normalize(Cross(up, zAxis))
	yAxis := Cross(zAxis, xAxis)
	zero := Float(0)
	neg := Float(-1)
	return Mat4(
		xAxis.X(), yAxis.X(), zAxis.X(), zero,
		xAxis.Y(), yAxis.Y(), zAxis.Y(), zero,
		xAxis.Z(), yAxis.Z(), zAxis.Z(), zero,
		Mult(neg, Dot(xAxis, eye)),
		Mult(neg, Dot(yAxis, eye)),
		Mult(neg, Dot(zAxis, eye)),
		Float(1),
	)
}
