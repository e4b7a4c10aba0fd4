package zengl

import (
	"strings"

	math "github.com/chewxy/math32"
	"github.com/soypat/zengl/glbuild"
)

// typeInferred marks builders whose result type is derived from the operands.
const typeInferred GLType = 255

// Add returns the sum of the arguments. The result type is the widest operand type.
func Add(args ...*Node) *Node {
	return operator("add", "+", typeInferred, func(a, b float32) float32 { return a + b }, args)
}

// Sub subtracts all following arguments from the first.
func Sub(args ...*Node) *Node {
	return operator("sub", "-", typeInferred, func(a, b float32) float32 { return a - b }, args)
}

// Mult returns the product of the arguments. A matrix times a vector yields the vector type.
func Mult(args ...*Node) *Node {
	return operator("mult", "*", typeInferred, func(a, b float32) float32 { return a * b }, args)
}

// Div divides the first argument by the following arguments.
func Div(args ...*Node) *Node {
	return operator("div", "/", typeInferred, func(a, b float32) float32 { return a / b }, args)
}

func Lt(a, b *Node) *Node  { return operator("lt", "<", TypeBool, nil, []*Node{a, b}) }
func Gt(a, b *Node) *Node  { return operator("gt", ">", TypeBool, nil, []*Node{a, b}) }
func Lte(a, b *Node) *Node { return operator("lte", "<=", TypeBool, nil, []*Node{a, b}) }
func Gte(a, b *Node) *Node { return operator("gte", ">=", TypeBool, nil, []*Node{a, b}) }
func Eq(a, b *Node) *Node  { return operator("eq", "==", TypeBool, nil, []*Node{a, b}) }

// And is the logical conjunction of boolean operands.
func And(args ...*Node) *Node { return operator("and", "&&", TypeBool, nil, args) }

// Or is the logical disjunction of boolean operands.
func Or(args ...*Node) *Node { return operator("or", "||", TypeBool, nil, args) }

func operator(name, op string, forced GLType, fold func(a, b float32) float32, args []*Node) *Node {
	return newNode(name, func(c *Context) Generated {
		gargs := c.genAll(args)
		if len(gargs) == 0 {
			c.Errorf("%s: no operands", name)
			return c.Gen(Float(0))
		}
		checkOperator(c, name, op, gargs)
		typ := forced
		if forced == typeInferred {
			typ = operatorType(op, gargs)
		}
		v := c.UseVariable(name + "Val")
		if fold != nil && c.folding() && typ == TypeFloat {
			if consts, ok := constants(gargs); ok {
				result := consts[0]
				for _, x := range consts[1:] {
					result = fold(result, x)
				}
				if finite(result) {
					return c.emitConstant(v, result, gargs)
				}
			}
		}
		vars := make([]string, len(gargs))
		for i := range gargs {
			vars[i] = gargs[i].Variable
		}
		code := glbuild.AppendDecl(nil, typ, v, strings.Join(vars, op))
		return c.Emit(typ, string(code), v, gargs...)
	})
}

func operatorType(op string, gargs []Generated) GLType {
	types := typesOf(gargs)
	if op == "*" {
		var vec GLType
		hasMat := false
		for _, t := range types {
			hasMat = hasMat || t.IsMatrix()
			if t.IsVector() {
				vec = t
			}
		}
		if hasMat && vec != 0 {
			return vec
		}
	}
	return glbuild.Promote(types...)
}

func checkOperator(c *Context, name, op string, gargs []Generated) {
	logical := op == "&&" || op == "||"
	ordering := op == "<" || op == ">" || op == "<=" || op == ">="
	var shape GLType
	for i, g := range gargs {
		switch {
		case g.Type == TypeSampler2D || g.Type == TypeFunction:
			c.Errorf("%s: operand %d of type %s cannot be used in an expression", name, i, g.Type)
			continue
		case logical && g.Type != TypeBool:
			c.Errorf("%s: operand %d must be bool, got %s", name, i, g.Type)
			continue
		case !logical && g.Type == TypeBool && op != "==":
			c.Errorf("%s: operand %d is bool", name, i)
			continue
		case ordering && !g.Type.IsScalar():
			// Componentwise comparison requires lessThan and friends.
			c.Errorf("%s: operand %d must be scalar, got %s", name, i, g.Type)
			continue
		}
		if g.Type.IsScalar() {
			continue
		}
		if shape == 0 {
			shape = g.Type
		} else if shape != g.Type && !(op == "*" && matVecCompatible(shape, g.Type)) {
			c.Errorf("%s: mismatched operand types %s and %s", name, shape, g.Type)
		}
	}
}

func matVecCompatible(a, b GLType) bool {
	if a.IsVector() {
		a, b = b, a
	}
	if !a.IsMatrix() || !b.IsVector() {
		return false
	}
	return a-TypeMat2 == b-TypeVec2
}

func typesOf(gargs []Generated) []GLType {
	types := make([]GLType, len(gargs))
	for i := range gargs {
		types[i] = gargs[i].Type
	}
	return types
}

func constants(gargs []Generated) ([]float32, bool) {
	consts := make([]float32, len(gargs))
	for i := range gargs {
		v, ok := gargs[i].Constant()
		if !ok {
			return nil, false
		}
		consts[i] = v
	}
	return consts, true
}

// emitConstant declares a folded float. Operand declarations are kept since
// memoized operands may be referenced again elsewhere in the graph.
func (c *Context) emitConstant(variable string, v float32, operands []Generated) Generated {
	code := glbuild.AppendFloatDecl(nil, variable, v)
	g := c.Emit(TypeFloat, string(code), variable, operands...)
	g.constant = v
	g.isConstant = true
	return g
}

// builtin describes a GLSL built-in function.
type builtin struct {
	name   string
	minArg int
	maxArg int
	// forced result type, or typeInferred to promote operand types.
	forced GLType
	fold   func(x []float32) float32
	check  func(c *Context, types []GLType)
}

func (b builtin) node(args ...*Node) *Node {
	return newNode(b.name, func(c *Context) Generated {
		gargs := c.genAll(args)
		if len(gargs) < b.minArg || len(gargs) > b.maxArg {
			c.Errorf("%s: got %d arguments, want %d..%d", b.name, len(gargs), b.minArg, b.maxArg)
		}
		types := typesOf(gargs)
		for i, t := range types {
			if (t == TypeFunction || t == TypeBool) || (t == TypeSampler2D && (b.name != "texture2D" || i != 0)) {
				c.Errorf("%s: invalid argument %d of type %s", b.name, i, t)
			}
		}
		if b.check != nil {
			b.check(c, types)
		} else {
			checkGenType(c, b.name, types)
		}
		typ := b.forced
		if typ == typeInferred {
			typ = glbuild.Promote(types...)
		}
		v := c.UseVariable(b.name + "Val")
		arityOK := len(gargs) >= b.minArg && len(gargs) <= b.maxArg
		if b.fold != nil && arityOK && c.folding() && typ == TypeFloat {
			if consts, ok := constants(gargs); ok {
				if result := b.fold(consts); finite(result) {
					return c.emitConstant(v, result, gargs)
				}
			}
		}
		vars := make([]string, len(gargs))
		for i := range gargs {
			vars[i] = gargs[i].Variable
		}
		expr := glbuild.AppendCall(nil, b.name, vars...)
		code := glbuild.AppendDecl(nil, typ, v, string(expr))
		return c.Emit(typ, string(code), v, gargs...)
	})
}

// checkGenType verifies that every non scalar argument has the same vector type.
func checkGenType(c *Context, name string, types []GLType) {
	var shape GLType
	for _, t := range types {
		if t.IsScalar() {
			continue
		} else if !t.IsVector() {
			c.Errorf("%s: argument of type %s not allowed", name, t)
		} else if shape == 0 {
			shape = t
		} else if t != shape {
			c.Errorf("%s: mismatched argument types %s and %s", name, shape, t)
		}
	}
}

func unary(name string, fn func(float32) float32) builtin {
	b := builtin{name: name, minArg: 1, maxArg: 1, forced: typeInferred}
	if fn != nil {
		b.fold = func(x []float32) float32 { return fn(x[0]) }
	}
	return b
}

var (
	sinFn   = unary("sin", math.Sin)
	cosFn   = unary("cos", math.Cos)
	tanFn   = unary("tan", math.Tan)
	floorFn = unary("floor", math.Floor)
	ceilFn  = unary("ceil", math.Ceil)
	fractFn = unary("fract", func(x float32) float32 { return x - math.Floor(x) })
	absFn   = unary("abs", math.Abs)
	signFn  = unary("sign", glslSign)
	sqrtFn  = unary("sqrt", math.Sqrt)
	expFn   = unary("exp", math.Exp)
	exp2Fn  = unary("exp2", math.Exp2)
	logFn   = unary("log", math.Log)
	normFn  = unary("normalize", glslSign)
	atanFn  = builtin{name: "atan", minArg: 1, maxArg: 2, forced: typeInferred, fold: func(x []float32) float32 {
		if len(x) == 1 {
			return math.Atan(x[0])
		}
		return math.Atan2(x[0], x[1])
	}}
	powFn = builtin{name: "pow", minArg: 2, maxArg: 2, forced: typeInferred, fold: func(x []float32) float32 {
		return math.Pow(x[0], x[1])
	}}
	modFn = builtin{name: "mod", minArg: 2, maxArg: 2, forced: typeInferred, fold: func(x []float32) float32 {
		return x[0] - x[1]*math.Floor(x[0]/x[1])
	}}
	minFn = builtin{name: "min", minArg: 2, maxArg: 2, forced: typeInferred, fold: func(x []float32) float32 {
		return math.Min(x[0], x[1])
	}}
	maxFn = builtin{name: "max", minArg: 2, maxArg: 2, forced: typeInferred, fold: func(x []float32) float32 {
		return math.Max(x[0], x[1])
	}}
	clampFn = builtin{name: "clamp", minArg: 3, maxArg: 3, forced: typeInferred, fold: func(x []float32) float32 {
		return math.Min(math.Max(x[0], x[1]), x[2])
	}}
	mixFn = builtin{name: "mix", minArg: 3, maxArg: 3, forced: typeInferred, fold: func(x []float32) float32 {
		return x[0]*(1-x[2]) + x[1]*x[2]
	}}
	stepFn = builtin{name: "step", minArg: 2, maxArg: 2, forced: typeInferred, fold: func(x []float32) float32 {
		if x[1] < x[0] {
			return 0
		}
		return 1
	}}
	smoothstepFn = builtin{name: "smoothstep", minArg: 3, maxArg: 3, forced: typeInferred, fold: func(x []float32) float32 {
		t := math.Min(math.Max((x[2]-x[0])/(x[1]-x[0]), 0), 1)
		return t * t * (3 - 2*t)
	}}
	lengthFn = builtin{name: "length", minArg: 1, maxArg: 1, forced: TypeFloat, fold: func(x []float32) float32 {
		return math.Abs(x[0])
	}}
	distanceFn = builtin{name: "distance", minArg: 2, maxArg: 2, forced: TypeFloat, fold: func(x []float32) float32 {
		return math.Abs(x[0] - x[1])
	}}
	dotFn = builtin{name: "dot", minArg: 2, maxArg: 2, forced: TypeFloat, check: func(c *Context, types []GLType) {
		if len(types) == 2 && types[0] != types[1] {
			c.Errorf("dot: mismatched argument types %s and %s", types[0], types[1])
		}
		checkGenType(c, "dot", types)
	}, fold: func(x []float32) float32 { return x[0] * x[1] }}
	crossFn = builtin{name: "cross", minArg: 2, maxArg: 2, forced: TypeVec3, check: func(c *Context, types []GLType) {
		for _, t := range types {
			if t != TypeVec3 {
				c.Errorf("cross: requires vec3 arguments, got %s", t)
			}
		}
	}}
	texture2DFn = builtin{name: "texture2D", minArg: 2, maxArg: 2, forced: TypeVec4, check: func(c *Context, types []GLType) {
		if len(types) != 2 || types[0] != TypeSampler2D || types[1] != TypeVec2 {
			c.Errorf("texture2D: want (sampler2D, vec2) arguments, got %v", types)
		}
	}}
)

func glslSign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func Sin(x *Node) *Node       { return sinFn.node(x) }
func Cos(x *Node) *Node       { return cosFn.node(x) }
func Tan(x *Node) *Node       { return tanFn.node(x) }
func Floor(x *Node) *Node     { return floorFn.node(x) }
func Ceil(x *Node) *Node      { return ceilFn.node(x) }
func Fract(x *Node) *Node     { return fractFn.node(x) }
func Abs(x *Node) *Node       { return absFn.node(x) }
func Sign(x *Node) *Node      { return signFn.node(x) }
func Sqrt(x *Node) *Node      { return sqrtFn.node(x) }
func Exp(x *Node) *Node       { return expFn.node(x) }
func Exp2(x *Node) *Node      { return exp2Fn.node(x) }
func Log(x *Node) *Node       { return logFn.node(x) }
func Normalize(x *Node) *Node { return normFn.node(x) }

// Atan returns atan(y) with a single argument, and the angle of the vector (x, y) with two.
func Atan(y *Node, x ...*Node) *Node    { return atanFn.node(append([]*Node{y}, x...)...) }
func Pow(x, y *Node) *Node              { return powFn.node(x, y) }
func Mod(x, y *Node) *Node              { return modFn.node(x, y) }
func Min(x, y *Node) *Node              { return minFn.node(x, y) }
func Max(x, y *Node) *Node              { return maxFn.node(x, y) }
func Clamp(x, lo, hi *Node) *Node       { return clampFn.node(x, lo, hi) }
func Mix(x, y, t *Node) *Node           { return mixFn.node(x, y, t) }
func Step(edge, x *Node) *Node          { return stepFn.node(edge, x) }
func Smoothstep(e0, e1, x *Node) *Node  { return smoothstepFn.node(e0, e1, x) }
func Length(x *Node) *Node              { return lengthFn.node(x) }
func Distance(a, b *Node) *Node         { return distanceFn.node(a, b) }
func Dot(a, b *Node) *Node              { return dotFn.node(a, b) }
func Cross(a, b *Node) *Node            { return crossFn.node(a, b) }
func Texture2D(sampler, uv *Node) *Node { return texture2DFn.node(sampler, uv) }

// finite reports whether v can be written as a GLSL float literal.
func finite(v float32) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
