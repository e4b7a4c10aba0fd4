package zengl

import (
	"sort"

	"github.com/soypat/zengl/glbuild"
)

// Function is a GLSL function extracted from a [Defun] body.
type Function struct {
	Name   string
	Return GLType
	Params []glbuild.Param
	Body   string
	Result string
	// Uniforms referenced by the body.
	Uniforms []*Uniform
	// Functions called by the body. They must be declared before this function.
	Functions []*Function
}

// Decl returns the declaration of the function to be written by a [glbuild.Programmer].
func (fn *Function) Decl() glbuild.FuncDecl {
	return glbuild.FuncDecl{
		Name:   fn.Name,
		Return: fn.Return,
		Params: fn.Params,
		Body:   fn.Body,
		Result: fn.Result,
	}
}

// ArgumentDef is a function parameter captured by an [Argument] node.
type ArgumentDef struct {
	Name  string
	Index int
	Type  GLType
}

// Defun defines a function named name returning body. Parameters are the
// [Argument] nodes reachable from body, ordered by their index. The body is
// compiled in its own scope once per compilation. Invoke it with [Call].
func Defun(name string, body *Node) *Node {
	n := &Node{id: nextNodeID(), kind: "defun"}
	n.gen = func(c *Context) Generated {
		fn, ok := c.sess.functions[n.id]
		if !ok {
			fn = buildFunction(c, name, body)
			c.sess.functions[n.id] = fn
		}
		c.reg.addUniforms(fn.Uniforms...)
		return Generated{
			Variable:  fn.Name,
			Type:      TypeFunction,
			Uniforms:  fn.Uniforms,
			Functions: []*Function{fn},
			function:  fn,
		}
	}
	return n
}

func buildFunction(c *Context, name string, body *Node) *Function {
	fc := c.child(false)
	gb := fc.Gen(body)
	if gb.Type == TypeFunction || gb.Type == TypeSampler2D {
		c.Errorf("defun %s: cannot return %s", name, gb.Type)
	}
	args := append([]*ArgumentDef(nil), gb.FunctionArguments...)
	sort.SliceStable(args, func(i, j int) bool { return args[i].Index < args[j].Index })
	var params []glbuild.Param
	for _, arg := range args {
		dup := false
		for _, p := range params {
			if p.Name == arg.Name {
				dup = true
				if p.Type != arg.Type {
					c.Errorf("defun %s: argument %q used as %s and %s", name, arg.Name, p.Type, arg.Type)
				}
				break
			}
		}
		if !dup {
			params = append(params, glbuild.Param{Type: arg.Type, Name: arg.Name})
		}
	}
	code := gb.Code
	if gb.IsReference() {
		code = ""
	}
	return &Function{
		Name:      name,
		Return:    gb.Type,
		Params:    params,
		Body:      code,
		Result:    gb.Variable,
		Uniforms:  gb.Uniforms,
		Functions: gb.Functions,
	}
}

// Call invokes a function defined with [Defun]. Arguments are evaluated in the caller's scope.
func Call(fn *Node, args ...*Node) *Node {
	return newNode("call", func(c *Context) Generated {
		gargs := c.genAll(args)
		gf := c.Gen(fn)
		f := gf.function
		if f == nil {
			c.Errorf("call: operand of type %s is not a function", gf.Type)
			if len(gargs) > 0 {
				return gargs[0]
			}
			return c.Gen(Float(0))
		}
		if len(gargs) != len(f.Params) {
			c.Errorf("call %s: got %d arguments, want %d", f.Name, len(gargs), len(f.Params))
		}
		vars := make([]string, len(gargs))
		for i := range gargs {
			vars[i] = gargs[i].Variable
			if i < len(f.Params) && gargs[i].Type != f.Params[i].Type {
				c.Errorf("call %s: argument %d is %s, want %s", f.Name, i, gargs[i].Type, f.Params[i].Type)
			}
		}
		v := c.UseVariable(f.Name + "Value")
		expr := glbuild.AppendCall(nil, f.Name, vars...)
		code := glbuild.AppendDecl(nil, f.Return, v, string(expr))
		g := c.Emit(f.Return, string(code), v, gargs...)
		g.Functions = appendUnique(g.Functions, f)
		g.Uniforms = appendUnique(g.Uniforms, f.Uniforms...)
		return g
	})
}

// Argument reads the function parameter name, which is the index'th parameter
// of the enclosing [Defun]. When used in a [SumLoop] body the lowest index
// argument is bound to the loop accumulator instead.
func Argument(name string, index int, typ GLType) *Node {
	def := &ArgumentDef{Name: name, Index: index, Type: typ}
	return newNode("argument", func(c *Context) Generated {
		v := c.UseVariable("funcArg")
		code := glbuild.AppendDecl(nil, typ, v, name)
		g := c.Emit(typ, string(code), v)
		g.FunctionArguments = appendUnique(g.FunctionArguments, def)
		return g
	})
}
