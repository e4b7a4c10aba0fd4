package zengl

import (
	"strings"

	"github.com/soypat/zengl/glbuild"
)

// Builtin outputs of each stage.
const (
	fragmentOutput = "gl_FragColor"
	vertexOutput   = "gl_Position"
)

// generateShader writes the stage compiled in c with root result g. Varyings
// of the paired fragment stage are passed as extra when writing a vertex stage.
// Assembly errors are recorded in c.
func generateShader(p *glbuild.Programmer, c *Context, g Generated, extra []VaryingDef) string {
	var st glbuild.Stage
	fns := g.Functions
	for _, u := range c.reg.uniforms {
		st.Uniforms = append(st.Uniforms, glbuild.Decl{Type: u.typ, Name: u.name})
	}
	if c.stage == StageVertex {
		for _, a := range c.reg.attributes {
			st.Attributes = append(st.Attributes, glbuild.Decl{Type: a.typ, Name: a.name})
		}
	}
	varyings := append(c.reg.varyings[:len(c.reg.varyings):len(c.reg.varyings)], extra...)
	for _, v := range varyings {
		st.Varyings = append(st.Varyings, glbuild.Decl{Type: v.Type, Name: v.Name})
	}
	if !g.IsReference() {
		st.Main = g.Code
	}
	st.Output = fragmentOutput
	if c.stage == StageVertex {
		st.Output = vertexOutput
		var epilogue strings.Builder
		for _, v := range extra {
			fns = append(fns, v.Functions...)
			if v.Code != "" {
				epilogue.WriteString(v.Code)
				epilogue.WriteByte('\n')
			}
			epilogue.WriteString(v.Name + " = " + v.Source + ";\n")
		}
		st.Epilogue = epilogue.String()
	}
	st.Result = outputExpr(c, g)
	for _, fn := range flattenFunctions(nil, fns) {
		st.Functions = append(st.Functions, fn.Decl())
	}

	var sb strings.Builder
	_, err := p.WriteStage(&sb, st)
	if err != nil {
		c.Errorf("%s", err)
	}
	return sb.String()
}

// outputExpr converts the root result to the vec4 expected by the stage output.
func outputExpr(c *Context, g Generated) string {
	switch g.Type {
	case TypeFloat:
		return "vec4(vec3(" + g.Variable + "), 1.0)"
	case TypeVec2:
		return "vec4(" + g.Variable + ", 0.0, 1.0)"
	case TypeVec3:
		return "vec4(" + g.Variable + ", 1.0)"
	case TypeVec4:
		return g.Variable
	}
	c.Errorf("%s stage output must be float or vector, got %s", c.stage, g.Type)
	return "vec4(0.0)"
}

// flattenFunctions appends fns to dst with every callee ahead of its callers.
func flattenFunctions(dst, fns []*Function) []*Function {
	for _, fn := range fns {
		dst = flattenFunctions(dst, fn.Functions)
		dst = appendUnique(dst, fn)
	}
	return dst
}
