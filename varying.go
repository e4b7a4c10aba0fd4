package zengl

import (
	"strconv"
)

// VaryingDef is a value computed per vertex and interpolated for the fragment stage.
type VaryingDef struct {
	Name string
	Type GLType
	// Source is the vertex stage variable copied into the varying.
	Source string
	// Code declares Source in the vertex stage. Empty when Source is already declared.
	Code      string
	Uniforms  []*Uniform
	Functions []*Function
}

// Varying evaluates n in the vertex stage and reads its interpolated value in
// the fragment stage. It can only be used in the fragment graph of a stage pair.
func Varying(n *Node) *Node {
	var self *Node
	self = newLeaf("varying", func(c *Context) Generated {
		name := "varying" + strconv.FormatUint(uint64(self.id), 10)
		vc := c.sibling
		if c.stage != StageFragment || vc == nil {
			c.Errorf("%s: varying used outside of a fragment stage paired with a vertex stage", name)
			return c.Gen(n)
		}
		g := vc.Gen(n)
		switch g.Type {
		case TypeBool, TypeSampler2D, TypeFunction:
			c.Errorf("%s: %s cannot be interpolated", name, g.Type)
		}
		code := g.Code
		if g.IsReference() {
			code = ""
		}
		vc.reg.addUniforms(g.Uniforms...)
		c.reg.addVarying(VaryingDef{
			Name:      name,
			Type:      g.Type,
			Source:    g.Variable,
			Code:      code,
			Uniforms:  g.Uniforms,
			Functions: g.Functions,
		})
		return c.Emit(g.Type, "", name)
	})
	return self
}
