package zengl

import (
	"strconv"
	"strings"

	"github.com/soypat/zengl/glbuild"
)

// AccumulatorDef is the loop carried variable created by a [LoopAccumulator] node.
type AccumulatorDef struct {
	// Name is the storage variable of the loop.
	Name    string
	Type    GLType
	Initial *Node
}

// SumLoop evaluates body iterations times and returns the sum of all results
// plus initial. The loop carried value is available inside body through a
// [LoopAccumulator] node, or through the lowest index [Argument] node when
// no accumulator is used. A nil initial starts the sum at zero.
func SumLoop(body, iterations, initial *Node) *Node {
	if initial == nil {
		initial = Float(0)
	}
	return newNode("sumLoop", func(c *Context) Generated {
		gi := c.Gen(iterations)
		if gi.Type != TypeFloat {
			c.Errorf("sumLoop: iteration count must be float, got %s", gi.Type)
		}
		lc := c.child(true)
		lc.inLoop = true
		gb := lc.Gen(body)

		var (
			loopVar string
			ginit   Generated
			accs    = gb.Accumulators
			args    = gb.FunctionArguments
		)
		switch {
		case len(accs) > 0:
			loopVar = accs[0].Name
			ginit = c.Gen(accs[0].Initial)
			accs = accs[1:]
		case len(args) > 0:
			bound := args[0]
			for _, arg := range args[1:] {
				if arg.Index < bound.Index {
					bound = arg
				}
			}
			loopVar = bound.Name
			ginit = c.Gen(initial)
			var rest []*ArgumentDef
			for _, arg := range args {
				if arg.Name != bound.Name {
					rest = append(rest, arg)
				}
			}
			args = rest
		default:
			loopVar = c.UseVariable("loopVal")
			ginit = c.Gen(initial)
		}
		typ := glbuild.Promote(gb.Type, ginit.Type)
		idx := c.UseVariable("i")

		var sb strings.Builder
		sb.Write(glbuild.AppendDecl(nil, typ, loopVar, cast(c, typ, ginit)))
		sb.WriteString("\nfor (float " + idx + " = 0.0; " + idx + " < ")
		count, constCount := gi.Constant()
		if constCount {
			sb.WriteString(glbuild.Literal(count))
		} else {
			sb.WriteString(strconv.Itoa(MaxLoopIterations) + ".0")
		}
		sb.WriteString("; " + idx + " += 1.0) {\n")
		if !constCount {
			sb.WriteString("\tif (" + idx + " >= " + gi.Variable + ") break;\n")
		}
		if !gb.IsReference() {
			for _, line := range strings.Split(gb.Code, "\n") {
				if line != "" {
					sb.WriteString("\t" + line + "\n")
				}
			}
		}
		sb.WriteString("\t" + loopVar + " += " + gb.Variable + ";\n}")

		g := c.Emit(typ, sb.String(), loopVar, ginit, gi)
		g.Uniforms = appendUnique(g.Uniforms, gb.Uniforms...)
		g.Attributes = appendUnique(g.Attributes, gb.Attributes...)
		g.Functions = appendUnique(g.Functions, gb.Functions...)
		g.FunctionArguments = appendUnique(g.FunctionArguments, args...)
		g.Accumulators = appendUnique(g.Accumulators, accs...)
		return g
	})
}

// BreakIf exits the enclosing [SumLoop] when cond is true, otherwise it evaluates to value.
func BreakIf(cond, value *Node) *Node {
	return newNode("breakIf", func(c *Context) Generated {
		gc := c.Gen(cond)
		gv := c.Gen(value)
		if !c.inLoop {
			c.Errorf("breakIf: used outside of a loop body")
		}
		if gc.Type != TypeBool {
			c.Errorf("breakIf: condition must be bool, got %s", gc.Type)
		}
		code := "if (" + gc.Variable + ") break;"
		return c.Emit(gv.Type, code, gv.Variable, gc, gv)
	})
}

// LoopAccumulator reads the running sum of the enclosing [SumLoop], which
// starts at initial. initial is evaluated before the loop.
func LoopAccumulator(name string, initial *Node) *Node {
	return newNode("loopAccumulator", func(c *Context) Generated {
		if !c.inLoop {
			c.Errorf("loopAccumulator %s: used outside of a loop body", name)
		}
		typ := typeOf(c, initial)
		storage, v := c.UseVariable(name), c.UseVariable("accum")
		def := &AccumulatorDef{Name: storage, Type: typ, Initial: initial}
		g := c.Emit(typ, string(glbuild.AppendDecl(nil, typ, v, storage)), v)
		g.Accumulators = appendUnique(g.Accumulators, def)
		return g
	})
}

// typeOf returns the result type of n without declaring anything in c.
func typeOf(c *Context, n *Node) GLType {
	scratch := newContext(c.stage, newSession(c.sess.opts))
	return scratch.Gen(n).Type
}
