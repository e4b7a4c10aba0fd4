package zengl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Context is the compilation state of one shader stage, or of a function or loop
// body nested inside one. Builders receive a Context through node evaluation and
// never need to create one.
type Context struct {
	stage   Stage
	emitted map[string]bool
	// inherit makes variables declared in parent visible, as is the case for loop bodies.
	inherit bool
	inLoop  bool
	parent  *Context
	sibling *Context
	sess    *session
	reg     *registry
}

// session is shared by every context of a single compilation so that
// generated names are unique across both stages and their nested bodies.
type session struct {
	counter   int
	memo      map[NodeID]*memoEntry
	functions map[NodeID]*Function
	opts      Options
}

type memoEntry struct {
	ctx *Context
	gen Generated
}

// registry holds the resources a stage needs at runtime. Entries are
// appended on first use and their order is the binding order.
type registry struct {
	uniforms   []*Uniform
	attributes []*Attribute
	varyings   []VaryingDef
	textures   []*Texture
	errors     []string
}

func newSession(opts Options) *session {
	return &session{
		memo:      make(map[NodeID]*memoEntry),
		functions: make(map[NodeID]*Function),
		opts:      opts,
	}
}

func newContext(stage Stage, sess *session) *Context {
	return &Context{
		stage:   stage,
		emitted: make(map[string]bool),
		sess:    sess,
		reg:     &registry{},
	}
}

// child returns a nested context sharing the session and registry of c.
func (c *Context) child(inherit bool) *Context {
	return &Context{
		stage:   c.stage,
		emitted: make(map[string]bool),
		inherit: inherit,
		inLoop:  inherit && c.inLoop,
		parent:  c,
		sibling: c.sibling,
		sess:    c.sess,
		reg:     c.reg,
	}
}

// Stage returns the shader stage compiled by the context.
func (c *Context) Stage() Stage { return c.stage }

// Sibling returns the vertex context paired with a fragment context, or nil.
func (c *Context) Sibling() *Context { return c.sibling }

// IsEmitted reports whether variable is declared in the scope of the context.
func (c *Context) IsEmitted(variable string) bool {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if ctx.emitted[variable] {
			return true
		} else if !ctx.inherit {
			break
		}
	}
	return false
}

func (c *Context) markEmitted(variables ...string) {
	for _, v := range variables {
		if v != "" {
			c.emitted[v] = true
		}
	}
}

// UseVariables returns one fresh identifier per base name. All identifiers
// returned by a single call share the same numeric suffix.
func (c *Context) UseVariables(bases ...string) []string {
	idx := c.sess.counter
	c.sess.counter++
	names := make([]string, len(bases))
	suffix := strconv.Itoa(idx)
	for i, base := range bases {
		names[i] = base + suffix
	}
	return names
}

// UseVariable is shorthand for a single name [Context.UseVariables] call.
func (c *Context) UseVariable(base string) string {
	return c.UseVariables(base)[0]
}

// Errorf records a graph construction error. Compilation always continues.
func (c *Context) Errorf(format string, args ...any) {
	c.reg.errors = append(c.reg.errors, fmt.Sprintf(format, args...))
}

// Errors returns the errors recorded while compiling the stage.
func (c *Context) Errors() []string { return c.reg.errors }

// Err returns the recorded errors joined, or nil if compilation was clean.
func (c *Context) Err() error {
	if len(c.reg.errors) == 0 {
		return nil
	}
	errs := make([]error, len(c.reg.errors))
	for i, s := range c.reg.errors {
		errs[i] = fmt.Errorf("%s: %s", c.stage, s)
	}
	return errors.Join(errs...)
}

// Uniforms returns the uniforms registered in the stage, including texture samplers.
func (c *Context) Uniforms() []*Uniform { return c.reg.uniforms }

// Attributes returns the attributes registered in the stage in binding order.
func (c *Context) Attributes() []*Attribute { return c.reg.attributes }

// Varyings returns the varyings registered in the stage.
func (c *Context) Varyings() []VaryingDef { return c.reg.varyings }

// Textures returns the textures registered in the stage in texture unit order.
func (c *Context) Textures() []*Texture { return c.reg.textures }

func (c *Context) folding() bool { return !c.sess.opts.NoConstantFolding }

// Gen evaluates n in the context. Memoized nodes are evaluated once per
// compilation; later evaluations return either the cached result or a
// reference-only result when the variable is already declared in scope.
func (c *Context) Gen(n *Node) Generated {
	if n == nil {
		c.Errorf("nil node operand")
		return Generated{Code: "0.0", Variable: "0.0", Type: TypeFloat, isConstant: true}
	} else if !n.memo {
		return n.gen(c)
	}
	entry, ok := c.sess.memo[n.id]
	if ok {
		g := entry.gen
		if c.IsEmitted(g.Variable) {
			return g.reference()
		} else if entry.ctx == c {
			return g
		} else if !c.anyEmitted(g.Variables) {
			c.markEmitted(g.Variables...)
			c.markEmitted(g.Variable)
			c.reg.addUniforms(g.Uniforms...)
			return g
		}
		// Part of the subtree is already declared in this scope: evaluate again
		// so shared parts resolve to references and the rest is declared here.
	}
	g := n.gen(c)
	c.sess.memo[n.id] = &memoEntry{ctx: c, gen: g}
	return g
}

func (c *Context) genAll(nodes []*Node) []Generated {
	gens := make([]Generated, len(nodes))
	for i, n := range nodes {
		gens[i] = c.Gen(n)
	}
	return gens
}

func (c *Context) anyEmitted(variables []string) bool {
	for _, v := range variables {
		if c.IsEmitted(v) {
			return true
		}
	}
	return false
}

// Emit builds the result of a node declaring variable with code. Dependency code
// not yet declared is prepended in argument order and metadata of the
// dependencies is propagated. Resource reads such as uniforms pass an empty
// code. Emit does not check types.
func (c *Context) Emit(typ GLType, code, variable string, deps ...Generated) Generated {
	g := Generated{Type: typ, Variable: variable}
	var sb strings.Builder
	for i := range deps {
		d := &deps[i]
		g.Variables = appendUnique(g.Variables, d.Variables...)
		g.Uniforms = appendUnique(g.Uniforms, d.Uniforms...)
		g.Attributes = appendUnique(g.Attributes, d.Attributes...)
		g.Functions = appendUnique(g.Functions, d.Functions...)
		g.FunctionArguments = appendUnique(g.FunctionArguments, d.FunctionArguments...)
		g.Accumulators = appendUnique(g.Accumulators, d.Accumulators...)
		if d.IsReference() {
			continue
		}
		if d.Code != "" {
			sb.WriteString(d.Code)
			sb.WriteByte('\n')
		}
		c.markEmitted(d.Variable)
	}
	if code != "" {
		g.Variables = appendUnique(g.Variables, variable)
	}
	sb.WriteString(code)
	g.Code = strings.TrimRight(sb.String(), "\n")
	c.markEmitted(variable)
	return g
}

func (r *registry) addUniforms(us ...*Uniform) {
	for _, u := range us {
		if u == nil {
			continue
		}
		r.uniforms = appendUnique(r.uniforms, u)
		if u.tex != nil {
			r.textures = appendUnique(r.textures, u.tex)
		}
	}
}

func (r *registry) addAttribute(a *Attribute) {
	r.attributes = appendUnique(r.attributes, a)
}

func (r *registry) addVarying(v VaryingDef) {
	for _, have := range r.varyings {
		if have.Name == v.Name {
			return
		}
	}
	r.varyings = append(r.varyings, v)
}
