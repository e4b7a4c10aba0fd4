package zengl_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/soypat/zengl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileUV(t *testing.T) {
	uv := zengl.UV()
	job := zengl.Compile(zengl.Vec4(uv.X(), uv.Y(), zengl.Float(0), zengl.Float(1)), nil, zengl.TriangleStrip)
	require.NoError(t, job.Err())
	src := job.FragmentSource
	assert.True(t, strings.HasPrefix(src, "precision mediump float;\n"))
	assert.Equal(t, 1, strings.Count(src, "uniform vec2 resolution;"))
	assert.Equal(t, 1, strings.Count(src, "= ((gl_FragCoord.xy-resolution)/resolution.y);"))
	assert.Regexp(t, `\tgl_FragColor = vec4Val\d+;\n\}\n$`, src)
	assert.NotContains(t, src, "attribute")

	quad := job.Attributes()
	require.Len(t, quad, 1)
	assert.Equal(t, 4, quad[0].Count())
	assert.Contains(t, job.VertexSource, "attribute vec2 "+quad[0].Name()+";")
	assert.Contains(t, job.VertexSource, "gl_Position = vec4("+quad[0].Name()+", 0.0, 1.0);")
	assert.Equal(t, zengl.TriangleStrip, job.Mode)
}

func TestConstantFolding(t *testing.T) {
	graph := zengl.Mult(zengl.Add(zengl.Float(2), zengl.Float(3)), zengl.Float(10))
	job := zengl.Compile(graph, nil, zengl.TriangleStrip)
	require.NoError(t, job.Err())
	assert.Regexp(t, `\tfloat multVal\d+ = 50\.0;\n`, job.FragmentSource)
	assert.NotContains(t, job.FragmentSource, "+")
	assert.NotContains(t, job.FragmentSource, "*")
	assert.Contains(t, job.FragmentSource, "gl_FragColor = vec4(vec3(multVal")

	quad := zengl.NewAttribute(zengl.TypeVec2, []float32{-1, -1, 1, -1, -1, 1, 1, 1}, 2, false)
	job = zengl.CompileStagePair(quad.Node(), graph, zengl.Options{NoConstantFolding: true})
	require.NoError(t, job.Err())
	assert.Contains(t, job.FragmentSource, "= 2.0+3.0;")
	assert.Regexp(t, `float multVal\d+ = addVal\d+\*10\.0;`, job.FragmentSource)
}

func TestFoldingKeepsType(t *testing.T) {
	u := zengl.NewUniform(zengl.TypeVec2)
	folded := zengl.Sin(zengl.Float(0))
	job := zengl.Compile(zengl.Vec4(zengl.Add(u.Node(), folded), zengl.Float(0), zengl.Float(1)), nil, 0)
	require.NoError(t, job.Err())
	assert.Regexp(t, `float sinVal\d+ = 0\.0;`, job.FragmentSource)
	assert.Regexp(t, `vec2 addVal\d+ = `+u.Name()+`\+sinVal\d+;`, job.FragmentSource)
}

func TestFoldedOperandReused(t *testing.T) {
	sum := zengl.Add(zengl.Float(2), zengl.Float(3))
	job := zengl.Compile(zengl.Vec4(zengl.Mult(sum, zengl.Float(10)), sum, zengl.Float(0), zengl.Float(1)), nil, zengl.TriangleStrip)
	require.NoError(t, job.Err())
	src := job.FragmentSource
	m := regexp.MustCompile(`vec4\(multVal\d+, (addVal\d+), 0\.0, 1\.0\)`).FindStringSubmatch(src)
	require.NotNil(t, m, src)
	decl := "float " + m[1] + " = 5.0;"
	require.Contains(t, src, decl)
	assert.Less(t, strings.Index(src, decl), strings.Index(src, m[0]))

	sin := zengl.Sin(sum)
	job = zengl.Compile(zengl.Vec4(sin, zengl.Add(sum, zengl.UV().X()), zengl.Float(0), zengl.Float(1)), nil, zengl.TriangleStrip)
	require.NoError(t, job.Err())
	m = regexp.MustCompile(`float addVal\d+ = (addVal\d+)\+xVal\d+;`).FindStringSubmatch(job.FragmentSource)
	require.NotNil(t, m, job.FragmentSource)
	assert.Contains(t, job.FragmentSource, "float "+m[1]+" = 5.0;")
}

func TestFoldingSkipsNonFinite(t *testing.T) {
	for _, n := range []*zengl.Node{
		zengl.Div(zengl.Float(1), zengl.Float(0)),
		zengl.Log(zengl.Float(-1)),
		zengl.Sqrt(zengl.Float(-4)),
	} {
		job := zengl.Compile(zengl.Vec4(n, zengl.Float(0), zengl.Float(0), zengl.Float(1)), nil, zengl.TriangleStrip)
		require.NoError(t, job.Err())
		src := strings.ToLower(job.FragmentSource)
		assert.NotContains(t, src, "inf")
		assert.NotContains(t, src, "nan")
	}
	job := zengl.Compile(zengl.Vec4(zengl.Div(zengl.Float(1), zengl.Float(0)), zengl.Float(0), zengl.Float(0), zengl.Float(1)), nil, 0)
	assert.Regexp(t, `float divVal\d+ = 1\.0/0\.0;`, job.FragmentSource)
}

func TestVaryingStagePair(t *testing.T) {
	pos := zengl.NewAttribute(zengl.TypeVec2, []float32{0, 0, 1, 0, 0, 1}, 2, false)
	offset := zengl.NewUniform(zengl.TypeVec2, 0.5, 0.5)
	v := zengl.Varying(zengl.Add(pos.Node(), offset.Node()))
	job := zengl.CompileStagePair(pos.Node(), zengl.Vec4(v, zengl.Float(0), zengl.Float(1)), zengl.Options{Mode: zengl.Triangles})
	require.NoError(t, job.Err())

	varyings := job.Fragment.Varyings()
	require.Len(t, varyings, 1)
	vary := varyings[0]
	assert.Equal(t, zengl.TypeVec2, vary.Type)
	decl := "varying vec2 " + vary.Name + ";"

	vs := job.VertexSource
	assert.Contains(t, vs, "attribute vec2 "+pos.Name()+";")
	assert.Contains(t, vs, "uniform vec2 "+offset.Name()+";")
	assert.Contains(t, vs, decl)
	assert.Contains(t, vs, "\t"+vary.Name+" = "+vary.Source+";\n")
	assert.Contains(t, vs, vary.Source+" = "+pos.Name()+"+"+offset.Name()+";")
	// Copy statements follow the position output.
	assert.Greater(t, strings.Index(vs, vary.Name+" = "), strings.Index(vs, "gl_Position"))

	fs := job.FragmentSource
	assert.Contains(t, fs, decl)
	assert.NotContains(t, fs, "attribute")
	assert.NotContains(t, fs, offset.Name())
	assert.Contains(t, fs, "vec4("+vary.Name+", 0.0, 1.0)")

	vertices, instances := job.Counts()
	assert.Equal(t, 3, vertices)
	assert.Equal(t, 1, instances)
}

func TestVaryingReusesVertexDeclaration(t *testing.T) {
	pos := zengl.NewAttribute(zengl.TypeVec3, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, 3, false)
	scaled := zengl.Mult(pos.Node(), zengl.Float(0.5))
	v := zengl.Varying(scaled)
	job := zengl.CompileStagePair(scaled, zengl.Vec4(v, zengl.Float(1)), zengl.Options{Mode: zengl.Triangles})
	require.NoError(t, job.Err())
	vary := job.Fragment.Varyings()[0]
	assert.Empty(t, vary.Code)
	assert.Equal(t, 1, strings.Count(job.VertexSource, vary.Source+" = "+pos.Name()+"*0.5;"))
}

func TestStageErrors(t *testing.T) {
	attr := zengl.NewAttribute(zengl.TypeVec2, []float32{0, 0}, 2, false)
	tests := []struct {
		name     string
		vertex   *zengl.Node
		fragment *zengl.Node
		want     string
	}{
		{
			name:     "attribute in fragment",
			fragment: zengl.Vec4(attr.Node(), zengl.Float(0), zengl.Float(1)),
			want:     "vertex stage",
		},
		{
			name:     "varying in vertex",
			vertex:   zengl.Varying(attr.Node()),
			fragment: zengl.Red(),
			want:     "varying used outside",
		},
		{
			name:     "fragcoord in vertex",
			vertex:   zengl.UV(),
			fragment: zengl.Red(),
			want:     "gl_FragCoord",
		},
		{
			name:     "mismatched add",
			fragment: zengl.Add(zengl.Vec2(zengl.Float(1), zengl.Float(1)), zengl.Vec3(zengl.Float(1), zengl.Float(2), zengl.Float(3))),
			want:     "mismatched operand types vec2 and vec3",
		},
		{
			name:     "constructor components",
			fragment: zengl.Vec4(zengl.Float(1), zengl.Float(2)),
			want:     "provide 2 components, want 4",
		},
		{
			name:     "cross of vec2",
			fragment: zengl.Vec4(zengl.Cross(zengl.UV(), zengl.UV()), zengl.Float(1)),
			want:     "cross: requires vec3",
		},
		{
			name:     "texture2D of float",
			fragment: zengl.Texture2D(zengl.Float(1), zengl.UV()),
			want:     "texture2D",
		},
		{
			name:     "break outside loop",
			fragment: zengl.BreakIf(zengl.Lt(zengl.FragX(), zengl.Float(1)), zengl.Red()),
			want:     "breakIf: used outside",
		},
		{
			name:     "switch condition",
			fragment: zengl.Switch(zengl.Float(1), zengl.Red(), zengl.Blue()),
			want:     "condition must be bool",
		},
		{
			name:     "bool output",
			fragment: zengl.Lt(zengl.FragX(), zengl.FragY()),
			want:     "output must be float or vector",
		},
		{
			name:     "vector comparison",
			fragment: zengl.Switch(zengl.Lt(zengl.UV(), zengl.Float(0)), zengl.Red(), zengl.Blue()),
			want:     "lt: operand 0 must be scalar, got vec2",
		},
		{
			name:     "nil operand",
			fragment: zengl.Add(zengl.Float(1), nil),
			want:     "nil node",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vertex := test.vertex
			if vertex == nil {
				vertex = zengl.NewAttribute(zengl.TypeVec2, []float32{0, 0}, 2, false).Node()
			}
			job := zengl.CompileStagePair(vertex, test.fragment, zengl.Options{})
			err := job.Err()
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.want)
			// Errors never prevent source generation.
			assert.Contains(t, job.FragmentSource, "void main() {")
		})
	}
}

func TestPromotion(t *testing.T) {
	mat := zengl.NewUniform(zengl.TypeMat4)
	vec := zengl.NewUniform(zengl.TypeVec4)
	tex := zengl.NewFeedbackTexture()
	tests := []struct {
		node *zengl.Node
		decl string
	}{
		{zengl.Add(zengl.FragX(), zengl.UV()), "vec2 addVal"},
		{zengl.Mult(mat.Node(), vec.Node()), "vec4 multVal"},
		{zengl.Mult(vec.Node(), zengl.FragX()), "vec4 multVal"},
		{zengl.Length(zengl.UV()), "float lengthVal"},
		{zengl.Dot(vec.Node(), vec.Node()), "float dotVal"},
		{zengl.Distance(zengl.UV(), zengl.NUV()), "float distanceVal"},
		{zengl.Texture2D(tex.Node(), zengl.NUV()), "vec4 texture2DVal"},
		{zengl.Mix(zengl.UV(), zengl.NUV(), zengl.FragX()), "vec2 mixVal"},
		{zengl.Switch(zengl.Gt(zengl.FragX(), zengl.FragY()), zengl.FragX(), zengl.UV()), "vec2 switchVal"},
		{zengl.Swizzle(vec.Node(), "zyx"), "vec3 zyxVal"},
		{zengl.Swizzle(zengl.UV(), "y"), "float yVal"},
	}
	for _, test := range tests {
		job := zengl.Compile(test.node, nil, 0)
		require.NoError(t, job.Err(), test.decl)
		assert.Contains(t, job.FragmentSource, test.decl)
	}
}

func TestSwizzleShared(t *testing.T) {
	u := zengl.NewUniform(zengl.TypeVec3)
	n := u.Node()
	assert.Same(t, n.X(), n.X())
	assert.Same(t, zengl.Swizzle(n, "xy"), zengl.Swizzle(n, "xy"))
	assert.NotSame(t, zengl.Swizzle(n, "xy"), zengl.Swizzle(n, "yx"))

	for _, bad := range []string{"xg", "w", "xyzwx", "q"} {
		job := zengl.Compile(zengl.Vec4(zengl.Swizzle(n, bad), zengl.Float(1)), nil, 0)
		assert.Error(t, job.Err(), bad)
	}
}

func TestMatrixVector(t *testing.T) {
	m3 := zengl.NewUniform(zengl.TypeMat3)
	v4 := zengl.NewUniform(zengl.TypeVec4)
	job := zengl.Compile(zengl.Mult(m3.Node(), v4.Node()), nil, 0)
	require.Error(t, job.Err())

	m4 := zengl.NewUniform(zengl.TypeMat4)
	job = zengl.Compile(zengl.Mult(m4.Node(), v4.Node()), nil, 0)
	require.NoError(t, job.Err())
	assert.Contains(t, job.FragmentSource, m4.Name()+"*"+v4.Name())
}

func TestDefunCall(t *testing.T) {
	x := zengl.Argument("x", 0, zengl.TypeFloat)
	square := zengl.Defun("square", zengl.Mult(x, x))
	graph := zengl.Add(zengl.Call(square, zengl.FragX()), zengl.Call(square, zengl.FragY()))
	job := zengl.Compile(graph, nil, 0)
	require.NoError(t, job.Err())
	src := job.FragmentSource
	assert.Equal(t, 1, strings.Count(src, "float square(float x) {"))
	assert.Regexp(t, `\tfloat funcArg\d+ = x;\n`, src)
	assert.Equal(t, 2, strings.Count(src, "= square("))
	// Functions are declared before main.
	assert.Less(t, strings.Index(src, "float square("), strings.Index(src, "void main()"))
}

func TestDefunParameterOrder(t *testing.T) {
	a := zengl.Argument("a", 1, zengl.TypeVec2)
	b := zengl.Argument("b", 0, zengl.TypeFloat)
	u := zengl.NewUniform(zengl.TypeFloat, 2)
	scale := zengl.Defun("scale", zengl.Mult(a, b, u.Node()))
	outer := zengl.Defun("outer", zengl.Call(scale, zengl.Argument("s", 0, zengl.TypeFloat), zengl.Vec2(zengl.Float(1), zengl.Float(2))))
	job := zengl.Compile(zengl.Vec4(zengl.Call(outer, zengl.FragX()), zengl.Float(0), zengl.Float(1)), nil, 0)
	require.NoError(t, job.Err())
	src := job.FragmentSource
	assert.Contains(t, src, "vec2 scale(float b, vec2 a) {")
	assert.Contains(t, src, "vec2 outer(float s) {")
	assert.Less(t, strings.Index(src, "vec2 scale("), strings.Index(src, "vec2 outer("))
	assert.Equal(t, 1, strings.Count(src, "uniform float "+u.Name()+";"))
}

func TestCallErrors(t *testing.T) {
	x := zengl.Argument("x", 0, zengl.TypeVec2)
	fn := zengl.Defun("half", zengl.Mult(x, zengl.Float(0.5)))
	job := zengl.Compile(zengl.Vec4(zengl.Call(fn, zengl.FragX()), zengl.Float(0), zengl.Float(1)), nil, 0)
	require.Error(t, job.Err())
	assert.Contains(t, job.Err().Error(), "argument 0 is float, want vec2")

	job = zengl.Compile(zengl.Call(zengl.FragX(), zengl.FragY()), nil, 0)
	require.Error(t, job.Err())
	assert.Contains(t, job.Err().Error(), "not a function")
}

func TestFunctionNameConflict(t *testing.T) {
	x := zengl.Argument("x", 0, zengl.TypeFloat)
	f1 := zengl.Defun("f", zengl.Mult(x, zengl.Float(2)))
	f2 := zengl.Defun("f", zengl.Add(x, zengl.Float(2)))
	job := zengl.Compile(zengl.Add(zengl.Call(f1, zengl.FragX()), zengl.Call(f2, zengl.FragY())), nil, 0)
	require.Error(t, job.Err())
	assert.Contains(t, job.Err().Error(), `function "f" defined twice`)
}

func TestSumLoop(t *testing.T) {
	u := zengl.NewUniform(zengl.TypeFloat, 1)
	body := zengl.Add(zengl.Sin(u.Node()), zengl.Float(1))
	job := zengl.Compile(zengl.SumLoop(body, zengl.Float(4), nil), nil, 0)
	require.NoError(t, job.Err())
	src := job.FragmentSource
	assert.Regexp(t, `\tfloat loopVal(\d+) = 0\.0;\n\tfor \(float i(\d+) = 0\.0; i\d+ < 4\.0; i\d+ \+= 1\.0\) \{\n`, src)
	assert.Regexp(t, `\t\tloopVal\d+ \+= addVal\d+;\n\t\}`, src)
	assert.NotContains(t, src, "break")

	iters := zengl.NewUniform(zengl.TypeFloat, 10)
	job = zengl.Compile(zengl.SumLoop(body, iters.Node(), zengl.Float(2)), nil, 0)
	require.NoError(t, job.Err())
	src = job.FragmentSource
	assert.Contains(t, src, "< 1024.0;")
	assert.Regexp(t, `\t\tif \(i\d+ >= `+iters.Name()+`\) break;\n`, src)
	assert.Regexp(t, `float loopVal\d+ = 2\.0;`, src)
}

func TestSumLoopAccumulator(t *testing.T) {
	acc := zengl.LoopAccumulator("sum", zengl.Vec2(zengl.Float(1), zengl.Float(1)))
	body := zengl.Mult(acc, zengl.Float(0.5))
	job := zengl.Compile(zengl.Vec4(zengl.SumLoop(body, zengl.Float(3), nil), zengl.Float(0), zengl.Float(1)), nil, 0)
	require.NoError(t, job.Err())
	src := job.FragmentSource
	m := regexp.MustCompile(`vec2 accum\d+ = (sum\d+);`).FindStringSubmatch(src)
	require.NotNil(t, m, src)
	storage := m[1]
	assert.Regexp(t, `\tvec2 `+storage+` = vec2Val\d+;\n\tfor`, src)
	assert.Regexp(t, `\t\t`+storage+` \+= multVal\d+;`, src)

	job = zengl.Compile(zengl.Vec4(acc, zengl.Float(0), zengl.Float(1)), nil, 0)
	require.Error(t, job.Err())
	assert.Contains(t, job.Err().Error(), "used outside of a loop body")
}

func TestSumLoopArgument(t *testing.T) {
	x := zengl.Argument("x", 0, zengl.TypeFloat)
	body := zengl.BreakIf(zengl.Gt(x, zengl.Float(100)), zengl.Mult(x, zengl.Float(2)))
	job := zengl.Compile(zengl.SumLoop(body, zengl.Float(8), zengl.Float(1)), nil, 0)
	require.NoError(t, job.Err())
	src := job.FragmentSource
	assert.Contains(t, src, "\tfloat x = 1.0;\n")
	assert.Regexp(t, `\t\tif \(gtVal\d+\) break;\n`, src)
	assert.Regexp(t, `\t\tx \+= multVal\d+;`, src)
}

func TestUniqueNames(t *testing.T) {
	u := zengl.NewUniform(zengl.TypeVec2)
	shared := zengl.Add(zengl.UV(), u.Node())
	x := zengl.Argument("p", 0, zengl.TypeVec2)
	fn := zengl.Defun("wave", zengl.Sin(zengl.Add(x, shared)))
	graph := zengl.Vec4(
		zengl.Call(fn, shared),
		zengl.SumLoop(zengl.Length(zengl.Mult(shared, zengl.Float(2))), zengl.Float(3), nil),
		zengl.Length(shared),
	)
	job := zengl.Compile(graph, nil, 0)
	require.NoError(t, job.Err())
	seen := make(map[string]bool)
	declRe := regexp.MustCompile(`(?m)^\t(?:float|bool|vec[234]|mat[234]) (\w+) = `)
	// Function bodies are scopes of their own, only check main.
	_, main, ok := strings.Cut(job.FragmentSource, "void main() {")
	require.True(t, ok)
	for _, m := range declRe.FindAllStringSubmatch(main, -1) {
		assert.False(t, seen[m[1]], "redeclared %s", m[1])
		seen[m[1]] = true
	}
	assert.NotEmpty(t, seen)
	assert.Equal(t, 1, strings.Count(job.FragmentSource, "uniform vec2 "+u.Name()+";"))
}

func TestTextures(t *testing.T) {
	fb := zengl.NewFeedbackTexture()
	img, err := zengl.NewTexture(2, 2, nil)
	require.NoError(t, err)
	graph := zengl.Add(zengl.Texture2D(fb.Node(), zengl.NUV()), zengl.Texture2D(img.Node(), zengl.NUV()))
	job := zengl.Compile(graph, nil, 0)
	require.NoError(t, job.Err())
	assert.Equal(t, []*zengl.Texture{fb, img}, job.Textures())
	assert.Same(t, fb, job.Feedback())
	assert.Contains(t, job.FragmentSource, "uniform sampler2D "+fb.Uniform().Name()+";")

	assert.Error(t, fb.Set(1, 1, make([]byte, 4)))
	assert.Error(t, img.Set(2, 2, make([]byte, 3)))
	_, err = zengl.NewTexture(0, 1, nil)
	assert.Error(t, err)
	assert.Error(t, fb.Uniform().Set(1))
}

func TestUniformSet(t *testing.T) {
	u := zengl.NewUniform(zengl.TypeVec3, 1, 2, 3)
	v, version := u.Value(nil)
	assert.Equal(t, []float32{1, 2, 3}, v)
	require.Error(t, u.Set(1, 2))
	require.NoError(t, u.Set(4, 5, 6))
	v, next := u.Value(v[:0])
	assert.Equal(t, []float32{4, 5, 6}, v)
	assert.Greater(t, next, version)
	u.Resend()
	_, resent := u.Value(nil)
	assert.Greater(t, resent, next)

	bad := zengl.NewUniform(zengl.TypeFloat, 1, 2)
	job := zengl.Compile(zengl.Vec4(bad.Node()), nil, 0)
	assert.Error(t, job.Err())
}

func TestColor(t *testing.T) {
	c := zengl.NewColor(0xff0080)
	job := zengl.Compile(c.Node(), nil, 0)
	require.NoError(t, job.Err())
	uniforms := job.Fragment.Uniforms()
	require.Len(t, uniforms, 3)
	var got []float32
	for _, u := range uniforms {
		got, _ = u.Value(got)
	}
	assert.InDeltaSlice(t, []float32{1, 0, 128. / 255}, got, 1e-6)
	c.Set(0x00ff00)
	got = got[:0]
	for _, u := range uniforms {
		got, _ = u.Value(got)
	}
	assert.Equal(t, []float32{0, 1, 0}, got)
}

func TestInstancedCounts(t *testing.T) {
	quad := zengl.NewAttribute(zengl.TypeVec2, []float32{-1, -1, 1, -1, -1, 1, 1, 1}, 2, false)
	offsets := zengl.NewAttribute(zengl.TypeVec2, make([]float32, 2*5), 2, true)
	job := zengl.CompileStagePair(zengl.Add(quad.Node(), offsets.Node()), zengl.White(), zengl.Options{Mode: zengl.TriangleStrip})
	require.NoError(t, job.Err())
	assert.True(t, job.Instanced())
	vertices, instances := job.Counts()
	assert.Equal(t, 4, vertices)
	assert.Equal(t, 5, instances)
	assert.Equal(t, []*zengl.Attribute{quad, offsets}, job.Attributes())

	require.NoError(t, offsets.Set(make([]float32, 2*7)))
	_, instances = job.Counts()
	assert.Equal(t, 7, instances)
	assert.Error(t, offsets.Set(make([]float32, 3)))

	job = zengl.CompileStagePair(quad.Node(), zengl.White(), zengl.Options{Indices: []uint16{0, 1, 2}})
	vertices, _ = job.Counts()
	assert.Equal(t, 3, vertices)
}
