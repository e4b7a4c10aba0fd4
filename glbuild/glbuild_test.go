package glbuild_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/zengl/glbuild"
)

func TestPromote(t *testing.T) {
	scalarsAndVecs := []glbuild.Type{glbuild.TypeFloat, glbuild.TypeVec2, glbuild.TypeVec3, glbuild.TypeVec4}
	for _, a := range scalarsAndVecs {
		for _, b := range scalarsAndVecs {
			got := glbuild.Promote(a, b)
			want := max(a, b)
			if got != want {
				t.Errorf("Promote(%s,%s)=%s, want %s", a, b, got, want)
			}
		}
	}
	if got := glbuild.Promote(); got != glbuild.TypeBool {
		t.Error("empty promotion should be zero type, got", got)
	}
}

func TestAppendLiteral(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{25, "25.0"},
		{0.5, "0.5"},
		{-3, "-3.0"},
		{0, "0.0"},
		{0.1, "0.1"},
		{1e21, "1.0e+21"},
	} {
		got := glbuild.Literal(test.v)
		if got != test.want {
			t.Errorf("Literal(%v)=%q, want %q", test.v, got, test.want)
		}
	}
}

func TestAppendFloatTrim(t *testing.T) {
	got := string(glbuild.AppendFloat(nil, 'n', 'p', -1.5))
	if got != "n1p5" {
		t.Errorf("got %q", got)
	}
}

func TestMat4ColumnMajor(t *testing.T) {
	m := ms3.RotationMat4(math.Pi/3, ms3.Vec{Z: 1})
	arr := m.Array()
	cm := glbuild.ColumnMajor(nil, 4, arr[:])
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if cm[c*4+r] != arr[r*4+c] {
				t.Fatalf("element (%d,%d) not in column major position", r, c)
			}
		}
	}
	got := string(glbuild.AppendMat4Decl(nil, "m", m))
	want := "mat4 m = mat4(" + string(glbuild.AppendLiterals(nil, cm...)) + ");"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestWriteStageOrder(t *testing.T) {
	fn := glbuild.FuncDecl{
		Name:   "twice",
		Return: glbuild.TypeFloat,
		Params: []glbuild.Param{{Type: glbuild.TypeFloat, Name: "x"}},
		Body:   "float r = x*2.0;",
		Result: "r",
	}
	st := glbuild.Stage{
		Uniforms:   []glbuild.Decl{{glbuild.TypeFloat, "u0"}, {glbuild.TypeFloat, "u0"}, {glbuild.TypeVec2, glbuild.ResolutionName}},
		Attributes: []glbuild.Decl{{glbuild.TypeVec2, "a1"}},
		Varyings:   []glbuild.Decl{{glbuild.TypeVec2, "v2"}},
		Functions:  []glbuild.FuncDecl{fn, fn},
		Main:       "float y = twice(u0);",
		Output:     "gl_FragColor",
		Result:     "vec4(y)",
	}
	var buf bytes.Buffer
	p := glbuild.NewDefaultProgrammer()
	n, err := p.WriteStage(&buf, st)
	if err != nil {
		t.Fatal(err)
	} else if n != buf.Len() {
		t.Fatal("written length mismatch")
	}
	src := buf.String()
	order := []string{
		glbuild.PrecisionStr,
		"uniform vec2 resolution;",
		"uniform float u0;",
		"attribute vec2 a1;",
		"varying vec2 v2;",
		"float twice(float x) {",
		"void main() {",
		"gl_FragColor = vec4(y);",
	}
	last := -1
	for _, s := range order {
		idx := strings.Index(src, s)
		if idx < 0 {
			t.Fatalf("missing %q in\n%s", s, src)
		} else if idx < last {
			t.Errorf("%q out of order in\n%s", s, src)
		}
		last = idx
	}
	for _, s := range []string{"uniform float u0;", "float twice(", "resolution;", "precision"} {
		if c := strings.Count(src, s); c != 1 {
			t.Errorf("want one %q, got %d\n%s", s, c, src)
		}
	}

	fn2 := fn
	fn2.Body = "float r = x*3.0;"
	st.Functions = []glbuild.FuncDecl{fn, fn2}
	buf.Reset()
	_, err = p.WriteStage(&buf, st)
	if err == nil {
		t.Error("expected conflicting function error")
	}
}
