package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// PrecisionStr is the precision directive that starts every stage emitted by a [Programmer].
const PrecisionStr = "precision mediump float;\n"

// ResolutionName is the name of the implicit vec2 uniform declared in every stage.
const ResolutionName = "resolution"

// Type is a GLSL ES 1.00 type. The ordinal order is significant:
// promotion of mixed operand types picks the greatest ordinal.
type Type uint8

const (
	TypeBool Type = iota
	TypeFloat
	TypeVec2
	TypeVec3
	TypeVec4
	TypeMat2
	TypeMat3
	TypeMat4
	TypeSampler2D
	TypeFunction
)

var typeNames = [...]string{
	TypeBool:      "bool",
	TypeFloat:     "float",
	TypeVec2:      "vec2",
	TypeVec3:      "vec3",
	TypeVec4:      "vec4",
	TypeMat2:      "mat2",
	TypeMat3:      "mat3",
	TypeMat4:      "mat4",
	TypeSampler2D: "sampler2D",
	TypeFunction:  "function",
}

var typeComponents = [...]int{
	TypeBool:      1,
	TypeFloat:     1,
	TypeVec2:      2,
	TypeVec3:      3,
	TypeVec4:      4,
	TypeMat2:      4,
	TypeMat3:      9,
	TypeMat4:      16,
	TypeSampler2D: 1,
	TypeFunction:  0,
}

// String returns the GLSL keyword of the type.
func (t Type) String() string {
	if int(t) >= len(typeNames) {
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// Components returns the number of float components needed to upload a value of the type.
func (t Type) Components() int {
	if int(t) >= len(typeComponents) {
		return 0
	}
	return typeComponents[t]
}

func (t Type) IsVector() bool { return t >= TypeVec2 && t <= TypeVec4 }
func (t Type) IsMatrix() bool { return t >= TypeMat2 && t <= TypeMat4 }
func (t Type) IsScalar() bool { return t == TypeFloat || t == TypeBool }

// Promote returns the widest of the argument types. Float and vec2 promote to vec2.
func Promote(types ...Type) (widest Type) {
	for _, t := range types {
		widest = max(widest, t)
	}
	return widest
}

// VecType returns the vector type with n components. n=1 returns [TypeFloat].
func VecType(n int) (Type, error) {
	switch n {
	case 1:
		return TypeFloat, nil
	case 2:
		return TypeVec2, nil
	case 3:
		return TypeVec3, nil
	case 4:
		return TypeVec4, nil
	}
	return 0, fmt.Errorf("no vector type with %d components", n)
}

// Decl is a named global declaration of a stage (uniform, attribute or varying).
type Decl struct {
	Type Type
	Name string
}

// Param is a function parameter.
type Param struct {
	Type Type
	Name string
}

// FuncDecl is a function definition to be written before main.
type FuncDecl struct {
	Name   string
	Return Type
	Params []Param
	// Body holds statements which declare Result.
	Body   string
	Result string
}

// Stage holds the sections of a single GLSL ES 1.00 shader stage.
type Stage struct {
	Uniforms   []Decl
	Attributes []Decl
	Varyings   []Decl
	Functions  []FuncDecl
	// Main is the statement sequence of main.
	Main string
	// Output is the builtin assigned Result at the end of main, i.e: gl_FragColor or gl_Position.
	Output string
	Result string
	// Epilogue statements are written after the output assignment.
	Epilogue string
}

// Programmer writes shader stages. It keeps scratch memory between calls
// so it should be reused when writing many stages.
type Programmer struct {
	names   map[uint64]uint64
	scratch []byte
}

// NewDefaultProgrammer returns a Programmer ready for use.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		names:   make(map[uint64]uint64),
		scratch: make([]byte, 0, 1024),
	}
}

// WriteStage writes the full stage source to w in the order precision, resolution, uniforms,
// attributes, varyings, functions and main. Declarations with a repeated name are written once.
// Functions with the same name and body are written once, same name with different
// bodies return an error after the whole stage is written.
func (p *Programmer) WriteStage(w io.Writer, st Stage) (n int, err error) {
	clear(p.names)
	b := append(p.scratch[:0], PrecisionStr...)
	b = AppendUniformDecl(b, TypeVec2, ResolutionName)
	p.names[hash([]byte(ResolutionName), 0)] = 0
	b = p.appendDecls(b, "uniform ", st.Uniforms)
	b = p.appendDecls(b, "attribute ", st.Attributes)
	b = p.appendDecls(b, "varying ", st.Varyings)
	var errs []error
	for i := range st.Functions {
		fn := &st.Functions[i]
		start := len(b)
		b = AppendFuncDecl(b, *fn)
		nameHash := hash([]byte(fn.Name), 1)
		bodyHash := hash(b[start:], nameHash) // Body hash mixes name as well.
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict {
			b = b[:start]
			if gotBodyHash != bodyHash {
				errs = append(errs, fmt.Errorf("function %q defined twice with distinct bodies", fn.Name))
			}
			continue
		}
		p.names[nameHash] = bodyHash
	}
	b = append(b, "void main() {\n"...)
	b = appendIndented(b, st.Main)
	if st.Output != "" && st.Result != "" {
		b = append(b, '\t')
		b = append(b, st.Output...)
		b = append(b, " = "...)
		b = append(b, st.Result...)
		b = append(b, ";\n"...)
	}
	b = appendIndented(b, st.Epilogue)
	b = append(b, "}\n"...)
	p.scratch = b
	n, err = w.Write(b)
	if err != nil {
		return n, err
	}
	return n, errors.Join(errs...)
}

func (p *Programmer) appendDecls(b []byte, qualifier string, decls []Decl) []byte {
	for _, d := range decls {
		h := hash([]byte(d.Name), 0)
		if _, dup := p.names[h]; dup {
			continue
		}
		p.names[h] = 0
		b = appendQualified(b, qualifier, d.Type, d.Name)
	}
	return b
}

// appendIndented appends each non-empty line of src prefixed by a tab.
func appendIndented(b []byte, src string) []byte {
	for len(src) > 0 {
		line := src
		idx := strings.IndexByte(src, '\n')
		if idx >= 0 {
			line = src[:idx]
			src = src[idx+1:]
		} else {
			src = ""
		}
		if len(line) == 0 {
			continue
		}
		b = append(b, '\t')
		b = append(b, line...)
		b = append(b, '\n')
	}
	return b
}

// AppendFuncDecl appends a function definition of the form
//
//	<type> <name>(<params>) {
//		<body>
//		return <result>;
//	}
func AppendFuncDecl(b []byte, fn FuncDecl) []byte {
	b = append(b, fn.Return.String()...)
	b = append(b, ' ')
	b = append(b, fn.Name...)
	b = append(b, '(')
	for i, p := range fn.Params {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, p.Type.String()...)
		b = append(b, ' ')
		b = append(b, p.Name...)
	}
	b = append(b, ") {\n"...)
	b = appendIndented(b, fn.Body)
	b = append(b, "\treturn "...)
	b = append(b, fn.Result...)
	b = append(b, ";\n}\n"...)
	return b
}

func AppendUniformDecl(b []byte, t Type, name string) []byte {
	return appendQualified(b, "uniform ", t, name)
}

func AppendAttributeDecl(b []byte, t Type, name string) []byte {
	return appendQualified(b, "attribute ", t, name)
}

func AppendVaryingDecl(b []byte, t Type, name string) []byte {
	return appendQualified(b, "varying ", t, name)
}

func appendQualified(b []byte, qualifier string, t Type, name string) []byte {
	b = append(b, qualifier...)
	b = append(b, t.String()...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, ";\n"...)
	return b
}

// AppendDecl appends a local declaration "<type> <name> = <expr>;" without trailing newline.
func AppendDecl(b []byte, t Type, name, expr string) []byte {
	b = append(b, t.String()...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, " = "...)
	b = append(b, expr...)
	b = append(b, ';')
	return b
}

// AppendCall appends "<fn>(<arg0>, <arg1>...)".
func AppendCall(b []byte, fn string, args ...string) []byte {
	b = append(b, fn...)
	b = append(b, '(')
	for i, arg := range args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, arg...)
	}
	b = append(b, ')')
	return b
}

// AppendDefineDecl appends a preprocessor define.
func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, " = "...)
	b = AppendLiteral(b, v)
	b = append(b, ';')
	return b
}

func AppendVec2Decl(b []byte, vec2Varname string, v ms2.Vec) []byte {
	arr := v.Array()
	return appendVecDecl(b, "vec2", vec2Varname, arr[:])
}

func AppendVec3Decl(b []byte, vec3Varname string, v ms3.Vec) []byte {
	arr := v.Array()
	return appendVecDecl(b, "vec3", vec3Varname, arr[:])
}

func appendVecDecl(b []byte, typename, name string, arr []float32) []byte {
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, " = "...)
	b = append(b, typename...)
	b = append(b, '(')
	b = AppendLiterals(b, arr...)
	b = append(b, ");"...)
	return b
}

func AppendMat2Decl(b []byte, mat2Varname string, m22 ms2.Mat2) []byte {
	arr := m22.Array()
	return appendMatDecl(b, "mat2", mat2Varname, 2, 2, arr[:])
}

func AppendMat3Decl(b []byte, mat3Varname string, m33 ms3.Mat3) []byte {
	arr := m33.Array()
	return appendMatDecl(b, "mat3", mat3Varname, 3, 3, arr[:])
}

func AppendMat4Decl(b []byte, mat4Varname string, m44 ms3.Mat4) []byte {
	arr := m44.Array()
	return appendMatDecl(b, "mat4", mat4Varname, 4, 4, arr[:])
}

func appendMatDecl(b []byte, typename, name string, row, col int, arr []float32) []byte {
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, " = "...)
	b = append(b, typename...)
	b = append(b, '(')
	b = AppendColumnMajor(b, row, col, arr)
	b = append(b, ");"...)
	return b
}

// AppendColumnMajor appends the comma separated literals of a row-major matrix in column-major order.
func AppendColumnMajor(b []byte, row, col int, arr []float32) []byte {
	for i := 0; i < row; i++ {
		for j := 0; j < col; j++ {
			v := arr[j*row+i] // Column major access, as per OpenGL standard.
			b = AppendLiteral(b, v)
			last := i == row-1 && j == col-1
			if !last {
				b = append(b, ',')
			}
		}
	}
	return b
}

// ColumnMajor reorders a row-major square matrix into the column-major order GL expects on upload.
func ColumnMajor(dst []float32, n int, rowMajor []float32) []float32 {
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			dst = append(dst, rowMajor[r*n+c])
		}
	}
	return dst
}

const decimalDigits = 9

// AppendFloat appends v with fixed decimal digits and trailing zeros trimmed.
// neg and decimal replace the minus sign and decimal point which is useful for building identifiers.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

// AppendLiteral appends v as a GLSL float literal: the shortest decimal
// representation with a ".0" suffix for integral values, i.e: 25.0, 0.5, -3.0.
func AppendLiteral(b []byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'g', -1, 32)
	if bytes.IndexAny(b[start:], ".eEnN") < 0 {
		b = append(b, ".0"...)
	} else if idx := bytes.IndexAny(b[start:], "eE"); idx >= 0 && bytes.IndexByte(b[start:start+idx], '.') < 0 {
		// Keep a decimal point in the mantissa: 1e+21 becomes 1.0e+21.
		exp := string(b[start+idx:])
		b = append(b[:start+idx], ".0"...)
		b = append(b, exp...)
	}
	return b
}

func AppendLiterals(b []byte, s ...float32) []byte {
	for i, v := range s {
		if i > 0 {
			b = append(b, ',')
		}
		b = AppendLiteral(b, v)
	}
	return b
}

// Literal returns v formatted as a GLSL float literal. See [AppendLiteral].
func Literal(v float32) string {
	var buf [24]byte
	return string(AppendLiteral(buf[:0], v))
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]

	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
