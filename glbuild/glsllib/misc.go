package glsllib

import (
	_ "embed"
	"strings"
)

// Blit attribute and sampler names of the full-screen quad program.
const (
	BlitPositionAttrib = "aPosition"
	BlitTextureUniform = "uTexture"
)

//go:embed blit.vert.glsl
var blitVertSrc string

//go:embed blit.frag.glsl
var blitFragSrc string

// BlitVertex is the GLSL ES 1.00 vertex stage of the screen-quad blit program:
//
//	attribute vec2 aPosition; varying vec2 vTexCoord;
func BlitVertex() string { return blitVertSrc }

// BlitFragment is the GLSL ES 1.00 fragment stage of the screen-quad blit program.
// It samples uTexture at the interpolated quad coordinate.
func BlitFragment() string { return blitFragSrc }

// QuadVertices returns the 4 clip space vertices of a triangle strip covering the screen.
func QuadVertices() []float32 {
	return []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}
}

//go:embed es100to410.vert.glsl
var upgradeVert string

//go:embed es100to410.frag.glsl
var upgradeFrag string

// UpgradeES100 prepends the preprocessor shims that let GLSL ES 1.00 source
// compile as desktop GLSL 4.10 core and returns the null terminated result
// ready to be passed to the GL driver.
func UpgradeES100(src string, vertex bool) string {
	var sb strings.Builder
	if vertex {
		sb.WriteString(upgradeVert)
	} else {
		sb.WriteString(upgradeFrag)
	}
	sb.WriteString(src)
	if !strings.HasSuffix(src, "\x00") {
		sb.WriteByte(0)
	}
	return sb.String()
}
