package zenaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/zengl"
)

// Hex converts c to a 24 bit 0xRRGGBB value as used by [zengl.NewColor]. Alpha is ignored.
func Hex(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}

// InterpHex interpolates between two 0xRRGGBB colors in HSV space, taking the short way around the hue circle.
func InterpHex(c0, c1 uint32, t float32) uint32 {
	return hexToHSV(c0).lerp(hexToHSV(c1), t).hex()
}

// Gradient returns n colors evenly spaced between c0 and c1, both included.
func Gradient(c0, c1 uint32, n int) []uint32 {
	if n <= 0 {
		return nil
	} else if n == 1 {
		return []uint32{c0}
	}
	colors := make([]uint32, n)
	for i := range colors {
		colors[i] = InterpHex(c0, c1, float32(i)/float32(n-1))
	}
	return colors
}

// ColorAttribute returns a vec3 attribute with one color per element, for
// per-vertex or per-instance coloring.
func ColorAttribute(colors []uint32, instanced bool) *zengl.Attribute {
	data := make([]float32, 0, 3*len(colors))
	for _, c := range colors {
		r, g, b := zengl.HexRGB(c)
		data = append(data, r, g, b)
	}
	return zengl.NewAttribute(zengl.TypeVec3, data, 3, instanced)
}

// hsv is a color with hue, saturation and value in [0, 1].
type hsv struct{ h, s, v float32 }

func hexToHSV(c uint32) hsv {
	r, g, b := zengl.HexRGB(c)
	hi, lo := max(r, g, b), min(r, g, b)
	chroma := hi - lo
	col := hsv{v: hi}
	if hi > 0 {
		col.s = chroma / hi
	}
	if chroma == 0 {
		return col
	}
	// Hue in sixths of a turn, measured from the dominant channel.
	var sixths float32
	switch hi {
	case r:
		sixths = (g - b) / chroma
	case g:
		sixths = 2 + (b-r)/chroma
	default:
		sixths = 4 + (r-g)/chroma
	}
	col.h = sixths / 6
	if col.h < 0 {
		col.h++
	}
	return col
}

// lerp moves from c toward to by t, crossing the red hue if it is closer.
func (c hsv) lerp(to hsv, t float32) hsv {
	h0, h1 := c.h, to.h
	if h1-h0 > 0.5 {
		h0++
	} else if h0-h1 > 0.5 {
		h1++
	}
	h := ms1.Interp(h0, h1, t)
	if h >= 1 {
		h--
	}
	return hsv{h: h, s: ms1.Interp(c.s, to.s, t), v: ms1.Interp(c.v, to.v, t)}
}

// rgb returns the color channels in [0, 1].
func (c hsv) rgb() (r, g, b float32) {
	h6 := c.h * 6
	if h6 >= 6 {
		h6 = 0
	}
	sector := math.Floor(h6)
	f := h6 - sector
	p := c.v * (1 - c.s)
	q := c.v * (1 - c.s*f)
	u := c.v * (1 - c.s*(1-f))
	switch int(sector) {
	case 0:
		return c.v, u, p
	case 1:
		return q, c.v, p
	case 2:
		return p, c.v, u
	case 3:
		return p, q, c.v
	case 4:
		return u, p, c.v
	}
	return c.v, p, q
}

// hex packs the color as 0xRRGGBB, rounding channels to the nearest byte.
func (c hsv) hex() uint32 {
	r, g, b := c.rgb()
	var hex uint32
	for _, ch := range [3]float32{r, g, b} {
		hex = hex<<8 | uint32(math.Round(ms1.Clamp(ch, 0, 1)*255))
	}
	return hex
}
