package glrender

import (
	"errors"
	"image"
)

// Snapshot reads the last rendered frame into dst. dst is resized if its
// bounds do not match the surface size; the resulting image is returned.
// Rows are flipped so the image origin is the top left corner.
func (r *Renderer) Snapshot(dst *image.RGBA) (*image.RGBA, error) {
	if r.disposed {
		return nil, errors.New("glrender: snapshot of disposed renderer")
	} else if r.width <= 0 || r.height <= 0 {
		return nil, errors.New("glrender: snapshot before first frame")
	}
	w, h := r.width, r.height
	if dst == nil || dst.Bounds().Dx() != w || dst.Bounds().Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	n := 4 * w * h
	if cap(r.pix) < n {
		r.pix = make([]byte, n)
	}
	pix := r.pix[:n]
	r.dev.BindFramebuffer(0)
	err := r.dev.ReadPixels(w, h, pix)
	if err != nil {
		return nil, err
	}
	flipRows(dst, pix, w, h)
	return dst, nil
}

// Image returns a copy of the last rendered frame.
func (r *Renderer) Image() (image.Image, error) {
	img, err := r.Snapshot(nil)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// flipRows copies bottom-up RGBA rows in src into dst with the top row first.
func flipRows(dst *image.RGBA, src []byte, w, h int) {
	stride := 4 * w
	for y := 0; y < h; y++ {
		srow := src[(h-1-y)*stride : (h-y)*stride]
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[off:off+stride], srow)
	}
}
