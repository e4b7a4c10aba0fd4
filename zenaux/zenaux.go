// Package zenaux has helpers to get zengl graphs on screen quickly.
// Applications with their own window or event handling should use
// packages glrender and gldevice directly.
package zenaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/soypat/zengl"
	"github.com/soypat/zengl/gldevice"
	"github.com/soypat/zengl/glrender"
	"golang.org/x/image/draw"
)

type UIConfig struct {
	// Context cancels the frame loop when done.
	Context context.Context
	Title   string
	Width   int
	Height  int
	// FPS limits the frame rate. Zero renders as fast as buffer swaps allow.
	FPS       int
	Resizable bool
	// Time, if set, is a float uniform updated with the seconds elapsed every frame.
	Time *zengl.Uniform
	// OnFrame is called before rendering every frame.
	OnFrame func(frame uint64, seconds float64)
	// SnapshotPath, if set, is where the last frame is saved as PNG on exit.
	SnapshotPath string
	Logger       *slog.Logger
}

// UI opens a window and renders jobs until the window is closed or the
// context is cancelled. It must be called from the main goroutine.
func UI(cfg UIConfig, jobs ...*zengl.Job) (err error) {
	log := cfg.Logger
	if log == nil {
		log = glrender.Logger()
	}
	if cfg.Time != nil && cfg.Time.Type() != zengl.TypeFloat {
		return fmt.Errorf("time uniform must be float, got %s", cfg.Time.Type())
	}
	win, err := gldevice.NewWindow(gldevice.WindowConfig{
		Title:        cfg.Title,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Resizable:    cfg.Resizable,
		SwapInterval: 1,
	})
	if err != nil {
		return err
	}
	defer win.Close()
	watch := stopwatch()
	r, err := glrender.Mount(win, jobs...)
	if err != nil {
		return err
	}
	defer r.Dispose()
	if err := r.Err(); err != nil {
		log.Warn("some jobs failed to link", slog.String("err", err.Error()))
	}
	log.Info("mounted", slog.Int("jobs", r.Jobs()), slog.Duration("elapsed", watch()))

	var frameTime time.Duration
	if cfg.FPS > 0 {
		frameTime = time.Second / time.Duration(cfg.FPS)
	}
	ctx := cfg.Context
	watch = stopwatch()
	for !win.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				err = ctx.Err()
			default:
			}
			if err != nil {
				break
			}
		}
		start := time.Now()
		seconds := win.Time()
		if cfg.Time != nil {
			cfg.Time.Set(float32(seconds))
		}
		if cfg.OnFrame != nil {
			cfg.OnFrame(r.Frame(), seconds)
		}
		r.Render(win.FramebufferSize())
		win.Present()
		if elapsed := time.Since(start); elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
	elapsed := watch()
	if frames := r.Frame(); frames > 0 && elapsed > 0 {
		log.Info("frame loop done", slog.Uint64("frames", frames), slog.Float64("fps", float64(frames)/elapsed.Seconds()))
	}
	if cfg.SnapshotPath != "" && r.Frame() > 0 {
		// The back buffer is undefined after a swap.
		r.Render(win.FramebufferSize())
		if serr := SavePNG(cfg.SnapshotPath, r); serr != nil {
			err = errors.Join(err, serr)
		}
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// Snapshotter reads back rendered frames. [glrender.Renderer] implements it.
type Snapshotter interface {
	Snapshot(dst *image.RGBA) (*image.RGBA, error)
}

// WritePNG encodes the last frame rendered by s as PNG.
func WritePNG(w io.Writer, s Snapshotter) error {
	img, err := s.Snapshot(nil)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SavePNG writes the last frame rendered by s to a PNG file with said filename.
func SavePNG(filename string, s Snapshotter) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = WritePNG(fp, s)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// TextureFromImage creates a texture of the given size from img. The image is
// scaled with Catmull-Rom interpolation when sizes differ. Non positive
// dimensions use the image size.
func TextureFromImage(img image.Image, width, height int) (*zengl.Texture, error) {
	width, height = textureSize(img, width, height)
	t, err := zengl.NewTexture(width, height, nil)
	if err != nil {
		return nil, err
	}
	err = SetTextureImage(t, img, width, height)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetTextureImage stages img as the new data of t, see [TextureFromImage].
func SetTextureImage(t *zengl.Texture, img image.Image, width, height int) error {
	width, height = textureSize(img, width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	bb := img.Bounds()
	if bb.Dx() == width && bb.Dy() == height {
		draw.Draw(dst, dst.Rect, img, bb.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Rect, img, bb, draw.Src, nil)
	}
	// Textures start at the bottom row.
	stride := 4 * width
	rgba := make([]byte, len(dst.Pix))
	for y := 0; y < height; y++ {
		copy(rgba[(height-1-y)*stride:(height-y)*stride], dst.Pix[y*dst.Stride:y*dst.Stride+stride])
	}
	return t.Set(width, height, rgba)
}

func textureSize(img image.Image, width, height int) (int, int) {
	bb := img.Bounds()
	if width <= 0 {
		width = bb.Dx()
	}
	if height <= 0 {
		height = bb.Dy()
	}
	return width, height
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
