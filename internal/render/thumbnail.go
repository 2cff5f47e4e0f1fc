package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Thumbnail draws the view at its full size, scales the PNG down to
// width x height and stamps caption in the lower left corner. The chart keeps
// its full-size layout instead of squeezing axes into a few pixels.
func Thumbnail(w io.Writer, v View, width, height int, caption string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid thumbnail size %dx%d", width, height)
	}

	var full bytes.Buffer
	if err := Render(&full, PNG, v); err != nil {
		return err
	}
	src, err := png.Decode(&full)
	if err != nil {
		return fmt.Errorf("failed to decode chart: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	if caption != "" {
		stamp(dst, caption, surfaceFor(v.State.Theme).text)
	}

	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}

func stamp(dst *image.RGBA, text string, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}

	b := dst.Bounds()
	x := b.Min.X + 6
	y := b.Max.Y - 6
	if tw := d.MeasureString(text).Ceil(); x+tw > b.Max.X {
		x = b.Min.X
	}
	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d.DrawString(text)
}
