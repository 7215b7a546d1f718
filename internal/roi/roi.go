// Package roi extracts and resizes the cast-bar region of interest from a
// captured window image, and converts the result into the plain pixel
// buffer the spark detector consumes. It is an external collaborator: the
// core (internal/spark) never imports it and never sees an image.Image.
package roi

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/chr-visesky/skillbarcap/internal/spark"
)

// Extract crops frame to the rectangle centered at (cx, cy) with the given
// width/height, clamping to the frame bounds the same way the teacher's
// ExtractROI does, then resizes it to (outW, outH) with a linear filter.
// Returns the resulting rectangle (relative to frame) alongside the image.
func Extract(frame image.Image, cx, cy, w, h, outW, outH int) (*image.NRGBA, image.Rectangle, error) {
	if frame == nil {
		return nil, image.Rectangle{}, errors.New("roi: nil frame")
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	b := frame.Bounds()
	x0, y0 := cx-w/2, cy-h/2
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x0+w > b.Max.X {
		w = b.Max.X - x0
	}
	if y0+h > b.Max.Y {
		h = b.Max.Y - y0
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	rect := image.Rect(x0, y0, x0+w, y0+h)

	cropped := imaging.Crop(frame, rect)
	if outW < 1 || outH < 1 {
		return cropped, rect, nil
	}
	resized := imaging.Resize(cropped, outW, outH, imaging.Linear)
	return resized, rect, nil
}

// ToFrame converts an *image.NRGBA (imaging's native format) into a
// spark.Frame in BGRA byte order, the layout spec's §6 input contract
// expects from a color source. The returned Frame owns a freshly allocated
// pixel slice and does not alias img.
func ToFrame(img *image.NRGBA) *spark.Frame {
	if img == nil {
		return &spark.Frame{}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, h*w*4)
	stride := w * 4
	for y := 0; y < h; y++ {
		srcRow := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dstRow := pix[y*stride : y*stride+stride]
		for x := 0; x < w; x++ {
			r, g, bl, a := srcRow[x*4], srcRow[x*4+1], srcRow[x*4+2], srcRow[x*4+3]
			dstRow[x*4], dstRow[x*4+1], dstRow[x*4+2], dstRow[x*4+3] = bl, g, r, a
		}
	}
	return &spark.Frame{Width: w, Height: h, Stride: stride, Pix: pix, Format: spark.FormatBGRA}
}
