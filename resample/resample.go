/*
Package resample fits a raw RGBA pixel buffer into the pixel budget of a
GoldSrc decal texture.

Both sides of the result are multiples of 8 so that the three smaller mip
levels have whole dimensions, neither side is larger than 256 pixels and the
total number of pixels never exceeds the chosen budget. Tempdecal textures
accepted by every GoldSrc game are limited to 12288 pixels, Sven Co-op accepts
up to 14336.
*/
package resample

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

const (
	// Align is the multiple both sides of a texture are rounded to
	Align = 8

	// MaxDimension is the largest width or height of a decal texture
	MaxDimension = 256

	// BudgetStandard is the pixel budget of a decal in any GoldSrc game
	BudgetStandard = 12288

	// BudgetLarge is the pixel budget of a decal in Sven Co-op
	BudgetLarge = 14336

	alphaThreshold = 0x80
)

// ErrInvalidDimensions is returned when a buffer has a zero side, its pixel
// data does not match its dimensions or no aligned size fits the budget.
var ErrInvalidDimensions = errors.New("resample: invalid dimensions")

// PixelBuffer is a row-major RGBA8 image with non-premultiplied alpha. A
// buffer is owned by whoever holds it; passing it to Resample hands it over.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New returns a zeroed (fully transparent) buffer of the given size
func New(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// FromImage copies any image into a new buffer with its top-left corner at
// (0, 0).
func FromImage(m image.Image) *PixelBuffer {
	b := m.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, m, b.Min, draw.Src)
	return &PixelBuffer{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    dst.Pix,
	}
}

// Validate checks the buffer holds exactly Width*Height pixels
func (pb *PixelBuffer) Validate() error {
	if pb == nil || pb.Width <= 0 || pb.Height <= 0 || len(pb.Pix) != pb.Width*pb.Height*4 {
		return ErrInvalidDimensions
	}
	return nil
}

// NRGBA wraps the buffer as an image without copying the pixels
func (pb *PixelBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    pb.Pix,
		Stride: pb.Width * 4,
		Rect:   image.Rect(0, 0, pb.Width, pb.Height),
	}
}

// Budget returns the pixel budget for the standard or the larger decal size
func Budget(large bool) int {
	if large {
		return BudgetLarge
	}
	return BudgetStandard
}

// Resample returns pb fitted to budget. If pb already has an acceptable size
// it is returned as is, otherwise a new buffer is scaled from it using either
// nearest neighbour (point) or Catmull-Rom interpolation. Scaled pixels are
// made either fully opaque or fully transparent.
func Resample(pb *PixelBuffer, budget int, point bool) (*PixelBuffer, error) {
	if err := pb.Validate(); err != nil {
		return nil, err
	}

	w, h, err := Fit(pb.Width, pb.Height, budget)
	if err != nil {
		return nil, err
	}

	if w == pb.Width && h == pb.Height {
		return pb, nil
	}

	var s draw.Scaler = draw.CatmullRom
	if point {
		s = draw.NearestNeighbor
	}

	src := pb.NRGBA()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	s.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)

	return threshold(dst), nil
}

// Anything at least half opaque becomes opaque, the rest fully transparent
func threshold(m *image.RGBA) *PixelBuffer {
	b := m.Bounds()
	out := New(b.Dx(), b.Dy())
	for i := 0; i < len(out.Pix); i += 4 {
		a := m.Pix[i+3]
		if a < alphaThreshold {
			continue
		}
		out.Pix[i+0] = unpremultiply(m.Pix[i+0], a)
		out.Pix[i+1] = unpremultiply(m.Pix[i+1], a)
		out.Pix[i+2] = unpremultiply(m.Pix[i+2], a)
		out.Pix[i+3] = 0xff
	}
	return out
}

func unpremultiply(c, a uint8) uint8 {
	if a == 0xff {
		return c
	}
	v := uint32(c) * 0xff / uint32(a)
	if v > 0xff {
		v = 0xff
	}
	return uint8(v)
}
