/*
Package palette reduces an RGBA image to the 256 color indexed form used by
GoldSrc textures.

The palette layout is fixed by the engine: up to 255 colors chosen from the
image occupy the low indices and the last index is reserved. Textures whose
name starts with '{' (decals among them) treat any pixel using the last index
as transparent, and decals take their tint from the color stored there, which
is always pure blue.
*/
package palette

import (
	"image"
	"image/color"
)

const (
	// Size is the number of entries in every palette
	Size = 256

	// Transparent is the reserved index for masked pixels
	Transparent = Size - 1

	maxColors      = Size - 1
	alphaThreshold = 0x80
)

// Masked is the color stored at the reserved index
var Masked = color.RGBA{0x00, 0x00, 0xff, 0xff}

// Palette is a fixed size palette. Only the first Len entries were chosen
// from an image, the remainder are padding. Transparent is the reserved index
// and is never returned by Nearest.
type Palette struct {
	Colors      [Size]color.RGBA
	Len         int
	Transparent uint8
}

// New returns a palette holding colors followed by padding. Any colors beyond
// the 255 that fit are ignored.
func New(colors color.Palette) *Palette {
	p := &Palette{
		Transparent: Transparent,
	}
	for i := range p.Colors {
		p.Colors[i] = Masked
	}
	for _, c := range colors {
		if p.Len == maxColors {
			break
		}
		r, g, b, _ := c.RGBA()
		p.Colors[p.Len] = color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xff}
		p.Len++
	}
	return p
}

// Similar to color.sqDiff, weighted towards green as the eye is
func distance(c1, c2 color.RGBA) uint32 {
	dr := int32(c1.R) - int32(c2.R)
	dg := int32(c1.G) - int32(c2.G)
	db := int32(c1.B) - int32(c2.B)
	return uint32(2*dr*dr + 4*dg*dg + 3*db*db)
}

// Nearest returns the index of the chosen color closest to c, the lowest index
// wins a tie. A palette with no chosen colors returns the transparent index.
func (p *Palette) Nearest(c color.RGBA) uint8 {
	best, bestSum := p.Transparent, uint32(1<<32-1)
	for i := 0; i < p.Len; i++ {
		if i == int(p.Transparent) {
			continue
		}
		if sum := distance(c, p.Colors[i]); sum < bestSum {
			best, bestSum = uint8(i), sum
			if sum == 0 {
				break
			}
		}
	}
	return best
}

// ColorPalette returns the palette as a color.Palette with the reserved
// index fully transparent
func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, Size)
	for i, c := range p.Colors {
		cp[i] = c
	}
	cp[p.Transparent] = color.RGBA{}
	return cp
}

// IndexedImage is a row-major image of indices into Palette
type IndexedImage struct {
	Width   int
	Height  int
	Pix     []uint8
	Palette *Palette
}

// Paletted returns the image as an *image.Paletted sharing the same pixels
func (m *IndexedImage) Paletted() *image.Paletted {
	return &image.Paletted{
		Pix:     m.Pix,
		Stride:  m.Width,
		Rect:    image.Rect(0, 0, m.Width, m.Height),
		Palette: m.Palette.ColorPalette(),
	}
}
