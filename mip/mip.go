/*
Package mip derives the four level mip pyramid stored in a GoldSrc texture.

Level 0 is the quantized image itself, levels 1 to 3 are box filtered down by
2, 4 and 8 on each side. All levels share the palette of level 0; the smaller
levels are matched against it rather than given their own.
*/
package mip

import (
	"errors"
	"image/color"

	"github.com/nm004/img2tempdecal/palette"
)

const (
	// Levels is the number of mip levels in a texture
	Levels = 4

	// Align is the multiple both sides of level 0 must be for level 3 to
	// have whole dimensions
	Align = 1 << (Levels - 1)
)

// ErrUnalignedDimensions is returned when level 0 can't be evenly divided
var ErrUnalignedDimensions = errors.New("mip: dimensions not a multiple of 8")

// Pyramid holds every level of a texture, largest first. Each level points at
// the same palette.
type Pyramid [Levels]*palette.IndexedImage

// Size returns the total number of pixels across all levels
func (p *Pyramid) Size() int {
	var n int
	for _, l := range p {
		n += len(l.Pix)
	}
	return n
}

// Build returns the pyramid whose first level is base
func Build(base *palette.IndexedImage) (*Pyramid, error) {
	if base.Width <= 0 || base.Height <= 0 || base.Width%Align != 0 || base.Height%Align != 0 {
		return nil, ErrUnalignedDimensions
	}

	p := new(Pyramid)
	p[0] = base
	for i := 1; i < Levels; i++ {
		p[i] = reduce(base, i)
	}
	return p, nil
}

// Each destination pixel covers a scale by scale block of the base. Where
// more than half of the block is transparent, so is the pixel, otherwise the
// opaque colors are averaged and matched back against the palette.
func reduce(base *palette.IndexedImage, level int) *palette.IndexedImage {
	scale := 1 << level
	p := base.Palette

	m := &palette.IndexedImage{
		Width:   base.Width >> level,
		Height:  base.Height >> level,
		Palette: p,
	}
	m.Pix = make([]uint8, m.Width*m.Height)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			var r, g, b, n, masked int
			for sy := y * scale; sy < (y+1)*scale; sy++ {
				row := base.Pix[sy*base.Width : (sy+1)*base.Width]
				for _, i := range row[x*scale : (x+1)*scale] {
					if i == p.Transparent {
						masked++
						continue
					}
					c := p.Colors[i]
					r += int(c.R)
					g += int(c.G)
					b += int(c.B)
					n++
				}
			}

			if masked<<1 > scale*scale {
				m.Pix[y*m.Width+x] = p.Transparent
				continue
			}

			// Round to nearest
			avg := color.RGBA{
				uint8((r + n>>1) / n),
				uint8((g + n>>1) / n),
				uint8((b + n>>1) / n),
				0xff,
			}
			m.Pix[y*m.Width+x] = p.Nearest(avg)
		}
	}

	return m
}
