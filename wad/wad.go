/*
Package wad implements a WAD3 encoder and decoder for files holding a single
mip texture, such as the tempdecal.wad used by GoldSrc for spray decals.

The file starts with a 12 byte header: the "WAD3" signature, the number of
directory entries and the offset of the directory. The texture lump follows;
a 16 byte NUL padded name, the width and height, the offsets of the four mip
levels relative to the start of the lump, the mip levels themselves largest
first, a 16-bit palette count which is always 256, 256 RGB palette entries and
finally 2 bytes of padding. The file ends with the directory, a single 32 byte
entry pointing back at the lump. All integers are little endian and there is
no compression, so the file is always 856 bytes plus the size of the mip
levels.
*/
package wad

import (
	"errors"

	"github.com/nm004/img2tempdecal/mip"
	"github.com/nm004/img2tempdecal/palette"
	"github.com/nm004/img2tempdecal/resample"
)

const (
	signature        = "WAD3"
	headerSize       = 12
	nameSize         = 16
	lumpHeaderSize   = nameSize + 4 + 4 + mip.Levels*4
	paletteCountSize = 2
	paletteSize      = palette.Size * 3
	paddingSize      = 2
	entrySize        = 32
	typeMipTex       = 0x43
	maxDimension     = 4096

	// Overhead is the size of a file minus its mip levels
	Overhead = headerSize + lumpHeaderSize + paletteCountSize + paletteSize + paddingSize + entrySize

	// MaxArtifactSize is the largest file that can be produced for a decal
	// in the larger pixel budget
	MaxArtifactSize = Overhead + resample.BudgetLarge + resample.BudgetLarge/4 + resample.BudgetLarge/16 + resample.BudgetLarge/64

	// DefaultName is the texture name GoldSrc uses for spray decals
	DefaultName = "{LOGO"
)

var (
	// ErrBufferTooSmall is returned when the destination can't hold the
	// encoded file
	ErrBufferTooSmall = errors.New("wad: buffer too small")

	// ErrInvalidTexture is returned when a texture can't be encoded
	ErrInvalidTexture = errors.New("wad: invalid texture")

	// Errors returned when decoding
	ErrNotEnough    = errors.New("wad: not enough data")
	ErrTooMuch      = errors.New("wad: too much data")
	ErrBadSignature = errors.New("wad: invalid signature")
	ErrBadLump      = errors.New("wad: invalid lump")
	ErrBadDirectory = errors.New("wad: invalid directory")
)

// MaxSize returns the largest file size for a texture of at most budget
// pixels
func MaxSize(budget int) int {
	return Overhead + budget + budget/4 + budget/16 + budget/64
}

// Texture is a named mip texture. Mips holds the indexed pixels of each
// level, largest first, all of them indexing Palette.
type Texture struct {
	Name    string
	Width   int
	Height  int
	Mips    [mip.Levels][]byte
	Palette *palette.Palette
}

// NewTexture returns a texture named name built from the levels of p
func NewTexture(name string, p *mip.Pyramid) *Texture {
	t := &Texture{
		Name:    name,
		Width:   p[0].Width,
		Height:  p[0].Height,
		Palette: p[0].Palette,
	}
	for i, l := range p {
		t.Mips[i] = l.Pix
	}
	return t
}

func (t *Texture) lumpSize() int {
	n := lumpHeaderSize + paletteCountSize + paletteSize + paddingSize
	for _, m := range t.Mips {
		n += len(m)
	}
	return n
}

// Size returns the size in bytes of the encoded file
func (t *Texture) Size() int {
	return headerSize + t.lumpSize() + entrySize
}

func (t *Texture) validate() error {
	switch {
	case t.Palette == nil:
		return ErrInvalidTexture
	case len(t.Name) == 0 || len(t.Name) >= nameSize:
		return ErrInvalidTexture
	case t.Width <= 0 || t.Height <= 0 || t.Width%mip.Align != 0 || t.Height%mip.Align != 0:
		return ErrInvalidTexture
	}
	for i, m := range t.Mips {
		if len(m) != (t.Width>>i)*(t.Height>>i) {
			return ErrInvalidTexture
		}
	}
	return nil
}
