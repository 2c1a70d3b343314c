package wad

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"

	"github.com/nm004/img2tempdecal/mip"
	"github.com/nm004/img2tempdecal/palette"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func trimName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

type decoder struct {
	r io.Reader

	dirOffset int
	lumpSize  int

	texture *Texture

	// Enough to hold the largest fixed size structure
	tmp [paletteSize]byte
}

func (d *decoder) readHeader() error {
	b := d.tmp[:headerSize]
	if err := readFull(d.r, b); err != nil {
		return err
	}

	if string(b[:4]) != signature {
		return ErrBadSignature
	}
	if binary.LittleEndian.Uint32(b[4:]) != 1 {
		return ErrBadDirectory
	}
	d.dirOffset = int(binary.LittleEndian.Uint32(b[8:]))

	return nil
}

func (d *decoder) readLumpHeader() error {
	b := d.tmp[:lumpHeaderSize]
	if err := readFull(d.r, b); err != nil {
		return err
	}

	t := &Texture{
		Name:   trimName(b[:nameSize]),
		Width:  int(binary.LittleEndian.Uint32(b[16:])),
		Height: int(binary.LittleEndian.Uint32(b[20:])),
	}

	if t.Width <= 0 || t.Height <= 0 || t.Width > maxDimension || t.Height > maxDimension || t.Width%mip.Align != 0 || t.Height%mip.Align != 0 {
		return ErrBadLump
	}

	// Only contiguous mip levels, largest first, are understood
	offset := lumpHeaderSize
	for i := range t.Mips {
		if int(binary.LittleEndian.Uint32(b[24+i*4:])) != offset {
			return ErrBadLump
		}
		t.Mips[i] = make([]byte, (t.Width>>i)*(t.Height>>i))
		offset += len(t.Mips[i])
	}

	d.texture = t
	return nil
}

func (d *decoder) readMips() error {
	for _, m := range d.texture.Mips {
		if err := readFull(d.r, m); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) readPalette() error {
	b := d.tmp[:paletteCountSize]
	if err := readFull(d.r, b); err != nil {
		return err
	}
	if binary.LittleEndian.Uint16(b) != palette.Size {
		return ErrBadLump
	}

	b = d.tmp[:paletteSize]
	if err := readFull(d.r, b); err != nil {
		return err
	}

	// Every entry but the reserved one may be in use
	p := palette.New(nil)
	p.Len = palette.Size - 1
	for i := range p.Colors {
		p.Colors[i].R = b[i*3+0]
		p.Colors[i].G = b[i*3+1]
		p.Colors[i].B = b[i*3+2]
	}
	d.texture.Palette = p

	return readFull(d.r, d.tmp[:paddingSize])
}

func (d *decoder) readDirectory() error {
	d.lumpSize = d.texture.lumpSize()
	if d.dirOffset != headerSize+d.lumpSize {
		return ErrBadDirectory
	}

	b := d.tmp[:entrySize]
	if err := readFull(d.r, b); err != nil {
		return err
	}

	switch {
	case binary.LittleEndian.Uint32(b[0:]) != headerSize:
		return ErrBadDirectory
	case int(binary.LittleEndian.Uint32(b[4:])) != d.lumpSize, int(binary.LittleEndian.Uint32(b[8:])) != d.lumpSize:
		return ErrBadDirectory
	case b[12] != typeMipTex || b[13] != 0:
		return ErrBadDirectory
	}

	return nil
}

func (d *decoder) decode(r io.Reader) error {
	d.r = r

	for _, f := range []func() error{
		d.readHeader,
		d.readLumpHeader,
		d.readMips,
		d.readPalette,
		d.readDirectory,
	} {
		if err := f(); err != nil {
			if err != io.ErrUnexpectedEOF {
				return err
			}
			return ErrNotEnough
		}
	}

	switch n, err := io.ReadFull(r, d.tmp[:1]); {
	case n == 1:
		return ErrTooMuch
	case err != io.EOF:
		return err
	}

	return nil
}

// Decode reads a single texture WAD3 file from r
func Decode(r io.Reader) (*Texture, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.texture, nil
}

// DecodeImage reads a single texture WAD3 file from r and returns the largest
// mip level as an image. Pixels using the reserved index are transparent.
func DecodeImage(r io.Reader) (*image.Paletted, error) {
	t, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return t.Image(0), nil
}

// Image returns the given mip level as an image
func (t *Texture) Image(level int) *image.Paletted {
	m := &palette.IndexedImage{
		Width:   t.Width >> level,
		Height:  t.Height >> level,
		Pix:     t.Mips[level],
		Palette: t.Palette,
	}
	return m.Paletted()
}

// UnmarshalBinary decodes the texture from binary form
func (t *Texture) UnmarshalBinary(b []byte) error {
	dec, err := Decode(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*t = *dec
	return nil
}
