package palette

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/nm004/img2tempdecal/resample"
	"golang.org/x/image/draw"
)

func opaque(px []byte) bool {
	return px[3] >= alphaThreshold
}

// Only the opaque pixels are handed to the quantizer so that transparent
// areas don't use up any of the palette
func stage(pb *resample.PixelBuffer) image.Image {
	pix := make([]byte, 0, len(pb.Pix))
	for i := 0; i < len(pb.Pix); i += 4 {
		if px := pb.Pix[i : i+4]; opaque(px) {
			pix = append(pix, px[0], px[1], px[2], 0xff)
		}
	}
	if len(pix) == 0 {
		return nil
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: len(pix),
		Rect:   image.Rect(0, 0, len(pix)/4, 1),
	}
}

// Quantize builds a palette for pb using median cut and maps every pixel to
// the nearest entry. Pixels less than half opaque use the transparent index.
// The result only depends on the pixel values, so quantizing the same buffer
// twice gives identical output.
func Quantize(pb *resample.PixelBuffer) (*IndexedImage, error) {
	return quantizeImage(pb, false)
}

// QuantizeDithered is like Quantize but spreads the error of each opaque pixel
// onto its neighbours with Floyd-Steinberg diffusion
func QuantizeDithered(pb *resample.PixelBuffer) (*IndexedImage, error) {
	return quantizeImage(pb, true)
}

func quantizeImage(pb *resample.PixelBuffer, dither bool) (*IndexedImage, error) {
	if err := pb.Validate(); err != nil {
		return nil, err
	}

	var colors color.Palette
	if m := stage(pb); m != nil {
		q := quantize.MedianCutQuantizer{}
		colors = q.Quantize(make(color.Palette, 0, maxColors), m)
	}
	p := New(colors)

	m := &IndexedImage{
		Width:   pb.Width,
		Height:  pb.Height,
		Pix:     make([]uint8, pb.Width*pb.Height),
		Palette: p,
	}

	if dither && p.Len > 0 {
		diffuse(pb, m)
	} else {
		remap(pb, m)
	}

	return m, nil
}

func remap(pb *resample.PixelBuffer, m *IndexedImage) {
	p := m.Palette
	cache := make(map[color.RGBA]uint8)
	for i := range m.Pix {
		px := pb.Pix[i*4 : i*4+4]
		if !opaque(px) {
			m.Pix[i] = p.Transparent
			continue
		}
		c := color.RGBA{px[0], px[1], px[2], 0xff}
		index, ok := cache[c]
		if !ok {
			index = p.Nearest(c)
			cache[c] = index
		}
		m.Pix[i] = index
	}
}

// Transparent pixels are replaced by the first palette color while diffusing,
// which carries no error of its own, and masked afterwards
func diffuse(pb *resample.PixelBuffer, m *IndexedImage) {
	p := m.Palette
	filler := p.Colors[0]

	src := image.NewNRGBA(image.Rect(0, 0, pb.Width, pb.Height))
	for i := 0; i < len(pb.Pix); i += 4 {
		if px := pb.Pix[i : i+4]; opaque(px) {
			copy(src.Pix[i:i+4], []byte{px[0], px[1], px[2], 0xff})
		} else {
			copy(src.Pix[i:i+4], []byte{filler.R, filler.G, filler.B, 0xff})
		}
	}

	dst := m.Paletted()
	dst.Palette = dst.Palette[:p.Len]
	draw.FloydSteinberg.Draw(dst, dst.Rect, src, image.Point{})

	for i := range m.Pix {
		if !opaque(pb.Pix[i*4 : i*4+4]) {
			m.Pix[i] = p.Transparent
		}
	}
}
