/*
Package img2tempdecal converts raw RGBA images into GoldSrc spray decals.

A conversion fits the image into the decal pixel budget, reduces it to a 256
color palette whose last entry is reserved for transparency, derives the mip
levels and writes the result as a WAD3 file containing a single texture named
"{LOGO", ready to be saved as tempdecal.wad.
*/
package img2tempdecal

import (
	"errors"
	"io"
	"log"

	"github.com/nm004/img2tempdecal/mip"
	"github.com/nm004/img2tempdecal/palette"
	"github.com/nm004/img2tempdecal/resample"
	"github.com/nm004/img2tempdecal/wad"
)

var (
	// ErrInvalidDimensions is returned for an image with a zero side or
	// pixel data that doesn't match its size
	ErrInvalidDimensions = resample.ErrInvalidDimensions

	// ErrUnalignedDimensions is returned if the resampled image can't be
	// divided into mip levels. It should never happen.
	ErrUnalignedDimensions = mip.ErrUnalignedDimensions

	// ErrBufferTooSmall is returned when the destination can't hold the
	// converted decal
	ErrBufferTooSmall = wad.ErrBufferTooSmall

	// ErrWorkerUnavailable is returned for requests a Worker can no longer
	// answer
	ErrWorkerUnavailable = errors.New("img2tempdecal: worker unavailable")
)

// MaxSize is the size of a buffer that can hold any converted decal
const MaxSize = wad.MaxArtifactSize

// PixelBuffer is a row-major RGBA8 image
type PixelBuffer = resample.PixelBuffer

// Options control a single conversion
type Options struct {
	// AllowLargerOutputSize uses the larger pixel budget supported by
	// Sven Co-op rather than the one every GoldSrc game supports
	AllowLargerOutputSize bool

	// UsePointResample uses nearest neighbour rather than bicubic
	// interpolation when the image has to be resized, which keeps the hard
	// edges of pixel art
	UsePointResample bool

	// UseDithering spreads the color error of each pixel onto its
	// neighbours instead of mapping every pixel to its nearest color
	UseDithering bool
}

// Result holds a converted decal. Only the first Length bytes of Buffer are
// valid.
type Result struct {
	Buffer []byte
	Length int
}

// Bytes returns the valid part of the buffer
func (r *Result) Bytes() []byte {
	return r.Buffer[:r.Length]
}

// Converter runs conversions. It keeps no state between them so a single
// Converter may be used from several goroutines.
type Converter struct {
	logger *log.Logger
}

// New returns a Converter logging to logger, which may be nil
func New(logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Converter{
		logger: logger,
	}
}

// ConvertInto converts pb and writes the decal to dst, returning the number of
// bytes written. A dst of MaxSize bytes is always large enough. pb belongs to
// the Converter once passed in.
func (c *Converter) ConvertInto(dst []byte, pb *PixelBuffer, opts Options) (int, error) {
	if err := pb.Validate(); err != nil {
		return 0, err
	}
	width, height := pb.Width, pb.Height

	pb, err := resample.Resample(pb, resample.Budget(opts.AllowLargerOutputSize), opts.UsePointResample)
	if err != nil {
		return 0, err
	}
	c.logger.Printf("Resized %dx%d to %dx%d\n", width, height, pb.Width, pb.Height)

	quantize := palette.Quantize
	if opts.UseDithering {
		quantize = palette.QuantizeDithered
	}

	m, err := quantize(pb)
	if err != nil {
		return 0, err
	}
	c.logger.Printf("Using %d of %d colors\n", m.Palette.Len, palette.Size-1)

	p, err := mip.Build(m)
	if err != nil {
		return 0, err
	}

	n, err := wad.Encode(dst, wad.NewTexture(wad.DefaultName, p))
	if err != nil {
		return 0, err
	}
	c.logger.Printf("Wrote %d bytes\n", n)

	return n, nil
}

// Convert converts pb into a newly allocated buffer of MaxSize bytes
func (c *Converter) Convert(pb *PixelBuffer, opts Options) (*Result, error) {
	buf := make([]byte, MaxSize)
	n, err := c.ConvertInto(buf, pb, opts)
	if err != nil {
		return nil, err
	}
	return &Result{
		Buffer: buf,
		Length: n,
	}, nil
}

// Convert converts width by height RGBA8 pixels without logging
func Convert(pixels []byte, width, height int, opts Options) (*Result, error) {
	return New(nil).Convert(&PixelBuffer{Width: width, Height: height, Pix: pixels}, opts)
}
