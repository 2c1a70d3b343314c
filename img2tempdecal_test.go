package img2tempdecal

import (
	"bytes"
	"image/color"
	"log"
	"testing"

	"github.com/nm004/img2tempdecal/palette"
	"github.com/nm004/img2tempdecal/wad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestBuffer(w, h int) *PixelBuffer {
	pb := &PixelBuffer{Width: w, Height: h, Pix: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			pb.Pix[i+0] = uint8((x * 17) ^ (y * 31))
			pb.Pix[i+1] = uint8((x * 43) + (y * 13))
			pb.Pix[i+2] = uint8((x * 7) ^ (y * 11))
			pb.Pix[i+3] = 0xff
		}
	}
	return pb
}

func decode(t *testing.T, r *Result) *wad.Texture {
	t.Helper()
	tex, err := wad.Decode(bytes.NewReader(r.Bytes()))
	require.NoError(t, err)
	return tex
}

func TestConvertSingleRedPixel(t *testing.T) {
	r, err := Convert([]byte{0xff, 0x00, 0x00, 0xff}, 1, 1, Options{})
	require.NoError(t, err)

	assert.Len(t, r.Buffer, MaxSize)
	assert.Equal(t, wad.Overhead+64+16+4+1, r.Length)

	tex := decode(t, r)
	assert.Equal(t, wad.DefaultName, tex.Name)
	assert.Equal(t, 8, tex.Width)
	assert.Equal(t, 8, tex.Height)

	require.Len(t, tex.Mips[0], 64)
	red := tex.Mips[0][0]
	assert.Equal(t, color.RGBA{0xff, 0x00, 0x00, 0xff}, tex.Palette.Colors[red])
	for i, m := range tex.Mips {
		assert.Len(t, m, 64>>(2*i))
		for _, p := range m {
			assert.Equal(t, red, p)
		}
	}
	assert.Equal(t, palette.Masked, tex.Palette.Colors[palette.Transparent])
}

func TestConvertInvalid(t *testing.T) {
	tables := []struct {
		name string
		pb   *PixelBuffer
	}{
		{"zero width", &PixelBuffer{Width: 0, Height: 4}},
		{"zero height", &PixelBuffer{Width: 4, Height: 0}},
		{"short pixels", &PixelBuffer{Width: 4, Height: 4, Pix: make([]byte, 63)}},
		{"nil", nil},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			dst := make([]byte, MaxSize)
			n, err := New(nil).ConvertInto(dst, table.pb, Options{})
			assert.ErrorIs(t, err, ErrInvalidDimensions)
			assert.Zero(t, n)
			assert.Equal(t, make([]byte, MaxSize), dst)

			r, err := New(nil).Convert(table.pb, Options{})
			assert.ErrorIs(t, err, ErrInvalidDimensions)
			assert.Nil(t, r)
		})
	}
}

func TestConvertBufferTooSmall(t *testing.T) {
	_, err := New(nil).ConvertInto(make([]byte, wad.Overhead), makeTestBuffer(16, 16), Options{})
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestConvertSizes(t *testing.T) {
	tables := []struct {
		name          string
		width, height int
		opts          Options
		nw, nh        int
	}{
		{"landscape", 640, 480, Options{}, 128, 96},
		{"landscape point", 640, 480, Options{UsePointResample: true}, 128, 96},
		{"aligned", 64, 32, Options{}, 64, 32},
		{"standard", 112, 128, Options{}, 96, 112},
		{"large", 112, 128, Options{AllowLargerOutputSize: true}, 112, 128},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			r, err := New(nil).Convert(makeTestBuffer(table.width, table.height), table.opts)
			require.NoError(t, err)
			assert.LessOrEqual(t, r.Length, MaxSize)

			tex := decode(t, r)
			assert.Equal(t, table.nw, tex.Width)
			assert.Equal(t, table.nh, tex.Height)
			assert.Equal(t, table.nw*table.nh/64, len(tex.Mips[3]))
		})
	}
}

func TestConvertPassThrough(t *testing.T) {
	pb := makeTestBuffer(64, 32)
	m, err := palette.Quantize(makeTestBuffer(64, 32))
	require.NoError(t, err)

	r, err := New(nil).Convert(pb, Options{UsePointResample: true})
	require.NoError(t, err)

	tex := decode(t, r)
	assert.Equal(t, m.Pix, tex.Mips[0])
	assert.Equal(t, m.Palette.Colors, tex.Palette.Colors)
}

func TestConvertDithered(t *testing.T) {
	opts := Options{UsePointResample: true, UseDithering: true}

	m, err := palette.QuantizeDithered(makeTestBuffer(64, 32))
	require.NoError(t, err)

	a, err := New(nil).Convert(makeTestBuffer(64, 32), opts)
	require.NoError(t, err)
	b, err := New(nil).Convert(makeTestBuffer(64, 32), opts)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())

	tex := decode(t, a)
	assert.Equal(t, m.Pix, tex.Mips[0])
	assert.Equal(t, m.Palette.Colors, tex.Palette.Colors)
}

func TestConvertTransparent(t *testing.T) {
	pb := makeTestBuffer(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			pb.Pix[(y*16+x)*4+3] = 0
		}
	}

	r, err := Convert(pb.Pix, 16, 16, Options{})
	require.NoError(t, err)

	tex := decode(t, r)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				assert.Equal(t, uint8(palette.Transparent), tex.Mips[0][y*16+x])
			} else {
				assert.NotEqual(t, uint8(palette.Transparent), tex.Mips[0][y*16+x])
			}
		}
	}

	// The reserved entry is the last palette entry written
	b := r.Bytes()
	off := len(b) - 32 - 2 - 3
	assert.Equal(t, []byte{0x00, 0x00, 0xff}, b[off:off+3])
}

func TestConvertDeterministic(t *testing.T) {
	a, err := Convert(makeTestBuffer(300, 200).Pix, 300, 200, Options{})
	require.NoError(t, err)
	b, err := Convert(makeTestBuffer(300, 200).Pix, 300, 200, Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestConvertBound(t *testing.T) {
	for _, large := range []bool{false, true} {
		for _, d := range [][2]int{{1, 1}, {7, 300}, {300, 7}, {255, 255}, {1024, 768}, {120, 120}} {
			r, err := Convert(makeTestBuffer(d[0], d[1]).Pix, d[0], d[1], Options{AllowLargerOutputSize: large})
			require.NoError(t, err)
			assert.LessOrEqual(t, r.Length, MaxSize)
			assert.LessOrEqual(t, r.Length, len(r.Buffer))
		}
	}
}

func TestConvertLogs(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(log.New(&buf, "", 0)).Convert(makeTestBuffer(640, 480), Options{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Resized 640x480 to 128x96")
}
