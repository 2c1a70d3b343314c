package wad

import (
	"encoding/binary"
	"io"
)

type encoder struct {
	b []byte
	n int
}

func (e *encoder) write(p []byte) {
	e.n += copy(e.b[e.n:], p)
}

func (e *encoder) putByte(v byte) {
	e.b[e.n] = v
	e.n++
}

func (e *encoder) putUint16(v uint16) {
	binary.LittleEndian.PutUint16(e.b[e.n:], v)
	e.n += 2
}

func (e *encoder) putUint32(v uint32) {
	binary.LittleEndian.PutUint32(e.b[e.n:], v)
	e.n += 4
}

// The destination may be reused so padding has to be written explicitly
func (e *encoder) zero(n int) {
	for i := 0; i < n; i++ {
		e.putByte(0)
	}
}

func (e *encoder) name(s string) {
	e.write([]byte(s))
	e.zero(nameSize - len(s))
}

func (e *encoder) encode(t *Texture) {
	lumpSize := t.lumpSize()

	// Header
	e.write([]byte(signature))
	e.putUint32(1)
	e.putUint32(uint32(headerSize + lumpSize))

	// Lump
	e.name(t.Name)
	e.putUint32(uint32(t.Width))
	e.putUint32(uint32(t.Height))

	offset := lumpHeaderSize
	for _, m := range t.Mips {
		e.putUint32(uint32(offset))
		offset += len(m)
	}
	for _, m := range t.Mips {
		e.write(m)
	}

	// The reserved entry is written as is, like every other
	e.putUint16(uint16(len(t.Palette.Colors)))
	for _, c := range t.Palette.Colors {
		e.putByte(c.R)
		e.putByte(c.G)
		e.putByte(c.B)
	}
	e.zero(paddingSize)

	// Directory
	e.putUint32(headerSize)
	e.putUint32(uint32(lumpSize)) // Size on disk
	e.putUint32(uint32(lumpSize))
	e.putByte(typeMipTex)
	e.putByte(0) // No compression
	e.zero(2)
	e.name(t.Name)
}

// Encode writes t to dst and returns the number of bytes written. dst must be
// at least t.Size() bytes long.
func Encode(dst []byte, t *Texture) (int, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}

	size := t.Size()
	if len(dst) < size {
		return 0, ErrBufferTooSmall
	}

	e := encoder{b: dst[:size]}
	e.encode(t)

	return e.n, nil
}

// MarshalBinary encodes the texture into a new buffer
func (t *Texture) MarshalBinary() ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	b := make([]byte, t.Size())
	n, err := Encode(b, t)
	if err != nil {
		return nil, err
	}
	return b[:n], nil
}

// Write writes t to w in WAD3 format
func Write(w io.Writer, t *Texture) error {
	b, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
