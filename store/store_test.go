package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/nm004/img2tempdecal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	sha, err := Sum(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "A9993E364706816ABA3E25717850C26C9CD0D89D", sha)
}

func TestStore(t *testing.T) {
	file := filepath.Join(t.TempDir(), "decals.db")

	s, err := Open(file)
	require.NoError(t, err)

	opts := img2tempdecal.Options{UsePointResample: true}

	b, err := s.Find("ABC", opts)
	require.NoError(t, err)
	assert.Nil(t, b)

	r, err := img2tempdecal.Convert([]byte{0xff, 0x00, 0x00, 0xff}, 1, 1, opts)
	require.NoError(t, err)
	require.NoError(t, s.Put("ABC", opts, r.Bytes()))

	b, err = s.Find("ABC", opts)
	require.NoError(t, err)
	assert.Equal(t, r.Bytes(), b)

	// Other options are stored separately
	b, err = s.Find("ABC", img2tempdecal.Options{})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = s.Find("ABC", img2tempdecal.Options{UsePointResample: true, UseDithering: true})
	require.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, s.Put("ABC", opts, []byte{1, 2, 3}))
	require.NoError(t, s.Close())

	// Survives reopening
	s, err = Open(file)
	require.NoError(t, err)
	defer s.Close()

	b, err = s.Find("ABC", opts)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)
}
