package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s := NewWithFs(afero.NewMemMapFs())

	name := QRPath("K7QX-M2PA")
	assert.Equal(t, "qr/K7QX-M2PA.svg", name)
	assert.False(t, s.Exists(name))

	require.NoError(t, s.Put(name, []byte("<svg/>")))
	assert.True(t, s.Exists(name))

	data, err := s.Read(name)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	require.NoError(t, s.PutReader(name, strings.NewReader("<svg></svg>")))
	data, err = s.Read("/" + name)
	require.NoError(t, err)
	assert.Equal(t, "<svg></svg>", string(data))

	require.NoError(t, s.Delete(name))
	assert.False(t, s.Exists(name))
	require.NoError(t, s.Delete(name), "deleting twice is fine")

	_, err = s.Read(name)
	assert.ErrorIs(t, err, ErrAssetNotFound)

	assert.ErrorIs(t, s.Put("", nil), ErrInvalidPath)
	assert.ErrorIs(t, s.Put("../../etc/passwd", nil), ErrInvalidPath)
}

func TestHTTPFileSystem(t *testing.T) {
	s := NewWithFs(afero.NewMemMapFs())
	require.NoError(t, s.Put("events/a.jpg", []byte("jpeg")))

	f, err := s.HTTPFileSystem().Open("/events/a.jpg")
	require.NoError(t, err)

	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestSaveImage(t *testing.T) {
	s := NewWithFs(afero.NewMemMapFs())

	src := image.NewRGBA(image.Rect(0, 0, 2400, 900))
	for x := 0; x < 2400; x++ {
		src.Set(x, 10, color.RGBA{R: 220, G: 38, B: 38, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	name, err := s.SaveImage(&buf, 1200, 630)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, EventImageDir+"/"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	data, err := s.Read(name)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 450, img.Bounds().Dy())

	_, err = s.SaveImage(strings.NewReader("not an image"), 1200, 630)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
