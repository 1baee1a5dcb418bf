package io

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"signature-digitizer/internal/core"
	"signature-digitizer/internal/testimage"
)

func newLoader() *ImageLoader {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewImageLoader(logger)
}

func encodedSignature(t *testing.T) []byte {
	t.Helper()
	img, err := testimage.Signature(testimage.DefaultOptions())
	require.NoError(t, err)
	defer img.Close()

	data, err := newLoader().EncodePNG(img)
	require.NoError(t, err)
	return data
}

func TestDecodeRoundTrip(t *testing.T) {
	l := newLoader()
	mat, err := l.Decode(encodedSignature(t))
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 800, mat.Cols())
	assert.Equal(t, 400, mat.Rows())
	assert.Equal(t, gocv.MatTypeCV8UC3, mat.Type())
}

func TestDecodeFallsBackToGoDecoders(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 12, 7), color.Palette{color.White, color.Black})
	pal.SetColorIndex(3, 3, 1)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, pal, nil))

	mat, err := newLoader().Decode(buf.Bytes())
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 12, mat.Cols())
	assert.Equal(t, 7, mat.Rows())
	assert.Equal(t, 3, mat.Channels())
}

func TestDecodeErrors(t *testing.T) {
	l := newLoader()

	_, err := l.Decode(nil)
	assert.Equal(t, core.KindInvalidInput, core.Kind(err))

	_, err = l.Decode([]byte("definitely not an image"))
	assert.Equal(t, core.KindDecodeFailure, core.Kind(err))
}

func TestLoadImage(t *testing.T) {
	l := newLoader()
	dir := t.TempDir()

	good := filepath.Join(dir, "sig.png")
	require.NoError(t, os.WriteFile(good, encodedSignature(t), 0o644))
	mat, err := l.LoadImage(good)
	require.NoError(t, err)
	mat.Close()

	noExt := filepath.Join(dir, "upload")
	require.NoError(t, os.WriteFile(noExt, encodedSignature(t), 0o644))
	mat, err = l.LoadImage(noExt)
	require.NoError(t, err)
	mat.Close()

	_, err = l.LoadImage(filepath.Join(dir, "missing.png"))
	assert.Equal(t, core.KindInvalidInput, core.Kind(err))

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = l.LoadImage(txt)
	assert.Equal(t, core.KindDecodeFailure, core.Kind(err))

	_, err = l.LoadImage(dir)
	assert.Equal(t, core.KindInvalidInput, core.Kind(err))
}

func TestEncodePNGKeepsAlpha(t *testing.T) {
	bgra := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(180, 20, 0, 255), 3, 5, gocv.MatTypeCV8UC4)
	defer bgra.Close()

	data, err := newLoader().EncodePNG(bgra)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())
	r, g, b, a := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0, 20, 180, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = newLoader().EncodePNG(empty)
	assert.Equal(t, core.KindEncodeFailure, core.Kind(err))
}

func TestSupportedFormatsMatchExtensions(t *testing.T) {
	l := newLoader()
	for _, name := range SupportedFormats() {
		assert.True(t, l.IsSupportedImageFormat("in."+strings.ToLower(name)), name)
	}
	assert.False(t, l.IsSupportedImageFormat("in.pdf"))
}
