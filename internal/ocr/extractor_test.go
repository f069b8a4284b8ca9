package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: 120, B: uint8(y % 255), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestPreprocessUpscalesSmallCaptures(t *testing.T) {
	t.Parallel()

	out, err := Preprocess(encodeJPEG(t, 320, 240))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, minOCRWidth, img.Bounds().Dx())
	assert.Equal(t, 750, img.Bounds().Dy())

	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestPreprocessKeepsMidSizedWidth(t *testing.T) {
	t.Parallel()

	out, err := Preprocess(encodeJPEG(t, 1200, 100))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Preprocess([]byte("definitely not an image"))
	require.Error(t, err)
}

func TestSplitLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"eng"}, splitLanguages(""))
	assert.Equal(t, []string{"eng", "spa"}, splitLanguages("eng+spa"))
	assert.Equal(t, []string{"eng", "fra"}, splitLanguages(" eng , fra "))
	assert.Equal(t, []string{"spa", "deu"}, splitLanguages("es+de"))
}
