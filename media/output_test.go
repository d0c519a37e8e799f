package media

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{R: 120, G: 100, B: 80, A: 255})
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestGenerateSmallSourceKeepsFullResolution(t *testing.T) {
	p := NewProcessor()
	outs, err := p.Generate(testImage(1200, 800))
	require.NoError(t, err)

	assert.Equal(t, 1200, outs.FullWidth)
	assert.Equal(t, 800, outs.FullHeight)

	w, h := decodeDims(t, outs.FullRes)
	assert.Equal(t, 1200, w)
	assert.Equal(t, 800, h)
}

func TestGenerateDownscalesOversizedSource(t *testing.T) {
	p := NewProcessor()
	outs, err := p.Generate(testImage(8000, 4000))
	require.NoError(t, err)

	// longest side capped, aspect ratio preserved
	assert.Equal(t, FullResMaxSize, outs.FullWidth)
	assert.Equal(t, FullResMaxSize/2, outs.FullHeight)
}

func TestGenerateTierDimensions(t *testing.T) {
	p := NewProcessor()
	outs, err := p.Generate(testImage(3000, 1500))
	require.NoError(t, err)

	w, h := decodeDims(t, outs.WebRes)
	assert.Equal(t, WebMaxSize, w)
	assert.Equal(t, WebMaxSize/2, h)

	w, h = decodeDims(t, outs.Thumbnail)
	assert.Equal(t, ThumbnailMaxSize, w)
	assert.Equal(t, ThumbnailMaxSize/2, h)
}

func TestGenerateOutputsShrinkByTier(t *testing.T) {
	p := NewProcessor()
	outs, err := p.Generate(testImage(2500, 1700))
	require.NoError(t, err)

	assert.NotEmpty(t, outs.FullRes)
	assert.NotEmpty(t, outs.WebRes)
	assert.NotEmpty(t, outs.Thumbnail)
	assert.Less(t, len(outs.Thumbnail), len(outs.WebRes))
}

func TestGenerateRejectsEmptyImage(t *testing.T) {
	p := NewProcessor()
	_, err := p.Generate(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
}

func TestEncodeJPEGQualityAffectsSize(t *testing.T) {
	img := testImage(800, 600)

	high, err := EncodeJPEG(img, 95)
	require.NoError(t, err)
	low, err := EncodeJPEG(img, 40)
	require.NoError(t, err)

	assert.NotEmpty(t, high)
	assert.NotEmpty(t, low)
	assert.LessOrEqual(t, len(low), len(high))
}
