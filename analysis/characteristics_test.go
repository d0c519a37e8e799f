package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCharacteristicsNeutralFrame(t *testing.T) {
	ch := deriveCharacteristics(colorStats{
		meanL:   128,
		stdL:    50,
		centerL: 120,
		borderL: 110,
		meanA:   128,
		meanB:   128,
		meanSat: 100,
		p2:      10,
		p98:     240,
	})

	assert.Equal(t, 128.0, ch.MeanBrightness)
	assert.Equal(t, 0.0, ch.ExposureBias)
	assert.False(t, ch.IsLowContrast)
	assert.False(t, ch.IsHighContrast)
	assert.False(t, ch.IsBacklit)
	assert.Equal(t, 0.0, ch.WBWarmth)
	assert.Equal(t, 0.0, ch.WBTint)
	assert.False(t, ch.IsDesaturated)
	assert.False(t, ch.IsOversaturated)
	assert.False(t, ch.IsNoisy)
	assert.Equal(t, 230.0, ch.DynamicRange)
}

func TestDeriveCharacteristicsExposureBias(t *testing.T) {
	// bias is normalized against the 128 midtone into -1..+1
	assert.Equal(t, 0.25, deriveCharacteristics(colorStats{meanL: 160}).ExposureBias)
	assert.Equal(t, -0.25, deriveCharacteristics(colorStats{meanL: 96}).ExposureBias)
	assert.Equal(t, -0.219, deriveCharacteristics(colorStats{meanL: 100}).ExposureBias)
	assert.Equal(t, -1.0, deriveCharacteristics(colorStats{meanL: 0}).ExposureBias)
}

func TestDeriveCharacteristicsContrastThresholds(t *testing.T) {
	assert.True(t, deriveCharacteristics(colorStats{stdL: 34.9}).IsLowContrast)
	assert.False(t, deriveCharacteristics(colorStats{stdL: 35}).IsLowContrast)
	assert.False(t, deriveCharacteristics(colorStats{stdL: 65}).IsHighContrast)
	assert.True(t, deriveCharacteristics(colorStats{stdL: 65.1}).IsHighContrast)
}

func TestDeriveCharacteristicsBacklit(t *testing.T) {
	// border must exceed center by more than 30 luminance levels
	assert.False(t, deriveCharacteristics(colorStats{centerL: 100, borderL: 130}).IsBacklit)
	assert.True(t, deriveCharacteristics(colorStats{centerL: 100, borderL: 131}).IsBacklit)
}

func TestDeriveCharacteristicsSaturationFlags(t *testing.T) {
	assert.True(t, deriveCharacteristics(colorStats{meanSat: 39}).IsDesaturated)
	assert.False(t, deriveCharacteristics(colorStats{meanSat: 40}).IsDesaturated)
	assert.False(t, deriveCharacteristics(colorStats{meanSat: 180}).IsOversaturated)
	assert.True(t, deriveCharacteristics(colorStats{meanSat: 181}).IsOversaturated)
}

func TestDeriveCharacteristicsNoiseAndClipping(t *testing.T) {
	ch := deriveCharacteristics(colorStats{
		noiseSigma:     9.25,
		darkClipFrac:   0.051,
		brightClipFrac: 0.012,
	})
	assert.True(t, ch.IsNoisy)
	assert.Equal(t, 9.3, ch.NoiseSigma)

	// clipping is reported as the raw pixel fraction, not a percentage
	assert.Equal(t, 0.051, ch.DarkClipPct)
	assert.Equal(t, 0.012, ch.BrightClipPct)

	assert.False(t, deriveCharacteristics(colorStats{noiseSigma: 8}).IsNoisy)
}

func TestDeriveCharacteristicsWhiteBalance(t *testing.T) {
	warm := deriveCharacteristics(colorStats{meanA: 133.4, meanB: 141.2})
	assert.Equal(t, 13.2, warm.WBWarmth)
	assert.Equal(t, 5.4, warm.WBTint)

	cool := deriveCharacteristics(colorStats{meanA: 124, meanB: 118})
	assert.Equal(t, -10.0, cool.WBWarmth)
	assert.Equal(t, -4.0, cool.WBTint)
}
