package media

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"

	"github.com/gallerypix/pipelinebackend/models"
)

func TestStraightenPreservesAspectWithoutBorders(t *testing.T) {
	src := imaging.New(1000, 600, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	out := straighten(src, 3.0)

	b := out.Bounds()
	assert.Less(t, b.Dx(), 1000)
	assert.Less(t, b.Dy(), 600)

	srcAspect := 1000.0 / 600.0
	outAspect := float64(b.Dx()) / float64(b.Dy())
	assert.InDelta(t, srcAspect, outAspect, 0.02)

	// the inscribed crop must exclude every black rotation corner
	corners := []image.Point{
		{b.Min.X, b.Min.Y},
		{b.Max.X - 1, b.Min.Y},
		{b.Min.X, b.Max.Y - 1},
		{b.Max.X - 1, b.Max.Y - 1},
	}
	for _, pt := range corners {
		r, g, bl, _ := out.At(pt.X, pt.Y).RGBA()
		assert.NotZero(t, r+g+bl, "corner %v fell on a rotation border", pt)
	}
}

func TestRecentreCropRequiresSingleEdgeFace(t *testing.T) {
	img := imaging.New(1000, 600, color.NRGBA{A: 255})

	// centred face: no crop
	centred := models.FaceList{{BBox: [4]int{450, 250, 100, 100}}}
	_, ok := recentreCrop(img, centred)
	assert.False(t, ok)

	// two faces: never crop
	two := models.FaceList{
		{BBox: [4]int{20, 250, 80, 80}},
		{BBox: [4]int{700, 250, 80, 80}},
	}
	_, ok = recentreCrop(img, two)
	assert.False(t, ok)

	// no faces
	_, ok = recentreCrop(img, nil)
	assert.False(t, ok)
}

func TestRecentreCropShiftsTowardEdgeSubject(t *testing.T) {
	img := imaging.New(1000, 600, color.NRGBA{A: 255})

	face := models.FaceList{{BBox: [4]int{40, 250, 80, 80}}}
	rect, ok := recentreCrop(img, face)
	if !ok {
		t.Fatal("expected a recentre crop for an edge subject")
	}

	assert.Equal(t, int(1000*cropKeepRatio), rect.Dx())
	assert.Equal(t, int(600*cropKeepRatio), rect.Dy())

	// the face box stays fully inside the crop
	faceRect := image.Rect(40, 250, 120, 330)
	assert.True(t, faceRect.In(rect))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 5, clampInt(5, 0, 10))
	assert.Equal(t, 0, clampInt(-3, 0, 10))
	assert.Equal(t, 10, clampInt(42, 0, 10))
	assert.Equal(t, 3, clampInt(7, 3, 2))
}

func TestAdjustOnFeaturelessImage(t *testing.T) {
	a := NewAdjuster()
	src := imaging.New(400, 300, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	out, meta := a.Adjust(src, nil)
	assert.False(t, meta.Straightened)
	assert.False(t, meta.Cropped)
	assert.Equal(t, math.Abs(meta.HorizonAngle), 0.0)
	assert.Equal(t, src.Bounds(), out.Bounds())
}
