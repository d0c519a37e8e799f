package media

import (
	"image"
	"image/color"
	"log"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/gallerypix/pipelinebackend/models"
)

const (
	// tilt range (degrees) considered a correctable horizon; anything
	// larger is assumed intentional
	minHorizonAngle = 0.5
	maxHorizonAngle = 10.0

	houghThreshold  = 100
	houghMaxLineGap = 10

	// single-subject crop: face centre must sit in the outer band before a
	// recentre crop is considered
	cropEdgeBand  = 0.18
	cropKeepRatio = 0.86
)

// CompositionMeta reports what Adjust changed. Both flags false is a valid
// and common result.
type CompositionMeta struct {
	Straightened bool
	HorizonAngle float64
	Cropped      bool
	CropRect     [4]int
}

// Adjuster applies conservative CPU composition corrections: horizon
// straightening and single-subject recentring crops. The input image is
// never modified; callers replace their copy with the returned one.
type Adjuster struct{}

func NewAdjuster() *Adjuster {
	return &Adjuster{}
}

// Adjust evaluates img and returns a possibly corrected copy plus metadata.
func (a *Adjuster) Adjust(img image.Image, faces models.FaceList) (image.Image, CompositionMeta) {
	meta := CompositionMeta{}
	result := img

	angle, ok := estimateHorizonAngle(img)
	if ok && math.Abs(angle) > minHorizonAngle && math.Abs(angle) <= maxHorizonAngle {
		result = straighten(result, angle)
		meta.Straightened = true
		meta.HorizonAngle = math.Round(angle*100) / 100
	}

	if rect, ok := recentreCrop(result, faces); ok {
		result = imaging.Crop(result, rect)
		meta.Cropped = true
		meta.CropRect = [4]int{rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy()}
	}

	return result, meta
}

// estimateHorizonAngle finds the dominant near-horizontal line angle in
// degrees. ok is false when no confident estimate exists.
func estimateHorizonAngle(img image.Image) (float64, bool) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		log.Printf("composition: failed to convert image for horizon detection: %v", err)
		return 0, false
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)

	lines := gocv.NewMat()
	defer lines.Close()
	minLineLength := float32(img.Bounds().Dx()) / 4
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, houghThreshold, minLineLength, houghMaxLineGap)

	var angles []float64
	for i := 0; i < lines.Rows(); i++ {
		line := lines.GetVeciAt(i, 0)
		dx := float64(line[2] - line[0])
		dy := float64(line[3] - line[1])
		if dx == 0 && dy == 0 {
			continue
		}
		angle := math.Atan2(dy, dx) * 180 / math.Pi
		if angle > 90 {
			angle -= 180
		} else if angle < -90 {
			angle += 180
		}
		if math.Abs(angle) <= maxHorizonAngle {
			angles = append(angles, angle)
		}
	}

	if len(angles) == 0 {
		return 0, false
	}

	sort.Float64s(angles)
	return angles[len(angles)/2], true
}

// straighten rotates by the opposite of the detected tilt and crops to the
// largest axis-aligned rectangle that avoids the rotation borders.
func straighten(img image.Image, angle float64) image.Image {
	rotated := imaging.Rotate(img, -angle, color.NRGBA{0, 0, 0, 255})

	rad := math.Abs(angle * math.Pi / 180)
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	scale := math.Min(
		w/(w*math.Cos(rad)+h*math.Sin(rad)),
		h/(w*math.Sin(rad)+h*math.Cos(rad)),
	)

	cropW := maxInt(1, int(w*scale))
	cropH := maxInt(1, int(h*scale))
	return imaging.CropCenter(rotated, cropW, cropH)
}

// recentreCrop proposes a crop when a lone subject sits hard against a frame
// edge. The crop must keep every detected face box fully inside, otherwise
// it is abandoned.
func recentreCrop(img image.Image, faces models.FaceList) (image.Rectangle, bool) {
	if len(faces) != 1 {
		return image.Rectangle{}, false
	}

	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	face := faces[0]
	faceCX := face.BBox[0] + face.BBox[2]/2
	band := int(float64(w) * cropEdgeBand)
	if faceCX >= band && faceCX <= w-band {
		return image.Rectangle{}, false
	}

	cropW := int(float64(w) * cropKeepRatio)
	cropH := int(float64(h) * cropKeepRatio)

	// shift the crop window toward the subject, clamped to the frame
	x0 := clampInt(faceCX-cropW/3, 0, w-cropW)
	y0 := clampInt((h-cropH)/2, 0, h-cropH)
	rect := image.Rect(x0, y0, x0+cropW, y0+cropH)

	faceRect := image.Rect(face.BBox[0], face.BBox[1], face.BBox[0]+face.BBox[2], face.BBox[1]+face.BBox[3])
	if !faceRect.In(rect) {
		return image.Rectangle{}, false
	}

	return rect, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
