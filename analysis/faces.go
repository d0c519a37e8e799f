package analysis

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/gallerypix/pipelinebackend/models"
)

// cascade parameters are fixed, not configurable per call
const (
	faceMaxDetectDim = 1500
	faceScaleFactor  = 1.1
	faceMinNeighbors = 5
	faceMinSize      = 30
)

// detectFaces runs the Haar cascade on a grayscale, downscaled-if-oversized
// copy and rescales the boxes back to the input image's coordinates.
func (e *Engine) detectFaces(img gocv.Mat) models.FaceList {
	results := models.FaceList{}
	if e == nil || !e.Enabled || img.Empty() {
		return results
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	scale := 1.0
	maxDim := gray.Cols()
	if gray.Rows() > maxDim {
		maxDim = gray.Rows()
	}
	if maxDim > faceMaxDetectDim {
		scale = float64(faceMaxDetectDim) / float64(maxDim)
		small := gocv.NewMat()
		gocv.Resize(gray, &small, image.Pt(int(float64(gray.Cols())*scale), int(float64(gray.Rows())*scale)), 0, 0, gocv.InterpolationLinear)
		gray.Close()
		gray = small
	}

	rects := e.cascade.DetectMultiScaleWithParams(
		gray,
		faceScaleFactor,
		faceMinNeighbors,
		0,
		image.Pt(faceMinSize, faceMinSize),
		image.Pt(0, 0),
	)

	for _, r := range rects {
		results = append(results, models.FaceBox{
			BBox: [4]int{
				int(float64(r.Min.X) / scale),
				int(float64(r.Min.Y) / scale),
				int(float64(r.Dx()) / scale),
				int(float64(r.Dy()) / scale),
			},
			EyesOpen: true, // placeholder until an eye cascade is wired in
		})
	}

	return results
}
