package analysis

import (
	"bytes"
	"errors"
	"image"
	"log"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"gocv.io/x/gocv"

	"github.com/gallerypix/pipelinebackend/models"
)

// analysis runs on a resolution-capped copy to bound peak memory; reported
// dimensions are always the original image's
const maxAnalysisDim = 1600

// ErrUndecodable is returned once every fallback decoder has been
// exhausted. Callers treat it as a skip signal, not a pipeline failure.
var ErrUndecodable = errors.New("analysis: image could not be decoded")

// Result is the transient per-photo analysis output. It lives in the
// pipeline's run-scoped cache and is never persisted as its own entity.
type Result struct {
	ExifData        models.ExifMap
	SceneType       string
	QualityScore    float64
	QualityDetails  models.QualityDetails
	Faces           models.FaceList
	FaceCount       int
	PHash           string
	Width           int
	Height          int
	Characteristics Characteristics
}

// Engine performs all per-image analysis. It holds the loaded face cascade
// and is safe to reuse across photos; Analyze itself does no I/O.
type Engine struct {
	cascade gocv.CascadeClassifier
	Enabled bool
}

// NewEngine loads the Haar face cascade. A missing cascade disables face
// detection but leaves the rest of the engine functional.
func NewEngine(cascadePath string) *Engine {
	e := &Engine{}
	if cascadePath == "" {
		log.Println("analysis: cascade path is empty, disabling face detection")
		return e
	}

	e.cascade = gocv.NewCascadeClassifier()
	if !e.cascade.Load(cascadePath) {
		log.Printf("analysis: ERROR loading face cascade from %s, disabling face detection", cascadePath)
		e.cascade.Close()
		return e
	}

	log.Printf("analysis: loaded face cascade from %s", cascadePath)
	e.Enabled = true
	return e
}

func (e *Engine) Close() {
	if e != nil && e.Enabled {
		e.cascade.Close()
		e.Enabled = false
	}
}

// Analyze runs the full analysis battery over one image. It returns
// ErrUndecodable when no decoder could produce pixels.
func (e *Engine) Analyze(imageBytes []byte) (*Result, error) {
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, err
	}

	origW := img.Cols()
	origH := img.Rows()

	work := gocv.NewMat()
	maxDim := origW
	if origH > maxDim {
		maxDim = origH
	}
	if maxDim > maxAnalysisDim {
		scale := float64(maxAnalysisDim) / float64(maxDim)
		gocv.Resize(img, &work, image.Pt(int(float64(origW)*scale), int(float64(origH)*scale)), 0, 0, gocv.InterpolationArea)
	} else {
		work = img.Clone()
	}
	// free the full-res decode immediately; everything below uses the capped copy
	img.Close()
	defer work.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(work, &gray, gocv.ColorBGRToGray)

	faces := e.detectFaces(work)
	stats := computeSceneStats(work, gray)
	quality := scoreQuality(gray)

	return &Result{
		ExifData:        extractExif(imageBytes),
		SceneType:       classifyScene(stats, len(faces)),
		QualityScore:    quality.Overall,
		QualityDetails:  quality,
		Faces:           faces,
		FaceCount:       len(faces),
		PHash:           computePHash(work),
		Width:           origW,
		Height:          origH,
		Characteristics: computeCharacteristics(work, gray),
	}, nil
}

// decodeImage tries OpenCV first, then the stdlib codecs, then the embedded
// JPEG preview that camera RAW files carry in their EXIF block.
func decodeImage(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if err == nil {
		mat.Close()
	}

	if img, decErr := imaging.Decode(bytes.NewReader(data)); decErr == nil {
		return matFromImage(img)
	}

	if x, exifErr := exif.Decode(bytes.NewReader(data)); exifErr == nil {
		if preview, thumbErr := x.JpegThumbnail(); thumbErr == nil && len(preview) > 0 {
			if pm, pErr := gocv.IMDecode(preview, gocv.IMReadColor); pErr == nil && !pm.Empty() {
				log.Println("analysis: decoded via embedded RAW preview")
				return pm, nil
			}
		}
	}

	return gocv.Mat{}, ErrUndecodable
}

func matFromImage(img image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, ErrUndecodable
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorBGRToRGB) // conversion code 4 swaps R and B both ways
	return bgr, nil
}
