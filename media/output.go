package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	FullResMaxSize  = 3840
	FullJpegQuality = 95

	WebMaxSize     = 2048
	WebJpegQuality = 85

	ThumbnailMaxSize     = 400
	ThumbnailJpegQuality = 80
)

// Outputs holds the three encoded delivery tiers for one photo.
type Outputs struct {
	FullRes    []byte
	WebRes     []byte
	Thumbnail  []byte
	FullWidth  int
	FullHeight int
}

// Processor generates the delivery encodings for processed photos. All
// targets and qualities are fixed, so output is deterministic for
// identical input.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// Generate produces full/web/thumbnail JPEG encodings of img. The full-res
// tier is only downscaled when the source exceeds FullResMaxSize.
func (p *Processor) Generate(img image.Image) (*Outputs, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	full := img
	if bounds.Dx() > FullResMaxSize || bounds.Dy() > FullResMaxSize {
		full = imaging.Fit(img, FullResMaxSize, FullResMaxSize, imaging.Lanczos)
	}

	fullBytes, err := EncodeJPEG(full, FullJpegQuality)
	if err != nil {
		return nil, fmt.Errorf("full-res encoding failed: %w", err)
	}

	web := imaging.Fit(full, WebMaxSize, WebMaxSize, imaging.Lanczos)
	webBytes, err := EncodeJPEG(web, WebJpegQuality)
	if err != nil {
		return nil, fmt.Errorf("web-res encoding failed: %w", err)
	}

	thumb := imaging.Fit(full, ThumbnailMaxSize, ThumbnailMaxSize, imaging.Lanczos)
	thumbBytes, err := EncodeJPEG(thumb, ThumbnailJpegQuality)
	if err != nil {
		return nil, fmt.Errorf("thumbnail encoding failed: %w", err)
	}

	fullBounds := full.Bounds()
	return &Outputs{
		FullRes:    fullBytes,
		WebRes:     webBytes,
		Thumbnail:  thumbBytes,
		FullWidth:  fullBounds.Dx(),
		FullHeight: fullBounds.Dy(),
	}, nil
}

// EncodeJPEG renders img as JPEG bytes at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
