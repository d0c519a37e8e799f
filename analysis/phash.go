package analysis

import (
	"image"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

const (
	phashInputSize = 32
	phashBlockSize = 8
)

// computePHash produces a 64-bit perceptual hash as a bit string: resize to
// 32x32 grayscale, take the DCT, keep the low-frequency 8x8 block, and
// binarize against its median.
func computePHash(img gocv.Mat) string {
	if img.Empty() {
		return ""
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(img, &small, image.Pt(phashInputSize, phashInputSize), 0, 0, gocv.InterpolationLinear)

	gray := gocv.NewMat()
	defer gray.Close()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}

	floats := gocv.NewMat()
	defer floats.Close()
	gray.ConvertTo(&floats, gocv.MatTypeCV32F)

	dct := gocv.NewMat()
	defer dct.Close()
	gocv.DCT(floats, &dct, gocv.DftForward)

	coeffs := make([]float32, 0, phashBlockSize*phashBlockSize)
	for y := 0; y < phashBlockSize; y++ {
		for x := 0; x < phashBlockSize; x++ {
			coeffs = append(coeffs, dct.GetFloatAt(y, x))
		}
	}

	return fingerprintBits(coeffs)
}

// fingerprintBits binarizes DCT coefficients against their median. With an
// even count the median is the mean of the two middle values.
func fingerprintBits(coeffs []float32) string {
	if len(coeffs) == 0 {
		return ""
	}

	sorted := make([]float64, len(coeffs))
	for i, c := range coeffs {
		sorted[i] = float64(c)
	}
	sort.Float64s(sorted)

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	var sb strings.Builder
	sb.Grow(len(coeffs))
	for _, c := range coeffs {
		if float64(c) > median {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// HammingDistance counts differing positions between two equal-length hash
// strings. Mismatched or empty inputs compare as maximally distant.
func HammingDistance(a, b string) int {
	if a == "" || b == "" || len(a) != len(b) {
		return phashBlockSize * phashBlockSize
	}
	dist := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist
}
