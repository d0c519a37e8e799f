package analysis

import (
	"image"
	"log"
	"math"
	"math/rand"

	"gocv.io/x/gocv"

	"github.com/gallerypix/pipelinebackend/models"
)

const (
	noisePatchCount = 10
	noisePatchSize  = 32
	noiseSeed       = 42

	thirdsZoneHalf = 20
)

// quality sub-score weights
const (
	weightExposure    = 0.30
	weightSharpness   = 0.30
	weightNoise       = 0.20
	weightComposition = 0.20
)

// scoreQuality computes the four quality sub-scores and their weighted
// overall from a grayscale image.
func scoreQuality(gray gocv.Mat) models.QualityDetails {
	data, err := gray.ToBytes()
	if err != nil || len(data) == 0 {
		log.Printf("analysis: failed to read grayscale pixels for quality scoring: %v", err)
		return models.QualityDetails{}
	}

	hist := histogram256(data)

	exposure := exposureScore(hist, len(data), meanBytes(data))
	sharpness := sharpnessScore(laplacianVariance(gray))
	noise := noiseScore(estimatePatchNoise(gray, data))
	composition := compositionScore(thirdsEdgeRatio(gray))

	details := models.QualityDetails{
		Exposure:    round1(exposure),
		Sharpness:   round1(sharpness),
		Noise:       round1(noise),
		Composition: round1(composition),
	}
	details.Overall = round1(details.Exposure*weightExposure +
		details.Sharpness*weightSharpness +
		details.Noise*weightNoise +
		details.Composition*weightComposition)
	return details
}

// exposureScore maps mean brightness into 0..100, peaking near middle gray,
// with a penalty for clipped shadows and highlights.
func exposureScore(hist [256]int, total int, mean float64) float64 {
	var score float64
	switch {
	case mean >= 90 && mean <= 170:
		score = 90 + 10*(1-math.Abs(mean-128)/42)
	case mean < 90:
		score = math.Max(20, 90*mean/90)
	default:
		score = math.Max(20, 90*(255-mean)/85)
	}

	if total > 0 {
		clipped := 0
		for i := 0; i < 5; i++ {
			clipped += hist[i]
		}
		for i := 250; i < 256; i++ {
			clipped += hist[i]
		}
		penalty := math.Min(30, float64(clipped)/float64(total)*200)
		score -= penalty
	}

	return clampFloat(score, 0, 100)
}

// laplacianVariance is the classic blur metric; higher means sharper.
func laplacianVariance(gray gocv.Mat) float64 {
	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	meanMat, stdMat := lap.MeanStdDev()
	defer meanMat.Close()
	defer stdMat.Close()

	std := stdMat.GetDoubleAt(0, 0)
	return std * std
}

func sharpnessScore(variance float64) float64 {
	return clampFloat((variance-10)/5, 0, 100)
}

// estimatePatchNoise samples random patches and measures their mean
// deviation from a Gaussian-blurred reference. The sampling RNG is seeded
// so repeated runs over the same image agree.
func estimatePatchNoise(gray gocv.Mat, grayBytes []byte) float64 {
	h := gray.Rows()
	w := gray.Cols()
	if h < noisePatchSize || w < noisePatchSize {
		return 0
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	blurBytes, err := blurred.ToBytes()
	if err != nil || len(blurBytes) != len(grayBytes) {
		return 0
	}

	rng := rand.New(rand.NewSource(noiseSeed))
	var total float64
	for p := 0; p < noisePatchCount; p++ {
		y := rng.Intn(maxOf(1, h-noisePatchSize))
		x := rng.Intn(maxOf(1, w-noisePatchSize))

		var sum float64
		for dy := 0; dy < noisePatchSize; dy++ {
			row := (y + dy) * w
			for dx := 0; dx < noisePatchSize; dx++ {
				idx := row + x + dx
				sum += math.Abs(float64(grayBytes[idx]) - float64(blurBytes[idx]))
			}
		}
		total += sum / (noisePatchSize * noisePatchSize)
	}

	return total / noisePatchCount
}

func noiseScore(avgDeviation float64) float64 {
	return clampFloat(100-(avgDeviation-2)*7, 0, 100)
}

// thirdsEdgeRatio measures how much edge energy falls near the four
// rule-of-thirds intersections relative to the whole frame.
func thirdsEdgeRatio(gray gocv.Mat) float64 {
	h := gray.Rows()
	w := gray.Cols()
	if h == 0 || w == 0 {
		return 0
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 80, 200)

	totalEdges := gocv.CountNonZero(edges)
	edgeBytes, err := edges.ToBytes()
	if err != nil {
		return 0
	}

	th := h / 3
	tw := w / 3
	points := [4][2]int{
		{th, tw}, {th, 2 * tw},
		{2 * th, tw}, {2 * th, 2 * tw},
	}

	zoneEdges := 0
	for _, pt := range points {
		y0 := maxOf(0, pt[0]-thirdsZoneHalf)
		y1 := minOf(h, pt[0]+thirdsZoneHalf)
		x0 := maxOf(0, pt[1]-thirdsZoneHalf)
		x1 := minOf(w, pt[1]+thirdsZoneHalf)
		for y := y0; y < y1; y++ {
			row := y * w
			for x := x0; x < x1; x++ {
				if edgeBytes[row+x] != 0 {
					zoneEdges++
				}
			}
		}
	}

	return float64(zoneEdges) / float64(maxOf(1, totalEdges))
}

func compositionScore(thirdsRatio float64) float64 {
	return math.Min(100, math.Max(40, 50+thirdsRatio*500))
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minOf(a, b int) int {
	if a < b {
		return a
	}
	return b
}
