package analysis

import "math"

// Pixel statistics over raw 8-bit buffers. Keeping these in plain Go means
// the score mappings and characteristic thresholds are unit-testable
// without OpenCV data in the loop.

func histogram256(data []byte) [256]int {
	var hist [256]int
	for _, v := range data {
		hist[v]++
	}
	return hist
}

func meanBytes(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += float64(v)
	}
	return sum / float64(len(data))
}

func meanStdBytes(data []byte) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	mean := meanBytes(data)
	var sumSq float64
	for _, v := range data {
		d := float64(v) - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / float64(len(data)))
}

// percentileFromHist returns the smallest intensity whose cumulative count
// reaches the p-th percentile.
func percentileFromHist(hist [256]int, total int, p float64) float64 {
	if total <= 0 {
		return 0
	}
	target := p / 100 * float64(total)
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		if float64(cum) >= target {
			return float64(i)
		}
	}
	return 255
}

// regionMean averages the rectangle [x0,x1) x [y0,y1) of a w-wide buffer.
func regionMean(data []byte, w, x0, y0, x1, y1 int) float64 {
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	var sum float64
	for y := y0; y < y1; y++ {
		row := y * w
		for x := x0; x < x1; x++ {
			sum += float64(data[row+x])
		}
	}
	return sum / float64((x1-x0)*(y1-y0))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
