package analysis

import (
	"gocv.io/x/gocv"
)

// characteristic flag thresholds, all against 8-bit Lab/HSV values
const (
	lowContrastStd   = 35.0
	highContrastStd  = 65.0
	darkClipLevel    = 10
	brightClipLevel  = 245
	backlitLuminance = 30.0
	desaturatedMean  = 40.0
	oversaturated    = 180.0
	noisySigma       = 8.0
)

// Characteristics summarizes the tonal and color properties the style phase
// uses as hints alongside the trained preset.
type Characteristics struct {
	MeanBrightness  float64 `json:"mean_brightness"`
	ExposureBias    float64 `json:"exposure_bias"`
	Contrast        float64 `json:"contrast"`
	IsLowContrast   bool    `json:"is_low_contrast"`
	IsHighContrast  bool    `json:"is_high_contrast"`
	DarkClipPct     float64 `json:"dark_clip_pct"`
	BrightClipPct   float64 `json:"bright_clip_pct"`
	IsBacklit       bool    `json:"is_backlit"`
	WBWarmth        float64 `json:"wb_warmth"`
	WBTint          float64 `json:"wb_tint"`
	MeanSaturation  float64 `json:"mean_saturation"`
	IsDesaturated   bool    `json:"is_desaturated"`
	IsOversaturated bool    `json:"is_oversaturated"`
	IsNoisy         bool    `json:"is_noisy"`
	NoiseSigma      float64 `json:"noise_sigma"`
	DynamicRange    float64 `json:"dynamic_range"`
	LuminanceP2     float64 `json:"l_p2"`
	LuminanceP98    float64 `json:"l_p98"`
}

type colorStats struct {
	meanL          float64
	stdL           float64
	darkClipFrac   float64
	brightClipFrac float64
	centerL        float64
	borderL        float64
	meanA          float64
	meanB          float64
	meanSat        float64
	noiseSigma     float64
	p2             float64
	p98            float64
}

// deriveCharacteristics applies the fixed thresholds to measured color
// statistics. Split out from the measurement so the flag logic is testable
// on synthetic numbers.
func deriveCharacteristics(cs colorStats) Characteristics {
	return Characteristics{
		MeanBrightness: round1(cs.meanL),
		// normalized to -1..+1 around the midtone
		ExposureBias:    round3((cs.meanL - 128) / 128),
		Contrast:        round1(cs.stdL),
		IsLowContrast:   cs.stdL < lowContrastStd,
		IsHighContrast:  cs.stdL > highContrastStd,
		DarkClipPct:     round3(cs.darkClipFrac),
		BrightClipPct:   round3(cs.brightClipFrac),
		IsBacklit:       cs.borderL > cs.centerL+backlitLuminance,
		WBWarmth:        round1(cs.meanB - 128),
		WBTint:          round1(cs.meanA - 128),
		MeanSaturation:  round1(cs.meanSat),
		IsDesaturated:   cs.meanSat < desaturatedMean,
		IsOversaturated: cs.meanSat > oversaturated,
		IsNoisy:         cs.noiseSigma > noisySigma,
		NoiseSigma:      round1(cs.noiseSigma),
		DynamicRange:    round1(cs.p98 - cs.p2),
		LuminanceP2:     cs.p2,
		LuminanceP98:    cs.p98,
	}
}

func computeCharacteristics(img, gray gocv.Mat) Characteristics {
	h := gray.Rows()
	w := gray.Cols()
	if h == 0 || w == 0 {
		return Characteristics{}
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)

	labChans := gocv.Split(lab)
	lum := labChans[0]
	meanA := labChans[1].Mean().Val1
	meanB := labChans[2].Mean().Val1
	defer func() {
		for _, ch := range labChans {
			ch.Close()
		}
	}()

	lumBytes, err := lum.ToBytes()
	if err != nil || len(lumBytes) == 0 {
		return Characteristics{}
	}

	meanL, stdL := meanStdBytes(lumBytes)

	darkClip := 0
	brightClip := 0
	for _, v := range lumBytes {
		if v < darkClipLevel {
			darkClip++
		} else if v > brightClipLevel {
			brightClip++
		}
	}

	// backlit check compares the middle half of the frame against four
	// quarter-width border strips
	centerL := regionMean(lumBytes, w, w/4, h/4, 3*w/4, 3*h/4)
	borderL := (regionMean(lumBytes, w, 0, 0, w, h/4) +
		regionMean(lumBytes, w, 0, 3*h/4, w, h) +
		regionMean(lumBytes, w, 0, 0, w/4, h) +
		regionMean(lumBytes, w, 3*w/4, 0, w, h)) / 4

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)
	hsvChans := gocv.Split(hsv)
	meanSat := hsvChans[1].Mean().Val1
	for _, ch := range hsvChans {
		ch.Close()
	}

	hist := histogram256(lumBytes)

	return deriveCharacteristics(colorStats{
		meanL:          meanL,
		stdL:           stdL,
		darkClipFrac:   float64(darkClip) / float64(len(lumBytes)),
		brightClipFrac: float64(brightClip) / float64(len(lumBytes)),
		centerL:        centerL,
		borderL:        borderL,
		meanA:          meanA,
		meanB:          meanB,
		meanSat:        meanSat,
		noiseSigma:     estimatePatchNoise(gray, mustGrayBytes(gray)),
		p2:             percentileFromHist(hist, len(lumBytes), 2),
		p98:            percentileFromHist(hist, len(lumBytes), 98),
	})
}

func mustGrayBytes(gray gocv.Mat) []byte {
	data, err := gray.ToBytes()
	if err != nil {
		return nil
	}
	return data
}
