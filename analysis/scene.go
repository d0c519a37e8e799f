package analysis

import (
	"gocv.io/x/gocv"
)

// Scene types
const (
	ScenePortrait  = "portrait"
	SceneGroup     = "group"
	SceneLandscape = "landscape"
	SceneDetail    = "detail"
	SceneCeremony  = "ceremony"
	SceneReception = "reception"
	SceneCandid    = "candid"
)

type sceneStats struct {
	aspect      float64
	edgeDensity float64
	brightness  float64
	saturation  float64
	greenRatio  float64
}

// classifyScene is a rule-based decision over face count and image
// statistics. Predicates are evaluated in order; the first match wins.
func classifyScene(st sceneStats, faceCount int) string {
	if faceCount == 0 {
		if st.aspect > 1.5 && st.greenRatio > 1.05 {
			return SceneLandscape
		}
		if st.edgeDensity > 0.15 {
			return SceneDetail
		}
		if st.brightness < 100 && st.saturation > 60 {
			return SceneReception
		}
		return SceneLandscape
	}

	if faceCount <= 2 {
		return ScenePortrait
	}

	if faceCount <= 6 {
		return SceneGroup
	}

	if st.brightness < 120 {
		return SceneReception
	}
	return SceneCeremony
}

func computeSceneStats(img, gray gocv.Mat) sceneStats {
	h := gray.Rows()
	w := gray.Cols()
	if h == 0 || w == 0 {
		return sceneStats{}
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)
	edgeDensity := float64(gocv.CountNonZero(edges)) / float64(h*w)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	saturation := channels[1].Mean().Val1
	brightness := channels[2].Mean().Val1
	for _, ch := range channels {
		ch.Close()
	}

	// green channel ratio is an outdoor/landscape indicator
	bgrMean := img.Mean()
	overall := (bgrMean.Val1 + bgrMean.Val2 + bgrMean.Val3) / 3
	greenRatio := bgrMean.Val2 / (overall + 1e-6)

	return sceneStats{
		aspect:      float64(w) / float64(h),
		edgeDensity: edgeDensity,
		brightness:  brightness,
		saturation:  saturation,
		greenRatio:  greenRatio,
	}
}
