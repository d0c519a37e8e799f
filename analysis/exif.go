package analysis

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/gallerypix/pipelinebackend/models"
)

// extractExif pulls the camera metadata relevant to editing decisions.
// Absence of EXIF is normal (screenshots, exports) and yields an empty map.
func extractExif(data []byte) models.ExifMap {
	meta := models.ExifMap{}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	putString(meta, x, "camera_make", exif.Make)
	putString(meta, x, "camera_model", exif.Model)
	putString(meta, x, "lens_make", exif.LensMake)
	putString(meta, x, "lens_model", exif.LensModel)
	putInt(meta, x, "iso", exif.ISOSpeedRatings)
	putRational(meta, x, "aperture", exif.FNumber)
	putRational(meta, x, "focal_length", exif.FocalLength)
	putRational(meta, x, "exposure_bias", exif.ExposureBiasValue)
	putInt(meta, x, "flash", exif.Flash)
	putInt(meta, x, "white_balance", exif.WhiteBalance)
	putInt(meta, x, "metering_mode", exif.MeteringMode)
	putInt(meta, x, "exposure_program", exif.ExposureProgram)
	putInt(meta, x, "orientation", exif.Orientation)

	if shutter := shutterSpeedString(x); shutter != "" {
		meta["shutter_speed"] = shutter
	}

	if dt, dtErr := x.DateTime(); dtErr == nil {
		meta["taken_at"] = dt.Unix()
	}

	return meta
}

func putString(m models.ExifMap, x *exif.Exif, key string, tagName exif.FieldName) {
	tag, err := x.Get(tagName)
	if err != nil || tag == nil {
		return
	}
	// string values can carry trailing null terminators
	val := strings.TrimRight(strings.Trim(tag.String(), `"`), "\x00")
	if val != "" {
		m[key] = val
	}
}

func putInt(m models.ExifMap, x *exif.Exif, key string, tagName exif.FieldName) {
	tag, err := x.Get(tagName)
	if err != nil || tag == nil {
		return
	}
	val, err := tag.Int(0)
	if err != nil {
		return
	}
	m[key] = val
}

// putRational stores rational tags as floats; some cameras write them as plain
// integers, which Rat2 rejects.
func putRational(m models.ExifMap, x *exif.Exif, key string, tagName exif.FieldName) {
	tag, err := x.Get(tagName)
	if err != nil || tag == nil {
		return
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		if valInt, intErr := tag.Int(0); intErr == nil {
			m[key] = float64(valInt)
		}
		return
	}
	m[key] = float64(num) / float64(den)
}

func shutterSpeedString(x *exif.Exif) string {
	tag, err := x.Get(exif.ExposureTime)
	if err != nil || tag == nil {
		return ""
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return ""
	}

	if num == 1 && den > 1 {
		return fmt.Sprintf("1/%d", den)
	}

	val := float64(num) / float64(den)
	if val >= 1.0 {
		return fmt.Sprintf("%.1fs", val)
	}
	return fmt.Sprintf("%.4fs", val)
}
