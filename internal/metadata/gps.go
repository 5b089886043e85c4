package metadata

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// GPSPoint is a decoded EXIF location, kept local to this package so
// internal/metadata has no dependency on internal/geo; callers translate it
// to geo.Point themselves.
type GPSPoint struct {
	Lat float64
	Lon float64
}

// ExtractGPS decodes the GPSLatitude/GPSLongitude EXIF tags, applying the
// hemisphere refs, following the degrees/minutes/seconds decomposition the
// EXIF spec encodes them in (grounded on the corpus's EXIF-GPS decoder in
// camlistore's receive.go). Source has no GPS extraction at all — this is
// a supplemental extension the spec explicitly permits ("implementations
// may add GPS extraction without changing any public contract").
func ExtractGPS(path string) (GPSPoint, bool) {
	f, err := os.Open(path)
	if err != nil {
		return GPSPoint{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return GPSPoint{}, false
	}

	latTag, err := x.Get(exif.GPSLatitude)
	if err != nil {
		return GPSPoint{}, false
	}
	lonTag, err := x.Get(exif.GPSLongitude)
	if err != nil {
		return GPSPoint{}, false
	}
	latRefTag, err := x.Get(exif.GPSLatitudeRef)
	if err != nil {
		return GPSPoint{}, false
	}
	lonRefTag, err := x.Get(exif.GPSLongitudeRef)
	if err != nil {
		return GPSPoint{}, false
	}

	lat, ok := tagDegrees(latTag)
	if !ok {
		return GPSPoint{}, false
	}
	lon, ok := tagDegrees(lonTag)
	if !ok {
		return GPSPoint{}, false
	}

	if ref, _ := latRefTag.StringVal(); ref == "S" {
		lat = -lat
	}
	if ref, _ := lonRefTag.StringVal(); ref == "W" {
		lon = -lon
	}

	return GPSPoint{Lat: lat, Lon: lon}, true
}

func tagDegrees(tag *tiff.Tag) (float64, bool) {
	if tag.Count != 3 {
		return 0, false
	}
	deg := ratFloat(tag.Rat2(0))
	min := ratFloat(tag.Rat2(1))
	sec := ratFloat(tag.Rat2(2))

	return deg + min/60 + sec/3600, true
}

func ratFloat(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
