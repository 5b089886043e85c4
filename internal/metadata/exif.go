package metadata

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/xblaster/sift/internal/netio"
)

// exifDateLayout is the format EXIF embeds DateTimeOriginal in: "2006:01:02 15:04:05".
const exifDateLayout = "2006:01:02 15:04:05"

type exifExtractor struct{}

func (exifExtractor) extract(path string) (CaptureDate, bool) {
	// A flaky network share can drop a read partway through the EXIF
	// header; retry the whole file rather than failing the extraction.
	data, err := netio.ReadWithRetries(path)
	if err != nil {
		return CaptureDate{}, false
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return CaptureDate{}, false
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return CaptureDate{}, false
	}
	dateStr, err := tag.StringVal()
	if err != nil {
		return CaptureDate{}, false
	}
	t, err := time.Parse(exifDateLayout, dateStr)
	if err != nil {
		return CaptureDate{}, false
	}

	return FromTime(t), true
}
