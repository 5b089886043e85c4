package cloudapi

import (
	"time"

	"github.com/xblaster/sift/internal/digest"
	"github.com/xblaster/sift/internal/geo"
	"github.com/xblaster/sift/internal/metadata"
)

// Record is the cloud-native equivalent of a local File Record: everything
// about a drive item the planner/orchestrator needs, assembled from the
// raw Graph-shaped item's facets without ever downloading its bytes.
type Record struct {
	ItemID       string
	Name         string
	ParentID     string
	ParentPath   string
	CaptureDate  metadata.CaptureDate
	HasDate      bool
	Location     geo.Point
	HasLocation  bool
	Digest       digest.Digest
	Camera       string
	Deleted      bool
}

// rawItem is the subset of a Graph-shaped delta item this client cares
// about: id/name/photo/location/file/deleted/parentReference, per the
// projection spec.md names explicitly.
type rawItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted *struct {
		State string `json:"state"`
	} `json:"deleted"`
	File *struct {
		MimeType string `json:"mimeType"`
		Hashes   struct {
			QuickXorHash string `json:"quickXorHash"`
		} `json:"hashes"`
	} `json:"file"`
	Photo *struct {
		TakenDateTime string `json:"takenDateTime"`
		CameraMake    string `json:"cameraMake"`
		CameraModel   string `json:"cameraModel"`
	} `json:"photo"`
	Location *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
	ParentReference *struct {
		ID   string `json:"id"`
		Path string `json:"path"`
	} `json:"parentReference"`
}

// isImage reports whether this item should be kept: an image MIME-type or
// a photo facet, or a deletion marker (kept as a tombstone).
func (r rawItem) isImage() bool {
	if r.Deleted != nil {
		return true
	}
	if r.Photo != nil {
		return true
	}
	if r.File != nil && isImageMIME(r.File.MimeType) {
		return true
	}
	return false
}

func isImageMIME(mime string) bool {
	return len(mime) >= 6 && mime[:6] == "image/"
}

// toRecord maps a raw delta item to a Record per spec's Cloud Record
// mapping rules.
func (r rawItem) toRecord() Record {
	rec := Record{
		ItemID: r.ID,
		Name:   r.Name,
	}

	if r.Deleted != nil {
		rec.Deleted = true
	}

	if r.ParentReference != nil {
		rec.ParentID = r.ParentReference.ID
		rec.ParentPath = r.ParentReference.Path
	}

	if r.Photo != nil {
		if t, err := time.Parse(time.RFC3339, r.Photo.TakenDateTime); err == nil {
			rec.CaptureDate = metadata.FromTime(t.Local())
			rec.HasDate = true
		}
		rec.Camera = cameraString(r.Photo.CameraMake, r.Photo.CameraModel)
	}

	if r.Location != nil && r.Location.Latitude != nil && r.Location.Longitude != nil {
		rec.Location = geo.Point{Lat: *r.Location.Latitude, Lon: *r.Location.Longitude}
		rec.HasLocation = true
	}

	if r.File != nil && r.File.Hashes.QuickXorHash != "" {
		rec.Digest = digest.FromRemote(r.File.Hashes.QuickXorHash)
	}

	return rec
}

func cameraString(make_, model string) string {
	switch {
	case make_ != "" && model != "":
		return make_ + " " + model
	case make_ != "":
		return make_
	case model != "":
		return model
	default:
		return ""
	}
}
