package cloudapi

import "testing"

func TestRawItemToRecordMapsPhotoFields(t *testing.T) {
	lat := 48.8566
	lon := 2.3522
	item := rawItem{
		ID:   "item-1",
		Name: "beach.jpg",
		Photo: &struct {
			TakenDateTime string `json:"takenDateTime"`
			CameraMake    string `json:"cameraMake"`
			CameraModel   string `json:"cameraModel"`
		}{
			TakenDateTime: "2023-06-15T10:30:00Z",
			CameraMake:    "Canon",
			CameraModel:   "EOS R5",
		},
		Location: &struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}{Latitude: &lat, Longitude: &lon},
	}

	rec := item.toRecord()
	if !rec.HasDate {
		t.Fatal("expected a capture date")
	}
	if rec.CaptureDate.Year != 2023 || rec.CaptureDate.Month != 6 || rec.CaptureDate.Day != 15 {
		t.Fatalf("got %+v", rec.CaptureDate)
	}
	if !rec.HasLocation || rec.Location.Lat != lat || rec.Location.Lon != lon {
		t.Fatalf("got location %+v", rec.Location)
	}
	if rec.Camera != "Canon EOS R5" {
		t.Fatalf("got camera %q", rec.Camera)
	}
}

func TestRawItemToRecordCameraOmitsMissingComponent(t *testing.T) {
	item := rawItem{
		Photo: &struct {
			TakenDateTime string `json:"takenDateTime"`
			CameraMake    string `json:"cameraMake"`
			CameraModel   string `json:"cameraModel"`
		}{CameraMake: "Nikon"},
	}
	rec := item.toRecord()
	if rec.Camera != "Nikon" {
		t.Fatalf("got %q", rec.Camera)
	}
}

func TestRawItemToRecordDigestFromQuickXorHash(t *testing.T) {
	item := rawItem{
		File: &struct {
			MimeType string `json:"mimeType"`
			Hashes   struct {
				QuickXorHash string `json:"quickXorHash"`
			} `json:"hashes"`
		}{MimeType: "image/jpeg"},
	}
	item.File.Hashes.QuickXorHash = "abc123=="

	rec := item.toRecord()
	if rec.Digest.String() != "abc123==" {
		t.Fatalf("got %q", rec.Digest.String())
	}
}

func TestIsImageKeepsPhotoFacetOrImageMime(t *testing.T) {
	keepers := []rawItem{
		{Photo: &struct {
			TakenDateTime string `json:"takenDateTime"`
			CameraMake    string `json:"cameraMake"`
			CameraModel   string `json:"cameraModel"`
		}{}},
		{Deleted: &struct {
			State string `json:"state"`
		}{State: "deleted"}},
	}
	for i, item := range keepers {
		if !item.isImage() {
			t.Fatalf("case %d: expected isImage true", i)
		}
	}
}

func TestIsImageDropsUnrelatedFiles(t *testing.T) {
	item := rawItem{
		File: &struct {
			MimeType string `json:"mimeType"`
			Hashes   struct {
				QuickXorHash string `json:"quickXorHash"`
			} `json:"hashes"`
		}{MimeType: "application/pdf"},
	}
	if item.isImage() {
		t.Fatal("expected a PDF to be dropped")
	}
}

func TestInvalidTakenDateTimeLeavesDateAbsent(t *testing.T) {
	item := rawItem{
		Photo: &struct {
			TakenDateTime string `json:"takenDateTime"`
			CameraMake    string `json:"cameraMake"`
			CameraModel   string `json:"cameraModel"`
		}{TakenDateTime: "not-a-date"},
	}
	rec := item.toRecord()
	if rec.HasDate {
		t.Fatal("expected HasDate false for an unparseable timestamp")
	}
}
