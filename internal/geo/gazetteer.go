package geo

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
)

//go:embed data/gazetteer.csv
var embeddedGazetteer embed.FS

// CityRecord is one gazetteer entry: a named place with a location and
// population, used as a weighting tiebreak by callers that want one (this
// package's Nearest only uses Name/Point).
type CityRecord struct {
	Name       string
	Point      Point
	Population int64
}

// LoadEmbeddedGazetteer parses the gazetteer bundled into the binary via
// go:embed.
func LoadEmbeddedGazetteer() ([]CityRecord, error) {
	data, err := embeddedGazetteer.ReadFile("data/gazetteer.csv")
	if err != nil {
		return nil, fmt.Errorf("geo: read embedded gazetteer: %w", err)
	}
	return ParseGazetteer(data)
}

// ParseGazetteer decodes a CSV gazetteer of the form
// name,lat,lon,population (no header row).
func ParseGazetteer(data []byte) ([]CityRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 4
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("geo: parse gazetteer csv: %w", err)
	}

	records := make([]CityRecord, 0, len(rows))
	for _, row := range rows {
		lat, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: bad latitude %q: %w", row[1], err)
		}
		lon, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: bad longitude %q: %w", row[2], err)
		}
		pop, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("geo: bad population %q: %w", row[3], err)
		}
		records = append(records, CityRecord{
			Name:       row[0],
			Point:      Point{Lat: lat, Lon: lon},
			Population: pop,
		})
	}
	return records, nil
}

// Nearest returns the name of the gazetteer entry closest to point by
// Haversine distance. Ties are broken by first-seen order (the earlier
// entry in gazetteer wins). NaN distances are treated as equal for
// ordering, so they never displace an existing non-NaN winner found
// earlier. An empty gazetteer returns ("", false).
func Nearest(point Point, gazetteer []CityRecord) (string, bool) {
	if len(gazetteer) == 0 {
		return "", false
	}

	bestName := gazetteer[0].Name
	bestDist := HaversineKm(point, gazetteer[0].Point)

	for _, entry := range gazetteer[1:] {
		d := HaversineKm(point, entry.Point)
		if d < bestDist && !math.IsNaN(d) {
			bestDist = d
			bestName = entry.Name
		}
	}

	return bestName, true
}
