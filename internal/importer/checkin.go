package importer

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pocketlog/pocketlog/internal/model"
)

// All check-in candidates land in one fixed category with a fixed look;
// the source format carries no category, icon, or color of its own.
const (
	checkinCategory = "Imported"
	checkinIcon     = "mappin.and.ellipse"
	checkinColor    = "#f59e0b"
)

var checkinTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// checkinRecord is one record of a third-party check-in service export.
type checkinRecord struct {
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
	Location struct {
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
		Address string   `json:"address"`
		City    string   `json:"city"`
		State   string   `json:"state"`
		Country string   `json:"country"`
	} `json:"location"`
	CreatedAt string `json:"createdAt"`
	Shout     string `json:"shout"`
}

// checkinFile covers exports that wrap the record array in an object.
type checkinFile struct {
	Checkins []checkinRecord `json:"checkins"`
	Items    []checkinRecord `json:"items"`
}

// DecodeCheckins decodes a third-party check-in export, either a top-level
// array or an object containing one.
func DecodeCheckins(data []byte) ([]*Candidate, error) {
	records, err := decodeCheckinRecords(data)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(records))
	for _, rec := range records {
		c, ok := decodeCheckin(rec)
		if !ok {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func decodeCheckinRecords(data []byte) ([]checkinRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []checkinRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, eris.Wrap(err, "importer: decode check-in array")
		}
		return records, nil
	}

	var file checkinFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, eris.Wrap(err, "importer: decode check-in file")
	}
	if file.Checkins != nil {
		return file.Checkins, nil
	}
	return file.Items, nil
}

// decodeCheckin maps one record onto the common Candidate shape. The
// record's own UTC offset is honored, not the device zone. A record whose
// timestamp cannot be parsed is dropped, mirroring the native format's
// unparseable-date rule.
func decodeCheckin(rec checkinRecord) (*Candidate, bool) {
	occurred, ok := parseCheckinTime(rec.CreatedAt)
	if !ok {
		return nil, false
	}

	name := strings.TrimSpace(rec.Venue.Name)
	if name == "" {
		name = placeholderName
	}

	var geo *model.GeoPoint
	if rec.Location.Lat != nil && rec.Location.Lng != nil {
		geo = &model.GeoPoint{Lat: *rec.Location.Lat, Lon: *rec.Location.Lng}
	}

	return &Candidate{
		OccurredAt:   occurred,
		Name:         name,
		Category:     checkinCategory,
		Icon:         checkinIcon,
		Color:        checkinColor,
		Note:         rec.Shout,
		Geo:          geo,
		LocationName: name,
		Address:      joinAddress(rec.Location.Address, rec.Location.City, rec.Location.State, rec.Location.Country),
	}, true
}

func parseCheckinTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range checkinTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
